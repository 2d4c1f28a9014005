package discovery

import (
	"errors"
	"time"
)

// Service type constants for mDNS.
const (
	// ServiceTypeSetup is the service type advertised while the captive
	// portal is active.
	ServiceTypeSetup = "_acequia-setup._tcp"

	// ServiceTypeOperational is the service type for connected controllers.
	ServiceTypeOperational = "_acequia._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// DefaultPortalPort is the captive portal port.
	DefaultPortalPort = 80

	// DefaultOperationalPort is the controller API port.
	DefaultOperationalPort = 8080
)

// TXT record key constants.
const (
	TXTKeyDeviceName = "DN"     // Operator-assigned device name (optional)
	TXTKeyModel      = "model"  // Model name
	TXTKeySerial     = "serial" // Serial number
	TXTKeyMAC        = "MAC"    // Radio MAC address
	TXTKeyFirmware   = "FW"     // Firmware version (optional)
	TXTKeySSID       = "ssid"   // Joined network (operational only, optional)
)

// Limits.
const (
	// MaxInstanceNameLen is the DNS label limit.
	MaxInstanceNameLen = 63
)

// Discovery errors.
var (
	ErrMissingRequired     = errors.New("missing required field")
	ErrInstanceNameTooLong = errors.New("instance name exceeds 63 characters")
)

// SetupInfo describes the controller while the captive portal is active.
type SetupInfo struct {
	// MAC is the radio MAC address (required; identifies the device).
	MAC string

	// Model is the controller model name (required).
	Model string

	// Serial is the controller serial number (required).
	Serial string

	// DeviceName is the operator-assigned name (optional; unset until
	// first provisioning).
	DeviceName string

	// Port is the portal port. Zero means DefaultPortalPort.
	Port uint16
}

// OperationalInfo describes the controller on the joined network.
type OperationalInfo struct {
	// MAC is the radio MAC address (required).
	MAC string

	// Model is the controller model name (required).
	Model string

	// Serial is the controller serial number (required).
	Serial string

	// DeviceName is the operator-assigned name (optional).
	DeviceName string

	// Firmware is the firmware version (optional).
	Firmware string

	// SSID is the joined network (optional).
	SSID string

	// Port is the controller API port. Zero means DefaultOperationalPort.
	Port uint16
}

// AdvertiserConfig configures advertiser behavior.
type AdvertiserConfig struct {
	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string

	// TTL is the DNS record TTL.
	// Default: 120 seconds.
	TTL time.Duration
}

// DefaultAdvertiserConfig returns the default advertiser configuration.
func DefaultAdvertiserConfig() AdvertiserConfig {
	return AdvertiserConfig{
		Interface: "",
		TTL:       120 * time.Second,
	}
}
