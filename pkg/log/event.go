package log

import (
	"time"
)

// Event represents a connectivity log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// DeviceID identifies the controller (MAC address or serial).
	DeviceID string `cbor:"2,keyasint,omitempty"`

	// SessionID ties related events together (UUID). Validation attempts
	// and portal requests each get their own session ID.
	SessionID string `cbor:"3,keyasint,omitempty"`

	// Source indicates which component emitted the event.
	Source Source `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// Type-specific payload (one of these will be set).
	StateChange *StateChangeEvent `cbor:"6,keyasint,omitempty"`  // Adapter/manager state
	Signal      *SignalEvent      `cbor:"7,keyasint,omitempty"`  // Radio signals
	Portal      *PortalEvent      `cbor:"8,keyasint,omitempty"`  // Captive portal HTTP
	Validation  *ValidationEvent  `cbor:"9,keyasint,omitempty"`  // Credential validation
	Error       *ErrorEventData   `cbor:"10,keyasint,omitempty"` // Errors at any layer
}

// Source indicates which component emitted an event.
type Source uint8

const (
	// SourceAdapter is the connectivity adapter.
	SourceAdapter Source = 0
	// SourceProvisioning is the provisioning manager.
	SourceProvisioning Source = 1
	// SourceDelegate is the connection delegate (radio driver boundary).
	SourceDelegate Source = 2
	// SourceBootguard is the boot-loop detector.
	SourceBootguard Source = 3
	// SourcePortal is the captive portal HTTP surface.
	SourcePortal Source = 4
)

// String returns the source name.
func (s Source) String() string {
	switch s {
	case SourceAdapter:
		return "ADAPTER"
	case SourceProvisioning:
		return "PROVISIONING"
	case SourceDelegate:
		return "DELEGATE"
	case SourceBootguard:
		return "BOOTGUARD"
	case SourcePortal:
		return "PORTAL"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryState indicates a state change.
	CategoryState Category = 0
	// CategorySignal indicates a radio signal.
	CategorySignal Category = 1
	// CategoryPortal indicates a captive portal request.
	CategoryPortal Category = 2
	// CategoryValidation indicates a credential validation attempt.
	CategoryValidation Category = 3
	// CategoryError indicates an error event.
	CategoryError Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryState:
		return "STATE"
	case CategorySignal:
		return "SIGNAL"
	case CategoryPortal:
		return "PORTAL"
	case CategoryValidation:
		return "VALIDATION"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// StateChangeEvent captures a component state transition.
type StateChangeEvent struct {
	// OldState is the state name before the transition.
	OldState string `cbor:"1,keyasint"`

	// NewState is the state name after the transition.
	NewState string `cbor:"2,keyasint"`

	// Reason describes why the transition occurred (optional).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// SignalEvent captures a radio signal delivered by the connection delegate.
type SignalEvent struct {
	// Name is the signal name (CONNECTED, GOT_IP, AUTH_FAILED, ...).
	Name string `cbor:"1,keyasint"`

	// SSID is the network the signal refers to, when known.
	SSID string `cbor:"2,keyasint,omitempty"`

	// Detail carries driver-reported context (optional).
	Detail string `cbor:"3,keyasint,omitempty"`
}

// PortalEvent captures a captive portal HTTP request.
type PortalEvent struct {
	// Method is the HTTP method.
	Method string `cbor:"1,keyasint"`

	// Path is the request path.
	Path string `cbor:"2,keyasint"`

	// Status is the HTTP response status code.
	Status int `cbor:"3,keyasint"`

	// RemoteAddr is the client address.
	RemoteAddr string `cbor:"4,keyasint,omitempty"`
}

// ValidationEvent captures a credential validation attempt.
type ValidationEvent struct {
	// SSID is the candidate network.
	SSID string `cbor:"1,keyasint"`

	// Outcome is the validation outcome name (OK, AUTH_FAILED, ...).
	Outcome string `cbor:"2,keyasint"`

	// Elapsed is how long the validation took.
	Elapsed time.Duration `cbor:"3,keyasint,omitempty"`
}

// ErrorEventData captures an error at any layer.
type ErrorEventData struct {
	// Context describes what was being attempted.
	Context string `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`
}
