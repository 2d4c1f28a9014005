package discovery

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/enbility/zeroconf/v3"
)

// MDNSAdvertiser implements the Advertiser interface using zeroconf.
type MDNSAdvertiser struct {
	config AdvertiserConfig

	mu sync.Mutex

	// Active services
	setupServer       *zeroconf.Server
	operationalServer *zeroconf.Server
}

// NewMDNSAdvertiser creates a new mDNS advertiser.
func NewMDNSAdvertiser(config AdvertiserConfig) (*MDNSAdvertiser, error) {
	return &MDNSAdvertiser{
		config: config,
	}, nil
}

// getInterfaces returns the network interfaces to use for advertising.
// Returns nil to use all interfaces.
func (a *MDNSAdvertiser) getInterfaces() []net.Interface {
	if a.config.Interface == "" {
		return nil
	}

	iface, err := net.InterfaceByName(a.config.Interface)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}

// serverOptions builds common zeroconf server options.
func (a *MDNSAdvertiser) serverOptions() []zeroconf.ServerOption {
	var opts []zeroconf.ServerOption
	if a.config.TTL > 0 {
		opts = append(opts, zeroconf.TTL(uint32(a.config.TTL.Seconds())))
	}
	return opts
}

// instanceName builds an mDNS instance label from the device MAC,
// e.g. "acequia-AABBCCDDEEFF".
func instanceName(mac string) string {
	compact := strings.ToUpper(strings.NewReplacer(":", "", "-", "").Replace(mac))
	name := fmt.Sprintf("acequia-%s", compact)
	if len(name) > MaxInstanceNameLen {
		name = name[:MaxInstanceNameLen]
	}
	return name
}

// AdvertiseSetup starts advertising the setup service.
func (a *MDNSAdvertiser) AdvertiseSetup(ctx context.Context, info *SetupInfo) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Stop existing if any
	if a.setupServer != nil {
		a.setupServer.Shutdown()
		a.setupServer = nil
	}

	txtStrings := TXTRecordsToStrings(EncodeSetupTXT(info))

	port := int(info.Port)
	if port == 0 {
		port = DefaultPortalPort
	}

	server, err := zeroconf.Register(
		instanceName(info.MAC),
		ServiceTypeSetup,
		Domain,
		port,
		txtStrings,
		a.getInterfaces(),
		a.serverOptions()...,
	)
	if err != nil {
		return fmt.Errorf("failed to register setup service: %w", err)
	}

	a.setupServer = server
	return nil
}

// StopSetup stops advertising the setup service.
func (a *MDNSAdvertiser) StopSetup() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.setupServer != nil {
		a.setupServer.Shutdown()
		a.setupServer = nil
	}
	return nil
}

// AdvertiseOperational starts advertising the operational service.
func (a *MDNSAdvertiser) AdvertiseOperational(ctx context.Context, info *OperationalInfo) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Stop existing if any
	if a.operationalServer != nil {
		a.operationalServer.Shutdown()
		a.operationalServer = nil
	}

	txtStrings := TXTRecordsToStrings(EncodeOperationalTXT(info))

	port := int(info.Port)
	if port == 0 {
		port = DefaultOperationalPort
	}

	server, err := zeroconf.Register(
		instanceName(info.MAC),
		ServiceTypeOperational,
		Domain,
		port,
		txtStrings,
		a.getInterfaces(),
		a.serverOptions()...,
	)
	if err != nil {
		return fmt.Errorf("failed to register operational service: %w", err)
	}

	a.operationalServer = server
	return nil
}

// StopOperational stops advertising the operational service.
func (a *MDNSAdvertiser) StopOperational() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.operationalServer != nil {
		a.operationalServer.Shutdown()
		a.operationalServer = nil
	}
	return nil
}

// StopAll stops all advertisements.
func (a *MDNSAdvertiser) StopAll() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.setupServer != nil {
		a.setupServer.Shutdown()
		a.setupServer = nil
	}
	if a.operationalServer != nil {
		a.operationalServer.Shutdown()
		a.operationalServer = nil
	}
}

// Compile-time interface satisfaction check.
var _ Advertiser = (*MDNSAdvertiser)(nil)
