package discovery

import "context"

// Advertiser provides mDNS service advertising capabilities.
type Advertiser interface {
	// AdvertiseSetup starts advertising the setup (captive portal) service.
	// The service is advertised until StopSetup is called.
	AdvertiseSetup(ctx context.Context, info *SetupInfo) error

	// StopSetup stops advertising the setup service.
	StopSetup() error

	// AdvertiseOperational starts advertising the operational service on
	// the joined network.
	AdvertiseOperational(ctx context.Context, info *OperationalInfo) error

	// StopOperational stops advertising the operational service.
	StopOperational() error

	// StopAll stops all advertisements.
	StopAll()
}
