package netlink

import "context"

// Network describes one access point found by a scan.
type Network struct {
	// SSID is the network name. Hidden networks report an empty SSID.
	SSID string

	// RSSI is the received signal strength in dBm (negative).
	RSSI int

	// Secured indicates the network requires a password.
	Secured bool
}

// Delegate is the boundary to the low-level radio driver.
//
// Connect starts a join attempt with the given credentials and returns once
// the attempt has been accepted by the driver; the outcome arrives later as
// signals on the Bus. Disconnect aborts any in-progress join and stops the
// driver's internal retry loop. Scan performs a bounded-duration active scan.
//
// Implementations must be safe for concurrent use.
type Delegate interface {
	// Connect starts joining the given network. The definitive outcome is
	// reported via Bus signals, not the return value; an error here means
	// the driver refused to start the attempt at all.
	Connect(ctx context.Context, ssid, password string) error

	// Disconnect drops the current link and cancels internal retries.
	Disconnect() error

	// Scan performs an active scan and returns the visible networks.
	Scan(ctx context.Context) ([]Network, error)

	// MACAddress returns the radio's MAC address.
	MACAddress() string
}
