package testharness

import (
	"context"
	"sync"
	"time"

	"github.com/acequialabs/acequia-go/pkg/netlink"
)

// AccessPoint is one simulated network the fake delegate can see and join.
type AccessPoint struct {
	SSID     string
	Password string
	RSSI     int
	Secured  bool
}

// FakeDelegate simulates the radio driver. Connect outcomes derive from the
// configured access points: unknown SSID reports NETWORK_NOT_FOUND, a wrong
// password reports AUTH_FAILED, a match reports CONNECTED then GOT_IP.
// Signals are published on the bus from a separate goroutine after
// SignalDelay, mirroring how the real driver reports asynchronously.
type FakeDelegate struct {
	// Bus receives the outcome signals.
	Bus *netlink.Bus

	// AccessPoints are the visible networks.
	AccessPoints []AccessPoint

	// MAC is returned by MACAddress.
	MAC string

	// IP is reported with GOT_IP on a successful join.
	IP string

	// SignalDelay delays outcome signals after Connect.
	SignalDelay time.Duration

	// Silent suppresses all outcome signals, forcing the timeout path.
	Silent bool

	// ConnectErr, when set, is returned by Connect immediately.
	ConnectErr error

	// ScanErr, when set, is returned by Scan.
	ScanErr error

	mu              sync.Mutex
	connectCalls    int
	disconnectCalls int
	scanCalls       int
	lastSSID        string
	lastPassword    string
	disconnected    chan struct{}
}

// NewFakeDelegate creates a fake delegate publishing on bus.
func NewFakeDelegate(bus *netlink.Bus, aps ...AccessPoint) *FakeDelegate {
	return &FakeDelegate{
		Bus:          bus,
		AccessPoints: aps,
		MAC:          "AA:BB:CC:DD:EE:FF",
		IP:           "192.168.1.50",
	}
}

// Connect starts a simulated join. The outcome arrives on the bus.
func (d *FakeDelegate) Connect(ctx context.Context, ssid, password string) error {
	d.mu.Lock()
	d.connectCalls++
	d.lastSSID = ssid
	d.lastPassword = password
	d.disconnected = make(chan struct{})
	cancel := d.disconnected
	d.mu.Unlock()

	if d.ConnectErr != nil {
		return d.ConnectErr
	}
	if d.Silent {
		return nil
	}

	go d.report(ssid, password, cancel)
	return nil
}

// report publishes the join outcome unless Disconnect raced it.
func (d *FakeDelegate) report(ssid, password string, cancel <-chan struct{}) {
	if d.SignalDelay > 0 {
		select {
		case <-time.After(d.SignalDelay):
		case <-cancel:
			return
		}
	} else {
		select {
		case <-cancel:
			return
		default:
		}
	}

	ap, found := d.lookup(ssid)
	now := time.Now()

	switch {
	case !found:
		d.Bus.Publish(netlink.Signal{Kind: netlink.KindNetworkNotFound, SSID: ssid, Timestamp: now})
	case ap.Secured && ap.Password != password:
		d.Bus.Publish(netlink.Signal{Kind: netlink.KindAuthFailed, SSID: ssid, Timestamp: now})
	default:
		d.Bus.Publish(netlink.Signal{Kind: netlink.KindConnected, SSID: ssid, Timestamp: now})
		d.Bus.Publish(netlink.Signal{Kind: netlink.KindGotIP, SSID: ssid, IP: d.IP, Timestamp: now})
	}
}

// lookup finds a configured access point by SSID.
func (d *FakeDelegate) lookup(ssid string) (AccessPoint, bool) {
	for _, ap := range d.AccessPoints {
		if ap.SSID == ssid {
			return ap, true
		}
	}
	return AccessPoint{}, false
}

// Disconnect aborts any pending outcome report.
func (d *FakeDelegate) Disconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.disconnectCalls++
	if d.disconnected != nil {
		select {
		case <-d.disconnected:
		default:
			close(d.disconnected)
		}
	}
	return nil
}

// Scan returns the configured access points.
func (d *FakeDelegate) Scan(ctx context.Context) ([]netlink.Network, error) {
	d.mu.Lock()
	d.scanCalls++
	d.mu.Unlock()

	if d.ScanErr != nil {
		return nil, d.ScanErr
	}

	networks := make([]netlink.Network, 0, len(d.AccessPoints))
	for _, ap := range d.AccessPoints {
		networks = append(networks, netlink.Network{
			SSID:    ap.SSID,
			RSSI:    ap.RSSI,
			Secured: ap.Secured,
		})
	}
	return networks, nil
}

// MACAddress returns the configured MAC.
func (d *FakeDelegate) MACAddress() string {
	return d.MAC
}

// ConnectCalls returns how many times Connect was invoked.
func (d *FakeDelegate) ConnectCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connectCalls
}

// DisconnectCalls returns how many times Disconnect was invoked.
func (d *FakeDelegate) DisconnectCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.disconnectCalls
}

// ScanCalls returns how many times Scan was invoked.
func (d *FakeDelegate) ScanCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scanCalls
}

// LastCredentials returns the most recent Connect arguments.
func (d *FakeDelegate) LastCredentials() (ssid, password string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastSSID, d.lastPassword
}

// Compile-time interface satisfaction check.
var _ netlink.Delegate = (*FakeDelegate)(nil)
