package main

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/acequialabs/acequia-go/pkg/netlink"
)

// Simulated radio timing.
const (
	simJoinLatency = 800 * time.Millisecond
	simAuthLatency = 1500 * time.Millisecond
	simScanLatency = 600 * time.Millisecond
)

// simRadio simulates the WiFi driver. Join outcomes derive from the
// configured networks; signals are published on the bus after realistic
// latencies.
type simRadio struct {
	bus *netlink.Bus
	mac string

	mu       sync.Mutex
	networks []simNetwork
	joined   string
	cancel   chan struct{}
}

// newSimRadio creates a simulated radio publishing on bus.
func newSimRadio(bus *netlink.Bus, networks []simNetwork) *simRadio {
	return &simRadio{
		bus:      bus,
		mac:      "DE:AD:BE:EF:00:01",
		networks: networks,
	}
}

// Connect starts a simulated join; the outcome arrives on the bus.
func (r *simRadio) Connect(ctx context.Context, ssid, password string) error {
	r.mu.Lock()
	if r.cancel != nil {
		close(r.cancel)
	}
	cancel := make(chan struct{})
	r.cancel = cancel
	r.mu.Unlock()

	go r.join(ssid, password, cancel)
	return nil
}

// join publishes the outcome of one join attempt.
func (r *simRadio) join(ssid, password string, cancel <-chan struct{}) {
	network, found := r.lookup(ssid)

	latency := simJoinLatency
	if found && network.Secured && network.Password != password {
		// Auth failures take a handshake round-trip longer.
		latency = simAuthLatency
	}

	select {
	case <-time.After(latency):
	case <-cancel:
		return
	}

	now := time.Now()
	switch {
	case !found:
		r.bus.Publish(netlink.Signal{Kind: netlink.KindNetworkNotFound, SSID: ssid, Timestamp: now})

	case network.Secured && network.Password != password:
		r.bus.Publish(netlink.Signal{Kind: netlink.KindAuthFailed, SSID: ssid, Timestamp: now})

	default:
		r.mu.Lock()
		r.joined = ssid
		r.mu.Unlock()

		r.bus.Publish(netlink.Signal{Kind: netlink.KindConnected, SSID: ssid, Timestamp: now})
		r.bus.Publish(netlink.Signal{
			Kind:      netlink.KindGotIP,
			SSID:      ssid,
			IP:        fmt.Sprintf("192.168.4.%d", 2+rand.Intn(250)),
			Timestamp: time.Now(),
		})
	}
}

// Disconnect aborts any join in progress and drops the link.
func (r *simRadio) Disconnect() error {
	r.mu.Lock()
	if r.cancel != nil {
		select {
		case <-r.cancel:
		default:
			close(r.cancel)
		}
		r.cancel = nil
	}
	r.joined = ""
	r.mu.Unlock()
	return nil
}

// Scan returns the visible networks with a little RSSI jitter.
func (r *simRadio) Scan(ctx context.Context) ([]netlink.Network, error) {
	select {
	case <-time.After(simScanLatency):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	networks := make([]netlink.Network, 0, len(r.networks))
	for _, n := range r.networks {
		networks = append(networks, netlink.Network{
			SSID:    n.SSID,
			RSSI:    n.RSSI + rand.Intn(7) - 3,
			Secured: n.Secured,
		})
	}
	return networks, nil
}

// MACAddress returns the simulated MAC.
func (r *simRadio) MACAddress() string {
	return r.mac
}

// DropLink simulates sudden link loss, for the console's drop command.
func (r *simRadio) DropLink() {
	r.mu.Lock()
	ssid := r.joined
	r.joined = ""
	r.mu.Unlock()

	if ssid == "" {
		return
	}
	r.bus.Publish(netlink.Signal{
		Kind:      netlink.KindDisconnected,
		SSID:      ssid,
		Detail:    "simulated link loss",
		Timestamp: time.Now(),
	})
}

// lookup finds a simulated network by SSID.
func (r *simRadio) lookup(ssid string) (simNetwork, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range r.networks {
		if n.SSID == ssid {
			return n, true
		}
	}
	return simNetwork{}, false
}

// Compile-time interface satisfaction check.
var _ netlink.Delegate = (*simRadio)(nil)
