package testharness

import (
	"context"
	"sync"

	"github.com/acequialabs/acequia-go/pkg/discovery"
)

// FakeAdvertiser records discovery announcements instead of touching the
// network.
type FakeAdvertiser struct {
	mu          sync.Mutex
	setup       *discovery.SetupInfo
	operational *discovery.OperationalInfo
	setupStops  int
	operStops   int
}

// NewFakeAdvertiser creates an advertiser that only records.
func NewFakeAdvertiser() *FakeAdvertiser {
	return &FakeAdvertiser{}
}

// AdvertiseSetup records the setup announcement.
func (a *FakeAdvertiser) AdvertiseSetup(ctx context.Context, info *discovery.SetupInfo) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.setup = info
	return nil
}

// StopSetup withdraws the setup announcement.
func (a *FakeAdvertiser) StopSetup() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.setup = nil
	a.setupStops++
	return nil
}

// AdvertiseOperational records the operational announcement.
func (a *FakeAdvertiser) AdvertiseOperational(ctx context.Context, info *discovery.OperationalInfo) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.operational = info
	return nil
}

// StopOperational withdraws the operational announcement.
func (a *FakeAdvertiser) StopOperational() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.operational = nil
	a.operStops++
	return nil
}

// StopAll withdraws everything.
func (a *FakeAdvertiser) StopAll() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.setup != nil {
		a.setup = nil
		a.setupStops++
	}
	if a.operational != nil {
		a.operational = nil
		a.operStops++
	}
}

// Setup returns the live setup announcement, or nil.
func (a *FakeAdvertiser) Setup() *discovery.SetupInfo {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.setup
}

// Operational returns the live operational announcement, or nil.
func (a *FakeAdvertiser) Operational() *discovery.OperationalInfo {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.operational
}

// Compile-time interface satisfaction check.
var _ discovery.Advertiser = (*FakeAdvertiser)(nil)
