package bootguard

import (
	"errors"
	"sync"
	"time"
)

// Sentinel marks a valid retained boot record. Any other value means the
// retained region holds garbage (cold power loss) and is reinitialized.
const Sentinel uint32 = 0xB007C1C3

// Default detection parameters. Both are tunable via Config.
const (
	// DefaultThreshold is the number of boots that triggers the pattern.
	DefaultThreshold = 5

	// DefaultWindow is how long a boot burst stays valid.
	DefaultWindow = 30 * time.Second
)

// Detector errors.
var (
	ErrNotInitialized = errors.New("boot-loop detector not initialized")
)

// Record is the retained boot-cycle record.
// It is owned solely by the Detector; external code only ever sees copies.
type Record struct {
	// Sentinel must equal the package Sentinel or the record is invalid.
	Sentinel uint32 `json:"sentinel"`

	// BootCount is the number of boots in the current window.
	BootCount int `json:"boot_count"`

	// FirstBoot is when the current window started.
	FirstBoot time.Time `json:"first_boot,omitempty"`

	// LastBoot is when the most recent boot occurred.
	LastBoot time.Time `json:"last_boot,omitempty"`
}

// Store persists the retained record. Implementations live outside this
// package (pkg/persistence provides the file-backed one); Load returns
// nil, nil when no record exists.
type Store interface {
	Load() (*Record, error)
	Save(record *Record) error
	Clear() error
}

// Config holds boot-loop detector configuration.
type Config struct {
	// Threshold is the boot count at which the reset pattern triggers.
	Threshold int

	// Window is the maximum age of a boot burst.
	Window time.Duration

	// Now returns the current time. Defaults to time.Now; tests inject a
	// fixed clock.
	Now func() time.Time
}

// DefaultConfig returns the default detector configuration.
func DefaultConfig() Config {
	return Config{
		Threshold: DefaultThreshold,
		Window:    DefaultWindow,
		Now:       time.Now,
	}
}

// Detector counts boots and detects the reset pattern.
type Detector struct {
	mu sync.Mutex

	store  Store
	config Config

	record      Record
	initialized bool
}

// NewDetector creates a boot-loop detector backed by the given store.
func NewDetector(store Store, config Config) *Detector {
	if config.Threshold <= 0 {
		config.Threshold = DefaultThreshold
	}
	if config.Window <= 0 {
		config.Window = DefaultWindow
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	return &Detector{
		store:  store,
		config: config,
	}
}

// Init loads the retained record. A missing record or a mismatched sentinel
// resets all fields to zero and rewrites the sentinel. Init is idempotent.
func (d *Detector) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.initialized {
		return nil
	}

	loaded, err := d.store.Load()
	if err != nil || loaded == nil || loaded.Sentinel != Sentinel {
		// Garbage, corrupt, or absent: start from zero.
		d.record = Record{Sentinel: Sentinel}
		if err := d.store.Save(&d.record); err != nil {
			return err
		}
		d.initialized = true
		return nil
	}

	d.record = *loaded
	d.initialized = true
	return nil
}

// Increment records one boot. Call exactly once per boot, before any
// network activity.
func (d *Detector) Increment() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return ErrNotInitialized
	}

	now := d.config.Now()

	switch {
	case d.record.BootCount == 0:
		// First boot of a new window.
		d.record.BootCount = 1
		d.record.FirstBoot = now
	case now.Sub(d.record.FirstBoot) > d.config.Window:
		// Prior burst is stale: restart the window.
		d.record.BootCount = 1
		d.record.FirstBoot = now
	default:
		d.record.BootCount++
	}
	d.record.LastBoot = now

	return d.store.Save(&d.record)
}

// CheckResetPattern returns true iff the boot count reached the threshold
// AND the burst is still inside the window relative to now. The two-part
// test prevents a device rebooted many times over its lifetime from ever
// falsely triggering.
func (d *Detector) CheckResetPattern() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return false
	}
	if d.record.BootCount < d.config.Threshold {
		return false
	}
	return d.config.Now().Sub(d.record.FirstBoot) <= d.config.Window
}

// SetNormalOperation clears the counter. Call only after the adapter has
// reached a sustained CONNECTED state, so legitimate future reboots don't
// inherit a stale count.
func (d *Detector) SetNormalOperation() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return ErrNotInitialized
	}

	d.record.BootCount = 0
	d.record.FirstBoot = time.Time{}
	return d.store.Save(&d.record)
}

// BootCount returns the current boot count.
func (d *Detector) BootCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.record.BootCount
}

// Snapshot returns a copy of the retained record for status surfaces.
func (d *Detector) Snapshot() Record {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.record
}
