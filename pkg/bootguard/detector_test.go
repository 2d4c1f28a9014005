package bootguard

import (
	"errors"
	"testing"
	"time"
)

// memStore is an in-memory Store for tests.
type memStore struct {
	record  *Record
	loadErr error
	saveErr error
}

func (s *memStore) Load() (*Record, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if s.record == nil {
		return nil, nil
	}
	rec := *s.record
	return &rec, nil
}

func (s *memStore) Save(record *Record) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	rec := *record
	s.record = &rec
	return nil
}

func (s *memStore) Clear() error {
	s.record = nil
	return nil
}

// fixedClock is an adjustable test clock.
type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

func (c *fixedClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestDetector(store *memStore) (*Detector, *fixedClock) {
	clock := &fixedClock{now: time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)}
	d := NewDetector(store, Config{
		Threshold: 5,
		Window:    30 * time.Second,
		Now:       clock.Now,
	})
	return d, clock
}

func TestInitFreshStore(t *testing.T) {
	store := &memStore{}
	d, _ := newTestDetector(store)

	if err := d.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if d.BootCount() != 0 {
		t.Errorf("BootCount() = %d after fresh init, want 0", d.BootCount())
	}
	if store.record == nil || store.record.Sentinel != Sentinel {
		t.Error("Init() did not rewrite the sentinel")
	}
}

func TestInitBadSentinel(t *testing.T) {
	// Cold power loss leaves garbage in retained memory.
	store := &memStore{record: &Record{Sentinel: 0xDEADBEEF, BootCount: 42}}
	d, _ := newTestDetector(store)

	if err := d.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if d.BootCount() != 0 {
		t.Errorf("BootCount() = %d after garbage record, want 0", d.BootCount())
	}
	if store.record.Sentinel != Sentinel {
		t.Error("sentinel not rewritten after garbage record")
	}
}

func TestInitIdempotent(t *testing.T) {
	store := &memStore{}
	d, _ := newTestDetector(store)

	if err := d.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := d.Increment(); err != nil {
		t.Fatalf("Increment() error = %v", err)
	}
	if err := d.Init(); err != nil {
		t.Fatalf("second Init() error = %v", err)
	}

	if d.BootCount() != 1 {
		t.Errorf("BootCount() = %d after repeated Init, want 1", d.BootCount())
	}
}

func TestInitLoadError(t *testing.T) {
	// A read failure is treated like an absent record.
	store := &memStore{loadErr: errors.New("retained region unreadable")}
	d, _ := newTestDetector(store)

	if err := d.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if d.BootCount() != 0 {
		t.Errorf("BootCount() = %d, want 0", d.BootCount())
	}
}

func TestIncrementWithinWindow(t *testing.T) {
	store := &memStore{}
	d, clock := newTestDetector(store)
	if err := d.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	// N increments inside the window count to N.
	for i := 1; i <= 4; i++ {
		if err := d.Increment(); err != nil {
			t.Fatalf("Increment() error = %v", err)
		}
		if d.BootCount() != i {
			t.Errorf("BootCount() = %d after %d increments, want %d", d.BootCount(), i, i)
		}
		clock.Advance(5 * time.Second)
	}
}

func TestIncrementStaleWindowRestarts(t *testing.T) {
	store := &memStore{}
	d, clock := newTestDetector(store)
	if err := d.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := d.Increment(); err != nil {
			t.Fatalf("Increment() error = %v", err)
		}
	}

	// Past the window: the counter restarts at 1 with a new origin.
	clock.Advance(31 * time.Second)
	if err := d.Increment(); err != nil {
		t.Fatalf("Increment() error = %v", err)
	}

	if d.BootCount() != 1 {
		t.Errorf("BootCount() = %d after stale window, want 1", d.BootCount())
	}
	if got := d.Snapshot().FirstBoot; !got.Equal(clock.now) {
		t.Errorf("FirstBoot = %v, want new window origin %v", got, clock.now)
	}
}

func TestIncrementBeforeInit(t *testing.T) {
	d, _ := newTestDetector(&memStore{})

	if err := d.Increment(); err != ErrNotInitialized {
		t.Errorf("Increment() before Init = %v, want ErrNotInitialized", err)
	}
}

func TestCheckResetPattern(t *testing.T) {
	store := &memStore{}
	d, clock := newTestDetector(store)
	if err := d.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	// Below threshold: no pattern.
	for i := 0; i < 4; i++ {
		if err := d.Increment(); err != nil {
			t.Fatalf("Increment() error = %v", err)
		}
		clock.Advance(2 * time.Second)
	}
	if d.CheckResetPattern() {
		t.Error("CheckResetPattern() = true below threshold")
	}

	// Fifth boot within the window: pattern present.
	if err := d.Increment(); err != nil {
		t.Fatalf("Increment() error = %v", err)
	}
	if !d.CheckResetPattern() {
		t.Error("CheckResetPattern() = false at threshold inside window")
	}

	// Once the window elapses relative to now, the pattern is gone even
	// though the count remains.
	clock.Advance(time.Minute)
	if d.CheckResetPattern() {
		t.Error("CheckResetPattern() = true after window elapsed")
	}
}

func TestCheckResetPatternLifetimeBoots(t *testing.T) {
	store := &memStore{}
	d, clock := newTestDetector(store)
	if err := d.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	// Many boots spread over a long lifetime never trigger: each stale
	// window restarts the counter.
	for i := 0; i < 20; i++ {
		if err := d.Increment(); err != nil {
			t.Fatalf("Increment() error = %v", err)
		}
		clock.Advance(time.Hour)
	}

	if d.CheckResetPattern() {
		t.Error("CheckResetPattern() = true for lifetime-spread boots")
	}
	if d.BootCount() != 1 {
		t.Errorf("BootCount() = %d, want 1", d.BootCount())
	}
}

func TestSetNormalOperation(t *testing.T) {
	store := &memStore{}
	d, _ := newTestDetector(store)
	if err := d.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	for i := 0; i < 5; i++ {
		if err := d.Increment(); err != nil {
			t.Fatalf("Increment() error = %v", err)
		}
	}
	if !d.CheckResetPattern() {
		t.Fatal("expected reset pattern before clear")
	}

	if err := d.SetNormalOperation(); err != nil {
		t.Fatalf("SetNormalOperation() error = %v", err)
	}

	if d.CheckResetPattern() {
		t.Error("CheckResetPattern() = true after SetNormalOperation")
	}
	if d.BootCount() != 0 {
		t.Errorf("BootCount() = %d after clear, want 0", d.BootCount())
	}
	if store.record.Sentinel != Sentinel {
		t.Error("sentinel lost on clear")
	}
}

func TestScenarioFivePowerCycles(t *testing.T) {
	// Five boots within 30000 ms: the reset pattern must be present on the
	// fifth boot even when valid credentials exist elsewhere.
	store := &memStore{}
	d, clock := newTestDetector(store)
	if err := d.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	for i := 0; i < 5; i++ {
		if err := d.Increment(); err != nil {
			t.Fatalf("Increment() error = %v", err)
		}
		clock.Advance(6 * time.Second)
	}

	// 5 boots over 24s of window consumed; check happens 6s after the
	// last increment, still inside the 30s window.
	if !d.CheckResetPattern() {
		t.Error("CheckResetPattern() = false on 5th boot within 30s window")
	}
}
