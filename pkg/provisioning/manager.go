package provisioning

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/acequialabs/acequia-go/pkg/log"
	"github.com/acequialabs/acequia-go/pkg/netlink"
	"github.com/acequialabs/acequia-go/pkg/persistence"
)

// Manager errors.
var (
	ErrAlreadyStarted = errors.New("provisioning manager already started")
	ErrNotStarted     = errors.New("provisioning manager not started")
)

// Default configuration values.
const (
	// DefaultListenAddr is where the captive portal listens. On hardware
	// this is the access point's address; tests override it.
	DefaultListenAddr = ":8080"

	// DefaultValidationTimeout bounds how long a credential submission
	// blocks waiting for a join outcome.
	DefaultValidationTimeout = 15 * time.Second

	// DefaultScanTimeout bounds an active scan.
	DefaultScanTimeout = 10 * time.Second

	// DefaultMaxScanResults caps the /scan response.
	DefaultMaxScanResults = 15

	// DefaultMinFreeBytes is the admission control floor.
	DefaultMinFreeBytes = 16 * 1024
)

// Config holds provisioning manager configuration.
type Config struct {
	// ListenAddr is the portal listen address.
	ListenAddr string

	// ValidationTimeout is the credential validation window.
	ValidationTimeout time.Duration

	// ScanTimeout bounds an active scan.
	ScanTimeout time.Duration

	// MaxScanResults caps the number of networks returned by /scan.
	MaxScanResults int

	// MinFreeBytes is the free-memory floor below which scans and
	// submissions are refused.
	MinFreeBytes uint64

	// DeviceID identifies the controller in log events.
	DeviceID string
}

// DefaultConfig returns the default manager configuration.
func DefaultConfig() Config {
	return Config{
		ListenAddr:        DefaultListenAddr,
		ValidationTimeout: DefaultValidationTimeout,
		ScanTimeout:       DefaultScanTimeout,
		MaxScanResults:    DefaultMaxScanResults,
		MinFreeBytes:      DefaultMinFreeBytes,
	}
}

// State represents the provisioning manager lifecycle state.
type State uint8

const (
	// StateIdle means the portal is down.
	StateIdle State = iota

	// StateActive means the portal is up and accepting requests.
	StateActive

	// StateValidating means a credential validation is in flight.
	StateValidating

	// StateCompleted means credentials were validated and persisted this
	// session. The portal stays up until the adapter tears it down.
	StateCompleted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateActive:
		return "ACTIVE"
	case StateValidating:
		return "VALIDATING"
	case StateCompleted:
		return "COMPLETED"
	default:
		return "UNKNOWN"
	}
}

// Event is a provisioning lifecycle event delivered to the adapter.
type Event uint8

const (
	// EventStarted fires when the portal comes up.
	EventStarted Event = iota

	// EventCredentialsSuccess fires when a validation succeeded and the
	// credentials were persisted. Always precedes EventCompleted.
	EventCredentialsSuccess

	// EventCredentialsFailure fires when a validation failed.
	EventCredentialsFailure

	// EventCompleted fires after credentials are committed; the adapter
	// tears the portal down and connects.
	EventCompleted

	// EventFailed fires when the manager hit an unrecoverable error.
	EventFailed
)

// String returns the event name.
func (e Event) String() string {
	switch e {
	case EventStarted:
		return "STARTED"
	case EventCredentialsSuccess:
		return "CREDENTIALS_SUCCESS"
	case EventCredentialsFailure:
		return "CREDENTIALS_FAILURE"
	case EventCompleted:
		return "COMPLETED"
	case EventFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// CredentialStore is the durable credential storage the manager commits to.
type CredentialStore interface {
	// Save persists validated credentials.
	Save(creds *persistence.DeviceCredentials) error

	// Load returns the stored credentials, or nil if none exist.
	Load() (*persistence.DeviceCredentials, error)

	// IsProvisioned reports whether usable credentials are stored.
	IsProvisioned() bool

	// Clear removes stored credentials.
	Clear() error
}

// Compile-time interface satisfaction check.
var _ CredentialStore = (*persistence.CredentialsStore)(nil)

// Manager owns the captive portal and the credential validation protocol.
type Manager struct {
	config   Config
	delegate netlink.Delegate
	bus      *netlink.Bus
	store    CredentialStore

	gauge  MemoryGauge
	logger log.Logger

	mu        sync.RWMutex
	state     State
	server    *http.Server
	listener  net.Listener
	sessionID string

	eventHandler func(Event)

	// validationMu serializes credential validations. Concurrent
	// submissions queue here rather than interleave.
	validationMu sync.Mutex
}

// NewManager creates a provisioning manager.
// The bus must be the one the delegate publishes its signals on.
func NewManager(config Config, delegate netlink.Delegate, bus *netlink.Bus, store CredentialStore) *Manager {
	if config.ListenAddr == "" {
		config.ListenAddr = DefaultListenAddr
	}
	if config.ValidationTimeout <= 0 {
		config.ValidationTimeout = DefaultValidationTimeout
	}
	if config.ScanTimeout <= 0 {
		config.ScanTimeout = DefaultScanTimeout
	}
	if config.MaxScanResults <= 0 {
		config.MaxScanResults = DefaultMaxScanResults
	}
	if config.MinFreeBytes == 0 {
		config.MinFreeBytes = DefaultMinFreeBytes
	}

	return &Manager{
		config:   config,
		delegate: delegate,
		bus:      bus,
		store:    store,
		logger:   log.NoopLogger{},
	}
}

// SetLogger sets the event logger. Call before Start.
func (m *Manager) SetLogger(logger log.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if logger == nil {
		logger = log.NoopLogger{}
	}
	m.logger = logger
}

// SetMemoryGauge sets the admission control gauge. A nil gauge admits
// everything. Call before Start.
func (m *Manager) SetMemoryGauge(gauge MemoryGauge) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauge = gauge
}

// SetEventHandler registers the lifecycle event callback. Events are
// delivered in order from the goroutine that produced them; the handler
// must not block. Call before Start.
func (m *Manager) SetEventHandler(fn func(Event)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventHandler = fn
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// SessionID returns the current provisioning session ID, or empty when idle.
func (m *Manager) SessionID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessionID
}

// Addr returns the portal's bound address, useful when ListenAddr used
// port 0.
func (m *Manager) Addr() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.listener == nil {
		return ""
	}
	return m.listener.Addr().String()
}

// Start brings up the captive portal and begins accepting requests.
func (m *Manager) Start() error {
	m.mu.Lock()

	if m.state != StateIdle {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}

	listener, err := net.Listen("tcp", m.config.ListenAddr)
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("failed to bind portal listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", m.handleIndex)
	mux.HandleFunc("/scan", m.handleScan)
	mux.HandleFunc("/config", m.handleConfig)
	mux.HandleFunc("/connect", m.handleConnect)

	m.listener = listener
	m.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	m.sessionID = uuid.NewString()
	m.setStateLocked(StateActive, "portal up")

	server := m.server
	m.mu.Unlock()

	go func() {
		// Serve returns http.ErrServerClosed on Stop.
		_ = server.Serve(listener)
	}()

	m.emit(EventStarted)
	return nil
}

// Stop tears down the portal. Safe to call mid-validation: the blocked
// handler keeps running to its timeout and still unregisters its
// subscription; only the HTTP surface goes away.
func (m *Manager) Stop() error {
	m.mu.Lock()

	if m.state == StateIdle {
		m.mu.Unlock()
		return nil
	}

	server := m.server
	m.server = nil
	m.listener = nil
	m.setStateLocked(StateIdle, "portal down")
	m.mu.Unlock()

	if server != nil {
		return server.Close()
	}
	return nil
}

// IsProvisioned reports whether usable credentials are stored. The store
// is always re-read; never cached.
func (m *Manager) IsProvisioned() bool {
	return m.store.IsProvisioned()
}

// Credentials returns the stored credentials, or nil when not provisioned.
func (m *Manager) Credentials() (*persistence.DeviceCredentials, error) {
	return m.store.Load()
}

// ResetCredentials removes stored credentials.
func (m *Manager) ResetCredentials() error {
	return m.store.Clear()
}

// setStateLocked updates state and logs the transition. Caller holds mu.
func (m *Manager) setStateLocked(newState State, reason string) {
	if m.state == newState {
		return
	}

	old := m.state
	m.state = newState

	m.logger.Log(log.Event{
		Timestamp: time.Now(),
		DeviceID:  m.config.DeviceID,
		SessionID: m.sessionID,
		Source:    log.SourceProvisioning,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			OldState: old.String(),
			NewState: newState.String(),
			Reason:   reason,
		},
	})
}

// setState updates state under the lock.
func (m *Manager) setState(newState State, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setStateLocked(newState, reason)
}

// emit delivers a lifecycle event to the registered handler, outside any
// lock.
func (m *Manager) emit(ev Event) {
	m.mu.RLock()
	handler := m.eventHandler
	m.mu.RUnlock()

	if handler != nil {
		handler(ev)
	}
}

// admit checks the memory gauge before an expensive operation.
func (m *Manager) admit() bool {
	m.mu.RLock()
	gauge := m.gauge
	m.mu.RUnlock()

	if gauge == nil {
		return true
	}
	return gauge.FreeBytes() >= m.config.MinFreeBytes
}

// logError records an error event.
func (m *Manager) logError(context string, err error) {
	m.mu.RLock()
	logger := m.logger
	sessionID := m.sessionID
	m.mu.RUnlock()

	logger.Log(log.Event{
		Timestamp: time.Now(),
		DeviceID:  m.config.DeviceID,
		SessionID: sessionID,
		Source:    log.SourceProvisioning,
		Category:  log.CategoryError,
		Error: &log.ErrorEventData{
			Context: context,
			Message: err.Error(),
		},
	})
}
