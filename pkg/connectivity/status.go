package connectivity

import (
	"errors"
	"time"
)

// ErrNotAvailable is returned when a connection detail is requested in a
// state that has none (no IP while disconnected, for example).
var ErrNotAvailable = errors.New("not available in current state")

// State represents the adapter state.
type State uint8

const (
	// StateUninitialized is the state before Start.
	StateUninitialized State = iota

	// StateCheckingProvision means the adapter is deciding between
	// connecting and provisioning.
	StateCheckingProvision

	// StateProvisioning means the captive portal is active.
	StateProvisioning

	// StateConnecting means a join with stored credentials is in flight.
	StateConnecting

	// StateConnected means the controller is on the farm network.
	StateConnected

	// StateDisconnected means the link dropped; reconnection is pending.
	StateDisconnected

	// StateError means the adapter hit an unrecoverable condition.
	// ForceProvisioning recovers.
	StateError
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "UNINITIALIZED"
	case StateCheckingProvision:
		return "CHECKING_PROVISION"
	case StateProvisioning:
		return "PROVISIONING"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateDisconnected:
		return "DISCONNECTED"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Status is a point-in-time snapshot of the adapter. Callers always get a
// copy; mutating it has no effect on the adapter.
type Status struct {
	// State is the adapter state.
	State State

	// Provisioned reports whether usable credentials are stored.
	Provisioned bool

	// Connected reports link-layer association. Association alone does
	// not make the controller reachable; see HasIP.
	Connected bool

	// HasIP reports whether an address was assigned on the current link.
	HasIP bool

	// SSID is the current or target network.
	SSID string

	// IP is the assigned address, when connected.
	IP string

	// MAC is the radio MAC address.
	MAC string

	// ConnectAttempts counts failed joins since the last success.
	ConnectAttempts int

	// LastError is the most recent failure detail.
	LastError string

	// Since is when the current state was entered.
	Since time.Time
}

// Status returns a snapshot of the adapter's current status. The
// Provisioned flag is re-read from the credential store on every call,
// never cached.
func (a *Adapter) Status() Status {
	provisioned := a.manager.IsProvisioned()

	a.mu.RLock()
	defer a.mu.RUnlock()

	s := a.status
	s.Provisioned = provisioned
	return s
}

// State returns the current adapter state.
func (a *Adapter) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status.State
}

// IsConnected reports whether the controller is fully on the network:
// associated and holding an address. A link that associated but has not
// finished DHCP does not count.
func (a *Adapter) IsConnected() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status.Connected && a.status.HasIP
}

// IsProvisioned reports whether usable credentials are stored.
func (a *Adapter) IsProvisioned() bool {
	return a.manager.IsProvisioned()
}

// IP returns the assigned address, or ErrNotAvailable when there is none.
func (a *Adapter) IP() (string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.status.State != StateConnected || a.status.IP == "" {
		return "", ErrNotAvailable
	}
	return a.status.IP, nil
}

// SSID returns the connected network, or ErrNotAvailable when not
// connected.
func (a *Adapter) SSID() (string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.status.State != StateConnected || a.status.SSID == "" {
		return "", ErrNotAvailable
	}
	return a.status.SSID, nil
}
