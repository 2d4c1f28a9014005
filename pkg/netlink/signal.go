package netlink

import "time"

// Kind identifies a connection delegate signal.
type Kind uint8

const (
	// KindConnected indicates the radio associated with the network.
	KindConnected Kind = iota

	// KindGotIP indicates an IP address was obtained.
	KindGotIP

	// KindDisconnected indicates the link was lost.
	KindDisconnected

	// KindAuthFailed indicates the network rejected the credentials.
	KindAuthFailed

	// KindNetworkNotFound indicates the target SSID was not seen.
	KindNetworkNotFound

	// KindRetryExhausted indicates the delegate gave up retrying.
	KindRetryExhausted
)

// String returns a human-readable signal name.
func (k Kind) String() string {
	switch k {
	case KindConnected:
		return "CONNECTED"
	case KindGotIP:
		return "GOT_IP"
	case KindDisconnected:
		return "DISCONNECTED"
	case KindAuthFailed:
		return "AUTH_FAILED"
	case KindNetworkNotFound:
		return "NETWORK_NOT_FOUND"
	case KindRetryExhausted:
		return "RETRY_EXHAUSTED"
	default:
		return "UNKNOWN"
	}
}

// IsFailure returns true for signals that terminate a join attempt
// unsuccessfully.
func (k Kind) IsFailure() bool {
	switch k {
	case KindAuthFailed, KindNetworkNotFound, KindRetryExhausted:
		return true
	default:
		return false
	}
}

// Signal is one delegate event as delivered on the Bus.
type Signal struct {
	// Kind is the signal type.
	Kind Kind

	// SSID is the network the signal refers to, when known.
	SSID string

	// IP is the assigned address, set only for KindGotIP.
	IP string

	// Detail carries driver-reported context (optional).
	Detail string

	// Timestamp is when the delegate observed the event.
	Timestamp time.Time
}
