package connectivity

import "time"

// EventType identifies an adapter event.
type EventType uint8

const (
	// EventInitComplete fires once the adapter has started.
	EventInitComplete EventType = iota

	// EventProvisioningStarted fires when the captive portal comes up.
	EventProvisioningStarted

	// EventProvisioningCompleted fires when validated credentials were
	// committed and the portal is being torn down.
	EventProvisioningCompleted

	// EventConnected fires when the radio associates with the network.
	EventConnected

	// EventDisconnected fires when the link is lost.
	EventDisconnected

	// EventIPObtained fires when an IP address is assigned.
	EventIPObtained

	// EventConnectionFailed fires when a join attempt fails.
	EventConnectionFailed

	// EventResetRequested fires when the boot-loop detector's reset
	// pattern forces provisioning.
	EventResetRequested
)

// String returns the event type name.
func (t EventType) String() string {
	switch t {
	case EventInitComplete:
		return "INIT_COMPLETE"
	case EventProvisioningStarted:
		return "PROVISIONING_STARTED"
	case EventProvisioningCompleted:
		return "PROVISIONING_COMPLETED"
	case EventConnected:
		return "CONNECTED"
	case EventDisconnected:
		return "DISCONNECTED"
	case EventIPObtained:
		return "IP_OBTAINED"
	case EventConnectionFailed:
		return "CONNECTION_FAILED"
	case EventResetRequested:
		return "RESET_REQUESTED"
	default:
		return "UNKNOWN"
	}
}

// Event is delivered to the OnEvent callback on every notable transition.
type Event struct {
	// Type is the event type.
	Type EventType

	// State is the adapter state after the event.
	State State

	// SSID is the network involved, when known.
	SSID string

	// IP is the assigned address, set for EventIPObtained.
	IP string

	// Detail carries extra context (failure reasons).
	Detail string

	// Timestamp is when the adapter processed the event.
	Timestamp time.Time
}
