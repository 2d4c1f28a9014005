// Package connectivity implements the controller's connectivity state
// machine.
//
// The Adapter decides, at boot and for the rest of the process lifetime,
// whether the controller connects to the farm network with stored
// credentials or raises the captive provisioning portal. It reacts to two
// event streams: lifecycle events from the provisioning manager and link
// signals from the connection delegate.
//
// # States
//
//	Uninitialized -> CheckingProvision -> {Provisioning | Connecting}
//	Connecting    -> Connected <-> Disconnected
//	any           -> Error (recoverable via ForceProvisioning)
//
// All transitions happen on a single dispatch goroutine. Signals and
// events are acted on strictly in delivery order; nothing is reordered or
// coalesced, so a provisioning Completed is never processed before the
// credential success that logically precedes it.
//
// # Recovery
//
// A detected reset pattern (the operator power-cycling the unit several
// times in a short window) forces provisioning even when credentials are
// stored. This is the recovery path for a unit that is provisioned with a
// dead network and physically hard to reach otherwise.
//
// Repeated connection failures with stored credentials also fall back to
// provisioning after a bounded number of backoff retries, so a renamed or
// re-keyed farm network does not leave the unit retrying forever.
package connectivity
