// Package bootguard implements the boot-loop reset-pattern detector.
//
// Physically remote irrigation controllers have no reliable reset button.
// Instead, a human performs several power cycles within a short window as an
// intentional "factory reset" signal. This package counts boots in retained
// storage (memory that survives a soft reset but not cold power loss) and
// reports when the pattern is present.
//
// # Record Validity
//
// The retained record carries a sentinel marker. After cold power loss the
// retained region holds garbage; a mismatched sentinel means "treat as
// freshly zeroed", never as data.
//
// # Window Semantics
//
// Increment is called exactly once per boot, before any network activity.
// A burst only counts while it stays inside the configured window relative
// to the first boot of the burst; anything older restarts the window. The
// reset pattern check requires both the threshold count and that the window
// has not yet elapsed, so a device rebooted many times over its lifetime
// never falsely triggers.
package bootguard
