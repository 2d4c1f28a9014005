// Package netlink defines the boundary to the WiFi connection delegate.
//
// The low-level radio driver (join/retry/scan mechanics) lives outside this
// repository. It reports what happened through a small closed vocabulary of
// signals (Connected, GotIP, Disconnected, AuthFailed, NetworkNotFound,
// RetryExhausted) published on a Bus.
//
// # Signal Bus
//
// The Bus fans signals out to any number of scoped subscriptions. Each
// subscription gets its own buffered channel with FIFO delivery; a slow
// subscriber loses its oldest signals rather than blocking the driver.
// Scoped subscriptions are the core isolation mechanism for credential
// validation: a validation attempt subscribes, watches for its definitive
// signal, and unsubscribes, and signals from unrelated connection activity
// can never leak into it (nor its signals into the adapter's long-lived
// subscription).
//
// # Reconnection Strategy
//
// Delegates that retry internally use exponential backoff:
//
//  1. Initial delay: 1 second
//  2. Exponential increase: 2s, 4s, 8s, 16s, 32s
//  3. Maximum delay: 60 seconds
//  4. Reset to 1s on successful join
//
// Jitter (up to 25% of the base delay) avoids synchronized rejoin storms
// when many controllers share one rural access point. Retry exhaustion is
// reported as a RetryExhausted signal, never as a crash.
package netlink
