// Package provisioning implements captive portal credential provisioning
// for the irrigation controller.
//
// While the controller has no usable WiFi credentials it raises a local
// access point and serves a small configuration portal. A technician joins
// the access point, scans for nearby networks, and submits the farm
// network's SSID and password. The manager then validates the candidate
// credentials by performing a real join before anything is persisted.
//
// # Validation Protocol
//
// Credential validation is the core algorithm:
//
//  1. The submitting HTTP handler calls ValidateCredentials.
//  2. A fresh, scoped subscription is registered on the signal bus so that
//     signals from unrelated or prior connection activity cannot leak into
//     this validation, and this validation's signals cannot leak elsewhere.
//  3. The connection delegate is asked to join with the candidate
//     credentials.
//  4. The handler blocks for up to ValidationTimeout (15 s, chosen to
//     tolerate slow, congested rural access points). A success signal
//     yields Ok; a failure signal yields its specific sub-reason. If
//     neither arrives the outcome is Timeout and the manager actively
//     force-disconnects to stop the delegate's internal retry loop.
//  5. The subscription is unregistered on every path.
//  6. Only on Ok does the handler persist the credentials. On any other
//     outcome no durable state changes and the portal stays available for
//     another attempt.
//
// At most one validation is in flight at a time. Concurrent submissions
// queue behind a mutex rather than interleave.
//
// # Admission Control
//
// Scanning and credential submission both allocate noticeably on a small
// device. Before either, the manager consults a MemoryGauge; when free
// memory is below the configured floor the request is refused with a
// 503 and a structured error body instead of risking an allocation
// failure mid-operation.
//
// User-visible portal messages are Spanish; the deployments this
// controller ships to are Spanish-speaking farms.
package provisioning
