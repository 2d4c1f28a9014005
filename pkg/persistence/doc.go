// Package persistence provides durable and retained storage for the
// connectivity subsystem.
//
// Two very different lifetimes are covered:
//
//   - CredentialsStore: validated WiFi credentials and device metadata in
//     durable storage (flash/disk). Written only after a credential
//     validation succeeded, never before.
//   - BootRecordStore: the boot-cycle record in reset-surviving storage.
//     On the target hardware this is a retained RAM region exposed as a
//     tmpfs file; it survives soft resets but not cold power loss, which is
//     exactly what the boot-loop detector's sentinel check compensates for.
//
// Both stores follow the same conventions: JSON files with a version field,
// Load returning nil, nil when no state exists, and Clear tolerating an
// already-missing file.
package persistence
