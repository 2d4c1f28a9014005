// Package log provides structured connectivity logging for acequia.
//
// This package defines the Logger interface and Event types for capturing
// connectivity-subsystem events (state transitions, radio signals, portal
// requests, credential validations). It is separate from operational logging
// (slog) - event capture provides a complete machine-readable trace so a
// failed field provisioning session can be analyzed after the fact.
//
// # Basic Usage
//
// Components accept a Logger implementation through their Config:
//
//	// For development: log to console via slog
//	cfg.EventLogger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.EventLogger, _ = log.NewFileLogger("/var/log/acequia/device.alog")
//
//	// Both: use MultiLogger
//	cfg.EventLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    log.NewFileLogger("/var/log/acequia/device.alog"),
//	)
//
// # Event Types
//
// Each event carries exactly one typed payload:
//   - StateChange: adapter/manager/delegate state transitions
//   - Signal: radio signals as delivered by the connection delegate
//   - Portal: captive portal HTTP requests
//   - Validation: credential validation attempts and their outcomes
//   - Error: errors at any layer
//
// # File Format
//
// Log files use CBOR encoding with integer keys and the .alog extension.
// The Reader type streams and filters captured files.
package log
