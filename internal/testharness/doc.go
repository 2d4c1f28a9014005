// Package testharness provides shared fakes for connectivity tests: a
// scriptable connection delegate backed by simulated access points, a
// controllable memory gauge, a fixed clock, and a capturing logger.
package testharness
