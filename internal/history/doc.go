// Package history provides the time-windowed primitives of the stat engine:
// a bounded per-channel event log queried through sliding windows, and a
// single-timestamp recency tracker.
//
// Both types take a clock.Clock so tests can move time explicitly. All
// windows and ages are expressed in seconds.
package history
