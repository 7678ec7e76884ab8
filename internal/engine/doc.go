// Package engine owns a built character and serializes every access to it.
//
// The registry and the producer manager are single-writer structures. The
// engine runs them inside one goroutine: callers submit closures with Do and
// the loop executes them between periodic ticks, so no lock is needed inside
// the core.
package engine
