// Package graph owns the arena of stat nodes and implements lazy pull
// evaluation with push invalidation.
//
// # Storage
//
// Nodes live in a dense slice in insertion order and reference each other
// by node.Handle. Handles are never reused; nodes are never removed while
// the Graph lives.
//
// # Evaluation
//
// Value(h) on a Source or Temporal node returns its base value. On a clean
// Derived node it returns the cache. On a dirty Derived node it pulls every
// plain parent, every conditional parent whose predicate currently holds,
// hands them to the node's combine function, caches the result and clears
// the dirty flag. Each dirty ancestor is recomputed exactly once per read.
//
// # Invalidation
//
// SetBaseValue and MarkDirty walk the children depth-first. A child that is
// already dirty is not revisited, so every node is visited at most once per
// invalidation wave regardless of how many paths reach it.
//
// Conditional predicates are not tracked by the dirty mechanism. Whoever
// changes the state a predicate reads must also invalidate the nodes that
// depend on it; the registry does this with a sweep over
// ConditionalNodes().
//
// # Thread-Safety
//
// A Graph is not safe for concurrent use. All access must be serialized by
// the owner, which in this module is the engine goroutine.
package graph
