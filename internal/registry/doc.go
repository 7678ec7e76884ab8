// Package registry is the owner of a stat graph session.
//
// A Registry holds the node arena, the tag set, one modifier aggregator per
// modified stat, the history channels feeding temporal nodes and the named
// recency trackers. It wires them together so that every state change
// invalidates exactly the nodes whose value may depend on it:
//
//   - node writes invalidate descendants through the graph
//   - modifier changes dirty the target stat
//   - tag membership changes and recency triggers sweep every node that has
//     a conditional parent or a modifier aggregator
//   - recorded events refresh the owning temporal node
//   - Tick ages history windows and catches recency expiry
//
// The Registry is single-writer. Callers serialize access; package engine
// provides the goroutine that does so.
package registry
