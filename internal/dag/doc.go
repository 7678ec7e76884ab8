// Package dag is a small string-keyed dependency graph used to validate stat
// sheets before they are turned into a live registry. It reports duplicate
// references, cycles (with the offending path) and a deterministic
// topological order.
package dag
