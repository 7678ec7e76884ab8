// Package modifier implements the layered stat-modifier calculator.
//
// Modifiers targeting one stat are collected in an Aggregator, kept sorted
// by (kind, priority). Calculate applies them in a fixed order:
//
//	result = (base + ΣFlat) * (1 + ΣIncreased) * Π(1 + More_i)
//
// after which the last active Override in sort order replaces the result.
// Conditions are evaluated on every call; nothing is cached between calls
// except the per-modifier "contributing" flag used for inspection.
//
// An Aggregator is not safe for concurrent use. It lives inside the
// registry's single-writer domain.
package modifier
