/*
Package builder turns a format-agnostic stat sheet (config.Model) into a live
registry and producer manager.

Construction runs in phases:

 1. Indexing: every stat, history and derived id is collected into one
    namespace and checked for duplicates. Trackers get their own namespace,
    seeded with the built-in crit, block and kill facts.

 2. Linking: explicit parents, conditional parents and implicit formula
    references become edges in a dag.Graph. A formula that names a stat it
    did not list as a parent gains that stat as a parent.

 3. Validation: the dag is checked for cycles, formulas and `when`
    conditions are compiled, tags are parsed, and modifier kinds and targets
    are checked. All problems are reported together.

 4. Construction: nodes are created in topological order, so every parent
    exists before its children, followed by standing modifiers and the
    registration of items and auras.

Validate runs phases 1 to 3 only.
*/
package builder
