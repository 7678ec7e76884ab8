/*
Package tag implements gameplay tags: interned, dot-namespaced boolean facts
such as `State.DualWielding` or `Buff.PurityOfElements`.

A tag name is a dot-separated sequence of segments. Hierarchy matching is
prefix based with a segment boundary, so `A.B.C` matches `A.B` and `A` but
never `A.BC`.

The Registry holds the set of currently asserted tags and notifies a single
listener whenever membership actually changes. Duplicate adds and removals
of absent tags are silent.
*/
package tag
