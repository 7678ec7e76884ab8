package tag

import (
	"fmt"
	"regexp"
	"strings"
	"unique"
)

// segmentRegex matches a single segment of a tag name, e.g. `DualWielding`.
var segmentRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Tag is an interned tag name. Two tags are equal iff their names are equal.
// The zero Tag is invalid and matches nothing.
type Tag struct {
	h unique.Handle[string]
}

// Parse validates rawName and returns the interned Tag.
func Parse(rawName string) (Tag, error) {
	if rawName == "" {
		return Tag{}, fmt.Errorf("tag name cannot be empty")
	}
	for _, segment := range strings.Split(rawName, ".") {
		if segment == "" {
			return Tag{}, fmt.Errorf("tag %q contains empty segment", rawName)
		}
		if !segmentRegex.MatchString(segment) {
			return Tag{}, fmt.Errorf("tag %q has invalid segment %q", rawName, segment)
		}
	}
	return Tag{h: unique.Make(rawName)}, nil
}

// New is like Parse but panics on an invalid name. Use it for constants.
func New(name string) Tag {
	t, err := Parse(name)
	if err != nil {
		panic(err)
	}
	return t
}

// IsZero reports whether t is the invalid zero Tag.
func (t Tag) IsZero() bool {
	return t == Tag{}
}

// Name returns the full dotted name.
func (t Tag) Name() string {
	if t.IsZero() {
		return ""
	}
	return t.h.Value()
}

// String implements fmt.Stringer.
func (t Tag) String() string { return t.Name() }

// Segments splits the name on dots.
func (t Tag) Segments() []string {
	if t.IsZero() {
		return nil
	}
	return strings.Split(t.Name(), ".")
}

// Parent returns the tag one level up and false for root tags.
func (t Tag) Parent() (Tag, bool) {
	name := t.Name()
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return Tag{}, false
	}
	return Tag{h: unique.Make(name[:i])}, true
}

// Matches reports whether t equals parent or lives below it in the hierarchy.
func (t Tag) Matches(parent Tag) bool {
	if t.IsZero() || parent.IsZero() {
		return false
	}
	if t == parent {
		return true
	}
	name, prefix := t.Name(), parent.Name()
	return len(name) > len(prefix) && strings.HasPrefix(name, prefix) && name[len(prefix)] == '.'
}

// MarshalText implements encoding.TextMarshaler.
func (t Tag) MarshalText() ([]byte, error) {
	return []byte(t.Name()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tag) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
