package modifier

import (
	"fmt"
	"strings"
)

// Kind is the application class of a modifier. The numeric order is the sort order.
type Kind int

const (
	Flat Kind = iota
	Increased
	More
	Override
)

func (k Kind) String() string {
	switch k {
	case Flat:
		return "flat"
	case Increased:
		return "increased"
	case More:
		return "more"
	case Override:
		return "override"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind parses a kind name case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "flat":
		return Flat, nil
	case "increased", "inc":
		return Increased, nil
	case "more":
		return More, nil
	case "override":
		return Override, nil
	}
	return 0, fmt.Errorf("unknown modifier kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}
