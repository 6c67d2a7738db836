package tracker

import "strings"

// EventKind is a bit set naming the parts of state that changed.
type EventKind uint8

const (
	FeaturesChanged EventKind = 1 << iota
	ChangesChanged
	ModesChanged
	ErrorChanged
)

// Has reports whether k includes every bit of other.
func (k EventKind) Has(other EventKind) bool {
	return k&other == other
}

func (k EventKind) String() string {
	if k == 0 {
		return "none"
	}
	var parts []string
	for _, b := range []struct {
		kind EventKind
		name string
	}{
		{FeaturesChanged, "features"},
		{ChangesChanged, "changes"},
		{ModesChanged, "modes"},
		{ErrorChanged, "error"},
	} {
		if k.Has(b.kind) {
			parts = append(parts, b.name)
		}
	}
	return strings.Join(parts, "|")
}

// Event is delivered to subscribers after a state change.
type Event struct {
	Kind     EventKind
	Revision uint64
}
