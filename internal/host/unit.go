// unit.go — Host framework node model: tags, work flags, tree links.
// Units are created and mutated exclusively by the host framework; this
// SDK reads them and never writes. The previous version of a unit is
// reachable through Alternate (the framework allocates a fresh node per
// update and links the retired one).
package host

import "fmt"

// Tag classifies a unit into one of the host framework's node shapes.
// Matching is over this closed set; anything unrecognized is TagOther.
type Tag int

const (
	TagFunction Tag = iota
	TagClass
	TagForwardRef
	TagMemo
	TagSimpleMemo
	TagHostElement
	TagFragment
	TagOther
)

// tagNames maps tags to the classification strings used on the wire.
var tagNames = map[Tag]string{
	TagFunction:    "function",
	TagClass:       "class",
	TagForwardRef:  "forward_ref",
	TagMemo:        "memo",
	TagSimpleMemo:  "simple_memo",
	TagHostElement: "host",
	TagFragment:    "fragment",
	TagOther:       "other",
}

// String returns the wire classification string for the tag.
func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return "other"
}

// Trackable reports whether units with this tag are user-visible
// components worth profiling. Host elements, fragments, and unrecognized
// shapes are structural noise.
func (t Tag) Trackable() bool {
	switch t {
	case TagFunction, TagClass, TagForwardRef, TagMemo, TagSimpleMemo:
		return true
	default:
		return false
	}
}

// ParseTag maps a classification string back to a Tag. Unrecognized
// strings map to TagOther (closed-set matching with a fallback variant).
func ParseTag(s string) Tag {
	for tag, name := range tagNames {
		if name == s {
			return tag
		}
	}
	return TagOther
}

// Flags is the host framework's per-commit bit field.
type Flags uint32

// FlagPerformedWork is set on a unit that re-executed during the commit.
const FlagPerformedWork Flags = 1

// PropSet is an identity-bearing property set. The host framework
// allocates a new PropSet when props change and reuses the old pointer
// when they do not, so pointer comparison is the "did props change by
// reference" check.
type PropSet struct {
	Values map[string]any
}

// NewPropSet builds a PropSet from a value map. Nil maps are allowed.
func NewPropSet(values map[string]any) *PropSet {
	return &PropSet{Values: values}
}

// StateCell is an identity-bearing internal-state slot, with the same
// pointer-identity convention as PropSet.
type StateCell struct {
	Value any
}

// Unit is one node of the host framework's tree.
type Unit struct {
	Tag   Tag
	Type  any    // type descriptor; used only for display-name extraction
	Name  string // display name if the framework resolved one
	Flags Flags

	Alternate *Unit // previous version of this logical unit, nil on mount

	Props *PropSet
	State *StateCell

	Child   *Unit
	Sibling *Unit
	Return  *Unit // parent link, unused by traversal but present on real nodes
}

// PerformedWork reports whether the unit re-executed this commit.
func (u *Unit) PerformedWork() bool {
	return u.Flags&FlagPerformedWork != 0
}

// DisplayName extracts a human-readable name from the unit. The type
// descriptor is untrusted: callers that cannot tolerate a panic from a
// hostile DisplayName()/String() implementation must guard the call.
func (u *Unit) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	switch t := u.Type.(type) {
	case string:
		if t != "" {
			return t
		}
	case interface{ DisplayName() string }:
		return t.DisplayName()
	case fmt.Stringer:
		return t.String()
	}
	return "anonymous"
}
