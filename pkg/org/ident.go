package org

import "github.com/google/uuid"

// IDFunc produces globally unique opaque identifiers. The default source is
// random UUIDv4 via github.com/google/uuid; tests substitute a deterministic
// counter with [SetIDFunc].
type IDFunc func() string

var newID IDFunc = func() string { return uuid.NewString() }

// NewID returns a fresh identifier from the current identifier source.
// Identifiers are opaque: callers must not parse them or assume a format.
func NewID() string { return newID() }

// SetIDFunc replaces the identifier source and returns the previous one.
// Passing nil restores the default UUID source. Intended for tests that
// need reproducible identifiers; not safe to call concurrently with model
// mutations.
func SetIDFunc(fn IDFunc) IDFunc {
	prev := newID
	if fn == nil {
		fn = func() string { return uuid.NewString() }
	}
	newID = fn
	return prev
}

// NewUnit creates a unit with a fresh identifier and the given name.
// Child slices start non-nil so serialization always records the unit as a
// container, even while empty.
func NewUnit(name string) *Unit {
	return &Unit{ID: NewID(), Name: name, Units: []*Unit{}, Members: []*Member{}}
}

// NewMember creates a member with a fresh identifier.
func NewMember(name, title, tenure string) *Member {
	return &Member{ID: NewID(), Name: name, Title: title, Tenure: tenure}
}
