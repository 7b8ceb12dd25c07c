// Package org defines the hierarchical organization model: a root Unit
// containing nested sub-units and leaf Members.
//
// The model is a strict tree. Every entity carries a globally unique
// identifier, and units and members share one identifier namespace. Units
// and members are distinct types rather than one record with optional
// fields, so "can hold children" is decided by the type system instead of
// field presence.
//
// Mutations never modify a tree in place. The functions in mutate.go take
// the current root and return a new root value, which makes change
// signaling explicit and keeps old references valid for readers.
package org

import "errors"

var (
	// ErrDuplicateID is returned by [Validate] when two entities share an
	// identifier. Units and members share the same namespace, so a unit and
	// a member with equal IDs also trigger this error.
	ErrDuplicateID = errors.New("duplicate entity ID")

	// ErrEmptyID is returned by [Validate] when an entity has an empty
	// identifier. All entities must have non-empty IDs.
	ErrEmptyID = errors.New("entity ID must not be empty")

	// ErrNilEntity is returned by [Validate] when a unit contains a nil
	// child pointer. This indicates model corruption.
	ErrNilEntity = errors.New("nil entity in tree")
)

// Entity is implemented by [Unit] and [Member], the only two node kinds in
// an organization tree. Use a type switch to discriminate:
//
//	switch e := e.(type) {
//	case *Unit:   // container, may hold children
//	case *Member: // leaf
//	}
type Entity interface {
	// EntityID returns the globally unique identifier.
	EntityID() string
	// EntityName returns the display name.
	EntityName() string

	// sealed prevents implementations outside this package, keeping type
	// switches over Entity exhaustive.
	sealed()
}

// Unit is a container entity (a department or sub-department). It may hold
// child units and members in stable insertion order. The zero value is
// usable but has no identifier; use [NewUnit] for a fresh unit.
type Unit struct {
	ID      string
	Name    string
	Units   []*Unit
	Members []*Member
}

// Member is a leaf entity representing a person. Members never have
// children.
type Member struct {
	ID     string
	Name   string
	Title  string
	Tenure string
}

// EntityID returns the unit's identifier.
func (u *Unit) EntityID() string { return u.ID }

// EntityName returns the unit's display name.
func (u *Unit) EntityName() string { return u.Name }

func (u *Unit) sealed() {}

// EntityID returns the member's identifier.
func (m *Member) EntityID() string { return m.ID }

// EntityName returns the member's display name.
func (m *Member) EntityName() string { return m.Name }

func (m *Member) sealed() {}

// Walk visits every entity reachable from root in depth-first pre-order,
// child units before members at each level. The visit order is the
// canonical entity order used for graph compilation, so it is stable across
// repeated walks of an unchanged tree.
//
// fn receives each entity together with its parent unit (nil for the root).
// Returning false stops the walk early.
func Walk(root *Unit, fn func(e Entity, parent *Unit) bool) {
	if root == nil {
		return
	}
	walk(root, nil, fn)
}

func walk(u *Unit, parent *Unit, fn func(e Entity, parent *Unit) bool) bool {
	if !fn(u, parent) {
		return false
	}
	for _, child := range u.Units {
		if !walk(child, u, fn) {
			return false
		}
	}
	for _, m := range u.Members {
		if !fn(m, u) {
			return false
		}
	}
	return true
}

// Find returns the entity with the given ID and its parent unit, searching
// the whole tree. The parent is nil when the match is the root. Returns
// (nil, nil) when no entity matches.
func Find(root *Unit, id string) (Entity, *Unit) {
	var found Entity
	var foundParent *Unit
	Walk(root, func(e Entity, parent *Unit) bool {
		if e.EntityID() == id {
			found, foundParent = e, parent
			return false
		}
		return true
	})
	return found, foundParent
}

// FindUnit returns the unit with the given ID, or nil if the ID does not
// resolve or resolves to a member.
func FindUnit(root *Unit, id string) *Unit {
	e, _ := Find(root, id)
	if u, ok := e.(*Unit); ok {
		return u
	}
	return nil
}

// Count returns the total number of entities (units plus members) in the
// tree. An empty (nil) tree has count 0.
func Count(root *Unit) int {
	n := 0
	Walk(root, func(Entity, *Unit) bool { n++; return true })
	return n
}

// Clone returns a deep copy of the tree. Identifiers are preserved; the
// copy shares no pointers with the original.
func Clone(root *Unit) *Unit {
	if root == nil {
		return nil
	}
	c := &Unit{ID: root.ID, Name: root.Name}
	if root.Units != nil {
		c.Units = make([]*Unit, len(root.Units))
		for i, child := range root.Units {
			c.Units[i] = Clone(child)
		}
	}
	if root.Members != nil {
		c.Members = make([]*Member, len(root.Members))
		for i, m := range root.Members {
			cm := *m
			c.Members[i] = &cm
		}
	}
	return c
}

// Validate checks model invariants and returns nil if the tree is sound.
// It verifies that no child pointer is nil, that every entity has a
// non-empty identifier, and that identifiers are unique across the whole
// tree. The containment relation is a tree by construction (every entity
// lives in exactly one parent slice), so no separate cycle check is needed.
func Validate(root *Unit) error {
	seen := make(map[string]struct{})
	return validate(root, seen)
}

func validate(u *Unit, seen map[string]struct{}) error {
	if u == nil {
		return ErrNilEntity
	}
	if err := checkID(u.ID, seen); err != nil {
		return err
	}
	for _, m := range u.Members {
		if m == nil {
			return ErrNilEntity
		}
		if err := checkID(m.ID, seen); err != nil {
			return err
		}
	}
	for _, child := range u.Units {
		if err := validate(child, seen); err != nil {
			return err
		}
	}
	return nil
}

func checkID(id string, seen map[string]struct{}) error {
	if id == "" {
		return ErrEmptyID
	}
	if _, dup := seen[id]; dup {
		return ErrDuplicateID
	}
	seen[id] = struct{}{}
	return nil
}
