package org

import "slices"

// Default display values for freshly added entities.
const (
	DefaultUnitName   = "New Department"
	DefaultMemberName = "New Employee"
)

// Editable field names accepted by [EditField].
const (
	FieldName   = "name"
	FieldTitle  = "title"
	FieldTenure = "tenure"
)

// AddUnit returns a new tree with a fresh unit appended to the children of
// the unit identified by parentID, plus the created unit. When parentID
// does not resolve to a unit (missing, or a member), the original root is
// returned unchanged with a nil unit: invalid adds are silent no-ops.
func AddUnit(root *Unit, parentID string) (*Unit, *Unit) {
	if FindUnit(root, parentID) == nil {
		return root, nil
	}
	next := Clone(root)
	parent := FindUnit(next, parentID)
	child := NewUnit(DefaultUnitName)
	parent.Units = append(parent.Units, child)
	return next, child
}

// AddMember returns a new tree with a fresh member appended to the unit
// identified by parentID, plus the created member. Same silent no-op guard
// as [AddUnit]: members cannot hold children, so a member parentID leaves
// the tree unchanged.
func AddMember(root *Unit, parentID string) (*Unit, *Member) {
	if FindUnit(root, parentID) == nil {
		return root, nil
	}
	next := Clone(root)
	parent := FindUnit(next, parentID)
	m := NewMember(DefaultMemberName, "", "")
	parent.Members = append(parent.Members, m)
	return next, m
}

// Delete returns a new tree with the entity identified by id removed, and
// reports whether anything was removed. Exactly one entity is removed per
// call: deleting a unit discards its entire subtree. The search checks each
// unit's child units first (recursively), then its members, so a unit match
// always wins over a member match. The root itself cannot be deleted, and
// an unknown id returns the original root unchanged.
func Delete(root *Unit, id string) (*Unit, bool) {
	if root == nil || id == "" || id == root.ID {
		return root, false
	}
	if e, _ := Find(root, id); e == nil {
		return root, false
	}
	next := Clone(root)
	deleteIn(next, id)
	return next, true
}

// deleteIn excises the entity with the given id from the subtree rooted at
// u. Unit collections are searched before member collections at every
// level. Returns true once a removal happened so the walk stops.
func deleteIn(u *Unit, id string) bool {
	for i, child := range u.Units {
		if child.ID == id {
			u.Units = slices.Delete(u.Units, i, i+1)
			return true
		}
	}
	for _, child := range u.Units {
		if deleteIn(child, id) {
			return true
		}
	}
	for i, m := range u.Members {
		if m.ID == id {
			u.Members = slices.Delete(u.Members, i, i+1)
			return true
		}
	}
	return false
}

// EditField returns a new tree with one field of the entity identified by
// id updated, and reports whether the edit applied. Units accept only
// "name"; members accept "name", "title" and "tenure". Unknown ids and
// unknown field names are silent no-ops rather than errors, matching the
// add/delete guards.
func EditField(root *Unit, id, field, value string) (*Unit, bool) {
	if e, _ := Find(root, id); e == nil {
		return root, false
	}
	next := Clone(root)
	e, _ := Find(next, id)
	switch e := e.(type) {
	case *Unit:
		if field != FieldName {
			return root, false
		}
		e.Name = value
	case *Member:
		switch field {
		case FieldName:
			e.Name = value
		case FieldTitle:
			e.Title = value
		case FieldTenure:
			e.Tenure = value
		default:
			return root, false
		}
	}
	return next, true
}
