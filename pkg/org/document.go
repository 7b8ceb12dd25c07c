package org

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// DefaultFilename is the conventional name for a saved organization
// snapshot.
const DefaultFilename = "structure.json"

var (
	// ErrParse is returned by the import functions when the document is not
	// well-formed JSON. The original decoding error is wrapped alongside it.
	ErrParse = errors.New("malformed document")

	// ErrShape is returned by the import functions when the document is
	// well-formed JSON but does not describe an organization tree: the root
	// must be a container (carry units or members collections), and member
	// entries must not hold children.
	ErrShape = errors.New("invalid document shape")
)

// docNode is the on-disk shape shared by units and members. A node with a
// units or members collection is a container; a node without either is a
// member. This mirrors the persisted format exactly, so pointers to slices
// distinguish "absent" from "present but empty".
type docNode struct {
	ID      string     `json:"id,omitempty"`
	Name    string     `json:"name"`
	Title   string     `json:"title,omitempty"`
	Tenure  string     `json:"tenure,omitempty"`
	Units   *[]docNode `json:"units,omitempty"`
	Members *[]docNode `json:"members,omitempty"`
}

// =============================================================================
// Export
// =============================================================================

// Marshal serializes the tree to pretty-printed JSON. Units always carry
// units and members collections (present even when empty); members never
// do. Exported identifiers are informational only: Unmarshal discards and
// regenerates them.
func Marshal(root *Unit) ([]byte, error) {
	return json.MarshalIndent(exportUnit(root), "", "  ")
}

// Write writes the tree as JSON to w.
func Write(root *Unit, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(exportUnit(root)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteFile writes the tree to a JSON file with 0644 permissions.
func WriteFile(root *Unit, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(root, f)
}

func exportUnit(u *Unit) docNode {
	units := make([]docNode, len(u.Units))
	for i, child := range u.Units {
		units[i] = exportUnit(child)
	}
	members := make([]docNode, len(u.Members))
	for i, m := range u.Members {
		members[i] = docNode{ID: m.ID, Name: m.Name, Title: m.Title, Tenure: m.Tenure}
	}
	return docNode{ID: u.ID, Name: u.Name, Units: &units, Members: &members}
}

// =============================================================================
// Import
// =============================================================================

// Unmarshal parses a snapshot document and rebuilds the tree. Every
// identifier is regenerated through the identifier source: imported
// documents are never trusted to keep foreign ids, which guarantees the
// uniqueness invariant against any in-memory model.
//
// Returns an error wrapping [ErrParse] for malformed JSON and [ErrShape]
// when the root is not a container or a member entry holds children. Inner
// units with missing units/members collections are treated as empty.
func Unmarshal(data []byte) (*Unit, error) {
	var doc docNode
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return importRoot(doc)
}

// Read decodes a snapshot document from r. See [Unmarshal] for semantics.
func Read(r io.Reader) (*Unit, error) {
	var doc docNode
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return importRoot(doc)
}

// ReadFile reads a snapshot document from a JSON file.
func ReadFile(path string) (*Unit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

func importRoot(doc docNode) (*Unit, error) {
	if doc.Units == nil && doc.Members == nil {
		return nil, fmt.Errorf("%w: root must be a container", ErrShape)
	}
	return importUnit(doc)
}

func importUnit(doc docNode) (*Unit, error) {
	u := &Unit{ID: NewID(), Name: doc.Name, Units: []*Unit{}, Members: []*Member{}}
	if doc.Units != nil {
		for _, child := range *doc.Units {
			cu, err := importUnit(child)
			if err != nil {
				return nil, err
			}
			u.Units = append(u.Units, cu)
		}
	}
	if doc.Members != nil {
		for _, m := range *doc.Members {
			if m.Units != nil || m.Members != nil {
				return nil, fmt.Errorf("%w: member %q cannot hold children", ErrShape, m.Name)
			}
			u.Members = append(u.Members, &Member{
				ID:     NewID(),
				Name:   m.Name,
				Title:  m.Title,
				Tenure: m.Tenure,
			})
		}
	}
	return u, nil
}
