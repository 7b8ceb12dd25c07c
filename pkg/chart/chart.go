// Package chart turns an organization tree into a flat node/edge graph
// suitable for layered layout and rendering.
//
// The chart is a derived, disposable projection of the org model: after any
// structural mutation it is recompiled from scratch rather than patched in
// place. Positions and emphasis flags are annotations layered onto the
// compiled structure by pkg/chart/layout and Highlight.
package chart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// =============================================================================
// Constants
// =============================================================================

// Node kinds.
const (
	KindUnit   = "unit"
	KindMember = "member"
)

// Connector sides assigned by layout according to rank direction.
const (
	SideTop    = "top"
	SideBottom = "bottom"
	SideLeft   = "left"
	SideRight  = "right"
)

// =============================================================================
// Chart - Derived Graph Projection
// =============================================================================

// Chart is the canonical serialization format for a compiled organization
// graph. Used for API responses, snapshot storage, and file export.
type Chart struct {
	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}

// Node is one positioned box in the chart. ID mirrors the source entity's
// identifier so clicks on the rendered node can recover the full record.
type Node struct {
	ID       string `json:"id" bson:"id"`
	Label    string `json:"label" bson:"label"`
	Kind     string `json:"kind" bson:"kind"` // "unit" or "member"
	Title    string `json:"title,omitempty" bson:"title,omitempty"`
	Tenure   string `json:"tenure,omitempty" bson:"tenure,omitempty"`
	Position Point  `json:"position" bson:"position"` // top-left corner
	Sides    Sides  `json:"sides" bson:"sides"`
	Emphasis bool   `json:"emphasis,omitempty" bson:"emphasis,omitempty"`
}

// Edge is one parent→child relation. Exactly one edge exists per relation
// and no edge has a dangling endpoint.
type Edge struct {
	ID     string `json:"id" bson:"id"`
	Source string `json:"source" bson:"source"`
	Target string `json:"target" bson:"target"`
}

// Point is a 2-D position in pixels.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Sides names the node faces where incoming and outgoing edges attach.
type Sides struct {
	In  string `json:"in" bson:"in"`
	Out string `json:"out" bson:"out"`
}

// EdgeID forms the deterministic edge identifier for a parent→child
// relation.
func EdgeID(parentID, childID string) string {
	return "e" + parentID + "-" + childID
}

// IsUnit returns true for container nodes.
func (n *Node) IsUnit() bool { return n.Kind == KindUnit }

// Clone returns a deep copy of the chart. The copy shares no slices with
// the original, so annotating one never disturbs the other.
func (c Chart) Clone() Chart {
	out := Chart{
		Nodes: make([]Node, len(c.Nodes)),
		Edges: make([]Edge, len(c.Edges)),
	}
	copy(out.Nodes, c.Nodes)
	copy(out.Edges, c.Edges)
	return out
}

// Node returns a pointer to the node with the given ID, or nil.
func (c *Chart) Node(id string) *Node {
	for i := range c.Nodes {
		if c.Nodes[i].ID == id {
			return &c.Nodes[i]
		}
	}
	return nil
}

// =============================================================================
// Chart Serialization API
// =============================================================================

// Marshal serializes a chart to pretty-printed JSON bytes.
func Marshal(c Chart) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteChart(c, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal deserializes JSON bytes to a chart.
func Unmarshal(data []byte) (Chart, error) {
	var c Chart
	if err := json.Unmarshal(data, &c); err != nil {
		return Chart{}, fmt.Errorf("decode chart: %w", err)
	}
	return c, nil
}

// WriteChart writes a chart as JSON to an io.Writer.
func WriteChart(c Chart, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode chart: %w", err)
	}
	return nil
}

// WriteChartFile writes a chart to a JSON file with 0644 permissions.
func WriteChartFile(c Chart, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteChart(c, f)
}
