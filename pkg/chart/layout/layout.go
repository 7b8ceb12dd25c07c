// Package layout assigns 2-D positions to compiled charts using a layered
// (rank-based) engine.
//
// The rank assignment and crossing minimization themselves are delegated to
// an [Engine]; the package ships a Graphviz dot engine and a caching
// decorator. The adapter in [Apply] owns everything around the engine call:
// it describes the graph with a uniform node footprint, translates the
// returned center coordinates to top-left corners for rendering, and
// assigns connector sides from the rank direction.
package layout

import (
	"context"
	"errors"
	"fmt"

	"github.com/orgtower/orgtower/pkg/chart"
)

// Uniform node footprint in pixels. Every node gets the same box regardless
// of label length, which keeps the layout contract simple and the output
// deterministic.
const (
	DefaultNodeWidth  = 172.0
	DefaultNodeHeight = 36.0
)

// Direction is the axis along which ranks are stacked.
type Direction string

const (
	// DirectionTB stacks ranks top-to-bottom (the default).
	DirectionTB Direction = "TB"
	// DirectionLR stacks ranks left-to-right.
	DirectionLR Direction = "LR"
)

// ErrInvalidDirection is returned when a direction is neither TB nor LR.
var ErrInvalidDirection = errors.New(`direction must be "TB" or "LR"`)

// Validate reports whether the direction is one of the supported values.
func (d Direction) Validate() error {
	switch d {
	case DirectionTB, DirectionLR:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidDirection, string(d))
}

// Toggle returns the other direction.
func (d Direction) Toggle() Direction {
	if d == DirectionLR {
		return DirectionTB
	}
	return DirectionLR
}

// Graph is the batch description handed to an [Engine]: the full node and
// edge sets plus the rank direction and the uniform node size. A fresh
// Graph is constructed for every engine call; engines never see incremental
// updates and must not keep state between calls.
type Graph struct {
	Direction  Direction
	NodeWidth  float64
	NodeHeight float64
	Nodes      []string
	Edges      []EdgeRef
}

// EdgeRef is a directed edge between two node ids in a [Graph].
type EdgeRef struct {
	From string
	To   string
}

// NewGraph creates an empty graph description with the default node
// footprint.
func NewGraph(dir Direction) *Graph {
	return &Graph{
		Direction:  dir,
		NodeWidth:  DefaultNodeWidth,
		NodeHeight: DefaultNodeHeight,
	}
}

// AddNode registers a node id.
func (g *Graph) AddNode(id string) { g.Nodes = append(g.Nodes, id) }

// AddEdge registers a directed edge. Both endpoints must be registered
// nodes by the time the engine runs.
func (g *Graph) AddEdge(from, to string) {
	g.Edges = append(g.Edges, EdgeRef{From: from, To: to})
}

// Engine computes positions for a layered graph description. Returned
// points are node centers in pixels, x growing rightward and y growing
// downward. An engine must position every node in the graph and is assumed
// to succeed for any finite tree with unique node ids; an error therefore
// aborts the whole layout pass.
type Engine interface {
	Positions(ctx context.Context, g *Graph) (map[string]chart.Point, error)
}

// ErrMissingPosition is returned by [Apply] when the engine did not
// position every node.
var ErrMissingPosition = errors.New("engine returned no position for node")

// Apply lays out the chart in place: it describes the chart to the engine
// as a fresh graph, then writes top-left positions and connector sides onto
// every node. Emphasis flags and node order are left untouched, so Apply is
// safe to call on an already rendered chart for an explicit re-layout.
func Apply(ctx context.Context, c *chart.Chart, engine Engine, dir Direction) error {
	if err := dir.Validate(); err != nil {
		return err
	}

	g := NewGraph(dir)
	for _, n := range c.Nodes {
		g.AddNode(n.ID)
	}
	for _, e := range c.Edges {
		g.AddEdge(e.Source, e.Target)
	}

	pos, err := engine.Positions(ctx, g)
	if err != nil {
		return fmt.Errorf("layout: %w", err)
	}

	sides := sidesFor(dir)
	for i := range c.Nodes {
		p, ok := pos[c.Nodes[i].ID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingPosition, c.Nodes[i].ID)
		}
		// Engines report centers; rendering wants the top-left corner.
		c.Nodes[i].Position = chart.Point{
			X: p.X - g.NodeWidth/2,
			Y: p.Y - g.NodeHeight/2,
		}
		c.Nodes[i].Sides = sides
	}
	return nil
}

// sidesFor maps the rank direction to the node faces where edges attach:
// parents connect out of the bottom/right face, children in at the
// top/left face.
func sidesFor(dir Direction) chart.Sides {
	if dir == DirectionLR {
		return chart.Sides{In: chart.SideLeft, Out: chart.SideRight}
	}
	return chart.Sides{In: chart.SideTop, Out: chart.SideBottom}
}
