package chart

import (
	"github.com/orgtower/orgtower/pkg/org"
)

// =============================================================================
// Tree → Graph Compilation
// =============================================================================

// Compile walks the organization tree in depth-first pre-order and produces
// one node per entity and one edge per parent→child relation. Child units
// are visited before members at every level, so two compiles of an
// unchanged tree yield identical node and edge sequences.
//
// Positions are zero and emphasis is clear on the compiled chart; apply
// pkg/chart/layout and [Highlight] afterwards. Runs in O(entity count); ids
// are unique by model invariant so no de-duplication happens.
func Compile(root *org.Unit) Chart {
	var c Chart
	org.Walk(root, func(e org.Entity, parent *org.Unit) bool {
		c.Nodes = append(c.Nodes, nodeFor(e))
		if parent != nil {
			c.Edges = append(c.Edges, Edge{
				ID:     EdgeID(parent.ID, e.EntityID()),
				Source: parent.ID,
				Target: e.EntityID(),
			})
		}
		return true
	})
	return c
}

func nodeFor(e org.Entity) Node {
	switch e := e.(type) {
	case *org.Unit:
		return Node{ID: e.ID, Label: e.Name, Kind: KindUnit}
	case *org.Member:
		return Node{ID: e.ID, Label: e.Name, Kind: KindMember, Title: e.Title, Tenure: e.Tenure}
	default:
		// Entity is sealed to Unit and Member; unreachable.
		panic("chart: unknown entity kind")
	}
}
