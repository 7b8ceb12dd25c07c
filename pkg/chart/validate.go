package chart

import "errors"

// =============================================================================
// Structural Validation
// =============================================================================

var (
	// ErrDuplicateNode is returned by [Chart.Validate] when two nodes share
	// an ID.
	ErrDuplicateNode = errors.New("duplicate node ID")

	// ErrDanglingEdge is returned by [Chart.Validate] when an edge
	// references a node that does not exist.
	ErrDanglingEdge = errors.New("edge references unknown node")

	// ErrMultipleParents is returned by [Chart.Validate] when a node has
	// more than one incoming edge. Compiled org charts are trees: every
	// node except the root has exactly one parent.
	ErrMultipleParents = errors.New("node has multiple parents")

	// ErrChartHasCycle is returned by [Chart.Validate] when the edge set
	// contains a directed cycle.
	ErrChartHasCycle = errors.New("chart contains a cycle")
)

// Validate checks that the chart is a well-formed tree projection: node IDs
// are unique, every edge connects existing nodes, no node has more than one
// incoming edge, and the edge set is acyclic. A chart produced by [Compile]
// from a valid model always passes; use this on charts deserialized from
// untrusted snapshots.
//
// Cycle detection runs in O(N+E) using depth-first search with
// white/gray/black coloring.
func (c Chart) Validate() error {
	ids := make(map[string]struct{}, len(c.Nodes))
	for _, n := range c.Nodes {
		if _, dup := ids[n.ID]; dup {
			return ErrDuplicateNode
		}
		ids[n.ID] = struct{}{}
	}

	indegree := make(map[string]int)
	outgoing := make(map[string][]string)
	for _, e := range c.Edges {
		if _, ok := ids[e.Source]; !ok {
			return ErrDanglingEdge
		}
		if _, ok := ids[e.Target]; !ok {
			return ErrDanglingEdge
		}
		indegree[e.Target]++
		if indegree[e.Target] > 1 {
			return ErrMultipleParents
		}
		outgoing[e.Source] = append(outgoing[e.Source], e.Target)
	}

	return detectCycles(ids, outgoing)
}

func detectCycles(ids map[string]struct{}, outgoing map[string][]string) error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(ids))
	var hasCycle bool

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, child := range outgoing[id] {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				hasCycle = true
				return
			}
		}
		color[id] = black
	}

	for id := range ids {
		if color[id] == white {
			dfs(id)
			if hasCycle {
				return ErrChartHasCycle
			}
		}
	}
	return nil
}
