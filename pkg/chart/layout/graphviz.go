package layout

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/orgtower/orgtower/pkg/chart"
)

// pointsPerInch converts Graphviz plain-output coordinates (inches) to
// pixels at the conventional 72 dpi.
const pointsPerInch = 72.0

// formatPlain is the Graphviz "plain" output format: one line per node with
// its computed center coordinate and size. See
// https://graphviz.org/docs/outputs/plain/ for the grammar.
const formatPlain = graphviz.Format("plain")

// GraphvizEngine computes layered layouts with the Graphviz dot engine.
// Each call builds a fresh DOT document and a fresh Graphviz instance, so
// no state leaks between calls and concurrent invocations are safe.
type GraphvizEngine struct{}

// NewGraphvizEngine returns a dot-backed layout engine.
func NewGraphvizEngine() *GraphvizEngine { return &GraphvizEngine{} }

// Positions renders the graph description through dot and parses the plain
// output back into per-node center coordinates in pixels. Graphviz places
// the origin at the bottom-left with y growing upward; the result is
// flipped so y grows downward as rendering expects.
func (e *GraphvizEngine) Positions(ctx context.Context, g *Graph) (map[string]chart.Point, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	parsed, err := graphviz.ParseBytes([]byte(ToDOT(g)))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer parsed.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, parsed, formatPlain, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return parsePlain(buf.String())
}

// ToDOT converts a graph description to Graphviz DOT. All nodes share one
// fixed box size so dot's rank and order decisions depend only on the
// structure, never on label width.
func ToDOT(g *Graph) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", g.Direction)
	fmt.Fprintf(&buf, "  node [shape=box, fixedsize=true, width=%.4f, height=%.4f, label=\"\"];\n",
		g.NodeWidth/pointsPerInch, g.NodeHeight/pointsPerInch)
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, id := range g.Nodes {
		fmt.Fprintf(&buf, "  %q;\n", id)
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// parsePlain extracts node center positions from Graphviz plain output:
//
//	graph <scale> <width> <height>
//	node <name> <x> <y> <width> <height> ...
//	edge ...
//	stop
//
// Coordinates are in inches with the origin at the bottom-left.
func parsePlain(out string) (map[string]chart.Point, error) {
	pos := make(map[string]chart.Point)
	var height float64

	for _, line := range strings.Split(out, "\n") {
		fields := splitPlainFields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "graph":
			if len(fields) < 4 {
				return nil, fmt.Errorf("malformed graph line: %q", line)
			}
			h, err := strconv.ParseFloat(fields[3], 64)
			if err != nil {
				return nil, fmt.Errorf("graph height: %w", err)
			}
			height = h
		case "node":
			if len(fields) < 4 {
				return nil, fmt.Errorf("malformed node line: %q", line)
			}
			x, errX := strconv.ParseFloat(fields[2], 64)
			y, errY := strconv.ParseFloat(fields[3], 64)
			if errX != nil || errY != nil {
				return nil, fmt.Errorf("node coordinates: %q", line)
			}
			pos[fields[1]] = chart.Point{
				X: x * pointsPerInch,
				Y: (height - y) * pointsPerInch,
			}
		case "stop":
			return pos, nil
		}
	}
	return pos, nil
}

// splitPlainFields splits a plain-output line on spaces, honoring the
// double-quoting Graphviz applies to names that are not plain identifiers
// (org identifiers contain hyphens, so node names arrive quoted).
func splitPlainFields(line string) []string {
	var fields []string
	var cur strings.Builder
	inQuote := false
	flush := func() {
		if cur.Len() > 0 {
			fields = append(fields, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			inQuote = !inQuote
			if !inQuote {
				fields = append(fields, cur.String())
				cur.Reset()
			}
		case c == '\\' && inQuote && i+1 < len(line):
			i++
			cur.WriteByte(line[i])
		case c == ' ' && !inQuote:
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return fields
}
