package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/spf13/cobra"

	"github.com/orgtower/orgtower/pkg/chart"
	"github.com/orgtower/orgtower/pkg/chart/layout"
)

// Output formats for the layout command.
const (
	formatJSON = "json"
	formatDOT  = "dot"
	formatSVG  = "svg"
)

// layoutCommand creates the layout command for computing chart positions.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output    string
		format    string
		direction string
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "layout [structure.json]",
		Short: "Compute chart positions for an organization file",
		Long: `Compute chart positions for an organization file.

The layout command compiles the organization tree into a chart and assigns a
pixel position to every box. The output is a layout.json file with positions
and connector sides, ready for a renderer. With -f dot the intermediate
Graphviz document is written instead, and -f svg renders a quick preview
image directly through Graphviz.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			if direction == "" {
				direction = c.Config.Layout.Direction
			}
			return c.runLayout(cmd.Context(), input, output, format, layout.Direction(direction), noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "output format: json (default), dot, svg")
	cmd.Flags().StringVarP(&direction, "direction", "d", "", `layout direction: "TB" or "LR" (default from config)`)
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// countingEngine reports whether the wrapped engine was actually invoked,
// which distinguishes cache hits from fresh computations.
type countingEngine struct {
	inner layout.Engine
	calls int
}

func (e *countingEngine) Positions(ctx context.Context, g *layout.Graph) (map[string]chart.Point, error) {
	e.calls++
	return e.inner.Positions(ctx, g)
}

func (c *CLI) runLayout(ctx context.Context, input, output, format string, dir layout.Direction, noCache bool) error {
	if err := dir.Validate(); err != nil {
		return err
	}

	root, input, err := loadModel(input)
	if err != nil {
		return err
	}
	board := chart.Compile(root)

	switch format {
	case formatDOT:
		return writeDOT(board, dir, outputPath(input, output, ".dot"))
	case formatSVG:
		return writeSVG(ctx, board, dir, outputPath(input, output, ".svg"))
	case formatJSON:
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	probe := &countingEngine{inner: layout.NewGraphvizEngine()}
	engine := layout.Engine(probe)
	cleanup := func() {}
	if !noCache {
		engine, cleanup, err = c.cachedEngine(ctx, probe)
		if err != nil {
			return err
		}
	}
	defer cleanup()

	prog := newProgress(loggerFromContext(ctx))
	sp := newSpinner(ctx, "Computing layout...")
	sp.start()
	err = layout.Apply(ctx, &board, engine, dir)
	sp.stop()
	if err != nil {
		printError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	prog.done(fmt.Sprintf("Positioned %d nodes", len(board.Nodes)))
	if ctx.Err() != nil {
		return ctx.Err()
	}

	out := outputPath(input, output, ".layout.json")
	if err := chart.WriteChartFile(board, out); err != nil {
		return fmt.Errorf("write output %s: %w", out, err)
	}

	printSuccess("Layout complete")
	printFile(out)
	printStats(len(board.Nodes), len(board.Edges), probe.calls == 0)
	return nil
}

// cachedEngine wraps the probe with the configured cache.
func (c *CLI) cachedEngine(ctx context.Context, probe *countingEngine) (layout.Engine, func(), error) {
	cache, err := c.newCache(ctx)
	if err != nil {
		c.Logger.Debug("cache unavailable, continuing without", "error", err)
		return probe, func() {}, nil
	}
	return layout.Cached(probe, cache, cacheTTL), func() { _ = cache.Close() }, nil
}

// writeDOT emits the intermediate Graphviz document for the chart.
func writeDOT(board chart.Chart, dir layout.Direction, out string) error {
	g := layout.NewGraph(dir)
	for _, n := range board.Nodes {
		g.AddNode(n.ID)
	}
	for _, e := range board.Edges {
		g.AddEdge(e.Source, e.Target)
	}
	if err := os.WriteFile(out, []byte(layout.ToDOT(g)), 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", out, err)
	}
	printSuccess("DOT export complete")
	printFile(out)
	return nil
}

// writeSVG renders a preview image through Graphviz. Unlike the position
// pipeline, the preview keeps labels so the image is readable on its own.
func writeSVG(ctx context.Context, board chart.Chart, dir layout.Direction, out string) error {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	parsed, err := graphviz.ParseBytes([]byte(labeledDOT(board, dir)))
	if err != nil {
		return fmt.Errorf("parse DOT: %w", err)
	}
	defer parsed.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, parsed, graphviz.SVG, &buf); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", out, err)
	}
	printSuccess("SVG preview complete")
	printFile(out)
	return nil
}

// labeledDOT emits a DOT document with display labels for preview rendering.
func labeledDOT(board chart.Chart, dir layout.Direction) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", dir)
	buf.WriteString("  node [shape=box, fontname=\"Helvetica\"];\n\n")
	escape := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	for _, n := range board.Nodes {
		label := escape.Replace(n.Label)
		if n.Kind == chart.KindMember && n.Title != "" {
			// \n is a DOT line break inside the label.
			label += `\n` + escape.Replace(n.Title)
		}
		fmt.Fprintf(&buf, "  %q [label=\"%s\"];\n", n.ID, label)
	}
	buf.WriteString("\n")
	for _, e := range board.Edges {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source, e.Target)
	}
	buf.WriteString("}\n")
	return buf.String()
}

// outputPath derives the output filename from the input when no explicit
// output was given.
func outputPath(input, output, suffix string) string {
	if output != "" {
		return output
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + suffix
}
