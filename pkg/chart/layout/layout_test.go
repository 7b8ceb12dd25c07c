package layout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/orgtower/orgtower/pkg/chart"
	"github.com/orgtower/orgtower/pkg/store"
)

// stubEngine positions nodes on a fixed grid and records every graph it was
// handed, standing in for the external layered-layout collaborator.
type stubEngine struct {
	calls []*Graph
	fail  error
}

func (e *stubEngine) Positions(ctx context.Context, g *Graph) (map[string]chart.Point, error) {
	e.calls = append(e.calls, g)
	if e.fail != nil {
		return nil, e.fail
	}
	pos := make(map[string]chart.Point, len(g.Nodes))
	for i, id := range g.Nodes {
		pos[id] = chart.Point{X: float64(100 + 50*i), Y: float64(50 + 100*i)}
	}
	return pos, nil
}

func twoNodeChart() chart.Chart {
	return chart.Chart{
		Nodes: []chart.Node{{ID: "root", Label: "Co"}, {ID: "child", Label: "Eng"}},
		Edges: []chart.Edge{{ID: "eroot-child", Source: "root", Target: "child"}},
	}
}

func TestApplyTranslatesToTopLeft(t *testing.T) {
	c := twoNodeChart()
	if err := Apply(context.Background(), &c, &stubEngine{}, DirectionTB); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	// Engine reports centers; stored positions are top-left corners.
	want := chart.Point{X: 100 - DefaultNodeWidth/2, Y: 50 - DefaultNodeHeight/2}
	if c.Nodes[0].Position != want {
		t.Errorf("position = %+v, want %+v", c.Nodes[0].Position, want)
	}
}

func TestApplyConnectorSides(t *testing.T) {
	tests := []struct {
		dir  Direction
		want chart.Sides
	}{
		{DirectionTB, chart.Sides{In: chart.SideTop, Out: chart.SideBottom}},
		{DirectionLR, chart.Sides{In: chart.SideLeft, Out: chart.SideRight}},
	}

	for _, tt := range tests {
		t.Run(string(tt.dir), func(t *testing.T) {
			c := twoNodeChart()
			if err := Apply(context.Background(), &c, &stubEngine{}, tt.dir); err != nil {
				t.Fatalf("Apply: %v", err)
			}
			for _, n := range c.Nodes {
				if n.Sides != tt.want {
					t.Errorf("sides = %+v, want %+v", n.Sides, tt.want)
				}
			}
		})
	}
}

func TestApplyBuildsFreshGraphPerCall(t *testing.T) {
	engine := &stubEngine{}
	c := twoNodeChart()

	for i := 0; i < 2; i++ {
		if err := Apply(context.Background(), &c, engine, DirectionTB); err != nil {
			t.Fatalf("Apply #%d: %v", i, err)
		}
	}

	if len(engine.calls) != 2 {
		t.Fatalf("engine calls = %d, want 2", len(engine.calls))
	}
	if engine.calls[0] == engine.calls[1] {
		t.Error("graph description was reused across calls")
	}
	for _, g := range engine.calls {
		if len(g.Nodes) != 2 || len(g.Edges) != 1 {
			t.Errorf("graph = %d nodes %d edges, want full description", len(g.Nodes), len(g.Edges))
		}
	}
}

func TestApplyErrors(t *testing.T) {
	t.Run("InvalidDirection", func(t *testing.T) {
		c := twoNodeChart()
		err := Apply(context.Background(), &c, &stubEngine{}, Direction("diagonal"))
		if !errors.Is(err, ErrInvalidDirection) {
			t.Errorf("Apply = %v, want ErrInvalidDirection", err)
		}
	})

	t.Run("EngineFailure", func(t *testing.T) {
		c := twoNodeChart()
		boom := errors.New("boom")
		if err := Apply(context.Background(), &c, &stubEngine{fail: boom}, DirectionTB); !errors.Is(err, boom) {
			t.Errorf("Apply = %v, want wrapped engine error", err)
		}
	})

	t.Run("MissingPosition", func(t *testing.T) {
		c := twoNodeChart()
		partial := engineFunc(func(ctx context.Context, g *Graph) (map[string]chart.Point, error) {
			return map[string]chart.Point{"root": {}}, nil
		})
		if err := Apply(context.Background(), &c, partial, DirectionTB); !errors.Is(err, ErrMissingPosition) {
			t.Errorf("Apply = %v, want ErrMissingPosition", err)
		}
	})
}

func TestDirectionToggle(t *testing.T) {
	if got := DirectionTB.Toggle(); got != DirectionLR {
		t.Errorf("TB.Toggle() = %q, want LR", got)
	}
	if got := DirectionLR.Toggle(); got != DirectionTB {
		t.Errorf("LR.Toggle() = %q, want TB", got)
	}
}

// engineFunc adapts a function to the Engine interface.
type engineFunc func(ctx context.Context, g *Graph) (map[string]chart.Point, error)

func (f engineFunc) Positions(ctx context.Context, g *Graph) (map[string]chart.Point, error) {
	return f(ctx, g)
}

func TestToDOT(t *testing.T) {
	g := NewGraph(DirectionLR)
	g.AddNode("aaaa-1")
	g.AddNode("bbbb-2")
	g.AddEdge("aaaa-1", "bbbb-2")

	dot := ToDOT(g)

	for _, want := range []string{
		"rankdir=LR",
		"fixedsize=true",
		`"aaaa-1";`,
		`"aaaa-1" -> "bbbb-2";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestParsePlain(t *testing.T) {
	// Two-inch-tall drawing: y is flipped so the node at y=1.75in (near the
	// top in Graphviz terms) lands near y=0 in pixel space.
	out := strings.Join([]string{
		"graph 1 3.5 2",
		`node "aaaa-1" 1.75 1.75 2.39 0.5 "" solid box black lightgrey`,
		`node "bbbb-2" 1.75 0.25 2.39 0.5 "" solid box black lightgrey`,
		`edge "aaaa-1" "bbbb-2" 4 1.75 1.5 1.75 1.2 1.75 0.8 1.75 0.5 solid black`,
		"stop",
	}, "\n")

	pos, err := parsePlain(out)
	if err != nil {
		t.Fatalf("parsePlain: %v", err)
	}
	if len(pos) != 2 {
		t.Fatalf("parsed %d nodes, want 2", len(pos))
	}

	top := pos["aaaa-1"]
	bottom := pos["bbbb-2"]
	if top.X != 1.75*72 {
		t.Errorf("x = %v, want %v", top.X, 1.75*72)
	}
	if top.Y != (2-1.75)*72 {
		t.Errorf("top y = %v, want %v", top.Y, (2-1.75)*72)
	}
	if bottom.Y <= top.Y {
		t.Errorf("y axis not flipped: parent %v, child %v", top.Y, bottom.Y)
	}
}

func TestParsePlainMalformed(t *testing.T) {
	for _, out := range []string{"graph 1", "graph 1 2 2\nnode onlyname"} {
		if _, err := parsePlain(out); err == nil {
			t.Errorf("parsePlain(%q) succeeded, want error", out)
		}
	}
}

func TestSplitPlainFields(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{`node a 1 2`, []string{"node", "a", "1", "2"}},
		{`node "with space" 1 2`, []string{"node", "with space", "1", "2"}},
		{`node "esc\"aped" 1`, []string{"node", `esc"aped`, "1"}},
		{``, nil},
	}
	for _, tt := range tests {
		got := splitPlainFields(tt.line)
		if fmt.Sprint(got) != fmt.Sprint(tt.want) {
			t.Errorf("splitPlainFields(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestCachedEngine(t *testing.T) {
	ctx := context.Background()
	cache, err := store.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	inner := &stubEngine{}
	engine := Cached(inner, cache, 0)

	c := twoNodeChart()
	if err := Apply(ctx, &c, engine, DirectionTB); err != nil {
		t.Fatalf("first Apply: %v", err)
	}
	first := c.Nodes[0].Position

	// Same structure again: served from cache, inner engine not consulted.
	c2 := twoNodeChart()
	if err := Apply(ctx, &c2, engine, DirectionTB); err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	if len(inner.calls) != 1 {
		t.Errorf("inner engine calls = %d, want 1", len(inner.calls))
	}
	if c2.Nodes[0].Position != first {
		t.Errorf("cached position = %+v, want %+v", c2.Nodes[0].Position, first)
	}

	// A different direction is a different key.
	c3 := twoNodeChart()
	if err := Apply(ctx, &c3, engine, DirectionLR); err != nil {
		t.Fatalf("third Apply: %v", err)
	}
	if len(inner.calls) != 2 {
		t.Errorf("inner engine calls = %d, want 2", len(inner.calls))
	}
}

func TestCachedEngineDoesNotCacheFailures(t *testing.T) {
	ctx := context.Background()
	cache, _ := store.NewFileCache(t.TempDir())
	inner := &stubEngine{fail: errors.New("down")}
	engine := Cached(inner, cache, 0)

	g := NewGraph(DirectionTB)
	g.AddNode("a")
	if _, err := engine.Positions(ctx, g); err == nil {
		t.Fatal("expected failure")
	}

	inner.fail = nil
	if _, err := engine.Positions(ctx, g); err != nil {
		t.Fatalf("recovered call: %v", err)
	}
	if len(inner.calls) != 2 {
		t.Errorf("inner calls = %d, want 2 (failure must not be cached)", len(inner.calls))
	}
}
