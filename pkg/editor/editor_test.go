package editor

import (
	"context"
	"errors"
	"testing"

	"github.com/orgtower/orgtower/pkg/chart"
	"github.com/orgtower/orgtower/pkg/chart/layout"
	"github.com/orgtower/orgtower/pkg/org"
)

// gridEngine stands in for the layout collaborator, spacing nodes evenly.
type gridEngine struct {
	calls int
	fail  error
}

func (e *gridEngine) Positions(ctx context.Context, g *layout.Graph) (map[string]chart.Point, error) {
	e.calls++
	if e.fail != nil {
		return nil, e.fail
	}
	pos := make(map[string]chart.Point, len(g.Nodes))
	for i, id := range g.Nodes {
		pos[id] = chart.Point{X: float64(200 * i), Y: float64(100 * i)}
	}
	return pos, nil
}

func testModel() *org.Unit {
	return &org.Unit{
		ID: "co", Name: "Co",
		Units: []*org.Unit{
			{ID: "eng", Name: "Eng", Units: []*org.Unit{}, Members: []*org.Member{}},
		},
		Members: []*org.Member{{ID: "ceo", Name: "CEO", Title: "CEO", Tenure: "10y"}},
	}
}

func newTestEditor(t *testing.T) (*Editor, *gridEngine) {
	t.Helper()
	engine := &gridEngine{}
	e, err := New(context.Background(), testModel(), engine)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e, engine
}

func TestNewLaysOutInitialChart(t *testing.T) {
	e, engine := newTestEditor(t)
	c := e.Chart()
	if len(c.Nodes) != 3 || len(c.Edges) != 2 {
		t.Fatalf("chart = %d nodes %d edges, want 3 and 2", len(c.Nodes), len(c.Edges))
	}
	if engine.calls != 1 {
		t.Errorf("engine calls = %d, want 1", engine.calls)
	}
	if e.Direction() != layout.DirectionTB {
		t.Errorf("direction = %q, want TB", e.Direction())
	}
}

func TestNewRejectsInvalidModel(t *testing.T) {
	bad := testModel()
	bad.Members[0].ID = "eng"
	if _, err := New(context.Background(), bad, &gridEngine{}); !errors.Is(err, org.ErrDuplicateID) {
		t.Errorf("New = %v, want ErrDuplicateID", err)
	}
}

func TestSelectionStateMachine(t *testing.T) {
	e, _ := newTestEditor(t)
	ctx := context.Background()

	// Operations without a selection are guarded no-ops.
	if changed, err := e.AddUnit(ctx); changed || err != nil {
		t.Errorf("AddUnit without selection = (%v, %v), want no-op", changed, err)
	}
	if changed, err := e.DeleteSelected(ctx); changed || err != nil {
		t.Errorf("DeleteSelected without selection = (%v, %v), want no-op", changed, err)
	}

	if !e.Select("eng") {
		t.Fatal("Select(eng) failed")
	}
	if e.Selection() != "eng" {
		t.Errorf("selection = %q, want eng", e.Selection())
	}

	// Selecting an unknown id clears the selection.
	if e.Select("ghost") {
		t.Error("Select(ghost) succeeded")
	}
	if e.Selection() != "" {
		t.Errorf("selection = %q, want empty", e.Selection())
	}
}

func TestAddUnderSelection(t *testing.T) {
	e, engine := newTestEditor(t)
	ctx := context.Background()

	e.Select("eng")
	changed, err := e.AddUnit(ctx)
	if err != nil || !changed {
		t.Fatalf("AddUnit = (%v, %v)", changed, err)
	}
	c := e.Chart()
	if len(c.Nodes) != 4 || len(c.Edges) != 3 {
		t.Errorf("chart = %d nodes %d edges, want 4 and 3", len(c.Nodes), len(c.Edges))
	}
	// Structural mutation triggers an automatic re-layout.
	if engine.calls != 2 {
		t.Errorf("engine calls = %d, want 2", engine.calls)
	}

	// Scenario B: a member cannot take children.
	e.Select("ceo")
	changed, err = e.AddUnit(ctx)
	if err != nil || changed {
		t.Errorf("AddUnit on member = (%v, %v), want no-op", changed, err)
	}
	if got := e.Chart(); len(got.Nodes) != 4 {
		t.Errorf("node count changed on guarded no-op: %d", len(got.Nodes))
	}

	changed, err = e.AddMember(ctx)
	if err != nil || changed {
		t.Errorf("AddMember on member = (%v, %v), want no-op", changed, err)
	}
}

func TestDeleteSelectedClearsSelection(t *testing.T) {
	e, _ := newTestEditor(t)
	ctx := context.Background()

	e.Select("eng")
	changed, err := e.DeleteSelected(ctx)
	if err != nil || !changed {
		t.Fatalf("DeleteSelected = (%v, %v)", changed, err)
	}
	if e.Selection() != "" {
		t.Error("selection not cleared after delete")
	}
	c := e.Chart()
	if len(c.Nodes) != 2 || len(c.Edges) != 1 {
		t.Errorf("chart = %d nodes %d edges, want 2 and 1", len(c.Nodes), len(c.Edges))
	}

	// Root cannot be deleted.
	e.Select("co")
	if changed, _ := e.DeleteSelected(ctx); changed {
		t.Error("root was deleted")
	}
}

func TestEditField(t *testing.T) {
	e, _ := newTestEditor(t)
	ctx := context.Background()

	e.Select("eng")
	if changed, err := e.EditField(ctx, org.FieldName, "Engineering"); !changed || err != nil {
		t.Fatalf("EditField = (%v, %v)", changed, err)
	}
	ch := e.Chart()
	if got := ch.Node("eng").Label; got != "Engineering" {
		t.Errorf("label = %q, want Engineering", got)
	}

	// Units have no title field.
	if changed, _ := e.EditField(ctx, org.FieldTitle, "x"); changed {
		t.Error("unit accepted a title edit")
	}
}

func TestSearchDoesNotDisturbLayout(t *testing.T) {
	e, engine := newTestEditor(t)

	before := e.Chart()
	c := e.Search("eng")
	if engine.calls != 1 {
		t.Errorf("search triggered a re-layout (%d calls)", engine.calls)
	}
	for i, n := range c.Nodes {
		if n.Position != before.Nodes[i].Position {
			t.Error("search moved a node")
		}
		wantEmphasis := n.ID == "eng"
		if n.Emphasis != wantEmphasis {
			t.Errorf("node %s emphasis = %v, want %v", n.ID, n.Emphasis, wantEmphasis)
		}
	}

	// Clearing the query clears emphasis.
	for _, n := range e.Search("").Nodes {
		if n.Emphasis {
			t.Error("emphasis survived an empty query")
		}
	}
}

func TestRelayoutPersistsDirection(t *testing.T) {
	e, _ := newTestEditor(t)
	ctx := context.Background()

	if err := e.Relayout(ctx, layout.DirectionLR); err != nil {
		t.Fatalf("Relayout: %v", err)
	}
	if e.Direction() != layout.DirectionLR {
		t.Errorf("direction = %q, want LR", e.Direction())
	}
	for _, n := range e.Chart().Nodes {
		if n.Sides != (chart.Sides{In: chart.SideLeft, Out: chart.SideRight}) {
			t.Errorf("sides = %+v, want left/right", n.Sides)
		}
	}

	// The chosen direction survives later structural mutations.
	e.Select("eng")
	if _, err := e.AddUnit(ctx); err != nil {
		t.Fatalf("AddUnit: %v", err)
	}
	if e.Direction() != layout.DirectionLR {
		t.Error("direction reset by structural mutation")
	}
	for _, n := range e.Chart().Nodes {
		if n.Sides.In != chart.SideLeft {
			t.Error("auto re-layout ignored the persisted direction")
		}
	}

	if err := e.Relayout(ctx, layout.Direction("bad")); !errors.Is(err, layout.ErrInvalidDirection) {
		t.Errorf("Relayout(bad) = %v, want ErrInvalidDirection", err)
	}
}

func TestExportLoadRoundTrip(t *testing.T) {
	e, _ := newTestEditor(t)
	ctx := context.Background()

	doc, err := e.Export()
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	e.Select("eng")
	if err := e.Load(ctx, doc); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if e.Selection() != "" {
		t.Error("selection survived a load")
	}
	c := e.Chart()
	if len(c.Nodes) != 3 {
		t.Errorf("nodes = %d, want 3", len(c.Nodes))
	}
	// Imported ids are regenerated, so the old id no longer resolves.
	if c.Node("eng") != nil {
		t.Error("imported model kept foreign identifiers")
	}
}

func TestLoadFailureKeepsPriorModel(t *testing.T) {
	e, _ := newTestEditor(t)
	ctx := context.Background()

	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"Malformed", `{"name":`, org.ErrParse},
		{"BadShape", `{"name": "Solo", "title": "x"}`, org.ErrShape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := e.Load(ctx, []byte(tt.doc)); !errors.Is(err, tt.want) {
				t.Fatalf("Load = %v, want %v", err, tt.want)
			}
			if c := e.Chart(); len(c.Nodes) != 3 {
				t.Errorf("prior model lost: %d nodes", len(c.Nodes))
			}
		})
	}
}

func TestLayoutFailureRollsBack(t *testing.T) {
	e, engine := newTestEditor(t)
	ctx := context.Background()

	engine.fail = errors.New("engine down")
	e.Select("eng")
	if changed, err := e.AddUnit(ctx); err == nil || changed {
		t.Fatalf("AddUnit = (%v, %v), want layout error", changed, err)
	}

	engine.fail = nil
	if c := e.Chart(); len(c.Nodes) != 3 {
		t.Errorf("failed mutation was committed: %d nodes", len(c.Nodes))
	}
}
