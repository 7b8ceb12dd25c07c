// Package editor coordinates the live editing session: it owns the current
// organization model, the selection, the derived chart, and the layout
// direction, and keeps them consistent under structural mutation.
//
// Every mutating operation recompiles the chart from the model and re-runs
// layout before committing, so readers always observe a fully replaced,
// internally consistent state — never a partially patched one. A single
// mutex serializes all operations, which is what makes whole-model
// replacement atomic for HTTP handlers and the TUI alike.
package editor

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/orgtower/orgtower/pkg/chart"
	"github.com/orgtower/orgtower/pkg/chart/layout"
	"github.com/orgtower/orgtower/pkg/org"
)

// Editor is the single owner of a session's model and derived graph.
// The zero value is not usable; construct with [New].
type Editor struct {
	mu sync.Mutex

	root      *org.Unit
	selection string // entity id, "" means no selection
	direction layout.Direction
	chart     chart.Chart

	engine layout.Engine
	logger *log.Logger
}

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the session logger. Defaults to a discarding logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Editor) { e.logger = l }
}

// WithDirection sets the initial layout direction. Defaults to top-bottom.
func WithDirection(d layout.Direction) Option {
	return func(e *Editor) { e.direction = d }
}

// New creates an editor for the given model and lays out the initial
// chart. The editor takes its own deep copy of root, so the caller's tree
// stays untouched by later edits.
func New(ctx context.Context, root *org.Unit, engine layout.Engine, opts ...Option) (*Editor, error) {
	if err := org.Validate(root); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	e := &Editor{
		root:      org.Clone(root),
		direction: layout.DirectionTB,
		engine:    engine,
		logger:    log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.refresh(ctx, e.root); err != nil {
		return nil, err
	}
	return e, nil
}

// refresh compiles a candidate model and lays it out with the current
// direction, committing both only on success. Callers must hold the mutex.
func (e *Editor) refresh(ctx context.Context, next *org.Unit) error {
	c := chart.Compile(next)
	if err := layout.Apply(ctx, &c, e.engine, e.direction); err != nil {
		return err
	}
	e.root = next
	e.chart = c
	return nil
}

// Chart returns a snapshot of the current chart. The snapshot is a deep
// copy, safe to hand to renderers while edits continue.
func (e *Editor) Chart() chart.Chart {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.chart.Clone()
}

// Root returns a deep copy of the current model.
func (e *Editor) Root() *org.Unit {
	e.mu.Lock()
	defer e.mu.Unlock()
	return org.Clone(e.root)
}

// Direction returns the layout direction applied to the current chart.
func (e *Editor) Direction() layout.Direction {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.direction
}

// Selection returns the id of the selected entity, or "" when nothing is
// selected.
func (e *Editor) Selection() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selection
}

// Select marks the entity behind a clicked node as selected and reports
// whether the id resolved. Selecting an unknown id clears the selection.
func (e *Editor) Select(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ent, _ := org.Find(e.root, id); ent == nil {
		e.selection = ""
		return false
	}
	e.selection = id
	return true
}

// ClearSelection transitions back to the no-selection state.
func (e *Editor) ClearSelection() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selection = ""
}

// AddUnit appends a new unit under the current selection and reports
// whether anything changed. Without a selection, or with a member
// selected, this is a guarded no-op: members cannot hold children.
func (e *Editor) AddUnit(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	next, added := org.AddUnit(e.root, e.selection)
	if added == nil {
		return false, nil
	}
	if err := e.refresh(ctx, next); err != nil {
		return false, err
	}
	e.logger.Debug("added unit", "id", added.ID, "parent", e.selection)
	return true, nil
}

// AddMember appends a new member under the current selection. Same guard
// as [Editor.AddUnit].
func (e *Editor) AddMember(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	next, added := org.AddMember(e.root, e.selection)
	if added == nil {
		return false, nil
	}
	if err := e.refresh(ctx, next); err != nil {
		return false, err
	}
	e.logger.Debug("added member", "id", added.ID, "parent", e.selection)
	return true, nil
}

// DeleteSelected removes the selected entity (a unit takes its whole
// subtree with it) and clears the selection on success. Without a
// selection, or when the selection is the root, nothing happens.
func (e *Editor) DeleteSelected(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	next, removed := org.Delete(e.root, e.selection)
	if !removed {
		return false, nil
	}
	if err := e.refresh(ctx, next); err != nil {
		return false, err
	}
	e.logger.Debug("deleted entity", "id", e.selection)
	e.selection = ""
	return true, nil
}

// EditField updates one field of the selected entity. Unknown fields for
// the selected kind are guarded no-ops, matching the add/delete guards.
func (e *Editor) EditField(ctx context.Context, field, value string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	next, applied := org.EditField(e.root, e.selection, field, value)
	if !applied {
		return false, nil
	}
	if err := e.refresh(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

// Search recomputes emphasis flags over the currently rendered chart and
// returns a snapshot. Positions and structure are untouched, so searching
// never disturbs the layout; an empty query clears all emphasis.
func (e *Editor) Search(query string) chart.Chart {
	e.mu.Lock()
	defer e.mu.Unlock()
	chart.Highlight(e.chart.Nodes, query)
	return e.chart.Clone()
}

// Relayout recomputes positions for the already compiled chart with an
// explicit direction and remembers that direction for all subsequent
// automatic re-layouts. The model is not recompiled.
func (e *Editor) Relayout(ctx context.Context, dir layout.Direction) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	c := e.chart.Clone()
	if err := layout.Apply(ctx, &c, e.engine, dir); err != nil {
		return err
	}
	e.direction = dir
	e.chart = c
	return nil
}

// Export serializes the current model as a snapshot document.
func (e *Editor) Export() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return org.Marshal(e.root)
}

// Load replaces the whole model with an imported snapshot. Identifiers are
// regenerated during import, the selection is cleared, and the chart is
// recompiled, all under the lock: other operations observe either the old
// or the new session, never a mix. On any failure the prior model stays
// intact.
func (e *Editor) Load(ctx context.Context, doc []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	next, err := org.Unmarshal(doc)
	if err != nil {
		return err
	}
	if err := e.refresh(ctx, next); err != nil {
		return err
	}
	e.selection = ""
	e.logger.Info("loaded model", "entities", org.Count(next))
	return nil
}
