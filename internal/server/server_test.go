package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/orgtower/orgtower/pkg/chart"
	"github.com/orgtower/orgtower/pkg/chart/layout"
	"github.com/orgtower/orgtower/pkg/editor"
	"github.com/orgtower/orgtower/pkg/org"
	"github.com/orgtower/orgtower/pkg/store"
)

type rowEngine struct{}

func (rowEngine) Positions(_ context.Context, g *layout.Graph) (map[string]chart.Point, error) {
	pos := make(map[string]chart.Point, len(g.Nodes))
	for i, id := range g.Nodes {
		pos[id] = chart.Point{X: float64(200 * i), Y: 50}
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

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ed, err := editor.New(context.Background(), testModel(), rowEngine{})
	if err != nil {
		t.Fatalf("editor.New: %v", err)
	}
	snaps, err := store.NewFileSnapshots(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSnapshots: %v", err)
	}
	srv := httptest.NewServer(New(ed, snaps, nil).Router())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) *http.Response {
	t.Helper()
	var rd *bytes.Reader
	if body == "" {
		rd = bytes.NewReader(nil)
	} else {
		rd = bytes.NewReader([]byte(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, rd)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBoard(t *testing.T, resp *http.Response) (chart.Chart, string, string) {
	t.Helper()
	var b struct {
		Chart     chart.Chart `json:"chart"`
		Selection string      `json:"selection"`
		Direction string      `json:"direction"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&b); err != nil {
		t.Fatalf("decode board: %v", err)
	}
	return b.Chart, b.Selection, b.Direction
}

func TestBoard(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodGet, "/api/board", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	c, sel, dir := decodeBoard(t, resp)
	if len(c.Nodes) != 3 || len(c.Edges) != 2 {
		t.Errorf("board = %d nodes %d edges, want 3 and 2", len(c.Nodes), len(c.Edges))
	}
	if sel != "" || dir != "TB" {
		t.Errorf("selection/direction = %q/%q, want empty/TB", sel, dir)
	}
}

func TestSelectAndMutate(t *testing.T) {
	srv := newTestServer(t)

	// Mutations without a selection are guard conflicts.
	if resp := do(t, srv, http.MethodPost, "/api/units", ""); resp.StatusCode != http.StatusConflict {
		t.Fatalf("add without selection = %d, want 409", resp.StatusCode)
	}

	resp := do(t, srv, http.MethodPost, "/api/select", `{"id": "eng"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("select = %d", resp.StatusCode)
	}
	if _, sel, _ := decodeBoard(t, resp); sel != "eng" {
		t.Fatalf("selection = %q, want eng", sel)
	}

	resp = do(t, srv, http.MethodPost, "/api/units", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add unit = %d", resp.StatusCode)
	}
	if c, _, _ := decodeBoard(t, resp); len(c.Nodes) != 4 {
		t.Errorf("nodes = %d, want 4", len(c.Nodes))
	}

	// Members cannot take children.
	do(t, srv, http.MethodPost, "/api/select", `{"id": "ceo"}`)
	if resp := do(t, srv, http.MethodPost, "/api/members", ""); resp.StatusCode != http.StatusConflict {
		t.Errorf("add under member = %d, want 409", resp.StatusCode)
	}
}

func TestSelectUnknownClears(t *testing.T) {
	srv := newTestServer(t)

	do(t, srv, http.MethodPost, "/api/select", `{"id": "eng"}`)
	if resp := do(t, srv, http.MethodPost, "/api/select", `{"id": "ghost"}`); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("select ghost = %d, want 404", resp.StatusCode)
	}
	resp := do(t, srv, http.MethodGet, "/api/board", "")
	if _, sel, _ := decodeBoard(t, resp); sel != "" {
		t.Errorf("selection = %q, want cleared", sel)
	}
}

func TestDeleteAndEdit(t *testing.T) {
	srv := newTestServer(t)

	do(t, srv, http.MethodPost, "/api/select", `{"id": "ceo"}`)
	resp := do(t, srv, http.MethodPatch, "/api/selection", `{"field": "title", "value": "Chief"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("edit = %d", resp.StatusCode)
	}

	do(t, srv, http.MethodPost, "/api/select", `{"id": "eng"}`)
	resp = do(t, srv, http.MethodDelete, "/api/selection", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete = %d", resp.StatusCode)
	}
	c, sel, _ := decodeBoard(t, resp)
	if len(c.Nodes) != 2 || sel != "" {
		t.Errorf("after delete: %d nodes, selection %q", len(c.Nodes), sel)
	}

	// Root refuses deletion.
	do(t, srv, http.MethodPost, "/api/select", `{"id": "co"}`)
	if resp := do(t, srv, http.MethodDelete, "/api/selection", ""); resp.StatusCode != http.StatusConflict {
		t.Errorf("delete root = %d, want 409", resp.StatusCode)
	}
}

func TestSearch(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodGet, "/api/search?q=eng", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search = %d", resp.StatusCode)
	}
	var c chart.Chart
	if err := json.NewDecoder(resp.Body).Decode(&c); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, n := range c.Nodes {
		if want := n.ID == "eng"; n.Emphasis != want {
			t.Errorf("node %s emphasis = %v, want %v", n.ID, n.Emphasis, want)
		}
	}
}

func TestRelayout(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/api/relayout", `{"direction": "LR"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("relayout = %d", resp.StatusCode)
	}
	if _, _, dir := decodeBoard(t, resp); dir != "LR" {
		t.Errorf("direction = %q, want LR", dir)
	}

	if resp := do(t, srv, http.MethodPost, "/api/relayout", `{"direction": "XY"}`); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad direction = %d, want 400", resp.StatusCode)
	}
}

func TestExportImport(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodGet, "/api/export", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export = %d", resp.StatusCode)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, org.DefaultFilename) {
		t.Errorf("Content-Disposition = %q", cd)
	}
	var doc bytes.Buffer
	if _, err := doc.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read export: %v", err)
	}

	resp = do(t, srv, http.MethodPost, "/api/import", doc.String())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("import = %d", resp.StatusCode)
	}
	c, sel, _ := decodeBoard(t, resp)
	if len(c.Nodes) != 3 || sel != "" {
		t.Errorf("after import: %d nodes, selection %q", len(c.Nodes), sel)
	}
}

func TestImportRejectionKeepsSession(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"Malformed", `{"name":`},
		{"BadShape", `{"name": "Solo", "title": "x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if resp := do(t, srv, http.MethodPost, "/api/import", tt.body); resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("import = %d, want 400", resp.StatusCode)
			}
			resp := do(t, srv, http.MethodGet, "/api/board", "")
			if c, _, _ := decodeBoard(t, resp); len(c.Nodes) != 3 {
				t.Errorf("prior session lost: %d nodes", len(c.Nodes))
			}
		})
	}
}

func TestSnapshots(t *testing.T) {
	srv := newTestServer(t)

	if resp := do(t, srv, http.MethodPut, "/api/snapshots/v1", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("save = %d", resp.StatusCode)
	}

	resp := do(t, srv, http.MethodGet, "/api/snapshots/", "")
	var list struct {
		Snapshots []string `json:"snapshots"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Snapshots) != 1 || list.Snapshots[0] != "v1" {
		t.Fatalf("snapshots = %v, want [v1]", list.Snapshots)
	}

	// Mutate the session, then restore the snapshot.
	do(t, srv, http.MethodPost, "/api/select", `{"id": "eng"}`)
	do(t, srv, http.MethodDelete, "/api/selection", "")

	resp = do(t, srv, http.MethodPost, "/api/snapshots/v1/restore", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("restore = %d", resp.StatusCode)
	}
	if c, _, _ := decodeBoard(t, resp); len(c.Nodes) != 3 {
		t.Errorf("restored board = %d nodes, want 3", len(c.Nodes))
	}

	if resp := do(t, srv, http.MethodGet, "/api/snapshots/ghost", ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing snapshot = %d, want 404", resp.StatusCode)
	}

	if resp := do(t, srv, http.MethodDelete, "/api/snapshots/v1", ""); resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete snapshot = %d, want 204", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	if resp := do(t, srv, http.MethodGet, "/healthz", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("healthz = %d", resp.StatusCode)
	}
}
