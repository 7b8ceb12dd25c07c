package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/orgtower/orgtower/pkg/chart"
	"github.com/orgtower/orgtower/pkg/chart/layout"
)

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		output string
		suffix string
		want   string
	}{
		{"Derived", "structure.json", "", ".layout.json", "structure.layout.json"},
		{"DerivedDOT", "org/structure.json", "", ".dot", "org/structure.dot"},
		{"Explicit", "structure.json", "out.json", ".layout.json", "out.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := outputPath(tt.input, tt.output, tt.suffix); got != tt.want {
				t.Errorf("outputPath = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteDOT(t *testing.T) {
	board := chart.Chart{
		Nodes: []chart.Node{{ID: "a"}, {ID: "b"}},
		Edges: []chart.Edge{{ID: "ea-b", Source: "a", Target: "b"}},
	}
	out := filepath.Join(t.TempDir(), "org.dot")

	if err := writeDOT(board, layout.DirectionLR, out); err != nil {
		t.Fatalf("writeDOT: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	dot := string(data)
	for _, want := range []string{"rankdir=LR", `"a"`, `"a" -> "b"`} {
		if !strings.Contains(dot, want) {
			t.Errorf("dot output missing %q", want)
		}
	}
}

func TestLabeledDOT(t *testing.T) {
	board := chart.Chart{
		Nodes: []chart.Node{
			{ID: "u1", Label: "Engineering", Kind: chart.KindUnit},
			{ID: "m1", Label: "Sam", Kind: chart.KindMember, Title: "VP"},
		},
		Edges: []chart.Edge{{ID: "eu1-m1", Source: "u1", Target: "m1"}},
	}

	dot := labeledDOT(board, layout.DirectionTB)
	for _, want := range []string{"rankdir=TB", "Engineering", `Sam\nVP`, `"u1" -> "m1"`} {
		if !strings.Contains(dot, want) {
			t.Errorf("dot output missing %q", want)
		}
	}
}
