package chart

import "strings"

// =============================================================================
// Search / Emphasis
// =============================================================================

// Highlight sets the emphasis flag on every node whose label contains the
// query as a case-insensitive substring, and clears it everywhere else.
// A query that is empty after trimming whitespace means "no filter" and
// clears all emphasis.
//
// Highlight annotates the given slice in place and returns it. It never
// touches positions or structure, so it is safe to run on every keystroke
// over the currently rendered nodes, and it is idempotent:
// Highlight(Highlight(nodes, q), q) == Highlight(nodes, q).
func Highlight(nodes []Node, query string) []Node {
	q := strings.ToLower(strings.TrimSpace(query))
	for i := range nodes {
		nodes[i].Emphasis = q != "" && strings.Contains(strings.ToLower(nodes[i].Label), q)
	}
	return nodes
}
