package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/orgtower/orgtower/pkg/editor"
	"github.com/orgtower/orgtower/pkg/org"
)

// editCommand creates the edit command for the interactive terminal editor.
func (c *CLI) editCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "edit [structure.json]",
		Short: "Edit an organization interactively in the terminal",
		Long: `Edit an organization interactively in the terminal.

Navigate the tree, select an entry, and add, rename or delete departments and
people. Changes live in the session until saved back to the file with 's'.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return c.runEdit(cmd.Context(), input, noCache)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable layout caching")

	return cmd
}

func (c *CLI) runEdit(ctx context.Context, input string, noCache bool) error {
	root, path, err := loadModel(input)
	if err != nil {
		return err
	}

	engine, cleanup, err := c.newEngine(ctx, noCache)
	if err != nil {
		return err
	}
	defer cleanup()

	ed, err := editor.New(ctx, root, engine, editor.WithDirection(c.direction()))
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}

	m := newEditModel(ctx, ed, path)
	final, err := tea.NewProgram(m, tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("editor: %w", err)
	}
	if fm, ok := final.(editModel); ok && fm.dirty {
		printInfo("Unsaved changes were discarded")
	}
	return nil
}

// =============================================================================
// EditModel - Interactive tree editing
// =============================================================================

// Tree styles
var (
	treeSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	treeUnitStyle     = lipgloss.NewStyle().Foreground(colorWhite).Bold(true)
	treeMemberStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	treeDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// editMode is the input state of the editor.
type editMode int

const (
	modeBrowse editMode = iota
	modeInput
)

// treeRow is one visible line of the flattened organization tree.
type treeRow struct {
	id     string
	label  string
	detail string
	depth  int
	isUnit bool
}

// editModel is the bubbletea model for the interactive editor.
type editModel struct {
	ctx  context.Context
	ed   *editor.Editor
	path string

	rows   []treeRow
	cursor int
	offset int
	height int

	mode    editMode
	prompt  string
	input   string
	onEnter func(m *editModel, value string)

	emphasis map[string]bool
	status   string
	dirty    bool
}

// newEditModel builds the initial model from the session state.
func newEditModel(ctx context.Context, ed *editor.Editor, path string) editModel {
	m := editModel{ctx: ctx, ed: ed, path: path, height: 15}
	m.reload()
	return m
}

// reload flattens the current tree into visible rows and clamps the cursor.
func (m *editModel) reload() {
	root := m.ed.Root()
	depths := map[string]int{}
	var rows []treeRow
	org.Walk(root, func(e org.Entity, parent *org.Unit) bool {
		depth := 0
		if parent != nil {
			depth = depths[parent.ID] + 1
		}
		row := treeRow{id: e.EntityID(), label: e.EntityName(), depth: depth}
		switch ent := e.(type) {
		case *org.Unit:
			depths[ent.ID] = depth
			row.isUnit = true
		case *org.Member:
			row.detail = ent.Title
			if ent.Tenure != "" {
				if row.detail != "" {
					row.detail += ", "
				}
				row.detail += ent.Tenure
			}
		}
		rows = append(rows, row)
		return true
	})
	m.rows = rows
	if m.cursor >= len(rows) {
		m.cursor = len(rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m editModel) Init() tea.Cmd {
	return nil
}

func (m editModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height - 7
		if m.height < 5 {
			m.height = 5
		}
		return m, nil
	case tea.KeyMsg:
		if m.mode == modeInput {
			return m.updateInput(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

// updateInput handles line editing for rename, title and search prompts.
func (m editModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c":
		m.mode = modeBrowse
		m.input = ""
	case "enter":
		m.mode = modeBrowse
		value := m.input
		m.input = ""
		m.onEnter(&m, value)
	case "backspace":
		if len(m.input) > 0 {
			r := []rune(m.input)
			m.input = string(r[:len(r)-1])
		}
	default:
		if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
			// A space key carries its rune; fall back for safety.
			if len(msg.Runes) > 0 {
				m.input += string(msg.Runes)
			} else {
				m.input += " "
			}
		}
	}
	return m, nil
}

func (m editModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			if m.cursor < m.offset {
				m.offset = m.cursor
			}
		}
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
			if m.cursor >= m.offset+m.height {
				m.offset = m.cursor - m.height + 1
			}
		}
	case "esc":
		m.ed.ClearSelection()
		m.emphasis = nil
		m.status = ""
	case "enter", " ":
		m.selectCursor()
	case "u":
		m.mutate("added department", func() (bool, error) { return m.ed.AddUnit(m.ctx) })
	case "p":
		m.mutate("added person", func() (bool, error) { return m.ed.AddMember(m.ctx) })
	case "d":
		m.mutate("deleted", func() (bool, error) { return m.ed.DeleteSelected(m.ctx) })
	case "r":
		m.startEdit("Rename", org.FieldName)
	case "t":
		m.startEdit("Title", org.FieldTitle)
	case "e":
		m.startEdit("Tenure", org.FieldTenure)
	case "/":
		m.startSearch()
	case "D":
		m.toggleDirection()
	case "s":
		m.save()
	}
	return m, nil
}

// selectCursor selects the entity under the cursor, or clears the selection
// when it is already selected.
func (m *editModel) selectCursor() {
	if len(m.rows) == 0 {
		return
	}
	id := m.rows[m.cursor].id
	if m.ed.Selection() == id {
		m.ed.ClearSelection()
		return
	}
	m.ed.Select(id)
}

// mutate runs one guarded editor operation and records the outcome.
func (m *editModel) mutate(verb string, op func() (bool, error)) {
	if m.ed.Selection() == "" {
		m.status = "select an entry first"
		return
	}
	changed, err := op()
	switch {
	case err != nil:
		m.status = "error: " + err.Error()
	case !changed:
		m.status = "not allowed here"
	default:
		m.status = verb
		m.dirty = true
		m.reload()
	}
}

// startEdit opens the input prompt for one field of the selected entity.
func (m *editModel) startEdit(prompt, field string) {
	if m.ed.Selection() == "" {
		m.status = "select an entry first"
		return
	}
	m.mode = modeInput
	m.prompt = prompt
	m.onEnter = func(m *editModel, value string) {
		m.mutate("updated", func() (bool, error) { return m.ed.EditField(m.ctx, field, value) })
	}
}

// startSearch opens the search prompt. The hits stay highlighted until the
// search is cleared with esc.
func (m *editModel) startSearch() {
	m.mode = modeInput
	m.prompt = "Search"
	m.onEnter = func(m *editModel, value string) {
		board := m.ed.Search(value)
		if strings.TrimSpace(value) == "" {
			m.emphasis = nil
			m.status = ""
			return
		}
		hits := map[string]bool{}
		for _, n := range board.Nodes {
			if n.Emphasis {
				hits[n.ID] = true
			}
		}
		m.emphasis = hits
		m.status = fmt.Sprintf("%d matches for %q", len(hits), value)
	}
}

// toggleDirection flips the layout direction for the session.
func (m *editModel) toggleDirection() {
	dir := m.ed.Direction().Toggle()
	if err := m.ed.Relayout(m.ctx, dir); err != nil {
		m.status = "error: " + err.Error()
		return
	}
	m.status = "layout direction: " + string(dir)
}

// save writes the session back to the organization file.
func (m *editModel) save() {
	doc, err := m.ed.Export()
	if err != nil {
		m.status = "error: " + err.Error()
		return
	}
	if err := os.WriteFile(m.path, doc, 0o644); err != nil {
		m.status = "error: " + err.Error()
		return
	}
	m.dirty = false
	m.status = "saved " + m.path
}

func (m editModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Orgtower — " + m.path))
	b.WriteString("\n")
	b.WriteString(treeDimStyle.Render("↑/↓ move  ⏎ select  u unit  p person  r rename  t title  d delete  / search  D direction  s save  q quit"))
	b.WriteString("\n\n")

	end := m.offset + m.height
	if end > len(m.rows) {
		end = len(m.rows)
	}

	selection := m.ed.Selection()
	for i := m.offset; i < end; i++ {
		row := m.rows[i]

		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		marker := "  "
		if row.id == selection {
			marker = "● "
		}

		label := row.label
		switch {
		case m.emphasis[row.id]:
			label = StyleHighlight.Render(label)
		case i == m.cursor:
			label = treeSelectedStyle.Render(label)
		case row.isUnit:
			label = treeUnitStyle.Render(label)
		default:
			label = treeMemberStyle.Render(label)
		}

		line := cursor + marker + strings.Repeat("  ", row.depth) + label
		if row.detail != "" {
			line += "  " + treeDimStyle.Render(row.detail)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.mode == modeInput {
		b.WriteString(StyleHighlight.Render(m.prompt+": ") + m.input + treeDimStyle.Render("▏"))
	} else if m.status != "" {
		b.WriteString(treeDimStyle.Render(m.status))
	} else {
		b.WriteString(treeDimStyle.Render(fmt.Sprintf("[%d/%d]", m.cursor+1, len(m.rows))))
	}

	return b.String()
}
