package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orgtower/orgtower/pkg/chart"
)

// searchCommand creates the search command for finding people and units.
func (c *CLI) searchCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find units and people by name",
		Long: `Find units and people by name.

Matching is a case-insensitive substring test against the displayed name,
the same rule the interactive editor uses for highlighting.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSearch(args[0], file)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "i", "", "organization file (default: structure.json)")

	return cmd
}

func (c *CLI) runSearch(query, file string) error {
	root, path, err := loadModel(file)
	if err != nil {
		return err
	}

	board := chart.Compile(root)
	chart.Highlight(board.Nodes, query)

	matches := 0
	for _, n := range board.Nodes {
		if !n.Emphasis {
			continue
		}
		matches++
		switch n.Kind {
		case chart.KindMember:
			detail := n.Title
			if n.Tenure != "" {
				detail = fmt.Sprintf("%s, %s", n.Title, n.Tenure)
			}
			fmt.Println("  " + StyleHighlight.Render(n.Label) + "  " + StyleDim.Render(detail))
		default:
			fmt.Println("  " + StyleHighlight.Render(n.Label) + "  " + StyleDim.Render("department"))
		}
	}

	if matches == 0 {
		printInfo("No matches for %q in %s", query, path)
		return nil
	}
	printNewline()
	printDetail("%d of %d entries match", matches, len(board.Nodes))
	return nil
}
