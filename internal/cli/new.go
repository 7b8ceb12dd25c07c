package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/orgtower/orgtower/pkg/org"
)

// newCommand creates the new command for scaffolding an organization file.
func (c *CLI) newCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "new [file]",
		Short: "Create a starter organization file",
		Long: `Create a starter organization file.

The file is a plain JSON document describing departments and people. Edit it
by hand, with 'orgtower edit', or serve it over HTTP with 'orgtower serve'.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := org.DefaultFilename
			if len(args) == 1 {
				path = args[0]
			}
			return c.runNew(path, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	return cmd
}

func (c *CLI) runNew(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	if err := org.WriteFile(starterModel(), path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	printSuccess("Created starter organization")
	printFile(path)
	printNewline()
	printNextStep("Edit", "orgtower edit "+path)
	printNextStep("Lay out", "orgtower layout "+path)
	return nil
}

// starterModel builds a small example organization.
func starterModel() *org.Unit {
	company := org.NewUnit("Acme Corp")
	company.Members = append(company.Members,
		org.NewMember("Avery Quinn", "CEO", "6 years"),
	)

	eng := org.NewUnit("Engineering")
	eng.Members = append(eng.Members,
		org.NewMember("Sam Rivera", "VP Engineering", "4 years"),
	)

	platform := org.NewUnit("Platform")
	platform.Members = append(platform.Members,
		org.NewMember("Jordan Lee", "Staff Engineer", "3 years"),
		org.NewMember("Casey Park", "Engineer", "1 year"),
	)
	eng.Units = append(eng.Units, platform)

	sales := org.NewUnit("Sales")
	sales.Members = append(sales.Members,
		org.NewMember("Morgan Diaz", "Head of Sales", "2 years"),
	)

	company.Units = append(company.Units, eng, sales)
	return company
}
