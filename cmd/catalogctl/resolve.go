package main

import (
	"fmt"
	"io"
	"strings"

	"facility-planner/internal/catalog"
	"facility-planner/internal/defects"
	"facility-planner/internal/models"

	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <name> [type] [material]",
	Short: "List types, materials or available defects for a catalog path",
	Long: `With a name only, lists the known types. With a name and type, lists the materials.
With all three, lists the defects available per severity.`,
	Args: cobra.RangeArgs(1, 3),
	RunE: runResolve,
}

func runResolve(cmd *cobra.Command, args []string) error {
	c, err := loadCatalog()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	switch len(args) {
	case 1:
		return printList(out, catalog.Types(c, args[0]), "types", args[0])
	case 2:
		return printList(out, catalog.Materials(c, args[0], args[1]), "materials", strings.Join(args, "/"))
	}

	set := defects.ResolveAvailableDefects(args[0], args[1], args[2], c, nil)
	if set.Count() == 0 {
		return fmt.Errorf("no defects for %s", strings.Join(args, "/"))
	}
	for _, sev := range models.Severities {
		names := set.Names(sev)
		if len(names) == 0 {
			continue
		}
		fmt.Fprintf(out, "%s:\n", sev)
		for _, n := range names {
			fmt.Fprintf(out, "  - %s\n", n)
		}
	}
	return nil
}

func printList(out io.Writer, items []string, what, path string) error {
	if len(items) == 0 {
		return fmt.Errorf("no %s for %s", what, path)
	}
	for _, item := range items {
		fmt.Fprintln(out, item)
	}
	return nil
}
