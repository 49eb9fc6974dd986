package main

import (
	"fmt"

	"facility-planner/internal/catalog"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the catalog for unknown severities, blank names and duplicates",
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	c, err := loadCatalog()
	if err != nil {
		return err
	}
	if err := catalog.Validate(c); err != nil {
		return err
	}

	combos := 0
	for _, name := range catalog.ElementNames(c) {
		for _, typ := range catalog.Types(c, name) {
			combos += len(catalog.Materials(c, name, typ))
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "catalog ok: %d element names, %d name/type/material combinations\n",
		len(c), combos)
	return nil
}
