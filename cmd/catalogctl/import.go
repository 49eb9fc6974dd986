package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"facility-planner/internal/database"
	"facility-planner/internal/defects"
	"facility-planner/internal/models"
	"facility-planner/internal/registry"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <elements.json>",
	Short: "Append a JSON array of elements to the configured database",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	importCmd.Flags().Bool("dry-run", false, "report what would be imported without saving")
}

func runImport(cmd *cobra.Command, args []string) error {
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return fmt.Errorf("failed to get dry-run flag: %w", err)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	var batch []models.Element
	if err := json.Unmarshal(data, &batch); err != nil {
		return fmt.Errorf("failed to parse %s: %w", args[0], err)
	}

	store, closeDB, err := openRegistry(cmd.Context())
	if err != nil {
		return err
	}
	defer closeDB()

	result := store.ImportElements(batch)
	out := cmd.OutOrStdout()
	for from, to := range result.Renamed {
		fmt.Fprintf(out, "renamed %s -> %s\n", from, to)
	}
	for _, r := range result.Rejected {
		fmt.Fprintf(out, "rejected #%d %q: %s\n", r.Index, r.Name, r.Error)
	}

	if dryRun {
		fmt.Fprintf(out, "dry run: %d elements would be imported\n", len(result.Imported))
		return nil
	}
	if err := store.Save(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintf(out, "imported %d elements\n", len(result.Imported))
	return nil
}

// openRegistry loads the working copy from the configured database
func openRegistry(ctx context.Context) (*registry.Store, func(), error) {
	c, err := loadCatalog()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(appConfig.Database)
	if err != nil {
		return nil, nil, err
	}
	store := registry.NewStore(c, defects.ParsePolicy(appConfig.Defects.MaterialChangePolicy), db)
	if err := store.Load(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, func() { db.Close() }, nil
}
