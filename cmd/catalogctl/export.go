package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"facility-planner/internal/export"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <timeline.xlsx|timeline.pdf>",
	Short: "Write the maintenance timeline to a spreadsheet or PDF report",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().String("title", "Maintenance timeline", "PDF report title")
}

func runExport(cmd *cobra.Command, args []string) error {
	path := args[0]
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".xlsx" && ext != ".pdf" {
		return fmt.Errorf("unsupported export format %q, use .xlsx or .pdf", ext)
	}
	title, err := cmd.Flags().GetString("title")
	if err != nil {
		return fmt.Errorf("failed to get title flag: %w", err)
	}

	store, closeDB, err := openRegistry(cmd.Context())
	if err != nil {
		return err
	}
	defer closeDB()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	entries := store.Timeline()
	if ext == ".xlsx" {
		err = export.WriteTimelineXLSX(f, entries)
	} else {
		err = export.WriteTimelinePDF(f, title, entries, time.Now())
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d years to %s\n", len(entries), path)
	return nil
}
