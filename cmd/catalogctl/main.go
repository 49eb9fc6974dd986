// Command catalogctl inspects the element catalog and maintains the registry from the shell.
package main

import (
	"fmt"
	"os"

	"facility-planner/internal/catalog"
	"facility-planner/internal/config"
	"facility-planner/internal/models"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfgFile     string
	catalogPath string

	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "catalogctl",
	Short: "Inspect the element catalog and maintain the facility registry",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if appConfig != nil {
			return nil
		}
		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config from %s: %w", cfgFile, err)
		}
		appConfig = cfg
		if catalogPath == "" {
			catalogPath = cfg.Catalog.ElementsPath
		}
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config/config.yaml", "config file")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "element catalog JSON (defaults to catalog.elements_path)")

	rootCmd.AddCommand(validateCmd, resolveCmd, importCmd, exportCmd)
}

func loadCatalog() (models.Catalog, error) {
	c, err := catalog.Load(catalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog %s: %w", catalogPath, err)
	}
	return c, nil
}

func main() {
	log.SetLevel(log.WarnLevel)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
