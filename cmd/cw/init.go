package main

import (
	"github.com/matsen/citewatch/internal/config"
	"github.com/matsen/citewatch/internal/store"
	"github.com/spf13/cobra"
)

var (
	initName  string
	initEmail string
	initORCID string
)

func init() {
	initCmd.Flags().StringVar(&initName, "name", "", "Your full name")
	initCmd.Flags().StringVar(&initEmail, "email", "", "Your email address")
	initCmd.Flags().StringVar(&initORCID, "orcid", "", "Your ORCID identifier")
	initCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration and database",
	Long: `Initialize citewatch: write a default configuration file and create
the citation database.

Example:
  cw init --name "Jane Doe" --email jane@example.org --orcid 0000-0001-2345-6789`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	cfg.User = config.UserConfig{
		Name:  initName,
		Email: initEmail,
		ORCID: initORCID,
	}

	if err := cfg.Save(); err != nil {
		exitWithError(ExitError, "saving config: %v", err)
	}

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		exitWithError(ExitError, "initializing database: %v", err)
	}
	db.Close()

	if humanOutput {
		outputHuman("Configuration saved to %s\n", config.Path())
		outputHuman("Database initialized at %s\n\n", cfg.DatabasePath)
		outputHuman("Next steps:\n")
		outputHuman("1. Add API keys to %s/.env if you have them\n", config.Dir())
		outputHuman("2. Run 'cw fetch --all' to fetch your data\n")
		outputHuman("3. Run 'cw dashboard' to view your metrics\n")
	} else {
		outputJSON(StatusResponse{Status: "initialized", Path: config.Path()})
	}

	return nil
}
