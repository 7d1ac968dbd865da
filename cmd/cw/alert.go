package main

import (
	"fmt"

	"github.com/matsen/citewatch/internal/store"
	"github.com/spf13/cobra"
)

var (
	alertEnable    bool
	alertDisable   bool
	alertThreshold int
	alertList      bool
)

func init() {
	alertCmd.Flags().BoolVar(&alertEnable, "enable", false, "Enable citation alerts")
	alertCmd.Flags().BoolVar(&alertDisable, "disable", false, "Disable citation alerts")
	alertCmd.Flags().IntVar(&alertThreshold, "threshold", 0, "Minimum citation increase to trigger an alert")
	alertCmd.Flags().BoolVar(&alertList, "list", false, "List unread alerts")
	alertCmd.MarkFlagsMutuallyExclusive("enable", "disable")
	rootCmd.AddCommand(alertCmd)
}

var alertCmd = &cobra.Command{
	Use:   "alert",
	Short: "Configure and list citation alerts",
	Long: `Enable or disable citation alerts, set the alert threshold, or
list unread alerts. Threshold changes are persisted back to the
configuration file.

Examples:
  cw alert --enable --threshold 5
  cw alert --list`,
	RunE: runAlert,
}

func runAlert(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	if alertList {
		db := mustOpenStore(cfg)
		defer db.Close()

		alerts, err := db.ListAlerts(true)
		if err != nil {
			exitWithError(ExitError, "listing alerts: %v", err)
		}
		if humanOutput {
			printAlertsHuman(alerts)
		} else {
			if alerts == nil {
				alerts = []store.Alert{}
			}
			outputJSON(alerts)
		}
		return nil
	}

	changed := false
	if alertEnable {
		cfg.Alerts.Enabled = true
		changed = true
	}
	if alertDisable {
		cfg.Alerts.Enabled = false
		changed = true
	}
	if alertThreshold > 0 {
		cfg.Alerts.MinCitationThreshold = alertThreshold
		changed = true
	}

	if !changed {
		exitWithError(ExitError, "specify --enable, --disable, --threshold, or --list")
	}

	if err := cfg.Save(); err != nil {
		exitWithError(ExitError, "saving config: %v", err)
	}

	if humanOutput {
		state := "disabled"
		if cfg.Alerts.Enabled {
			state = "enabled"
		}
		outputHuman("Alerts %s (threshold %d)\n", state, cfg.Alerts.MinCitationThreshold)
	} else {
		outputJSON(map[string]interface{}{
			"status":    "updated",
			"enabled":   cfg.Alerts.Enabled,
			"threshold": cfg.Alerts.MinCitationThreshold,
		})
	}

	return nil
}

func printAlertsHuman(alerts []store.Alert) {
	if len(alerts) == 0 {
		fmt.Println("No unread alerts")
		return
	}
	for _, a := range alerts {
		fmt.Printf("  %s  [%s] %s\n", formatDate(a.Created), a.Type, a.Message)
	}
}
