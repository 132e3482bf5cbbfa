package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/parish/internal/client"
	"github.com/alfredjeanlab/parish/internal/ui"
)

var (
	profilePath string
	serverURL   string
	authToken   string
	userID      string
	jsonOutput  bool

	parishClient client.Client
)

var rootCmd = &cobra.Command{
	Use:           "parish <command>",
	Short:         "Event broadcasts and notifications for the parish app",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		prof, err := loadProfile(profilePath)
		if err != nil {
			return fmt.Errorf("loading profile: %w", err)
		}
		applyProfile(cmd, prof)
		if !ui.ShouldUseColor(os.Stdout) {
			ui.ForceNoColor()
		}
		parishClient = client.NewHTTPClient(serverURL, authToken)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", defaultProfilePath(), "client profile (TOML)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "url", "http://localhost:8080", "server URL")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", os.Getenv("PARISH_AUTH_TOKEN"), "bearer token")
	rootCmd.PersistentFlags().StringVar(&userID, "user", "", "user id for per-user commands")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddGroup(
		&cobra.Group{ID: "events", Title: "Events:"},
		&cobra.Group{ID: "notifications", Title: "Notifications:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	rootCmd.AddCommand(broadcastCmd)
	rootCmd.AddCommand(eventsCmd)

	rootCmd.AddCommand(notificationsCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(resetCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(profileCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
