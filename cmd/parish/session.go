package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sessionRole string

var sessionCmd = &cobra.Command{
	Use:     "session",
	Short:   "Start, end, or list synchronization sessions",
	GroupID: "notifications",
}

var sessionStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start or refresh the user's session",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := requireUser()
		if err != nil {
			return err
		}
		e, err := parishClient.StartSession(cmd.Context(), user, sessionRole)
		if err != nil {
			return fmt.Errorf("starting session: %w", err)
		}
		if jsonOutput {
			return printJSON(e)
		}
		fmt.Printf("Session %s for %s (touches: %d)\n", e.SessionID, e.UserID, e.Touches)
		return nil
	},
}

var sessionEndCmd = &cobra.Command{
	Use:   "end",
	Short: "End the user's session",
	RunE: userAction("ending session", func(cmd *cobra.Command, user string, _ []string) error {
		return parishClient.EndSession(cmd.Context(), user)
	}),
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := parishClient.ListSessions(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing sessions: %w", err)
		}
		if jsonOutput {
			return printJSON(entries)
		}
		printSessionTable(entries)
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:     "reset",
	Short:   "Reprocess every broadcast for the user on their next pass",
	GroupID: "notifications",
	RunE: userAction("requesting reset", func(cmd *cobra.Command, user string, _ []string) error {
		return parishClient.RequestReset(cmd.Context(), user)
	}),
}

var healthCmd = &cobra.Command{
	Use:     "health",
	Short:   "Check the health of the parish server",
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := parishClient.Health(cmd.Context())
		if err != nil {
			return fmt.Errorf("checking health: %w", err)
		}
		if jsonOutput {
			if err := printJSON(map[string]string{"status": status}); err != nil {
				return err
			}
		} else {
			fmt.Printf("Health: %s\n", status)
		}
		if status != "ok" {
			return fmt.Errorf("unhealthy: %s", status)
		}
		return nil
	},
}

func init() {
	sessionStartCmd.Flags().StringVar(&sessionRole, "role", "", "session role (admin sessions receive no notifications)")
	sessionCmd.AddCommand(sessionStartCmd, sessionEndCmd, sessionListCmd)
}
