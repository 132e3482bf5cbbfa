package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/parish/internal/model"
)

var broadcastCmd = &cobra.Command{
	Use:     "broadcast --title <title> [flags]",
	Short:   "Broadcast an event to every member",
	GroupID: "events",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		ev := model.Event{}
		ev.ID, _ = flags.GetString("id")
		ev.Title, _ = flags.GetString("title")
		ev.Date, _ = flags.GetString("date")
		ev.Location, _ = flags.GetString("location")
		ev.Description, _ = flags.GetString("description")
		if ev.Title == "" {
			return fmt.Errorf("--title is required")
		}

		res, err := parishClient.Broadcast(cmd.Context(), ev)
		if err != nil {
			return fmt.Errorf("broadcasting: %w", err)
		}
		if jsonOutput {
			return printJSON(res)
		}
		fmt.Printf("Broadcast: %s\n", res.Result)
		if !res.OK {
			return fmt.Errorf("broadcast not confirmed (%s); retrying is safe", res.Result)
		}
		return nil
	},
}

var broadcastListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the broadcast log, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		recs, err := parishClient.ListBroadcasts(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing broadcasts: %w", err)
		}
		if jsonOutput {
			return printJSON(recs)
		}
		printBroadcastTable(recs)
		return nil
	},
}

func init() {
	f := broadcastCmd.Flags()
	f.String("id", "", "event id (generated when empty)")
	f.String("title", "", "event title")
	f.String("date", "", "scheduled date, RFC 3339 or YYYY-MM-DD")
	f.String("location", "", "location")
	f.String("description", "", "description")

	broadcastCmd.AddCommand(broadcastListCmd)
}
