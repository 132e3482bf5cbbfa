package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/parish/internal/model"
)

var eventsCmd = &cobra.Command{
	Use:     "events",
	Short:   "Manage the live event list",
	GroupID: "events",
}

var eventsSetCmd = &cobra.Command{
	Use:   "set <file|->",
	Short: "Replace the live event list with a JSON array",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		evs, err := readEvents(args[0])
		if err != nil {
			return err
		}
		n, err := parishClient.SetEvents(cmd.Context(), evs)
		if err != nil {
			return fmt.Errorf("setting events: %w", err)
		}
		if jsonOutput {
			return printJSON(map[string]int{"count": n})
		}
		fmt.Printf("Stored %d events\n", n)
		return nil
	},
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the live events",
	RunE: func(cmd *cobra.Command, args []string) error {
		evs, err := parishClient.ListEvents(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing events: %w", err)
		}
		if jsonOutput {
			return printJSON(evs)
		}
		printEventTable(evs)
		return nil
	},
}

// readEvents decodes a JSON array of events from path, or stdin for "-".
func readEvents(path string) ([]model.Event, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var evs []model.Event
	if err := json.NewDecoder(r).Decode(&evs); err != nil {
		return nil, fmt.Errorf("decoding events: %w", err)
	}
	return evs, nil
}

func init() {
	eventsCmd.AddCommand(eventsSetCmd, eventsListCmd)
}
