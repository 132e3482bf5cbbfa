package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/alfredjeanlab/parish/internal/model"
	"github.com/alfredjeanlab/parish/internal/session"
	"github.com/alfredjeanlab/parish/internal/ui"
)

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func printBroadcastTable(recs []model.BroadcastRecord) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tLOCATION\tTITLE\tBROADCAST")
	for _, r := range recs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Date, truncate(r.Location, 20), truncate(r.Title, 40), r.BroadcastTime)
	}
	w.Flush()
	fmt.Printf("\n%d broadcasts\n", len(recs))
}

func printEventTable(evs []model.Event) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tTITLE\tCREATED")
	for _, e := range evs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.ID, e.DateString(), truncate(e.DisplayTitle(), 40), e.CreatedAt)
	}
	w.Flush()
	fmt.Printf("\n%d events\n", len(evs))
}

func printNotificationTable(list []model.Notification, unread int) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, " \tID\tTYPE\tTITLE\tWHEN")
	for _, n := range list {
		mark := " "
		if !n.Read {
			mark = ui.RenderUnread("*")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", mark, n.ID, n.Type, truncate(n.Title, 50), n.Timestamp)
	}
	w.Flush()
	fmt.Printf("\n%d notifications (%d unread)\n", len(list), unread)
}

func printSessionTable(entries []session.Entry) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "USER\tROLE\tSESSION\tIDLE\tTOUCHES")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.0fs\t%d\n", e.UserID, e.Role, e.SessionID, e.IdleSecs, e.Touches)
	}
	w.Flush()
}
