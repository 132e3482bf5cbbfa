package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"n"},
	Short:   "Read and manage a user's notifications",
	GroupID: "notifications",
}

var notificationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notifications, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := requireUser()
		if err != nil {
			return err
		}
		list, err := parishClient.ListNotifications(cmd.Context(), user)
		if err != nil {
			return fmt.Errorf("listing notifications: %w", err)
		}
		if jsonOutput {
			return printJSON(list)
		}
		printNotificationTable(list.Notifications, list.Unread)
		return nil
	},
}

var notificationsUnreadCmd = &cobra.Command{
	Use:   "unread",
	Short: "Print the unread count",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := requireUser()
		if err != nil {
			return err
		}
		n, err := parishClient.UnreadCount(cmd.Context(), user)
		if err != nil {
			return fmt.Errorf("counting unread: %w", err)
		}
		if jsonOutput {
			return printJSON(map[string]int{"unread": n})
		}
		fmt.Println(n)
		return nil
	},
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read <id>",
	Short: "Mark one notification read",
	Args:  cobra.ExactArgs(1),
	RunE: userAction("marking read", func(cmd *cobra.Command, user string, args []string) error {
		return parishClient.MarkRead(cmd.Context(), user, args[0])
	}),
}

var notificationsReadAllCmd = &cobra.Command{
	Use:   "read-all",
	Short: "Mark every notification read",
	RunE: userAction("marking all read", func(cmd *cobra.Command, user string, _ []string) error {
		return parishClient.MarkAllRead(cmd.Context(), user)
	}),
}

var notificationsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one notification",
	Args:  cobra.ExactArgs(1),
	RunE: userAction("deleting", func(cmd *cobra.Command, user string, args []string) error {
		return parishClient.DeleteNotification(cmd.Context(), user, args[0])
	}),
}

var notificationsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every notification",
	RunE: userAction("clearing", func(cmd *cobra.Command, user string, _ []string) error {
		return parishClient.ClearNotifications(cmd.Context(), user)
	}),
}

var notificationsAddCmd = &cobra.Command{
	Use:   "add --title <title> --message <message>",
	Short: "Add a system notification",
	RunE: userAction("adding", func(cmd *cobra.Command, user string, _ []string) error {
		title, _ := cmd.Flags().GetString("title")
		message, _ := cmd.Flags().GetString("message")
		if title == "" || message == "" {
			return fmt.Errorf("--title and --message are required")
		}
		return parishClient.AddSystemNotification(cmd.Context(), user, title, message)
	}),
}

// userAction wraps a per-user mutation that prints "ok" on success.
func userAction(what string, fn func(cmd *cobra.Command, user string, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		user, err := requireUser()
		if err != nil {
			return err
		}
		if err := fn(cmd, user, args); err != nil {
			return fmt.Errorf("%s: %w", what, err)
		}
		if jsonOutput {
			return printJSON(map[string]bool{"ok": true})
		}
		fmt.Println("ok")
		return nil
	}
}

func init() {
	notificationsAddCmd.Flags().String("title", "", "notification title")
	notificationsAddCmd.Flags().String("message", "", "notification message")

	notificationsCmd.AddCommand(
		notificationsListCmd,
		notificationsUnreadCmd,
		notificationsReadCmd,
		notificationsReadAllCmd,
		notificationsDeleteCmd,
		notificationsClearCmd,
		notificationsAddCmd,
	)
}
