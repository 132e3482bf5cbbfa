// Package ui renders CLI output with optional ANSI colors.
package ui

import "fmt"

// ANSI256 color codes.
const (
	colorAccent = 74  // blue
	colorCmd    = 250 // light gray
	colorMuted  = 245 // medium gray
	colorUnread = 214 // amber
)

var noColor bool

func paint(code int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return paint(colorAccent, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return paint(colorMuted, s) }

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string { return paint(colorCmd, s) }

// RenderUnread marks an unread notification.
func RenderUnread(s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[1;38;5;%dm%s\x1b[0m", colorUnread, s)
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
