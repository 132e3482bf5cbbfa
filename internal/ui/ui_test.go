package ui

import (
	"bytes"
	"testing"
)

func TestShouldUseColor(t *testing.T) {
	for _, tc := range []struct {
		name string
		env  map[string]string
		want bool
	}{
		{"NoColor", map[string]string{"NO_COLOR": "1", "CLICOLOR_FORCE": "1"}, false},
		{"Forced", map[string]string{"CLICOLOR_FORCE": "1"}, true},
		{"Disabled", map[string]string{"CLICOLOR": "0"}, false},
		{"NotTerminal", map[string]string{}, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			for _, k := range []string{"NO_COLOR", "CLICOLOR_FORCE", "CLICOLOR"} {
				t.Setenv(k, "")
			}
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if got := ShouldUseColor(&bytes.Buffer{}); got != tc.want {
				t.Errorf("ShouldUseColor = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRender(t *testing.T) {
	noColor = false
	if got := RenderAccent("x"); got != "\x1b[38;5;74mx\x1b[0m" {
		t.Errorf("RenderAccent = %q", got)
	}
	ForceNoColor()
	t.Cleanup(func() { noColor = false })
	for _, f := range []func(string) string{RenderAccent, RenderMuted, RenderCommand, RenderUnread} {
		if got := f("x"); got != "x" {
			t.Errorf("render with color disabled = %q", got)
		}
	}
}
