package alert

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

func TestNotifyAlwaysWritesStderr(t *testing.T) {
	var buf bytes.Buffer
	n := &Notifier{
		stderr: &buf,
		goos:   "linux",
		run:    func(name string, args ...string) error { return fmt.Errorf("no display") },
	}

	n.Notify("worker stopped", "claude-1 exited with code 2")

	out := buf.String()
	if !strings.Contains(out, "worker stopped") || !strings.Contains(out, "claude-1 exited with code 2") {
		t.Errorf("stderr = %q", out)
	}
}

func TestNotifyUsesPlatformCommand(t *testing.T) {
	tests := []struct {
		goos string
		cmd  string
	}{
		{"linux", "notify-send"},
		{"darwin", "osascript"},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			var ran []string
			n := &Notifier{
				stderr: &bytes.Buffer{},
				goos:   tt.goos,
				run: func(name string, args ...string) error {
					ran = append(ran, name)
					return nil
				},
			}
			n.Notify("title", "message")

			if len(ran) != 1 || ran[0] != tt.cmd {
				t.Errorf("ran = %v, want [%s]", ran, tt.cmd)
			}
		})
	}
}

func TestNotifyUnknownPlatformSkipsDesktop(t *testing.T) {
	var ran []string
	var buf bytes.Buffer
	n := &Notifier{
		stderr: &buf,
		goos:   "windows",
		run: func(name string, args ...string) error {
			ran = append(ran, name)
			return nil
		},
	}
	n.Notify("title", "message")

	if len(ran) != 0 {
		t.Errorf("ran = %v, want none", ran)
	}
	if buf.Len() == 0 {
		t.Error("stderr mirror missing")
	}
}
