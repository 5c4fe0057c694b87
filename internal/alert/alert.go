// Package alert surfaces worker failures to a human operator. Desktop
// notifications are best-effort; stderr always gets the message so alerts
// survive headless machines.
package alert

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
)

// Notifier sends operator alerts.
type Notifier struct {
	stderr io.Writer
	goos   string
	run    func(name string, args ...string) error
}

// NewNotifier creates a Notifier for the current platform.
func NewNotifier() *Notifier {
	return &Notifier{
		stderr: os.Stderr,
		goos:   runtime.GOOS,
		run: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}
}

// Notify delivers an alert. Desktop delivery failures are swallowed; the
// stderr mirror is the reliable channel.
func (n *Notifier) Notify(title, message string) {
	switch n.goos {
	case "linux":
		_ = n.run("notify-send", "--urgency=critical", title, message)
	case "darwin":
		script := fmt.Sprintf("display notification %q with title %q", message, title)
		_ = n.run("osascript", "-e", script)
	}
	fmt.Fprintf(n.stderr, "ALERT: %s: %s\n", title, message)
}
