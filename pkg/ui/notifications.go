package ui

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"xfollowers/pkg/config"
	"xfollowers/pkg/metadata"
)

// Sender delivers a desktop notification.
type Sender interface {
	Send(title, message string) error
}

// commandSender runs a platform notification tool.
type commandSender struct {
	name string
	args func(title, message string) []string
}

func (c commandSender) Send(title, message string) error {
	return exec.Command(c.name, c.args(title, message)...).Run()
}

const toastScript = `$t=[Windows.UI.Notifications.ToastNotificationManager,Windows.UI.Notifications,ContentType=WindowsRuntime];` +
	`$x=$t::GetTemplateContent([Windows.UI.Notifications.ToastTemplateType]::ToastText02);` +
	`$n=$x.GetElementsByTagName('text');$n.Item(0).InnerText='%s';$n.Item(1).InnerText='%s';` +
	`$t::CreateToastNotifier('xfollowers').Show([Windows.UI.Notifications.ToastNotification]::new($x))`

var desktopSenders = map[string]commandSender{
	"linux": {"notify-send", func(title, message string) []string {
		return []string{"--app-name=xfollowers", title, message}
	}},
	"darwin": {"osascript", func(title, message string) []string {
		return []string{"-e", fmt.Sprintf("display notification %q with title %q", message, title)}
	}},
	"windows": {"powershell", func(title, message string) []string {
		quote := func(s string) string { return strings.ReplaceAll(s, "'", "''") }
		return []string{"-NoProfile", "-NonInteractive", "-Command", fmt.Sprintf(toastScript, quote(title), quote(message))}
	}},
}

// Notifier announces the end of a run on the terminal and, when the
// notification type is "desktop", through the platform's notifier.
// Type "none" keeps it silent.
type Notifier struct {
	sender Sender
	cfg    config.NotificationConfig
}

func NewNotifier(cfg config.NotificationConfig) *Notifier {
	n := &Notifier{cfg: cfg}
	if strings.EqualFold(cfg.NotificationType, "desktop") {
		if s, ok := desktopSenders[runtime.GOOS]; ok {
			n.sender = s
		}
	}
	return n
}

// SetSender replaces the desktop sender
func (n *Notifier) SetSender(s Sender) {
	n.sender = s
}

// RunComplete announces a finished run
func (n *Notifier) RunComplete(summary *metadata.RunSummary) {
	if !n.cfg.Enabled || !n.cfg.OnComplete || summary == nil {
		return
	}
	n.send(Green, "Collection complete",
		fmt.Sprintf("@%s %s: %d new accounts", summary.Username, summary.Request, summary.New))
}

// RunFailed announces a failed run
func (n *Notifier) RunFailed(username string, err error) {
	if !n.cfg.Enabled || !n.cfg.OnError || err == nil {
		return
	}
	n.send(Red, "Collection failed", fmt.Sprintf("@%s: %v", username, err))
}

func (n *Notifier) send(color func(string) string, title, message string) {
	if strings.EqualFold(n.cfg.NotificationType, "none") {
		return
	}
	fmt.Fprintf(Output, "\n%s: %s\n", color(title), message)

	if n.sender != nil {
		// a missing notify tool is not worth failing the run over
		_ = n.sender.Send(title, message)
	}
}
