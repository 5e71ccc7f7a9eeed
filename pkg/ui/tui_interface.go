package ui

import (
	"xfollowers/pkg/collector"
	"xfollowers/pkg/metadata"
)

// Display is a progress display the fetch command drives: the line-based
// ProgressDisplay or the full-screen tui.TUI.
type Display interface {
	collector.Progress
	Complete(summary *metadata.RunSummary)
	Fail(err error)
}
