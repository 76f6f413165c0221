package status

import (
	"fmt"

	"github.com/walteh/copify/pkg/progress"
)

// Formatter defines how run state is turned into display text
type Formatter interface {
	// FormatHeader formats the run title line
	FormatHeader(title string, finished bool) string

	// FormatItem formats one log card entry
	FormatItem(n progress.Notification) string

	// FormatSummary formats the aggregate of a run
	FormatSummary(s progress.Summary) string

	// FormatError formats a configuration error
	FormatError(msg string) string
}

// DefaultFormatter provides a default implementation of Formatter
type DefaultFormatter struct{}

// NewDefaultFormatter creates a new DefaultFormatter
func NewDefaultFormatter() *DefaultFormatter {
	return &DefaultFormatter{}
}

// FormatHeader formats "<Job> in progress" or "<Job> finished"
func (f *DefaultFormatter) FormatHeader(title string, finished bool) string {
	if finished {
		return fmt.Sprintf("%s finished", title)
	}
	return fmt.Sprintf("%s in progress", title)
}

// FormatItem formats a notification as base name plus message
func (f *DefaultFormatter) FormatItem(n progress.Notification) string {
	if n.ErrorMessage == "" {
		return n.FileName()
	}
	return fmt.Sprintf("%s: %s", n.FileName(), n.ErrorMessage)
}

// FormatSummary formats the run totals with the percent reached
func (f *DefaultFormatter) FormatSummary(s progress.Summary) string {
	icon := "⏳"
	if s.Done {
		icon = "✅"
	}
	return fmt.Sprintf("%s %d%% (%d succeeded, %d skipped, %d failed)",
		icon, s.Percent, s.Succeeded, s.Skipped, s.Failed)
}

// FormatError formats a configuration error with emoji
func (f *DefaultFormatter) FormatError(msg string) string {
	if msg == "" {
		return ""
	}
	return fmt.Sprintf("❌ Configuration error: %s", msg)
}
