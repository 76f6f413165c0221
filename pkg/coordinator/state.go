package coordinator

import (
	"github.com/walteh/copify/pkg/progress"
)

// 📋 RunState is a snapshot of one job kind's run
type RunState struct {
	// Active is true from Start until completion or Restart
	Active bool

	// Current is the most recent notification, nil before the first one
	Current *progress.Notification

	// History holds every accepted notification in arrival order
	History []progress.Notification

	// ConfigurationError is the failure text of the initiating boundary call
	ConfigurationError string

	// RunID identifies the run started last; empty when idle
	RunID string

	// Started is set by Start and cleared by Restart
	Started bool
}

// Running reports whether a started run has not yet reported completion.
func (s RunState) Running() bool {
	if !s.Started {
		return false
	}
	return s.Current == nil || !s.Current.Done()
}

// Failed reports whether the run could not even be started.
func (s RunState) Failed() bool {
	return s.ConfigurationError != ""
}

// Summary aggregates the history.
func (s RunState) Summary() progress.Summary {
	return progress.Summarize(s.History)
}

func (s RunState) clone() RunState {
	out := s
	if s.Current != nil {
		cur := *s.Current
		out.Current = &cur
	}
	if s.History != nil {
		out.History = make([]progress.Notification, len(s.History))
		copy(out.History, s.History)
	}
	return out
}

// 📂 Candidates holds the result of the last item listing
type Candidates struct {
	Directory string
	Items     []string
	Loading   bool

	// Err is the last listing failure. It is cleared by the next listing.
	Err error
}

func (c Candidates) clone() Candidates {
	out := c
	if c.Items != nil {
		out.Items = append([]string(nil), c.Items...)
	}
	return out
}
