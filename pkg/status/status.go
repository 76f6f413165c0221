// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package status

import (
	"io"
	"sync"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/walteh/copify/pkg/coordinator"
	"github.com/walteh/copify/pkg/job"
	"github.com/walteh/copify/pkg/progress"
)

// Option configures a Renderer
type Option func(*Renderer)

// WithFormatter replaces the default formatter
func WithFormatter(f Formatter) Option {
	return func(r *Renderer) {
		r.formatter = f
	}
}

// WithProgressBar toggles the live progress bar. It is on by default.
func WithProgressBar(enabled bool) Option {
	return func(r *Renderer) {
		r.showBar = enabled
	}
}

// WithLogger sets the logger that mirrors rendered lines
func WithLogger(l zerolog.Logger) Option {
	return func(r *Renderer) {
		r.logger = l
	}
}

// 🖥️ Renderer draws one job kind's run state. Register Observe as a
// coordinator observer; it only draws what changed since the last snapshot.
type Renderer struct {
	kind      job.Kind
	out       io.Writer
	formatter Formatter
	showBar   bool
	logger    zerolog.Logger

	mu       sync.Mutex
	runID    string
	seen     int
	alerted  bool
	finished bool
	bar      *pterm.ProgressbarPrinter
}

// 🏭 New creates a renderer for kind writing to out
func New(kind job.Kind, out io.Writer, opts ...Option) *Renderer {
	r := &Renderer{
		kind:      kind,
		out:       out,
		formatter: NewDefaultFormatter(),
		showBar:   true,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Observer returns Observe as a coordinator observer
func (r *Renderer) Observer() coordinator.Observer {
	return r.Observe
}

// 👀 Observe draws the difference between s and what is on screen
func (r *Renderer) Observe(s coordinator.RunState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.RunID != r.runID {
		r.reset()
		r.runID = s.RunID
		if s.Started {
			r.begin()
		}
	}
	if !s.Started {
		return
	}

	// history only grows within a run
	if len(s.History) < r.seen {
		r.seen = 0
	}
	for _, n := range s.History[r.seen:] {
		r.item(n)
	}
	r.seen = len(s.History)

	if s.Failed() && !r.alerted {
		r.alerted = true
		r.stopBar()
		msg := r.formatter.FormatError(s.ConfigurationError)
		alertPrinter(r.out).Println(msg)
		r.logger.Error().Str("run_id", s.RunID).Str("error", s.ConfigurationError).Msg("run could not start")
	}

	if !s.Running() && !r.finished {
		r.finished = true
		r.stopBar()
		headerPrinter(r.out).Println(r.formatter.FormatHeader(r.kind.Title(), true))
		summaryPrinter(r.out).Println(r.formatter.FormatSummary(s.Summary()))
		r.logger.Info().Str("run_id", s.RunID).Msg("run finished")
	}
}

// begin draws the header of a new run
func (r *Renderer) begin() {
	headerPrinter(r.out).Println(r.formatter.FormatHeader(r.kind.Title(), false))
	r.logger.Info().Str("run_id", r.runID).Msg("run started")

	if !r.showBar {
		return
	}
	bar, err := pterm.DefaultProgressbar.
		WithTotal(100).
		WithTitle(r.kind.Title()).
		WithWriter(r.out).
		WithRemoveWhenDone(true).
		Start()
	if err != nil {
		r.logger.Debug().Err(err).Msg("progress bar unavailable")
		return
	}
	r.bar = bar
}

// item prints one log card entry and moves the bar
func (r *Renderer) item(n progress.Notification) {
	itemPrinter(r.out, n.Outcome()).Println(r.formatter.FormatItem(n))
	r.logger.Debug().
		Str("item", n.Identifier).
		Int("percent", n.Percent).
		Str("outcome", n.Outcome().String()).
		Msg("rendered item")

	if r.bar == nil {
		return
	}
	r.bar.UpdateTitle(n.FileName())
	if delta := n.Percent - r.bar.Current; delta > 0 {
		r.bar.Add(delta)
	}
}

func (r *Renderer) stopBar() {
	if r.bar == nil {
		return
	}
	if _, err := r.bar.Stop(); err != nil {
		r.logger.Debug().Err(err).Msg("stopping progress bar")
	}
	r.bar = nil
}

// reset forgets the drawn run; a bar left running is stopped
func (r *Renderer) reset() {
	r.stopBar()
	r.runID = ""
	r.seen = 0
	r.alerted = false
	r.finished = false
}
