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

// Package coordinator turns a job kind's progress notifications into a
// queryable run state.
package coordinator

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/walteh/copify/pkg/boundary"
	"github.com/walteh/copify/pkg/job"
	"github.com/walteh/copify/pkg/progress"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

var (
	ErrAlreadyActivated = errors.Base("coordinator is already subscribed")
)

// 👀 Observer is called with a snapshot after every state change
type Observer func(RunState)

// Option configures a Coordinator
type Option func(*options)

type options struct {
	observers []Observer
	logger    zerolog.Logger
}

// WithObserver registers an observer. Observers run outside the state lock,
// in mutation order. They may read the coordinator but must not mutate it.
func WithObserver(o Observer) Option {
	return func(opts *options) {
		opts.observers = append(opts.observers, o)
	}
}

// WithLogger sets the logger used for notifications that carry no context.
func WithLogger(l zerolog.Logger) Option {
	return func(opts *options) {
		opts.logger = l
	}
}

// 🎛️ Coordinator owns the run state of exactly one job kind. C is the
// kind's settings type and is forwarded to the boundary untouched.
type Coordinator[C any] struct {
	kind     job.Kind
	boundary boundary.Boundary
	opts     options

	mu         sync.Mutex
	state      RunState
	candidates Candidates
	generation uint64
	listing    uint64
	subscribed uint64
	subs       uint64

	// held from mutation to the end of observer delivery; always taken
	// before mu
	notifyMu sync.Mutex

	group errgroup.Group
}

// 🏭 New creates an idle coordinator for kind
func New[C any](kind job.Kind, b boundary.Boundary, opts ...Option) *Coordinator[C] {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Coordinator[C]{
		kind:     kind,
		boundary: b,
		opts:     o,
	}
}

// Kind returns the job kind this coordinator serves.
func (c *Coordinator[C]) Kind() job.Kind {
	return c.kind
}

// 🚀 Start clears the previous run, marks a new one active and asks the
// boundary to run it. It returns without waiting for the boundary; a failing
// invocation is recorded as the run's configuration error.
func (c *Coordinator[C]) Start(ctx context.Context, cfg C) {
	logger := zerolog.Ctx(ctx).With().Str("command", c.kind.Command).Logger()

	c.lock()
	c.generation++
	runID := fmt.Sprintf("%s-%d", c.kind.Command, c.generation)
	c.state = RunState{
		Active:  true,
		Started: true,
		RunID:   runID,
	}
	c.commit()

	logger.Info().Str("run_id", runID).Msg("starting run")

	invocation := job.Invocation[C]{RunID: runID, Settings: cfg}

	c.group.Go(func() error {
		err := c.boundary.Invoke(ctx, c.kind.Command, invocation)
		if err == nil {
			logger.Debug().Str("run_id", runID).Msg("boundary accepted run")
			return nil
		}

		logger.Error().Err(err).Str("run_id", runID).Msg("starting run failed")

		c.lock()
		if c.state.RunID != runID {
			c.unlock()
			logger.Debug().Str("run_id", runID).Msg("dropping failure of superseded run")
			return nil
		}
		c.state.ConfigurationError = err.Error()
		c.commit()
		return nil
	})
}

// 📨 Ingest records one notification. Notifications are stored as delivered;
// only those tagged with a run other than the current one are dropped.
func (c *Coordinator[C]) Ingest(n progress.Notification) {
	c.lock()
	if n.RunID != "" && n.RunID != c.state.RunID {
		current := c.state.RunID
		c.unlock()
		c.opts.logger.Debug().
			Str("command", c.kind.Command).
			Str("run_id", n.RunID).
			Str("current_run_id", current).
			Msg("dropping notification from superseded run")
		return
	}

	c.state.History = append(c.state.History, n)
	cur := n
	c.state.Current = &cur
	if n.Done() {
		c.state.Active = false
	}
	c.commit()
}

// 🔄 Restart returns the coordinator to its initial empty state. The
// boundary is not told to stop.
func (c *Coordinator[C]) Restart() {
	c.lock()
	c.state = RunState{}
	c.candidates = Candidates{}
	c.listing++
	c.commit()
}

// IsRunning reports whether a started run has not yet completed.
func (c *Coordinator[C]) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Running()
}

// IsActive reports the run's active flag.
func (c *Coordinator[C]) IsActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Active
}

// State returns a copy of the current run state.
func (c *Coordinator[C]) State() RunState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// 📂 ListCandidateItems asks the boundary for the items under directory. The
// outcome is kept in Candidates and never touches the run state.
func (c *Coordinator[C]) ListCandidateItems(ctx context.Context, directory string) ([]string, error) {
	c.mu.Lock()
	c.listing++
	ticket := c.listing
	c.candidates = Candidates{Directory: directory, Loading: true}
	c.mu.Unlock()

	items, err := c.boundary.ListItems(ctx, directory)
	if err != nil {
		err = errors.Errorf("listing items in %s: %w", directory, err)
		zerolog.Ctx(ctx).Debug().Err(err).Msg("listing candidate items failed")
	}

	c.mu.Lock()
	if ticket == c.listing {
		c.candidates = Candidates{Directory: directory, Items: items, Err: err}
	}
	c.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return items, nil
}

// Candidates returns the result of the latest listing.
func (c *Coordinator[C]) Candidates() Candidates {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.candidates.clone()
}

// 🔌 Activate subscribes the coordinator to its kind's event channel. The
// subscription ends when release is called or ctx is done, whichever comes
// first; release is safe to call more than once.
func (c *Coordinator[C]) Activate(ctx context.Context) (func(), error) {
	c.mu.Lock()
	if c.subscribed != 0 {
		c.mu.Unlock()
		return nil, ErrAlreadyActivated
	}
	c.subs++
	id := c.subs
	c.subscribed = id
	c.mu.Unlock()

	// the subscription is reserved; dial without holding the state lock
	unsubscribe, err := c.boundary.Subscribe(c.kind.Event, c.Ingest)
	if err != nil {
		c.mu.Lock()
		if c.subscribed == id {
			c.subscribed = 0
		}
		c.mu.Unlock()
		return nil, errors.Errorf("subscribing to %s: %w", c.kind.Event, err)
	}

	zerolog.Ctx(ctx).Debug().Str("event", c.kind.Event).Msg("subscribed")

	done := make(chan struct{})
	var once sync.Once
	release := func() {
		once.Do(func() {
			close(done)
			unsubscribe()
			c.mu.Lock()
			if c.subscribed == id {
				c.subscribed = 0
			}
			c.mu.Unlock()
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			release()
		case <-done:
		}
	}()

	return release, nil
}

// Wait blocks until every boundary invocation issued by Start has returned.
func (c *Coordinator[C]) Wait() {
	_ = c.group.Wait()
}

func (c *Coordinator[C]) lock() {
	c.notifyMu.Lock()
	c.mu.Lock()
}

func (c *Coordinator[C]) unlock() {
	c.mu.Unlock()
	c.notifyMu.Unlock()
}

// commit publishes the current state to observers. It must be called with
// both locks held (see lock) and releases them. Observers run with only
// notifyMu held, so they can read the coordinator.
func (c *Coordinator[C]) commit() {
	snapshot := c.state.clone()
	c.mu.Unlock()
	defer c.notifyMu.Unlock()

	for _, o := range c.opts.observers {
		o(snapshot)
	}
}
