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

package boundary

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"github.com/walteh/copify/pkg/progress"
	"gitlab.com/tozd/go/errors"
)

// 🏃 CommandFunc runs a command. The payload is the JSON encoding of whatever
// the caller passed to Invoke.
type CommandFunc func(ctx context.Context, payload json.RawMessage) error

// 📂 ListFunc backs ItemLister
type ListFunc func(ctx context.Context, directory string) ([]string, error)

// 🏠 Local is an in-process execution boundary: a command registry plus a
// named event bus. Commands run on the invoking goroutine.
type Local struct {
	bus *Bus

	mu       sync.RWMutex
	commands map[string]CommandFunc
	lister   ListFunc
}

var (
	_ Boundary = (*Local)(nil)
	_ Emitter  = (*Local)(nil)
)

// 🏭 NewLocal creates an empty in-process boundary
func NewLocal() *Local {
	return &Local{
		bus:      NewBus(),
		commands: make(map[string]CommandFunc),
	}
}

// Handle registers fn under command, replacing any previous handler.
func (l *Local) Handle(command string, fn CommandFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.commands[command] = fn
}

// HandleList installs the item lister.
func (l *Local) HandleList(fn ListFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lister = fn
}

// Commands returns the registered command names in sorted order.
func (l *Local) Commands() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	names := make([]string, 0, len(l.commands))
	for name := range l.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke encodes payload as JSON and runs the command registered under
// command.
func (l *Local) Invoke(ctx context.Context, command string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return errors.Errorf("encoding payload for %s: %w", command, err)
	}
	return l.InvokeRaw(ctx, command, raw)
}

// InvokeRaw runs command with an already encoded payload. A panicking
// handler is reported as an error.
func (l *Local) InvokeRaw(ctx context.Context, command string, payload json.RawMessage) (err error) {
	l.mu.RLock()
	fn, ok := l.commands[command]
	l.mu.RUnlock()

	if !ok {
		return errors.Errorf("%w: %s", ErrUnknownCommand, command)
	}

	logger := zerolog.Ctx(ctx).With().Str("command", command).Logger()
	logger.Debug().Msg("invoking command")

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("command panicked")
			err = errors.Errorf("command %s panicked: %s", command, fmt.Sprint(r))
		}
	}()

	if err := fn(ctx, payload); err != nil {
		logger.Debug().Err(err).Msg("command failed")
		return err
	}

	logger.Debug().Msg("command finished")
	return nil
}

// ListItems delegates to the installed ListFunc.
func (l *Local) ListItems(ctx context.Context, directory string) ([]string, error) {
	l.mu.RLock()
	fn := l.lister
	l.mu.RUnlock()

	if fn == nil {
		return nil, ErrNoLister
	}
	return fn(ctx, directory)
}

// Subscribe registers h on the event bus.
func (l *Local) Subscribe(event string, h Handler) (func(), error) {
	return l.bus.Subscribe(event, h)
}

// Emit publishes n on event.
func (l *Local) Emit(event string, n progress.Notification) {
	l.bus.Emit(event, n)
}

// Bus exposes the underlying event bus.
func (l *Local) Bus() *Bus {
	return l.bus
}

// Close shuts the event bus down.
func (l *Local) Close() error {
	return l.bus.Close()
}
