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

	"github.com/walteh/copify/pkg/progress"
	"gitlab.com/tozd/go/errors"
)

var (
	ErrUnknownCommand = errors.Base("unknown command")
	ErrNoLister       = errors.Base("item listing is not available")
	ErrClosed         = errors.Base("boundary is closed")
)

// 📡 Handler receives notifications published on an event channel
type Handler func(n progress.Notification)

// 🚀 Invoker starts a named job on the execution boundary. The call returns
// once the boundary has finished with the command.
type Invoker interface {
	Invoke(ctx context.Context, command string, payload any) error
}

// 📂 ItemLister enumerates candidate items under a directory
type ItemLister interface {
	ListItems(ctx context.Context, directory string) ([]string, error)
}

// 📻 EventChannel delivers notifications published under an event name.
// Each subscription receives events in publish order, one at a time.
type EventChannel interface {
	Subscribe(event string, h Handler) (unsubscribe func(), err error)
}

// 🔌 Boundary is everything a coordinator needs from the execution side
type Boundary interface {
	Invoker
	ItemLister
	EventChannel
}

// 📣 Emitter publishes notifications on a named event channel
type Emitter interface {
	Emit(event string, n progress.Notification)
}
