package boundary_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/copify/pkg/boundary"
	"github.com/walteh/copify/pkg/progress"
	"gitlab.com/tozd/go/errors"
)

type recorder struct {
	mu   sync.Mutex
	seen []progress.Notification
}

func (r *recorder) handle(n progress.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, n)
}

func (r *recorder) snapshot() []progress.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]progress.Notification(nil), r.seen...)
}

func TestLocalInvoke(t *testing.T) {
	ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
	local := boundary.NewLocal()
	defer local.Close()

	var got struct {
		Folder string `json:"folder"`
	}
	local.Handle("copify", func(ctx context.Context, payload json.RawMessage) error {
		return json.Unmarshal(payload, &got)
	})

	err := local.Invoke(ctx, "copify", map[string]string{"folder": "/proj"})
	require.NoError(t, err)
	assert.Equal(t, "/proj", got.Folder)
	assert.Equal(t, []string{"copify"}, local.Commands())
}

func TestLocalInvokeErrors(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(l *boundary.Local)
		command     string
		expectedErr string
		is          error
	}{
		{
			name:        "unknown_command",
			command:     "nope",
			expectedErr: "unknown command: nope",
			is:          boundary.ErrUnknownCommand,
		},
		{
			name: "handler_error",
			setup: func(l *boundary.Local) {
				l.Handle("copify", func(ctx context.Context, payload json.RawMessage) error {
					return errors.New("permission denied")
				})
			},
			command:     "copify",
			expectedErr: "permission denied",
		},
		{
			name: "handler_panic",
			setup: func(l *boundary.Local) {
				l.Handle("copify", func(ctx context.Context, payload json.RawMessage) error {
					panic("boom")
				})
			},
			command:     "copify",
			expectedErr: "command copify panicked: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
			local := boundary.NewLocal()
			defer local.Close()
			if tt.setup != nil {
				tt.setup(local)
			}

			err := local.Invoke(ctx, tt.command, struct{}{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedErr)
			if tt.is != nil {
				assert.True(t, errors.Is(err, tt.is))
			}
		})
	}
}

func TestLocalListItems(t *testing.T) {
	local := boundary.NewLocal()
	defer local.Close()

	_, err := local.ListItems(context.Background(), "/proj")
	assert.True(t, errors.Is(err, boundary.ErrNoLister))

	local.HandleList(func(ctx context.Context, directory string) ([]string, error) {
		return []string{directory + "/a.als"}, nil
	})
	items, err := local.ListItems(context.Background(), "/proj")
	require.NoError(t, err)
	assert.Equal(t, []string{"/proj/a.als"}, items)
}

func TestBusDeliversInOrder(t *testing.T) {
	bus := boundary.NewBus()
	defer bus.Close()

	rec := &recorder{}
	unsubscribe, err := bus.Subscribe("copify-progress", rec.handle)
	require.NoError(t, err)
	defer unsubscribe()

	other := &recorder{}
	unsubscribeOther, err := bus.Subscribe("mover-progress", other.handle)
	require.NoError(t, err)
	defer unsubscribeOther()

	const total = 200
	for i := 0; i < total; i++ {
		bus.Emit("copify-progress", progress.Succeeded("item", progress.Percent(i, total)))
	}

	require.Eventually(t, func() bool { return len(rec.snapshot()) == total }, time.Second, 5*time.Millisecond)

	seen := rec.snapshot()
	for i, n := range seen {
		assert.Equal(t, progress.Percent(i, total), n.Percent, "notification %d out of order", i)
	}
	assert.Empty(t, other.snapshot(), "events are scoped by name")
}

func TestBusUnsubscribe(t *testing.T) {
	bus := boundary.NewBus()
	defer bus.Close()

	rec := &recorder{}
	unsubscribe, err := bus.Subscribe("copify-progress", rec.handle)
	require.NoError(t, err)
	assert.Equal(t, 1, bus.Subscribers("copify-progress"))

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, bus.Subscribers("copify-progress"))

	bus.Emit("copify-progress", progress.Succeeded("a.als", 100))
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
}

func TestBusClose(t *testing.T) {
	bus := boundary.NewBus()
	require.NoError(t, bus.Close())

	_, err := bus.Subscribe("copify-progress", func(progress.Notification) {})
	assert.True(t, errors.Is(err, boundary.ErrClosed))
}
