package transport_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/copify/pkg/boundary"
	"github.com/walteh/copify/pkg/coordinator"
	"github.com/walteh/copify/pkg/job"
	"github.com/walteh/copify/pkg/progress"
	"github.com/walteh/copify/pkg/transport"
	"gitlab.com/tozd/go/errors"
)

func setup(t *testing.T) (*boundary.Local, *transport.Client) {
	t.Helper()

	logger := zerolog.New(zerolog.NewTestWriter(t))
	local := boundary.NewLocal()
	t.Cleanup(func() { local.Close() })

	srv := httptest.NewServer(transport.NewServer(local, logger).Router())
	t.Cleanup(srv.Close)

	client, err := transport.NewClient(srv.URL)
	require.NoError(t, err)
	return local, client
}

func TestNewClientRejectsBadURL(t *testing.T) {
	_, err := transport.NewClient("ftp://example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported server url scheme")
}

func TestInvoke(t *testing.T) {
	local, client := setup(t)

	var got job.Invocation[job.CopifySettings]
	local.Handle("copify", func(ctx context.Context, payload json.RawMessage) error {
		return json.Unmarshal(payload, &got)
	})
	local.Handle("broken", func(ctx context.Context, payload json.RawMessage) error {
		return errors.New("permission denied")
	})

	ctx := context.Background()

	err := client.Invoke(ctx, "copify", job.Invocation[job.CopifySettings]{
		RunID:    "copify-1",
		Settings: job.CopifySettings{Folder: "/proj", ExcludeFiles: []string{"old"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "copify-1", got.RunID)
	assert.Equal(t, "/proj", got.Settings.Folder)
	assert.Equal(t, []string{"old"}, got.Settings.ExcludeFiles)

	err = client.Invoke(ctx, "broken", struct{}{})
	require.Error(t, err)
	assert.Equal(t, "permission denied", err.Error())

	err = client.Invoke(ctx, "nope", struct{}{})
	assert.True(t, errors.Is(err, boundary.ErrUnknownCommand))
}

func TestListItems(t *testing.T) {
	local, client := setup(t)
	ctx := context.Background()

	_, err := client.ListItems(ctx, "/proj")
	assert.True(t, errors.Is(err, boundary.ErrNoLister))

	local.HandleList(func(ctx context.Context, directory string) ([]string, error) {
		if directory == "/missing" {
			return nil, errors.New("No Ableton Live project files found")
		}
		return []string{directory + "/a.als"}, nil
	})

	items, err := client.ListItems(ctx, "/proj dir")
	require.NoError(t, err)
	assert.Equal(t, []string{"/proj dir/a.als"}, items)

	_, err = client.ListItems(ctx, "/missing")
	require.Error(t, err)
	assert.Equal(t, "No Ableton Live project files found", err.Error())
}

func TestSubscribe(t *testing.T) {
	local, client := setup(t)

	var mu sync.Mutex
	var seen []progress.Notification
	unsubscribe, err := client.Subscribe(job.Copify.Event, func(n progress.Notification) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, n)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, local.Bus().Subscribers(job.Copify.Event), "subscribed before the handshake completes")

	const total = 20
	for i := 0; i < total; i++ {
		local.Emit(job.Copify.Event, progress.Succeeded("item.als", progress.Percent(i, total)).WithRunID("copify-1"))
	}
	local.Emit(job.Mover.Event, progress.Succeeded("other.als", 100))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == total
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	for i, n := range seen {
		assert.Equal(t, progress.Percent(i, total), n.Percent)
		assert.Equal(t, "copify-1", n.RunID)
	}
	mu.Unlock()

	unsubscribe()
	unsubscribe()
	assert.Eventually(t, func() bool {
		return local.Bus().Subscribers(job.Copify.Event) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCoordinatorOverTransport(t *testing.T) {
	local, client := setup(t)

	local.Handle(job.Copify.Command, func(ctx context.Context, payload json.RawMessage) error {
		var inv job.Invocation[job.CopifySettings]
		if err := json.Unmarshal(payload, &inv); err != nil {
			return err
		}
		if inv.Settings.Folder == "/locked" {
			return errors.New("permission denied")
		}
		local.Emit(job.Copify.Event, progress.Succeeded("/proj/a/a.als", 50).WithRunID(inv.RunID))
		local.Emit(job.Copify.Event, progress.Failed("/proj/b/b.als", 100, "disk full").WithRunID(inv.RunID))
		return nil
	})

	c := coordinator.New[job.CopifySettings](job.Copify, client)
	ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())

	err := coordinator.Session(ctx, c, func(ctx context.Context) error {
		c.Start(ctx, job.CopifySettings{Folder: "/proj"})
		c.Wait()
		require.Eventually(t, func() bool { return !c.IsRunning() }, 2*time.Second, 10*time.Millisecond)

		state := c.State()
		require.Len(t, state.History, 2)
		assert.Equal(t, "disk full", state.History[1].ErrorMessage)
		assert.Empty(t, state.ConfigurationError)

		c.Restart()
		c.Start(ctx, job.CopifySettings{Folder: "/locked"})
		c.Wait()
		assert.Equal(t, "permission denied", c.State().ConfigurationError)
		assert.Empty(t, c.State().History)
		return nil
	})
	require.NoError(t, err)
}

func TestSubscribeReportsLostStream(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		// drop the stream without a close frame
		_ = conn.UnderlyingConn().Close()
	}))
	t.Cleanup(srv.Close)

	lost := make(chan error, 1)
	client, err := transport.NewClient(srv.URL,
		transport.WithLogger(zerolog.New(zerolog.NewTestWriter(t))),
		transport.WithDisconnectHandler(func(event string, err error) {
			assert.Equal(t, job.Copify.Event, event)
			lost <- err
		}),
	)
	require.NoError(t, err)

	unsubscribe, err := client.Subscribe(job.Copify.Event, func(progress.Notification) {
		t.Error("no notification was sent")
	})
	require.NoError(t, err)
	defer unsubscribe()

	select {
	case err := <-lost:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading copify-progress events")
	case <-time.After(2 * time.Second):
		t.Fatal("lost stream was not reported")
	}
}

func TestUnsubscribeIsNotReportedAsLost(t *testing.T) {
	local := boundary.NewLocal()
	t.Cleanup(func() { local.Close() })

	srv := httptest.NewServer(transport.NewServer(local, zerolog.New(zerolog.NewTestWriter(t))).Router())
	t.Cleanup(srv.Close)

	var mu sync.Mutex
	lost := 0
	client, err := transport.NewClient(srv.URL, transport.WithDisconnectHandler(func(string, error) {
		mu.Lock()
		defer mu.Unlock()
		lost++
	}))
	require.NoError(t, err)

	unsubscribe, err := client.Subscribe(job.Copify.Event, func(progress.Notification) {})
	require.NoError(t, err)
	unsubscribe()

	require.Eventually(t, func() bool {
		return local.Bus().Subscribers(job.Copify.Event) == 0
	}, 2*time.Second, 10*time.Millisecond)

	// give the reader time to see the closed socket
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, lost)
}
