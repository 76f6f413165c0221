package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/walteh/copify/pkg/boundary"
	"github.com/walteh/copify/pkg/progress"
	"gitlab.com/tozd/go/errors"
)

var _ boundary.Boundary = (*Client)(nil)

// 📡 Client reaches a Server's boundary over HTTP and WebSocket
type Client struct {
	base   *url.URL
	http   *http.Client
	dialer *websocket.Dialer
	logger zerolog.Logger
	onLost func(event string, err error)
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the HTTP client used for invocations and listing.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithLogger sets the logger used for connection problems.
func WithLogger(l zerolog.Logger) ClientOption {
	return func(cl *Client) {
		cl.logger = l
	}
}

// WithDisconnectHandler sets f to be called when an event stream ends without
// being unsubscribed. No further notifications arrive for that event.
func WithDisconnectHandler(f func(event string, err error)) ClientOption {
	return func(cl *Client) {
		cl.onLost = f
	}
}

// NewClient creates a client for the server at baseURL (http or https).
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, errors.Errorf("parsing server url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, errors.Errorf("unsupported server url scheme %q", base.Scheme)
	}

	c := &Client{
		base:   base,
		http:   http.DefaultClient,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = c.base.Path + path
	u.RawQuery = query.Encode()
	return u.String()
}

// 🚀 Invoke posts payload to the server and waits for the command to finish.
// A failed command is reported with the server's error message unchanged.
func (c *Client) Invoke(ctx context.Context, command string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Errorf("encoding payload for %s: %w", command, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/invoke/"+url.PathEscape(command), nil), bytes.NewReader(body))
	if err != nil {
		return errors.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Errorf("invoking %s: %w", command, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	message := readError(resp)
	if resp.StatusCode == http.StatusNotFound {
		return errors.Errorf("%w: %s", boundary.ErrUnknownCommand, command)
	}
	return errors.New(message)
}

// 📂 ListItems asks the server for the items under directory.
func (c *Client) ListItems(ctx context.Context, directory string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/items", url.Values{"directory": {directory}}), nil)
	if err != nil {
		return nil, errors.Errorf("creating request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Errorf("listing items: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		message := readError(resp)
		if resp.StatusCode == http.StatusNotImplemented {
			return nil, errors.WithStack(boundary.ErrNoLister)
		}
		return nil, errors.New(message)
	}

	var items []string
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, errors.Errorf("decoding items: %w", err)
	}
	return items, nil
}

// 📻 Subscribe opens a websocket for event and calls h for each notification,
// in order, from a single goroutine. Unsubscribing closes the socket. If the
// socket fails first, the error is logged and passed to the disconnect
// handler.
func (c *Client) Subscribe(event string, h boundary.Handler) (func(), error) {
	u := *c.base
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = c.base.Path + "/events/" + url.PathEscape(event)

	conn, resp, err := c.dialer.Dial(u.String(), nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, errors.Errorf("subscribing to %s: %w", event, err)
	}

	var once sync.Once
	closed := make(chan struct{})

	go func() {
		for {
			var n progress.Notification
			if err := conn.ReadJSON(&n); err != nil {
				select {
				case <-closed:
					return
				default:
				}
				err = errors.Errorf("reading %s events: %w", event, err)
				c.logger.Error().Err(err).Str("event", event).Msg("event stream lost")
				if c.onLost != nil {
					c.onLost(event, err)
				}
				return
			}
			select {
			case <-closed:
				return
			default:
			}
			h(n)
		}
	}()

	return func() {
		once.Do(func() {
			close(closed)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			_ = conn.Close()
		})
	}, nil
}

func readError(resp *http.Response) string {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.Status
	}

	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	if len(body) > 0 {
		return strings.TrimSpace(string(body))
	}
	return resp.Status
}
