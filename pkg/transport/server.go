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

// Package transport exposes a boundary.Local over HTTP and WebSocket, and
// provides a Client that implements boundary.Boundary against it.
package transport

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/walteh/copify/pkg/boundary"
	"github.com/walteh/copify/pkg/progress"
	"gitlab.com/tozd/go/errors"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second

	// outbox bounds notifications waiting for a slow socket. The bus keeps
	// queueing behind it, so nothing is dropped.
	outbox = 64
)

// 🌐 Server serves a local boundary's commands, listing and event channels
type Server struct {
	local    *boundary.Local
	logger   zerolog.Logger
	upgrader websocket.Upgrader
}

// NewServer creates a server for local. Requests carry logger in their context.
func NewServer(local *boundary.Local, logger zerolog.Logger) *Server {
	return &Server{
		local:  local,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Router sets up the routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.withLogger)
	r.Use(middleware.Recoverer)

	r.Post("/invoke/{command}", s.handleInvoke)
	r.Get("/items", s.handleListItems)
	r.Get("/events/{event}", s.handleEvents)

	return r
}

// 🏃 ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("serving")

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Errorf("serving: %w", err)
	}
	return nil
}

func (s *Server) withLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := s.logger.With().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()
		next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context())))
	})
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	command := chi.URLParam(r, "command")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "reading request body: "+err.Error())
		return
	}
	if !json.Valid(body) {
		respondWithError(w, http.StatusBadRequest, "request body is not valid json")
		return
	}

	if err := s.local.InvokeRaw(r.Context(), command, body); err != nil {
		if errors.Is(err, boundary.ErrUnknownCommand) {
			respondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	directory := r.URL.Query().Get("directory")
	if directory == "" {
		respondWithError(w, http.StatusBadRequest, "directory is required")
		return
	}

	items, err := s.local.ListItems(r.Context(), directory)
	if err != nil {
		if errors.Is(err, boundary.ErrNoLister) {
			respondWithError(w, http.StatusNotImplemented, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if items == nil {
		items = []string{}
	}
	respondWithJSON(w, http.StatusOK, items)
}

// 📻 handleEvents streams one event channel over a websocket, one JSON text
// frame per notification. The subscription exists before the handshake
// completes, so a client that has connected misses nothing.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	event := chi.URLParam(r, "event")
	logger := zerolog.Ctx(r.Context()).With().Str("event", event).Logger()

	done := make(chan struct{})
	pending := make(chan progress.Notification, outbox)

	unsubscribe, err := s.local.Subscribe(event, func(n progress.Notification) {
		select {
		case pending <- n:
		case <-done:
		}
	})
	if err != nil {
		respondWithError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	defer unsubscribe()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		close(done)
		logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	logger.Debug().Msg("event subscriber connected")

	// the reader only notices the peer going away
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-done:
			logger.Debug().Msg("event subscriber disconnected")
			return
		case <-r.Context().Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case n := <-pending:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(n); err != nil {
				logger.Debug().Err(err).Msg("writing notification failed")
				return
			}
		}
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to marshal response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, errorResponse{Error: message})
}
