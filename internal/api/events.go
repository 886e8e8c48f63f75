// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ManuGH/picam/internal/device"
	"github.com/ManuGH/picam/internal/log"
)

const (
	wsWriteWait    = 10 * time.Second
	wsPingInterval = 30 * time.Second
	wsPongWait     = 2 * wsPingInterval
	wsQueueSize    = 32
)

// StatusEvent is one websocket message on /status/events.
type StatusEvent struct {
	Status device.Status `json:"status"`
	At     time.Time     `json:"at"`
}

func (s *Server) handleStatusEvents(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "api")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error.
		logger.Debug().Err(err).Str(log.FieldEvent, "status_events.upgrade_failed").Msg("websocket upgrade failed")
		return
	}

	queue := make(chan StatusEvent, wsQueueSize)
	dispose, err := s.camera.OnStatusChange(func(st device.Status) {
		select {
		case queue <- StatusEvent{Status: st, At: s.now().UTC()}:
		default:
			logger.Warn().Str(log.FieldEvent, "status_events.dropped").Str(log.FieldNewState, string(st)).Msg("status event dropped for slow client")
		}
	})
	if err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, err.Error()),
			time.Now().Add(wsWriteWait))
		_ = conn.Close()
		return
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	defer func() {
		dispose()
		_ = conn.Close()
		<-closed
	}()

	write := func(ev StatusEvent) error {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteJSON(ev)
	}
	if err := write(StatusEvent{Status: s.camera.Status(), At: s.now().UTC()}); err != nil {
		return
	}

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()
	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case ev := <-queue:
			if err := write(ev); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
