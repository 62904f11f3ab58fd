package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/inference-sim/drawsim/sim"
)

const (
	streamBuffer       = 64
	streamWriteTimeout = 5 * time.Second
)

// handleWebSocket streams sim.Update messages as JSON text frames. The first
// message is the current state.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		s.log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream ended")

	updates, unsubscribe := s.engine.Subscribe(streamBuffer)
	defer unsubscribe()

	// Clients only listen; CloseRead cancels ctx when they go away.
	ctx := conn.CloseRead(r.Context())
	s.log.Debug("Client connected to update stream")

	if err := writeUpdate(ctx, conn, sim.Update{Kind: sim.UpdateState, Snapshot: s.engine.Snapshot()}); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case update, ok := <-updates:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			if err := writeUpdate(ctx, conn, update); err != nil {
				s.log.WithError(err).Debug("WebSocket write failed")
				return
			}
		}
	}
}

func writeUpdate(ctx context.Context, conn *websocket.Conn, update sim.Update) error {
	ctx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, update)
}

// handleEvents is the Server-Sent Events rendition of the update stream.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	updates, unsubscribe := s.engine.Subscribe(streamBuffer)
	defer unsubscribe()

	send := func(update sim.Update) error {
		data, err := json.Marshal(update)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", update.Kind, data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	if err := send(sim.Update{Kind: sim.UpdateState, Snapshot: s.engine.Snapshot()}); err != nil {
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if err := send(update); err != nil {
				s.log.WithError(err).Debug("SSE write failed")
				return
			}
		}
	}
}
