package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yourusername/bgturn/pkg/engine"
)

const wsRequestTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins - configure properly in production
	},
}

// WSMessage is a client request.
type WSMessage struct {
	Type    string          `json:"type"`              // roll, select, commit, snapshot, ping
	ID      string          `json:"id"`                // Request ID for correlating responses
	Payload json.RawMessage `json:"payload,omitempty"` // FieldRequest for select and commit
}

// WSResponse is a reply or a pushed event.
type WSResponse struct {
	Type    string `json:"type"`              // result, snapshot, pong, error, or an event type
	ID      string `json:"id,omitempty"`      // Request ID for replies
	Payload any    `json:"payload,omitempty"` // Response data
	Error   string `json:"error,omitempty"`   // Error message if any
}

// WSClient is one websocket connection bound to a session.
type WSClient struct {
	conn    *websocket.Conn
	session *Session
	log     *zap.Logger

	send    chan WSResponse
	events  <-chan Event
	stopped chan struct{} // Closed when writePump exits
}

// WebSocket handles GET /api/sessions/{id}/ws. Engine events are pushed to
// the client as they happen; requests are answered in order.
func (h *Handlers) WebSocket(w http.ResponseWriter, r *http.Request) {
	s, ok := h.hub.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found", CodeNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade", zap.Error(err))
		return
	}

	events, unsubscribe := s.Subscribe()
	defer unsubscribe()

	client := &WSClient{
		conn:    conn,
		session: s,
		log:     h.log.With(zap.String("session", s.ID)),
		send:    make(chan WSResponse, 64),
		events:  events,
		stopped: make(chan struct{}),
	}
	done := make(chan struct{})
	go client.writePump(done)
	client.readPump()
	close(done)
	<-client.stopped
}

func (c *WSClient) writePump(done <-chan struct{}) {
	defer func() {
		close(c.stopped)
		c.conn.Close()
	}()
	for {
		var msg WSResponse
		select {
		case <-done:
			return
		case msg = <-c.send:
		case ev, ok := <-c.events:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
				return
			}
			msg = WSResponse{Type: ev.Type, Payload: ev.Data}
		}
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func (c *WSClient) readPump() {
	defer c.conn.Close()
	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug("websocket read", zap.Error(err))
			}
			return
		}
		c.reply(c.handleMessage(msg))
	}
}

// reply queues a response unless the writer has gone.
func (c *WSClient) reply(resp WSResponse) {
	select {
	case c.send <- resp:
	case <-c.stopped:
	}
}

func (c *WSClient) handleMessage(msg WSMessage) WSResponse {
	ctx, cancel := context.WithTimeout(context.Background(), wsRequestTimeout)
	defer cancel()

	var (
		resp any
		err  error
	)
	switch msg.Type {
	case "ping":
		return WSResponse{Type: "pong", ID: msg.ID}
	case "snapshot":
		var snap SnapshotResponse
		snap, err = c.session.Snapshot(ctx)
		if err == nil {
			return WSResponse{Type: "snapshot", ID: msg.ID, Payload: snap}
		}
	case "roll":
		resp, err = c.session.Roll(ctx)
	case "select", "commit":
		var req FieldRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return WSResponse{Type: "error", ID: msg.ID, Error: "invalid payload"}
		}
		if req.Field < 0 || req.Field >= engine.NumFields {
			return WSResponse{Type: "error", ID: msg.ID, Error: "invalid field"}
		}
		if msg.Type == "select" {
			resp, err = c.session.Select(ctx, req.Field)
		} else {
			resp, err = c.session.Commit(ctx, req.Field)
		}
	default:
		return WSResponse{Type: "error", ID: msg.ID, Error: "unknown message type"}
	}

	if err != nil {
		return WSResponse{Type: "error", ID: msg.ID, Error: err.Error()}
	}
	return WSResponse{Type: "result", ID: msg.ID, Payload: resp}
}
