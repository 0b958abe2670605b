// Package realtime serves the chat assistant over a WebSocket.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	chatService "github.com/zhouzirui/pill-reminder/backend/internal/service/chat"
	"github.com/zhouzirui/pill-reminder/backend/pkg/utils"
)

const (
	defaultReadTimeout  = 60 * time.Second
	defaultPingInterval = 54 * time.Second
	writeTimeout        = 10 * time.Second
	inboxSize           = 8
)

// ChatService is the part of the chat service the socket needs.
type ChatService interface {
	Chat(ctx context.Context, req chatService.Request) (chatService.Reply, error)
}

// WebSocketHandler answers chat messages sent over a WebSocket connection.
type WebSocketHandler struct {
	chatSvc      ChatService
	upgrader     websocket.Upgrader
	readTimeout  time.Duration
	pingInterval time.Duration
}

// NewWebSocketHandler creates the handler. allowOrigin decides which
// browser origins may open a socket; nil accepts all of them.
func NewWebSocketHandler(chatSvc ChatService, allowOrigin func(origin string) bool) *WebSocketHandler {
	return &WebSocketHandler{
		chatSvc: chatSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if allowOrigin == nil {
					return true
				}
				origin := r.Header.Get("Origin")
				return origin == "" || allowOrigin(origin)
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		readTimeout:  defaultReadTimeout,
		pingInterval: defaultPingInterval,
	}
}

// RegisterRoutes mounts the socket endpoint.
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ai/chat/ws", h.handleWebSocket)
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// connection serializes writes from the reader and the worker.
// sessionID belongs to the worker goroutine.
type connection struct {
	ws        *websocket.Conn
	writeMu   sync.Mutex
	sessionID string
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer ws.Close()

	conn := &connection{ws: ws, sessionID: r.URL.Query().Get("sessionId")}
	log.Printf("[websocket] new connection, session=%q", conn.sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	ws.SetReadDeadline(time.Now().Add(h.readTimeout))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(h.readTimeout))
		return nil
	})

	go h.pingLoop(ctx, ws)

	conn.send(outgoingMessage{Type: "connected", SessionID: conn.sessionID})

	// Chat calls can outlast the read deadline; the reader keeps handling
	// pongs while the worker waits on the model.
	inbox := make(chan inboundMessage, inboxSize)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range inbox {
			h.handleMessage(ctx, conn, &msg)
		}
	}()
	defer func() {
		close(inbox)
		<-done
	}()

	for {
		var msg inboundMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[websocket] read error: %v", err)
			}
			return
		}

		ws.SetReadDeadline(time.Now().Add(h.readTimeout))
		select {
		case inbox <- msg:
		default:
			conn.send(outgoingMessage{
				Type: "error",
				Data: map[string]string{"message": "too many pending messages, try again later"},
			})
		}
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, conn *connection, msg *inboundMessage) {
	switch msg.Type {
	case "chat":
		h.handleChatMessage(ctx, conn, msg.Data)
	case "ping":
		conn.send(outgoingMessage{Type: "pong", SessionID: conn.sessionID})
	default:
		conn.sendError("unsupported message type: " + msg.Type)
	}
}

func (h *WebSocketHandler) handleChatMessage(ctx context.Context, conn *connection, raw json.RawMessage) {
	var req chatService.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		conn.sendError("invalid chat payload")
		return
	}
	if req.SessionID == "" {
		req.SessionID = conn.sessionID
	}

	reply, err := h.chatSvc.Chat(ctx, req)
	if err != nil {
		conn.sendError(errorMessage(err))
		return
	}

	conn.sessionID = reply.SessionID
	conn.send(outgoingMessage{Type: "reply", SessionID: reply.SessionID, Data: reply})
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, chatService.ErrMessageRequired),
		errors.Is(err, chatService.ErrInvalidRequest),
		errors.Is(err, chatService.ErrAIUnavailable):
		return err.Error()
	default:
		return utils.ServiceErrorMessage(err)
	}
}

func (c *connection) send(msg outgoingMessage) {
	msg.Timestamp = time.Now().Unix()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.ws.WriteJSON(msg); err != nil {
		log.Printf("[websocket] write %s failed: %v", msg.Type, err)
	}
}

func (c *connection) sendError(message string) {
	c.send(outgoingMessage{
		Type:      "error",
		SessionID: c.sessionID,
		Data:      map[string]string{"message": message},
	})
}

// pingLoop keeps idle connections alive. WriteControl may run concurrently
// with the other writers.
func (h *WebSocketHandler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
