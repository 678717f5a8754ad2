// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/flashcard-frenzy/internal/game"
	"github.com/jason-s-yu/flashcard-frenzy/internal/middleware"
	"github.com/sirupsen/logrus"
)

const (
	gameSubprotocol = "game"
	outBufferSize   = 32
	readLimitBytes  = 8 << 10
	writeTimeout    = 5 * time.Second
	pingInterval    = 30 * time.Second

	eventPong game.GameEventType = "pong"
)

// GameMessage is the inbound frame sent by clients.
type GameMessage struct {
	Type     string `json:"type"`
	RoomID   string `json:"roomId,omitempty"`
	Username string `json:"username,omitempty"`
	Answer   string `json:"answer,omitempty"`
}

// Connection is one accepted WebSocket. Events are queued on OutChan and written by its write pump.
type Connection struct {
	ID      string
	OutChan chan game.GameEvent
	Cancel  context.CancelFunc
}

// Write queues ev without blocking. A full queue drops the event.
func (conn *Connection) Write(ev game.GameEvent) bool {
	select {
	case conn.OutChan <- ev:
		return true
	default:
		return false
	}
}

// Gateway maps live connections to their outbound queues and routes client events
// to the coordinator. It implements game.Notifier.
type Gateway struct {
	Coord  *game.Coordinator
	Logger *logrus.Logger

	mu    sync.RWMutex
	conns map[string]*Connection
}

// NewGateway builds a gateway and installs it as coord's notifier.
func NewGateway(coord *game.Coordinator, logger *logrus.Logger) *Gateway {
	gw := &Gateway{
		Coord:  coord,
		Logger: logger,
		conns:  make(map[string]*Connection),
	}
	coord.Notifier = gw
	return gw
}

// Notify queues ev for connID. Unknown connections are ignored.
func (gw *Gateway) Notify(connID string, ev game.GameEvent) {
	gw.mu.RLock()
	conn, ok := gw.conns[connID]
	gw.mu.RUnlock()
	if !ok {
		return
	}
	if !conn.Write(ev) {
		gw.Logger.Warnf("Outbound queue for connection %s is full. Dropped event '%s'.", connID, ev.Type)
	}
}

func (gw *Gateway) register(conn *Connection) {
	gw.mu.Lock()
	defer gw.mu.Unlock()
	gw.conns[conn.ID] = conn
}

func (gw *Gateway) unregister(connID string) {
	gw.mu.Lock()
	defer gw.mu.Unlock()
	delete(gw.conns, connID)
}

// Len returns the number of live connections.
func (gw *Gateway) Len() int {
	gw.mu.RLock()
	defer gw.mu.RUnlock()
	return len(gw.conns)
}

// CloseAll cancels every live connection so its handler unwinds.
func (gw *Gateway) CloseAll() {
	gw.mu.RLock()
	defer gw.mu.RUnlock()
	for _, conn := range gw.conns {
		conn.Cancel()
	}
}

// GameWSHandler upgrades the request to a WebSocket, assigns it a fresh connection id,
// and serves it until the client goes away. The disconnect is handed to the coordinator.
func GameWSHandler(logger *logrus.Logger, gw *Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{gameSubprotocol},
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			logger.Warnf("WebSocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		// Clients may omit the subprotocol; one that offers others must include ours.
		if r.Header.Get("Sec-WebSocket-Protocol") != "" && c.Subprotocol() != gameSubprotocol {
			c.Close(BadSubprotocolError, "client must speak the game subprotocol")
			return
		}
		c.SetReadLimit(readLimitBytes)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		conn := &Connection{
			ID:      uuid.NewString(),
			OutChan: make(chan game.GameEvent, outBufferSize),
			Cancel:  cancel,
		}
		gw.register(conn)
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)

		go writePump(ctx, c, conn, logger)
		err = readPump(ctx, c, gw, conn)

		gw.Coord.RemovePlayer(conn.ID)
		gw.unregister(conn.ID)
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, err)
		c.Close(websocket.StatusNormalClosure, "")
	}
}

// readPump reads frames until the connection fails or ctx is cancelled.
// It returns nil for a normal client close.
func readPump(ctx context.Context, c *websocket.Conn, gw *Gateway, conn *Connection) error {
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return nil
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if typ != websocket.MessageText {
			gw.Logger.Warnf("Received non-text message type %d from connection %s. Ignoring.", typ, conn.ID)
			continue
		}

		var msg GameMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			gw.Logger.Warnf("Invalid JSON from connection %s: %v", conn.ID, err)
			sendError(conn, "Invalid JSON format.")
			continue
		}
		gw.dispatch(conn, msg)
	}
}

// dispatch routes one client event. Failures go back to the sender only.
func (gw *Gateway) dispatch(conn *Connection, msg GameMessage) {
	logger := gw.Logger.WithFields(logrus.Fields{"conn": conn.ID, "type": msg.Type})
	logger.Debug("Received event")

	roomID := strings.TrimSpace(msg.RoomID)
	switch msg.Type {
	case "create-room":
		username := strings.TrimSpace(msg.Username)
		if username == "" {
			sendError(conn, "Username is required.")
			return
		}
		if _, err := gw.Coord.CreateRoom(conn.ID, username); err != nil {
			sendError(conn, errorMessage(err))
		}

	case "join-room":
		username := strings.TrimSpace(msg.Username)
		if username == "" {
			sendError(conn, "Username is required.")
			return
		}
		if _, err := gw.Coord.JoinRoom(roomID, conn.ID, username); err != nil {
			if errors.Is(err, game.ErrRoomNotFound) || errors.Is(err, game.ErrRoomFull) {
				sendError(conn, "Room is full or does not exist.")
				return
			}
			sendError(conn, errorMessage(err))
		}

	case "start-game":
		if err := gw.Coord.StartGame(roomID, conn.ID); err != nil {
			sendError(conn, errorMessage(err))
		}

	case "submit-answer":
		if err := gw.Coord.SubmitAnswer(roomID, conn.ID, msg.Answer); err != nil {
			sendError(conn, errorMessage(err))
		}

	case "ping":
		conn.Write(game.GameEvent{Type: eventPong})

	default:
		logger.Warn("Unknown event type")
		sendError(conn, fmt.Sprintf("Unknown event type: %s", msg.Type))
	}
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		return "Room does not exist."
	case errors.Is(err, game.ErrRoomFull):
		return "Room is full."
	case errors.Is(err, game.ErrUnauthorized):
		return "Only the host can start the game, and only with two players in the lobby."
	case errors.Is(err, game.ErrAlreadyInRoom):
		return "You are already in a room."
	case errors.Is(err, game.ErrAlreadyAnswered):
		return "You already answered this card."
	default:
		return "Something went wrong."
	}
}

func sendError(conn *Connection, message string) {
	conn.Write(game.GameEvent{Type: game.EventError, Payload: message})
}

// writePump drains conn.OutChan onto the socket and keeps the connection alive with pings.
func writePump(ctx context.Context, c *websocket.Conn, conn *Connection, logger *logrus.Logger) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-conn.OutChan:
			data, err := json.Marshal(ev)
			if err != nil {
				logger.Warnf("Failed to marshal outgoing event '%s' for connection %s: %v", ev.Type, conn.ID, err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("Failed to write to websocket for connection %s: %v", conn.ID, err)
				conn.Cancel()
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("Failed to send ping to connection %s: %v. Assuming disconnect.", conn.ID, err)
				conn.Cancel()
				return
			}
		}
	}
}
