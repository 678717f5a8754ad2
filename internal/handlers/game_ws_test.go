// internal/handlers/game_ws_test.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/jason-s-yu/flashcard-frenzy/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wireEvent is an outbound frame as a client sees it.
type wireEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type testServer struct {
	srv   *httptest.Server
	gw    *Gateway
	store *memResults
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := quietLogger()
	store := &memResults{}

	coord := game.NewCoordinator(game.NewRoomStore(), store, logger)
	coord.RevealDelay = 100 * time.Millisecond
	coord.NewDeck = game.NewOrderedDeck
	gw := NewGateway(coord, logger)

	srv := httptest.NewServer(NewRouter(logger, gw, store))
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, gw: gw, store: store}
}

func (ts *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "/ws"
	c, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{Subprotocols: []string{"game"}})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close(websocket.StatusNormalClosure, "") })
	return c
}

func send(t *testing.T, c *websocket.Conn, msg map[string]string) {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.Write(ctx, websocket.MessageText, data))
}

func readEvent(t *testing.T, c *websocket.Conn) wireEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, data, err := c.Read(ctx)
	require.NoError(t, err)
	var ev wireEvent
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

// readUntil skips events until one of type want arrives.
func readUntil(t *testing.T, c *websocket.Conn, want string) wireEvent {
	t.Helper()
	for i := 0; i < 50; i++ {
		ev := readEvent(t, c)
		if ev.Type == want {
			return ev
		}
	}
	t.Fatalf("no %q event received", want)
	return wireEvent{}
}

func decodeState(t *testing.T, ev wireEvent) game.RoomState {
	t.Helper()
	var state game.RoomState
	require.NoError(t, json.Unmarshal(ev.Payload, &state))
	return state
}

// seatTwo creates a room with host and has guest join it, draining the lobby events.
func seatTwo(t *testing.T, host, guest *websocket.Conn) string {
	t.Helper()
	send(t, host, map[string]string{"type": "create-room", "username": "Alice"})
	created := readEvent(t, host)
	require.Equal(t, "room-created", created.Type)
	var roomID string
	require.NoError(t, json.Unmarshal(created.Payload, &roomID))

	state := decodeState(t, readEvent(t, host))
	assert.Equal(t, roomID, state.RoomID)
	require.Len(t, state.Players, 1)

	send(t, guest, map[string]string{"type": "join-room", "roomId": roomID, "username": "Bob"})
	for _, c := range []*websocket.Conn{host, guest} {
		ev := readEvent(t, c)
		require.Equal(t, "update-game-state", ev.Type)
		assert.Len(t, decodeState(t, ev).Players, 2)
	}
	return roomID
}

func TestGatewayFullGame(t *testing.T) {
	ts := newTestServer(t)
	host, guest := ts.dial(t), ts.dial(t)
	roomID := seatTwo(t, host, guest)

	send(t, host, map[string]string{"type": "start-game", "roomId": roomID})
	for _, c := range []*websocket.Conn{host, guest} {
		assert.Equal(t, "game-started", readEvent(t, c).Type)
		state := decodeState(t, readEvent(t, c))
		assert.True(t, state.GameStarted)
	}

	deck := game.NewOrderedDeck()
	for i, card := range deck {
		send(t, host, map[string]string{"type": "submit-answer", "roomId": roomID, "answer": strings.ToUpper(card.Answer)})
		send(t, guest, map[string]string{"type": "submit-answer", "roomId": roomID, "answer": "wrong"})

		ev := readUntil(t, guest, "answer-result")
		var res game.AnswerResult
		require.NoError(t, json.Unmarshal(ev.Payload, &res))
		assert.Equal(t, card.Answer, res.CorrectAnswer)

		if i < len(deck)-1 {
			for _, c := range []*websocket.Conn{host, guest} {
				state := decodeState(t, readUntil(t, c, "update-game-state"))
				assert.Equal(t, i+1, state.CurrentCardIndex)
			}
		}
	}

	for _, c := range []*websocket.Conn{host, guest} {
		ev := readUntil(t, c, "game-over")
		var payload game.GameOverPayload
		require.NoError(t, json.Unmarshal(ev.Payload, &payload))
		require.NotNil(t, payload.Winner)
		assert.Equal(t, "Alice", payload.Winner.Username)
		assert.Equal(t, 60, payload.Winner.Score)
		assert.True(t, payload.FinalState.GameOver)
	}

	require.Eventually(t, func() bool { return ts.store.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, ts.gw.Coord.Store.Len())
}

func TestGatewayJoinErrors(t *testing.T) {
	ts := newTestServer(t)
	host, guest, third := ts.dial(t), ts.dial(t), ts.dial(t)

	send(t, third, map[string]string{"type": "join-room", "roomId": "nope00", "username": "Carol"})
	ev := readEvent(t, third)
	assert.Equal(t, "error", ev.Type)
	var msg string
	require.NoError(t, json.Unmarshal(ev.Payload, &msg))
	assert.Equal(t, "Room is full or does not exist.", msg)

	roomID := seatTwo(t, host, guest)
	send(t, third, map[string]string{"type": "join-room", "roomId": roomID, "username": "Carol"})
	ev = readEvent(t, third)
	assert.Equal(t, "error", ev.Type)
	require.NoError(t, json.Unmarshal(ev.Payload, &msg))
	assert.Equal(t, "Room is full or does not exist.", msg)
}

func TestGatewayUnauthorizedStartOnlyTellsRequester(t *testing.T) {
	ts := newTestServer(t)
	host, guest := ts.dial(t), ts.dial(t)
	roomID := seatTwo(t, host, guest)

	send(t, guest, map[string]string{"type": "start-game", "roomId": roomID})
	assert.Equal(t, "error", readEvent(t, guest).Type)

	// the host saw nothing; its next event is the pong
	send(t, host, map[string]string{"type": "ping"})
	assert.Equal(t, "pong", readEvent(t, host).Type)
}

func TestGatewayDisconnectNotifiesRemainingPlayer(t *testing.T) {
	ts := newTestServer(t)
	host, guest := ts.dial(t), ts.dial(t)
	roomID := seatTwo(t, host, guest)

	send(t, host, map[string]string{"type": "start-game", "roomId": roomID})
	readUntil(t, host, "update-game-state")

	require.NoError(t, guest.Close(websocket.StatusNormalClosure, "bye"))

	readUntil(t, host, "player-left")
	state := decodeState(t, readUntil(t, host, "update-game-state"))
	assert.Len(t, state.Players, 1)
	assert.False(t, state.GameOver)

	require.Eventually(t, func() bool { return ts.gw.Len() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, ts.gw.Coord.Store.Len())
}

func TestGatewayRejectsBadInput(t *testing.T) {
	ts := newTestServer(t)
	c := ts.dial(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.Write(ctx, websocket.MessageText, []byte("{not json")))
	assert.Equal(t, "error", readEvent(t, c).Type)

	send(t, c, map[string]string{"type": "teleport"})
	ev := readEvent(t, c)
	assert.Equal(t, "error", ev.Type)
	assert.Contains(t, string(ev.Payload), "teleport")

	send(t, c, map[string]string{"type": "create-room", "username": "  "})
	assert.Equal(t, "error", readEvent(t, c).Type)

	// the connection is still usable
	send(t, c, map[string]string{"type": "create-room", "username": "Alice"})
	assert.Equal(t, "room-created", readEvent(t, c).Type)
	send(t, c, map[string]string{"type": "create-room", "username": "Alice"})
	assert.Equal(t, "update-game-state", readEvent(t, c).Type)
	ev = readEvent(t, c)
	assert.Equal(t, "error", ev.Type)
	assert.Contains(t, string(ev.Payload), "already in a room")
}
