// internal/game/coordinator.go
package game

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/flashcard-frenzy/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultRevealDelay is how long the correct answer stays on screen before the next card.
	DefaultRevealDelay = 3 * time.Second
	// DefaultPersistAttempts bounds how many times a finished game is offered to the ResultStore.
	DefaultPersistAttempts = 3

	defaultPersistBackoff = 500 * time.Millisecond
	persistTimeout        = 5 * time.Second
	publishTimeout        = 2 * time.Second
)

// ResultStore persists finished games.
type ResultStore interface {
	SaveGameResult(ctx context.Context, result models.GameResult) (*models.GameResult, error)
}

// ActionPublisher ships room actions to the historian queue.
type ActionPublisher interface {
	PublishRoomAction(ctx context.Context, rec models.RoomAction) error
}

// Coordinator runs the room state machine LOBBY -> IN_PROGRESS -> FINISHED.
// Every operation borrows a room from the Store, holds its lock for the whole
// read-modify-write, and leaves it either consistent or evicted. Operations on
// different rooms never contend on anything but the Store's map lock.
type Coordinator struct {
	Store    *RoomStore
	Results  ResultStore
	Notifier Notifier
	Actions  ActionPublisher // optional
	Logger   *logrus.Logger

	RevealDelay     time.Duration
	PersistAttempts int
	PersistBackoff  time.Duration

	// NewDeck supplies the deck for each new room.
	NewDeck func() []models.Card

	wg sync.WaitGroup
}

// NewCoordinator wires a coordinator with default timings and a shuffled deck source.
// Notifier is usually assigned afterwards by the gateway that owns the connections.
func NewCoordinator(store *RoomStore, results ResultStore, logger *logrus.Logger) *Coordinator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Coordinator{
		Store:           store,
		Results:         results,
		Logger:          logger,
		RevealDelay:     DefaultRevealDelay,
		PersistAttempts: DefaultPersistAttempts,
		PersistBackoff:  defaultPersistBackoff,
		NewDeck:         NewShuffledDeck,
	}
}

// CreateRoom seats connID as host of a new room in the lobby.
func (c *Coordinator) CreateRoom(connID, username string) (RoomState, error) {
	if _, ok := c.Store.RoomOf(connID); ok {
		return RoomState{}, ErrAlreadyInRoom
	}

	room := c.Store.Create(models.Player{ID: connID, Username: username}, c.NewDeck())
	defer room.Mu.Unlock()

	c.notify(connID, GameEvent{Type: EventRoomCreated, Payload: room.RoomID})
	c.broadcastState(room)
	c.logAction(room, connID, "room_created", map[string]interface{}{"username": username})
	c.roomLogger(room).WithField("conn", connID).Info("Room created")
	return room.Snapshot(), nil
}

// JoinRoom seats connID as the second player of a room that is still in the lobby.
func (c *Coordinator) JoinRoom(roomID, connID, username string) (RoomState, error) {
	if _, ok := c.Store.RoomOf(connID); ok {
		return RoomState{}, ErrAlreadyInRoom
	}
	room, ok := c.Store.Get(roomID)
	if !ok {
		return RoomState{}, ErrRoomNotFound
	}

	room.Mu.Lock()
	defer room.Mu.Unlock()

	if room.removed {
		return RoomState{}, ErrRoomNotFound
	}
	if len(room.Players) >= MaxPlayers || room.Status() != StatusLobby {
		return RoomState{}, ErrRoomFull
	}

	room.Players = append(room.Players, &models.Player{ID: connID, Username: username})
	c.Store.Bind(connID, roomID)

	c.broadcastState(room)
	c.logAction(room, connID, "player_joined", map[string]interface{}{"username": username})
	c.roomLogger(room).WithField("conn", connID).Info("Player joined")
	return room.Snapshot(), nil
}

// StartGame moves a full lobby into play. Only the host may start, and only with
// exactly MaxPlayers seated; otherwise nothing changes and nothing is broadcast.
func (c *Coordinator) StartGame(roomID, connID string) error {
	room, ok := c.Store.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}

	room.Mu.Lock()
	defer room.Mu.Unlock()

	if room.removed {
		return ErrRoomNotFound
	}
	if !room.isHost(connID) || len(room.Players) != MaxPlayers || room.Status() != StatusLobby {
		c.roomLogger(room).WithField("conn", connID).Debug("Start request rejected")
		return ErrUnauthorized
	}

	room.GameStarted = true
	room.answered = make(map[string]bool)
	room.advancePending = false

	c.broadcast(room, GameEvent{Type: EventGameStarted})
	c.broadcastState(room)
	c.logAction(room, connID, "game_started", nil)
	c.roomLogger(room).Info("Game started")
	return nil
}

// SubmitAnswer scores connID's answer for the card in play and reveals the correct
// answer to the room. Submissions outside IN_PROGRESS or from non-members are ignored.
// Each player may answer a card once; the first accepted answer schedules the single
// delayed advance for that card.
func (c *Coordinator) SubmitAnswer(roomID, connID, answer string) error {
	room, ok := c.Store.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}

	room.Mu.Lock()
	defer room.Mu.Unlock()

	if room.removed {
		return ErrRoomNotFound
	}
	if room.Status() != StatusInProgress {
		return nil
	}
	player := room.getPlayerByID(connID)
	if player == nil {
		return nil
	}
	if room.answered[connID] {
		return ErrAlreadyAnswered
	}
	card, ok := room.currentCard()
	if !ok {
		return nil
	}

	isCorrect := IsCorrectAnswer(card, answer)
	if isCorrect {
		player.Score += PointsPerCorrectAnswer
	}
	room.answered[connID] = true

	c.broadcast(room, GameEvent{
		Type: EventAnswerResult,
		Payload: AnswerResult{
			PlayerID:      connID,
			Username:      player.Username,
			Answer:        answer,
			IsCorrect:     isCorrect,
			CorrectAnswer: card.Answer,
		},
	})
	c.logAction(room, connID, "answer_submitted", map[string]interface{}{
		"cardId":    card.ID,
		"cardIndex": room.CurrentCardIndex,
		"answer":    answer,
		"isCorrect": isCorrect,
	})

	if !room.advancePending {
		room.advancePending = true
		c.scheduleAdvance(room)
	}
	return nil
}

// RemovePlayer drops connID from whichever room it is seated in. An emptied room is
// deleted; otherwise the remaining player is told and the room stays as it is.
func (c *Coordinator) RemovePlayer(connID string) {
	roomID, ok := c.Store.RoomOf(connID)
	if !ok {
		return
	}
	room, ok := c.Store.Get(roomID)
	if !ok {
		c.Store.Unbind(connID)
		return
	}

	room.Mu.Lock()
	defer room.Mu.Unlock()

	if room.removed || !room.removePlayer(connID) {
		c.Store.Unbind(connID)
		return
	}
	c.Store.Unbind(connID)
	c.logAction(room, connID, "player_left", nil)
	c.roomLogger(room).WithField("conn", connID).Info("Player left")

	if len(room.Players) == 0 {
		c.evict(room)
		return
	}
	c.broadcast(room, GameEvent{Type: EventPlayerLeft})
	c.broadcastState(room)
}

// Shutdown cancels every pending card advance and waits for in-flight result writes.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	for _, room := range c.Store.Rooms() {
		room.Mu.Lock()
		room.stopAdvanceTimer()
		room.Mu.Unlock()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// scheduleAdvance arms the delayed move to the next card. The callback re-checks the
// room so a stale timer for an evicted room or an older card is a no-op.
// Assumes lock is held.
func (c *Coordinator) scheduleAdvance(room *Room) {
	cardIndex := room.CurrentCardIndex
	room.stopAdvanceTimer()
	room.advanceTimer = time.AfterFunc(c.RevealDelay, func() {
		c.advance(room, cardIndex)
	})
}

// advance moves past cardIndex, or finishes the game if it was the last card.
func (c *Coordinator) advance(room *Room, cardIndex int) {
	room.Mu.Lock()
	defer room.Mu.Unlock()

	if room.removed || room.GameOver || room.CurrentCardIndex != cardIndex {
		c.roomLogger(room).WithField("card", cardIndex).Debug("Stale advance ignored")
		return
	}
	room.advanceTimer = nil

	if room.isLastCard() {
		c.finishGame(room)
		return
	}

	room.CurrentCardIndex++
	room.answered = make(map[string]bool)
	room.advancePending = false

	c.broadcastState(room)
	c.logAction(room, "", "card_advanced", map[string]interface{}{"cardIndex": room.CurrentCardIndex})
}

// finishGame marks the room over, announces the winner, evicts the room and hands
// the outcome to the ResultStore in the background.
// Assumes lock is held.
func (c *Coordinator) finishGame(room *Room) {
	if room.GameOver {
		return
	}
	room.GameOver = true
	room.stopAdvanceTimer()

	state := room.Snapshot()
	winner := DetermineWinner(state.Players)

	c.broadcast(room, GameEvent{
		Type: EventGameOver,
		Payload: GameOverPayload{
			RoomID:     room.RoomID,
			Winner:     winner,
			FinalState: state,
		},
	})
	c.logAction(room, "", "game_over", map[string]interface{}{"winner": winner, "players": state.Players})

	result := models.GameResult{
		ID:        uuid.New(),
		RoomID:    room.RoomID,
		Winner:    winner,
		Players:   state.Players,
		Deck:      state.Deck,
		CreatedAt: time.Now().UTC(),
	}
	c.evict(room)

	c.wg.Add(1)
	go c.persistResult(result)
}

// evict removes the room from the Store and cancels its pending advance.
// Assumes lock is held.
func (c *Coordinator) evict(room *Room) {
	if room.removed {
		return
	}
	room.removed = true
	room.stopAdvanceTimer()
	c.Store.Delete(room.RoomID)
	c.logAction(room, "", "room_deleted", nil)
	c.roomLogger(room).Debug("Room deleted")
}

// persistResult offers result to the ResultStore up to PersistAttempts times.
// A final failure is logged together with the full result.
func (c *Coordinator) persistResult(result models.GameResult) {
	defer c.wg.Done()
	logger := c.Logger.WithFields(logrus.Fields{
		"room":   result.RoomID,
		"result": result.ID,
	})

	if c.Results == nil {
		data, _ := json.Marshal(result)
		logger.WithField("payload", string(data)).Warn("No result store configured, game result not persisted")
		return
	}

	attempts := max(1, c.PersistAttempts)
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		_, err = c.Results.SaveGameResult(ctx, result)
		cancel()
		if err == nil {
			logger.Infof("Game %s finished and results were saved.", result.RoomID)
			return
		}
		logger.WithError(err).Warnf("Persist attempt %d/%d failed", attempt, attempts)
		if attempt < attempts {
			time.Sleep(c.PersistBackoff * time.Duration(attempt))
		}
	}

	perr := &PersistenceError{RoomID: result.RoomID, Attempts: attempts, Err: err}
	data, _ := json.Marshal(result)
	logger.WithError(perr).WithField("payload", string(data)).Error("Game result could not be persisted")
}

// broadcastState sends the current snapshot to every seated player.
// Assumes lock is held.
func (c *Coordinator) broadcastState(room *Room) {
	c.broadcast(room, GameEvent{Type: EventUpdateGameState, Payload: room.Snapshot()})
}

// broadcast sends ev to the roster as it stands right now.
// Assumes lock is held.
func (c *Coordinator) broadcast(room *Room, ev GameEvent) {
	for _, p := range room.Players {
		c.notify(p.ID, ev)
	}
}

func (c *Coordinator) notify(connID string, ev GameEvent) {
	if c.Notifier == nil {
		return
	}
	c.Notifier.Notify(connID, ev)
}

// logAction publishes a room transition to the historian queue without blocking the room.
// Assumes lock is held.
func (c *Coordinator) logAction(room *Room, actorID, actionType string, payload map[string]interface{}) {
	room.actionIndex++
	if c.Actions == nil {
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}
	rec := models.RoomAction{
		SessionID:     room.SessionID,
		RoomID:        room.RoomID,
		ActionIndex:   room.actionIndex,
		ActorConnID:   actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	go func(rec models.RoomAction) {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := c.Actions.PublishRoomAction(ctx, rec); err != nil {
			c.Logger.WithError(err).Warnf("Failed to publish action %d for room %s", rec.ActionIndex, rec.RoomID)
		}
	}(rec)
}

func (c *Coordinator) roomLogger(room *Room) *logrus.Entry {
	return c.Logger.WithFields(logrus.Fields{
		"room":    room.RoomID,
		"session": room.SessionID,
	})
}
