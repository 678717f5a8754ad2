// internal/handlers/handlers_test.go
package handlers

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"

	"github.com/jason-s-yu/flashcard-frenzy/internal/database"
	"github.com/jason-s-yu/flashcard-frenzy/internal/models"
	"github.com/sirupsen/logrus"
)

// memResults is an in-memory result store for handler tests.
type memResults struct {
	mu      sync.Mutex
	results []models.GameResult
	err     error
}

func (m *memResults) SaveGameResult(_ context.Context, r models.GameResult) (*models.GameResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.results = append(m.results, r)
	return &r, nil
}

func (m *memResults) GetGameResults(_ context.Context) ([]models.GameResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.GameResult, len(m.results))
	copy(out, m.results)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memResults) GetGameResultByRoomID(_ context.Context, roomID string) (*models.GameResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var found *models.GameResult
	for i := range m.results {
		r := m.results[i]
		if r.RoomID == roomID && (found == nil || r.CreatedAt.After(found.CreatedAt)) {
			found = &r
		}
	}
	if found == nil {
		return nil, database.ErrResultNotFound
	}
	return found, nil
}

func (m *memResults) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.results)
}

var errStoreDown = errors.New("store down")

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
