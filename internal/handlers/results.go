// internal/handlers/results.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jason-s-yu/flashcard-frenzy/internal/database"
	"github.com/jason-s-yu/flashcard-frenzy/internal/models"
	"github.com/sirupsen/logrus"
)

// ResultReader is the read side of the result store.
type ResultReader interface {
	GetGameResults(ctx context.Context) ([]models.GameResult, error)
	GetGameResultByRoomID(ctx context.Context, roomID string) (*models.GameResult, error)
}

// ListResultsHandler serves every finished game, newest first.
func ListResultsHandler(logger *logrus.Logger, store ResultReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results, err := store.GetGameResults(r.Context())
		if err != nil {
			logger.WithError(err).Error("Failed to fetch game results")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Failed to fetch game results"})
			return
		}
		writeJSON(w, http.StatusOK, results)
	}
}

// GetResultHandler serves the latest finished game for the {roomId} path value.
func GetResultHandler(logger *logrus.Logger, store ResultReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := r.PathValue("roomId")
		result, err := store.GetGameResultByRoomID(r.Context(), roomID)
		if err != nil {
			if errors.Is(err, database.ErrResultNotFound) {
				writeJSON(w, http.StatusNotFound, map[string]string{"message": "Game result not found"})
				return
			}
			logger.WithError(err).WithField("room", roomID).Error("Failed to fetch game result")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Failed to fetch game result"})
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// PingHandler answers liveness probes.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
