// internal/game/rules.go
package game

import (
	"sort"
	"strings"

	"github.com/jason-s-yu/flashcard-frenzy/internal/models"
)

const (
	// MaxPlayers is the seat count of every room. The first seat is the host.
	MaxPlayers = 2

	// PointsPerCorrectAnswer is added to a player's score for each correct answer.
	PointsPerCorrectAnswer = 10
)

// IsCorrectAnswer compares a submitted answer against the card's stored answer.
// Surrounding whitespace is ignored and the comparison is case-insensitive; there
// is no partial credit.
func IsCorrectAnswer(card models.Card, submitted string) bool {
	return strings.EqualFold(strings.TrimSpace(submitted), strings.TrimSpace(card.Answer))
}

// DetermineWinner returns the strictly highest scorer, or nil on a draw for first place.
func DetermineWinner(players []models.Player) *models.Player {
	if len(players) == 0 {
		return nil
	}
	sorted := make([]models.Player, len(players))
	copy(sorted, players)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	if len(sorted) > 1 && sorted[0].Score == sorted[1].Score {
		return nil // draw
	}
	winner := sorted[0]
	return &winner
}
