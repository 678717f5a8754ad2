// internal/game/deck.go
package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/jason-s-yu/flashcard-frenzy/internal/models"
)

// flashcardDeck is the built-in deck every room is dealt from.
var flashcardDeck = []models.Card{
	{ID: "1", Question: "What is 2 + 2?", Answer: "4"},
	{ID: "2", Question: "What is the capital of France?", Answer: "Paris"},
	{ID: "3", Question: `What element does "O" represent?`, Answer: "Oxygen"},
	{ID: "4", Question: `Who wrote "Hamlet"?`, Answer: "William Shakespeare"},
	{ID: "5", Question: "What is the largest planet in our solar system?", Answer: "Jupiter"},
	{ID: "6", Question: "What year did the Titanic sink?", Answer: "1912"},
}

var (
	deckRandMu sync.Mutex
	deckRand   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// DeckSize is the number of cards in a freshly built deck.
func DeckSize() int {
	return len(flashcardDeck)
}

// NewShuffledDeck returns a shuffled copy of the built-in deck. The order is fixed
// for the lifetime of the room that receives it.
func NewShuffledDeck() []models.Card {
	deck := make([]models.Card, len(flashcardDeck))
	copy(deck, flashcardDeck)

	deckRandMu.Lock()
	deckRand.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	deckRandMu.Unlock()
	return deck
}

// NewOrderedDeck returns the built-in deck in its canonical order.
func NewOrderedDeck() []models.Card {
	deck := make([]models.Card, len(flashcardDeck))
	copy(deck, flashcardDeck)
	return deck
}
