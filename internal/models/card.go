package models

// Card is a single flashcard. Cards are immutable once a deck is built.
type Card struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
