package domain

import "time"

// ConversationTurn is one answered question inside a session.
type ConversationTurn struct {
	Question  string    `json:"q"`
	Answer    string    `json:"a"`
	Timestamp time.Time `json:"ts"`
}

func NewConversationTurn(question, answer string, now time.Time) ConversationTurn {
	return ConversationTurn{
		Question:  question,
		Answer:    answer,
		Timestamp: now.UTC(),
	}
}

// LastTurns returns at most limit trailing turns, oldest first.
func LastTurns(history []ConversationTurn, limit int) []ConversationTurn {
	if limit <= 0 || len(history) <= limit {
		return history
	}
	return history[len(history)-limit:]
}
