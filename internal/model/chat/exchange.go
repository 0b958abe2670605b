package chat

import "time"

// Exchange persists one user message and the assistant reply it produced.
type Exchange struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"sessionId"`
	UserMessage string    `json:"userMessage"`
	AIResponse  string    `json:"aiResponse"`
	Category    Category  `json:"category"`
	CreatedAt   time.Time `json:"createdAt"`
}
