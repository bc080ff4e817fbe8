package amqp

import (
	"encoding/json"
	"time"
)

// FeedbackSubmitted is the AMQP message type of FeedbackMessage.
const FeedbackSubmitted = "feedback.submitted"

// FeedbackMessage announces a dashboard feedback submission.
type FeedbackMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Comment   string    `json:"comment,omitempty"`
	Score     int       `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}

// NewFeedbackMessage creates a message stamped with the current time.
func NewFeedbackMessage(id, name, comment string, score int) *FeedbackMessage {
	return &FeedbackMessage{
		ID:        id,
		Name:      name,
		Comment:   comment,
		Score:     score,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *FeedbackMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FeedbackMessageFromJSON creates a message from JSON bytes
func FeedbackMessageFromJSON(data []byte) (*FeedbackMessage, error) {
	var msg FeedbackMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
