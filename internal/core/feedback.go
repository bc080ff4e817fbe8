package core

import "time"

// Feedback is one rating of the dashboard submitted through the feedback form.
type Feedback struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Comment   string    `json:"comment"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedbackStats aggregates all submissions.
type FeedbackStats struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
}
