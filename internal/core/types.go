package core

import "time"

// Question is a prompt created by a requester and shared with an audience.
type Question struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Response is a single anonymous answer to a question.
type Response struct {
	ID         string    `json:"id"`
	QuestionID string    `json:"question_id"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

// Summary is an AI-generated digest of the responses to a question.
type Summary struct {
	ID         string    `json:"id"`
	QuestionID string    `json:"question_id"`
	Text       string    `json:"text"`
	Tokens     int       `json:"tokens"`
	Responses  int       `json:"responses"`
	CreatedAt  time.Time `json:"created_at"`
}

// DayUsage aggregates billed API usage for one calendar day.
type DayUsage struct {
	Day           string           `json:"day"`
	TotalTokens   int64            `json:"total_tokens"`
	TotalRequests int64            `json:"total_requests"`
	ByQuestion    map[string]int64 `json:"by_question,omitempty"`
}
