package model

import "time"

// Mentor is a counterparty an idea can be matched with.
type Mentor struct {
	ID         string    `json:"id"`
	ExternalID string    `json:"external_id,omitempty"`
	Name       string    `json:"name"`
	Contact    string    `json:"contact,omitempty"`
	Expertise  []string  `json:"expertise,omitempty"`
	Categories []string  `json:"categories,omitempty"`
	Location   string    `json:"location,omitempty"`
	Languages  []string  `json:"languages,omitempty"`
	Bio        string    `json:"bio,omitempty"`
	Active     bool      `json:"active"`
	Capacity   int       `json:"capacity"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// MatchStatus is the approval state of a mentor match.
type MatchStatus string

const (
	MatchStatusPending  MatchStatus = "pending"
	MatchStatusActive   MatchStatus = "active"
	MatchStatusRejected MatchStatus = "rejected"
)

// MentorMatch is a ranked proposal pairing an idea with a mentor. Status only
// moves pending -> active or pending -> rejected.
type MentorMatch struct {
	ID         string      `json:"id"`
	IdeaID     string      `json:"idea_id"`
	MentorID   string      `json:"mentor_id"`
	MentorName string      `json:"mentor_name,omitempty"`
	MatchScore float64     `json:"match_score"`
	Reasons    []string    `json:"reasons,omitempty"`
	Status     MatchStatus `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}
