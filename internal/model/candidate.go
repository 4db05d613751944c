package model

import "time"

// RawSubmission is the unprocessed input of a speaker. It is never mutated.
type RawSubmission struct {
	Text    string `json:"text"`
	Contact string `json:"contact,omitempty"`
	Session string `json:"session,omitempty"`
}

// CandidateStatus tracks a conversation-stage draft.
type CandidateStatus string

const (
	CandidateStatusExtracted        CandidateStatus = "extracted"
	CandidateStatusSpeakerValidated CandidateStatus = "speaker_validated"
	CandidateStatusPromoted         CandidateStatus = "promoted"
)

// CandidateIdea is a freshly extracted draft. PromotedIdeaID is set at most
// once, together with Status = promoted.
type CandidateIdea struct {
	ID                    string             `json:"id"`
	Raw                   RawSubmission      `json:"raw"`
	Fields                IdeaFields         `json:"fields"`
	FieldConfidence       map[string]float64 `json:"field_confidence,omitempty"`
	ConfidenceScore       float64            `json:"confidence_score"`
	NeedsClarification    bool               `json:"needs_clarification"`
	ClarificationField    string             `json:"clarification_field,omitempty"`
	ClarificationQuestion string             `json:"clarification_question,omitempty"`
	Status                CandidateStatus    `json:"status"`
	PromotedIdeaID        string             `json:"promoted_idea_id,omitempty"`
	CreatedAt             time.Time          `json:"created_at"`
	UpdatedAt             time.Time          `json:"updated_at"`
}

// Promoted reports whether the candidate already has a canonical idea.
func (c *CandidateIdea) Promoted() bool {
	return c.PromotedIdeaID != ""
}

// QuestionStatus is the state of a single clarification question.
type QuestionStatus string

const (
	QuestionStatusPending  QuestionStatus = "pending"
	QuestionStatusAsked    QuestionStatus = "asked"
	QuestionStatusAnswered QuestionStatus = "answered"
	QuestionStatusSkipped  QuestionStatus = "skipped"
)

// Done reports whether the question no longer needs an answer.
func (s QuestionStatus) Done() bool {
	return s == QuestionStatusAnswered || s == QuestionStatusSkipped
}

// ClarificationQuestion is one step of a self-ask chain. At most one question
// per candidate is in the asked state.
type ClarificationQuestion struct {
	ID          string         `json:"id"`
	CandidateID string         `json:"candidate_id"`
	Ordinal     int            `json:"ordinal"`
	FieldKey    string         `json:"field_key"`
	Text        string         `json:"text"`
	Status      QuestionStatus `json:"status"`
	AnswerText  string         `json:"answer_text,omitempty"`
	AskedAt     *time.Time     `json:"asked_at,omitempty"`
	AnsweredAt  *time.Time     `json:"answered_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
