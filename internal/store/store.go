// Package store persists candidates, ideas, clarification chains, mentors and
// matches. Every status change is a conditional write: callers pass the
// status they expect and learn whether they won.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/ideaflow/internal/model"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = eris.New("store: not found")

// IdeaFilter narrows ListIdeas.
type IdeaFilter struct {
	Statuses      []model.IdeaStatus
	Contact       string
	UpdatedBefore time.Time
	Limit         int
}

// Store defines the persistence interface for the intake core.
type Store interface {
	// Candidates
	CreateCandidate(ctx context.Context, c *model.CandidateIdea) error
	GetCandidate(ctx context.Context, id string) (*model.CandidateIdea, error)
	// LatestOpenCandidate returns the newest unpromoted candidate for a contact.
	LatestOpenCandidate(ctx context.Context, contact string) (*model.CandidateIdea, error)
	// ValidateCandidate moves extracted -> speaker_validated with merged fields.
	ValidateCandidate(ctx context.Context, id string, fields model.IdeaFields) (bool, error)
	// PromoteCandidate inserts idea and links it to the candidate in one
	// transaction. When another promotion won, nothing is inserted and the
	// winner's idea id is returned with created=false.
	PromoteCandidate(ctx context.Context, candidateID string, idea *model.Idea) (ideaID string, created bool, err error)

	// Ideas
	CreateIdea(ctx context.Context, idea *model.Idea) error
	GetIdea(ctx context.Context, id string) (*model.Idea, error)
	ListIdeas(ctx context.Context, filter IdeaFilter) ([]model.Idea, error)
	// TransitionIdea moves from -> to and appends an audit row when it wins.
	TransitionIdea(ctx context.Context, id string, from, to model.IdeaStatus, reason string) (bool, error)
	UpdateIdeaScores(ctx context.Context, id string, scores model.Scores) error
	SetAssessment(ctx context.Context, id string, assessment map[string]int) error
	ListTransitions(ctx context.Context, ideaID string) ([]model.Transition, error)

	// Clarification chains
	// CreateChain inserts all questions of a chain, or none if one exists.
	CreateChain(ctx context.Context, questions []model.ClarificationQuestion) (bool, error)
	ListQuestions(ctx context.Context, candidateID string) ([]model.ClarificationQuestion, error)
	// AskQuestion moves pending -> asked.
	AskQuestion(ctx context.Context, id string) (bool, error)
	// AdvanceChain answers the asked question and, when nextID is set, asks
	// the next one in the same transaction. It returns false, writing
	// nothing, when the answer lost its CAS.
	AdvanceChain(ctx context.Context, answeredID string, status model.QuestionStatus, answer, nextID string) (bool, error)
	// StaleChains lists candidates whose asked question is older than before.
	StaleChains(ctx context.Context, before time.Time) ([]string, error)
	// AbandonChain marks every pending or asked question skipped.
	AbandonChain(ctx context.Context, candidateID string) (int, error)

	// Mentors and matches
	UpsertMentors(ctx context.Context, mentors []model.Mentor) (int, error)
	ListMentors(ctx context.Context, activeOnly bool) ([]model.Mentor, error)
	// CreateMatches inserts new (idea, mentor) pairs; existing pairs are left alone.
	CreateMatches(ctx context.Context, matches []model.MentorMatch) (int, error)
	GetMatch(ctx context.Context, id string) (*model.MentorMatch, error)
	ListMatches(ctx context.Context, ideaID string) ([]model.MentorMatch, error)
	TransitionMatch(ctx context.Context, id string, from, to model.MatchStatus) (bool, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

func limitOrDefault(n int) int {
	if n <= 0 {
		return 100
	}
	return n
}
