package matching

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ideaflow/internal/model"
	"github.com/sells-group/ideaflow/internal/store"
)

// ErrMatchNotPending is returned when approving or rejecting a decided match.
var ErrMatchNotPending = eris.New("matching: match is not pending")

// Advancer applies guarded idea transitions.
type Advancer interface {
	AdvanceFrom(ctx context.Context, ideaID string, from, to model.IdeaStatus, reason string) (*model.Idea, bool, error)
}

// Service persists and decides matches.
type Service struct {
	store    store.Store
	advancer Advancer
	limit    int
}

// NewService creates a Service. limit is the default number of proposals.
func NewService(st store.Store, advancer Advancer, limit int) *Service {
	if limit <= 0 {
		limit = 5
	}
	return &Service{store: st, advancer: advancer, limit: limit}
}

// Propose ranks the active mentor pool for an idea and stores new pairs.
// Pairs proposed earlier are left as they are.
func (s *Service) Propose(ctx context.Context, ideaID string, limit int) ([]model.MentorMatch, error) {
	if limit <= 0 {
		limit = s.limit
	}
	idea, err := s.store.GetIdea(ctx, ideaID)
	if err != nil {
		return nil, eris.Wrap(err, "matching: propose")
	}
	pool, err := s.store.ListMentors(ctx, true)
	if err != nil {
		return nil, eris.Wrap(err, "matching: list mentors")
	}
	matches, err := FindMatches(idea, pool, limit)
	if err != nil {
		return nil, err
	}
	n, err := s.store.CreateMatches(ctx, matches)
	if err != nil {
		return nil, eris.Wrap(err, "matching: save matches")
	}
	zap.L().Info("matching: proposed",
		zap.String("idea_id", ideaID),
		zap.Int("pool", len(pool)),
		zap.Int("ranked", len(matches)),
		zap.Int("new", n),
	)
	return s.List(ctx, ideaID)
}

// List returns the stored matches of an idea, best first.
func (s *Service) List(ctx context.Context, ideaID string) ([]model.MentorMatch, error) {
	ms, err := s.store.ListMatches(ctx, ideaID)
	if err != nil {
		return nil, eris.Wrap(err, "matching: list")
	}
	return ms, nil
}

// Approve activates a pending match and moves the idea to matched if it is
// still analyzed. Approving an already active match retries only the idea
// advance, so a failed advance can be completed by calling Approve again.
func (s *Service) Approve(ctx context.Context, matchID string) (*model.MentorMatch, error) {
	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, eris.Wrap(err, "matching: get match")
	}
	if m.Status != model.MatchStatusActive {
		if m, err = s.decide(ctx, matchID, model.MatchStatusActive); err != nil {
			return nil, err
		}
	}
	_, moved, err := s.advancer.AdvanceFrom(ctx, m.IdeaID, model.IdeaStatusAnalyzed, model.IdeaStatusMatched,
		"mentor match approved: "+m.MentorName)
	if err != nil {
		return nil, eris.Wrap(err, "matching: advance idea")
	}
	zap.L().Info("matching: approved",
		zap.String("match_id", matchID),
		zap.String("idea_id", m.IdeaID),
		zap.Bool("idea_advanced", moved),
	)
	return m, nil
}

// Reject declines a pending match.
func (s *Service) Reject(ctx context.Context, matchID string) (*model.MentorMatch, error) {
	return s.decide(ctx, matchID, model.MatchStatusRejected)
}

func (s *Service) decide(ctx context.Context, matchID string, to model.MatchStatus) (*model.MentorMatch, error) {
	if _, err := s.store.GetMatch(ctx, matchID); err != nil {
		return nil, eris.Wrap(err, "matching: get match")
	}
	won, err := s.store.TransitionMatch(ctx, matchID, model.MatchStatusPending, to)
	if err != nil {
		return nil, eris.Wrap(err, "matching: transition match")
	}
	if !won {
		return nil, ErrMatchNotPending
	}
	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, eris.Wrap(err, "matching: reload match")
	}
	return m, nil
}
