// Package api exposes the intake core over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sells-group/ideaflow/internal/clarify"
	"github.com/sells-group/ideaflow/internal/intake"
	"github.com/sells-group/ideaflow/internal/mentors"
	"github.com/sells-group/ideaflow/internal/model"
	"github.com/sells-group/ideaflow/internal/store"
)

// Intake submits raw text and routes inbound messages.
type Intake interface {
	Submit(ctx context.Context, raw model.RawSubmission) (*intake.Outcome, error)
	HandleInbound(ctx context.Context, contact, text string) (*intake.Outcome, error)
	Promote(ctx context.Context, candidateID string) (*model.Idea, error)
}

// Extractor runs extraction without promotion.
type Extractor interface {
	Extract(ctx context.Context, raw model.RawSubmission) (*model.CandidateIdea, error)
}

// Chain drives clarification chains.
type Chain interface {
	StartChain(ctx context.Context, candidateID, contact string) (*model.ClarificationQuestion, error)
	ProcessResponse(ctx context.Context, candidateID, text string) (*clarify.Progress, error)
	Progress(ctx context.Context, candidateID string) (*clarify.Progress, error)
}

// Lifecycle drives ideas through their states.
type Lifecycle interface {
	Get(ctx context.Context, ideaID string) (*model.Idea, error)
	History(ctx context.Context, ideaID string) ([]model.Transition, error)
	Submit(ctx context.Context, fields model.IdeaFields, contact string) (*model.Idea, error)
	Analyze(ctx context.Context, ideaID string) (*model.Idea, error)
	Advance(ctx context.Context, ideaID string, target model.IdeaStatus, reason string) (*model.Idea, error)
	RecordAssessment(ctx context.Context, ideaID string, sub map[string]int) (*model.Idea, error)
}

// Matcher proposes and decides mentor matches.
type Matcher interface {
	Propose(ctx context.Context, ideaID string, limit int) ([]model.MentorMatch, error)
	List(ctx context.Context, ideaID string) ([]model.MentorMatch, error)
	Approve(ctx context.Context, matchID string) (*model.MentorMatch, error)
	Reject(ctx context.Context, matchID string) (*model.MentorMatch, error)
}

// Reader serves read-only lookups.
type Reader interface {
	GetCandidate(ctx context.Context, id string) (*model.CandidateIdea, error)
	ListIdeas(ctx context.Context, filter store.IdeaFilter) ([]model.Idea, error)
}

// ImportFunc reloads the mentor pool.
type ImportFunc func(ctx context.Context) (*mentors.Result, error)

// Deps are the services behind the routes. ImportMentors may be nil.
type Deps struct {
	Intake        Intake
	Extractor     Extractor
	Chain         Chain
	Lifecycle     Lifecycle
	Matcher       Matcher
	Reader        Reader
	ImportMentors ImportFunc
}

// Server holds the HTTP handlers.
type Server struct {
	deps Deps
}

// New creates a Server.
func New(deps Deps) *Server {
	return &Server{deps: deps}
}

// Handler builds the router. allowedOrigins feeds CORS; empty allows none.
func (s *Server) Handler(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(90 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/webhooks/messages", s.inbound)

	r.Route("/v1", func(api chi.Router) {
		api.Get("/rubric", s.rubric)
		api.Post("/submissions", s.submit)
		api.Post("/extract", s.extract)

		api.Route("/candidates/{id}", func(c chi.Router) {
			c.Get("/", s.getCandidate)
			c.Post("/chain", s.startChain)
			c.Post("/answers", s.answer)
			c.Get("/progress", s.progress)
			c.Post("/promote", s.promote)
		})

		api.Get("/ideas", s.listIdeas)
		api.Post("/ideas", s.createIdea)
		api.Route("/ideas/{id}", func(i chi.Router) {
			i.Get("/", s.getIdea)
			i.Post("/analyze", s.analyze)
			i.Post("/advance", s.advance)
			i.Put("/assessment", s.assessment)
			i.Get("/transitions", s.transitions)
			i.Get("/matches", s.listMatches)
			i.Post("/matches", s.proposeMatches)
		})

		api.Post("/matches/{id}/approve", s.approve)
		api.Post("/matches/{id}/reject", s.reject)
		api.Post("/mentors/import", s.importMentors)
	})
	return r
}
