package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/ideaflow/internal/lifecycle"
	"github.com/sells-group/ideaflow/internal/model"
	"github.com/sells-group/ideaflow/internal/score"
	"github.com/sells-group/ideaflow/internal/store"
)

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

type submitRequest struct {
	Text    string `json:"text"`
	Contact string `json:"contact"`
	Session string `json:"session"`
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	out, err := s.deps.Intake.Submit(r.Context(), model.RawSubmission(req))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) extract(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	cand, err := s.deps.Extractor.Extract(r.Context(), model.RawSubmission(req))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, cand)
}

type inboundRequest struct {
	Contact string `json:"contact"`
	Text    string `json:"text"`
}

func (s *Server) inbound(w http.ResponseWriter, r *http.Request) {
	var req inboundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Contact) == "" {
		badRequest(w, "contact is required")
		return
	}
	out, err := s.deps.Intake.HandleInbound(r.Context(), req.Contact, req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getCandidate(w http.ResponseWriter, r *http.Request) {
	cand, err := s.deps.Reader.GetCandidate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cand)
}

func (s *Server) startChain(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cand, err := s.deps.Reader.GetCandidate(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q, err := s.deps.Chain.StartChain(r.Context(), id, cand.Raw.Contact)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) answer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	p, err := s.deps.Chain.ProcessResponse(r.Context(), chi.URLParam(r, "id"), req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) progress(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.Chain.Progress(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) promote(w http.ResponseWriter, r *http.Request) {
	idea, err := s.deps.Intake.Promote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lifecycle.NewView(idea))
}

func (s *Server) listIdeas(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.IdeaFilter{Contact: q.Get("contact")}
	for _, raw := range q["status"] {
		st, ok := model.ParseIdeaStatus(raw)
		if !ok {
			badRequest(w, "unknown status "+strconv.Quote(raw))
			return
		}
		filter.Statuses = append(filter.Statuses, st)
	}
	if l := q.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			badRequest(w, "limit must be a non-negative integer")
			return
		}
		filter.Limit = n
	}

	ideas, err := s.deps.Reader.ListIdeas(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]lifecycle.View, len(ideas))
	for i := range ideas {
		views[i] = lifecycle.NewView(&ideas[i])
	}
	writeJSON(w, http.StatusOK, map[string]any{"ideas": views})
}

func (s *Server) createIdea(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Fields  model.IdeaFields `json:"fields"`
		Contact string           `json:"contact"`
	}
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	idea, err := s.deps.Lifecycle.Submit(r.Context(), req.Fields, req.Contact)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, lifecycle.NewView(idea))
}

func (s *Server) getIdea(w http.ResponseWriter, r *http.Request) {
	idea, err := s.deps.Lifecycle.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lifecycle.NewView(idea))
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	idea, err := s.deps.Lifecycle.Analyze(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lifecycle.NewView(idea))
}

func (s *Server) advance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	}
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	target, ok := model.ParseIdeaStatus(req.Status)
	if !ok {
		badRequest(w, "unknown status "+strconv.Quote(req.Status))
		return
	}
	idea, err := s.deps.Lifecycle.Advance(r.Context(), chi.URLParam(r, "id"), target, req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lifecycle.NewView(idea))
}

func (s *Server) assessment(w http.ResponseWriter, r *http.Request) {
	var sub map[string]int
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		badRequest(w, "body must be an object of integer sub-scores")
		return
	}
	idea, err := s.deps.Lifecycle.RecordAssessment(r.Context(), chi.URLParam(r, "id"), sub)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lifecycle.NewView(idea))
}

func (s *Server) transitions(w http.ResponseWriter, r *http.Request) {
	ts, err := s.deps.Lifecycle.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transitions": ts})
}

func (s *Server) proposeMatches(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			badRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	ms, err := s.deps.Matcher.Propose(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"matches": ms})
}

func (s *Server) listMatches(w http.ResponseWriter, r *http.Request) {
	ms, err := s.deps.Matcher.List(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"matches": ms})
}

func (s *Server) approve(w http.ResponseWriter, r *http.Request) {
	m, err := s.deps.Matcher.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) reject(w http.ResponseWriter, r *http.Request) {
	m, err := s.deps.Matcher.Reject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) importMentors(w http.ResponseWriter, r *http.Request) {
	if s.deps.ImportMentors == nil {
		writeJSON(w, http.StatusNotImplemented, errorBody{Error: "mentor import is not configured"})
		return
	}
	res, err := s.deps.ImportMentors(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) rubric(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"criteria": score.Criteria(),
		"tiers": []map[string]any{
			{"tier": score.TierExceptional, "min": score.ExceptionalMin},
			{"tier": score.TierQualified, "min": score.QualifiedMin},
			{"tier": score.TierDeveloping, "min": score.DevelopingMin},
			{"tier": score.TierPending, "min": 0},
		},
	})
}
