package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/ideaflow/internal/model"
)

// Column lists shared by both drivers. Scan order follows these.
const (
	candidateColumns = `id, raw_text, contact, session, fields, field_confidence, confidence_score,
		needs_clarification, clarification_field, clarification_question, status, promoted_idea_id,
		created_at, updated_at`
	ideaColumns       = `id, candidate_id, contact, fields, status, stage1_total, stage2_total, total_score, assessment, created_at, updated_at`
	questionColumns   = `id, candidate_id, ordinal, field_key, text, status, answer_text, asked_at, answered_at, created_at`
	mentorColumns     = `id, external_id, name, contact, expertise, categories, location, languages, bio, active, capacity, updated_at`
	matchColumns      = `m.id, m.idea_id, m.mentor_id, COALESCE(t.name, ''), m.match_score, m.reasons, m.status, m.created_at, m.updated_at`
	transitionColumns = `id, idea_id, from_status, to_status, reason, at`
)

type scanner interface {
	Scan(dest ...any) error
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows)
}

// toJSON encodes v, mapping empty maps and slices to SQL NULL.
func toJSON(v any) ([]byte, error) {
	switch t := v.(type) {
	case map[string]float64:
		if len(t) == 0 {
			return nil, nil
		}
	case map[string]int:
		if len(t) == 0 {
			return nil, nil
		}
	case []string:
		if len(t) == 0 {
			return nil, nil
		}
	}
	b, err := json.Marshal(v)
	return b, eris.Wrap(err, "store: encode json")
}

func fromJSON(b []byte, v any) error {
	if len(b) == 0 {
		return nil
	}
	return eris.Wrap(json.Unmarshal(b, v), "store: decode json")
}

func scanCandidate(row scanner) (*model.CandidateIdea, error) {
	var (
		c          model.CandidateIdea
		fields     []byte
		confidence []byte
		promoted   *string
	)
	err := row.Scan(&c.ID, &c.Raw.Text, &c.Raw.Contact, &c.Raw.Session, &fields, &confidence,
		&c.ConfidenceScore, &c.NeedsClarification, &c.ClarificationField, &c.ClarificationQuestion,
		&c.Status, &promoted, &c.CreatedAt, &c.UpdatedAt)
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: scan candidate")
	}
	if err := fromJSON(fields, &c.Fields); err != nil {
		return nil, err
	}
	if err := fromJSON(confidence, &c.FieldConfidence); err != nil {
		return nil, err
	}
	if promoted != nil {
		c.PromotedIdeaID = *promoted
	}
	return &c, nil
}

func scanIdea(row scanner) (*model.Idea, error) {
	var (
		i          model.Idea
		candidate  *string
		fields     []byte
		assessment []byte
	)
	err := row.Scan(&i.ID, &candidate, &i.Contact, &fields, &i.Status,
		&i.Scores.Stage1Total, &i.Scores.Stage2Total, &i.Scores.TotalScore, &assessment,
		&i.CreatedAt, &i.UpdatedAt)
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: scan idea")
	}
	if candidate != nil {
		i.CandidateID = *candidate
	}
	if err := fromJSON(fields, &i.Fields); err != nil {
		return nil, err
	}
	if err := fromJSON(assessment, &i.Assessment); err != nil {
		return nil, err
	}
	return &i, nil
}

func scanQuestion(row scanner) (*model.ClarificationQuestion, error) {
	var q model.ClarificationQuestion
	err := row.Scan(&q.ID, &q.CandidateID, &q.Ordinal, &q.FieldKey, &q.Text, &q.Status,
		&q.AnswerText, &q.AskedAt, &q.AnsweredAt, &q.CreatedAt)
	if err != nil {
		return nil, eris.Wrap(err, "store: scan question")
	}
	return &q, nil
}

func scanMentor(row scanner) (*model.Mentor, error) {
	var (
		m                               model.Mentor
		expertise, categories, language []byte
	)
	err := row.Scan(&m.ID, &m.ExternalID, &m.Name, &m.Contact, &expertise, &categories,
		&m.Location, &language, &m.Bio, &m.Active, &m.Capacity, &m.UpdatedAt)
	if err != nil {
		return nil, eris.Wrap(err, "store: scan mentor")
	}
	for _, p := range []struct {
		raw []byte
		dst *[]string
	}{{expertise, &m.Expertise}, {categories, &m.Categories}, {language, &m.Languages}} {
		if err := fromJSON(p.raw, p.dst); err != nil {
			return nil, err
		}
	}
	return &m, nil
}

func scanMatch(row scanner) (*model.MentorMatch, error) {
	var (
		m       model.MentorMatch
		reasons []byte
	)
	err := row.Scan(&m.ID, &m.IdeaID, &m.MentorID, &m.MentorName, &m.MatchScore, &reasons,
		&m.Status, &m.CreatedAt, &m.UpdatedAt)
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: scan match")
	}
	if err := fromJSON(reasons, &m.Reasons); err != nil {
		return nil, err
	}
	return &m, nil
}

func scanTransition(row scanner) (*model.Transition, error) {
	var t model.Transition
	if err := row.Scan(&t.ID, &t.IdeaID, &t.From, &t.To, &t.Reason, &t.At); err != nil {
		return nil, eris.Wrap(err, "store: scan transition")
	}
	return &t, nil
}

// candidateArgs returns insert arguments in candidateColumns order.
func candidateArgs(c *model.CandidateIdea) ([]any, error) {
	fields, err := toJSON(c.Fields)
	if err != nil {
		return nil, err
	}
	confidence, err := toJSON(c.FieldConfidence)
	if err != nil {
		return nil, err
	}
	var promoted *string
	if c.PromotedIdeaID != "" {
		promoted = &c.PromotedIdeaID
	}
	return []any{c.ID, c.Raw.Text, c.Raw.Contact, c.Raw.Session, fields, confidence, c.ConfidenceScore,
		c.NeedsClarification, c.ClarificationField, c.ClarificationQuestion, string(c.Status), promoted,
		c.CreatedAt, c.UpdatedAt}, nil
}

// ideaArgs returns insert arguments in ideaColumns order.
func ideaArgs(i *model.Idea) ([]any, error) {
	fields, err := toJSON(i.Fields)
	if err != nil {
		return nil, err
	}
	assessment, err := toJSON(i.Assessment)
	if err != nil {
		return nil, err
	}
	var candidate *string
	if i.CandidateID != "" {
		candidate = &i.CandidateID
	}
	return []any{i.ID, candidate, i.Contact, fields, string(i.Status), i.Scores.Stage1Total,
		i.Scores.Stage2Total, i.Scores.TotalScore, assessment, i.CreatedAt, i.UpdatedAt}, nil
}

func mentorArgs(m *model.Mentor) ([]any, error) {
	var out []any
	out = append(out, m.ID, m.ExternalID, m.Name, m.Contact)
	for _, list := range [][]string{m.Expertise, m.Categories} {
		b, err := toJSON(list)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	langs, err := toJSON(m.Languages)
	if err != nil {
		return nil, err
	}
	return append(out, m.Location, langs, m.Bio, m.Active, m.Capacity, m.UpdatedAt), nil
}

// stampIdea fills id-independent defaults on a new idea.
func stampIdea(i *model.Idea, now time.Time) {
	if i.Status == "" {
		i.Status = model.IdeaStatusSubmitted
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = now
	}
	i.UpdatedAt = now
}

// stampChain fills ids and timestamps on new chain questions. An asked
// question always carries asked_at so stale-chain sweeps can see it.
func stampChain(qs []model.ClarificationQuestion, now time.Time) {
	for i := range qs {
		q := &qs[i]
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		if q.CreatedAt.IsZero() {
			q.CreatedAt = now
		}
		if q.Status == model.QuestionStatusAsked && q.AskedAt == nil {
			at := now
			q.AskedAt = &at
		}
	}
}

func splitColumns(cols string) []string {
	parts := strings.Split(cols, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func itoa(n int) string { return strconv.Itoa(n) }
