package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/ideaflow/internal/db"
	"github.com/sells-group/ideaflow/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool sizing.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns, pgxCfg.MinConns = 10, 1
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			pgxCfg.MaxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			pgxCfg.MinConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// --- candidates ---

func (s *PostgresStore) CreateCandidate(ctx context.Context, c *model.CandidateIdea) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	if c.Status == "" {
		c.Status = model.CandidateStatusExtracted
	}
	args, err := candidateArgs(c)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO candidates (`+candidateColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`, args...)
	return eris.Wrap(err, "postgres: insert candidate")
}

func (s *PostgresStore) GetCandidate(ctx context.Context, id string) (*model.CandidateIdea, error) {
	c, err := scanCandidate(s.pool.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE id = $1`, id))
	return c, eris.Wrapf(err, "postgres: get candidate %s", id)
}

func (s *PostgresStore) LatestOpenCandidate(ctx context.Context, contact string) (*model.CandidateIdea, error) {
	c, err := scanCandidate(s.pool.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates
		WHERE contact = $1 AND promoted_idea_id IS NULL
		ORDER BY created_at DESC LIMIT 1`, contact))
	return c, eris.Wrap(err, "postgres: latest open candidate")
}

func (s *PostgresStore) ValidateCandidate(ctx context.Context, id string, fields model.IdeaFields) (bool, error) {
	b, err := toJSON(fields)
	if err != nil {
		return false, err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE candidates SET fields = $1, status = $2, updated_at = $3
		WHERE id = $4 AND status = $5`,
		b, string(model.CandidateStatusSpeakerValidated), time.Now().UTC(), id, string(model.CandidateStatusExtracted))
	if err != nil {
		return false, eris.Wrapf(err, "postgres: validate candidate %s", id)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) PromoteCandidate(ctx context.Context, candidateID string, idea *model.Idea) (string, bool, error) {
	if idea.ID == "" {
		idea.ID = uuid.NewString()
	}
	idea.CandidateID = candidateID
	now := time.Now().UTC()
	stampIdea(idea, now)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", false, eris.Wrap(err, "postgres: promote begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// The candidate row lock serializes concurrent promotions; the loser
	// sees promoted_idea_id already set once the winner commits.
	tag, err := tx.Exec(ctx,
		`UPDATE candidates SET promoted_idea_id = $1, status = $2, updated_at = $3
		WHERE id = $4 AND promoted_idea_id IS NULL`,
		idea.ID, string(model.CandidateStatusPromoted), now, candidateID)
	if err != nil {
		return "", false, eris.Wrapf(err, "postgres: link candidate %s", candidateID)
	}
	if tag.RowsAffected() == 0 {
		var winner *string
		err := tx.QueryRow(ctx, `SELECT promoted_idea_id FROM candidates WHERE id = $1`, candidateID).Scan(&winner)
		if isNoRows(err) {
			return "", false, eris.Wrapf(ErrNotFound, "postgres: promote candidate %s", candidateID)
		}
		if err != nil {
			return "", false, eris.Wrapf(err, "postgres: read promotion of %s", candidateID)
		}
		if winner == nil {
			return "", false, eris.Errorf("postgres: candidate %s lost promotion without a winner", candidateID)
		}
		return *winner, false, nil
	}

	if err := insertIdeaPG(ctx, tx, idea); err != nil {
		return "", false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", false, eris.Wrap(err, "postgres: promote commit")
	}
	return idea.ID, true, nil
}

// --- ideas ---

func (s *PostgresStore) CreateIdea(ctx context.Context, idea *model.Idea) error {
	if idea.ID == "" {
		idea.ID = uuid.NewString()
	}
	stampIdea(idea, time.Now().UTC())

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: create idea begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck
	if err := insertIdeaPG(ctx, tx, idea); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: create idea commit")
}

func insertIdeaPG(ctx context.Context, tx pgx.Tx, idea *model.Idea) error {
	args, err := ideaArgs(idea)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO ideas (`+ideaColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`, args...); err != nil {
		return eris.Wrap(err, "postgres: insert idea")
	}
	_, err = tx.Exec(ctx, `INSERT INTO idea_transitions (`+transitionColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.NewString(), idea.ID, "", string(idea.Status), "created", idea.CreatedAt)
	return eris.Wrap(err, "postgres: insert creation transition")
}

func (s *PostgresStore) GetIdea(ctx context.Context, id string) (*model.Idea, error) {
	i, err := scanIdea(s.pool.QueryRow(ctx, `SELECT `+ideaColumns+` FROM ideas WHERE id = $1`, id))
	return i, eris.Wrapf(err, "postgres: get idea %s", id)
}

func (s *PostgresStore) ListIdeas(ctx context.Context, f IdeaFilter) ([]model.Idea, error) {
	query := `SELECT ` + ideaColumns + ` FROM ideas WHERE 1=1`
	var args []any
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			statuses[i] = string(st)
		}
		args = append(args, statuses)
		query += ` AND status = ANY($` + itoa(len(args)) + `)`
	}
	if f.Contact != "" {
		args = append(args, f.Contact)
		query += ` AND contact = $` + itoa(len(args))
	}
	if !f.UpdatedBefore.IsZero() {
		args = append(args, f.UpdatedBefore)
		query += ` AND updated_at < $` + itoa(len(args))
	}
	args = append(args, limitOrDefault(f.Limit))
	query += ` ORDER BY created_at DESC LIMIT $` + itoa(len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list ideas")
	}
	defer rows.Close()

	var out []model.Idea
	for rows.Next() {
		i, err := scanIdea(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *i)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list ideas iterate")
}

func (s *PostgresStore) TransitionIdea(ctx context.Context, id string, from, to model.IdeaStatus, reason string) (bool, error) {
	now := time.Now().UTC()
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, eris.Wrap(err, "postgres: transition begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx, `UPDATE ideas SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		string(to), now, id, string(from))
	if err != nil {
		return false, eris.Wrapf(err, "postgres: transition idea %s", id)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	if _, err := tx.Exec(ctx, `INSERT INTO idea_transitions (`+transitionColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.NewString(), id, string(from), string(to), reason, now); err != nil {
		return false, eris.Wrapf(err, "postgres: audit transition %s", id)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, eris.Wrap(err, "postgres: transition commit")
	}
	return true, nil
}

func (s *PostgresStore) UpdateIdeaScores(ctx context.Context, id string, sc model.Scores) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE ideas SET stage1_total = $1, stage2_total = $2, total_score = $3, updated_at = $4 WHERE id = $5`,
		sc.Stage1Total, sc.Stage2Total, sc.TotalScore, time.Now().UTC(), id)
	if err != nil {
		return eris.Wrapf(err, "postgres: update scores %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: update scores %s", id)
	}
	return nil
}

func (s *PostgresStore) SetAssessment(ctx context.Context, id string, assessment map[string]int) error {
	b, err := toJSON(assessment)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `UPDATE ideas SET assessment = $1, updated_at = $2 WHERE id = $3`,
		b, time.Now().UTC(), id)
	if err != nil {
		return eris.Wrapf(err, "postgres: set assessment %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: set assessment %s", id)
	}
	return nil
}

func (s *PostgresStore) ListTransitions(ctx context.Context, ideaID string) ([]model.Transition, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+transitionColumns+` FROM idea_transitions WHERE idea_id = $1 ORDER BY at, id`, ideaID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list transitions")
	}
	defer rows.Close()

	var out []model.Transition
	for rows.Next() {
		t, err := scanTransition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list transitions iterate")
}

// --- clarification chains ---

func (s *PostgresStore) CreateChain(ctx context.Context, qs []model.ClarificationQuestion) (bool, error) {
	if len(qs) == 0 {
		return false, eris.New("postgres: empty chain")
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, eris.Wrap(err, "postgres: create chain begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	stampChain(qs, time.Now().UTC())
	for i := range qs {
		q := &qs[i]
		tag, err := tx.Exec(ctx, `INSERT INTO clarification_questions (`+questionColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (candidate_id, ordinal) DO NOTHING`,
			q.ID, q.CandidateID, q.Ordinal, q.FieldKey, q.Text, string(q.Status), q.AnswerText,
			q.AskedAt, q.AnsweredAt, q.CreatedAt)
		if err != nil {
			return false, eris.Wrapf(err, "postgres: insert question %d", q.Ordinal)
		}
		if tag.RowsAffected() == 0 {
			// Another caller already planned this chain.
			return false, nil
		}
	}
	return true, eris.Wrap(tx.Commit(ctx), "postgres: create chain commit")
}

func (s *PostgresStore) ListQuestions(ctx context.Context, candidateID string) ([]model.ClarificationQuestion, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM clarification_questions WHERE candidate_id = $1 ORDER BY ordinal`, candidateID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list questions")
	}
	defer rows.Close()

	var out []model.ClarificationQuestion
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list questions iterate")
}

func (s *PostgresStore) AskQuestion(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE clarification_questions SET status = $1, asked_at = $2 WHERE id = $3 AND status = $4`,
		string(model.QuestionStatusAsked), time.Now().UTC(), id, string(model.QuestionStatusPending))
	if err != nil {
		return false, eris.Wrapf(err, "postgres: ask question %s", id)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) AdvanceChain(ctx context.Context, answeredID string, status model.QuestionStatus, answer, nextID string) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, eris.Wrap(err, "postgres: advance chain begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	now := time.Now().UTC()
	tag, err := tx.Exec(ctx,
		`UPDATE clarification_questions SET status = $1, answer_text = $2, answered_at = $3
		WHERE id = $4 AND status = $5`,
		string(status), answer, now, answeredID, string(model.QuestionStatusAsked))
	if err != nil {
		return false, eris.Wrapf(err, "postgres: answer question %s", answeredID)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	if nextID != "" {
		if _, err := tx.Exec(ctx,
			`UPDATE clarification_questions SET status = $1, asked_at = $2 WHERE id = $3 AND status = $4`,
			string(model.QuestionStatusAsked), now, nextID, string(model.QuestionStatusPending)); err != nil {
			return false, eris.Wrapf(err, "postgres: ask question %s", nextID)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return false, eris.Wrap(err, "postgres: advance chain commit")
	}
	return true, nil
}

func (s *PostgresStore) StaleChains(ctx context.Context, before time.Time) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT candidate_id FROM clarification_questions WHERE status = $1 AND asked_at < $2`,
		string(model.QuestionStatusAsked), before)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: stale chains")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "postgres: scan stale chain")
		}
		ids = append(ids, id)
	}
	return ids, eris.Wrap(rows.Err(), "postgres: stale chains iterate")
}

func (s *PostgresStore) AbandonChain(ctx context.Context, candidateID string) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE clarification_questions SET status = $1, answered_at = $2
		WHERE candidate_id = $3 AND status IN ($4, $5)`,
		string(model.QuestionStatusSkipped), time.Now().UTC(), candidateID,
		string(model.QuestionStatusPending), string(model.QuestionStatusAsked))
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: abandon chain %s", candidateID)
	}
	return int(tag.RowsAffected()), nil
}

// --- mentors and matches ---

func (s *PostgresStore) UpsertMentors(ctx context.Context, mentors []model.Mentor) (int, error) {
	now := time.Now().UTC()
	rows := make([][]any, 0, len(mentors))
	for i := range mentors {
		m := &mentors[i]
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		m.UpdatedAt = now
		args, err := mentorArgs(m)
		if err != nil {
			return 0, err
		}
		rows = append(rows, args)
	}
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "mentors",
		Columns:      splitColumns(mentorColumns),
		ConflictKeys: []string{"external_id"},
		UpdateCols:   []string{"name", "contact", "expertise", "categories", "location", "languages", "bio", "active", "capacity", "updated_at"},
	}, rows)
	return int(n), eris.Wrap(err, "postgres: upsert mentors")
}

func (s *PostgresStore) ListMentors(ctx context.Context, activeOnly bool) ([]model.Mentor, error) {
	query := `SELECT ` + mentorColumns + ` FROM mentors`
	if activeOnly {
		query += ` WHERE active AND capacity > 0`
	}
	rows, err := s.pool.Query(ctx, query+` ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list mentors")
	}
	defer rows.Close()

	var out []model.Mentor
	for rows.Next() {
		m, err := scanMentor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list mentors iterate")
}

func (s *PostgresStore) CreateMatches(ctx context.Context, matches []model.MentorMatch) (int, error) {
	now := time.Now().UTC()
	rows := make([][]any, 0, len(matches))
	for i := range matches {
		m := &matches[i]
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		m.CreatedAt, m.UpdatedAt = now, now
		reasons, err := toJSON(m.Reasons)
		if err != nil {
			return 0, err
		}
		rows = append(rows, []any{m.ID, m.IdeaID, m.MentorID, m.MatchScore, reasons, string(m.Status), now, now})
	}
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "mentor_matches",
		Columns:      []string{"id", "idea_id", "mentor_id", "match_score", "reasons", "status", "created_at", "updated_at"},
		ConflictKeys: []string{"idea_id", "mentor_id"},
		DoNothing:    true,
	}, rows)
	return int(n), eris.Wrap(err, "postgres: create matches")
}

func (s *PostgresStore) GetMatch(ctx context.Context, id string) (*model.MentorMatch, error) {
	m, err := scanMatch(s.pool.QueryRow(ctx, `SELECT `+matchColumns+`
		FROM mentor_matches m LEFT JOIN mentors t ON t.id = m.mentor_id WHERE m.id = $1`, id))
	return m, eris.Wrapf(err, "postgres: get match %s", id)
}

func (s *PostgresStore) ListMatches(ctx context.Context, ideaID string) ([]model.MentorMatch, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+matchColumns+`
		FROM mentor_matches m LEFT JOIN mentors t ON t.id = m.mentor_id
		WHERE m.idea_id = $1 ORDER BY m.match_score DESC, t.name`, ideaID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list matches")
	}
	defer rows.Close()

	var out []model.MentorMatch
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list matches iterate")
}

func (s *PostgresStore) TransitionMatch(ctx context.Context, id string, from, to model.MatchStatus) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE mentor_matches SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		string(to), time.Now().UTC(), id, string(from))
	if err != nil {
		return false, eris.Wrapf(err, "postgres: transition match %s", id)
	}
	return tag.RowsAffected() == 1, nil
}
