package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/ideaflow/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
// A single connection serializes writers, so conditional updates never race
// on SQLITE_BUSY.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- candidates ---

func (s *SQLiteStore) CreateCandidate(ctx context.Context, c *model.CandidateIdea) error {
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
	_, err = s.db.ExecContext(ctx, `INSERT INTO candidates (`+candidateColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, textJSON(args)...)
	return eris.Wrap(err, "sqlite: insert candidate")
}

func (s *SQLiteStore) GetCandidate(ctx context.Context, id string) (*model.CandidateIdea, error) {
	c, err := scanCandidate(s.db.QueryRowContext(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE id = ?`, id))
	return c, eris.Wrapf(err, "sqlite: get candidate %s", id)
}

func (s *SQLiteStore) LatestOpenCandidate(ctx context.Context, contact string) (*model.CandidateIdea, error) {
	c, err := scanCandidate(s.db.QueryRowContext(ctx,
		`SELECT `+candidateColumns+` FROM candidates
		WHERE contact = ? AND promoted_idea_id IS NULL
		ORDER BY created_at DESC, rowid DESC LIMIT 1`, contact))
	return c, eris.Wrap(err, "sqlite: latest open candidate")
}

func (s *SQLiteStore) ValidateCandidate(ctx context.Context, id string, fields model.IdeaFields) (bool, error) {
	b, err := toJSON(fields)
	if err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE candidates SET fields = ?, status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(b), string(model.CandidateStatusSpeakerValidated), time.Now().UTC(), id, string(model.CandidateStatusExtracted))
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: validate candidate %s", id)
	}
	return affectedOne(res)
}

func (s *SQLiteStore) PromoteCandidate(ctx context.Context, candidateID string, idea *model.Idea) (string, bool, error) {
	if idea.ID == "" {
		idea.ID = uuid.NewString()
	}
	idea.CandidateID = candidateID
	now := time.Now().UTC()
	stampIdea(idea, now)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", false, eris.Wrap(err, "sqlite: promote begin")
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`UPDATE candidates SET promoted_idea_id = ?, status = ?, updated_at = ?
		WHERE id = ? AND promoted_idea_id IS NULL`,
		idea.ID, string(model.CandidateStatusPromoted), now, candidateID)
	if err != nil {
		return "", false, eris.Wrapf(err, "sqlite: link candidate %s", candidateID)
	}
	won, err := affectedOne(res)
	if err != nil {
		return "", false, err
	}
	if !won {
		var winner *string
		err := tx.QueryRowContext(ctx, `SELECT promoted_idea_id FROM candidates WHERE id = ?`, candidateID).Scan(&winner)
		if isNoRows(err) {
			return "", false, eris.Wrapf(ErrNotFound, "sqlite: promote candidate %s", candidateID)
		}
		if err != nil {
			return "", false, eris.Wrapf(err, "sqlite: read promotion of %s", candidateID)
		}
		if winner == nil {
			return "", false, eris.Errorf("sqlite: candidate %s lost promotion without a winner", candidateID)
		}
		return *winner, false, nil
	}

	if err := insertIdeaSQLite(ctx, tx, idea); err != nil {
		return "", false, err
	}
	if err := tx.Commit(); err != nil {
		return "", false, eris.Wrap(err, "sqlite: promote commit")
	}
	return idea.ID, true, nil
}

// --- ideas ---

func (s *SQLiteStore) CreateIdea(ctx context.Context, idea *model.Idea) error {
	if idea.ID == "" {
		idea.ID = uuid.NewString()
	}
	stampIdea(idea, time.Now().UTC())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: create idea begin")
	}
	defer tx.Rollback() //nolint:errcheck
	if err := insertIdeaSQLite(ctx, tx, idea); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(), "sqlite: create idea commit")
}

func insertIdeaSQLite(ctx context.Context, tx *sql.Tx, idea *model.Idea) error {
	args, err := ideaArgs(idea)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO ideas (`+ideaColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, textJSON(args)...); err != nil {
		return eris.Wrap(err, "sqlite: insert idea")
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO idea_transitions (`+transitionColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), idea.ID, "", string(idea.Status), "created", idea.CreatedAt)
	return eris.Wrap(err, "sqlite: insert creation transition")
}

func (s *SQLiteStore) GetIdea(ctx context.Context, id string) (*model.Idea, error) {
	i, err := scanIdea(s.db.QueryRowContext(ctx, `SELECT `+ideaColumns+` FROM ideas WHERE id = ?`, id))
	return i, eris.Wrapf(err, "sqlite: get idea %s", id)
}

func (s *SQLiteStore) ListIdeas(ctx context.Context, f IdeaFilter) ([]model.Idea, error) {
	query := `SELECT ` + ideaColumns + ` FROM ideas WHERE 1=1`
	var args []any
	if len(f.Statuses) > 0 {
		query += ` AND status IN (?` + strings.Repeat(", ?", len(f.Statuses)-1) + `)`
		for _, st := range f.Statuses {
			args = append(args, string(st))
		}
	}
	if f.Contact != "" {
		query += ` AND contact = ?`
		args = append(args, f.Contact)
	}
	if !f.UpdatedBefore.IsZero() {
		query += ` AND updated_at < ?`
		args = append(args, f.UpdatedBefore.UTC())
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limitOrDefault(f.Limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list ideas")
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
	return out, eris.Wrap(rows.Err(), "sqlite: list ideas iterate")
}

func (s *SQLiteStore) TransitionIdea(ctx context.Context, id string, from, to model.IdeaStatus, reason string) (bool, error) {
	now := time.Now().UTC()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: transition begin")
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `UPDATE ideas SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to), now, id, string(from))
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: transition idea %s", id)
	}
	if won, err := affectedOne(res); err != nil || !won {
		return false, err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO idea_transitions (`+transitionColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), id, string(from), string(to), reason, now); err != nil {
		return false, eris.Wrapf(err, "sqlite: audit transition %s", id)
	}
	if err := tx.Commit(); err != nil {
		return false, eris.Wrap(err, "sqlite: transition commit")
	}
	return true, nil
}

func (s *SQLiteStore) UpdateIdeaScores(ctx context.Context, id string, sc model.Scores) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE ideas SET stage1_total = ?, stage2_total = ?, total_score = ?, updated_at = ? WHERE id = ?`,
		sc.Stage1Total, sc.Stage2Total, sc.TotalScore, time.Now().UTC(), id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update scores %s", id)
	}
	return mustAffect(res, "sqlite: update scores "+id)
}

func (s *SQLiteStore) SetAssessment(ctx context.Context, id string, assessment map[string]int) error {
	b, err := toJSON(assessment)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE ideas SET assessment = ?, updated_at = ? WHERE id = ?`,
		nullText(b), time.Now().UTC(), id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set assessment %s", id)
	}
	return mustAffect(res, "sqlite: set assessment "+id)
}

func (s *SQLiteStore) ListTransitions(ctx context.Context, ideaID string) ([]model.Transition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transitionColumns+` FROM idea_transitions WHERE idea_id = ? ORDER BY at, rowid`, ideaID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list transitions")
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
	return out, eris.Wrap(rows.Err(), "sqlite: list transitions iterate")
}

// --- clarification chains ---

func (s *SQLiteStore) CreateChain(ctx context.Context, qs []model.ClarificationQuestion) (bool, error) {
	if len(qs) == 0 {
		return false, eris.New("sqlite: empty chain")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: create chain begin")
	}
	defer tx.Rollback() //nolint:errcheck

	stampChain(qs, time.Now().UTC())
	for i := range qs {
		q := &qs[i]
		res, err := tx.ExecContext(ctx, `INSERT INTO clarification_questions (`+questionColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (candidate_id, ordinal) DO NOTHING`,
			q.ID, q.CandidateID, q.Ordinal, q.FieldKey, q.Text, string(q.Status), q.AnswerText,
			q.AskedAt, q.AnsweredAt, q.CreatedAt)
		if err != nil {
			return false, eris.Wrapf(err, "sqlite: insert question %d", q.Ordinal)
		}
		if won, err := affectedOne(res); err != nil || !won {
			return false, err
		}
	}
	return true, eris.Wrap(tx.Commit(), "sqlite: create chain commit")
}

func (s *SQLiteStore) ListQuestions(ctx context.Context, candidateID string) ([]model.ClarificationQuestion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+questionColumns+` FROM clarification_questions WHERE candidate_id = ? ORDER BY ordinal`, candidateID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list questions")
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
	return out, eris.Wrap(rows.Err(), "sqlite: list questions iterate")
}

func (s *SQLiteStore) AskQuestion(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE clarification_questions SET status = ?, asked_at = ? WHERE id = ? AND status = ?`,
		string(model.QuestionStatusAsked), time.Now().UTC(), id, string(model.QuestionStatusPending))
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: ask question %s", id)
	}
	return affectedOne(res)
}

func (s *SQLiteStore) AdvanceChain(ctx context.Context, answeredID string, status model.QuestionStatus, answer, nextID string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: advance chain begin")
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`UPDATE clarification_questions SET status = ?, answer_text = ?, answered_at = ? WHERE id = ? AND status = ?`,
		string(status), answer, now, answeredID, string(model.QuestionStatusAsked))
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: answer question %s", answeredID)
	}
	if won, err := affectedOne(res); err != nil || !won {
		return false, err
	}
	if nextID != "" {
		if _, err := tx.ExecContext(ctx,
			`UPDATE clarification_questions SET status = ?, asked_at = ? WHERE id = ? AND status = ?`,
			string(model.QuestionStatusAsked), now, nextID, string(model.QuestionStatusPending)); err != nil {
			return false, eris.Wrapf(err, "sqlite: ask question %s", nextID)
		}
	}
	return true, eris.Wrap(tx.Commit(), "sqlite: advance chain commit")
}

func (s *SQLiteStore) StaleChains(ctx context.Context, before time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT candidate_id FROM clarification_questions WHERE status = ? AND asked_at < ?`,
		string(model.QuestionStatusAsked), before.UTC())
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: stale chains")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan stale chain")
		}
		ids = append(ids, id)
	}
	return ids, eris.Wrap(rows.Err(), "sqlite: stale chains iterate")
}

func (s *SQLiteStore) AbandonChain(ctx context.Context, candidateID string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE clarification_questions SET status = ?, answered_at = ? WHERE candidate_id = ? AND status IN (?, ?)`,
		string(model.QuestionStatusSkipped), time.Now().UTC(), candidateID,
		string(model.QuestionStatusPending), string(model.QuestionStatusAsked))
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: abandon chain %s", candidateID)
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

// --- mentors and matches ---

func (s *SQLiteStore) UpsertMentors(ctx context.Context, mentors []model.Mentor) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert mentors begin")
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	n := 0
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
		res, err := tx.ExecContext(ctx, `INSERT INTO mentors (`+mentorColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (external_id) DO UPDATE SET
				name = excluded.name, contact = excluded.contact, expertise = excluded.expertise,
				categories = excluded.categories, location = excluded.location, languages = excluded.languages,
				bio = excluded.bio, active = excluded.active, capacity = excluded.capacity,
				updated_at = excluded.updated_at`, textJSON(args)...)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert mentor %s", m.ExternalID)
		}
		c, _ := res.RowsAffected()
		n += int(c)
	}
	return n, eris.Wrap(tx.Commit(), "sqlite: upsert mentors commit")
}

func (s *SQLiteStore) ListMentors(ctx context.Context, activeOnly bool) ([]model.Mentor, error) {
	query := `SELECT ` + mentorColumns + ` FROM mentors`
	if activeOnly {
		query += ` WHERE active = 1 AND capacity > 0`
	}
	rows, err := s.db.QueryContext(ctx, query+` ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list mentors")
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
	return out, eris.Wrap(rows.Err(), "sqlite: list mentors iterate")
}

func (s *SQLiteStore) CreateMatches(ctx context.Context, matches []model.MentorMatch) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: create matches begin")
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	n := 0
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
		res, err := tx.ExecContext(ctx, `INSERT INTO mentor_matches
			(id, idea_id, mentor_id, match_score, reasons, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (idea_id, mentor_id) DO NOTHING`,
			m.ID, m.IdeaID, m.MentorID, m.MatchScore, nullText(reasons), string(m.Status), now, now)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert match %s/%s", m.IdeaID, m.MentorID)
		}
		c, _ := res.RowsAffected()
		n += int(c)
	}
	return n, eris.Wrap(tx.Commit(), "sqlite: create matches commit")
}

func (s *SQLiteStore) GetMatch(ctx context.Context, id string) (*model.MentorMatch, error) {
	m, err := scanMatch(s.db.QueryRowContext(ctx, `SELECT `+matchColumns+`
		FROM mentor_matches m LEFT JOIN mentors t ON t.id = m.mentor_id WHERE m.id = ?`, id))
	return m, eris.Wrapf(err, "sqlite: get match %s", id)
}

func (s *SQLiteStore) ListMatches(ctx context.Context, ideaID string) ([]model.MentorMatch, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+matchColumns+`
		FROM mentor_matches m LEFT JOIN mentors t ON t.id = m.mentor_id
		WHERE m.idea_id = ? ORDER BY m.match_score DESC, t.name`, ideaID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list matches")
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
	return out, eris.Wrap(rows.Err(), "sqlite: list matches iterate")
}

func (s *SQLiteStore) TransitionMatch(ctx context.Context, id string, from, to model.MatchStatus) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE mentor_matches SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to), time.Now().UTC(), id, string(from))
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: transition match %s", id)
	}
	return affectedOne(res)
}

// helpers

func affectedOne(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: rows affected")
	}
	return n == 1, nil
}

func mustAffect(res sql.Result, op string) error {
	won, err := affectedOne(res)
	if err != nil {
		return err
	}
	if !won {
		return eris.Wrap(ErrNotFound, op)
	}
	return nil
}

// nullText stores JSON as TEXT so json_extract and readers see a string.
func nullText(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}

// textJSON converts []byte arguments into TEXT values.
func textJSON(args []any) []any {
	for i, a := range args {
		if b, ok := a.([]byte); ok {
			args[i] = nullText(b)
		}
	}
	return args
}
