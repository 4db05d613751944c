package store

const postgresMigration = `
CREATE TABLE IF NOT EXISTS candidates (
	id                     TEXT PRIMARY KEY,
	raw_text               TEXT NOT NULL,
	contact                TEXT NOT NULL DEFAULT '',
	session                TEXT NOT NULL DEFAULT '',
	fields                 JSONB NOT NULL,
	field_confidence       JSONB,
	confidence_score       DOUBLE PRECISION NOT NULL,
	needs_clarification    BOOLEAN NOT NULL,
	clarification_field    TEXT NOT NULL DEFAULT '',
	clarification_question TEXT NOT NULL DEFAULT '',
	status                 TEXT NOT NULL DEFAULT 'extracted',
	promoted_idea_id       TEXT,
	created_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at             TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_candidates_contact ON candidates(contact, created_at DESC);

CREATE TABLE IF NOT EXISTS ideas (
	id           TEXT PRIMARY KEY,
	candidate_id TEXT UNIQUE REFERENCES candidates(id),
	contact      TEXT NOT NULL DEFAULT '',
	fields       JSONB NOT NULL,
	status       TEXT NOT NULL DEFAULT 'submitted',
	stage1_total INTEGER,
	stage2_total INTEGER,
	total_score  INTEGER NOT NULL DEFAULT 0,
	assessment   JSONB,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_ideas_status ON ideas(status, updated_at);

CREATE TABLE IF NOT EXISTS idea_transitions (
	id          TEXT PRIMARY KEY,
	idea_id     TEXT NOT NULL REFERENCES ideas(id),
	from_status TEXT NOT NULL,
	to_status   TEXT NOT NULL,
	reason      TEXT NOT NULL DEFAULT '',
	at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_idea_transitions_idea ON idea_transitions(idea_id, at);

CREATE TABLE IF NOT EXISTS clarification_questions (
	id           TEXT PRIMARY KEY,
	candidate_id TEXT NOT NULL REFERENCES candidates(id),
	ordinal      INTEGER NOT NULL,
	field_key    TEXT NOT NULL,
	text         TEXT NOT NULL,
	status       TEXT NOT NULL,
	answer_text  TEXT NOT NULL DEFAULT '',
	asked_at     TIMESTAMPTZ,
	answered_at  TIMESTAMPTZ,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (candidate_id, ordinal)
);

CREATE INDEX IF NOT EXISTS idx_questions_asked ON clarification_questions(status, asked_at);

CREATE TABLE IF NOT EXISTS mentors (
	id          TEXT PRIMARY KEY,
	external_id TEXT NOT NULL UNIQUE,
	name        TEXT NOT NULL,
	contact     TEXT NOT NULL DEFAULT '',
	expertise   JSONB,
	categories  JSONB,
	location    TEXT NOT NULL DEFAULT '',
	languages   JSONB,
	bio         TEXT NOT NULL DEFAULT '',
	active      BOOLEAN NOT NULL DEFAULT true,
	capacity    INTEGER NOT NULL DEFAULT 1,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS mentor_matches (
	id          TEXT PRIMARY KEY,
	idea_id     TEXT NOT NULL REFERENCES ideas(id),
	mentor_id   TEXT NOT NULL REFERENCES mentors(id),
	match_score DOUBLE PRECISION NOT NULL,
	reasons     JSONB,
	status      TEXT NOT NULL DEFAULT 'pending',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (idea_id, mentor_id)
);
`

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS candidates (
	id                     TEXT PRIMARY KEY,
	raw_text               TEXT NOT NULL,
	contact                TEXT NOT NULL DEFAULT '',
	session                TEXT NOT NULL DEFAULT '',
	fields                 TEXT NOT NULL,
	field_confidence       TEXT,
	confidence_score       REAL NOT NULL,
	needs_clarification    BOOLEAN NOT NULL,
	clarification_field    TEXT NOT NULL DEFAULT '',
	clarification_question TEXT NOT NULL DEFAULT '',
	status                 TEXT NOT NULL DEFAULT 'extracted',
	promoted_idea_id       TEXT,
	created_at             DATETIME NOT NULL,
	updated_at             DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_candidates_contact ON candidates(contact, created_at);

CREATE TABLE IF NOT EXISTS ideas (
	id           TEXT PRIMARY KEY,
	candidate_id TEXT UNIQUE REFERENCES candidates(id),
	contact      TEXT NOT NULL DEFAULT '',
	fields       TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'submitted',
	stage1_total INTEGER,
	stage2_total INTEGER,
	total_score  INTEGER NOT NULL DEFAULT 0,
	assessment   TEXT,
	created_at   DATETIME NOT NULL,
	updated_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ideas_status ON ideas(status, updated_at);

CREATE TABLE IF NOT EXISTS idea_transitions (
	id          TEXT PRIMARY KEY,
	idea_id     TEXT NOT NULL REFERENCES ideas(id),
	from_status TEXT NOT NULL,
	to_status   TEXT NOT NULL,
	reason      TEXT NOT NULL DEFAULT '',
	at          DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_idea_transitions_idea ON idea_transitions(idea_id, at);

CREATE TABLE IF NOT EXISTS clarification_questions (
	id           TEXT PRIMARY KEY,
	candidate_id TEXT NOT NULL REFERENCES candidates(id),
	ordinal      INTEGER NOT NULL,
	field_key    TEXT NOT NULL,
	text         TEXT NOT NULL,
	status       TEXT NOT NULL,
	answer_text  TEXT NOT NULL DEFAULT '',
	asked_at     DATETIME,
	answered_at  DATETIME,
	created_at   DATETIME NOT NULL,
	UNIQUE (candidate_id, ordinal)
);

CREATE INDEX IF NOT EXISTS idx_questions_asked ON clarification_questions(status, asked_at);

CREATE TABLE IF NOT EXISTS mentors (
	id          TEXT PRIMARY KEY,
	external_id TEXT NOT NULL UNIQUE,
	name        TEXT NOT NULL,
	contact     TEXT NOT NULL DEFAULT '',
	expertise   TEXT,
	categories  TEXT,
	location    TEXT NOT NULL DEFAULT '',
	languages   TEXT,
	bio         TEXT NOT NULL DEFAULT '',
	active      BOOLEAN NOT NULL DEFAULT 1,
	capacity    INTEGER NOT NULL DEFAULT 1,
	updated_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS mentor_matches (
	id          TEXT PRIMARY KEY,
	idea_id     TEXT NOT NULL REFERENCES ideas(id),
	mentor_id   TEXT NOT NULL REFERENCES mentors(id),
	match_score REAL NOT NULL,
	reasons     TEXT,
	status      TEXT NOT NULL DEFAULT 'pending',
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL,
	UNIQUE (idea_id, mentor_id)
);
`
