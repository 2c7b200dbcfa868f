package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"entgo.io/ent/dialect"
)

// Timestamps are stored as unix milliseconds in both dialects.

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS users (
  chat_id      INTEGER PRIMARY KEY,
  phone_number TEXT NOT NULL DEFAULT '',
  display_name TEXT NOT NULL DEFAULT '',
  username     TEXT NOT NULL DEFAULT '',
  created_at   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS categories (
  id          INTEGER PRIMARY KEY AUTOINCREMENT,
  name        TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  created_at  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS questions (
  id          INTEGER PRIMARY KEY AUTOINCREMENT,
  category_id INTEGER NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
  text        TEXT NOT NULL,
  order_num   INTEGER NOT NULL DEFAULT 0,
  created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_questions_category ON questions(category_id, order_num, id);

CREATE TABLE IF NOT EXISTS answers (
  id          INTEGER PRIMARY KEY AUTOINCREMENT,
  question_id INTEGER NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
  text        TEXT NOT NULL,
  value       INTEGER NOT NULL,
  created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_answers_question ON answers(question_id, value, id);

CREATE TABLE IF NOT EXISTS category_responses (
  id            INTEGER PRIMARY KEY AUTOINCREMENT,
  category_id   INTEGER NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
  min_score     INTEGER NOT NULL,
  max_score     INTEGER NOT NULL,
  title         TEXT NOT NULL DEFAULT '',
  response_text TEXT NOT NULL,
  created_at    INTEGER NOT NULL,
  CHECK (min_score <= max_score)
);
CREATE INDEX IF NOT EXISTS idx_category_responses_category ON category_responses(category_id, min_score, id);

CREATE TABLE IF NOT EXISTS test_sessions (
  id           INTEGER PRIMARY KEY AUTOINCREMENT,
  user_chat_id INTEGER NOT NULL REFERENCES users(chat_id),
  category_id  INTEGER NOT NULL,
  total_score  INTEGER NOT NULL DEFAULT 0,
  completed    BOOLEAN NOT NULL DEFAULT FALSE,
  created_at   INTEGER NOT NULL,
  completed_at INTEGER
);
CREATE INDEX IF NOT EXISTS idx_test_sessions_user ON test_sessions(user_chat_id, completed);

CREATE TABLE IF NOT EXISTS user_responses (
  id           INTEGER PRIMARY KEY AUTOINCREMENT,
  user_chat_id INTEGER NOT NULL,
  category_id  INTEGER NOT NULL,
  session_id   INTEGER NOT NULL REFERENCES test_sessions(id),
  question_id  INTEGER NOT NULL,
  answer_id    INTEGER NOT NULL,
  value        INTEGER NOT NULL,
  created_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_user_responses_session ON user_responses(session_id);
CREATE UNIQUE INDEX IF NOT EXISTS uq_user_responses_session_question ON user_responses(session_id, question_id);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS users (
  chat_id      BIGINT PRIMARY KEY,
  phone_number TEXT NOT NULL DEFAULT '',
  display_name TEXT NOT NULL DEFAULT '',
  username     TEXT NOT NULL DEFAULT '',
  created_at   BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS categories (
  id          BIGSERIAL PRIMARY KEY,
  name        TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  created_at  BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS questions (
  id          BIGSERIAL PRIMARY KEY,
  category_id BIGINT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
  text        TEXT NOT NULL,
  order_num   INTEGER NOT NULL DEFAULT 0,
  created_at  BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_questions_category ON questions(category_id, order_num, id);

CREATE TABLE IF NOT EXISTS answers (
  id          BIGSERIAL PRIMARY KEY,
  question_id BIGINT NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
  text        TEXT NOT NULL,
  value       INTEGER NOT NULL,
  created_at  BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_answers_question ON answers(question_id, value, id);

CREATE TABLE IF NOT EXISTS category_responses (
  id            BIGSERIAL PRIMARY KEY,
  category_id   BIGINT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
  min_score     INTEGER NOT NULL,
  max_score     INTEGER NOT NULL,
  title         TEXT NOT NULL DEFAULT '',
  response_text TEXT NOT NULL,
  created_at    BIGINT NOT NULL,
  CHECK (min_score <= max_score)
);
CREATE INDEX IF NOT EXISTS idx_category_responses_category ON category_responses(category_id, min_score, id);

CREATE TABLE IF NOT EXISTS test_sessions (
  id           BIGSERIAL PRIMARY KEY,
  user_chat_id BIGINT NOT NULL REFERENCES users(chat_id),
  category_id  BIGINT NOT NULL,
  total_score  INTEGER NOT NULL DEFAULT 0,
  completed    BOOLEAN NOT NULL DEFAULT FALSE,
  created_at   BIGINT NOT NULL,
  completed_at BIGINT
);
CREATE INDEX IF NOT EXISTS idx_test_sessions_user ON test_sessions(user_chat_id, completed);

CREATE TABLE IF NOT EXISTS user_responses (
  id           BIGSERIAL PRIMARY KEY,
  user_chat_id BIGINT NOT NULL,
  category_id  BIGINT NOT NULL,
  session_id   BIGINT NOT NULL REFERENCES test_sessions(id),
  question_id  BIGINT NOT NULL,
  answer_id    BIGINT NOT NULL,
  value        INTEGER NOT NULL,
  created_at   BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_user_responses_session ON user_responses(session_id);
CREATE UNIQUE INDEX IF NOT EXISTS uq_user_responses_session_question ON user_responses(session_id, question_id);
`

// Migrate applies the idempotent schema for the store's dialect.
func (s *Store) Migrate(ctx context.Context) error {
	var schema string
	switch s.dialect {
	case dialect.SQLite:
		schema = schemaSQLite
	case dialect.Postgres:
		schema = schemaPostgres
	default:
		return fmt.Errorf("migrate: unsupported dialect %q", s.dialect)
	}

	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := exec(ctx, s.drv, stmt, nil); err != nil {
			return fmt.Errorf("migrate: %s: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
