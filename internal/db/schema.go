package db

import "context"

const schema = `
CREATE TABLE IF NOT EXISTS issues (
	id              TEXT PRIMARY KEY,
	public_id       TEXT NOT NULL UNIQUE,
	phone           TEXT NOT NULL,
	category        TEXT NOT NULL,
	cluster         TEXT NOT NULL DEFAULT '',
	urgency         TEXT NOT NULL DEFAULT 'normal',
	escalated       BOOLEAN NOT NULL DEFAULT FALSE,
	status          TEXT NOT NULL DEFAULT 'Open',
	follow_ups      TEXT[] NOT NULL DEFAULT '{}',
	message_log     TEXT[] NOT NULL DEFAULT '{}',
	media_submitted BOOLEAN NOT NULL DEFAULT FALSE,
	media_urls      TEXT[] NOT NULL DEFAULT '{}',
	ai_diagnosis    TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_issues_phone_status ON issues (phone, status);

CREATE TABLE IF NOT EXISTS tenants (
	id         TEXT PRIMARY KEY,
	phone      TEXT NOT NULL UNIQUE,
	unit       TEXT NOT NULL DEFAULT 'Unknown',
	name       TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// EnsureSchema creates the issue and tenant tables when they do not exist.
// The unique index on public_id is what surfaces id collisions back to the
// reconciler's retry loop.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, schema)
	return err
}
