package post

import (
	"context"
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS communities (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS memberships (
	community_id BIGINT NOT NULL REFERENCES communities(id) ON DELETE CASCADE,
	user_id TEXT NOT NULL,
	PRIMARY KEY (community_id, user_id)
);

CREATE TABLE IF NOT EXISTS posts (
	id BIGSERIAL PRIMARY KEY,
	community_id BIGINT NOT NULL REFERENCES communities(id) ON DELETE CASCADE,
	author TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	tag TEXT,
	score INTEGER NOT NULL DEFAULT 0,
	comment_count INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_posts_created ON posts(created_at DESC, id DESC);

CREATE TABLE IF NOT EXISTS votes (
	post_id BIGINT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	user_id TEXT NOT NULL,
	direction SMALLINT NOT NULL CHECK (direction IN (-1, 1)),
	PRIMARY KEY (post_id, user_id)
);
`

// CreateSchema creates the post store tables when they are missing.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("post/schema: failed creating tables: %w", err)
	}
	return nil
}
