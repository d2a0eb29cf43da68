package db

import "context"

const schema = `
CREATE TABLE IF NOT EXISTS track_exports (
	id          UUID PRIMARY KEY,
	name        TEXT NOT NULL,
	document    TEXT NOT NULL,
	point_count INTEGER NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Migrate creates the tables the service writes to.
func Migrate(ctx context.Context, q Querier) error {
	_, err := q.Exec(ctx, schema)
	return err
}
