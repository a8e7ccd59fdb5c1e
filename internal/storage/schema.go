package storage

import (
	"context"
	"database/sql"
)

const schema = `
create table if not exists risk_assessments (
	id bigserial primary key,
	repo text not null,
	pr_number integer not null,
	score integer not null,
	severity text not null,
	findings jsonb not null default '[]'::jsonb,
	created_at timestamptz not null default now()
);

create index if not exists idx_risk_assessments_repo_created
	on risk_assessments (repo, created_at desc);
`

// EnsureSchema creates the assessments table if it does not exist yet
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
