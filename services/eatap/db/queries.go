package db

import (
	"context"
	"database/sql"
)

type Queries struct {
	db *sql.DB
}

func New(db *sql.DB) *Queries {
	return &Queries{db: db}
}

type CreateOperationParams struct {
	Operation  string
	Resource   string
	Ok         bool
	Error      string
	DurationMs int64
	CreatedAt  int64
}

func (q *Queries) CreateOperation(ctx context.Context, params CreateOperationParams) error {
	_, err := q.db.ExecContext(
		ctx,
		`INSERT INTO portal_operations (operation, resource, ok, error, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		params.Operation,
		params.Resource,
		params.Ok,
		params.Error,
		params.DurationMs,
		params.CreatedAt,
	)
	return err
}

type Operation struct {
	ID         int64
	Operation  string
	Resource   string
	Ok         bool
	Error      string
	DurationMs int64
	CreatedAt  int64
}

func (q *Queries) GetRecentOperations(ctx context.Context, limit int64) ([]Operation, error) {
	rows, err := q.db.QueryContext(
		ctx,
		`SELECT id, operation, resource, ok, error, duration_ms, created_at
		 FROM portal_operations
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Operation
	for rows.Next() {
		var op Operation
		err := rows.Scan(
			&op.ID,
			&op.Operation,
			&op.Resource,
			&op.Ok,
			&op.Error,
			&op.DurationMs,
			&op.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, op)
	}
	return out, rows.Err()
}
