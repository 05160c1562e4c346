package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Session struct {
	ID        string
	Protocol  string
	CreatedAt int64
	UpdatedAt int64
}

type Run struct {
	ID           string
	SessionID    string
	Protocol     string
	Status       string
	MessageCount int64
	Error        sql.NullString
	StartedAt    int64
	FinishedAt   sql.NullInt64
}

const upsertSession = `
INSERT INTO sessions (id, protocol, created_at, updated_at)
VALUES (?1, ?2, ?3, ?3)
ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at
`

type UpsertSessionParams struct {
	ID       string
	Protocol string
	Now      int64
}

func (q *Queries) UpsertSession(ctx context.Context, arg UpsertSessionParams) error {
	_, err := q.db.ExecContext(ctx, upsertSession, arg.ID, arg.Protocol, arg.Now)
	return err
}

const insertRun = `
INSERT INTO runs (id, session_id, protocol, status, message_count, error, started_at, finished_at)
VALUES (?1, ?2, ?3, 'running', 0, NULL, ?4, NULL)
ON CONFLICT(id) DO UPDATE SET
    status = 'running',
    message_count = 0,
    error = NULL,
    started_at = excluded.started_at,
    finished_at = NULL
`

type InsertRunParams struct {
	ID        string
	SessionID string
	Protocol  string
	StartedAt int64
}

func (q *Queries) InsertRun(ctx context.Context, arg InsertRunParams) error {
	_, err := q.db.ExecContext(ctx, insertRun, arg.ID, arg.SessionID, arg.Protocol, arg.StartedAt)
	return err
}

const finishRun = `
UPDATE runs SET status = ?2, message_count = ?3, error = ?4, finished_at = ?5
WHERE id = ?1
`

type FinishRunParams struct {
	ID           string
	Status       string
	MessageCount int64
	Error        sql.NullString
	FinishedAt   int64
}

func (q *Queries) FinishRun(ctx context.Context, arg FinishRunParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, finishRun, arg.ID, arg.Status, arg.MessageCount, arg.Error, arg.FinishedAt)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getSession = `
SELECT id, protocol, created_at, updated_at FROM sessions WHERE id = ?1
`

func (q *Queries) GetSession(ctx context.Context, id string) (Session, error) {
	row := q.db.QueryRowContext(ctx, getSession, id)
	var s Session
	err := row.Scan(&s.ID, &s.Protocol, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

const listSessions = `
SELECT s.id, s.protocol, s.created_at, s.updated_at, COUNT(r.id) AS run_count
FROM sessions s
LEFT JOIN runs r ON r.session_id = s.id
GROUP BY s.id
ORDER BY s.updated_at DESC, s.id
LIMIT ?1
`

type ListSessionsRow struct {
	Session
	RunCount int64
}

func (q *Queries) ListSessions(ctx context.Context, limit int64) ([]ListSessionsRow, error) {
	rows, err := q.db.QueryContext(ctx, listSessions, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ListSessionsRow
	for rows.Next() {
		var i ListSessionsRow
		if err := rows.Scan(&i.ID, &i.Protocol, &i.CreatedAt, &i.UpdatedAt, &i.RunCount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

const listRunsBySession = `
SELECT id, session_id, protocol, status, message_count, error, started_at, finished_at
FROM runs
WHERE session_id = ?1
ORDER BY started_at, id
`

func (q *Queries) ListRunsBySession(ctx context.Context, sessionID string) ([]Run, error) {
	rows, err := q.db.QueryContext(ctx, listRunsBySession, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Run
	for rows.Next() {
		var i Run
		if err := rows.Scan(
			&i.ID,
			&i.SessionID,
			&i.Protocol,
			&i.Status,
			&i.MessageCount,
			&i.Error,
			&i.StartedAt,
			&i.FinishedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}
