// Package history records every streamed run in the SQLite ledger and reads
// it back for the sessions API.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"uibridge/internal/db"
)

var ErrNotFound = errors.New("session not found")

const (
	ProtocolA2UI = "a2ui"
	ProtocolAGUI = "agui"

	StatusRunning  = "running"
	StatusFinished = "finished"
	StatusError    = "error"
)

type Session struct {
	ID        string    `json:"id"`
	Protocol  string    `json:"protocol"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	RunCount  int       `json:"runCount"`
	Runs      []Run     `json:"runs,omitempty"`
}

type Run struct {
	ID           string     `json:"id"`
	Protocol     string     `json:"protocol"`
	Status       string     `json:"status"`
	MessageCount int        `json:"messageCount"`
	Error        string     `json:"error,omitempty"`
	StartedAt    time.Time  `json:"startedAt"`
	FinishedAt   *time.Time `json:"finishedAt,omitempty"`
}

type Store struct {
	q   *db.Queries
	now func() time.Time
}

func NewStore(database *db.DB) *Store {
	return &Store{q: db.New(database.Conn()), now: time.Now}
}

// BeginRun records a run as running, creating its session if needed. Starting
// a run id that already exists resets it.
func (s *Store) BeginRun(ctx context.Context, sessionID, runID, protocol string) error {
	now := s.now().UnixMilli()
	if err := s.q.UpsertSession(ctx, db.UpsertSessionParams{
		ID:       sessionID,
		Protocol: protocol,
		Now:      now,
	}); err != nil {
		return fmt.Errorf("upsert session %s: %w", sessionID, err)
	}
	if err := s.q.InsertRun(ctx, db.InsertRunParams{
		ID:        runID,
		SessionID: sessionID,
		Protocol:  protocol,
		StartedAt: now,
	}); err != nil {
		return fmt.Errorf("insert run %s: %w", runID, err)
	}
	return nil
}

// FinishRun marks a run finished, or errored when runErr is non-nil.
func (s *Store) FinishRun(ctx context.Context, runID string, messages int, runErr error) error {
	arg := db.FinishRunParams{
		ID:           runID,
		Status:       StatusFinished,
		MessageCount: int64(messages),
		FinishedAt:   s.now().UnixMilli(),
	}
	if runErr != nil {
		arg.Status = StatusError
		arg.Error = sql.NullString{String: runErr.Error(), Valid: true}
	}
	n, err := s.q.FinishRun(ctx, arg)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %s: no such run", runID)
	}
	return nil
}

func (s *Store) ListSessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.q.ListSessions(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	out := make([]Session, 0, len(rows))
	for _, r := range rows {
		sess := sessionFromRow(r.Session)
		sess.RunCount = int(r.RunCount)
		out = append(out, sess)
	}
	return out, nil
}

// GetSession returns a session with its runs, oldest first.
func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	row, err := s.q.GetSession(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	runs, err := s.q.ListRunsBySession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list runs for %s: %w", id, err)
	}

	sess := sessionFromRow(row)
	sess.RunCount = len(runs)
	sess.Runs = make([]Run, 0, len(runs))
	for _, r := range runs {
		run := Run{
			ID:           r.ID,
			Protocol:     r.Protocol,
			Status:       r.Status,
			MessageCount: int(r.MessageCount),
			Error:        r.Error.String,
			StartedAt:    time.UnixMilli(r.StartedAt).UTC(),
		}
		if r.FinishedAt.Valid {
			t := time.UnixMilli(r.FinishedAt.Int64).UTC()
			run.FinishedAt = &t
		}
		sess.Runs = append(sess.Runs, run)
	}
	return &sess, nil
}

func sessionFromRow(r db.Session) Session {
	return Session{
		ID:        r.ID,
		Protocol:  r.Protocol,
		CreatedAt: time.UnixMilli(r.CreatedAt).UTC(),
		UpdatedAt: time.UnixMilli(r.UpdatedAt).UTC(),
	}
}
