package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"uibridge/internal/a2ui"
	"uibridge/internal/agui"
	"uibridge/internal/history"
)

func (s *Server) handleA2UI(w http.ResponseWriter, r *http.Request) {
	var req a2ui.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.SurfaceID == "" {
		req.SurfaceID = a2ui.NewSurfaceID()
	}
	runID := uuid.NewString()
	s.beginRun(r.Context(), req.SurfaceID, runID, history.ProtocolA2UI)

	sse := NewSSEWriter(w)
	sent := 0
	err := s.a2ui.Run(r.Context(), req, func(rec a2ui.Record) error {
		sent++
		return sse.Send(rec)
	})
	s.finishRun(r.Context(), runID, sent, err)
}

func (s *Server) handleAGUI(w http.ResponseWriter, r *http.Request) {
	var in agui.RunAgentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	in.EnsureIDs()
	s.beginRun(r.Context(), in.ThreadID, in.RunID, history.ProtocolAGUI)

	enc := agui.NewEncoder(r.Header.Get("Accept"))
	sw := NewStreamWriter(w, enc.ContentType())
	sent := 0
	err := s.agui.Run(r.Context(), in, func(ev agui.Event) error {
		frame, err := enc.Encode(ev)
		if err != nil {
			return err
		}
		sent++
		return sw.WriteFrame(frame)
	})
	s.finishRun(r.Context(), in.RunID, sent, err)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	if s.ledger == nil {
		writeError(w, http.StatusServiceUnavailable, "run ledger disabled")
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	sessions, err := s.ledger.ListSessions(r.Context(), limit)
	if err != nil {
		slog.Error("list sessions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []history.Session{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	if s.ledger == nil {
		writeError(w, http.StatusServiceUnavailable, "run ledger disabled")
		return
	}
	id := r.PathValue("id")
	sess, err := s.ledger.GetSession(r.Context(), id)
	if errors.Is(err, history.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		slog.Error("get session", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ledger failures are logged and never reach the client stream.

func (s *Server) beginRun(ctx context.Context, sessionID, runID, protocol string) {
	if s.ledger == nil {
		return
	}
	if err := s.ledger.BeginRun(ctx, sessionID, runID, protocol); err != nil {
		slog.Warn("failed to record run start", "session_id", sessionID, "run_id", runID, "error", err)
	}
}

func (s *Server) finishRun(ctx context.Context, runID string, sent int, runErr error) {
	if s.ledger == nil {
		return
	}
	// The request context is usually done by now.
	ctx = context.WithoutCancel(ctx)
	if err := s.ledger.FinishRun(ctx, runID, sent, runErr); err != nil {
		slog.Warn("failed to record run end", "run_id", runID, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("write json response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
