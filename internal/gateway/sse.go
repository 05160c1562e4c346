package gateway

import (
	"encoding/json"
	"net/http"
)

// StreamWriter writes pre-framed messages and flushes each one immediately.
type StreamWriter struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

func NewStreamWriter(w http.ResponseWriter, contentType string) *StreamWriter {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	return &StreamWriter{
		w:  w,
		rc: http.NewResponseController(w),
	}
}

func (s *StreamWriter) WriteFrame(frame []byte) error {
	if _, err := s.w.Write(frame); err != nil {
		return err
	}
	return s.rc.Flush()
}

// SSEWriter sends JSON values as unnamed server-sent events.
type SSEWriter struct {
	*StreamWriter
}

func NewSSEWriter(w http.ResponseWriter) *SSEWriter {
	return &SSEWriter{NewStreamWriter(w, "text/event-stream")}
}

func (s *SSEWriter) Send(data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	frame := make([]byte, 0, len(b)+8)
	frame = append(frame, "data: "...)
	frame = append(frame, b...)
	frame = append(frame, "\n\n"...)
	return s.WriteFrame(frame)
}
