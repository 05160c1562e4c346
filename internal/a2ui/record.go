// Package a2ui streams A2UI v0.8 server messages out of a model's JSONL text
// output.
package a2ui

import (
	"strings"

	"github.com/google/uuid"
)

const (
	TypeBeginRendering  = "beginRendering"
	TypeSurfaceUpdate   = "surfaceUpdate"
	TypeDataModelUpdate = "dataModelUpdate"
	TypeDone            = "done"
	TypeError           = "error"
)

// Record is one A2UI server message as decoded from a JSONL line. Fields the
// bridge does not know about are kept as-is.
type Record map[string]any

// Type returns the record's type field, or "" when it is absent or not a string.
func (r Record) Type() string {
	s, _ := r["type"].(string)
	return s
}

func DoneRecord() Record {
	return Record{"type": TypeDone}
}

func ErrorRecord(message string) Record {
	return Record{"type": TypeError, "message": message}
}

// NewSurfaceID returns an id of the form "surface-1a2b3c4d".
func NewSurfaceID() string {
	return "surface-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
