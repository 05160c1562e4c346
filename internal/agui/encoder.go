package agui

import (
	"encoding/json"
	"mime"
	"strings"
)

const (
	ContentTypeSSE    = "text/event-stream"
	ContentTypeNDJSON = "application/x-ndjson"
)

// Encoder frames events for the wire format the client asked for.
type Encoder struct {
	contentType string
}

// NewEncoder picks the first supported media type in an Accept header,
// falling back to server-sent events.
func NewEncoder(accept string) *Encoder {
	for _, part := range strings.Split(accept, ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		switch mt {
		case ContentTypeSSE, ContentTypeNDJSON:
			return &Encoder{contentType: mt}
		}
	}
	return &Encoder{contentType: ContentTypeSSE}
}

func (e *Encoder) ContentType() string { return e.contentType }

// Encode returns one complete frame for ev.
func (e *Encoder) Encode(ev Event) ([]byte, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	if e.contentType == ContentTypeNDJSON {
		return append(b, '\n'), nil
	}
	frame := make([]byte, 0, len(b)+8)
	frame = append(frame, "data: "...)
	frame = append(frame, b...)
	return append(frame, "\n\n"...), nil
}
