package a2ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	tests := []struct {
		name string
		line string
		ok   bool
	}{
		{"begin rendering", `{"type":"beginRendering","surfaceId":"s","rootComponentId":"root"}`, true},
		{"begin rendering without root", `{"type":"beginRendering","surfaceId":"s"}`, false},
		{"surface update", `{"type":"surfaceUpdate","surfaceId":"s","components":[{"id":"a","type":"Button","label":"Go","variant":"primary","gap":8}]}`, true},
		{"unknown component", `{"type":"surfaceUpdate","surfaceId":"s","components":[{"id":"a","type":"Marquee"}]}`, false},
		{"data model update", `{"type":"dataModelUpdate","surfaceId":"s","data":{"x":1}}`, true},
		{"data is not an object", `{"type":"dataModelUpdate","surfaceId":"s","data":[1]}`, false},
		{"unknown type", `{"type":"deleteSurface","surfaceId":"s"}`, false},
		{"missing type", `{"surfaceId":"s"}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := decodeRecord([]byte(tt.line))
			require.NoError(t, err)
			err = v.Validate(rec)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
