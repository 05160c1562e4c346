package a2ui

import (
	"encoding/json"
	"sort"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contactFormJSONL = `{"type":"beginRendering","rootComponentId":"root"}
{"type":"surfaceUpdate","components":[{"id":"root","type":"Column","gap":24,"children":["header"]},{"id":"header","type":"Text","content":"Contact Us","usageHint":"h1"}]}

not json at all
{"type":"surfaceUpdate","components":[{"id":"name","type":"TextField","label":"Name","boundPath":"/contact/name"}]}
{"type":"dataModelUpdate","surfaceId":"explicit","data":{"contact":{"name":""}}}
{"broken":
`

func encodeAll(t *testing.T, recs []Record) []string {
	t.Helper()
	out := make([]string, len(recs))
	for i, r := range recs {
		b, err := json.Marshal(r)
		require.NoError(t, err)
		out[i] = string(b)
	}
	return out
}

func feedAll(p *LineParser, chunks ...string) []Record {
	var out []Record
	for _, c := range chunks {
		out = append(out, p.Feed(c)...)
	}
	return append(out, p.Flush()...)
}

func TestLineParserSingleChunk(t *testing.T) {
	recs := feedAll(NewLineParser("s1"), contactFormJSONL)
	require.Len(t, recs, 4)

	assert.Equal(t, TypeBeginRendering, recs[0].Type())
	assert.Equal(t, "s1", recs[0]["surfaceId"])
	assert.Equal(t, TypeSurfaceUpdate, recs[1].Type())
	assert.Equal(t, "s1", recs[1]["surfaceId"])
	assert.Equal(t, "s1", recs[2]["surfaceId"])
	assert.Equal(t, "explicit", recs[3]["surfaceId"], "existing surfaceId is never overwritten")
}

func TestLineParserEmitsOnNewline(t *testing.T) {
	p := NewLineParser("s1")

	assert.Empty(t, p.Feed(`{"type":"beginRen`))
	assert.Empty(t, p.Feed(`dering","rootComponentId":"root"}`))
	recs := p.Feed("\n{\"type\":")
	require.Len(t, recs, 1)
	assert.Equal(t, "root", recs[0]["rootComponentId"])

	assert.Empty(t, p.Feed(""))
	assert.Empty(t, p.Flush(), "incomplete trailing line is dropped")
}

func TestLineParserFlushParsesTrailingLine(t *testing.T) {
	p := NewLineParser("s9")
	assert.Empty(t, p.Feed(`  {"type":"dataModelUpdate","data":{}}  `))

	recs := p.Flush()
	require.Len(t, recs, 1)
	assert.Equal(t, "s9", recs[0]["surfaceId"])
	assert.Empty(t, p.Flush(), "flush empties the buffer")
}

func TestLineParserRecordWithoutTypeIsNotTagged(t *testing.T) {
	recs := feedAll(NewLineParser("s1"), "{\"hello\":\"world\"}\n")
	require.Len(t, recs, 1)
	_, tagged := recs[0]["surfaceId"]
	assert.False(t, tagged)
}

func TestLineParserDropsNonObjects(t *testing.T) {
	input := strings.Join([]string{
		`[1,2,3]`,
		`"just a string"`,
		`42`,
		`null`,
		`{"type":"surfaceUpdate"} trailing`,
		`{"type":"surfaceUpdate"}{"type":"surfaceUpdate"}`,
		"```json",
		`{"type":"surfaceUpdate","components":[]}`,
		"```",
	}, "\n") + "\n"

	recs := feedAll(NewLineParser("s1"), input)
	require.Len(t, recs, 1)
	assert.Equal(t, TypeSurfaceUpdate, recs[0].Type())
}

func TestLineParserHandlesCRLF(t *testing.T) {
	recs := feedAll(NewLineParser("s1"), "{\"type\":\"beginRendering\"}\r\n\r\n{\"type\":\"surfaceUpdate\"}\r\n")
	require.Len(t, recs, 2)
}

func TestLineParserKeepsNumbers(t *testing.T) {
	recs := feedAll(NewLineParser("s1"), `{"type":"dataModelUpdate","data":{"big":12345678901234567890,"f":1.50}}`+"\n")
	require.Len(t, recs, 1)
	b, err := json.Marshal(recs[0])
	require.NoError(t, err)
	assert.Contains(t, string(b), `"big":12345678901234567890`)
	assert.Contains(t, string(b), `"f":1.50`)
}

// splitAt cuts s at the given byte offsets.
func splitAt(s string, cuts []int) []string {
	points := make([]int, 0, len(cuts))
	for _, c := range cuts {
		points = append(points, c%(len(s)+1))
	}
	sort.Ints(points)

	var out []string
	prev := 0
	for _, p := range points {
		out = append(out, s[prev:p])
		prev = p
	}
	return append(out, s[prev:])
}

func TestLineParserFragmentationInvariance(t *testing.T) {
	want := encodeAll(t, feedAll(NewLineParser("surface-prop"), contactFormJSONL))

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("any split of the stream yields the same records", prop.ForAll(
		func(cuts []int) bool {
			chunks := splitAt(contactFormJSONL, cuts)
			got := encodeAll(t, feedAll(NewLineParser("surface-prop"), chunks...))
			return assert.ObjectsAreEqual(want, got)
		},
		gen.SliceOf(gen.IntRange(0, len(contactFormJSONL))),
	))

	properties.Property("generated records survive any split", prop.ForAll(
		func(ids []string, cuts []int) bool {
			var b strings.Builder
			for _, id := range ids {
				line, _ := json.Marshal(map[string]any{
					"type":       TypeSurfaceUpdate,
					"components": []map[string]any{{"id": id, "type": "Text", "content": id}},
				})
				b.Write(line)
				b.WriteString("\n")
			}
			text := b.String()

			whole := feedAll(NewLineParser("s"), text)
			split := feedAll(NewLineParser("s"), splitAt(text, cuts)...)
			return len(whole) == len(ids) && assert.ObjectsAreEqual(encodeAll(t, whole), encodeAll(t, split))
		},
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.IntRange(0, 4096)),
	))

	properties.TestingRun(t)
}
