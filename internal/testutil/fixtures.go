package testutil

import (
	"embed"
	"encoding/json"
	"strings"
)

//go:embed fixtures/*.sse
var fixturesFS embed.FS

// LoadFixture loads a recorded stream fixture by name.
func LoadFixture(name string) ([]byte, error) {
	return fixturesFS.ReadFile("fixtures/" + name)
}

// HelloWorldStream is the two-delta "Hello world" stream.
func HelloWorldStream() (string, error) {
	data, err := LoadFixture("hello_world.sse")
	return string(data), err
}

// FencedStream is a stream whose code fences are split across deltas.
func FencedStream() (string, error) {
	data, err := LoadFixture("fenced_js.sse")
	return string(data), err
}

// ErrorEnvelopeStream delivers one delta and then a generator error.
func ErrorEnvelopeStream() (string, error) {
	data, err := LoadFixture("error_envelope.sse")
	return string(data), err
}

// Frame renders one server-sent event carrying content as a delta.
func Frame(content string) string {
	payload, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"delta": map[string]string{"content": content}}},
	})
	return "data: " + string(payload) + "\n\n"
}

// DoneFrame ends a stream.
const DoneFrame = "data: [DONE]\n\n"

// Stream renders a complete stream of deltas followed by the done marker.
func Stream(deltas ...string) string {
	var b strings.Builder
	for _, d := range deltas {
		b.WriteString(Frame(d))
	}
	b.WriteString(DoneFrame)
	return b.String()
}

// Split cuts s into pieces of at most n bytes, to exercise fragment
// boundaries that fall inside frames.
func Split(s string, n int) []string {
	if n <= 0 {
		return []string{s}
	}
	var out []string
	for len(s) > n {
		out = append(out, s[:n])
		s = s[n:]
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}
