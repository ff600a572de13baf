package writer

import "strings"

const fence = "```"

// fenceStripper removes code-fence markers from a delta sequence. A trailing
// run of backticks is held until the run ends, so a fence split across
// deltas is removed exactly as if the text had arrived whole.
type fenceStripper struct {
	pending string
}

// Push returns the cleaned text that is final after delta.
func (f *fenceStripper) Push(delta string) string {
	s := f.pending + delta
	cut := len(strings.TrimRight(s, "`"))
	f.pending = s[cut:]
	return stripFences(s[:cut])
}

// Flush returns whatever is still held back.
func (f *fenceStripper) Flush() string {
	s := stripFences(f.pending)
	f.pending = ""
	return s
}

// stripFences removes fence markers from a complete text.
func stripFences(s string) string {
	return strings.ReplaceAll(s, fence, "")
}
