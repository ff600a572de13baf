// Package writer streams generated text into sandbox files.
//
// A write resolves its target through the sandbox guard, enforces the
// sandbox-wide file quota, asks before overwriting, and then streams the
// generator's deltas into a temporary sibling file. Code-fence markers are
// removed and the byte quota is enforced as content arrives. Only when the
// stream completes is the temporary file renamed over the target; on any
// failure it is deleted, so the target is either its old version, absent, or
// the complete new version.
//
// Each attempt is audited as WRITE_STREAM_START, WRITE_STREAM_SUCCESS or
// WRITE_STREAM_FAIL; a declined overwrite is WRITE_ABORTED and is not an error.
package writer
