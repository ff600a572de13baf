// Package stream parses the generator's server-sent-event stream into
// content deltas.
//
// Frames are separated by a blank line. Each "data:" line carries a
// chat-completions chunk whose choices[0].delta.content is the delta; the
// payload "[DONE]" ends the stream. Frames that do not decode are dropped
// without affecting their neighbours, and error envelopes fail the stream.
//
// The parser holds at most one unterminated frame between fragments. A frame
// larger than the configured limit is a StreamFailure, so a stream that never
// terminates its frames cannot grow the buffer without bound.
package stream
