// Package llm is the client for the remote text generator.
//
// The generator is any OpenAI-compatible chat completions endpoint (Groq by
// default). Complete returns a single answer; OpenStream returns the raw
// server-sent-event body, which callers hand to package stream.
package llm
