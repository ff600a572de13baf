package testutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/llm"
)

// Attempt scripts one streamed completion.
type Attempt struct {
	// Fragments are returned one per Read.
	Fragments []string

	// ReadErr, if set, is returned after the fragments instead of io.EOF,
	// simulating a connection dropped mid-stream.
	ReadErr error

	// OpenErr fails the request before any fragment is sent.
	OpenErr error
}

// ScriptedGenerator replays scripted attempts in order and records every
// conversation it was given. Once the script is exhausted the last attempt
// repeats.
type ScriptedGenerator struct {
	mu            sync.Mutex
	attempts      []Attempt
	conversations []llm.Conversation

	// Answer is returned by Complete.
	Answer      string
	CompleteErr error
}

// NewScriptedGenerator creates a generator from attempts.
func NewScriptedGenerator(attempts ...Attempt) *ScriptedGenerator {
	return &ScriptedGenerator{attempts: attempts}
}

// StreamOf returns an attempt delivering body in fragments of at most n bytes.
func StreamOf(body string, n int) Attempt {
	return Attempt{Fragments: Split(body, n)}
}

func (g *ScriptedGenerator) OpenStream(ctx context.Context, conv llm.Conversation) (io.ReadCloser, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	idx := len(g.conversations)
	g.conversations = append(g.conversations, conv.With())

	if len(g.attempts) == 0 {
		return nil, errors.New("scripted generator: no attempts")
	}
	if idx >= len(g.attempts) {
		idx = len(g.attempts) - 1
	}
	a := g.attempts[idx]
	if a.OpenErr != nil {
		return nil, a.OpenErr
	}
	return &fragmentReader{fragments: append([]string(nil), a.Fragments...), err: a.ReadErr}, nil
}

func (g *ScriptedGenerator) Complete(ctx context.Context, conv llm.Conversation) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.conversations = append(g.conversations, conv.With())
	return g.Answer, g.CompleteErr
}

// Calls returns the number of requests made.
func (g *ScriptedGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.conversations)
}

// Conversation returns the conversation sent with request i.
func (g *ScriptedGenerator) Conversation(i int) llm.Conversation {
	g.mu.Lock()
	defer g.mu.Unlock()
	if i < 0 || i >= len(g.conversations) {
		panic(fmt.Sprintf("scripted generator: no request %d", i))
	}
	return g.conversations[i]
}

type fragmentReader struct {
	fragments []string
	current   string
	err       error
	closed    bool
}

func (r *fragmentReader) Read(p []byte) (int, error) {
	if r.closed {
		return 0, errors.New("read on closed stream")
	}
	if r.current == "" {
		if len(r.fragments) == 0 {
			if r.err != nil {
				return 0, r.err
			}
			return 0, io.EOF
		}
		r.current, r.fragments = r.fragments[0], r.fragments[1:]
	}
	n := copy(p, r.current)
	r.current = r.current[n:]
	return n, nil
}

func (r *fragmentReader) Close() error {
	r.closed = true
	return nil
}
