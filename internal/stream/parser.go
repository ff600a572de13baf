package stream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/logging"
)

// DoneMarker is the payload that ends a stream.
const DoneMarker = "[DONE]"

// DefaultMaxRemainder bounds a single buffered frame when no limit is given.
const DefaultMaxRemainder = 1024 * 1024

var frameSeparator = []byte("\n\n")

// envelope is one chat-completions stream chunk.
type envelope struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Parser reduces server-sent-event fragments to content deltas.
//
// Fragments may split frames, lines, or multi-byte characters at any byte;
// the unterminated tail is kept until the next Feed. A Parser is not safe for
// concurrent use.
type Parser struct {
	// MaxRemainder is the largest frame, complete or still buffered, the
	// parser will hold. Zero means DefaultMaxRemainder.
	MaxRemainder int

	remainder []byte
	done      bool
}

// NewParser creates a parser with the given frame size limit.
func NewParser(maxRemainder int) *Parser {
	return &Parser{MaxRemainder: maxRemainder}
}

// Done reports whether the end-of-stream marker has been seen.
func (p *Parser) Done() bool {
	return p.done
}

func (p *Parser) limit() int {
	if p.MaxRemainder <= 0 {
		return DefaultMaxRemainder
	}
	return p.MaxRemainder
}

// Feed appends a fragment and emits every delta from the frames it completes,
// in order. It returns done once the end-of-stream marker is reached; later
// calls are no-ops. An error from emit is returned unchanged.
func (p *Parser) Feed(fragment []byte, emit func(string) error) (bool, error) {
	if p.done {
		return true, nil
	}

	// Carriage returns only ever appear as line terminators, so dropping them
	// byte by byte normalizes CRLF without caring where fragments split.
	for _, b := range fragment {
		if b != '\r' {
			p.remainder = append(p.remainder, b)
		}
	}

	for {
		idx := bytes.Index(p.remainder, frameSeparator)
		if idx < 0 {
			break
		}
		if idx > p.limit() {
			return false, p.overflow()
		}
		frame := string(p.remainder[:idx])
		p.remainder = p.remainder[idx+len(frameSeparator):]

		done, err := p.handleFrame(frame, emit)
		if err != nil {
			return false, err
		}
		if done {
			p.done = true
			p.remainder = nil
			return true, nil
		}
	}

	if len(p.remainder) > p.limit() {
		return false, p.overflow()
	}

	// Compact so the backing array does not grow with consumed frames.
	if cap(p.remainder) > 2*p.limit() {
		p.remainder = append([]byte(nil), p.remainder...)
	}
	return false, nil
}

// Flush gives the buffered, unterminated remainder one final parse attempt
// and discards it.
func (p *Parser) Flush(emit func(string) error) error {
	if p.done {
		return nil
	}
	frame := string(p.remainder)
	p.remainder = nil
	if strings.TrimSpace(frame) == "" {
		return nil
	}
	done, err := p.handleFrame(frame, emit)
	if done {
		p.done = true
	}
	return err
}

func (p *Parser) overflow() error {
	return errors.StreamFailure(fmt.Sprintf("stream frame exceeds maximum buffered size of %d bytes", p.limit()), nil)
}

// handleFrame decodes one frame. Multiple data lines are joined with a
// newline; other SSE fields and comments are ignored.
func (p *Parser) handleFrame(frame string, emit func(string) error) (bool, error) {
	var data []string
	for _, line := range strings.Split(frame, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data = append(data, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
	}
	if len(data) == 0 {
		return false, nil
	}

	payload := strings.Join(data, "\n")
	if payload == DoneMarker {
		return true, nil
	}

	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		logging.Debug("dropping malformed stream frame", "error", err, "bytes", len(payload))
		return false, nil
	}
	if env.Error != nil {
		msg := env.Error.Message
		if msg == "" {
			msg = env.Error.Type
		}
		return false, errors.StreamFailure(fmt.Sprintf("generator error: %s", msg), nil)
	}
	if len(env.Choices) == 0 {
		return false, nil
	}
	delta := env.Choices[0].Delta.Content
	if delta == "" {
		return false, nil
	}
	if err := emit(delta); err != nil {
		return false, err
	}
	return false, nil
}
