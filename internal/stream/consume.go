package stream

import (
	"context"
	"io"
	"strings"

	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/errors"
)

const readChunkSize = 4096

// Consume reads a stream to its end or to the done marker, calling onDelta for
// each delta in arrival order, and returns the aggregated text.
//
// Transport failures and context cancellation are StreamFailure errors. An
// error returned by onDelta stops consumption and is returned unchanged.
func Consume(ctx context.Context, r io.Reader, maxRemainder int, onDelta func(string) error) (string, error) {
	parser := NewParser(maxRemainder)
	var aggregate strings.Builder

	emit := func(delta string) error {
		aggregate.WriteString(delta)
		if onDelta != nil {
			return onDelta(delta)
		}
		return nil
	}

	buf := make([]byte, readChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return aggregate.String(), errors.StreamFailure("stream cancelled", err)
		}

		n, readErr := r.Read(buf)
		if n > 0 {
			done, err := parser.Feed(buf[:n], emit)
			if err != nil {
				return aggregate.String(), err
			}
			if done {
				return aggregate.String(), nil
			}
		}

		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return aggregate.String(), errors.StreamFailure("stream read failed", readErr)
		}
	}

	if err := parser.Flush(emit); err != nil {
		return aggregate.String(), err
	}
	return aggregate.String(), nil
}
