package llm

import (
	"bufio"
	"bytes"
	"context"
	"io"

	"legalmind/internal/domain"
)

var sseDoneMarker = []byte("[DONE]")

// parseSSEStream consumes a Server-Sent Events body and translates each data
// payload into a StreamDelta via decode. The channel closes when the stream
// ends or ctx is cancelled; the body is always closed. A delta with Done set,
// the "[DONE]" marker, or a broken body all terminate the stream, so a
// consumer ranging over the channel never hangs on a dead connection.
func parseSSEStream(ctx context.Context, body io.ReadCloser, decode func(data []byte) (*domain.StreamDelta, error)) <-chan domain.StreamDelta {
	out := make(chan domain.StreamDelta, 16)
	go func() {
		defer close(out)
		defer body.Close()

		sc := bufio.NewScanner(body)
		for sc.Scan() {
			if ctx.Err() != nil {
				return
			}
			payload, ok := ssePayload(sc.Bytes())
			if !ok {
				continue
			}
			if bytes.Equal(payload, sseDoneMarker) {
				out <- domain.StreamDelta{Done: true}
				return
			}

			delta, err := decode(payload)
			if err != nil || delta == nil {
				// Providers interleave chunks we do not model; drop them.
				continue
			}
			select {
			case out <- *delta:
			case <-ctx.Done():
				return
			}
			if delta.Done {
				return
			}
		}
		if sc.Err() != nil {
			// The body broke mid-stream. Surface a final Done delta so the
			// consumer unblocks instead of waiting on a silently dead feed.
			select {
			case out <- domain.StreamDelta{Done: true}:
			case <-ctx.Done():
			}
		}
	}()
	return out
}

// ssePayload extracts the payload of a data line. Blank keepalives, comment
// lines, and non-data fields (event, id, retry) carry nothing we consume.
func ssePayload(line []byte) ([]byte, bool) {
	if len(line) == 0 || line[0] == ':' {
		return nil, false
	}
	rest, found := bytes.CutPrefix(line, []byte("data:"))
	if !found {
		return nil, false
	}
	return bytes.TrimSpace(rest), true
}
