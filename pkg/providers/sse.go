package providers

import (
	"bufio"
	"io"
	"strings"
)

// SSEEvent is one Server-Sent Event read from an upstream stream.
type SSEEvent struct {
	// Type is the value of the "event:" field, if any.
	Type string

	// Data is the concatenated "data:" payload.
	Data string
}

// sseMaxLineSize bounds a single SSE line. Providers can emit large
// base64 image payloads inside a single data line.
const sseMaxLineSize = 1024 * 1024

// SSEReader reads Server-Sent Events from an upstream response body.
// It is not safe for concurrent use.
type SSEReader struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

// NewSSEReader wraps a response body in an SSE event reader.
func NewSSEReader(body io.ReadCloser) *SSEReader {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), sseMaxLineSize)
	return &SSEReader{body: body, scanner: scanner}
}

// Next reads the next complete event. It returns io.EOF when the stream
// ends. Events with neither a type nor data (comments, keep-alives) are
// skipped.
func (r *SSEReader) Next() (*SSEEvent, error) {
	var eventType string
	var dataLines []string

	for r.scanner.Scan() {
		line := r.scanner.Text()

		// Empty line marks the end of an event.
		if line == "" {
			if eventType != "" || len(dataLines) > 0 {
				return &SSEEvent{
					Type: eventType,
					Data: strings.Join(dataLines, "\n"),
				}, nil
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, "event: "):
			eventType = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "event:"):
			eventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data: "):
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		case strings.HasPrefix(line, "data:"):
			dataLines = append(dataLines, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
		// Other SSE fields (id, retry, comments) are ignored.
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	// Flush a trailing event not terminated by a blank line.
	if eventType != "" || len(dataLines) > 0 {
		ev := &SSEEvent{Type: eventType, Data: strings.Join(dataLines, "\n")}
		eventType = ""
		dataLines = nil
		return ev, nil
	}

	return nil, io.EOF
}

// Close closes the underlying response body.
func (r *SSEReader) Close() error {
	return r.body.Close()
}
