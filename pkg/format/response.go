// Package format is the normalization engine of the peek proxy. It turns
// captured request and response bodies into human-readable display strings:
// pretty-printed JSON for plain bodies, and a single reconstructed message
// for OpenAI-style SSE delta streams. All entry points are pure functions
// over immutable captures; they never fail, falling back to the raw buffer
// whenever parsing does.
package format

import (
	"strings"

	"github.com/peekproxy/peek/pkg/capture"
	"github.com/peekproxy/peek/pkg/sse"
)

// Response renders a captured response body for display.
//
// Dispatch, in priority order:
//  1. opts.Raw returns the buffer verbatim, skipping all parsing.
//  2. Non-streamed bodies are pretty-printed JSON, or the raw buffer when
//     parsing fails.
//  3. Streamed bodies are split into frames. With no data frames the stream
//     is plain newline-delimited chunks, concatenated per-frame. With data
//     frames it is SSE: frames are parsed, classified, and either merged
//     into one message (OpenAI chunk shape) or rendered as a JSON array.
//
// Whether a body is streamed is decided from the capture's declared
// metadata only: Content-Type text/event-stream or Transfer-Encoding
// chunked. The body itself is never sniffed.
func Response(c capture.Capture, opts Options) string {
	if opts.Raw {
		return c.Content
	}

	if !isStreamed(c) {
		return prettyOrRaw(c.Content)
	}

	frames := sse.SplitFrames(c.Content)

	dataFrames, isSSE := sse.DataFrames(frames)
	if !isSSE {
		return concatPlainChunks(frames)
	}

	payloads := make([]string, len(dataFrames))
	parsed := make([]any, len(dataFrames))
	for i, frame := range dataFrames {
		payloads[i] = sse.Payload(frame)

		v, ok := parseJSON(payloads[i])
		if !ok {
			// A malformed data frame is a hard error for the whole
			// response; surface the raw buffer rather than a partial
			// rendering.
			return c.Content
		}
		parsed[i] = v
	}

	if isChunkSequence(parsed) {
		merged := Merge(decodeChunks(payloads))
		if out, ok := pretty(merged); ok {
			return out
		}
		return c.Content
	}

	out, ok := pretty(parsed)
	if !ok {
		return c.Content
	}
	return out
}

// isStreamed trusts the declared metadata only. The comparison is an OR,
// not a protocol sniff of the body.
func isStreamed(c capture.Capture) bool {
	return strings.EqualFold(c.ContentType(), "text/event-stream") ||
		strings.EqualFold(c.TransferEncoding(), "chunked")
}

// concatPlainChunks handles the non-SSE streamed case: newline-delimited
// chunks, typically NDJSON. Each frame contributes its message.content when
// it parses as JSON carrying one, and its verbatim text otherwise; a
// malformed line never aborts processing of the rest. Fragments are joined
// with no separator.
func concatPlainChunks(frames []string) string {
	var out strings.Builder

	for _, frame := range frames {
		v, ok := parseJSON(frame)
		if !ok {
			out.WriteString(frame)
			continue
		}

		if text, ok := messageContent(v); ok {
			out.WriteString(text)
			continue
		}
		out.WriteString(frame)
	}

	return out.String()
}

// messageContent extracts the message.content string convention used by
// NDJSON chat providers.
func messageContent(v any) (string, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	msg, ok := obj["message"].(map[string]any)
	if !ok {
		return "", false
	}
	text, ok := msg["content"].(string)
	return text, ok
}
