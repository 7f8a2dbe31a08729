// Package sse provides minimal, purpose-built SSE (Server-Sent Events) frame
// primitives for the peek proxy. It operates on completed buffers rather than
// live streams: the proxy forwards bytes to the client verbatim while
// recording them, and dissection happens once the stream has finished.
//
// This package intentionally does NOT provide SSE writer or server
// capabilities.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

import "strings"

const (
	// DataPrefix marks a data frame per the SSE spec.
	DataPrefix = "data:"

	// Sentinel is the terminal payload OpenAI-style APIs emit to signal the
	// end of a stream. Sentinel frames carry no chunk data and are excluded
	// from parsing.
	Sentinel = "[DONE]"
)

// SplitFrames splits a completed stream buffer into frames. A frame is a
// single line of the transport; "\n" and "\r\n" line endings are both
// accepted and each frame is trimmed of surrounding whitespace. Blank lines
// (the event separators of the SSE wire format, plus any trailing newline)
// are dropped.
func SplitFrames(buf string) []string {
	lines := strings.Split(buf, "\n")

	frames := make([]string, 0, len(lines))
	for _, line := range lines {
		frame := strings.TrimSpace(line)
		if frame == "" {
			continue
		}
		frames = append(frames, frame)
	}

	return frames
}

// IsData reports whether the frame is an SSE data frame.
func IsData(frame string) bool {
	return strings.HasPrefix(frame, DataPrefix)
}

// Payload returns the payload of a data frame: the text after the "data:"
// prefix, trimmed. Calling Payload on a non-data frame returns the frame
// unchanged.
func Payload(frame string) string {
	return strings.TrimSpace(strings.TrimPrefix(frame, DataPrefix))
}

// IsSentinel reports whether the frame is the terminal "data: [DONE]" frame.
func IsSentinel(frame string) bool {
	return IsData(frame) && Payload(frame) == Sentinel
}

// DataFrames filters frames down to data frames, excluding the terminal
// sentinel. The second return reports whether ANY data frame was seen
// (sentinel included), which distinguishes a true SSE stream from a plain
// newline-delimited one.
func DataFrames(frames []string) ([]string, bool) {
	var data []string
	seen := false

	for _, frame := range frames {
		if !IsData(frame) {
			continue
		}
		seen = true
		if IsSentinel(frame) {
			continue
		}
		data = append(data, frame)
	}

	return data, seen
}
