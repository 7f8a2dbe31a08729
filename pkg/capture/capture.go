// Package capture records the raw bytes of one in-flight request or response
// body as the proxy observes them. An Accumulator is appended to while the
// exchange is live, then frozen exactly once into an immutable Capture that
// the formatting layer consumes. This keeps the normalization engine fully
// decoupled from any particular transport or stream primitive.
package capture

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
)

// ErrFrozen is returned by Write after the accumulator has been frozen.
var ErrFrozen = errors.New("capture: write after freeze")

// Capture is an immutable snapshot of a completed body plus the metadata the
// peer declared for it. The formatter trusts this metadata only; it never
// sniffs the body to decide framing.
type Capture struct {
	// Content is the full body, decoded as text.
	Content string

	header http.Header
}

// New builds a Capture directly from a completed buffer and its declared
// headers. The header may be nil for bodies with no metadata (requests).
func New(content string, header http.Header) Capture {
	return Capture{Content: content, header: header}
}

// Header returns the declared headers. Never nil.
func (c Capture) Header() http.Header {
	if c.header == nil {
		return http.Header{}
	}
	return c.header
}

// ContentType returns the declared media type with any parameters (e.g.
// "; charset=utf-8") stripped.
func (c Capture) ContentType() string {
	v := c.Header().Get("Content-Type")
	mt, _, _ := strings.Cut(v, ";")
	return strings.TrimSpace(mt)
}

// TransferEncoding returns the declared transfer encoding.
func (c Capture) TransferEncoding() string {
	return strings.TrimSpace(c.Header().Get("Transfer-Encoding"))
}

// Accumulator buffers the bytes of one live request or response body. It
// implements io.Writer so it can sit behind an io.MultiWriter that tees the
// stream to the client while recording it.
//
// An Accumulator belongs to exactly one exchange and is not safe for
// concurrent writers.
type Accumulator struct {
	buf    bytes.Buffer
	header http.Header
	frozen bool
}

// NewAccumulator creates an empty accumulator carrying the declared headers
// of the body it will observe.
func NewAccumulator(header http.Header) *Accumulator {
	return &Accumulator{header: header}
}

// Write appends observed bytes. Writing after Freeze is an error: the
// formatter must see each exchange exactly once, at stream completion.
func (a *Accumulator) Write(p []byte) (int, error) {
	if a.frozen {
		return 0, ErrFrozen
	}
	return a.buf.Write(p)
}

// Freeze finalizes the accumulator and yields the immutable Capture.
func (a *Accumulator) Freeze() Capture {
	a.frozen = true
	return New(a.buf.String(), a.header)
}
