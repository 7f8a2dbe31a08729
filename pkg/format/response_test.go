package format_test

import (
	"encoding/json"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/peekproxy/peek/pkg/capture"
	"github.com/peekproxy/peek/pkg/format"
)

// respCapture builds a Capture with the given declared headers.
func respCapture(content string, headers map[string]string) capture.Capture {
	hdr := http.Header{}
	for k, v := range headers {
		hdr.Set(k, v)
	}
	return capture.New(content, hdr)
}

// sseCapture builds a Capture declared as text/event-stream.
func sseCapture(content string) capture.Capture {
	return respCapture(content, map[string]string{"Content-Type": "text/event-stream"})
}

var _ = Describe("Response", func() {
	opts := format.Options{Tools: format.ToolsAll}

	Context("with the raw option set", func() {
		It("returns the buffer verbatim without any parsing", func() {
			malformed := "data: {not json\nnot even close"
			c := sseCapture(malformed)

			out := format.Response(c, format.Options{Raw: true})
			Expect(out).To(Equal(malformed))
		})

		It("bypasses pretty-printing of valid JSON too", func() {
			c := respCapture(`{"a":1}`, map[string]string{"Content-Type": "application/json"})
			Expect(format.Response(c, format.Options{Raw: true})).To(Equal(`{"a":1}`))
		})
	})

	Context("with a non-streamed body", func() {
		It("pretty-prints valid JSON with 2-space indentation", func() {
			c := respCapture(`{"model":"gpt-4","done":true}`, map[string]string{"Content-Type": "application/json"})

			out := format.Response(c, opts)
			Expect(out).To(ContainSubstring("  \"model\": \"gpt-4\""))

			// Round trip: re-parsing the output yields the input value.
			var a, b map[string]any
			Expect(json.Unmarshal([]byte(out), &a)).To(Succeed())
			Expect(json.Unmarshal([]byte(c.Content), &b)).To(Succeed())
			Expect(a).To(Equal(b))
		})

		It("returns non-JSON bodies unchanged", func() {
			c := respCapture("plain text body", map[string]string{"Content-Type": "text/plain"})
			Expect(format.Response(c, opts)).To(Equal("plain text body"))
		})

		It("returns an empty body unchanged", func() {
			c := respCapture("", nil)
			Expect(format.Response(c, opts)).To(Equal(""))
		})
	})

	Context("streaming detection", func() {
		It("treats text/event-stream as streamed", func() {
			c := sseCapture("data: [DONE]")
			// An SSE stream with only the sentinel merges to nothing data-wise:
			// the parsed frame list is empty and not OpenAI-shaped.
			Expect(format.Response(c, opts)).To(Equal("[]"))
		})

		It("treats chunked transfer encoding as streamed", func() {
			c := respCapture("line1\nline2", map[string]string{"Transfer-Encoding": "chunked"})
			Expect(format.Response(c, opts)).To(Equal("line1line2"))
		})

		It("ignores content-type parameters", func() {
			c := respCapture("data: [DONE]", map[string]string{"Content-Type": "text/event-stream; charset=utf-8"})
			Expect(format.Response(c, opts)).To(Equal("[]"))
		})

		It("does not sniff the body when metadata says non-streamed", func() {
			// Looks like SSE but is declared application/json: falls back to
			// the raw buffer because it is not valid JSON.
			body := "data: {\"object\": \"chat.completion.chunk\", \"choices\": []}\n\n"
			c := respCapture(body, map[string]string{"Content-Type": "application/json"})
			Expect(format.Response(c, opts)).To(Equal(body))
		})
	})

	Context("with a plain chunked stream (no data frames)", func() {
		It("concatenates extracted content and verbatim lines with no separator", func() {
			c := respCapture("line1\nline2\n{\"message\": {\"content\": \"Hello\"}}",
				map[string]string{"Transfer-Encoding": "chunked"})

			Expect(format.Response(c, opts)).To(Equal("line1line2Hello"))
		})

		It("extracts message.content from every NDJSON line", func() {
			body := `{"message":{"content":"Hel"}}` + "\n" + `{"message":{"content":"lo"}}` + "\n"
			c := respCapture(body, map[string]string{"Transfer-Encoding": "chunked"})

			Expect(format.Response(c, opts)).To(Equal("Hello"))
		})

		It("passes malformed lines through verbatim without aborting", func() {
			body := "{broken\n" + `{"message":{"content":"ok"}}`
			c := respCapture(body, map[string]string{"Transfer-Encoding": "chunked"})

			Expect(format.Response(c, opts)).To(Equal("{brokenok"))
		})

		It("falls back to the raw line when JSON carries no message.content", func() {
			body := `{"status":"thinking"}` + "\n" + `{"message":{"content":"done"}}`
			c := respCapture(body, map[string]string{"Transfer-Encoding": "chunked"})

			Expect(format.Response(c, opts)).To(Equal(`{"status":"thinking"}` + "done"))
		})
	})

	Context("with an OpenAI SSE stream", func() {
		It("merges a single content chunk", func() {
			c := sseCapture(`data: {"object": "chat.completion.chunk", "choices": [{"delta": {"content": "Hello"}}]}`)

			out := format.Response(c, opts)

			var merged format.MergedMessage
			Expect(json.Unmarshal([]byte(out), &merged)).To(Succeed())
			Expect(merged.Content).To(Equal("Hello"))
			Expect(merged.ToolCalls).To(BeEmpty())
			Expect(out).To(ContainSubstring(`"tool_calls": []`))
		})

		It("reconstructs the full message from many delta frames", func() {
			body := "data: {\"object\":\"chat.completion.chunk\",\"choices\":[{\"delta\":{\"role\":\"assistant\",\"content\":\"Hel\"}}]}\n\n" +
				"data: {\"object\":\"chat.completion.chunk\",\"choices\":[{\"delta\":{\"content\":\"lo \"}}]}\n\n" +
				"data: {\"object\":\"chat.completion.chunk\",\"choices\":[{\"delta\":{\"content\":\"world\"}}]}\n\n" +
				"data: [DONE]\n\n"
			c := sseCapture(body)

			var merged format.MergedMessage
			Expect(json.Unmarshal([]byte(format.Response(c, opts)), &merged)).To(Succeed())
			Expect(merged.Content).To(Equal("Hello world"))
		})

		It("handles CRLF frame boundaries", func() {
			body := "data: {\"object\":\"chat.completion.chunk\",\"choices\":[{\"delta\":{\"content\":\"Hi\"}}]}\r\n\r\ndata: [DONE]\r\n\r\n"
			c := sseCapture(body)

			var merged format.MergedMessage
			Expect(json.Unmarshal([]byte(format.Response(c, opts)), &merged)).To(Succeed())
			Expect(merged.Content).To(Equal("Hi"))
		})

		It("classifies by any-match, tolerating foreign frames in the stream", func() {
			body := "data: {\"type\":\"ping\"}\n\n" +
				"data: {\"object\":\"chat.completion.chunk\",\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n\n"
			c := sseCapture(body)

			var merged format.MergedMessage
			Expect(json.Unmarshal([]byte(format.Response(c, opts)), &merged)).To(Succeed())
			Expect(merged.Content).To(Equal("ok"))
		})

		It("treats an empty choices array as qualifying", func() {
			body := "data: {\"object\":\"chat.completion.chunk\",\"choices\":[]}\n\n" +
				"data: {\"object\":\"chat.completion.chunk\",\"choices\":[{\"delta\":{\"content\":\"x\"}}]}\n\n"
			c := sseCapture(body)

			var merged format.MergedMessage
			Expect(json.Unmarshal([]byte(format.Response(c, opts)), &merged)).To(Succeed())
			Expect(merged.Content).To(Equal("x"))
		})

		It("drops non-data frames before parsing", func() {
			body := "event: message\n" +
				": keep-alive\n" +
				"data: {\"object\":\"chat.completion.chunk\",\"choices\":[{\"delta\":{\"content\":\"hi\"}}]}\n\n" +
				"data: [DONE]\n\n"
			c := sseCapture(body)

			var merged format.MergedMessage
			Expect(json.Unmarshal([]byte(format.Response(c, opts)), &merged)).To(Succeed())
			Expect(merged.Content).To(Equal("hi"))
		})

		It("falls back to the raw buffer when any data frame is malformed", func() {
			body := "data: {\"object\":\"chat.completion.chunk\",\"choices\":[{\"delta\":{\"content\":\"hi\"}}]}\n\n" +
				"data: {broken\n\n"
			c := sseCapture(body)

			Expect(format.Response(c, opts)).To(Equal(body))
		})
	})

	Context("with a non-OpenAI SSE stream", func() {
		It("renders the parsed frames as a pretty JSON array", func() {
			body := "data: {\"type\":\"message_start\"}\n\n" +
				"data: {\"type\":\"message_stop\"}\n\n" +
				"data: [DONE]\n\n"
			c := sseCapture(body)

			out := format.Response(c, opts)

			var frames []map[string]any
			Expect(json.Unmarshal([]byte(out), &frames)).To(Succeed())
			Expect(frames).To(HaveLen(2))
			Expect(frames[0]["type"]).To(Equal("message_start"))
			Expect(frames[1]["type"]).To(Equal("message_stop"))
		})
	})
})
