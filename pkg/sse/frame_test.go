package sse

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SplitFrames", func() {
	It("splits on newlines", func() {
		frames := SplitFrames("one\ntwo\nthree")
		Expect(frames).To(Equal([]string{"one", "two", "three"}))
	})

	It("accepts CRLF line endings", func() {
		frames := SplitFrames("one\r\ntwo\r\n")
		Expect(frames).To(Equal([]string{"one", "two"}))
	})

	It("drops blank separator lines", func() {
		frames := SplitFrames("data: a\n\ndata: b\n\n")
		Expect(frames).To(Equal([]string{"data: a", "data: b"}))
	})

	It("trims surrounding whitespace from each frame", func() {
		frames := SplitFrames("  data: a  \n")
		Expect(frames).To(Equal([]string{"data: a"}))
	})

	It("returns no frames for an empty buffer", func() {
		Expect(SplitFrames("")).To(BeEmpty())
	})
})

var _ = Describe("IsData", func() {
	It("recognizes the data prefix", func() {
		Expect(IsData("data: {}")).To(BeTrue())
		Expect(IsData("data:{}")).To(BeTrue())
	})

	It("rejects other frames", func() {
		Expect(IsData("event: message_start")).To(BeFalse())
		Expect(IsData(": keep-alive")).To(BeFalse())
		Expect(IsData("")).To(BeFalse())
	})
})

var _ = Describe("Payload", func() {
	It("strips the prefix and trims", func() {
		Expect(Payload("data: {\"a\":1}")).To(Equal(`{"a":1}`))
		Expect(Payload("data:{\"a\":1}")).To(Equal(`{"a":1}`))
	})

	It("returns non-data frames unchanged", func() {
		Expect(Payload("plain text")).To(Equal("plain text"))
	})
})

var _ = Describe("IsSentinel", func() {
	It("matches the terminal frame", func() {
		Expect(IsSentinel("data: [DONE]")).To(BeTrue())
	})

	It("does not match data frames with payloads", func() {
		Expect(IsSentinel("data: {}")).To(BeFalse())
	})

	It("does not match a bare [DONE] line", func() {
		Expect(IsSentinel("[DONE]")).To(BeFalse())
	})
})

var _ = Describe("DataFrames", func() {
	It("keeps only data frames and excludes the sentinel", func() {
		frames := []string{
			"event: ping",
			": keep-alive",
			"data: {\"a\":1}",
			"data: {\"b\":2}",
			"data: [DONE]",
		}

		data, seen := DataFrames(frames)
		Expect(seen).To(BeTrue())
		Expect(data).To(Equal([]string{`data: {"a":1}`, `data: {"b":2}`}))
	})

	It("reports seen when only the sentinel is present", func() {
		data, seen := DataFrames([]string{"data: [DONE]"})
		Expect(seen).To(BeTrue())
		Expect(data).To(BeEmpty())
	})

	It("reports not seen for plain chunked streams", func() {
		data, seen := DataFrames([]string{`{"message":{"content":"hi"}}`})
		Expect(seen).To(BeFalse())
		Expect(data).To(BeEmpty())
	})
})
