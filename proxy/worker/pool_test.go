package worker

import (
	"net/http"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/peekproxy/peek/pkg/capture"
	"github.com/peekproxy/peek/pkg/format"
)

// recordingSink collects emitted exchanges for assertions.
type recordingSink struct {
	mu        sync.Mutex
	exchanges []Exchange
}

func (s *recordingSink) Emit(ex Exchange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exchanges = append(s.exchanges, ex)
}

func (s *recordingSink) all() []Exchange {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Exchange(nil), s.exchanges...)
}

// newTestPool creates a worker pool backed by a recording sink.
// Callers should "wp.Close()" to drain enqueued jobs before asserting.
func newTestPool() (*Pool, *recordingSink) {
	logger, _ := zap.NewDevelopment()
	sink := &recordingSink{}

	wp, err := NewPool(&Config{
		Sink:   sink,
		Logger: logger,
	})
	Expect(err).NotTo(HaveOccurred())

	return wp, sink
}

var _ = Describe("Worker Pool", func() {
	var (
		wp   *Pool
		sink *recordingSink
	)

	BeforeEach(func() {
		wp, sink = newTestPool()
	})

	Describe("NewPool", func() {
		It("requires a sink", func() {
			logger, _ := zap.NewDevelopment()
			_, err := NewPool(&Config{Logger: logger})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Enqueue", func() {
		It("returns true when the queue has capacity", func() {
			ok := wp.Enqueue(Job{
				ID:     "ex-1",
				Method: http.MethodPost,
				Path:   "/v1/chat/completions",
			})
			Expect(ok).To(BeTrue())
			wp.Close()
		})
	})

	Describe("processing", func() {
		It("normalizes a non-streamed JSON exchange", func() {
			wp.Enqueue(Job{
				ID:       "ex-1",
				Method:   http.MethodPost,
				Path:     "/v1/chat/completions",
				Status:   200,
				Duration: 42 * time.Millisecond,
				Request:  capture.New(`{"model":"gpt-4","messages":[]}`, nil),
				Response: capture.New(`{"id":"cmpl-1","object":"chat.completion"}`, http.Header{
					"Content-Type": {"application/json"},
				}),
			})
			wp.Close()

			exchanges := sink.all()
			Expect(exchanges).To(HaveLen(1))

			ex := exchanges[0]
			Expect(ex.ID).To(Equal("ex-1"))
			Expect(ex.Status).To(Equal(200))
			Expect(ex.RequestBody).To(Equal("{\n  \"messages\": [],\n  \"model\": \"gpt-4\"\n}"))
			Expect(ex.ResponseBody).To(ContainSubstring("\"object\": \"chat.completion\""))
		})

		It("merges a streamed chat-completion response", func() {
			body := "data: {\"object\":\"chat.completion.chunk\",\"choices\":[{\"delta\":{\"content\":\"Hello\"}}]}\n\n" +
				"data: {\"object\":\"chat.completion.chunk\",\"choices\":[{\"delta\":{\"content\":\" world\"}}]}\n\n" +
				"data: [DONE]\n\n"

			wp.Enqueue(Job{
				ID:        "ex-2",
				Method:    http.MethodPost,
				Path:      "/v1/chat/completions",
				Status:    200,
				Streaming: true,
				Request:   capture.New(`{"stream":true}`, nil),
				Response: capture.New(body, http.Header{
					"Content-Type": {"text/event-stream"},
				}),
			})
			wp.Close()

			exchanges := sink.all()
			Expect(exchanges).To(HaveLen(1))
			Expect(exchanges[0].Streaming).To(BeTrue())
			Expect(exchanges[0].ResponseBody).To(ContainSubstring("Hello world"))
		})

		It("passes formatter options through", func() {
			wp.Enqueue(Job{
				ID:       "ex-3",
				Request:  capture.New(`{"model":"gpt-4"}`, nil),
				Response: capture.New("not json at all", nil),
				Options:  format.Options{Raw: true},
			})
			wp.Close()

			exchanges := sink.all()
			Expect(exchanges).To(HaveLen(1))
			Expect(exchanges[0].RequestBody).To(Equal(`{"model":"gpt-4"}`))
			Expect(exchanges[0].ResponseBody).To(Equal("not json at all"))
		})

		It("drains all enqueued jobs on Close", func() {
			for range 10 {
				wp.Enqueue(Job{
					Request:  capture.New("{}", nil),
					Response: capture.New("{}", nil),
				})
			}
			wp.Close()

			Expect(sink.all()).To(HaveLen(10))
		})
	})
})
