// Package worker provides an asynchronous worker pool that normalizes captured
// request/response exchanges and emits them to a Sink.
//
// The pool decouples body normalization from the proxy's HTTP hot path so that
// the client-proxy-upstream interaction is fully transparent.
package worker

import (
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/peekproxy/peek/pkg/capture"
	"github.com/peekproxy/peek/pkg/format"
	"github.com/peekproxy/peek/pkg/utils"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// Job is a captured exchange waiting to be normalized by the worker pool.
type Job struct {
	// ID identifies the exchange across log lines and emitted output.
	ID string

	Method string
	Path   string
	Status int

	// Duration is the wall time from receiving the client request to the
	// upstream response body completing.
	Duration time.Duration

	// Streaming records whether the upstream response was treated as streamed.
	Streaming bool

	Request  capture.Capture
	Response capture.Capture

	// Options control how the bodies are normalized.
	Options format.Options
}

// Exchange is a fully normalized request/response pair as delivered to a Sink.
type Exchange struct {
	ID        string
	Method    string
	Path      string
	Status    int
	Duration  time.Duration
	Streaming bool

	// RequestBody and ResponseBody are the normalized display texts.
	RequestBody  string
	ResponseBody string
}

// Sink receives normalized exchanges from the worker pool.
type Sink interface {
	Emit(Exchange)
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Sink receives each normalized exchange.
	Sink Sink

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// Logger is the provided zap logger
	Logger *zap.Logger
}

// Pool normalizes captured exchanges asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *zap.Logger
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Sink == nil {
		return nil, fmt.Errorf("worker pool requires a Sink")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full, resulting in the job being dropped
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.queue <- job:
		p.logger.Debug("job queued",
			zap.String("id", job.ID),
			zap.String("path", job.Path),
		)
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped",
			zap.String("id", job.ID),
			zap.String("path", job.Path),
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the proxy HTTP server has stopped.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", zap.Uint("worker_id", id))

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("worker stopped", zap.Uint("worker_id", id))
}

// processJob normalizes a captured exchange and hands it to the sink.
func (p *Pool) processJob(job Job) {
	ex := Exchange{
		ID:           job.ID,
		Method:       job.Method,
		Path:         job.Path,
		Status:       job.Status,
		Duration:     job.Duration,
		Streaming:    job.Streaming,
		RequestBody:  format.Request(job.Request.Content, job.Options),
		ResponseBody: format.Response(job.Response, job.Options),
	}

	p.logger.Debug("exchange normalized",
		zap.String("id", ex.ID),
		zap.Int("status", ex.Status),
		zap.Bool("streaming", ex.Streaming),
		zap.String("response_preview", utils.Truncate(ex.ResponseBody, 120)),
	)

	p.config.Sink.Emit(ex)
}
