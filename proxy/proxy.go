// Package proxy provides a transparent debugging proxy for chat-completion
// HTTP traffic. It forwards requests to a single upstream API byte-for-byte
// and tees each exchange into a capture that is normalized asynchronously by
// a worker pool and delivered to a Sink.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/peekproxy/peek/pkg/capture"
	"github.com/peekproxy/peek/pkg/format"
	"github.com/peekproxy/peek/proxy/header"
	"github.com/peekproxy/peek/proxy/worker"
)

// errorResponse is the JSON body returned for proxy-side failures.
type errorResponse struct {
	Error string `json:"error"`
}

// Proxy is a transparent chat-completion debugging proxy. The wire exchange
// is untouched: bytes flow through verbatim, and normalization happens on
// captured copies off the hot path.
type Proxy struct {
	config        Config
	workerPool    *worker.Pool
	logger        *zap.Logger
	httpClient    *http.Client
	server        *fiber.App
	headerHandler *header.Handler
	options       atomic.Pointer[format.Options]
}

// New creates a new Proxy.
// The sink is injected to receive normalized exchanges from the worker pool.
func New(config Config, sink worker.Sink, logger *zap.Logger) (*Proxy, error) {
	if config.UpstreamURL == "" {
		return nil, errors.New("upstream URL is required")
	}

	u, err := url.Parse(config.UpstreamURL)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("upstream URL %q must include a scheme and host", config.UpstreamURL)
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
		// Enable streaming
		StreamRequestBody: true,
	})

	// Add compression middleware to handle responses
	app.Use(compress.New())

	wp, err := worker.NewPool(&worker.Config{
		Sink:       sink,
		NumWorkers: config.NumWorkers,
		QueueSize:  config.QueueSize,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create worker pool: %w", err)
	}

	p := &Proxy{
		config:        config,
		workerPool:    wp,
		logger:        logger,
		server:        app,
		headerHandler: header.NewHandler(),
		httpClient: &http.Client{
			// Chat-completion requests can be slow, especially with thinking blocks
			Timeout: 5 * time.Minute,
		},
	}
	p.options.Store(&config.Options)

	// Register transparent proxy route - forwards any path to upstream
	app.All("/*", p.handleProxy)

	return p, nil
}

// SetOptions swaps the normalization options for subsequent exchanges.
// Safe to call while the proxy is serving, which is how config hot reload
// takes effect without a restart.
func (p *Proxy) SetOptions(opts format.Options) {
	p.options.Store(&opts)
}

// Options returns the normalization options applied to new exchanges.
func (p *Proxy) Options() format.Options {
	return *p.options.Load()
}

// Run starts the proxy server on the configured listening address
func (p *Proxy) Run() error {
	p.logger.Info("starting proxy server",
		zap.String("listen", p.config.ListenAddr),
		zap.String("upstream", p.config.UpstreamURL),
	)

	return p.server.Listen(p.config.ListenAddr)
}

// RunWithListener starts the proxy server using the provided listener.
func (p *Proxy) RunWithListener(listener net.Listener) error {
	p.logger.Info("starting proxy server",
		zap.String("listen", listener.Addr().String()),
		zap.String("upstream", p.config.UpstreamURL),
	)

	return p.server.Listener(listener)
}

// Close gracefully shuts down the proxy and waits for the worker pool to drain
func (p *Proxy) Close() error {
	p.workerPool.Close()
	return p.server.Shutdown()
}

// handleProxy is a transparent proxy handler that forwards requests to the
// upstream API and captures the exchange for async normalization.
func (p *Proxy) handleProxy(c *fiber.Ctx) error {
	startTime := time.Now()

	method := c.Method()
	path := c.Path()
	body := c.Body()

	// The request declares up front whether it wants a streamed response.
	// The captured response is still classified by its own response
	// metadata; this only selects the transport path.
	streaming := false
	if method == fiber.MethodPost && len(body) > 0 {
		var streamCheck struct {
			Stream *bool `json:"stream"`
		}
		if err := json.Unmarshal(body, &streamCheck); err == nil && streamCheck.Stream != nil {
			streaming = *streamCheck.Stream
		}
	}

	if streaming {
		return p.handleStreamingProxy(c, path, body, startTime)
	}

	return p.handleNonStreamingProxy(c, path, method, body, startTime)
}

// handleNonStreamingProxy forwards a request whose response will be read in
// full before being returned to the client.
func (p *Proxy) handleNonStreamingProxy(c *fiber.Ctx, path, method string, body []byte, startTime time.Time) error {
	upstreamURL := p.config.UpstreamURL + c.OriginalURL()

	var reqBody io.Reader
	if len(body) > 0 {
		reqBody = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(c.Context(), method, upstreamURL, reqBody)
	if err != nil {
		p.logger.Error("failed to create upstream request", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "internal error"})
	}

	p.headerHandler.SetUpstreamRequestHeaders(c, httpReq)

	p.logger.Debug("forwarding request to upstream",
		zap.String("method", method),
		zap.String("url", upstreamURL),
	)

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		p.logger.Error("upstream request failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(errorResponse{Error: "upstream request failed"})
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		p.logger.Error("failed to read upstream response", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(errorResponse{Error: "failed to read upstream response"})
	}

	p.headerHandler.SetClientResponseHeaders(c, httpResp)

	// Every completed exchange is captured, error statuses included.
	p.enqueue(worker.Job{
		ID:        uuid.NewString(),
		Method:    method,
		Path:      path,
		Status:    httpResp.StatusCode,
		Duration:  time.Since(startTime),
		Streaming: false,
		Request:   capture.New(string(body), nil),
		Response:  capture.New(string(respBody), responseHeader(httpResp)),
	})

	// Return response to client immediately
	return c.Status(httpResp.StatusCode).Send(respBody)
}

// handleStreamingProxy forwards a request whose response is relayed to the
// client chunk by chunk as the upstream produces it.
func (p *Proxy) handleStreamingProxy(c *fiber.Ctx, path string, body []byte, startTime time.Time) error {
	upstreamURL := p.config.UpstreamURL + c.OriginalURL()

	// Use context.Background() instead of c.Context() because fasthttp recycles
	// its RequestCtx after the handler returns, but the body stream is consumed
	// asynchronously and needs the upstream connection to remain open.
	httpReq, err := http.NewRequestWithContext(context.Background(), http.MethodPost, upstreamURL, bytes.NewReader(body))
	if err != nil {
		p.logger.Error("failed to create upstream request", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "internal error"})
	}

	p.headerHandler.SetUpstreamRequestHeaders(c, httpReq)

	p.logger.Debug("forwarding streaming request to upstream",
		zap.String("url", upstreamURL),
	)

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		p.logger.Error("upstream request failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(errorResponse{Error: "upstream request failed"})
	}
	if httpResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(httpResp.Body)
		httpResp.Body.Close()
		p.logger.Error("upstream returned error",
			zap.Int("status", httpResp.StatusCode),
			zap.String("body", string(respBody)),
		)

		p.enqueue(worker.Job{
			ID:       uuid.NewString(),
			Method:   http.MethodPost,
			Path:     path,
			Status:   httpResp.StatusCode,
			Duration: time.Since(startTime),
			Request:  capture.New(string(body), nil),
			Response: capture.New(string(respBody), responseHeader(httpResp)),
		})

		return c.Status(httpResp.StatusCode).Send(respBody)
	}

	p.headerHandler.SetClientResponseHeaders(c, httpResp)

	// Use io.Pipe + SetBodyStream instead of SetBodyStreamWriter.
	// SetBodyStreamWriter uses an internal PipeConns with a buffered channel
	// (capacity 4) and two bufio.Writers, which means Flush() in the callback
	// only pushes data into the pipe - NOT to the TCP socket. This causes all
	// chunks to buffer in memory before being sent to the client.
	//
	// With io.Pipe, pw.Write blocks until the reader consumes the data, and
	// the reader is fasthttp's writeBodyChunked which flushes to TCP after
	// every chunk. This gives direct backpressure and true per-chunk relaying.
	pr, pw := io.Pipe()
	go p.relayAndCapture(httpResp, pw, path, body, startTime)

	// Set the pipe reader as the body stream with unknown size (-1),
	// which triggers chunked transfer encoding in fasthttp.
	c.Context().Response.SetBodyStream(pr, -1)

	return nil
}

// relayAndCapture copies the upstream body to the pipe writer (and so to the
// client) while teeing every byte into an accumulator. When the stream ends
// the frozen capture is enqueued for normalization.
func (p *Proxy) relayAndCapture(httpResp *http.Response, pw *io.PipeWriter, path string, reqBody []byte, startTime time.Time) {
	// Close the upstream response body once relaying is complete.
	defer httpResp.Body.Close()
	defer pw.Close()

	acc := capture.NewAccumulator(responseHeader(httpResp))

	// pw.Write blocks until fasthttp reads from the pipe reader and flushes
	// to the TCP socket, so the client sees each chunk as it arrives.
	if _, err := io.Copy(io.MultiWriter(pw, acc), httpResp.Body); err != nil {
		p.logger.Error("error relaying stream", zap.Error(err))
		return
	}

	p.enqueue(worker.Job{
		ID:        uuid.NewString(),
		Method:    http.MethodPost,
		Path:      path,
		Status:    httpResp.StatusCode,
		Duration:  time.Since(startTime),
		Streaming: true,
		Request:   capture.New(string(reqBody), nil),
		Response:  acc.Freeze(),
	})
}

// enqueue stamps the current normalization options onto the job and submits
// it to the worker pool.
func (p *Proxy) enqueue(job worker.Job) {
	job.Options = *p.options.Load()
	p.workerPool.Enqueue(job)
}

// responseHeader snapshots the upstream response headers for the capture.
// Go's http.Transport moves Transfer-Encoding out of the header map into
// resp.TransferEncoding; put it back so the capture sees what the upstream
// actually declared.
func responseHeader(resp *http.Response) http.Header {
	h := resp.Header.Clone()
	if h == nil {
		h = http.Header{}
	}
	if len(resp.TransferEncoding) > 0 && h.Get("Transfer-Encoding") == "" {
		for _, te := range resp.TransferEncoding {
			h.Add("Transfer-Encoding", te)
		}
	}
	return h
}
