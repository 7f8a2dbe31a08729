package proxy

import (
	"github.com/peekproxy/peek/pkg/format"
)

// Config is the proxy server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// UpstreamURL is the upstream chat-completion API URL
	// (e.g., "http://localhost:11434" or "https://api.openai.com")
	UpstreamURL string

	// Options control how captured bodies are normalized for display.
	// They can be swapped at runtime via Proxy.SetOptions.
	Options format.Options

	// NumWorkers is the number of background normalization workers.
	NumWorkers uint

	// QueueSize is the capacity of the normalization job queue.
	QueueSize uint
}
