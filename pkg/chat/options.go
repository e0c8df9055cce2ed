package chat

import (
	"io"
	"net/http"

	loggerpkg "github.com/minhyannv/chatgpt-cli-go/pkg/logger"
)

// Option configures optional runtime dependencies for Orchestrator.
type Option func(*deps)

type deps struct {
	logger     loggerpkg.Logger
	display    io.Writer
	httpClient *http.Client
	diag       func(error)
}

// WithLogger injects a logger dependency.
func WithLogger(l loggerpkg.Logger) Option {
	return func(d *deps) {
		d.logger = l
	}
}

// WithDisplay sets the sink that receives answer deltas as they stream in.
func WithDisplay(w io.Writer) Option {
	return func(d *deps) {
		d.display = w
	}
}

// WithHTTPClient overrides the HTTP client used for the exchange.
func WithHTTPClient(c *http.Client) Option {
	return func(d *deps) {
		d.httpClient = c
	}
}

// WithDiagnostics receives non-fatal frame errors from the stream decoder.
func WithDiagnostics(fn func(error)) Option {
	return func(d *deps) {
		d.diag = fn
	}
}
