package dav

import (
	"io"
	"net/http"
	"net/http/httputil"

	"github.com/rs/zerolog"
)

type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

type noopLogger struct{}

func (n *noopLogger) Debug(msg string, args ...interface{}) {}
func (n *noopLogger) Info(msg string, args ...interface{})  {}
func (n *noopLogger) Warn(msg string, args ...interface{})  {}
func (n *noopLogger) Error(msg string, args ...interface{}) {}

// zerologLogger backs the package's Logger interface with a structured
// zerolog.Logger, the logging library used across the examples that carry
// a real logging dependency.
type zerologLogger struct {
	zl zerolog.Logger
}

// NewZerologLogger wraps a zerolog.Logger for use as a client Logger.
func NewZerologLogger(zl zerolog.Logger) Logger {
	return &zerologLogger{zl: zl}
}

func (z *zerologLogger) Debug(msg string, args ...interface{}) {
	z.zl.Debug().Msgf(msg, args...)
}

func (z *zerologLogger) Info(msg string, args ...interface{}) {
	z.zl.Info().Msgf(msg, args...)
}

func (z *zerologLogger) Warn(msg string, args ...interface{}) {
	z.zl.Warn().Msgf(msg, args...)
}

func (z *zerologLogger) Error(msg string, args ...interface{}) {
	z.zl.Error().Msgf(msg, args...)
}

type ClientOption func(*Client)

func WithLogger(logger Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithZerologLogger installs a zerolog-backed Logger writing to w at debug
// level, the structured-logging default for this client.
func WithZerologLogger(w io.Writer) ClientOption {
	return func(c *Client) {
		c.logger = NewZerologLogger(zerolog.New(w).With().Timestamp().Logger())
	}
}

func WithDebugLogging(w io.Writer) ClientOption {
	return func(c *Client) {
		c.logger = NewZerologLogger(zerolog.New(w).With().Timestamp().Logger())
		c.debugHTTP = true
	}
}

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

func (c *Client) logRequest(req *http.Request) {
	if c.logger == nil {
		return
	}
	if c.debugHTTP {
		if dump, err := httputil.DumpRequestOut(req, true); err == nil {
			c.logger.Debug("HTTP request:\n%s", string(dump))
			return
		}
	}
	c.logger.Debug("HTTP %s %s", req.Method, req.URL.Path)
}

func (c *Client) logResponse(resp *http.Response) {
	if c.logger == nil {
		return
	}
	if c.debugHTTP {
		if dump, err := httputil.DumpResponse(resp, true); err == nil {
			c.logger.Debug("HTTP response:\n%s", string(dump))
			return
		}
	}
	c.logger.Debug("HTTP response: %d", resp.StatusCode)
}
