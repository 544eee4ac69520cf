package dav

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

const (
	// defaultTimeout matches the 20 second request timeout of the client
	// this package's transport was modeled on.
	defaultTimeout = 20 * time.Second
	userAgent      = "go-dav/1.0"
)

// Client is a generic WebDAV/CalDAV/CardDAV client. A single Client serves
// both dialects; which dialect applies is a property of the call, not of
// the Client itself, so one Client can discover calendars and address
// books against the same server.
type Client struct {
	httpClient *http.Client
	baseURL    string
	authHeader string
	logger     Logger
	debugHTTP  bool

	connectionMetrics *ConnectionMetrics
	compression       *requestCompressionPolicy

	preferDefaults *PreferHeader
	batchConcurrency int

	syncMu      sync.RWMutex
	syncTokens  map[string]string
}

// NewClient creates a Client authenticating with HTTP Basic auth against
// baseURL.
func NewClient(baseURL, username, password string) *Client {
	authString := fmt.Sprintf("%s:%s", username, password)
	encodedAuth := base64.StdEncoding.EncodeToString([]byte(authString))

	return &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL:    baseURL,
		authHeader: fmt.Sprintf("Basic %s", encodedAuth),
		logger:     &noopLogger{},
		compression: newAutoCompressionPolicy(),
		preferDefaults: &PreferHeader{
			ReturnMinimal: true,
		},
		batchConcurrency: 16,
		syncTokens:        make(map[string]string),
	}
}

// NewClientWithOptions creates a Client and applies functional options.
func NewClientWithOptions(baseURL, username, password string, opts ...ClientOption) *Client {
	client := NewClient(baseURL, username, password)
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// WithCompressionDisabled turns off request body compression entirely.
func WithCompressionDisabled() ClientOption {
	return func(c *Client) {
		c.compression = newDisabledCompressionPolicy()
	}
}

// WithCompressionForced fixes the request body encoding, skipping
// negotiation and never falling back on a rejection status.
func WithCompressionForced(enc ContentEncoding) ClientOption {
	return func(c *Client) {
		c.compression = newForceCompressionPolicy(enc)
	}
}

// WithBatchConcurrency overrides the default bounded concurrency used by
// the batch fan-out helpers (C8). n must be positive.
func WithBatchConcurrency(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.batchConcurrency = n
		}
	}
}

// WithConnectionPool installs an HTTP transport built from config, wrapped
// with retry and instrumentation as configured.
func WithConnectionPool(poolConfig *ConnectionPoolConfig, retryConfig *RetryConfig) ClientOption {
	return func(c *Client) {
		transport := createTransport(poolConfig)
		metrics := &ConnectionMetrics{}
		c.connectionMetrics = metrics

		var rt http.RoundTripper = &instrumentedTransport{
			transport: transport,
			metrics:   metrics,
			logger:    c.logger,
		}
		if retryConfig != nil {
			rt = &roundTripperWithRetry{
				transport: rt,
				config:    retryConfig,
				logger:    c.logger,
				metrics:   metrics,
			}
		}
		c.httpClient.Transport = rt
	}
}

// SetTimeout configures the HTTP client timeout for all requests.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

// GetConnectionMetrics returns the current connection pool metrics, or nil
// if WithConnectionPool was never applied.
func (c *Client) GetConnectionMetrics() *ConnectionMetrics {
	return c.connectionMetrics
}

// SetBaseURL replaces the server base URL used to resolve relative paths.
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// GetBaseURL returns the server base URL.
func (c *Client) GetBaseURL() string {
	return c.baseURL
}

// GetHTTPClient returns the underlying HTTP client.
func (c *Client) GetHTTPClient() *http.Client {
	return c.httpClient
}

// prepareRequest creates an HTTP request for path (absolute or relative to
// the client's base URL) with auth and user-agent headers attached.
func (c *Client) prepareRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	target, err := buildURI(c.baseURL, path)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		c.logger.Error("failed to create %s request: %v", method, err)
		return nil, wrapErrorWithType("request.create", ErrorTypeInvalidRequest, err)
	}

	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("User-Agent", userAgent)

	return req, nil
}

func (c *Client) setXMLHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/xml; charset=utf-8")
}

func (c *Client) setDepthHeader(req *http.Request, depth Depth) {
	req.Header.Set("Depth", depth.String())
}

// sendXML issues method against path with an XML body, transparently
// compressing it per the client's compression policy and retrying once
// with Identity if the server rejects the negotiated encoding under Auto
// mode.
func (c *Client) sendXML(ctx context.Context, method, path string, depth Depth, body []byte) (*http.Response, error) {
	enc := c.compression.encodingFor(ctx, func(ctx context.Context) ContentEncoding {
		return probeRequestCompressionSupport(ctx, c.httpClient, c.baseURL, c.authHeader)
	})

	resp, err := c.sendXMLOnce(ctx, method, path, depth, body, enc)
	if err != nil {
		return nil, err
	}

	if enc != EncodingIdentity && compressionRejectStatuses[resp.StatusCode] && c.compression.mode == CompressionAuto {
		_ = resp.Body.Close()
		c.compression.onRejected()
		return c.sendXMLOnce(ctx, method, path, depth, body, EncodingIdentity)
	}

	return resp, nil
}

func (c *Client) sendXMLOnce(ctx context.Context, method, path string, depth Depth, body []byte, enc ContentEncoding) (*http.Response, error) {
	payload := body
	if enc != EncodingIdentity {
		compressed, err := compressPayload(body, enc)
		if err != nil {
			return nil, err
		}
		payload = compressed
	}

	req, err := c.prepareRequest(ctx, method, path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	c.setXMLHeaders(req)
	c.setDepthHeader(req, depth)
	setContentEncoding(req.Header, enc)
	addAcceptEncoding(req.Header)

	c.logRequest(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("%s %s failed: %v", method, path, err)
		return nil, wrapErrorWithType(fmt.Sprintf("%s.execute", method), ErrorTypeNetwork, err)
	}

	c.logResponse(resp)
	c.logger.Info("%s %s completed with status %d", method, path, resp.StatusCode)

	return resp, nil
}

func (c *Client) propfind(ctx context.Context, path string, depth Depth, body []byte) (*http.Response, error) {
	return c.sendXML(ctx, "PROPFIND", path, depth, body)
}

func (c *Client) report(ctx context.Context, path string, body []byte) (*http.Response, error) {
	return c.sendXML(ctx, "REPORT", path, DepthOne, body)
}

// readAndDecompressBody fully reads resp.Body and decompresses it according
// to its Content-Encoding header.
func readAndDecompressBody(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	chain := detectEncodings(resp.Header)
	return decompressBody(resp.Body, chain)
}
