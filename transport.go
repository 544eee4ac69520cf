package dav

import (
	"context"
	"net/http"
	"strings"
)

// Get issues a plain GET against path and returns the decompressed body.
func (c *Client) Get(ctx context.Context, path string) ([]byte, *http.Response, error) {
	req, err := c.prepareRequest(ctx, "GET", path, nil)
	if err != nil {
		return nil, nil, err
	}
	addAcceptEncoding(req.Header)

	c.logRequest(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, wrapErrorWithType("get.execute", ErrorTypeNetwork, err)
	}
	c.logResponse(resp)

	data, err := readAndDecompressBody(resp)
	if err != nil {
		return nil, resp, err
	}
	return data, resp, nil
}

// Head issues a HEAD request against path.
func (c *Client) Head(ctx context.Context, path string) (*http.Response, error) {
	req, err := c.prepareRequest(ctx, "HEAD", path, nil)
	if err != nil {
		return nil, err
	}

	c.logRequest(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, wrapErrorWithType("head.execute", ErrorTypeNetwork, err)
	}
	c.logResponse(resp)
	return resp, nil
}

// Options issues an OPTIONS request against path.
func (c *Client) Options(ctx context.Context, path string) (*http.Response, error) {
	req, err := c.prepareRequest(ctx, "OPTIONS", path, nil)
	if err != nil {
		return nil, err
	}

	c.logRequest(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, wrapErrorWithType("options.execute", ErrorTypeNetwork, err)
	}
	c.logResponse(resp)
	return resp, nil
}

// SupportsWebDAVSync probes path with OPTIONS and reports whether the
// server advertises RFC 6578 collection synchronization support via a
// "DAV: ...sync-collection..." response header token.
func (c *Client) SupportsWebDAVSync(ctx context.Context, path string) (bool, error) {
	resp, err := c.Options(ctx, path)
	if err != nil {
		return false, err
	}
	defer func() { _ = resp.Body.Close() }()

	for _, tok := range strings.Split(resp.Header.Get("DAV"), ",") {
		if strings.Contains(tok, "sync-collection") {
			return true, nil
		}
	}
	return false, nil
}
