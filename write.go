package dav

import (
	"bytes"
	"context"
	"net/http"
)

// Put uploads data to path, unconditionally overwriting any existing
// resource.
func (c *Client) Put(ctx context.Context, path string, contentType string, data []byte) (*http.Response, error) {
	return c.putConditional(ctx, path, contentType, data, "", "")
}

// PutIfMatch uploads data to path only if its current ETag equals etag.
// etag must be non-empty; an empty etag would silently degrade this into
// an unconditional write.
func (c *Client) PutIfMatch(ctx context.Context, path string, contentType string, data []byte, etag string) (*http.Response, error) {
	if etag == "" {
		return nil, newTypedError("put_if_match", ErrorTypeValidation, "etag must be non-empty", ErrValidation)
	}
	return c.putConditional(ctx, path, contentType, data, etag, "")
}

// PutIfNoneMatch uploads data to path only if no resource currently exists
// there (If-None-Match: *).
func (c *Client) PutIfNoneMatch(ctx context.Context, path string, contentType string, data []byte) (*http.Response, error) {
	return c.putConditional(ctx, path, contentType, data, "", "*")
}

func (c *Client) putConditional(ctx context.Context, path, contentType string, data []byte, ifMatch, ifNoneMatch string) (*http.Response, error) {
	req, err := c.prepareRequest(ctx, "PUT", path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	if ifMatch != "" {
		req.Header.Set("If-Match", ifMatch)
	}
	if ifNoneMatch != "" {
		req.Header.Set("If-None-Match", ifNoneMatch)
	}

	c.logRequest(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, wrapErrorWithType("put.execute", ErrorTypeNetwork, err)
	}
	c.logResponse(resp)
	return resp, nil
}

// Delete removes the resource at path unconditionally.
func (c *Client) Delete(ctx context.Context, path string) (*http.Response, error) {
	return c.deleteConditional(ctx, path, "")
}

// DeleteIfMatch removes the resource at path only if its ETag equals etag.
// etag must be non-empty; an empty etag would silently degrade this into
// an unconditional delete.
func (c *Client) DeleteIfMatch(ctx context.Context, path, etag string) (*http.Response, error) {
	if etag == "" {
		return nil, newTypedError("delete_if_match", ErrorTypeValidation, "etag must be non-empty", ErrValidation)
	}
	return c.deleteConditional(ctx, path, etag)
}

func (c *Client) deleteConditional(ctx context.Context, path, etag string) (*http.Response, error) {
	req, err := c.prepareRequest(ctx, "DELETE", path, nil)
	if err != nil {
		return nil, err
	}
	if etag != "" {
		req.Header.Set("If-Match", etag)
	}

	c.logRequest(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, wrapErrorWithType("delete.execute", ErrorTypeNetwork, err)
	}
	c.logResponse(resp)
	return resp, nil
}

// Copy issues a WebDAV COPY of src to dst. overwrite controls the
// Overwrite header ("T"/"F").
func (c *Client) Copy(ctx context.Context, src, dst string, overwrite bool) (*http.Response, error) {
	return c.copyOrMove(ctx, "COPY", src, dst, overwrite)
}

// Move issues a WebDAV MOVE of src to dst.
func (c *Client) Move(ctx context.Context, src, dst string, overwrite bool) (*http.Response, error) {
	return c.copyOrMove(ctx, "MOVE", src, dst, overwrite)
}

func (c *Client) copyOrMove(ctx context.Context, method, src, dst string, overwrite bool) (*http.Response, error) {
	destination, err := buildURI(c.baseURL, dst)
	if err != nil {
		return nil, err
	}

	req, err := c.prepareRequest(ctx, method, src, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Destination", destination)
	if overwrite {
		req.Header.Set("Overwrite", "T")
	} else {
		req.Header.Set("Overwrite", "F")
	}

	c.logRequest(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, wrapErrorWithType(method+".execute", ErrorTypeNetwork, err)
	}
	c.logResponse(resp)
	return resp, nil
}

// Mkcalendar creates a calendar collection at path via MKCALENDAR, falling
// back to extended MKCOL if the server rejects the dedicated verb (some
// servers only implement RFC 5689 MKCOL with a resourcetype body).
func (c *Client) Mkcalendar(ctx context.Context, path, displayname, description string) (*http.Response, error) {
	body := buildMkcalendarBody(displayname, description)

	req, err := c.prepareRequest(ctx, "MKCALENDAR", path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.setXMLHeaders(req)

	c.logRequest(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, wrapErrorWithType("mkcalendar.execute", ErrorTypeNetwork, err)
	}
	c.logResponse(resp)

	if resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented {
		_ = resp.Body.Close()
		return c.mkcol(ctx, CalDAV, path, displayname)
	}
	return resp, nil
}

// Mkaddressbook creates an addressbook collection at path via MKADDRESSBOOK,
// falling back to extended MKCOL if the server rejects the dedicated verb.
func (c *Client) Mkaddressbook(ctx context.Context, path, displayname, description string) (*http.Response, error) {
	body := buildMkaddressbookBody(displayname, description)

	req, err := c.prepareRequest(ctx, "MKADDRESSBOOK", path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.setXMLHeaders(req)

	c.logRequest(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, wrapErrorWithType("mkaddressbook.execute", ErrorTypeNetwork, err)
	}
	c.logResponse(resp)

	if resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented {
		_ = resp.Body.Close()
		return c.mkcol(ctx, CardDAV, path, displayname)
	}
	return resp, nil
}

func (c *Client) mkcol(ctx context.Context, dialect Dialect, path, displayname string) (*http.Response, error) {
	body := buildMkcolBody(dialect, displayname)

	req, err := c.prepareRequest(ctx, "MKCOL", path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.setXMLHeaders(req)

	c.logRequest(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, wrapErrorWithType("mkcol.execute", ErrorTypeNetwork, err)
	}
	c.logResponse(resp)
	return resp, nil
}
