package dav

import (
	"bytes"
	"context"
	"net/http"
	"sync"
	"time"
)

// CompressionMode selects how request bodies are compressed before they are
// sent to the server.
type CompressionMode int

const (
	// CompressionAuto probes the server once (or lazily, on first request
	// that needs it) and caches the negotiated encoding for subsequent
	// requests, falling back to Identity-and-retry-once if the server
	// rejects the negotiated encoding.
	CompressionAuto CompressionMode = iota
	// CompressionDisabled never compresses request bodies.
	CompressionDisabled
	// CompressionForce always uses a fixed encoding and never falls back,
	// even on a rejection status.
	CompressionForce
)

// compressionRejectStatuses are the response statuses that, under
// CompressionAuto, mean "the server rejected the negotiated request
// encoding" and trigger a single retry with Identity.
var compressionRejectStatuses = map[int]bool{
	http.StatusBadRequest:          true,
	http.StatusUnsupportedMediaType: true,
	http.StatusNotImplemented:      true,
}

// requestCompressionPolicy implements the Auto/Disabled/Force state machine
// for request body compression (C3). Auto mode probes the server once under
// a single-flight lock and caches the result; concurrent callers during the
// probe block on the same result rather than each issuing their own probe.
type requestCompressionPolicy struct {
	mode  CompressionMode
	fixed ContentEncoding // meaningful only when mode == CompressionForce

	mu        sync.RWMutex
	negotiated *ContentEncoding // nil until probed
	probing    bool
	probeDone  chan struct{}
}

func newAutoCompressionPolicy() *requestCompressionPolicy {
	return &requestCompressionPolicy{mode: CompressionAuto}
}

func newDisabledCompressionPolicy() *requestCompressionPolicy {
	return &requestCompressionPolicy{mode: CompressionDisabled}
}

func newForceCompressionPolicy(enc ContentEncoding) *requestCompressionPolicy {
	return &requestCompressionPolicy{mode: CompressionForce, fixed: enc}
}

// encodingFor returns the encoding to use for the next request, running the
// probe under double-checked locking if one hasn't completed yet.
func (p *requestCompressionPolicy) encodingFor(ctx context.Context, probe func(context.Context) ContentEncoding) ContentEncoding {
	switch p.mode {
	case CompressionDisabled:
		return EncodingIdentity
	case CompressionForce:
		return p.fixed
	}

	p.mu.RLock()
	if p.negotiated != nil {
		enc := *p.negotiated
		p.mu.RUnlock()
		return enc
	}
	p.mu.RUnlock()

	p.mu.Lock()
	if p.negotiated != nil {
		enc := *p.negotiated
		p.mu.Unlock()
		return enc
	}
	if p.probing {
		done := p.probeDone
		p.mu.Unlock()
		<-done
		p.mu.RLock()
		enc := EncodingIdentity
		if p.negotiated != nil {
			enc = *p.negotiated
		}
		p.mu.RUnlock()
		return enc
	}
	p.probing = true
	p.probeDone = make(chan struct{})
	p.mu.Unlock()

	result := probe(ctx)

	p.mu.Lock()
	p.negotiated = &result
	p.probing = false
	close(p.probeDone)
	p.mu.Unlock()

	return result
}

// onRejected reports a compressionRejectStatuses status for the encoding
// used on the prior attempt. Under Auto it clears the cache to Identity so
// the retry (and all subsequent requests) stop compressing. Under Force it
// is a no-op: Force never falls back.
func (p *requestCompressionPolicy) onRejected() {
	if p.mode != CompressionAuto {
		return
	}
	p.mu.Lock()
	identity := EncodingIdentity
	p.negotiated = &identity
	p.mu.Unlock()
}

// probeRequestCompressionSupport sends a minimal gzip-compressed PROPFIND
// against baseURL with a hardcoded 5 second timeout to discover whether the
// server accepts compressed request bodies. Any failure, including a
// timeout, resolves to Identity rather than surfacing an error: the probe
// is advisory, not load-bearing.
func probeRequestCompressionSupport(ctx context.Context, httpClient *http.Client, baseURL string, authHeader string) ContentEncoding {
	const probeBody = `<?xml version="1.0" encoding="utf-8"?><D:propfind xmlns:D="DAV:"><D:prop><D:current-user-principal/></D:prop></D:propfind>`

	compressed, err := compressPayload([]byte(probeBody), EncodingGzip)
	if err != nil {
		return EncodingIdentity
	}

	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, "PROPFIND", baseURL, bytes.NewReader(compressed))
	if err != nil {
		return EncodingIdentity
	}
	req.Header.Set("Content-Type", "application/xml; charset=utf-8")
	req.Header.Set("Content-Encoding", "gzip")
	req.Header.Set("Depth", "0")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return EncodingIdentity
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return EncodingIdentity
	}
	return EncodingGzip
}
