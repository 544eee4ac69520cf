package dav

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// ContentEncoding identifies a wire compression codec.
type ContentEncoding int

const (
	EncodingIdentity ContentEncoding = iota
	EncodingBrotli
	EncodingGzip
	EncodingZstd
)

func (e ContentEncoding) String() string {
	switch e {
	case EncodingBrotli:
		return "br"
	case EncodingGzip:
		return "gzip"
	case EncodingZstd:
		return "zstd"
	default:
		return "identity"
	}
}

// detectEncodings parses a Content-Encoding header into an ordered chain in
// header order, i.e. the order the codings were applied (the last element is
// the outermost and is decoded first). Identity and unknown tokens are
// dropped rather than terminating the chain.
func detectEncodings(header http.Header) []ContentEncoding {
	raw := header.Get("Content-Encoding")
	if raw == "" {
		return nil
	}

	var chain []ContentEncoding
	for _, tok := range strings.Split(raw, ",") {
		switch strings.ToLower(strings.TrimSpace(tok)) {
		case "br":
			chain = append(chain, EncodingBrotli)
		case "gzip":
			chain = append(chain, EncodingGzip)
		case "zstd", "zst":
			chain = append(chain, EncodingZstd)
		default:
			// identity and unrecognized tokens are dropped
		}
	}
	return chain
}

// addAcceptEncoding inserts a fixed Accept-Encoding value if one is not
// already present. Idempotent.
func addAcceptEncoding(header http.Header) {
	if header.Get("Accept-Encoding") == "" {
		header.Set("Accept-Encoding", "br, zstd, gzip")
	}
}

// selectRequestEncoding inspects a server Accept-Encoding header (with
// q-values) and returns the best mutually supported encoding among
// {br, zstd, gzip}, falling back to identity, or none if nothing is
// acceptable at all.
func selectRequestEncoding(acceptEncoding string) (ContentEncoding, bool) {
	if acceptEncoding == "" {
		return EncodingIdentity, false
	}

	var wildcardQ *float64
	identityQ := 1.0
	identityExplicit := false
	type entry struct {
		name string
		q    float64
	}
	var entries []entry

	for _, part := range strings.Split(acceptEncoding, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		segs := strings.Split(trimmed, ";")
		token := strings.ToLower(strings.TrimSpace(segs[0]))
		if token == "" {
			continue
		}
		weight := 1.0
		for _, param := range segs[1:] {
			k, v, ok := strings.Cut(param, "=")
			if ok && strings.EqualFold(strings.TrimSpace(k), "q") {
				if parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
					weight = clamp01(parsed)
				}
			}
		}
		switch token {
		case "identity":
			identityQ = weight
			identityExplicit = true
		case "*":
			w := weight
			wildcardQ = &w
		default:
			entries = append(entries, entry{name: token, q: weight})
		}
	}

	if !identityExplicit && wildcardQ != nil {
		identityQ = *wildcardQ
	}

	var best *ContentEncoding
	var bestQ float64
	for _, candidate := range []ContentEncoding{EncodingBrotli, EncodingZstd, EncodingGzip} {
		var directQ *float64
		for _, e := range entries {
			if e.name == candidate.String() {
				q := e.q
				directQ = &q
				break
			}
		}
		effectiveQ := directQ
		if effectiveQ == nil {
			effectiveQ = wildcardQ
		}
		if effectiveQ == nil || *effectiveQ <= 0 {
			continue
		}
		if best == nil || *effectiveQ > bestQ {
			c := candidate
			best = &c
			bestQ = *effectiveQ
		}
	}

	if best != nil {
		return *best, true
	}
	if identityQ > 0 {
		return EncodingIdentity, true
	}
	return EncodingIdentity, false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// compressPayload compresses data with the given encoding. Identity returns
// the input unchanged.
func compressPayload(data []byte, enc ContentEncoding) ([]byte, error) {
	switch enc {
	case EncodingIdentity:
		return data, nil
	case EncodingBrotli:
		var buf bytes.Buffer
		w := brotli.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, wrapErrorWithType("compress.brotli", ErrorTypeDecode, err)
		}
		if err := w.Close(); err != nil {
			return nil, wrapErrorWithType("compress.brotli", ErrorTypeDecode, err)
		}
		return buf.Bytes(), nil
	case EncodingGzip:
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, wrapErrorWithType("compress.gzip", ErrorTypeDecode, err)
		}
		if err := w.Close(); err != nil {
			return nil, wrapErrorWithType("compress.gzip", ErrorTypeDecode, err)
		}
		return buf.Bytes(), nil
	case EncodingZstd:
		var buf bytes.Buffer
		w, err := zstd.NewWriter(&buf)
		if err != nil {
			return nil, wrapErrorWithType("compress.zstd", ErrorTypeDecode, err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, wrapErrorWithType("compress.zstd", ErrorTypeDecode, err)
		}
		if err := w.Close(); err != nil {
			return nil, wrapErrorWithType("compress.zstd", ErrorTypeDecode, err)
		}
		return buf.Bytes(), nil
	default:
		return data, nil
	}
}

// decompressReader wraps r with decoders for each encoding in chain, applied
// in reverse order so the outermost encoding is peeled first. Identity is a
// no-op wrap.
func decompressReader(r io.Reader, chain []ContentEncoding) (io.ReadCloser, error) {
	current := io.NopCloser(r)
	for i := len(chain) - 1; i >= 0; i-- {
		switch chain[i] {
		case EncodingIdentity:
			continue
		case EncodingBrotli:
			current = io.NopCloser(brotli.NewReader(current))
		case EncodingGzip:
			gz, err := gzip.NewReader(current)
			if err != nil {
				return nil, wrapErrorWithType("decompress.gzip", ErrorTypeDecode, err)
			}
			current = gz
		case EncodingZstd:
			zr, err := zstd.NewReader(current)
			if err != nil {
				return nil, wrapErrorWithType("decompress.zstd", ErrorTypeDecode, err)
			}
			current = io.NopCloser(zr.IOReadCloser())
		}
	}
	return current, nil
}

// decompressBody fully decompresses an aggregated response body.
func decompressBody(body io.Reader, chain []ContentEncoding) ([]byte, error) {
	r, err := decompressReader(body, chain)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, wrapErrorWithType("decompress.read", ErrorTypeDecode, err)
	}
	return out, nil
}

// decompressStream wraps a streaming response body without consuming it.
func decompressStream(body io.Reader, chain []ContentEncoding) (io.ReadCloser, error) {
	return decompressReader(body, chain)
}

// setContentEncoding sets Content-Encoding only for non-identity encodings.
func setContentEncoding(header http.Header, enc ContentEncoding) {
	if enc != EncodingIdentity {
		header.Set("Content-Encoding", enc.String())
	}
}
