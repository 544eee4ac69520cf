package dav

import (
	"net/url"
	"strings"
)

// buildURI joins the client's base URL with a request path or an absolute
// URL, following the exact semantics of the client this package's request
// compositor was modeled on:
//
//   - an absolute "http://" or "https://" path is returned unchanged
//   - an empty relative path leaves the base URL untouched
//   - a relative path starting with "/" replaces the base URL's path
//     entirely
//   - otherwise the base URL's path has its trailing "/" trimmed and the
//     relative path is appended after exactly one "/"
//   - any query string on the relative path is split off and reattached
//     verbatim to the result
//   - a combined path that ends up empty falls back to "/"
func buildURI(base string, rel string) (string, error) {
	if strings.HasPrefix(rel, "http://") || strings.HasPrefix(rel, "https://") {
		return rel, nil
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return "", wrapErrorWithType("uri.parse_base", ErrorTypeInvalidRequest, err)
	}

	if rel == "" {
		return baseURL.String(), nil
	}

	relPath := rel
	var rawQuery string
	if idx := strings.IndexByte(rel, '?'); idx >= 0 {
		relPath = rel[:idx]
		rawQuery = rel[idx+1:]
	}

	out := *baseURL
	switch {
	case strings.HasPrefix(relPath, "/"):
		out.Path = relPath
	default:
		trimmed := strings.TrimSuffix(out.Path, "/")
		out.Path = trimmed + "/" + relPath
	}

	if out.Path == "" {
		out.Path = "/"
	}

	out.RawQuery = rawQuery
	return out.String(), nil
}
