package dav

import (
	"encoding/xml"
	"io"
	"strings"
)

// parseMultistatus streams a <multistatus> body through a single
// dialect-parameterized SAX-style parser shared by CalDAV and CardDAV,
// rather than two near-duplicate per-dialect parsers. dialect supplies the
// element names and namespace that vary between the two (data element,
// resourcetype marker, component-set shape, home-set element).
func parseMultistatus(body io.Reader, dialect Dialect) (*ParseResult, error) {
	dec := xml.NewDecoder(body)
	p := &msParser{dialect: dialect}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, wrapErrorWithType("parser.token", ErrorTypeDecode, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			p.onStart(localName(t.Name.Local), t.Attr)
		case xml.EndElement:
			if err := p.onEnd(localName(t.Name.Local)); err != nil {
				return nil, err
			}
		case xml.CharData:
			p.textBuf.Write(t)
		}
	}

	return &ParseResult{Items: p.items, SyncToken: p.topSyncToken}, nil
}

// localName strips everything up to and including the first ':' of a raw
// element name and lowercases what remains, matching servers that send
// unexpected or undeclared namespace prefixes.
func localName(raw string) string {
	if idx := strings.IndexByte(raw, ':'); idx >= 0 {
		raw = raw[idx+1:]
	}
	return strings.ToLower(raw)
}

// msParser is the shared stack-driven path matcher. Its behavior for any
// given element is resolved against both the raw element name and, where
// the name itself varies between dialects, the dialect descriptor.
type msParser struct {
	dialect Dialect
	stack   []string
	items   []DavItem
	current *DavItem

	textBuf      strings.Builder
	topSyncToken string
}

func (p *msParser) parent() string {
	if len(p.stack) < 2 {
		return ""
	}
	return p.stack[len(p.stack)-2]
}

func (p *msParser) onStart(name string, attrs []xml.Attr) {
	p.stack = append(p.stack, name)
	p.textBuf.Reset()

	if name == "response" {
		p.current = &DavItem{}
		return
	}

	switch p.parent() {
	case "resourcetype":
		switch name {
		case "collection":
			if p.current != nil {
				p.current.IsCollection = true
			}
		case p.dialect.ResourceTypeName:
			if p.current != nil {
				p.current.IsDialectCollection = true
			}
		}
	case p.dialect.ComponentSetName:
		if name == p.dialect.ComponentName {
			p.captureComponent(attrs)
		}
	}
}

// onEnd closes the element matching name. A mismatch against the open
// element on the stack means the document was not well-formed; rather than
// assume well-formedness and carry on, this parser fails fast.
func (p *msParser) onEnd(name string) error {
	if len(p.stack) == 0 || p.stack[len(p.stack)-1] != name {
		return newTypedError("parser.end_tag", ErrorTypeDecode, "mismatched end tag </"+name+">", ErrDecode)
	}

	text := p.textBuf.String()
	trimmed := strings.TrimSpace(text)

	switch name {
	case "href":
		p.assignHref(trimmed)
	case "status":
		if trimmed != "" && p.current != nil {
			p.current.Status = trimmed
		}
	case "displayname":
		if trimmed != "" && p.current != nil {
			p.current.Displayname = trimmed
		}
	case "getetag":
		if trimmed != "" && p.current != nil {
			p.current.ETag = trimmed
		}
	case "getcontenttype":
		if trimmed != "" && p.current != nil {
			p.current.ContentType = trimmed
		}
	case "getlastmodified":
		if trimmed != "" && p.current != nil {
			p.current.LastModified = trimmed
		}
	case "sync-token":
		p.assignSyncToken(trimmed)
	case p.dialect.DescriptionName:
		if trimmed != "" && p.current != nil {
			p.current.Description = trimmed
		}
	case p.dialect.ColorName:
		if trimmed != "" && p.current != nil {
			p.current.Color = trimmed
		}
	case "calendar-timezone":
		if text != "" && p.current != nil {
			p.current.Timezone += text
		}
	case p.dialect.DataElementName:
		if text != "" && p.current != nil {
			p.current.Data += text
		}
	case "response":
		if p.current != nil {
			p.items = append(p.items, *p.current)
			p.current = nil
		}
	}

	p.stack = p.stack[:len(p.stack)-1]
	p.textBuf.Reset()
	return nil
}

func (p *msParser) assignHref(href string) {
	if href == "" || p.current == nil {
		return
	}
	switch p.parent() {
	case "response":
		p.current.Href = href
	case p.dialect.HomeSetName:
		p.current.HomeSet = appendDedup(p.current.HomeSet, href)
	case "current-user-principal":
		p.current.CurrentUserPrincipal = appendDedup(p.current.CurrentUserPrincipal, href)
	case "owner":
		p.current.Owner = href
	}
}

func (p *msParser) assignSyncToken(token string) {
	if token == "" {
		return
	}
	if len(p.stack) == 2 && p.stack[0] == "multistatus" {
		p.topSyncToken = token
		return
	}
	if p.current != nil {
		p.current.SyncToken = token
	}
}

// captureComponent reads the attribute that carries a supported-component
// value: a bare "name" attribute for CalDAV's <C:comp>, or a
// "content-type"/"version" pair for CardDAV's <CARD:address-data-type>.
func (p *msParser) captureComponent(attrs []xml.Attr) {
	if p.current == nil {
		return
	}

	var value string
	if p.dialect.ComponentName == "comp" {
		value = attrVal(attrs, "name")
	} else {
		contentType := attrVal(attrs, "content-type")
		if contentType == "" {
			return
		}
		if version := attrVal(attrs, "version"); version != "" {
			value = contentType + ";version=" + version
		} else {
			value = contentType
		}
	}
	if value == "" {
		return
	}
	p.current.SupportedComponents = appendDedupCI(p.current.SupportedComponents, value)
}

func attrVal(attrs []xml.Attr, name string) string {
	for _, a := range attrs {
		if strings.EqualFold(a.Name.Local, name) {
			return a.Value
		}
	}
	return ""
}

func appendDedup(list []string, v string) []string {
	for _, e := range list {
		if e == v {
			return list
		}
	}
	return append(list, v)
}

func appendDedupCI(list []string, v string) []string {
	for _, e := range list {
		if strings.EqualFold(e, v) {
			return list
		}
	}
	return append(list, v)
}
