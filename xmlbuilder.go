package dav

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"time"
)

// xmlEscape escapes the five predefined XML entities.
func xmlEscape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// formatTimeForCalDAV renders t as a CalDAV UTC timestamp (YYYYMMDDTHHMMSSZ).
func formatTimeForCalDAV(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// buildPropfindXML composes a PROPFIND body for the requested property
// names. Unrecognized names are silently skipped, as with the client's
// original property-name switch.
func buildPropfindXML(d Dialect, props []string) []byte {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	fmt.Fprintf(&buf, `<D:propfind xmlns:D="DAV:" xmlns:C="%s" xmlns:CS="http://calendarserver.org/ns/">`, d.Namespace)
	buf.WriteString(`<D:prop>`)

	for _, prop := range props {
		switch prop {
		case "displayname":
			buf.WriteString(`<D:displayname/>`)
		case "resourcetype":
			buf.WriteString(`<D:resourcetype/>`)
		case "current-user-principal":
			buf.WriteString(`<D:current-user-principal/>`)
		case "owner":
			buf.WriteString(`<D:owner/>`)
		case "getetag":
			buf.WriteString(`<D:getetag/>`)
		case "sync-token":
			buf.WriteString(`<D:sync-token/>`)
		case "home-set":
			fmt.Fprintf(&buf, `<C:%s/>`, d.HomeSetName)
		case "description":
			fmt.Fprintf(&buf, `<C:%s/>`, d.DescriptionName)
		case "color":
			fmt.Fprintf(&buf, `<C:%s/>`, d.ColorName)
		case "component-set":
			fmt.Fprintf(&buf, `<C:%s/>`, d.ComponentSetName)
		case "data":
			fmt.Fprintf(&buf, `<C:%s/>`, d.DataElementName)
		}
	}

	buf.WriteString(`</D:prop>`)
	buf.WriteString(`</D:propfind>`)
	return buf.Bytes()
}

// buildCalendarQueryBody composes a CalDAV calendar-query REPORT body for
// component (e.g. "VEVENT") constrained to an optional time range, matching
// the wire shape of the client this package was modeled on.
func buildCalendarQueryBody(component string, start, end *time.Time, includeData bool) []byte {
	var prop bytes.Buffer
	prop.WriteString(`<D:prop><D:getetag/>`)
	if includeData {
		prop.WriteString(`<C:calendar-data/>`)
	}
	prop.WriteString(`</D:prop>`)

	var filter bytes.Buffer
	fmt.Fprintf(&filter, `<C:filter><C:comp-filter name="VCALENDAR"><C:comp-filter name="%s">`, xmlEscape(component))
	if start != nil || end != nil {
		filter.WriteString(`<C:time-range`)
		if start != nil {
			fmt.Fprintf(&filter, ` start="%s"`, xmlEscape(formatTimeForCalDAV(*start)))
		}
		if end != nil {
			fmt.Fprintf(&filter, ` end="%s"`, xmlEscape(formatTimeForCalDAV(*end)))
		}
		filter.WriteString(`/>`)
	}
	filter.WriteString(`</C:comp-filter></C:comp-filter></C:filter>`)

	return []byte(fmt.Sprintf(
		`<?xml version="1.0" encoding="utf-8"?><C:calendar-query xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:caldav">%s%s</C:calendar-query>`,
		prop.String(), filter.String()))
}

// nonEmptyHrefs drops blank entries from hrefs, as a bare multiget body with
// an empty <D:href/> is meaningless to dispatch.
func nonEmptyHrefs(hrefs []string) []string {
	var out []string
	for _, h := range hrefs {
		if h != "" {
			out = append(out, h)
		}
	}
	return out
}

// buildCalendarMultigetBody composes a calendar-multiget REPORT body for a
// set of hrefs. Returns nil when hrefs yields no non-empty entry.
func buildCalendarMultigetBody(hrefs []string, includeData bool) []byte {
	hrefs = nonEmptyHrefs(hrefs)
	if len(hrefs) == 0 {
		return nil
	}

	var prop bytes.Buffer
	prop.WriteString(`<D:prop><D:getetag/>`)
	if includeData {
		prop.WriteString(`<C:calendar-data/>`)
	}
	prop.WriteString(`</D:prop>`)

	var hrefsXML bytes.Buffer
	for _, h := range hrefs {
		fmt.Fprintf(&hrefsXML, `<D:href>%s</D:href>`, xmlEscape(h))
	}

	return []byte(fmt.Sprintf(
		`<?xml version="1.0" encoding="utf-8"?><C:calendar-multiget xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:caldav">%s%s</C:calendar-multiget>`,
		prop.String(), hrefsXML.String()))
}

// buildAddressbookMultigetBody composes an addressbook-multiget REPORT body.
// Returns nil when hrefs yields no non-empty entry.
func buildAddressbookMultigetBody(hrefs []string, includeData bool) []byte {
	hrefs = nonEmptyHrefs(hrefs)
	if len(hrefs) == 0 {
		return nil
	}

	var prop bytes.Buffer
	prop.WriteString(`<D:prop><D:getetag/>`)
	if includeData {
		prop.WriteString(`<CARD:address-data/>`)
	}
	prop.WriteString(`</D:prop>`)

	var hrefsXML bytes.Buffer
	for _, h := range hrefs {
		fmt.Fprintf(&hrefsXML, `<D:href>%s</D:href>`, xmlEscape(h))
	}

	return []byte(fmt.Sprintf(
		`<?xml version="1.0" encoding="utf-8"?><CARD:addressbook-multiget xmlns:D="DAV:" xmlns:CARD="urn:ietf:params:xml:ns:carddav">%s%s</CARD:addressbook-multiget>`,
		prop.String(), hrefsXML.String()))
}

// AddressbookQueryKind selects one of the addressbook-query filter presets
// this package ships ready-made, mirroring the prebuilt UID/EMAIL/FN
// filters of the client it generalizes.
type AddressbookQueryKind int

const (
	AddressbookQueryByUID AddressbookQueryKind = iota
	AddressbookQueryByEmail
	AddressbookQueryByFN
)

// buildAddressbookQueryBody composes an addressbook-query REPORT body
// matching value in the property named by kind.
func buildAddressbookQueryBody(kind AddressbookQueryKind, value string) []byte {
	propName := map[AddressbookQueryKind]string{
		AddressbookQueryByUID:   "UID",
		AddressbookQueryByEmail: "EMAIL",
		AddressbookQueryByFN:    "FN",
	}[kind]

	body := fmt.Sprintf(
		`<?xml version="1.0" encoding="utf-8"?><CARD:addressbook-query xmlns:D="DAV:" xmlns:CARD="urn:ietf:params:xml:ns:carddav">`+
			`<D:prop><D:getetag/><CARD:address-data/></D:prop>`+
			`<CARD:filter test="anyof"><CARD:prop-filter name="%s"><CARD:text-match collation="i;unicode-casemap" match-type="equals">%s</CARD:text-match></CARD:prop-filter></CARD:filter>`+
			`</CARD:addressbook-query>`,
		propName, xmlEscape(value))
	return []byte(body)
}

// buildSyncCollectionBody composes an RFC 6578 sync-collection REPORT body.
// limit of 0 omits the <D:limit> element and requests server-default paging.
func buildSyncCollectionBody(d Dialect, syncToken string, limit int, includeData bool) []byte {
	var prop bytes.Buffer
	prop.WriteString(`<D:prop><D:getetag/>`)
	if includeData {
		prop.WriteString(fmt.Sprintf(`<C:%s/>`, d.DataElementName))
	}
	prop.WriteString(`</D:prop>`)

	tokenXML := `<D:sync-token/>`
	if syncToken != "" {
		tokenXML = fmt.Sprintf(`<D:sync-token>%s</D:sync-token>`, xmlEscape(syncToken))
	}

	limitXML := ""
	if limit > 0 {
		limitXML = fmt.Sprintf(`<D:limit><D:nresults>%d</D:nresults></D:limit>`, limit)
	}

	return []byte(fmt.Sprintf(
		`<?xml version="1.0" encoding="utf-8"?><D:sync-collection xmlns:D="DAV:" xmlns:C="%s">%s<D:sync-level>1</D:sync-level>%s%s</D:sync-collection>`,
		d.Namespace, tokenXML, prop.String(), limitXML))
}

// buildMkcolBody wraps a displayname/resourcetype property set in a
// <D:mkcol> body for servers that support RFC 5689 extended MKCOL, the
// fallback this package uses when a dialect-specific MKCALENDAR/
// MKADDRESSBOOK verb is rejected.
func buildMkcolBody(d Dialect, displayname string) []byte {
	return []byte(fmt.Sprintf(
		`<?xml version="1.0" encoding="utf-8"?><D:mkcol xmlns:D="DAV:" xmlns:C="%s">`+
			`<D:set><D:prop><D:resourcetype><D:collection/><C:%s/></D:resourcetype><D:displayname>%s</D:displayname></D:prop></D:set>`+
			`</D:mkcol>`,
		d.Namespace, d.ResourceTypeName, xmlEscape(displayname)))
}

// buildMkcalendarBody composes a MKCALENDAR body (CalDAV only).
func buildMkcalendarBody(displayname, description string) []byte {
	descXML := ""
	if description != "" {
		descXML = fmt.Sprintf(`<C:calendar-description>%s</C:calendar-description>`, xmlEscape(description))
	}
	return []byte(fmt.Sprintf(
		`<?xml version="1.0" encoding="utf-8"?><C:mkcalendar xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:caldav">`+
			`<D:set><D:prop><D:displayname>%s</D:displayname>%s</D:prop></D:set>`+
			`</C:mkcalendar>`,
		xmlEscape(displayname), descXML))
}

// buildMkaddressbookBody composes a MKADDRESSBOOK body (CardDAV only).
func buildMkaddressbookBody(displayname, description string) []byte {
	descXML := ""
	if description != "" {
		descXML = fmt.Sprintf(`<CARD:addressbook-description>%s</CARD:addressbook-description>`, xmlEscape(description))
	}
	return []byte(fmt.Sprintf(
		`<?xml version="1.0" encoding="utf-8"?><CARD:mkaddressbook xmlns:D="DAV:" xmlns:CARD="urn:ietf:params:xml:ns:carddav">`+
			`<D:set><D:prop><D:displayname>%s</D:displayname>%s</D:prop></D:set>`+
			`</CARD:mkaddressbook>`,
		xmlEscape(displayname), descXML))
}
