package dav

import (
	"bytes"
	"context"
	"time"
)

// CalendarQueryTimeRange runs a calendar-query REPORT for component (e.g.
// "VEVENT") constrained to [start, end], either bound may be nil.
func (c *Client) CalendarQueryTimeRange(ctx context.Context, calendarPath, component string, start, end *time.Time) ([]CalendarObject, error) {
	body := buildCalendarQueryBody(component, start, end, true)

	resp, err := c.report(ctx, calendarPath, body)
	if err != nil {
		return nil, err
	}
	data, err := readAndDecompressBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != 207 {
		return nil, newStatusError("calendar_query", resp.StatusCode, data)
	}

	result, err := parseMultistatus(bytes.NewReader(data), CalDAV)
	if err != nil {
		return nil, wrapErrorWithType("calendar_query", ErrorTypeDecode, err)
	}
	return toCalendarObjects(result.Items), nil
}

// CalendarMultiget fetches a known set of calendar object hrefs via
// calendar-multiget REPORT. Empty hrefs yields an empty result with no
// network call.
func (c *Client) CalendarMultiget(ctx context.Context, calendarPath string, hrefs []string) ([]CalendarObject, error) {
	body := buildCalendarMultigetBody(hrefs, true)
	if body == nil {
		return nil, nil
	}

	resp, err := c.report(ctx, calendarPath, body)
	if err != nil {
		return nil, err
	}
	data, err := readAndDecompressBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != 207 {
		return nil, newStatusError("calendar_multiget", resp.StatusCode, data)
	}

	result, err := parseMultistatus(bytes.NewReader(data), CalDAV)
	if err != nil {
		return nil, wrapErrorWithType("calendar_multiget", ErrorTypeDecode, err)
	}
	return toCalendarObjects(result.Items), nil
}

// AddressbookMultiget fetches a known set of vCard hrefs via
// addressbook-multiget REPORT. Empty hrefs yields an empty result with no
// network call.
func (c *Client) AddressbookMultiget(ctx context.Context, addressbookPath string, hrefs []string) ([]AddressObject, error) {
	body := buildAddressbookMultigetBody(hrefs, true)
	if body == nil {
		return nil, nil
	}

	resp, err := c.report(ctx, addressbookPath, body)
	if err != nil {
		return nil, err
	}
	data, err := readAndDecompressBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != 207 {
		return nil, newStatusError("addressbook_multiget", resp.StatusCode, data)
	}

	result, err := parseMultistatus(bytes.NewReader(data), CardDAV)
	if err != nil {
		return nil, wrapErrorWithType("addressbook_multiget", ErrorTypeDecode, err)
	}
	return toAddressObjects(result.Items), nil
}

// AddressbookQuery runs an addressbook-query REPORT using one of the
// prebuilt UID/EMAIL/FN filters.
func (c *Client) AddressbookQuery(ctx context.Context, addressbookPath string, kind AddressbookQueryKind, value string) ([]AddressObject, error) {
	body := buildAddressbookQueryBody(kind, value)

	resp, err := c.report(ctx, addressbookPath, body)
	if err != nil {
		return nil, err
	}
	data, err := readAndDecompressBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != 207 {
		return nil, newStatusError("addressbook_query", resp.StatusCode, data)
	}

	result, err := parseMultistatus(bytes.NewReader(data), CardDAV)
	if err != nil {
		return nil, wrapErrorWithType("addressbook_query", ErrorTypeDecode, err)
	}
	return toAddressObjects(result.Items), nil
}

// syncCollection runs an RFC 6578 sync-collection REPORT against path,
// resuming from syncToken ("" for an initial sync). limit of 0 requests no
// server-side page cap.
func (c *Client) syncCollection(ctx context.Context, dialect Dialect, path, syncToken string, limit int, includeData bool) (SyncResponse, error) {
	body := buildSyncCollectionBody(dialect, syncToken, limit, includeData)

	resp, err := c.report(ctx, path, body)
	if err != nil {
		return SyncResponse{}, err
	}
	headerToken := resp.Header.Get("Sync-Token")
	data, err := readAndDecompressBody(resp)
	if err != nil {
		return SyncResponse{}, err
	}
	if resp.StatusCode != 207 {
		return SyncResponse{}, newStatusError("sync_collection", resp.StatusCode, data)
	}

	result, err := parseMultistatus(bytes.NewReader(data), dialect)
	if err != nil {
		return SyncResponse{}, wrapErrorWithType("sync_collection", ErrorTypeDecode, err)
	}

	return toSyncResponse(result, headerToken), nil
}

// SyncCalendarCollection runs sync-collection against a calendar path.
// limit of 0 requests no server-side page cap.
func (c *Client) SyncCalendarCollection(ctx context.Context, calendarPath, syncToken string, limit int, includeData bool) (SyncResponse, error) {
	return c.syncCollection(ctx, CalDAV, calendarPath, syncToken, limit, includeData)
}

// SyncAddressbookCollection runs sync-collection against an addressbook
// path. limit of 0 requests no server-side page cap.
func (c *Client) SyncAddressbookCollection(ctx context.Context, addressbookPath, syncToken string, limit int, includeData bool) (SyncResponse, error) {
	return c.syncCollection(ctx, CardDAV, addressbookPath, syncToken, limit, includeData)
}
