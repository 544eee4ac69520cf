package dav

import (
	"bytes"
	"context"
)

// DiscoverCurrentUserPrincipal performs a depth-0 PROPFIND against path
// (typically "/") for the current-user-principal property.
func (c *Client) DiscoverCurrentUserPrincipal(ctx context.Context, path string) (string, error) {
	body := buildPropfindXML(CalDAV, []string{"current-user-principal"})

	resp, err := c.propfind(ctx, path, DepthZero, body)
	if err != nil {
		return "", err
	}
	data, err := readAndDecompressBody(resp)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != 207 {
		return "", newStatusError("discover_current_user_principal", resp.StatusCode, data)
	}

	result, err := parseMultistatus(bytes.NewReader(data), CalDAV)
	if err != nil {
		return "", wrapErrorWithType("discover_current_user_principal", ErrorTypeDecode, err)
	}

	for _, item := range result.Items {
		if len(item.CurrentUserPrincipal) > 0 {
			return item.CurrentUserPrincipal[0], nil
		}
	}
	return "", newTypedError("discover_current_user_principal", ErrorTypeNotFound, "no current-user-principal in response", ErrNotFound)
}

// discoverHomeSet performs a depth-0 PROPFIND against principalPath for the
// dialect's home-set property (calendar-home-set or addressbook-home-set).
func (c *Client) discoverHomeSet(ctx context.Context, dialect Dialect, principalPath string) (string, error) {
	body := buildPropfindXML(dialect, []string{"home-set"})

	resp, err := c.propfind(ctx, principalPath, DepthZero, body)
	if err != nil {
		return "", err
	}
	data, err := readAndDecompressBody(resp)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != 207 {
		return "", newStatusError("discover_home_set", resp.StatusCode, data)
	}

	result, err := parseMultistatus(bytes.NewReader(data), dialect)
	if err != nil {
		return "", wrapErrorWithType("discover_home_set", ErrorTypeDecode, err)
	}

	for _, item := range result.Items {
		if len(item.HomeSet) > 0 {
			return item.HomeSet[0], nil
		}
	}
	return "", newTypedError("discover_home_set", ErrorTypeNotFound, "no home-set in response", ErrNotFound)
}

// DiscoverCalendarHomeSet discovers the calendar home collection URL for a
// principal.
func (c *Client) DiscoverCalendarHomeSet(ctx context.Context, principalPath string) (string, error) {
	return c.discoverHomeSet(ctx, CalDAV, principalPath)
}

// DiscoverAddressbookHomeSet discovers the addressbook home collection URL
// for a principal.
func (c *Client) DiscoverAddressbookHomeSet(ctx context.Context, principalPath string) (string, error) {
	return c.discoverHomeSet(ctx, CardDAV, principalPath)
}

// ListCalendars lists calendar collections in a calendar home via a
// depth-1 PROPFIND.
func (c *Client) ListCalendars(ctx context.Context, calendarHomePath string) ([]CalendarInfo, error) {
	body := buildPropfindXML(CalDAV, []string{
		"displayname", "resourcetype", "description", "color",
		"component-set", "getetag", "sync-token",
	})

	resp, err := c.propfind(ctx, calendarHomePath, DepthOne, body)
	if err != nil {
		return nil, err
	}
	data, err := readAndDecompressBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != 207 {
		return nil, newStatusError("list_calendars", resp.StatusCode, data)
	}

	result, err := parseMultistatus(bytes.NewReader(data), CalDAV)
	if err != nil {
		return nil, wrapErrorWithType("list_calendars", ErrorTypeDecode, err)
	}

	return toCalendarInfos(result.Items), nil
}

// ListAddressBooks lists addressbook collections in an addressbook home via
// a depth-1 PROPFIND.
func (c *Client) ListAddressBooks(ctx context.Context, addressbookHomePath string) ([]AddressBookInfo, error) {
	body := buildPropfindXML(CardDAV, []string{
		"displayname", "resourcetype", "description", "color",
		"component-set", "getetag", "sync-token",
	})

	resp, err := c.propfind(ctx, addressbookHomePath, DepthOne, body)
	if err != nil {
		return nil, err
	}
	data, err := readAndDecompressBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != 207 {
		return nil, newStatusError("list_addressbooks", resp.StatusCode, data)
	}

	result, err := parseMultistatus(bytes.NewReader(data), CardDAV)
	if err != nil {
		return nil, wrapErrorWithType("list_addressbooks", ErrorTypeDecode, err)
	}

	return toAddressBookInfos(result.Items), nil
}

// DiscoverCalendars runs the full CalDAV discovery pipeline: principal,
// then calendar-home-set, then the calendars in it.
func (c *Client) DiscoverCalendars(ctx context.Context) ([]CalendarInfo, error) {
	principal, err := c.DiscoverCurrentUserPrincipal(ctx, "/")
	if err != nil {
		return nil, err
	}
	homeSet, err := c.DiscoverCalendarHomeSet(ctx, principal)
	if err != nil {
		return nil, err
	}
	return c.ListCalendars(ctx, homeSet)
}

// DiscoverAddressBooks runs the full CardDAV discovery pipeline: principal,
// then addressbook-home-set, then the address books in it.
func (c *Client) DiscoverAddressBooks(ctx context.Context) ([]AddressBookInfo, error) {
	principal, err := c.DiscoverCurrentUserPrincipal(ctx, "/")
	if err != nil {
		return nil, err
	}
	homeSet, err := c.DiscoverAddressbookHomeSet(ctx, principal)
	if err != nil {
		return nil, err
	}
	return c.ListAddressBooks(ctx, homeSet)
}
