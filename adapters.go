package dav

import "sort"

// toCalendarInfos projects parsed DavItems flagged as calendar collections
// into CalendarInfo values (C6), sorted by href ascending.
func toCalendarInfos(items []DavItem) []CalendarInfo {
	var out []CalendarInfo
	for _, it := range items {
		if !it.IsCollection || !it.IsDialectCollection {
			continue
		}
		out = append(out, CalendarInfo{
			Href:                it.Href,
			Displayname:         it.Displayname,
			Description:         it.Description,
			Timezone:            it.Timezone,
			Color:               it.Color,
			ETag:                it.ETag,
			SyncToken:           it.SyncToken,
			SupportedComponents: it.SupportedComponents,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Href < out[j].Href })
	return out
}

// toAddressBookInfos projects parsed DavItems flagged as addressbook
// collections into AddressBookInfo values, sorted by href ascending.
func toAddressBookInfos(items []DavItem) []AddressBookInfo {
	var out []AddressBookInfo
	for _, it := range items {
		if !it.IsCollection || !it.IsDialectCollection {
			continue
		}
		out = append(out, AddressBookInfo{
			Href:                 it.Href,
			Displayname:          it.Displayname,
			Description:          it.Description,
			Color:                it.Color,
			ETag:                 it.ETag,
			SyncToken:            it.SyncToken,
			SupportedAddressData: it.SupportedComponents,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Href < out[j].Href })
	return out
}

// toCalendarObjects projects parsed DavItems carrying calendar-data into
// CalendarObject values, skipping collections.
func toCalendarObjects(items []DavItem) []CalendarObject {
	var out []CalendarObject
	for _, it := range items {
		if it.IsCollection {
			continue
		}
		out = append(out, CalendarObject{
			Href:         it.Href,
			ETag:         it.ETag,
			CalendarData: it.Data,
			Status:       it.Status,
		})
	}
	return out
}

// toAddressObjects projects parsed DavItems carrying address-data into
// AddressObject values, skipping collections.
func toAddressObjects(items []DavItem) []AddressObject {
	var out []AddressObject
	for _, it := range items {
		if it.IsCollection {
			continue
		}
		out = append(out, AddressObject{
			Href:        it.Href,
			ETag:        it.ETag,
			AddressData: it.Data,
			Status:      it.Status,
		})
	}
	return out
}

// toSyncResponse projects a ParseResult from a sync-collection REPORT into
// a SyncResponse. The sync token is resolved with top-level parsed token >
// Sync-Token response header > first item-level token. Items whose status
// contains "404" or "410" are marked deleted. Entries that are themselves
// collections, or that carry only a sync-token with neither an etag nor a
// payload (the home collection's own sync-token echo), are dropped.
func toSyncResponse(result *ParseResult, headerSyncToken string) SyncResponse {
	token := result.SyncToken
	if token == "" {
		token = headerSyncToken
	}
	if token == "" {
		for _, it := range result.Items {
			if it.SyncToken != "" {
				token = it.SyncToken
				break
			}
		}
	}

	items := make([]SyncItem, 0, len(result.Items))
	for _, it := range result.Items {
		if it.IsCollection {
			continue
		}
		if it.SyncToken != "" && it.ETag == "" && it.Data == "" {
			continue
		}
		items = append(items, SyncItem{
			Href:      it.Href,
			ETag:      it.ETag,
			Data:      it.Data,
			Status:    it.Status,
			IsDeleted: isNotFoundStatus(it.Status),
		})
	}

	return SyncResponse{SyncToken: token, Items: items}
}

func isNotFoundStatus(status string) bool {
	return containsSubstring(status, "404") || containsSubstring(status, "410")
}

func containsSubstring(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
