package dav

import "testing"

func TestToCalendarInfos(t *testing.T) {
	items := []DavItem{
		{Href: "/cal/1/", IsCollection: true, IsDialectCollection: true, Displayname: "Work", Color: "#ff0000"},
		{Href: "/addr/1/", IsCollection: true, IsDialectCollection: false},
		{Href: "/cal/1/event.ics", IsCollection: false},
	}

	out := toCalendarInfos(items)
	if len(out) != 1 {
		t.Fatalf("expected 1 calendar info, got %d", len(out))
	}
	if out[0].Href != "/cal/1/" || out[0].Displayname != "Work" || out[0].Color != "#ff0000" {
		t.Errorf("unexpected calendar info: %+v", out[0])
	}
}

func TestToCalendarInfosSortedByHref(t *testing.T) {
	items := []DavItem{
		{Href: "/cal/z/", IsCollection: true, IsDialectCollection: true},
		{Href: "/cal/a/", IsCollection: true, IsDialectCollection: true},
		{Href: "/cal/m/", IsCollection: true, IsDialectCollection: true},
	}

	out := toCalendarInfos(items)
	if len(out) != 3 || out[0].Href != "/cal/a/" || out[1].Href != "/cal/m/" || out[2].Href != "/cal/z/" {
		t.Errorf("expected hrefs sorted ascending, got %+v", out)
	}
}

func TestToAddressBookInfos(t *testing.T) {
	items := []DavItem{
		{Href: "/card/1/", IsCollection: true, IsDialectCollection: true, Displayname: "Contacts"},
		{Href: "/card/1/c.vcf", IsCollection: false},
	}

	out := toAddressBookInfos(items)
	if len(out) != 1 {
		t.Fatalf("expected 1 addressbook info, got %d", len(out))
	}
	if out[0].Href != "/card/1/" || out[0].Displayname != "Contacts" {
		t.Errorf("unexpected addressbook info: %+v", out[0])
	}
}

func TestToCalendarObjects(t *testing.T) {
	items := []DavItem{
		{Href: "/cal/1/", IsCollection: true},
		{Href: "/cal/1/a.ics", ETag: `"1"`, Data: "BEGIN:VCALENDAR\nEND:VCALENDAR", Status: "HTTP/1.1 200 OK"},
	}

	out := toCalendarObjects(items)
	if len(out) != 1 {
		t.Fatalf("expected 1 calendar object, got %d", len(out))
	}
	if out[0].Href != "/cal/1/a.ics" || out[0].CalendarData != items[1].Data {
		t.Errorf("unexpected calendar object: %+v", out[0])
	}
}

func TestToAddressObjects(t *testing.T) {
	items := []DavItem{
		{Href: "/card/1/", IsCollection: true},
		{Href: "/card/1/a.vcf", ETag: `"2"`, Data: "BEGIN:VCARD\nEND:VCARD", Status: "HTTP/1.1 200 OK"},
	}

	out := toAddressObjects(items)
	if len(out) != 1 {
		t.Fatalf("expected 1 address object, got %d", len(out))
	}
	if out[0].Href != "/card/1/a.vcf" || out[0].AddressData != items[1].Data {
		t.Errorf("unexpected address object: %+v", out[0])
	}
}

func TestToSyncResponsePrecedence(t *testing.T) {
	tests := []struct {
		name            string
		result          *ParseResult
		headerSyncToken string
		want            string
	}{
		{
			name:            "top-level token wins",
			result:          &ParseResult{SyncToken: "top", Items: []DavItem{{SyncToken: "item"}}},
			headerSyncToken: "header",
			want:            "top",
		},
		{
			name:            "header wins over item token",
			result:          &ParseResult{Items: []DavItem{{SyncToken: "item"}}},
			headerSyncToken: "header",
			want:            "header",
		},
		{
			name:            "falls back to first item token",
			result:          &ParseResult{Items: []DavItem{{}, {SyncToken: "item"}}},
			headerSyncToken: "",
			want:            "item",
		},
		{
			name:            "no token anywhere",
			result:          &ParseResult{Items: []DavItem{{}}},
			headerSyncToken: "",
			want:            "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toSyncResponse(tt.result, tt.headerSyncToken)
			if got.SyncToken != tt.want {
				t.Errorf("SyncToken = %q, want %q", got.SyncToken, tt.want)
			}
		})
	}
}

func TestToSyncResponseMarksDeleted(t *testing.T) {
	result := &ParseResult{
		Items: []DavItem{
			{Href: "/cal/1/a.ics", Status: "HTTP/1.1 200 OK"},
			{Href: "/cal/1/b.ics", Status: "HTTP/1.1 404 Not Found"},
			{Href: "/cal/1/c.ics", Status: "HTTP/1.1 410 Gone"},
		},
	}

	got := toSyncResponse(result, "")
	if len(got.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(got.Items))
	}
	if got.Items[0].IsDeleted {
		t.Error("200 OK item should not be marked deleted")
	}
	if !got.Items[1].IsDeleted {
		t.Error("404 item should be marked deleted")
	}
	if !got.Items[2].IsDeleted {
		t.Error("410 item should be marked deleted")
	}
}

func TestToSyncResponseFiltersCollectionAndTokenOnlyEntries(t *testing.T) {
	result := &ParseResult{
		Items: []DavItem{
			{Href: "/cal/1/", IsCollection: true, SyncToken: "top"},
			{Href: "/cal/1/", SyncToken: "echo"},
			{Href: "/cal/1/a.ics", ETag: `"1"`, Status: "HTTP/1.1 200 OK"},
		},
	}

	got := toSyncResponse(result, "")
	if len(got.Items) != 1 || got.Items[0].Href != "/cal/1/a.ics" {
		t.Errorf("expected only the real object to survive, got %+v", got.Items)
	}
}
