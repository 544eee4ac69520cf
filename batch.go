package dav

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// RunBatch runs fn against each path in paths with at most concurrency
// calls in flight at once, and returns one BatchItem per path in the same
// order as paths regardless of completion order (C8). A per-item error
// never aborts the batch or the remaining items; it is carried in that
// item's Err.
func RunBatch[T any](ctx context.Context, paths []string, concurrency int, fn func(ctx context.Context, path string) (T, error)) []BatchItem[T] {
	results := make([]BatchItem[T], len(paths))
	if len(paths) == 0 {
		return results
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			value, err := fn(gctx, path)
			results[i] = BatchItem[T]{Path: path, Result: value, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// PropfindMany runs a PROPFIND with the same depth and body against every
// path, bounded by the client's configured batch concurrency.
func (c *Client) PropfindMany(ctx context.Context, paths []string, depth Depth, body []byte) []BatchItem[*http.Response] {
	return RunBatch(ctx, paths, c.batchConcurrency, func(ctx context.Context, path string) (*http.Response, error) {
		return c.propfind(ctx, path, depth, body)
	})
}

// ReportMany runs a REPORT with the same body against every path, bounded
// by the client's configured batch concurrency.
func (c *Client) ReportMany(ctx context.Context, paths []string, body []byte) []BatchItem[*http.Response] {
	return RunBatch(ctx, paths, c.batchConcurrency, func(ctx context.Context, path string) (*http.Response, error) {
		return c.report(ctx, path, body)
	})
}

// CalendarQueryManyTimeRange runs CalendarQueryTimeRange against several
// calendars concurrently.
func (c *Client) CalendarQueryManyTimeRange(ctx context.Context, calendarPaths []string, component string, start, end *time.Time) []BatchItem[[]CalendarObject] {
	return RunBatch(ctx, calendarPaths, c.batchConcurrency, func(ctx context.Context, path string) ([]CalendarObject, error) {
		return c.CalendarQueryTimeRange(ctx, path, component, start, end)
	})
}

// SyncCalendarCollectionMany runs SyncCalendarCollection against several
// calendars concurrently, each resuming from its own prior sync token.
func (c *Client) SyncCalendarCollectionMany(ctx context.Context, calendarPaths []string, syncTokens map[string]string) []BatchItem[SyncResponse] {
	return RunBatch(ctx, calendarPaths, c.batchConcurrency, func(ctx context.Context, path string) (SyncResponse, error) {
		return c.SyncCalendarCollection(ctx, path, syncTokens[path], 0, true)
	})
}

// FilterSuccessful returns only the items that completed without error.
func FilterSuccessful[T any](items []BatchItem[T]) []BatchItem[T] {
	var out []BatchItem[T]
	for _, it := range items {
		if it.Err == nil {
			out = append(out, it)
		}
	}
	return out
}

// FilterFailed returns only the items that returned an error.
func FilterFailed[T any](items []BatchItem[T]) []BatchItem[T] {
	var out []BatchItem[T]
	for _, it := range items {
		if it.Err != nil {
			out = append(out, it)
		}
	}
	return out
}
