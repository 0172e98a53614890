// Package crawler walks the paginated listing.
//
// The Walker requests one page at a time, advancing the skip query
// parameter by the page size, and runs each page through the fetch,
// expand, locate and extract steps of package pipeline. Records accumulate
// in page order and are never reordered or deduplicated across pages.
//
// # Stopping
//
// The walk ends when:
//   - a page yields zero records
//   - a page cannot be fetched or rendered (treated as empty)
//   - the optional end page has been processed
//   - the context is cancelled
//
// The reason is recorded on the returned model.Run.
//
// # Usage
//
//	w, err := crawler.NewWalker(renderer, baseURL, crawler.WithEndPage(50))
//	if err != nil {
//		return err
//	}
//	run, err := w.Walk(ctx)
package crawler
