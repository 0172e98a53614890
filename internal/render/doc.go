// Package render provides the page rendering collaborators.
//
// The listing is built client-side, so the production renderer is Browser:
// headless Chromium driven by github.com/playwright-community/playwright-go.
// One Browser is started per run and each listing page gets its own tab.
//
// Static fetches markup with github.com/go-resty/resty/v2 and parses it with
// goquery. It cannot run scripts or click, so it is only useful against
// pre-rendered mirrors and in tests.
//
// Both satisfy Renderer; callers depend on the interface only.
package render
