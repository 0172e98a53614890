package render

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

// DefaultUserAgent is sent when no User-Agent is configured.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Static fetches markup over plain HTTP. Scripts are not executed, so it
// only works against pre-rendered mirrors of the listing.
type Static struct {
	client *resty.Client
	logger *slog.Logger
}

type staticOptions struct {
	timeout   time.Duration
	userAgent string
	logger    *slog.Logger
}

// StaticOption configures a Static renderer.
type StaticOption func(*staticOptions)

// WithTimeout bounds each HTTP request.
func WithTimeout(d time.Duration) StaticOption {
	return func(o *staticOptions) {
		o.timeout = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) StaticOption {
	return func(o *staticOptions) {
		o.userAgent = ua
	}
}

// WithStaticLogger sets the logger.
func WithStaticLogger(logger *slog.Logger) StaticOption {
	return func(o *staticOptions) {
		o.logger = logger
	}
}

// NewStatic creates a Static renderer.
func NewStatic(opts ...StaticOption) *Static {
	o := staticOptions{
		timeout:   30 * time.Second,
		userAgent: DefaultUserAgent,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	client := resty.New()
	client.SetTimeout(o.timeout)
	client.SetHeader("User-Agent", o.userAgent)
	client.SetHeader("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	client.SetHeader("Accept-Language", "he-IL,he;q=0.9,en;q=0.5")
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))

	return &Static{client: client, logger: o.logger}
}

// Open implements Renderer.
func (s *Static) Open(ctx context.Context, url string) (Page, error) {
	res, err := s.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNavigate, url, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("%w: %s: %d", ErrStatus, url, res.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrNavigate, url, err)
	}

	s.logger.Debug("page fetched", "url", url, "status", res.StatusCode(), "bytes", len(res.Body()))
	return &staticPage{doc: doc, markup: string(res.Body())}, nil
}

// Close implements Renderer. Static holds no resources.
func (s *Static) Close() error {
	return nil
}

// staticPage serves a parsed document that never changes.
type staticPage struct {
	doc    *goquery.Document
	markup string
}

func (p *staticPage) Count(selector string) (int, error) {
	return p.doc.Find(selector).Length(), nil
}

func (p *staticPage) ClickNth(string, int, time.Duration) error {
	return ErrInteractionUnsupported
}

// WaitFor returns at once: the document is final.
func (p *staticPage) WaitFor(selector string, _ time.Duration) error {
	if p.doc.Find(selector).Length() == 0 {
		return fmt.Errorf("%w: %s", ErrWaitTimeout, selector)
	}
	return nil
}

func (p *staticPage) HTML() (string, error) {
	return p.markup, nil
}

func (p *staticPage) Close() error {
	return nil
}
