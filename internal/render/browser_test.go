package render

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// scriptedPage renders its blocks client-side and reveals the details of a
// block when its toggle is clicked.
const scriptedPage = `<html><body><div id="root"></div>
<script>
const root = document.getElementById("root");
for (const id of ["2023/1", "2023/2"]) {
  const card = document.createElement("div");
  card.className = "dynamic-card";
  card.innerHTML = "<strong>מספר תיק</strong><span>" + id + "</span>";
  const btn = document.createElement("button");
  btn.setAttribute("aria-controls", "d");
  btn.textContent = "עוד";
  btn.onclick = () => {
    const p = document.createElement("p");
    p.className = "details";
    p.textContent = "נימוקים";
    card.appendChild(p);
  };
  card.appendChild(btn);
  root.appendChild(card);
}
</script></body></html>`

// newTestBrowser starts Chromium or skips the test when no driver is
// installed.
func newTestBrowser(t *testing.T) *Browser {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}

	b, err := NewBrowser(
		WithNavigationTimeout(20*time.Second),
		WithBrowserLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		t.Skipf("skipping browser test: %v (run with --install-driver once)", err)
	}
	t.Cleanup(func() {
		if err := b.Close(); err != nil {
			t.Errorf("failed to close browser: %v", err)
		}
	})
	return b
}

func TestBrowser_RendersAndClicks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, scriptedPage)
	}))
	defer server.Close()

	b := newTestBrowser(t)

	page, err := b.Open(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("failed to open page: %v", err)
	}
	defer page.Close()

	if err := page.WaitFor(".dynamic-card", 5*time.Second); err != nil {
		t.Fatalf("blocks did not render: %v", err)
	}

	n, err := page.Count(".dynamic-card")
	if err != nil || n != 2 {
		t.Fatalf("Count() = %d, %v; want 2", n, err)
	}

	toggles, err := page.Count("button[aria-controls]")
	if err != nil {
		t.Fatalf("failed to count toggles: %v", err)
	}
	for i := 0; i < toggles; i++ {
		if err := page.ClickNth("button[aria-controls]", i, 5*time.Second); err != nil {
			t.Fatalf("click %d failed: %v", i, err)
		}
	}

	markup, err := page.HTML()
	if err != nil {
		t.Fatalf("failed to read markup: %v", err)
	}
	if got := strings.Count(markup, `class="details"`); got != 2 {
		t.Errorf("expected 2 expanded details, got %d", got)
	}
}

func TestBrowser_CloseTwice(t *testing.T) {
	b := newTestBrowser(t)

	if err := b.Close(); err != nil {
		t.Fatalf("first close failed: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("second close must be a no-op, got %v", err)
	}
	if _, err := b.Open(context.Background(), "http://127.0.0.1/"); err == nil {
		t.Error("expected error when opening on a closed browser")
	}
}
