package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/pfrederiksen/nfl-season-stats/internal/table"
)

// BrowserFetcher renders pages in headless Chrome before extracting tables
type BrowserFetcher struct {
	userAgent string
	timeout   time.Duration
}

// NewBrowser creates a BrowserFetcher. Zero values select UserAgent and Timeout.
func NewBrowser(userAgent string, timeout time.Duration) *BrowserFetcher {
	if userAgent == "" {
		userAgent = UserAgent
	}
	if timeout <= 0 {
		timeout = Timeout
	}
	return &BrowserFetcher{userAgent: userAgent, timeout: timeout}
}

// FetchTables loads url in a fresh browser and parses the rendered DOM
func (b *BrowserFetcher) FetchTables(ctx context.Context, url string) ([]*table.Table, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(b.userAgent),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	var page string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &page, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("rendering page: %w", err)
	}

	return ParseTables(strings.NewReader(page))
}
