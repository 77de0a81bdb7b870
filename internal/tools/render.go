package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/go-shiori/go-readability"
)

// chromeRenderer drives a headless Chrome instance per call
type chromeRenderer struct {
	timeout time.Duration
}

func (r *chromeRenderer) Render(ctx context.Context, target string) (string, error) {
	if strings.TrimSpace(target) == "" {
		return "", fmt.Errorf("invalid url")
	}
	timeout := r.timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.UserAgent("QuizAgent/1.0 (+contact@example.com)"),
	)
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(bctx,
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("page render failed: %w", err)
	}
	return html, nil
}

func (s *Set) renderPage(ctx context.Context, rawArgs json.RawMessage) string {
	var args struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(rawArgs, &args); err != nil {
		return fmt.Sprintf("Error: invalid render_page arguments: %v", err)
	}

	html, err := s.renderer.Render(ctx, args.URL)
	if err != nil {
		return fmt.Sprintf("Error rendering page %s: %v", args.URL, err)
	}

	// huge pages would be cut mid-markup by plain truncation; fall back to
	// the readable article text instead, which keeps the question intact
	if s.cfg.RenderMaxChars > 0 && len(html) > s.cfg.RenderMaxChars {
		if article, rerr := readability.FromReader(strings.NewReader(html), mustParseURL(args.URL)); rerr == nil {
			text := strings.TrimSpace(article.TextContent)
			if text != "" {
				return "Readable text (page too large for raw HTML):\n" + text
			}
		}
		return html[:s.cfg.RenderMaxChars]
	}
	return html
}

func mustParseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return u
}
