package collector

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrBlocked is returned when a page looks like a captcha or ban wall.
var ErrBlocked = eris.New("collector: source blocked the request")

// Browser wraps a rod browser with per-page timeouts and block detection.
type Browser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	timeout  time.Duration

	snapshotDir string // empty disables snapshots
}

// Launch starts a browser. Callers must Close it.
func Launch(headless bool, timeout time.Duration, snapshotDir string) (*Browser, error) {
	l := launcher.New().Headless(headless)
	url, err := l.Launch()
	if err != nil {
		return nil, eris.Wrap(err, "collector: launch browser")
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, eris.Wrap(err, "collector: connect browser")
	}

	if snapshotDir != "" {
		if err := os.MkdirAll(snapshotDir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "collector: create snapshot dir %s", snapshotDir)
		}
	}

	return &Browser{
		browser:     browser,
		launcher:    l,
		timeout:     timeout,
		snapshotDir: snapshotDir,
	}, nil
}

// Close shuts the browser down.
func (b *Browser) Close() {
	if err := b.browser.Close(); err != nil {
		zap.L().Warn("collector: close browser", zap.Error(err))
	}
	b.launcher.Cleanup()
}

// FetchHTML navigates to url and returns the rendered page HTML. A transient
// failure is retried once; a block marker aborts with ErrBlocked.
func (b *Browser) FetchHTML(ctx context.Context, url string, blockMarkers []string) (string, error) {
	html, err := b.fetchOnce(ctx, url)
	if err != nil && !eris.Is(err, ErrBlocked) && ctx.Err() == nil {
		zap.L().Warn("collector: retrying page", zap.String("url", url), zap.Error(err))
		html, err = b.fetchOnce(ctx, url)
	}
	if err != nil {
		return "", err
	}

	for _, marker := range blockMarkers {
		if marker != "" && strings.Contains(html, marker) {
			b.snapshot(url, html)
			return "", eris.Wrapf(ErrBlocked, "marker %q on %s", marker, url)
		}
	}
	b.snapshot(url, html)
	return html, nil
}

func (b *Browser) fetchOnce(ctx context.Context, url string) (string, error) {
	page, err := b.browser.Context(ctx).Timeout(b.timeout).Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", eris.Wrap(err, "collector: open page")
	}
	defer page.Close()

	if err := page.Navigate(url); err != nil {
		return "", eris.Wrapf(err, "collector: navigate %s", url)
	}
	if err := page.WaitStable(500 * time.Millisecond); err != nil {
		// A busy page is still worth scraping; log and read what rendered.
		zap.L().Debug("collector: page never stabilized", zap.String("url", url), zap.Error(err))
	}

	html, err := page.HTML()
	if err != nil {
		return "", eris.Wrapf(err, "collector: read html %s", url)
	}
	return html, nil
}

// snapshot writes the raw HTML for later debugging of broken selectors.
func (b *Browser) snapshot(url, html string) {
	if b.snapshotDir == "" {
		return
	}
	name := slugify(url) + ".html"
	path := filepath.Join(b.snapshotDir, name)
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		zap.L().Warn("collector: write snapshot", zap.String("path", path), zap.Error(err))
	}
}

func slugify(url string) string {
	s := strings.TrimPrefix(strings.TrimPrefix(url, "https://"), "http://")
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, s)
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}
