package crawler

import (
	"context"
	"errors"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/chromedp"
	"github.com/pantrypilot/pantrypilot-api/internal/logger"
	"go.uber.org/zap"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Browser hands out isolated page sessions for crawling.
type Browser interface {
	NewPage() (Page, error)
}

// Page is a single isolated browser tab. All operations are bounded by their
// own timeout; there is no whole-crawl cancellation.
type Page interface {
	Navigate(url string, timeout time.Duration) error
	WaitVisible(selector string, timeout time.Duration) error
	HTML() (string, error)
	Close()
}

// ProxyConfig holds the outbound proxy used for all crawler navigation.
// Username and password may be empty for unauthenticated proxies.
type ProxyConfig struct {
	Host     string
	Port     string
	Username string
	Password string
}

// ChromeBrowser implements Browser on a headless Chrome instance via
// chromedp. Each NewPage call opens a fresh tab with its own context so no
// two workers share mutable browser state.
type ChromeBrowser struct {
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	proxy         ProxyConfig
}

// NewChromeBrowser launches a headless Chrome allocator routed through the
// given proxy (when configured).
func NewChromeBrowser(proxy ProxyConfig) *ChromeBrowser {
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.UserAgent(defaultUserAgent),
	)
	if proxy.Host != "" {
		opts = append(opts, chromedp.ProxyServer("http://"+proxy.Host+":"+proxy.Port))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	return &ChromeBrowser{
		allocCtx:      allocCtx,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		proxy:         proxy,
	}
}

// NewPage opens a fresh tab. When the proxy requires credentials, the tab
// answers Chrome's auth challenges through the CDP fetch domain.
func (b *ChromeBrowser) NewPage() (Page, error) {
	tabCtx, tabCancel := chromedp.NewContext(b.browserCtx)

	if b.proxy.Username != "" {
		if err := chromedp.Run(tabCtx, fetch.Enable().WithHandleAuthRequests(true)); err != nil {
			tabCancel()
			return nil, err
		}
		b.listenForAuthChallenges(tabCtx)
	}

	return &chromePage{ctx: tabCtx, cancel: tabCancel}, nil
}

// listenForAuthChallenges continues paused requests and answers proxy auth
// challenges with the configured credentials.
func (b *ChromeBrowser) listenForAuthChallenges(tabCtx context.Context) {
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		c := chromedp.FromContext(tabCtx)
		execCtx := cdp.WithExecutor(tabCtx, c.Target)

		switch ev := ev.(type) {
		case *fetch.EventAuthRequired:
			resp := &fetch.AuthChallengeResponse{
				Response: fetch.AuthChallengeResponseResponseProvideCredentials,
				Username: b.proxy.Username,
				Password: b.proxy.Password,
			}
			go func() {
				if err := fetch.ContinueWithAuth(ev.RequestID, resp).Do(execCtx); err != nil {
					logger.Get().Warn("proxy auth continuation failed", zap.Error(err))
				}
			}()
		case *fetch.EventRequestPaused:
			go func() {
				if err := fetch.ContinueRequest(ev.RequestID).Do(execCtx); err != nil {
					logger.Get().Warn("request continuation failed", zap.Error(err))
				}
			}()
		}
	})
}

// Close tears down the browser and its allocator.
func (b *ChromeBrowser) Close() {
	b.browserCancel()
	b.allocCancel()
}

// chromePage is one chromedp tab.
type chromePage struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func (p *chromePage) Navigate(url string, timeout time.Duration) error {
	runCtx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.Navigate(url)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrNavigationTimeout
		}
		return err
	}
	return nil
}

func (p *chromePage) WaitVisible(selector string, timeout time.Duration) error {
	runCtx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrSelectorTimeout
		}
		return err
	}
	return nil
}

func (p *chromePage) HTML() (string, error) {
	runCtx, cancel := context.WithTimeout(p.ctx, 10*time.Second)
	defer cancel()

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

func (p *chromePage) Close() {
	p.cancel()
}
