package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/go-resty/resty/v2"

	"github.com/jonathan/resume-harvester/internal/config"
)

// browserClient drives a headless browser for deployments whose pages only
// work with script execution. Raw-markup fetches and streaming downloads go
// through a side HTTP client that borrows the browser's cookies, because the
// browser can only hand back rendered markup.
type browserClient struct {
	cfg *config.Config

	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	side *resty.Client

	authenticated  bool
	lastActivityAt time.Time
	sessionTimeout time.Duration
	now            func() time.Time
}

func newBrowserClient(cfg *config.Config) (*browserClient, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, &AuthError{Message: "invalid base URL", Cause: err}
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(),
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", cfg.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.WindowSize(1920, 1080),
		)...,
	)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	side := resty.New()
	side.SetBaseURL(cfg.BaseURL)
	jar, err := cookiejar.New(nil)
	if err != nil {
		allocCancel()
		browserCancel()
		return nil, err
	}
	side.SetCookieJar(jar)
	side.SetHeader("user-agent", userAgent)
	side.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(base.Hostname()))
	side.SetTimeout(cfg.PageLoadTimeout)

	return &browserClient{
		cfg:            cfg,
		allocCancel:    allocCancel,
		browserCtx:     browserCtx,
		browserCancel:  browserCancel,
		side:           side,
		sessionTimeout: cfg.SessionTimeout,
		now:            time.Now,
	}, nil
}

// Login navigates to the login form, fills the credential pair, submits, and
// classifies the landing page with the same vocabularies as the HTTP client.
func (c *browserClient) Login(_ context.Context) error {
	runCtx, cancel := context.WithTimeout(c.browserCtx, c.cfg.PageLoadTimeout)
	defer cancel()

	var landedURL, html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(c.cfg.BaseURL+loginPath),
		chromedp.WaitReady("body"),
		chromedp.SendKeys(`input[name=`+userFieldName+`]`, c.cfg.Username, chromedp.ByQuery),
		chromedp.SendKeys(`input[name=`+passFieldName+`]`, c.cfg.Password, chromedp.ByQuery),
		chromedp.Click(`button[type=submit], input[type=submit]`, chromedp.ByQuery),
		chromedp.Sleep(3*time.Second),
		chromedp.Location(&landedURL),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return &AuthError{Message: "browser login flow failed", Cause: err}
	}

	if err := classifyLogin(landedURL, html); err != nil {
		return err
	}

	if err := c.syncCookies(); err != nil {
		return &AuthError{Message: "failed to export browser cookies", Cause: err}
	}

	c.authenticated = true
	c.lastActivityAt = c.now()
	slog.Info("session established", "transport", "browser")
	return nil
}

// syncCookies copies the browser's cookies into the side HTTP client so raw
// fetches and downloads ride the authenticated session.
func (c *browserClient) syncCookies() error {
	var cookies []*network.Cookie
	err := chromedp.Run(c.browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return err
	}

	base, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return err
	}

	httpCookies := make([]*http.Cookie, 0, len(cookies))
	for _, ck := range cookies {
		httpCookies = append(httpCookies, &http.Cookie{
			Name:   ck.Name,
			Value:  ck.Value,
			Path:   ck.Path,
			Domain: ck.Domain,
		})
	}
	c.side.GetClient().Jar.SetCookies(base, httpCookies)
	return nil
}

func (c *browserClient) refresh(ctx context.Context) error {
	if c.authenticated && c.now().Sub(c.lastActivityAt) <= c.sessionTimeout {
		c.lastActivityAt = c.now()
		return nil
	}

	if c.authenticated {
		slog.Warn("session stale, re-authenticating", "idle", c.now().Sub(c.lastActivityAt))
	}
	c.authenticated = false
	if err := c.Login(ctx); err != nil {
		return &RequestError{
			Message: ErrSessionUnavailable.Error(),
			Cause:   fmt.Errorf("%w: %w", ErrSessionUnavailable, err),
		}
	}
	return nil
}

// Get returns the rendered markup of a page.
func (c *browserClient) Get(ctx context.Context, pageURL string) (*Page, error) {
	if err := c.refresh(ctx); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(c.browserCtx, c.cfg.PageLoadTimeout)
	defer cancel()

	var landedURL, html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
		chromedp.Location(&landedURL),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, &RequestError{URL: pageURL, Message: "browser navigation failed", Cause: err}
	}

	return &Page{URL: landedURL, HTML: html, StatusCode: 200}, nil
}

// Post is not part of the browser workflow; form submissions happen through
// the side HTTP client with the browser's cookies.
func (c *browserClient) Post(ctx context.Context, pageURL string, form map[string]string) (*Page, error) {
	if err := c.refresh(ctx); err != nil {
		return nil, err
	}

	res, err := c.side.R().
		SetContext(ctx).
		SetFormData(form).
		Post(pageURL)
	if err != nil {
		return nil, &RequestError{URL: pageURL, Message: "POST failed", Cause: err}
	}
	return &Page{URL: res.Request.URL, HTML: string(res.Body()), StatusCode: res.StatusCode()}, nil
}

// GetRaw bypasses the rendering layer entirely: it fetches the as-served
// markup with the side client, so date widgets and other script-altered
// content come back exactly as the server wrote them.
func (c *browserClient) GetRaw(ctx context.Context, pageURL string) (*Page, error) {
	if err := c.refresh(ctx); err != nil {
		return nil, err
	}

	res, err := c.side.R().
		SetContext(ctx).
		Get(pageURL)
	if err != nil {
		return nil, &RequestError{URL: pageURL, Message: "raw GET failed", Cause: err}
	}
	return &Page{URL: res.Request.URL, HTML: string(res.Body()), StatusCode: res.StatusCode()}, nil
}

func (c *browserClient) DownloadStream(ctx context.Context, fileURL, destination string) error {
	if err := c.refresh(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.DownloadTimeout)
	defer cancel()

	res, err := c.side.R().
		SetContext(ctx).
		SetOutput(destination).
		Get(fileURL)
	if err != nil {
		return &DownloadError{URL: fileURL, Message: "stream failed", Cause: err}
	}
	if res.StatusCode() != 200 {
		return &DownloadError{URL: fileURL, Message: "unexpected HTTP status " + res.Status()}
	}
	return nil
}

// Close releases the browser process and its allocator.
func (c *browserClient) Close() error {
	c.authenticated = false
	c.browserCancel()
	c.allocCancel()
	return nil
}
