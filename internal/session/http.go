package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jonathan/resume-harvester/internal/config"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// httpClient is the plain cookie-jar session. It is deliberately thin: no
// retries, no parsing beyond the login flow.
type httpClient struct {
	cfg  *config.Config
	http *resty.Client

	authenticated  bool
	lastActivityAt time.Time
	sessionTimeout time.Duration
	now            func() time.Time
}

func newHTTPClient(cfg *config.Config) (*httpClient, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, &AuthError{Message: "invalid base URL", Cause: err}
	}

	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.SetHeader("user-agent", userAgent)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(base.Hostname()))
	client.SetTimeout(cfg.PageLoadTimeout)

	return &httpClient{
		cfg:            cfg,
		http:           client,
		sessionTimeout: cfg.SessionTimeout,
		now:            time.Now,
	}, nil
}

// Login fetches the login form, harvests hidden anti-forgery fields, submits
// the credential pair and classifies the response.
func (c *httpClient) Login(ctx context.Context) error {
	res, err := c.http.R().
		SetContext(ctx).
		Get(loginPath)
	if err != nil {
		return &AuthError{Message: "failed to fetch login form", Cause: err}
	}

	page := &Page{URL: res.Request.URL, HTML: string(res.Body()), StatusCode: res.StatusCode()}
	doc, err := page.Document()
	if err != nil {
		return &AuthError{Message: "failed to parse login form", Cause: err}
	}

	form := harvestHiddenFields(doc)
	form[userFieldName] = c.cfg.Username
	form[passFieldName] = c.cfg.Password

	res, err = c.http.R().
		SetContext(ctx).
		SetFormData(form).
		Post(loginPath)
	if err != nil {
		return &AuthError{Message: "failed to submit credentials", Cause: err}
	}

	if err := classifyLogin(res.RawResponse.Request.URL.String(), string(res.Body())); err != nil {
		return err
	}

	c.authenticated = true
	c.lastActivityAt = c.now()
	slog.Info("session established", "transport", "http")
	return nil
}

// refresh re-authenticates when the staleness invariant is violated. It runs
// before every outbound call.
func (c *httpClient) refresh(ctx context.Context) error {
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

func (c *httpClient) Get(ctx context.Context, pageURL string) (*Page, error) {
	if err := c.refresh(ctx); err != nil {
		return nil, err
	}

	res, err := c.http.R().
		SetContext(ctx).
		Get(pageURL)
	if err != nil {
		return nil, &RequestError{URL: pageURL, Message: "GET failed", Cause: err}
	}
	return &Page{URL: res.Request.URL, HTML: string(res.Body()), StatusCode: res.StatusCode()}, nil
}

func (c *httpClient) Post(ctx context.Context, pageURL string, form map[string]string) (*Page, error) {
	if err := c.refresh(ctx); err != nil {
		return nil, err
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(form).
		Post(pageURL)
	if err != nil {
		return nil, &RequestError{URL: pageURL, Message: "POST failed", Cause: err}
	}
	return &Page{URL: res.Request.URL, HTML: string(res.Body()), StatusCode: res.StatusCode()}, nil
}

// GetRaw is identical to Get here: the plain client never runs scripts, so
// every response is already the as-served markup.
func (c *httpClient) GetRaw(ctx context.Context, pageURL string) (*Page, error) {
	return c.Get(ctx, pageURL)
}

func (c *httpClient) DownloadStream(ctx context.Context, fileURL, destination string) error {
	if err := c.refresh(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.DownloadTimeout)
	defer cancel()

	res, err := c.http.R().
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

func (c *httpClient) Close() error {
	c.authenticated = false
	return nil
}
