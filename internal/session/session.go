// Package session owns the authenticated connection to the ERP. It exposes a
// single capability interface with two implementations: a cookie-bearing HTTP
// client and a driven browser for deployments that render content with
// scripts. Callers depend only on the interface.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/resume-harvester/internal/config"
)

// ErrSessionUnavailable is returned when a stale session could not be
// re-established. Callers must not proceed unauthenticated.
var ErrSessionUnavailable = errors.New("session unavailable: re-login failed")

// AuthError reports a failed or ambiguous login.
type AuthError struct {
	Message string
	Cause   error
}

func (e *AuthError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("authentication failed: %s", e.Message)
}

func (e *AuthError) Unwrap() error { return e.Cause }

// RequestError reports a network-level failure for a page fetch. The session
// performs no retries itself; retry policy belongs to callers.
type RequestError struct {
	URL     string
	Message string
	Cause   error
}

func (e *RequestError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("request error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("request error for %s: %s", e.URL, e.Message)
}

func (e *RequestError) Unwrap() error { return e.Cause }

// DownloadError reports a failed streaming download.
type DownloadError struct {
	URL     string
	Message string
	Cause   error
}

func (e *DownloadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("download error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("download error for %s: %s", e.URL, e.Message)
}

func (e *DownloadError) Unwrap() error { return e.Cause }

// Page is one fetched document.
type Page struct {
	URL        string
	HTML       string
	StatusCode int
}

// Document parses the page markup.
func (p *Page) Document() (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(p.HTML))
}

// Client is the capability interface every harvester component talks to.
// GetRaw must return the as-served markup, bypassing any script-rendering
// layer, because rendered and raw content can disagree on dates.
type Client interface {
	Login(ctx context.Context) error
	Get(ctx context.Context, url string) (*Page, error)
	Post(ctx context.Context, url string, form map[string]string) (*Page, error)
	GetRaw(ctx context.Context, url string) (*Page, error)
	DownloadStream(ctx context.Context, url, destination string) error
	Close() error
}

// New selects the session implementation from configuration.
func New(cfg *config.Config) (Client, error) {
	if cfg.UseBrowser {
		return newBrowserClient(cfg)
	}
	return newHTTPClient(cfg)
}

// Login form field names the ERP expects.
const (
	loginPath     = "/mem/dispLogin"
	userFieldName = "username"
	passFieldName = "password"
)

// successVocabulary holds post-login navigation markers; one of these must
// appear for a login response to count as success.
var successVocabulary = []string{
	"dispLogout",
	"logout",
	"searchcandidate",
	"dashboard",
	"mypage",
}

// failureVocabulary holds error-banner markers; any match means failure even
// when a success marker is also present.
var failureVocabulary = []string{
	"login failed",
	"invalid password",
	"incorrect password",
	"id or password",
	"please log in",
	"login error",
}

// classifyLogin decides whether a login response is authenticated. Success
// needs a positive success-vocabulary match, no failure-vocabulary match, and
// a response URL that left the login endpoint. Anything ambiguous is failure.
func classifyLogin(finalURL, html string) error {
	if strings.Contains(finalURL, loginPath) {
		return &AuthError{Message: "response URL still on login endpoint"}
	}

	lower := strings.ToLower(html)
	for _, marker := range failureVocabulary {
		if strings.Contains(lower, marker) {
			return &AuthError{Message: fmt.Sprintf("failure marker %q present", marker)}
		}
	}
	for _, marker := range successVocabulary {
		if strings.Contains(lower, strings.ToLower(marker)) {
			return nil
		}
	}
	return &AuthError{Message: "no success marker found, treating ambiguous response as failure"}
}

// harvestHiddenFields collects hidden inputs from the login form so
// anti-forgery tokens survive the credential submission.
func harvestHiddenFields(doc *goquery.Document) map[string]string {
	fields := make(map[string]string)
	doc.Find("form input[type=hidden]").Each(func(_ int, s *goquery.Selection) {
		name, ok := s.Attr("name")
		if !ok || name == "" {
			return
		}
		fields[name] = s.AttrOr("value", "")
	})
	return fields
}
