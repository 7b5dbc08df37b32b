// Package mediawiki is a small MediaWiki Action API client covering what the
// maintenance tasks need: login, page reads, create-only and conditional
// edits, and revision counting.
package mediawiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

const defaultUserAgent = "wikibot/1.0 (https://github.com/; Go net/http)"

// Options configures a Client.
type Options struct {
	APIURL    string
	UserAgent string
	Username  string
	Password  string

	// HTTPClient is used as-is when set; its Jar must keep the login session.
	HTTPClient *http.Client
	// WriteRPS throttles edits; <= 0 disables throttling.
	WriteRPS   float64
	WriteBurst int
	// MaxRetries bounds transport retries for transient failures.
	MaxRetries int
	RetryBase  time.Duration
	// MaxLag is sent as the maxlag parameter when > 0.
	MaxLag int

	Logger *zap.Logger
}

// Client talks to one wiki's api.php. It is safe for concurrent use.
type Client struct {
	apiURL    string
	userAgent string
	username  string
	password  string
	maxLag    int

	http    *http.Client
	retries int
	base    time.Duration
	writes  *throttle
	log     *zap.Logger

	mu       sync.Mutex
	loggedIn bool
	csrf     string
}

func New(opts Options) (*Client, error) {
	api := strings.TrimSpace(opts.APIURL)
	if api == "" {
		return nil, fmt.Errorf("mediawiki: api url is required")
	}
	if _, err := url.ParseRequestURI(api); err != nil {
		return nil, fmt.Errorf("mediawiki: invalid api url: %w", err)
	}
	hc := opts.HTTPClient
	if hc == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("mediawiki: cookie jar: %w", err)
		}
		hc = &http.Client{Timeout: 120 * time.Second, Jar: jar}
	}
	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = defaultUserAgent
	}
	retries := opts.MaxRetries
	if retries < 1 {
		retries = 1
	}
	base := opts.RetryBase
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		apiURL:    api,
		userAgent: ua,
		username:  opts.Username,
		password:  opts.Password,
		maxLag:    opts.MaxLag,
		http:      hc,
		retries:   retries,
		base:      base,
		writes:    newThrottle(opts.WriteRPS, opts.WriteBurst),
		log:       log.Named("mediawiki"),
	}, nil
}

// Close stops the write throttle.
func (c *Client) Close() error {
	c.writes.Stop()
	return nil
}

// Login starts a bot-password session.
func (c *Client) Login(ctx context.Context) error {
	if c.username == "" || c.password == "" {
		return permanent(fmt.Errorf("mediawiki: username and password are required"))
	}
	token, err := c.token(ctx, "login")
	if err != nil {
		return fmt.Errorf("login token: %w", err)
	}
	var resp struct {
		Login struct {
			Result   string `json:"result"`
			Reason   string `json:"reason"`
			Username string `json:"lgusername"`
		} `json:"login"`
	}
	params := url.Values{
		"action":     {"login"},
		"lgname":     {c.username},
		"lgpassword": {c.password},
		"lgtoken":    {token},
	}
	if err := c.post(ctx, params, &resp); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if resp.Login.Result != "Success" {
		return permanent(fmt.Errorf("mediawiki: login %s: %s", resp.Login.Result, resp.Login.Reason))
	}
	c.mu.Lock()
	c.loggedIn = true
	c.csrf = ""
	c.mu.Unlock()
	c.log.Info("login succeeded", zap.String("user", resp.Login.Username))
	return nil
}

// token fetches a token of the given type ("login", "csrf").
func (c *Client) token(ctx context.Context, kind string) (string, error) {
	var resp struct {
		Query struct {
			Tokens map[string]string `json:"tokens"`
		} `json:"query"`
	}
	params := url.Values{"action": {"query"}, "meta": {"tokens"}, "type": {kind}}
	if err := c.get(ctx, params, &resp); err != nil {
		return "", err
	}
	tok := resp.Query.Tokens[kind+"token"]
	if tok == "" {
		return "", fmt.Errorf("mediawiki: empty %s token", kind)
	}
	return tok, nil
}

func (c *Client) csrfToken(ctx context.Context, refresh bool) (string, error) {
	c.mu.Lock()
	loggedIn, tok := c.loggedIn, c.csrf
	c.mu.Unlock()
	if !loggedIn {
		return "", ErrNotLoggedIn
	}
	if tok != "" && !refresh {
		return tok, nil
	}
	tok, err := c.token(ctx, "csrf")
	if err != nil {
		return "", fmt.Errorf("csrf token: %w", err)
	}
	c.mu.Lock()
	c.csrf = tok
	c.mu.Unlock()
	return tok, nil
}

func (c *Client) get(ctx context.Context, params url.Values, out any) error {
	return c.call(ctx, http.MethodGet, params, out)
}

func (c *Client) post(ctx context.Context, params url.Values, out any) error {
	return c.call(ctx, http.MethodPost, params, out)
}

// call performs one API request, retrying transient failures with
// exponential backoff. Permanent failures return immediately.
func (c *Client) call(ctx context.Context, method string, params url.Values, out any) error {
	params = withDefaults(params, c.maxLag)
	var last error
	for i := 0; i < c.retries; i++ {
		err := c.do(ctx, method, params, out)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		last = err
		c.log.Warn("api request failed; retrying",
			zap.String("action", params.Get("action")),
			zap.Int("attempt", i+1),
			zap.Error(err))
		if i == c.retries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.base * time.Duration(1<<i)):
		}
	}
	return last
}

func withDefaults(params url.Values, maxLag int) url.Values {
	out := make(url.Values, len(params)+3)
	for k, v := range params {
		out[k] = v
	}
	out.Set("format", "json")
	out.Set("formatversion", "2")
	if maxLag > 0 && out.Get("maxlag") == "" {
		out.Set("maxlag", fmt.Sprint(maxLag))
	}
	return out
}

func retryable(err error) bool {
	var pErr *PermanentError
	if errors.As(err, &pErr) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.transient()
	}
	var hErr *HTTPError
	if errors.As(err, &hErr) {
		return hErr.Status >= 500 || hErr.Status == http.StatusTooManyRequests
	}
	return true
}

func (c *Client) do(ctx context.Context, method string, params url.Values, out any) error {
	var (
		req *http.Request
		err error
	)
	if method == http.MethodGet {
		req, err = http.NewRequestWithContext(ctx, method, c.apiURL+"?"+params.Encode(), nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.apiURL, strings.NewReader(params.Encode()))
		if req != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return permanent(err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{Status: resp.StatusCode, Body: truncate(string(body), 512)}
	}

	var envelope struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return permanent(fmt.Errorf("mediawiki: decode response: %w", err))
	}
	if envelope.Error != nil {
		return envelope.Error
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return permanent(fmt.Errorf("mediawiki: decode %s response: %w", params.Get("action"), err))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
