// Package reddit is a minimal Reddit API adapter for a script application:
// list newest posts, stream new comments, post replies, and moderate
// content. Server-side failures surface as *model.TransientError so callers
// can apply the bounded mutation retry policy.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kiranze/FPVNoobBot/internal/model"
)

const (
	defaultBaseURL  = "https://oauth.reddit.com"
	defaultTokenURL = "https://www.reddit.com/api/v1/access_token"

	// tokenSlack renews the token this long before it actually expires.
	tokenSlack = time.Minute
)

// Credentials identify a Reddit script application and its bot account.
type Credentials struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
}

// Client talks to the Reddit API on behalf of the bot account.
type Client struct {
	baseURL    string
	tokenURL   string
	creds      Credentials
	userAgent  string
	httpClient *http.Client

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

// Option configures the client.
type Option func(*Client)

// WithEndpoints overrides the API and token endpoints (used in tests).
func WithEndpoints(baseURL, tokenURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
		c.tokenURL = tokenURL
	}
}

// WithHTTPTimeout sets the per-request timeout.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// NewClient creates a Reddit client. The userAgent should uniquely identify
// the bot per Reddit's API rules.
func NewClient(creds Credentials, userAgent string, opts ...Option) *Client {
	c := &Client{
		baseURL:   defaultBaseURL,
		tokenURL:  defaultTokenURL,
		creds:     creds,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ensureToken fetches or renews the OAuth token when needed.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExp.Add(-tokenSlack)) {
		return c.token, nil
	}

	form := url.Values{
		"grant_type": {"password"},
		"username":   {c.creds.Username},
		"password":   {c.creds.Password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.creds.ClientID, c.creds.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp.StatusCode, body)
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("unmarshal token response: %w", err)
	}
	if tok.Error != "" || tok.AccessToken == "" {
		return "", fmt.Errorf("token request rejected: %s", tok.Error)
	}

	c.token = tok.AccessToken
	c.tokenExp = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return c.token, nil
}

// do performs an authenticated request and decodes the JSON response into
// out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, form url.Values, out any) error {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return err
	}

	var bodyReader io.Reader
	if form != nil {
		bodyReader = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", c.userAgent)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return statusError(resp.StatusCode, body)
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("unmarshal %s response: %w", path, err)
		}
	}
	return nil
}

// statusError maps 429 and 5xx responses to transient errors.
func statusError(code int, body []byte) error {
	msg := string(body)
	if len(msg) > 200 {
		msg = msg[:200]
	}
	if code == http.StatusTooManyRequests || code >= http.StatusInternalServerError {
		return &model.TransientError{StatusCode: code, Message: msg}
	}
	return fmt.Errorf("reddit: HTTP %d: %s", code, msg)
}

// ListNew returns the subreddit's newest posts, newest first.
func (c *Client) ListNew(ctx context.Context, subreddit string, limit int) ([]model.Item, error) {
	path := fmt.Sprintf("/r/%s/new?limit=%d&raw_json=1", subreddit, limit)
	var lst listing
	if err := c.do(ctx, http.MethodGet, path, nil, &lst); err != nil {
		return nil, err
	}

	items := make([]model.Item, 0, len(lst.Data.Children))
	for _, child := range lst.Data.Children {
		if child.Kind != "t3" {
			continue
		}
		var p postData
		if err := json.Unmarshal(child.Data, &p); err != nil {
			return nil, fmt.Errorf("unmarshal post: %w", err)
		}
		items = append(items, p.item())
	}
	return items, nil
}

// listComments returns the subreddit's newest comments, newest first. When
// before is non-empty, only comments newer than that fullname are returned.
func (c *Client) listComments(ctx context.Context, subreddit string, limit int, before string) ([]model.Item, error) {
	q := url.Values{
		"limit":    {strconv.Itoa(limit)},
		"raw_json": {"1"},
	}
	if before != "" {
		q.Set("before", before)
	}
	path := fmt.Sprintf("/r/%s/comments?%s", subreddit, q.Encode())

	var lst listing
	if err := c.do(ctx, http.MethodGet, path, nil, &lst); err != nil {
		return nil, err
	}

	items := make([]model.Item, 0, len(lst.Data.Children))
	for _, child := range lst.Data.Children {
		if child.Kind != "t1" {
			continue
		}
		var cd commentData
		if err := json.Unmarshal(child.Data, &cd); err != nil {
			return nil, fmt.Errorf("unmarshal comment: %w", err)
		}
		items = append(items, cd.item())
	}
	return items, nil
}

// Reply posts text as a comment under the thing named by parentFullname
// (t3_* to comment on a post, t1_* to reply to a comment).
func (c *Client) Reply(ctx context.Context, parentFullname, text string) error {
	form := url.Values{
		"api_type": {"json"},
		"thing_id": {parentFullname},
		"text":     {text},
	}
	return c.do(ctx, http.MethodPost, "/api/comment", form, nil)
}

// Remove removes the thing as a moderator; spam marks it as spam.
func (c *Client) Remove(ctx context.Context, fullname string, spam bool) error {
	form := url.Values{
		"id":   {fullname},
		"spam": {strconv.FormatBool(spam)},
	}
	return c.do(ctx, http.MethodPost, "/api/remove", form, nil)
}

// Report files a report against the thing.
func (c *Client) Report(ctx context.Context, fullname, reason string) error {
	form := url.Values{
		"api_type": {"json"},
		"thing_id": {fullname},
		"reason":   {reason},
	}
	return c.do(ctx, http.MethodPost, "/api/report", form, nil)
}

// Delete deletes one of the bot's own things.
func (c *Client) Delete(ctx context.Context, fullname string) error {
	form := url.Values{
		"id": {fullname},
	}
	return c.do(ctx, http.MethodPost, "/api/del", form, nil)
}

// Me returns the username of the authenticated account.
func (c *Client) Me(ctx context.Context) (string, error) {
	var me struct {
		Name string `json:"name"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/me", nil, &me); err != nil {
		return "", err
	}
	return me.Name, nil
}

// Comment fetches a single comment by fullname (t1_*). Returns nil when the
// thing does not exist.
func (c *Client) Comment(ctx context.Context, fullname string) (*model.Item, error) {
	path := "/api/info?id=" + url.QueryEscape(fullname) + "&raw_json=1"
	var lst listing
	if err := c.do(ctx, http.MethodGet, path, nil, &lst); err != nil {
		return nil, err
	}
	for _, child := range lst.Data.Children {
		if child.Kind != "t1" {
			continue
		}
		var cd commentData
		if err := json.Unmarshal(child.Data, &cd); err != nil {
			return nil, fmt.Errorf("unmarshal comment: %w", err)
		}
		it := cd.item()
		return &it, nil
	}
	return nil, nil
}
