package soundcloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/scx/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	defaultAPIBase = "https://api-v2.soundcloud.com"
	defaultWebBase = "https://soundcloud.com"

	pageLimit = 100
)

var (
	scriptSrcPattern = regexp.MustCompile(`<script crossorigin src="(https://[^"]*\.sndcdn\.com/assets/[^"]+\.js)"></script>`)
	clientIDPattern  = regexp.MustCompile(`"client_id=(.+?)"`)
)

// Client talks to the api-v2 endpoints. The zero value is not usable; create
// one with [NewClient] and call [Client.Connect] before issuing lookups.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
	oauthToken string

	apiBase string
	webBase string

	// Retry cooldowns, overridable in tests.
	thinRetryDelay   time.Duration
	rateLimitDelay   time.Duration
	statusRetryDelay time.Duration

	mu        sync.Mutex
	clientID  string
	connected bool
}

// ClientOpts contains configuration options for creating a Client.
type ClientOpts struct {
	// HTTPClient overrides the transport. When nil, a client is built from
	// the token (requests then carry "Authorization: OAuth <token>") or
	// falls back to http.DefaultClient.
	HTTPClient *http.Client
	Logger     *log.Logger
	OAuthToken string
}

// NewClient creates a Client with the provided options.
func NewClient(opts ClientOpts) *Client {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.HTTPClient == nil {
		if opts.OAuthToken != "" {
			src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.OAuthToken, TokenType: "OAuth"})
			opts.HTTPClient = oauth2.NewClient(context.Background(), src)
		} else {
			opts.HTTPClient = http.DefaultClient
		}
	}

	return &Client{
		httpClient:       opts.HTTPClient,
		limiter:          rate.NewLimiter(rate.Limit(10), 5),
		logger:           opts.Logger,
		oauthToken:       opts.OAuthToken,
		apiBase:          defaultAPIBase,
		webBase:          defaultWebBase,
		thinRetryDelay:   10 * time.Second,
		rateLimitDelay:   30 * time.Second,
		statusRetryDelay: 10 * time.Second,
	}
}

// HTTPClient exposes the underlying transport so collaborators share one
// connection pool.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// ClientID returns the discovered client credential. Empty before Connect.
func (c *Client) ClientID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clientID
}

// Connect performs the one-time session setup: client credential discovery
// and, when an account token is configured, token verification. Calling
// Connect again after a successful call is a no-op.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	id, err := c.scrapeClientID(ctx)
	if err != nil {
		return fmt.Errorf("client credential discovery failed: %w", err)
	}

	c.mu.Lock()
	c.clientID = id
	c.connected = true
	c.mu.Unlock()

	c.logger.Debug("discovered client credential", "client_id", id)

	if c.oauthToken != "" {
		if err := c.verifyToken(ctx); err != nil {
			return err
		}
	} else {
		c.logger.Info("no account (no aac)")
	}

	return nil
}

// scrapeClientID fetches the discover page, collects script bundle URLs, and
// races a probe over each until one yields an embedded client ID.
func (c *Client) scrapeClientID(ctx context.Context) (string, error) {
	body, _, err := c.fetch(ctx, c.webBase+"/discover")
	if err != nil {
		return "", err
	}

	scriptURLs := scriptBundleURLs(body)
	if len(scriptURLs) == 0 {
		return "", fmt.Errorf("%w: no script bundles on discover page", shared.ErrAPIRequest)
	}

	return FirstSuccess(ctx, scriptURLs, c.extractClientID)
}

// scriptBundleURLs extracts candidate script bundle URLs from the discover
// page markup.
func scriptBundleURLs(body []byte) []string {
	matches := scriptSrcPattern.FindAllSubmatch(body, -1)
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		urls = append(urls, string(m[1]))
	}
	return urls
}

// extractClientID probes one script bundle for the credential pattern.
func (c *Client) extractClientID(ctx context.Context, scriptURL string) (string, error) {
	body, _, err := c.fetch(ctx, scriptURL)
	if err != nil {
		return "", err
	}

	match := clientIDPattern.FindSubmatch(body)
	if match == nil {
		return "", fmt.Errorf("no client_id in %s", scriptURL)
	}
	return string(match[1]), nil
}

// verifyToken checks the configured account token against the subscription
// endpoint and logs the account tier.
func (c *Client) verifyToken(ctx context.Context) error {
	resp, err := c.do(ctx, c.apiBase+"/payments/quotations/consumer-subscription", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return shared.ErrInvalidToken
	}

	var sub struct {
		ActiveSubscription struct {
			Package struct {
				Plan string `json:"plan"`
			} `json:"package"`
		} `json:"active_subscription"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&sub); err != nil {
		return fmt.Errorf("failed to decode subscription response: %w", err)
	}

	if sub.ActiveSubscription.Package.Plan == "consumer-high-tier" {
		c.logger.Info("go+ account (aac)")
	} else {
		c.logger.Info("free/go account (no aac)")
	}
	return nil
}

// ResolveTrack resolves a normalized track reference.
func (c *Client) ResolveTrack(ctx context.Context, reference string) (*Track, error) {
	var track Track
	if err := c.resolve(ctx, reference, &track); err != nil {
		return nil, err
	}
	if track.Kind != "track" || track.ID == 0 {
		return nil, fmt.Errorf("%w: %s is not a track", shared.ErrNotResolved, reference)
	}
	return &track, nil
}

// ResolvePlaylist resolves a normalized playlist reference.
func (c *Client) ResolvePlaylist(ctx context.Context, reference string) (*Playlist, error) {
	var playlist Playlist
	if err := c.resolve(ctx, reference, &playlist); err != nil {
		return nil, err
	}
	if playlist.Kind != "playlist" || playlist.ID == 0 {
		return nil, fmt.Errorf("%w: %s is not a playlist", shared.ErrNotResolved, reference)
	}
	return &playlist, nil
}

// ResolveUser resolves a bare user reference (see [UserRoot]).
func (c *Client) ResolveUser(ctx context.Context, reference string) (*User, error) {
	var user User
	if err := c.resolve(ctx, reference, &user); err != nil {
		return nil, err
	}
	if user.Kind != "user" || user.ID == 0 {
		return nil, fmt.Errorf("%w: %s is not a user", shared.ErrNotResolved, reference)
	}
	return &user, nil
}

func (c *Client) resolve(ctx context.Context, reference string, out any) error {
	return c.getJSON(ctx, c.apiBase+"/resolve", url.Values{"url": {reference}}, out)
}

// Track fetches the full record for a track by ID. The endpoint is known to
// intermittently answer with HTML; a content-type mismatch is retried on a
// fixed delay until the context is cancelled.
func (c *Client) Track(ctx context.Context, id int64, secretToken string) (*Track, error) {
	params := url.Values{}
	if secretToken != "" {
		params.Set("secret_token", secretToken)
	}
	endpoint := fmt.Sprintf("%s/tracks/%d", c.apiBase, id)

	for {
		var track Track
		err := c.getJSON(ctx, endpoint, params, &track)
		if err == nil {
			return &track, nil
		}
		if !isContentTypeMismatch(err) {
			return nil, err
		}

		c.logger.Warn("track couldn't be resolved, retrying", "id", id, "delay", c.thinRetryDelay)
		if err := shared.Wait(ctx, c.thinRetryDelay); err != nil {
			return nil, err
		}
	}
}

// StreamURL exchanges a transcoding's opaque location for a signed stream
// URL. A 429 triggers the long cooldown, any other non-200 the short one;
// both retry until 200 or cancellation.
func (c *Client) StreamURL(ctx context.Context, t Transcoding) (string, error) {
	for {
		resp, err := c.do(ctx, t.URL, nil)
		if err != nil {
			return "", err
		}

		switch resp.StatusCode {
		case http.StatusOK:
			var payload struct {
				URL string `json:"url"`
			}
			err := json.NewDecoder(resp.Body).Decode(&payload)
			resp.Body.Close()
			if err != nil {
				return "", fmt.Errorf("failed to decode stream response: %w", err)
			}
			return payload.URL, nil
		case http.StatusTooManyRequests:
			resp.Body.Close()
			c.logger.Warn("rate limited on stream lookup, cooling down", "delay", c.rateLimitDelay)
			if err := shared.Wait(ctx, c.rateLimitDelay); err != nil {
				return "", err
			}
		default:
			status := resp.StatusCode
			resp.Body.Close()
			c.logger.Warn("stream lookup failed, retrying", "status", status, "delay", c.statusRetryDelay)
			if err := shared.Wait(ctx, c.statusRetryDelay); err != nil {
				return "", err
			}
		}
	}
}

// DownloadURL fetches the signed redirect URL for a track's original file.
func (c *Client) DownloadURL(ctx context.Context, id int64, secretToken string) (string, error) {
	params := url.Values{}
	if secretToken != "" {
		params.Set("secret_token", secretToken)
	}

	var payload struct {
		RedirectURI string `json:"redirectUri"`
	}
	endpoint := fmt.Sprintf("%s/tracks/%d/download", c.apiBase, id)
	if err := c.getJSON(ctx, endpoint, params, &payload); err != nil {
		return "", err
	}
	if payload.RedirectURI == "" {
		return "", fmt.Errorf("%w: empty download redirect for track %d", shared.ErrAPIRequest, id)
	}
	return payload.RedirectURI, nil
}

// UserTracks returns a pager over a user's uploaded tracks.
func (c *Client) UserTracks(user *User) *Pager {
	return &Pager{
		client: c,
		next:   fmt.Sprintf("%s/users/%d/tracks?limit=%d", c.apiBase, user.ID, pageLimit),
	}
}

// UserLikes returns a pager over a user's liked tracks.
func (c *Client) UserLikes(user *User) *Pager {
	return &Pager{
		client:  c,
		next:    fmt.Sprintf("%s/users/%d/likes?representation=&limit=%d", c.apiBase, user.ID, pageLimit),
		wrapped: true,
	}
}

// UserReposts returns a pager over a user's reposted tracks.
func (c *Client) UserReposts(user *User) *Pager {
	return &Pager{
		client:  c,
		next:    fmt.Sprintf("%s/stream/users/%d/reposts?representation=&limit=%d", c.apiBase, user.ID, pageLimit),
		wrapped: true,
	}
}

// DownloadFile streams the response body for url into dest and returns the
// response headers. Not rate limited; media fetches go straight to the CDN.
func (c *Client) DownloadFile(ctx context.Context, rawURL, dest string) (http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d fetching %s", shared.ErrAPIRequest, resp.StatusCode, rawURL)
	}

	f, err := os.Create(dest)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dest, err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(dest)
		return nil, fmt.Errorf("failed to write %s: %w", dest, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dest)
		return nil, fmt.Errorf("failed to close %s: %w", dest, err)
	}

	return resp.Header, nil
}

// Fetch reads the full response body for url.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	body, _, err := c.fetch(ctx, rawURL)
	return body, err
}

// Probe issues a GET and reports only the status code; the body is discarded.
func (c *Client) Probe(ctx context.Context, rawURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	return resp.StatusCode, nil
}

// fetch reads a body without the API rate limiter or client_id decoration.
func (c *Client) fetch(ctx context.Context, rawURL string) ([]byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("%w: status %d fetching %s", shared.ErrAPIRequest, resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, resp.Header, nil
}

// do performs a rate-limited API request with the client credential merged
// into the query. The caller owns the response body.
func (c *Client) do(ctx context.Context, rawURL string, params url.Values) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid request URL %s: %w", rawURL, err)
	}

	query := u.Query()
	for key, values := range params {
		for _, v := range values {
			query.Set(key, v)
		}
	}
	if id := c.ClientID(); id != "" {
		query.Set("client_id", id)
	}
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return resp, nil
}

// getJSON performs an API request and decodes the JSON body, surfacing a
// content-type mismatch as a distinct error so callers can retry it.
func (c *Client) getJSON(ctx context.Context, rawURL string, params url.Values, out any) error {
	resp, err := c.do(ctx, rawURL, params)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d from %s", shared.ErrAPIRequest, resp.StatusCode, rawURL)
	}

	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		return &contentTypeError{contentType: ct}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// contentTypeError marks the transient HTML-from-JSON-endpoint failure mode.
type contentTypeError struct {
	contentType string
}

func (e *contentTypeError) Error() string {
	return "unexpected content type " + strconv.Quote(e.contentType)
}

func isContentTypeMismatch(err error) bool {
	var cte *contentTypeError
	return errors.As(err, &cte)
}
