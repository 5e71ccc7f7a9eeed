package supplier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"xfollowers/pkg/config"
	errs "xfollowers/pkg/errors"
	"xfollowers/pkg/logger"
	"xfollowers/pkg/ratelimit"
)

// RequestObserver is notified after every request. Status is 0 when the
// supplier was unreachable.
type RequestObserver interface {
	ObserveRequest(endpoint string, status int, duration time.Duration)
}

// Client sends rate-limited GET requests to a follower-data supplier
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	name       string
	limiter    ratelimit.Limiter
	observer   RequestObserver
	logger     logger.Logger
}

// NewClient creates a client for the supplier named in cfg, authenticating
// with apiKey.
func NewClient(cfg *config.SupplierConfig, apiKey string, limiter ratelimit.Limiter, log logger.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, errs.Config(fmt.Sprintf("no API key for supplier %s", cfg.Name))
	}
	auth, err := AuthHeaders(cfg.Name, apiKey)
	if err != nil {
		return nil, errs.Config(err.Error())
	}
	if log == nil {
		log = logger.GetLogger()
	}
	if limiter == nil {
		limiter = ratelimit.NewFixedDelay(0)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL(cfg.Name)
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	headers := map[string]string{
		"Accept": "application/json",
	}
	if cfg.UserAgent != "" {
		headers["User-Agent"] = cfg.UserAgent
	}
	for k, v := range auth {
		headers[k] = v
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		headers:    headers,
		baseURL:    baseURL,
		name:       cfg.Name,
		limiter:    limiter,
		logger:     log,
	}, nil
}

// SetObserver registers o to be told about every request
func (c *Client) SetObserver(o RequestObserver) {
	c.observer = o
}

// Name returns the supplier name
func (c *Client) Name() string {
	return c.name
}

// Send waits for the rate limiter, issues one GET and returns the body of a
// 2xx response. Network failures become unreachable errors and any other
// status an http_failure carrying it. A cancelled ctx is returned as is.
func (c *Client) Send(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	target := c.baseURL + endpoint
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errs.Config(fmt.Sprintf("invalid request URL %q: %v", target, err))
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(endpoint, 0, time.Since(start))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errs.Unreachable(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	duration := time.Since(start)
	c.observe(endpoint, resp.StatusCode, duration)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errs.Unreachable(fmt.Errorf("read body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errs.HTTPFailure(resp.StatusCode, string(body))
	}
	return body, nil
}

func (c *Client) observe(endpoint string, status int, d time.Duration) {
	logger.LogRequest(endpoint, status, d)
	if c.observer != nil {
		c.observer.ObserveRequest(endpoint, status, d)
	}
}

// GetJSON sends a request and decodes the JSON body into target
func (c *Client) GetJSON(ctx context.Context, endpoint string, params url.Values, target interface{}) error {
	body, err := c.Send(ctx, endpoint, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, target); err != nil {
		c.warnUnparsable(endpoint, body, err)
		return errs.Malformed("response is not valid JSON", err)
	}
	return nil
}

func (c *Client) warnUnparsable(endpoint string, body []byte, err error) {
	preview := string(body)
	if len(preview) > 200 {
		preview = preview[:200] + "..."
	}
	c.logger.WarnWithFields("failed to parse supplier response", map[string]interface{}{
		"endpoint":     endpoint,
		"error":        err.Error(),
		"body_preview": preview,
	})
}

// FetchFollowPage fetches one page of the request list for username,
// starting at cursor (empty for the first page).
func (c *Client) FetchFollowPage(ctx context.Context, request Request, username string, count int, cursor string) (*FollowPage, error) {
	body, err := c.Send(ctx, request.Endpoint(), PageQuery(username, count, cursor))
	if err != nil {
		return nil, err
	}
	page, err := DecodeFollowPage(body)
	if err != nil {
		return nil, err
	}
	for _, bad := range page.Malformed {
		c.logger.WithError(bad).Warn("Skipping malformed account record")
	}
	return page, nil
}

// FetchUsersByIDs looks up the detail objects of up to one chunk of ids.
// Entries that fail to decode are logged and come back nil or partial; they
// never fail the chunk.
func (c *Client) FetchUsersByIDs(ctx context.Context, ids []string) ([]*UserDetail, error) {
	body, err := c.Send(ctx, UsersByRestIDsEndpoint, IDsQuery(ids))
	if err != nil {
		return nil, err
	}
	batch, err := DecodeUsersByIDs(body)
	if err != nil {
		c.warnUnparsable(UsersByRestIDsEndpoint, body, err)
		return nil, err
	}
	for _, bad := range batch.Malformed {
		c.logger.WithError(bad).Warn("Malformed detail record")
	}
	return batch.Details, nil
}

// LookupUserID resolves a screen name to its rest id
func (c *Client) LookupUserID(ctx context.Context, username string) (string, error) {
	params := url.Values{}
	params.Set("username", username)

	var resp UserLookupResponse
	if err := c.GetJSON(ctx, UserByScreenNameEndpoint, params, &resp); err != nil {
		return "", err
	}
	if resp.Data.User.Result == nil || resp.Data.User.Result.RestID == "" {
		return "", errs.MissingField("rest_id")
	}
	return resp.Data.User.Result.RestID, nil
}

// IsCancelled reports whether err came from a cancelled or expired context
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
