package httpx

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/time/rate"
)

// ErrStatus is wrapped by every non-2xx response error.
var ErrStatus = errors.New("unexpected status")

// Observer is notified once per request with the endpoint label and outcome
// ("ok", "status", "transport", "decode").
type Observer func(endpoint, outcome string)

// Client is a small JSON GET client shared by all upstream integrations.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	userAgent   string
	observer    Observer
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit caps outgoing requests per second. Zero leaves the client unlimited.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.rateLimiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		rateLimiter: rate.NewLimiter(rate.Inf, 1),
		userAgent:   "swuprice/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetJSON issues a GET against u and decodes the JSON body into into.
// endpoint is a short label used for metrics and error messages.
func (c *Client) GetJSON(ctx context.Context, endpoint, u string, into any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limiter: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("%s: creating request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip, br")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(endpoint, "transport")
		return fmt.Errorf("%s: executing request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := decodedBody(resp)
	if err != nil {
		c.observe(endpoint, "decode")
		return fmt.Errorf("%s: %w", endpoint, err)
	}

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(body, 512))
		c.observe(endpoint, "status")
		return fmt.Errorf("%s: %w %d: %s", endpoint, ErrStatus, resp.StatusCode, string(b))
	}

	if err := json.NewDecoder(body).Decode(into); err != nil {
		c.observe(endpoint, "decode")
		return fmt.Errorf("%s: decoding response: %w", endpoint, err)
	}

	c.observe(endpoint, "ok")
	return nil
}

func (c *Client) observe(endpoint, outcome string) {
	if c.observer != nil {
		c.observer(endpoint, outcome)
	}
}

// decodedBody unwraps compressed bodies. Go's transport only decompresses gzip on its
// own when it set Accept-Encoding itself, which we don't.
func decodedBody(resp *http.Response) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		return gz, nil
	case "br":
		return brotli.NewReader(resp.Body), nil
	default:
		return resp.Body, nil
	}
}
