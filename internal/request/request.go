package request

import (
	"context"
	"crypto/tls"
	"fmt"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sirrobot01/porlarr/internal/logger"
	"golang.org/x/net/proxy"
	"golang.org/x/time/rate"
	"io"
	"math"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

func JoinURL(base string, paths ...string) (string, error) {
	// Split the last path component to separate query parameters
	lastPath := paths[len(paths)-1]
	parts := strings.Split(lastPath, "?")
	paths[len(paths)-1] = parts[0]

	joined, err := url.JoinPath(base, paths...)
	if err != nil {
		return "", err
	}

	if len(parts) > 1 {
		return joined + "?" + parts[1], nil
	}

	return joined, nil
}

// BuildBaseURL assembles scheme://host:port/urlBase.
func BuildBaseURL(useSsl bool, host string, port int, urlBase string) string {
	scheme := "http"
	if useSsl {
		scheme = "https"
	}
	u := url.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
	}
	if base := strings.Trim(urlBase, "/"); base != "" {
		u.Path = "/" + base
	}
	return u.String()
}

type ClientOption func(*Client)

// Client represents an HTTP client with additional capabilities.
// It never retries: a failed exchange is returned to the caller as is.
type Client struct {
	client        *http.Client
	rateLimiter   *rate.Limiter
	headers       map[string]string
	headersMu     sync.RWMutex
	timeout       time.Duration
	skipTLSVerify bool
	logger        zerolog.Logger
	proxy         string
}

// WithTimeout sets the request timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithRateLimiter sets a rate limiter
func WithRateLimiter(rl *rate.Limiter) ClientOption {
	return func(c *Client) {
		c.rateLimiter = rl
	}
}

// WithHeaders sets default headers
func WithHeaders(headers map[string]string) ClientOption {
	return func(c *Client) {
		c.headersMu.Lock()
		c.headers = headers
		c.headersMu.Unlock()
	}
}

func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSkipTLSVerify disables certificate verification on the default transport.
func WithSkipTLSVerify(skip bool) ClientOption {
	return func(c *Client) {
		c.skipTLSVerify = skip
	}
}

func WithProxy(proxyURL string) ClientOption {
	return func(c *Client) {
		c.proxy = proxyURL
	}
}

// Do performs a single HTTP request with rate limiting and default headers.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	c.headersMu.RLock()
	for key, value := range c.headers {
		if req.Header.Get(key) == "" {
			req.Header.Set(key, value)
		}
	}
	c.headersMu.RUnlock()

	return c.client.Do(req)
}

// MakeRequest performs an HTTP request and returns the response body as bytes
func (c *Client) MakeRequest(req *http.Request) ([]byte, error) {
	res, err := c.Do(req)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := res.Body.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Failed to close response body")
		}
	}()

	bodyBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &HTTPError{
			StatusCode: res.StatusCode,
			Message:    fmt.Sprintf("HTTP error %d: %s", res.StatusCode, strings.TrimSpace(string(bodyBytes))),
			Code:       http.StatusText(res.StatusCode),
		}
	}

	return bodyBytes, nil
}

// New creates a new HTTP client with the specified options
func New(options ...ClientOption) *Client {
	client := &Client{
		logger:  logger.New("request"),
		timeout: 60 * time.Second,
		headers: make(map[string]string),
	}

	for _, option := range options {
		option(client)
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: client.skipTLSVerify, //nolint:gosec // User explicitly requested insecure
		},
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2: true,
	}

	if client.proxy != "" {
		if strings.HasPrefix(client.proxy, "socks5://") {
			socksURL, err := url.Parse(client.proxy)
			if err != nil {
				client.logger.Error().Msgf("Failed to parse SOCKS5 proxy URL: %v", err)
			} else {
				auth := &proxy.Auth{}
				if socksURL.User != nil {
					auth.User = socksURL.User.Username()
					password, _ := socksURL.User.Password()
					auth.Password = password
				}

				dialer, err := proxy.SOCKS5("tcp", socksURL.Host, auth, proxy.Direct)
				if err != nil {
					client.logger.Error().Msgf("Failed to create SOCKS5 dialer: %v", err)
				} else if cd, ok := dialer.(proxy.ContextDialer); ok {
					transport.DialContext = cd.DialContext
				} else {
					transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
						return dialer.Dial(network, addr)
					}
				}
			}
		} else {
			proxyURL, err := url.Parse(client.proxy)
			if err != nil {
				client.logger.Error().Msgf("Failed to parse proxy URL: %v", err)
			} else {
				transport.Proxy = http.ProxyURL(proxyURL)
			}
		}
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}

	client.client = &http.Client{
		Timeout:   client.timeout,
		Transport: transport,
	}
	return client
}

func ParseRateLimit(rateStr string) *rate.Limiter {
	if rateStr == "" {
		return nil
	}
	re := regexp.MustCompile(`(\d+)/(minute|second)`)
	matches := re.FindStringSubmatch(rateStr)
	if len(matches) != 3 {
		return nil
	}

	count, err := strconv.Atoi(matches[1])
	if err != nil || count <= 0 {
		return nil
	}

	switch matches[2] {
	case "minute":
		reqsPerSecond := float64(count) / 60.0
		burstSize := int(math.Max(1, float64(count)*0.25))
		return rate.NewLimiter(rate.Limit(reqsPerSecond), burstSize)
	case "second":
		burstSize := int(math.Max(1, float64(count)))
		return rate.NewLimiter(rate.Limit(float64(count)), burstSize)
	default:
		return nil
	}
}

func JSONResponse(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		return
	}
}
