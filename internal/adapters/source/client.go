package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"camwatch/internal/infra/metrics"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// Client — общий HTTP-клиент платформенных адаптеров.
type Client struct {
	http *http.Client
}

// NewClient создаёт клиент с указанным таймаутом.
func NewClient(timeout time.Duration) *Client {
	return &Client{http: &http.Client{Timeout: timeout}}
}

// Get выполняет GET с query-параметрами и возвращает тело ответа.
func (c *Client) Get(ctx context.Context, component, rawURL string, params url.Values) ([]byte, error) {
	endpoint := rawURL
	if len(params) > 0 {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		endpoint = rawURL + sep + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	return c.do(req, component, "get")
}

// PostForm выполняет POST с form-encoded телом и возвращает тело ответа.
func (c *Client) PostForm(ctx context.Context, component, rawURL string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, component, "post")
}

func (c *Client) do(req *http.Request, component, operation string) ([]byte, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.ObserveNetworkRequest(component, operation, req.URL.Host, start, err)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

func paramsToValues(params map[string]string) url.Values {
	values := url.Values{}
	for key, value := range params {
		values.Set(key, value)
	}
	return values
}
