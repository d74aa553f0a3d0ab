package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Config 资产客户端配置
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    "http://localhost:9000",
		Timeout:    10 * time.Second,
		MaxRetries: 3,
	}
}

// Client 拉取规则/模板 JSON 资产的 HTTP 客户端
type Client struct {
	baseURL    string
	maxRetries int
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient 创建资产客户端
func NewClient(config *Config, logger *logrus.Logger) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &Client{
		baseURL:    config.BaseURL,
		maxRetries: config.MaxRetries,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
	}
}

// GetJSON 拉取 path 对应的 JSON 文档并解析到 out。
// 网络错误与 5xx 会重试，4xx 和解析错误直接返回。
func (c *Client) GetJSON(ctx context.Context, path string, out interface{}) error {
	url := fmt.Sprintf("%s%s", c.baseURL, path)

	var lastErr error
	attempts := c.maxRetries
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt-1) * 500 * time.Millisecond):
			}
		}

		body, retryable, err := c.fetch(ctx, url)
		if err == nil {
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("decode asset %s: %w", path, err)
			}
			return nil
		}

		lastErr = err
		if !retryable {
			return lastErr
		}
		c.logger.Warnf("asset fetch attempt %d/%d failed: %v", attempt, attempts, err)
	}

	return fmt.Errorf("fetch asset %s: %w", path, lastErr)
}

func (c *Client) fetch(ctx context.Context, url string) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Assurify-Assets-Client/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read response body: %w", err)
	}

	c.logger.Debugf("asset fetch: GET %s -> %d", url, resp.StatusCode)

	if resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("asset server error [%d]", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return nil, false, fmt.Errorf("asset error [%d]: %s", resp.StatusCode, string(body))
	}

	return body, false, nil
}
