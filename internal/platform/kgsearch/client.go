package kgsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dcarver/kgtrack/internal/platform/envutil"
	"github.com/dcarver/kgtrack/internal/platform/logger"
)

// Client looks up named entities in the Google Knowledge Graph Search API.
type Client interface {
	Search(ctx context.Context, query string) (*SearchResponse, error)
}

type Config struct {
	APIKey  string
	BaseURL string
	Limit   int
	Timeout time.Duration
}

func ConfigFromEnv() Config {
	timeoutSec := envutil.Int("KGSEARCH_TIMEOUT_SECONDS", 30)
	return Config{
		APIKey:  strings.TrimSpace(os.Getenv("GOOGLE_API_KEY")),
		BaseURL: strings.TrimSpace(os.Getenv("KGSEARCH_BASE_URL")),
		Limit:   envutil.Int("KGSEARCH_LIMIT", 3),
		Timeout: time.Duration(timeoutSec) * time.Second,
	}
}

func NewFromEnv(log *logger.Logger) (Client, error) {
	return New(log, ConfigFromEnv())
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing GOOGLE_API_KEY")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://kgsearch.googleapis.com"
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Limit <= 0 {
		cfg.Limit = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &client{
		log:        log.With("client", "KGSearchClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

// --- public response types ---

type SearchResponse struct {
	Items []Item
}

// Item is one itemListElement entry. Raw holds the entry exactly as the API
// returned it, which is what gets persisted.
type Item struct {
	Result      Result          `json:"result"`
	ResultScore *float64        `json:"resultScore"`
	Raw         json.RawMessage `json:"-"`
}

type Result struct {
	ID                  string              `json:"@id"`
	Name                string              `json:"name"`
	Types               []string            `json:"@type"`
	Description         string              `json:"description"`
	DetailedDescription DetailedDescription `json:"detailedDescription"`
}

type DetailedDescription struct {
	ArticleBody string `json:"articleBody"`
	URL         string `json:"url"`
	License     string `json:"license"`
}

// --- wire types ---

type searchEnvelope struct {
	ItemListElement []json.RawMessage `json:"itemListElement"`
}

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "kgsearch: <nil error>"
	}
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = "<empty body>"
	}
	if len(msg) > 512 {
		msg = msg[:512]
	}
	return fmt.Sprintf("kgsearch http %d: %s", e.StatusCode, msg)
}

func (e *HTTPError) HTTPStatusCode() int { return e.StatusCode }

func (c *client) Search(ctx context.Context, query string) (*SearchResponse, error) {
	if c == nil || c.httpClient == nil {
		return nil, fmt.Errorf("kgsearch client unavailable")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("kgsearch: query required")
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("key", c.cfg.APIKey)
	params.Set("limit", strconv.Itoa(c.cfg.Limit))

	endpoint := c.cfg.BaseURL + "/v1/entities:search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("kgsearch: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("kgsearch: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("kgsearch: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var envelope searchEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("kgsearch: decode response: %w", err)
	}

	items := make([]Item, 0, len(envelope.ItemListElement))
	for _, raw := range envelope.ItemListElement {
		var item Item
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("kgsearch: decode item: %w", err)
		}
		item.Raw = raw
		items = append(items, item)
	}

	c.log.Debug("Search complete", "query", query, "items", len(items))
	return &SearchResponse{Items: items}, nil
}
