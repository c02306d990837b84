package polymarket

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/driesv/contrascan/internal/domain"
)

const (
	// endCursor is the CLOB sentinel marking the final listing page.
	endCursor = "LTE="

	// maxGetMidpointIDs caps the comma-joined identifier list on the GET
	// fallback; the service rejects longer query strings.
	maxGetMidpointIDs = 100

	defaultMidpointChunk = 80
	defaultMaxPages      = 200
	defaultChunkDelay    = 150 * time.Millisecond
	defaultTimeout       = 10 * time.Second
)

// ClobConfig holds the knobs for the CLOB REST client.
type ClobConfig struct {
	// BaseURL is the CLOB API root, e.g. "https://clob.polymarket.com".
	BaseURL string
	// RequestTimeout bounds each individual HTTP request.
	RequestTimeout time.Duration
	// MidpointChunkSize is the number of token IDs per midpoint request.
	MidpointChunkSize int
	// ChunkDelay is the courtesy pause between successive chunk requests.
	ChunkDelay time.Duration
	// MaxPages hard-caps listing pagination against a looping cursor.
	MaxPages int
}

// ClobClient is the REST client for the Polymarket CLOB (Central Limit
// Order Book) API. It provides the active-market listing and batched
// midpoint lookups; every fetch is best-effort and degrades to partial
// results rather than failing the run.
type ClobClient struct {
	baseURL       string
	httpClient    *http.Client
	midpointChunk int
	chunkDelay    time.Duration
	maxPages      int
	logger        *slog.Logger
}

// NewClobClient creates a new CLOB REST client. Zero config fields fall back
// to the documented defaults.
func NewClobClient(cfg ClobConfig, logger *slog.Logger) *ClobClient {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultTimeout
	}
	if cfg.MidpointChunkSize <= 0 {
		cfg.MidpointChunkSize = defaultMidpointChunk
	}
	if cfg.ChunkDelay <= 0 {
		cfg.ChunkDelay = defaultChunkDelay
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaultMaxPages
	}
	return &ClobClient{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:    &http.Client{Timeout: cfg.RequestTimeout},
		midpointChunk: cfg.MidpointChunkSize,
		chunkDelay:    cfg.ChunkDelay,
		maxPages:      cfg.MaxPages,
		logger:        logger.With(slog.String("component", "clob")),
	}
}

// ListActiveMarkets pages through the simplified-markets listing and returns
// every market flagged active and not closed. A request-level failure aborts
// pagination and yields whatever was accumulated so far; partial results are
// preferred over total failure.
func (c *ClobClient) ListActiveMarkets(ctx context.Context) []domain.Market {
	var markets []domain.Market
	cursor := ""

	for page := 0; page < c.maxPages; page++ {
		params := url.Values{}
		if cursor != "" {
			params.Set("next_cursor", cursor)
		}
		path := "/simplified-markets"
		if len(params) > 0 {
			path += "?" + params.Encode()
		}

		body, err := c.doGet(ctx, path)
		if err != nil {
			c.logger.WarnContext(ctx, "listing page failed, keeping partial results",
				slog.Int("page", page),
				slog.Int("markets_so_far", len(markets)),
				slog.String("error", err.Error()),
			)
			return markets
		}

		pageData, err := parseListingPage(body)
		if err != nil {
			c.logger.WarnContext(ctx, "listing page undecodable, keeping partial results",
				slog.Int("page", page),
				slog.String("error", err.Error()),
			)
			return markets
		}

		for _, raw := range pageData.entries {
			var entry apiListedMarket
			if err := json.Unmarshal(raw, &entry); err != nil {
				// Non-object entries are skipped, not fatal.
				continue
			}
			m := entry.ToDomainMarket()
			if m.Active && !m.Closed {
				markets = append(markets, m)
			}
		}

		// No markets and no continuation, or the sentinel cursor, ends
		// pagination.
		if pageData.nextCursor == "" || pageData.nextCursor == endCursor {
			return markets
		}
		cursor = pageData.nextCursor
	}

	c.logger.WarnContext(ctx, "listing pagination hit page cap",
		slog.Int("max_pages", c.maxPages),
		slog.Int("markets", len(markets)),
	)
	return markets
}

// GetMidpoints returns current midpoint prices for the given token IDs,
// keyed by token ID. Identifiers are processed in fixed-size chunks with a
// small delay between requests; each chunk first attempts the structured
// POST endpoint and falls back to the comma-joined GET form. A chunk that
// fails both ways contributes no entries. Requested identifiers missing
// from the result (illiquid or untraded tokens) are expected, not an error.
func (c *ClobClient) GetMidpoints(ctx context.Context, tokenIDs []string) map[string]float64 {
	midpoints := make(map[string]float64)

	for i := 0; i < len(tokenIDs); i += c.midpointChunk {
		if i > 0 {
			if err := sleepCtx(ctx, c.chunkDelay); err != nil {
				return midpoints
			}
		}

		chunk := tokenIDs[i:min(i+c.midpointChunk, len(tokenIDs))]

		prices, err := c.postMidpoints(ctx, chunk)
		if err != nil {
			c.logger.DebugContext(ctx, "midpoint POST failed, trying GET fallback",
				slog.Int("chunk_size", len(chunk)),
				slog.String("error", err.Error()),
			)
			prices, err = c.getMidpoints(ctx, chunk)
		}
		if err != nil {
			c.logger.WarnContext(ctx, "midpoint chunk dropped",
				slog.Int("chunk_size", len(chunk)),
				slog.String("error", err.Error()),
			)
			continue
		}

		for id, p := range prices {
			midpoints[id] = p
		}
	}

	return midpoints
}

// postMidpoints requests midpoints for one chunk via the structured POST
// endpoint (a list of {token_id} objects).
func (c *ClobClient) postMidpoints(ctx context.Context, tokenIDs []string) (map[string]float64, error) {
	type tokenParam struct {
		TokenID string `json:"token_id"`
	}
	params := make([]tokenParam, 0, len(tokenIDs))
	for _, id := range tokenIDs {
		params = append(params, tokenParam{TokenID: id})
	}

	payload, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal midpoint request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/midpoints", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	prices, err := decodeMidpointMap(body)
	if err != nil {
		return nil, err
	}
	return prices, nil
}

// getMidpoints is the simpler GET fallback: a comma-joined identifier list
// in the query string, truncated to the service's maximum supported count.
// List-shaped responses are treated as "no data".
func (c *ClobClient) getMidpoints(ctx context.Context, tokenIDs []string) (map[string]float64, error) {
	if len(tokenIDs) > maxGetMidpointIDs {
		tokenIDs = tokenIDs[:maxGetMidpointIDs]
	}

	params := url.Values{}
	params.Set("ids", strings.Join(tokenIDs, ","))

	body, err := c.doGet(ctx, "/midpoints?"+params.Encode())
	if err != nil {
		return nil, err
	}

	prices, err := decodeMidpointMap(body)
	if err != nil {
		if errors.Is(err, domain.ErrBadShape) {
			return map[string]float64{}, nil
		}
		return nil, err
	}
	return prices, nil
}

// decodeMidpointMap parses a token-ID-to-price mapping where prices arrive
// as numbers or numeric strings. Non-coercible entries are dropped silently,
// never propagated as zero. Valid JSON of the wrong shape yields
// domain.ErrBadShape.
func decodeMidpointMap(body []byte) (map[string]float64, error) {
	var raw map[string]flexFloat
	if err := json.Unmarshal(body, &raw); err != nil {
		if json.Valid(body) {
			return nil, domain.ErrBadShape
		}
		return nil, fmt.Errorf("decode midpoints: %w", err)
	}

	prices := make(map[string]float64, len(raw))
	for id, v := range raw {
		if p, ok := v.Float(); ok {
			prices[id] = p
		}
	}
	return prices, nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doGet sends an unauthenticated GET request and returns the raw body.
func (c *ClobClient) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req)
}

// do executes the request and reads the response body.
func (c *ClobClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

// checkHTTPStatus maps non-2xx status codes to appropriate domain errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}

// sleepCtx pauses for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
