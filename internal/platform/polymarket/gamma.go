package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/driesv/contrascan/internal/domain"
)

const defaultMetadataChunk = 40

// GammaConfig holds the knobs for the Gamma REST client.
type GammaConfig struct {
	// BaseURL is the Gamma API root, e.g. "https://gamma-api.polymarket.com".
	BaseURL string
	// RequestTimeout bounds each individual HTTP request.
	RequestTimeout time.Duration
	// MetadataChunkSize is the number of market IDs per metadata request.
	MetadataChunkSize int
	// ChunkDelay is the courtesy pause between successive chunk requests.
	ChunkDelay time.Duration
}

// GammaClient is the REST client for the Polymarket Gamma API, which
// provides per-market liquidity, volume, and display metadata.
type GammaClient struct {
	baseURL       string
	httpClient    *http.Client
	metadataChunk int
	chunkDelay    time.Duration
	logger        *slog.Logger
}

// NewGammaClient creates a new Gamma API client. Zero config fields fall
// back to the documented defaults.
func NewGammaClient(cfg GammaConfig, logger *slog.Logger) *GammaClient {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultTimeout
	}
	if cfg.MetadataChunkSize <= 0 {
		cfg.MetadataChunkSize = defaultMetadataChunk
	}
	if cfg.ChunkDelay <= 0 {
		cfg.ChunkDelay = defaultChunkDelay
	}
	return &GammaClient{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:    &http.Client{Timeout: cfg.RequestTimeout},
		metadataChunk: cfg.MetadataChunkSize,
		chunkDelay:    cfg.ChunkDelay,
		logger:        logger.With(slog.String("component", "gamma")),
	}
}

// GetMetadata returns liquidity/volume/slug metadata for the given market
// IDs, keyed by the shared condition ID. IDs are requested in fixed-size
// chunks, each filtered server-side to active, not-closed markets to
// minimise stale joins. A chunk-level failure is logged and skipped; it
// never aborts the remaining chunks.
func (g *GammaClient) GetMetadata(ctx context.Context, marketIDs []string) map[string]domain.MarketMetadata {
	metadata := make(map[string]domain.MarketMetadata)

	for i := 0; i < len(marketIDs); i += g.metadataChunk {
		if i > 0 {
			if err := sleepCtx(ctx, g.chunkDelay); err != nil {
				return metadata
			}
		}

		chunk := marketIDs[i:min(i+g.metadataChunk, len(marketIDs))]

		entries, err := g.fetchChunk(ctx, chunk)
		if err != nil {
			g.logger.WarnContext(ctx, "metadata chunk dropped",
				slog.Int("chunk_size", len(chunk)),
				slog.String("error", err.Error()),
			)
			continue
		}

		for j := range entries {
			key := entries[j].Key()
			if key == "" {
				continue
			}
			metadata[key] = entries[j].ToMetadata()
		}
	}

	return metadata
}

// fetchChunk requests one chunk of market metadata. The market IDs are sent
// as repeated condition_ids query parameters alongside active/closed
// filters.
func (g *GammaClient) fetchChunk(ctx context.Context, marketIDs []string) ([]apiGammaMarket, error) {
	params := url.Values{}
	for _, id := range marketIDs {
		params.Add("condition_ids", id)
	}
	params.Set("active", "true")
	params.Set("closed", "false")

	body, err := g.doGet(ctx, "/markets?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var entries []apiGammaMarket
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return entries, nil
}

// doGet sends an unauthenticated GET request to the Gamma API.
func (g *GammaClient) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
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
