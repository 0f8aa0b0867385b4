package relay

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"babylog/internal/config"
	"babylog/internal/redis"
)

const sheetCacheKey = "babylog:sheet:csv"

// SheetProxy fetches the published spreadsheet CSV so the dashboard does not
// hit Google directly. When a Redis client is provided the CSV is cached
// with a short TTL; cache trouble degrades to a direct fetch.
type SheetProxy struct {
	httpClient *http.Client
	url        string
	cache      *redis.Client
	cacheTTL   time.Duration
}

func NewSheetProxy(cfg config.SheetConfig, cache *redis.Client) *SheetProxy {
	return &SheetProxy{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		url:        cfg.CSVURL,
		cache:      cache,
		cacheTTL:   time.Duration(cfg.CacheTTLSec) * time.Second,
	}
}

// Fetch returns the raw CSV bytes.
func (p *SheetProxy) Fetch(ctx context.Context) ([]byte, error) {
	if p.url == "" {
		return nil, fmt.Errorf("sheet csv url not configured")
	}
	if p.cache != nil {
		cached, err := p.cache.Get(ctx, sheetCacheKey)
		if err == nil {
			return []byte(cached), nil
		}
		if err != redis.ErrCacheMiss {
			log.Printf("sheet cache read failed: %v", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build sheet request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch sheet csv: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("sheet csv returned http %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read sheet csv: %w", err)
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, sheetCacheKey, data, p.cacheTTL); err != nil {
			log.Printf("sheet cache write failed: %v", err)
		}
	}
	return data, nil
}
