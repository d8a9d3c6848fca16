package usecase

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"ats-scout/internal/infrastructure/serper"
	"ats-scout/internal/pkg/logging"
)

type ScrapeCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

type PageScraper interface {
	Scrape(ctx context.Context, url string) (serper.ScrapeResponse, error)
}

type PostingContent struct {
	Markdown string `json:"markdown"`
	Text     string `json:"text"`
}

// PostingScraper fetches the content of one posting page, cached by URL.
type PostingScraper struct {
	client PageScraper
	cache  ScrapeCache
	ttl    time.Duration
	log    *logging.Logger
}

func NewPostingScraper(client PageScraper, cache ScrapeCache, ttl time.Duration, log *logging.Logger) *PostingScraper {
	if log == nil {
		log = logging.NewNop()
	}
	return &PostingScraper{client: client, cache: cache, ttl: ttl, log: log}
}

func ScrapeCacheKey(url string) string {
	sum := sha1.Sum([]byte(url))
	return "scrape:" + hex.EncodeToString(sum[:])
}

func (u *PostingScraper) Scrape(ctx context.Context, url string) (PostingContent, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return PostingContent{}, fmt.Errorf("%w: url is required", ErrInvalidInput)
	}

	key := ScrapeCacheKey(url)
	if u.cache != nil {
		var cached PostingContent
		ok, err := u.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			u.log.Warn("scrape cache read failed", "key", key, "err", err)
		}
		if ok {
			return cached, nil
		}
	}

	resp, err := u.client.Scrape(ctx, url)
	if err != nil {
		u.log.Error("serper scrape failed", "url", url, "err", err)
		return PostingContent{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	out := PostingContent{Markdown: resp.Markdown, Text: resp.Text}

	if u.cache != nil {
		if err := u.cache.SetJSON(ctx, key, out, u.ttl); err != nil {
			u.log.Warn("scrape cache write failed", "key", key, "err", err)
		}
	}
	return out, nil
}
