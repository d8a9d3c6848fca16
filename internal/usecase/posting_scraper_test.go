package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"ats-scout/internal/infrastructure/serper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	data map[string][]byte
	ttls map[string]time.Duration
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *memoryCache) GetJSON(_ context.Context, key string, out any) (bool, error) {
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, out)
}

func (c *memoryCache) SetJSON(_ context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = b
	c.ttls[key] = ttl
	return nil
}

type fakePageScraper struct {
	calls int
	resp  serper.ScrapeResponse
	err   error
}

func (f *fakePageScraper) Scrape(context.Context, string) (serper.ScrapeResponse, error) {
	f.calls++
	return f.resp, f.err
}

func TestScrapeCacheKey(t *testing.T) {
	assert.Equal(t, "scrape:a9993e364706816aba3e25717850c26c9cd0d89d", ScrapeCacheKey("abc"))
}

func TestPostingScraper_CachesResult(t *testing.T) {
	client := &fakePageScraper{resp: serper.ScrapeResponse{Markdown: "# Job", Text: "Job"}}
	cache := newMemoryCache()
	uc := NewPostingScraper(client, cache, time.Minute, nil)

	for i := 0; i < 2; i++ {
		got, err := uc.Scrape(context.Background(), " https://jobs.lever.co/a/1 ")
		require.NoError(t, err)
		assert.Equal(t, PostingContent{Markdown: "# Job", Text: "Job"}, got)
	}
	assert.Equal(t, 1, client.calls)
	assert.Equal(t, time.Minute, cache.ttls[ScrapeCacheKey("https://jobs.lever.co/a/1")])
}

func TestPostingScraper_EmptyURL(t *testing.T) {
	client := &fakePageScraper{}
	_, err := NewPostingScraper(client, nil, 0, nil).Scrape(context.Background(), "  ")
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Zero(t, client.calls)
}

func TestPostingScraper_UpstreamFailure(t *testing.T) {
	client := &fakePageScraper{err: errors.New("serper: API error (500): oops")}
	_, err := NewPostingScraper(client, newMemoryCache(), 0, nil).Scrape(context.Background(), "https://x")
	assert.True(t, errors.Is(err, ErrUpstream))
}
