// Package cocktaildb fetches drink records from TheCocktailDB and refreshes
// the local drink cache.
package cocktaildb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/homebardev/homebar/internal/drinks"
)

const DefaultBaseURL = "https://www.thecocktaildb.com/api/json/v1/1"

// Letters are the first-character buckets the catalogue is listed by.
const Letters = "abcdefghijklmnopqrstuvwxyz0123456789"

// httpClient uses HTTP/1.1 explicitly to avoid EOF issues with Cloudflare/CDN endpoints.
var httpClient = &http.Client{
	Timeout: 15 * time.Second,
	Transport: &http.Transport{
		ForceAttemptHTTP2: false,
	},
}

var backoffs = []time.Duration{0, 500 * time.Millisecond, 1 * time.Second, 2 * time.Second}

type Options struct {
	BaseURL           string
	Concurrency       int
	RequestsPerSecond float64
	Timeout           time.Duration
	Logger            *zap.Logger
	// OnLetter is called after each letter bucket is fetched. It may be
	// called from several goroutines at once.
	OnLetter func(letter string, drinks int)
}

type Client struct {
	baseURL     string
	http        *http.Client
	limiter     *rate.Limiter
	concurrency int
	logger      *zap.Logger
	onLetter    func(string, int)
}

func NewClient(opts Options) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		http:        httpClient,
		concurrency: opts.Concurrency,
		logger:      opts.Logger,
		onLetter:    opts.OnLetter,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.concurrency < 1 {
		c.concurrency = 1
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if opts.Timeout > 0 {
		c.http = &http.Client{Timeout: opts.Timeout, Transport: httpClient.Transport}
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	return c
}

type searchResponse struct {
	Drinks []map[string]any `json:"drinks"`
}

// SearchByLetter lists the drinks whose name starts with the given character.
func (c *Client) SearchByLetter(ctx context.Context, letter string) ([]drinks.Entry, error) {
	u := fmt.Sprintf("%s/search.php?f=%s", c.baseURL, url.QueryEscape(letter))
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", letter, err)
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse search %q: %w", letter, err)
	}

	entries := make([]drinks.Entry, 0, len(result.Drinks))
	for _, fields := range result.Drinks {
		id, _ := fields["idDrink"].(string)
		if id == "" {
			continue
		}
		entries = append(entries, drinks.Entry{ID: id, Fields: fields})
	}
	return entries, nil
}

// FetchAll queries every letter bucket with bounded concurrency and returns
// the records in bucket order, each id once.
func (c *Client) FetchAll(ctx context.Context) ([]drinks.Entry, error) {
	buckets := make([][]drinks.Entry, len(Letters))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, r := range Letters {
		i, letter := i, string(r)
		g.Go(func() error {
			entries, err := c.SearchByLetter(ctx, letter)
			if err != nil {
				return err
			}
			buckets[i] = entries
			c.logger.Debug("fetched letter", zap.String("letter", letter), zap.Int("drinks", len(entries)))
			if c.onLetter != nil {
				c.onLetter(letter, len(entries))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var all []drinks.Entry
	for _, bucket := range buckets {
		for _, e := range bucket {
			if seen[e.ID] {
				continue
			}
			seen[e.ID] = true
			all = append(all, e)
		}
	}
	return all, nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	var resp *http.Response
	for i, d := range backoffs {
		if d > 0 {
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err = c.http.Do(req)
		if err != nil {
			if i < len(backoffs)-1 && ctx.Err() == nil {
				c.logger.Debug("retrying request", zap.String("url", rawURL), zap.Error(err))
				continue
			}
			return nil, err
		}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			_ = resp.Body.Close()
			if i < len(backoffs)-1 {
				c.logger.Debug("retrying request", zap.String("url", rawURL), zap.Int("status", resp.StatusCode))
				continue
			}
			return nil, fmt.Errorf("server error: %s", resp.Status)
		}
		break
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
