// Package precache asks the Facebook Graph API to scrape the share pages so
// the first real share already shows the right preview.
package precache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultGraphURL is the Graph API endpoint.
const DefaultGraphURL = "https://graph.facebook.com/"

// Options configures a warming run.
type Options struct {
	GraphURL    string
	AccessToken string
	// BatchSize URLs are scraped concurrently, then the run pauses.
	BatchSize int
	Pause     time.Duration
}

// Result is the outcome for one URL.
type Result struct {
	URL    string
	Status int
	Err    error
}

// OK reports whether the scrape succeeded.
func (r Result) OK() bool {
	return r.Err == nil && r.Status == http.StatusOK
}

// Summary is the outcome of a run, in input order.
type Summary struct {
	Results   []Result
	Succeeded int
}

// Warmer sends scrape requests.
type Warmer struct {
	client *http.Client
	opts   Options
}

// New returns a warmer. A nil client uses http.DefaultClient.
func New(client *http.Client, opts Options) *Warmer {
	if client == nil {
		client = http.DefaultClient
	}
	if opts.GraphURL == "" {
		opts.GraphURL = DefaultGraphURL
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = 3
	}
	return &Warmer{client: client, opts: opts}
}

// Warm scrapes every URL in batches. Each batch waits for the previous one
// to finish and then for the configured pause. It stops early when ctx is
// cancelled and returns the results gathered so far.
func (w *Warmer) Warm(ctx context.Context, urls []string) (*Summary, error) {
	sum := &Summary{Results: make([]Result, 0, len(urls))}
	for start := 0; start < len(urls); start += w.opts.BatchSize {
		if start > 0 {
			if err := w.pause(ctx); err != nil {
				return sum, err
			}
		}
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		end := min(start+w.opts.BatchSize, len(urls))
		for _, res := range w.batch(ctx, urls[start:end]) {
			if res.OK() {
				sum.Succeeded++
				slog.Info("share page scraped", "url", res.URL)
			} else {
				slog.Warn("share page scrape failed", "url", res.URL, "status", res.Status, "error", res.Err)
			}
			sum.Results = append(sum.Results, res)
		}
	}
	slog.Info("share cache warmed", "succeeded", sum.Succeeded, "total", len(urls))
	return sum, nil
}

// pause blocks for the configured pause, measured from now. The limiter
// starts drained so its next token is one full interval away.
func (w *Warmer) pause(ctx context.Context) error {
	if w.opts.Pause <= 0 {
		return nil
	}
	limiter := rate.NewLimiter(rate.Every(w.opts.Pause), 1)
	limiter.Allow()
	return limiter.Wait(ctx)
}

func (w *Warmer) batch(ctx context.Context, urls []string) []Result {
	results := make([]Result, len(urls))
	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			results[i] = w.scrape(ctx, u)
		}(i, u)
	}
	wg.Wait()
	return results
}

func (w *Warmer) scrape(ctx context.Context, pageURL string) Result {
	res := Result{URL: pageURL}

	endpoint, err := url.Parse(w.opts.GraphURL)
	if err != nil {
		res.Err = fmt.Errorf("parsing graph url: %w", err)
		return res
	}
	q := endpoint.Query()
	q.Set("id", pageURL)
	q.Set("scrape", "true")
	if w.opts.AccessToken != "" {
		q.Set("access_token", w.opts.AccessToken)
	}
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), nil)
	if err != nil {
		res.Err = fmt.Errorf("creating request: %w", err)
		return res
	}
	resp, err := w.client.Do(req)
	if err != nil {
		res.Err = fmt.Errorf("scraping %s: %w", pageURL, err)
		return res
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	res.Status = resp.StatusCode
	return res
}
