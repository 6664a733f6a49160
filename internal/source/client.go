package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"leadharvest/internal/config"
	"leadharvest/internal/model"
)

const (
	maxAttempts         = 5  // attempts per page request
	maxPolls            = 10 // poll attempts per async job
	defaultPollInterval = 3 * time.Second
)

// Client fetches raw postings from the listings provider, one page per
// request, with bounded retry and an async-job polling sub-protocol.
type Client struct {
	cfg        config.SourceConfig
	search     config.SearchConfig
	httpClient *http.Client
	logger     *slog.Logger

	// Overridable in tests to keep backoff and polling fast.
	backoffUnit  time.Duration
	pollInterval time.Duration
}

// FetchResult is the outcome of one paginated fetch. SoftErrors counts pages
// that yielded no data after retries or failed shape matching; they never
// abort the fetch but callers report them.
type FetchResult struct {
	Records    []map[string]any
	Pages      int
	SoftErrors int
}

// NewClient creates a source client using the shared HTTP client.
func NewClient(cfg config.SourceConfig, search config.SearchConfig, httpClient *http.Client, logger *slog.Logger) *Client {
	return &Client{
		cfg:          cfg,
		search:       search,
		httpClient:   httpClient,
		logger:       logger,
		backoffUnit:  time.Second,
		pollInterval: defaultPollInterval,
	}
}

// Fetch retrieves up to maxPages pages of postings for the given search
// window. Pagination stops on the first of: a page request exhausting its
// retries, a page with zero records, a short page, or the page budget.
func (c *Client) Fetch(ctx context.Context, query, location string, fromDays, maxPages int) (*FetchResult, error) {
	if maxPages <= 0 {
		maxPages = c.cfg.MaxPages
	}

	res := &FetchResult{}

	c.logger.Info("starting fetch",
		"query", query,
		"location", location,
		"from_days", fromDays,
		"max_pages", maxPages,
	)

	for pageNum := 0; pageNum < maxPages; pageNum++ {
		page := c.cfg.PageStart + pageNum
		payload := c.pagePayload(query, location, fromDays, page)

		result, err := c.request(ctx, c.cfg.BaseURL+c.cfg.JobPath, payload)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return res, err
			}
			c.logger.Warn("page request failed, stopping pagination", "page", page, "error", err)
			res.SoftErrors++
			break
		}

		// Async job: the provider returned an id instead of inline data.
		if obj, ok := result.(map[string]any); ok {
			if jobID, hasID := obj["jobId"].(string); hasID && obj["data"] == nil {
				c.logger.Info("received job id, polling for results", "job_id", jobID)
				result, err = c.pollJob(ctx, jobID)
				if err != nil {
					c.logger.Warn("polling failed, stopping pagination", "page", page, "error", err)
					res.SoftErrors++
					break
				}
			}
		}

		records, err := extractRecords(result)
		if err != nil {
			c.logger.Warn("could not extract records", "page", page, "error", err)
			res.SoftErrors++
			break
		}

		res.Pages++

		if len(records) == 0 {
			c.logger.Info("page returned no records, stopping pagination", "page", page)
			break
		}

		c.logger.Info("page fetched", "page", page, "records", len(records))
		res.Records = append(res.Records, records...)

		if len(records) < c.cfg.PageSize {
			c.logger.Info("short page, assuming last page",
				"page", page,
				"records", len(records),
				"page_size", c.cfg.PageSize,
			)
			break
		}
	}

	c.logger.Info("fetch complete", "records", len(res.Records), "pages", res.Pages, "soft_errors", res.SoftErrors)
	return res, nil
}

// pagePayload builds the provider's scraper payload for one page.
func (c *Client) pagePayload(query, location string, fromDays, page int) map[string]any {
	return map[string]any{
		"scraper": map[string]any{
			"maxRows":  c.cfg.PageSize,
			"query":    query,
			"location": location,
			"jobType":  c.search.JobType,
			"radius":   c.search.Radius,
			"sort":     c.search.Sort,
			"fromDays": fmt.Sprintf("%d", fromDays),
			"country":  c.search.Country,
			"page":     page,
		},
	}
}

// request POSTs payload to url with bounded retry. Transient failures (429,
// 5xx, transport errors) back off 2^attempt seconds plus jitter; exhausting
// attempts returns the last error.
func (c *Client) request(ctx context.Context, url string, payload map[string]any) (any, error) {
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := c.backoffDelay(attempt-1, lastErr)
			c.logger.Warn("retrying request",
				"attempt", attempt+1,
				"max_attempts", maxAttempts,
				"delay", delay,
				"error", lastErr,
			)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("retry cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		result, err := c.doOnce(ctx, url, payload)
		if err == nil {
			return result, nil
		}
		if !isRetryable(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxAttempts, lastErr)
}

func (c *Client) doOnce(ctx context.Context, url string, payload map[string]any) (any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-RapidAPI-Key", c.cfg.APIKey)
	req.Header.Set("X-RapidAPI-Host", c.cfg.APIHost)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("%s", strings.TrimSpace(string(respBody))),
		}
	}

	var result any
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return result, nil
}

// pollJob polls the status endpoint until the job completes or the poll
// budget is exhausted.
func (c *Client) pollJob(ctx context.Context, jobID string) (any, error) {
	url := c.cfg.BaseURL + strings.ReplaceAll(c.cfg.PollPath, "{jobId}", jobID)

	for poll := 0; poll < maxPolls; poll++ {
		c.logger.Debug("polling job", "job_id", jobID, "attempt", poll+1, "max_polls", maxPolls)

		result, err := c.request(ctx, url, map[string]any{})
		if err == nil {
			if obj, ok := result.(map[string]any); ok && obj["status"] == "completed" {
				c.logger.Info("job completed", "job_id", jobID)
				return result, nil
			}
		} else if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}

		if poll < maxPolls-1 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("poll cancelled: %w", ctx.Err())
			case <-time.After(c.pollInterval):
			}
		}
	}

	return nil, fmt.Errorf("job %s timed out after %d polls", jobID, maxPolls)
}

// backoffDelay is 2^attempt backoff units plus up to one unit of jitter. A
// Retry-After carried by the error takes precedence over the computed delay.
func (c *Client) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}
	delay := c.backoffUnit << attempt
	jitter := time.Duration(rand.Float64() * float64(c.backoffUnit))
	return delay + jitter
}

// isRetryable reports whether the error is worth another attempt: rate
// limits, server errors, and transport failures are; other HTTP errors and
// cancellation are not.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.StatusCode == http.StatusTooManyRequests {
			return true
		}
		if httpErr.StatusCode >= 500 {
			return true
		}
		return false
	}

	return true
}
