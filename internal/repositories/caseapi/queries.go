package caseapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Query describes one request against one collection.
type Query struct {
	Collection string
	Filter     string
	Select     string
	Expand     string
	OrderBy    string
	Top        int
}

// Record is one backend record with its selected fields.
type Record map[string]interface{}

// Str returns a string field, or "" when absent or not a string.
func (r Record) Str(field string) string {
	if v, ok := r[field].(string); ok {
		return v
	}
	return ""
}

// Num returns a numeric field, or 0 when absent or not numeric.
func (r Record) Num(field string) float64 {
	switch v := r[field].(type) {
	case float64:
		return v
	case json.Number:
		f, _ := v.Float64()
		return f
	}
	return 0
}

// Rel returns an expanded relation as a nested record.
func (r Record) Rel(field string) Record {
	if v, ok := r[field].(map[string]interface{}); ok {
		return Record(v)
	}
	return nil
}

// IsAbandonedCall encodes the domain rule that a zero-duration phone call
// record represents an unanswered/abandoned call.
func IsAbandonedCall(call Record) bool {
	return call.Num("actualdurationminutes") == 0
}

type odataResponse struct {
	Value    []Record `json:"value"`
	Count    *int64   `json:"@odata.count"`
	NextLink string   `json:"@odata.nextLink"`
}

// Fetch executes a query and returns the matching records. Server-side
// paging is followed transparently, so callers see every page.
func (c *Client) Fetch(ctx context.Context, q Query) ([]Record, error) {
	records := make([]Record, 0)
	next := c.buildURL(q)

	for next != "" {
		page, err := c.getPage(ctx, next)
		if err != nil {
			return nil, err
		}
		records = append(records, page.Value...)
		next = page.NextLink
	}

	return records, nil
}

// Count returns the number of records matching filter in collection. The
// policy is try-native-count first: issue the query with $count=true and
// read the annotation. Backends reject that combination for some filter
// shapes, in which case the count degrades to a $select-only fetch capped
// at the page limit, measured by length. Both paths agree for any result
// set under the page cap.
//
// keyField is the minimal field selected by the fallback fetch.
func (c *Client) Count(ctx context.Context, collection, filter, keyField string) (int, error) {
	n, err := c.nativeCount(ctx, collection, filter)
	if err == nil {
		return n, nil
	}

	records, ferr := c.Fetch(ctx, Query{
		Collection: collection,
		Filter:     filter,
		Select:     keyField,
		Top:        c.config.PageLimit,
	})
	if ferr != nil {
		// Surface the original count error; the fallback failing too means
		// the query itself is bad.
		return 0, fmt.Errorf("count failed (%v), fallback fetch failed: %w", err, ferr)
	}

	return len(records), nil
}

func (c *Client) nativeCount(ctx context.Context, collection, filter string) (int, error) {
	params := url.Values{}
	if filter != "" {
		params.Set("$filter", filter)
	}
	params.Set("$count", "true")
	params.Set("$top", "1")

	page, err := c.getPage(ctx, c.config.BaseURL+"/"+collection+"?"+params.Encode())
	if err != nil {
		return 0, err
	}
	if page.Count == nil {
		return 0, fmt.Errorf("backend returned no @odata.count for %s", collection)
	}
	return int(*page.Count), nil
}

func (c *Client) buildURL(q Query) string {
	params := url.Values{}
	if q.Filter != "" {
		params.Set("$filter", q.Filter)
	}
	if q.Select != "" {
		params.Set("$select", q.Select)
	}
	if q.Expand != "" {
		params.Set("$expand", q.Expand)
	}
	if q.OrderBy != "" {
		params.Set("$orderby", q.OrderBy)
	}
	if q.Top > 0 {
		params.Set("$top", strconv.Itoa(q.Top))
	}
	return c.config.BaseURL + "/" + q.Collection + "?" + params.Encode()
}

// getPage performs one GET with bearer auth and the retry policy.
func (c *Client) getPage(ctx context.Context, rawURL string) (*odataResponse, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.config.RetryBackoff * time.Duration(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")

		res, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(res.Body)
		_ = res.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if res.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("backend returned %s: %s", res.Status, truncate(string(body), 256))
			if retryable(res.StatusCode) {
				continue
			}
			return nil, lastErr
		}

		var page odataResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("decoding backend response: %w", err)
		}
		return &page, nil
	}

	return nil, lastErr
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
