package source

import (
	"fmt"
	"strconv"
	"time"

	"leadharvest/internal/model"
)

// shapeMatcher attempts one known response structure. Matchers are tried in
// priority order; the first structural match wins.
type shapeMatcher struct {
	name  string
	match func(any) ([]map[string]any, bool)
}

var shapeMatchers = []shapeMatcher{
	{"returnvalue.data", matchReturnValueData},
	{"data", matchData},
	{"jobs", matchKey("jobs")},
	{"results", matchKey("results")},
	{"bare array", matchBareArray},
}

// extractRecords unwraps the provider response into a list of raw records.
// A response matching none of the known shapes yields model.ErrUnknownShape.
func extractRecords(resp any) ([]map[string]any, error) {
	for _, m := range shapeMatchers {
		if records, ok := m.match(resp); ok {
			return records, nil
		}
	}

	// A job-id-only response reaching this point means the caller's polling
	// already ran; treat it as an empty page rather than an unknown shape.
	if obj, ok := resp.(map[string]any); ok {
		if _, hasID := obj["jobId"]; hasID {
			return nil, nil
		}
	}

	return nil, fmt.Errorf("%w: %T", model.ErrUnknownShape, resp)
}

func matchReturnValueData(resp any) ([]map[string]any, bool) {
	obj, ok := resp.(map[string]any)
	if !ok {
		return nil, false
	}
	rv, ok := obj["returnvalue"].(map[string]any)
	if !ok {
		return nil, false
	}
	list, ok := rv["data"].([]any)
	if !ok {
		return nil, false
	}
	return toRecords(list), true
}

// matchData handles both a direct data array and an enveloped object with a
// jobs or results list inside.
func matchData(resp any) ([]map[string]any, bool) {
	obj, ok := resp.(map[string]any)
	if !ok {
		return nil, false
	}
	switch data := obj["data"].(type) {
	case []any:
		return toRecords(data), true
	case map[string]any:
		if list, ok := data["jobs"].([]any); ok {
			return toRecords(list), true
		}
		if list, ok := data["results"].([]any); ok {
			return toRecords(list), true
		}
	}
	return nil, false
}

func matchKey(key string) func(any) ([]map[string]any, bool) {
	return func(resp any) ([]map[string]any, bool) {
		obj, ok := resp.(map[string]any)
		if !ok {
			return nil, false
		}
		list, ok := obj[key].([]any)
		if !ok {
			return nil, false
		}
		return toRecords(list), true
	}
}

func matchBareArray(resp any) ([]map[string]any, bool) {
	list, ok := resp.([]any)
	if !ok {
		return nil, false
	}
	return toRecords(list), true
}

func toRecords(list []any) []map[string]any {
	records := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if rec, ok := item.(map[string]any); ok {
			records = append(records, rec)
		}
	}
	return records
}

// parseRetryAfter parses the Retry-After header value into a duration.
// Supports seconds format (e.g. "120"). Returns zero if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
