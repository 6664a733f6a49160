// Package schema infers a flat column schema from a sample of raw provider
// records. The descriptor is consumed only by storage DDL generation.
package schema

import (
	"log/slog"
	"sort"
	"time"
)

// FieldType is the inferred semantic type of a flattened field.
type FieldType string

const (
	TypeText      FieldType = "text"
	TypeNumeric   FieldType = "numeric"
	TypeBoolean   FieldType = "boolean"
	TypeTimestamp FieldType = "timestamp"
	TypeJSON      FieldType = "json"
)

// Descriptor maps flattened field paths (dot-separated for nested origin) to
// inferred types.
type Descriptor map[string]FieldType

// Fields returns the descriptor's field paths in sorted order.
func (d Descriptor) Fields() []string {
	fields := make([]string, 0, len(d))
	for f := range d {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// CoreFields are always present in the final descriptor regardless of what
// the sample shows.
func CoreFields() Descriptor {
	return Descriptor{
		"title":       TypeText,
		"company":     TypeText,
		"location":    TypeText,
		"job_type":    TypeText,
		"seniority":   TypeText,
		"remote":      TypeBoolean,
		"posted_at":   TypeTimestamp,
		"job_url":     TypeText,
		"salary_text": TypeText,
		"description": TypeText,
	}
}

// timestampLayouts are the date/time patterns tried during inference. Go's
// parser accepts fractional seconds after any seconds field, so the .%f
// variants collapse into their base layouts.
var timestampLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
	"02/01/2006",
}

const (
	timestampSampleCap = 10  // values checked per field
	timestampCutoff    = 0.7 // fraction that must parse
)

// Discoverer infers a Descriptor from a bounded sample of raw records.
type Discoverer struct {
	sampleSize int
	logger     *slog.Logger
}

// NewDiscoverer creates a discoverer that analyzes at most sampleSize records.
func NewDiscoverer(sampleSize int, logger *slog.Logger) *Discoverer {
	if sampleSize <= 0 {
		sampleSize = 50
	}
	return &Discoverer{sampleSize: sampleSize, logger: logger}
}

// Infer builds the full flattened field set across the sample and classifies
// each field from its non-null values.
func (d *Discoverer) Infer(records []map[string]any) Descriptor {
	if len(records) == 0 {
		d.logger.Warn("no records provided for schema discovery")
		return Descriptor{}
	}

	sample := records
	if len(sample) > d.sampleSize {
		sample = sample[:d.sampleSize]
	}
	d.logger.Info("analyzing sample for schema discovery", "records", len(sample))

	fieldSet := map[string]struct{}{}
	for _, rec := range sample {
		for _, path := range flattenPaths(rec) {
			fieldSet[path] = struct{}{}
		}
	}

	desc := make(Descriptor, len(fieldSet))
	for path := range fieldSet {
		desc[path] = classify(path, sample)
	}

	d.logger.Info("schema discovered", "fields", len(desc))
	return desc
}

// Merge returns a copy of other overlaid with d's entries. Used to apply
// discovered fields on top of the core field set.
func (d Descriptor) Merge(base Descriptor) Descriptor {
	merged := make(Descriptor, len(base)+len(d))
	for f, t := range base {
		merged[f] = t
	}
	for f, t := range d {
		merged[f] = t
	}
	return merged
}

type flattenFrame struct {
	prefix string
	obj    map[string]any
}

// flattenPaths expands nested objects into dot-separated paths using an
// explicit worklist. Arrays are kept as single fields, never expanded.
func flattenPaths(record map[string]any) []string {
	var paths []string
	work := []flattenFrame{{prefix: "", obj: record}}

	for len(work) > 0 {
		frame := work[len(work)-1]
		work = work[:len(work)-1]

		for key, value := range frame.obj {
			path := key
			if frame.prefix != "" {
				path = frame.prefix + "." + key
			}

			if nested, ok := value.(map[string]any); ok && len(nested) > 0 {
				work = append(work, flattenFrame{prefix: path, obj: nested})
				continue
			}
			paths = append(paths, path)
		}
	}

	return paths
}

// classify infers a field's type from its non-null values across the sample.
// Precedence: json > boolean > numeric > timestamp > text. A field with no
// values defaults to text.
func classify(path string, sample []map[string]any) FieldType {
	var values []any
	for _, rec := range sample {
		if v := valueAt(rec, path); v != nil {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return TypeText
	}

	allBool, allNumeric, allString := true, true, true
	for _, v := range values {
		switch v.(type) {
		case map[string]any, []any:
			return TypeJSON
		case bool:
			allNumeric, allString = false, false
		case float64, int, int64:
			allBool, allString = false, false
		case string:
			allBool, allNumeric = false, false
		default:
			allBool, allNumeric, allString = false, false, false
		}
	}

	switch {
	case allBool:
		return TypeBoolean
	case allNumeric:
		return TypeNumeric
	case allString && looksLikeTimestamp(values):
		return TypeTimestamp
	default:
		return TypeText
	}
}

// valueAt navigates a dot-separated path through nested maps.
func valueAt(record map[string]any, path string) any {
	var current any = record
	start := 0
	for i := 0; i <= len(path); i++ {
		if i < len(path) && path[i] != '.' {
			continue
		}
		key := path[start:i]
		start = i + 1

		obj, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = obj[key]
		if current == nil {
			return nil
		}
	}
	return current
}

// looksLikeTimestamp checks up to the first timestampSampleCap string values
// against the fixed layout list and applies the cutoff ratio.
func looksLikeTimestamp(values []any) bool {
	total := len(values)
	if total > timestampSampleCap {
		total = timestampSampleCap
	}
	if total == 0 {
		return false
	}

	parsed := 0
	for _, v := range values[:total] {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if parsesAsTimestamp(s) {
			parsed++
		}
	}

	return float64(parsed)/float64(total) >= timestampCutoff
}

func parsesAsTimestamp(s string) bool {
	for _, layout := range timestampLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
