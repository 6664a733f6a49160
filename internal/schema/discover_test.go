package schema

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInfer_ClassifiesScalarTypes(t *testing.T) {
	records := []map[string]any{
		{
			"title":    "Welder",
			"salary":   55000.0,
			"remote":   false,
			"postedAt": "2025-01-02T15:04:05Z",
			"benefits": []any{"dental", "vision"},
		},
		{
			"title":    "Machine Operator",
			"salary":   48000.0,
			"remote":   true,
			"postedAt": "2025-01-03T09:00:00Z",
			"benefits": []any{},
		},
	}

	desc := NewDiscoverer(10, discardLogger()).Infer(records)

	want := map[string]FieldType{
		"title":    TypeText,
		"salary":   TypeNumeric,
		"remote":   TypeBoolean,
		"postedAt": TypeTimestamp,
		"benefits": TypeJSON,
	}
	for field, typ := range want {
		if desc[field] != typ {
			t.Errorf("field %q: expected %s, got %s", field, typ, desc[field])
		}
	}
}

func TestInfer_FlattensNestedObjects(t *testing.T) {
	records := []map[string]any{
		{
			"company": map[string]any{
				"name":   "Acme Corp",
				"rating": map[string]any{"score": 4.2},
			},
		},
	}

	desc := NewDiscoverer(10, discardLogger()).Infer(records)

	if desc["company.name"] != TypeText {
		t.Errorf("expected company.name to be text, got %s", desc["company.name"])
	}
	if desc["company.rating.score"] != TypeNumeric {
		t.Errorf("expected company.rating.score to be numeric, got %s", desc["company.rating.score"])
	}
	if _, ok := desc["company"]; ok {
		t.Error("expanded parent object should not appear as a field")
	}
}

func TestInfer_TimestampCutoff(t *testing.T) {
	// 8 of 10 values parse: at or above the cutoff, so the field is a
	// timestamp. 6 of 10 is below it.
	makeRecords := func(parseable int) []map[string]any {
		records := make([]map[string]any, 10)
		for i := range records {
			v := "not a date"
			if i < parseable {
				v = fmt.Sprintf("2025-01-%02d", i+1)
			}
			records[i] = map[string]any{"when": v}
		}
		return records
	}

	d := NewDiscoverer(10, discardLogger())

	if got := d.Infer(makeRecords(8))["when"]; got != TypeTimestamp {
		t.Errorf("8/10 parseable: expected timestamp, got %s", got)
	}
	if got := d.Infer(makeRecords(7))["when"]; got != TypeTimestamp {
		t.Errorf("7/10 parseable: expected timestamp (cutoff is inclusive), got %s", got)
	}
	if got := d.Infer(makeRecords(6))["when"]; got != TypeText {
		t.Errorf("6/10 parseable: expected text, got %s", got)
	}
}

func TestInfer_MixedScalarsFallBackToText(t *testing.T) {
	records := []map[string]any{
		{"code": "A-1"},
		{"code": 42.0},
	}

	desc := NewDiscoverer(10, discardLogger()).Infer(records)
	if desc["code"] != TypeText {
		t.Errorf("expected mixed field to be text, got %s", desc["code"])
	}
}

func TestInfer_NullOnlyFieldDefaultsToText(t *testing.T) {
	records := []map[string]any{
		{"ghost": nil},
		{"ghost": nil},
	}

	desc := NewDiscoverer(10, discardLogger()).Infer(records)
	if desc["ghost"] != TypeText {
		t.Errorf("expected null-only field to be text, got %s", desc["ghost"])
	}
}

func TestInfer_RespectsSampleSize(t *testing.T) {
	// Only the first two records are sampled; the later numeric value must
	// not influence classification.
	records := []map[string]any{
		{"v": "one"},
		{"v": "two"},
		{"v": 3.0},
	}

	desc := NewDiscoverer(2, discardLogger()).Infer(records)
	if desc["v"] != TypeText {
		t.Errorf("expected text from the sampled records, got %s", desc["v"])
	}
}

func TestInfer_EmptySample(t *testing.T) {
	desc := NewDiscoverer(10, discardLogger()).Infer(nil)
	if len(desc) != 0 {
		t.Fatalf("expected empty descriptor, got %d fields", len(desc))
	}
}

func TestMerge_DiscoveredOverridesCore(t *testing.T) {
	discovered := Descriptor{
		"remote": TypeText, // provider sends it as a string
		"extra":  TypeNumeric,
	}

	merged := discovered.Merge(CoreFields())

	if merged["remote"] != TypeText {
		t.Errorf("expected discovered type to win, got %s", merged["remote"])
	}
	if merged["extra"] != TypeNumeric {
		t.Errorf("expected discovered-only field to survive, got %s", merged["extra"])
	}
	if merged["title"] != TypeText || merged["posted_at"] != TypeTimestamp {
		t.Error("core fields must always be present")
	}
}

func TestFields_Sorted(t *testing.T) {
	desc := Descriptor{"b": TypeText, "a": TypeText, "c": TypeText}
	fields := desc.Fields()
	if len(fields) != 3 || fields[0] != "a" || fields[1] != "b" || fields[2] != "c" {
		t.Fatalf("expected sorted fields, got %v", fields)
	}
}
