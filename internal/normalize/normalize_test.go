package normalize

import (
	"testing"
	"time"
)

func sampleRecord() map[string]any {
	return map[string]any{
		"jobKey":      "jk-001",
		"id":          "prov-1",
		"title":       "TIG Welder",
		"companyName": "Acme Fabrication",
		"jobUrl":      "https://example.com/job/jk-001",
		"applyUrl":    "https://example.com/apply/jk-001",
		"location": map[string]any{
			"city":                  "Houston",
			"formattedAddressShort": "Houston, TX",
			"latitude":              29.76,
			"longitude":             -95.36,
		},
		"salary": map[string]any{
			"salaryMin":  25.0,
			"salaryMax":  32.0,
			"salaryText": "$25 - $32 an hour",
			"salaryType": "hourly",
		},
		"jobType":          []any{"fulltime", "contract"},
		"benefits":         []any{"401(k)", "Dental insurance"},
		"shiftAndSchedule": []any{"8 hour shift"},
		"isRemote":         false,
		"postedToday":      true,
		"datePublished":    1736812800000.0, // 2025-01-14 00:00:00 UTC
		"descriptionHtml":  "<p>Weld <b>stainless</b> assemblies.</p>",
	}
}

func TestNormalize_MapsFields(t *testing.T) {
	p := Normalize(sampleRecord())

	if p.JobKey != "jk-001" || p.Title != "TIG Welder" || p.CompanyName != "Acme Fabrication" {
		t.Fatalf("identity fields wrong: %+v", p)
	}
	if p.LocationCity != "Houston" || p.LocationFmtShort != "Houston, TX" {
		t.Errorf("location wrong: city=%q short=%q", p.LocationCity, p.LocationFmtShort)
	}
	if p.SalaryText != "$25 - $32 an hour" {
		t.Errorf("salary text wrong: %q", p.SalaryText)
	}
	if p.SalaryMin == nil || *p.SalaryMin != 25.0 {
		t.Errorf("salary min wrong: %v", p.SalaryMin)
	}
	if p.JobTypePrimary != "fulltime" || len(p.JobTypes) != 2 {
		t.Errorf("job types wrong: primary=%q all=%v", p.JobTypePrimary, p.JobTypes)
	}
	if !p.PostedToday || p.IsRemote {
		t.Errorf("flags wrong: postedToday=%v isRemote=%v", p.PostedToday, p.IsRemote)
	}
	if p.SourcePayload == "" {
		t.Error("source payload must be preserved")
	}
	if p.JobHash == "" {
		t.Error("hash must be computed")
	}
}

func TestNormalize_DerivesTextFromHTML(t *testing.T) {
	p := Normalize(sampleRecord())
	if p.DescriptionText != "Weld stainless assemblies." {
		t.Fatalf("expected stripped description, got %q", p.DescriptionText)
	}
}

func TestNormalize_KeepsProvidedText(t *testing.T) {
	rec := sampleRecord()
	rec["descriptionText"] = "Already plain."
	p := Normalize(rec)
	if p.DescriptionText != "Already plain." {
		t.Fatalf("expected provider text kept, got %q", p.DescriptionText)
	}
}

func TestParsePublished(t *testing.T) {
	wantMs := time.Date(2025, 1, 14, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		want *time.Time
	}{
		{"epoch millis", 1736812800000.0, &wantMs},
		{"epoch seconds", 1736812800.0, &wantMs},
		{"rfc3339", "2025-01-14T00:00:00Z", &wantMs},
		{"date only", "2025-01-14", &wantMs},
		{"zero", 0.0, nil},
		{"garbage", "next week", nil},
		{"nil", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parsePublished(tt.in)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			if got != nil && !got.Equal(*tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestNormalize_HashDeterministic(t *testing.T) {
	a := Normalize(sampleRecord())
	b := Normalize(sampleRecord())
	if a.JobHash != b.JobHash {
		t.Fatalf("same record must hash identically: %s vs %s", a.JobHash, b.JobHash)
	}
}

func TestNormalize_HashIgnoresNonIdentityChanges(t *testing.T) {
	a := Normalize(sampleRecord())

	rec := sampleRecord()
	rec["descriptionHtml"] = "<p>Different body.</p>"
	rec["salary"] = map[string]any{"salaryText": "$30 an hour"}
	b := Normalize(rec)

	if a.JobHash != b.JobHash {
		t.Fatal("hash must depend only on identity fields")
	}
}

func TestNormalize_HashChangesWithIdentity(t *testing.T) {
	a := Normalize(sampleRecord())

	rec := sampleRecord()
	rec["title"] = "MIG Welder"
	b := Normalize(rec)

	if a.JobHash == b.JobHash {
		t.Fatal("different title must produce a different hash")
	}
}

func TestHash_SkipsEmptyFields(t *testing.T) {
	// A record missing its jobKey must hash the same as one carrying an
	// explicit empty jobKey; empty fields never contribute separators.
	rec := sampleRecord()
	delete(rec, "jobKey")
	a := Normalize(rec)

	rec = sampleRecord()
	rec["jobKey"] = ""
	b := Normalize(rec)

	if a.JobHash != b.JobHash {
		t.Fatal("missing and empty identity fields must hash identically")
	}

	full := Normalize(sampleRecord())
	if a.JobHash == full.JobHash {
		t.Fatal("dropping an identity field must change the hash")
	}
}

func TestHash_FallsBackToPayload(t *testing.T) {
	a := Normalize(map[string]any{"weird": "record"})
	b := Normalize(map[string]any{"weird": "record"})
	c := Normalize(map[string]any{"weird": "other"})

	if a.JobHash == "" {
		t.Fatal("fallback hash must not be empty")
	}
	if a.JobHash != b.JobHash {
		t.Fatal("identical payloads must hash identically")
	}
	if a.JobHash == c.JobHash {
		t.Fatal("different payloads must hash differently")
	}
}

func TestRawString(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"2025-01-14", "2025-01-14"},
		{1736812800000.0, "1736812800000"},
		{12.5, "12.5"},
		{true, "true"},
	}
	for _, tt := range tests {
		if got := rawString(tt.in); got != tt.want {
			t.Errorf("rawString(%v): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "tags removed",
			in:   "<div><p>Hello <b>world</b></p></div>",
			want: "Hello world",
		},
		{
			name: "whitespace collapsed",
			in:   "<p>a</p>\n\n  <p>b\t\tc</p>",
			want: "a b c",
		},
		{
			name: "script dropped",
			in:   "<p>keep</p><script>var x = 1;</script><p>this</p>",
			want: "keep this",
		},
		{
			name: "style dropped",
			in:   "<style>.a{color:red}</style>text",
			want: "text",
		},
		{
			name: "plain text unchanged",
			in:   "no markup here",
			want: "no markup here",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripHTML(tt.in); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
