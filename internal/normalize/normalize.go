// Package normalize flattens raw provider records into the fixed RawPosting
// field set and computes the content hash used as the dedup key.
package normalize

import (
	"encoding/json"
	"strconv"
	"time"

	"leadharvest/internal/model"
)

// Normalize maps a raw provider record into a RawPosting. The original record
// is preserved JSON-encoded in SourcePayload, and JobHash is computed from the
// identity fields.
func Normalize(raw map[string]any) *model.RawPosting {
	p := &model.RawPosting{}

	p.JobKey = getString(raw, "jobKey")
	p.ProviderID = getString(raw, "id")
	if p.ProviderID == "" {
		p.ProviderID = getString(raw, "jobId")
	}

	p.Title = getString(raw, "title")
	p.CompanyName = getString(raw, "companyName")
	p.CompanyURL = getString(raw, "companyUrl")
	p.CompanyLogoURL = getString(raw, "companyLogoUrl")

	p.DescriptionHTML = getString(raw, "descriptionHtml")
	p.DescriptionText = getString(raw, "descriptionText")
	if p.DescriptionText == "" && p.DescriptionHTML != "" {
		p.DescriptionText = StripHTML(p.DescriptionHTML)
	}

	p.JobTypes = getStringSlice(raw, "jobType")
	if len(p.JobTypes) > 0 {
		p.JobTypePrimary = p.JobTypes[0]
	}

	location := getMap(raw, "location")
	p.LocationCity = getString(location, "city")
	p.LocationPostalCode = getString(location, "postalCode")
	p.LocationCountry = getString(location, "country")
	p.LocationCountryCode = getString(location, "countryCode")
	p.LocationFmtLong = getString(location, "formattedAddressLong")
	p.LocationFmtShort = getString(location, "formattedAddressShort")
	p.LocationLatitude = getFloat(location, "latitude")
	p.LocationLongitude = getFloat(location, "longitude")
	p.LocationStreetAddress = getString(location, "streetAddress")
	p.LocationFullAddress = getString(location, "fullAddress")

	salary := getMap(raw, "salary")
	p.SalaryCurrency = getString(salary, "salaryCurrency")
	p.SalaryMin = getFloat(salary, "salaryMin")
	p.SalaryMax = getFloat(salary, "salaryMax")
	p.SalarySource = getString(salary, "salarySource")
	p.SalaryText = getString(salary, "salaryText")
	p.SalaryType = getString(salary, "salaryType")

	rating := getMap(raw, "rating")
	p.RatingValue = getFloat(rating, "rating")
	if c := getFloat(rating, "count"); c != nil {
		count := int64(*c)
		p.RatingCount = &count
	}

	p.Benefits = getStringSlice(raw, "benefits")
	p.Occupations = getStringSlice(raw, "occupation")
	p.Attributes = getStringSlice(raw, "attributes")
	p.ShiftAndSchedule = getStringSlice(raw, "shiftAndSchedule")

	p.PostedToday = getBool(raw, "postedToday")
	hiring := getMap(raw, "hiringDemand")
	p.IsHighVolumeHiring = getBool(hiring, "isHighVolumeHiring")
	p.IsUrgentHire = getBool(hiring, "isUrgentHire")
	p.Expired = getBool(raw, "expired")
	p.IsRemote = getBool(raw, "isRemote")

	p.DatePublishedRaw = rawString(raw["datePublished"])
	p.DatePublished = parsePublished(raw["datePublished"])

	p.SourceName = getString(raw, "source")
	p.AgeText = getString(raw, "age")
	p.Locale = getString(raw, "locale")
	p.Language = getString(raw, "language")

	p.JobURL = getString(raw, "jobUrl")
	p.ApplyURL = getString(raw, "applyUrl")

	p.CompanyNumEmployees = getString(raw, "companyNumEmployees")
	p.CompanyRevenue = getString(raw, "companyRevenue")
	p.CompanyIndustry = getString(raw, "companyIndustry")
	p.CompanyDescription = getString(raw, "companyDescription")

	if payload, err := json.Marshal(raw); err == nil {
		p.SourcePayload = string(payload)
	}

	p.JobHash = Hash(p)

	return p
}

var publishedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parsePublished accepts the provider's epoch-millisecond numbers as well as
// the common string timestamp forms.
func parsePublished(v any) *time.Time {
	switch val := v.(type) {
	case float64:
		ms := int64(val)
		if ms <= 0 {
			return nil
		}
		// Values below ~1e12 are epoch seconds.
		if ms < 1_000_000_000_000 {
			ms *= 1000
		}
		t := time.UnixMilli(ms).UTC()
		return &t
	case string:
		for _, layout := range publishedLayouts {
			if t, err := time.Parse(layout, val); err == nil {
				t = t.UTC()
				return &t
			}
		}
	}
	return nil
}

// rawString renders the provider's verbatim value for hash input. Integral
// floats (JSON numbers) render without a decimal point.
func rawString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func getString(obj map[string]any, key string) string {
	if obj == nil {
		return ""
	}
	if s, ok := obj[key].(string); ok {
		return s
	}
	return ""
}

func getBool(obj map[string]any, key string) bool {
	if obj == nil {
		return false
	}
	b, _ := obj[key].(bool)
	return b
}

func getFloat(obj map[string]any, key string) *float64 {
	if obj == nil {
		return nil
	}
	if f, ok := obj[key].(float64); ok {
		return &f
	}
	return nil
}

func getMap(obj map[string]any, key string) map[string]any {
	if obj == nil {
		return nil
	}
	m, _ := obj[key].(map[string]any)
	return m
}

// getStringSlice accepts a JSON array (of strings or objects rendered back to
// JSON) or a single string value.
func getStringSlice(obj map[string]any, key string) []string {
	if obj == nil {
		return nil
	}
	switch v := obj[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
				continue
			}
			if b, err := json.Marshal(item); err == nil {
				out = append(out, string(b))
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	}
	return nil
}
