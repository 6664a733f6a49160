package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"leadharvest/internal/model"
)

// Hash computes the content hash used as the dedup key: SHA-256 over the
// identity fields in fixed order, empty fields skipped. A posting with no
// identity fields at all falls back to hashing its canonical source payload
// (encoding/json writes map keys sorted, so the payload form is stable).
func Hash(p *model.RawPosting) string {
	parts := make([]string, 0, 5)
	for _, field := range []string{
		p.JobKey,
		p.Title,
		p.CompanyName,
		p.JobURL,
		p.DatePublishedRaw,
	} {
		if field != "" {
			parts = append(parts, field)
		}
	}

	var input string
	if len(parts) > 0 {
		input = strings.Join(parts, "|")
	} else {
		input = p.SourcePayload
	}

	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}
