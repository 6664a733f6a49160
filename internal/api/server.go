// Package api serves a thin read-only HTTP API over qualified storage.
package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"leadharvest/internal/model"
)

// Server exposes qualified postings for downstream consumers.
type Server struct {
	store  model.QualifiedStore
	logger *slog.Logger
}

// NewServer creates an API server over the qualified store.
func NewServer(store model.QualifiedStore, logger *slog.Logger) *Server {
	return &Server{store: store, logger: logger}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/api/health", s.health)
	r.GET("/api/jobs/qualified", s.qualified)
	r.GET("/api/jobs/summary", s.summary)

	return r
}

// Serve blocks on the listener.
func (s *Server) Serve(addr string) error {
	s.logger.Info("api listening", "addr", addr)
	return s.Router().Run(addr)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) qualified(c *gin.Context) {
	limit := intQuery(c, "limit", 100)
	offset := intQuery(c, "offset", 0)
	minScore := intQuery(c, "min_score", 80)

	postings, err := s.store.ListQualified(minScore, limit, offset)
	if err != nil {
		s.logger.Error("qualified query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	out := make([]gin.H, 0, len(postings))
	for i := range postings {
		p := &postings[i]
		out = append(out, gin.H{
			"job_hash":                   p.JobHash,
			"title":                      p.Title,
			"company_name":               p.CompanyName,
			"location":                   p.LocationFmtShort,
			"date_published":             formatTime(p.DatePublished),
			"salary_text":                p.SalaryText,
			"job_url":                    p.JobURL,
			"apply_url":                  p.ApplyURL,
			"score":                      p.Score,
			"reasons":                    p.Reasons,
			"flags":                      p.Flags,
			"company_30d_postings_count": p.Company30dPostings,
			"hr_contact_name":            p.HRContactName,
			"hr_contact_title":           p.HRContactTitle,
			"hr_contact_email":           p.HRContactEmail,
			"hr_contact_linkedin":        p.HRContactLinkedIn,
			"qualified_at":               p.QualifiedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, gin.H{"jobs": out, "count": len(out)})
}

// summary is the compact projection consumed by sales tooling.
func (s *Server) summary(c *gin.Context) {
	limit := intQuery(c, "limit", 100)
	offset := intQuery(c, "offset", 0)
	minScore := intQuery(c, "min_score", 0)

	postings, err := s.store.ListQualified(minScore, limit, offset)
	if err != nil {
		s.logger.Error("summary query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	out := make([]gin.H, 0, len(postings))
	for i := range postings {
		p := &postings[i]
		out = append(out, gin.H{
			"job_hash":         p.JobHash,
			"title":            p.Title,
			"company":          p.CompanyName,
			"location":         p.LocationFmtShort,
			"score":            p.Score,
			"matched_keywords": p.Flags.MatchedKeywords,
			"contact_name":     p.HRContactName,
			"contact_email":    p.HRContactEmail,
			"company_30d":      p.Company30dPostings,
		})
	}

	c.JSON(http.StatusOK, gin.H{"summaries": out, "count": len(out)})
}

func intQuery(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
