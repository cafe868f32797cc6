// Package handler exposes the search API over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/coursehound/coursehound/internal/course"
	"github.com/coursehound/coursehound/internal/searcher"
	"github.com/coursehound/coursehound/internal/searcher/cache"
	pkgerrors "github.com/coursehound/coursehound/pkg/errors"
	"github.com/coursehound/coursehound/pkg/logger"
	"github.com/coursehound/coursehound/pkg/metrics"
)

type SearchService interface {
	Search(ctx context.Context, req searcher.Request) (*searcher.Response, error)
}

type Handler struct {
	service      SearchService
	cache        *cache.QueryCache
	metrics      *metrics.Metrics
	defaultLimit int
	maxResults   int
	logger       *slog.Logger
}

func New(service SearchService, queryCache *cache.QueryCache, m *metrics.Metrics, defaultLimit, maxResults int) *Handler {
	return &Handler{
		service:      service,
		cache:        queryCache,
		metrics:      m,
		defaultLimit: defaultLimit,
		maxResults:   maxResults,
		logger:       slog.Default().With("component", "search-handler"),
	}
}

// Search handles GET /search. The query goes in "q"; see parseRequest for
// the remaining parameters.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	req, err := h.parseRequest(r)
	if err != nil {
		h.writeError(w, pkgerrors.HTTPStatusCode(err), err.Error())
		return
	}

	var resp *searcher.Response
	cacheHit := false
	if h.cache != nil {
		resp, cacheHit, err = h.cache.GetOrCompute(ctx, req, func() (*searcher.Response, error) {
			return h.service.Search(ctx, req)
		})
	} else {
		resp, err = h.service.Search(ctx, req)
	}
	if err != nil {
		statusCode := pkgerrors.HTTPStatusCode(err)
		if statusCode < http.StatusInternalServerError {
			h.writeError(w, statusCode, err.Error())
			return
		}
		log.Error("search failed",
			"query", req.Query,
			"error", err,
			"status_code", statusCode,
		)
		h.observe(start, cacheHit, "error", 0)
		h.writeError(w, statusCode, "search failed")
		return
	}

	resultType := "hit"
	if resp.TotalHits == 0 {
		resultType = "zero_result"
	}
	h.observe(start, cacheHit, resultType, len(resp.Results))

	log.Info("search completed",
		"query", req.Query,
		"total_hits", resp.TotalHits,
		"returned", len(resp.Results),
		"cache_hit", cacheHit,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

// parseRequest maps query parameters onto a searcher.Request:
//
//	q            required query text
//	field        indexed field to search (default description)
//	limit        positive integer, clamped to maxResults; "all" lifts the cap
//	composite    rank by the composite score instead of raw cosine
//	name, university, city
//	             extra per-field queries; any one of them enables multi-field
//	min_fee, max_fee, countries, starting_soon, online
//	             structured filters
//	full         full record projection
func (h *Handler) parseRequest(r *http.Request) (searcher.Request, error) {
	q := r.URL.Query()
	req := searcher.Request{Query: q.Get("q")}
	if strings.TrimSpace(req.Query) == "" {
		return req, pkgerrors.New(pkgerrors.ErrInvalidInput, http.StatusBadRequest,
			"query parameter 'q' is required")
	}

	if f := q.Get("field"); f != "" {
		field := course.Field(f)
		if _, err := course.Selector(field); err != nil {
			return req, pkgerrors.Newf(pkgerrors.ErrInvalidInput, http.StatusBadRequest,
				"unknown field %q", f)
		}
		req.Field = field
	}

	req.Limit = h.defaultLimit
	if limitStr := q.Get("limit"); limitStr != "" {
		if limitStr == "all" {
			req.Limit = 0
		} else {
			parsed, err := strconv.Atoi(limitStr)
			if err != nil || parsed < 1 {
				return req, pkgerrors.New(pkgerrors.ErrInvalidInput, http.StatusBadRequest,
					"limit must be a positive integer or 'all'")
			}
			if parsed > h.maxResults {
				parsed = h.maxResults
			}
			req.Limit = parsed
		}
	}

	req.Composite = q.Get("composite") == "true"
	req.Full = q.Get("full") == "true"

	fieldQueries := map[course.Field]string{
		course.FieldName:       q.Get("name"),
		course.FieldUniversity: q.Get("university"),
		course.FieldCity:       q.Get("city"),
	}
	for f, fq := range fieldQueries {
		if strings.TrimSpace(fq) == "" {
			delete(fieldQueries, f)
		}
	}
	if len(fieldQueries) > 0 {
		req.MultiField = true
		req.FieldQueries = fieldQueries
	}

	minStr, maxStr := q.Get("min_fee"), q.Get("max_fee")
	if minStr != "" || maxStr != "" {
		fee := &searcher.FeeRange{Max: 1e12}
		if minStr != "" {
			min, err := strconv.ParseFloat(minStr, 64)
			if err != nil || min < 0 {
				return req, pkgerrors.New(pkgerrors.ErrInvalidInput, http.StatusBadRequest,
					"min_fee must be a non-negative number")
			}
			fee.Min = min
		}
		if maxStr != "" {
			max, err := strconv.ParseFloat(maxStr, 64)
			if err != nil || max < 0 {
				return req, pkgerrors.New(pkgerrors.ErrInvalidInput, http.StatusBadRequest,
					"max_fee must be a non-negative number")
			}
			fee.Max = max
		}
		if fee.Max < fee.Min {
			return req, pkgerrors.New(pkgerrors.ErrInvalidInput, http.StatusBadRequest,
				"max_fee must not be below min_fee")
		}
		req.Fee = fee
	}

	if countries := q.Get("countries"); countries != "" {
		for _, c := range strings.Split(countries, ",") {
			if c = strings.TrimSpace(c); c != "" {
				req.Countries = append(req.Countries, c)
			}
		}
	}
	req.StartWindow = q.Get("starting_soon") == "true"
	req.OnlineOnly = q.Get("online") == "true"
	return req, nil
}

func (h *Handler) observe(start time.Time, cacheHit bool, resultType string, returned int) {
	if h.metrics == nil {
		return
	}
	cacheStatus := "miss"
	if cacheHit {
		cacheStatus = "hit"
	}
	h.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(time.Since(start).Seconds())
	h.metrics.SearchResultsCount.Observe(float64(returned))
	if h.cache != nil {
		if cacheHit {
			h.metrics.CacheHitsTotal.Inc()
		} else {
			h.metrics.CacheMissesTotal.Inc()
		}
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
