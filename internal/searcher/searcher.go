// Package searcher composes retrieval, ranking, scoring, and filtering into
// the query-facing search API. A Searcher serves read-only indices published
// by the indexer Engine, so concurrent queries need no locking.
package searcher

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/coursehound/coursehound/internal/course"
	"github.com/coursehound/coursehound/internal/indexer"
	"github.com/coursehound/coursehound/internal/searcher/filter"
	"github.com/coursehound/coursehound/internal/searcher/retriever"
	"github.com/coursehound/coursehound/internal/searcher/scorer"
	pkgerrors "github.com/coursehound/coursehound/pkg/errors"
)

// FeeRange bounds the EUR fee filter.
type FeeRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Request describes one search. Limit <= 0 returns every match. When
// MultiField is set, FieldQueries adds conjunctive queries over the other
// indexed fields and a document must match all of them.
type Request struct {
	Query        string                  `json:"query"`
	Field        course.Field            `json:"field,omitempty"`
	Limit        int                     `json:"limit,omitempty"`
	Composite    bool                    `json:"composite,omitempty"`
	MultiField   bool                    `json:"multi_field,omitempty"`
	FieldQueries map[course.Field]string `json:"field_queries,omitempty"`
	Fee          *FeeRange               `json:"fee,omitempty"`
	Countries    []string                `json:"countries,omitempty"`
	StartWindow  bool                    `json:"start_window,omitempty"`
	OnlineOnly   bool                    `json:"online_only,omitempty"`
	Full         bool                    `json:"full,omitempty"`
}

// Result is one scored document projection.
type Result struct {
	ID          string  `json:"id"`
	Score       float64 `json:"score"`
	Name        string  `json:"name"`
	University  string  `json:"university"`
	Description string  `json:"description"`
	URL         string  `json:"url"`

	// Full projection only.
	Faculty        string   `json:"faculty,omitempty"`
	FullTime       string   `json:"full_time,omitempty"`
	StartDate      string   `json:"start_date,omitempty"`
	Fees           string   `json:"fees,omitempty"`
	FeesEUR        *float64 `json:"fees_eur,omitempty"`
	Modality       string   `json:"modality,omitempty"`
	Duration       string   `json:"duration,omitempty"`
	City           string   `json:"city,omitempty"`
	Country        string   `json:"country,omitempty"`
	Administration string   `json:"administration,omitempty"`
}

// Response is the ranked result list for one Request.
type Response struct {
	Query     string   `json:"query"`
	TotalHits int      `json:"total_hits"`
	Results   []Result `json:"results"`
}

// Searcher executes search requests against the published indices.
type Searcher struct {
	engine *indexer.Engine
	store  course.Store
	scorer *scorer.Scorer
	logger *slog.Logger
}

// New creates a Searcher. sc may be nil, in which case a wall-clock scorer
// is used.
func New(engine *indexer.Engine, store course.Store, sc *scorer.Scorer) *Searcher {
	if sc == nil {
		sc = scorer.New()
	}
	return &Searcher{
		engine: engine,
		store:  store,
		scorer: sc,
		logger: slog.Default().With("component", "searcher"),
	}
}

// Search runs conjunctive retrieval plus cosine ranking over the requested
// field (or fields), applies the structured filters, and returns the top
// results. With req.Composite set, the six-signal composite score replaces
// the raw cosine score for ranking.
func (s *Searcher) Search(ctx context.Context, req Request) (*Response, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("%w: empty query", pkgerrors.ErrInvalidQuery)
	}

	scores, err := s.fieldScores(req)
	if err != nil {
		return nil, err
	}
	if len(scores) == 0 {
		return &Response{Query: req.Query, Results: []Result{}}, nil
	}

	matched, err := s.fetchCourses(ctx, scores)
	if err != nil {
		return nil, err
	}
	matched = filter.Apply(matched, s.predicates(req)...)

	byID := make(map[string]course.Course, len(matched))
	top := retriever.NewTopK(req.Limit)
	for _, c := range matched {
		byID[c.ID] = c
		score := scores[c.ID]
		if req.Composite {
			score = s.scorer.Score(c, req.Query, scores[c.ID])
		}
		top.Push(retriever.ScoredDoc{DocID: c.ID, Score: score})
	}

	ranked := top.Results()
	results := make([]Result, 0, len(ranked))
	for _, sd := range ranked {
		results = append(results, project(byID[sd.DocID], sd.Score, req.Full))
	}
	s.logger.Debug("search completed",
		"query", req.Query,
		"multi_field", req.MultiField,
		"matched", len(matched),
		"returned", len(results),
	)
	return &Response{
		Query:     req.Query,
		TotalHits: len(matched),
		Results:   results,
	}, nil
}

// fieldScores runs retrieval and cosine ranking per requested field and
// intersects the per-field results. The returned map holds the mean cosine
// score of every surviving document.
func (s *Searcher) fieldScores(req Request) (map[string]float64, error) {
	type fieldQuery struct {
		field course.Field
		query string
	}
	primary := req.Field
	if primary == "" {
		primary = course.FieldDescription
	}
	queries := []fieldQuery{{field: primary, query: req.Query}}
	if req.MultiField {
		for _, f := range course.IndexedFields {
			q, ok := req.FieldQueries[f]
			if !ok || strings.TrimSpace(q) == "" || f == primary {
				continue
			}
			queries = append(queries, fieldQuery{field: f, query: q})
		}
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, fq := range queries {
		fi, err := s.engine.Field(fq.field)
		if err != nil {
			return nil, err
		}
		candidates := retriever.Retrieve(fq.query, fi.Vocab, fi.Boolean)
		ranked := retriever.RankByCosine(fq.query, fi.Vocab, fi.Weighted, candidates, 0)
		if len(ranked) == 0 {
			// one empty field query empties the whole conjunction
			return nil, nil
		}
		for _, sd := range ranked {
			sums[sd.DocID] += sd.Score
			counts[sd.DocID]++
		}
	}

	scores := make(map[string]float64)
	for docID, n := range counts {
		if n == len(queries) {
			scores[docID] = sums[docID] / float64(len(queries))
		}
	}
	return scores, nil
}

func (s *Searcher) fetchCourses(ctx context.Context, scores map[string]float64) ([]course.Course, error) {
	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	courses := make([]course.Course, 0, len(ids))
	for _, id := range ids {
		c, err := s.store.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("fetching course %s: %w", id, err)
		}
		courses = append(courses, *c)
	}
	return courses, nil
}

func (s *Searcher) predicates(req Request) []filter.Predicate {
	var preds []filter.Predicate
	if req.Fee != nil {
		preds = append(preds, filter.Fee(req.Fee.Min, req.Fee.Max))
	}
	if len(req.Countries) > 0 {
		preds = append(preds, filter.Countries(req.Countries))
	}
	if req.StartWindow {
		preds = append(preds, filter.StartWindow(s.scorer.MonthsUntilStart))
	}
	if req.OnlineOnly {
		preds = append(preds, filter.Online())
	}
	return preds
}

// project maps a course to its result record. The minimal projection keeps
// the identifying fields; the full projection discloses everything,
// substituting a sentinel for an unparsed fee.
func project(c course.Course, score float64, full bool) Result {
	r := Result{
		ID:          c.ID,
		Score:       score,
		Name:        c.Name,
		University:  c.University,
		Description: c.Description,
		URL:         c.URL,
	}
	if !full {
		return r
	}
	r.Faculty = c.Faculty
	r.FullTime = c.FullTime
	r.StartDate = c.StartDate
	r.Fees = c.Fees
	if r.Fees == "" {
		r.Fees = "not found"
	}
	r.FeesEUR = c.FeesEUR
	r.Modality = c.Modality
	r.Duration = c.Duration
	r.City = c.City
	r.Country = c.Country
	r.Administration = c.Administration
	return r
}
