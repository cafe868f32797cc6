// Package scorer blends the cosine relevance score with secondary signals
// of course quality into one composite ranking score. Each signal carries a
// fixed weight; the weights sum to 1.0 so the total stays in a bounded
// range.
package scorer

import (
	"strings"
	"time"

	"github.com/coursehound/coursehound/internal/course"
	"github.com/coursehound/coursehound/internal/indexer/textproc"
)

// Signal weights. Description relevance dominates; the rest nudge the
// ordering toward complete, soon-starting, flexible courses.
const (
	weightDescription    = 0.50
	weightNameMatch      = 0.10
	weightStartDate      = 0.20
	weightCompleteness   = 0.10
	weightAdministration = 0.05
	weightFullTime       = 0.05
)

const anyMonth = "Any Month"

// Scorer computes composite scores against an injected clock.
type Scorer struct {
	now func() time.Time
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithClock overrides the clock used for start-date proximity. Tests pin it
// to a fixed instant.
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) {
		s.now = now
	}
}

// New creates a Scorer.
func New(opts ...Option) *Scorer {
	s := &Scorer{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score combines the six weighted signals for one course. cosine is the
// description-relevance score already computed by the retriever.
func (s *Scorer) Score(c course.Course, query string, cosine float64) float64 {
	return weightDescription*cosine +
		weightNameMatch*nameMatchScore(c.Name, query) +
		weightStartDate*s.StartDateScore(c.StartDate) +
		weightCompleteness*completenessScore(c) +
		weightAdministration*administrationScore(c.Administration) +
		weightFullTime*fullTimeScore(c.FullTime)
}

// StartDateScore rates how soon a course starts: +1 for "Any Month" or a
// start within 3 months, +0.5 within 6 months, -1 otherwise. Dates that
// cannot be parsed also score -1.
func (s *Scorer) StartDateScore(startDate string) float64 {
	if startDate == anyMonth {
		return 1
	}
	months := parseStartMonths(startDate)
	if len(months) == 0 {
		return -1
	}
	current := int(s.now().Month())
	closest := 12
	for _, m := range months {
		diff := (m - current) % 12
		if diff < 0 {
			diff += 12
		}
		if diff < closest {
			closest = diff
		}
	}
	switch {
	case closest < 3:
		return 1
	case closest < 6:
		return 0.5
	default:
		return -1
	}
}

// MonthsUntilStart returns the distance in months to the closest listed
// start month, or 12 when the date cannot be parsed. The start-window
// filter uses it.
func (s *Scorer) MonthsUntilStart(startDate string) int {
	months := parseStartMonths(startDate)
	if len(months) == 0 {
		return 12
	}
	current := int(s.now().Month())
	closest := 12
	for _, m := range months {
		diff := (m - current) % 12
		if diff < 0 {
			diff += 12
		}
		if diff < closest {
			closest = diff
		}
	}
	return closest
}

// parseStartMonths converts a "September, January" style field into month
// numbers. Values like "See Course" yield nil.
func parseStartMonths(startDate string) []int {
	var months []int
	for _, part := range strings.Split(startDate, ",") {
		t, err := time.Parse("January", strings.TrimSpace(part))
		if err != nil {
			return nil
		}
		months = append(months, int(t.Month()))
	}
	return months
}

// nameMatchScore is 1 when any query stem appears in the preprocessed
// course name. The containment check is a substring match over the rejoined
// stemmed name, not token equality.
func nameMatchScore(name, query string) float64 {
	processed := textproc.Preprocess(name)
	for _, stem := range textproc.Tokens(query) {
		if strings.Contains(processed, stem) {
			return 1
		}
	}
	return 0
}

func completenessScore(c course.Course) float64 {
	if c.Complete() {
		return 1
	}
	return -1
}

func administrationScore(administration string) float64 {
	if strings.Contains(administration, "Online & On Campus") {
		return 1
	}
	return 0
}

func fullTimeScore(fullTime string) float64 {
	if strings.Contains(fullTime, "Full time&Part time") {
		return 1
	}
	return 0
}
