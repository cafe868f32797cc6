// Package filter applies the structured post-filters to candidate courses.
// Each filter is an independent predicate; disabled filters are simply not
// applied, and composition is order-independent because every predicate is
// a strict conjunction term.
package filter

import (
	"strings"

	"github.com/coursehound/coursehound/internal/course"
)

// Predicate keeps a course when it returns true.
type Predicate func(course.Course) bool

// Apply keeps the courses satisfying every predicate, preserving order.
func Apply(courses []course.Course, predicates ...Predicate) []course.Course {
	if len(predicates) == 0 {
		return courses
	}
	out := make([]course.Course, 0, len(courses))
next:
	for _, c := range courses {
		for _, p := range predicates {
			if !p(c) {
				continue next
			}
		}
		out = append(out, c)
	}
	return out
}

// Fee keeps courses whose EUR fee lies within [min, max]. Courses without a
// parsed fee are dropped: the filter cannot evaluate them.
func Fee(min, max float64) Predicate {
	return func(c course.Course) bool {
		if c.FeesEUR == nil {
			return false
		}
		return *c.FeesEUR >= min && *c.FeesEUR <= max
	}
}

// Countries keeps courses located in one of the allowed countries.
func Countries(allowed []string) Predicate {
	set := make(map[string]struct{}, len(allowed))
	for _, country := range allowed {
		set[country] = struct{}{}
	}
	return func(c course.Course) bool {
		_, ok := set[c.Country]
		return ok
	}
}

// StartWindow keeps courses starting within six months, or flexible "Any
// Month" courses. monthsUntil maps a raw start-date field to the distance
// of the closest start month.
func StartWindow(monthsUntil func(startDate string) int) Predicate {
	return func(c course.Course) bool {
		if c.StartDate == "Any Month" {
			return true
		}
		m := monthsUntil(c.StartDate)
		return m >= 0 && m <= 6
	}
}

// Online keeps courses whose administration field carries an online marker.
func Online() Predicate {
	return func(c course.Course) bool {
		return strings.Contains(c.Administration, "Online")
	}
}
