// Package vocab builds and holds the term vocabulary: a mapping from each
// stemmed term to a stable integer ID. IDs start at 1 and are assigned in
// first-seen order over a single deterministic pass of the corpus, so
// rebuilding over the same corpus yields the identical mapping.
package vocab

import (
	"github.com/coursehound/coursehound/internal/course"
	"github.com/coursehound/coursehound/internal/indexer/textproc"
)

// Vocabulary maps terms to their IDs. Read-only after a build completes.
type Vocabulary struct {
	ids   map[string]int
	terms []string
}

// New creates an empty Vocabulary.
func New() *Vocabulary {
	return &Vocabulary{ids: make(map[string]int)}
}

// Build assigns IDs to every term of the selected field across the corpus.
// Courses whose selected field is empty contribute no terms; they are not an
// error.
func Build(courses []course.Course, selector func(course.Course) string) *Vocabulary {
	v := New()
	for _, c := range courses {
		raw := selector(c)
		if raw == "" {
			continue
		}
		for _, term := range textproc.Tokens(raw) {
			v.Add(term)
		}
	}
	return v
}

// Add assigns the next ID to term if it has not been seen, and returns the
// term's ID either way.
func (v *Vocabulary) Add(term string) int {
	if id, ok := v.ids[term]; ok {
		return id
	}
	id := len(v.terms) + 1
	v.ids[term] = id
	v.terms = append(v.terms, term)
	return id
}

// ID returns the term's ID and whether the term is known.
func (v *Vocabulary) ID(term string) (int, bool) {
	id, ok := v.ids[term]
	return id, ok
}

// Term returns the term for an ID, or "" if the ID was never assigned.
func (v *Vocabulary) Term(id int) string {
	if id < 1 || id > len(v.terms) {
		return ""
	}
	return v.terms[id-1]
}

// Len returns the number of distinct terms.
func (v *Vocabulary) Len() int {
	return len(v.terms)
}

// Terms returns every term in ID order. The returned slice is shared; do
// not mutate it.
func (v *Vocabulary) Terms() []string {
	return v.terms
}
