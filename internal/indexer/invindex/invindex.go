// Package invindex builds the boolean and TF-IDF weighted inverted indices.
// Both map term IDs to postings; the boolean variant records bare document
// membership, the weighted variant records a tf*idf score per document.
package invindex

import (
	"math"

	"github.com/coursehound/coursehound/internal/course"
	"github.com/coursehound/coursehound/internal/indexer/textproc"
	"github.com/coursehound/coursehound/internal/indexer/vocab"
)

// Posting is one weighted index entry: a document and its tf-idf score for
// the owning term.
type Posting struct {
	DocID string
	Score float64
}

// Boolean maps term IDs to the ordered set of documents containing the term.
type Boolean struct {
	postings map[int][]string
}

// Weighted maps term IDs to (document, tf-idf) postings, one entry per
// document that contains the term.
type Weighted struct {
	postings map[int][]Posting
}

// NewBoolean creates an empty boolean index.
func NewBoolean() *Boolean {
	return &Boolean{postings: make(map[int][]string)}
}

// NewWeighted creates an empty weighted index.
func NewWeighted() *Weighted {
	return &Weighted{postings: make(map[int][]Posting)}
}

// BuildBoolean indexes the selected field of each course. A document appears
// under a term exactly once, however often the term occurs in it.
func BuildBoolean(courses []course.Course, v *vocab.Vocabulary, selector func(course.Course) string) *Boolean {
	idx := NewBoolean()
	seen := make(map[int]map[string]struct{})
	for _, c := range courses {
		raw := selector(c)
		if raw == "" {
			continue
		}
		for _, term := range textproc.Tokens(raw) {
			termID, ok := v.ID(term)
			if !ok {
				continue
			}
			docs, exists := seen[termID]
			if !exists {
				docs = make(map[string]struct{})
				seen[termID] = docs
			}
			if _, dup := docs[c.ID]; dup {
				continue
			}
			docs[c.ID] = struct{}{}
			idx.postings[termID] = append(idx.postings[termID], c.ID)
		}
	}
	return idx
}

// BuildWeighted runs the two-pass tf-idf build. Pass one collects raw term
// frequencies per (term, document) and document frequencies per term. Pass
// two computes idf = ln(N/(df+1)) and appends round(tf*idf, 2) postings in
// document traversal order. totalDocs is the full corpus size N, counting
// courses skipped for an empty field.
func BuildWeighted(courses []course.Course, v *vocab.Vocabulary, selector func(course.Course) string, totalDocs int) *Weighted {
	type termDocs struct {
		order []string
		tf    map[string]int
	}
	byTerm := make(map[int]*termDocs)

	for _, c := range courses {
		raw := selector(c)
		if raw == "" {
			continue
		}
		for _, term := range textproc.Tokens(raw) {
			termID, ok := v.ID(term)
			if !ok {
				continue
			}
			td, exists := byTerm[termID]
			if !exists {
				td = &termDocs{tf: make(map[string]int)}
				byTerm[termID] = td
			}
			if _, seen := td.tf[c.ID]; !seen {
				td.order = append(td.order, c.ID)
			}
			td.tf[c.ID]++
		}
	}

	idx := NewWeighted()
	for termID := 1; termID <= v.Len(); termID++ {
		td, ok := byTerm[termID]
		if !ok {
			// term never matched any document field; no entry, no
			// division by zero
			continue
		}
		df := len(td.order)
		idf := math.Log(float64(totalDocs) / float64(df+1))
		postings := make([]Posting, 0, df)
		for _, docID := range td.order {
			score := round2(float64(td.tf[docID]) * idf)
			postings = append(postings, Posting{DocID: docID, Score: score})
		}
		idx.postings[termID] = postings
	}
	return idx
}

// Postings returns the document IDs for a term, or nil if the term has none.
func (b *Boolean) Postings(termID int) []string {
	return b.postings[termID]
}

// Add appends a document to a term's postings without duplicate checking.
// Used by the artifact loader, which reads already-deduplicated records.
func (b *Boolean) Add(termID int, docID string) {
	b.postings[termID] = append(b.postings[termID], docID)
}

// TermCount returns the number of terms with at least one posting.
func (b *Boolean) TermCount() int {
	return len(b.postings)
}

// TermIDs returns every term ID present in the index, unordered.
func (b *Boolean) TermIDs() []int {
	ids := make([]int, 0, len(b.postings))
	for id := range b.postings {
		ids = append(ids, id)
	}
	return ids
}

// Postings returns the weighted postings for a term.
func (w *Weighted) Postings(termID int) []Posting {
	return w.postings[termID]
}

// Add appends a posting without recomputation. Used by the artifact loader.
func (w *Weighted) Add(termID int, p Posting) {
	w.postings[termID] = append(w.postings[termID], p)
}

// Score returns the tf-idf score of a document under a term, or 0 if the
// document does not contain the term.
func (w *Weighted) Score(termID int, docID string) float64 {
	for _, p := range w.postings[termID] {
		if p.DocID == docID {
			return p.Score
		}
	}
	return 0
}

// TermCount returns the number of terms with at least one posting.
func (w *Weighted) TermCount() int {
	return len(w.postings)
}

// TermIDs returns every term ID present in the index, unordered.
func (w *Weighted) TermIDs() []int {
	ids := make([]int, 0, len(w.postings))
	for id := range w.postings {
		ids = append(ids, id)
	}
	return ids
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
