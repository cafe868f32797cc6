// Package retriever answers free-text queries against one field index:
// conjunctive AND retrieval over the boolean index, then cosine-similarity
// ranking of the candidates against the tf-idf weighted index.
//
// Query policy: terms are deduplicated preserving first occurrence, and
// terms absent from the vocabulary are skipped entirely, including in first
// position. A query with no known terms retrieves nothing.
package retriever

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/coursehound/coursehound/internal/indexer/invindex"
	"github.com/coursehound/coursehound/internal/indexer/textproc"
	"github.com/coursehound/coursehound/internal/indexer/vocab"
	pkgerrors "github.com/coursehound/coursehound/pkg/errors"
)

// lookup resolves a stemmed term to its vocabulary ID. A term the corpus
// never produced reports ErrUnknownTerm.
func lookup(v *vocab.Vocabulary, term string) (int, error) {
	id, ok := v.ID(term)
	if !ok {
		return 0, fmt.Errorf("%w: %q", pkgerrors.ErrUnknownTerm, term)
	}
	return id, nil
}

// QueryTerms normalises a query into its deduplicated stemmed terms, order
// preserved.
func QueryTerms(query string) []string {
	tokens := textproc.Tokens(query)
	seen := make(map[string]struct{}, len(tokens))
	terms := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		terms = append(terms, tok)
	}
	return terms
}

// Retrieve returns the IDs of every document containing all known query
// terms, sorted ascending. The result is empty when the conjunction is
// unsatisfiable or no query term is in the vocabulary.
func Retrieve(query string, v *vocab.Vocabulary, idx *invindex.Boolean) []string {
	var candidates map[string]struct{}
	for _, term := range QueryTerms(query) {
		termID, err := lookup(v, term)
		if errors.Is(err, pkgerrors.ErrUnknownTerm) {
			continue
		}
		postings := idx.Postings(termID)
		if candidates == nil {
			candidates = make(map[string]struct{}, len(postings))
			for _, docID := range postings {
				candidates[docID] = struct{}{}
			}
			continue
		}
		docSet := make(map[string]struct{}, len(postings))
		for _, docID := range postings {
			docSet[docID] = struct{}{}
		}
		for docID := range candidates {
			if _, inBoth := docSet[docID]; !inBoth {
				delete(candidates, docID)
			}
		}
		if len(candidates) == 0 {
			return nil
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	out := make([]string, 0, len(candidates))
	for docID := range candidates {
		out = append(out, docID)
	}
	sort.Strings(out)
	return out
}

// RankByCosine scores each candidate by the cosine similarity between the
// query vector and the document's tf-idf weights restricted to the query
// terms, returning the k best in descending order. k <= 0 ranks every
// candidate.
//
// The query vector uses query-internal term frequency only; its weights are
// not corpus-calibrated. A zero-norm query or document scores zero rather
// than dividing by zero.
func RankByCosine(query string, v *vocab.Vocabulary, idx *invindex.Weighted, candidates []string, k int) []ScoredDoc {
	terms := QueryTerms(query)
	if len(terms) == 0 || len(candidates) == 0 {
		return nil
	}

	// Query-side weights: tf of each distinct term within the query
	// itself. Unknown terms still contribute to the query norm.
	tf := make(map[string]float64, len(terms))
	for _, tok := range textproc.Tokens(query) {
		tf[tok]++
	}
	var queryNorm float64
	for _, w := range tf {
		queryNorm += w * w
	}
	queryNorm = math.Sqrt(queryNorm)

	// Document-side weights per known term, keyed by document.
	type termWeights struct {
		queryWeight float64
		byDoc       map[string]float64
	}
	known := make([]termWeights, 0, len(terms))
	for _, term := range terms {
		termID, err := lookup(v, term)
		if errors.Is(err, pkgerrors.ErrUnknownTerm) {
			continue
		}
		byDoc := make(map[string]float64)
		for _, p := range idx.Postings(termID) {
			byDoc[p.DocID] = p.Score
		}
		known = append(known, termWeights{queryWeight: tf[term], byDoc: byDoc})
	}

	top := NewTopK(k)
	for _, docID := range candidates {
		var dot, docNorm float64
		for _, tw := range known {
			w := tw.byDoc[docID]
			dot += tw.queryWeight * w
			docNorm += w * w
		}
		score := 0.0
		if docNorm > 0 && queryNorm > 0 {
			score = dot / (math.Sqrt(docNorm) * queryNorm)
		}
		top.Push(ScoredDoc{DocID: docID, Score: score})
	}
	return top.Results()
}
