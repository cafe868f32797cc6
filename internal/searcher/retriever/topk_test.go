package retriever

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopKKeepsBestK(t *testing.T) {
	top := NewTopK(3)
	for _, sd := range []ScoredDoc{
		{DocID: "a", Score: 0.1},
		{DocID: "b", Score: 0.9},
		{DocID: "c", Score: 0.5},
		{DocID: "d", Score: 0.7},
		{DocID: "e", Score: 0.3},
	} {
		top.Push(sd)
	}

	results := top.Results()
	require.Len(t, results, 3)
	assert.Equal(t, "b", results[0].DocID)
	assert.Equal(t, "d", results[1].DocID)
	assert.Equal(t, "c", results[2].DocID)
}

func TestTopKUnbounded(t *testing.T) {
	top := NewTopK(0)
	for i := 0; i < 10; i++ {
		top.Push(ScoredDoc{DocID: string(rune('a' + i)), Score: float64(i)})
	}
	results := top.Results()
	require.Len(t, results, 10)
	assert.Equal(t, "j", results[0].DocID)
	assert.Equal(t, "a", results[9].DocID)
}

func TestTopKTieBreaksByDocID(t *testing.T) {
	top := NewTopK(2)
	top.Push(ScoredDoc{DocID: "c3", Score: 0.5})
	top.Push(ScoredDoc{DocID: "c1", Score: 0.5})
	top.Push(ScoredDoc{DocID: "c2", Score: 0.5})

	results := top.Results()
	require.Len(t, results, 2)
	assert.Equal(t, "c1", results[0].DocID)
	assert.Equal(t, "c2", results[1].DocID)
}

func TestTopKFewerThanK(t *testing.T) {
	top := NewTopK(10)
	top.Push(ScoredDoc{DocID: "a", Score: 0.2})
	top.Push(ScoredDoc{DocID: "b", Score: 0.8})

	results := top.Results()
	require.Len(t, results, 2)
	assert.Equal(t, "b", results[0].DocID)
}

func TestTopKMatchesFullSort(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	docs := make([]ScoredDoc, 200)
	for i := range docs {
		// duplicate scores on purpose so the tie-break is exercised
		docs[i] = ScoredDoc{
			DocID: string(rune('a'+i%26)) + string(rune('a'+i/26)),
			Score: float64(rng.Intn(20)) / 10,
		}
	}

	const k = 25
	top := NewTopK(k)
	for _, sd := range docs {
		top.Push(sd)
	}

	sorted := make([]ScoredDoc, len(docs))
	copy(sorted, docs)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].DocID < sorted[j].DocID
	})

	assert.Equal(t, sorted[:k], top.Results())
}
