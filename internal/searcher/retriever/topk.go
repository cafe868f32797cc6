package retriever

import "container/heap"

// ScoredDoc pairs a document with its relevance score.
type ScoredDoc struct {
	DocID string  `json:"doc_id"`
	Score float64 `json:"score"`
}

// TopK keeps the k highest-scoring documents using a bounded min-heap:
// push while under capacity, then replace the minimum whenever a better
// candidate arrives. Selection costs O(D log k) instead of the O(D log D)
// of a full sort. Ties are broken by document ID so results are
// reproducible.
type TopK struct {
	k     int
	items minHeap
}

// NewTopK creates a selector for the k best documents. k <= 0 means
// unbounded: every pushed document is kept.
func NewTopK(k int) *TopK {
	return &TopK{k: k}
}

// Push offers a document to the selection.
func (t *TopK) Push(doc ScoredDoc) {
	if t.k <= 0 || t.items.Len() < t.k {
		heap.Push(&t.items, doc)
		return
	}
	if less(t.items[0], doc) {
		t.items[0] = doc
		heap.Fix(&t.items, 0)
	}
}

// Results drains the heap and returns the selection ordered by descending
// score, ties ascending by document ID. The TopK is empty afterwards.
func (t *TopK) Results() []ScoredDoc {
	out := make([]ScoredDoc, t.items.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&t.items).(ScoredDoc)
	}
	return out
}

// Len returns the number of documents currently held.
func (t *TopK) Len() int {
	return t.items.Len()
}

// less orders documents worst-first: lower score, or equal score with the
// later document ID.
func less(a, b ScoredDoc) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.DocID > b.DocID
}

type minHeap []ScoredDoc

func (h minHeap) Len() int           { return len(h) }
func (h minHeap) Less(i, j int) bool { return less(h[i], h[j]) }
func (h minHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *minHeap) Push(x any) {
	*h = append(*h, x.(ScoredDoc))
}

func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
