package benchmark

import (
	"fmt"
	"strings"
	"testing"

	"github.com/coursehound/coursehound/internal/course"
	"github.com/coursehound/coursehound/internal/indexer/invindex"
	"github.com/coursehound/coursehound/internal/indexer/textproc"
	"github.com/coursehound/coursehound/internal/indexer/vocab"
	"github.com/coursehound/coursehound/internal/searcher/retriever"
)

var sampleDescriptions = []string{
	"This masters programme covers machine learning, statistical inference, and optimization methods for large scale data analysis.",
	"Students study distributed systems, database internals, and information retrieval with a focus on practical engineering.",
	"The course combines economics, econometrics, and quantitative finance with modern computational techniques.",
	"An interdisciplinary degree spanning molecular biology, bioinformatics, and computational genomics research.",
	"Applied mathematics with numerical analysis, differential equations, and scientific computing laboratories.",
}

func benchCorpus(n int) []course.Course {
	courses := make([]course.Course, n)
	for i := range courses {
		courses[i] = course.Course{
			ID:          fmt.Sprintf("course_%d", i+1),
			Description: sampleDescriptions[i%len(sampleDescriptions)],
		}
	}
	return courses
}

func descSelector(c course.Course) string { return c.Description }

func BenchmarkTokens(b *testing.B) {
	texts := map[string]string{
		"short":  "machine learning",
		"medium": sampleDescriptions[0],
		"long":   strings.Repeat(sampleDescriptions[1]+" ", 50),
	}
	for name, text := range texts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				tokens := textproc.Tokens(text)
				_ = tokens
			}
		})
	}
}

func BenchmarkBuildIndices(b *testing.B) {
	for _, size := range []int{100, 1000, 5000} {
		courses := benchCorpus(size)
		b.Run(fmt.Sprintf("docs_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				v := vocab.Build(courses, descSelector)
				boolean := invindex.BuildBoolean(courses, v, descSelector)
				weighted := invindex.BuildWeighted(courses, v, descSelector, len(courses))
				_, _ = boolean, weighted
			}
		})
	}
}

func BenchmarkRetrieveAndRank(b *testing.B) {
	courses := benchCorpus(5000)
	v := vocab.Build(courses, descSelector)
	boolean := invindex.BuildBoolean(courses, v, descSelector)
	weighted := invindex.BuildWeighted(courses, v, descSelector, len(courses))

	queries := map[string]string{
		"single_term": "learning",
		"conjunction": "machine learning optimization",
		"no_match":    "machine genomics finance",
	}
	for name, query := range queries {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				candidates := retriever.Retrieve(query, v, boolean)
				ranked := retriever.RankByCosine(query, v, weighted, candidates, 10)
				_ = ranked
			}
		})
	}
}

func BenchmarkTopK(b *testing.B) {
	docs := make([]retriever.ScoredDoc, 10000)
	for i := range docs {
		docs[i] = retriever.ScoredDoc{
			DocID: fmt.Sprintf("course_%d", i),
			Score: float64(i%997) / 997,
		}
	}
	for _, k := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("k_%d", k), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				top := retriever.NewTopK(k)
				for _, sd := range docs {
					top.Push(sd)
				}
				_ = top.Results()
			}
		})
	}
}
