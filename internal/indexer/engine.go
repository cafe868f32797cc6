// Package indexer owns the index build phase. The Engine builds or loads a
// vocabulary, boolean index, and weighted index for every indexed course
// field, persisting them as artifacts under the configured data directory.
// The build phase has exclusive write ownership; once Open returns, every
// published index is immutable and may be read concurrently without locks.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/coursehound/coursehound/internal/course"
	"github.com/coursehound/coursehound/internal/indexer/artifact"
	"github.com/coursehound/coursehound/internal/indexer/invindex"
	"github.com/coursehound/coursehound/internal/indexer/vocab"
	"github.com/coursehound/coursehound/pkg/config"
	pkgerrors "github.com/coursehound/coursehound/pkg/errors"
	"github.com/coursehound/coursehound/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// FieldIndex bundles the three artifacts of one indexed field.
type FieldIndex struct {
	Field    course.Field
	Vocab    *vocab.Vocabulary
	Boolean  *invindex.Boolean
	Weighted *invindex.Weighted
}

// Engine builds, persists, and serves the per-field indices.
type Engine struct {
	cfg       config.IndexConfig
	metrics   *metrics.Metrics
	logger    *slog.Logger
	fields    map[course.Field]*FieldIndex
	totalDocs int
}

// NewEngine creates an Engine. m may be nil when metrics are disabled.
func NewEngine(cfg config.IndexConfig, m *metrics.Metrics) (*Engine, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating index data directory: %w", err)
	}
	return &Engine{
		cfg:     cfg,
		metrics: m,
		logger:  slog.Default().With("component", "indexer"),
		fields:  make(map[course.Field]*FieldIndex),
	}, nil
}

// Open loads every field index from its persisted artifacts, rebuilding any
// field whose artifacts are absent, corrupt, or stale against the current
// corpus fingerprint. Field builds run in parallel; the pass over documents
// inside each field stays sequential so term IDs are deterministic.
func (e *Engine) Open(ctx context.Context, store course.Store) error {
	courses, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("listing corpus: %w", err)
	}
	fingerprint := artifact.Fingerprint(courses)
	e.totalDocs = len(courses)
	e.logger.Info("opening index engine",
		"data_dir", e.cfg.DataDir,
		"corpus_size", e.totalDocs,
		"fingerprint", fingerprint,
	)

	g, _ := errgroup.WithContext(ctx)
	built := make([]*FieldIndex, len(course.IndexedFields))
	for i, field := range course.IndexedFields {
		i, field := i, field
		g.Go(func() error {
			fi, err := e.buildOrLoad(field, courses, fingerprint)
			if err != nil {
				if e.metrics != nil {
					e.metrics.IndexBuildsTotal.WithLabelValues(string(field), "error").Inc()
				}
				return err
			}
			built[i] = fi
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	e.fields = make(map[course.Field]*FieldIndex, len(built))
	for _, fi := range built {
		e.fields[fi.Field] = fi
	}
	return nil
}

// Field returns the index bundle for a field.
func (e *Engine) Field(f course.Field) (*FieldIndex, error) {
	fi, ok := e.fields[f]
	if !ok {
		return nil, fmt.Errorf("%w: field %q has no index", pkgerrors.ErrInvalidQuery, f)
	}
	return fi, nil
}

// TotalDocs returns the corpus size N observed at Open time.
func (e *Engine) TotalDocs() int {
	return e.totalDocs
}

// Rebuild removes the persisted artifacts for every field and rebuilds them
// from the store.
func (e *Engine) Rebuild(ctx context.Context, store course.Store) error {
	for _, field := range course.IndexedFields {
		paths := e.artifactPaths(field)
		for _, path := range []string{paths.vocab, paths.boolean, paths.weighted} {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("removing artifact %s: %w", path, err)
			}
		}
	}
	return e.Open(ctx, store)
}

func (e *Engine) buildOrLoad(field course.Field, courses []course.Course, fingerprint string) (*FieldIndex, error) {
	paths := e.artifactPaths(field)

	fi, err := e.load(field, paths, fingerprint)
	if err == nil {
		e.logger.Info("field index loaded",
			"field", field,
			"terms", fi.Vocab.Len(),
		)
		if e.metrics != nil {
			e.metrics.IndexBuildsTotal.WithLabelValues(string(field), "loaded").Inc()
			e.metrics.VocabularyTerms.WithLabelValues(string(field)).Set(float64(fi.Vocab.Len()))
		}
		return fi, nil
	}
	switch {
	case errors.Is(err, os.ErrNotExist):
		e.logger.Info("field artifacts absent, building", "field", field)
	case errors.Is(err, pkgerrors.ErrStaleArtifact):
		e.logger.Warn("field artifacts stale, rebuilding", "field", field, "error", err)
	case errors.Is(err, pkgerrors.ErrCorruptArtifact):
		e.logger.Warn("field artifacts corrupt, rebuilding", "field", field, "error", err)
	default:
		return nil, err
	}

	return e.build(field, courses, fingerprint, paths)
}

func (e *Engine) load(field course.Field, paths fieldPaths, fingerprint string) (*FieldIndex, error) {
	v, err := artifact.LoadVocabulary(paths.vocab, field, fingerprint)
	if err != nil {
		return nil, err
	}
	boolean, err := artifact.LoadBoolean(paths.boolean, field, fingerprint)
	if err != nil {
		return nil, err
	}
	weighted, err := artifact.LoadWeighted(paths.weighted, field, fingerprint)
	if err != nil {
		return nil, err
	}
	return &FieldIndex{Field: field, Vocab: v, Boolean: boolean, Weighted: weighted}, nil
}

func (e *Engine) build(field course.Field, courses []course.Course, fingerprint string, paths fieldPaths) (*FieldIndex, error) {
	start := time.Now()
	selector, err := course.Selector(field)
	if err != nil {
		return nil, err
	}

	v := vocab.Build(courses, selector)
	boolean := invindex.BuildBoolean(courses, v, selector)
	weighted := invindex.BuildWeighted(courses, v, selector, len(courses))

	if err := artifact.WriteVocabulary(paths.vocab, field, fingerprint, v); err != nil {
		return nil, fmt.Errorf("writing vocabulary for %s: %w", field, err)
	}
	if err := artifact.WriteBoolean(paths.boolean, field, fingerprint, boolean); err != nil {
		return nil, fmt.Errorf("writing boolean index for %s: %w", field, err)
	}
	if err := artifact.WriteWeighted(paths.weighted, field, fingerprint, weighted); err != nil {
		return nil, fmt.Errorf("writing weighted index for %s: %w", field, err)
	}

	elapsed := time.Since(start)
	e.logger.Info("field index built",
		"field", field,
		"terms", v.Len(),
		"duration", elapsed,
	)
	if e.metrics != nil {
		e.metrics.IndexBuildDuration.WithLabelValues(string(field)).Observe(elapsed.Seconds())
		e.metrics.IndexBuildsTotal.WithLabelValues(string(field), "built").Inc()
		e.metrics.VocabularyTerms.WithLabelValues(string(field)).Set(float64(v.Len()))
	}
	return &FieldIndex{Field: field, Vocab: v, Boolean: boolean, Weighted: weighted}, nil
}

type fieldPaths struct {
	vocab    string
	boolean  string
	weighted string
}

func (e *Engine) artifactPaths(field course.Field) fieldPaths {
	return fieldPaths{
		vocab:    filepath.Join(e.cfg.DataDir, fmt.Sprintf("vocabulary_%s.idx", field)),
		boolean:  filepath.Join(e.cfg.DataDir, fmt.Sprintf("boolean_%s.idx", field)),
		weighted: filepath.Join(e.cfg.DataDir, fmt.Sprintf("tfidf_%s.idx", field)),
	}
}
