package course

import "context"

// Store is the read side of the corpus. List must return courses in a
// stable, reproducible order: vocabulary term IDs depend on it.
type Store interface {
	// List returns every course ordered by ID.
	List(ctx context.Context) ([]Course, error)
	// Get returns a single course by ID or pkgerrors.ErrCourseNotFound.
	Get(ctx context.Context, id string) (*Course, error)
	// Count returns the total corpus size, including courses whose indexed
	// fields are empty.
	Count(ctx context.Context) (int, error)
}

// Writer is the ingestion side of the corpus.
type Writer interface {
	Upsert(ctx context.Context, c Course) error
}
