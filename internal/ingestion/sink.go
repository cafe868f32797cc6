package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/coursehound/coursehound/internal/course"
	"github.com/coursehound/coursehound/internal/currency"
	pkgerrors "github.com/coursehound/coursehound/pkg/errors"
	"github.com/coursehound/coursehound/pkg/kafka"
	"github.com/coursehound/coursehound/pkg/metrics"
)

// Sink consumes course records and persists them. Malformed records are
// logged and skipped so the consumer keeps committing offsets; store and
// conversion failures propagate so the message is retried.
type Sink struct {
	writer    course.Writer
	converter currency.Converter
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewSink(writer course.Writer, converter currency.Converter, m *metrics.Metrics) *Sink {
	return &Sink{
		writer:    writer,
		converter: converter,
		metrics:   m,
		logger:    slog.Default().With("component", "ingestion-sink"),
	}
}

// HandleMessage implements the consumer callback for the course-ingest topic.
func (s *Sink) HandleMessage(ctx context.Context, key, value []byte) error {
	record, err := kafka.DecodeJSON[CourseRecord](value)
	if err != nil {
		s.logger.Warn("skipping undecodable record", "key", string(key), "error", err)
		return nil
	}
	if err := s.Ingest(ctx, &record); err != nil {
		if errors.Is(err, pkgerrors.ErrMalformedDocument) {
			s.logger.Warn("skipping malformed record", "id", record.ID, "error", err)
			return nil
		}
		return err
	}
	return nil
}

// Ingest validates the record, normalises its fee to EUR, and upserts the
// resulting course.
func (s *Sink) Ingest(ctx context.Context, record *CourseRecord) error {
	if err := ValidateRecord(record); err != nil {
		return err
	}

	c := record.Course()
	if s.converter != nil && c.Fees != "" {
		eur, err := currency.ConvertMax(ctx, s.converter, c.Fees)
		if err != nil {
			return fmt.Errorf("normalising fee for %s: %w", c.ID, err)
		}
		c.FeesEUR = eur
	}

	if err := s.writer.Upsert(ctx, c); err != nil {
		return fmt.Errorf("storing course %s: %w", c.ID, err)
	}
	if s.metrics != nil {
		s.metrics.CoursesIngestedTotal.Inc()
	}
	s.logger.Debug("course ingested", "id", c.ID, "name", c.Name)
	return nil
}
