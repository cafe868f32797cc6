package ingestion

import (
	"context"
	"fmt"

	"github.com/coursehound/coursehound/pkg/kafka"
)

// Publisher emits validated course records onto the ingest topic, keyed by
// course ID so updates for one course stay ordered.
type Publisher struct {
	producer *kafka.Producer
}

func NewPublisher(producer *kafka.Producer) *Publisher {
	return &Publisher{producer: producer}
}

func (p *Publisher) Publish(ctx context.Context, record *CourseRecord) error {
	if err := ValidateRecord(record); err != nil {
		return err
	}
	if err := p.producer.Publish(ctx, kafka.Event{Key: record.ID, Value: record}); err != nil {
		return fmt.Errorf("publishing course %s: %w", record.ID, err)
	}
	return nil
}
