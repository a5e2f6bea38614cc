// Package events publishes client form submissions to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"wellness-step-by-step/client-form/models"
	"wellness-step-by-step/client-form/utils"
)

const (
	ClientCreated = "client_created"
	ClientUpdated = "client_updated"
)

// SubmissionEvent is the message written for every successful submission.
type SubmissionEvent struct {
	Event       string    `json:"event"`
	ID          int64     `json:"id,omitempty"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Session     string    `json:"session"`
	SubmittedAt time.Time `json:"submitted_at"`
}

func NewSubmissionEvent(mode models.Mode, record models.Record, session string, at time.Time) SubmissionEvent {
	event := SubmissionEvent{
		Event:       ClientCreated,
		Name:        record.Name,
		Email:       record.Email,
		Session:     session,
		SubmittedAt: at.UTC(),
	}
	if id, ok := mode.ID(); ok {
		event.Event = ClientUpdated
		event.ID = id
	}
	return event
}

type Publisher struct {
	producer utils.KafkaProducer
	topic    string
	logger   logrus.FieldLogger
	timeout  time.Duration
}

func NewPublisher(producer utils.KafkaProducer, topic string, logger logrus.FieldLogger) *Publisher {
	return &Publisher{producer: producer, topic: topic, logger: logger, timeout: 5 * time.Second}
}

func (p *Publisher) Publish(ctx context.Context, event SubmissionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal submission event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var key []byte
	if event.ID != 0 {
		key = []byte(strconv.FormatInt(event.ID, 10))
	}
	if err := p.producer.SendMessage(ctx, p.topic, key, data); err != nil {
		return fmt.Errorf("failed to send Kafka message: %w", err)
	}
	return nil
}

// PublishAsync sends the event in the background and only logs failures.
// The returned channel closes once the send has finished.
func (p *Publisher) PublishAsync(event SubmissionEvent) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := p.Publish(context.Background(), event); err != nil {
			p.logger.WithFields(logrus.Fields{
				"topic": p.topic,
				"event": event.Event,
			}).WithError(err).Warn("submission event not published")
		}
	}()
	return done
}
