package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"wellness-step-by-step/client-form/events"
	"wellness-step-by-step/client-form/utils"
)

const GroupID = "client-form-audit"

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// SubmissionConsumer copies submission events from Kafka into the audit
// index so they can be searched.
type SubmissionConsumer struct {
	reader     messageReader
	es         utils.ElasticsearchClient
	index      string
	logger     logrus.FieldLogger
	retryDelay time.Duration
	shutdown   chan struct{}
	done       chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
	mu        sync.Mutex
	started   bool
}

func NewSubmissionConsumer(broker, topic, index string, es utils.ElasticsearchClient, logger logrus.FieldLogger) *SubmissionConsumer {
	return newSubmissionConsumer(utils.NewKafkaReader(broker, topic, GroupID), index, es, logger)
}

func newSubmissionConsumer(reader messageReader, index string, es utils.ElasticsearchClient, logger logrus.FieldLogger) *SubmissionConsumer {
	return &SubmissionConsumer{
		reader:     reader,
		es:         es,
		index:      index,
		logger:     logger,
		retryDelay: 5 * time.Second,
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (c *SubmissionConsumer) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		select {
		case <-c.shutdown:
			return
		default:
		}
		c.started = true
		c.logger.Info("Starting Kafka submission consumer...")
		go c.run(ctx)
	})
}

func (c *SubmissionConsumer) run(ctx context.Context) {
	defer close(c.done)
	for {
		select {
		case <-c.shutdown:
			return
		case <-ctx.Done():
			return
		default:
			c.processMessage(ctx)
		}
	}
}

// Stop closes the reader and waits for the read loop, if one was started.
// It is safe to call more than once.
func (c *SubmissionConsumer) Stop() {
	c.stopOnce.Do(func() {
		c.mu.Lock()
		close(c.shutdown)
		started := c.started
		c.mu.Unlock()

		if err := c.reader.Close(); err != nil {
			c.logger.WithError(err).Error("Error closing Kafka reader")
		}
		if started {
			<-c.done
		}
	})
}

func (c *SubmissionConsumer) processMessage(ctx context.Context) {
	msg, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
			return
		}
		c.logger.WithError(err).Warn("Kafka read error (will retry)")
		select {
		case <-time.After(c.retryDelay):
		case <-c.shutdown:
		case <-ctx.Done():
		}
		return
	}

	if err := c.handle(ctx, msg); err != nil {
		c.logger.WithFields(logrus.Fields{
			"partition": msg.Partition,
			"offset":    msg.Offset,
		}).WithError(err).Error("Failed to handle submission event")
	}
}

func (c *SubmissionConsumer) handle(ctx context.Context, msg kafka.Message) error {
	var event events.SubmissionEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal Kafka message: %w", err)
	}

	switch event.Event {
	case events.ClientCreated, events.ClientUpdated:
	default:
		c.logger.WithField("event", event.Event).Warn("Unknown event type")
		return nil
	}

	docID := fmt.Sprintf("%d-%d", msg.Partition, msg.Offset)
	if err := c.es.IndexDocument(ctx, c.index, docID, event); err != nil {
		return fmt.Errorf("failed to index submission event: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"event":     event.Event,
		"client_id": event.ID,
	}).Debug("Indexed submission event")
	return nil
}
