// Package kafka forwards sale events and purchase confirmations to Kafka.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	confirmationDatamodel "github.com/frahmantamala/subscription-sales/internal/core/datamodel/confirmation"
	"github.com/frahmantamala/subscription-sales/internal/core/events"
)

const ConfirmationTopic = "sales.confirmation-email"

type message struct {
	EventID    string      `json:"event_id"`
	EventType  string      `json:"event_type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

type Publisher struct {
	producer    sarama.SyncProducer
	topicPrefix string
	logger      *slog.Logger
}

func NewPublisher(producer sarama.SyncProducer, topicPrefix string, logger *slog.Logger) *Publisher {
	return &Publisher{
		producer:    producer,
		topicPrefix: topicPrefix,
		logger:      logger,
	}
}

// NewSyncProducer connects to the brokers with acknowledgements from all replicas.
func NewSyncProducer(brokers []string) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect kafka producer: %w", err)
	}
	return producer, nil
}

func (p *Publisher) Topic(name string) string {
	return p.topicPrefix + name
}

func (p *Publisher) send(topic, key string, value []byte) error {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send message to %s: %w", topic, err)
	}

	p.logger.Debug("kafka message sent",
		"topic", topic,
		"key", key,
		"partition", partition,
		"offset", offset)
	return nil
}

// HandleEvent publishes a bus event to the topic named after its type.
// Events are keyed by order id so one order's events stay ordered.
func (p *Publisher) HandleEvent(ctx context.Context, event events.Event) error {
	body, err := json.Marshal(message{
		EventID:    event.EventID(),
		EventType:  event.EventType(),
		OccurredAt: event.OccurredAt(),
		Data:       event,
	})
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", event.EventID(), err)
	}

	key := event.EventID()
	switch e := event.(type) {
	case *events.SaleCompletedEvent:
		key = e.OrderID
	case *events.SaleFailedEvent:
		if e.OrderID != "" {
			key = e.OrderID
		}
	}

	if err := p.send(p.Topic(event.EventType()), key, body); err != nil {
		p.logger.Error("failed to publish event to kafka",
			"error", err,
			"event_type", event.EventType(),
			"event_id", event.EventID())
		return err
	}
	return nil
}

// SendConfirmation hands the confirmation payload to the email pipeline.
func (p *Publisher) SendConfirmation(ctx context.Context, c *confirmationDatamodel.PurchaseConfirmation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.send(p.Topic(ConfirmationTopic), c.OrderID.String(), c.Payload)
}

func (p *Publisher) RegisterEventHandlers(eventBus *events.EventBus) {
	handled := []string{events.EventTypeSaleCompleted, events.EventTypeSaleFailed}
	for _, eventType := range handled {
		eventBus.Subscribe(eventType, p.HandleEvent)
	}

	p.logger.Info("kafka event handlers registered", "handlers", handled)
}

func (p *Publisher) Close() error {
	return p.producer.Close()
}
