package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"mountain-sentinel/internal/logger"
	"mountain-sentinel/internal/model"

	"github.com/avast/retry-go"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	maxRetryAttempts = 3
	initialDelay     = 1 * time.Second
	maxDelay         = 30 * time.Second
)

// NotificationStore persists inbox entries and remembers which broker
// messages were already handled.
type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
	IsMessageProcessed(ctx context.Context, messageID string) (bool, error)
	MarkMessageProcessed(ctx context.Context, messageID string) error
}

type QueueSource interface {
	ConsumeQueue(queueName string) (<-chan amqp.Delivery, error)
}

// EventConsumer turns broker events into inbox notifications.
type EventConsumer struct {
	source QueueSource
	store  NotificationStore
	hub    *NotificationHub
	now    func() time.Time
	delay  time.Duration
	done   chan struct{}
	wg     sync.WaitGroup
}

func NewEventConsumer(source QueueSource, store NotificationStore, hub *NotificationHub) *EventConsumer {
	return &EventConsumer{
		source: source,
		store:  store,
		hub:    hub,
		now:    time.Now,
		delay:  initialDelay,
		done:   make(chan struct{}),
	}
}

func (c *EventConsumer) Start() {
	c.wg.Add(2)
	go c.consumeQueue(QueueSOSAlerts, c.handleSOSTriggered)
	go c.consumeQueue(QueueReportEvents, c.handleReportEvent)
	logger.Component("consumer").Info("consumers started")
}

func (c *EventConsumer) consumeQueue(queueName string, handler func(context.Context, amqp.Delivery) error) {
	defer c.wg.Done()
	log := logger.Component("consumer").WithField("queue", queueName)

	for {
		select {
		case <-c.done:
			log.Info("stopping")
			return
		default:
		}

		msgs, err := c.source.ConsumeQueue(queueName)
		if err != nil {
			log.WithError(err).Warn("consume failed, retrying in 5s")
			select {
			case <-c.done:
				return
			case <-time.After(reconnectDelay):
			}
			continue
		}

		log.Info("listening for messages")
		c.processQueue(queueName, msgs, handler)
	}
}

func (c *EventConsumer) processQueue(queueName string, msgs <-chan amqp.Delivery, handler func(context.Context, amqp.Delivery) error) {
	for {
		select {
		case <-c.done:
			return
		case msg, ok := <-msgs:
			if !ok {
				logger.Component("consumer").WithField("queue", queueName).Warn("channel closed, reconnecting")
				return
			}
			c.processMessageWithRetry(queueName, msg, handler)
		}
	}
}

// processMessageWithRetry acks handled and duplicate messages. A message
// that still fails after the retries is nacked without requeue, which
// routes it to the queue's DLQ.
func (c *EventConsumer) processMessageWithRetry(queueName string, msg amqp.Delivery, handler func(context.Context, amqp.Delivery) error) {
	ctx := context.Background()
	log := logger.Component("consumer").WithField("queue", queueName)

	messageID := msg.MessageId
	if messageID == "" {
		messageID = fmt.Sprintf("%x", msg.Body[:min(32, len(msg.Body))])
	}
	log = log.WithField("message_id", messageID)

	processed, err := c.store.IsMessageProcessed(ctx, messageID)
	if err != nil {
		log.WithError(err).Warn("idempotency check failed")
	}
	if processed {
		log.Debug("already processed")
		msg.Ack(false)
		return
	}

	err = retry.Do(
		func() error {
			return handler(ctx, msg)
		},
		retry.Attempts(maxRetryAttempts),
		retry.Delay(c.delay),
		retry.MaxDelay(maxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			log.WithError(err).WithField("attempt", n+1).Warn("retrying")
		}),
	)
	if err != nil {
		log.WithError(err).Error("failed, sending to DLQ")
		msg.Nack(false, false)
		return
	}

	if err := c.store.MarkMessageProcessed(ctx, messageID); err != nil {
		log.WithError(err).Warn("mark processed failed")
	}
	msg.Ack(false)
}

func (c *EventConsumer) handleSOSTriggered(ctx context.Context, msg amqp.Delivery) error {
	var event model.SOSTriggeredMessage
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		logger.Component("consumer").WithError(err).Warn("sos: bad json")
		return nil
	}

	where := "Location unavailable."
	if event.Location != nil {
		where = fmt.Sprintf("Location: %.6f, %.6f.", event.Location.Lat, event.Location.Lng)
	}
	n := &model.Notification{
		ID:        uuid.New(),
		Recipient: model.RecipientAdmin,
		Kind:      model.KindSOS,
		Title:     "SOS Emergency Alert",
		Message:   fmt.Sprintf("%s (%s) needs immediate help. %s", event.UserName, event.UserEmail, where),
		Location:  event.Location,
		CreatedAt: c.now(),
	}
	return c.deliver(ctx, n)
}

func (c *EventConsumer) handleReportEvent(ctx context.Context, msg amqp.Delivery) error {
	var event model.ReportEventMessage
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		logger.Component("consumer").WithError(err).Warn("report event: bad json")
		return nil
	}
	reportID, err := uuid.Parse(event.ReportID)
	if err != nil {
		logger.Component("consumer").WithError(err).Warn("report event: bad report_id")
		return nil
	}

	n := &model.Notification{
		ID:        uuid.New(),
		ReportID:  &reportID,
		CreatedAt: c.now(),
	}
	citizen := !event.IsAdminReport && event.ReporterID != "" && event.ReporterID != model.AdminReporterID

	switch msg.RoutingKey {
	case model.RoutingKeyReportSubmitted:
		n.Recipient = model.RecipientAdmin
		n.Kind = model.KindReportSubmitted
		n.Title = "New Incident Report"
		n.Message = fmt.Sprintf("%s reported an incident in %s: %s", event.ReporterName, event.Barangay, event.Description)
	case model.RoutingKeyReportApproved:
		if !citizen {
			return nil
		}
		n.Recipient = event.ReporterID
		n.Kind = model.KindReportApproved
		n.Title = "Report Approved"
		n.Message = fmt.Sprintf("Your report \"%s\" is now visible on the public map.", event.Description)
	case model.RoutingKeyReportDeleted:
		if !citizen {
			return nil
		}
		n.Recipient = event.ReporterID
		n.Kind = model.KindReportDeleted
		n.Title = "Report Removed"
		n.Message = fmt.Sprintf("Your report \"%s\" was removed by an administrator.", event.Description)
	default:
		logger.Component("consumer").WithField("routing_key", msg.RoutingKey).Warn("unknown report event")
		return nil
	}
	return c.deliver(ctx, n)
}

func (c *EventConsumer) deliver(ctx context.Context, n *model.Notification) error {
	if err := c.store.Create(ctx, n); err != nil {
		return err
	}
	if c.hub != nil {
		c.hub.Send(n)
	}
	return nil
}

func (c *EventConsumer) Stop() {
	close(c.done)
	c.wg.Wait()
	logger.Component("consumer").Info("consumers stopped")
}
