package messaging

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mountain-sentinel/config"
	"mountain-sentinel/internal/logger"
	"mountain-sentinel/internal/model"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName    = "mountainsentinel.events"
	DLXExchangeName = "mountainsentinel.events.dlx"

	QueueSOSAlerts    = "queue.sos_alerts"
	QueueReportEvents = "queue.report_events"

	QueueSOSAlertsDLQ    = "queue.sos_alerts.dlq"
	QueueReportEventsDLQ = "queue.report_events.dlq"

	reconnectDelay = 5 * time.Second
	publishTimeout = 5 * time.Second
	prefetchCount  = 10
	dlqMessageTTL  = int64(24 * time.Hour / time.Millisecond)
)

type QueueConfig struct {
	QueueName     string
	RoutingKeys   []string
	DLQName       string
	DLQRoutingKey string
}

var QueueConfigs = []QueueConfig{
	{
		QueueName:     QueueSOSAlerts,
		RoutingKeys:   []string{model.RoutingKeySOSTriggered},
		DLQName:       QueueSOSAlertsDLQ,
		DLQRoutingKey: "dlq.sos_alerts",
	},
	{
		QueueName: QueueReportEvents,
		RoutingKeys: []string{
			model.RoutingKeyReportSubmitted,
			model.RoutingKeyReportApproved,
			model.RoutingKeyReportDeleted,
		},
		DLQName:       QueueReportEventsDLQ,
		DLQRoutingKey: "dlq.report_events",
	},
}

type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	url     string
	mu      sync.RWMutex
	done    chan struct{}
}

func NewRabbitMQ(cfg config.RabbitMQConfig) (*RabbitMQ, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%s/", cfg.User, cfg.Password, cfg.Host, cfg.Port)

	rmq := &RabbitMQ{
		url:  url,
		done: make(chan struct{}),
	}

	if err := rmq.connect(); err != nil {
		return nil, err
	}

	go rmq.handleReconnect()

	return rmq, nil
}

func (r *RabbitMQ) connect() error {
	var err error

	r.conn, err = amqp.Dial(r.url)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	r.channel, err = r.conn.Channel()
	if err != nil {
		r.conn.Close()
		return fmt.Errorf("channel: %w", err)
	}

	if err := r.channel.Qos(prefetchCount, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}

	for _, name := range []string{ExchangeName, DLXExchangeName} {
		err = r.channel.ExchangeDeclare(
			name,
			"topic",
			true,  // durable
			false, // auto-deleted
			false, // internal
			false, // no-wait
			nil,
		)
		if err != nil {
			return fmt.Errorf("exchange declare %s: %w", name, err)
		}
	}

	for _, qc := range QueueConfigs {
		_, err = r.channel.QueueDeclare(
			qc.DLQName,
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			amqp.Table{"x-message-ttl": dlqMessageTTL},
		)
		if err != nil {
			return fmt.Errorf("dlq declare %s: %w", qc.DLQName, err)
		}
		if err := r.channel.QueueBind(qc.DLQName, qc.DLQRoutingKey, DLXExchangeName, false, nil); err != nil {
			return fmt.Errorf("dlq bind %s: %w", qc.DLQName, err)
		}

		_, err = r.channel.QueueDeclare(
			qc.QueueName,
			true,
			false,
			false,
			false,
			amqp.Table{
				"x-dead-letter-exchange":    DLXExchangeName,
				"x-dead-letter-routing-key": qc.DLQRoutingKey,
			},
		)
		if err != nil {
			return fmt.Errorf("queue declare %s: %w", qc.QueueName, err)
		}
		for _, key := range qc.RoutingKeys {
			if err := r.channel.QueueBind(qc.QueueName, key, ExchangeName, false, nil); err != nil {
				return fmt.Errorf("bind %s->%s: %w", qc.QueueName, key, err)
			}
		}
	}

	logger.Component("rabbitmq").Info("connected with DLQ configuration")
	return nil
}

func (r *RabbitMQ) handleReconnect() {
	log := logger.Component("rabbitmq")
	for {
		r.mu.RLock()
		closed := r.conn.NotifyClose(make(chan *amqp.Error, 1))
		r.mu.RUnlock()

		select {
		case <-r.done:
			return
		case err := <-closed:
			if err != nil {
				log.WithError(err).Warn("disconnected")
			}

			r.mu.Lock()
			for {
				select {
				case <-r.done:
					r.mu.Unlock()
					return
				default:
				}
				if err := r.connect(); err != nil {
					log.WithError(err).Warn("reconnect failed")
					time.Sleep(reconnectDelay)
					continue
				}
				break
			}
			r.mu.Unlock()
		}
	}
}

// Publish sends a persistent JSON message to the event exchange. messageID
// lets consumers drop redeliveries.
func (r *RabbitMQ) Publish(ctx context.Context, messageID, routingKey string, body []byte) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.channel == nil {
		return fmt.Errorf("channel not available")
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err := r.channel.PublishWithContext(
		ctx,
		ExchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    messageID,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func (r *RabbitMQ) ConsumeQueue(queueName string) (<-chan amqp.Delivery, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.channel == nil {
		return nil, fmt.Errorf("channel not available")
	}

	msgs, err := r.channel.Consume(
		queueName,
		"",    // consumer tag (auto-generated)
		false, // auto-ack (manual for retry support)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", queueName, err)
	}

	return msgs, nil
}

func (r *RabbitMQ) Close() {
	close(r.done)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		r.conn.Close()
	}

	logger.Component("rabbitmq").Info("connection closed")
}
