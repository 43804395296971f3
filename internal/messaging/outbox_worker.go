package messaging

import (
	"context"
	"sync"
	"time"

	"mountain-sentinel/internal/logger"
	"mountain-sentinel/internal/repository"
)

const (
	workerInterval     = 1 * time.Second
	batchSize          = 50
	cleanupInterval    = 1 * time.Hour
	publishedRetention = 24 * time.Hour
)

// Publisher is the broker side of the outbox.
type Publisher interface {
	Publish(ctx context.Context, messageID, routingKey string, body []byte) error
}

// OutboxWorker relays committed outbox rows to the broker.
type OutboxWorker struct {
	outboxRepo *repository.OutboxRepository
	publisher  Publisher
	done       chan struct{}
	wg         sync.WaitGroup
}

func NewOutboxWorker(outboxRepo *repository.OutboxRepository, publisher Publisher) *OutboxWorker {
	return &OutboxWorker{
		outboxRepo: outboxRepo,
		publisher:  publisher,
		done:       make(chan struct{}),
	}
}

func (w *OutboxWorker) Start() {
	w.wg.Add(2)
	go w.processLoop()
	go w.cleanupLoop()
	logger.Component("outbox").Info("started")
}

func (w *OutboxWorker) processLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(workerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.processPendingMessages()
		}
	}
}

// processPendingMessages claims one batch and publishes it. Rows stay locked
// until the batch's outcome is committed.
func (w *OutboxWorker) processPendingMessages() {
	log := logger.Component("outbox")
	ctx := context.Background()

	tx, err := w.outboxRepo.BeginTx(ctx)
	if err != nil {
		log.WithError(err).Error("begin tx")
		return
	}
	defer tx.Rollback()

	messages, err := w.outboxRepo.ClaimPending(ctx, tx, batchSize)
	if err != nil {
		log.WithError(err).Error("get pending")
		return
	}
	if len(messages) == 0 {
		return
	}

	for _, msg := range messages {
		entry := log.WithField("message_id", msg.ID).WithField("routing_key", msg.RoutingKey)
		if err := w.publisher.Publish(ctx, msg.ID.String(), msg.RoutingKey, msg.Payload); err != nil {
			entry.WithError(err).Warn("publish failed")
			if err := w.outboxRepo.MarkAsFailed(ctx, tx, msg.ID, err.Error()); err != nil {
				entry.WithError(err).Error("mark failed")
			}
			continue
		}
		if err := w.outboxRepo.MarkAsPublished(ctx, tx, msg.ID); err != nil {
			entry.WithError(err).Error("mark published")
		}
	}

	if err := tx.Commit(); err != nil {
		log.WithError(err).Error("commit batch")
	}
}

func (w *OutboxWorker) cleanupLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			deleted, err := w.outboxRepo.DeletePublished(context.Background(), publishedRetention)
			if err != nil {
				logger.Component("outbox").WithError(err).Error("cleanup")
			} else if deleted > 0 {
				logger.Component("outbox").WithField("deleted", deleted).Info("cleaned old messages")
			}
		}
	}
}

func (w *OutboxWorker) Stop() {
	close(w.done)
	w.wg.Wait()
	logger.Component("outbox").Info("stopped")
}

func (w *OutboxWorker) GetStats(ctx context.Context) (map[string]int, error) {
	return w.outboxRepo.GetStats(ctx)
}
