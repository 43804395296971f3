package repository

import (
	"context"
	"database/sql"
	"fmt"

	"mountain-sentinel/internal/model"
)

type SOSRepository struct {
	db     *sql.DB
	outbox *OutboxRepository
}

func NewSOSRepository(db *sql.DB, outbox *OutboxRepository) *SOSRepository {
	return &SOSRepository{db: db, outbox: outbox}
}

// Create stores the alert and queues its sos.triggered event in one
// transaction.
func (r *SOSRepository) Create(ctx context.Context, alert *model.SOSAlert) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var lat, lng *float64
	if alert.Location != nil {
		lat, lng = &alert.Location.Lat, &alert.Location.Lng
	}
	query := `
		INSERT INTO sos_alerts (id, user_id, user_name, user_email, location_lat, location_lng,
			accuracy, source, triggered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = tx.ExecContext(ctx, query,
		alert.ID,
		alert.UserID,
		alert.UserName,
		alert.UserEmail,
		lat,
		lng,
		alert.Accuracy,
		alert.Source,
		alert.TriggeredAt,
	)
	if err != nil {
		return fmt.Errorf("insert sos alert: %w", err)
	}

	msg := model.SOSTriggeredMessage{
		AlertID:   alert.ID.String(),
		UserID:    alert.UserID,
		UserName:  alert.UserName,
		UserEmail: alert.UserEmail,
		Location:  alert.Location,
		Source:    string(alert.Source),
		Timestamp: alert.TriggeredAt.Unix(),
	}
	if err := r.outbox.CreateInTransaction(ctx, tx, model.RoutingKeySOSTriggered, msg); err != nil {
		return fmt.Errorf("outbox: %w", err)
	}

	return tx.Commit()
}
