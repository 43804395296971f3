package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"mountain-sentinel/internal/model"

	"github.com/google/uuid"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	query := `
		INSERT INTO notifications (id, recipient, report_id, kind, title, message,
			location_lat, location_lng, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	var lat, lng *float64
	if n.Location != nil {
		lat, lng = &n.Location.Lat, &n.Location.Lng
	}
	_, err := r.db.ExecContext(ctx, query,
		n.ID,
		n.Recipient,
		n.ReportID,
		n.Kind,
		n.Title,
		n.Message,
		lat,
		lng,
		n.IsRead,
		n.CreatedAt,
	)
	return err
}

// GetByRecipient returns the latest 50 notifications for recipient.
func (r *NotificationRepository) GetByRecipient(ctx context.Context, recipient string) ([]model.Notification, error) {
	query := `
		SELECT id, recipient, report_id, kind, title, message, location_lat, location_lng, is_read, created_at
		FROM notifications
		WHERE recipient = $1
		ORDER BY created_at DESC
		LIMIT 50
	`
	rows, err := r.db.QueryContext(ctx, query, recipient)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := []model.Notification{}
	for rows.Next() {
		var n model.Notification
		var reportID uuid.NullUUID
		var lat, lng sql.NullFloat64
		err := rows.Scan(
			&n.ID,
			&n.Recipient,
			&reportID,
			&n.Kind,
			&n.Title,
			&n.Message,
			&lat,
			&lng,
			&n.IsRead,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if reportID.Valid {
			id := reportID.UUID
			n.ReportID = &id
		}
		if lat.Valid && lng.Valid {
			n.Location = &model.Location{Lat: lat.Float64, Lng: lng.Float64}
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

func (r *NotificationRepository) GetUnreadCount(ctx context.Context, recipient string) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE recipient = $1 AND is_read = FALSE`
	var count int
	if err := r.db.QueryRowContext(ctx, query, recipient).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *NotificationRepository) MarkAsRead(ctx context.Context, id uuid.UUID, recipient string) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND recipient = $2`
	result, err := r.db.ExecContext(ctx, query, id, recipient)
	if err != nil {
		return err
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, recipient string) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE recipient = $1 AND is_read = FALSE`
	_, err := r.db.ExecContext(ctx, query, recipient)
	return err
}

func (r *NotificationRepository) IsMessageProcessed(ctx context.Context, messageID string) (bool, error) {
	query := `SELECT 1 FROM processed_messages WHERE message_id = $1`
	var exists int
	err := r.db.QueryRowContext(ctx, query, messageID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *NotificationRepository) MarkMessageProcessed(ctx context.Context, messageID string) error {
	query := `INSERT INTO processed_messages (message_id, processed_at) VALUES ($1, $2) ON CONFLICT (message_id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, messageID, time.Now())
	return err
}
