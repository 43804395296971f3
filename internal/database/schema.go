package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// The structs below describe table shape only. Reads and writes go through
// the repositories' SQL.

type reportRow struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	Status           string    `gorm:"type:varchar(16);not null;index"`
	Priority         string    `gorm:"type:varchar(16);not null"`
	Description      string    `gorm:"type:text;not null"`
	Street           string    `gorm:"type:text;not null"`
	Barangay         string    `gorm:"type:text;not null"`
	City             string    `gorm:"type:text;not null"`
	Landmark         *string   `gorm:"type:text"`
	ReporterID       string    `gorm:"type:varchar(128);not null;index"`
	ReporterName     string    `gorm:"type:text;not null"`
	ReporterEmail    string    `gorm:"type:text;not null"`
	LocationLat      *float64
	LocationLng      *float64
	LocationAccuracy *float64
	ImageURL         *string `gorm:"column:image_url;type:text"`
	IDImageURL       *string `gorm:"column:id_image_url;type:text"`
	IsAdminReport    bool    `gorm:"not null;default:false"`
	ClientTimestamp  *time.Time
	CreatedAt        time.Time `gorm:"not null;index"`
	UpdatedAt        time.Time `gorm:"not null"`
}

func (reportRow) TableName() string { return "reports" }

type outboxRow struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	RoutingKey  string    `gorm:"type:varchar(64);not null"`
	Payload     []byte    `gorm:"type:jsonb;not null"`
	Status      string    `gorm:"type:varchar(16);not null;default:pending;index:idx_outbox_status_created,priority:1"`
	RetryCount  int       `gorm:"not null;default:0"`
	LastError   *string   `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"not null;default:now();index:idx_outbox_status_created,priority:2"`
	PublishedAt *time.Time
}

func (outboxRow) TableName() string { return "outbox_messages" }

type sosAlertRow struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID      string    `gorm:"type:varchar(128);not null;index"`
	UserName    string    `gorm:"type:text;not null"`
	UserEmail   string    `gorm:"type:text;not null"`
	LocationLat *float64
	LocationLng *float64
	Accuracy    *float64
	Source      string    `gorm:"type:varchar(16);not null"`
	TriggeredAt time.Time `gorm:"not null;index"`
}

func (sosAlertRow) TableName() string { return "sos_alerts" }

type notificationRow struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Recipient   string     `gorm:"type:varchar(128);not null;index:idx_notifications_recipient,priority:1"`
	ReportID    *uuid.UUID `gorm:"type:uuid"`
	Kind        string     `gorm:"type:varchar(32);not null"`
	Title       string     `gorm:"type:text;not null"`
	Message     string     `gorm:"type:text;not null"`
	LocationLat *float64
	LocationLng *float64
	IsRead      bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time `gorm:"not null;index:idx_notifications_recipient,priority:2"`
}

func (notificationRow) TableName() string { return "notifications" }

type processedMessageRow struct {
	MessageID   string    `gorm:"type:varchar(128);primaryKey"`
	ProcessedAt time.Time `gorm:"not null"`
}

func (processedMessageRow) TableName() string { return "processed_messages" }

// Migrate brings the schema up to date.
func (db *DB) Migrate() error {
	err := db.Gorm.AutoMigrate(
		&reportRow{},
		&outboxRow{},
		&sosAlertRow{},
		&notificationRow{},
		&processedMessageRow{},
	)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
