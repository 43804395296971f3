package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"mountain-sentinel/internal/model"

	"github.com/google/uuid"
)

var ErrReportNotFound = errors.New("report not found")

// ChangeChannel is the LISTEN/NOTIFY channel signalled on every committed
// report mutation.
const ChangeChannel = "report_changes"

const reportColumns = `id, status, priority, description, street, barangay, city, landmark,
	reporter_id, reporter_name, reporter_email, location_lat, location_lng, location_accuracy,
	image_url, id_image_url, is_admin_report, client_timestamp, created_at, updated_at`

type ChangeEvent struct {
	Op       string `json:"op"`
	ReportID string `json:"report_id"`
}

type ReportRepository struct {
	db     *sql.DB
	outbox *OutboxRepository
}

func NewReportRepository(db *sql.DB, outbox *OutboxRepository) *ReportRepository {
	return &ReportRepository{db: db, outbox: outbox}
}

// Create inserts report with its own Status. CreatedAt and UpdatedAt are
// filled from the database clock.
func (r *ReportRepository) Create(ctx context.Context, report *model.Report) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO reports (id, status, priority, description, street, barangay, city, landmark,
				reporter_id, reporter_name, reporter_email, location_lat, location_lng, location_accuracy,
				image_url, id_image_url, is_admin_report, client_timestamp, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, NOW(), NOW())
			RETURNING created_at, updated_at
		`
		var lat, lng *float64
		if report.Location != nil {
			lat, lng = &report.Location.Lat, &report.Location.Lng
		}
		err := tx.QueryRowContext(ctx, query,
			report.ID,
			report.Status,
			report.Priority,
			report.Description,
			report.Street,
			report.Barangay,
			report.City,
			report.Landmark,
			report.ReporterID,
			report.ReporterName,
			report.ReporterEmail,
			lat,
			lng,
			report.LocationAccuracy,
			report.ImageURL,
			report.IDImageURL,
			report.IsAdminReport,
			report.Timestamp,
		).Scan(&report.CreatedAt, &report.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert report: %w", err)
		}

		event := model.NewReportEvent(report, time.Now().Unix())
		key := model.RoutingKeyReportSubmitted
		if report.Status == model.StatusApproved {
			key = model.RoutingKeyReportApproved
		}
		if err := r.outbox.CreateInTransaction(ctx, tx, key, event); err != nil {
			return fmt.Errorf("outbox: %w", err)
		}
		return notifyChange(ctx, tx, "create", report.ID)
	})
}

// Update writes only the fields set in req and returns the stored report.
func (r *ReportRepository) Update(ctx context.Context, id uuid.UUID, req *model.UpdateReportRequest) (*model.Report, error) {
	sets := []string{}
	args := []interface{}{}
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if req.ReporterID != nil {
		add("reporter_id", *req.ReporterID)
	}
	if req.ReporterName != nil {
		add("reporter_name", *req.ReporterName)
	}
	if req.Description != nil {
		add("description", *req.Description)
	}
	if req.Street != nil {
		add("street", *req.Street)
	}
	if req.Barangay != nil {
		add("barangay", *req.Barangay)
	}
	if req.ImageURL != nil {
		add("image_url", *req.ImageURL)
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE reports SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), reportColumns)

	var updated *model.Report
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		report, err := scanReport(tx.QueryRowContext(ctx, query, args...))
		if err != nil {
			return err
		}
		updated = report
		return notifyChange(ctx, tx, "update", id)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Approve moves a pending report to approved. changed is false when the
// report was already approved.
func (r *ReportRepository) Approve(ctx context.Context, id uuid.UUID) (changed bool, err error) {
	err = r.withTx(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE reports SET status = $2, updated_at = NOW()
			WHERE id = $1 AND status = $3
			RETURNING ` + reportColumns
		report, err := scanReport(tx.QueryRowContext(ctx, query, id, model.StatusApproved, model.StatusPending))
		if errors.Is(err, ErrReportNotFound) {
			var exists bool
			if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM reports WHERE id = $1)`, id).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return ErrReportNotFound
			}
			return nil
		}
		if err != nil {
			return err
		}

		changed = true
		event := model.NewReportEvent(report, time.Now().Unix())
		if err := r.outbox.CreateInTransaction(ctx, tx, model.RoutingKeyReportApproved, event); err != nil {
			return fmt.Errorf("outbox: %w", err)
		}
		return notifyChange(ctx, tx, "approve", id)
	})
	return changed, err
}

func (r *ReportRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		query := `DELETE FROM reports WHERE id = $1 RETURNING ` + reportColumns
		report, err := scanReport(tx.QueryRowContext(ctx, query, id))
		if err != nil {
			return err
		}
		event := model.NewReportEvent(report, time.Now().Unix())
		if err := r.outbox.CreateInTransaction(ctx, tx, model.RoutingKeyReportDeleted, event); err != nil {
			return fmt.Errorf("outbox: %w", err)
		}
		return notifyChange(ctx, tx, "delete", id)
	})
}

func (r *ReportRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`
	return scanReport(r.db.QueryRowContext(ctx, query, id))
}

// FindAll returns every report, newest first.
func (r *ReportRepository) FindAll(ctx context.Context) ([]model.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports ORDER BY created_at DESC, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReports(rows)
}

func (r *ReportRepository) FindByStatus(ctx context.Context, status model.ReportStatus) ([]model.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE status = $1 ORDER BY created_at DESC, id`
	rows, err := r.db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReports(rows)
}

func (r *ReportRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func notifyChange(ctx context.Context, tx *sql.Tx, op string, id uuid.UUID) error {
	payload, err := json.Marshal(ChangeEvent{Op: op, ReportID: id.String()})
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `SELECT pg_notify($1, $2)`, ChangeChannel, string(payload)); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReport(row rowScanner) (*model.Report, error) {
	report := &model.Report{}
	var landmark, imageURL, idImageURL sql.NullString
	var lat, lng, accuracy sql.NullFloat64
	var ts sql.NullTime

	err := row.Scan(
		&report.ID,
		&report.Status,
		&report.Priority,
		&report.Description,
		&report.Street,
		&report.Barangay,
		&report.City,
		&landmark,
		&report.ReporterID,
		&report.ReporterName,
		&report.ReporterEmail,
		&lat,
		&lng,
		&accuracy,
		&imageURL,
		&idImageURL,
		&report.IsAdminReport,
		&ts,
		&report.CreatedAt,
		&report.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}

	if landmark.Valid {
		report.Landmark = &landmark.String
	}
	if lat.Valid && lng.Valid {
		report.Location = &model.Location{Lat: lat.Float64, Lng: lng.Float64}
	}
	if accuracy.Valid {
		report.LocationAccuracy = &accuracy.Float64
	}
	if imageURL.Valid {
		report.ImageURL = &imageURL.String
	}
	if idImageURL.Valid {
		report.IDImageURL = &idImageURL.String
	}
	if ts.Valid {
		report.Timestamp = &ts.Time
	}
	return report, nil
}

func scanReports(rows *sql.Rows) ([]model.Report, error) {
	reports := []model.Report{}
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *report)
	}
	return reports, rows.Err()
}
