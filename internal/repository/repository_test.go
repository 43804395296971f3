package repository

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"mountain-sentinel/config"
	"mountain-sentinel/internal/database"
	"mountain-sentinel/internal/model"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEmbeddedPort = 5439

var testDSN string

// TestMain uses SENTINEL_TEST_DATABASE_DSN when set and otherwise starts an
// embedded PostgreSQL for the package. Tests skip when neither is available.
func TestMain(m *testing.M) {
	testDSN = os.Getenv("SENTINEL_TEST_DATABASE_DSN")
	var stop func()
	if testDSN == "" {
		testDSN, stop = startEmbedded()
	}
	code := m.Run()
	if stop != nil {
		stop()
	}
	os.Exit(code)
}

func startEmbedded() (string, func()) {
	dir, err := os.MkdirTemp("", "sentinel-pg-")
	if err != nil {
		return "", nil
	}
	cfg := config.DatabaseConfig{
		Host:     "localhost",
		Port:     fmt.Sprint(testEmbeddedPort),
		User:     "postgres",
		Password: "postgres",
		DBName:   "sentinel_test",
	}
	pg := embeddedpostgres.NewDatabase(embeddedpostgres.DefaultConfig().
		Port(testEmbeddedPort).
		Database(cfg.DBName).
		Username(cfg.User).
		Password(cfg.Password).
		RuntimePath(filepath.Join(dir, "runtime")).
		DataPath(filepath.Join(dir, "data")).
		StartTimeout(time.Minute).
		Logger(io.Discard))
	if err := pg.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "embedded postgres unavailable: %v\n", err)
		os.RemoveAll(dir)
		return "", nil
	}
	return cfg.DSN(), func() {
		_ = pg.Stop()
		os.RemoveAll(dir)
	}
}

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	if testDSN == "" {
		t.Skip("no PostgreSQL: set SENTINEL_TEST_DATABASE_DSN or allow the embedded server to start")
	}
	db, err := database.Open(testDSN)
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	for _, table := range []string{"reports", "outbox_messages", "sos_alerts", "notifications", "processed_messages"} {
		_, err := db.SQL.Exec("TRUNCATE " + table)
		require.NoError(t, err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newReport(status model.ReportStatus) *model.Report {
	return &model.Report{
		ID:            uuid.New(),
		Status:        status,
		Priority:      model.PriorityMedium,
		Description:   "Fallen tree",
		Street:        "Session Road",
		Barangay:      "Session Road Area",
		City:          model.DefaultCity,
		ReporterID:    "user-1",
		ReporterName:  "Juan",
		ReporterEmail: "juan@example.com",
		Location:      &model.Location{Lat: 16.41, Lng: 120.59},
	}
}

func TestReportRepository_Lifecycle(t *testing.T) {
	db := openTestDB(t)
	outbox := NewOutboxRepository(db.SQL)
	repo := NewReportRepository(db.SQL, outbox)
	ctx := context.Background()

	report := newReport(model.StatusPending)
	require.NoError(t, repo.Create(ctx, report))
	assert.False(t, report.CreatedAt.IsZero())

	got, err := repo.FindByID(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)
	require.NotNil(t, got.Location)
	assert.InDelta(t, 16.41, got.Location.Lat, 1e-9)

	desc := "Tree cleared"
	updated, err := repo.Update(ctx, report.ID, &model.UpdateReportRequest{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, desc, updated.Description)
	assert.Equal(t, model.StatusPending, updated.Status)

	changed, err := repo.Approve(ctx, report.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.Approve(ctx, report.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	approved, err := repo.FindByStatus(ctx, model.StatusApproved)
	require.NoError(t, err)
	require.Len(t, approved, 1)

	require.NoError(t, repo.Delete(ctx, report.ID))
	_, err = repo.FindByID(ctx, report.ID)
	assert.ErrorIs(t, err, ErrReportNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, report.ID), ErrReportNotFound)

	_, err = repo.Approve(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrReportNotFound)

	stats, err := outbox.GetStats(ctx)
	require.NoError(t, err)
	// submitted, approved, deleted
	assert.Equal(t, 3, stats["pending"])
}

func TestReportRepository_ConcurrentApproveChangesOnce(t *testing.T) {
	db := openTestDB(t)
	outbox := NewOutboxRepository(db.SQL)
	repo := NewReportRepository(db.SQL, outbox)
	ctx := context.Background()

	report := newReport(model.StatusPending)
	require.NoError(t, repo.Create(ctx, report))

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		changes int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			changed, err := repo.Approve(ctx, report.ID)
			assert.NoError(t, err)
			if changed {
				mu.Lock()
				changes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, changes)

	stats, err := outbox.GetStats(ctx)
	require.NoError(t, err)
	// submitted and one approval
	assert.Equal(t, 2, stats["pending"])
}

func TestReportRepository_UpdateSetsOnlyGivenFields(t *testing.T) {
	db := openTestDB(t)
	repo := NewReportRepository(db.SQL, NewOutboxRepository(db.SQL))
	ctx := context.Background()

	report := newReport(model.StatusApproved)
	require.NoError(t, repo.Create(ctx, report))

	street, barangay, image := "Harrison Road", "Harrison-Claudio Carantes", "https://img.example/1.jpg"
	updated, err := repo.Update(ctx, report.ID, &model.UpdateReportRequest{
		Street:   &street,
		Barangay: &barangay,
		ImageURL: &image,
	})
	require.NoError(t, err)
	assert.Equal(t, street, updated.Street)
	assert.Equal(t, barangay, updated.Barangay)
	require.NotNil(t, updated.ImageURL)
	assert.Equal(t, image, *updated.ImageURL)
	assert.Equal(t, report.Description, updated.Description)
	assert.Equal(t, report.ReporterName, updated.ReporterName)
	assert.Equal(t, model.StatusApproved, updated.Status)

	_, err = repo.Update(ctx, uuid.New(), &model.UpdateReportRequest{Street: &street})
	assert.ErrorIs(t, err, ErrReportNotFound)
}

func TestReportRepository_FindAllNewestFirst(t *testing.T) {
	db := openTestDB(t)
	repo := NewReportRepository(db.SQL, NewOutboxRepository(db.SQL))
	ctx := context.Background()

	older := newReport(model.StatusPending)
	require.NoError(t, repo.Create(ctx, older))
	time.Sleep(10 * time.Millisecond)
	newer := newReport(model.StatusApproved)
	require.NoError(t, repo.Create(ctx, newer))

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer.ID, all[0].ID)
	assert.Equal(t, older.ID, all[1].ID)
}

func TestOutboxRepository_ClaimAndPublish(t *testing.T) {
	db := openTestDB(t)
	outbox := NewOutboxRepository(db.SQL)
	repo := NewReportRepository(db.SQL, outbox)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newReport(model.StatusPending)))

	tx, err := outbox.BeginTx(ctx)
	require.NoError(t, err)
	msgs, err := outbox.ClaimPending(ctx, tx, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, model.RoutingKeyReportSubmitted, msgs[0].RoutingKey)
	require.NoError(t, outbox.MarkAsPublished(ctx, tx, msgs[0].ID))
	require.NoError(t, tx.Commit())

	stats, err := outbox.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats["published"])
	assert.Zero(t, stats["pending"])
}

func TestNotificationRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewNotificationRepository(db.SQL)
	ctx := context.Background()

	n := &model.Notification{
		ID:        uuid.New(),
		Recipient: model.RecipientAdmin,
		Kind:      model.KindSOS,
		Title:     "SOS Emergency Alert",
		Message:   "Maria needs help",
		CreatedAt: time.Now(),
	}
	require.NoError(t, repo.Create(ctx, n))

	list, err := repo.GetByRecipient(ctx, model.RecipientAdmin)
	require.NoError(t, err)
	require.Len(t, list, 1)

	count, err := repo.GetUnreadCount(ctx, model.RecipientAdmin)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	assert.ErrorIs(t, repo.MarkAsRead(ctx, n.ID, "user-1"), ErrNotificationNotFound)
	require.NoError(t, repo.MarkAsRead(ctx, n.ID, model.RecipientAdmin))

	count, err = repo.GetUnreadCount(ctx, model.RecipientAdmin)
	require.NoError(t, err)
	assert.Zero(t, count)

	processed, err := repo.IsMessageProcessed(ctx, "msg-1")
	require.NoError(t, err)
	assert.False(t, processed)
	require.NoError(t, repo.MarkMessageProcessed(ctx, "msg-1"))
	require.NoError(t, repo.MarkMessageProcessed(ctx, "msg-1"))
	processed, err = repo.IsMessageProcessed(ctx, "msg-1")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestSOSRepository_WritesOutbox(t *testing.T) {
	db := openTestDB(t)
	outbox := NewOutboxRepository(db.SQL)
	repo := NewSOSRepository(db.SQL, outbox)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.SOSAlert{
		ID:          uuid.New(),
		UserID:      "user-1",
		UserName:    "Maria",
		UserEmail:   "maria@example.com",
		Source:      model.SourceNone,
		TriggeredAt: time.Now(),
	}))

	stats, err := outbox.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats["pending"])
}
