package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"mountain-sentinel/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSOSStore struct {
	alerts []*model.SOSAlert
	err    error
}

func (f *fakeSOSStore) Create(ctx context.Context, alert *model.SOSAlert) error {
	if f.err != nil {
		return f.err
	}
	f.alerts = append(f.alerts, alert)
	return nil
}

func TestNotifySOS(t *testing.T) {
	store := &fakeSOSStore{}
	svc := NewSOSService(store)
	alert := &model.SOSAlert{ID: uuid.New(), UserID: "user-1", Source: model.SourceNone, TriggeredAt: time.Now()}

	require.NoError(t, svc.NotifySOS(context.Background(), alert))
	require.Len(t, store.alerts, 1)
	assert.Same(t, alert, store.alerts[0])
}

func TestNotifySOS_StoreError(t *testing.T) {
	svc := NewSOSService(&fakeSOSStore{err: errors.New("db down")})

	err := svc.NotifySOS(context.Background(), &model.SOSAlert{ID: uuid.New()})
	assert.ErrorContains(t, err, "db down")
}
