package service

import (
	"context"
	"fmt"

	"mountain-sentinel/internal/logger"
	"mountain-sentinel/internal/model"
)

type SOSStore interface {
	Create(ctx context.Context, alert *model.SOSAlert) error
}

// SOSService records emergency alerts. The broker event is queued in the
// same transaction as the alert.
type SOSService struct {
	store SOSStore
}

func NewSOSService(store SOSStore) *SOSService {
	return &SOSService{store: store}
}

func (s *SOSService) NotifySOS(ctx context.Context, alert *model.SOSAlert) error {
	if err := s.store.Create(ctx, alert); err != nil {
		return fmt.Errorf("store sos alert: %w", err)
	}
	logger.Component("sos").WithField("alert_id", alert.ID).
		WithField("user_id", alert.UserID).
		WithField("source", alert.Source).
		Warn("SOS alert raised")
	return nil
}
