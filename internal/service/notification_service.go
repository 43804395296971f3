package service

import (
	"context"

	"mountain-sentinel/internal/messaging"
	"mountain-sentinel/internal/model"
	"mountain-sentinel/internal/repository"

	"github.com/google/uuid"
)

type NotificationService struct {
	notificationRepo *repository.NotificationRepository
	hub              *messaging.NotificationHub
}

func NewNotificationService(notificationRepo *repository.NotificationRepository, hub *messaging.NotificationHub) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		hub:              hub,
	}
}

func (s *NotificationService) List(ctx context.Context, recipient string) (*model.NotificationListResponse, error) {
	notifications, err := s.notificationRepo.GetByRecipient(ctx, recipient)
	if err != nil {
		return nil, err
	}

	unreadCount, err := s.notificationRepo.GetUnreadCount(ctx, recipient)
	if err != nil {
		return nil, err
	}

	return &model.NotificationListResponse{
		Notifications: notifications,
		UnreadCount:   unreadCount,
	}, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, id uuid.UUID, recipient string) error {
	return s.notificationRepo.MarkAsRead(ctx, id, recipient)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, recipient string) error {
	return s.notificationRepo.MarkAllAsRead(ctx, recipient)
}

func (s *NotificationService) RegisterClient(recipient string) *messaging.SSEClient {
	return s.hub.RegisterClient(recipient)
}

func (s *NotificationService) UnregisterClient(client *messaging.SSEClient) {
	s.hub.UnregisterClient(client)
}
