package notif

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"gochat/internal/common"
	"gochat/internal/config"
	"gochat/internal/dbmysql"
)

var _ common.Publisher = (*NotificationService)(nil)

type NotificationService struct {
	manager *NotificationManager
	repo    dbmysql.NotificationRepository
	enabled bool
	log     *zap.Logger
}

func NewNotificationService(cfg *config.Config, repo dbmysql.NotificationRepository, log *zap.Logger) *NotificationService {
	manager := NewNotificationManager(cfg.Notification.Workers, cfg.Notification.ChannelBufferSize, log)

	manager.Subscribe(NewDatabaseNotificationObserver(repo))
	manager.Subscribe(NewLogNotificationObserver(log))

	return &NotificationService{
		manager: manager,
		repo:    repo,
		enabled: cfg.Notification.Enabled,
		log:     log,
	}
}

// Publish queues event for asynchronous delivery. Invalid events and events published
// while notifications are disabled are dropped.
func (s *NotificationService) Publish(ctx context.Context, event common.NotificationEvent) {
	if !s.enabled {
		return
	}
	if err := validateEvent(event); err != nil {
		s.log.Warn("dropping invalid notification event", zap.Error(err))
		return
	}
	s.manager.NotifyAsync(event)
}

func (s *NotificationService) GetUserNotifications(ctx context.Context, userID uint64, limit, offset int) ([]*common.NotificationResponse, error) {
	notifications, err := s.repo.ByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}

	responses := make([]*common.NotificationResponse, len(notifications))
	for i, n := range notifications {
		responses[i] = &common.NotificationResponse{
			ID:        n.ID,
			Type:      n.Type,
			Header:    n.Header,
			Content:   n.Content,
			Status:    n.Status,
			Metadata:  common.NotificationMetadata(n.Metadata),
			CreatedAt: n.CreatedAt,
			ReadAt:    n.ReadAt,
		}
	}

	return responses, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, notificationID string, userID uint64) error {
	return s.repo.MarkAsRead(ctx, notificationID, userID)
}

// DeleteNotification removes one of userID's notifications. Someone else's id reads as not found.
func (s *NotificationService) DeleteNotification(ctx context.Context, notificationID string, userID uint64) error {
	n, err := s.repo.ByID(ctx, notificationID)
	if err != nil {
		return err
	}
	if n.UserID != userID {
		return fmt.Errorf("notification %s: %w", notificationID, common.ErrNotFound)
	}
	return s.repo.Delete(ctx, notificationID)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint64) (int64, error) {
	return s.repo.UnreadCount(ctx, userID)
}

func (s *NotificationService) Shutdown() {
	s.manager.Shutdown()
}

func validateEvent(event common.NotificationEvent) error {
	if event.UserID == 0 {
		return errors.New("user_id is required")
	}

	if !event.Type.IsValid() {
		return fmt.Errorf("unknown notification type %q", event.Type)
	}

	if event.Header == "" {
		return errors.New("header is required")
	}

	if event.Content == "" {
		return errors.New("content is required")
	}

	return nil
}
