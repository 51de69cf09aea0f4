package notif

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"gochat/internal/common"
	"gochat/internal/dbmysql"
)

type DatabaseNotificationObserver struct {
	repo dbmysql.NotificationRepository
}

func NewDatabaseNotificationObserver(repo dbmysql.NotificationRepository) *DatabaseNotificationObserver {
	return &DatabaseNotificationObserver{
		repo: repo,
	}
}

func (d *DatabaseNotificationObserver) Name() string {
	return "database_observer"
}

func (d *DatabaseNotificationObserver) Update(ctx context.Context, event common.NotificationEvent) error {
	notification := &dbmysql.Notification{
		ID:            uuid.NewString(),
		UserID:        event.UserID,
		Type:          string(event.Type),
		Header:        event.Header,
		Content:       event.Content,
		Status:        string(common.StatusPending),
		Metadata:      datatypes.JSONMap(event.Metadata),
		TriggerUserID: event.TriggerUserID,
	}

	if err := d.repo.Create(ctx, notification); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}

	return nil
}

// LogNotificationObserver writes one structured line per event.
type LogNotificationObserver struct {
	log *zap.Logger
}

func NewLogNotificationObserver(log *zap.Logger) *LogNotificationObserver {
	return &LogNotificationObserver{log: log}
}

func (l *LogNotificationObserver) Name() string {
	return "log_observer"
}

func (l *LogNotificationObserver) Update(_ context.Context, event common.NotificationEvent) error {
	fields := []zap.Field{
		zap.String("type", string(event.Type)),
		zap.Uint64("user_id", event.UserID),
		zap.String("header", event.Header),
	}
	if event.TriggerUserID != nil {
		fields = append(fields, zap.Uint64("trigger_user_id", *event.TriggerUserID))
	}
	l.log.Info("notification", fields...)
	return nil
}
