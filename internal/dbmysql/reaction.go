package dbmysql

import "time"

type MessageReaction struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement;column:id"`
	MessageID uint64    `gorm:"column:message_id;not null;uniqueIndex:idx_message_user_emoji,priority:1"`
	UserID    uint64    `gorm:"column:user_id;not null;uniqueIndex:idx_message_user_emoji,priority:2"`
	Emoji     string    `gorm:"column:emoji;size:64;not null;uniqueIndex:idx_message_user_emoji,priority:3"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
