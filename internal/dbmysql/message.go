package dbmysql

import (
	"time"
)

// Message ordering uses ID, which the store assigns monotonically.
type Message struct {
	ID                    uint64    `gorm:"primaryKey;autoIncrement;column:message_id"`
	ConversationID        uint64    `gorm:"column:conversation_id;not null;index:idx_conversation_message,priority:1"`
	SenderID              uint64    `gorm:"column:sender_id;not null;index"`
	Content               string    `gorm:"column:content;type:text"`
	AttachmentID          *string   `gorm:"column:attachment_id;size:24"`
	AttachmentName        *string   `gorm:"column:attachment_name;size:255"`
	AttachmentContentType *string   `gorm:"column:attachment_content_type;size:100"`
	IsAudio               bool      `gorm:"column:is_audio;not null;default:false"`
	ParentID              *uint64   `gorm:"column:parent_id;index"`
	IsDeleted             bool      `gorm:"column:is_deleted;not null;default:false"`
	CreatedAt             time.Time `gorm:"column:created_at;autoCreateTime"`
}

// MessageDeletion marks a message as hidden for one viewer.
type MessageDeletion struct {
	MessageID uint64    `gorm:"primaryKey;column:message_id;autoIncrement:false"`
	UserID    uint64    `gorm:"primaryKey;column:user_id;autoIncrement:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

type MessageRead struct {
	MessageID uint64    `gorm:"primaryKey;column:message_id;autoIncrement:false"`
	UserID    uint64    `gorm:"primaryKey;column:user_id;autoIncrement:false;index"`
	ReadAt    time.Time `gorm:"column:read_at;autoCreateTime"`
}
