package dbmysql

import (
	"time"
)

type ChatRequest struct {
	ID         uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SenderID   uint64     `gorm:"column:sender_id;not null;uniqueIndex:idx_sender_receiver,priority:1" json:"sender_id"`
	ReceiverID uint64     `gorm:"column:receiver_id;not null;uniqueIndex:idx_sender_receiver,priority:2;index" json:"receiver_id"`
	Accepted   bool       `gorm:"column:accepted;not null;default:false" json:"accepted"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	AcceptedAt *time.Time `gorm:"column:accepted_at" json:"accepted_at"`

	Sender   *User `gorm:"-" json:"sender,omitempty"`
	Receiver *User `gorm:"-" json:"receiver,omitempty"`
}
