package common

import (
	"io"
	"time"
)

type NotificationType string

const (
	ChatRequestType     NotificationType = "chat_request"
	RequestAcceptedType NotificationType = "request_accepted"
	MessageType         NotificationType = "message"
	SystemType          NotificationType = "system"
)

func (t NotificationType) IsValid() bool {
	switch t {
	case ChatRequestType, RequestAcceptedType, MessageType, SystemType:
		return true
	}
	return false
}

type NotificationStatus string

const (
	StatusPending NotificationStatus = "pending"
	StatusRead    NotificationStatus = "read"
)

type NotificationMetadata map[string]interface{}

type NotificationEvent struct {
	Type          NotificationType
	UserID        uint64
	TriggerUserID *uint64
	Header        string
	Content       string
	Metadata      NotificationMetadata
}

type NotificationResponse struct {
	ID        string               `json:"id"`
	Type      string               `json:"type"`
	Header    string               `json:"header"`
	Content   string               `json:"content"`
	Status    string               `json:"status"`
	Metadata  NotificationMetadata `json:"metadata"`
	CreatedAt time.Time            `json:"created_at"`
	ReadAt    *time.Time           `json:"read_at,omitempty"`
}

// FileUpload is an incoming file before it reaches the attachment store.
type FileUpload struct {
	Filename    string
	ContentType string
	Reader      io.Reader
}

// ProfileUpdate is a partial update: nil fields are left as they are.
type ProfileUpdate struct {
	Email     *string
	FirstName *string
	LastName  *string
	Image     *FileUpload
}
