package chatv1

import (
	"google.golang.org/protobuf/types/known/timestamppb"
)

type User struct {
	ID     uint64 `json:"id"`
	Handle string `json:"handle"`
}

type Reaction struct {
	Emoji       string   `json:"emoji"`
	Count       int32    `json:"count"`
	UserIDs     []uint64 `json:"user_ids"`
	ReactedByMe bool     `json:"reacted_by_me"`
}

type Message struct {
	ID             uint64                 `json:"id"`
	ConversationID uint64                 `json:"conversation_id"`
	SenderID       uint64                 `json:"sender_id"`
	SenderHandle   string                 `json:"sender_handle"`
	Content        *string                `json:"content,omitempty"`
	FileURL        *string                `json:"file_url,omitempty"`
	FileName       *string                `json:"file_name,omitempty"`
	IsImage        bool                   `json:"is_image"`
	IsAudio        bool                   `json:"is_audio"`
	IsMe           bool                   `json:"is_me"`
	IsDeleted      bool                   `json:"is_deleted"`
	ParentID       *uint64                `json:"parent_id,omitempty"`
	ParentContent  *string                `json:"parent_content,omitempty"`
	ParentSender   *string                `json:"parent_sender,omitempty"`
	Reactions      []*Reaction            `json:"reactions"`
	ReadBy         []uint64               `json:"read_by"`
	CreatedAt      *timestamppb.Timestamp `json:"created_at"`
}

type Conversation struct {
	ID               uint64                 `json:"id"`
	Participants     []*User                `json:"participants"`
	CreatedAt        *timestamppb.Timestamp `json:"created_at"`
	LastMessage      *Message               `json:"last_message,omitempty"`
	OtherParticipant *User                  `json:"other_participant,omitempty"`
	UnreadCount      int64                  `json:"unread_count"`
	IsSelf           bool                   `json:"is_self"`
}

type ChatRequest struct {
	ID         uint64                 `json:"id"`
	Sender     *User                  `json:"sender"`
	Receiver   *User                  `json:"receiver"`
	Accepted   bool                   `json:"accepted"`
	CreatedAt  *timestamppb.Timestamp `json:"created_at"`
	AcceptedAt *timestamppb.Timestamp `json:"accepted_at,omitempty"`
}

type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

type SendMessageRequest struct {
	ConversationID uint64      `json:"conversation_id"`
	Content        string      `json:"content"`
	IsAudio        bool        `json:"is_audio"`
	ParentID       *uint64     `json:"parent_id,omitempty"`
	Attachment     *Attachment `json:"attachment,omitempty"`
}

type SendMessageResponse struct {
	Message *Message `json:"message"`
}

type ListMessagesRequest struct {
	ConversationID uint64 `json:"conversation_id"`
	Limit          int32  `json:"limit"`
}

type ListMessagesResponse struct {
	Messages []*Message `json:"messages"`
}

type MarkReadRequest struct {
	ConversationID uint64 `json:"conversation_id"`
}

type MarkReadResponse struct {
	Marked int64 `json:"marked"`
}

type DeleteMessageRequest struct {
	MessageID  uint64 `json:"message_id"`
	DeleteType string `json:"delete_type"`
}

type DeleteMessageResponse struct {
	DeleteType string `json:"delete_type"`
}

type ToggleReactionRequest struct {
	MessageID uint64 `json:"message_id"`
	Emoji     string `json:"emoji"`
}

type ToggleReactionResponse struct {
	MessageID uint64 `json:"message_id"`
	Emoji     string `json:"emoji"`
	Added     bool   `json:"added"`
}

type ListConversationsRequest struct{}

type ListConversationsResponse struct {
	Conversations []*Conversation `json:"conversations"`
}

type SendRequestRequest struct {
	ReceiverUsername string `json:"receiver_username"`
}

type SendRequestResponse struct {
	Request      *ChatRequest  `json:"request"`
	Created      bool          `json:"created"`
	Conversation *Conversation `json:"conversation,omitempty"`
}

type AcceptRequestRequest struct {
	RequestID uint64 `json:"request_id"`
}

type AcceptRequestResponse struct {
	Conversation *Conversation `json:"conversation"`
}

type RegisterRequest struct {
	Handle   string `json:"handle"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Handle   string `json:"handle"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type Profile struct {
	ID        uint64                 `json:"id"`
	Handle    string                 `json:"handle"`
	Email     string                 `json:"email"`
	FirstName string                 `json:"first_name"`
	LastName  string                 `json:"last_name"`
	ImageID   *string                `json:"image_id,omitempty"`
	CreatedAt *timestamppb.Timestamp `json:"created_at"`
}

// UpdateProfileRequest leaves nil fields unchanged.
type UpdateProfileRequest struct {
	Email     *string     `json:"email,omitempty"`
	FirstName *string     `json:"first_name,omitempty"`
	LastName  *string     `json:"last_name,omitempty"`
	Image     *Attachment `json:"image,omitempty"`
}

type UpdateProfileResponse struct {
	Profile *Profile `json:"profile"`
}
