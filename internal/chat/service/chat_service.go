package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"gochat/internal/chat/repository"
	"gochat/internal/common"
	"gochat/internal/crypto"
	"gochat/internal/dbmongo"
	"gochat/internal/dbmysql"
	"gochat/internal/metrics"
)

// DeleteType selects between hiding a message for everyone and hiding it for the caller only.
type DeleteType string

const (
	DeleteForEveryone DeleteType = "for_everyone"
	DeleteForMe       DeleteType = "for_me"
)

// ParseDeleteType maps anything other than "for_everyone" to DeleteForMe.
func ParseDeleteType(s string) DeleteType {
	if DeleteType(strings.TrimSpace(s)) == DeleteForEveryone {
		return DeleteForEveryone
	}
	return DeleteForMe
}

// UserDirectory resolves identities owned by the users component.
type UserDirectory interface {
	GetByHandle(ctx context.Context, handle string) (*dbmysql.User, error)
	GetByIDs(ctx context.Context, userIDs []uint64) (map[uint64]*dbmysql.User, error)
}

type AttachmentInput struct {
	Filename    string
	ContentType string
	Reader      io.Reader
}

type SendMessageInput struct {
	ConversationID uint64
	SenderID       uint64
	Content        string
	Attachment     *AttachmentInput
	IsAudio        bool
	ParentID       *uint64
}

type ReactionResult struct {
	MessageID uint64 `json:"message_id"`
	Emoji     string `json:"emoji"`
	Added     bool   `json:"added"`
}

type ChatService interface {
	SendMessage(ctx context.Context, in SendMessageInput) (*MessageView, error)
	ListMessages(ctx context.Context, conversationID, viewerID uint64, limit int) ([]*MessageView, error)
	MarkRead(ctx context.Context, conversationID, readerID uint64) (int64, error)
	DeleteMessage(ctx context.Context, messageID, actorID uint64, deleteType string) (DeleteType, error)
	ToggleReaction(ctx context.Context, messageID, userID uint64, emoji string) (*ReactionResult, error)
}

type ChatOptions struct {
	MediaBaseURL string
	DefaultEmoji string
	HistoryLimit int
}

type chatService struct {
	messages      repository.MessageRepository
	conversations repository.ConversationRepository
	users         UserDirectory
	attachments   dbmongo.AttachmentStore
	codec         *crypto.Codec
	publisher     common.Publisher
	opts          ChatOptions
	log           *zap.Logger
}

// NewChatService accepts a nil attachment store (attachments disabled) and a nil publisher.
func NewChatService(
	messages repository.MessageRepository,
	conversations repository.ConversationRepository,
	users UserDirectory,
	attachments dbmongo.AttachmentStore,
	codec *crypto.Codec,
	publisher common.Publisher,
	opts ChatOptions,
	log *zap.Logger,
) ChatService {
	if opts.DefaultEmoji == "" {
		opts.DefaultEmoji = "👍"
	}
	if opts.HistoryLimit <= 0 || opts.HistoryLimit > repository.MaxWindow {
		opts.HistoryLimit = repository.MaxWindow
	}
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &chatService{
		messages:      messages,
		conversations: conversations,
		users:         users,
		attachments:   attachments,
		codec:         codec,
		publisher:     publisher,
		opts:          opts,
		log:           log,
	}
}

func (s *chatService) SendMessage(ctx context.Context, in SendMessageInput) (*MessageView, error) {
	conv, err := s.requireParticipant(ctx, in.ConversationID, in.SenderID)
	if err != nil {
		return nil, err
	}

	// stored exactly as sent; whitespace only counts as empty
	if strings.TrimSpace(in.Content) == "" && in.Attachment == nil {
		return nil, common.ErrEmptyMessage
	}

	msg := &dbmysql.Message{
		ConversationID: in.ConversationID,
		SenderID:       in.SenderID,
		IsAudio:        in.IsAudio,
		ParentID:       in.ParentID,
	}
	msg.Content, err = s.codec.Encrypt(in.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt message: %w", err)
	}

	if in.Attachment != nil {
		if s.attachments == nil {
			return nil, common.ErrAttachmentsOff
		}
		att, err := s.attachments.Upload(ctx, in.Attachment.Filename, in.Attachment.ContentType, in.SenderID, in.Attachment.Reader)
		if err != nil {
			return nil, err
		}
		msg.AttachmentID = &att.ID
		msg.AttachmentName = &att.Filename
		msg.AttachmentContentType = &att.ContentType
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		if msg.AttachmentID != nil {
			if delErr := s.attachments.Delete(ctx, *msg.AttachmentID); delErr != nil {
				s.log.Warn("failed to remove orphaned attachment",
					zap.String("file_id", *msg.AttachmentID), zap.Error(delErr))
			}
		}
		return nil, err
	}
	metrics.MessagesCreated.WithLabelValues(messageKind(msg)).Inc()

	var parent *dbmysql.Message
	if msg.ParentID != nil {
		parent, err = s.messages.Get(ctx, *msg.ParentID)
		if err != nil {
			return nil, err
		}
	}

	ids := []uint64{msg.SenderID}
	if parent != nil {
		ids = append(ids, parent.SenderID)
	}
	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	p := &presenter{codec: s.codec, mediaBaseURL: s.opts.MediaBaseURL, viewerID: in.SenderID, users: users}
	view := p.message(msg, parent, nil, nil)

	s.notifyParticipants(ctx, conv, msg, p.user(msg.SenderID).Handle)

	s.log.Debug("message sent",
		zap.Uint64("conversation_id", msg.ConversationID),
		zap.Uint64("message_id", msg.ID),
		zap.Uint64("sender_id", msg.SenderID))
	return view, nil
}

func (s *chatService) ListMessages(ctx context.Context, conversationID, viewerID uint64, limit int) ([]*MessageView, error) {
	if _, err := s.requireParticipant(ctx, conversationID, viewerID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > s.opts.HistoryLimit {
		limit = s.opts.HistoryLimit
	}

	page, err := s.messages.ListVisible(ctx, conversationID, viewerID, limit)
	if err != nil {
		return nil, err
	}

	users, err := s.users.GetByIDs(ctx, messageUserIDs(page.Messages, page.Parents))
	if err != nil {
		return nil, err
	}

	p := &presenter{codec: s.codec, mediaBaseURL: s.opts.MediaBaseURL, viewerID: viewerID, users: users}
	views := make([]*MessageView, 0, len(page.Messages))
	for _, m := range page.Messages {
		var parent *dbmysql.Message
		if m.ParentID != nil {
			parent = page.Parents[*m.ParentID]
		}
		views = append(views, p.message(m, parent, page.Reactions[m.ID], page.ReadBy[m.ID]))
	}
	return views, nil
}

func (s *chatService) MarkRead(ctx context.Context, conversationID, readerID uint64) (int64, error) {
	if _, err := s.requireParticipant(ctx, conversationID, readerID); err != nil {
		return 0, err
	}
	return s.messages.MarkRead(ctx, conversationID, readerID)
}

func (s *chatService) DeleteMessage(ctx context.Context, messageID, actorID uint64, deleteType string) (DeleteType, error) {
	msg, err := s.messages.Get(ctx, messageID)
	if err != nil {
		return "", err
	}
	if _, err := s.requireParticipant(ctx, msg.ConversationID, actorID); err != nil {
		return "", err
	}

	dt := ParseDeleteType(deleteType)
	switch dt {
	case DeleteForEveryone:
		err = s.messages.DeleteForEveryone(ctx, messageID, actorID)
	default:
		err = s.messages.DeleteForMe(ctx, messageID, actorID)
	}
	if err != nil {
		return "", err
	}

	metrics.MessagesDeleted.WithLabelValues(string(dt)).Inc()
	return dt, nil
}

func (s *chatService) ToggleReaction(ctx context.Context, messageID, userID uint64, emoji string) (*ReactionResult, error) {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		emoji = s.opts.DefaultEmoji
	}
	if err := common.ValidateEmoji(emoji); err != nil {
		return nil, err
	}

	msg, err := s.messages.Get(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireParticipant(ctx, msg.ConversationID, userID); err != nil {
		return nil, err
	}

	added, err := s.messages.ToggleReaction(ctx, messageID, userID, emoji)
	if err != nil {
		return nil, err
	}

	result := "removed"
	if added {
		result = "added"
	}
	metrics.ReactionsToggled.WithLabelValues(result).Inc()
	return &ReactionResult{MessageID: messageID, Emoji: emoji, Added: added}, nil
}

// requireParticipant returns the conversation when userID is one of its members.
func (s *chatService) requireParticipant(ctx context.Context, conversationID, userID uint64) (*dbmysql.Conversation, error) {
	conv, err := s.conversations.Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if isMember(conv, userID) {
		return conv, nil
	}
	return nil, fmt.Errorf("user %d in conversation %d: %w", userID, conversationID, common.ErrNotAMember)
}

func (s *chatService) notifyParticipants(ctx context.Context, conv *dbmysql.Conversation, msg *dbmysql.Message, senderHandle string) {
	sender := msg.SenderID
	for _, id := range conv.ParticipantIDs() {
		if id == sender {
			continue
		}
		s.publisher.Publish(ctx, common.NotificationEvent{
			Type:          common.MessageType,
			UserID:        id,
			TriggerUserID: &sender,
			Header:        "New Message",
			Content:       fmt.Sprintf("%s sent you a message", senderHandle),
			Metadata: common.NotificationMetadata{
				"conversation_id": conv.ID,
				"message_id":      msg.ID,
			},
		})
	}
}

func messageKind(m *dbmysql.Message) string {
	switch {
	case m.IsAudio:
		return "audio"
	case m.AttachmentID != nil:
		return "file"
	case m.ParentID != nil:
		return "reply"
	default:
		return "text"
	}
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, common.NotificationEvent) {}
