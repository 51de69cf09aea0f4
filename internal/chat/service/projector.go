package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"gochat/internal/chat/repository"
	"gochat/internal/common"
	"gochat/internal/crypto"
	"gochat/internal/dbmysql"
)

// ConversationService derives the per-viewer fields of a conversation from the message store.
// Nothing it returns is stored denormalized.
type ConversationService interface {
	ListConversations(ctx context.Context, viewerID uint64) ([]*ConversationView, error)
	GetConversation(ctx context.Context, conversationID, viewerID uint64) (*ConversationView, error)
	Summarize(ctx context.Context, conv *dbmysql.Conversation, viewerID uint64) (*ConversationView, error)
}

var _ ConversationService = (*Projector)(nil)

type Projector struct {
	messages      repository.MessageRepository
	conversations repository.ConversationRepository
	users         UserDirectory
	codec         *crypto.Codec
	mediaBaseURL  string
	log           *zap.Logger
}

func NewProjector(
	messages repository.MessageRepository,
	conversations repository.ConversationRepository,
	users UserDirectory,
	codec *crypto.Codec,
	opts ChatOptions,
	log *zap.Logger,
) *Projector {
	return &Projector{
		messages:      messages,
		conversations: conversations,
		users:         users,
		codec:         codec,
		mediaBaseURL:  opts.MediaBaseURL,
		log:           log,
	}
}

// LastVisibleMessage returns nil when every message is deleted for everyone or hidden by the viewer.
func (p *Projector) LastVisibleMessage(ctx context.Context, conversationID, viewerID uint64) (*dbmysql.Message, error) {
	return p.messages.LastVisible(ctx, conversationID, viewerID)
}

// UnreadCount includes messages deleted for everyone and messages the viewer hid.
func (p *Projector) UnreadCount(ctx context.Context, conversationID, viewerID uint64) (int64, error) {
	return p.messages.UnreadCount(ctx, conversationID, viewerID)
}

// OtherParticipant picks the lowest member id that is not the viewer, or the viewer
// itself in a self-conversation.
func OtherParticipant(conv *dbmysql.Conversation, viewerID uint64) uint64 {
	var other uint64
	for _, id := range conv.ParticipantIDs() {
		if id != viewerID && (other == 0 || id < other) {
			other = id
		}
	}
	if other == 0 {
		return viewerID
	}
	return other
}

func (p *Projector) ListConversations(ctx context.Context, viewerID uint64) ([]*ConversationView, error) {
	convs, err := p.conversations.ListForUser(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	views := make([]*ConversationView, 0, len(convs))
	for _, conv := range convs {
		v, err := p.Summarize(ctx, conv, viewerID)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func (p *Projector) GetConversation(ctx context.Context, conversationID, viewerID uint64) (*ConversationView, error) {
	conv, err := p.conversations.Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !isMember(conv, viewerID) {
		return nil, fmt.Errorf("user %d in conversation %d: %w", viewerID, conversationID, common.ErrNotAMember)
	}
	return p.Summarize(ctx, conv, viewerID)
}

func (p *Projector) Summarize(ctx context.Context, conv *dbmysql.Conversation, viewerID uint64) (*ConversationView, error) {
	last, err := p.LastVisibleMessage(ctx, conv.ID, viewerID)
	if err != nil {
		return nil, err
	}
	unread, err := p.UnreadCount(ctx, conv.ID, viewerID)
	if err != nil {
		return nil, err
	}

	var parent *dbmysql.Message
	if last != nil && last.ParentID != nil {
		parent, err = p.messages.Get(ctx, *last.ParentID)
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
	}

	ids := conv.ParticipantIDs()
	if last != nil {
		ids = append(ids, last.SenderID)
	}
	if parent != nil {
		ids = append(ids, parent.SenderID)
	}
	users, err := p.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	pr := &presenter{codec: p.codec, mediaBaseURL: p.mediaBaseURL, viewerID: viewerID, users: users}
	other := pr.user(OtherParticipant(conv, viewerID))

	v := &ConversationView{
		ID:               conv.ID,
		CreatedAt:        conv.CreatedAt,
		OtherParticipant: &other,
		UnreadCount:      unread,
		IsSelf:           len(conv.Participants) == 1,
	}
	for _, id := range conv.ParticipantIDs() {
		v.Participants = append(v.Participants, pr.user(id))
	}
	if last != nil {
		v.LastMessage = pr.message(last, parent, nil, nil)
	}
	return v, nil
}

func isMember(conv *dbmysql.Conversation, userID uint64) bool {
	for _, id := range conv.ParticipantIDs() {
		if id == userID {
			return true
		}
	}
	return false
}
