package handler

import (
	"google.golang.org/protobuf/types/known/timestamppb"

	chatv1 "gochat/api/chat/v1"
	"gochat/internal/chat/service"
)

func toUser(u *service.UserView) *chatv1.User {
	if u == nil {
		return nil
	}
	handle := u.Handle
	if handle == "" {
		handle = unknownHandle(u.ID)
	}
	return &chatv1.User{ID: u.ID, Handle: handle}
}

func toMessage(m *service.MessageView) *chatv1.Message {
	if m == nil {
		return nil
	}
	out := &chatv1.Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		SenderHandle:   m.SenderHandle,
		Content:        m.Content,
		FileURL:        m.FileURL,
		FileName:       m.FileName,
		IsImage:        m.IsImage,
		IsAudio:        m.IsAudio,
		IsMe:           m.IsMe,
		IsDeleted:      m.IsDeleted,
		ParentID:       m.ParentID,
		ParentContent:  m.ParentContent,
		ParentSender:   m.ParentSender,
		ReadBy:         m.ReadBy,
		CreatedAt:      timestamppb.New(m.CreatedAt),
	}
	for _, r := range m.Reactions {
		out.Reactions = append(out.Reactions, &chatv1.Reaction{
			Emoji:       r.Emoji,
			Count:       int32(r.Count),
			UserIDs:     r.UserIDs,
			ReactedByMe: r.ReactedByMe,
		})
	}
	return out
}

func toConversation(c *service.ConversationView) *chatv1.Conversation {
	if c == nil {
		return nil
	}
	out := &chatv1.Conversation{
		ID:               c.ID,
		CreatedAt:        timestamppb.New(c.CreatedAt),
		LastMessage:      toMessage(c.LastMessage),
		OtherParticipant: toUser(c.OtherParticipant),
		UnreadCount:      c.UnreadCount,
		IsSelf:           c.IsSelf,
	}
	for i := range c.Participants {
		out.Participants = append(out.Participants, toUser(&c.Participants[i]))
	}
	return out
}

func toChatRequest(r *service.RequestView) *chatv1.ChatRequest {
	if r == nil {
		return nil
	}
	out := &chatv1.ChatRequest{
		ID:        r.ID,
		Sender:    toUser(&r.Sender),
		Receiver:  toUser(&r.Receiver),
		Accepted:  r.Accepted,
		CreatedAt: timestamppb.New(r.CreatedAt),
	}
	if r.AcceptedAt != nil {
		out.AcceptedAt = timestamppb.New(*r.AcceptedAt)
	}
	return out
}
