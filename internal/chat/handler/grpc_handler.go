package handler

import (
	"bytes"
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	chatv1 "gochat/api/chat/v1"
	"gochat/internal/chat/service"
	"gochat/internal/common"
)

// GRPCHandler serves chat.v1.ChatService. Callers are identified by the auth interceptor.
type GRPCHandler struct {
	chatv1.UnimplementedChatServiceServer

	chat               service.ChatService
	conversations      service.ConversationService
	requests           service.RequestService
	maxAttachmentBytes int64
	log                *zap.Logger
}

func NewGRPCHandler(
	chat service.ChatService,
	conversations service.ConversationService,
	requests service.RequestService,
	maxAttachmentBytes int64,
	log *zap.Logger,
) *GRPCHandler {
	if maxAttachmentBytes <= 0 {
		maxAttachmentBytes = defaultMaxAttachmentBytes
	}
	return &GRPCHandler{
		chat:               chat,
		conversations:      conversations,
		requests:           requests,
		maxAttachmentBytes: maxAttachmentBytes,
		log:                log,
	}
}

func (h *GRPCHandler) SendMessage(ctx context.Context, req *chatv1.SendMessageRequest) (*chatv1.SendMessageResponse, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	in := service.SendMessageInput{
		ConversationID: req.ConversationID,
		SenderID:       userID,
		Content:        req.Content,
		IsAudio:        req.IsAudio,
		ParentID:       req.ParentID,
	}
	if att := req.Attachment; att != nil {
		if int64(len(att.Data)) > h.maxAttachmentBytes {
			return nil, status.Errorf(codes.InvalidArgument, "attachment exceeds %d bytes", h.maxAttachmentBytes)
		}
		in.Attachment = &service.AttachmentInput{
			Filename:    att.Filename,
			ContentType: att.ContentType,
			Reader:      bytes.NewReader(att.Data),
		}
	}

	msg, err := h.chat.SendMessage(ctx, in)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &chatv1.SendMessageResponse{Message: toMessage(msg)}, nil
}

func (h *GRPCHandler) ListMessages(ctx context.Context, req *chatv1.ListMessagesRequest) (*chatv1.ListMessagesResponse, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	msgs, err := h.chat.ListMessages(ctx, req.ConversationID, userID, int(req.Limit))
	if err != nil {
		return nil, h.toStatus(err)
	}
	out := make([]*chatv1.Message, len(msgs))
	for i, m := range msgs {
		out[i] = toMessage(m)
	}
	return &chatv1.ListMessagesResponse{Messages: out}, nil
}

func (h *GRPCHandler) MarkRead(ctx context.Context, req *chatv1.MarkReadRequest) (*chatv1.MarkReadResponse, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	marked, err := h.chat.MarkRead(ctx, req.ConversationID, userID)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &chatv1.MarkReadResponse{Marked: marked}, nil
}

func (h *GRPCHandler) DeleteMessage(ctx context.Context, req *chatv1.DeleteMessageRequest) (*chatv1.DeleteMessageResponse, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	dt, err := h.chat.DeleteMessage(ctx, req.MessageID, userID, req.DeleteType)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &chatv1.DeleteMessageResponse{DeleteType: string(dt)}, nil
}

func (h *GRPCHandler) ToggleReaction(ctx context.Context, req *chatv1.ToggleReactionRequest) (*chatv1.ToggleReactionResponse, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	res, err := h.chat.ToggleReaction(ctx, req.MessageID, userID, req.Emoji)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &chatv1.ToggleReactionResponse{MessageID: res.MessageID, Emoji: res.Emoji, Added: res.Added}, nil
}

func (h *GRPCHandler) ListConversations(ctx context.Context, _ *chatv1.ListConversationsRequest) (*chatv1.ListConversationsResponse, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	convs, err := h.conversations.ListConversations(ctx, userID)
	if err != nil {
		return nil, h.toStatus(err)
	}
	out := make([]*chatv1.Conversation, len(convs))
	for i, c := range convs {
		out[i] = toConversation(c)
	}
	return &chatv1.ListConversationsResponse{Conversations: out}, nil
}

func (h *GRPCHandler) SendRequest(ctx context.Context, req *chatv1.SendRequestRequest) (*chatv1.SendRequestResponse, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if req.ReceiverUsername == "" {
		return nil, status.Error(codes.InvalidArgument, "receiver_username is required")
	}

	res, err := h.requests.SendRequest(ctx, userID, req.ReceiverUsername)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &chatv1.SendRequestResponse{
		Request:      toChatRequest(res.Request),
		Created:      res.Created,
		Conversation: toConversation(res.Conversation),
	}, nil
}

func (h *GRPCHandler) AcceptRequest(ctx context.Context, req *chatv1.AcceptRequestRequest) (*chatv1.AcceptRequestResponse, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	conv, err := h.requests.Accept(ctx, req.RequestID, userID)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &chatv1.AcceptRequestResponse{Conversation: toConversation(conv)}, nil
}

func (h *GRPCHandler) toStatus(err error) error {
	code := common.GRPCCode(err)
	if code == codes.Internal {
		h.log.Error("grpc call failed", zap.Error(err))
	}
	return status.Error(code, common.PublicMessage(err))
}

func callerID(ctx context.Context) (uint64, error) {
	userID, ok := common.UserIDFromContext(ctx)
	if !ok {
		return 0, status.Error(codes.Unauthenticated, "user not authenticated")
	}
	return userID, nil
}

func unknownHandle(id uint64) string {
	return fmt.Sprintf("user-%d", id)
}
