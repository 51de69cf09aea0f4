package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"gochat/internal/chat/repository"
	"gochat/internal/common"
	"gochat/internal/dbmysql"
	"gochat/internal/metrics"
)

// SendRequestResult carries the self-conversation when a user sends a request to themselves.
type SendRequestResult struct {
	Request      *RequestView      `json:"request"`
	Created      bool              `json:"created"`
	Conversation *ConversationView `json:"conversation,omitempty"`
}

type RequestService interface {
	SendRequest(ctx context.Context, senderID uint64, receiverHandle string) (*SendRequestResult, error)
	Accept(ctx context.Context, requestID, actorID uint64) (*ConversationView, error)
	ListIncoming(ctx context.Context, userID uint64) ([]*RequestView, error)
	ListSent(ctx context.Context, userID uint64) ([]*RequestView, error)
}

type requestService struct {
	requests      repository.RequestRepository
	conversations repository.ConversationRepository
	users         UserDirectory
	projector     ConversationService
	publisher     common.Publisher
	log           *zap.Logger
}

func NewRequestService(
	requests repository.RequestRepository,
	conversations repository.ConversationRepository,
	users UserDirectory,
	projector ConversationService,
	publisher common.Publisher,
	log *zap.Logger,
) RequestService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &requestService{
		requests:      requests,
		conversations: conversations,
		users:         users,
		projector:     projector,
		publisher:     publisher,
		log:           log,
	}
}

func (s *requestService) SendRequest(ctx context.Context, senderID uint64, receiverHandle string) (*SendRequestResult, error) {
	receiver, err := s.users.GetByHandle(ctx, receiverHandle)
	if err != nil {
		return nil, err
	}

	req := &dbmysql.ChatRequest{SenderID: senderID, ReceiverID: receiver.UserID}
	self := senderID == receiver.UserID
	if self {
		now := time.Now()
		req.Accepted = true
		req.AcceptedAt = &now
	}

	stored, created, err := s.requests.CreateIfAbsent(ctx, req)
	if err != nil {
		return nil, err
	}

	views, err := s.present(ctx, senderID, stored)
	if err != nil {
		return nil, err
	}
	result := &SendRequestResult{Request: views[0], Created: created}

	if self {
		conv, convCreated, err := s.conversations.FindOrCreateSelf(ctx, senderID)
		if err != nil {
			return nil, err
		}
		if convCreated {
			metrics.ConversationsCreated.WithLabelValues("self").Inc()
		}
		result.Conversation, err = s.projector.Summarize(ctx, conv, senderID)
		if err != nil {
			return nil, err
		}
		return result, nil
	}

	if created {
		s.publisher.Publish(ctx, common.NotificationEvent{
			Type:          common.ChatRequestType,
			UserID:        receiver.UserID,
			TriggerUserID: &senderID,
			Header:        "New Chat Request",
			Content:       fmt.Sprintf("%s wants to chat with you", result.Request.Sender.Handle),
			Metadata:      common.NotificationMetadata{"request_id": stored.ID},
		})
		s.log.Info("chat request sent",
			zap.Uint64("request_id", stored.ID),
			zap.Uint64("sender_id", senderID),
			zap.Uint64("receiver_id", receiver.UserID))
	}
	return result, nil
}

// Accept is safe to repeat and to race: every call for the same pair returns the same conversation.
func (s *requestService) Accept(ctx context.Context, requestID, actorID uint64) (*ConversationView, error) {
	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.ReceiverID != actorID {
		return nil, fmt.Errorf("only the receiver can accept request %d: %w", requestID, common.ErrPermissionDenied)
	}

	changed, err := s.requests.MarkAccepted(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	conv, created, err := s.conversations.FindOrCreatePair(ctx, req.SenderID, req.ReceiverID)
	if err != nil {
		return nil, err
	}
	if created {
		kind := "pair"
		if req.SenderID == req.ReceiverID {
			kind = "self"
		}
		metrics.ConversationsCreated.WithLabelValues(kind).Inc()
	}

	view, err := s.projector.Summarize(ctx, conv, actorID)
	if err != nil {
		return nil, err
	}

	if changed {
		metrics.RequestsAccepted.Inc()
		if req.SenderID != req.ReceiverID {
			s.publisher.Publish(ctx, common.NotificationEvent{
				Type:          common.RequestAcceptedType,
				UserID:        req.SenderID,
				TriggerUserID: &actorID,
				Header:        "Chat Request Accepted",
				Content:       fmt.Sprintf("%s accepted your chat request", handleOf(view.Participants, actorID)),
				Metadata: common.NotificationMetadata{
					"request_id":      req.ID,
					"conversation_id": conv.ID,
				},
			})
		}
		s.log.Info("chat request accepted",
			zap.Uint64("request_id", req.ID),
			zap.Uint64("conversation_id", conv.ID))
	}
	return view, nil
}

func (s *requestService) ListIncoming(ctx context.Context, userID uint64) ([]*RequestView, error) {
	reqs, err := s.requests.ListIncoming(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.present(ctx, userID, reqs...)
}

func (s *requestService) ListSent(ctx context.Context, userID uint64) ([]*RequestView, error) {
	reqs, err := s.requests.ListSent(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.present(ctx, userID, reqs...)
}

func (s *requestService) present(ctx context.Context, viewerID uint64, reqs ...*dbmysql.ChatRequest) ([]*RequestView, error) {
	ids := make([]uint64, 0, 2*len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.SenderID, r.ReceiverID)
	}
	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	p := &presenter{viewerID: viewerID, users: users}
	views := make([]*RequestView, len(reqs))
	for i, r := range reqs {
		views[i] = p.request(r)
	}
	return views, nil
}

func handleOf(users []UserView, id uint64) string {
	for _, u := range users {
		if u.ID == id {
			return u.Handle
		}
	}
	return fmt.Sprintf("user %d", id)
}
