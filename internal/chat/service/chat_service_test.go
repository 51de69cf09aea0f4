package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gochat/internal/chat/repository/mocks"
	"gochat/internal/common"
	"gochat/internal/crypto"
	"gochat/internal/dbmongo"
	"gochat/internal/dbmysql"
	usermocks "gochat/internal/user/mocks"
)

type stubAttachments struct {
	deleted []string
}

func (s *stubAttachments) Upload(_ context.Context, filename, contentType string, uploaderID uint64, _ io.Reader) (*dbmongo.Attachment, error) {
	return &dbmongo.Attachment{ID: "65f000000000000000000001", Filename: filename, ContentType: contentType, UploadedBy: uploaderID}, nil
}

func (s *stubAttachments) Download(context.Context, string) (io.ReadCloser, *dbmongo.Attachment, error) {
	return nil, nil, common.ErrNotFound
}

func (s *stubAttachments) Delete(_ context.Context, fileID string) error {
	s.deleted = append(s.deleted, fileID)
	return nil
}

func pairConversation(id uint64, members ...uint64) *dbmysql.Conversation {
	conv := &dbmysql.Conversation{ID: id}
	for _, m := range members {
		conv.Participants = append(conv.Participants, dbmysql.ConversationParticipant{ConversationID: id, UserID: m})
	}
	return conv
}

func TestParseDeleteType(t *testing.T) {
	tests := []struct {
		in   string
		want DeleteType
	}{
		{"for_everyone", DeleteForEveryone},
		{" for_everyone ", DeleteForEveryone},
		{"for_me", DeleteForMe},
		{"", DeleteForMe},
		{"FOR_EVERYONE", DeleteForMe},
		{"nonsense", DeleteForMe},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDeleteType(tt.in))
		})
	}
}

func TestOtherParticipant(t *testing.T) {
	tests := []struct {
		name    string
		members []uint64
		viewer  uint64
		want    uint64
	}{
		{"pair", []uint64{1, 2}, 1, 2},
		{"pair other side", []uint64{1, 2}, 2, 1},
		{"group picks lowest", []uint64{2, 5, 9}, 5, 2},
		{"self conversation", []uint64{7}, 7, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OtherParticipant(pairConversation(1, tt.members...), tt.viewer))
		})
	}
}

func TestGroupReactions(t *testing.T) {
	reactions := []*dbmysql.MessageReaction{
		{UserID: 1, Emoji: "🔥"},
		{UserID: 2, Emoji: "👍"},
		{UserID: 3, Emoji: "🔥"},
	}

	got := groupReactions(reactions, 3)
	require.Len(t, got, 2)
	assert.Equal(t, ReactionView{Emoji: "🔥", Count: 2, UserIDs: []uint64{1, 3}, ReactedByMe: true}, got[0])
	assert.Equal(t, ReactionView{Emoji: "👍", Count: 1, UserIDs: []uint64{2}}, got[1])

	assert.NotNil(t, groupReactions(nil, 1))
}

func TestMessageKind(t *testing.T) {
	id := "file"
	parent := uint64(3)
	assert.Equal(t, "text", messageKind(&dbmysql.Message{}))
	assert.Equal(t, "reply", messageKind(&dbmysql.Message{ParentID: &parent}))
	assert.Equal(t, "file", messageKind(&dbmysql.Message{AttachmentID: &id}))
	assert.Equal(t, "audio", messageKind(&dbmysql.Message{AttachmentID: &id, IsAudio: true}))
}

func TestPresenter_UndecryptableContent(t *testing.T) {
	writerKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	readerKey, err := crypto.GenerateKey()
	require.NoError(t, err)

	token, err := crypto.NewCodec(writerKey, nil, nil).Encrypt("hello")
	require.NoError(t, err)

	p := &presenter{codec: crypto.NewCodec(readerKey, nil, nil), viewerID: 1}
	v := p.message(&dbmysql.Message{ID: 1, SenderID: 2, Content: token}, nil, nil, nil)
	require.NotNil(t, v.Content)
	assert.Equal(t, crypto.Placeholder(token), *v.Content)
	assert.Equal(t, []uint64{}, v.ReadBy)
}

func TestChatService_SendMessageErrors(t *testing.T) {
	ctx := context.Background()
	conv := pairConversation(10, 1, 2)

	tests := []struct {
		name        string
		attachments dbmongo.AttachmentStore
		in          SendMessageInput
		setup       func(msgs *mocks.MockMessageRepository, convs *mocks.MockConversationRepository)
		wantErr     error
		wantDeleted int
	}{
		{
			name: "attachments disabled",
			in: SendMessageInput{ConversationID: 10, SenderID: 1,
				Attachment: &AttachmentInput{Filename: "a.png", Reader: strings.NewReader("x")}},
			setup: func(msgs *mocks.MockMessageRepository, convs *mocks.MockConversationRepository) {
				convs.EXPECT().Get(gomock.Any(), uint64(10)).Return(conv, nil)
			},
			wantErr: common.ErrAttachmentsOff,
		},
		{
			name:        "failed insert removes the uploaded file",
			attachments: &stubAttachments{},
			in: SendMessageInput{ConversationID: 10, SenderID: 1, Content: "caption",
				Attachment: &AttachmentInput{Filename: "a.png", Reader: strings.NewReader("x")}},
			setup: func(msgs *mocks.MockMessageRepository, convs *mocks.MockConversationRepository) {
				convs.EXPECT().Get(gomock.Any(), uint64(10)).Return(conv, nil)
				msgs.EXPECT().Create(gomock.Any(), gomock.Any()).Return(common.ErrInvalidReply)
			},
			wantErr:     common.ErrInvalidReply,
			wantDeleted: 1,
		},
		{
			name: "conversation lookup fails",
			in:   SendMessageInput{ConversationID: 10, SenderID: 1, Content: "hi"},
			setup: func(msgs *mocks.MockMessageRepository, convs *mocks.MockConversationRepository) {
				convs.EXPECT().Get(gomock.Any(), uint64(10)).Return(nil, errors.New("connection refused"))
			},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			msgs := mocks.NewMockMessageRepository(ctrl)
			convs := mocks.NewMockConversationRepository(ctrl)
			users := usermocks.NewMockUserService(ctrl)
			tt.setup(msgs, convs)

			svc := NewChatService(msgs, convs, users, tt.attachments, crypto.NewCodec("", nil, nil), nil, ChatOptions{}, zap.NewNop())
			_, err := svc.SendMessage(ctx, tt.in)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if stub, ok := tt.attachments.(*stubAttachments); ok {
				assert.Len(t, stub.deleted, tt.wantDeleted)
			}
		})
	}
}

func TestChatService_EncryptsBeforeCreate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	msgs := mocks.NewMockMessageRepository(ctrl)
	convs := mocks.NewMockConversationRepository(ctrl)
	users := usermocks.NewMockUserService(ctrl)
	codec := crypto.NewCodec("", nil, nil)

	convs.EXPECT().Get(gomock.Any(), uint64(10)).Return(pairConversation(10, 1, 2), nil)
	msgs.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, m *dbmysql.Message) error {
		assert.True(t, crypto.IsEncrypted(m.Content))
		assert.Equal(t, "  hi there ", codec.Decrypt(m.Content))
		m.ID = 99
		return nil
	})
	users.EXPECT().GetByIDs(gomock.Any(), []uint64{1}).Return(map[uint64]*dbmysql.User{1: {UserID: 1, Handle: "alice"}}, nil)

	svc := NewChatService(msgs, convs, users, nil, codec, nil, ChatOptions{}, zap.NewNop())
	v, err := svc.SendMessage(context.Background(), SendMessageInput{ConversationID: 10, SenderID: 1, Content: "  hi there "})
	require.NoError(t, err)
	assert.Equal(t, uint64(99), v.ID)
	assert.Equal(t, "  hi there ", *v.Content)
	assert.Equal(t, "alice", v.SenderHandle)
}

func TestChatService_ListMessagesClampsLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	msgs := mocks.NewMockMessageRepository(ctrl)
	convs := mocks.NewMockConversationRepository(ctrl)
	users := usermocks.NewMockUserService(ctrl)

	convs.EXPECT().Get(gomock.Any(), uint64(10)).Return(pairConversation(10, 1, 2), nil).Times(2)
	msgs.EXPECT().ListVisible(gomock.Any(), uint64(10), uint64(2), 20).Return(nil, errors.New("boom"))
	msgs.EXPECT().ListVisible(gomock.Any(), uint64(10), uint64(2), 5).Return(nil, errors.New("boom"))

	svc := NewChatService(msgs, convs, users, nil, crypto.NewCodec("", nil, nil), nil, ChatOptions{HistoryLimit: 20}, zap.NewNop())
	_, err := svc.ListMessages(context.Background(), 10, 2, 0)
	assert.EqualError(t, err, "boom")
	_, err = svc.ListMessages(context.Background(), 10, 2, 5)
	assert.EqualError(t, err, "boom")
}

func TestRequestService_AcceptErrors(t *testing.T) {
	ctx := context.Background()
	pending := &dbmysql.ChatRequest{ID: 4, SenderID: 1, ReceiverID: 2}

	tests := []struct {
		name    string
		actor   uint64
		setup   func(reqs *mocks.MockRequestRepository, convs *mocks.MockConversationRepository)
		wantErr error
	}{
		{
			name:  "missing request",
			actor: 2,
			setup: func(reqs *mocks.MockRequestRepository, convs *mocks.MockConversationRepository) {
				reqs.EXPECT().Get(gomock.Any(), uint64(4)).Return(nil, common.ErrNotFound)
			},
			wantErr: common.ErrNotFound,
		},
		{
			name:  "sender cannot accept",
			actor: 1,
			setup: func(reqs *mocks.MockRequestRepository, convs *mocks.MockConversationRepository) {
				reqs.EXPECT().Get(gomock.Any(), uint64(4)).Return(pending, nil)
			},
			wantErr: common.ErrPermissionDenied,
		},
		{
			name:  "conversation creation fails",
			actor: 2,
			setup: func(reqs *mocks.MockRequestRepository, convs *mocks.MockConversationRepository) {
				reqs.EXPECT().Get(gomock.Any(), uint64(4)).Return(pending, nil)
				reqs.EXPECT().MarkAccepted(gomock.Any(), uint64(4)).Return(true, nil)
				convs.EXPECT().FindOrCreatePair(gomock.Any(), uint64(1), uint64(2)).Return(nil, false, common.ErrNotFound)
			},
			wantErr: common.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			reqs := mocks.NewMockRequestRepository(ctrl)
			convs := mocks.NewMockConversationRepository(ctrl)
			users := usermocks.NewMockUserService(ctrl)
			tt.setup(reqs, convs)

			svc := NewRequestService(reqs, convs, users, nil, nil, zap.NewNop())
			_, err := svc.Accept(ctx, 4, tt.actor)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRequestService_UnknownReceiver(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	users := usermocks.NewMockUserService(ctrl)
	users.EXPECT().GetByHandle(gomock.Any(), "ghost").Return(nil, common.ErrUserNotFound)

	svc := NewRequestService(mocks.NewMockRequestRepository(ctrl), mocks.NewMockConversationRepository(ctrl), users, nil, nil, zap.NewNop())
	_, err := svc.SendRequest(context.Background(), 1, "ghost")
	assert.ErrorIs(t, err, common.ErrUserNotFound)
}
