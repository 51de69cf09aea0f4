package handler

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	chatv1 "gochat/api/chat/v1"
	"gochat/internal/chat/service"
	"gochat/internal/chat/service/mocks"
	"gochat/internal/common"
	"gochat/internal/dbmysql"
	"gochat/internal/user"
	usermocks "gochat/internal/user/mocks"
)

const bufSize = 1024 * 1024

type grpcEnv struct {
	chat   chatv1.ChatServiceClient
	auth   chatv1.AuthServiceClient
	tokens *common.TokenManager
	mocks  testMocks
	users  *usermocks.MockUserService
}

func setupGRPCTest(t *testing.T) *grpcEnv {
	t.Helper()
	lis := bufconn.Listen(bufSize)

	ctrl := gomock.NewController(t)
	env := &grpcEnv{
		tokens: common.NewTokenManager("grpc-test-secret", time.Hour),
		mocks: testMocks{
			chat:     mocks.NewMockChatService(ctrl),
			convs:    mocks.NewMockConversationService(ctrl),
			requests: mocks.NewMockRequestService(ctrl),
		},
		users: usermocks.NewMockUserService(ctrl),
	}

	s := grpc.NewServer(grpc.UnaryInterceptor(common.AuthInterceptor(env.tokens, user.PublicGRPCMethods)))
	chatv1.RegisterChatServiceServer(s, NewGRPCHandler(env.mocks.chat, env.mocks.convs, env.mocks.requests, 16, zap.NewNop()))
	chatv1.RegisterAuthServiceServer(s, user.NewGRPCHandler(env.users, zap.NewNop()))
	go func() { _ = s.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
			return lis.Dial()
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		s.Stop()
	})

	env.chat = chatv1.NewChatServiceClient(conn)
	env.auth = chatv1.NewAuthServiceClient(conn)
	return env
}

func (e *grpcEnv) authed(t *testing.T, userID uint64, handle string) context.Context {
	t.Helper()
	token, err := e.tokens.GenerateToken(userID, handle)
	require.NoError(t, err)
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+token)
}

func TestGRPCHandler_RequiresToken(t *testing.T) {
	env := setupGRPCTest(t)

	_, err := env.chat.ListConversations(context.Background(), &chatv1.ListConversationsRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	ctx := metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer garbage")
	_, err = env.chat.ListConversations(ctx, &chatv1.ListConversationsRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestGRPCHandler_SendMessage(t *testing.T) {
	env := setupGRPCTest(t)
	ctx := env.authed(t, 7, "alice")
	sent := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	env.mocks.chat.EXPECT().SendMessage(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, in service.SendMessageInput) (*service.MessageView, error) {
			assert.Equal(t, uint64(7), in.SenderID)
			assert.Equal(t, uint64(2), in.ConversationID)
			require.NotNil(t, in.Attachment)
			assert.Equal(t, "a.png", in.Attachment.Filename)
			content := in.Content
			return &service.MessageView{
				ID:             40,
				ConversationID: 2,
				SenderID:       7,
				SenderHandle:   "alice",
				Content:        &content,
				IsMe:           true,
				IsImage:        true,
				Reactions:      []service.ReactionView{{Emoji: "👍", Count: 1, UserIDs: []uint64{7}, ReactedByMe: true}},
				ReadBy:         []uint64{},
				CreatedAt:      sent,
			}, nil
		})

	resp, err := env.chat.SendMessage(ctx, &chatv1.SendMessageRequest{
		ConversationID: 2,
		Content:        "look",
		Attachment:     &chatv1.Attachment{Filename: "a.png", ContentType: "image/png", Data: []byte("png")},
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Message)
	assert.Equal(t, uint64(40), resp.Message.ID)
	assert.Equal(t, "look", *resp.Message.Content)
	assert.True(t, resp.Message.IsImage)
	require.Len(t, resp.Message.Reactions, 1)
	assert.Equal(t, int32(1), resp.Message.Reactions[0].Count)
	assert.True(t, sent.Equal(resp.Message.CreatedAt.AsTime()))
}

func TestGRPCHandler_SendMessageAttachmentTooLarge(t *testing.T) {
	env := setupGRPCTest(t)

	_, err := env.chat.SendMessage(env.authed(t, 7, "alice"), &chatv1.SendMessageRequest{
		ConversationID: 2,
		Attachment:     &chatv1.Attachment{Filename: "big.bin", Data: make([]byte, 17)},
	})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGRPCHandler_ErrorMapping(t *testing.T) {
	env := setupGRPCTest(t)
	ctx := env.authed(t, 7, "alice")

	tests := []struct {
		name     string
		err      error
		wantCode codes.Code
		wantMsg  string
	}{
		{"not a member", common.ErrNotAMember, codes.PermissionDenied, common.ErrNotAMember.Error()},
		{"not found", common.ErrNotFound, codes.NotFound, common.ErrNotFound.Error()},
		{"invalid emoji", common.ErrInvalidEmoji, codes.InvalidArgument, common.ErrInvalidEmoji.Error()},
		{"internal", assert.AnError, codes.Internal, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env.mocks.chat.EXPECT().ToggleReaction(gomock.Any(), uint64(3), uint64(7), "🎉").Return(nil, tt.err)

			_, err := env.chat.ToggleReaction(ctx, &chatv1.ToggleReactionRequest{MessageID: 3, Emoji: "🎉"})
			st, ok := status.FromError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, st.Code())
			assert.Equal(t, tt.wantMsg, st.Message())
		})
	}
}

func TestGRPCHandler_Requests(t *testing.T) {
	env := setupGRPCTest(t)
	ctx := env.authed(t, 7, "alice")

	_, err := env.chat.SendRequest(ctx, &chatv1.SendRequestRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	env.mocks.requests.EXPECT().SendRequest(gomock.Any(), uint64(7), "bob").Return(&service.SendRequestResult{
		Request: &service.RequestView{ID: 9, Sender: service.UserView{ID: 7, Handle: "alice"}, Receiver: service.UserView{ID: 8}},
		Created: true,
	}, nil)
	sent, err := env.chat.SendRequest(ctx, &chatv1.SendRequestRequest{ReceiverUsername: "bob"})
	require.NoError(t, err)
	assert.True(t, sent.Created)
	assert.Nil(t, sent.Conversation)
	assert.Equal(t, "user-8", sent.Request.Receiver.Handle)

	env.mocks.requests.EXPECT().Accept(gomock.Any(), uint64(9), uint64(7)).Return(nil, common.ErrPermissionDenied)
	_, err = env.chat.AcceptRequest(ctx, &chatv1.AcceptRequestRequest{RequestID: 9})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}

func TestGRPCHandler_DeleteAndRead(t *testing.T) {
	env := setupGRPCTest(t)
	ctx := env.authed(t, 7, "alice")

	env.mocks.chat.EXPECT().DeleteMessage(gomock.Any(), uint64(5), uint64(7), "bogus").Return(service.DeleteForMe, nil)
	del, err := env.chat.DeleteMessage(ctx, &chatv1.DeleteMessageRequest{MessageID: 5, DeleteType: "bogus"})
	require.NoError(t, err)
	assert.Equal(t, "for_me", del.DeleteType)

	env.mocks.chat.EXPECT().MarkRead(gomock.Any(), uint64(2), uint64(7)).Return(int64(3), nil)
	read, err := env.chat.MarkRead(ctx, &chatv1.MarkReadRequest{ConversationID: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), read.Marked)
}

func TestGRPCHandler_AuthServiceIsPublic(t *testing.T) {
	env := setupGRPCTest(t)

	env.users.EXPECT().RegisterUser(gomock.Any(), "carol", "carol@example.com", "s3cret-pass").
		Return(&dbmysql.User{UserID: 11, Handle: "carol"}, "tok", nil)
	resp, err := env.auth.Register(context.Background(), &chatv1.RegisterRequest{
		Handle: "carol", Email: "carol@example.com", Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, "tok", resp.Token)
	assert.Equal(t, uint64(11), resp.User.ID)

	env.users.EXPECT().LoginUser(gomock.Any(), "carol", "wrong").Return(nil, "", common.ErrInvalidCredentials)
	_, err = env.auth.Login(context.Background(), &chatv1.LoginRequest{Handle: "carol", Password: "wrong"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestGRPCHandler_UpdateProfile(t *testing.T) {
	env := setupGRPCTest(t)
	first := "Carol"

	_, err := env.auth.UpdateProfile(context.Background(), &chatv1.UpdateProfileRequest{FirstName: &first})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	imageID := "65f000000000000000000004"
	env.users.EXPECT().UpdateProfile(gomock.Any(), uint64(11), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ uint64, u common.ProfileUpdate) (*dbmysql.User, error) {
			require.Equal(t, "Carol", *u.FirstName)
			require.Nil(t, u.Email)
			require.NotNil(t, u.Image)
			data, err := io.ReadAll(u.Image.Reader)
			require.NoError(t, err)
			require.Equal(t, "avatar", string(data))
			return &dbmysql.User{UserID: 11, Handle: "carol", FirstName: "Carol", ImageID: &imageID}, nil
		})
	resp, err := env.auth.UpdateProfile(env.authed(t, 11, "carol"), &chatv1.UpdateProfileRequest{
		FirstName: &first,
		Image:     &chatv1.Attachment{Filename: "me.png", ContentType: "image/png", Data: []byte("avatar")},
	})
	require.NoError(t, err)
	assert.Equal(t, "Carol", resp.Profile.FirstName)
	assert.Equal(t, imageID, *resp.Profile.ImageID)

	env.users.EXPECT().UpdateProfile(gomock.Any(), uint64(11), gomock.Any()).
		Return(nil, common.NewValidationError("invalid email format"))
	bad := "nope"
	_, err = env.auth.UpdateProfile(env.authed(t, 11, "carol"), &chatv1.UpdateProfileRequest{Email: &bad})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
