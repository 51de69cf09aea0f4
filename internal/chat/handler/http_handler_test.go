package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gochat/internal/chat/service"
	"gochat/internal/chat/service/mocks"
	"gochat/internal/common"
)

type testMocks struct {
	chat     *mocks.MockChatService
	convs    *mocks.MockConversationService
	requests *mocks.MockRequestService
}

const testUserID uint64 = 5

func newTestRouter(t *testing.T, maxAttachment int64) (*mux.Router, testMocks) {
	ctrl := gomock.NewController(t)
	m := testMocks{
		chat:     mocks.NewMockChatService(ctrl),
		convs:    mocks.NewMockConversationService(ctrl),
		requests: mocks.NewMockRequestService(ctrl),
	}
	h := NewHTTPHandler(m.chat, m.convs, m.requests, maxAttachment, zap.NewNop())

	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.Header.Get("X-Test-User") == "" {
				next.ServeHTTP(w, req)
				return
			}
			next.ServeHTTP(w, req.WithContext(common.WithIdentity(req.Context(), testUserID, "eve")))
		})
	})
	h.RegisterRoutes(r)
	return r, m
}

func serve(router http.Handler, method, path, body string, authed bool) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("X-Test-User", "1")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func strPtr(s string) *string { return &s }

func TestHTTPHandler_Routes(t *testing.T) {
	router, m := newTestRouter(t, 0)

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		authed   bool
		setup    func()
		wantCode int
		wantBody string
	}{
		{
			name:     "unauthenticated",
			method:   http.MethodGet,
			path:     "/conversations",
			setup:    func() {},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:   "list conversations",
			method: http.MethodGet,
			path:   "/conversations",
			authed: true,
			setup: func() {
				m.convs.EXPECT().ListConversations(gomock.Any(), testUserID).
					Return([]*service.ConversationView{{ID: 3, UnreadCount: 2}}, nil)
			},
			wantCode: http.StatusOK,
			wantBody: `"unread_count":2`,
		},
		{
			name:   "conversation of someone else",
			method: http.MethodGet,
			path:   "/conversations/3",
			authed: true,
			setup: func() {
				m.convs.EXPECT().GetConversation(gomock.Any(), uint64(3), testUserID).Return(nil, common.ErrNotAMember)
			},
			wantCode: http.StatusForbidden,
		},
		{
			name:   "list messages with limit",
			method: http.MethodGet,
			path:   "/conversations/3/messages?limit=10",
			authed: true,
			setup: func() {
				m.chat.EXPECT().ListMessages(gomock.Any(), uint64(3), testUserID, 10).
					Return([]*service.MessageView{{ID: 1, Content: strPtr("hi")}}, nil)
			},
			wantCode: http.StatusOK,
			wantBody: `"count":1`,
		},
		{
			name:     "bad limit",
			method:   http.MethodGet,
			path:     "/conversations/3/messages?limit=ten",
			authed:   true,
			setup:    func() {},
			wantCode: http.StatusBadRequest,
		},
		{
			name:   "send message",
			method: http.MethodPost,
			path:   "/conversations/3/messages",
			body:   `{"content":"hello","parent_id":9}`,
			authed: true,
			setup: func() {
				m.chat.EXPECT().SendMessage(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, in service.SendMessageInput) (*service.MessageView, error) {
						assert.Equal(t, uint64(3), in.ConversationID)
						assert.Equal(t, testUserID, in.SenderID)
						assert.Equal(t, "hello", in.Content)
						require.NotNil(t, in.ParentID)
						assert.Equal(t, uint64(9), *in.ParentID)
						return &service.MessageView{ID: 11, Content: strPtr("hello"), IsMe: true}, nil
					})
			},
			wantCode: http.StatusCreated,
			wantBody: `"is_me":true`,
		},
		{
			name:   "reply to deleted parent",
			method: http.MethodPost,
			path:   "/conversations/3/messages",
			body:   `{"content":"hello","parent_id":9}`,
			authed: true,
			setup: func() {
				m.chat.EXPECT().SendMessage(gomock.Any(), gomock.Any()).Return(nil, common.ErrInvalidReply)
			},
			wantCode: http.StatusBadRequest,
			wantBody: common.ErrInvalidReply.Error(),
		},
		{
			name:     "malformed json",
			method:   http.MethodPost,
			path:     "/conversations/3/messages",
			body:     `{"content":`,
			authed:   true,
			setup:    func() {},
			wantCode: http.StatusBadRequest,
		},
		{
			name:   "mark read",
			method: http.MethodPost,
			path:   "/conversations/3/read",
			authed: true,
			setup: func() {
				m.chat.EXPECT().MarkRead(gomock.Any(), uint64(3), testUserID).Return(int64(4), nil)
			},
			wantCode: http.StatusOK,
			wantBody: `{"marked":4}`,
		},
		{
			name:   "delete for everyone by non-sender",
			method: http.MethodPost,
			path:   "/messages/8/delete",
			body:   `{"delete_type":"for_everyone"}`,
			authed: true,
			setup: func() {
				m.chat.EXPECT().DeleteMessage(gomock.Any(), uint64(8), testUserID, "for_everyone").
					Return(service.DeleteType(""), common.ErrPermissionDenied)
			},
			wantCode: http.StatusForbidden,
		},
		{
			name:   "delete without body defaults to for_me",
			method: http.MethodPost,
			path:   "/messages/8/delete",
			authed: true,
			setup: func() {
				m.chat.EXPECT().DeleteMessage(gomock.Any(), uint64(8), testUserID, "").Return(service.DeleteForMe, nil)
			},
			wantCode: http.StatusOK,
			wantBody: `"delete_type":"for_me"`,
		},
		{
			name:   "react",
			method: http.MethodPost,
			path:   "/messages/8/react",
			body:   `{"emoji":"🔥"}`,
			authed: true,
			setup: func() {
				m.chat.EXPECT().ToggleReaction(gomock.Any(), uint64(8), testUserID, "🔥").
					Return(&service.ReactionResult{MessageID: 8, Emoji: "🔥", Added: false}, nil)
			},
			wantCode: http.StatusOK,
			wantBody: `"status":"removed"`,
		},
		{
			name:   "react on missing message",
			method: http.MethodPost,
			path:   "/messages/8/react",
			authed: true,
			setup: func() {
				m.chat.EXPECT().ToggleReaction(gomock.Any(), uint64(8), testUserID, "").Return(nil, common.ErrNotFound)
			},
			wantCode: http.StatusNotFound,
		},
		{
			name:   "send request",
			method: http.MethodPost,
			path:   "/requests",
			body:   `{"receiver_username":" bob "}`,
			authed: true,
			setup: func() {
				m.requests.EXPECT().SendRequest(gomock.Any(), testUserID, "bob").
					Return(&service.SendRequestResult{Request: &service.RequestView{ID: 1}, Created: true}, nil)
			},
			wantCode: http.StatusCreated,
		},
		{
			name:   "repeat request",
			method: http.MethodPost,
			path:   "/requests",
			body:   `{"receiver_username":"bob"}`,
			authed: true,
			setup: func() {
				m.requests.EXPECT().SendRequest(gomock.Any(), testUserID, "bob").
					Return(&service.SendRequestResult{Request: &service.RequestView{ID: 1}}, nil)
			},
			wantCode: http.StatusOK,
		},
		{
			name:     "request without receiver",
			method:   http.MethodPost,
			path:     "/requests",
			body:     `{}`,
			authed:   true,
			setup:    func() {},
			wantCode: http.StatusBadRequest,
			wantBody: `"fields"`,
		},
		{
			name:   "request to unknown user",
			method: http.MethodPost,
			path:   "/requests",
			body:   `{"receiver_username":"ghost"}`,
			authed: true,
			setup: func() {
				m.requests.EXPECT().SendRequest(gomock.Any(), testUserID, "ghost").Return(nil, common.ErrUserNotFound)
			},
			wantCode: http.StatusNotFound,
		},
		{
			name:   "incoming requests",
			method: http.MethodGet,
			path:   "/requests",
			authed: true,
			setup: func() {
				m.requests.EXPECT().ListIncoming(gomock.Any(), testUserID).Return([]*service.RequestView{}, nil)
			},
			wantCode: http.StatusOK,
			wantBody: `{"requests":[]}`,
		},
		{
			name:   "sent requests",
			method: http.MethodGet,
			path:   "/requests/sent",
			authed: true,
			setup: func() {
				m.requests.EXPECT().ListSent(gomock.Any(), testUserID).Return([]*service.RequestView{{ID: 2}}, nil)
			},
			wantCode: http.StatusOK,
		},
		{
			name:   "accept",
			method: http.MethodPost,
			path:   "/requests/2/accept",
			authed: true,
			setup: func() {
				m.requests.EXPECT().Accept(gomock.Any(), uint64(2), testUserID).Return(&service.ConversationView{ID: 6}, nil)
			},
			wantCode: http.StatusOK,
			wantBody: `"id":6`,
		},
		{
			name:   "store failure hides details",
			method: http.MethodPost,
			path:   "/requests/2/accept",
			authed: true,
			setup: func() {
				m.requests.EXPECT().Accept(gomock.Any(), uint64(2), testUserID).Return(nil, errors.New("dial tcp: refused"))
			},
			wantCode: http.StatusInternalServerError,
			wantBody: `{"error":"internal server error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			rec := serve(router, tt.method, tt.path, tt.body, tt.authed)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func multipartRequest(t *testing.T, fields map[string]string, filename string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/conversations/3/messages", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Test-User", "1")
	return req
}

func TestHTTPHandler_SendMessageMultipart(t *testing.T) {
	router, m := newTestRouter(t, 64)

	m.chat.EXPECT().SendMessage(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, in service.SendMessageInput) (*service.MessageView, error) {
			require.NotNil(t, in.Attachment)
			assert.Equal(t, "voice.webm", in.Attachment.Filename)
			assert.True(t, in.IsAudio)
			assert.Equal(t, "listen", in.Content)
			data, err := io.ReadAll(in.Attachment.Reader)
			require.NoError(t, err)
			assert.Equal(t, "tiny clip", string(data))
			return &service.MessageView{ID: 12, IsAudio: true}, nil
		})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t, map[string]string{"content": "listen", "is_audio": "true"}, "voice.webm", []byte("tiny clip")))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got service.MessageView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, uint64(12), got.ID)
}

func TestHTTPHandler_SendMessageMultipartTooLarge(t *testing.T) {
	router, _ := newTestRouter(t, 64)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t, nil, "big.bin", bytes.Repeat([]byte("x"), 65)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestHTTPHandler_SendMessageMultipartBadParent(t *testing.T) {
	router, _ := newTestRouter(t, 64)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t, map[string]string{"content": "x", "parent_id": "abc"}, "", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
