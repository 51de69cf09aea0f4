package handler

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"gochat/internal/chat/service"
	"gochat/internal/common"
)

const (
	defaultMaxAttachmentBytes = 25 << 20
	// multipart overhead allowed on top of the attachment itself
	formOverheadBytes = 1 << 20
)

type HTTPHandler struct {
	chat               service.ChatService
	conversations      service.ConversationService
	requests           service.RequestService
	maxAttachmentBytes int64
	log                *zap.Logger
}

func NewHTTPHandler(
	chat service.ChatService,
	conversations service.ConversationService,
	requests service.RequestService,
	maxAttachmentBytes int64,
	log *zap.Logger,
) *HTTPHandler {
	if maxAttachmentBytes <= 0 {
		maxAttachmentBytes = defaultMaxAttachmentBytes
	}
	return &HTTPHandler{
		chat:               chat,
		conversations:      conversations,
		requests:           requests,
		maxAttachmentBytes: maxAttachmentBytes,
		log:                log,
	}
}

type SendMessageRequest struct {
	Content  string  `json:"content" validate:"max=10000"`
	IsAudio  bool    `json:"is_audio"`
	ParentID *uint64 `json:"parent_id"`
}

type DeleteMessageRequest struct {
	DeleteType string `json:"delete_type"`
}

type ReactRequest struct {
	Emoji string `json:"emoji"`
}

type ChatRequestBody struct {
	ReceiverUsername string `json:"receiver_username" validate:"required,max=50"`
}

// RegisterRoutes mounts every chat route on an authenticated router.
func (h *HTTPHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/conversations", h.ListConversations).Methods(http.MethodGet)
	r.HandleFunc("/conversations/{id:[0-9]+}", h.GetConversation).Methods(http.MethodGet)
	r.HandleFunc("/conversations/{id:[0-9]+}/messages", h.ListMessages).Methods(http.MethodGet)
	r.HandleFunc("/conversations/{id:[0-9]+}/messages", h.SendMessage).Methods(http.MethodPost)
	r.HandleFunc("/conversations/{id:[0-9]+}/read", h.MarkRead).Methods(http.MethodPost)

	r.HandleFunc("/messages/{id:[0-9]+}/delete", h.DeleteMessage).Methods(http.MethodPost)
	r.HandleFunc("/messages/{id:[0-9]+}/react", h.ToggleReaction).Methods(http.MethodPost)

	r.HandleFunc("/requests", h.ListIncoming).Methods(http.MethodGet)
	r.HandleFunc("/requests/sent", h.ListSent).Methods(http.MethodGet)
	r.HandleFunc("/requests", h.SendRequest).Methods(http.MethodPost)
	r.HandleFunc("/requests/{id:[0-9]+}/accept", h.AcceptRequest).Methods(http.MethodPost)
}

func (h *HTTPHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	convs, err := h.conversations.ListConversations(r.Context(), userID)
	if err != nil {
		common.WriteError(w, h.log, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]interface{}{"conversations": convs})
}

func (h *HTTPHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	convID, err := pathID(r)
	if err != nil {
		common.WriteError(w, h.log, err)
		return
	}

	conv, err := h.conversations.GetConversation(r.Context(), convID, userID)
	if err != nil {
		common.WriteError(w, h.log, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, conv)
}

func (h *HTTPHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	convID, err := pathID(r)
	if err != nil {
		common.WriteError(w, h.log, err)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil {
			common.WriteError(w, h.log, common.NewValidationError("limit must be a number"))
			return
		}
	}

	msgs, err := h.chat.ListMessages(r.Context(), convID, userID, limit)
	if err != nil {
		common.WriteError(w, h.log, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"messages": msgs,
		"count":    len(msgs),
	})
}

// SendMessage accepts either a JSON body or a multipart form carrying a "file" part.
func (h *HTTPHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	convID, err := pathID(r)
	if err != nil {
		common.WriteError(w, h.log, err)
		return
	}

	in := service.SendMessageInput{ConversationID: convID, SenderID: userID}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if !h.readMultipart(w, r, &in) {
			return
		}
		if in.Attachment != nil {
			if c, ok := in.Attachment.Reader.(io.Closer); ok {
				defer c.Close()
			}
		}
	} else {
		var req SendMessageRequest
		if err := common.DecodeJSON(r, &req); err != nil {
			common.WriteError(w, h.log, err)
			return
		}
		in.Content = req.Content
		in.IsAudio = req.IsAudio
		in.ParentID = req.ParentID
	}

	msg, err := h.chat.SendMessage(r.Context(), in)
	if err != nil {
		common.WriteError(w, h.log, err)
		return
	}
	common.WriteJSON(w, http.StatusCreated, msg)
}

func (h *HTTPHandler) readMultipart(w http.ResponseWriter, r *http.Request, in *service.SendMessageInput) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxAttachmentBytes+formOverheadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			common.WriteJSON(w, http.StatusRequestEntityTooLarge, common.ErrorResponse{Error: "attachment too large"})
			return false
		}
		common.WriteError(w, h.log, common.NewValidationError("invalid multipart form"))
		return false
	}

	in.Content = r.FormValue("content")
	in.IsAudio, _ = strconv.ParseBool(r.FormValue("is_audio"))
	if v := r.FormValue("parent_id"); v != "" {
		parent, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			common.WriteError(w, h.log, common.NewValidationError("parent_id must be a number"))
			return false
		}
		in.ParentID = &parent
	}

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return true
	}
	if err != nil {
		common.WriteError(w, h.log, common.NewValidationError("invalid file upload"))
		return false
	}
	if header.Size > h.maxAttachmentBytes {
		file.Close()
		common.WriteJSON(w, http.StatusRequestEntityTooLarge, common.ErrorResponse{
			Error: fmt.Sprintf("attachment exceeds %d bytes", h.maxAttachmentBytes),
		})
		return false
	}
	in.Attachment = &service.AttachmentInput{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Reader:      file,
	}
	return true
}

func (h *HTTPHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	convID, err := pathID(r)
	if err != nil {
		common.WriteError(w, h.log, err)
		return
	}

	marked, err := h.chat.MarkRead(r.Context(), convID, userID)
	if err != nil {
		common.WriteError(w, h.log, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]int64{"marked": marked})
}

func (h *HTTPHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	msgID, err := pathID(r)
	if err != nil {
		common.WriteError(w, h.log, err)
		return
	}
	var req DeleteMessageRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, h.log, err)
		return
	}

	dt, err := h.chat.DeleteMessage(r.Context(), msgID, userID, req.DeleteType)
	if err != nil {
		common.WriteError(w, h.log, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]string{
		"status":      "deleted",
		"delete_type": string(dt),
	})
}

func (h *HTTPHandler) ToggleReaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	msgID, err := pathID(r)
	if err != nil {
		common.WriteError(w, h.log, err)
		return
	}
	var req ReactRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, h.log, err)
		return
	}

	res, err := h.chat.ToggleReaction(r.Context(), msgID, userID, req.Emoji)
	if err != nil {
		common.WriteError(w, h.log, err)
		return
	}
	status := "removed"
	if res.Added {
		status = "added"
	}
	common.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":     status,
		"emoji":      res.Emoji,
		"message_id": res.MessageID,
	})
}

func (h *HTTPHandler) ListIncoming(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	reqs, err := h.requests.ListIncoming(r.Context(), userID)
	if err != nil {
		common.WriteError(w, h.log, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]interface{}{"requests": reqs})
}

func (h *HTTPHandler) ListSent(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	reqs, err := h.requests.ListSent(r.Context(), userID)
	if err != nil {
		common.WriteError(w, h.log, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]interface{}{"requests": reqs})
}

func (h *HTTPHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req ChatRequestBody
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, h.log, err)
		return
	}

	res, err := h.requests.SendRequest(r.Context(), userID, strings.TrimSpace(req.ReceiverUsername))
	if err != nil {
		common.WriteError(w, h.log, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	common.WriteJSON(w, status, res)
}

func (h *HTTPHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	reqID, err := pathID(r)
	if err != nil {
		common.WriteError(w, h.log, err)
		return
	}

	conv, err := h.requests.Accept(r.Context(), reqID, userID)
	if err != nil {
		common.WriteError(w, h.log, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, conv)
}

func (h *HTTPHandler) caller(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteJSON(w, http.StatusUnauthorized, common.ErrorResponse{Error: "user not authenticated"})
	}
	return userID, ok
}

func pathID(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || id == 0 {
		return 0, common.NewValidationError("invalid id")
	}
	return id, nil
}
