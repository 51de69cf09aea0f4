package notif

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"gochat/internal/common"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type NotificationHandler struct {
	service *NotificationService
	log     *zap.Logger
}

func NewNotificationHandler(service *NotificationService, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{service: service, log: log}
}

func (h *NotificationHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/notifications", h.List).Methods(http.MethodGet)
	r.HandleFunc("/notifications/unread-count", h.UnreadCount).Methods(http.MethodGet)
	r.HandleFunc("/notifications/{id}/read", h.MarkAsRead).Methods(http.MethodPut)
	r.HandleFunc("/notifications/{id}", h.Delete).Methods(http.MethodDelete)
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteJSON(w, http.StatusUnauthorized, common.ErrorResponse{Error: "user not authenticated"})
		return
	}

	limit := queryInt(r, "limit", defaultPageSize)
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	notifications, err := h.service.GetUserNotifications(r.Context(), userID, limit, offset)
	if err != nil {
		common.WriteError(w, h.log, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": notifications,
		"limit":         limit,
		"offset":        offset,
	})
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteJSON(w, http.StatusUnauthorized, common.ErrorResponse{Error: "user not authenticated"})
		return
	}

	count, err := h.service.UnreadCount(r.Context(), userID)
	if err != nil {
		common.WriteError(w, h.log, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]int64{"unread_count": count})
}

func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteJSON(w, http.StatusUnauthorized, common.ErrorResponse{Error: "user not authenticated"})
		return
	}

	if err := h.service.MarkAsRead(r.Context(), mux.Vars(r)["id"], userID); err != nil {
		common.WriteError(w, h.log, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteJSON(w, http.StatusUnauthorized, common.ErrorResponse{Error: "user not authenticated"})
		return
	}

	if err := h.service.DeleteNotification(r.Context(), mux.Vars(r)["id"], userID); err != nil {
		common.WriteError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
