package user

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"gochat/internal/common"
	"gochat/internal/dbmysql"
)

const (
	maxImageBytes     = 5 << 20
	formOverheadBytes = 1 << 20
)

// Handler serves the auth endpoints over HTTP.
type Handler struct {
	userService UserService
	log         *zap.Logger
}

func NewHandler(userService UserService, log *zap.Logger) *Handler {
	return &Handler{userService: userService, log: log}
}

type RegisterRequest struct {
	Handle   string `json:"handle" validate:"required"`
	Email    string `json:"email"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Handle   string `json:"handle" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token   string       `json:"token"`
	User    *ProfileView `json:"user"`
	Message string       `json:"message"`
}

// UpdateProfileRequest is the JSON form of PUT /auth/me. Omitted fields are not touched.
type UpdateProfileRequest struct {
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

type ProfileView struct {
	UserID    uint64    `json:"user_id"`
	Handle    string    `json:"handle"`
	Email     string    `json:"email,omitempty"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	ImageID   *string   `json:"image_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func NewProfileView(u *dbmysql.User) *ProfileView {
	return &ProfileView{
		UserID:    u.UserID,
		Handle:    u.Handle,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		ImageID:   u.ImageID,
		CreatedAt: u.CreatedAt,
	}
}

// RegisterRoutes mounts register/login on public and /auth/me on protected.
func (h *Handler) RegisterRoutes(public, protected *mux.Router) {
	public.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)
	public.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	protected.HandleFunc("/auth/me", h.Me).Methods(http.MethodGet)
	protected.HandleFunc("/auth/me", h.UpdateMe).Methods(http.MethodPut)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, h.log, err)
		return
	}

	user, token, err := h.userService.RegisterUser(r.Context(), req.Handle, req.Email, req.Password)
	if err != nil {
		common.WriteError(w, h.log, err)
		return
	}

	common.WriteJSON(w, http.StatusCreated, AuthResponse{
		Token:   token,
		User:    NewProfileView(user),
		Message: "registration successful",
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, h.log, err)
		return
	}

	user, token, err := h.userService.LoginUser(r.Context(), req.Handle, req.Password)
	if err != nil {
		common.WriteError(w, h.log, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, AuthResponse{
		Token:   token,
		User:    NewProfileView(user),
		Message: "login successful",
	})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteJSON(w, http.StatusUnauthorized, common.ErrorResponse{Error: "user not authenticated"})
		return
	}

	user, err := h.userService.GetProfile(r.Context(), userID)
	if err != nil {
		common.WriteError(w, h.log, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, NewProfileView(user))
}

// UpdateMe takes a JSON body, or a multipart form whose optional "image" part becomes the avatar.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteJSON(w, http.StatusUnauthorized, common.ErrorResponse{Error: "user not authenticated"})
		return
	}

	var update common.ProfileUpdate
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if !h.readProfileForm(w, r, &update) {
			return
		}
		if update.Image != nil {
			if c, ok := update.Image.Reader.(io.Closer); ok {
				defer c.Close()
			}
		}
	} else {
		var req UpdateProfileRequest
		if err := common.DecodeJSON(r, &req); err != nil {
			common.WriteError(w, h.log, err)
			return
		}
		update.Email, update.FirstName, update.LastName = req.Email, req.FirstName, req.LastName
	}

	user, err := h.userService.UpdateProfile(r.Context(), userID, update)
	if err != nil {
		common.WriteError(w, h.log, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, NewProfileView(user))
}

func (h *Handler) readProfileForm(w http.ResponseWriter, r *http.Request, update *common.ProfileUpdate) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+formOverheadBytes)
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			common.WriteJSON(w, http.StatusRequestEntityTooLarge, common.ErrorResponse{Error: "image too large"})
			return false
		}
		common.WriteError(w, h.log, common.NewValidationError("invalid multipart form"))
		return false
	}

	for key, dst := range map[string]**string{
		"email":      &update.Email,
		"first_name": &update.FirstName,
		"last_name":  &update.LastName,
	} {
		if vals, ok := r.MultipartForm.Value[key]; ok && len(vals) > 0 {
			v := vals[0]
			*dst = &v
		}
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return true
	}
	if err != nil {
		common.WriteError(w, h.log, common.NewValidationError("invalid image upload"))
		return false
	}
	if header.Size > maxImageBytes {
		file.Close()
		common.WriteJSON(w, http.StatusRequestEntityTooLarge, common.ErrorResponse{
			Error: fmt.Sprintf("image exceeds %d bytes", maxImageBytes),
		})
		return false
	}
	update.Image = &common.FileUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Reader:      file,
	}
	return true
}
