package user

import (
	"bytes"
	"context"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	chatv1 "gochat/api/chat/v1"
	"gochat/internal/common"
	"gochat/internal/dbmysql"
)

// PublicGRPCMethods skip the auth interceptor.
var PublicGRPCMethods = map[string]bool{
	chatv1.AuthService_Register_FullMethodName: true,
	chatv1.AuthService_Login_FullMethodName:    true,
	"/grpc.health.v1.Health/Check":             true,
	"/grpc.health.v1.Health/Watch":             true,
}

type GRPCHandler struct {
	chatv1.UnimplementedAuthServiceServer

	userService UserService
	log         *zap.Logger
}

func NewGRPCHandler(userService UserService, log *zap.Logger) *GRPCHandler {
	return &GRPCHandler{userService: userService, log: log}
}

func (h *GRPCHandler) Register(ctx context.Context, req *chatv1.RegisterRequest) (*chatv1.AuthResponse, error) {
	u, token, err := h.userService.RegisterUser(ctx, req.Handle, req.Email, req.Password)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &chatv1.AuthResponse{Token: token, User: &chatv1.User{ID: u.UserID, Handle: u.Handle}}, nil
}

func (h *GRPCHandler) Login(ctx context.Context, req *chatv1.LoginRequest) (*chatv1.AuthResponse, error) {
	u, token, err := h.userService.LoginUser(ctx, req.Handle, req.Password)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &chatv1.AuthResponse{Token: token, User: &chatv1.User{ID: u.UserID, Handle: u.Handle}}, nil
}

// UpdateProfile requires a token; the auth interceptor has already resolved the caller.
func (h *GRPCHandler) UpdateProfile(ctx context.Context, req *chatv1.UpdateProfileRequest) (*chatv1.UpdateProfileResponse, error) {
	userID, ok := common.UserIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "user not authenticated")
	}

	update := common.ProfileUpdate{Email: req.Email, FirstName: req.FirstName, LastName: req.LastName}
	if img := req.Image; img != nil {
		if len(img.Data) > maxImageBytes {
			return nil, status.Errorf(codes.InvalidArgument, "image exceeds %d bytes", maxImageBytes)
		}
		update.Image = &common.FileUpload{
			Filename:    img.Filename,
			ContentType: img.ContentType,
			Reader:      bytes.NewReader(img.Data),
		}
	}

	u, err := h.userService.UpdateProfile(ctx, userID, update)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &chatv1.UpdateProfileResponse{Profile: toProfile(u)}, nil
}

func toProfile(u *dbmysql.User) *chatv1.Profile {
	return &chatv1.Profile{
		ID:        u.UserID,
		Handle:    u.Handle,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		ImageID:   u.ImageID,
		CreatedAt: timestamppb.New(u.CreatedAt),
	}
}

func (h *GRPCHandler) toStatus(err error) error {
	code := common.GRPCCode(err)
	if code == codes.Internal {
		h.log.Error("auth call failed", zap.Error(err))
	}
	return status.Error(code, common.PublicMessage(err))
}
