package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"gochat/internal/common"
	"gochat/internal/dbmongo"
	"gochat/internal/dbmysql"
)

const maxNameRunes = 150

type UserService interface {
	RegisterUser(ctx context.Context, handle, email, password string) (*dbmysql.User, string, error)
	LoginUser(ctx context.Context, handle, password string) (*dbmysql.User, string, error)
	GetProfile(ctx context.Context, userID uint64) (*dbmysql.User, error)
	UpdateProfile(ctx context.Context, userID uint64, update common.ProfileUpdate) (*dbmysql.User, error)
	GetByHandle(ctx context.Context, handle string) (*dbmysql.User, error)
	GetByIDs(ctx context.Context, userIDs []uint64) (map[uint64]*dbmysql.User, error)
}

type userService struct {
	userRepo UserRepository
	tokens   *common.TokenManager
	images   dbmongo.AttachmentStore
	log      *zap.Logger
}

// NewUserService accepts a nil image store; profile image uploads then fail with ErrAttachmentsOff.
func NewUserService(userRepo UserRepository, tokens *common.TokenManager, images dbmongo.AttachmentStore, log *zap.Logger) UserService {
	return &userService{userRepo: userRepo, tokens: tokens, images: images, log: log}
}

func (s *userService) RegisterUser(ctx context.Context, handle, email, password string) (*dbmysql.User, string, error) {
	handle = strings.TrimSpace(handle)
	if err := common.ValidateHandle(handle); err != nil {
		return nil, "", err
	}

	if err := common.ValidateEmail(email); err != nil {
		return nil, "", err
	}

	if err := common.ValidatePassword(password); err != nil {
		return nil, "", err
	}

	exists, err := s.userRepo.CheckUserExists(ctx, handle)
	if err != nil {
		return nil, "", err
	}
	if exists {
		return nil, "", common.ErrHandleTaken
	}

	hashed, err := common.HashPassword(password)
	if err != nil {
		return nil, "", err
	}

	user := &dbmysql.User{
		Handle:       handle,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hashed,
		Status:       statusActive,
	}

	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.GenerateToken(user.UserID, user.Handle)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	s.log.Info("user registered", zap.Uint64("user_id", user.UserID), zap.String("handle", user.Handle))
	return user, token, nil
}

func (s *userService) LoginUser(ctx context.Context, handle, password string) (*dbmysql.User, string, error) {
	if handle == "" || password == "" {
		return nil, "", common.ErrInvalidCredentials
	}

	user, err := s.userRepo.GetUserByHandle(ctx, handle)
	if errors.Is(err, common.ErrUserNotFound) {
		return nil, "", common.ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}

	if err := common.CheckPassword(password, user.PasswordHash); err != nil {
		return nil, "", common.ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user.UserID, user.Handle)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}
	return user, token, nil
}

func (s *userService) GetProfile(ctx context.Context, userID uint64) (*dbmysql.User, error) {
	return s.userRepo.GetUserByID(ctx, userID)
}

func (s *userService) UpdateProfile(ctx context.Context, userID uint64, update common.ProfileUpdate) (*dbmysql.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*update.Email))
		if err := common.ValidateEmail(email); err != nil {
			return nil, err
		}
		user.Email = email
	}
	if update.FirstName != nil {
		if user.FirstName, err = cleanName("first_name", *update.FirstName); err != nil {
			return nil, err
		}
	}
	if update.LastName != nil {
		if user.LastName, err = cleanName("last_name", *update.LastName); err != nil {
			return nil, err
		}
	}

	var oldImage *string
	if update.Image != nil {
		att, err := s.uploadImage(ctx, userID, update.Image)
		if err != nil {
			return nil, err
		}
		oldImage, user.ImageID = user.ImageID, &att.ID
	}

	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		if update.Image != nil {
			s.removeImage(ctx, *user.ImageID)
		}
		return nil, err
	}
	if oldImage != nil {
		s.removeImage(ctx, *oldImage)
	}

	s.log.Info("profile updated", zap.Uint64("user_id", userID))
	return user, nil
}

func (s *userService) uploadImage(ctx context.Context, userID uint64, img *common.FileUpload) (*dbmongo.Attachment, error) {
	if s.images == nil {
		return nil, common.ErrAttachmentsOff
	}
	contentType := img.ContentType
	if contentType == "" {
		contentType = common.ContentTypeForName(img.Filename)
	}
	if common.DetectFileType(contentType) != common.MediaFileTypeImage {
		return nil, common.NewValidationError("profile image must be an image")
	}
	return s.images.Upload(ctx, img.Filename, contentType, userID, img.Reader)
}

func (s *userService) removeImage(ctx context.Context, fileID string) {
	if err := s.images.Delete(ctx, fileID); err != nil {
		s.log.Warn("failed to remove profile image", zap.String("file_id", fileID), zap.Error(err))
	}
}

func cleanName(field, name string) (string, error) {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > maxNameRunes {
		return "", common.NewValidationError(fmt.Sprintf("%s must be at most %d characters", field, maxNameRunes))
	}
	return name, nil
}

func (s *userService) GetByHandle(ctx context.Context, handle string) (*dbmysql.User, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, common.ErrUserNotFound
	}
	return s.userRepo.GetUserByHandle(ctx, handle)
}

func (s *userService) GetByIDs(ctx context.Context, userIDs []uint64) (map[uint64]*dbmysql.User, error) {
	users, err := s.userRepo.GetUsersByIDs(ctx, dedupe(userIDs))
	if err != nil {
		return nil, err
	}
	out := make(map[uint64]*dbmysql.User, len(users))
	for _, u := range users {
		out[u.UserID] = u
	}
	return out, nil
}

func dedupe(ids []uint64) []uint64 {
	seen := make(map[uint64]bool, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
