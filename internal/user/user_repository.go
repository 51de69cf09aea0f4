package user

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"gochat/internal/common"
	"gochat/internal/dbmysql"
)

const statusActive = "active"

type UserRepository interface {
	CreateUser(ctx context.Context, user *dbmysql.User) error
	GetUserByID(ctx context.Context, userID uint64) (*dbmysql.User, error)
	GetUserByHandle(ctx context.Context, handle string) (*dbmysql.User, error)
	GetUsersByIDs(ctx context.Context, userIDs []uint64) ([]*dbmysql.User, error)
	CheckUserExists(ctx context.Context, handle string) (bool, error)
	UpdateUser(ctx context.Context, user *dbmysql.User) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) CreateUser(ctx context.Context, user *dbmysql.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return common.ErrHandleTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) GetUserByID(ctx context.Context, userID uint64) (*dbmysql.User, error) {
	var user dbmysql.User
	err := r.db.WithContext(ctx).Where("user_id = ? AND status = ?", userID, statusActive).First(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *userRepository) GetUserByHandle(ctx context.Context, handle string) (*dbmysql.User, error) {
	var user dbmysql.User
	err := r.db.WithContext(ctx).Where("handle = ? AND status = ?", handle, statusActive).First(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// GetUsersByIDs ignores unknown ids.
func (r *userRepository) GetUsersByIDs(ctx context.Context, userIDs []uint64) ([]*dbmysql.User, error) {
	if len(userIDs) == 0 {
		return []*dbmysql.User{}, nil
	}
	var users []*dbmysql.User
	err := r.db.WithContext(ctx).Where("user_id IN ?", userIDs).Order("user_id").Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	return users, nil
}

func (r *userRepository) CheckUserExists(ctx context.Context, handle string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&dbmysql.User{}).Where("handle = ?", handle).Count(&count).Error
	return count > 0, err
}

// UpdateUser writes the editable profile columns, zero values included.
func (r *userRepository) UpdateUser(ctx context.Context, user *dbmysql.User) error {
	result := r.db.WithContext(ctx).Model(user).
		Select("email", "first_name", "last_name", "image_id", "updated_at").
		Updates(user)
	if result.Error != nil {
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return common.ErrUserNotFound
	}
	return fmt.Errorf("failed to get user: %w", err)
}
