package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gochat/internal/common"
	"gochat/internal/dbmysql"
)

type RequestRepository interface {
	// CreateIfAbsent never fails on a duplicate (sender, receiver); the stored row is returned instead.
	CreateIfAbsent(ctx context.Context, req *dbmysql.ChatRequest) (stored *dbmysql.ChatRequest, created bool, err error)
	Get(ctx context.Context, id uint64) (*dbmysql.ChatRequest, error)
	MarkAccepted(ctx context.Context, id uint64) (bool, error)
	ListIncoming(ctx context.Context, receiverID uint64) ([]*dbmysql.ChatRequest, error)
	ListSent(ctx context.Context, senderID uint64) ([]*dbmysql.ChatRequest, error)
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) CreateIfAbsent(ctx context.Context, req *dbmysql.ChatRequest) (*dbmysql.ChatRequest, bool, error) {
	var (
		stored  dbmysql.ChatRequest
		created bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "sender_id"}, {Name: "receiver_id"}},
			DoNothing: true,
		}).Create(req)
		if res.Error != nil {
			return fmt.Errorf("failed to create chat request: %w", res.Error)
		}
		created = res.RowsAffected > 0

		return tx.Where("sender_id = ? AND receiver_id = ?", req.SenderID, req.ReceiverID).First(&stored).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &stored, created, nil
}

func (r *requestRepository) Get(ctx context.Context, id uint64) (*dbmysql.ChatRequest, error) {
	var req dbmysql.ChatRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("chat request %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat request: %w", err)
	}
	return &req, nil
}

// MarkAccepted reports whether this call moved the request from pending to accepted.
// An already accepted request is left untouched.
func (r *requestRepository) MarkAccepted(ctx context.Context, id uint64) (bool, error) {
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&dbmysql.ChatRequest{}).
		Where("id = ? AND accepted = ?", id, false).
		Updates(map[string]interface{}{
			"accepted":    true,
			"accepted_at": &now,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to accept chat request: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *requestRepository) ListIncoming(ctx context.Context, receiverID uint64) ([]*dbmysql.ChatRequest, error) {
	var requests []*dbmysql.ChatRequest
	err := r.db.WithContext(ctx).
		Where("receiver_id = ? AND accepted = ?", receiverID, false).
		Order("created_at DESC").
		Order("id DESC").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list incoming requests: %w", err)
	}
	return requests, nil
}

func (r *requestRepository) ListSent(ctx context.Context, senderID uint64) ([]*dbmysql.ChatRequest, error) {
	var requests []*dbmysql.ChatRequest
	err := r.db.WithContext(ctx).
		Where("sender_id = ?", senderID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sent requests: %w", err)
	}
	return requests, nil
}
