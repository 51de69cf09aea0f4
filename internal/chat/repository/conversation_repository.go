package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gochat/internal/common"
	"gochat/internal/dbmysql"
)

type ConversationRepository interface {
	// FindOrCreatePair returns the single conversation of {a, b}; created is true
	// only for the call that inserted it.
	FindOrCreatePair(ctx context.Context, a, b uint64) (conv *dbmysql.Conversation, created bool, err error)
	FindOrCreateSelf(ctx context.Context, userID uint64) (conv *dbmysql.Conversation, created bool, err error)
	Get(ctx context.Context, conversationID uint64) (*dbmysql.Conversation, error)
	ListForUser(ctx context.Context, userID uint64) ([]*dbmysql.Conversation, error)
	IsParticipant(ctx context.Context, conversationID, userID uint64) (bool, error)
}

type conversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) FindOrCreatePair(ctx context.Context, a, b uint64) (*dbmysql.Conversation, bool, error) {
	if a == b {
		return r.FindOrCreateSelf(ctx, a)
	}
	return r.findOrCreate(ctx, dbmysql.PairKey(a, b), a, b)
}

func (r *conversationRepository) FindOrCreateSelf(ctx context.Context, userID uint64) (*dbmysql.Conversation, bool, error) {
	return r.findOrCreate(ctx, dbmysql.SelfKey(userID), userID)
}

// findOrCreate relies on the unique pair_key: a losing concurrent insert turns into a no-op
// and both callers read back the same row.
func (r *conversationRepository) findOrCreate(ctx context.Context, key string, members ...uint64) (*dbmysql.Conversation, bool, error) {
	var (
		conv    dbmysql.Conversation
		created bool
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		candidate := &dbmysql.Conversation{PairKey: &key}
		res := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "pair_key"}}, DoNothing: true}).
			Create(candidate)
		if res.Error != nil {
			return fmt.Errorf("failed to create conversation: %w", res.Error)
		}

		if res.RowsAffected > 0 {
			created = true
			participants := make([]dbmysql.ConversationParticipant, len(members))
			for i, m := range members {
				participants[i] = dbmysql.ConversationParticipant{ConversationID: candidate.ID, UserID: m}
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&participants).Error; err != nil {
				return fmt.Errorf("failed to add participants: %w", err)
			}
		}

		return preloadParticipants(tx).Where("pair_key = ?", key).First(&conv).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &conv, created, nil
}

func (r *conversationRepository) Get(ctx context.Context, conversationID uint64) (*dbmysql.Conversation, error) {
	var conv dbmysql.Conversation
	err := preloadParticipants(r.db.WithContext(ctx)).
		Where("conversation_id = ?", conversationID).
		First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("conversation %d: %w", conversationID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &conv, nil
}

// ListForUser returns the user's conversations, newest first.
func (r *conversationRepository) ListForUser(ctx context.Context, userID uint64) ([]*dbmysql.Conversation, error) {
	var convs []*dbmysql.Conversation
	err := preloadParticipants(r.db.WithContext(ctx)).
		Joins("JOIN conversation_participants cp ON cp.conversation_id = conversations.conversation_id").
		Where("cp.user_id = ?", userID).
		Order("conversations.conversation_id DESC").
		Find(&convs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return convs, nil
}

func (r *conversationRepository) IsParticipant(ctx context.Context, conversationID, userID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&dbmysql.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return count > 0, nil
}

func preloadParticipants(db *gorm.DB) *gorm.DB {
	return db.Preload("Participants", func(db *gorm.DB) *gorm.DB {
		return db.Order("user_id")
	})
}
