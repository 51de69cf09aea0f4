package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gochat/internal/common"
	"gochat/internal/dbmysql"
)

// MaxWindow is the fixed size of the visible history window.
const MaxWindow = 50

// VisiblePage is one consistent read of a conversation as seen by a single viewer.
type VisiblePage struct {
	// Messages are oldest first. Globally deleted messages are kept.
	Messages  []*dbmysql.Message
	Parents   map[uint64]*dbmysql.Message
	Reactions map[uint64][]*dbmysql.MessageReaction
	ReadBy    map[uint64][]uint64
}

type MessageRepository interface {
	Create(ctx context.Context, msg *dbmysql.Message) error
	Get(ctx context.Context, messageID uint64) (*dbmysql.Message, error)
	ListVisible(ctx context.Context, conversationID, viewerID uint64, limit int) (*VisiblePage, error)
	DeleteForEveryone(ctx context.Context, messageID, actorID uint64) error
	DeleteForMe(ctx context.Context, messageID, actorID uint64) error
	MarkRead(ctx context.Context, conversationID, readerID uint64) (int64, error)
	ToggleReaction(ctx context.Context, messageID, userID uint64, emoji string) (bool, error)
	LastVisible(ctx context.Context, conversationID, viewerID uint64) (*dbmysql.Message, error)
	UnreadCount(ctx context.Context, conversationID, viewerID uint64) (int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Create inserts msg. A reply must point at a live message of the same conversation;
// the parent row is share-locked until the insert commits.
func (r *messageRepository) Create(ctx context.Context, msg *dbmysql.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if msg.ParentID != nil {
			var parent dbmysql.Message
			err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
				Select("message_id", "conversation_id", "is_deleted").
				Where("message_id = ?", *msg.ParentID).
				First(&parent).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("parent %d does not exist: %w", *msg.ParentID, common.ErrInvalidReply)
			}
			if err != nil {
				return fmt.Errorf("failed to load parent message: %w", err)
			}
			if parent.IsDeleted || parent.ConversationID != msg.ConversationID {
				return fmt.Errorf("parent %d: %w", parent.ID, common.ErrInvalidReply)
			}
		}

		if err := tx.Create(msg).Error; err != nil {
			return fmt.Errorf("failed to save message: %w", err)
		}
		return nil
	})
}

func (r *messageRepository) Get(ctx context.Context, messageID uint64) (*dbmysql.Message, error) {
	var msg dbmysql.Message
	err := r.db.WithContext(ctx).Where("message_id = ?", messageID).First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("message %d: %w", messageID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return &msg, nil
}

// ListVisible takes the newest limit messages and then drops the ones the viewer
// deleted for themselves, so the result may be shorter than limit.
func (r *messageRepository) ListVisible(ctx context.Context, conversationID, viewerID uint64, limit int) (*VisiblePage, error) {
	if limit <= 0 || limit > MaxWindow {
		limit = MaxWindow
	}

	page := &VisiblePage{
		Parents:   map[uint64]*dbmysql.Message{},
		Reactions: map[uint64][]*dbmysql.MessageReaction{},
		ReadBy:    map[uint64][]uint64{},
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var window []*dbmysql.Message
		if err := tx.Where("conversation_id = ?", conversationID).
			Order("message_id DESC").
			Limit(limit).
			Find(&window).Error; err != nil {
			return fmt.Errorf("failed to load messages: %w", err)
		}
		if len(window) == 0 {
			return nil
		}

		windowIDs := make([]uint64, len(window))
		for i, m := range window {
			windowIDs[i] = m.ID
		}

		var hiddenIDs []uint64
		if err := tx.Model(&dbmysql.MessageDeletion{}).
			Where("user_id = ? AND message_id IN ?", viewerID, windowIDs).
			Pluck("message_id", &hiddenIDs).Error; err != nil {
			return fmt.Errorf("failed to load deletions: %w", err)
		}
		hidden := make(map[uint64]bool, len(hiddenIDs))
		for _, id := range hiddenIDs {
			hidden[id] = true
		}

		visible := make([]*dbmysql.Message, 0, len(window))
		var visibleIDs, parentIDs []uint64
		for i := len(window) - 1; i >= 0; i-- {
			m := window[i]
			if hidden[m.ID] {
				continue
			}
			visible = append(visible, m)
			visibleIDs = append(visibleIDs, m.ID)
			if m.ParentID != nil {
				parentIDs = append(parentIDs, *m.ParentID)
			}
		}
		page.Messages = visible
		if len(visibleIDs) == 0 {
			return nil
		}

		if len(parentIDs) > 0 {
			var parents []*dbmysql.Message
			if err := tx.Where("message_id IN ?", parentIDs).Find(&parents).Error; err != nil {
				return fmt.Errorf("failed to load reply parents: %w", err)
			}
			for _, p := range parents {
				page.Parents[p.ID] = p
			}
		}

		var reactions []*dbmysql.MessageReaction
		if err := tx.Where("message_id IN ?", visibleIDs).Order("id").Find(&reactions).Error; err != nil {
			return fmt.Errorf("failed to load reactions: %w", err)
		}
		for _, rc := range reactions {
			page.Reactions[rc.MessageID] = append(page.Reactions[rc.MessageID], rc)
		}

		var reads []dbmysql.MessageRead
		if err := tx.Where("message_id IN ?", visibleIDs).Find(&reads).Error; err != nil {
			return fmt.Errorf("failed to load read markers: %w", err)
		}
		for _, rd := range reads {
			page.ReadBy[rd.MessageID] = append(page.ReadBy[rd.MessageID], rd.UserID)
		}
		for id := range page.ReadBy {
			ids := page.ReadBy[id]
			sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// DeleteForEveryone is one-way. Repeating it is a no-op.
func (r *messageRepository) DeleteForEveryone(ctx context.Context, messageID, actorID uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var msg dbmysql.Message
		err := tx.Select("message_id", "sender_id", "is_deleted").
			Where("message_id = ?", messageID).
			First(&msg).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("message %d: %w", messageID, common.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to get message: %w", err)
		}
		if msg.SenderID != actorID {
			return fmt.Errorf("only the sender can delete for everyone: %w", common.ErrPermissionDenied)
		}
		if msg.IsDeleted {
			return nil
		}

		if err := tx.Model(&dbmysql.Message{}).
			Where("message_id = ?", messageID).
			Update("is_deleted", true).Error; err != nil {
			return fmt.Errorf("failed to delete message: %w", err)
		}
		return nil
	})
}

func (r *messageRepository) DeleteForMe(ctx context.Context, messageID, actorID uint64) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&dbmysql.MessageDeletion{MessageID: messageID, UserID: actorID}).Error
	if err != nil {
		return fmt.Errorf("failed to hide message: %w", err)
	}
	return nil
}

// MarkRead returns how many messages were newly marked.
func (r *messageRepository) MarkRead(ctx context.Context, conversationID, readerID uint64) (int64, error) {
	var marked int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var unreadIDs []uint64
		if err := tx.Model(&dbmysql.Message{}).
			Where("conversation_id = ? AND sender_id <> ?", conversationID, readerID).
			Where("message_id NOT IN (?)", tx.Model(&dbmysql.MessageRead{}).Select("message_id").Where("user_id = ?", readerID)).
			Pluck("message_id", &unreadIDs).Error; err != nil {
			return fmt.Errorf("failed to find unread messages: %w", err)
		}
		if len(unreadIDs) == 0 {
			return nil
		}

		reads := make([]dbmysql.MessageRead, len(unreadIDs))
		for i, id := range unreadIDs {
			reads[i] = dbmysql.MessageRead{MessageID: id, UserID: readerID}
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(reads, 200)
		if res.Error != nil {
			return fmt.Errorf("failed to mark messages read: %w", res.Error)
		}
		marked = res.RowsAffected
		return nil
	})
	return marked, err
}

// ToggleReaction reports true when the reaction was added and false when it was removed.
func (r *messageRepository) ToggleReaction(ctx context.Context, messageID, userID uint64, emoji string) (bool, error) {
	var added bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("message_id = ? AND user_id = ? AND emoji = ?", messageID, userID, emoji).
			Delete(&dbmysql.MessageReaction{})
		if res.Error != nil {
			return fmt.Errorf("failed to remove reaction: %w", res.Error)
		}
		if res.RowsAffected > 0 {
			return nil
		}

		reaction := &dbmysql.MessageReaction{MessageID: messageID, UserID: userID, Emoji: emoji}
		ins := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(reaction)
		if ins.Error != nil {
			return fmt.Errorf("failed to add reaction: %w", ins.Error)
		}
		// a concurrent toggle may have inserted the same row first
		added = ins.RowsAffected > 0
		return nil
	})
	return added, err
}

// LastVisible returns nil without error when the viewer can see no live message.
func (r *messageRepository) LastVisible(ctx context.Context, conversationID, viewerID uint64) (*dbmysql.Message, error) {
	var msgs []*dbmysql.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND is_deleted = ?", conversationID, false).
		Where("message_id NOT IN (?)", r.db.Model(&dbmysql.MessageDeletion{}).Select("message_id").Where("user_id = ?", viewerID)).
		Order("message_id DESC").
		Limit(1).
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get last message: %w", err)
	}
	if len(msgs) == 0 {
		return nil, nil
	}
	return msgs[0], nil
}

// UnreadCount counts messages from others the viewer has not read, deleted ones included.
func (r *messageRepository) UnreadCount(ctx context.Context, conversationID, viewerID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&dbmysql.Message{}).
		Where("conversation_id = ? AND sender_id <> ?", conversationID, viewerID).
		Where("message_id NOT IN (?)", r.db.Model(&dbmysql.MessageRead{}).Select("message_id").Where("user_id = ?", viewerID)).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}
