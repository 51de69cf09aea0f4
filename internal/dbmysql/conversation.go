package dbmysql

import (
	"fmt"
	"time"
)

// Conversation is a thread between a fixed set of participants.
// PairKey is unique, so a two-party pair or a self-chat can exist only once.
type Conversation struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement;column:conversation_id"`
	PairKey   *string   `gorm:"column:pair_key;size:64;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`

	Participants []ConversationParticipant `gorm:"foreignKey:ConversationID"`
}

type ConversationParticipant struct {
	ConversationID uint64    `gorm:"primaryKey;column:conversation_id;autoIncrement:false"`
	UserID         uint64    `gorm:"primaryKey;column:user_id;autoIncrement:false;index"`
	JoinedAt       time.Time `gorm:"column:joined_at;autoCreateTime"`
}

// PairKey returns the canonical key for the unordered pair {a, b}.
func PairKey(a, b uint64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("pair:%d:%d", a, b)
}

func SelfKey(userID uint64) string {
	return fmt.Sprintf("self:%d", userID)
}

// ParticipantIDs returns the member ids in ascending order when Participants was loaded ordered.
func (c *Conversation) ParticipantIDs() []uint64 {
	ids := make([]uint64, 0, len(c.Participants))
	for _, p := range c.Participants {
		ids = append(ids, p.UserID)
	}
	return ids
}
