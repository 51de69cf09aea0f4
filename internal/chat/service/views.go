package service

import (
	"strings"
	"time"

	"gochat/internal/common"
	"gochat/internal/crypto"
	"gochat/internal/dbmysql"
)

type UserView struct {
	ID     uint64 `json:"id"`
	Handle string `json:"handle"`
}

type ReactionView struct {
	Emoji       string   `json:"emoji"`
	Count       int      `json:"count"`
	UserIDs     []uint64 `json:"user_ids"`
	ReactedByMe bool     `json:"reacted_by_me"`
}

// MessageView is a message as one viewer sees it. Content and the attachment
// fields are nil once the message is deleted for everyone.
type MessageView struct {
	ID             uint64         `json:"id"`
	ConversationID uint64         `json:"conversation_id"`
	SenderID       uint64         `json:"sender_id"`
	SenderHandle   string         `json:"sender_handle"`
	Content        *string        `json:"content"`
	FileID         *string        `json:"file_id"`
	FileURL        *string        `json:"file_url"`
	FileName       *string        `json:"file_name"`
	IsImage        bool           `json:"is_image"`
	IsAudio        bool           `json:"is_audio"`
	IsMe           bool           `json:"is_me"`
	IsDeleted      bool           `json:"is_deleted"`
	ParentID       *uint64        `json:"parent_id"`
	ParentContent  *string        `json:"parent_content"`
	ParentSender   *string        `json:"parent_sender"`
	Reactions      []ReactionView `json:"reactions"`
	ReadBy         []uint64       `json:"read_by"`
	CreatedAt      time.Time      `json:"created_at"`
}

type ConversationView struct {
	ID               uint64       `json:"id"`
	Participants     []UserView   `json:"participants"`
	CreatedAt        time.Time    `json:"created_at"`
	LastMessage      *MessageView `json:"last_message"`
	OtherParticipant *UserView    `json:"other_participant"`
	UnreadCount      int64        `json:"unread_count"`
	IsSelf           bool         `json:"is_self"`
}

type RequestView struct {
	ID         uint64     `json:"id"`
	Sender     UserView   `json:"sender"`
	Receiver   UserView   `json:"receiver"`
	Accepted   bool       `json:"accepted"`
	CreatedAt  time.Time  `json:"created_at"`
	AcceptedAt *time.Time `json:"accepted_at"`
}

// presenter turns stored rows into views for a single viewer.
type presenter struct {
	codec        *crypto.Codec
	mediaBaseURL string
	viewerID     uint64
	users        map[uint64]*dbmysql.User
}

func (p *presenter) user(id uint64) UserView {
	if u, ok := p.users[id]; ok {
		return UserView{ID: id, Handle: u.Handle}
	}
	return UserView{ID: id}
}

func (p *presenter) message(m *dbmysql.Message, parent *dbmysql.Message, reactions []*dbmysql.MessageReaction, readBy []uint64) *MessageView {
	v := &MessageView{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		SenderHandle:   p.user(m.SenderID).Handle,
		IsAudio:        m.IsAudio,
		IsMe:           m.SenderID == p.viewerID,
		IsDeleted:      m.IsDeleted,
		ParentID:       m.ParentID,
		Reactions:      groupReactions(reactions, p.viewerID),
		ReadBy:         readBy,
		CreatedAt:      m.CreatedAt,
	}
	if v.ReadBy == nil {
		v.ReadBy = []uint64{}
	}

	if !m.IsDeleted {
		if m.Content != "" {
			text := p.codec.Decrypt(m.Content)
			v.Content = &text
		}
		if m.AttachmentID != nil {
			url := strings.TrimRight(p.mediaBaseURL, "/") + "/" + *m.AttachmentID
			v.FileID = m.AttachmentID
			v.FileURL = &url
			v.FileName = m.AttachmentName
			if m.AttachmentName != nil {
				v.IsImage = common.IsImageName(*m.AttachmentName)
			}
		}
	}

	// the preview ignores whether the viewer hid the parent for themselves
	if parent != nil && !parent.IsDeleted {
		text := p.codec.Decrypt(parent.Content)
		handle := p.user(parent.SenderID).Handle
		v.ParentContent = &text
		v.ParentSender = &handle
	}
	return v
}

// groupReactions keeps emojis in order of first use.
func groupReactions(reactions []*dbmysql.MessageReaction, viewerID uint64) []ReactionView {
	out := []ReactionView{}
	index := map[string]int{}
	for _, r := range reactions {
		i, ok := index[r.Emoji]
		if !ok {
			i = len(out)
			index[r.Emoji] = i
			out = append(out, ReactionView{Emoji: r.Emoji})
		}
		out[i].Count++
		out[i].UserIDs = append(out[i].UserIDs, r.UserID)
		if r.UserID == viewerID {
			out[i].ReactedByMe = true
		}
	}
	return out
}

func (p *presenter) request(r *dbmysql.ChatRequest) *RequestView {
	return &RequestView{
		ID:         r.ID,
		Sender:     p.user(r.SenderID),
		Receiver:   p.user(r.ReceiverID),
		Accepted:   r.Accepted,
		CreatedAt:  r.CreatedAt,
		AcceptedAt: r.AcceptedAt,
	}
}

func messageUserIDs(msgs []*dbmysql.Message, parents map[uint64]*dbmysql.Message) []uint64 {
	ids := make([]uint64, 0, len(msgs)+len(parents))
	for _, m := range msgs {
		ids = append(ids, m.SenderID)
	}
	for _, p := range parents {
		ids = append(ids, p.SenderID)
	}
	return ids
}
