package repository

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"gochat/internal/common"
	"gochat/internal/dbmysql"
	"gochat/internal/testutil"
)

type fixture struct {
	db       *gorm.DB
	messages MessageRepository
	convs    ConversationRepository
	requests RequestRepository
	alice    *dbmysql.User
	bob      *dbmysql.User
	carol    *dbmysql.User
	conv     *dbmysql.Conversation
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	users := testutil.CreateUsers(t, db, "alice", "bob", "carol")

	f := &fixture{
		db:       db,
		messages: NewMessageRepository(db),
		convs:    NewConversationRepository(db),
		requests: NewRequestRepository(db),
		alice:    users[0],
		bob:      users[1],
		carol:    users[2],
	}
	conv, created, err := f.convs.FindOrCreatePair(context.Background(), f.alice.UserID, f.bob.UserID)
	require.NoError(t, err)
	require.True(t, created)
	f.conv = conv
	return f
}

func (f *fixture) send(t *testing.T, sender uint64, content string, parent *uint64) *dbmysql.Message {
	t.Helper()
	msg := &dbmysql.Message{ConversationID: f.conv.ID, SenderID: sender, Content: content, ParentID: parent}
	require.NoError(t, f.messages.Create(context.Background(), msg))
	return msg
}

func contents(msgs []*dbmysql.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Content
	}
	return out
}

func TestMessageRepository_ListVisibleWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		f.send(t, f.alice.UserID, fmt.Sprintf("m%02d", i), nil)
	}

	page, err := f.messages.ListVisible(ctx, f.conv.ID, f.bob.UserID, 50)
	require.NoError(t, err)
	require.Len(t, page.Messages, 50)
	assert.Equal(t, "m10", page.Messages[0].Content)
	assert.Equal(t, "m59", page.Messages[49].Content)
	for i := 1; i < len(page.Messages); i++ {
		assert.Less(t, page.Messages[i-1].ID, page.Messages[i].ID)
	}

	// limits above the cap are clamped
	page, err = f.messages.ListVisible(ctx, f.conv.ID, f.bob.UserID, 500)
	require.NoError(t, err)
	assert.Len(t, page.Messages, MaxWindow)

	page, err = f.messages.ListVisible(ctx, f.conv.ID, f.bob.UserID, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"m55", "m56", "m57", "m58", "m59"}, contents(page.Messages))
}

func TestMessageRepository_DeletionVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.send(t, f.alice.UserID, "first", nil)
	second := f.send(t, f.alice.UserID, "second", nil)

	require.NoError(t, f.messages.DeleteForMe(ctx, first.ID, f.bob.UserID))
	// repeating is a no-op
	require.NoError(t, f.messages.DeleteForMe(ctx, first.ID, f.bob.UserID))

	bobView, err := f.messages.ListVisible(ctx, f.conv.ID, f.bob.UserID, 50)
	require.NoError(t, err)
	assert.Equal(t, []string{"second"}, contents(bobView.Messages))

	aliceView, err := f.messages.ListVisible(ctx, f.conv.ID, f.alice.UserID, 50)
	require.NoError(t, err)
	assert.Len(t, aliceView.Messages, 2)

	require.NoError(t, f.messages.DeleteForEveryone(ctx, second.ID, f.alice.UserID))
	require.NoError(t, f.messages.DeleteForEveryone(ctx, second.ID, f.alice.UserID))

	aliceView, err = f.messages.ListVisible(ctx, f.conv.ID, f.alice.UserID, 50)
	require.NoError(t, err)
	require.Len(t, aliceView.Messages, 2)
	assert.True(t, aliceView.Messages[1].IsDeleted)
}

func TestMessageRepository_DeleteForEveryoneRequiresSender(t *testing.T) {
	f := newFixture(t)
	msg := f.send(t, f.alice.UserID, "mine", nil)

	err := f.messages.DeleteForEveryone(context.Background(), msg.ID, f.bob.UserID)
	assert.ErrorIs(t, err, common.ErrPermissionDenied)

	stored, err := f.messages.Get(context.Background(), msg.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsDeleted)

	err = f.messages.DeleteForEveryone(context.Background(), 9999, f.alice.UserID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMessageRepository_ReplyRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	parent := f.send(t, f.alice.UserID, "question", nil)
	reply := f.send(t, f.bob.UserID, "answer", &parent.ID)

	page, err := f.messages.ListVisible(ctx, f.conv.ID, f.bob.UserID, 50)
	require.NoError(t, err)
	require.Contains(t, page.Parents, parent.ID)
	assert.Equal(t, "question", page.Parents[parent.ID].Content)

	other, _, err := f.convs.FindOrCreatePair(ctx, f.alice.UserID, f.carol.UserID)
	require.NoError(t, err)

	missing := uint64(424242)
	tests := []struct {
		name   string
		convID uint64
		parent *uint64
	}{
		{"missing parent", f.conv.ID, &missing},
		{"parent in another conversation", other.ID, &reply.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.messages.Create(ctx, &dbmysql.Message{ConversationID: tt.convID, SenderID: f.alice.UserID, Content: "x", ParentID: tt.parent})
			assert.ErrorIs(t, err, common.ErrInvalidReply)
		})
	}

	require.NoError(t, f.messages.DeleteForEveryone(ctx, parent.ID, f.alice.UserID))
	err = f.messages.Create(ctx, &dbmysql.Message{ConversationID: f.conv.ID, SenderID: f.bob.UserID, Content: "late", ParentID: &parent.ID})
	assert.ErrorIs(t, err, common.ErrInvalidReply)

	// the existing reply is untouched
	stored, err := f.messages.Get(ctx, reply.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsDeleted)
	assert.Equal(t, parent.ID, *stored.ParentID)
}

func TestMessageRepository_MarkReadAndUnread(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.send(t, f.alice.UserID, "one", nil)
	two := f.send(t, f.alice.UserID, "two", nil)
	f.send(t, f.bob.UserID, "own", nil)

	unread, err := f.messages.UnreadCount(ctx, f.conv.ID, f.bob.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	// deleted messages still count as unread
	require.NoError(t, f.messages.DeleteForEveryone(ctx, two.ID, f.alice.UserID))
	unread, err = f.messages.UnreadCount(ctx, f.conv.ID, f.bob.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	marked, err := f.messages.MarkRead(ctx, f.conv.ID, f.bob.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), marked)

	marked, err = f.messages.MarkRead(ctx, f.conv.ID, f.bob.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), marked)

	unread, err = f.messages.UnreadCount(ctx, f.conv.ID, f.bob.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)

	unread, err = f.messages.UnreadCount(ctx, f.conv.ID, f.alice.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	page, err := f.messages.ListVisible(ctx, f.conv.ID, f.alice.UserID, 50)
	require.NoError(t, err)
	assert.Equal(t, []uint64{f.bob.UserID}, page.ReadBy[two.ID])
}

func TestMessageRepository_ToggleReactionIsItsOwnInverse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	msg := f.send(t, f.alice.UserID, "react to me", nil)

	added, err := f.messages.ToggleReaction(ctx, msg.ID, f.bob.UserID, "👍")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = f.messages.ToggleReaction(ctx, msg.ID, f.bob.UserID, "🎉")
	require.NoError(t, err)
	assert.True(t, added)

	page, err := f.messages.ListVisible(ctx, f.conv.ID, f.alice.UserID, 50)
	require.NoError(t, err)
	assert.Len(t, page.Reactions[msg.ID], 2)

	added, err = f.messages.ToggleReaction(ctx, msg.ID, f.bob.UserID, "👍")
	require.NoError(t, err)
	assert.False(t, added)

	page, err = f.messages.ListVisible(ctx, f.conv.ID, f.alice.UserID, 50)
	require.NoError(t, err)
	require.Len(t, page.Reactions[msg.ID], 1)
	assert.Equal(t, "🎉", page.Reactions[msg.ID][0].Emoji)
}

func TestMessageRepository_LastVisible(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	last, err := f.messages.LastVisible(ctx, f.conv.ID, f.bob.UserID)
	require.NoError(t, err)
	assert.Nil(t, last)

	one := f.send(t, f.alice.UserID, "one", nil)
	two := f.send(t, f.alice.UserID, "two", nil)
	three := f.send(t, f.bob.UserID, "three", nil)

	require.NoError(t, f.messages.DeleteForEveryone(ctx, three.ID, f.bob.UserID))
	require.NoError(t, f.messages.DeleteForMe(ctx, two.ID, f.bob.UserID))

	last, err = f.messages.LastVisible(ctx, f.conv.ID, f.bob.UserID)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, one.ID, last.ID)

	last, err = f.messages.LastVisible(ctx, f.conv.ID, f.alice.UserID)
	require.NoError(t, err)
	assert.Equal(t, two.ID, last.ID)

	require.NoError(t, f.messages.DeleteForMe(ctx, one.ID, f.bob.UserID))
	last, err = f.messages.LastVisible(ctx, f.conv.ID, f.bob.UserID)
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestConversationRepository_PairIsUnique(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	again, created, err := f.convs.FindOrCreatePair(ctx, f.bob.UserID, f.alice.UserID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, f.conv.ID, again.ID)
	assert.Equal(t, []uint64{f.alice.UserID, f.bob.UserID}, again.ParticipantIDs())
}

func TestConversationRepository_ConcurrentFindOrCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const workers = 8
	ids := make([]uint64, workers)
	var createdCount int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conv, created, err := f.convs.FindOrCreatePair(ctx, f.bob.UserID, f.carol.UserID)
			assert.NoError(t, err)
			if conv != nil {
				ids[i] = conv.ID
			}
			if created {
				mu.Lock()
				createdCount++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, createdCount)
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}

	var participants int64
	require.NoError(t, f.db.Model(&dbmysql.ConversationParticipant{}).Where("conversation_id = ?", ids[0]).Count(&participants).Error)
	assert.Equal(t, int64(2), participants)
}

func TestConversationRepository_SelfAndMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	self, created, err := f.convs.FindOrCreateSelf(ctx, f.carol.UserID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, []uint64{f.carol.UserID}, self.ParticipantIDs())

	again, created, err := f.convs.FindOrCreatePair(ctx, f.carol.UserID, f.carol.UserID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, self.ID, again.ID)

	ok, err := f.convs.IsParticipant(ctx, f.conv.ID, f.alice.UserID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.convs.IsParticipant(ctx, f.conv.ID, f.carol.UserID)
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := f.convs.ListForUser(ctx, f.carol.UserID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, self.ID, list[0].ID)

	_, err = f.convs.Get(ctx, 777)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRequestRepository(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req, created, err := f.requests.CreateIfAbsent(ctx, &dbmysql.ChatRequest{SenderID: f.alice.UserID, ReceiverID: f.carol.UserID})
	require.NoError(t, err)
	assert.True(t, created)
	assert.False(t, req.Accepted)

	dup, created, err := f.requests.CreateIfAbsent(ctx, &dbmysql.ChatRequest{SenderID: f.alice.UserID, ReceiverID: f.carol.UserID})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, req.ID, dup.ID)

	incoming, err := f.requests.ListIncoming(ctx, f.carol.UserID)
	require.NoError(t, err)
	assert.Len(t, incoming, 1)

	changed, err := f.requests.MarkAccepted(ctx, req.ID)
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = f.requests.MarkAccepted(ctx, req.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	stored, err := f.requests.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.True(t, stored.Accepted)
	assert.NotNil(t, stored.AcceptedAt)

	incoming, err = f.requests.ListIncoming(ctx, f.carol.UserID)
	require.NoError(t, err)
	assert.Empty(t, incoming)

	sent, err := f.requests.ListSent(ctx, f.alice.UserID)
	require.NoError(t, err)
	assert.Len(t, sent, 1)

	_, err = f.requests.Get(ctx, 999)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMessageRepository_CreateRollsBackOnError(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := NewMessageRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `messages`")).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &dbmysql.Message{ConversationID: 1, SenderID: 2, Content: "hi"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save message")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepository_ToggleReactionLostInsertRace(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := NewMessageRepository(db)

	// nothing to remove, and a concurrent toggle already inserted the row
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `message_reactions`")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `message_reactions`")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	added, err := repo.ToggleReaction(context.Background(), 1, 2, "👍")
	require.NoError(t, err)
	assert.False(t, added)
	assert.NoError(t, mock.ExpectationsWereMet())
}
