package dbmysql_test

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"gochat/internal/common"
	"gochat/internal/dbmysql"
	"gochat/internal/testutil"
)

func newNotification(userID uint64, header string) *dbmysql.Notification {
	return &dbmysql.Notification{
		ID:       uuid.NewString(),
		UserID:   userID,
		Type:     string(common.ChatRequestType),
		Header:   header,
		Content:  "content",
		Status:   string(common.StatusPending),
		Metadata: datatypes.JSONMap{"request_id": float64(3)},
	}
}

func TestNotificationRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := dbmysql.NewNotificationRepository(testutil.NewSQLiteDB(t))

	first := newNotification(1, "first")
	second := newNotification(1, "second")
	other := newNotification(2, "other")
	for _, n := range []*dbmysql.Notification{first, second, other} {
		require.NoError(t, repo.Create(ctx, n))
	}

	got, err := repo.ByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Header)
	// JSONMap decodes with UseNumber
	assert.Equal(t, json.Number("3"), got.Metadata["request_id"])

	list, err := repo.ByUserID(ctx, 1, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	count, err := repo.UnreadCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, repo.MarkAsRead(ctx, first.ID, 1))
	count, err = repo.UnreadCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// another user's notification cannot be marked
	err = repo.MarkAsRead(ctx, other.ID, 1)
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, second.ID))
	_, err = repo.ByID(ctx, second.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestNotificationRepository_CreateError(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := dbmysql.NewNotificationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `notifications`")).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.Create(context.Background(), newNotification(1, "x"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create notification")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_UnreadCountQuery(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := dbmysql.NewNotificationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `notifications` WHERE user_id = ? AND status != ?")).
		WithArgs(5, "read").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.UnreadCount(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
