// Package testutil provides database fixtures shared by package tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gochat/internal/dbmysql"
)

var dbSeq atomic.Uint64

// NewSQLiteDB opens a private in-memory database with every table migrated.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps the in-memory database alive and serializes writers
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, dbmysql.AutoMigrate(db))
	return db
}

// NewMockDB returns a gorm handle backed by go-sqlmock speaking the MySQL dialect.
func NewMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return gormDB, mock
}

// CreateUsers inserts users with the given handles and returns them in order.
func CreateUsers(t *testing.T, db *gorm.DB, handles ...string) []*dbmysql.User {
	t.Helper()
	users := make([]*dbmysql.User, 0, len(handles))
	for _, h := range handles {
		u := &dbmysql.User{Handle: h, PasswordHash: "x"}
		require.NoError(t, db.Create(u).Error)
		users = append(users, u)
	}
	return users
}
