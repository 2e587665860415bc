package chat

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"gigmarket/internal/repository"
	"gigmarket/pkg/utils"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to create GORM database: %v", err)
	}

	return gormDB, mock
}

func newGroupService(db *gorm.DB) GroupService {
	return NewGroupService(
		db,
		repository.NewGroupRepository(db),
		repository.NewPostRepository(db),
		repository.NewUserRepository(db),
		nil, // presence unused on the error paths under test
		nil, // cleaner unused outside DeleteGroup
	)
}

// expectPostLoad mocks the post lookup with its preloads (packages, then
// seller, then the seller's user)
func expectPostLoad(mock sqlmock.Sqlmock, sellerUserID uint64) {
	mock.ExpectQuery("SELECT (.+) FROM `service_posts`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "seller_id", "title", "status"}).
			AddRow(1, 3, "Logo design", 1))
	mock.ExpectQuery("SELECT (.+) FROM `packages`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "post_id"}))
	mock.ExpectQuery("SELECT (.+) FROM `sellers`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id"}).AddRow(3, sellerUserID))
	mock.ExpectQuery("SELECT (.+) FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(sellerUserID))
}

func TestCreateGroup_OwnService(t *testing.T) {
	db, mock := setupMockDB(t)
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	svc := newGroupService(db)
	expectPostLoad(mock, 5)

	_, err := svc.CreateGroup(context.Background(), 5, 1, "", nil)
	assert.Equal(t, utils.ErrOwnService, err)
}

func TestCreateGroup_AlreadyExists(t *testing.T) {
	db, mock := setupMockDB(t)
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	svc := newGroupService(db)
	expectPostLoad(mock, 9)
	mock.ExpectQuery("SELECT (.+) FROM `message_groups`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "post_id", "creator_id"}).AddRow(7, 1, 2))

	_, err := svc.CreateGroup(context.Background(), 2, 1, "", nil)
	assert.Equal(t, utils.ErrGroupExists, err)
}

func TestReadGroup_SuccessReturnsNilError(t *testing.T) {
	db, mock := setupMockDB(t)
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	svc := newGroupService(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM `group_members`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "group_id", "user_id", "unread_messages"}).
			AddRow(1, 7, 2, 0))
	mock.ExpectCommit()

	err := svc.ReadGroup(context.Background(), 2, 7)
	assert.NoError(t, err)
	// the error interface itself must be nil, not a typed-nil pointer
	assert.True(t, err == nil)
}

func TestCreateGroup_UnknownMember(t *testing.T) {
	db, mock := setupMockDB(t)
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	svc := newGroupService(db)
	expectPostLoad(mock, 9)
	mock.ExpectQuery("SELECT (.+) FROM `message_groups`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery("SELECT (.+) FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}))

	_, err := svc.CreateGroup(context.Background(), 2, 1, "", []string{"ghost"})
	require.Error(t, err)
	assert.Equal(t, utils.CodeNotFound, utils.GetErrorCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
