package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"gigmarket/pkg/utils"
)

func TestGroupRepository_GetByPostAndCreator(t *testing.T) {
	db, mock := setupMockDB(t)
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	repo := NewGroupRepository(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"id", "post_id", "creator_id", "name"}).
		AddRow(5, 10, 3, "Logo design")
	mock.ExpectQuery("SELECT (.+) FROM `message_groups`").
		WillReturnRows(rows)

	group, err := repo.GetByPostAndCreator(ctx, 10, 3)
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if group == nil || group.ID != 5 {
		t.Errorf("Expected group 5, got %+v", group)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}

func TestGroupRepository_GetByPostAndCreator_NoGroup(t *testing.T) {
	db, mock := setupMockDB(t)
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	repo := NewGroupRepository(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT (.+) FROM `message_groups`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	// no conversation yet is not an error, the caller decides what it means
	group, err := repo.GetByPostAndCreator(ctx, 10, 99)
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if group != nil {
		t.Errorf("Expected nil group, got %+v", group)
	}
}

func TestGroupRepository_GetByID_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	repo := NewGroupRepository(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT (.+) FROM `message_groups`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(ctx, 42)
	if err != utils.ErrGroupNotFound {
		t.Errorf("Expected ErrGroupNotFound, got %v", err)
	}
}

func TestGroupRepository_ListMessageIDs(t *testing.T) {
	db, mock := setupMockDB(t)
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	repo := NewGroupRepository(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2).AddRow(3)
	mock.ExpectQuery("SELECT `id` FROM `messages`").
		WillReturnRows(rows)

	ids, err := repo.ListMessageIDs(ctx, 5)
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if len(ids) != 3 {
		t.Errorf("Expected 3 ids, got %d", len(ids))
	}
}
