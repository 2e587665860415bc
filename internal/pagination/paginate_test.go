package pagination

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"gigmarket/internal/model"
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

func notificationRows(ids ...uint64) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "user_id", "title", "text", "unread"})
	for _, id := range ids {
		rows.AddRow(id, 1, "title", "text", true)
	}
	return rows
}

func TestPaginate_FirstPage(t *testing.T) {
	db, mock := setupMockDB(t)
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `notifications`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery("SELECT (.+) FROM `notifications`").
		WillReturnRows(notificationRows(10, 9))

	q := db.Model(&model.Notification{}).Where("user_id = ?", 1)
	page, err := Paginate[model.Notification](context.Background(), q, Options{
		Limit:      "2",
		Descending: true,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Count)
	assert.Len(t, page.Next, 2)
	assert.False(t, page.Last)
	assert.Equal(t, uint64(9), page.Cursor)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaginate_CursorPageSkipsCount(t *testing.T) {
	db, mock := setupMockDB(t)
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	// no count query on later pages
	mock.ExpectQuery("SELECT (.+) FROM `notifications`").
		WillReturnRows(notificationRows(8))

	q := db.Model(&model.Notification{}).Where("user_id = ?", 1)
	page, err := Paginate[model.Notification](context.Background(), q, Options{
		Limit:      "2",
		Cursor:     uint64(9),
		Descending: true,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(0), page.Count)
	assert.Len(t, page.Next, 1)
	assert.True(t, page.Last)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaginate_InvalidLimitReturnsEverything(t *testing.T) {
	db, mock := setupMockDB(t)
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `notifications`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery("SELECT (.+) FROM `notifications`").
		WillReturnRows(notificationRows(3, 2, 1))

	q := db.Model(&model.Notification{})
	page, err := Paginate[model.Notification](context.Background(), q, Options{
		Limit:      "not-a-number",
		Descending: true,
	})

	require.NoError(t, err)
	assert.Len(t, page.Next, 3)
	assert.True(t, page.Last)
	assert.Equal(t, int64(3), page.Count)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaginate_EmptyPage(t *testing.T) {
	db, mock := setupMockDB(t)
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	mock.ExpectQuery("SELECT (.+) FROM `notifications`").
		WillReturnRows(notificationRows())

	q := db.Model(&model.Notification{})
	page, err := Paginate[model.Notification](context.Background(), q, Options{
		Limit:  "10",
		Cursor: uint64(1),
	})

	require.NoError(t, err)
	assert.Empty(t, page.Next)
	assert.True(t, page.Last)
	assert.Nil(t, page.Cursor)
}
