package auth

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"gigmarket/internal/repository"
	iutils "gigmarket/internal/utils"
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

func newService(db *gorm.DB) AuthService {
	jwtManager := iutils.NewJWTManager("test-secret", "gigmarket", time.Hour, 24*time.Hour)
	return NewAuthService(repository.NewUserRepository(db), jwtManager, nil, time.Hour)
}

func TestRegister(t *testing.T) {
	db, mock := setupMockDB(t)
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	svc := newService(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT (.+) FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `users`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	user, err := svc.Register(ctx, &RegisterRequest{
		Username: "alice",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.NotEqual(t, "secret123", user.PasswordHash)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_UsernameTaken(t *testing.T) {
	db, mock := setupMockDB(t)
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	svc := newService(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"id", "username"}).AddRow(1, "alice")
	mock.ExpectQuery("SELECT (.+) FROM `users`").
		WillReturnRows(rows)

	_, err := svc.Register(ctx, &RegisterRequest{
		Username: "alice",
		Password: "secret123",
	})
	require.Error(t, err)
	assert.Equal(t, utils.CodeConflict, utils.GetErrorCode(err))
}
