package order

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"gigmarket/internal/config"
	"gigmarket/internal/model"
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

func newRequestService(db *gorm.DB) RequestService {
	market := &config.MarketConfig{ServiceFee: 0.1, RequestValidityDays: 7}
	return NewRequestService(
		db,
		repository.NewUserRepository(db),
		repository.NewPostRepository(db),
		repository.NewGroupRepository(db),
		repository.NewOrderRepository(db),
		nil, // dispatcher unused before the transaction
		nil, // presence unused before the transaction
		market,
	)
}

// expectRequestLoad mocks GetRequestByID: the request row plus its preloads
func expectRequestLoad(mock sqlmock.Sqlmock, status int8, expires time.Time) {
	requestRows := sqlmock.NewRows([]string{
		"id", "message_id", "client_id", "seller_id", "package_id", "status", "sub_total", "total", "expires",
	}).AddRow(1, 100, 2, 3, 4, status, 5000, 5500, expires)
	mock.ExpectQuery("SELECT (.+) FROM `order_requests`").WillReturnRows(requestRows)

	mock.ExpectQuery("SELECT (.+) FROM `messages`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "group_id"}).AddRow(100, 7))
	mock.ExpectQuery("SELECT (.+) FROM `packages`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))
	mock.ExpectQuery("SELECT (.+) FROM `sellers`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id"}).AddRow(3, 9))
}

func TestResolveRequest_BuyerCannotAccept(t *testing.T) {
	db, mock := setupMockDB(t)
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	svc := newRequestService(db)
	expectRequestLoad(mock, model.RequestStatusPending, time.Now().Add(time.Hour))

	_, err := svc.ResolveRequest(context.Background(), 1, 2, model.RequestStatusAccepted)
	assert.Equal(t, utils.ErrNotYourRequest, err)
}

func TestResolveRequest_SellerCannotCancel(t *testing.T) {
	db, mock := setupMockDB(t)
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	svc := newRequestService(db)
	expectRequestLoad(mock, model.RequestStatusPending, time.Now().Add(time.Hour))

	_, err := svc.ResolveRequest(context.Background(), 1, 9, model.RequestStatusCancelled)
	assert.Equal(t, utils.ErrNotYourRequest, err)
}

func TestResolveRequest_AlreadyResolved(t *testing.T) {
	db, mock := setupMockDB(t)
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	svc := newRequestService(db)
	expectRequestLoad(mock, model.RequestStatusDeclined, time.Now().Add(time.Hour))

	_, err := svc.ResolveRequest(context.Background(), 1, 9, model.RequestStatusAccepted)
	assert.Equal(t, utils.ErrRequestResolved, err)
}

func TestResolveRequest_ExpiredCannotBeAccepted(t *testing.T) {
	db, mock := setupMockDB(t)
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	svc := newRequestService(db)
	expectRequestLoad(mock, model.RequestStatusPending, time.Now().Add(-time.Hour))

	_, err := svc.ResolveRequest(context.Background(), 1, 9, model.RequestStatusAccepted)
	assert.Equal(t, utils.ErrRequestExpired, err)
}

// expectCreateChecks mocks the validation reads ahead of the create
// transaction: the post with its preloads, the buyer's group, the package and
// the fast-path pending-request count
func expectCreateChecks(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("SELECT (.+) FROM `service_posts`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "seller_id", "title", "hidden"}).
			AddRow(1, 3, "Logo design", false))
	mock.ExpectQuery("SELECT (.+) FROM `packages`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "post_id"}))
	mock.ExpectQuery("SELECT (.+) FROM `sellers`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id"}).AddRow(3, 9))
	mock.ExpectQuery("SELECT (.+) FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow(9, "bob"))
	mock.ExpectQuery("SELECT (.+) FROM `message_groups`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "post_id", "creator_id"}).AddRow(7, 1, 2))
	mock.ExpectQuery("SELECT (.+) FROM `packages`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "post_id", "type", "amount"}).
			AddRow(4, 1, "basic", 5000))
	mock.ExpectQuery("SELECT count(.+) FROM `order_requests`").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(0))
}

func TestCreateRequest_InsufficientFunds(t *testing.T) {
	db, mock := setupMockDB(t)
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	svc := newRequestService(db)
	expectCreateChecks(mock)

	// balance is checked under a row lock; £10 cannot cover the £55 total
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM `users`(.+)FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "balance"}).
			AddRow(2, "alice", 1000))
	mock.ExpectQuery("SELECT count(.+) FROM `order_requests`").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(0))
	mock.ExpectRollback()

	_, err := svc.CreateRequest(context.Background(), 2, 1, "basic")
	require.Error(t, err)
	assert.Equal(t, utils.CodeBadRequest, utils.GetErrorCode(err))
	assert.Contains(t, utils.UserMessage(err), "£45.00 short")

	// the rollback and the absence of any UPDATE prove the balance is untouched
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRequest_ConcurrentDuplicateCaughtInTransaction(t *testing.T) {
	db, mock := setupMockDB(t)
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	svc := newRequestService(db)
	expectCreateChecks(mock)

	// the fast check saw nothing, but by the time the buyer row is locked a
	// competing request has committed
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM `users`(.+)FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "balance"}).
			AddRow(2, "alice", 10000))
	mock.ExpectQuery("SELECT count(.+) FROM `order_requests`").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(1))
	mock.ExpectRollback()

	_, err := svc.CreateRequest(context.Background(), 2, 1, "basic")
	assert.Equal(t, utils.ErrRequestPending, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRequest_DebitsEscrowedTotal(t *testing.T) {
	db, mock := setupMockDB(t)
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	svc := newRequestService(db)
	expectCreateChecks(mock)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM `users`(.+)FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "balance"}).
			AddRow(2, "alice", 10000))
	mock.ExpectQuery("SELECT count(.+) FROM `order_requests`").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(0))
	mock.ExpectExec("UPDATE `users`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `messages`").WillReturnResult(sqlmock.NewResult(100, 1))
	mock.ExpectExec("INSERT INTO `order_requests`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE `group_members`").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("UPDATE `users`").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery("SELECT (.+) FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "settings"}).
			AddRow(9, "bob", []byte(`{"orderRequests":false}`)))
	mock.ExpectQuery("SELECT (.+) FROM `sellers`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id"}))
	mock.ExpectCommit()

	// fan-out lookup after commit; no group row means nobody to push to
	mock.ExpectQuery("SELECT (.+) FROM `message_groups`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	result, err := svc.CreateRequest(context.Background(), 2, 1, "basic")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), result.Request.SubTotal)
	assert.Equal(t, int64(5500), result.Request.Total)
	assert.Equal(t, int8(model.RequestStatusPending), result.Request.Status)
	assert.Nil(t, result.Delivery)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveRequest_DeclineRefundsBuyer(t *testing.T) {
	db, mock := setupMockDB(t)
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	svc := newRequestService(db)
	expectRequestLoad(mock, model.RequestStatusPending, time.Now().Add(time.Hour))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `order_requests`").WillReturnResult(sqlmock.NewResult(0, 1))
	// the escrowed total goes back to the buyer
	mock.ExpectExec("UPDATE `users`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "settings"}).
			AddRow(2, "alice", []byte(`{"orderRequests":false}`)))
	mock.ExpectQuery("SELECT (.+) FROM `sellers`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id"}))
	mock.ExpectCommit()

	mock.ExpectQuery("SELECT (.+) FROM `message_groups`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	result, err := svc.ResolveRequest(context.Background(), 1, 9, model.RequestStatusDeclined)
	require.NoError(t, err)
	assert.Equal(t, int8(model.RequestStatusDeclined), result.Request.Status)
	assert.NotNil(t, result.Request.ActionTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveRequest_UnknownAction(t *testing.T) {
	db, _ := setupMockDB(t)
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	svc := newRequestService(db)

	_, err := svc.ResolveRequest(context.Background(), 1, 9, 42)
	require.Error(t, err)
	assert.Equal(t, utils.CodeBadRequest, utils.GetErrorCode(err))
}
