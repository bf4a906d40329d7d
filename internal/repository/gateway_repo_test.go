package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return db, mock
}

func TestGatewayConfigFindActiveNone(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGatewayConfigRepository(db)

	mock.ExpectQuery("SELECT \\* FROM `gateway_configs` WHERE active = \\?").
		WithArgs(true, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "active"}))

	cfg, err := repo.FindActive(context.Background())
	require.NoError(t, err)
	assert.Nil(t, cfg, "no active row is a normal state, not an error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGatewayConfigFindActive(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGatewayConfigRepository(db)

	rows := sqlmock.NewRows([]string{"id", "code", "credentials", "test_mode", "active"}).
		AddRow(2, "razorpay", `{"key_id":"rzp_test_k","key_secret":"s"}`, true, true)
	mock.ExpectQuery("SELECT \\* FROM `gateway_configs` WHERE active = \\?").
		WithArgs(true, 1).
		WillReturnRows(rows)

	cfg, err := repo.FindActive(context.Background())
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "razorpay", cfg.Code)
	assert.True(t, cfg.Active)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGatewayConfigActivate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGatewayConfigRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `gateway_configs` SET").
		WithArgs(false, sqlmock.AnyArg(), true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `gateway_configs` SET").
		WithArgs(true, sqlmock.AnyArg(), "payu").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Activate(context.Background(), "payu"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGatewayConfigActivateUnknownCodeRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGatewayConfigRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `gateway_configs` SET").
		WithArgs(false, sqlmock.AnyArg(), true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `gateway_configs` SET").
		WithArgs(true, sqlmock.AnyArg(), "stripe").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Activate(context.Background(), "stripe")
	assert.ErrorContains(t, err, "stripe")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGatewayConfigDeactivate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGatewayConfigRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `gateway_configs` SET").
		WithArgs(false, sqlmock.AnyArg(), "payu").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Deactivate(context.Background(), "payu"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
