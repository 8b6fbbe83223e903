package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/daniilbelik94/online-shop-sub002/models"
	"github.com/daniilbelik94/online-shop-sub002/repository"
)

func testUsage() *models.CouponUsage {
	return &models.CouponUsage{
		CouponID:       uuid.New(),
		UserID:         uuid.New(),
		OrderID:        uuid.New(),
		DiscountAmount: 10.00,
	}
}

func TestRecordUsage_FirstApplication(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormCouponRepository(gormDB)
	usage := testUsage()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "coupon_usages"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "coupons"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	applied, err := repo.RecordUsage(context.Background(), usage)
	assert.NoError(t, err)
	assert.True(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordUsage_DuplicateIsNoOp(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormCouponRepository(gormDB)
	usage := testUsage()

	// ON CONFLICT DO NOTHING returns no row for the duplicate triple, so the
	// used_count bump must be skipped.
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "coupon_usages"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	applied, err := repo.RecordUsage(context.Background(), usage)
	assert.NoError(t, err)
	assert.False(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByCode_CaseInsensitive(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormCouponRepository(gormDB)

	id := uuid.New()
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "code", "type", "value", "min_order_amount", "is_active", "created_at", "updated_at"}).
		AddRow(id, "SAVE10", "percentage", 10.0, 50.0, true, now, now)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "coupons"`)).
		WithArgs("save10", true, 1).
		WillReturnRows(rows)

	coupon, err := repo.FindByCode(context.Background(), "Save10")
	assert.NoError(t, err)
	assert.Equal(t, "SAVE10", coupon.Code)
	assert.Equal(t, models.CouponTypePercentage, coupon.Type)
}

func TestDeactivate_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormCouponRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "coupons"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Deactivate(context.Background(), "GONE")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestHasUsed_True(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormCouponRepository(gormDB)

	couponID := uuid.New()
	userID := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "coupon_usages"`)).
		WithArgs(couponID, userID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	used, err := repo.HasUsed(context.Background(), couponID, userID)
	assert.NoError(t, err)
	assert.True(t, used)
}
