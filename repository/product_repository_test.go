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
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/daniilbelik94/online-shop-sub002/models"
	"github.com/daniilbelik94/online-shop-sub002/repository"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	assert.NoError(t, err)
	return gormDB, mock
}

func TestDecrementStock_Success(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormProductRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "products"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.DecrementStock(context.Background(), uuid.New(), 2)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecrementStock_InsufficientStock(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormProductRepository(gormDB)

	// The conditional WHERE matches no row when stock is too low; the update
	// itself succeeds with zero rows affected.
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "products"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.DecrementStock(context.Background(), uuid.New(), 99)
	assert.True(t, errors.Is(err, repository.ErrInsufficientStock))
}

func TestRestoreStock_Success(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormProductRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "products"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.RestoreStock(context.Background(), uuid.New(), 2)
	assert.NoError(t, err)
}

func TestFindBySlug_Success(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormProductRepository(gormDB)

	id := uuid.New()
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "slug", "sku", "price", "stock_quantity", "is_active", "created_at", "updated_at"}).
		AddRow(id, "Mechanical Keyboard", "mechanical-keyboard", "KB-100", 50.00, 10, true, now, now)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products"`)).
		WithArgs("mechanical-keyboard", 1).
		WillReturnRows(rows)

	product, err := repo.FindBySlug(context.Background(), "mechanical-keyboard")
	assert.NoError(t, err)
	assert.Equal(t, "KB-100", product.SKU)
	assert.Equal(t, 10, product.StockQuantity)
}

func TestFindByID_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormProductRepository(gormDB)

	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products"`)).
		WithArgs(id, 1).
		WillReturnRows(sqlmock.NewRows([]string{}))

	product, err := repo.FindByID(context.Background(), id)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	assert.Nil(t, product)
}

func TestFindLowStock_Success(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormProductRepository(gormDB)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "sku", "price", "stock_quantity", "low_stock_threshold", "is_active", "created_at", "updated_at"}).
		AddRow(uuid.New(), "USB Hub", "HUB-7", 22.00, 2, 5, true, now, now)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products"`)).
		WillReturnRows(rows)

	products, err := repo.FindLowStock(context.Background())
	assert.NoError(t, err)
	if assert.Len(t, products, 1) {
		assert.True(t, products[0].IsLowStock())
	}
}

func TestCreateProduct_Success(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormProductRepository(gormDB)

	product := &models.Product{
		ID:            uuid.New(),
		Name:          "Mechanical Keyboard",
		Slug:          "mechanical-keyboard",
		SKU:           "KB-100",
		Price:         50.00,
		StockQuantity: 10,
		IsActive:      true,
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "products"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(product.ID))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), product)
	assert.NoError(t, err)
}
