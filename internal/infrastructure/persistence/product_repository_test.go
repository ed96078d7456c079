package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storesync/backend/internal/domain/commerce"
	"github.com/storesync/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockDB creates a GORM DB backed by a mocked SQL connection
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func TestGormProductRepository_Upsert(t *testing.T) {
	t.Run("inserts with conflict resolution on tenant and external id", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormProductRepository(gormDB)

		product, err := commerce.NewProduct(uuid.New(), 1001, "Widget")
		require.NoError(t, err)
		product.ApplyUpstream("Widget", "widget", "Acme", "gadget", "active", decimal.RequireFromString("19.99"))

		mock.ExpectExec(`INSERT INTO "products" .* ON CONFLICT \("tenant_id","external_id"\) DO UPDATE SET .*`).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err = repo.Upsert(context.Background(), product)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProductRepository_FindByExternalID(t *testing.T) {
	t.Run("finds existing product", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormProductRepository(gormDB)

		productID := uuid.New()
		tenantID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "tenant_id", "external_id", "title", "price"}).
			AddRow(productID, tenantID, int64(1001), "Widget", decimal.RequireFromString("19.99"))

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE tenant_id = \$1 AND external_id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, int64(1001), 1).
			WillReturnRows(rows)

		product, err := repo.FindByExternalID(context.Background(), tenantID, 1001)

		assert.NoError(t, err)
		require.NotNil(t, product)
		assert.Equal(t, int64(1001), product.ExternalID)
		assert.Equal(t, "Widget", product.Title)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for missing product", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormProductRepository(gormDB)

		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE tenant_id = \$1 AND external_id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, int64(404), 1).
			WillReturnError(gorm.ErrRecordNotFound)

		product, err := repo.FindByExternalID(context.Background(), tenantID, 404)

		assert.Nil(t, product)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProductRepository_DeleteByExternalIDs(t *testing.T) {
	t.Run("deletes listed ids and reports count", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormProductRepository(gormDB)

		tenantID := uuid.New()

		mock.ExpectExec(`DELETE FROM "products" WHERE tenant_id = \$1 AND external_id IN \(\$2,\$3\)`).
			WithArgs(tenantID, int64(2), int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 2))

		deleted, err := repo.DeleteByExternalIDs(context.Background(), tenantID, []int64{2, 5})

		assert.NoError(t, err)
		assert.Equal(t, int64(2), deleted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no-op for empty id list", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormProductRepository(gormDB)

		deleted, err := repo.DeleteByExternalIDs(context.Background(), uuid.New(), nil)

		assert.NoError(t, err)
		assert.Zero(t, deleted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProductRepository_ListExternalIDs(t *testing.T) {
	gormDB, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormProductRepository(gormDB)

	tenantID := uuid.New()
	rows := sqlmock.NewRows([]string{"external_id"}).AddRow(int64(1)).AddRow(int64(3))

	mock.ExpectQuery(`SELECT "external_id" FROM "products" WHERE tenant_id = \$1`).
		WithArgs(tenantID).
		WillReturnRows(rows)

	ids, err := repo.ListExternalIDs(context.Background(), tenantID)

	assert.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}
