package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockReceiptCounterRepository creates a GormReceiptCounterRepository with a mocked SQL connection
func newMockReceiptCounterRepository(t *testing.T) (*GormReceiptCounterRepository, sqlmock.Sqlmock, *sql.DB) {
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

	return NewGormReceiptCounterRepository(gormDB), mock, mockDB
}

func TestGormReceiptCounterRepository_NextSequence(t *testing.T) {
	t.Run("issues first sequence for a fresh period", func(t *testing.T) {
		repo, mock, mockDB := newMockReceiptCounterRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()

		mock.ExpectExec(`INSERT INTO "receipt_counters" .* ON CONFLICT \("tenant_id","period"\) DO NOTHING`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		rows := sqlmock.NewRows([]string{"tenant_id", "period", "last_sequence", "updated_at"}).
			AddRow(tenantID, "202603", int64(0), time.Now())

		mock.ExpectQuery(`SELECT \* FROM "receipt_counters" WHERE tenant_id = \$1 AND period = \$2 ORDER BY .* FOR UPDATE`).
			WithArgs(tenantID, "202603", 1).
			WillReturnRows(rows)

		mock.ExpectExec(`UPDATE "receipt_counters" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		seq, err := repo.NextSequence(context.Background(), tenantID, "202603")

		assert.NoError(t, err)
		assert.Equal(t, int64(1), seq)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("increments an existing counter", func(t *testing.T) {
		repo, mock, mockDB := newMockReceiptCounterRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()

		mock.ExpectExec(`INSERT INTO "receipt_counters" .* ON CONFLICT \("tenant_id","period"\) DO NOTHING`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		rows := sqlmock.NewRows([]string{"tenant_id", "period", "last_sequence", "updated_at"}).
			AddRow(tenantID, "202603", int64(41), time.Now())

		mock.ExpectQuery(`SELECT \* FROM "receipt_counters" WHERE tenant_id = \$1 AND period = \$2 ORDER BY .* FOR UPDATE`).
			WithArgs(tenantID, "202603", 1).
			WillReturnRows(rows)

		mock.ExpectExec(`UPDATE "receipt_counters" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		seq, err := repo.NextSequence(context.Background(), tenantID, "202603")

		assert.NoError(t, err)
		assert.Equal(t, int64(42), seq)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("propagates lock query errors", func(t *testing.T) {
		repo, mock, mockDB := newMockReceiptCounterRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()

		mock.ExpectExec(`INSERT INTO "receipt_counters" .* ON CONFLICT \("tenant_id","period"\) DO NOTHING`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		mock.ExpectQuery(`SELECT \* FROM "receipt_counters" WHERE tenant_id = \$1 AND period = \$2 ORDER BY .* FOR UPDATE`).
			WithArgs(tenantID, "202603", 1).
			WillReturnError(sql.ErrConnDone)

		_, err := repo.NextSequence(context.Background(), tenantID, "202603")

		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
