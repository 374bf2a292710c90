package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/field-service/internal/inventory/domain"
	"github.com/tair/field-service/pkg/apperr"
	"github.com/tair/field-service/pkg/database"
)

func setupMockInventoryDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *GormInventoryRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gdb, err := database.OpenGorm(db)
	require.NoError(t, err)

	return db, mock, NewGormInventoryRepository(gdb)
}

func TestUpdateRecord_BumpsVersion(t *testing.T) {
	db, mock, repo := setupMockInventoryDB(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE "inventory_records" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	record := &domain.InventoryRecord{ID: 5, QuantityAvailable: 8, Version: 2}
	err := repo.UpdateRecord(context.Background(), record)

	require.NoError(t, err)
	assert.Equal(t, 3, record.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRecord_StaleVersion(t *testing.T) {
	db, mock, repo := setupMockInventoryDB(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE "inventory_records" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	record := &domain.InventoryRecord{ID: 5, QuantityAvailable: 8, Version: 2}
	err := repo.UpdateRecord(context.Background(), record)

	assert.ErrorIs(t, err, database.ErrVersionConflict)
	assert.Equal(t, 2, record.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateDevice_StaleVersion(t *testing.T) {
	db, mock, repo := setupMockInventoryDB(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE "devices" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateDevice(context.Background(), &domain.Device{ID: 1, IMEI: "356938035643809", Version: 1})

	assert.ErrorIs(t, err, database.ErrVersionConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindRecord_NotFound(t *testing.T) {
	db, mock, repo := setupMockInventoryDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT \* FROM "inventory_records"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	record, err := repo.FindRecord(context.Background(), 1, 2, "MAIN")

	assert.Nil(t, record)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindDeviceByIMEI_Found(t *testing.T) {
	db, mock, repo := setupMockInventoryDB(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "imei", "product_id", "batch_id", "location", "status", "version"}).
		AddRow(4, "356938035643809", 10, 2, "MAIN", "AVAILABLE", 0)
	mock.ExpectQuery(`SELECT \* FROM "devices" WHERE imei = \$1`).
		WillReturnRows(rows)

	device, err := repo.FindDeviceByIMEI(context.Background(), "356938035643809")

	require.NoError(t, err)
	assert.Equal(t, uint(4), device.ID)
	assert.Equal(t, domain.DeviceAvailable, device.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDevice_DuplicateIMEI(t *testing.T) {
	db, mock, repo := setupMockInventoryDB(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO "devices"`).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := repo.CreateDevice(context.Background(), &domain.Device{IMEI: "356938035643809", ProductID: 1, BatchID: 1})

	assert.ErrorIs(t, err, apperr.ErrValidation)
	require.NoError(t, mock.ExpectationsWereMet())
}
