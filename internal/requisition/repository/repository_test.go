package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/field-service/internal/requisition/domain"
	"github.com/tair/field-service/pkg/apperr"
	"github.com/tair/field-service/pkg/database"
)

func setupMockRequisitionDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *GormRequisitionRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gdb, err := database.OpenGorm(db)
	require.NoError(t, err)

	return db, mock, NewGormRequisitionRepository(gdb)
}

func TestFindByID_LoadsItems(t *testing.T) {
	db, mock, repo := setupMockRequisitionDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT \* FROM "requisitions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "number", "job_id", "status", "version"}).
			AddRow(4, "REQ-00000001", 9, "APPROVED", 1))
	mock.ExpectQuery(`SELECT \* FROM "requisition_items"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "requisition_id", "product_id", "quantity_requested", "quantity_issued"}).
			AddRow(1, 4, 2, 5, 3).
			AddRow(2, 4, 3, 1, 0))

	req, err := repo.FindByID(context.Background(), 4)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, req.Status)
	require.Len(t, req.Items, 2)
	assert.Equal(t, 2, req.Items[0].Remaining())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID_NotFound(t *testing.T) {
	db, mock, repo := setupMockRequisitionDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT \* FROM "requisitions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByID(context.Background(), 4)

	assert.ErrorIs(t, err, apperr.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_StaleVersionSkipsItems(t *testing.T) {
	db, mock, repo := setupMockRequisitionDB(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE "requisitions" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	req := &domain.Requisition{ID: 4, Status: domain.StatusApproved, Version: 1, Items: []domain.RequisitionItem{{ID: 1, QuantityRequested: 2, QuantityIssued: 2}}}
	err := repo.Update(context.Background(), req)

	assert.ErrorIs(t, err, database.ErrVersionConflict)
	assert.Equal(t, 1, req.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_WritesItems(t *testing.T) {
	db, mock, repo := setupMockRequisitionDB(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE "requisitions" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "requisition_items" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := &domain.Requisition{ID: 4, Status: domain.StatusFullyIssued, Version: 1, Items: []domain.RequisitionItem{{ID: 1, QuantityRequested: 2, QuantityIssued: 2}}}
	err := repo.Update(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, 2, req.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}
