package query

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/tair/field-service/internal/inventory/domain"
	"github.com/tair/field-service/internal/storage/memory"
	"github.com/tair/field-service/pkg/apperr"
)

func seed(t *testing.T) (*memory.InventoryRepository, *domain.Batch) {
	t.Helper()
	ctx := context.Background()
	repo := memory.New().Inventory()

	require.NoError(t, repo.SaveLocation(ctx, &domain.Location{Code: "MAIN", Name: "Main", Kind: domain.LocationWarehouse}))
	batch := &domain.Batch{ProductID: 2, BatchNumber: "LOT-1", ReceivedAt: time.Now(), CostBasis: decimal.RequireFromString("40")}
	require.NoError(t, repo.CreateBatch(ctx, batch))
	require.NoError(t, repo.CreateRecord(ctx, &domain.InventoryRecord{ProductID: 2, BatchID: batch.ID, Location: "MAIN", QuantityAvailable: 1, QuantityReserved: 1}))

	jobID := uint(5)
	require.NoError(t, repo.CreateDevice(ctx, &domain.Device{IMEI: "350000000000001", ProductID: 2, BatchID: batch.ID, Location: "MAIN", Status: domain.DeviceAvailable}))
	require.NoError(t, repo.CreateDevice(ctx, &domain.Device{IMEI: "350000000000002", ProductID: 2, BatchID: batch.ID, Location: "MAIN", Status: domain.DeviceIssued, JobID: &jobID}))
	require.NoError(t, repo.CreateMovement(ctx, &domain.StockMovement{ProductID: 2, BatchID: batch.ID, Location: "MAIN", Type: domain.MovementReceipt, Quantity: 2}))
	return repo, batch
}

func TestGetAvailableDevices_OnlyAvailable(t *testing.T) {
	repo, batch := seed(t)
	h := NewGetAvailableDevicesHandler(repo)

	devices, err := h.Handle(context.Background(), GetAvailableDevicesQuery{ProductID: 2, BatchID: &batch.ID})
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "350000000000001", devices[0].IMEI)

	other := batch.ID + 1
	devices, err = h.Handle(context.Background(), GetAvailableDevicesQuery{ProductID: 2, BatchID: &other})
	require.NoError(t, err)
	assert.NotNil(t, devices)
	assert.Empty(t, devices)

	_, err = h.Handle(context.Background(), GetAvailableDevicesQuery{})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestListInventory_DefaultsLimit(t *testing.T) {
	repo, _ := seed(t)
	records, err := NewListInventoryHandler(repo).Handle(context.Background(), ListInventoryQuery{ProductID: 2})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 2, records[0].OnHand())
}

func TestGetInventory_NotFound(t *testing.T) {
	repo, _ := seed(t)
	_, err := NewGetInventoryHandler(repo).Handle(context.Background(), GetInventoryQuery{ID: 99})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestExportStockReport_WritesSheets(t *testing.T) {
	repo, _ := seed(t)

	data, err := NewExportStockReportHandler(repo).Handle(context.Background(), ExportStockReportQuery{})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetStock, SheetDevices, SheetMovements}, f.GetSheetList())

	stock, err := f.GetRows(SheetStock)
	require.NoError(t, err)
	require.Len(t, stock, 2)
	assert.Equal(t, "LOT-1", stock[1][2])
	assert.Equal(t, "80.00", stock[1][9])

	devices, err := f.GetRows(SheetDevices)
	require.NoError(t, err)
	assert.Len(t, devices, 3)
}
