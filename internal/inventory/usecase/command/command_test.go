package command

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/field-service/internal/catalog"
	"github.com/tair/field-service/internal/inventory/domain"
	"github.com/tair/field-service/internal/storage/memory"
	"github.com/tair/field-service/kafka"
	"github.com/tair/field-service/pkg/apperr"
	"github.com/tair/field-service/pkg/database"
)

const (
	bulkProduct   uint = 1
	deviceProduct uint = 2
)

type recorder struct {
	mu     sync.Mutex
	events []kafka.Event
}

func (r *recorder) Publish(_ context.Context, event kafka.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType)
	}
	return out
}

type fixture struct {
	ctx     context.Context
	repo    *memory.InventoryRepository
	catalog *catalog.StaticCatalog
	retrier *database.Retrier
	events  *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	f := &fixture{
		ctx:  context.Background(),
		repo: store.Inventory(),
		catalog: catalog.NewStaticCatalog(
			catalog.Product{ID: bulkProduct, SKU: "HRN-01", Name: "Wiring harness", IsActive: true},
			catalog.Product{ID: deviceProduct, SKU: "TRK-01", Name: "GPS tracker", Serialized: true, IsActive: true},
		),
		retrier: database.NewRetrier(store, 3),
		events:  &recorder{},
	}
	require.NoError(t, f.repo.SaveLocation(f.ctx, &domain.Location{Code: "MAIN", Name: "Main warehouse", Kind: domain.LocationWarehouse}))
	require.NoError(t, f.repo.SaveLocation(f.ctx, &domain.Location{Code: "VAN-1", Name: "Van 1", Kind: domain.LocationVan}))
	return f
}

func (f *fixture) receive(t *testing.T, productID uint, number string, quantity int, receivedAt time.Time, imeis ...string) *ReceiveBatchResult {
	t.Helper()
	h := NewReceiveBatchHandler(f.repo, f.catalog, f.retrier, f.events)
	res, err := h.Handle(f.ctx, ReceiveBatchCommand{
		ProductID:   productID,
		BatchNumber: number,
		Location:    "MAIN",
		Quantity:    quantity,
		CostBasis:   decimal.RequireFromString("12.50"),
		ReceivedAt:  receivedAt,
		IMEIs:       imeis,
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) available(t *testing.T, productID, batchID uint, location string) int {
	t.Helper()
	rec, err := f.repo.FindRecord(f.ctx, productID, batchID, location)
	require.NoError(t, err)
	return rec.QuantityAvailable
}

func (f *fixture) device(t *testing.T, imei string) *domain.Device {
	t.Helper()
	d, err := f.repo.FindDeviceByIMEI(f.ctx, imei)
	require.NoError(t, err)
	return d
}

func uintPtr(v uint) *uint { return &v }

func TestReceiveBatch_RegistersDevices(t *testing.T) {
	f := newFixture(t)

	res := f.receive(t, deviceProduct, "LOT-1", 2, time.Now(), "350000000000001", "350000000000002")

	assert.Equal(t, 2, res.Record.QuantityAvailable)
	require.Len(t, res.Devices, 2)
	assert.Equal(t, domain.DeviceAvailable, f.device(t, "350000000000001").Status)
	assert.Equal(t, []string{kafka.EventTypeInventoryReceived}, f.events.types())

	movements, err := f.repo.ListMovements(f.ctx, domain.MovementFilter{ProductID: deviceProduct})
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, domain.MovementReceipt, movements[0].Type)
}

func TestReceiveBatch_SerializedNeedsOneIMEIPerUnit(t *testing.T) {
	f := newFixture(t)
	h := NewReceiveBatchHandler(f.repo, f.catalog, f.retrier, f.events)

	_, err := h.Handle(f.ctx, ReceiveBatchCommand{ProductID: deviceProduct, BatchNumber: "LOT-1", Quantity: 2, IMEIs: []string{"350000000000001"}})

	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Empty(t, f.events.types())
}

func TestAdjustInventory_IncreaseThenDecreaseRestores(t *testing.T) {
	f := newFixture(t)
	batch := f.receive(t, bulkProduct, "LOT-1", 10, time.Now()).Batch
	h := NewAdjustInventoryHandler(f.repo, f.catalog, f.retrier, f.events)

	_, err := h.Handle(f.ctx, AdjustInventoryCommand{ProductID: bulkProduct, Type: domain.AdjustIncrease, Quantity: 4, Reason: "found in audit"})
	require.NoError(t, err)
	assert.Equal(t, 14, f.available(t, bulkProduct, batch.ID, "MAIN"))

	res, err := h.Handle(f.ctx, AdjustInventoryCommand{ProductID: bulkProduct, Type: domain.AdjustDecrease, Quantity: 4, Reason: "audit reversal"})
	require.NoError(t, err)
	assert.Empty(t, res.Warning)
	assert.Equal(t, 10, f.available(t, bulkProduct, batch.ID, "MAIN"))
}

func TestAdjustInventory_SerializedDecreaseNeedsDeviceSelection(t *testing.T) {
	f := newFixture(t)
	batch := f.receive(t, deviceProduct, "LOT-1", 2, time.Now(), "350000000000001", "350000000000002").Batch
	h := NewAdjustInventoryHandler(f.repo, f.catalog, f.retrier, f.events)

	_, err := h.Handle(f.ctx, AdjustInventoryCommand{
		ProductID:   deviceProduct,
		Type:        domain.AdjustDecrease,
		Quantity:    2,
		Reason:      "damaged",
		DeviceIMEIs: []string{"350000000000001"},
	})

	assert.ErrorIs(t, err, apperr.ErrInsufficientDeviceSelection)
	assert.Equal(t, 2, f.available(t, deviceProduct, batch.ID, "MAIN"))
	assert.Equal(t, domain.DeviceAvailable, f.device(t, "350000000000001").Status)
}

func TestAdjustInventory_SerializedDecreaseRetiresDevices(t *testing.T) {
	f := newFixture(t)
	batch := f.receive(t, deviceProduct, "LOT-1", 2, time.Now(), "350000000000001", "350000000000002").Batch
	h := NewAdjustInventoryHandler(f.repo, f.catalog, f.retrier, f.events)

	_, err := h.Handle(f.ctx, AdjustInventoryCommand{
		ProductID:   deviceProduct,
		Type:        domain.AdjustDecrease,
		Quantity:    1,
		Reason:      "damaged",
		DeviceIMEIs: []string{"350000000000002"},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, f.available(t, deviceProduct, batch.ID, "MAIN"))
	assert.Equal(t, domain.DeviceRetired, f.device(t, "350000000000002").Status)
}

func TestAdjustInventory_DecreaseFloorsAtZero(t *testing.T) {
	f := newFixture(t)
	batch := f.receive(t, bulkProduct, "LOT-1", 3, time.Now()).Batch
	h := NewAdjustInventoryHandler(f.repo, f.catalog, f.retrier, f.events)

	res, err := h.Handle(f.ctx, AdjustInventoryCommand{ProductID: bulkProduct, Type: domain.AdjustDecrease, Quantity: 5, Reason: "shrinkage"})

	require.NoError(t, err)
	assert.NotEmpty(t, res.Warning)
	assert.Equal(t, 3, res.Applied)
	assert.Equal(t, 0, f.available(t, bulkProduct, batch.ID, "MAIN"))
}

func TestAdjustInventory_SerializedDecreaseBeyondAvailable(t *testing.T) {
	f := newFixture(t)
	rec := f.receive(t, deviceProduct, "LOT-1", 2, time.Now(), "350000000000001", "350000000000002").Record
	_, err := NewReservationHandler(f.repo, f.catalog, f.retrier).Handle(f.ctx, ReservationCommand{
		RecordID: rec.ID, Action: ActionReserve, Quantity: 1,
	})
	require.NoError(t, err)
	h := NewAdjustInventoryHandler(f.repo, f.catalog, f.retrier, f.events)

	_, err = h.Handle(f.ctx, AdjustInventoryCommand{
		ProductID:   deviceProduct,
		Type:        domain.AdjustDecrease,
		Quantity:    2,
		Reason:      "damaged",
		DeviceIMEIs: []string{"350000000000001", "350000000000002"},
	})

	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
	assert.Equal(t, 1, f.available(t, deviceProduct, rec.BatchID, "MAIN"))
	assert.Equal(t, domain.DeviceAvailable, f.device(t, "350000000000001").Status)
	assert.Equal(t, domain.DeviceAvailable, f.device(t, "350000000000002").Status)
}

func TestAdjustInventory_CorrectionNormalizesToDelta(t *testing.T) {
	f := newFixture(t)
	f.receive(t, bulkProduct, "LOT-1", 10, time.Now())
	h := NewAdjustInventoryHandler(f.repo, f.catalog, f.retrier, f.events)

	res, err := h.Handle(f.ctx, AdjustInventoryCommand{ProductID: bulkProduct, Type: domain.AdjustCorrection, Quantity: 7, Reason: "cycle count"})

	require.NoError(t, err)
	assert.Equal(t, "DECREASE", res.Direction)
	assert.Equal(t, 3, res.Applied)
	assert.Equal(t, 7, res.Record.QuantityAvailable)
}

func TestAdjustInventory_Validation(t *testing.T) {
	f := newFixture(t)
	f.receive(t, bulkProduct, "LOT-1", 10, time.Now())
	h := NewAdjustInventoryHandler(f.repo, f.catalog, f.retrier, f.events)

	_, err := h.Handle(f.ctx, AdjustInventoryCommand{ProductID: bulkProduct, Type: domain.AdjustIncrease, Quantity: 1})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = h.Handle(f.ctx, AdjustInventoryCommand{ProductID: bulkProduct, Type: "SHRINK", Quantity: 1, Reason: "x"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = h.Handle(f.ctx, AdjustInventoryCommand{ProductID: 99, Type: domain.AdjustIncrease, Quantity: 1, Reason: "x"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAdjustInventory_SeveralBatchesNeedExplicitBatch(t *testing.T) {
	f := newFixture(t)
	f.receive(t, bulkProduct, "LOT-1", 2, time.Now().Add(-time.Hour))
	second := f.receive(t, bulkProduct, "LOT-2", 2, time.Now()).Batch
	h := NewAdjustInventoryHandler(f.repo, f.catalog, f.retrier, f.events)

	_, err := h.Handle(f.ctx, AdjustInventoryCommand{ProductID: bulkProduct, Type: domain.AdjustIncrease, Quantity: 1, Reason: "x"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = h.Handle(f.ctx, AdjustInventoryCommand{ProductID: bulkProduct, BatchID: uintPtr(second.ID), Type: domain.AdjustIncrease, Quantity: 1, Reason: "x"})
	require.NoError(t, err)
	assert.Equal(t, 3, f.available(t, bulkProduct, second.ID, "MAIN"))
}

func TestTransferInventory_InvalidEndpoints(t *testing.T) {
	f := newFixture(t)
	f.receive(t, bulkProduct, "LOT-1", 5, time.Now())
	h := NewTransferInventoryHandler(f.repo, f.catalog, f.retrier, f.events)

	_, err := h.Handle(f.ctx, TransferInventoryCommand{ProductID: bulkProduct, FromLocation: "MAIN", ToLocation: "MAIN", Quantity: 1})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransfer)

	_, err = h.Handle(f.ctx, TransferInventoryCommand{ProductID: bulkProduct, FromLocation: "MAIN", ToLocation: "NOWHERE", Quantity: 1})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransfer)

	_, err = h.Handle(f.ctx, TransferInventoryCommand{ProductID: bulkProduct, FromLocation: "MAIN", ToLocation: "VAN-1", Quantity: 0})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestTransferInventory_ExceedsAvailable(t *testing.T) {
	f := newFixture(t)
	batch := f.receive(t, bulkProduct, "LOT-1", 5, time.Now()).Batch
	h := NewTransferInventoryHandler(f.repo, f.catalog, f.retrier, f.events)

	_, err := h.Handle(f.ctx, TransferInventoryCommand{ProductID: bulkProduct, BatchID: uintPtr(batch.ID), FromLocation: "MAIN", ToLocation: "VAN-1", Quantity: 6})

	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
	assert.Equal(t, 5, f.available(t, bulkProduct, batch.ID, "MAIN"))
}

func TestTransferInventory_MovesLedgerAndDevices(t *testing.T) {
	f := newFixture(t)
	batch := f.receive(t, deviceProduct, "LOT-1", 2, time.Now(), "350000000000001", "350000000000002").Batch
	h := NewTransferInventoryHandler(f.repo, f.catalog, f.retrier, f.events)

	res, err := h.Handle(f.ctx, TransferInventoryCommand{
		ProductID:    deviceProduct,
		FromLocation: "MAIN",
		ToLocation:   "VAN-1",
		Quantity:     1,
		DeviceIMEIs:  []string{"350000000000002"},
	})

	require.NoError(t, err)
	assert.NotEmpty(t, res.Message)
	require.Len(t, res.Lines, 1)
	assert.Equal(t, 1, f.available(t, deviceProduct, batch.ID, "MAIN"))
	assert.Equal(t, 1, f.available(t, deviceProduct, batch.ID, "VAN-1"))
	assert.Equal(t, "VAN-1", f.device(t, "350000000000002").Location)
	assert.Equal(t, "MAIN", f.device(t, "350000000000001").Location)
}

func TestTransferInventory_SerializedNeedsExactDevices(t *testing.T) {
	f := newFixture(t)
	batch := f.receive(t, deviceProduct, "LOT-1", 2, time.Now(), "350000000000001", "350000000000002").Batch
	h := NewTransferInventoryHandler(f.repo, f.catalog, f.retrier, f.events)

	_, err := h.Handle(f.ctx, TransferInventoryCommand{ProductID: deviceProduct, FromLocation: "MAIN", ToLocation: "VAN-1", Quantity: 2, DeviceIMEIs: []string{"350000000000001"}})

	assert.ErrorIs(t, err, apperr.ErrInsufficientDeviceSelection)
	assert.Equal(t, 2, f.available(t, deviceProduct, batch.ID, "MAIN"))
}

func TestIssueStock_FIFOSplitsAcrossBatches(t *testing.T) {
	f := newFixture(t)
	older := f.receive(t, bulkProduct, "LOT-A", 2, time.Now().Add(-48*time.Hour)).Batch
	newer := f.receive(t, bulkProduct, "LOT-B", 5, time.Now()).Batch
	h := NewIssueStockHandler(f.repo, f.catalog, f.retrier)

	splits, err := h.Handle(f.ctx, IssueStockCommand{ProductID: bulkProduct, Location: "MAIN", Quantity: 4, JobID: 7})

	require.NoError(t, err)
	require.Len(t, splits, 2)
	assert.Equal(t, older.ID, splits[0].BatchID)
	assert.Equal(t, 2, splits[0].Quantity)
	assert.Equal(t, newer.ID, splits[1].BatchID)
	assert.Equal(t, 2, splits[1].Quantity)
	assert.True(t, splits[0].UnitCost.Equal(decimal.RequireFromString("12.50")))
	assert.Equal(t, 0, f.available(t, bulkProduct, older.ID, "MAIN"))
	assert.Equal(t, 3, f.available(t, bulkProduct, newer.ID, "MAIN"))
}

func TestIssueStock_ShortfallLeavesStockUntouched(t *testing.T) {
	f := newFixture(t)
	older := f.receive(t, bulkProduct, "LOT-A", 2, time.Now().Add(-time.Hour)).Batch
	newer := f.receive(t, bulkProduct, "LOT-B", 1, time.Now()).Batch
	h := NewIssueStockHandler(f.repo, f.catalog, f.retrier)

	_, err := h.Handle(f.ctx, IssueStockCommand{ProductID: bulkProduct, Location: "MAIN", Quantity: 4, JobID: 7})

	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
	assert.Equal(t, 2, f.available(t, bulkProduct, older.ID, "MAIN"))
	assert.Equal(t, 1, f.available(t, bulkProduct, newer.ID, "MAIN"))
}

func TestIssueStock_ExplicitBatchInsufficient(t *testing.T) {
	f := newFixture(t)
	batch := f.receive(t, bulkProduct, "LOT-A", 2, time.Now()).Batch
	h := NewIssueStockHandler(f.repo, f.catalog, f.retrier)

	_, err := h.Handle(f.ctx, IssueStockCommand{ProductID: bulkProduct, BatchID: uintPtr(batch.ID), Location: "MAIN", Quantity: 3, JobID: 7})

	require.ErrorIs(t, err, apperr.ErrInsufficientStock)
	appErr, _ := apperr.As(err)
	assert.Equal(t, batch.ID, appErr.Details["batch_id"])
}

func TestIssueStock_SerializedBindsDevicesToJob(t *testing.T) {
	f := newFixture(t)
	batch := f.receive(t, deviceProduct, "LOT-1", 2, time.Now(), "350000000000001", "350000000000002").Batch
	h := NewIssueStockHandler(f.repo, f.catalog, f.retrier)

	splits, err := h.Handle(f.ctx, IssueStockCommand{
		ProductID:     deviceProduct,
		Location:      "MAIN",
		Quantity:      1,
		DeviceIMEIs:   []string{"350000000000001"},
		JobID:         7,
		RequisitionID: 3,
	})

	require.NoError(t, err)
	require.Len(t, splits, 1)
	assert.Equal(t, []string{"350000000000001"}, splits[0].IMEIs)
	d := f.device(t, "350000000000001")
	assert.Equal(t, domain.DeviceIssued, d.Status)
	require.NotNil(t, d.JobID)
	assert.Equal(t, uint(7), *d.JobID)
	assert.Equal(t, 1, f.available(t, deviceProduct, batch.ID, "MAIN"))
}

func TestIssueStock_DeviceMismatch(t *testing.T) {
	f := newFixture(t)
	f.receive(t, deviceProduct, "LOT-1", 2, time.Now(), "350000000000001", "350000000000002")
	h := NewIssueStockHandler(f.repo, f.catalog, f.retrier)

	_, err := h.Handle(f.ctx, IssueStockCommand{ProductID: deviceProduct, Location: "MAIN", Quantity: 2, DeviceIMEIs: []string{"350000000000001"}, JobID: 7})
	assert.ErrorIs(t, err, apperr.ErrDeviceAllocationMismatch)

	_, err = h.Handle(f.ctx, IssueStockCommand{ProductID: deviceProduct, Location: "MAIN", Quantity: 1, DeviceIMEIs: []string{"359999999999999"}, JobID: 7})
	assert.ErrorIs(t, err, apperr.ErrDeviceAllocationMismatch)
}

func TestIssueStock_DeviceIssuedOnce(t *testing.T) {
	f := newFixture(t)
	f.receive(t, deviceProduct, "LOT-1", 2, time.Now(), "350000000000001", "350000000000002")
	h := NewIssueStockHandler(f.repo, f.catalog, f.retrier)

	_, err := h.Handle(f.ctx, IssueStockCommand{ProductID: deviceProduct, Location: "MAIN", Quantity: 1, DeviceIMEIs: []string{"350000000000001"}, JobID: 7})
	require.NoError(t, err)

	_, err = h.Handle(f.ctx, IssueStockCommand{ProductID: deviceProduct, Location: "MAIN", Quantity: 1, DeviceIMEIs: []string{"350000000000001"}, JobID: 8})
	assert.ErrorIs(t, err, apperr.ErrDeviceAllocationMismatch)
}

func TestIssueStock_ConcurrentIssuesNeverOversell(t *testing.T) {
	f := newFixture(t)
	batch := f.receive(t, bulkProduct, "LOT-A", 5, time.Now()).Batch
	h := NewIssueStockHandler(f.repo, f.catalog, f.retrier)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.Handle(f.ctx, IssueStockCommand{ProductID: bulkProduct, Location: "MAIN", Quantity: 3, JobID: uint(i + 1)})
		}(i)
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
			failures++
		}
	}
	assert.Equal(t, 1, failures)
	assert.Equal(t, 2, f.available(t, bulkProduct, batch.ID, "MAIN"))
}

func TestReservation_ReserveCommitRelease(t *testing.T) {
	f := newFixture(t)
	rec := f.receive(t, bulkProduct, "LOT-A", 5, time.Now()).Record
	h := NewReservationHandler(f.repo, f.catalog, f.retrier)

	got, err := h.Handle(f.ctx, ReservationCommand{RecordID: rec.ID, Action: ActionReserve, Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 2, got.QuantityAvailable)
	assert.Equal(t, 3, got.QuantityReserved)
	assert.Equal(t, 5, got.OnHand())

	got, err = h.Handle(f.ctx, ReservationCommand{RecordID: rec.ID, Action: ActionCommit, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, got.QuantityAvailable)
	assert.Equal(t, 1, got.QuantityReserved)

	got, err = h.Handle(f.ctx, ReservationCommand{RecordID: rec.ID, Action: ActionRelease, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, got.QuantityAvailable)
	assert.Equal(t, 0, got.QuantityReserved)

	_, err = h.Handle(f.ctx, ReservationCommand{RecordID: rec.ID, Action: ActionReserve, Quantity: 4})
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)

	_, err = h.Handle(f.ctx, ReservationCommand{RecordID: rec.ID, Action: ActionRelease, Quantity: 1})
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
}

func TestReturnStock_UnbindsDevices(t *testing.T) {
	f := newFixture(t)
	batch := f.receive(t, deviceProduct, "LOT-1", 1, time.Now(), "350000000000001").Batch
	_, err := NewIssueStockHandler(f.repo, f.catalog, f.retrier).Handle(f.ctx, IssueStockCommand{
		ProductID: deviceProduct, Location: "MAIN", Quantity: 1, DeviceIMEIs: []string{"350000000000001"}, JobID: 7,
	})
	require.NoError(t, err)
	h := NewReturnStockHandler(f.repo, f.catalog, f.retrier, f.events)

	_, err = h.Handle(f.ctx, ReturnStockCommand{JobID: 8, Location: "MAIN", DeviceIMEIs: []string{"350000000000001"}})
	assert.ErrorIs(t, err, apperr.ErrDeviceAllocationMismatch)

	res, err := h.Handle(f.ctx, ReturnStockCommand{JobID: 7, Location: "MAIN", DeviceIMEIs: []string{"350000000000001"}, Reason: "job cancelled"})
	require.NoError(t, err)
	require.Len(t, res.Devices, 1)

	d := f.device(t, "350000000000001")
	assert.Equal(t, domain.DeviceAvailable, d.Status)
	assert.Nil(t, d.JobID)
	assert.Equal(t, 1, f.available(t, deviceProduct, batch.ID, "MAIN"))
	assert.Contains(t, f.events.types(), kafka.EventTypeInventoryReturned)
}

func TestReturnStock_BulkLine(t *testing.T) {
	f := newFixture(t)
	batch := f.receive(t, bulkProduct, "LOT-A", 5, time.Now()).Batch
	h := NewReturnStockHandler(f.repo, f.catalog, f.retrier, f.events)

	_, err := h.Handle(f.ctx, ReturnStockCommand{JobID: 7, Location: "VAN-1", Lines: []ReturnLine{{ProductID: bulkProduct, BatchID: batch.ID, Quantity: 2}}})

	require.NoError(t, err)
	assert.Equal(t, 2, f.available(t, bulkProduct, batch.ID, "VAN-1"))

	_, err = h.Handle(f.ctx, ReturnStockCommand{JobID: 7})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestActivateDevices_OnJobCompletion(t *testing.T) {
	f := newFixture(t)
	f.receive(t, deviceProduct, "LOT-1", 2, time.Now(), "350000000000001", "350000000000002")
	_, err := NewIssueStockHandler(f.repo, f.catalog, f.retrier).Handle(f.ctx, IssueStockCommand{
		ProductID: deviceProduct, Location: "MAIN", Quantity: 1, DeviceIMEIs: []string{"350000000000001"}, JobID: 7,
	})
	require.NoError(t, err)
	h := NewActivateDevicesHandler(f.repo, f.catalog, f.retrier)

	require.NoError(t, h.HandleJobEvent(f.ctx, kafka.Event{
		EventType: kafka.EventTypeJobStatusChanged,
		JobID:     7,
		To:        "IN_PROGRESS",
		Data:      map[string]interface{}{"device_imeis": []interface{}{"350000000000001"}},
	}))
	assert.Equal(t, domain.DeviceIssued, f.device(t, "350000000000001").Status)

	completed := kafka.Event{
		EventType: kafka.EventTypeJobStatusChanged,
		JobID:     7,
		To:        "COMPLETED",
		Data:      map[string]interface{}{"device_imeis": []interface{}{"350000000000001"}},
	}
	require.NoError(t, h.HandleJobEvent(f.ctx, completed))
	assert.Equal(t, domain.DeviceActive, f.device(t, "350000000000001").Status)

	// redelivery is harmless
	require.NoError(t, h.HandleJobEvent(f.ctx, completed))

	_, err = h.Handle(f.ctx, ActivateDevicesCommand{JobID: 7, IMEIs: []string{"350000000000002"}})
	assert.ErrorIs(t, err, apperr.ErrDeviceAllocationMismatch)
}
