package command

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/field-service/internal/catalog"
	"github.com/tair/field-service/internal/idempotency"
	invdomain "github.com/tair/field-service/internal/inventory/domain"
	invcommand "github.com/tair/field-service/internal/inventory/usecase/command"
	jobdomain "github.com/tair/field-service/internal/job/domain"
	"github.com/tair/field-service/internal/requisition/domain"
	"github.com/tair/field-service/internal/storage/memory"
	"github.com/tair/field-service/kafka"
	"github.com/tair/field-service/pkg/apperr"
	"github.com/tair/field-service/pkg/database"
)

const (
	bulkProduct   uint = 1
	deviceProduct uint = 2
)

type env struct {
	ctx     context.Context
	store   *memory.Store
	inv     *memory.InventoryRepository
	jobs    *memory.JobRepository
	reqs    *memory.RequisitionRepository
	catalog *catalog.StaticCatalog
	retrier *database.Retrier
	job     *jobdomain.Job
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.New()
	e := &env{
		ctx:   context.Background(),
		store: store,
		inv:   store.Inventory(),
		jobs:  store.Jobs(),
		reqs:  store.Requisitions(),
		catalog: catalog.NewStaticCatalog(
			catalog.Product{ID: bulkProduct, SKU: "HRN-01", Name: "Wiring harness", IsActive: true},
			catalog.Product{ID: deviceProduct, SKU: "TRK-01", Name: "GPS tracker", Serialized: true, IsActive: true},
		),
		retrier: database.NewRetrier(store, 3),
	}
	require.NoError(t, e.inv.SaveLocation(e.ctx, &invdomain.Location{Code: "MAIN", Name: "Main", Kind: invdomain.LocationWarehouse}))

	e.job = &jobdomain.Job{
		Number:      "JOB-TEST0001",
		CustomerID:  10,
		Type:        jobdomain.TypeNewInstallation,
		Status:      jobdomain.StatusAssigned,
		Technicians: []jobdomain.TechnicianAssignment{{TechnicianID: 3, AssignedAt: time.Now()}},
	}
	require.NoError(t, e.jobs.Create(e.ctx, e.job))
	return e
}

func (e *env) receive(t *testing.T, productID uint, number string, quantity int, receivedAt time.Time, imeis ...string) *invdomain.Batch {
	t.Helper()
	res, err := invcommand.NewReceiveBatchHandler(e.inv, e.catalog, e.retrier, kafka.NopPublisher{}).Handle(e.ctx, invcommand.ReceiveBatchCommand{
		ProductID:   productID,
		BatchNumber: number,
		Location:    "MAIN",
		Quantity:    quantity,
		CostBasis:   decimal.RequireFromString("3.25"),
		ReceivedAt:  receivedAt,
		IMEIs:       imeis,
	})
	require.NoError(t, err)
	return res.Batch
}

func (e *env) available(t *testing.T, productID, batchID uint) int {
	t.Helper()
	rec, err := e.inv.FindRecord(e.ctx, productID, batchID, "MAIN")
	require.NoError(t, err)
	return rec.QuantityAvailable
}

func (e *env) approved(t *testing.T, items ...ItemRequest) *domain.Requisition {
	t.Helper()
	req, err := NewCreateRequisitionHandler(e.reqs, e.jobs, e.catalog, e.retrier, nil).Handle(e.ctx, CreateRequisitionCommand{
		JobID:        e.job.ID,
		TechnicianID: 3,
		Items:        items,
	})
	require.NoError(t, err)
	req, err = NewApproveRequisitionHandler(e.reqs, e.retrier, nil).Handle(e.ctx, ApproveRequisitionCommand{ID: req.ID, ApproverID: 1})
	require.NoError(t, err)
	return req
}

func (e *env) issuer(keys idempotency.Store) *IssueRequisitionHandler {
	stock := invcommand.NewIssueStockHandler(e.inv, e.catalog, e.retrier)
	return NewIssueRequisitionHandler(e.reqs, e.jobs, stock, keys, e.retrier, nil)
}

func TestCreateRequisition_Validation(t *testing.T) {
	e := newEnv(t)
	h := NewCreateRequisitionHandler(e.reqs, e.jobs, e.catalog, e.retrier, nil)

	_, err := h.Handle(e.ctx, CreateRequisitionCommand{JobID: e.job.ID, TechnicianID: 3})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = h.Handle(e.ctx, CreateRequisitionCommand{JobID: e.job.ID, TechnicianID: 3, Items: []ItemRequest{{ProductID: bulkProduct, Quantity: 0}}})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = h.Handle(e.ctx, CreateRequisitionCommand{JobID: e.job.ID, TechnicianID: 3, Items: []ItemRequest{{ProductID: 77, Quantity: 1}}})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = h.Handle(e.ctx, CreateRequisitionCommand{JobID: 999, TechnicianID: 3, Items: []ItemRequest{{ProductID: bulkProduct, Quantity: 1}}})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreateRequisition_ClosedJob(t *testing.T) {
	e := newEnv(t)
	e.job.Status = jobdomain.StatusCancelled
	require.NoError(t, e.jobs.Update(e.ctx, e.job))

	_, err := NewCreateRequisitionHandler(e.reqs, e.jobs, e.catalog, e.retrier, nil).Handle(e.ctx, CreateRequisitionCommand{
		JobID: e.job.ID, TechnicianID: 3, Items: []ItemRequest{{ProductID: bulkProduct, Quantity: 1}},
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestApproveAndReject_OnlyFromPending(t *testing.T) {
	e := newEnv(t)
	req := e.approved(t, ItemRequest{ProductID: bulkProduct, Quantity: 2})
	assert.Equal(t, domain.StatusApproved, req.Status)
	require.NotNil(t, req.ApprovedBy)
	require.NotNil(t, req.ApprovedAt)

	_, err := NewApproveRequisitionHandler(e.reqs, e.retrier, nil).Handle(e.ctx, ApproveRequisitionCommand{ID: req.ID, ApproverID: 1})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	reject := NewRejectRequisitionHandler(e.reqs, e.retrier, nil)
	_, err = reject.Handle(e.ctx, RejectRequisitionCommand{ID: req.ID, Reason: "duplicate"})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	pending, err := NewCreateRequisitionHandler(e.reqs, e.jobs, e.catalog, e.retrier, nil).Handle(e.ctx, CreateRequisitionCommand{
		JobID: e.job.ID, TechnicianID: 3, Items: []ItemRequest{{ProductID: bulkProduct, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = reject.Handle(e.ctx, RejectRequisitionCommand{ID: pending.ID, Reason: "  "})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	rejected, err := reject.Handle(e.ctx, RejectRequisitionCommand{ID: pending.ID, Reason: "duplicate"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, rejected.Status)
	assert.Equal(t, "duplicate", rejected.RejectionReason)
}

func TestIssue_RequiresApproval(t *testing.T) {
	e := newEnv(t)
	e.receive(t, bulkProduct, "LOT-A", 5, time.Now())
	req, err := NewCreateRequisitionHandler(e.reqs, e.jobs, e.catalog, e.retrier, nil).Handle(e.ctx, CreateRequisitionCommand{
		JobID: e.job.ID, TechnicianID: 3, Items: []ItemRequest{{ProductID: bulkProduct, Quantity: 2}},
	})
	require.NoError(t, err)

	_, err = e.issuer(nil).Handle(e.ctx, IssueRequisitionCommand{ID: req.ID, Lines: []IssueLine{{ItemID: req.Items[0].ID, Quantity: 1}}})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestIssue_PartialThenOverRemaining(t *testing.T) {
	e := newEnv(t)
	batch := e.receive(t, bulkProduct, "LOT-A", 10, time.Now())
	req := e.approved(t, ItemRequest{ProductID: bulkProduct, Quantity: 5})
	itemID := req.Items[0].ID
	h := e.issuer(nil)

	res, err := h.Handle(e.ctx, IssueRequisitionCommand{ID: req.ID, IssuedBy: 1, Lines: []IssueLine{{ItemID: itemID, Quantity: 3}}})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPartiallyIssued, res.Requisition.Status)
	assert.Equal(t, 3, res.Requisition.Items[0].QuantityIssued)
	require.Len(t, res.Issuances, 1)
	assert.True(t, res.Issuances[0].UnitCost.Equal(decimal.RequireFromString("3.25")))
	assert.Equal(t, 7, e.available(t, bulkProduct, batch.ID))

	_, err = h.Handle(e.ctx, IssueRequisitionCommand{ID: req.ID, IssuedBy: 1, Lines: []IssueLine{{ItemID: itemID, Quantity: 3}}})
	require.ErrorIs(t, err, apperr.ErrValidation)
	appErr, _ := apperr.As(err)
	assert.Equal(t, 2, appErr.Details["remaining"])

	stored, err := e.reqs.FindByID(e.ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Items[0].QuantityIssued)
	assert.Equal(t, 7, e.available(t, bulkProduct, batch.ID))

	res, err = h.Handle(e.ctx, IssueRequisitionCommand{ID: req.ID, IssuedBy: 1, Lines: []IssueLine{{ItemID: itemID, Quantity: 2}}})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFullyIssued, res.Requisition.Status)
}

func TestIssue_FIFOWritesOneIssuancePerSplit(t *testing.T) {
	e := newEnv(t)
	older := e.receive(t, bulkProduct, "LOT-A", 2, time.Now().Add(-72*time.Hour))
	newer := e.receive(t, bulkProduct, "LOT-B", 5, time.Now())
	req := e.approved(t, ItemRequest{ProductID: bulkProduct, Quantity: 4})

	res, err := e.issuer(nil).Handle(e.ctx, IssueRequisitionCommand{ID: req.ID, IssuedBy: 1, Lines: []IssueLine{{ItemID: req.Items[0].ID, Quantity: 4}}})

	require.NoError(t, err)
	require.Len(t, res.Issuances, 2)
	assert.Equal(t, older.ID, res.Issuances[0].BatchID)
	assert.Equal(t, 2, res.Issuances[0].Quantity)
	assert.Equal(t, newer.ID, res.Issuances[1].BatchID)
	assert.Equal(t, 2, res.Issuances[1].Quantity)
}

func TestIssue_AllOrNothing(t *testing.T) {
	e := newEnv(t)
	bulk := e.receive(t, bulkProduct, "LOT-A", 5, time.Now())
	e.receive(t, deviceProduct, "LOT-D", 1, time.Now(), "350000000000001")
	req := e.approved(t,
		ItemRequest{ProductID: bulkProduct, Quantity: 2},
		ItemRequest{ProductID: deviceProduct, Quantity: 1},
	)

	_, err := e.issuer(nil).Handle(e.ctx, IssueRequisitionCommand{ID: req.ID, IssuedBy: 1, Lines: []IssueLine{
		{ItemID: req.Items[0].ID, Quantity: 2},
		{ItemID: req.Items[1].ID, Quantity: 1, DeviceIMEIs: []string{"359999999999999"}},
	}})

	require.ErrorIs(t, err, apperr.ErrDeviceAllocationMismatch)
	appErr, _ := apperr.As(err)
	assert.Equal(t, req.Items[1].ID, appErr.Details["item_id"])
	assert.Equal(t, 5, e.available(t, bulkProduct, bulk.ID))

	stored, err := e.reqs.FindByID(e.ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, stored.Status)
	assert.Equal(t, 0, stored.Items[0].QuantityIssued)

	issuances, err := e.reqs.ListIssuances(e.ctx, req.ID)
	require.NoError(t, err)
	assert.Empty(t, issuances)
}

func TestIssue_BindsDevicesToJob(t *testing.T) {
	e := newEnv(t)
	e.receive(t, deviceProduct, "LOT-D", 2, time.Now(), "350000000000001", "350000000000002")
	req := e.approved(t, ItemRequest{ProductID: deviceProduct, Quantity: 1})

	res, err := e.issuer(nil).Handle(e.ctx, IssueRequisitionCommand{ID: req.ID, IssuedBy: 1, Lines: []IssueLine{
		{ItemID: req.Items[0].ID, Quantity: 1, DeviceIMEIs: []string{"350000000000002"}},
	}})

	require.NoError(t, err)
	assert.Equal(t, []string{"350000000000002"}, res.Issuances[0].DeviceIMEIs)
	d, err := e.inv.FindDeviceByIMEI(e.ctx, "350000000000002")
	require.NoError(t, err)
	assert.Equal(t, invdomain.DeviceIssued, d.Status)
	require.NotNil(t, d.JobID)
	assert.Equal(t, e.job.ID, *d.JobID)
}

func TestIssue_CancelledJob(t *testing.T) {
	e := newEnv(t)
	e.receive(t, bulkProduct, "LOT-A", 5, time.Now())
	req := e.approved(t, ItemRequest{ProductID: bulkProduct, Quantity: 2})

	e.job.Status = jobdomain.StatusCancelled
	require.NoError(t, e.jobs.Update(e.ctx, e.job))

	_, err := e.issuer(nil).Handle(e.ctx, IssueRequisitionCommand{ID: req.ID, Lines: []IssueLine{{ItemID: req.Items[0].ID, Quantity: 1}}})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestIssue_IdempotencyKeyReplays(t *testing.T) {
	for name, keys := range map[string]idempotency.Store{
		"with key store": idempotency.NewMemoryStore(),
		"database only":  nil,
	} {
		t.Run(name, func(t *testing.T) {
			e := newEnv(t)
			batch := e.receive(t, bulkProduct, "LOT-A", 5, time.Now())
			req := e.approved(t, ItemRequest{ProductID: bulkProduct, Quantity: 4})
			h := e.issuer(keys)
			cmd := IssueRequisitionCommand{ID: req.ID, IssuedBy: 1, IdempotencyKey: "client-retry-1", Lines: []IssueLine{{ItemID: req.Items[0].ID, Quantity: 2}}}

			first, err := h.Handle(e.ctx, cmd)
			require.NoError(t, err)
			assert.False(t, first.Replayed)

			second, err := h.Handle(e.ctx, cmd)
			require.NoError(t, err)
			assert.True(t, second.Replayed)
			assert.Equal(t, 2, second.Requisition.Items[0].QuantityIssued)
			assert.Equal(t, 3, e.available(t, bulkProduct, batch.ID))
		})
	}
}
