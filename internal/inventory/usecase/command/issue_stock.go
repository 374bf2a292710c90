package command

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/tair/field-service/internal/catalog"
	"github.com/tair/field-service/internal/inventory/domain"
	"github.com/tair/field-service/pkg/apperr"
	"github.com/tair/field-service/pkg/database"
	"github.com/tair/field-service/pkg/metrics"
)

// IssueStockCommand draws stock from a location for a job
type IssueStockCommand struct {
	ProductID     uint
	BatchID       *uint
	Location      string
	Quantity      int
	DeviceIMEIs   []string
	JobID         uint
	RequisitionID uint
	Reference     string
	ActorID       uint
}

// IssuedSplit is the part of an issue drawn from one batch
type IssuedSplit struct {
	BatchID  uint            `json:"batch_id"`
	Quantity int             `json:"quantity"`
	IMEIs    []string        `json:"imeis,omitempty"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

// IssueStockHandler decrements the ledger and binds devices to a job. It joins the caller's
// transaction and does not retry; the caller owns the unit of work.
type IssueStockHandler struct {
	ledger
	tx database.Transactor
}

// NewIssueStockHandler creates a new issue stock handler
func NewIssueStockHandler(repo domain.InventoryRepository, cat catalog.Catalog, retrier *database.Retrier) *IssueStockHandler {
	return &IssueStockHandler{ledger: ledger{repo: repo, catalog: cat}, tx: retrier.Transactor()}
}

// Handle executes the issue stock command. Without a batch, bulk stock is consumed oldest
// receipt first and serialized devices are grouped by their batches.
func (h *IssueStockHandler) Handle(ctx context.Context, cmd IssueStockCommand) ([]IssuedSplit, error) {
	if cmd.Quantity <= 0 {
		return nil, apperr.Validation("quantity must be positive").With("quantity", cmd.Quantity)
	}
	if cmd.JobID == 0 {
		return nil, apperr.Validation("job_id is required")
	}
	cmd.Location = locationOrDefault(cmd.Location)

	product, err := h.product(ctx, cmd.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.Serialized && len(cmd.DeviceIMEIs) > 0 {
		return nil, apperr.New(apperr.KindDeviceAllocationMismatch, "product is not serialized").
			With("product_id", cmd.ProductID)
	}

	mode := "fifo"
	if cmd.BatchID != nil && *cmd.BatchID != 0 {
		mode = "explicit"
	}

	var splits []IssuedSplit
	err = h.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var batchID uint
		if mode == "explicit" {
			batch, err := h.resolveBatch(ctx, cmd.ProductID, cmd.BatchID, cmd.Location)
			if err != nil {
				return err
			}
			batchID = batch.ID
		}

		if product.Serialized {
			devices, err := h.deviceSelection(ctx, apperr.KindDeviceAllocationMismatch,
				cmd.ProductID, batchID, cmd.Location, cmd.DeviceIMEIs, cmd.Quantity)
			if err != nil {
				return err
			}
			groups, err := h.groupByBatch(ctx, devices)
			if err != nil {
				return err
			}
			for _, g := range groups {
				split, err := h.draw(ctx, cmd, g.batch.ID, len(g.devices), g.devices)
				if err != nil {
					return err
				}
				splits = append(splits, split)
			}
			return nil
		}

		plan := []domain.Split{{BatchID: batchID, Quantity: cmd.Quantity}}
		if batchID == 0 {
			var err error
			if plan, err = h.fifoPlan(ctx, cmd.ProductID, cmd.Location, cmd.Quantity); err != nil {
				return err
			}
		}
		for _, p := range plan {
			split, err := h.draw(ctx, cmd, p.BatchID, p.Quantity, nil)
			if err != nil {
				return err
			}
			splits = append(splits, split)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IssuanceLines.WithLabelValues(mode).Add(float64(len(splits)))
	return splits, nil
}

// draw takes quantity from one batch record and issues devices to the job
func (h *IssueStockHandler) draw(ctx context.Context, cmd IssueStockCommand, batchID uint, quantity int, devices []domain.Device) (IssuedSplit, error) {
	batch, err := h.repo.FindBatch(ctx, batchID)
	if err != nil {
		return IssuedSplit{}, err
	}
	rec, err := h.record(ctx, cmd.ProductID, batchID, cmd.Location, false)
	if errors.Is(err, apperr.ErrNotFound) {
		return IssuedSplit{}, insufficient(&domain.InventoryRecord{
			ProductID: cmd.ProductID, BatchID: batchID, Location: cmd.Location,
		}, quantity)
	}
	if err != nil {
		return IssuedSplit{}, err
	}
	if rec.QuantityAvailable < quantity {
		return IssuedSplit{}, insufficient(rec, quantity)
	}

	rec.QuantityAvailable -= quantity
	if err := h.repo.UpdateRecord(ctx, rec); err != nil {
		return IssuedSplit{}, err
	}

	imeis := make([]string, 0, len(devices))
	for i := range devices {
		d := &devices[i]
		jobID := cmd.JobID
		d.Status = domain.DeviceIssued
		d.JobID = &jobID
		if cmd.RequisitionID != 0 {
			reqID := cmd.RequisitionID
			d.RequisitionID = &reqID
		}
		if err := h.repo.UpdateDevice(ctx, d); err != nil {
			return IssuedSplit{}, err
		}
		imeis = append(imeis, d.IMEI)
	}

	if err := h.movement(ctx, domain.StockMovement{
		ProductID: cmd.ProductID,
		BatchID:   batchID,
		Location:  cmd.Location,
		Type:      domain.MovementIssue,
		Quantity:  quantity,
		Reference: cmd.Reference,
		ActorID:   cmd.ActorID,
		IMEIs:     imeis,
	}); err != nil {
		return IssuedSplit{}, err
	}

	split := IssuedSplit{BatchID: batchID, Quantity: quantity, UnitCost: batch.CostBasis}
	if len(imeis) > 0 {
		split.IMEIs = imeis
	}
	return split, nil
}
