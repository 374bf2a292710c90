package command

import (
	"context"
	"time"

	"github.com/tair/field-service/internal/catalog"
	"github.com/tair/field-service/internal/inventory/domain"
	"github.com/tair/field-service/kafka"
	"github.com/tair/field-service/pkg/apperr"
	"github.com/tair/field-service/pkg/database"
	"github.com/tair/field-service/pkg/logger"
	"github.com/tair/field-service/pkg/numbering"
)

// ReturnLine is a bulk quantity returned to a batch
type ReturnLine struct {
	ProductID uint `json:"product_id"`
	BatchID   uint `json:"batch_id"`
	Quantity  int  `json:"quantity"`
}

// ReturnStockCommand brings issued stock of a job back into a location
type ReturnStockCommand struct {
	JobID       uint
	Location    string
	DeviceIMEIs []string
	Lines       []ReturnLine
	Reason      string
	ActorID     uint
}

// ReturnStockResult lists what was returned
type ReturnStockResult struct {
	Reference string          `json:"reference"`
	Devices   []domain.Device `json:"devices,omitempty"`
	Lines     []ReturnLine    `json:"lines,omitempty"`
}

// ReturnStockHandler handles return stock command
type ReturnStockHandler struct {
	ledger
	retrier   *database.Retrier
	publisher kafka.EventPublisher
}

// NewReturnStockHandler creates a new return stock handler
func NewReturnStockHandler(repo domain.InventoryRepository, cat catalog.Catalog, retrier *database.Retrier, publisher kafka.EventPublisher) *ReturnStockHandler {
	return &ReturnStockHandler{ledger: ledger{repo: repo, catalog: cat}, retrier: retrier, publisher: publisher}
}

// Handle executes the return stock command. Returned devices become AVAILABLE and are
// unbound from the job.
func (h *ReturnStockHandler) Handle(ctx context.Context, cmd ReturnStockCommand) (*ReturnStockResult, error) {
	if len(cmd.DeviceIMEIs) == 0 && len(cmd.Lines) == 0 {
		return nil, apperr.Validation("nothing to return")
	}
	for i, line := range cmd.Lines {
		if line.ProductID == 0 || line.BatchID == 0 {
			return nil, apperr.Validation("return line needs product_id and batch_id").With("line", i)
		}
		if line.Quantity <= 0 {
			return nil, apperr.Validation("quantity must be positive").With("line", i).With("quantity", line.Quantity)
		}
	}
	cmd.Location = locationOrDefault(cmd.Location)
	reference := numbering.New(numbering.Return)

	var result *ReturnStockResult
	err := h.retrier.Run(ctx, "return stock", func(ctx context.Context) error {
		if err := h.requireLocation(ctx, cmd.Location); err != nil {
			return err
		}
		result = &ReturnStockResult{Reference: reference}

		devices, err := h.returnDevices(ctx, cmd, reference)
		if err != nil {
			return err
		}
		result.Devices = devices

		for _, line := range cmd.Lines {
			batch, err := h.repo.FindBatch(ctx, line.BatchID)
			if err != nil {
				return err
			}
			if batch.ProductID != line.ProductID {
				return apperr.Validation("batch does not belong to product").
					With("batch_id", line.BatchID).
					With("product_id", line.ProductID)
			}
			if err := h.credit(ctx, cmd, reference, line.ProductID, line.BatchID, line.Quantity, nil); err != nil {
				return err
			}
			result.Lines = append(result.Lines, line)
		}
		return nil
	})
	if err != nil {
		logger.Warn(ctx).Err(err).
			Uint("job_id", cmd.JobID).
			Int("devices", len(cmd.DeviceIMEIs)).
			Int("lines", len(cmd.Lines)).
			Msg("Stock return rejected")
		return nil, err
	}

	logger.Info(ctx).
		Uint("job_id", cmd.JobID).
		Str("reference", reference).
		Str("location", cmd.Location).
		Int("devices", len(result.Devices)).
		Int("lines", len(result.Lines)).
		Msg("Stock returned")

	kafka.Emit(ctx, h.publisher, kafka.Event{
		EventType: kafka.EventTypeInventoryReturned,
		JobID:     cmd.JobID,
		ActorID:   cmd.ActorID,
		Data: map[string]interface{}{
			"reference":    reference,
			"location":     cmd.Location,
			"device_imeis": cmd.DeviceIMEIs,
		},
		Timestamp: time.Now(),
	})
	return result, nil
}

func (h *ReturnStockHandler) returnDevices(ctx context.Context, cmd ReturnStockCommand, reference string) ([]domain.Device, error) {
	type key struct{ product, batch uint }
	groups := make(map[key][]string)
	var order []key
	var out []domain.Device

	for _, imei := range cmd.DeviceIMEIs {
		d, err := h.repo.FindDeviceByIMEI(ctx, imei)
		if err != nil {
			return nil, err
		}
		if d.Status != domain.DeviceIssued {
			return nil, apperr.New(apperr.KindDeviceAllocationMismatch, "only issued devices can be returned").
				With("imei", imei).
				With("status", string(d.Status))
		}
		if cmd.JobID != 0 && (d.JobID == nil || *d.JobID != cmd.JobID) {
			return nil, apperr.New(apperr.KindDeviceAllocationMismatch, "device is not issued to this job").
				With("imei", imei).
				With("job_id", cmd.JobID)
		}

		d.Status = domain.DeviceAvailable
		d.JobID = nil
		d.RequisitionID = nil
		d.Location = cmd.Location
		if err := h.repo.UpdateDevice(ctx, d); err != nil {
			return nil, err
		}
		out = append(out, *d)

		k := key{d.ProductID, d.BatchID}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], imei)
	}

	for _, k := range order {
		imeis := groups[k]
		if err := h.credit(ctx, cmd, reference, k.product, k.batch, len(imeis), imeis); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (h *ReturnStockHandler) credit(ctx context.Context, cmd ReturnStockCommand, reference string, productID, batchID uint, quantity int, imeis []string) error {
	rec, err := h.record(ctx, productID, batchID, cmd.Location, true)
	if err != nil {
		return err
	}
	rec.QuantityAvailable += quantity
	if err := h.repo.UpdateRecord(ctx, rec); err != nil {
		return err
	}
	return h.movement(ctx, domain.StockMovement{
		ProductID: productID,
		BatchID:   batchID,
		Location:  cmd.Location,
		Type:      domain.MovementReturn,
		Quantity:  quantity,
		Reason:    cmd.Reason,
		Reference: reference,
		ActorID:   cmd.ActorID,
		IMEIs:     imeis,
	})
}
