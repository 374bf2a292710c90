package command

import (
	"context"
	"strings"
	"time"

	"github.com/tair/field-service/internal/catalog"
	invdomain "github.com/tair/field-service/internal/inventory/domain"
	jobdomain "github.com/tair/field-service/internal/job/domain"
	"github.com/tair/field-service/internal/requisition/domain"
	"github.com/tair/field-service/kafka"
	"github.com/tair/field-service/pkg/apperr"
	"github.com/tair/field-service/pkg/database"
	"github.com/tair/field-service/pkg/logger"
	"github.com/tair/field-service/pkg/metrics"
	"github.com/tair/field-service/pkg/numbering"
)

// ItemRequest is one requested product line
type ItemRequest struct {
	ProductID uint
	Quantity  int
	Optional  bool
}

// CreateRequisitionCommand represents the command to raise a requisition
type CreateRequisitionCommand struct {
	JobID          uint
	TechnicianID   uint
	SourceLocation string
	Items          []ItemRequest
	Notes          string
}

// CreateRequisitionHandler handles create requisition command
type CreateRequisitionHandler struct {
	repo      domain.RequisitionRepository
	jobs      jobdomain.JobRepository
	catalog   catalog.Catalog
	retrier   *database.Retrier
	publisher kafka.EventPublisher
}

// NewCreateRequisitionHandler creates a new create requisition handler
func NewCreateRequisitionHandler(repo domain.RequisitionRepository, jobs jobdomain.JobRepository, cat catalog.Catalog, retrier *database.Retrier, publisher kafka.EventPublisher) *CreateRequisitionHandler {
	return &CreateRequisitionHandler{repo: repo, jobs: jobs, catalog: cat, retrier: retrier, publisher: publisher}
}

// Handle executes the create requisition command
func (h *CreateRequisitionHandler) Handle(ctx context.Context, cmd CreateRequisitionCommand) (*domain.Requisition, error) {
	if cmd.JobID == 0 {
		return nil, apperr.Validation("job_id is required")
	}
	if cmd.TechnicianID == 0 {
		return nil, apperr.Validation("technician_id is required")
	}
	if len(cmd.Items) == 0 {
		return nil, apperr.Validation("at least one item is required")
	}

	items := make([]domain.RequisitionItem, 0, len(cmd.Items))
	for i, item := range cmd.Items {
		if item.Quantity <= 0 {
			return nil, apperr.Validation("quantity must be positive").
				With("line", i).
				With("product_id", item.ProductID).
				With("quantity", item.Quantity)
		}
		if _, err := h.catalog.GetProduct(ctx, item.ProductID); err != nil {
			return nil, err
		}
		items = append(items, domain.RequisitionItem{
			ProductID:         item.ProductID,
			QuantityRequested: item.Quantity,
			Optional:          item.Optional,
		})
	}

	source := strings.TrimSpace(cmd.SourceLocation)
	if source == "" {
		source = invdomain.DefaultLocation
	}

	requisition := &domain.Requisition{
		Number:         numbering.New(numbering.Requisition),
		JobID:          cmd.JobID,
		TechnicianID:   cmd.TechnicianID,
		SourceLocation: source,
		Status:         domain.StatusPending,
		Notes:          cmd.Notes,
		Items:          items,
	}

	err := h.retrier.Run(ctx, "create requisition", func(ctx context.Context) error {
		job, err := h.jobs.FindByID(ctx, cmd.JobID)
		if err != nil {
			return err
		}
		if job.Status.Closed() {
			return apperr.New(apperr.KindInvalidTransition, "job is closed").
				With("job_id", job.ID).
				With("status", string(job.Status))
		}
		return h.repo.Create(ctx, requisition)
	})
	metrics.RequisitionEvents.WithLabelValues("create", metrics.Result(err)).Inc()
	if err != nil {
		logger.Warn(ctx).Err(err).Uint("job_id", cmd.JobID).Msg("Requisition rejected at creation")
		return nil, err
	}

	logger.Info(ctx).
		Uint("requisition_id", requisition.ID).
		Str("number", requisition.Number).
		Uint("job_id", requisition.JobID).
		Int("items", len(requisition.Items)).
		Msg("Requisition created")

	kafka.Emit(ctx, h.publisher, kafka.Event{
		EventType:     kafka.EventTypeRequisitionCreated,
		JobID:         requisition.JobID,
		RequisitionID: requisition.ID,
		ActorID:       requisition.TechnicianID,
		To:            string(requisition.Status),
		Data:          map[string]interface{}{"number": requisition.Number},
		Timestamp:     time.Now(),
	})
	return requisition, nil
}
