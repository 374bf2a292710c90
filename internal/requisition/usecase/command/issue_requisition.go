package command

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tair/field-service/internal/idempotency"
	invcommand "github.com/tair/field-service/internal/inventory/usecase/command"
	jobdomain "github.com/tair/field-service/internal/job/domain"
	"github.com/tair/field-service/internal/requisition/domain"
	"github.com/tair/field-service/kafka"
	"github.com/tair/field-service/pkg/apperr"
	"github.com/tair/field-service/pkg/database"
	"github.com/tair/field-service/pkg/logger"
	"github.com/tair/field-service/pkg/metrics"
)

// StockIssuer draws stock for a job inside the caller's transaction
type StockIssuer interface {
	Handle(ctx context.Context, cmd invcommand.IssueStockCommand) ([]invcommand.IssuedSplit, error)
}

// IssueLine is one issuance request against a requisition item
type IssueLine struct {
	ItemID      uint
	BatchID     *uint
	Quantity    int
	DeviceIMEIs []string
}

// IssueRequisitionCommand represents the command to issue stock against a requisition.
// Lines apply in order and the whole call commits or rolls back as one unit.
type IssueRequisitionCommand struct {
	ID             uint
	Lines          []IssueLine
	IssuedBy       uint
	IdempotencyKey string
}

// IssueResult is the updated requisition and the issuance rows written by the call
type IssueResult struct {
	Requisition *domain.Requisition `json:"requisition"`
	Issuances   []domain.Issuance   `json:"issuances"`
	Replayed    bool                `json:"replayed"`
}

// IssueRequisitionHandler handles issue requisition command
type IssueRequisitionHandler struct {
	repo      domain.RequisitionRepository
	jobs      jobdomain.JobRepository
	stock     StockIssuer
	keys      idempotency.Store
	retrier   *database.Retrier
	publisher kafka.EventPublisher
}

// NewIssueRequisitionHandler creates a new issue requisition handler
func NewIssueRequisitionHandler(repo domain.RequisitionRepository, jobs jobdomain.JobRepository, stock StockIssuer, keys idempotency.Store, retrier *database.Retrier, publisher kafka.EventPublisher) *IssueRequisitionHandler {
	return &IssueRequisitionHandler{repo: repo, jobs: jobs, stock: stock, keys: keys, retrier: retrier, publisher: publisher}
}

// Handle executes the issue requisition command. A repeated idempotency key returns the
// outcome of the first call without issuing again.
func (h *IssueRequisitionHandler) Handle(ctx context.Context, cmd IssueRequisitionCommand) (result *IssueResult, err error) {
	if cmd.ID == 0 {
		return nil, apperr.Validation("id is required")
	}
	if len(cmd.Lines) == 0 {
		return nil, apperr.Validation("at least one issue line is required").With("requisition_id", cmd.ID)
	}
	for i, line := range cmd.Lines {
		if line.Quantity <= 0 {
			return nil, apperr.Validation("quantity must be positive").
				With("line", i).
				With("item_id", line.ItemID).
				With("quantity", line.Quantity)
		}
	}
	cmd.IdempotencyKey = strings.TrimSpace(cmd.IdempotencyKey)

	if cmd.IdempotencyKey != "" && h.keys != nil {
		key := fmt.Sprintf("requisition:%d:%s", cmd.ID, cmd.IdempotencyKey)
		cached, beginErr := h.keys.Begin(ctx, key)
		if beginErr != nil {
			return nil, beginErr
		}
		if cached != nil {
			var replay IssueResult
			if json.Unmarshal(cached, &replay) == nil {
				replay.Replayed = true
				return &replay, nil
			}
		}
		defer func() {
			if err != nil {
				_ = h.keys.Release(ctx, key)
				return
			}
			payload, mErr := json.Marshal(result)
			if mErr == nil {
				mErr = h.keys.Complete(ctx, key, payload)
			}
			if mErr != nil {
				logger.Warn(ctx).Err(mErr).Str("idempotency_key", cmd.IdempotencyKey).Msg("Failed to store issuance result")
			}
		}()
	}

	err = h.retrier.Run(ctx, "issue requisition", func(ctx context.Context) error {
		res, err := h.issue(ctx, cmd)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	metrics.RequisitionEvents.WithLabelValues("issue", metrics.Result(err)).Inc()
	if err != nil {
		logger.Warn(ctx).Err(err).
			Uint("requisition_id", cmd.ID).
			Int("lines", len(cmd.Lines)).
			Msg("Requisition issuance rejected")
		return nil, err
	}
	if result.Replayed {
		return result, nil
	}

	req := result.Requisition
	logger.Info(ctx).
		Uint("requisition_id", req.ID).
		Uint("job_id", req.JobID).
		Str("status", string(req.Status)).
		Int("issuances", len(result.Issuances)).
		Msg("Requisition items issued")

	var imeis []string
	for _, iss := range result.Issuances {
		imeis = append(imeis, iss.DeviceIMEIs...)
	}
	kafka.Emit(ctx, h.publisher, kafka.Event{
		EventType:     kafka.EventTypeRequisitionIssued,
		JobID:         req.JobID,
		RequisitionID: req.ID,
		ActorID:       cmd.IssuedBy,
		To:            string(req.Status),
		Data: map[string]interface{}{
			"issuances":    len(result.Issuances),
			"device_imeis": imeis,
		},
		Timestamp: time.Now(),
	})
	return result, nil
}

func (h *IssueRequisitionHandler) issue(ctx context.Context, cmd IssueRequisitionCommand) (*IssueResult, error) {
	if cmd.IdempotencyKey != "" {
		prior, err := h.repo.FindIssuancesByKey(ctx, cmd.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("failed to look up idempotency key: %w", err)
		}
		if len(prior) > 0 {
			if prior[0].RequisitionID != cmd.ID {
				return nil, apperr.Validation("idempotency key was used for another requisition").
					With("requisition_id", prior[0].RequisitionID)
			}
			req, err := h.repo.FindByID(ctx, cmd.ID)
			if err != nil {
				return nil, err
			}
			return &IssueResult{Requisition: req, Issuances: prior, Replayed: true}, nil
		}
	}

	req, err := h.repo.FindByID(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}
	job, err := h.jobs.FindByID(ctx, req.JobID)
	if err != nil {
		return nil, err
	}
	if job.Status == jobdomain.StatusCancelled {
		return nil, apperr.New(apperr.KindInvalidTransition, "cannot issue against a cancelled job").
			With("job_id", job.ID).
			With("requisition_id", req.ID).
			With("current", string(job.Status))
	}
	if !req.Status.Issuable() {
		return nil, apperr.New(apperr.KindInvalidTransition, "requisition is not open for issuance").
			With("requisition_id", req.ID).
			With("current", string(req.Status))
	}

	now := time.Now()
	issuer := cmd.IssuedBy
	var issuances []domain.Issuance
	for _, line := range cmd.Lines {
		item, ok := req.Item(line.ItemID)
		if !ok {
			return nil, apperr.NotFound("item", line.ItemID).With("requisition_id", req.ID)
		}
		if line.Quantity > item.Remaining() {
			return nil, apperr.Validation("quantity exceeds remaining").
				With("item_id", item.ID).
				With("requested", line.Quantity).
				With("remaining", item.Remaining())
		}

		splits, err := h.stock.Handle(ctx, invcommand.IssueStockCommand{
			ProductID:     item.ProductID,
			BatchID:       line.BatchID,
			Location:      req.SourceLocation,
			Quantity:      line.Quantity,
			DeviceIMEIs:   line.DeviceIMEIs,
			JobID:         req.JobID,
			RequisitionID: req.ID,
			Reference:     req.Number,
			ActorID:       cmd.IssuedBy,
		})
		if err != nil {
			if appErr, ok := apperr.As(err); ok {
				appErr.With("item_id", item.ID)
			}
			return nil, err
		}

		item.QuantityIssued += line.Quantity
		item.IssuedBy = &issuer
		item.IssuedAt = &now
		for _, split := range splits {
			batchID := split.BatchID
			item.BatchID = &batchID

			iss := domain.Issuance{
				RequisitionID:  req.ID,
				ItemID:         item.ID,
				JobID:          req.JobID,
				ProductID:      item.ProductID,
				BatchID:        split.BatchID,
				Location:       req.SourceLocation,
				Quantity:       split.Quantity,
				DeviceIMEIs:    split.IMEIs,
				UnitCost:       split.UnitCost,
				IssuedBy:       cmd.IssuedBy,
				IdempotencyKey: cmd.IdempotencyKey,
			}
			if err := h.repo.CreateIssuance(ctx, &iss); err != nil {
				return nil, err
			}
			issuances = append(issuances, iss)
		}
	}

	req.RecomputeStatus()
	if err := h.repo.Update(ctx, req); err != nil {
		return nil, err
	}
	return &IssueResult{Requisition: req, Issuances: issuances}, nil
}
