package command

import (
	"context"
	"strings"
	"time"

	"github.com/tair/field-service/internal/requisition/domain"
	"github.com/tair/field-service/kafka"
	"github.com/tair/field-service/pkg/apperr"
	"github.com/tair/field-service/pkg/database"
	"github.com/tair/field-service/pkg/logger"
	"github.com/tair/field-service/pkg/metrics"
)

func notPending(req *domain.Requisition, requested domain.Status) error {
	return apperr.New(apperr.KindInvalidTransition, "requisition is not pending").
		With("requisition_id", req.ID).
		With("current", string(req.Status)).
		With("requested", string(requested))
}

// ApproveRequisitionCommand represents the command to approve a requisition
type ApproveRequisitionCommand struct {
	ID         uint
	ApproverID uint
}

// ApproveRequisitionHandler handles approve requisition command
type ApproveRequisitionHandler struct {
	repo      domain.RequisitionRepository
	retrier   *database.Retrier
	publisher kafka.EventPublisher
}

// NewApproveRequisitionHandler creates a new approve requisition handler
func NewApproveRequisitionHandler(repo domain.RequisitionRepository, retrier *database.Retrier, publisher kafka.EventPublisher) *ApproveRequisitionHandler {
	return &ApproveRequisitionHandler{repo: repo, retrier: retrier, publisher: publisher}
}

// Handle executes the approve requisition command
func (h *ApproveRequisitionHandler) Handle(ctx context.Context, cmd ApproveRequisitionCommand) (*domain.Requisition, error) {
	if cmd.ID == 0 {
		return nil, apperr.Validation("id is required")
	}
	if cmd.ApproverID == 0 {
		return nil, apperr.Validation("approver is required")
	}

	var req *domain.Requisition
	err := h.retrier.Run(ctx, "approve requisition", func(ctx context.Context) error {
		var err error
		if req, err = h.repo.FindByID(ctx, cmd.ID); err != nil {
			return err
		}
		if req.Status != domain.StatusPending {
			return notPending(req, domain.StatusApproved)
		}
		now := time.Now()
		approver := cmd.ApproverID
		req.Status = domain.StatusApproved
		req.ApprovedBy = &approver
		req.ApprovedAt = &now
		return h.repo.Update(ctx, req)
	})
	metrics.RequisitionEvents.WithLabelValues("approve", metrics.Result(err)).Inc()
	if err != nil {
		logger.Warn(ctx).Err(err).Uint("requisition_id", cmd.ID).Msg("Requisition approval rejected")
		return nil, err
	}

	logger.Info(ctx).
		Uint("requisition_id", req.ID).
		Uint("approved_by", cmd.ApproverID).
		Msg("Requisition approved")

	kafka.Emit(ctx, h.publisher, kafka.Event{
		EventType:     kafka.EventTypeRequisitionApproved,
		JobID:         req.JobID,
		RequisitionID: req.ID,
		ActorID:       cmd.ApproverID,
		From:          string(domain.StatusPending),
		To:            string(req.Status),
		Timestamp:     time.Now(),
	})
	return req, nil
}

// RejectRequisitionCommand represents the command to reject a requisition
type RejectRequisitionCommand struct {
	ID      uint
	Reason  string
	ActorID uint
}

// RejectRequisitionHandler handles reject requisition command
type RejectRequisitionHandler struct {
	repo      domain.RequisitionRepository
	retrier   *database.Retrier
	publisher kafka.EventPublisher
}

// NewRejectRequisitionHandler creates a new reject requisition handler
func NewRejectRequisitionHandler(repo domain.RequisitionRepository, retrier *database.Retrier, publisher kafka.EventPublisher) *RejectRequisitionHandler {
	return &RejectRequisitionHandler{repo: repo, retrier: retrier, publisher: publisher}
}

// Handle executes the reject requisition command
func (h *RejectRequisitionHandler) Handle(ctx context.Context, cmd RejectRequisitionCommand) (*domain.Requisition, error) {
	if cmd.ID == 0 {
		return nil, apperr.Validation("id is required")
	}
	reason := strings.TrimSpace(cmd.Reason)
	if reason == "" {
		return nil, apperr.Validation("rejection reason is required").With("requisition_id", cmd.ID)
	}

	var req *domain.Requisition
	err := h.retrier.Run(ctx, "reject requisition", func(ctx context.Context) error {
		var err error
		if req, err = h.repo.FindByID(ctx, cmd.ID); err != nil {
			return err
		}
		if req.Status != domain.StatusPending {
			return notPending(req, domain.StatusRejected)
		}
		req.Status = domain.StatusRejected
		req.RejectionReason = reason
		return h.repo.Update(ctx, req)
	})
	metrics.RequisitionEvents.WithLabelValues("reject", metrics.Result(err)).Inc()
	if err != nil {
		logger.Warn(ctx).Err(err).Uint("requisition_id", cmd.ID).Msg("Requisition rejection refused")
		return nil, err
	}

	logger.Info(ctx).
		Uint("requisition_id", req.ID).
		Str("reason", reason).
		Msg("Requisition rejected")

	kafka.Emit(ctx, h.publisher, kafka.Event{
		EventType:     kafka.EventTypeRequisitionRejected,
		JobID:         req.JobID,
		RequisitionID: req.ID,
		ActorID:       cmd.ActorID,
		From:          string(domain.StatusPending),
		To:            string(req.Status),
		Data:          map[string]interface{}{"reason": reason},
		Timestamp:     time.Now(),
	})
	return req, nil
}
