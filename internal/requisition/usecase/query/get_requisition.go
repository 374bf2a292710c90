package query

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tair/field-service/internal/requisition/domain"
	"github.com/tair/field-service/pkg/apperr"
)

// GetRequisitionQuery represents the query to get a requisition
type GetRequisitionQuery struct {
	ID uint
}

// GetRequisitionHandler handles get requisition query
type GetRequisitionHandler struct {
	repo domain.RequisitionRepository
}

// NewGetRequisitionHandler creates a new get requisition handler
func NewGetRequisitionHandler(repo domain.RequisitionRepository) *GetRequisitionHandler {
	return &GetRequisitionHandler{repo: repo}
}

// Handle executes the get requisition query
func (h *GetRequisitionHandler) Handle(ctx context.Context, query GetRequisitionQuery) (*domain.Requisition, error) {
	if query.ID == 0 {
		return nil, apperr.Validation("id is required")
	}

	requisition, err := h.repo.FindByID(ctx, query.ID)
	if err != nil {
		return nil, fmt.Errorf("requisition not found: %w", err)
	}

	return requisition, nil
}

// ListIssuancesQuery represents the query to list a requisition's issuance history
type ListIssuancesQuery struct {
	RequisitionID uint
}

// IssuanceHistory is the issuance rows of a requisition with their total value
type IssuanceHistory struct {
	Issuances []domain.Issuance `json:"issuances"`
	TotalCost string            `json:"total_cost"`
}

// ListIssuancesHandler handles list issuances query
type ListIssuancesHandler struct {
	repo domain.RequisitionRepository
}

// NewListIssuancesHandler creates a new list issuances handler
func NewListIssuancesHandler(repo domain.RequisitionRepository) *ListIssuancesHandler {
	return &ListIssuancesHandler{repo: repo}
}

// Handle executes the list issuances query
func (h *ListIssuancesHandler) Handle(ctx context.Context, query ListIssuancesQuery) (*IssuanceHistory, error) {
	if query.RequisitionID == 0 {
		return nil, apperr.Validation("requisition id is required")
	}
	if _, err := h.repo.FindByID(ctx, query.RequisitionID); err != nil {
		return nil, err
	}

	issuances, err := h.repo.ListIssuances(ctx, query.RequisitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list issuances: %w", err)
	}

	history := &IssuanceHistory{Issuances: issuances}
	if history.Issuances == nil {
		history.Issuances = []domain.Issuance{}
	}
	total := decimal.Zero
	for _, iss := range issuances {
		total = total.Add(iss.TotalCost())
	}
	history.TotalCost = total.StringFixed(2)
	return history, nil
}
