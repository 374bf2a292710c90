package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the approval and fulfillment state of a requisition
type Status string

// Requisition statuses
const (
	StatusPending         Status = "PENDING"
	StatusApproved        Status = "APPROVED"
	StatusRejected        Status = "REJECTED"
	StatusPartiallyIssued Status = "PARTIALLY_ISSUED"
	StatusFullyIssued     Status = "FULLY_ISSUED"
)

// Terminal reports whether no further operation applies
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusFullyIssued
}

// Issuable reports whether stock may be issued against the requisition
func (s Status) Issuable() bool {
	return s == StatusApproved || s == StatusPartiallyIssued
}

// Requisition is a technician's request for materials for a job
type Requisition struct {
	ID              uint              `json:"id" gorm:"primaryKey"`
	Number          string            `json:"number" gorm:"size:32;not null;uniqueIndex"`
	JobID           uint              `json:"job_id" gorm:"not null;index"`
	TechnicianID    uint              `json:"technician_id" gorm:"not null;index"`
	SourceLocation  string            `json:"source_location" gorm:"size:64;not null"`
	Status          Status            `json:"status" gorm:"size:24;not null;index"`
	Notes           string            `json:"notes,omitempty"`
	RejectionReason string            `json:"rejection_reason,omitempty"`
	ApprovedBy      *uint             `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time        `json:"approved_at,omitempty"`
	Items           []RequisitionItem `json:"items" gorm:"foreignKey:RequisitionID"`
	Version         int               `json:"version" gorm:"not null;default:0"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// TableName specifies the table name
func (Requisition) TableName() string {
	return "requisitions"
}

// RequisitionItem is one requested product line
type RequisitionItem struct {
	ID                uint       `json:"id" gorm:"primaryKey"`
	RequisitionID     uint       `json:"requisition_id" gorm:"not null;index"`
	ProductID         uint       `json:"product_id" gorm:"not null"`
	QuantityRequested int        `json:"quantity_requested" gorm:"not null;check:chk_item_requested_positive,quantity_requested > 0"`
	QuantityIssued    int        `json:"quantity_issued" gorm:"not null;default:0;check:chk_item_issued_bounds,quantity_issued >= 0 AND quantity_issued <= quantity_requested"`
	BatchID           *uint      `json:"batch_id,omitempty"`
	Optional          bool       `json:"optional"`
	IssuedBy          *uint      `json:"issued_by,omitempty"`
	IssuedAt          *time.Time `json:"issued_at,omitempty"`
}

// TableName specifies the table name
func (RequisitionItem) TableName() string {
	return "requisition_items"
}

// Remaining is the quantity still to be issued
func (i RequisitionItem) Remaining() int {
	return i.QuantityRequested - i.QuantityIssued
}

// Item returns the item with the given ID
func (r *Requisition) Item(itemID uint) (*RequisitionItem, bool) {
	for i := range r.Items {
		if r.Items[i].ID == itemID {
			return &r.Items[i], true
		}
	}
	return nil, false
}

// FullyIssued reports whether every item has been issued in full
func (r *Requisition) FullyIssued() bool {
	for _, item := range r.Items {
		if item.Remaining() > 0 {
			return false
		}
	}
	return true
}

// OutstandingRequired returns IDs of non-optional items with quantity left to issue
func (r *Requisition) OutstandingRequired() []uint {
	var ids []uint
	for _, item := range r.Items {
		if !item.Optional && item.Remaining() > 0 {
			ids = append(ids, item.ID)
		}
	}
	return ids
}

// RecomputeStatus derives the fulfillment status after an issuance
func (r *Requisition) RecomputeStatus() {
	if r.FullyIssued() {
		r.Status = StatusFullyIssued
		return
	}
	for _, item := range r.Items {
		if item.QuantityIssued > 0 {
			r.Status = StatusPartiallyIssued
			return
		}
	}
}

// Issuance is one applied issuance split: a quantity of one batch against one item
type Issuance struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	RequisitionID  uint            `json:"requisition_id" gorm:"not null;index"`
	ItemID         uint            `json:"item_id" gorm:"not null;index"`
	JobID          uint            `json:"job_id" gorm:"not null;index"`
	ProductID      uint            `json:"product_id" gorm:"not null"`
	BatchID        uint            `json:"batch_id" gorm:"not null"`
	Location       string          `json:"location" gorm:"size:64;not null"`
	Quantity       int             `json:"quantity" gorm:"not null"`
	DeviceIMEIs    []string        `json:"device_imeis,omitempty" gorm:"type:jsonb;serializer:json"`
	UnitCost       decimal.Decimal `json:"unit_cost" gorm:"type:numeric(14,4);not null;default:0"`
	IssuedBy       uint            `json:"issued_by"`
	IdempotencyKey string          `json:"idempotency_key,omitempty" gorm:"size:128;index"`
	CreatedAt      time.Time       `json:"created_at"`
}

// TableName specifies the table name
func (Issuance) TableName() string {
	return "issuances"
}

// TotalCost is quantity times unit cost
func (i Issuance) TotalCost() decimal.Decimal {
	return i.UnitCost.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Filter narrows requisition listings
type Filter struct {
	JobID        uint
	TechnicianID uint
	Status       Status
	Limit        int
	Offset       int
}

// RequisitionRepository defines the contract for requisition data access.
// Update is a compare-and-swap on the requisition Version and persists its items.
type RequisitionRepository interface {
	Create(ctx context.Context, requisition *Requisition) error
	FindByID(ctx context.Context, id uint) (*Requisition, error)
	FindAll(ctx context.Context, filter Filter) ([]Requisition, error)
	Update(ctx context.Context, requisition *Requisition) error
	CreateIssuance(ctx context.Context, issuance *Issuance) error
	ListIssuances(ctx context.Context, requisitionID uint) ([]Issuance, error)
	FindIssuancesByKey(ctx context.Context, idempotencyKey string) ([]Issuance, error)
}
