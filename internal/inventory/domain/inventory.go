package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// DeviceStatus is the lifecycle status of a serialized unit
type DeviceStatus string

// Device statuses
const (
	DeviceAvailable DeviceStatus = "AVAILABLE"
	DeviceIssued    DeviceStatus = "ISSUED"
	DeviceActive    DeviceStatus = "ACTIVE"
	DeviceRetired   DeviceStatus = "RETIRED"
)

// LocationKind describes where stock is held
type LocationKind string

// Location kinds
const (
	LocationWarehouse LocationKind = "WAREHOUSE"
	LocationVan       LocationKind = "VAN"
	LocationSite      LocationKind = "SITE"
)

// DefaultLocation is used when a command does not name a location
const DefaultLocation = "MAIN"

// Location is a place stock can be held or transferred to
type Location struct {
	Code      string       `json:"code" gorm:"primaryKey;size:64"`
	Name      string       `json:"name" gorm:"not null"`
	Kind      LocationKind `json:"kind" gorm:"size:16;not null;default:'WAREHOUSE'"`
	CreatedAt time.Time    `json:"created_at"`
}

// TableName specifies the table name
func (Location) TableName() string {
	return "stock_locations"
}

// Batch is a received lot of a product, the unit of FIFO consumption
type Batch struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	ProductID   uint            `json:"product_id" gorm:"not null;uniqueIndex:idx_batch_product_number"`
	BatchNumber string          `json:"batch_number" gorm:"size:64;not null;uniqueIndex:idx_batch_product_number"`
	ReceivedAt  time.Time       `json:"received_at" gorm:"not null;index"`
	CostBasis   decimal.Decimal `json:"cost_basis" gorm:"type:numeric(14,4);not null;default:0"`
	ExpiresAt   *time.Time      `json:"expires_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// TableName specifies the table name
func (Batch) TableName() string {
	return "batches"
}

// InventoryRecord is the quantity of a product batch held at a location
type InventoryRecord struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	ProductID         uint      `json:"product_id" gorm:"not null;uniqueIndex:idx_inventory_key"`
	BatchID           uint      `json:"batch_id" gorm:"not null;uniqueIndex:idx_inventory_key"`
	Location          string    `json:"location" gorm:"size:64;not null;uniqueIndex:idx_inventory_key"`
	QuantityAvailable int       `json:"quantity_available" gorm:"not null;default:0;check:chk_available_non_negative,quantity_available >= 0"`
	QuantityReserved  int       `json:"quantity_reserved" gorm:"not null;default:0;check:chk_reserved_non_negative,quantity_reserved >= 0"`
	Version           int       `json:"version" gorm:"not null;default:0"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName specifies the table name
func (InventoryRecord) TableName() string {
	return "inventory_records"
}

// OnHand is available plus reserved quantity
func (r InventoryRecord) OnHand() int {
	return r.QuantityAvailable + r.QuantityReserved
}

// Device is an individually serialized unit identified by IMEI
type Device struct {
	ID            uint         `json:"id" gorm:"primaryKey"`
	IMEI          string       `json:"imei" gorm:"size:32;not null;uniqueIndex"`
	ProductID     uint         `json:"product_id" gorm:"not null;index"`
	BatchID       uint         `json:"batch_id" gorm:"not null;index"`
	Location      string       `json:"location" gorm:"size:64;index"`
	Status        DeviceStatus `json:"status" gorm:"size:16;not null;index"`
	JobID         *uint        `json:"job_id,omitempty" gorm:"index"`
	RequisitionID *uint        `json:"requisition_id,omitempty"`
	Version       int          `json:"version" gorm:"not null;default:0"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// TableName specifies the table name
func (Device) TableName() string {
	return "devices"
}

// MovementType classifies a ledger movement
type MovementType string

// Movement types
const (
	MovementReceipt     MovementType = "RECEIPT"
	MovementIncrease    MovementType = "ADJUST_INCREASE"
	MovementDecrease    MovementType = "ADJUST_DECREASE"
	MovementTransferOut MovementType = "TRANSFER_OUT"
	MovementTransferIn  MovementType = "TRANSFER_IN"
	MovementIssue       MovementType = "ISSUE"
	MovementReturn      MovementType = "RETURN"
	MovementReserve     MovementType = "RESERVE"
	MovementRelease     MovementType = "RELEASE"
	MovementCommit      MovementType = "COMMIT"
)

// StockMovement is an append-only record of a quantity change
type StockMovement struct {
	ID        uint         `json:"id" gorm:"primaryKey"`
	ProductID uint         `json:"product_id" gorm:"not null;index"`
	BatchID   uint         `json:"batch_id" gorm:"not null;index"`
	Location  string       `json:"location" gorm:"size:64;not null"`
	Type      MovementType `json:"type" gorm:"size:24;not null;index"`
	Quantity  int          `json:"quantity" gorm:"not null"`
	Reason    string       `json:"reason,omitempty"`
	Reference string       `json:"reference,omitempty" gorm:"size:64;index"`
	ActorID   uint         `json:"actor_id,omitempty"`
	IMEIs     []string     `json:"imeis,omitempty" gorm:"type:jsonb;serializer:json"`
	CreatedAt time.Time    `json:"created_at"`
}

// TableName specifies the table name
func (StockMovement) TableName() string {
	return "stock_movements"
}

// RecordFilter narrows inventory record listings; zero values match everything
type RecordFilter struct {
	ProductID uint
	BatchID   uint
	Location  string
	Limit     int
	Offset    int
}

// DeviceFilter narrows device listings; zero values match everything
type DeviceFilter struct {
	ProductID uint
	BatchID   uint
	Location  string
	Status    DeviceStatus
	JobID     uint
	IMEIs     []string
}

// MovementFilter narrows movement listings
type MovementFilter struct {
	ProductID uint
	Reference string
	Limit     int
}

// InventoryRepository defines the contract for ledger and registry data access.
// UpdateRecord and UpdateDevice are compare-and-swap operations on Version: they fail
// with database.ErrVersionConflict when the stored version differs and bump Version on success.
type InventoryRepository interface {
	SaveLocation(ctx context.Context, location *Location) error
	FindLocation(ctx context.Context, code string) (*Location, error)
	ListLocations(ctx context.Context) ([]Location, error)

	CreateBatch(ctx context.Context, batch *Batch) error
	FindBatch(ctx context.Context, id uint) (*Batch, error)
	ListBatches(ctx context.Context, productID uint) ([]Batch, error)

	CreateRecord(ctx context.Context, record *InventoryRecord) error
	FindRecord(ctx context.Context, productID, batchID uint, location string) (*InventoryRecord, error)
	FindRecordByID(ctx context.Context, id uint) (*InventoryRecord, error)
	ListRecords(ctx context.Context, filter RecordFilter) ([]InventoryRecord, error)
	UpdateRecord(ctx context.Context, record *InventoryRecord) error

	CreateDevice(ctx context.Context, device *Device) error
	FindDeviceByIMEI(ctx context.Context, imei string) (*Device, error)
	ListDevices(ctx context.Context, filter DeviceFilter) ([]Device, error)
	UpdateDevice(ctx context.Context, device *Device) error

	CreateMovement(ctx context.Context, movement *StockMovement) error
	ListMovements(ctx context.Context, filter MovementFilter) ([]StockMovement, error)
}
