package domain

import (
	"context"
	"time"
)

// Status is the lifecycle state of a job
type Status string

// Job statuses
const (
	StatusPending               Status = "PENDING"
	StatusAssigned              Status = "ASSIGNED"
	StatusRequisitionPending    Status = "REQUISITION_PENDING"
	StatusRequisitionApproved   Status = "REQUISITION_APPROVED"
	StatusPreInspectionPending  Status = "PRE_INSPECTION_PENDING"
	StatusPreInspectionApproved Status = "PRE_INSPECTION_APPROVED"
	StatusInProgress            Status = "IN_PROGRESS"
	StatusPostInspectionPending Status = "POST_INSPECTION_PENDING"
	StatusCompleted             Status = "COMPLETED"
	StatusVerified              Status = "VERIFIED"
	StatusCancelled             Status = "CANCELLED"
)

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAssigned, StatusRequisitionPending, StatusRequisitionApproved,
		StatusPreInspectionPending, StatusPreInspectionApproved, StatusInProgress,
		StatusPostInspectionPending, StatusCompleted, StatusVerified, StatusCancelled:
		return true
	}
	return false
}

// Closed reports whether the job no longer accepts work
func (s Status) Closed() bool {
	return s == StatusCompleted || s == StatusVerified || s == StatusCancelled
}

// Type is the kind of field work
type Type string

// Job types
const (
	TypeNewInstallation Type = "NEW_INSTALLATION"
	TypeReplacement     Type = "REPLACEMENT"
	TypeMaintenance     Type = "MAINTENANCE"
	TypeRepair          Type = "REPAIR"
	TypeUpgrade         Type = "UPGRADE"
)

// Valid reports whether t is a known job type
func (t Type) Valid() bool {
	switch t {
	case TypeNewInstallation, TypeReplacement, TypeMaintenance, TypeRepair, TypeUpgrade:
		return true
	}
	return false
}

// RequiresVehicle reports whether a vehicle must be attached before inspection
func (t Type) RequiresVehicle() bool {
	return t != TypeMaintenance
}

// AllowsNoDeviceChange reports whether installation may be saved without device IMEIs
func (t Type) AllowsNoDeviceChange() bool {
	return t == TypeRepair || t == TypeMaintenance
}

// GeoPoint is a GPS capture
type GeoPoint struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Accuracy   float64   `json:"accuracy,omitempty"`
	CapturedAt time.Time `json:"captured_at"`
}

// Valid reports whether the coordinates are in range and not the zero point
func (p *GeoPoint) Valid() bool {
	if p == nil {
		return false
	}
	if p.Latitude == 0 && p.Longitude == 0 {
		return false
	}
	return p.Latitude >= -90 && p.Latitude <= 90 && p.Longitude >= -180 && p.Longitude <= 180
}

// TechnicianAssignment is one technician on a job, in assignment order
type TechnicianAssignment struct {
	TechnicianID uint      `json:"technician_id"`
	AssignedAt   time.Time `json:"assigned_at"`
}

// Installation is the work recorded on site
type Installation struct {
	DeviceIMEIs     []string  `json:"device_imeis,omitempty"`
	SIMNumbers      []string  `json:"sim_numbers,omitempty"`
	MACAddresses    []string  `json:"mac_addresses,omitempty"`
	Location        *GeoPoint `json:"location,omitempty"`
	Photos          []string  `json:"photos,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	NoDeviceChanged bool      `json:"no_device_changed"`
	RecordedBy      uint      `json:"recorded_by,omitempty"`
	RecordedAt      time.Time `json:"recorded_at"`
}

// Job is a unit of field work
type Job struct {
	ID                   uint                   `json:"id" gorm:"primaryKey"`
	Number               string                 `json:"number" gorm:"size:32;not null;uniqueIndex"`
	CustomerID           uint                   `json:"customer_id" gorm:"not null;index"`
	VehicleID            *uint                  `json:"vehicle_id,omitempty"`
	Type                 Type                   `json:"type" gorm:"size:24;not null"`
	Status               Status                 `json:"status" gorm:"size:32;not null;index"`
	RequiredProductIDs   []uint                 `json:"required_product_ids" gorm:"type:jsonb;serializer:json"`
	Technicians          []TechnicianAssignment `json:"technicians" gorm:"type:jsonb;serializer:json"`
	PrimaryTechnicianID  *uint                  `json:"primary_technician_id,omitempty"`
	ScheduledDate        *time.Time             `json:"scheduled_date,omitempty"`
	Installation         *Installation          `json:"installation,omitempty" gorm:"type:jsonb;serializer:json"`
	StartLocation        *GeoPoint              `json:"start_location,omitempty" gorm:"type:jsonb;serializer:json"`
	StartedAt            *time.Time             `json:"started_at,omitempty"`
	CompletionNotes      string                 `json:"completion_notes,omitempty"`
	CustomerAcknowledged bool                   `json:"customer_acknowledged"`
	CustomerSignatory    string                 `json:"customer_signatory,omitempty"`
	CompletedAt          *time.Time             `json:"completed_at,omitempty"`
	VerifiedBy           *uint                  `json:"verified_by,omitempty"`
	VerifiedAt           *time.Time             `json:"verified_at,omitempty"`
	CancellationReason   string                 `json:"cancellation_reason,omitempty"`
	CancelledAt          *time.Time             `json:"cancelled_at,omitempty"`
	Version              int                    `json:"version" gorm:"not null;default:0"`
	CreatedAt            time.Time              `json:"created_at"`
	UpdatedAt            time.Time              `json:"updated_at"`
}

// TableName specifies the table name
func (Job) TableName() string {
	return "jobs"
}

// HasTechnician reports whether the technician is assigned
func (j *Job) HasTechnician(technicianID uint) bool {
	for _, t := range j.Technicians {
		if t.TechnicianID == technicianID {
			return true
		}
	}
	return false
}

// TechnicianIDs returns assigned technicians in assignment order
func (j *Job) TechnicianIDs() []uint {
	ids := make([]uint, 0, len(j.Technicians))
	for _, t := range j.Technicians {
		ids = append(ids, t.TechnicianID)
	}
	return ids
}

// StatusChange is one successful transition in a job's history
type StatusChange struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	JobID     uint      `json:"job_id" gorm:"not null;index"`
	From      Status    `json:"from" gorm:"column:from_status;size:32;not null"`
	To        Status    `json:"to" gorm:"column:to_status;size:32;not null"`
	ActorID   uint      `json:"actor_id,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name
func (StatusChange) TableName() string {
	return "job_status_changes"
}

// Filter narrows job listings
type Filter struct {
	Status       Status
	TechnicianID uint
	CustomerID   uint
	Limit        int
	Offset       int
}

// JobRepository defines the contract for job data access.
// Update is a compare-and-swap on Version and fails with database.ErrVersionConflict.
type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	FindByID(ctx context.Context, id uint) (*Job, error)
	FindAll(ctx context.Context, filter Filter) ([]Job, error)
	Update(ctx context.Context, job *Job) error
	AddStatusChange(ctx context.Context, change *StatusChange) error
	ListStatusChanges(ctx context.Context, jobID uint) ([]StatusChange, error)
}
