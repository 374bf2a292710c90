package domain

import (
	"context"
	"time"
)

// Stage is the point in the job at which the checklist is run
type Stage string

// Inspection stages
const (
	StagePreInstallation  Stage = "PRE_INSTALLATION"
	StagePostInstallation Stage = "POST_INSTALLATION"
)

// Valid reports whether s is a known stage
func (s Stage) Valid() bool {
	return s == StagePreInstallation || s == StagePostInstallation
}

// ItemStatus is the outcome recorded for one checklist item
type ItemStatus string

// Item statuses
const (
	ItemNotChecked ItemStatus = "NOT_CHECKED"
	ItemChecked    ItemStatus = "CHECKED"
	ItemIssueFound ItemStatus = "ISSUE_FOUND"
)

// Valid reports whether s is a known item status
func (s ItemStatus) Valid() bool {
	return s == ItemNotChecked || s == ItemChecked || s == ItemIssueFound
}

// ChecklistItem is a configured inspection point
type ChecklistItem struct {
	ID        uint      `json:"id" gorm:"primaryKey" yaml:"id"`
	Name      string    `json:"name" gorm:"not null;uniqueIndex" yaml:"name"`
	Stages    []Stage   `json:"stages" gorm:"type:jsonb;serializer:json" yaml:"stages"`
	Active    bool      `json:"active" gorm:"not null;default:true" yaml:"active"`
	SortOrder int       `json:"sort_order" gorm:"not null;default:0" yaml:"sort_order"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
}

// TableName specifies the table name
func (ChecklistItem) TableName() string {
	return "checklist_items"
}

// AppliesTo reports whether the item is checked at the given stage
func (c ChecklistItem) AppliesTo(stage Stage) bool {
	for _, s := range c.Stages {
		if s == stage {
			return true
		}
	}
	return false
}

// Record is the result of one checklist item for a job at a stage
type Record struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	JobID           uint       `json:"job_id" gorm:"not null;uniqueIndex:idx_inspection_key"`
	Stage           Stage      `json:"stage" gorm:"size:24;not null;uniqueIndex:idx_inspection_key"`
	ChecklistItemID uint       `json:"checklist_item_id" gorm:"not null;uniqueIndex:idx_inspection_key"`
	VehicleID       *uint      `json:"vehicle_id,omitempty"`
	Status          ItemStatus `json:"status" gorm:"size:16;not null"`
	Notes           string     `json:"notes,omitempty"`
	PhotoURL        string     `json:"photo_url,omitempty"`
	TechnicianID    uint       `json:"technician_id"`
	CheckedAt       time.Time  `json:"checked_at"`
	Revision        int        `json:"revision" gorm:"not null;default:1"`
	Version         int        `json:"version" gorm:"not null;default:0"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName specifies the table name
func (Record) TableName() string {
	return "inspection_records"
}

// Revision holds the values a record had before an edit
type Revision struct {
	ID               uint       `json:"id" gorm:"primaryKey"`
	RecordID         uint       `json:"record_id" gorm:"not null;index"`
	JobID            uint       `json:"job_id" gorm:"not null;index"`
	Revision         int        `json:"revision" gorm:"not null"`
	PrevStatus       ItemStatus `json:"prev_status" gorm:"size:16;not null"`
	PrevNotes        string     `json:"prev_notes,omitempty"`
	PrevPhotoURL     string     `json:"prev_photo_url,omitempty"`
	PrevTechnicianID uint       `json:"prev_technician_id"`
	PrevCheckedAt    time.Time  `json:"prev_checked_at"`
	EditedBy         uint       `json:"edited_by"`
	CreatedAt        time.Time  `json:"created_at"`
}

// TableName specifies the table name
func (Revision) TableName() string {
	return "inspection_revisions"
}

// RevisionOf captures the current values of r before it is edited
func RevisionOf(r *Record, editedBy uint) *Revision {
	return &Revision{
		RecordID:         r.ID,
		JobID:            r.JobID,
		Revision:         r.Revision,
		PrevStatus:       r.Status,
		PrevNotes:        r.Notes,
		PrevPhotoURL:     r.PhotoURL,
		PrevTechnicianID: r.TechnicianID,
		PrevCheckedAt:    r.CheckedAt,
		EditedBy:         editedBy,
	}
}

// StageStatus is the completeness of a job's inspection stage
type StageStatus struct {
	JobID    uint            `json:"job_id"`
	Stage    Stage           `json:"stage"`
	Complete bool            `json:"complete"`
	Missing  []ChecklistItem `json:"missing"`
	Records  []Record        `json:"records"`
}

// MissingNames returns the names of unchecked items
func (s StageStatus) MissingNames() []string {
	names := make([]string, 0, len(s.Missing))
	for _, item := range s.Missing {
		names = append(names, item.Name)
	}
	return names
}

// EvaluateStage decides completeness: every active item applicable to the stage needs a
// record with a status other than NOT_CHECKED.
func EvaluateStage(jobID uint, stage Stage, items []ChecklistItem, records []Record) StageStatus {
	byItem := make(map[uint]Record, len(records))
	for _, r := range records {
		if r.Stage == stage {
			byItem[r.ChecklistItemID] = r
		}
	}

	status := StageStatus{JobID: jobID, Stage: stage, Records: records}
	for _, item := range items {
		if !item.Active || !item.AppliesTo(stage) {
			continue
		}
		r, ok := byItem[item.ID]
		if !ok || r.Status == ItemNotChecked {
			status.Missing = append(status.Missing, item)
		}
	}
	status.Complete = len(status.Missing) == 0
	return status
}

// InspectionRepository defines the contract for inspection data access.
// UpdateRecord is a compare-and-swap on Version.
type InspectionRepository interface {
	SaveChecklistItem(ctx context.Context, item *ChecklistItem) error
	ListChecklistItems(ctx context.Context) ([]ChecklistItem, error)
	FindRecord(ctx context.Context, jobID uint, stage Stage, checklistItemID uint) (*Record, error)
	ListRecords(ctx context.Context, jobID uint, stage Stage) ([]Record, error)
	CreateRecord(ctx context.Context, record *Record) error
	UpdateRecord(ctx context.Context, record *Record) error
	CreateRevision(ctx context.Context, revision *Revision) error
	ListRevisions(ctx context.Context, jobID uint) ([]Revision, error)
}
