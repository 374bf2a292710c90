package memory

import (
	"context"
	"sort"
	"time"

	"github.com/tair/field-service/internal/inspection/domain"
	"github.com/tair/field-service/pkg/apperr"
	"github.com/tair/field-service/pkg/database"
)

// InspectionRepository implements domain.InspectionRepository
type InspectionRepository struct {
	store *Store
}

func (r *InspectionRepository) SaveChecklistItem(ctx context.Context, item *domain.ChecklistItem) error {
	return r.store.do(ctx, func(st *state) error {
		if item.ID == 0 {
			item.ID = st.nextID("checklist_items")
		} else if item.ID > st.seq["checklist_items"] {
			st.seq["checklist_items"] = item.ID
		}
		if item.CreatedAt.IsZero() {
			item.CreatedAt = time.Now()
		}
		c := *item
		c.Stages = append([]domain.Stage(nil), item.Stages...)
		st.checklist[item.ID] = c
		return nil
	})
}

func (r *InspectionRepository) ListChecklistItems(ctx context.Context) ([]domain.ChecklistItem, error) {
	var out []domain.ChecklistItem
	err := r.store.do(ctx, func(st *state) error {
		for _, item := range st.checklist {
			out = append(out, item)
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].SortOrder == out[j].SortOrder {
				return out[i].ID < out[j].ID
			}
			return out[i].SortOrder < out[j].SortOrder
		})
		return nil
	})
	return out, err
}

func (r *InspectionRepository) FindRecord(ctx context.Context, jobID uint, stage domain.Stage, checklistItemID uint) (*domain.Record, error) {
	var out *domain.Record
	err := r.store.do(ctx, func(st *state) error {
		for _, rec := range st.inspections {
			if rec.JobID == jobID && rec.Stage == stage && rec.ChecklistItemID == checklistItemID {
				rec := rec
				out = &rec
				return nil
			}
		}
		return apperr.NotFound("inspection_record", checklistItemID)
	})
	return out, err
}

func (r *InspectionRepository) ListRecords(ctx context.Context, jobID uint, stage domain.Stage) ([]domain.Record, error) {
	var out []domain.Record
	err := r.store.do(ctx, func(st *state) error {
		for _, rec := range st.inspections {
			if rec.JobID != jobID {
				continue
			}
			if stage != "" && rec.Stage != stage {
				continue
			}
			out = append(out, rec)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return nil
	})
	return out, err
}

func (r *InspectionRepository) CreateRecord(ctx context.Context, record *domain.Record) error {
	return r.store.do(ctx, func(st *state) error {
		for _, rec := range st.inspections {
			if rec.JobID == record.JobID && rec.Stage == record.Stage && rec.ChecklistItemID == record.ChecklistItemID {
				return database.ErrVersionConflict
			}
		}
		now := time.Now()
		record.ID = st.nextID("inspection_records")
		record.CreatedAt, record.UpdatedAt = now, now
		st.inspections[record.ID] = *record
		return nil
	})
}

func (r *InspectionRepository) UpdateRecord(ctx context.Context, record *domain.Record) error {
	return r.store.do(ctx, func(st *state) error {
		stored, ok := st.inspections[record.ID]
		if !ok {
			return apperr.NotFound("inspection_record", record.ID)
		}
		if stored.Version != record.Version {
			return database.ErrVersionConflict
		}
		updated := *record
		updated.CreatedAt = stored.CreatedAt
		updated.Version = stored.Version + 1
		updated.UpdatedAt = time.Now()
		st.inspections[record.ID] = updated

		record.Version = updated.Version
		record.UpdatedAt = updated.UpdatedAt
		return nil
	})
}

func (r *InspectionRepository) CreateRevision(ctx context.Context, revision *domain.Revision) error {
	return r.store.do(ctx, func(st *state) error {
		revision.ID = st.nextID("inspection_revisions")
		revision.CreatedAt = time.Now()
		st.revisions = append(st.revisions, *revision)
		return nil
	})
}

func (r *InspectionRepository) ListRevisions(ctx context.Context, jobID uint) ([]domain.Revision, error) {
	var out []domain.Revision
	err := r.store.do(ctx, func(st *state) error {
		for _, rev := range st.revisions {
			if rev.JobID == jobID {
				out = append(out, rev)
			}
		}
		return nil
	})
	return out, err
}
