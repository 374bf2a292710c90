package memory

import (
	"context"
	"sort"
	"time"

	"github.com/tair/field-service/internal/job/domain"
	"github.com/tair/field-service/pkg/apperr"
	"github.com/tair/field-service/pkg/database"
)

// JobRepository implements domain.JobRepository
type JobRepository struct {
	store *Store
}

func cloneJob(j domain.Job) domain.Job {
	j.RequiredProductIDs = append([]uint(nil), j.RequiredProductIDs...)
	j.Technicians = append([]domain.TechnicianAssignment(nil), j.Technicians...)
	if j.Installation != nil {
		inst := *j.Installation
		inst.DeviceIMEIs = append([]string(nil), inst.DeviceIMEIs...)
		inst.SIMNumbers = append([]string(nil), inst.SIMNumbers...)
		inst.MACAddresses = append([]string(nil), inst.MACAddresses...)
		inst.Photos = append([]string(nil), inst.Photos...)
		j.Installation = &inst
	}
	if j.StartLocation != nil {
		loc := *j.StartLocation
		j.StartLocation = &loc
	}
	return j
}

func (r *JobRepository) Create(ctx context.Context, job *domain.Job) error {
	return r.store.do(ctx, func(st *state) error {
		for _, existing := range st.jobs {
			if existing.Number == job.Number {
				return apperr.Validation("job number already exists").With("number", job.Number)
			}
		}
		now := time.Now()
		job.ID = st.nextID("jobs")
		job.CreatedAt, job.UpdatedAt = now, now
		st.jobs[job.ID] = cloneJob(*job)
		return nil
	})
}

func (r *JobRepository) FindByID(ctx context.Context, id uint) (*domain.Job, error) {
	var out *domain.Job
	err := r.store.do(ctx, func(st *state) error {
		j, ok := st.jobs[id]
		if !ok {
			return apperr.NotFound("job", id)
		}
		c := cloneJob(j)
		out = &c
		return nil
	})
	return out, err
}

func (r *JobRepository) FindAll(ctx context.Context, filter domain.Filter) ([]domain.Job, error) {
	var out []domain.Job
	err := r.store.do(ctx, func(st *state) error {
		for _, j := range st.jobs {
			if filter.Status != "" && j.Status != filter.Status {
				continue
			}
			if filter.CustomerID != 0 && j.CustomerID != filter.CustomerID {
				continue
			}
			if filter.TechnicianID != 0 && !j.HasTechnician(filter.TechnicianID) {
				continue
			}
			out = append(out, cloneJob(j))
		}
		sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
		out = page(out, filter.Limit, filter.Offset)
		return nil
	})
	return out, err
}

func (r *JobRepository) Update(ctx context.Context, job *domain.Job) error {
	return r.store.do(ctx, func(st *state) error {
		stored, ok := st.jobs[job.ID]
		if !ok {
			return apperr.NotFound("job", job.ID)
		}
		if stored.Version != job.Version {
			return database.ErrVersionConflict
		}
		updated := cloneJob(*job)
		updated.Number = stored.Number
		updated.CreatedAt = stored.CreatedAt
		updated.Version = stored.Version + 1
		updated.UpdatedAt = time.Now()
		st.jobs[job.ID] = updated

		job.Version = updated.Version
		job.UpdatedAt = updated.UpdatedAt
		return nil
	})
}

func (r *JobRepository) AddStatusChange(ctx context.Context, change *domain.StatusChange) error {
	return r.store.do(ctx, func(st *state) error {
		change.ID = st.nextID("job_status_changes")
		change.CreatedAt = time.Now()
		st.statusChanges = append(st.statusChanges, *change)
		return nil
	})
}

func (r *JobRepository) ListStatusChanges(ctx context.Context, jobID uint) ([]domain.StatusChange, error) {
	var out []domain.StatusChange
	err := r.store.do(ctx, func(st *state) error {
		for _, c := range st.statusChanges {
			if c.JobID == jobID {
				out = append(out, c)
			}
		}
		return nil
	})
	return out, err
}
