package memory

import (
	"context"
	"sort"
	"time"

	"github.com/tair/field-service/internal/requisition/domain"
	"github.com/tair/field-service/pkg/apperr"
	"github.com/tair/field-service/pkg/database"
)

// RequisitionRepository implements domain.RequisitionRepository
type RequisitionRepository struct {
	store *Store
}

func cloneRequisition(r domain.Requisition) domain.Requisition {
	r.Items = append([]domain.RequisitionItem(nil), r.Items...)
	return r
}

func cloneIssuance(i domain.Issuance) domain.Issuance {
	i.DeviceIMEIs = append([]string(nil), i.DeviceIMEIs...)
	return i
}

func (r *RequisitionRepository) Create(ctx context.Context, requisition *domain.Requisition) error {
	return r.store.do(ctx, func(st *state) error {
		now := time.Now()
		requisition.ID = st.nextID("requisitions")
		requisition.CreatedAt, requisition.UpdatedAt = now, now
		for i := range requisition.Items {
			requisition.Items[i].ID = st.nextID("requisition_items")
			requisition.Items[i].RequisitionID = requisition.ID
		}
		st.requisitions[requisition.ID] = cloneRequisition(*requisition)
		return nil
	})
}

func (r *RequisitionRepository) FindByID(ctx context.Context, id uint) (*domain.Requisition, error) {
	var out *domain.Requisition
	err := r.store.do(ctx, func(st *state) error {
		req, ok := st.requisitions[id]
		if !ok {
			return apperr.NotFound("requisition", id)
		}
		c := cloneRequisition(req)
		out = &c
		return nil
	})
	return out, err
}

func (r *RequisitionRepository) FindAll(ctx context.Context, filter domain.Filter) ([]domain.Requisition, error) {
	var out []domain.Requisition
	err := r.store.do(ctx, func(st *state) error {
		for _, req := range st.requisitions {
			if filter.JobID != 0 && req.JobID != filter.JobID {
				continue
			}
			if filter.TechnicianID != 0 && req.TechnicianID != filter.TechnicianID {
				continue
			}
			if filter.Status != "" && req.Status != filter.Status {
				continue
			}
			out = append(out, cloneRequisition(req))
		}
		sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
		out = page(out, filter.Limit, filter.Offset)
		return nil
	})
	return out, err
}

func (r *RequisitionRepository) Update(ctx context.Context, requisition *domain.Requisition) error {
	return r.store.do(ctx, func(st *state) error {
		stored, ok := st.requisitions[requisition.ID]
		if !ok {
			return apperr.NotFound("requisition", requisition.ID)
		}
		if stored.Version != requisition.Version {
			return database.ErrVersionConflict
		}
		for _, item := range requisition.Items {
			if item.QuantityIssued < 0 || item.QuantityIssued > item.QuantityRequested {
				return apperr.Validation("issued quantity out of bounds").With("item_id", item.ID)
			}
		}
		updated := cloneRequisition(*requisition)
		updated.Number = stored.Number
		updated.CreatedAt = stored.CreatedAt
		updated.Version = stored.Version + 1
		updated.UpdatedAt = time.Now()
		st.requisitions[requisition.ID] = updated

		requisition.Version = updated.Version
		requisition.UpdatedAt = updated.UpdatedAt
		return nil
	})
}

func (r *RequisitionRepository) CreateIssuance(ctx context.Context, issuance *domain.Issuance) error {
	return r.store.do(ctx, func(st *state) error {
		issuance.ID = st.nextID("issuances")
		issuance.CreatedAt = time.Now()
		st.issuances = append(st.issuances, cloneIssuance(*issuance))
		return nil
	})
}

func (r *RequisitionRepository) ListIssuances(ctx context.Context, requisitionID uint) ([]domain.Issuance, error) {
	var out []domain.Issuance
	err := r.store.do(ctx, func(st *state) error {
		for _, i := range st.issuances {
			if i.RequisitionID == requisitionID {
				out = append(out, cloneIssuance(i))
			}
		}
		return nil
	})
	return out, err
}

func (r *RequisitionRepository) FindIssuancesByKey(ctx context.Context, idempotencyKey string) ([]domain.Issuance, error) {
	var out []domain.Issuance
	err := r.store.do(ctx, func(st *state) error {
		for _, i := range st.issuances {
			if i.IdempotencyKey == idempotencyKey {
				out = append(out, cloneIssuance(i))
			}
		}
		return nil
	})
	return out, err
}
