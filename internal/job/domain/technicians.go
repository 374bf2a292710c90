package domain

import (
	"time"

	"github.com/tair/field-service/pkg/apperr"
)

// AssignTechnicians appends technicians in order, skipping ones already assigned.
// With primaryFirst the first given technician becomes primary; otherwise a primary
// is only chosen when the job has none.
func (j *Job) AssignTechnicians(technicianIDs []uint, primaryFirst bool, now time.Time) error {
	if len(technicianIDs) == 0 {
		return apperr.Validation("at least one technician is required").With("job_id", j.ID)
	}
	for _, id := range technicianIDs {
		if id == 0 {
			return apperr.Validation("technician id must be set").With("job_id", j.ID)
		}
	}

	for _, id := range technicianIDs {
		if j.HasTechnician(id) {
			continue
		}
		j.Technicians = append(j.Technicians, TechnicianAssignment{TechnicianID: id, AssignedAt: now})
	}

	if primaryFirst || j.PrimaryTechnicianID == nil {
		primary := technicianIDs[0]
		j.PrimaryTechnicianID = &primary
	}
	return nil
}

// RemoveTechnician drops a technician. When the primary is removed, newPrimary is used if
// given, else the next technician in assignment order is promoted.
func (j *Job) RemoveTechnician(technicianID uint, newPrimary *uint) error {
	idx := -1
	for i, t := range j.Technicians {
		if t.TechnicianID == technicianID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return apperr.NotFound("technician", technicianID).With("job_id", j.ID)
	}
	if len(j.Technicians) == 1 && j.Status != StatusPending {
		return apperr.Validation("job must keep at least one technician once assigned").
			With("job_id", j.ID).
			With("status", string(j.Status))
	}
	if newPrimary != nil && (*newPrimary == technicianID || !j.HasTechnician(*newPrimary)) {
		return apperr.Validation("new primary must be another assigned technician").
			With("job_id", j.ID).
			With("technician_id", *newPrimary)
	}

	j.Technicians = append(j.Technicians[:idx:idx], j.Technicians[idx+1:]...)

	wasPrimary := j.PrimaryTechnicianID != nil && *j.PrimaryTechnicianID == technicianID
	switch {
	case newPrimary != nil:
		p := *newPrimary
		j.PrimaryTechnicianID = &p
	case wasPrimary && len(j.Technicians) > 0:
		p := j.Technicians[0].TechnicianID
		j.PrimaryTechnicianID = &p
	case wasPrimary:
		j.PrimaryTechnicianID = nil
	}
	return nil
}

// SetPrimaryTechnician redesignates the primary technician
func (j *Job) SetPrimaryTechnician(technicianID uint) error {
	if !j.HasTechnician(technicianID) {
		return apperr.NotFound("technician", technicianID).With("job_id", j.ID)
	}
	p := technicianID
	j.PrimaryTechnicianID = &p
	return nil
}
