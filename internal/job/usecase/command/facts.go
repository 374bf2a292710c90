package command

import (
	"context"
	"fmt"

	inspdomain "github.com/tair/field-service/internal/inspection/domain"
	"github.com/tair/field-service/internal/job/domain"
	reqdomain "github.com/tair/field-service/internal/requisition/domain"
)

// FactLoader assembles the snapshot of requisition and inspection state that transition guards read
type FactLoader struct {
	requisitions reqdomain.RequisitionRepository
	inspections  inspdomain.InspectionRepository
}

// NewFactLoader creates a new fact loader
func NewFactLoader(requisitions reqdomain.RequisitionRepository, inspections inspdomain.InspectionRepository) *FactLoader {
	return &FactLoader{requisitions: requisitions, inspections: inspections}
}

// Load reads the guard inputs for a job
func (l *FactLoader) Load(ctx context.Context, jobID uint) (domain.GuardFacts, error) {
	var facts domain.GuardFacts

	requisitions, err := l.requisitions.FindAll(ctx, reqdomain.Filter{JobID: jobID})
	if err != nil {
		return facts, fmt.Errorf("failed to load requisitions: %w", err)
	}
	for i := range requisitions {
		r := &requisitions[i]
		facts.Requisitions = append(facts.Requisitions, domain.RequisitionFact{
			ID:                  r.ID,
			Number:              r.Number,
			Status:              r.Status,
			OutstandingRequired: r.OutstandingRequired(),
		})
	}

	items, err := l.inspections.ListChecklistItems(ctx)
	if err != nil {
		return facts, fmt.Errorf("failed to load checklist: %w", err)
	}
	records, err := l.inspections.ListRecords(ctx, jobID, "")
	if err != nil {
		return facts, fmt.Errorf("failed to load inspection records: %w", err)
	}
	facts.PreInspection = inspectionFact(inspdomain.EvaluateStage(jobID, inspdomain.StagePreInstallation, items, records))
	facts.PostInspection = inspectionFact(inspdomain.EvaluateStage(jobID, inspdomain.StagePostInstallation, items, records))
	return facts, nil
}

func inspectionFact(s inspdomain.StageStatus) domain.InspectionFact {
	return domain.InspectionFact{Complete: s.Complete, MissingItems: s.MissingNames()}
}
