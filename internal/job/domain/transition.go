package domain

import (
	"fmt"
	"strings"
	"time"

	reqdomain "github.com/tair/field-service/internal/requisition/domain"
	"github.com/tair/field-service/pkg/apperr"
)

var transitions = map[Status][]Status{
	StatusPending:               {StatusAssigned, StatusCancelled},
	StatusAssigned:              {StatusRequisitionPending, StatusPreInspectionPending, StatusCancelled},
	StatusRequisitionPending:    {StatusRequisitionApproved, StatusCancelled},
	StatusRequisitionApproved:   {StatusPreInspectionPending, StatusCancelled},
	StatusPreInspectionPending:  {StatusPreInspectionApproved, StatusCancelled},
	StatusPreInspectionApproved: {StatusInProgress, StatusCancelled},
	StatusInProgress:            {StatusPostInspectionPending, StatusCancelled},
	StatusPostInspectionPending: {StatusCompleted, StatusCancelled},
	StatusCompleted:             {StatusVerified, StatusCancelled},
}

// CanTransition reports whether to is reachable from from in one step, ignoring guards
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TransitionContext carries caller-supplied inputs for a transition
type TransitionContext struct {
	ActorID              uint
	Location             *GeoPoint
	CompletionNotes      string
	CustomerAcknowledged bool
	CustomerSignatory    string
	Reason               string
}

// RequisitionFact is the state of one of the job's requisitions
type RequisitionFact struct {
	ID                  uint
	Number              string
	Status              reqdomain.Status
	OutstandingRequired []uint
}

// InspectionFact is the completeness of one inspection stage
type InspectionFact struct {
	Complete     bool
	MissingItems []string
}

// GuardFacts is the snapshot of collaborator state that transition guards read
type GuardFacts struct {
	Requisitions   []RequisitionFact
	PreInspection  InspectionFact
	PostInspection InspectionFact
}

// Unmet guard conditions
const (
	CondTechnicianAssigned     = "technician_assigned"
	CondRequisitionRaised      = "requisition_raised"
	CondRequisitionsApproved   = "requisitions_approved"
	CondRequiredItemsIssued    = "required_items_issued"
	CondVehicleAttached        = "vehicle_attached"
	CondNoPendingRequisitions  = "no_pending_requisitions"
	CondPreInspectionComplete  = "pre_inspection_complete"
	CondPostInspectionComplete = "post_inspection_complete"
	CondInstallationSaved      = "installation_saved"
	CondInstallationPhoto      = "installation_photo"
	CondCompletionNotes        = "completion_notes"
	CondCustomerAcknowledgment = "customer_acknowledgment"
	CondVerifierIdentity       = "verifier_identity"
	CondCancellationReason     = "cancellation_reason"
)

// CheckTransition evaluates whether job may move to the target state given the facts.
// It never mutates job. A request for the current state is allowed and is a no-op for Apply.
func CheckTransition(job *Job, to Status, tc TransitionContext, facts GuardFacts) error {
	if !to.Valid() {
		return apperr.Validation("unknown job status %q", to).With("requested", string(to))
	}
	if job.Status == to {
		return nil
	}
	if !CanTransition(job.Status, to) {
		return invalid(job, to, "no transition from %s to %s", job.Status, to)
	}

	var unmet []string
	var missing []string

	switch to {
	case StatusAssigned:
		if len(job.Technicians) == 0 {
			unmet = append(unmet, CondTechnicianAssigned)
		}

	case StatusRequisitionPending:
		if len(activeRequisitions(facts.Requisitions)) == 0 {
			unmet = append(unmet, CondRequisitionRaised)
		}

	case StatusRequisitionApproved:
		unmet = append(unmet, requisitionsApproved(facts.Requisitions)...)

	case StatusPreInspectionPending:
		if job.Type.RequiresVehicle() && job.VehicleID == nil {
			unmet = append(unmet, CondVehicleAttached)
		}
		if job.Status == StatusAssigned {
			for _, r := range facts.Requisitions {
				if r.Status == reqdomain.StatusPending {
					unmet = append(unmet, CondNoPendingRequisitions+":"+r.Number)
				}
			}
		}

	case StatusPreInspectionApproved:
		if !facts.PreInspection.Complete {
			unmet = append(unmet, CondPreInspectionComplete)
			missing = append(missing, facts.PreInspection.MissingItems...)
		}

	case StatusInProgress:
		if !tc.Location.Valid() {
			return apperr.New(apperr.KindLocationRequired, "a GPS location capture is required to start the job").
				With("job_id", job.ID).
				With("current", string(job.Status)).
				With("requested", string(to))
		}

	case StatusPostInspectionPending:
		unmet = append(unmet, installationConditions(job)...)

	case StatusCompleted:
		if job.Type.RequiresVehicle() && job.VehicleID == nil {
			unmet = append(unmet, CondVehicleAttached)
		}
		if !facts.PreInspection.Complete {
			unmet = append(unmet, CondPreInspectionComplete)
			missing = append(missing, facts.PreInspection.MissingItems...)
		}
		if !installationPresent(job) {
			unmet = append(unmet, CondInstallationSaved)
		}
		if !facts.PostInspection.Complete {
			unmet = append(unmet, CondPostInspectionComplete)
			missing = append(missing, facts.PostInspection.MissingItems...)
		}
		if strings.TrimSpace(tc.CompletionNotes) == "" && strings.TrimSpace(job.CompletionNotes) == "" {
			unmet = append(unmet, CondCompletionNotes)
		}
		if !tc.CustomerAcknowledged && !job.CustomerAcknowledged {
			unmet = append(unmet, CondCustomerAcknowledgment)
		}

	case StatusVerified:
		if tc.ActorID == 0 {
			unmet = append(unmet, CondVerifierIdentity)
		}

	case StatusCancelled:
		if strings.TrimSpace(tc.Reason) == "" {
			unmet = append(unmet, CondCancellationReason)
		}
	}

	if len(unmet) == 0 {
		return nil
	}

	err := invalid(job, to, "guard conditions not met: %s", strings.Join(unmet, ", ")).
		With("unmet", unmet)
	if len(missing) > 0 {
		err = err.With("missing_items", missing)
	}
	return err
}

// Apply moves job to the target state and records the transition inputs.
// Callers must have checked the transition with CheckTransition.
func Apply(job *Job, to Status, tc TransitionContext, now time.Time) {
	if job.Status == to {
		return
	}
	job.Status = to

	switch to {
	case StatusInProgress:
		loc := *tc.Location
		if loc.CapturedAt.IsZero() {
			loc.CapturedAt = now
		}
		job.StartLocation = &loc
		job.StartedAt = &now
	case StatusCompleted:
		if notes := strings.TrimSpace(tc.CompletionNotes); notes != "" {
			job.CompletionNotes = notes
		}
		if tc.CustomerAcknowledged {
			job.CustomerAcknowledged = true
		}
		if tc.CustomerSignatory != "" {
			job.CustomerSignatory = tc.CustomerSignatory
		}
		job.CompletedAt = &now
	case StatusVerified:
		verifier := tc.ActorID
		job.VerifiedBy = &verifier
		job.VerifiedAt = &now
	case StatusCancelled:
		job.CancellationReason = strings.TrimSpace(tc.Reason)
		job.CancelledAt = &now
	}
}

func invalid(job *Job, to Status, format string, args ...interface{}) *apperr.Error {
	return apperr.New(apperr.KindInvalidTransition, format, args...).
		With("job_id", job.ID).
		With("current", string(job.Status)).
		With("requested", string(to))
}

func activeRequisitions(facts []RequisitionFact) []RequisitionFact {
	var active []RequisitionFact
	for _, r := range facts {
		if r.Status != reqdomain.StatusRejected {
			active = append(active, r)
		}
	}
	return active
}

func requisitionsApproved(facts []RequisitionFact) []string {
	active := activeRequisitions(facts)
	if len(active) == 0 {
		return []string{CondRequisitionRaised}
	}

	var unmet []string
	for _, r := range active {
		switch r.Status {
		case reqdomain.StatusApproved, reqdomain.StatusFullyIssued:
		case reqdomain.StatusPartiallyIssued:
			if len(r.OutstandingRequired) > 0 {
				unmet = append(unmet, fmt.Sprintf("%s:%s", CondRequiredItemsIssued, r.Number))
			}
		default:
			unmet = append(unmet, fmt.Sprintf("%s:%s", CondRequisitionsApproved, r.Number))
		}
	}
	return unmet
}

func installationPresent(job *Job) bool {
	inst := job.Installation
	if inst == nil {
		return false
	}
	if len(inst.DeviceIMEIs) > 0 {
		return true
	}
	return inst.NoDeviceChanged && job.Type.AllowsNoDeviceChange()
}

func installationConditions(job *Job) []string {
	var unmet []string
	if !installationPresent(job) {
		unmet = append(unmet, CondInstallationSaved)
	}
	if job.Installation == nil || len(job.Installation.Photos) == 0 {
		unmet = append(unmet, CondInstallationPhoto)
	}
	return unmet
}
