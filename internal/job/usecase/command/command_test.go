package command

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/field-service/internal/catalog"
	inspdomain "github.com/tair/field-service/internal/inspection/domain"
	invdomain "github.com/tair/field-service/internal/inventory/domain"
	"github.com/tair/field-service/internal/job/domain"
	reqdomain "github.com/tair/field-service/internal/requisition/domain"
	"github.com/tair/field-service/internal/storage/memory"
	"github.com/tair/field-service/kafka"
	"github.com/tair/field-service/pkg/apperr"
	"github.com/tair/field-service/pkg/database"
)

type recorder struct {
	mu     sync.Mutex
	events []kafka.Event
}

func (r *recorder) Publish(_ context.Context, event kafka.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recorder) last() kafka.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

type env struct {
	ctx        context.Context
	jobs       *memory.JobRepository
	reqs       *memory.RequisitionRepository
	insp       *memory.InspectionRepository
	inv        *memory.InventoryRepository
	retrier    *database.Retrier
	events     *recorder
	transition *TransitionJobHandler
	create     *CreateJobHandler
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.New()
	e := &env{
		ctx:     context.Background(),
		jobs:    store.Jobs(),
		reqs:    store.Requisitions(),
		insp:    store.Inspections(),
		inv:     store.Inventory(),
		retrier: database.NewRetrier(store, 3),
		events:  &recorder{},
	}
	cat := catalog.NewStaticCatalog(catalog.Product{ID: 1, SKU: "TRK-01", Name: "GPS tracker", Serialized: true, IsActive: true})
	e.transition = NewTransitionJobHandler(e.jobs, NewFactLoader(e.reqs, e.insp), e.retrier, e.events)
	e.create = NewCreateJobHandler(e.jobs, cat, e.retrier, e.events)

	for _, item := range []inspdomain.ChecklistItem{
		{Name: "Battery voltage", Stages: []inspdomain.Stage{inspdomain.StagePreInstallation, inspdomain.StagePostInstallation}, Active: true, SortOrder: 1},
		{Name: "Ignition wire secured", Stages: []inspdomain.Stage{inspdomain.StagePostInstallation}, Active: true, SortOrder: 2},
	} {
		item := item
		require.NoError(t, e.insp.SaveChecklistItem(e.ctx, &item))
	}
	return e
}

func (e *env) newJob(t *testing.T, jobType domain.Type, technicians ...uint) *domain.Job {
	t.Helper()
	vehicle := uint(77)
	job, err := e.create.Handle(e.ctx, CreateJobCommand{
		CustomerID:    10,
		VehicleID:     &vehicle,
		Type:          jobType,
		TechnicianIDs: technicians,
		ActorID:       1,
	})
	require.NoError(t, err)
	return job
}

func (e *env) move(t *testing.T, job *domain.Job, to domain.Status, tc domain.TransitionContext) *domain.Job {
	t.Helper()
	moved, err := e.transition.Handle(e.ctx, TransitionJobCommand{JobID: job.ID, To: to, Context: tc})
	require.NoError(t, err)
	return moved
}

func (e *env) inspect(t *testing.T, jobID uint, stage inspdomain.Stage, itemID uint, status inspdomain.ItemStatus) {
	t.Helper()
	require.NoError(t, e.insp.CreateRecord(e.ctx, &inspdomain.Record{
		JobID:           jobID,
		Stage:           stage,
		ChecklistItemID: itemID,
		Status:          status,
		Revision:        1,
	}))
}

// postInspection drives a repair job to POST_INSPECTION_PENDING
func (e *env) postInspection(t *testing.T) *domain.Job {
	t.Helper()
	job := e.newJob(t, domain.TypeRepair, 3)
	job = e.move(t, job, domain.StatusPreInspectionPending, domain.TransitionContext{ActorID: 3})
	e.inspect(t, job.ID, inspdomain.StagePreInstallation, 1, inspdomain.ItemChecked)
	job = e.move(t, job, domain.StatusPreInspectionApproved, domain.TransitionContext{ActorID: 3})
	job = e.move(t, job, domain.StatusInProgress, domain.TransitionContext{
		ActorID:  3,
		Location: &domain.GeoPoint{Latitude: -1.28, Longitude: 36.82},
	})

	_, err := NewSaveInstallationHandler(e.jobs, e.inv, e.retrier).Handle(e.ctx, SaveInstallationCommand{
		JobID:           job.ID,
		Photos:          []string{"https://files/after.jpg"},
		NoDeviceChanged: true,
		ActorID:         3,
	})
	require.NoError(t, err)
	return e.move(t, job, domain.StatusPostInspectionPending, domain.TransitionContext{ActorID: 3})
}

func TestCreateJob_WithTechniciansStartsAssigned(t *testing.T) {
	e := newEnv(t)

	job := e.newJob(t, domain.TypeNewInstallation, 3, 4)

	assert.Equal(t, domain.StatusAssigned, job.Status)
	require.NotNil(t, job.PrimaryTechnicianID)
	assert.Equal(t, uint(3), *job.PrimaryTechnicianID)
	assert.Regexp(t, `^JOB-[0-9A-F]{8}$`, job.Number)

	history, err := e.jobs.ListStatusChanges(e.ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.StatusAssigned, history[0].To)
	assert.Equal(t, kafka.EventTypeJobStatusChanged, e.events.last().EventType)
}

func TestCreateJob_Validation(t *testing.T) {
	e := newEnv(t)

	_, err := e.create.Handle(e.ctx, CreateJobCommand{CustomerID: 10, Type: "FITMENT"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = e.create.Handle(e.ctx, CreateJobCommand{Type: domain.TypeRepair})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = e.create.Handle(e.ctx, CreateJobCommand{CustomerID: 10, Type: domain.TypeRepair, RequiredProductIDs: []uint{99}})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestTransitionJob_FullLifecycle(t *testing.T) {
	e := newEnv(t)
	job := e.postInspection(t)
	e.inspect(t, job.ID, inspdomain.StagePostInstallation, 1, inspdomain.ItemChecked)
	e.inspect(t, job.ID, inspdomain.StagePostInstallation, 2, inspdomain.ItemIssueFound)

	job = e.move(t, job, domain.StatusCompleted, domain.TransitionContext{
		ActorID:              3,
		CompletionNotes:      "Replaced fuse",
		CustomerAcknowledged: true,
		CustomerSignatory:    "J. Mwangi",
	})
	require.NotNil(t, job.CompletedAt)
	assert.Equal(t, "Replaced fuse", job.CompletionNotes)

	job = e.move(t, job, domain.StatusVerified, domain.TransitionContext{ActorID: 1})
	require.NotNil(t, job.VerifiedBy)
	assert.Equal(t, uint(1), *job.VerifiedBy)

	history, err := e.jobs.ListStatusChanges(e.ctx, job.ID)
	require.NoError(t, err)
	assert.Len(t, history, 7)
}

func TestTransitionJob_CompletionNamesUncheckedItem(t *testing.T) {
	e := newEnv(t)
	job := e.postInspection(t)
	e.inspect(t, job.ID, inspdomain.StagePostInstallation, 1, inspdomain.ItemChecked)
	e.inspect(t, job.ID, inspdomain.StagePostInstallation, 2, inspdomain.ItemNotChecked)
	published := e.events.count()

	_, err := e.transition.Handle(e.ctx, TransitionJobCommand{
		JobID: job.ID,
		To:    domain.StatusCompleted,
		Context: domain.TransitionContext{
			CompletionNotes:      "done",
			CustomerAcknowledged: true,
		},
	})

	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindInvalidTransition, appErr.Kind)
	assert.Equal(t, []string{"Ignition wire secured"}, appErr.Details["missing_items"])
	assert.Equal(t, string(domain.StatusPostInspectionPending), appErr.Details["current"])

	stored, err := e.jobs.FindByID(e.ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPostInspectionPending, stored.Status)
	assert.Equal(t, published, e.events.count())
}

func TestTransitionJob_StartRequiresLocation(t *testing.T) {
	e := newEnv(t)
	job := e.newJob(t, domain.TypeRepair, 3)
	job = e.move(t, job, domain.StatusPreInspectionPending, domain.TransitionContext{})
	e.inspect(t, job.ID, inspdomain.StagePreInstallation, 1, inspdomain.ItemChecked)
	job = e.move(t, job, domain.StatusPreInspectionApproved, domain.TransitionContext{})

	_, err := e.transition.Handle(e.ctx, TransitionJobCommand{JobID: job.ID, To: domain.StatusInProgress})

	assert.ErrorIs(t, err, apperr.ErrLocationRequired)
}

func TestTransitionJob_SameStatusIsNoOp(t *testing.T) {
	e := newEnv(t)
	job := e.newJob(t, domain.TypeRepair, 3)
	published := e.events.count()

	again := e.move(t, job, domain.StatusAssigned, domain.TransitionContext{})

	assert.Equal(t, job.Version, again.Version)
	assert.Equal(t, published, e.events.count())
	history, err := e.jobs.ListStatusChanges(e.ctx, job.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestTransitionJob_RequisitionGuards(t *testing.T) {
	e := newEnv(t)
	job := e.newJob(t, domain.TypeNewInstallation, 3)

	_, err := e.transition.Handle(e.ctx, TransitionJobCommand{JobID: job.ID, To: domain.StatusRequisitionPending})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	req := &reqdomain.Requisition{
		Number:         "REQ-00000001",
		JobID:          job.ID,
		TechnicianID:   3,
		SourceLocation: "MAIN",
		Status:         reqdomain.StatusPending,
		Items:          []reqdomain.RequisitionItem{{ProductID: 1, QuantityRequested: 2}},
	}
	require.NoError(t, e.reqs.Create(e.ctx, req))

	_, err = e.transition.Handle(e.ctx, TransitionJobCommand{JobID: job.ID, To: domain.StatusPreInspectionPending})
	require.ErrorIs(t, err, apperr.ErrInvalidTransition)
	appErr, _ := apperr.As(err)
	assert.Equal(t, []string{"no_pending_requisitions:REQ-00000001"}, appErr.Details["unmet"])

	job = e.move(t, job, domain.StatusRequisitionPending, domain.TransitionContext{})
	_, err = e.transition.Handle(e.ctx, TransitionJobCommand{JobID: job.ID, To: domain.StatusRequisitionApproved})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	req.Status = reqdomain.StatusPartiallyIssued
	req.Items[0].QuantityIssued = 1
	require.NoError(t, e.reqs.Update(e.ctx, req))
	_, err = e.transition.Handle(e.ctx, TransitionJobCommand{JobID: job.ID, To: domain.StatusRequisitionApproved})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	req.Status = reqdomain.StatusFullyIssued
	req.Items[0].QuantityIssued = 2
	require.NoError(t, e.reqs.Update(e.ctx, req))
	job = e.move(t, job, domain.StatusRequisitionApproved, domain.TransitionContext{})
	assert.Equal(t, domain.StatusRequisitionApproved, job.Status)
}

func TestTransitionJob_Cancel(t *testing.T) {
	e := newEnv(t)
	job := e.newJob(t, domain.TypeRepair, 3)

	_, err := e.transition.Handle(e.ctx, TransitionJobCommand{JobID: job.ID, To: domain.StatusCancelled})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	job = e.move(t, job, domain.StatusCancelled, domain.TransitionContext{ActorID: 1, Reason: "customer withdrew"})
	assert.Equal(t, "customer withdrew", job.CancellationReason)
	assert.Equal(t, "customer withdrew", e.events.last().Data["reason"])

	_, err = e.transition.Handle(e.ctx, TransitionJobCommand{JobID: job.ID, To: domain.StatusAssigned})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestTransitionJob_UnknownJob(t *testing.T) {
	e := newEnv(t)

	_, err := e.transition.Handle(e.ctx, TransitionJobCommand{JobID: 99, To: domain.StatusAssigned})

	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestTechnicians_AssignAdvancesPendingJob(t *testing.T) {
	e := newEnv(t)
	job := e.newJob(t, domain.TypeRepair)
	require.Equal(t, domain.StatusPending, job.Status)
	h := NewTechnicianHandler(e.jobs, e.retrier, e.events)

	job, err := h.Assign(e.ctx, AssignTechniciansCommand{JobID: job.ID, TechnicianIDs: []uint{5, 6}, PrimaryFirst: true, ActorID: 1})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusAssigned, job.Status)
	assert.Equal(t, []uint{5, 6}, job.TechnicianIDs())
	assert.Equal(t, string(domain.StatusAssigned), e.events.last().To)
}

func TestTechnicians_RemovePrimaryPromotesNext(t *testing.T) {
	e := newEnv(t)
	job := e.newJob(t, domain.TypeRepair, 3, 4, 5)
	h := NewTechnicianHandler(e.jobs, e.retrier, e.events)

	job, err := h.Remove(e.ctx, RemoveTechnicianCommand{JobID: job.ID, TechnicianID: 3})
	require.NoError(t, err)
	require.NotNil(t, job.PrimaryTechnicianID)
	assert.Equal(t, uint(4), *job.PrimaryTechnicianID)

	job, err = h.SetPrimary(e.ctx, SetPrimaryTechnicianCommand{JobID: job.ID, TechnicianID: 5})
	require.NoError(t, err)
	assert.Equal(t, uint(5), *job.PrimaryTechnicianID)

	_, err = h.SetPrimary(e.ctx, SetPrimaryTechnicianCommand{JobID: job.ID, TechnicianID: 3})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestTechnicians_ClosedJobRejected(t *testing.T) {
	e := newEnv(t)
	job := e.newJob(t, domain.TypeRepair, 3)
	e.move(t, job, domain.StatusCancelled, domain.TransitionContext{Reason: "duplicate"})
	h := NewTechnicianHandler(e.jobs, e.retrier, e.events)

	_, err := h.Assign(e.ctx, AssignTechniciansCommand{JobID: job.ID, TechnicianIDs: []uint{4}})

	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestSaveInstallation_RequiresStartedJob(t *testing.T) {
	e := newEnv(t)
	job := e.newJob(t, domain.TypeRepair, 3)

	_, err := NewSaveInstallationHandler(e.jobs, e.inv, e.retrier).Handle(e.ctx, SaveInstallationCommand{JobID: job.ID, NoDeviceChanged: true})

	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestSaveInstallation_DeviceChecks(t *testing.T) {
	e := newEnv(t)
	job := e.newJob(t, domain.TypeNewInstallation, 3)
	job.Status = domain.StatusInProgress
	require.NoError(t, e.jobs.Update(e.ctx, job))

	jobID := job.ID
	require.NoError(t, e.inv.CreateDevice(e.ctx, &invdomain.Device{IMEI: "350000000000001", ProductID: 1, BatchID: 1, Status: invdomain.DeviceIssued, JobID: &jobID}))
	require.NoError(t, e.inv.CreateDevice(e.ctx, &invdomain.Device{IMEI: "350000000000002", ProductID: 1, BatchID: 1, Status: invdomain.DeviceAvailable, Location: "MAIN"}))
	h := NewSaveInstallationHandler(e.jobs, e.inv, e.retrier)

	tests := []struct {
		name string
		cmd  SaveInstallationCommand
		want error
	}{
		{name: "no devices on installation type", cmd: SaveInstallationCommand{JobID: jobID, NoDeviceChanged: true}, want: apperr.ErrValidation},
		{name: "nothing recorded", cmd: SaveInstallationCommand{JobID: jobID}, want: apperr.ErrValidation},
		{name: "duplicate imei", cmd: SaveInstallationCommand{JobID: jobID, DeviceIMEIs: []string{"350000000000001", "350000000000001"}}, want: apperr.ErrValidation},
		{name: "device not issued to job", cmd: SaveInstallationCommand{JobID: jobID, DeviceIMEIs: []string{"350000000000002"}}, want: apperr.ErrDeviceAllocationMismatch},
		{name: "bad gps", cmd: SaveInstallationCommand{JobID: jobID, DeviceIMEIs: []string{"350000000000001"}, Location: &domain.GeoPoint{Latitude: 120, Longitude: 1}}, want: apperr.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Handle(e.ctx, tt.cmd)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	saved, err := h.Handle(e.ctx, SaveInstallationCommand{JobID: jobID, DeviceIMEIs: []string{" 350000000000001 "}, Photos: []string{"p.jpg"}, ActorID: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"350000000000001"}, saved.Installation.DeviceIMEIs)
}

func TestAttachVehicle(t *testing.T) {
	e := newEnv(t)
	job := e.newJob(t, domain.TypeRepair, 3)
	h := NewAttachVehicleHandler(e.jobs, e.retrier)

	_, err := h.Handle(e.ctx, AttachVehicleCommand{JobID: job.ID})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	job, err = h.Handle(e.ctx, AttachVehicleCommand{JobID: job.ID, VehicleID: 88})
	require.NoError(t, err)
	assert.Equal(t, uint(88), *job.VehicleID)
}
