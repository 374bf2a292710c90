package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/field-service/internal/inspection/domain"
	jobdomain "github.com/tair/field-service/internal/job/domain"
	"github.com/tair/field-service/internal/storage/memory"
	"github.com/tair/field-service/pkg/apperr"
	"github.com/tair/field-service/pkg/database"
)

type env struct {
	ctx     context.Context
	repo    *memory.InspectionRepository
	jobs    *memory.JobRepository
	handler *SubmitInspectionHandler
	job     *jobdomain.Job
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.New()
	e := &env{
		ctx:  context.Background(),
		repo: store.Inspections(),
		jobs: store.Jobs(),
	}
	e.handler = NewSubmitInspectionHandler(e.repo, e.jobs, database.NewRetrier(store, 3))

	save := NewSaveChecklistItemHandler(e.repo)
	for _, cmd := range []SaveChecklistItemCommand{
		{Name: "Battery voltage", Stages: []domain.Stage{domain.StagePreInstallation, domain.StagePostInstallation}, Active: true, SortOrder: 1},
		{Name: "Dashboard lights", Stages: []domain.Stage{domain.StagePreInstallation}, Active: true, SortOrder: 2},
		{Name: "Retired check", Stages: []domain.Stage{domain.StagePreInstallation}, Active: false, SortOrder: 3},
	} {
		_, err := save.Handle(e.ctx, cmd)
		require.NoError(t, err)
	}

	vehicle := uint(77)
	e.job = &jobdomain.Job{
		Number:      "JOB-TEST0001",
		CustomerID:  10,
		VehicleID:   &vehicle,
		Type:        jobdomain.TypeNewInstallation,
		Status:      jobdomain.StatusPreInspectionPending,
		Technicians: []jobdomain.TechnicianAssignment{{TechnicianID: 3, AssignedAt: time.Now()}},
	}
	require.NoError(t, e.jobs.Create(e.ctx, e.job))
	return e
}

func (e *env) submit(items []ItemResult, edit bool) ([]domain.Record, error) {
	return e.handler.Handle(e.ctx, SubmitInspectionCommand{
		JobID:        e.job.ID,
		Stage:        domain.StagePreInstallation,
		Items:        items,
		TechnicianID: 3,
		EditMode:     edit,
	})
}

func TestSubmitInspection_RecordsItems(t *testing.T) {
	e := newEnv(t)

	records, err := e.submit([]ItemResult{
		{ChecklistItemID: 1, Status: domain.ItemChecked},
		{ChecklistItemID: 2, Status: domain.ItemIssueFound, Notes: "cracked lens", PhotoURL: "https://files/lens.jpg"},
	}, false)

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 1, records[1].Revision)
	require.NotNil(t, records[1].VehicleID)
	assert.Equal(t, uint(77), *records[1].VehicleID)
	assert.Equal(t, "cracked lens", records[1].Notes)
}

func TestSubmitInspection_ResubmitRequiresEditMode(t *testing.T) {
	e := newEnv(t)
	_, err := e.submit([]ItemResult{{ChecklistItemID: 1, Status: domain.ItemNotChecked}}, false)
	require.NoError(t, err)

	_, err = e.submit([]ItemResult{{ChecklistItemID: 1, Status: domain.ItemChecked}}, false)

	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, uint(1), appErr.Details["checklist_item_id"])
}

func TestSubmitInspection_EditModeKeepsRevision(t *testing.T) {
	e := newEnv(t)
	_, err := e.submit([]ItemResult{{ChecklistItemID: 1, Status: domain.ItemIssueFound, Notes: "low"}}, false)
	require.NoError(t, err)

	records, err := e.submit([]ItemResult{{ChecklistItemID: 1, Status: domain.ItemChecked, Notes: "recharged"}}, true)

	require.NoError(t, err)
	assert.Equal(t, 2, records[0].Revision)
	assert.Equal(t, domain.ItemChecked, records[0].Status)

	revisions, err := e.repo.ListRevisions(e.ctx, e.job.ID)
	require.NoError(t, err)
	require.Len(t, revisions, 1)
	assert.Equal(t, domain.ItemIssueFound, revisions[0].PrevStatus)
	assert.Equal(t, "low", revisions[0].PrevNotes)
	assert.Equal(t, 1, revisions[0].Revision)
}

func TestSubmitInspection_RejectsBatchAtomically(t *testing.T) {
	e := newEnv(t)

	_, err := e.submit([]ItemResult{
		{ChecklistItemID: 1, Status: domain.ItemChecked},
		{ChecklistItemID: 3, Status: domain.ItemChecked},
	}, false)

	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	records, err := e.repo.ListRecords(e.ctx, e.job.ID, "")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSubmitInspection_Validation(t *testing.T) {
	tests := []struct {
		name string
		cmd  SubmitInspectionCommand
		kind apperr.Kind
	}{
		{
			name: "unknown stage",
			cmd:  SubmitInspectionCommand{JobID: 1, Stage: "DURING", Items: []ItemResult{{ChecklistItemID: 1, Status: domain.ItemChecked}}},
			kind: apperr.KindValidation,
		},
		{
			name: "no items",
			cmd:  SubmitInspectionCommand{JobID: 1, Stage: domain.StagePreInstallation},
			kind: apperr.KindValidation,
		},
		{
			name: "unknown status",
			cmd:  SubmitInspectionCommand{JobID: 1, Stage: domain.StagePreInstallation, Items: []ItemResult{{ChecklistItemID: 1, Status: "FINE"}}},
			kind: apperr.KindValidation,
		},
		{
			name: "duplicate item",
			cmd: SubmitInspectionCommand{JobID: 1, Stage: domain.StagePreInstallation, Items: []ItemResult{
				{ChecklistItemID: 1, Status: domain.ItemChecked},
				{ChecklistItemID: 1, Status: domain.ItemIssueFound},
			}},
			kind: apperr.KindValidation,
		},
		{
			name: "unknown checklist item",
			cmd:  SubmitInspectionCommand{JobID: 1, Stage: domain.StagePreInstallation, Items: []ItemResult{{ChecklistItemID: 42, Status: domain.ItemChecked}}},
			kind: apperr.KindNotFound,
		},
		{
			name: "unknown job",
			cmd:  SubmitInspectionCommand{JobID: 99, Stage: domain.StagePreInstallation, Items: []ItemResult{{ChecklistItemID: 1, Status: domain.ItemChecked}}},
			kind: apperr.KindNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)

			_, err := e.handler.Handle(e.ctx, tt.cmd)

			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}
}

func TestSubmitInspection_ClosedJob(t *testing.T) {
	e := newEnv(t)
	e.job.Status = jobdomain.StatusCancelled
	require.NoError(t, e.jobs.Update(e.ctx, e.job))

	_, err := e.submit([]ItemResult{{ChecklistItemID: 1, Status: domain.ItemChecked}}, false)

	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))
}

func TestSubmitInspection_CompletedJobRejectsEdits(t *testing.T) {
	e := newEnv(t)
	_, err := e.submit([]ItemResult{{ChecklistItemID: 1, Status: domain.ItemChecked, Notes: "ok"}}, false)
	require.NoError(t, err)

	e.job.Status = jobdomain.StatusCompleted
	require.NoError(t, e.jobs.Update(e.ctx, e.job))

	_, err = e.submit([]ItemResult{{ChecklistItemID: 1, Status: domain.ItemIssueFound, Notes: "changed later"}}, true)

	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, string(jobdomain.StatusCompleted), appErr.Details["current"])

	revisions, err := e.repo.ListRevisions(e.ctx, e.job.ID)
	require.NoError(t, err)
	assert.Empty(t, revisions)
}

func TestSaveChecklistItem_Validation(t *testing.T) {
	h := NewSaveChecklistItemHandler(memory.New().Inspections())

	_, err := h.Handle(context.Background(), SaveChecklistItemCommand{Name: " "})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = h.Handle(context.Background(), SaveChecklistItemCommand{Name: "Fuse box", Stages: []domain.Stage{"LATER"}})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
