package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/field-service/internal/job/domain"
)

var tracer = otel.Tracer("job-repository")

// TracingRepository wraps a JobRepository with a span per call
type TracingRepository struct {
	next domain.JobRepository
}

// NewTracingRepository creates a new repository with tracing
func NewTracingRepository(next domain.JobRepository) *TracingRepository {
	return &TracingRepository{next: next}
}

func (r *TracingRepository) Create(ctx context.Context, job *domain.Job) error {
	ctx, span := tracer.Start(ctx, "repository.Create",
		trace.WithAttributes(
			attribute.String("job.type", string(job.Type)),
			attribute.Int("job.customer_id", int(job.CustomerID)),
		))
	defer span.End()
	err := r.next.Create(ctx, job)
	span.SetAttributes(attribute.Int("job.id", int(job.ID)))
	return record(span, err)
}

func (r *TracingRepository) FindByID(ctx context.Context, id uint) (*domain.Job, error) {
	ctx, span := tracer.Start(ctx, "repository.FindByID",
		trace.WithAttributes(attribute.Int("job.id", int(id))))
	defer span.End()
	job, err := r.next.FindByID(ctx, id)
	return job, record(span, err)
}

func (r *TracingRepository) FindAll(ctx context.Context, filter domain.Filter) ([]domain.Job, error) {
	ctx, span := tracer.Start(ctx, "repository.FindAll",
		trace.WithAttributes(
			attribute.String("filter.status", string(filter.Status)),
			attribute.Int("filter.technician_id", int(filter.TechnicianID)),
			attribute.Int("limit", filter.Limit),
			attribute.Int("offset", filter.Offset),
		))
	defer span.End()
	jobs, err := r.next.FindAll(ctx, filter)
	span.SetAttributes(attribute.Int("result.count", len(jobs)))
	return jobs, record(span, err)
}

func (r *TracingRepository) Update(ctx context.Context, job *domain.Job) error {
	ctx, span := tracer.Start(ctx, "repository.Update",
		trace.WithAttributes(
			attribute.Int("job.id", int(job.ID)),
			attribute.String("job.status", string(job.Status)),
			attribute.Int("job.version", job.Version),
		))
	defer span.End()
	return record(span, r.next.Update(ctx, job))
}

func (r *TracingRepository) AddStatusChange(ctx context.Context, change *domain.StatusChange) error {
	ctx, span := tracer.Start(ctx, "repository.AddStatusChange",
		trace.WithAttributes(
			attribute.Int("job.id", int(change.JobID)),
			attribute.String("job.from", string(change.From)),
			attribute.String("job.to", string(change.To)),
		))
	defer span.End()
	return record(span, r.next.AddStatusChange(ctx, change))
}

func (r *TracingRepository) ListStatusChanges(ctx context.Context, jobID uint) ([]domain.StatusChange, error) {
	ctx, span := tracer.Start(ctx, "repository.ListStatusChanges",
		trace.WithAttributes(attribute.Int("job.id", int(jobID))))
	defer span.End()
	changes, err := r.next.ListStatusChanges(ctx, jobID)
	return changes, record(span, err)
}

func record(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
