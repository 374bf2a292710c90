package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/field-service/internal/requisition/domain"
)

var tracer = otel.Tracer("requisition-repository")

// TracingRepository wraps a RequisitionRepository with a span per call
type TracingRepository struct {
	next domain.RequisitionRepository
}

// NewTracingRepository creates a new repository with tracing
func NewTracingRepository(next domain.RequisitionRepository) *TracingRepository {
	return &TracingRepository{next: next}
}

func (r *TracingRepository) Create(ctx context.Context, requisition *domain.Requisition) error {
	ctx, span := tracer.Start(ctx, "repository.Create",
		trace.WithAttributes(
			attribute.Int("requisition.job_id", int(requisition.JobID)),
			attribute.Int("requisition.items", len(requisition.Items)),
		))
	defer span.End()
	err := r.next.Create(ctx, requisition)
	span.SetAttributes(attribute.Int("requisition.id", int(requisition.ID)))
	return record(span, err)
}

func (r *TracingRepository) FindByID(ctx context.Context, id uint) (*domain.Requisition, error) {
	ctx, span := tracer.Start(ctx, "repository.FindByID",
		trace.WithAttributes(attribute.Int("requisition.id", int(id))))
	defer span.End()
	requisition, err := r.next.FindByID(ctx, id)
	return requisition, record(span, err)
}

func (r *TracingRepository) FindAll(ctx context.Context, filter domain.Filter) ([]domain.Requisition, error) {
	ctx, span := tracer.Start(ctx, "repository.FindAll",
		trace.WithAttributes(
			attribute.Int("filter.job_id", int(filter.JobID)),
			attribute.String("filter.status", string(filter.Status)),
			attribute.Int("limit", filter.Limit),
			attribute.Int("offset", filter.Offset),
		))
	defer span.End()
	requisitions, err := r.next.FindAll(ctx, filter)
	span.SetAttributes(attribute.Int("result.count", len(requisitions)))
	return requisitions, record(span, err)
}

func (r *TracingRepository) Update(ctx context.Context, requisition *domain.Requisition) error {
	ctx, span := tracer.Start(ctx, "repository.Update",
		trace.WithAttributes(
			attribute.Int("requisition.id", int(requisition.ID)),
			attribute.String("requisition.status", string(requisition.Status)),
			attribute.Int("requisition.version", requisition.Version),
		))
	defer span.End()
	return record(span, r.next.Update(ctx, requisition))
}

func (r *TracingRepository) CreateIssuance(ctx context.Context, issuance *domain.Issuance) error {
	ctx, span := tracer.Start(ctx, "repository.CreateIssuance",
		trace.WithAttributes(
			attribute.Int("issuance.requisition_id", int(issuance.RequisitionID)),
			attribute.Int("issuance.batch_id", int(issuance.BatchID)),
			attribute.Int("issuance.quantity", issuance.Quantity),
		))
	defer span.End()
	return record(span, r.next.CreateIssuance(ctx, issuance))
}

func (r *TracingRepository) ListIssuances(ctx context.Context, requisitionID uint) ([]domain.Issuance, error) {
	ctx, span := tracer.Start(ctx, "repository.ListIssuances",
		trace.WithAttributes(attribute.Int("requisition.id", int(requisitionID))))
	defer span.End()
	issuances, err := r.next.ListIssuances(ctx, requisitionID)
	span.SetAttributes(attribute.Int("result.count", len(issuances)))
	return issuances, record(span, err)
}

func (r *TracingRepository) FindIssuancesByKey(ctx context.Context, idempotencyKey string) ([]domain.Issuance, error) {
	ctx, span := tracer.Start(ctx, "repository.FindIssuancesByKey")
	defer span.End()
	issuances, err := r.next.FindIssuancesByKey(ctx, idempotencyKey)
	span.SetAttributes(attribute.Int("result.count", len(issuances)))
	return issuances, record(span, err)
}

func record(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
