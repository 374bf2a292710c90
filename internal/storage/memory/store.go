// Package memory is an in-process implementation of every repository and of
// database.Transactor. Transactions are serialized by a single mutex and roll back by
// restoring a snapshot taken when they begin.
package memory

import (
	"context"
	"sync"

	inspdomain "github.com/tair/field-service/internal/inspection/domain"
	invdomain "github.com/tair/field-service/internal/inventory/domain"
	jobdomain "github.com/tair/field-service/internal/job/domain"
	reqdomain "github.com/tair/field-service/internal/requisition/domain"
	"github.com/tair/field-service/pkg/database"
)

var (
	_ database.Transactor             = (*Store)(nil)
	_ invdomain.InventoryRepository   = (*InventoryRepository)(nil)
	_ jobdomain.JobRepository         = (*JobRepository)(nil)
	_ reqdomain.RequisitionRepository = (*RequisitionRepository)(nil)
	_ inspdomain.InspectionRepository = (*InspectionRepository)(nil)
)

type txKey struct{}

type state struct {
	locations     map[string]invdomain.Location
	batches       map[uint]invdomain.Batch
	records       map[uint]invdomain.InventoryRecord
	devices       map[uint]invdomain.Device
	movements     []invdomain.StockMovement
	jobs          map[uint]jobdomain.Job
	statusChanges []jobdomain.StatusChange
	requisitions  map[uint]reqdomain.Requisition
	issuances     []reqdomain.Issuance
	checklist     map[uint]inspdomain.ChecklistItem
	inspections   map[uint]inspdomain.Record
	revisions     []inspdomain.Revision
	seq           map[string]uint
}

func newState() *state {
	return &state{
		locations:    make(map[string]invdomain.Location),
		batches:      make(map[uint]invdomain.Batch),
		records:      make(map[uint]invdomain.InventoryRecord),
		devices:      make(map[uint]invdomain.Device),
		jobs:         make(map[uint]jobdomain.Job),
		requisitions: make(map[uint]reqdomain.Requisition),
		checklist:    make(map[uint]inspdomain.ChecklistItem),
		inspections:  make(map[uint]inspdomain.Record),
		seq:          make(map[string]uint),
	}
}

// snapshot copies the maps. Stored values are never mutated in place, so a shallow copy
// of each map is enough to restore them; append-only slices are restored by length.
func (s *state) snapshot() *state {
	return &state{
		locations:     copyMap(s.locations),
		batches:       copyMap(s.batches),
		records:       copyMap(s.records),
		devices:       copyMap(s.devices),
		movements:     s.movements[:len(s.movements):len(s.movements)],
		jobs:          copyMap(s.jobs),
		statusChanges: s.statusChanges[:len(s.statusChanges):len(s.statusChanges)],
		requisitions:  copyMap(s.requisitions),
		issuances:     s.issuances[:len(s.issuances):len(s.issuances)],
		checklist:     copyMap(s.checklist),
		inspections:   copyMap(s.inspections),
		revisions:     s.revisions[:len(s.revisions):len(s.revisions)],
		seq:           copyMap(s.seq),
	}
}

func (s *state) nextID(table string) uint {
	s.seq[table]++
	return s.seq[table]
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Store holds all data in memory
type Store struct {
	mu sync.Mutex
	st *state
}

// New creates an empty store
func New() *Store {
	return &Store{st: newState()}
}

// WithinTransaction runs fn atomically, joining an outer transaction if present
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) == s {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	saved := s.st.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.st = saved
		return err
	}
	return nil
}

// do runs fn against the state, taking the lock unless ctx already holds it
func (s *Store) do(ctx context.Context, fn func(st *state) error) error {
	if ctx.Value(txKey{}) == s {
		return fn(s.st)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

// Inventory returns the inventory repository view
func (s *Store) Inventory() *InventoryRepository {
	return &InventoryRepository{store: s}
}

// Jobs returns the job repository view
func (s *Store) Jobs() *JobRepository {
	return &JobRepository{store: s}
}

// Requisitions returns the requisition repository view
func (s *Store) Requisitions() *RequisitionRepository {
	return &RequisitionRepository{store: s}
}

// Inspections returns the inspection repository view
func (s *Store) Inspections() *InspectionRepository {
	return &InspectionRepository{store: s}
}

func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
