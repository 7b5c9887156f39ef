package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nurpe/fleetops/internal/model"
	"github.com/nurpe/fleetops/internal/repository"
)

func day(s string) time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func fixedClock(s string) func() time.Time {
	t := day(s).Add(10 * time.Hour)
	return func() time.Time { return t }
}

// memoryAttributionStore повторяет правила пересечений gorm-репозитория.
type memoryAttributionStore struct {
	mu       sync.Mutex
	vehicles map[uuid.UUID]bool
	items    map[uuid.UUID]model.Attribution
	seq      int
}

func newMemoryAttributionStore(vehicles ...uuid.UUID) *memoryAttributionStore {
	store := &memoryAttributionStore{
		vehicles: make(map[uuid.UUID]bool),
		items:    make(map[uuid.UUID]model.Attribution),
	}
	for _, id := range vehicles {
		store.vehicles[id] = true
	}
	return store
}

func (m *memoryAttributionStore) Get(_ context.Context, id uuid.UUID) (*model.Attribution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	attribution, ok := m.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &attribution, nil
}

func (m *memoryAttributionStore) ListByVehicle(_ context.Context, vehicleID uuid.UUID) ([]model.Attribution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var list []model.Attribution
	for _, attribution := range m.items {
		if attribution.VehicleID == vehicleID {
			list = append(list, attribution)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID.String() < list[j].ID.String() })
	return list, nil
}

func (m *memoryAttributionStore) Create(_ context.Context, attribution *model.Attribution) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.vehicles[attribution.VehicleID] {
		return gorm.ErrRecordNotFound
	}
	if err := m.checkOverlap(attribution); err != nil {
		return err
	}
	m.seq++
	attribution.CreatedAt = attribution.CreatedAt.Add(time.Duration(m.seq) * time.Millisecond)
	m.items[attribution.ID] = *attribution
	return nil
}

func (m *memoryAttributionStore) UpdatePeriod(_ context.Context, attribution *model.Attribution) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.items[attribution.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if err := m.checkOverlap(attribution); err != nil {
		return err
	}
	stored.DateDebut = attribution.DateDebut
	stored.DateFin = attribution.DateFin
	stored.UpdatedAt = attribution.UpdatedAt
	m.items[attribution.ID] = stored
	return nil
}

func (m *memoryAttributionStore) checkOverlap(attribution *model.Attribution) error {
	if attribution.Role != model.RolePrincipal {
		return nil
	}
	for _, other := range m.items {
		if other.ID == attribution.ID || other.VehicleID != attribution.VehicleID || other.Role != model.RolePrincipal {
			continue
		}
		if other.Overlaps(attribution.DateDebut, attribution.DateFin) {
			return repository.ErrPrincipalOverlap
		}
	}
	return nil
}

type memoryVehicleStore struct {
	mu       sync.Mutex
	vehicles map[uuid.UUID]model.Vehicle
}

func newMemoryVehicleStore(vehicles ...model.Vehicle) *memoryVehicleStore {
	store := &memoryVehicleStore{vehicles: make(map[uuid.UUID]model.Vehicle)}
	for _, vehicle := range vehicles {
		store.vehicles[vehicle.ID] = vehicle
	}
	return store
}

func (m *memoryVehicleStore) Get(_ context.Context, id uuid.UUID) (*model.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	vehicle, ok := m.vehicles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &vehicle, nil
}

func (m *memoryVehicleStore) UpdateStatus(_ context.Context, id uuid.UUID, status model.VehicleStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	vehicle, ok := m.vehicles[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	vehicle.Statut = status
	m.vehicles[id] = vehicle
	return nil
}

func (m *memoryVehicleStore) UpdateOverrides(_ context.Context, updated *model.Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.vehicles[updated.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.vehicles[updated.ID] = *updated
	return nil
}

func newTestAttributionService(store AttributionStore, today string) *AttributionService {
	svc := NewAttributionService(store, nil, zerolog.Nop())
	svc.now = fixedClock(today)
	return svc
}
