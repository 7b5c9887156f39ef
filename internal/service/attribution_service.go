package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nurpe/fleetops/internal/metrics"
	"github.com/nurpe/fleetops/internal/model"
	"github.com/nurpe/fleetops/internal/repository"
)

type AttributionStore interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Attribution, error)
	ListByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]model.Attribution, error)
	Create(ctx context.Context, attribution *model.Attribution) error
	UpdatePeriod(ctx context.Context, attribution *model.Attribution) error
}

type AttributionService struct {
	store   AttributionStore
	locks   *vehicleLocks
	metrics *metrics.Metrics
	log     zerolog.Logger
	now     func() time.Time
}

func NewAttributionService(store AttributionStore, m *metrics.Metrics, log zerolog.Logger) *AttributionService {
	return &AttributionService{
		store:   store,
		locks:   newVehicleLocks(),
		metrics: m,
		log:     log.With().Str("component", "attributions").Logger(),
		now:     time.Now,
	}
}

type CreateAttributionInput struct {
	VehicleID  uuid.UUID
	HolderKind model.HolderKind
	HolderID   uuid.UUID
	Role       model.AttributionRole
	DateDebut  time.Time
	LoueurID   *uuid.UUID
	Notes      string
}

// Create открывает новую атрибуцию. Существующая основная атрибуция никогда
// не закрывается неявно: пересечение возвращает ErrConflict.
func (s *AttributionService) Create(ctx context.Context, input CreateAttributionInput) (*model.Attribution, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	attribution := &model.Attribution{
		ID:         uuid.New(),
		VehicleID:  input.VehicleID,
		HolderKind: input.HolderKind,
		HolderID:   input.HolderID,
		Role:       input.Role,
		DateDebut:  model.DateOnly(input.DateDebut),
		LoueurID:   input.LoueurID,
		Notes:      strings.TrimSpace(input.Notes),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	unlock := s.locks.lock(input.VehicleID)
	defer unlock()

	if err := s.store.Create(ctx, attribution); err != nil {
		err = s.translate("create", err)
		s.log.Warn().Err(err).
			Str("vehicle_id", input.VehicleID.String()).
			Str("role", string(input.Role)).
			Msg("attribution rejected")
		return nil, err
	}
	s.metrics.IncAttributionWrite("create", "ok")

	s.log.Info().
		Str("attribution_id", attribution.ID.String()).
		Str("vehicle_id", attribution.VehicleID.String()).
		Str("role", string(attribution.Role)).
		Time("date_debut", attribution.DateDebut).
		Msg("attribution created")

	return s.reload(ctx, attribution)
}

// End закрывает атрибуцию. Повторный вызов с той же датой ничего не меняет,
// другая дата считается исправлением.
func (s *AttributionService) End(ctx context.Context, id uuid.UUID, dateFin time.Time) (*model.Attribution, error) {
	if dateFin.IsZero() {
		return nil, fmt.Errorf("%w: date_fin is required", ErrInvalidInput)
	}
	dateFin = model.DateOnly(dateFin)

	attribution, unlock, err := s.getLocked(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if dateFin.Before(attribution.DateDebut) {
		s.metrics.IncAttributionWrite("end", "invalid_range")
		return nil, fmt.Errorf("%w: date_fin %s is before date_debut %s",
			ErrInvalidRange, dateFin.Format(dateLayout), attribution.DateDebut.Format(dateLayout))
	}
	if attribution.DateFin != nil && attribution.DateFin.Equal(dateFin) {
		return attribution, nil
	}

	corrected := attribution.DateFin != nil
	attribution.DateFin = &dateFin
	attribution.UpdatedAt = s.now().UTC()
	if err := s.store.UpdatePeriod(ctx, attribution); err != nil {
		return nil, s.translate("end", err)
	}
	s.metrics.IncAttributionWrite("end", "ok")

	s.log.Info().
		Str("attribution_id", attribution.ID.String()).
		Str("vehicle_id", attribution.VehicleID.String()).
		Time("date_fin", dateFin).
		Bool("correction", corrected).
		Msg("attribution ended")

	return attribution, nil
}

// Reschedule переносит дату начала открытой атрибуции.
func (s *AttributionService) Reschedule(ctx context.Context, id uuid.UUID, dateDebut time.Time) (*model.Attribution, error) {
	if dateDebut.IsZero() {
		return nil, fmt.Errorf("%w: date_debut is required", ErrInvalidInput)
	}
	dateDebut = model.DateOnly(dateDebut)

	attribution, unlock, err := s.getLocked(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if !attribution.IsOpen() {
		s.metrics.IncAttributionWrite("reschedule", "invalid_range")
		return nil, fmt.Errorf("%w: attribution %s is closed", ErrInvalidRange, id)
	}
	if attribution.DateDebut.Equal(dateDebut) {
		return attribution, nil
	}

	attribution.DateDebut = dateDebut
	attribution.UpdatedAt = s.now().UTC()
	if err := s.store.UpdatePeriod(ctx, attribution); err != nil {
		return nil, s.translate("reschedule", err)
	}
	s.metrics.IncAttributionWrite("reschedule", "ok")

	s.log.Info().
		Str("attribution_id", attribution.ID.String()).
		Time("date_debut", dateDebut).
		Msg("attribution rescheduled")

	return attribution, nil
}

// ListCurrent возвращает действующие на сегодня атрибуции, самые свежие первыми.
func (s *AttributionService) ListCurrent(ctx context.Context, vehicleID uuid.UUID) ([]model.Attribution, error) {
	all, err := s.store.ListByVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	current := make([]model.Attribution, 0, len(all))
	for _, attribution := range all {
		if attribution.IsCurrent(now) {
			current = append(current, attribution)
		}
	}

	sort.SliceStable(current, func(i, j int) bool {
		if !current[i].DateDebut.Equal(current[j].DateDebut) {
			return current[i].DateDebut.After(current[j].DateDebut)
		}
		return current[i].CreatedAt.After(current[j].CreatedAt)
	})
	return current, nil
}

// ListHistory возвращает все атрибуции машины в хронологическом порядке.
func (s *AttributionService) ListHistory(ctx context.Context, vehicleID uuid.UUID) ([]model.Attribution, error) {
	all, err := s.store.ListByVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].DateDebut.Equal(all[j].DateDebut) {
			return all[i].DateDebut.Before(all[j].DateDebut)
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	if all == nil {
		all = []model.Attribution{}
	}
	return all, nil
}

// getLocked перечитывает атрибуцию уже под блокировкой машины.
func (s *AttributionService) getLocked(ctx context.Context, id uuid.UUID) (*model.Attribution, func(), error) {
	attribution, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, nil, s.translate("read", err)
	}

	unlock := s.locks.lock(attribution.VehicleID)
	attribution, err = s.store.Get(ctx, id)
	if err != nil {
		unlock()
		return nil, nil, s.translate("read", err)
	}
	return attribution, unlock, nil
}

func (s *AttributionService) reload(ctx context.Context, attribution *model.Attribution) (*model.Attribution, error) {
	stored, err := s.store.Get(ctx, attribution.ID)
	if err != nil {
		s.log.Warn().Err(err).Str("attribution_id", attribution.ID.String()).Msg("failed to reload attribution")
		return attribution, nil
	}
	return stored, nil
}

func (s *AttributionService) translate(operation string, err error) error {
	switch {
	case errors.Is(err, repository.ErrPrincipalOverlap):
		s.metrics.IncAttributionWrite(operation, "conflict")
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case errors.Is(err, repository.ErrReferenceNotFound):
		s.metrics.IncAttributionWrite(operation, "not_found")
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		s.metrics.IncAttributionWrite(operation, "not_found")
		return fmt.Errorf("%w: attribution or vehicle", ErrNotFound)
	default:
		s.metrics.IncAttributionWrite(operation, "error")
		return err
	}
}

func validateCreateInput(input CreateAttributionInput) error {
	switch {
	case input.VehicleID == uuid.Nil:
		return fmt.Errorf("%w: vehicle_id is required", ErrInvalidInput)
	case input.HolderID == uuid.Nil:
		return fmt.Errorf("%w: holder_id is required", ErrInvalidInput)
	case !model.ValidHolderKind(input.HolderKind):
		return fmt.Errorf("%w: unknown holder kind %q", ErrInvalidInput, input.HolderKind)
	case !model.ValidRole(input.Role):
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, input.Role)
	case input.DateDebut.IsZero():
		return fmt.Errorf("%w: date_debut is required", ErrInvalidInput)
	case input.LoueurID != nil && *input.LoueurID == uuid.Nil:
		return fmt.Errorf("%w: loueur_id is empty", ErrInvalidInput)
	}
	return nil
}

const dateLayout = "2006-01-02"
