package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nurpe/fleetops/internal/model"
	"github.com/nurpe/fleetops/internal/occupancy"
)

type VehicleStore interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Vehicle, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.VehicleStatus) error
	UpdateOverrides(ctx context.Context, vehicle *model.Vehicle) error
}

type VehicleService struct {
	vehicles     VehicleStore
	attributions *AttributionService
	log          zerolog.Logger
}

func NewVehicleService(vehicles VehicleStore, attributions *AttributionService, log zerolog.Logger) *VehicleService {
	return &VehicleService{
		vehicles:     vehicles,
		attributions: attributions,
		log:          log.With().Str("component", "vehicles").Logger(),
	}
}

// Occupancy вычисляется при каждом чтении и не хранится.
type Occupancy struct {
	VehicleID       uuid.UUID         `json:"vehicle_id"`
	Immatriculation string            `json:"immatriculation"`
	Statut          string            `json:"statut"`
	Locataire       occupancy.Display `json:"locataire"`
	Loueur          occupancy.Display `json:"loueur"`
}

func (s *VehicleService) Occupancy(ctx context.Context, vehicleID uuid.UUID) (*Occupancy, error) {
	vehicle, err := s.get(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	current, err := s.attributions.ListCurrent(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	return &Occupancy{
		VehicleID:       vehicle.ID,
		Immatriculation: vehicle.Immatriculation,
		Statut:          string(vehicle.Statut),
		Locataire:       occupancy.Locataire(*vehicle, current),
		Loueur:          occupancy.Loueur(*vehicle, current),
	}, nil
}

type ChangeStatusInput struct {
	Status    model.VehicleStatus
	Confirmed bool
}

// ChangeStatus меняет операционный статус. Переходы в vendu/epave и выход из них
// требуют явного подтверждения; продать или списать машину с текущим основным
// держателем нельзя.
func (s *VehicleService) ChangeStatus(ctx context.Context, vehicleID uuid.UUID, input ChangeStatusInput) (*model.Vehicle, error) {
	if !model.ValidVehicleStatus(input.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, input.Status)
	}

	vehicle, err := s.get(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if vehicle.Statut == input.Status {
		return vehicle, nil
	}

	current, err := s.attributions.ListCurrent(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	_, hasPrincipal := occupancy.CurrentPrincipal(current)

	if err := CheckStatusTransition(vehicle.Statut, input.Status, input.Confirmed, hasPrincipal); err != nil {
		return nil, err
	}

	if err := s.vehicles.UpdateStatus(ctx, vehicleID, input.Status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: vehicle %s", ErrNotFound, vehicleID)
		}
		return nil, err
	}

	s.log.Info().
		Str("vehicle_id", vehicleID.String()).
		Str("from", string(vehicle.Statut)).
		Str("to", string(input.Status)).
		Msg("vehicle status changed")

	vehicle.Statut = input.Status
	return vehicle, nil
}

func CheckStatusTransition(from, to model.VehicleStatus, confirmed, hasPrincipal bool) error {
	if !model.ValidVehicleStatus(to) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, to)
	}
	if from == to {
		return nil
	}
	if isTerminalStatus(to) && hasPrincipal {
		return fmt.Errorf("%w: vehicle still has a current principal attribution", ErrConflict)
	}
	if (isTerminalStatus(to) || isTerminalStatus(from)) && !confirmed {
		return fmt.Errorf("%w: %s -> %s", ErrConfirmationRequired, from, to)
	}
	return nil
}

func isTerminalStatus(status model.VehicleStatus) bool {
	return status == model.VehicleStatusVendu || status == model.VehicleStatusEpave
}

type OverridesInput struct {
	LocataireType     model.LocataireType
	LocataireNomLibre string
	LoueurType        model.LoueurKind
	LoueurNomExterne  string
}

// UpdateOverrides сохраняет ручные поля занятости. Они используются только когда
// у машины нет текущей основной атрибуции.
func (s *VehicleService) UpdateOverrides(ctx context.Context, vehicleID uuid.UUID, input OverridesInput) (*model.Vehicle, error) {
	input.LocataireNomLibre = strings.TrimSpace(input.LocataireNomLibre)
	input.LoueurNomExterne = strings.TrimSpace(input.LoueurNomExterne)

	if !model.ValidLocataireType(input.LocataireType) {
		return nil, fmt.Errorf("%w: unknown locataire type %q", ErrInvalidInput, input.LocataireType)
	}
	if !model.ValidLoueurKind(input.LoueurType) {
		return nil, fmt.Errorf("%w: unknown loueur type %q", ErrInvalidInput, input.LoueurType)
	}
	if input.LocataireType == model.LocataireLibre && input.LocataireNomLibre == "" {
		return nil, fmt.Errorf("%w: locataire_nom_libre is required for type libre", ErrInvalidInput)
	}
	if input.LocataireType != model.LocataireLibre {
		input.LocataireNomLibre = ""
	}
	if input.LoueurType == model.LoueurNone {
		input.LoueurNomExterne = ""
	} else if input.LoueurNomExterne == "" {
		return nil, fmt.Errorf("%w: loueur_nom_externe is required", ErrInvalidInput)
	}

	vehicle, err := s.get(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	vehicle.LocataireType = input.LocataireType
	vehicle.LocataireNomLibre = input.LocataireNomLibre
	vehicle.LoueurType = input.LoueurType
	vehicle.LoueurNomExterne = input.LoueurNomExterne

	if err := s.vehicles.UpdateOverrides(ctx, vehicle); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: vehicle %s", ErrNotFound, vehicleID)
		}
		return nil, err
	}
	return vehicle, nil
}

func (s *VehicleService) get(ctx context.Context, vehicleID uuid.UUID) (*model.Vehicle, error) {
	vehicle, err := s.vehicles.Get(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: vehicle %s", ErrNotFound, vehicleID)
		}
		return nil, err
	}
	return vehicle, nil
}
