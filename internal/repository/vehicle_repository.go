package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/fleetops/internal/model"
)

type VehicleRepository struct {
	db *gorm.DB
}

func NewVehicleRepository(db *gorm.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

func (r *VehicleRepository) Get(ctx context.Context, id uuid.UUID) (*model.Vehicle, error) {
	var vehicle model.Vehicle
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&vehicle).Error; err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// UpdateStatus меняет операционный статус машины.
func (r *VehicleRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.VehicleStatus) error {
	return r.update(ctx, id, map[string]interface{}{
		"statut": status,
	})
}

// UpdateOverrides сохраняет ручные поля locataire/loueur.
func (r *VehicleRepository) UpdateOverrides(ctx context.Context, vehicle *model.Vehicle) error {
	return r.update(ctx, vehicle.ID, map[string]interface{}{
		"locataire_type":      vehicle.LocataireType,
		"locataire_nom_libre": vehicle.LocataireNomLibre,
		"loueur_type":         vehicle.LoueurType,
		"loueur_nom_externe":  vehicle.LoueurNomExterne,
	})
}

func (r *VehicleRepository) update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&model.Vehicle{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
