package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/nurpe/fleetops/internal/model"
)

// Выполняются после AutoMigrate; SQL должен работать и в PostgreSQL, и в SQLite.
var migrationStatements = []string{
	// Не более одной открытой основной атрибуции на машину.
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_attributions_open_principal
		ON attributions (vehicle_id)
		WHERE role = 'principal' AND date_fin IS NULL;`,
	`CREATE INDEX IF NOT EXISTS idx_attributions_vehicle_debut ON attributions (vehicle_id, date_debut);`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_type_fin ON contracts (type, date_fin) WHERE date_fin IS NOT NULL;`,
	`CREATE INDEX IF NOT EXISTS idx_candidates_disponibilite ON candidates (statut, date_disponibilite, mois_disponibilite);`,
}

func Migrate(database *gorm.DB) error {
	if err := database.AutoMigrate(
		&model.Vehicle{},
		&model.Profile{},
		&model.Loueur{},
		&model.Attribution{},
		&model.Document{},
		&model.Contract{},
		&model.Candidate{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}

	for i, stmt := range migrationStatements {
		if err := database.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
