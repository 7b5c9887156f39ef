package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nurpe/fleetops/internal/model"
)

type AttributionRepository struct {
	db *gorm.DB
}

func NewAttributionRepository(db *gorm.DB) *AttributionRepository {
	return &AttributionRepository{db: db}
}

const attributionSelect = `
	SELECT
		a.id,
		a.vehicle_id,
		a.holder_kind,
		a.holder_id,
		a.role,
		a.date_debut,
		a.date_fin,
		a.loueur_id,
		a.notes,
		a.created_at,
		a.updated_at,
		CASE
			WHEN a.holder_kind = 'profil' THEN TRIM(COALESCE(p.prenom, '') || ' ' || COALESCE(p.nom, ''))
			ELSE COALESCE(NULLIF(hl.raison_sociale, ''), TRIM(COALESCE(hl.prenom, '') || ' ' || COALESCE(hl.nom, '')))
		END AS holder_name,
		l.kind AS loueur_kind,
		l.nom AS loueur_nom,
		l.prenom AS loueur_prenom,
		l.raison_sociale AS loueur_raison_sociale,
		l.profile_id AS loueur_profile_id
	FROM attributions a
	LEFT JOIN profiles p ON a.holder_kind = 'profil' AND p.id = a.holder_id
	LEFT JOIN loueurs hl ON a.holder_kind = 'loueur' AND hl.id = a.holder_id
	LEFT JOIN loueurs l ON l.id = a.loueur_id
`

type attributionRow struct {
	ID                  uuid.UUID
	VehicleID           uuid.UUID
	HolderKind          model.HolderKind
	HolderID            uuid.UUID
	Role                model.AttributionRole
	DateDebut           time.Time
	DateFin             *time.Time
	LoueurID            *uuid.UUID
	Notes               string
	CreatedAt           time.Time
	UpdatedAt           time.Time
	HolderName          string
	LoueurKind          *string
	LoueurNom           *string
	LoueurPrenom        *string
	LoueurRaisonSociale *string
	LoueurProfileID     *uuid.UUID
}

func (row attributionRow) toModel() model.Attribution {
	attribution := model.Attribution{
		ID:         row.ID,
		VehicleID:  row.VehicleID,
		HolderKind: row.HolderKind,
		HolderID:   row.HolderID,
		Role:       row.Role,
		DateDebut:  model.DateOnly(row.DateDebut),
		LoueurID:   row.LoueurID,
		Notes:      row.Notes,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
		HolderName: row.HolderName,
	}
	if row.DateFin != nil {
		dateFin := model.DateOnly(*row.DateFin)
		attribution.DateFin = &dateFin
	}
	if row.LoueurID != nil && row.LoueurKind != nil {
		attribution.Loueur = &model.Loueur{
			ID:            *row.LoueurID,
			Kind:          model.LoueurKind(*row.LoueurKind),
			Nom:           deref(row.LoueurNom),
			Prenom:        deref(row.LoueurPrenom),
			RaisonSociale: deref(row.LoueurRaisonSociale),
			ProfileID:     row.LoueurProfileID,
		}
	}
	return attribution
}

// Get возвращает атрибуцию по ID вместе с именем держателя и арендодателем.
func (r *AttributionRepository) Get(ctx context.Context, id uuid.UUID) (*model.Attribution, error) {
	var rows []attributionRow
	if err := r.db.WithContext(ctx).Raw(attributionSelect+" WHERE a.id = ? LIMIT 1", id).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	attribution := rows[0].toModel()
	return &attribution, nil
}

// ListByVehicle возвращает все атрибуции машины в хронологическом порядке.
func (r *AttributionRepository) ListByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]model.Attribution, error) {
	var rows []attributionRow
	err := r.db.WithContext(ctx).
		Raw(attributionSelect+" WHERE a.vehicle_id = ? ORDER BY a.date_debut ASC, a.created_at ASC", vehicleID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make([]model.Attribution, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toModel())
	}
	return result, nil
}

// Create проверяет пересечение основных атрибуций и вставляет запись в одной транзакции
// под блокировкой строки машины.
func (r *AttributionRepository) Create(ctx context.Context, attribution *model.Attribution) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockVehicle(tx, attribution.VehicleID); err != nil {
			return err
		}
		if err := checkReferences(tx, attribution); err != nil {
			return err
		}
		if attribution.Role == model.RolePrincipal {
			if err := checkPrincipalOverlap(tx, attribution); err != nil {
				return err
			}
		}
		return tx.Create(attribution).Error
	})
	return translateWriteError(err)
}

// UpdatePeriod сохраняет date_debut/date_fin атрибуции.
func (r *AttributionRepository) UpdatePeriod(ctx context.Context, attribution *model.Attribution) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockVehicle(tx, attribution.VehicleID); err != nil {
			return err
		}
		if attribution.Role == model.RolePrincipal {
			if err := checkPrincipalOverlap(tx, attribution); err != nil {
				return err
			}
		}
		result := tx.Model(&model.Attribution{}).
			Where("id = ?", attribution.ID).
			Updates(map[string]interface{}{
				"date_debut": attribution.DateDebut,
				"date_fin":   attribution.DateFin,
				"updated_at": time.Now().UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return translateWriteError(err)
}

func lockVehicle(tx *gorm.DB, vehicleID uuid.UUID) error {
	query := tx.Select("id").Where("id = ?", vehicleID)
	// SQLite сериализует запись на уровне базы и не поддерживает FOR UPDATE.
	if tx.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var vehicle model.Vehicle
	return query.Take(&vehicle).Error
}

func checkReferences(tx *gorm.DB, attribution *model.Attribution) error {
	var holderTable string
	switch attribution.HolderKind {
	case model.HolderProfil:
		holderTable = model.Profile{}.TableName()
	case model.HolderLoueur:
		holderTable = model.Loueur{}.TableName()
	default:
		return fmt.Errorf("%w: holder kind %q", ErrReferenceNotFound, attribution.HolderKind)
	}
	if err := exists(tx, holderTable, attribution.HolderID); err != nil {
		return fmt.Errorf("%w: holder %s", err, attribution.HolderID)
	}
	if attribution.LoueurID != nil {
		if err := exists(tx, model.Loueur{}.TableName(), *attribution.LoueurID); err != nil {
			return fmt.Errorf("%w: loueur %s", err, *attribution.LoueurID)
		}
	}
	return nil
}

func exists(tx *gorm.DB, table string, id uuid.UUID) error {
	var count int64
	if err := tx.Table(table).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrReferenceNotFound
	}
	return nil
}

func checkPrincipalOverlap(tx *gorm.DB, attribution *model.Attribution) error {
	var principals []model.Attribution
	err := tx.
		Where("vehicle_id = ? AND role = ? AND id <> ?", attribution.VehicleID, model.RolePrincipal, attribution.ID).
		Find(&principals).Error
	if err != nil {
		return err
	}
	for _, existing := range principals {
		existing.DateDebut = model.DateOnly(existing.DateDebut)
		if existing.DateFin != nil {
			dateFin := model.DateOnly(*existing.DateFin)
			existing.DateFin = &dateFin
		}
		if existing.Overlaps(attribution.DateDebut, attribution.DateFin) {
			return fmt.Errorf("%w: attribution %s", ErrPrincipalOverlap, existing.ID)
		}
	}
	return nil
}

func translateWriteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrPrincipalOverlap, err)
	}
	return err
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
