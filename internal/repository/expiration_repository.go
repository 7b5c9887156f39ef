package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/nurpe/fleetops/internal/model"
)

type ExpirationRepository struct {
	db *gorm.DB
}

func NewExpirationRepository(db *gorm.DB) *ExpirationRepository {
	return &ExpirationRepository{db: db}
}

// ScanDocuments возвращает документы машин и профилей, истекающие в [from, to].
func (r *ExpirationRepository) ScanDocuments(ctx context.Context, from, to time.Time) ([]model.DocumentExpiry, error) {
	var rows []model.DocumentExpiry
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			d.id,
			d.owner_type,
			d.owner_id,
			CASE
				WHEN d.owner_type = 'vehicule' THEN COALESCE(v.immatriculation, '')
				ELSE TRIM(COALESCE(p.prenom, '') || ' ' || COALESCE(p.nom, ''))
			END AS owner_label,
			d.type,
			d.nom,
			d.date_expiration,
			d.statut
		FROM documents d
		LEFT JOIN vehicles v ON d.owner_type = 'vehicule' AND v.id = d.owner_id
		LEFT JOIN profiles p ON d.owner_type = 'profil' AND p.id = d.owner_id
		WHERE d.owner_type IN ('vehicule', 'profil')
			AND d.date_expiration IS NOT NULL
			AND d.date_expiration >= ?
			AND d.date_expiration <= ?
			AND COALESCE(d.statut, '') <> 'archive'
		ORDER BY d.date_expiration ASC, d.id ASC
	`, from, to).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ScanContracts возвращает CDD, заканчивающиеся в [from, to].
func (r *ExpirationRepository) ScanContracts(ctx context.Context, from, to time.Time) ([]model.ContractExpiry, error) {
	var rows []model.ContractExpiry
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			c.id,
			c.profile_id,
			TRIM(COALESCE(p.prenom, '') || ' ' || COALESCE(p.nom, '')) AS holder_name,
			COALESCE(p.matricule, '') AS matricule,
			COALESCE(p.secteur, '') AS secteur,
			c.type,
			c.date_fin
		FROM contracts c
		JOIN profiles p ON p.id = c.profile_id
		WHERE UPPER(c.type) = ?
			AND c.date_fin IS NOT NULL
			AND c.date_fin >= ?
			AND c.date_fin <= ?
		ORDER BY c.date_fin ASC, c.id ASC
	`, model.ContractTypeCDD, from, to).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ScanCandidates возвращает кандидатов вивье с точной датой в [fromDate, toDate]
// либо с месяцем в [fromMonth, toMonth].
func (r *ExpirationRepository) ScanCandidates(
	ctx context.Context,
	fromDate, toDate time.Time,
	fromMonth, toMonth string,
) ([]model.CandidateAvailability, error) {
	var rows []model.CandidateAvailability
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			id,
			nom,
			prenom,
			secteur,
			date_disponibilite,
			mois_disponibilite
		FROM candidates
		WHERE statut = ?
			AND (
				(date_disponibilite IS NOT NULL AND date_disponibilite >= ? AND date_disponibilite <= ?)
				OR (date_disponibilite IS NULL AND mois_disponibilite >= ? AND mois_disponibilite <= ?)
			)
		ORDER BY nom ASC, id ASC
	`, model.CandidateStatutVivier, fromDate, toDate, fromMonth, toMonth).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
