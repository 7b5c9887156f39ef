package model

import (
	"time"

	"github.com/google/uuid"
)

const CandidateStatutVivier = "vivier"

// Candidate: доступность задаётся точной датой либо только месяцем (YYYY-MM).
type Candidate struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Nom               string     `gorm:"size:128;not null"`
	Prenom            string     `gorm:"size:128"`
	Secteur           string     `gorm:"size:64"`
	Telephone         string     `gorm:"size:32"`
	Statut            string     `gorm:"size:32;index"`
	DateDisponibilite *time.Time `gorm:"type:date"`
	MoisDisponibilite string     `gorm:"size:7"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (Candidate) TableName() string { return "candidates" }

type CandidateAvailability struct {
	ID                uuid.UUID
	Nom               string
	Prenom            string
	Secteur           string
	DateDisponibilite *time.Time
	MoisDisponibilite string
}
