package model

import (
	"time"

	"github.com/google/uuid"
)

type DocumentOwnerType string

const (
	DocumentOwnerVehicule DocumentOwnerType = "vehicule"
	DocumentOwnerProfil   DocumentOwnerType = "profil"
)

const (
	DocumentTypeControleTechnique = "controle_technique"
	DocumentTypeAssurance         = "assurance"
)

type Document struct {
	ID             uuid.UUID         `gorm:"type:uuid;primaryKey"`
	OwnerType      DocumentOwnerType `gorm:"size:16;not null;index:idx_documents_owner"`
	OwnerID        uuid.UUID         `gorm:"type:uuid;not null;index:idx_documents_owner"`
	Type           string            `gorm:"size:64;not null"`
	Nom            string            `gorm:"size:255"`
	DateExpiration *time.Time        `gorm:"type:date;index"`
	Statut         string            `gorm:"size:32"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (Document) TableName() string { return "documents" }

type DocumentExpiry struct {
	ID             uuid.UUID
	OwnerType      DocumentOwnerType
	OwnerID        uuid.UUID
	OwnerLabel     string
	Type           string
	Nom            string
	DateExpiration time.Time
	Statut         string
}
