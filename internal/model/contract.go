package model

import (
	"time"

	"github.com/google/uuid"
)

const ContractTypeCDD = "CDD"

type Contract struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ProfileID uuid.UUID  `gorm:"type:uuid;not null;index"`
	Type      string     `gorm:"size:16;not null"`
	DateDebut time.Time  `gorm:"type:date;not null"`
	DateFin   *time.Time `gorm:"type:date;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Contract) TableName() string { return "contracts" }

type ContractExpiry struct {
	ID         uuid.UUID
	ProfileID  uuid.UUID
	HolderName string
	Matricule  string
	Secteur    string
	Type       string
	DateFin    time.Time
}
