package model

import (
	"time"

	"github.com/google/uuid"
)

type VehicleStatus string

const (
	VehicleStatusActif       VehicleStatus = "actif"
	VehicleStatusMaintenance VehicleStatus = "maintenance"
	VehicleStatusImmobilise  VehicleStatus = "immobilise"
	VehicleStatusVendu       VehicleStatus = "vendu"
	VehicleStatusEpave       VehicleStatus = "epave"
)

// LocataireType задаёт ручное указание занятости машины, когда нет текущей основной атрибуции.
type LocataireType string

const (
	LocataireNone    LocataireType = ""
	LocataireSurParc LocataireType = "sur_parc"
	LocataireEpave   LocataireType = "epave"
	LocataireVendu   LocataireType = "vendu"
	LocataireLibre   LocataireType = "libre"
)

type LoueurKind string

const (
	LoueurNone            LoueurKind = ""
	LoueurChauffeurTCA    LoueurKind = "chauffeur_tca"
	LoueurEntreprise      LoueurKind = "entreprise"
	LoueurPersonneExterne LoueurKind = "personne_externe"
)

type Vehicle struct {
	ID                     uuid.UUID     `gorm:"type:uuid;primaryKey"`
	Immatriculation        string        `gorm:"size:32;uniqueIndex;not null"`
	Marque                 string        `gorm:"size:64"`
	Modele                 string        `gorm:"size:64"`
	Statut                 VehicleStatus `gorm:"size:32;not null"`
	LocataireType          LocataireType `gorm:"size:32"`
	LocataireNomLibre      string        `gorm:"size:255"`
	LoueurType             LoueurKind    `gorm:"size:32"`
	LoueurNomExterne       string        `gorm:"size:255"`
	ProprietaireCarteGrise string        `gorm:"size:255"`
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

func (Vehicle) TableName() string { return "vehicles" }

func ValidVehicleStatus(status VehicleStatus) bool {
	switch status {
	case VehicleStatusActif, VehicleStatusMaintenance, VehicleStatusImmobilise, VehicleStatusVendu, VehicleStatusEpave:
		return true
	}
	return false
}

func ValidLocataireType(t LocataireType) bool {
	switch t {
	case LocataireNone, LocataireSurParc, LocataireEpave, LocataireVendu, LocataireLibre:
		return true
	}
	return false
}

func ValidLoueurKind(k LoueurKind) bool {
	switch k {
	case LoueurNone, LoueurChauffeurTCA, LoueurEntreprise, LoueurPersonneExterne:
		return true
	}
	return false
}
