package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Profile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Nom       string    `gorm:"size:128;not null"`
	Prenom    string    `gorm:"size:128"`
	Matricule string    `gorm:"size:32;index"`
	Secteur   string    `gorm:"size:64"`
	Email     string    `gorm:"size:255"`
	Telephone string    `gorm:"size:32"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Profile) TableName() string { return "profiles" }

func (p Profile) FullName() string {
	return joinName(p.Prenom, p.Nom)
}

// Loueur описывает сторону, сдающую машину водителю.
type Loueur struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Kind          LoueurKind `gorm:"size:32;not null"`
	Nom           string     `gorm:"size:128"`
	Prenom        string     `gorm:"size:128"`
	RaisonSociale string     `gorm:"size:255"`
	ProfileID     *uuid.UUID `gorm:"type:uuid"`
	Telephone     string     `gorm:"size:32"`
	Email         string     `gorm:"size:255"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (Loueur) TableName() string { return "loueurs" }

func (l Loueur) DisplayName() string {
	if l.Kind == LoueurEntreprise && strings.TrimSpace(l.RaisonSociale) != "" {
		return strings.TrimSpace(l.RaisonSociale)
	}
	name := joinName(l.Prenom, l.Nom)
	if name == "" {
		return strings.TrimSpace(l.RaisonSociale)
	}
	return name
}

func joinName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}
