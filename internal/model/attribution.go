package model

import (
	"time"

	"github.com/google/uuid"
)

type AttributionRole string

const (
	RolePrincipal AttributionRole = "principal"
	RoleSecondary AttributionRole = "secondary"
)

type HolderKind string

const (
	HolderProfil HolderKind = "profil"
	HolderLoueur HolderKind = "loueur"
)

// Attribution закрепляет машину за держателем на интервал дней [DateDebut, DateFin].
// DateFin == nil означает открытую атрибуцию. Закрытые записи не удаляются.
type Attribution struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	VehicleID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	HolderKind HolderKind      `gorm:"size:16;not null"`
	HolderID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Role       AttributionRole `gorm:"size:16;not null"`
	DateDebut  time.Time       `gorm:"type:date;not null"`
	DateFin    *time.Time      `gorm:"type:date"`
	LoueurID   *uuid.UUID      `gorm:"type:uuid"`
	Notes      string          `gorm:"type:text"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	HolderName string  `gorm:"-"`
	Loueur     *Loueur `gorm:"-"`
}

func (Attribution) TableName() string { return "attributions" }

func (a Attribution) IsOpen() bool {
	return a.DateFin == nil
}

// IsCurrent сравнивает по календарным дням: атрибуция, заканчивающаяся сегодня, ещё действует.
func (a Attribution) IsCurrent(now time.Time) bool {
	today := DateOnly(now)
	if a.DateDebut.After(today) {
		return false
	}
	return a.DateFin == nil || !a.DateFin.Before(today)
}

// Overlaps проверяет общий день с [from, to]; to == nil означает открытый интервал.
func (a Attribution) Overlaps(from time.Time, to *time.Time) bool {
	if to != nil && a.DateDebut.After(*to) {
		return false
	}
	return a.DateFin == nil || !a.DateFin.Before(from)
}

func ValidRole(role AttributionRole) bool {
	return role == RolePrincipal || role == RoleSecondary
}

func ValidHolderKind(kind HolderKind) bool {
	return kind == HolderProfil || kind == HolderLoueur
}

func DateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
