package http

import (
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/fleetops/internal/model"
)

type loueurResponse struct {
	ID    uuid.UUID        `json:"id"`
	Kind  model.LoueurKind `json:"kind"`
	Label string           `json:"label"`
}

type attributionResponse struct {
	ID         uuid.UUID             `json:"id"`
	VehicleID  uuid.UUID             `json:"vehicle_id"`
	HolderKind model.HolderKind      `json:"holder_kind"`
	HolderID   uuid.UUID             `json:"holder_id"`
	HolderName string                `json:"holder_name,omitempty"`
	Role       model.AttributionRole `json:"role"`
	DateDebut  string                `json:"date_debut"`
	DateFin    *string               `json:"date_fin"`
	Loueur     *loueurResponse       `json:"loueur,omitempty"`
	Notes      string                `json:"notes,omitempty"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

func toAttributionResponse(a model.Attribution) attributionResponse {
	response := attributionResponse{
		ID:         a.ID,
		VehicleID:  a.VehicleID,
		HolderKind: a.HolderKind,
		HolderID:   a.HolderID,
		HolderName: a.HolderName,
		Role:       a.Role,
		DateDebut:  a.DateDebut.Format("2006-01-02"),
		Notes:      a.Notes,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
	if a.DateFin != nil {
		end := a.DateFin.Format("2006-01-02")
		response.DateFin = &end
	}
	if a.Loueur != nil {
		response.Loueur = &loueurResponse{
			ID:    a.Loueur.ID,
			Kind:  a.Loueur.Kind,
			Label: a.Loueur.DisplayName(),
		}
	}
	return response
}

type vehicleResponse struct {
	ID                uuid.UUID           `json:"id"`
	Immatriculation   string              `json:"immatriculation"`
	Marque            string              `json:"marque,omitempty"`
	Modele            string              `json:"modele,omitempty"`
	Statut            model.VehicleStatus `json:"statut"`
	LocataireType     model.LocataireType `json:"locataire_type"`
	LocataireNomLibre string              `json:"locataire_nom_libre,omitempty"`
	LoueurType        model.LoueurKind    `json:"loueur_type"`
	LoueurNomExterne  string              `json:"loueur_nom_externe,omitempty"`
}

func toVehicleResponse(v model.Vehicle) vehicleResponse {
	return vehicleResponse{
		ID:                v.ID,
		Immatriculation:   v.Immatriculation,
		Marque:            v.Marque,
		Modele:            v.Modele,
		Statut:            v.Statut,
		LocataireType:     v.LocataireType,
		LocataireNomLibre: v.LocataireNomLibre,
		LoueurType:        v.LoueurType,
		LoueurNomExterne:  v.LoueurNomExterne,
	}
}
