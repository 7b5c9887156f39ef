package occupancy

import (
	"strings"

	"github.com/nurpe/fleetops/internal/model"
)

type Category string

const (
	CategoryPrincipalDriver Category = "principal-driver"
	CategorySurParc         Category = "sur_parc"
	CategoryEpave           Category = "epave"
	CategoryVendu           Category = "vendu"
	CategoryLibre           Category = "libre"
	CategoryChauffeurTCA    Category = "chauffeur_tca"
	CategoryEntreprise      Category = "entreprise"
	CategoryPersonneExterne Category = "personne_externe"
	CategoryNone            Category = "none"
)

const (
	LabelNonDefini = "Non défini"
	LabelNoLoueur  = "-"
)

var locataireLabels = map[model.LocataireType]Display{
	model.LocataireSurParc: {Label: "Sur parc", Category: CategorySurParc},
	model.LocataireEpave:   {Label: "Épave", Category: CategoryEpave},
	model.LocataireVendu:   {Label: "Vendu", Category: CategoryVendu},
}

type Display struct {
	Label    string   `json:"label"`
	Category Category `json:"category"`
}

// Locataire: текущий основной держатель, иначе ручное указание машины.
func Locataire(vehicle model.Vehicle, current []model.Attribution) Display {
	if principal, ok := CurrentPrincipal(current); ok {
		return Display{Label: holderLabel(principal), Category: CategoryPrincipalDriver}
	}

	if display, ok := locataireLabels[vehicle.LocataireType]; ok {
		return display
	}
	if vehicle.LocataireType == model.LocataireLibre {
		if name := strings.TrimSpace(vehicle.LocataireNomLibre); name != "" {
			return Display{Label: name, Category: CategoryLibre}
		}
	}
	return Display{Label: LabelNonDefini, Category: CategoryNone}
}

func Loueur(vehicle model.Vehicle, current []model.Attribution) Display {
	if principal, ok := CurrentPrincipal(current); ok && principal.Loueur != nil {
		if label := principal.Loueur.DisplayName(); label != "" {
			return Display{Label: label, Category: loueurCategory(*principal.Loueur)}
		}
	}

	if name := strings.TrimSpace(vehicle.LoueurNomExterne); name != "" {
		return Display{Label: name, Category: manualLoueurCategory(vehicle.LoueurType)}
	}
	return Display{Label: LabelNoLoueur, Category: CategoryNone}
}

// CurrentPrincipal: при нескольких основных побеждает самая поздняя дата начала.
func CurrentPrincipal(current []model.Attribution) (model.Attribution, bool) {
	var (
		found  model.Attribution
		exists bool
	)
	for _, attribution := range current {
		if attribution.Role != model.RolePrincipal {
			continue
		}
		if !exists || attribution.DateDebut.After(found.DateDebut) {
			found = attribution
			exists = true
		}
	}
	return found, exists
}

func holderLabel(attribution model.Attribution) string {
	if name := strings.TrimSpace(attribution.HolderName); name != "" {
		return name
	}
	return attribution.HolderID.String()
}

func loueurCategory(loueur model.Loueur) Category {
	switch {
	case loueur.Kind == model.LoueurChauffeurTCA || loueur.ProfileID != nil:
		return CategoryChauffeurTCA
	case loueur.Kind == model.LoueurEntreprise:
		return CategoryEntreprise
	default:
		return CategoryPersonneExterne
	}
}

func manualLoueurCategory(kind model.LoueurKind) Category {
	switch kind {
	case model.LoueurChauffeurTCA:
		return CategoryChauffeurTCA
	case model.LoueurEntreprise:
		return CategoryEntreprise
	default:
		return CategoryPersonneExterne
	}
}
