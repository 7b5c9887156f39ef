package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nurpe/fleetops/internal/model"
	"github.com/nurpe/fleetops/internal/severity"
)

// Scanner возвращает элементы одного домена без уровня; уровень назначает агрегатор.
type Scanner interface {
	Domain() model.AlertDomain
	Scan(ctx context.Context, now time.Time) ([]ScannedItem, error)
}

type ScannedItem struct {
	Item model.AlertItem
	Key  severity.Key
}

type DocumentSource interface {
	ScanDocuments(ctx context.Context, from, to time.Time) ([]model.DocumentExpiry, error)
}

type ContractSource interface {
	ScanContracts(ctx context.Context, from, to time.Time) ([]model.ContractExpiry, error)
}

type CandidateSource interface {
	ScanCandidates(ctx context.Context, fromDate, toDate time.Time, fromMonth, toMonth string) ([]model.CandidateAvailability, error)
}

type DocumentScanner struct {
	source       DocumentSource
	windowDays   int
	lookbackDays int
}

func NewDocumentScanner(source DocumentSource, windowDays, lookbackDays int) *DocumentScanner {
	return &DocumentScanner{source: source, windowDays: windowDays, lookbackDays: lookbackDays}
}

func (s *DocumentScanner) Domain() model.AlertDomain { return model.AlertDomainDocuments }

func (s *DocumentScanner) Scan(ctx context.Context, now time.Time) ([]ScannedItem, error) {
	today := model.DateOnly(now)
	rows, err := s.source.ScanDocuments(ctx, today.AddDate(0, 0, -s.lookbackDays), today.AddDate(0, 0, s.windowDays))
	if err != nil {
		return nil, fmt.Errorf("%w: documents: %v", ErrUpstreamUnavailable, err)
	}

	items := make([]ScannedItem, 0, len(rows))
	for _, row := range rows {
		expires := model.DateOnly(row.DateExpiration)
		remaining := daysBetween(today, expires)

		title := strings.TrimSpace(row.Nom)
		if title == "" {
			title = documentTypeLabel(row.Type)
		}

		items = append(items, ScannedItem{
			Key: severity.KeyForDocument(row.Type),
			Item: model.AlertItem{
				Domain:        model.AlertDomainDocuments,
				SubjectType:   string(row.OwnerType),
				SubjectRef:    row.OwnerID,
				SourceID:      row.ID,
				Kind:          row.Type,
				Title:         title,
				Detail:        strings.TrimSpace(row.OwnerLabel),
				ExpiresOn:     &expires,
				RemainingDays: &remaining,
			},
		})
	}
	return items, nil
}

type ContractScanner struct {
	source       ContractSource
	windowDays   int
	lookbackDays int
}

func NewContractScanner(source ContractSource, windowDays, lookbackDays int) *ContractScanner {
	return &ContractScanner{source: source, windowDays: windowDays, lookbackDays: lookbackDays}
}

func (s *ContractScanner) Domain() model.AlertDomain { return model.AlertDomainContracts }

func (s *ContractScanner) Scan(ctx context.Context, now time.Time) ([]ScannedItem, error) {
	today := model.DateOnly(now)
	rows, err := s.source.ScanContracts(ctx, today.AddDate(0, 0, -s.lookbackDays), today.AddDate(0, 0, s.windowDays))
	if err != nil {
		return nil, fmt.Errorf("%w: contracts: %v", ErrUpstreamUnavailable, err)
	}

	items := make([]ScannedItem, 0, len(rows))
	for _, row := range rows {
		ends := model.DateOnly(row.DateFin)
		remaining := daysBetween(today, ends)

		items = append(items, ScannedItem{
			Key: severity.KeyContract,
			Item: model.AlertItem{
				Domain:        model.AlertDomainContracts,
				SubjectType:   string(model.DocumentOwnerProfil),
				SubjectRef:    row.ProfileID,
				SourceID:      row.ID,
				Kind:          strings.ToUpper(row.Type),
				Title:         strings.TrimSpace(row.HolderName),
				Detail:        joinNonEmpty(" · ", row.Matricule, row.Secteur),
				ExpiresOn:     &ends,
				RemainingDays: &remaining,
			},
		})
	}
	return items, nil
}

type VivierScanner struct {
	source       CandidateSource
	windowDays   int
	monthsAhead  int
	lookbackDays int
}

func NewVivierScanner(source CandidateSource, windowDays, monthsAhead, lookbackDays int) *VivierScanner {
	return &VivierScanner{source: source, windowDays: windowDays, monthsAhead: monthsAhead, lookbackDays: lookbackDays}
}

func (s *VivierScanner) Domain() model.AlertDomain { return model.AlertDomainVivier }

func (s *VivierScanner) Scan(ctx context.Context, now time.Time) ([]ScannedItem, error) {
	today := model.DateOnly(now)
	from := today.AddDate(0, 0, -s.lookbackDays)
	thisMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)

	rows, err := s.source.ScanCandidates(ctx,
		from, today.AddDate(0, 0, s.windowDays),
		from.Format(monthLayout), thisMonth.AddDate(0, s.monthsAhead, 0).Format(monthLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: vivier: %v", ErrUpstreamUnavailable, err)
	}

	items := make([]ScannedItem, 0, len(rows))
	for _, row := range rows {
		item := model.AlertItem{
			Domain:      model.AlertDomainVivier,
			SubjectType: "candidat",
			SubjectRef:  row.ID,
			SourceID:    row.ID,
			Kind:        "disponibilite",
			Title:       joinNonEmpty(" ", row.Prenom, row.Nom),
			Detail:      strings.TrimSpace(row.Secteur),
		}

		if row.DateDisponibilite != nil {
			available := model.DateOnly(*row.DateDisponibilite)
			remaining := daysBetween(today, available)
			item.ExpiresOn = &available
			item.RemainingDays = &remaining
		} else if month, err := time.Parse(monthLayout, strings.TrimSpace(row.MoisDisponibilite)); err == nil {
			ahead := monthsBetween(today, month)
			item.AvailableMonth = month.Format(monthLayout)
			item.MonthsAhead = &ahead
			item.MonthLabel = MonthLabel(ahead)
		} else {
			item.AvailableMonth = row.MoisDisponibilite
		}

		items = append(items, ScannedItem{Key: severity.KeyVivier, Item: item})
	}
	return items, nil
}

func MonthLabel(monthsAhead int) string {
	switch {
	case monthsAhead < 0:
		return "Déjà disponible"
	case monthsAhead == 0:
		return "Ce mois-ci"
	case monthsAhead == 1:
		return "Le mois prochain"
	default:
		return fmt.Sprintf("Dans %d mois", monthsAhead)
	}
}

const monthLayout = "2006-01"

// daysBetween: оба аргумента полночь UTC.
func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

func monthsBetween(now, month time.Time) int {
	return (month.Year()-now.Year())*12 + int(month.Month()) - int(now.Month())
}

func documentTypeLabel(docType string) string {
	switch strings.ToLower(docType) {
	case model.DocumentTypeControleTechnique:
		return "Contrôle technique"
	case model.DocumentTypeAssurance:
		return "Assurance"
	default:
		return docType
	}
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, sep)
}
