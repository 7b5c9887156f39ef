package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type AlertDomain string

const (
	AlertDomainDocuments AlertDomain = "documents"
	AlertDomainContracts AlertDomain = "contracts"
	AlertDomainVivier    AlertDomain = "vivier"
)

// AlertDomains задаёт порядок групп в ленте.
var AlertDomains = []AlertDomain{AlertDomainDocuments, AlertDomainContracts, AlertDomainVivier}

func ParseAlertDomain(raw string) (AlertDomain, bool) {
	domain := AlertDomain(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range AlertDomains {
		if domain == known {
			return domain, true
		}
	}
	return "", false
}

// DomainRank возвращает позицию домена в ленте; неизвестные домены идут последними.
func DomainRank(domain AlertDomain) int {
	for i, known := range AlertDomains {
		if known == domain {
			return i
		}
	}
	return len(AlertDomains)
}

type SeverityTier string

const (
	SeverityCritical      SeverityTier = "critical"
	SeverityWarning       SeverityTier = "warning"
	SeverityCaution       SeverityTier = "caution"
	SeverityInformational SeverityTier = "informational"
)

// SeverityRank: меньше значит серьёзнее.
func SeverityRank(tier SeverityTier) int {
	switch tier {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	case SeverityCaution:
		return 2
	default:
		return 3
	}
}

type AlertItem struct {
	Domain         AlertDomain  `json:"domain"`
	SubjectType    string       `json:"subject_type"`
	SubjectRef     uuid.UUID    `json:"subject_ref"`
	SourceID       uuid.UUID    `json:"source_id"`
	Kind           string       `json:"kind"`
	Title          string       `json:"title"`
	Detail         string       `json:"detail,omitempty"`
	ExpiresOn      *time.Time   `json:"expires_on,omitempty"`
	AvailableMonth string       `json:"available_month,omitempty"`
	RemainingDays  *int         `json:"remaining_days"`
	MonthsAhead    *int         `json:"months_ahead,omitempty"`
	MonthLabel     string       `json:"month_label,omitempty"`
	Severity       SeverityTier `json:"severity"`
	Expired        bool         `json:"expired"`
}

type AlertFeed struct {
	Items           []AlertItem          `json:"items"`
	PartialFailures []AlertDomain        `json:"partial_failures"`
	Counts          map[SeverityTier]int `json:"counts"`
	GeneratedAt     time.Time            `json:"generated_at"`
}
