package severity

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nurpe/fleetops/internal/model"
)

type Key string

const (
	KeyDocument    Key = "document"
	KeyCTAssurance Key = "ct_assurance"
	KeyContract    Key = "contract"
	KeyVivier      Key = "vivier"
)

var Keys = []Key{KeyDocument, KeyCTAssurance, KeyContract, KeyVivier}

// Bound: включительная верхняя граница в днях.
type Bound struct {
	Tier    model.SeverityTier
	MaxDays int
}

// Thresholds упорядочены от самого серьёзного уровня; дальше последней границы informational.
type Thresholds []Bound

type Table map[Key]Thresholds

func DefaultTable() Table {
	return Table{
		KeyDocument:    {{model.SeverityCritical, 7}, {model.SeverityWarning, 30}, {model.SeverityCaution, 45}},
		KeyCTAssurance: {{model.SeverityCritical, 7}, {model.SeverityWarning, 30}, {model.SeverityCaution, 60}},
		KeyContract:    {{model.SeverityCritical, 7}, {model.SeverityWarning, 15}, {model.SeverityCaution, 30}},
		KeyVivier:      {{model.SeverityCritical, 7}, {model.SeverityWarning, 15}},
	}
}

func KeyForDocument(docType string) Key {
	switch strings.ToLower(strings.TrimSpace(docType)) {
	case model.DocumentTypeControleTechnique, model.DocumentTypeAssurance:
		return KeyCTAssurance
	default:
		return KeyDocument
	}
}

// Classify: просроченное (отрицательные дни) считается critical.
func (t Table) Classify(key Key, remainingDays int) model.SeverityTier {
	if remainingDays < 0 {
		return model.SeverityCritical
	}
	for _, bound := range t[key] {
		if remainingDays <= bound.MaxDays {
			return bound.Tier
		}
	}
	return model.SeverityInformational
}

// ClassifyMonth: текущий или прошедший месяц warning, следующий caution (если есть в строке),
// дальше informational.
func (t Table) ClassifyMonth(key Key, monthsAhead int) model.SeverityTier {
	row := t[key]
	switch {
	case monthsAhead <= 0:
		if row.has(model.SeverityWarning) {
			return model.SeverityWarning
		}
		if len(row) > 0 {
			return row[len(row)-1].Tier
		}
		return model.SeverityInformational
	case monthsAhead == 1 && row.has(model.SeverityCaution):
		return model.SeverityCaution
	default:
		return model.SeverityInformational
	}
}

func (th Thresholds) has(tier model.SeverityTier) bool {
	for _, bound := range th {
		if bound.Tier == tier {
			return true
		}
	}
	return false
}

func (t Table) Validate() error {
	for key, row := range t {
		if err := row.validate(); err != nil {
			return fmt.Errorf("thresholds %s: %w", key, err)
		}
	}
	return nil
}

func (th Thresholds) validate() error {
	for i, bound := range th {
		if bound.Tier == model.SeverityInformational {
			return fmt.Errorf("informational tier cannot have a bound")
		}
		if bound.MaxDays < 0 {
			return fmt.Errorf("negative bound %d", bound.MaxDays)
		}
		if i == 0 {
			continue
		}
		prev := th[i-1]
		if bound.MaxDays <= prev.MaxDays {
			return fmt.Errorf("bound %d must be greater than %d", bound.MaxDays, prev.MaxDays)
		}
		if model.SeverityRank(bound.Tier) <= model.SeverityRank(prev.Tier) {
			return fmt.Errorf("tier %s must be less severe than %s", bound.Tier, prev.Tier)
		}
	}
	return nil
}

var tierOrder = []model.SeverityTier{model.SeverityCritical, model.SeverityWarning, model.SeverityCaution}

// ParseThresholds читает "7,30,45" как critical ≤7, warning ≤30, caution ≤45.
func ParseThresholds(raw string) (Thresholds, error) {
	parts := strings.Split(strings.TrimSpace(raw), ",")
	if len(parts) == 0 || len(parts) > len(tierOrder) {
		return nil, fmt.Errorf("expected 1 to %d bounds, got %q", len(tierOrder), raw)
	}
	result := make(Thresholds, 0, len(parts))
	for i, part := range parts {
		days, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid bound %q: %w", part, err)
		}
		result = append(result, Bound{Tier: tierOrder[i], MaxDays: days})
	}
	if err := result.validate(); err != nil {
		return nil, err
	}
	return result, nil
}
