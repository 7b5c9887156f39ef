package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nurpe/fleetops/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

var domainSheets = map[model.AlertDomain]string{
	model.AlertDomainDocuments: "Documents",
	model.AlertDomainContracts: "Contrats CDD",
	model.AlertDomainVivier:    "Vivier",
}

var tierLabels = map[model.SeverityTier]string{
	model.SeverityCritical:      "Critique",
	model.SeverityWarning:       "Alerte",
	model.SeverityCaution:       "Vigilance",
	model.SeverityInformational: "Information",
}

// Generate выгружает ленту оповещений в xlsx: сводный лист и по листу на домен.
// Порядок строк совпадает с порядком ленты.
func (g *Generator) Generate(feed model.AlertFeed) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	summarySheet := "Synthèse"
	if err := file.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	g.writeSummary(file, summarySheet, feed)

	grouped := make(map[model.AlertDomain][]model.AlertItem)
	for _, item := range feed.Items {
		grouped[item.Domain] = append(grouped[item.Domain], item)
	}

	for _, domain := range model.AlertDomains {
		items, ok := grouped[domain]
		if !ok {
			continue
		}
		sheet := domainSheets[domain]
		if _, err := file.NewSheet(sheet); err != nil {
			return nil, err
		}
		g.writeDetail(file, sheet, domain, items)
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, feed model.AlertFeed) {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Généré le")
	set("B1", formatDateTime(feed.GeneratedAt))
	set("A2", "Nombre d'alertes")
	set("B2", len(feed.Items))

	row := 4
	set(fmt.Sprintf("A%d", row), "Niveau")
	set(fmt.Sprintf("B%d", row), "Nombre")
	for _, tier := range []model.SeverityTier{
		model.SeverityCritical,
		model.SeverityWarning,
		model.SeverityCaution,
		model.SeverityInformational,
	} {
		row++
		set(fmt.Sprintf("A%d", row), tierLabels[tier])
		set(fmt.Sprintf("B%d", row), feed.Counts[tier])
	}

	if len(feed.PartialFailures) > 0 {
		row += 2
		set(fmt.Sprintf("A%d", row), "Domaines indisponibles")
		for i, domain := range feed.PartialFailures {
			set(fmt.Sprintf("B%d", row+i), domainSheets[domain])
		}
	}

	_ = file.SetColWidth(sheet, "A", "A", 28)
	_ = file.SetColWidth(sheet, "B", "B", 20)
}

func (g *Generator) writeDetail(file *excelize.File, sheet string, domain model.AlertDomain, items []model.AlertItem) {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{"Niveau", "Intitulé", "Détail", "Type", "Échéance", "Jours restants"}
	if domain == model.AlertDomainVivier {
		headers[4] = "Disponibilité"
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		set(cell, header)
	}

	for i, item := range items {
		row := i + 2
		set(fmt.Sprintf("A%d", row), tierLabels[item.Severity])
		set(fmt.Sprintf("B%d", row), item.Title)
		set(fmt.Sprintf("C%d", row), item.Detail)
		set(fmt.Sprintf("D%d", row), item.Kind)
		set(fmt.Sprintf("E%d", row), dueLabel(item))
		if item.RemainingDays != nil {
			set(fmt.Sprintf("F%d", row), *item.RemainingDays)
		}
	}

	_ = file.SetColWidth(sheet, "A", "A", 14)
	_ = file.SetColWidth(sheet, "B", "C", 32)
	_ = file.SetColWidth(sheet, "D", "D", 20)
	_ = file.SetColWidth(sheet, "E", "F", 16)
}

func dueLabel(item model.AlertItem) string {
	if item.ExpiresOn != nil {
		return formatDate(*item.ExpiresOn)
	}
	if item.MonthLabel != "" {
		return fmt.Sprintf("%s (%s)", item.AvailableMonth, item.MonthLabel)
	}
	return item.AvailableMonth
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}
