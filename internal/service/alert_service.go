package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/nurpe/fleetops/internal/metrics"
	"github.com/nurpe/fleetops/internal/model"
	"github.com/nurpe/fleetops/internal/severity"
)

type FeedRenderer interface {
	Generate(feed model.AlertFeed) ([]byte, error)
}

type ExportResult struct {
	FileName string
	Content  []byte
}

type AlertService struct {
	scanners []Scanner
	table    severity.Table
	renderer FeedRenderer
	metrics  *metrics.Metrics
	log      zerolog.Logger
	now      func() time.Time
}

func NewAlertService(
	scanners []Scanner,
	table severity.Table,
	renderer FeedRenderer,
	m *metrics.Metrics,
	log zerolog.Logger,
) *AlertService {
	return &AlertService{
		scanners: scanners,
		table:    table,
		renderer: renderer,
		metrics:  m,
		log:      log.With().Str("component", "alerts").Logger(),
		now:      time.Now,
	}
}

// ParseDomains: пустой фильтр выбирает все домены.
func ParseDomains(raw []string) ([]model.AlertDomain, error) {
	domains := make([]model.AlertDomain, 0, len(raw))
	for _, value := range raw {
		domain, ok := model.ParseAlertDomain(value)
		if !ok {
			return nil, fmt.Errorf("%w: unknown alert domain %q", ErrInvalidInput, value)
		}
		domains = append(domains, domain)
	}
	return domains, nil
}

// Aggregate запускает сканеры выбранных доменов параллельно и собирает единую ленту.
// Ошибка одного сканера не отменяет остальные: домен попадает в PartialFailures.
func (s *AlertService) Aggregate(ctx context.Context, domains ...model.AlertDomain) (*model.AlertFeed, error) {
	selected, err := s.selectScanners(domains)
	if err != nil {
		return nil, err
	}

	now := s.now()
	results := make([][]ScannedItem, len(selected))
	failed := make([]bool, len(selected))

	var g errgroup.Group
	for i, scanner := range selected {
		g.Go(func() error {
			items, err := s.runScan(ctx, scanner, now)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				s.log.Warn().Err(err).Str("domain", string(scanner.Domain())).Msg("alert scan failed")
				failed[i] = true
				return nil
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	feed := &model.AlertFeed{
		Items:           []model.AlertItem{},
		PartialFailures: []model.AlertDomain{},
		Counts:          make(map[model.SeverityTier]int),
		GeneratedAt:     now.UTC(),
	}
	for i, scanner := range selected {
		if failed[i] {
			feed.PartialFailures = append(feed.PartialFailures, scanner.Domain())
			continue
		}
		for _, scanned := range results[i] {
			item := s.classify(scanned)
			feed.Items = append(feed.Items, item)
			feed.Counts[item.Severity]++
		}
	}
	SortAlertItems(feed.Items)

	if len(domains) == 0 {
		counts := make(map[string]int, len(severityTiers))
		for _, tier := range severityTiers {
			counts[string(tier)] = feed.Counts[tier]
		}
		s.metrics.SetAlertItems(counts)
	}

	s.log.Debug().
		Int("items", len(feed.Items)).
		Int("partial_failures", len(feed.PartialFailures)).
		Msg("alert feed aggregated")

	return feed, nil
}

// runScan превращает панику сканера в ошибку его домена.
func (s *AlertService) runScan(ctx context.Context, scanner Scanner, now time.Time) (items []ScannedItem, err error) {
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			items = nil
			err = fmt.Errorf("%w: %s scanner panicked: %v", ErrUpstreamUnavailable, scanner.Domain(), r)
		}
		s.metrics.ObserveScan(string(scanner.Domain()), time.Since(started), err != nil)
	}()

	return scanner.Scan(ctx, now)
}

var severityTiers = []model.SeverityTier{
	model.SeverityCritical,
	model.SeverityWarning,
	model.SeverityCaution,
	model.SeverityInformational,
}

func (s *AlertService) Export(ctx context.Context, domains ...model.AlertDomain) (*ExportResult, error) {
	if s.renderer == nil {
		return nil, fmt.Errorf("alert export is not configured")
	}

	feed, err := s.Aggregate(ctx, domains...)
	if err != nil {
		return nil, err
	}

	content, err := s.renderer.Generate(*feed)
	if err != nil {
		return nil, fmt.Errorf("render alert feed: %w", err)
	}

	return &ExportResult{
		FileName: fmt.Sprintf("alertes_%s.xlsx", feed.GeneratedAt.Format("2006-01-02")),
		Content:  content,
	}, nil
}

func (s *AlertService) selectScanners(domains []model.AlertDomain) ([]Scanner, error) {
	if len(domains) == 0 {
		return s.scanners, nil
	}

	wanted := make(map[model.AlertDomain]bool, len(domains))
	for _, domain := range domains {
		if model.DomainRank(domain) == len(model.AlertDomains) {
			return nil, fmt.Errorf("%w: unknown alert domain %q", ErrInvalidInput, domain)
		}
		wanted[domain] = true
	}

	selected := make([]Scanner, 0, len(wanted))
	for _, scanner := range s.scanners {
		if wanted[scanner.Domain()] {
			selected = append(selected, scanner)
		}
	}
	return selected, nil
}

func (s *AlertService) classify(scanned ScannedItem) model.AlertItem {
	item := scanned.Item
	switch {
	case item.RemainingDays != nil:
		item.Severity = s.table.Classify(scanned.Key, *item.RemainingDays)
		item.Expired = *item.RemainingDays < 0
	case item.MonthsAhead != nil:
		item.Severity = s.table.ClassifyMonth(scanned.Key, *item.MonthsAhead)
	default:
		item.Severity = model.SeverityInformational
	}
	return item
}

// SortAlertItems: домен, затем оставшиеся дни по возрастанию (неизвестные в конце,
// по числу месяцев), затем заголовок и source id.
func SortAlertItems(items []model.AlertItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if ra, rb := model.DomainRank(a.Domain), model.DomainRank(b.Domain); ra != rb {
			return ra < rb
		}
		if c := compareOptional(a.RemainingDays, b.RemainingDays); c != 0 {
			return c < 0
		}
		if c := compareOptional(a.MonthsAhead, b.MonthsAhead); c != 0 {
			return c < 0
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.SourceID.String() < b.SourceID.String()
	})
}

func compareOptional(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	default:
		return 0
	}
}

