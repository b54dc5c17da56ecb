package service

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/oilfield/internal/tank/domain"
	"github.com/smallbiznis/oilfield/pkg/daterange"
)

// Relevant merges daily and monthly readings into one timeline. A monthly
// reading is kept only when no daily reading falls in its month. The result
// is ordered by date, daily before monthly on the same date.
func Relevant(readings []domain.Reading) []domain.Reading {
	var days []time.Time
	for _, r := range readings {
		if r.Granularity == domain.GranularityDaily {
			days = append(days, r.Day())
		}
	}
	var covered daterange.List
	for _, month := range daterange.MonthlyDates(days) {
		covered = append(covered, daterange.On(month))
	}

	out := make([]domain.Reading, 0, len(readings))
	for _, r := range readings {
		switch r.Granularity {
		case domain.GranularityDaily:
			out = append(out, r)
		case domain.GranularityMonthly:
			if !daterange.DateIncluded(daterange.BeginningOfMonth(r.Day()), covered) {
				out = append(out, r)
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		di, dj := out[i].Day(), out[j].Day()
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return out[i].Granularity < out[j].Granularity
	})
	return out
}

// SumProduction adds the production of every reading, treating a missing
// value as zero.
func SumProduction(readings []domain.Reading) decimal.Decimal {
	total := decimal.Zero
	for _, r := range readings {
		if r.OilProduction != nil {
			total = total.Add(*r.OilProduction)
		}
	}
	return total.Round(2)
}

func (s *Service) Relevant(ctx context.Context, req domain.RelevantRequest) ([]domain.Reading, error) {
	tankID, err := s.parseID(req.TankID)
	if err != nil {
		return nil, err
	}

	q := domain.ReadingQuery{Order: domain.OrderDateAsc}
	if req.From != "" {
		from, err := daterange.Parse(req.From)
		if err != nil {
			return nil, domain.ErrInvalidDate
		}
		q.From = &from
	}
	if req.To != "" {
		to, err := daterange.Parse(req.To)
		if err != nil {
			return nil, domain.ErrInvalidDate
		}
		q.To = &to
	}
	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		return nil, domain.ErrInvalidDate
	}

	tank, err := s.store.FindTank(ctx, s.db, tankID)
	if err != nil {
		return nil, err
	}
	if tank == nil {
		return nil, domain.ErrNotFound
	}

	readings, err := s.store.ReadingsFor(ctx, s.db, *tank, q)
	if err != nil {
		return nil, err
	}
	return Relevant(readings), nil
}
