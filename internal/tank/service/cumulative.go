package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/oilfield/internal/tank/domain"
	"github.com/smallbiznis/oilfield/pkg/daterange"
)

// CumulativeProduction sums relevant production on or before cutoff.
func (s *Service) CumulativeProduction(ctx context.Context, tankID string, cutoff time.Time) (decimal.Decimal, error) {
	id, err := s.parseID(tankID)
	if err != nil {
		return decimal.Zero, err
	}
	tank, err := s.store.FindTank(ctx, s.db, id)
	if err != nil {
		return decimal.Zero, err
	}
	if tank == nil {
		return decimal.Zero, domain.ErrNotFound
	}
	return s.cumulative(ctx, *tank, cutoff)
}

// ReadingCumulative is the cumulative production of the reading's tank as
// of the reading date.
func (s *Service) ReadingCumulative(ctx context.Context, readingID string) (decimal.Decimal, error) {
	id, err := s.parseID(readingID)
	if err != nil {
		return decimal.Zero, err
	}
	reading, err := s.store.FindReading(ctx, s.db, id)
	if err != nil {
		return decimal.Zero, err
	}
	if reading == nil {
		return decimal.Zero, domain.ErrNotFound
	}
	tank, err := s.store.FindTank(ctx, s.db, reading.TankID)
	if err != nil {
		return decimal.Zero, err
	}
	if tank == nil {
		return decimal.Zero, domain.ErrNotFound
	}
	return s.cumulative(ctx, *tank, reading.Day())
}

func (s *Service) cumulative(ctx context.Context, tank domain.Tank, cutoff time.Time) (decimal.Decimal, error) {
	to := daterange.Day(cutoff)
	readings, err := s.store.ReadingsFor(ctx, s.db, tank, domain.ReadingQuery{To: &to})
	if err != nil {
		return decimal.Zero, err
	}
	return SumProduction(Relevant(readings)), nil
}
