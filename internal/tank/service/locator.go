package service

import (
	"context"
	"time"

	"github.com/smallbiznis/oilfield/internal/tank/domain"
	"github.com/smallbiznis/oilfield/pkg/daterange"
	"gorm.io/gorm"
)

// priorGauged returns the latest gauged daily reading in [day-window, day).
func (s *Service) priorGauged(ctx context.Context, db *gorm.DB, tank domain.Tank, day time.Time, window int) (*domain.Reading, error) {
	from := daterange.AddDays(day, -window)
	to := daterange.AddDays(day, -1)
	return s.firstGauged(ctx, db, tank, domain.ReadingQuery{
		From:       &from,
		To:         &to,
		GaugedOnly: true,
		Order:      domain.OrderDateDesc,
		Limit:      1,
	})
}

// nextGauged returns the earliest gauged daily reading in (day, day+window].
func (s *Service) nextGauged(ctx context.Context, db *gorm.DB, tank domain.Tank, day time.Time, window int) (*domain.Reading, error) {
	from := daterange.AddDays(day, 1)
	to := daterange.AddDays(day, window)
	return s.firstGauged(ctx, db, tank, domain.ReadingQuery{
		From:       &from,
		To:         &to,
		GaugedOnly: true,
		Order:      domain.OrderDateAsc,
		Limit:      1,
	})
}

func (s *Service) firstGauged(ctx context.Context, db *gorm.DB, tank domain.Tank, q domain.ReadingQuery) (*domain.Reading, error) {
	readings, err := s.store.ReadingsFor(ctx, db, tank, q)
	if err != nil || len(readings) == 0 {
		return nil, err
	}
	return &readings[0], nil
}
