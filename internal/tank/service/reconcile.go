package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/oilfield/internal/config"
	"github.com/smallbiznis/oilfield/internal/observability/metrics"
	"github.com/smallbiznis/oilfield/internal/tank/domain"
	"github.com/smallbiznis/oilfield/pkg/daterange"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("oilfield/reconcile")

// reconcile back-fills production up to reading and then walks forward to
// the following gauged readings. The caller holds the tank lock.
func (s *Service) reconcile(ctx context.Context, tx *gorm.DB, tank domain.Tank, reading *domain.Reading, cfg config.ReconcileConfig) error {
	ctx, span := tracer.Start(ctx, "tank.reconcile", trace.WithAttributes(
		attribute.String("tank_id", tank.ID.String()),
		attribute.String("data_type", tank.DataType()),
		attribute.String("date", reading.Day().Format(daterange.Layout)),
	))
	defer span.End()

	if !reading.Gauged() {
		s.metrics.RecordOutcome(skipOutcome(*reading))
		return nil
	}
	if err := s.backfill(ctx, tx, tank, reading, cfg); err != nil {
		span.RecordError(err)
		return err
	}
	return s.propagate(ctx, tx, tank, reading.Day(), cfg)
}

// backfill computes production for reading from the closest earlier gauged
// reading. A one-day gap is written directly; a wider gap is spread evenly
// over every day after the earlier reading up to and including this one.
func (s *Service) backfill(ctx context.Context, tx *gorm.DB, tank domain.Tank, reading *domain.Reading, cfg config.ReconcileConfig) error {
	day := reading.Day()
	prev, err := s.priorGauged(ctx, tx, tank, day, cfg.WindowDays)
	if err != nil {
		return err
	}
	if prev == nil {
		s.metrics.RecordOutcome(metrics.OutcomeNoPrior)
		return nil
	}

	factor := tank.Factor(cfg.DefaultConversionFactor)
	current := reading.TankTotal(factor)
	previous := prev.TankTotal(factor)
	if current == nil || previous == nil {
		s.metrics.RecordOutcome(metrics.OutcomeNoGauge)
		return nil
	}

	run, err := s.runVolume(ctx, tx, tank, day)
	if err != nil {
		return err
	}
	production := current.Sub(*previous).Add(run).Round(2)

	gap := daterange.DaysBetween(prev.Day(), day)
	if gap == 1 {
		if err := s.store.WriteProduction(ctx, tx, reading.ID, production); err != nil {
			return err
		}
		reading.OilProduction = &production
		s.metrics.RecordOutcome(metrics.OutcomeDirect)
		return nil
	}

	share := production.Div(decimal.NewFromInt(int64(gap))).Round(2)
	for _, d := range daterange.NewRange(daterange.AddDays(prev.Day(), 1), day).Days() {
		target := reading
		if !d.Equal(day) {
			target, err = s.store.FindOrCreateDaily(ctx, tx, tank.ID, d, s.clock.Now())
			if err != nil {
				return err
			}
		}
		if err := s.store.WriteProduction(ctx, tx, target.ID, share); err != nil {
			return err
		}
	}
	reading.OilProduction = &share
	s.metrics.RecordOutcome(metrics.OutcomeSpread)
	s.metrics.RecordBackfill(gap)

	s.log.Debug("production spread over gap",
		zap.String("tank_id", tank.ID.String()),
		zap.String("from", prev.Day().Format(daterange.Layout)),
		zap.String("to", day.Format(daterange.Layout)),
		zap.Int("days", gap),
		zap.String("share", share.String()),
	)
	return nil
}

// propagate re-runs backfill on the next gauged reading after from, and on
// further readings when propagation is full.
func (s *Service) propagate(ctx context.Context, tx *gorm.DB, tank domain.Tank, from time.Time, cfg config.ReconcileConfig) error {
	hops := 0
	anchor := from
	for hops < cfg.Hops() {
		next, err := s.nextGauged(ctx, tx, tank, anchor, cfg.WindowDays)
		if err != nil {
			return err
		}
		if next == nil {
			break
		}
		if err := s.backfill(ctx, tx, tank, next, cfg); err != nil {
			return err
		}
		hops++
		anchor = next.Day()
	}
	s.metrics.ObservePropagation(hops)
	return nil
}

func (s *Service) runVolume(ctx context.Context, tx *gorm.DB, tank domain.Tank, day time.Time) (decimal.Decimal, error) {
	ticket, err := s.store.RunTicketFor(ctx, tx, tank.ID, day)
	if err != nil {
		return decimal.Zero, err
	}
	if ticket == nil {
		return decimal.Zero, nil
	}
	return ticket.GrossBbl, nil
}

func skipOutcome(reading domain.Reading) string {
	if reading.Granularity != domain.GranularityDaily {
		return metrics.OutcomeNotGaugedDaily
	}
	return metrics.OutcomeNoGauge
}
