package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"github.com/smallbiznis/oilfield/internal/clock"
	"github.com/smallbiznis/oilfield/internal/config"
	"github.com/smallbiznis/oilfield/internal/observability/metrics"
	"github.com/smallbiznis/oilfield/internal/tank/domain"
	"github.com/smallbiznis/oilfield/internal/tanklock"
	"github.com/smallbiznis/oilfield/pkg/daterange"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Store   domain.Store
	Locker  tanklock.Locker
	Config  *config.ReconcileConfigHolder
	Metrics *metrics.ReconcileMetrics `optional:"true"`
	Clock   clock.Clock               `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	store     domain.Store
	locker    tanklock.Locker
	cfg       *config.ReconcileConfigHolder
	metrics   *metrics.ReconcileMetrics
	clock     clock.Clock
	validator *validator.Validate
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.System{}
	}
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("tank.service"),
		genID:     p.GenID,
		store:     p.Store,
		locker:    p.Locker,
		cfg:       p.Config,
		metrics:   p.Metrics,
		clock:     clk,
		validator: newValidator(),
	}
}

func (s *Service) CreateTank(ctx context.Context, req domain.CreateTankRequest) (*domain.TankResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate(req); err != nil {
		return nil, err
	}
	wellIDs, err := parseIDs(req.WellIDs)
	if err != nil {
		return nil, domain.ErrInvalidWell
	}

	now := s.clock.Now()
	tank := domain.Tank{
		ID:               s.genID.Generate(),
		Name:             req.Name,
		Lease:            strings.TrimSpace(req.Lease),
		ConversionFactor: req.ConversionFactor,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.store.InsertTank(ctx, tx, &tank); err != nil {
			return err
		}
		return s.replaceWells(ctx, tx, tank.ID, wellIDs)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("tank created", zap.String("tank_id", tank.ID.String()), zap.Int("wells", len(wellIDs)))
	return s.GetTank(ctx, tank.ID.String())
}

func (s *Service) UpdateTank(ctx context.Context, req domain.UpdateTankRequest) (*domain.TankResponse, error) {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		req.Name = &name
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}
	id, err := s.parseID(req.ID)
	if err != nil {
		return nil, err
	}

	tank, err := s.store.FindTank(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if tank == nil {
		return nil, domain.ErrNotFound
	}

	if req.Name != nil {
		tank.Name = *req.Name
	}
	if req.Lease != nil {
		tank.Lease = strings.TrimSpace(*req.Lease)
	}
	if req.ConversionFactor != nil {
		tank.ConversionFactor = req.ConversionFactor
	}
	tank.UpdatedAt = s.clock.Now()

	if err := s.store.UpdateTank(ctx, s.db, tank); err != nil {
		return nil, err
	}
	return s.GetTank(ctx, tank.ID.String())
}

func (s *Service) GetTank(ctx context.Context, id string) (*domain.TankResponse, error) {
	tankID, err := s.parseID(id)
	if err != nil {
		return nil, err
	}
	tank, err := s.store.FindTank(ctx, s.db, tankID)
	if err != nil {
		return nil, err
	}
	if tank == nil {
		return nil, domain.ErrNotFound
	}
	resp := s.toResponse(*tank)
	return &resp, nil
}

func (s *Service) CreateWell(ctx context.Context, req domain.CreateWellRequest) (*domain.Well, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate(req); err != nil {
		return nil, err
	}

	well := domain.Well{
		ID:        s.genID.Generate(),
		Name:      req.Name,
		CreatedAt: s.clock.Now(),
	}
	if err := s.store.InsertWell(ctx, s.db, &well); err != nil {
		return nil, err
	}
	return &well, nil
}

func (s *Service) AttachWells(ctx context.Context, req domain.AttachWellsRequest) (*domain.TankResponse, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	tankID, err := s.parseID(req.TankID)
	if err != nil {
		return nil, err
	}
	wellIDs, err := parseIDs(req.WellIDs)
	if err != nil {
		return nil, domain.ErrInvalidWell
	}

	tank, err := s.store.FindTank(ctx, s.db, tankID)
	if err != nil {
		return nil, err
	}
	if tank == nil {
		return nil, domain.ErrNotFound
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.replaceWells(ctx, tx, tankID, wellIDs)
	})
	if err != nil {
		return nil, err
	}
	return s.GetTank(ctx, req.TankID)
}

func (s *Service) replaceWells(ctx context.Context, tx *gorm.DB, tankID snowflake.ID, wellIDs []snowflake.ID) error {
	wellIDs = uniqueIDs(wellIDs)
	wells, err := s.store.FindWells(ctx, tx, wellIDs)
	if err != nil {
		return err
	}
	if len(wells) != len(wellIDs) {
		return domain.ErrInvalidWell
	}
	return s.store.ReplaceTankWells(ctx, tx, tankID, wellIDs)
}

func (s *Service) SaveReading(ctx context.Context, req domain.SaveReadingRequest) (*domain.Reading, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	tankID, err := s.parseID(req.TankID)
	if err != nil {
		return nil, err
	}
	day, err := daterange.Parse(req.Date)
	if err != nil {
		return nil, domain.ErrInvalidDate
	}
	granularity := domain.Granularity(strings.TrimSpace(req.Granularity))
	if granularity == "" {
		granularity = domain.GranularityDaily
	}
	if !granularity.Valid() {
		return nil, domain.ErrInvalidGranularity
	}
	if granularity == domain.GranularityMonthly {
		day = daterange.BeginningOfMonth(day)
	}

	tank, err := s.store.FindTank(ctx, s.db, tankID)
	if err != nil {
		return nil, err
	}
	if tank == nil {
		return nil, domain.ErrNotFound
	}

	release, err := s.lock(ctx, tank.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	cfg := s.cfg.Get()
	var saved *domain.Reading
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.store.FindReadingAt(ctx, tx, tank.ID, day, granularity)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		wasGauged := false
		reading := existing
		if reading == nil {
			reading = &domain.Reading{
				ID:          s.genID.Generate(),
				TankID:      tank.ID,
				Date:        datatypes.Date(day),
				Granularity: granularity,
				CreatedAt:   now,
			}
		} else {
			wasGauged = existing.Gauged()
		}
		reading.GaugeFeet = req.GaugeFeet
		reading.GaugeInch = req.GaugeInch
		reading.OilProduction = req.OilProduction
		reading.Comments = strings.TrimSpace(req.Comments)
		reading.UpdatedAt = now

		if existing == nil {
			err = s.store.InsertReading(ctx, tx, reading)
		} else {
			err = s.store.UpdateReading(ctx, tx, reading)
		}
		if err != nil {
			return err
		}

		switch {
		case reading.Gauged():
			err = s.reconcile(ctx, tx, *tank, reading, cfg)
		case wasGauged:
			// the reading no longer anchors the next gauged reading
			err = s.propagate(ctx, tx, *tank, day, cfg)
		default:
			s.metrics.RecordOutcome(skipOutcome(*reading))
		}
		if err != nil {
			return err
		}

		saved, err = s.store.FindReading(ctx, tx, reading.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("reading saved",
		zap.String("tank_id", tank.ID.String()),
		zap.String("reading_id", saved.ID.String()),
		zap.String("date", day.Format(daterange.Layout)),
		zap.String("granularity", string(granularity)),
	)
	return saved, nil
}

func (s *Service) DeleteReading(ctx context.Context, id string) error {
	readingID, err := s.parseID(id)
	if err != nil {
		return err
	}
	reading, err := s.store.FindReading(ctx, s.db, readingID)
	if err != nil {
		return err
	}
	if reading == nil {
		return domain.ErrNotFound
	}
	tank, err := s.store.FindTank(ctx, s.db, reading.TankID)
	if err != nil {
		return err
	}
	if tank == nil {
		return domain.ErrNotFound
	}

	release, err := s.lock(ctx, tank.ID)
	if err != nil {
		return err
	}
	defer release()

	cfg := s.cfg.Get()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.store.DeleteReading(ctx, tx, reading.ID); err != nil {
			return err
		}
		if !reading.Gauged() {
			return nil
		}
		return s.propagate(ctx, tx, *tank, reading.Day(), cfg)
	})
}

func (s *Service) SaveRunTicket(ctx context.Context, req domain.SaveRunTicketRequest) (*domain.RunTicket, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	tankID, err := s.parseID(req.TankID)
	if err != nil {
		return nil, err
	}
	day, err := daterange.Parse(req.Date)
	if err != nil {
		return nil, domain.ErrInvalidDate
	}

	tank, err := s.store.FindTank(ctx, s.db, tankID)
	if err != nil {
		return nil, err
	}
	if tank == nil {
		return nil, domain.ErrNotFound
	}

	cfg := s.cfg.Get()
	now := s.clock.Now()
	ticket := domain.RunTicket{
		ID:             s.genID.Generate(),
		TankID:         tank.ID,
		Date:           datatypes.Date(day),
		TopGaugeFeet:   req.TopGaugeFeet,
		TopGaugeInch:   req.TopGaugeInch,
		FinalGaugeFeet: req.FinalGaugeFeet,
		FinalGaugeInch: req.FinalGaugeInch,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if req.GrossBbl != nil {
		ticket.GrossBbl = req.GrossBbl.Round(2)
	} else if !ticket.DeriveGross(tank.Factor(cfg.DefaultConversionFactor)) {
		return nil, fieldError("gross_bbl", "required", "gross_bbl or both top and final gauges are required")
	}

	release, err := s.lock(ctx, tank.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.store.UpsertRunTicket(ctx, tx, &ticket); err != nil {
			return err
		}
		reading, err := s.store.FindReadingAt(ctx, tx, tank.ID, day, domain.GranularityDaily)
		if err != nil || reading == nil || !reading.Gauged() {
			return err
		}
		return s.reconcile(ctx, tx, *tank, reading, cfg)
	})
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (s *Service) Reconcile(ctx context.Context, reading *domain.Reading) error {
	if reading == nil {
		return nil
	}
	tank, err := s.store.FindTank(ctx, s.db, reading.TankID)
	if err != nil {
		return err
	}
	if tank == nil {
		return domain.ErrNotFound
	}

	release, err := s.lock(ctx, tank.ID)
	if err != nil {
		return err
	}
	defer release()

	cfg := s.cfg.Get()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.reconcile(ctx, tx, *tank, reading, cfg)
	})
}

func (s *Service) ReconcileOnDelete(ctx context.Context, reading *domain.Reading) error {
	if reading == nil {
		return nil
	}
	tank, err := s.store.FindTank(ctx, s.db, reading.TankID)
	if err != nil {
		return err
	}
	if tank == nil {
		return domain.ErrNotFound
	}

	release, err := s.lock(ctx, tank.ID)
	if err != nil {
		return err
	}
	defer release()

	cfg := s.cfg.Get()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.propagate(ctx, tx, *tank, reading.Day(), cfg)
	})
}

func (s *Service) lock(ctx context.Context, tankID snowflake.ID) (func(), error) {
	start := time.Now()
	release, err := s.locker.Lock(ctx, tankID)
	s.metrics.ObserveLockWait(time.Since(start))
	if err != nil {
		s.log.Warn("tank lock not obtained", zap.String("tank_id", tankID.String()), zap.Error(err))
		return nil, err
	}
	return release, nil
}

func (s *Service) toResponse(tank domain.Tank) domain.TankResponse {
	cfg := s.cfg.Get()
	wellIDs := make([]string, 0, len(tank.Wells))
	for _, w := range tank.Wells {
		wellIDs = append(wellIDs, w.ID.String())
	}
	return domain.TankResponse{
		ID:               tank.ID.String(),
		Name:             tank.Name,
		Lease:            tank.Lease,
		ConversionFactor: tank.Factor(cfg.DefaultConversionFactor),
		WellIDs:          wellIDs,
		Attributes: domain.Attributes{
			Input:    cfg.Attributes.Input,
			Readonly: cfg.Attributes.Readonly,
			All:      cfg.Attributes.All(),
		},
		CreatedAt: tank.CreatedAt,
		UpdatedAt: tank.UpdatedAt,
	}
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := domain.ParseID(value)
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func parseIDs(values []string) ([]snowflake.ID, error) {
	ids := make([]snowflake.ID, 0, len(values))
	for _, v := range values {
		id, err := domain.ParseID(v)
		if err != nil || id == 0 {
			return nil, domain.ErrInvalidID
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func uniqueIDs(ids []snowflake.ID) []snowflake.ID {
	seen := make(map[snowflake.ID]struct{}, len(ids))
	out := make([]snowflake.ID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
