package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	tankdomain "github.com/smallbiznis/oilfield/internal/tank/domain"
	"github.com/smallbiznis/oilfield/pkg/daterange"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct {
	genID *snowflake.Node
}

func Provide(genID *snowflake.Node) tankdomain.Store {
	if genID == nil {
		panic("tank repository requires a snowflake node")
	}
	return &repo{genID: genID}
}

func (r *repo) InsertTank(ctx context.Context, db *gorm.DB, t *tankdomain.Tank) error {
	return db.WithContext(ctx).Omit(clause.Associations).Create(t).Error
}

func (r *repo) UpdateTank(ctx context.Context, db *gorm.DB, t *tankdomain.Tank) error {
	return db.WithContext(ctx).Exec(
		`UPDATE tanks
		 SET name = ?, lease = ?, conversion_factor = ?, updated_at = ?
		 WHERE id = ?`,
		t.Name,
		t.Lease,
		t.ConversionFactor,
		t.UpdatedAt,
		t.ID,
	).Error
}

func (r *repo) FindTank(ctx context.Context, db *gorm.DB, id snowflake.ID) (*tankdomain.Tank, error) {
	var t tankdomain.Tank
	err := db.WithContext(ctx).
		Preload("Wells", func(tx *gorm.DB) *gorm.DB { return tx.Order("wells.id ASC") }).
		Where("id = ?", id).
		First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *repo) InsertWell(ctx context.Context, db *gorm.DB, w *tankdomain.Well) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO wells (id, name, created_at) VALUES (?, ?, ?)`,
		w.ID,
		w.Name,
		w.CreatedAt,
	).Error
}

func (r *repo) FindWells(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]tankdomain.Well, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var wells []tankdomain.Well
	err := db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&wells).Error
	if err != nil {
		return nil, err
	}
	return wells, nil
}

func (r *repo) ReplaceTankWells(ctx context.Context, db *gorm.DB, tankID snowflake.ID, wellIDs []snowflake.ID) error {
	if err := db.WithContext(ctx).Exec(`DELETE FROM tank_wells WHERE tank_id = ?`, tankID).Error; err != nil {
		return err
	}
	for _, wellID := range wellIDs {
		if err := db.WithContext(ctx).Exec(
			`INSERT INTO tank_wells (tank_id, well_id) VALUES (?, ?)`,
			tankID,
			wellID,
		).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) WellsOf(ctx context.Context, db *gorm.DB, tankID snowflake.ID) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).Raw(
		`SELECT well_id FROM tank_wells WHERE tank_id = ? ORDER BY well_id ASC`,
		tankID,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repo) TanksWithAnyWell(ctx context.Context, db *gorm.DB, wellIDs []snowflake.ID) ([]tankdomain.Tank, error) {
	if len(wellIDs) == 0 {
		return nil, nil
	}
	var tanks []tankdomain.Tank
	err := db.WithContext(ctx).
		Preload("Wells", func(tx *gorm.DB) *gorm.DB { return tx.Order("wells.id ASC") }).
		Where("id IN (SELECT DISTINCT tank_id FROM tank_wells WHERE well_id IN ?)", wellIDs).
		Order("id ASC").
		Find(&tanks).Error
	if err != nil {
		return nil, err
	}
	return tanks, nil
}

func (r *repo) ReadingsFor(ctx context.Context, db *gorm.DB, src tankdomain.ReadingSource, q tankdomain.ReadingQuery) ([]tankdomain.Reading, error) {
	stmt := db.WithContext(ctx).
		Model(&tankdomain.Reading{}).
		Where("tank_id = ?", src.EquipmentID())

	if q.Granularity != nil {
		stmt = stmt.Where("granularity = ?", *q.Granularity)
	}
	if q.From != nil {
		stmt = stmt.Where("date >= ?", dateArg(*q.From))
	}
	if q.To != nil {
		stmt = stmt.Where("date <= ?", dateArg(*q.To))
	}
	if q.GaugedOnly {
		stmt = stmt.Where("granularity = ? AND (gauge_feet IS NOT NULL OR gauge_inch IS NOT NULL)", tankdomain.GranularityDaily)
	}

	switch q.Order {
	case tankdomain.OrderDateDesc:
		stmt = stmt.Order("date DESC").Order("granularity DESC")
	default:
		stmt = stmt.Order("date ASC").Order("granularity ASC")
	}
	if q.Limit > 0 {
		stmt = stmt.Limit(q.Limit)
	}

	var readings []tankdomain.Reading
	if err := stmt.Find(&readings).Error; err != nil {
		return nil, err
	}
	return readings, nil
}

func (r *repo) FindReading(ctx context.Context, db *gorm.DB, id snowflake.ID) (*tankdomain.Reading, error) {
	var reading tankdomain.Reading
	err := db.WithContext(ctx).Where("id = ?", id).First(&reading).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reading, nil
}

func (r *repo) FindReadingAt(ctx context.Context, db *gorm.DB, tankID snowflake.ID, date time.Time, granularity tankdomain.Granularity) (*tankdomain.Reading, error) {
	var reading tankdomain.Reading
	err := db.WithContext(ctx).
		Where("tank_id = ? AND date = ? AND granularity = ?", tankID, dateArg(date), granularity).
		First(&reading).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reading, nil
}

func (r *repo) InsertReading(ctx context.Context, db *gorm.DB, reading *tankdomain.Reading) error {
	return db.WithContext(ctx).Create(reading).Error
}

func (r *repo) UpdateReading(ctx context.Context, db *gorm.DB, reading *tankdomain.Reading) error {
	return db.WithContext(ctx).Exec(
		`UPDATE tank_readings
		 SET gauge_feet = ?, gauge_inch = ?, oil_production = ?, comments = ?, updated_at = ?
		 WHERE id = ?`,
		reading.GaugeFeet,
		reading.GaugeInch,
		reading.OilProduction,
		reading.Comments,
		reading.UpdatedAt,
		reading.ID,
	).Error
}

func (r *repo) DeleteReading(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM tank_readings WHERE id = ?`, id).Error
}

func (r *repo) FindOrCreateDaily(ctx context.Context, db *gorm.DB, tankID snowflake.ID, date, now time.Time) (*tankdomain.Reading, error) {
	existing, err := r.FindReadingAt(ctx, db, tankID, date, tankdomain.GranularityDaily)
	if err != nil || existing != nil {
		return existing, err
	}

	reading := &tankdomain.Reading{
		ID:          r.genID.Generate(),
		TankID:      tankID,
		Date:        datatypes.Date(daterange.Day(date)),
		Granularity: tankdomain.GranularityDaily,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	// a concurrent writer may have created the row; re-read either way
	err = db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(reading).Error
	if err != nil {
		return nil, err
	}
	return r.FindReadingAt(ctx, db, tankID, date, tankdomain.GranularityDaily)
}

func (r *repo) WriteProduction(ctx context.Context, db *gorm.DB, readingID snowflake.ID, value decimal.Decimal) error {
	return db.WithContext(ctx).
		Model(&tankdomain.Reading{}).
		Where("id = ?", readingID).
		UpdateColumn("oil_production", value).Error
}

func (r *repo) RunTicketFor(ctx context.Context, db *gorm.DB, tankID snowflake.ID, date time.Time) (*tankdomain.RunTicket, error) {
	var ticket tankdomain.RunTicket
	err := db.WithContext(ctx).
		Where("tank_id = ? AND date = ?", tankID, dateArg(date)).
		First(&ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ticket, nil
}

func (r *repo) UpsertRunTicket(ctx context.Context, db *gorm.DB, ticket *tankdomain.RunTicket) error {
	existing, err := r.RunTicketFor(ctx, db, ticket.TankID, ticket.Day())
	if err != nil {
		return err
	}
	if existing == nil {
		return db.WithContext(ctx).Create(ticket).Error
	}

	ticket.ID = existing.ID
	ticket.CreatedAt = existing.CreatedAt
	return db.WithContext(ctx).Exec(
		`UPDATE run_tickets
		 SET top_gauge_feet = ?, top_gauge_inch = ?, final_gauge_feet = ?, final_gauge_inch = ?, gross_bbl = ?, updated_at = ?
		 WHERE id = ?`,
		ticket.TopGaugeFeet,
		ticket.TopGaugeInch,
		ticket.FinalGaugeFeet,
		ticket.FinalGaugeInch,
		ticket.GrossBbl,
		ticket.UpdatedAt,
		ticket.ID,
	).Error
}

func dateArg(t time.Time) datatypes.Date {
	return datatypes.Date(daterange.Day(t))
}
