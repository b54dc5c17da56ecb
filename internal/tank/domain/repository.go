package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order is the date ordering of a reading query.
type Order int

const (
	OrderDateAsc Order = iota
	OrderDateDesc
)

// ReadingQuery filters ReadingsFor. From and To are inclusive days.
type ReadingQuery struct {
	Granularity *Granularity
	From        *time.Time
	To          *time.Time
	GaugedOnly  bool
	Order       Order
	Limit       int
}

// Store is the persistence boundary of the reconciliation core.
type Store interface {
	InsertTank(ctx context.Context, db *gorm.DB, tank *Tank) error
	UpdateTank(ctx context.Context, db *gorm.DB, tank *Tank) error
	FindTank(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Tank, error)

	InsertWell(ctx context.Context, db *gorm.DB, well *Well) error
	FindWells(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]Well, error)
	ReplaceTankWells(ctx context.Context, db *gorm.DB, tankID snowflake.ID, wellIDs []snowflake.ID) error
	WellsOf(ctx context.Context, db *gorm.DB, tankID snowflake.ID) ([]snowflake.ID, error)
	TanksWithAnyWell(ctx context.Context, db *gorm.DB, wellIDs []snowflake.ID) ([]Tank, error)

	ReadingsFor(ctx context.Context, db *gorm.DB, src ReadingSource, q ReadingQuery) ([]Reading, error)
	FindReading(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Reading, error)
	FindReadingAt(ctx context.Context, db *gorm.DB, tankID snowflake.ID, date time.Time, granularity Granularity) (*Reading, error)
	InsertReading(ctx context.Context, db *gorm.DB, reading *Reading) error
	UpdateReading(ctx context.Context, db *gorm.DB, reading *Reading) error
	DeleteReading(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	// FindOrCreateDaily stamps a created row with now.
	FindOrCreateDaily(ctx context.Context, db *gorm.DB, tankID snowflake.ID, date, now time.Time) (*Reading, error)
	// WriteProduction sets oil_production only. It never triggers
	// reconciliation.
	WriteProduction(ctx context.Context, db *gorm.DB, readingID snowflake.ID, value decimal.Decimal) error

	RunTicketFor(ctx context.Context, db *gorm.DB, tankID snowflake.ID, date time.Time) (*RunTicket, error)
	UpsertRunTicket(ctx context.Context, db *gorm.DB, ticket *RunTicket) error
}
