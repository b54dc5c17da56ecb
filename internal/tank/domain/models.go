// Package domain contains the tank, reading and run ticket models used by
// gauge-based production reconciliation.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/oilfield/internal/gauge"
	"github.com/smallbiznis/oilfield/pkg/daterange"
	"gorm.io/datatypes"
)

// Granularity tells whether a reading covers one day or a whole month.
type Granularity string

const (
	GranularityDaily   Granularity = "daily"
	GranularityMonthly Granularity = "monthly"
)

func (g Granularity) Valid() bool {
	return g == GranularityDaily || g == GranularityMonthly
}

// ReadingSource is equipment that records readings.
type ReadingSource interface {
	EquipmentID() snowflake.ID
	DataType() string
}

// Tank is a production tank. It owns its readings and run tickets.
type Tank struct {
	ID               snowflake.ID     `json:"id" gorm:"primaryKey"`
	Name             string           `json:"name" gorm:"type:varchar(30);not null"`
	Lease            string           `json:"lease" gorm:"type:text"`
	ConversionFactor *decimal.Decimal `json:"conversion_factor" gorm:"type:numeric(6,4)"`
	Wells            []Well           `json:"wells,omitempty" gorm:"many2many:tank_wells;"`
	CreatedAt        time.Time        `json:"created_at" gorm:"not null"`
	UpdatedAt        time.Time        `json:"updated_at" gorm:"not null"`
}

// TableName sets the database table name.
func (Tank) TableName() string { return "tanks" }

func (t Tank) EquipmentID() snowflake.ID { return t.ID }

func (Tank) DataType() string { return "tank_reading" }

// Factor returns the tank's conversion factor, or fallback when unset.
// A zero fallback means gauge.DefaultConversionFactor.
func (t Tank) Factor(fallback decimal.Decimal) decimal.Decimal {
	if t.ConversionFactor != nil {
		return *t.ConversionFactor
	}
	if fallback.IsZero() {
		return gauge.DefaultConversionFactor
	}
	return fallback
}

// Well is a producing well. Tanks connected to the same well share it.
type Well struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	Name      string       `json:"name" gorm:"type:text;not null"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null"`
}

// TableName sets the database table name.
func (Well) TableName() string { return "wells" }

// Reading is a production record of one tank on one date.
type Reading struct {
	ID            snowflake.ID     `json:"id" gorm:"primaryKey"`
	TankID        snowflake.ID     `json:"tank_id" gorm:"not null;uniqueIndex:ux_tank_readings_tank_date_granularity,priority:1"`
	Date          datatypes.Date   `json:"date" gorm:"not null;uniqueIndex:ux_tank_readings_tank_date_granularity,priority:2"`
	Granularity   Granularity      `json:"granularity" gorm:"type:varchar(16);not null;uniqueIndex:ux_tank_readings_tank_date_granularity,priority:3"`
	GaugeFeet     *decimal.Decimal `json:"gauge_feet" gorm:"type:numeric(7,2)"`
	GaugeInch     *decimal.Decimal `json:"gauge_inch" gorm:"type:numeric(7,2)"`
	OilProduction *decimal.Decimal `json:"oil_production" gorm:"type:numeric(12,2)"`
	Comments      string           `json:"comments" gorm:"type:varchar(200)"`
	CreatedAt     time.Time        `json:"created_at" gorm:"not null"`
	UpdatedAt     time.Time        `json:"updated_at" gorm:"not null"`
}

// TableName sets the database table name.
func (Reading) TableName() string { return "tank_readings" }

// Day is the reading date as a UTC midnight time.
func (r Reading) Day() time.Time {
	return daterange.Day(time.Time(r.Date))
}

// HasGaugeMeasurements reports whether either gauge field is present.
func (r Reading) HasGaugeMeasurements() bool {
	return r.GaugeFeet != nil || r.GaugeInch != nil
}

// Gauged reports whether the reading takes part in gap reconciliation.
func (r Reading) Gauged() bool {
	return r.Granularity == GranularityDaily && r.HasGaugeMeasurements()
}

// GaugeTotal is the gauge level in inches.
func (r Reading) GaugeTotal() *decimal.Decimal {
	return gauge.Total(r.GaugeFeet, r.GaugeInch)
}

// TankTotal is the tank volume in barrels.
func (r Reading) TankTotal(factor decimal.Decimal) *decimal.Decimal {
	return gauge.Volume(r.GaugeTotal(), factor)
}

// RunTicket records oil withdrawn from a tank on a date.
type RunTicket struct {
	ID             snowflake.ID     `json:"id" gorm:"primaryKey"`
	TankID         snowflake.ID     `json:"tank_id" gorm:"not null;uniqueIndex:ux_run_tickets_tank_date,priority:1"`
	Date           datatypes.Date   `json:"date" gorm:"not null;uniqueIndex:ux_run_tickets_tank_date,priority:2"`
	TopGaugeFeet   *decimal.Decimal `json:"top_gauge_feet" gorm:"type:numeric(7,2)"`
	TopGaugeInch   *decimal.Decimal `json:"top_gauge_inch" gorm:"type:numeric(7,2)"`
	FinalGaugeFeet *decimal.Decimal `json:"final_gauge_feet" gorm:"type:numeric(7,2)"`
	FinalGaugeInch *decimal.Decimal `json:"final_gauge_inch" gorm:"type:numeric(7,2)"`
	GrossBbl       decimal.Decimal  `json:"gross_bbl" gorm:"type:numeric(12,2);not null"`
	CreatedAt      time.Time        `json:"created_at" gorm:"not null"`
	UpdatedAt      time.Time        `json:"updated_at" gorm:"not null"`
}

// TableName sets the database table name.
func (RunTicket) TableName() string { return "run_tickets" }

// Day is the ticket date as a UTC midnight time.
func (rt RunTicket) Day() time.Time {
	return daterange.Day(time.Time(rt.Date))
}

// DeriveGross fills GrossBbl from the top and final gauges when both are
// present.
func (rt *RunTicket) DeriveGross(factor decimal.Decimal) bool {
	top := gauge.Total(rt.TopGaugeFeet, rt.TopGaugeInch)
	final := gauge.Total(rt.FinalGaugeFeet, rt.FinalGaugeInch)
	gross := gauge.RunTicketGross(top, final, factor)
	if gross == nil {
		return false
	}
	rt.GrossBbl = *gross
	return true
}

// Models lists every table owned by this package, in dependency order.
func Models() []any {
	return []any{&Well{}, &Tank{}, &Reading{}, &RunTicket{}}
}
