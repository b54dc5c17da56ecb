package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Service is the tank production API used by the HTTP layer and jobs.
type Service interface {
	CreateTank(ctx context.Context, req CreateTankRequest) (*TankResponse, error)
	UpdateTank(ctx context.Context, req UpdateTankRequest) (*TankResponse, error)
	GetTank(ctx context.Context, id string) (*TankResponse, error)
	CreateWell(ctx context.Context, req CreateWellRequest) (*Well, error)
	AttachWells(ctx context.Context, req AttachWellsRequest) (*TankResponse, error)
	ConnectedTanks(ctx context.Context, tankID string) ([]TankResponse, error)

	// SaveReading upserts a reading and reconciles production when the
	// reading carries gauge measurements.
	SaveReading(ctx context.Context, req SaveReadingRequest) (*Reading, error)
	DeleteReading(ctx context.Context, id string) error
	SaveRunTicket(ctx context.Context, req SaveRunTicketRequest) (*RunTicket, error)

	Reconcile(ctx context.Context, reading *Reading) error
	ReconcileOnDelete(ctx context.Context, reading *Reading) error
	Relevant(ctx context.Context, req RelevantRequest) ([]Reading, error)
	CumulativeProduction(ctx context.Context, tankID string, cutoff time.Time) (decimal.Decimal, error)
	ReadingCumulative(ctx context.Context, readingID string) (decimal.Decimal, error)
}

type CreateTankRequest struct {
	Name             string           `json:"name" validate:"required,min=1,max=30"`
	Lease            string           `json:"lease" validate:"max=100"`
	ConversionFactor *decimal.Decimal `json:"conversion_factor" validate:"omitempty,gte=0,lt=10"`
	WellIDs          []string         `json:"well_ids" validate:"omitempty,dive,required"`
}

type UpdateTankRequest struct {
	ID               string           `json:"id"`
	Name             *string          `json:"name,omitempty" validate:"omitempty,min=1,max=30"`
	Lease            *string          `json:"lease,omitempty" validate:"omitempty,max=100"`
	ConversionFactor *decimal.Decimal `json:"conversion_factor,omitempty" validate:"omitempty,gte=0,lt=10"`
}

type CreateWellRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type AttachWellsRequest struct {
	TankID  string   `json:"tank_id"`
	WellIDs []string `json:"well_ids" validate:"dive,required"`
}

type SaveReadingRequest struct {
	TankID        string           `json:"tank_id"`
	Date          string           `json:"date" validate:"required"`
	Granularity   string           `json:"granularity" validate:"omitempty,oneof=daily monthly"`
	GaugeFeet     *decimal.Decimal `json:"gauge_feet" validate:"omitempty,gte=0,lt=999"`
	GaugeInch     *decimal.Decimal `json:"gauge_inch" validate:"omitempty,gte=0,lt=999"`
	OilProduction *decimal.Decimal `json:"oil_production" validate:"omitempty,gte=-999999,lt=999999"`
	Comments      string           `json:"comments" validate:"max=200"`
}

type SaveRunTicketRequest struct {
	TankID         string           `json:"tank_id"`
	Date           string           `json:"date" validate:"required"`
	TopGaugeFeet   *decimal.Decimal `json:"top_gauge_feet" validate:"omitempty,gte=0,lt=999"`
	TopGaugeInch   *decimal.Decimal `json:"top_gauge_inch" validate:"omitempty,gte=0,lt=999"`
	FinalGaugeFeet *decimal.Decimal `json:"final_gauge_feet" validate:"omitempty,gte=0,lt=999"`
	FinalGaugeInch *decimal.Decimal `json:"final_gauge_inch" validate:"omitempty,gte=0,lt=999"`
	GrossBbl       *decimal.Decimal `json:"gross_bbl" validate:"omitempty,gte=0,lt=999999"`
}

type RelevantRequest struct {
	TankID string `json:"tank_id"`
	From   string `json:"from"`
	To     string `json:"to"`
}

// Attributes are the reading fields an operator records and those shown
// read-only for a tank.
type Attributes struct {
	Input    []string `json:"input"`
	Readonly []string `json:"readonly"`
	All      []string `json:"all"`
}

type TankResponse struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Lease            string          `json:"lease"`
	ConversionFactor decimal.Decimal `json:"conversion_factor"`
	WellIDs          []string        `json:"well_ids"`
	Attributes       Attributes      `json:"attributes"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

var (
	ErrNotFound           = errors.New("not_found")
	ErrInvalidID          = errors.New("invalid_id")
	ErrInvalidTank        = errors.New("invalid_tank")
	ErrInvalidName        = errors.New("invalid_name")
	ErrInvalidWell        = errors.New("invalid_well")
	ErrInvalidDate        = errors.New("invalid_date")
	ErrInvalidGranularity = errors.New("invalid_granularity")
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationError is returned when a request fails input validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation_error"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Code)
	}
	return "validation_error: " + strings.Join(parts, ", ")
}

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(value))
}
