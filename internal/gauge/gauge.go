// Package gauge converts tank gauge measurements to linear inches and
// barrels. Absent inputs propagate as nil; nothing here returns an error.
package gauge

import "github.com/shopspring/decimal"

// DefaultConversionFactor is inches per barrel for a standard tank.
var DefaultConversionFactor = decimal.RequireFromString("1.67")

var inchesPerFoot = decimal.NewFromInt(12)

// Total returns feet*12 + inch rounded to 2 places. One missing side counts
// as zero; nil when both are missing.
func Total(feet, inch *decimal.Decimal) *decimal.Decimal {
	if feet == nil && inch == nil {
		return nil
	}
	total := decimal.Zero
	if feet != nil {
		total = total.Add(feet.Mul(inchesPerFoot))
	}
	if inch != nil {
		total = total.Add(*inch)
	}
	total = total.Round(2)
	return &total
}

// Volume converts a gauge total to barrels.
func Volume(total *decimal.Decimal, factor decimal.Decimal) *decimal.Decimal {
	if total == nil {
		return nil
	}
	bbl := total.Mul(factor).Round(2)
	return &bbl
}

// TankTotal is Volume(Total(feet, inch), factor).
func TankTotal(feet, inch *decimal.Decimal, factor decimal.Decimal) *decimal.Decimal {
	return Volume(Total(feet, inch), factor)
}

// RunTicketGross is the volume withdrawn between the top and final gauge
// of a run ticket.
func RunTicketGross(top, final *decimal.Decimal, factor decimal.Decimal) *decimal.Decimal {
	if top == nil || final == nil {
		return nil
	}
	gross := top.Sub(*final).Mul(factor).Round(2)
	return &gross
}
