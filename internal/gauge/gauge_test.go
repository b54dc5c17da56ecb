package gauge

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func TestTotal(t *testing.T) {
	cases := []struct {
		name string
		feet *decimal.Decimal
		inch *decimal.Decimal
		want *decimal.Decimal
	}{
		{name: "feet_and_inch", feet: dec("1"), inch: dec("6"), want: dec("18")},
		{name: "inch_only", inch: dec("6"), want: dec("6")},
		{name: "feet_only", feet: dec("2"), want: dec("24")},
		{name: "fractional", feet: dec("0"), inch: dec("6.255"), want: dec("6.26")},
		{name: "absent"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Total(tc.feet, tc.inch)
			if tc.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tc.want.Equal(*got), "want %s got %s", tc.want, got)
		})
	}
}

func TestVolume(t *testing.T) {
	got := Volume(dec("18"), DefaultConversionFactor)
	require.NotNil(t, got)
	assert.Equal(t, "30.06", got.StringFixed(2))

	assert.Nil(t, Volume(nil, DefaultConversionFactor))
}

func TestTankTotal(t *testing.T) {
	got := TankTotal(dec("1"), dec("6"), DefaultConversionFactor)
	require.NotNil(t, got)
	assert.Equal(t, "30.06", got.StringFixed(2))

	assert.Nil(t, TankTotal(nil, nil, DefaultConversionFactor))
}

func TestRunTicketGross(t *testing.T) {
	got := RunTicketGross(dec("10"), dec("6"), DefaultConversionFactor)
	require.NotNil(t, got)
	assert.Equal(t, "6.68", got.StringFixed(2))

	assert.Nil(t, RunTicketGross(dec("10"), nil, DefaultConversionFactor))
}
