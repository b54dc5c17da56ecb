package daterange

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestToRanges(t *testing.T) {
	dates := []time.Time{
		date(2000, 1, 10),
		date(2000, 1, 1),
		date(2000, 1, 2),
		date(2000, 1, 3),
		date(2000, 1, 5),
		date(2000, 1, 6),
		date(2000, 1, 2),
	}

	got := ToRanges(dates)

	assert.Equal(t, []Range{
		{Start: date(2000, 1, 1), End: date(2000, 1, 3)},
		{Start: date(2000, 1, 5), End: date(2000, 1, 6)},
		{Start: date(2000, 1, 10), End: date(2000, 1, 10)},
	}, got)
	assert.True(t, got[2].Single())
	assert.Equal(t, "2000-01-01..2000-01-03", got[0].String())
	assert.Equal(t, "2000-01-10", got[2].String())
}

func TestToRangesEmpty(t *testing.T) {
	assert.Nil(t, ToRanges(nil))
	assert.Nil(t, ToRanges([]time.Time{{}}))
}

func TestToRangesExpandRoundTrip(t *testing.T) {
	dates := []time.Time{
		date(1999, 12, 30),
		date(1999, 12, 31),
		date(2000, 1, 1),
		date(2000, 2, 28),
		date(2000, 2, 29),
		date(2000, 3, 1),
		date(2000, 3, 15),
	}

	assert.Equal(t, dates, Expand(ToRanges(dates)))
}

func TestMonthlyDates(t *testing.T) {
	days := NewRange(date(2000, 1, 1), date(2000, 3, 1)).Days()

	assert.Equal(t, []time.Time{
		date(2000, 1, 1),
		date(2000, 2, 1),
		date(2000, 3, 1),
	}, MonthlyDates(days))
}

func TestDateIncluded(t *testing.T) {
	jan15 := date(2000, 1, 15)
	feb1 := date(2000, 2, 1)
	feb15 := date(2000, 2, 15)

	t.Run("range", func(t *testing.T) {
		dates := NewRange(date(2000, 1, 1), date(2000, 1, 31))
		assert.True(t, DateIncluded(jan15, dates))
		assert.False(t, DateIncluded(feb1, dates))
	})

	t.Run("list", func(t *testing.T) {
		dates := List{
			On(date(2000, 1, 15)),
			NewRange(date(2000, 2, 1), date(2000, 2, 10)),
			On(date(2000, 3, 1)),
		}
		assert.True(t, DateIncluded(jan15, dates))
		assert.True(t, DateIncluded(feb1, dates))
		assert.False(t, DateIncluded(feb15, dates))
	})

	t.Run("single", func(t *testing.T) {
		dates := On(feb1)
		assert.False(t, DateIncluded(jan15, dates))
		assert.True(t, DateIncluded(feb1, dates))
	})

	t.Run("nil", func(t *testing.T) {
		assert.False(t, DateIncluded(jan15, nil))
	})
}

func TestBeginningOfMonth(t *testing.T) {
	assert.Equal(t, date(2000, 1, 1), BeginningOfMonth(date(2000, 1, 15)))
	assert.Equal(t, date(2000, 1, 1), BeginningOfMonth(time.Date(2000, 1, 31, 23, 59, 0, 0, time.UTC)))
}

func TestAverage(t *testing.T) {
	values := []decimal.Decimal{decimal.NewFromInt(1), decimal.NewFromInt(2), decimal.NewFromInt(3)}
	assert.True(t, decimal.NewFromInt(2).Equal(Average(values, 0)))

	values = []decimal.Decimal{decimal.NewFromInt(1), decimal.NewFromInt(2)}
	assert.Equal(t, "1.5", Average(values, 2).String())

	assert.True(t, decimal.Zero.Equal(Average(nil, 2)))
}

func TestRangeHelpers(t *testing.T) {
	r := NewRange(date(2000, 1, 4), date(2000, 1, 1))
	assert.Equal(t, date(2000, 1, 1), r.Start)
	assert.Equal(t, 4, r.Len())
	assert.Len(t, r.Days(), 4)

	assert.Equal(t, 3, DaysBetween(date(2000, 2, 28), date(2000, 3, 2)))
	assert.Equal(t, date(2000, 3, 1), AddDays(date(2000, 2, 28), 2))

	d, err := Parse("2000-02-29")
	require.NoError(t, err)
	assert.Equal(t, date(2000, 2, 29), d)

	_, err = Parse("2000-02-30")
	assert.Error(t, err)
}
