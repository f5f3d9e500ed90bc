package sample

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(d int) time.Time { return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC) }

func TestValuesSkipMissing(t *testing.T) {
	s := New()
	s.Append(Observation{Date: day(1), Value: 10, Valid: true})
	s.Append(Observation{Date: day(2), RawValue: "abc"})
	s.Append(Observation{Value: 0, Valid: true})

	assert.Equal(t, []float64{10, 0}, s.Values())
	values, dates := s.Missing()
	assert.Equal(t, 1, values)
	assert.Equal(t, 1, dates)
	assert.Equal(t, 3, s.Len())
}

func TestDateRangeIgnoresOrderAndMissing(t *testing.T) {
	s := New()
	s.Append(Observation{Date: day(5), Valid: true})
	s.Append(Observation{Valid: true})
	s.Append(Observation{Date: day(2), Valid: true})
	s.Append(Observation{Date: day(9)})

	first, last, ok := s.DateRange()
	assert.True(t, ok)
	assert.Equal(t, day(2), first)
	assert.Equal(t, day(9), last)

	_, _, ok = New().DateRange()
	assert.False(t, ok)
}

func TestNilSample(t *testing.T) {
	var s *Sample
	assert.Equal(t, 0, s.Len())
	assert.Nil(t, s.Values())
}

func TestPlottable(t *testing.T) {
	assert.True(t, Observation{Date: day(1), Valid: true}.Plottable())
	assert.False(t, Observation{Valid: true}.Plottable())
	assert.False(t, Observation{Date: day(1)}.Plottable())
}
