package sample

import (
	"time"
)

// Default column names expected in uploaded measurement files.
const (
	DateColumn  = "Data"
	ValueColumn = "Valor"
)

// DateLayout is the display layout for observation dates (DD/MM/YYYY).
const DateLayout = "02/01/2006"

// Observation is a single (date, value) measurement.
// A zero Date marks a date that failed to parse; Valid=false marks a value
// that failed to parse. Raw fields keep the original text for display.
type Observation struct {
	Date     time.Time
	Value    float64
	Valid    bool
	RawDate  string
	RawValue string
}

// HasDate reports whether the observation carries a parsed date.
func (o Observation) HasDate() bool { return !o.Date.IsZero() }

// Plottable reports whether both the date and the value parsed.
func (o Observation) Plottable() bool { return o.Valid && o.HasDate() }

// Sample is an ordered sequence of observations in ingestion order.
type Sample struct {
	DateLabel    string
	ValueLabel   string
	Observations []Observation
}

// New returns an empty sample using the default column labels.
func New() *Sample {
	return &Sample{DateLabel: DateColumn, ValueLabel: ValueColumn}
}

// Append adds an observation at the end of the sample.
func (s *Sample) Append(o Observation) {
	s.Observations = append(s.Observations, o)
}

// Len returns the number of observations, including those with missing fields.
func (s *Sample) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Observations)
}

// Values returns the numeric values, skipping missing ones, in sample order.
func (s *Sample) Values() []float64 {
	if s == nil {
		return nil
	}
	out := make([]float64, 0, len(s.Observations))
	for _, o := range s.Observations {
		if o.Valid {
			out = append(out, o.Value)
		}
	}
	return out
}

// Missing counts observations with a missing value and with a missing date.
func (s *Sample) Missing() (values, dates int) {
	if s == nil {
		return 0, 0
	}
	for _, o := range s.Observations {
		if !o.Valid {
			values++
		}
		if !o.HasDate() {
			dates++
		}
	}
	return values, dates
}

// DateRange returns the earliest and latest parsed dates. ok is false when no
// observation has a date.
func (s *Sample) DateRange() (first, last time.Time, ok bool) {
	if s == nil {
		return time.Time{}, time.Time{}, false
	}
	for _, o := range s.Observations {
		if !o.HasDate() {
			continue
		}
		if !ok {
			first, last, ok = o.Date, o.Date, true
			continue
		}
		if o.Date.Before(first) {
			first = o.Date
		}
		if o.Date.After(last) {
			last = o.Date
		}
	}
	return first, last, ok
}
