package analysis

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/ctrlchart-cli/internal/limits"
	"github.com/KaramelBytes/ctrlchart-cli/internal/render"
	"github.com/KaramelBytes/ctrlchart-cli/internal/sample"
	"github.com/montanaflynn/stats"
)

// Point is an observation outside the control limits.
type Point struct {
	// Row is the 1-based data row (header excluded).
	Row   int     `json:"row"`
	Date  string  `json:"date"`
	Value float64 `json:"value"`
	Zone  string  `json:"zone"`
}

// Summary describes a sample and where it sits relative to its limits.
type Summary struct {
	Analysis      string               `json:"analysis"`
	Rows          int                  `json:"rows"`
	Numeric       int                  `json:"numeric"`
	MissingValues int                  `json:"missing_values"`
	MissingDates  int                  `json:"missing_dates"`
	Min           float64              `json:"min"`
	Max           float64              `json:"max"`
	FirstDate     string               `json:"first_date,omitempty"`
	LastDate      string               `json:"last_date,omitempty"`
	Limits        limits.ControlLimits `json:"limits"`
	OutOfControl  []Point              `json:"out_of_control"`
	Warnings      []string             `json:"warnings,omitempty"`
}

// Summarize builds the summary of s against l.
func Summarize(analysis string, s *sample.Sample, l limits.ControlLimits) *Summary {
	sum := &Summary{
		Analysis:     analysis,
		Rows:         s.Len(),
		Limits:       l,
		OutOfControl: []Point{},
	}
	vals := s.Values()
	sum.Numeric = len(vals)
	sum.MissingValues, sum.MissingDates = s.Missing()
	if len(vals) > 0 {
		sum.Min, _ = stats.Min(vals)
		sum.Max, _ = stats.Max(vals)
	}
	if first, last, ok := s.DateRange(); ok {
		sum.FirstDate = first.Format(sample.DateLayout)
		sum.LastDate = last.Format(sample.DateLayout)
	}
	for i, o := range s.Observations {
		if !o.Valid {
			continue
		}
		if z := l.Classify(o.Value); z != limits.Within {
			sum.OutOfControl = append(sum.OutOfControl, Point{
				Row:   i + 1,
				Date:  render.FormatDate(o),
				Value: o.Value,
				Zone:  z.String(),
			})
		}
	}
	if sum.MissingValues > 0 {
		sum.Warnings = append(sum.Warnings, fmt.Sprintf("%d row(s) with a missing or non-numeric value were excluded from the limits", sum.MissingValues))
	}
	if sum.MissingDates > 0 {
		sum.Warnings = append(sum.Warnings, fmt.Sprintf("%d row(s) with a missing or invalid date are not plotted", sum.MissingDates))
	}
	if l.StdDev == 0 && l.N > 0 {
		sum.Warnings = append(sum.Warnings, "all values are equal; the control limits coincide with the mean")
	}
	return sum
}

// InControl reports whether every numeric value lies within the limits.
func (s *Summary) InControl() bool { return len(s.OutOfControl) == 0 }

// Markdown renders a compact text report.
func (s *Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("[CONTROL CHART SUMMARY]\n")
	if s.Analysis != "" {
		b.WriteString(fmt.Sprintf("Analysis: %s\n", s.Analysis))
	}
	b.WriteString(fmt.Sprintf("Rows: %d (numeric %d, missing values %d, missing dates %d)\n", s.Rows, s.Numeric, s.MissingValues, s.MissingDates))
	if s.FirstDate != "" {
		b.WriteString(fmt.Sprintf("Period: %s to %s\n", s.FirstDate, s.LastDate))
	}
	if s.Numeric > 0 {
		b.WriteString(fmt.Sprintf("Range: min %.4g, max %.4g\n", s.Min, s.Max))
	}

	b.WriteString("\n[LIMITS]\n")
	b.WriteString(fmt.Sprintf("- Mean: %.4f\n", s.Limits.Mean))
	b.WriteString(fmt.Sprintf("- Std dev (n-1): %.4f\n", s.Limits.StdDev))
	b.WriteString(fmt.Sprintf("- Upper (mean + %.0f sd): %.4f\n", limits.Sigma, s.Limits.Upper))
	b.WriteString(fmt.Sprintf("- Lower (mean - %.0f sd): %.4f\n", limits.Sigma, s.Limits.Lower))

	b.WriteString("\n[OUT OF CONTROL]\n")
	if s.InControl() {
		b.WriteString("- none\n")
	} else {
		b.WriteString("| Row | Date | Value | Zone |\n")
		b.WriteString("| --- | --- | --- | --- |\n")
		for _, p := range s.OutOfControl {
			b.WriteString(fmt.Sprintf("| %d | %s | %.4g | %s |\n", p.Row, p.Date, p.Value, p.Zone))
		}
	}
	if len(s.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range s.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}
