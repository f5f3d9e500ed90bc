package ingest

import (
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/ctrlchart-cli/internal/sample"
)

// Source turns raw input into a Sample. Implementations differ only in how
// they locate the date and value fields.
type Source interface {
	Name() string
	CanIngest(filename string) bool
	Ingest(r io.Reader) (*sample.Sample, error)
}

// Options controls column lookup and number parsing.
type Options struct {
	// Delimiter for delimited files. Defaults to ','.
	Delimiter rune
	// DecimalSeparator used by numeric fields. Defaults to ','; '.' is always accepted.
	DecimalSeparator rune
	DateColumn       string
	ValueColumn      string
	// Sheet selects a workbook sheet by name; empty means the first sheet.
	Sheet string
}

// DefaultOptions matches the lab export format: comma-delimited, comma decimals,
// columns Data and Valor.
func DefaultOptions() Options {
	return Options{
		Delimiter:        ',',
		DecimalSeparator: ',',
		DateColumn:       sample.DateColumn,
		ValueColumn:      sample.ValueColumn,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Delimiter == 0 {
		o.Delimiter = d.Delimiter
	}
	if o.DecimalSeparator == 0 {
		o.DecimalSeparator = d.DecimalSeparator
	}
	if strings.TrimSpace(o.DateColumn) == "" {
		o.DateColumn = d.DateColumn
	}
	if strings.TrimSpace(o.ValueColumn) == "" {
		o.ValueColumn = d.ValueColumn
	}
	return o
}

// ErrUnsupported indicates no source handles the given file type.
var ErrUnsupported = errors.New("unsupported input format")

// ErrEmptyInput indicates the input had no header row.
var ErrEmptyInput = errors.New("input is empty")

// MissingColumnError reports a required column absent from the header.
type MissingColumnError struct {
	Column   string
	Required []string
}

func (e *MissingColumnError) Error() string {
	if len(e.Required) == 0 {
		return fmt.Sprintf("column %q not found", e.Column)
	}
	quoted := make([]string, len(e.Required))
	for i, r := range e.Required {
		quoted[i] = strconv.Quote(r)
	}
	return fmt.Sprintf("column %q not found; the file must contain the columns %s", e.Column, strings.Join(quoted, " and "))
}

// LineError reports a pasted line that does not split into exactly two fields.
type LineError struct {
	Line   int
	Fields int
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: expected 2 tab-separated fields, got %d", e.Line, e.Fields)
}

// ForFile picks a source by file extension.
func ForFile(filename string, opt Options) (Source, error) {
	if hasSuffix(filename, ".tsv") {
		return NewDelimited(opt).ForTSV(), nil
	}
	for _, s := range sources(opt) {
		if s.CanIngest(filename) {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", filepath.Base(filename), ErrUnsupported)
}

func sources(opt Options) []Source {
	return []Source{NewDelimited(opt), NewWorkbook(opt), NewPasted(opt)}
}

// ParseDate parses a DD/MM/YYYY date. One-digit days and months are accepted.
// Year 1 is rejected: its dates collide with the zero time that marks a
// missing date.
func ParseDate(raw string) (time.Time, bool) {
	t, err := time.Parse("2/1/2006", strings.TrimSpace(raw))
	if err != nil || t.Year() < 2 {
		return time.Time{}, false
	}
	return t, true
}

// decimalNumber is a plain base-10 number, optionally in exponent form.
var decimalNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// ParseValue parses a number whose decimal separator is dec. A '.' decimal
// point is always accepted as well. Only base-10 text is accepted, so hex
// floats, NaN and infinities are rejected.
func ParseValue(raw string, dec rune) (float64, bool) {
	s := strings.ReplaceAll(raw, "\u00A0", " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if dec != 0 && dec != '.' {
		s = strings.ReplaceAll(s, string(dec), ".")
	}
	if !decimalNumber.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func observe(rawDate, rawValue string, dec rune) sample.Observation {
	o := sample.Observation{RawDate: strings.TrimSpace(rawDate), RawValue: strings.TrimSpace(rawValue)}
	if t, ok := ParseDate(rawDate); ok {
		o.Date = t
	}
	if v, ok := ParseValue(rawValue, dec); ok {
		o.Value = v
		o.Valid = true
	}
	return o
}

// columnIndex locates the date and value columns in header.
func columnIndex(header []string, opt Options) (dateIdx, valueIdx int, err error) {
	dateIdx, valueIdx = -1, -1
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		switch {
		case h == opt.DateColumn && dateIdx < 0:
			dateIdx = i
		case h == opt.ValueColumn && valueIdx < 0:
			valueIdx = i
		}
	}
	required := []string{opt.DateColumn, opt.ValueColumn}
	if dateIdx < 0 {
		return -1, -1, &MissingColumnError{Column: opt.DateColumn, Required: required}
	}
	if valueIdx < 0 {
		return -1, -1, &MissingColumnError{Column: opt.ValueColumn, Required: required}
	}
	return dateIdx, valueIdx, nil
}

func field(rec []string, idx int) string {
	if idx < len(rec) {
		return rec[idx]
	}
	return ""
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func hasSuffix(filename string, exts ...string) bool {
	name := strings.ToLower(filename)
	for _, e := range exts {
		if strings.HasSuffix(name, e) {
			return true
		}
	}
	return false
}
