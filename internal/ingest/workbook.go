package ingest

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/ctrlchart-cli/internal/sample"
	"github.com/xuri/excelize/v2"
)

// Workbook reads the Data/Valor columns from an .xlsx sheet. The first row of
// the sheet is the header.
type Workbook struct {
	opt Options
}

// NewWorkbook returns a workbook source.
func NewWorkbook(opt Options) *Workbook {
	return &Workbook{opt: opt.withDefaults()}
}

func (w *Workbook) Name() string { return "workbook" }

func (w *Workbook) CanIngest(filename string) bool {
	return hasSuffix(filename, ".xlsx")
}

func (w *Workbook) Ingest(r io.Reader) (*sample.Sample, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheet := w.opt.Sheet
	if sheet == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			return nil, ErrEmptyInput
		}
		sheet = list[0]
	}
	// raw values keep date cells as serial numbers instead of locale formatting
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyInput
	}
	dateIdx, valueIdx, err := columnIndex(rows[0], w.opt)
	if err != nil {
		return nil, err
	}

	s := sample.New()
	s.DateLabel, s.ValueLabel = w.opt.DateColumn, w.opt.ValueColumn
	for _, rec := range rows[1:] {
		if blank(rec) {
			continue
		}
		o := observe(field(rec, dateIdx), field(rec, valueIdx), w.opt.DecimalSeparator)
		if !o.HasDate() {
			if t, ok := serialDate(o.RawDate); ok {
				o.Date = t
				o.RawDate = t.Format(sample.DateLayout)
			}
		}
		s.Append(o)
	}
	return s, nil
}

// serialDate converts an Excel date serial (e.g. "45292") to a calendar date.
func serialDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil || serial <= 0 {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
}
