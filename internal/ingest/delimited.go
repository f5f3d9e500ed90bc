package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/KaramelBytes/ctrlchart-cli/internal/sample"
)

// Delimited reads a delimited file with a header row naming the date and
// value columns.
type Delimited struct {
	opt Options
}

// NewDelimited returns a delimited-file source.
func NewDelimited(opt Options) *Delimited {
	return &Delimited{opt: opt.withDefaults()}
}

func (d *Delimited) Name() string { return "delimited" }

func (d *Delimited) CanIngest(filename string) bool {
	return hasSuffix(filename, ".csv", ".tsv")
}

// ForTSV returns a copy of the source that splits on tabs.
func (d *Delimited) ForTSV() *Delimited {
	opt := d.opt
	opt.Delimiter = '\t'
	return &Delimited{opt: opt}
}

func (d *Delimited) Ingest(r io.Reader) (*sample.Sample, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comma = d.opt.Delimiter

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyInput
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	dateIdx, valueIdx, err := columnIndex(header, d.opt)
	if err != nil {
		return nil, err
	}

	s := sample.New()
	s.DateLabel, s.ValueLabel = d.opt.DateColumn, d.opt.ValueColumn
	row := 1
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", row+1, err)
		}
		row++
		if blank(rec) {
			continue
		}
		s.Append(observe(field(rec, dateIdx), field(rec, valueIdx), d.opt.DecimalSeparator))
	}
	return s, nil
}
