package render

import (
	"strconv"

	"github.com/KaramelBytes/ctrlchart-cli/internal/sample"
)

// MissingCell is shown in place of a field that failed to parse.
const MissingCell = "n/a"

// Table is the tabular rendering of a sample.
type Table struct {
	Header []string
	Rows   [][]string
}

// RenderTable lists every observation in sample order under the sample's
// column labels.
func RenderTable(s *sample.Sample) *Table {
	t := &Table{Header: []string{s.DateLabel, s.ValueLabel}}
	t.Rows = make([][]string, 0, s.Len())
	for _, o := range s.Observations {
		t.Rows = append(t.Rows, []string{FormatDate(o), FormatValue(o)})
	}
	return t
}

// FormatDate formats the observation date as DD/MM/YYYY.
func FormatDate(o sample.Observation) string {
	if !o.HasDate() {
		return MissingCell
	}
	return o.Date.Format(sample.DateLayout)
}

// FormatValue formats the observation value in its shortest exact form.
func FormatValue(o sample.Observation) string {
	if !o.Valid {
		return MissingCell
	}
	return strconv.FormatFloat(o.Value, 'f', -1, 64)
}
