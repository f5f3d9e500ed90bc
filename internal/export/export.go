package export

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/KaramelBytes/ctrlchart-cli/internal/render"
	"github.com/KaramelBytes/ctrlchart-cli/internal/sample"
	"github.com/KaramelBytes/ctrlchart-cli/internal/utils"
	"github.com/go-pdf/fpdf"
)

// MIMEType is the content type of exported documents.
const MIMEType = "application/pdf"

const (
	margin     = 10.0 // mm
	headingH   = 10.0 // mm
	maxRowH    = 8.0  // mm
	maxFontPt  = 10.0
	ptPerMM    = 72.0 / 25.4
	blockGap   = 4.0 // mm between column blocks
	charsInRow = 24  // widest expected date+value row, in average glyphs
)

// ErrNoChart is returned when the chart page has nothing to draw.
var ErrNoChart = errors.New("chart image is empty")

// Exporter composes the two-page report: the chart on page 1, the data table
// on page 2.
type Exporter struct {
	// Date is stamped as the document creation and modification date. Pinning
	// it keeps output byte-identical for identical input.
	Date time.Time
}

// New returns an exporter dated after the latest observation in s.
func New(s *sample.Sample) *Exporter {
	return &Exporter{Date: DocumentDate(s)}
}

// DocumentDate is the latest observation date, or the Unix epoch when no
// observation has a date.
func DocumentDate(s *sample.Sample) time.Time {
	if _, last, ok := s.DateRange(); ok {
		return last
	}
	return time.Unix(0, 0).UTC()
}

// FileName derives the output file name for an analysis.
func FileName(analysis string) string {
	return utils.SafeFileName(analysis, "carta_de_controle") + ".pdf"
}

// WriteFile writes the report to path atomically.
func (e *Exporter) WriteFile(path string, c *render.Chart, t *render.Table) error {
	b, err := e.compose(c, t)
	if err != nil {
		return err
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// Bytes returns the report as an in-memory reader positioned at offset 0.
func (e *Exporter) Bytes(c *render.Chart, t *render.Table) (*bytes.Reader, error) {
	b, err := e.compose(c, t)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}

func (e *Exporter) compose(c *render.Chart, t *render.Table) ([]byte, error) {
	if c == nil || len(c.PNG) == 0 {
		return nil, ErrNoChart
	}
	if t == nil {
		t = &render.Table{}
	}
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetCreationDate(e.Date)
	pdf.SetModificationDate(e.Date)
	pdf.SetCatalogSort(true)
	pdf.SetCompression(true)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, margin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(c.Title), false)

	chartPage(pdf, c)
	if pdf.Err() {
		return nil, fmt.Errorf("chart page: %w", pdf.Error())
	}
	tablePage(pdf, tr, c.Title, t)
	if pdf.Err() {
		return nil, fmt.Errorf("table page: %w", pdf.Error())
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("output pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// chartPage scales the chart image to the printable area and centres it.
func chartPage(pdf *fpdf.Fpdf, c *render.Chart) {
	pdf.AddPage()
	opt := fpdf.ImageOptions{ImageType: "PNG"}
	info := pdf.RegisterImageOptionsReader("chart", opt, bytes.NewReader(c.PNG))
	if pdf.Err() {
		return
	}
	pw, ph := pdf.GetPageSize()
	aw, ah := pw-2*margin, ph-2*margin
	iw, ih := info.Width(), info.Height()
	scale := math.Min(aw/iw, ah/ih)
	w, h := iw*scale, ih*scale
	pdf.ImageOptions("chart", (pw-w)/2, (ph-h)/2, w, h, false, opt, 0, "")
}

// tablePage lays the whole table out on one page.
func tablePage(pdf *fpdf.Fpdf, tr func(string) string, title string, t *render.Table) {
	pdf.AddPage()
	pw, ph := pdf.GetPageSize()
	aw := pw - 2*margin
	ah := ph - 2*margin - headingH

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(margin, margin)
	pdf.CellFormat(aw, headingH-2, tr(title), "", 0, "L", false, 0, "")

	header := t.Header
	if len(header) == 0 {
		header = []string{sample.DateColumn, sample.ValueColumn}
	}
	l := fit(len(t.Rows), aw, ah)
	top := margin + headingH
	pdf.SetFillColor(230, 230, 230)
	for b := 0; b < l.blocks; b++ {
		x := margin + float64(b)*(l.blockW+blockGap)
		cw := l.blockW / float64(len(header))

		pdf.SetFont("Helvetica", "B", l.font)
		pdf.SetXY(x, top)
		for _, h := range header {
			pdf.CellFormat(cw, l.rowH, tr(h), "1", 0, "C", true, 0, "")
		}

		pdf.SetFont("Helvetica", "", l.font)
		start := b * l.perBlock
		end := min(start+l.perBlock, len(t.Rows))
		for i := start; i < end; i++ {
			pdf.SetXY(x, top+float64(i-start+1)*l.rowH)
			for j := range header {
				cell := ""
				if j < len(t.Rows[i]) {
					cell = t.Rows[i][j]
				}
				pdf.CellFormat(cw, l.rowH, tr(cell), "1", 0, "C", false, 0, "")
			}
		}
	}
}

type layout struct {
	blocks   int
	perBlock int
	rowH     float64
	blockW   float64
	font     float64
}

// fit picks the number of side-by-side column blocks that gives the largest
// legible font while keeping every row on the page.
func fit(rows int, w, h float64) layout {
	best := layout{blocks: 1, perBlock: rows, rowH: math.Min(h/float64(rows+1), maxRowH), blockW: w}
	best.font = fontFor(best.rowH, best.blockW)
	for b := 2; b <= rows; b++ {
		per := (rows + b - 1) / b
		if per == (rows+b-2)/(b-1) {
			continue // same rows per block as b-1 blocks, only narrower
		}
		blockW := (w - float64(b-1)*blockGap) / float64(b)
		if blockW <= 0 {
			break
		}
		rowH := math.Min(h/float64(per+1), maxRowH)
		font := fontFor(rowH, blockW)
		if font > best.font {
			best = layout{blocks: b, perBlock: per, rowH: rowH, blockW: blockW, font: font}
		}
		if best.font >= maxFontPt {
			break
		}
	}
	if best.perBlock == 0 {
		best.perBlock = 1
	}
	return best
}

// fontFor is the largest font size, in points, that fits both the row height
// and the block width.
func fontFor(rowH, blockW float64) float64 {
	byHeight := rowH * ptPerMM * 0.7
	byWidth := blockW / (charsInRow * 0.5 / ptPerMM)
	return math.Min(maxFontPt, math.Min(byHeight, byWidth))
}
