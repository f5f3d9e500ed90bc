package pipeline

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/ctrlchart-cli/internal/ingest"
	"github.com/KaramelBytes/ctrlchart-cli/internal/limits"
	"github.com/KaramelBytes/ctrlchart-cli/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const csvInput = "Data,Valor\n01/01/2024,10\n02/01/2024,12\n03/01/2024,11\n04/01/2024,13\n"

func runner(t *testing.T) *Runner {
	r := NewRunner(zaptest.NewLogger(t))
	r.Render = render.Options{Width: 500, Height: 300}
	return r
}

func TestRunCSV(t *testing.T) {
	res, err := runner(t).Run(Request{
		Input:    strings.NewReader(csvInput),
		Source:   ingest.NewDelimited(ingest.DefaultOptions()),
		Analysis: "Colimetria (Quantitativa)",
	})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Sample.Len())
	assert.InDelta(t, 11.5, res.Limits.Mean, 1e-9)
	assert.InDelta(t, 15.373, res.Limits.Upper, 1e-3)
	assert.InDelta(t, 7.627, res.Limits.Lower, 1e-3)
	assert.True(t, bytes.HasPrefix(res.PDF, []byte("%PDF")))
	assert.Len(t, res.Table.Rows, 4)
	assert.Equal(t, "Colimetria (Quantitativa)", res.Summary.Analysis)
}

func TestRunIsIdempotent(t *testing.T) {
	run := func() *Result {
		res, err := runner(t).Run(Request{
			Input:    strings.NewReader("Header\n01/01/2024\t10,5\n02/01/2024\t11,0\n03/01/2024\t9,8"),
			Source:   ingest.NewPasted(ingest.DefaultOptions()),
			Analysis: "EBA",
		})
		require.NoError(t, err)
		return res
	}
	a, b := run(), run()
	assert.Equal(t, a.Limits, b.Limits)
	assert.Equal(t, a.Chart.PNG, b.Chart.PNG)
	assert.Equal(t, a.PDF, b.PDF)
}

func TestRunMissingColumnIsNotWrapped(t *testing.T) {
	_, err := runner(t).Run(Request{
		Input:  strings.NewReader("Data,Value\n01/01/2024,1\n"),
		Source: ingest.NewDelimited(ingest.DefaultOptions()),
	})
	var mce *ingest.MissingColumnError
	require.True(t, errors.As(err, &mce))
	var pe *ProcessingError
	assert.False(t, errors.As(err, &pe))
}

func TestRunStages(t *testing.T) {
	tests := []struct {
		name  string
		src   ingest.Source
		input string
		stage Stage
		is    error
	}{
		{"bad paste line", ingest.NewPasted(ingest.DefaultOptions()), "h\n01/01/2024\n", StageIngest, nil},
		{"empty csv", ingest.NewDelimited(ingest.DefaultOptions()), "", StageIngest, ingest.ErrEmptyInput},
		{"header only", ingest.NewDelimited(ingest.DefaultOptions()), "Data,Valor\n", StageLimits, limits.ErrEmptySample},
		{"one value", ingest.NewDelimited(ingest.DefaultOptions()), "Data,Valor\n01/01/2024,3\n", StageLimits, limits.ErrUndefinedDeviation},
		{"no numbers", ingest.NewDelimited(ingest.DefaultOptions()), "Data,Valor\n01/01/2024,x\n02/01/2024,y\n", StageLimits, limits.ErrNoNumericValues},
		{"overflow", ingest.NewDelimited(ingest.DefaultOptions()), "Data,Valor\n01/01/2024,1e308\n02/01/2024,1.7e308\n", StageLimits, limits.ErrNonFiniteLimits},
		{"no dates", ingest.NewDelimited(ingest.DefaultOptions()), "Data,Valor\nx,1\ny,2\n", StageRender, render.ErrNothingToPlot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := runner(t).Run(Request{Input: strings.NewReader(tt.input), Source: tt.src})
			assert.Nil(t, res)
			var pe *ProcessingError
			require.True(t, errors.As(err, &pe), "got %v", err)
			assert.Equal(t, tt.stage, pe.Stage)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestRunSkipPDF(t *testing.T) {
	res, err := runner(t).Run(Request{
		Input:   strings.NewReader(csvInput),
		Source:  ingest.NewDelimited(ingest.DefaultOptions()),
		SkipPDF: true,
	})
	require.NoError(t, err)
	assert.Nil(t, res.PDF)
	assert.Nil(t, res.Chart)
	assert.NotNil(t, res.Summary)
}

func TestRunNoInput(t *testing.T) {
	_, err := runner(t).Run(Request{})
	var pe *ProcessingError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, StageIngest, pe.Stage)
}

func TestRunWritesOutputPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "EBA.pdf")
	res, err := runner(t).Run(Request{
		Input:      strings.NewReader(csvInput),
		Source:     ingest.NewDelimited(ingest.DefaultOptions()),
		Analysis:   "EBA",
		OutputPath: path,
	})
	require.NoError(t, err)
	assert.Nil(t, res.PDF)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("%PDF")))
}

func TestRunOutputPathFailure(t *testing.T) {
	_, err := runner(t).Run(Request{
		Input:      strings.NewReader(csvInput),
		Source:     ingest.NewDelimited(ingest.DefaultOptions()),
		OutputPath: filepath.Join(t.TempDir(), "missing", "x.pdf"),
	})
	var pe *ProcessingError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, StageExport, pe.Stage)
}
