package render

import (
	"bytes"
	"testing"
	"time"

	"github.com/KaramelBytes/ctrlchart-cli/internal/limits"
	"github.com/KaramelBytes/ctrlchart-cli/internal/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func day(d int) time.Time { return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC) }

func buildSample(vals ...float64) *sample.Sample {
	s := sample.New()
	for i, v := range vals {
		s.Append(sample.Observation{Date: day(i + 1), Value: v, Valid: true})
	}
	return s
}

func mustLimits(t *testing.T, s *sample.Sample) limits.ControlLimits {
	t.Helper()
	l, err := limits.Compute(s)
	require.NoError(t, err)
	return l
}

func TestRenderChartPNG(t *testing.T) {
	s := buildSample(10, 12, 11, 13)
	c, err := RenderChart(s, mustLimits(t, s), "Colimetria (Quantitativa)", DefaultOptions())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(c.PNG, pngMagic))
	assert.Equal(t, "Carta de Controle - Colimetria (Quantitativa)", c.Title)
	assert.Equal(t, 1000, c.Width)
	assert.Equal(t, 600, c.Height)
}

func TestRenderChartDeterministic(t *testing.T) {
	s := buildSample(10, 12, 11, 13, 9.5)
	l := mustLimits(t, s)
	a, err := RenderChart(s, l, "EBA", DefaultOptions())
	require.NoError(t, err)
	b, err := RenderChart(s, l, "EBA", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, a.PNG, b.PNG)
}

func TestRenderChartDegenerateRanges(t *testing.T) {
	// zero deviation: all three lines coincide
	s := buildSample(5, 5, 5)
	c, err := RenderChart(s, mustLimits(t, s), "flat", Options{Width: 400, Height: 300})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(c.PNG, pngMagic))

	// all points on one date
	s = sample.New()
	s.Append(sample.Observation{Date: day(3), Value: 1, Valid: true})
	s.Append(sample.Observation{Date: day(3), Value: 2, Valid: true})
	c, err = RenderChart(s, mustLimits(t, s), "one day", Options{Width: 400, Height: 300})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(c.PNG, pngMagic))
}

func TestRenderChartSkipsMissing(t *testing.T) {
	s := buildSample(10, 12)
	s.Append(sample.Observation{RawDate: "??", Value: 99, Valid: true})
	s.Append(sample.Observation{Date: day(9), RawValue: "x"})
	c, err := RenderChart(s, mustLimits(t, buildSample(10, 12)), "", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "Carta de Controle", c.Title)
}

func TestRenderChartNothingToPlot(t *testing.T) {
	s := sample.New()
	s.Append(sample.Observation{RawDate: "bad", Value: 1, Valid: true})
	s.Append(sample.Observation{RawDate: "bad", Value: 2, Valid: true})
	_, err := RenderChart(s, mustLimits(t, s), "x", DefaultOptions())
	assert.ErrorIs(t, err, ErrNothingToPlot)
}

func TestRenderTable(t *testing.T) {
	s := buildSample(10.5, 11)
	s.Append(sample.Observation{RawDate: "31/02/2024", Value: 7, Valid: true})
	s.Append(sample.Observation{Date: day(4), RawValue: "abc"})

	tb := RenderTable(s)
	assert.Equal(t, []string{"Data", "Valor"}, tb.Header)
	assert.Equal(t, [][]string{
		{"01/01/2024", "10.5"},
		{"02/01/2024", "11"},
		{MissingCell, "7"},
		{"04/01/2024", MissingCell},
	}, tb.Rows)
}

func TestValueRangeCoversLimits(t *testing.T) {
	l := limits.ControlLimits{Mean: 11.5, Upper: 15.373, Lower: 7.627}
	r := valueRange([]float64{10, 12, 11, 13}, l)
	assert.Less(t, r.Min, l.Lower)
	assert.Greater(t, r.Max, l.Upper)

	r = valueRange([]float64{0, 0}, limits.ControlLimits{})
	assert.Less(t, r.Min, r.Max)
}
