package pipeline

import (
	"errors"
	"fmt"
	"io"

	"github.com/KaramelBytes/ctrlchart-cli/internal/analysis"
	"github.com/KaramelBytes/ctrlchart-cli/internal/export"
	"github.com/KaramelBytes/ctrlchart-cli/internal/ingest"
	"github.com/KaramelBytes/ctrlchart-cli/internal/limits"
	"github.com/KaramelBytes/ctrlchart-cli/internal/render"
	"github.com/KaramelBytes/ctrlchart-cli/internal/sample"
	"go.uber.org/zap"
)

// Stage names the pipeline step that failed.
type Stage string

const (
	StageIngest Stage = "ingest"
	StageLimits Stage = "limits"
	StageRender Stage = "render"
	StageExport Stage = "export"
)

// ProcessingError wraps any failure other than a missing column.
type ProcessingError struct {
	Stage Stage
	Err   error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// Request is one interaction: an input stream, how to read it, and the
// analysis it belongs to.
type Request struct {
	Input    io.Reader
	Source   ingest.Source
	Analysis string
	// SkipPDF stops after the summary; Chart, Table and PDF stay nil.
	SkipPDF bool
	// OutputPath, when set, writes the report there instead of returning
	// its bytes in Result.PDF.
	OutputPath string
}

// Result holds every artifact of a successful run.
type Result struct {
	Sample  *sample.Sample
	Limits  limits.ControlLimits
	Summary *analysis.Summary
	Chart   *render.Chart
	Table   *render.Table
	// PDF is nil when the report went to Request.OutputPath.
	PDF []byte
}

// Runner runs requests. It holds no per-request state and is safe for
// concurrent use.
type Runner struct {
	Logger *zap.Logger
	Render render.Options
}

// NewRunner returns a runner with default render options.
func NewRunner(logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{Logger: logger, Render: render.DefaultOptions()}
}

// Run ingests, computes, renders and exports. On error no partial result is
// returned.
func (r *Runner) Run(req Request) (*Result, error) {
	log := r.logger().With(zap.String("analysis", req.Analysis))
	if req.Source == nil || req.Input == nil {
		return nil, &ProcessingError{Stage: StageIngest, Err: errors.New("no input")}
	}

	s, err := req.Source.Ingest(req.Input)
	if err != nil {
		var mce *ingest.MissingColumnError
		if errors.As(err, &mce) {
			log.Debug("missing column", zap.String("column", mce.Column))
			return nil, mce
		}
		return nil, r.fail(log, StageIngest, err)
	}
	missVals, missDates := s.Missing()
	log.Debug("ingested",
		zap.String("source", req.Source.Name()),
		zap.Int("rows", s.Len()),
		zap.Int("missing_values", missVals),
		zap.Int("missing_dates", missDates))

	l, err := limits.Compute(s)
	if err != nil {
		return nil, r.fail(log, StageLimits, err)
	}
	log.Debug("limits",
		zap.Float64("mean", l.Mean),
		zap.Float64("std_dev", l.StdDev),
		zap.Float64("upper", l.Upper),
		zap.Float64("lower", l.Lower))

	res := &Result{Sample: s, Limits: l, Summary: analysis.Summarize(req.Analysis, s, l)}
	if req.SkipPDF {
		return res, nil
	}

	c, err := render.RenderChart(s, l, req.Analysis, r.Render)
	if err != nil {
		return nil, r.fail(log, StageRender, err)
	}
	t := render.RenderTable(s)
	res.Chart, res.Table = c, t

	exp := export.New(s)
	if req.OutputPath != "" {
		if err := exp.WriteFile(req.OutputPath, c, t); err != nil {
			return nil, r.fail(log, StageExport, err)
		}
		log.Debug("exported", zap.String("path", req.OutputPath))
		return res, nil
	}
	rd, err := exp.Bytes(c, t)
	if err != nil {
		return nil, r.fail(log, StageExport, err)
	}
	pdf := make([]byte, rd.Len())
	if _, err := io.ReadFull(rd, pdf); err != nil {
		return nil, r.fail(log, StageExport, err)
	}
	log.Debug("exported", zap.Int("pdf_bytes", len(pdf)), zap.Int("png_bytes", len(c.PNG)))
	res.PDF = pdf
	return res, nil
}

func (r *Runner) fail(log *zap.Logger, stage Stage, err error) error {
	log.Debug("pipeline failed", zap.String("stage", string(stage)), zap.Error(err))
	return &ProcessingError{Stage: stage, Err: err}
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}
