package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	cfgpkg "github.com/KaramelBytes/ctrlchart-cli/internal/config"
	"github.com/KaramelBytes/ctrlchart-cli/internal/ingest"
	"github.com/KaramelBytes/ctrlchart-cli/internal/pipeline"
	"github.com/KaramelBytes/ctrlchart-cli/internal/preset"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// inputFlags are shared by commands that read measurements.
type inputFlags struct {
	analysis  string
	preset    string
	paste     string
	delimiter string
	decimal   string
	sheet     string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.analysis, "analysis", "a", "", "analysis name or preset key (e.g. colimetria, eba)")
	cmd.Flags().StringVar(&f.preset, "preset", "", "preset key; must exist in the catalog (see 'ctrlchart presets')")
	cmd.Flags().StringVar(&f.paste, "paste", "", "read tab-separated pasted text from this file ('-' for stdin)")
	cmd.Flags().StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (default from config)")
	cmd.Flags().StringVar(&f.decimal, "decimal", "", "decimal separator: 'comma' | 'dot' (default from config)")
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "XLSX: sheet name (default: first sheet)")
}

func (f *inputFlags) reset() {
	*f = inputFlags{}
}

// ingestOptions merges config defaults with command-line overrides.
func (f *inputFlags) ingestOptions(c *cfgpkg.Global) (ingest.Options, error) {
	opt := ingestOptionsFromConfig(c)
	delim := strings.ToLower(strings.TrimSpace(f.delimiter))
	if delim == "" && strings.Contains(f.delimiter, "\t") {
		delim = "tab"
	}
	switch delim {
	case "":
	case ",":
		opt.Delimiter = ','
	case ";":
		opt.Delimiter = ';'
	case "tab", `\t`:
		opt.Delimiter = '\t'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", f.delimiter)
	}
	switch strings.ToLower(strings.TrimSpace(f.decimal)) {
	case "":
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot":
		opt.DecimalSeparator = '.'
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use 'comma'|'dot')", f.decimal)
	}
	if f.sheet != "" {
		opt.Sheet = f.sheet
	}
	return opt, nil
}

func ingestOptionsFromConfig(c *cfgpkg.Global) ingest.Options {
	opt := ingest.DefaultOptions()
	if c == nil {
		return opt
	}
	opt.Delimiter = cfgpkg.Rune(c.CSVDelimiter, opt.Delimiter)
	opt.DecimalSeparator = cfgpkg.Rune(c.DecimalSeparator, opt.DecimalSeparator)
	if c.DateColumn != "" {
		opt.DateColumn = c.DateColumn
	}
	if c.ValueColumn != "" {
		opt.ValueColumn = c.ValueColumn
	}
	opt.Sheet = c.SheetName
	return opt
}

// analysisName resolves --preset or --analysis against the catalog.
func (f *inputFlags) analysisName(cat *preset.Catalog) (string, error) {
	if f.preset != "" {
		p, ok := cat.Lookup(f.preset)
		if !ok {
			return "", fmt.Errorf("unknown preset: %s (see 'ctrlchart presets')", f.preset)
		}
		return p.Label, nil
	}
	name, err := cat.Resolve(f.analysis)
	if err != nil {
		return "", fmt.Errorf("--analysis or --preset is required: %w", err)
	}
	return name, nil
}

// openInput picks the source and reader for the command arguments. The
// returned close function must be called once the pipeline is done.
func (f *inputFlags) openInput(args []string, opt ingest.Options) (io.Reader, ingest.Source, string, func(), error) {
	noop := func() {}
	path := f.paste
	pasted := path != ""
	if !pasted {
		if len(args) == 0 {
			return nil, nil, "", noop, fmt.Errorf("an input file, '-' or --paste is required")
		}
		path = args[0]
		pasted = path == "-"
	}
	if path == "-" {
		return os.Stdin, ingest.NewPasted(opt), "stdin", noop, nil
	}

	var src ingest.Source
	if pasted {
		src = ingest.NewPasted(opt)
	} else {
		s, err := ingest.ForFile(path, opt)
		if err != nil {
			return nil, nil, "", noop, err
		}
		src = s
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, "", noop, fmt.Errorf("open input: %w", err)
	}
	return file, src, filepath.Base(path), func() { file.Close() }, nil
}

// newRunner builds a pipeline runner with chart size from config.
func newRunner(c *cfgpkg.Global, logger *zap.Logger) *pipeline.Runner {
	r := pipeline.NewRunner(logger)
	if c != nil {
		if c.ChartWidth > 0 {
			r.Render.Width = c.ChartWidth
		}
		if c.ChartHeight > 0 {
			r.Render.Height = c.ChartHeight
		}
	}
	return r
}

func presetCatalog(c *cfgpkg.Global) *preset.Catalog {
	if c == nil {
		return preset.NewCatalog(nil)
	}
	return preset.NewCatalog(c.Presets)
}
