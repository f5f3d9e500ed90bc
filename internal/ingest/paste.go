package ingest

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/ctrlchart-cli/internal/sample"
)

// Pasted reads tab-separated text copied from a spreadsheet. The first line is
// a header and is discarded; every other non-blank line must hold exactly a
// date and a value.
type Pasted struct {
	opt Options
}

// NewPasted returns a pasted-text source.
func NewPasted(opt Options) *Pasted {
	return &Pasted{opt: opt.withDefaults()}
}

func (p *Pasted) Name() string { return "pasted" }

func (p *Pasted) CanIngest(filename string) bool {
	return hasSuffix(filename, ".txt")
}

func (p *Pasted) Ingest(r io.Reader) (*sample.Sample, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	s := sample.New()
	s.DateLabel, s.ValueLabel = p.opt.DateColumn, p.opt.ValueColumn
	line := 0
	for sc.Scan() {
		line++
		if line == 1 {
			continue
		}
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) != 2 {
			return nil, &LineError{Line: line, Fields: len(fields)}
		}
		// pasted values may use either separator
		s.Append(observe(fields[0], fields[1], ','))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read pasted text: %w", err)
	}
	return s, nil
}
