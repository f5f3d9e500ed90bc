package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/ctrlchart-cli/internal/limits"
	"github.com/KaramelBytes/ctrlchart-cli/internal/utils"
	"github.com/google/uuid"
)

// FileName is the manifest name inside the output directory.
const FileName = "archive.json"

// Entry records one exported report.
type Entry struct {
	ID        string    `json:"id"`
	Analysis  string    `json:"analysis"`
	File      string    `json:"file"`
	Source    string    `json:"source,omitempty"`
	Rows      int       `json:"rows"`
	Mean      float64   `json:"mean"`
	Upper     float64   `json:"upper"`
	Lower     float64   `json:"lower"`
	CreatedAt time.Time `json:"created_at"`
}

// Archive is the manifest of reports written to an output directory.
type Archive struct {
	Reports   map[string]*Entry `json:"reports"`
	UpdatedAt time.Time         `json:"updated_at"`

	// Not serialized: directory holding archive.json
	dir string `json:"-"`
}

// New constructs an empty in-memory archive for dir. Call Save() to persist.
func New(dir string) *Archive {
	return &Archive{Reports: make(map[string]*Entry), dir: dir}
}

// Load reads archive.json from dir.
func Load(dir string) (*Archive, error) {
	path := filepath.Join(dir, FileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("archive not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read archive: %w", err)
	}
	var a Archive
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, fmt.Errorf("parse archive: %w", err)
	}
	if a.Reports == nil {
		a.Reports = make(map[string]*Entry)
	}
	a.dir = dir
	return &a, nil
}

// Open loads the archive in dir, or returns an empty one if none exists yet.
func Open(dir string) (*Archive, error) {
	a, err := Load(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return New(dir), nil
	}
	return a, err
}

// Dir returns the on-disk directory of the archive.
func (a *Archive) Dir() string { return a.dir }

// Save writes archive.json using atomic write.
func (a *Archive) Save() error {
	if a.dir == "" {
		return errors.New("archive directory not set")
	}
	if err := utils.EnsureDir(a.dir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	a.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(a)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(a.dir, FileName), data)
}

// Add records a report written to file and returns the new entry.
func (a *Archive) Add(analysis, file, source string, rows int, l limits.ControlLimits) *Entry {
	e := &Entry{
		ID:        uuid.NewString(),
		Analysis:  analysis,
		File:      file,
		Source:    source,
		Rows:      rows,
		Mean:      l.Mean,
		Upper:     l.Upper,
		Lower:     l.Lower,
		CreatedAt: time.Now(),
	}
	if a.Reports == nil {
		a.Reports = make(map[string]*Entry)
	}
	a.Reports[e.ID] = e
	return e
}

// Get finds an entry by full ID or unique ID prefix.
func (a *Archive) Get(id string) (*Entry, error) {
	if e, ok := a.Reports[id]; ok {
		return e, nil
	}
	var found *Entry
	for k, e := range a.Reports {
		if id != "" && strings.HasPrefix(k, id) {
			if found != nil {
				return nil, fmt.Errorf("ambiguous id prefix %q", id)
			}
			found = e
		}
	}
	if found == nil {
		return nil, fmt.Errorf("report %q not found", id)
	}
	return found, nil
}

// Remove deletes an entry. The report file itself is left untouched.
func (a *Archive) Remove(id string) error {
	e, err := a.Get(id)
	if err != nil {
		return err
	}
	delete(a.Reports, e.ID)
	return nil
}

// Entries returns all entries ordered by creation time, oldest first.
func (a *Archive) Entries() []*Entry {
	out := make([]*Entry, 0, len(a.Reports))
	for _, e := range a.Reports {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
