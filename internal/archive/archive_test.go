package archive_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/KaramelBytes/ctrlchart-cli/internal/archive"
	"github.com/KaramelBytes/ctrlchart-cli/internal/limits"
)

func TestArchiveRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	a, err := archive.Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	l := limits.ControlLimits{Mean: 11.5, Upper: 15.373, Lower: 7.627}
	first := a.Add("Colimetria (Quantitativa)", "Colimetria (Quantitativa).pdf", "dados.csv", 4, l)
	second := a.Add("EBA", "EBA.pdf", "", 10, l)
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	if err := a.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, archive.FileName)); err != nil {
		t.Fatalf("archive.json not written: %v", err)
	}

	b, err := archive.Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	entries := b.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ID != first.ID || entries[1].ID != second.ID {
		t.Fatalf("entries not ordered by creation time")
	}
	if entries[0].Rows != 4 || entries[0].Upper != 15.373 || entries[0].Source != "dados.csv" {
		t.Fatalf("unexpected entry: %+v", entries[0])
	}
	if b.Dir() != dir {
		t.Fatalf("dir = %s", b.Dir())
	}
}

func TestArchiveGetAndRemove(t *testing.T) {
	a := archive.New(t.TempDir())
	e := a.Add("EBA", "EBA.pdf", "", 3, limits.ControlLimits{})
	got, err := a.Get(e.ID[:8])
	if err != nil || got.ID != e.ID {
		t.Fatalf("get by prefix: %v %v", got, err)
	}
	if err := a.Remove(e.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := a.Get(e.ID); err == nil {
		t.Fatal("expected not found after remove")
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := archive.Load(t.TempDir())
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}

func TestSaveWithoutDir(t *testing.T) {
	if err := (&archive.Archive{}).Save(); err == nil {
		t.Fatal("expected error without directory")
	}
}
