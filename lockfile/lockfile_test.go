package lockfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/linguakit/tskit/tsfile"
)

func TestLoadMissingIsEmpty(t *testing.T) {
	lf, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if catalogs, keys := lf.Stats(); catalogs != 0 || keys != 0 {
		t.Fatalf("stats = %d/%d, want empty", catalogs, keys)
	}
}

func TestRecordAndReload(t *testing.T) {
	dir := t.TempDir()
	lf, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	units := []tsfile.Unit{
		{Context: "MainWindow", Source: "Open File"},
		{Context: "Dialog", Source: "Cancel", Comment: "button"},
	}
	lf.Record("app_zh_CN", units)
	if err := lf.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, Name)); err != nil {
		t.Fatalf("lock file not written: %v", err)
	}

	lf2, err := Load(dir)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if lf2.Version != Version {
		t.Fatalf("version = %d, want %d", lf2.Version, Version)
	}
	catalogs, keys := lf2.Stats()
	if catalogs != 1 || keys != 2 {
		t.Fatalf("stats = %d/%d, want 1/2", catalogs, keys)
	}
	if got := lf2.FilterChanged("app_zh_CN", units); len(got) != 0 {
		t.Fatalf("recorded units reported changed: %+v", got)
	}
}

func TestFilterChanged(t *testing.T) {
	lf, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	known := tsfile.Unit{Context: "MainWindow", Source: "Open File"}
	lf.Record("app_zh_CN", []tsfile.Unit{known})

	units := []tsfile.Unit{
		known,
		// new, comment changed, same source under another context
		{Context: "MainWindow", Source: "Save File"},
		{Context: "MainWindow", Source: "Open File", Comment: "menu"},
		{Context: "Dialog", Source: "Open File"},
	}
	changed := lf.FilterChanged("app_zh_CN", units)
	if len(changed) != 3 {
		t.Fatalf("changed = %d, want 3: %+v", len(changed), changed)
	}
	if changed[0].Source != "Save File" {
		t.Fatalf("changed[0] = %+v", changed[0])
	}

	// A different catalog has no history: everything is new.
	if got := lf.FilterChanged("app_zh_HK", []tsfile.Unit{known}); len(got) != 1 {
		t.Fatalf("other catalog filtered = %+v", got)
	}
}

func TestClean(t *testing.T) {
	lf, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	keep := tsfile.Unit{Context: "MainWindow", Source: "Open File"}
	gone := tsfile.Unit{Context: "MainWindow", Source: "Old Feature"}
	lf.Record("app_zh_CN", []tsfile.Unit{keep, gone})

	lf.Clean("app_zh_CN", []tsfile.Unit{keep})
	if _, keys := lf.Stats(); keys != 1 {
		t.Fatalf("keys after clean = %d, want 1", keys)
	}
	if got := lf.FilterChanged("app_zh_CN", []tsfile.Unit{gone}); len(got) != 1 {
		t.Fatal("cleaned key still recorded")
	}
}

func TestCatalogs(t *testing.T) {
	lf, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	u := tsfile.Unit{Context: "C", Source: "S"}
	lf.Record("app_zh_HK", []tsfile.Unit{u})
	lf.Record("app_zh_CN", []tsfile.Unit{u})

	got := lf.Catalogs()
	if len(got) != 2 || got[0] != "app_zh_CN" || got[1] != "app_zh_HK" {
		t.Fatalf("catalogs = %v", got)
	}
}

func TestUnitKey(t *testing.T) {
	a := UnitKey(tsfile.Unit{Context: "A", Source: "B"})
	b := UnitKey(tsfile.Unit{Context: "A", Source: "C"})
	if a == b {
		t.Fatal("distinct units share a key")
	}
}
