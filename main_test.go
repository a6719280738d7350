package main

import (
	"testing"

	"github.com/linguakit/tskit/config"
	"github.com/linguakit/tskit/tsfile"
)

func TestUnitRecords(t *testing.T) {
	units := []tsfile.Unit{
		{Context: "MainWindow", Source: "Open File", Comment: "menu entry"},
		{Context: "Dialog", Source: "Cancel"},
	}
	recs := unitRecords(units)
	if len(recs) != 2 {
		t.Fatalf("records = %d, want 2", len(recs))
	}
	if recs[0].Context != "MainWindow" || recs[0].Source != "Open File" || recs[0].Comment != "menu entry" {
		t.Fatalf("recs[0] = %+v", recs[0])
	}
	if recs[0].Translated() || recs[1].Translated() {
		t.Fatal("extracted records must carry no translations")
	}
}

func TestNewCodecUsesConfigLimits(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Limits.MaxTableRows = 7
	cfg.Limits.MaxCellLen = 11

	codec := newCodec(cfg)
	if codec.MaxRows != 7 || codec.MaxCellLen != 11 {
		t.Fatalf("codec limits = %d/%d", codec.MaxRows, codec.MaxCellLen)
	}
	if len(codec.Languages) != len(cfg.Languages) {
		t.Fatalf("codec languages = %v", codec.Languages)
	}
}

func TestOpenStoresCreatesMissingCatalogs(t *testing.T) {
	cfg := config.Default(t.TempDir())
	cfg.Base = "app"
	cfg.Languages = []string{"zh_CN", "zh_HK"}

	stores, err := openStores(cfg)
	if err != nil {
		t.Fatalf("openStores: %v", err)
	}
	if len(stores) != 2 {
		t.Fatalf("stores = %d, want 2", len(stores))
	}
	for lang, s := range stores {
		if s.File() == nil {
			t.Fatalf("%s store not loaded", lang)
		}
		if s.Lang() != lang {
			t.Fatalf("store lang = %q, want %q", s.Lang(), lang)
		}
	}
}

func TestPlural(t *testing.T) {
	if got := plural(1, "y", "ies"); got != "y" {
		t.Fatalf("plural(1) = %q", got)
	}
	if got := plural(3, "y", "ies"); got != "ies" {
		t.Fatalf("plural(3) = %q", got)
	}
}
