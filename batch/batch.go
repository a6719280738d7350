// Package batch applies one batch of translation records consistently
// across the full set of per-language catalog stores.
//
// All merges are computed in memory before any file is written, so an
// inconsistent batch is rejected before it can half-apply. Persistence is
// then attempted per store; a write failure on one language is reported
// for that language without rolling back siblings that already persisted.
// Cross-file atomicity is not guaranteed.
package batch

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/linguakit/tskit/table"
	"github.com/linguakit/tskit/tsfile"
)

// ValidationError reports an internally inconsistent batch, detected
// before any catalog is touched.
type ValidationError struct {
	Context string
	Source  string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid batch: (%s, %s): %s", e.Context, e.Source, e.Reason)
}

// StoreResult is the per-language outcome of an apply.
type StoreResult struct {
	Path    string
	Merge   tsfile.Report
	Written bool
	// Err is the persist failure for this store, if any. The store's
	// on-disk file is intact when set.
	Err error
}

// Report aggregates per-language results for one apply run.
type Report struct {
	// ID correlates the run's per-store log lines and results.
	ID          uuid.UUID
	Elapsed     time.Duration
	Units       int
	PerLanguage map[string]StoreResult
}

// Failed returns the languages whose persist failed, sorted.
func (r *Report) Failed() []string {
	var langs []string
	for lang, res := range r.PerLanguage {
		if res.Err != nil {
			langs = append(langs, lang)
		}
	}
	sort.Strings(langs)
	return langs
}

// Totals sums the per-language merge reports.
func (r *Report) Totals() tsfile.Report {
	var t tsfile.Report
	for _, res := range r.PerLanguage {
		t.Created += res.Merge.Created
		t.Updated += res.Merge.Updated
		t.Unchanged += res.Merge.Unchanged
	}
	return t
}

// Apply merges the records into every target store and persists each
// store that changed. Stores must already be loaded (Load or
// LoadOrCreate). A ValidationError aborts before anything is written;
// per-store persist failures land in the report, not in the returned
// error.
func Apply(recs []table.Record, stores map[string]*tsfile.Store) (*Report, error) {
	start := time.Now()

	if err := validate(recs); err != nil {
		return nil, err
	}

	langs := make([]string, 0, len(stores))
	for lang := range stores {
		langs = append(langs, lang)
	}
	sort.Strings(langs)

	rep := &Report{
		ID:          uuid.New(),
		Units:       len(recs),
		PerLanguage: make(map[string]StoreResult, len(stores)),
	}

	// Phase one: all merges in memory, nothing on disk yet.
	for _, lang := range langs {
		st := stores[lang]
		units := partition(recs, lang)
		mr, err := st.Merge(units)
		if err != nil {
			return nil, fmt.Errorf("merging %s: %w", lang, err)
		}
		rep.PerLanguage[lang] = StoreResult{Path: st.Path(), Merge: mr}
	}

	// Phase two: persist independently per store.
	for _, lang := range langs {
		st := stores[lang]
		res := rep.PerLanguage[lang]
		res.Written, res.Err = st.Persist()
		rep.PerLanguage[lang] = res
	}

	rep.Elapsed = time.Since(start)
	return rep, nil
}

// partition selects the units relevant to one language. Records carrying
// a translation for the language contribute it; records with no
// translation for any language are source-only and go to every store
// untranslated; records translated only into other languages are skipped.
func partition(recs []table.Record, lang string) []tsfile.Unit {
	units := make([]tsfile.Unit, 0, len(recs))
	for _, r := range recs {
		switch {
		case r.Translations[lang] != "":
			units = append(units, tsfile.Unit{
				Context:     r.Context,
				Source:      r.Source,
				Translation: r.Translations[lang],
				Comment:     r.Comment,
			})
		case !r.Translated():
			units = append(units, tsfile.Unit{
				Context: r.Context,
				Source:  r.Source,
				Comment: r.Comment,
			})
		}
	}
	return units
}

// validate rejects records that could half-apply: blank identity keys and
// duplicate (context, source) pairs whose comments or same-language
// translations disagree. Exact duplicates are tolerated; merge is
// idempotent.
func validate(recs []table.Record) error {
	type seenRec struct {
		comment      string
		translations map[string]string
	}
	seen := make(map[string]seenRec, len(recs))

	for _, r := range recs {
		if r.Context == "" {
			return &ValidationError{Context: r.Context, Source: r.Source, Reason: "blank context"}
		}
		if r.Source == "" {
			return &ValidationError{Context: r.Context, Source: r.Source, Reason: "blank source"}
		}

		key := r.Context + "\x04" + r.Source
		prev, dup := seen[key]
		if !dup {
			seen[key] = seenRec{comment: r.Comment, translations: r.Translations}
			continue
		}
		if prev.comment != r.Comment && prev.comment != "" && r.Comment != "" {
			return &ValidationError{Context: r.Context, Source: r.Source, Reason: "conflicting comments"}
		}
		for lang, v := range r.Translations {
			if pv, ok := prev.translations[lang]; ok && pv != "" && v != "" && pv != v {
				return &ValidationError{
					Context: r.Context,
					Source:  r.Source,
					Reason:  fmt.Sprintf("conflicting %s translations", lang),
				}
			}
		}
	}
	return nil
}
