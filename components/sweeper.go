package components

import (
	"context"
	"fmt"
	"sort"
	"time"

	"toolbox_back/catalog"
	"toolbox_back/logging"
	"toolbox_back/storage"
)

// SweepReport lists what one sweep found. Dangling names records whose file is gone;
// those records are reported only, never deleted.
type SweepReport struct {
	DryRun   bool     `json:"dry_run"`
	Removed  []string `json:"removed"`
	Kept     []string `json:"kept"`
	Dangling []string `json:"dangling"`
}

// Sweeper reconciles the blob store with the component records.
type Sweeper struct {
	store *catalog.Store
	blobs storage.BlobStore
	grace time.Duration
	now   func() time.Time
	log   *logging.Logger
}

func NewSweeper(store *catalog.Store, blobs storage.BlobStore, grace time.Duration, log *logging.Logger) *Sweeper {
	if log == nil {
		log = logging.Nop()
	}
	return &Sweeper{store: store, blobs: blobs, grace: grace, now: time.Now, log: log.With("module", "sweeper")}
}

// Sweep removes files that no record references once they are older than the grace period.
// The grace period keeps uploads that are still committing out of reach.
// With dryRun set it only reports.
func (s *Sweeper) Sweep(ctx context.Context, dryRun bool) (SweepReport, error) {
	report := SweepReport{DryRun: dryRun, Removed: []string{}, Kept: []string{}, Dangling: []string{}}

	// Blobs are listed before records so a publish committing in between is seen as referenced.
	blobs, err := s.blobs.List(ctx)
	if err != nil {
		return report, err
	}
	names, err := s.store.ComponentFileNames(ctx)
	if err != nil {
		return report, fmt.Errorf("components: load file names: %w", err)
	}

	referenced := make(map[string]struct{}, len(names))
	for _, name := range names {
		referenced[name] = struct{}{}
	}
	present := make(map[string]struct{}, len(blobs))

	cutoff := s.now().Add(-s.grace)
	for _, blob := range blobs {
		present[blob.Name] = struct{}{}
		if _, ok := referenced[blob.Name]; ok {
			continue
		}
		if blob.ModTime.After(cutoff) {
			report.Kept = append(report.Kept, blob.Name)
			continue
		}
		if !dryRun {
			if err := s.blobs.Remove(ctx, blob.Name); err != nil {
				return report, err
			}
			s.log.Info("orphan file removed", "file_name", blob.Name)
		}
		report.Removed = append(report.Removed, blob.Name)
	}

	for _, name := range names {
		if _, ok := present[name]; !ok {
			report.Dangling = append(report.Dangling, name)
		}
	}

	sort.Strings(report.Removed)
	sort.Strings(report.Kept)
	sort.Strings(report.Dangling)
	return report, nil
}
