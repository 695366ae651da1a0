package monitor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"csvwatch/internal/journal"
	"csvwatch/internal/logging"
	"csvwatch/internal/metadata"
	"csvwatch/internal/testsupport"
)

func newTestMonitor(t *testing.T, opts Options) (*Monitor, *journal.Store, string) {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	store, err := journal.Open(cfg.Paths.JournalFile)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	m, err := New(cfg, logging.NewNop(), store, nil, opts)
	if err != nil {
		t.Fatalf("new monitor: %v", err)
	}
	return m, store, cfg.Paths.WatchDir
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir %s: %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestProcessAllMergesStableFile(t *testing.T) {
	m, store, watchDir := newTestMonitor(t, Options{})
	testsupport.WriteCSV(t, filepath.Join(watchDir, "clusters.csv"),
		[]string{"cluster_name", "region"},
		[]string{"alpha", "us-east"},
		[]string{"beta", "eu-west"},
	)

	result, err := m.ProcessAll(context.Background())
	if err != nil {
		t.Fatalf("process all: %v", err)
	}
	if result.Merged != 1 || result.Failed != 0 {
		t.Fatalf("expected 1 merged, got merged=%d failed=%d", result.Merged, result.Failed)
	}

	if remaining := listDir(t, watchDir); len(remaining) != 0 {
		t.Errorf("expected empty watch dir, found %v", remaining)
	}
	if archived := listDir(t, m.cfg.Paths.ArchiveDir); len(archived) != 1 {
		t.Errorf("expected 1 archived file, found %v", archived)
	}

	master := testsupport.ReadText(t, m.cfg.Paths.MergedFile)
	for _, want := range []string{"cluster_name", "alpha", "beta"} {
		if !contains(master, want) {
			t.Errorf("master missing %q:\n%s", want, master)
		}
	}

	summary, err := metadata.Read(m.cfg.Paths.MetadataFile)
	if err != nil {
		t.Fatalf("read metadata: %v", err)
	}
	if summary.RowCount != 2 || summary.ColumnCount != 2 {
		t.Errorf("unexpected metadata summary: %+v", summary)
	}

	entries, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("journal recent: %v", err)
	}
	if len(entries) != 1 || entries[0].Outcome != journal.OutcomeMerged {
		t.Fatalf("expected 1 merged journal entry, got %+v", entries)
	}
	if entries[0].RowCount != 2 {
		t.Errorf("expected row count 2 in journal, got %d", entries[0].RowCount)
	}
}

func TestProcessAllDryRunMutatesNothing(t *testing.T) {
	m, store, watchDir := newTestMonitor(t, Options{DryRun: true})
	testsupport.WriteCSV(t, filepath.Join(watchDir, "clusters.csv"),
		[]string{"cluster_name", "region"},
		[]string{"alpha", "us-east"},
	)

	result, err := m.ProcessAll(context.Background())
	if err != nil {
		t.Fatalf("process all: %v", err)
	}
	if result.Merged != 1 {
		t.Fatalf("expected 1 processed file, got %+v", result)
	}

	if _, err := os.Stat(m.cfg.Paths.MergedFile); !os.IsNotExist(err) {
		t.Error("expected no master file after dry run")
	}
	if _, err := os.Stat(m.cfg.Paths.MetadataFile); !os.IsNotExist(err) {
		t.Error("expected no metadata summary after dry run")
	}
	if remaining := listDir(t, watchDir); len(remaining) != 1 {
		t.Errorf("expected file to remain in watch dir, found %v", remaining)
	}
	if archived := listDir(t, m.cfg.Paths.ArchiveDir); len(archived) != 0 {
		t.Errorf("expected empty archive dir, found %v", archived)
	}

	entries, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("journal recent: %v", err)
	}
	if len(entries) != 1 || entries[0].Outcome != journal.OutcomeDryRun {
		t.Fatalf("expected dry_run journal entry, got %+v", entries)
	}
}

func TestProcessAllIsolatesPerFileFailures(t *testing.T) {
	m, _, watchDir := newTestMonitor(t, Options{})
	testsupport.WriteCSV(t, filepath.Join(watchDir, "bad.csv"),
		[]string{"hostname", "region"},
		[]string{"alpha", "us-east"},
	)
	testsupport.WriteCSV(t, filepath.Join(watchDir, "good.csv"),
		[]string{"cluster_name", "region"},
		[]string{"beta", "eu-west"},
	)

	result, err := m.ProcessAll(context.Background())
	if err != nil {
		t.Fatalf("process all: %v", err)
	}
	if result.Merged != 1 || result.Failed != 1 {
		t.Fatalf("expected merged=1 failed=1, got %+v", result)
	}

	// The invalid file stays behind for a later retry.
	remaining := listDir(t, watchDir)
	if len(remaining) != 1 || remaining[0] != "bad.csv" {
		t.Errorf("expected only bad.csv in watch dir, found %v", remaining)
	}

	master := testsupport.ReadText(t, m.cfg.Paths.MergedFile)
	if !contains(master, "beta") {
		t.Errorf("expected valid file merged, master:\n%s", master)
	}
}

func TestProcessAllSkipsAlreadyMergedDigest(t *testing.T) {
	m, store, watchDir := newTestMonitor(t, Options{})
	header := []string{"cluster_name", "region"}
	row := []string{"alpha", "us-east"}
	testsupport.WriteCSV(t, filepath.Join(watchDir, "first.csv"), header, row)

	if _, err := m.ProcessAll(context.Background()); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	masterBefore := testsupport.ReadText(t, m.cfg.Paths.MergedFile)

	// Same bytes under a different name: already merged, must be skipped.
	testsupport.WriteCSV(t, filepath.Join(watchDir, "second.csv"), header, row)

	result, err := m.ProcessAll(context.Background())
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if result.Skipped != 1 || result.Merged != 0 {
		t.Fatalf("expected skipped=1 merged=0, got %+v", result)
	}

	if masterAfter := testsupport.ReadText(t, m.cfg.Paths.MergedFile); masterAfter != masterBefore {
		t.Error("master changed while skipping a duplicate")
	}
	if remaining := listDir(t, watchDir); len(remaining) != 0 {
		t.Errorf("expected duplicate to be archived, found %v", remaining)
	}

	entries, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("journal recent: %v", err)
	}
	if len(entries) != 2 || entries[0].Outcome != journal.OutcomeSkipped {
		t.Fatalf("expected newest entry skipped, got %+v", entries)
	}
}

func TestProcessAllEmptyDirectory(t *testing.T) {
	m, _, _ := newTestMonitor(t, Options{})

	result, err := m.ProcessAll(context.Background())
	if err != nil {
		t.Fatalf("process all: %v", err)
	}
	if result.Merged != 0 || result.Failed != 0 || result.Skipped != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
	if _, err := os.Stat(m.cfg.Paths.MergedFile); !os.IsNotExist(err) {
		t.Error("expected no master file for empty run")
	}
}

func TestProcessAllMergesSecondFileIntoMaster(t *testing.T) {
	m, _, watchDir := newTestMonitor(t, Options{})
	testsupport.WriteCSV(t, filepath.Join(watchDir, "first.csv"),
		[]string{"cluster_name", "region"},
		[]string{"alpha", "us-east"},
	)
	if _, err := m.ProcessAll(context.Background()); err != nil {
		t.Fatalf("first pass: %v", err)
	}

	testsupport.WriteCSV(t, filepath.Join(watchDir, "second.csv"),
		[]string{"cluster_name", "owner"},
		[]string{"alpha", "core-team"},
		[]string{"gamma", "infra"},
	)
	result, err := m.ProcessAll(context.Background())
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if result.Merged != 1 {
		t.Fatalf("expected 1 merged, got %+v", result)
	}

	summary, err := metadata.Read(m.cfg.Paths.MetadataFile)
	if err != nil {
		t.Fatalf("read metadata: %v", err)
	}
	if summary.RowCount != 2 {
		t.Errorf("expected 2 rows after upsert, got %d", summary.RowCount)
	}
	master := testsupport.ReadText(t, m.cfg.Paths.MergedFile)
	for _, want := range []string{"owner", "core-team", "gamma"} {
		if !contains(master, want) {
			t.Errorf("master missing %q:\n%s", want, master)
		}
	}
}

func contains(haystack, needle string) bool {
	return strings.Contains(haystack, needle)
}
