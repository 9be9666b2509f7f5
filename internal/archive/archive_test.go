package archive

import (
	"os"
	"path/filepath"
	"testing"
)

func openTestArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := Open(filepath.Join(t.TempDir(), "scx.db"))
	if err != nil {
		t.Fatalf("failed to open archive: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestArchive(t *testing.T) {
	t.Run("ContainsEmptyArchive", func(t *testing.T) {
		a := openTestArchive(t)

		found, err := a.Contains(42)
		if err != nil {
			t.Fatalf("Contains failed: %v", err)
		}
		if found {
			t.Error("empty archive should not contain track 42")
		}
	})

	t.Run("RecordAndContains", func(t *testing.T) {
		a := openTestArchive(t)

		entry := Entry{TrackID: 42, Title: "some track", Artist: "someone", Path: "/music/some track.mp3", Format: "mp3"}
		if err := a.Record(entry); err != nil {
			t.Fatalf("Record failed: %v", err)
		}

		found, err := a.Contains(42)
		if err != nil {
			t.Fatalf("Contains failed: %v", err)
		}
		if !found {
			t.Error("archive should contain recorded track")
		}
	})

	t.Run("RecordReplacesExisting", func(t *testing.T) {
		a := openTestArchive(t)

		if err := a.Record(Entry{TrackID: 1, Title: "v1", Path: "/a"}); err != nil {
			t.Fatal(err)
		}
		if err := a.Record(Entry{TrackID: 1, Title: "v2", Path: "/b"}); err != nil {
			t.Fatal(err)
		}

		entries, err := a.List()
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(entries))
		}
		if entries[0].Title != "v2" {
			t.Errorf("expected replaced title v2, got %s", entries[0].Title)
		}
	})

	t.Run("PruneRemovesMissingFiles", func(t *testing.T) {
		a := openTestArchive(t)
		dir := t.TempDir()

		kept := filepath.Join(dir, "kept.mp3")
		if err := os.WriteFile(kept, nil, 0644); err != nil {
			t.Fatal(err)
		}

		if err := a.Record(Entry{TrackID: 1, Title: "kept", Path: kept}); err != nil {
			t.Fatal(err)
		}
		if err := a.Record(Entry{TrackID: 2, Title: "gone", Path: filepath.Join(dir, "gone.mp3")}); err != nil {
			t.Fatal(err)
		}

		removed, err := a.Prune()
		if err != nil {
			t.Fatalf("Prune failed: %v", err)
		}
		if removed != 1 {
			t.Errorf("expected 1 pruned record, got %d", removed)
		}

		entries, err := a.List()
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 1 || entries[0].TrackID != 1 {
			t.Errorf("expected only track 1 to remain, got %+v", entries)
		}
	})

	t.Run("MigrationsAreIdempotent", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "scx.db")

		a, err := Open(path)
		if err != nil {
			t.Fatal(err)
		}
		if err := a.Record(Entry{TrackID: 7, Title: "t", Path: "/p"}); err != nil {
			t.Fatal(err)
		}
		a.Close()

		b, err := Open(path)
		if err != nil {
			t.Fatalf("reopening archive failed: %v", err)
		}
		defer b.Close()

		found, err := b.Contains(7)
		if err != nil {
			t.Fatal(err)
		}
		if !found {
			t.Error("records should survive reopening")
		}
	})
}
