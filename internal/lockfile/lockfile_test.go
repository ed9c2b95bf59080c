package lockfile_test

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/g5becks/mdhtml/internal/lockfile"
)

func TestLoadReturnsEmptyLockWhenFileMissing(t *testing.T) {
	t.Parallel()

	lock, err := lockfile.Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if lock.Version != 1 {
		t.Fatalf("Version = %d, want 1", lock.Version)
	}

	if len(lock.Sources) != 0 {
		t.Fatalf("Sources len = %d, want 0", len(lock.Sources))
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	t.Parallel()

	outputDir := t.TempDir()
	now := time.Now().UTC().Truncate(time.Second)

	lock := lockfile.New()
	lock.SetEntry("docs", &lockfile.LockEntry{
		Type:        "dir",
		OptionsHash: "opts",
		BuiltAt:     now,
		Files: map[string]string{
			"index.md":       "sha1",
			"guide/intro.md": "sha2",
		},
	})
	lock.SetEntry("changelog", &lockfile.LockEntry{
		Type:    "url",
		ETag:    `"etag"`,
		LastMod: "Tue, 15 Jan 2024 10:30:00 GMT",
		BuiltAt: now,
	})

	if err := lock.Save(outputDir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := lockfile.Load(outputDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	docs := loaded.GetEntry("docs")
	if docs == nil {
		t.Fatalf("GetEntry(docs) = nil")
	}

	if !docs.BuiltAt.Equal(now) {
		t.Fatalf("BuiltAt = %v, want %v", docs.BuiltAt, now)
	}

	if !docs.Unchanged("guide/intro.md", "sha2") {
		t.Fatalf("Unchanged(guide/intro.md) = false, want true")
	}

	if docs.Unchanged("guide/intro.md", "other") {
		t.Fatalf("Unchanged() with a different hash = true, want false")
	}

	if got := loaded.GetEntry("changelog"); got == nil || got.ETag != `"etag"` {
		t.Fatalf("GetEntry(changelog) = %+v, want ETag preserved", got)
	}
}

func TestLoadRejectsCorruptLock(t *testing.T) {
	t.Parallel()

	outputDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(outputDir, lockfile.FileName), []byte("{not json"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	_, err := lockfile.Load(outputDir)
	if err == nil {
		t.Fatalf("Load() error = nil, want parse error")
	}

	if !strings.Contains(err.Error(), "parsing lock file") {
		t.Fatalf("Load() error = %q, want parse message", err.Error())
	}
}

func TestSaveNilLock(t *testing.T) {
	t.Parallel()

	var lock *lockfile.LockFile
	if err := lock.Save(t.TempDir()); err == nil {
		t.Fatalf("Save() on nil lock error = nil, want error")
	}
}

func TestPruneDropsUnconfiguredSources(t *testing.T) {
	t.Parallel()

	lock := lockfile.New()
	for _, name := range []string{"docs", "old", "blog", "gone"} {
		lock.SetEntry(name, lockfile.NewEntry("dir", "opts"))
	}

	configured := map[string]bool{"docs": true, "blog": true}
	dropped := lock.Prune(func(name string) bool { return configured[name] })

	if !reflect.DeepEqual(dropped, []string{"gone", "old"}) {
		t.Fatalf("Prune() = %v, want [gone old]", dropped)
	}

	if lock.GetEntry("old") != nil || lock.GetEntry("docs") == nil {
		t.Fatalf("Sources after Prune() = %v", lock.Sources)
	}
}

func TestEntryRecordsAndComparesInputs(t *testing.T) {
	t.Parallel()

	prev := lockfile.NewEntry("dir", "opts")
	hash := prev.Record("a.md", []byte("# A"))
	prev.Record("b.md", []byte("# B"))
	prev.Record("guide/c.md", []byte("# C"))

	if hash != lockfile.HashContent([]byte("# A")) {
		t.Fatalf("Record() = %q, want content hash", hash)
	}

	if !prev.Unchanged("a.md", hash) || prev.Unchanged("a.md", "other") || prev.Unchanged("z.md", "") {
		t.Fatalf("Unchanged() disagrees with recorded files %v", prev.Files)
	}

	current := lockfile.NewEntry("dir", "opts")
	current.Record("b.md", []byte("# B changed"))

	if got := prev.Removed(current); !reflect.DeepEqual(got, []string{"a.md", "guide/c.md"}) {
		t.Fatalf("Removed() = %v, want [a.md guide/c.md]", got)
	}
}

func TestEntryMatchesOptions(t *testing.T) {
	t.Parallel()

	entry := lockfile.NewEntry("url", "opts-1")
	if !entry.Matches("opts-1") || entry.Matches("opts-2") {
		t.Fatalf("Matches() wrong for entry built with opts-1")
	}

	var missing *lockfile.LockEntry
	if missing.Matches("") {
		t.Fatalf("nil entry Matches() = true, want false")
	}
}

func TestNilEntry(t *testing.T) {
	t.Parallel()

	var entry *lockfile.LockEntry
	if entry.Unchanged("a.md", "x") {
		t.Fatalf("nil entry Unchanged() = true, want false")
	}

	if entry.Removed(lockfile.NewEntry("dir", "")) != nil {
		t.Fatalf("nil entry Removed() != nil")
	}

	if entry.Clone() != nil {
		t.Fatalf("nil entry Clone() != nil")
	}
}

func TestCloneDoesNotShareFiles(t *testing.T) {
	t.Parallel()

	entry := &lockfile.LockEntry{Type: "url", ETag: `"x"`, Files: map[string]string{"post.html": "hash"}}
	cloned := entry.Clone()
	cloned.Files["post.html"] = "changed"

	if entry.Files["post.html"] != "hash" || cloned.ETag != `"x"` {
		t.Fatalf("Clone() shares state: original %+v, clone %+v", entry, cloned)
	}
}

func TestLoadRejectsNewerVersion(t *testing.T) {
	t.Parallel()

	outputDir := t.TempDir()
	if err := os.WriteFile(lockfile.Path(outputDir), []byte(`{"version": 99, "sources": {}}`), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	_, err := lockfile.Load(outputDir)
	if err == nil || !strings.Contains(err.Error(), "unsupported lock file version 99") {
		t.Fatalf("Load() error = %v, want version error", err)
	}
}

func TestLoadToleratesMissingVersionAndSources(t *testing.T) {
	t.Parallel()

	outputDir := t.TempDir()
	if err := os.WriteFile(lockfile.Path(outputDir), []byte(`{"sources": null}`), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	lock, err := lockfile.Load(outputDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if lock.Version != 1 || lock.Sources == nil {
		t.Fatalf("Load() = %+v, want version 1 and empty sources", lock)
	}

	lock.SetEntry("docs", lockfile.NewEntry("dir", ""))
	if err := lock.Save(outputDir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	entries, err := os.ReadDir(outputDir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}

	if len(entries) != 1 || entries[0].Name() != lockfile.FileName {
		t.Fatalf("output dir holds %v, want only the lock file", entries)
	}
}

func TestHashContentIsStable(t *testing.T) {
	t.Parallel()

	a := lockfile.HashContent([]byte("# Title"))
	b := lockfile.HashContent([]byte("# Title"))
	c := lockfile.HashContent([]byte("# Other"))

	if a != b {
		t.Fatalf("HashContent() not stable: %q != %q", a, b)
	}

	if a == c {
		t.Fatalf("HashContent() collided for different input")
	}

	if len(a) != 64 {
		t.Fatalf("HashContent() length = %d, want 64", len(a))
	}
}
