package build_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/g5becks/mdhtml/internal/build"
	"github.com/g5becks/mdhtml/internal/config"
	"github.com/g5becks/mdhtml/internal/lockfile"
	"github.com/g5becks/mdhtml/internal/manifest"
)

func TestRunWithNilConfigReturnsError(t *testing.T) {
	_, err := build.Run(context.Background(), nil, build.Options{})
	if err == nil {
		t.Fatal("Run() with nil config: got nil error, want non-nil")
	}
}

func TestRunRejectsUnknownEngine(t *testing.T) {
	cfg := newDirConfig(t, map[string]string{"a.md": "# A"})

	_, err := build.Run(context.Background(), cfg, build.Options{Engine: "pandoc"})
	if err == nil || !strings.Contains(err.Error(), "unknown engine") {
		t.Fatalf("Run() error = %v, want unknown engine error", err)
	}
}

func TestResolveSourceNamesReturnsAllSorted(t *testing.T) {
	sources := map[string]config.Source{
		"zebra":  {Type: "dir"},
		"alpha":  {Type: "url"},
		"middle": {Type: "dir"},
	}

	names, err := build.ResolveSourceNames(sources, nil)
	if err != nil {
		t.Fatalf("ResolveSourceNames() error = %v", err)
	}

	want := []string{"alpha", "middle", "zebra"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("ResolveSourceNames() = %v, want %v", names, want)
	}
}

func TestResolveSourceNamesValidatesAndDeduplicates(t *testing.T) {
	sources := map[string]config.Source{
		"source1": {Type: "dir"},
		"source2": {Type: "url"},
	}

	if _, err := build.ResolveSourceNames(sources, []string{"missing"}); err == nil {
		t.Fatal("ResolveSourceNames() with invalid source: got nil error, want non-nil")
	}

	names, err := build.ResolveSourceNames(sources, []string{"source1", "source2", "source1"})
	if err != nil {
		t.Fatalf("ResolveSourceNames() error = %v", err)
	}

	if strings.Join(names, ",") != "source1,source2" {
		t.Errorf("ResolveSourceNames() = %v, want [source1 source2]", names)
	}
}

func TestResolveOutputRoot(t *testing.T) {
	relative := &config.Config{ConfigDir: "/tmp/project", Output: "site"}
	if got := build.ResolveOutputRoot(relative); got != filepath.Join("/tmp/project", "site") {
		t.Errorf("ResolveOutputRoot(relative) = %q", got)
	}

	absolute := &config.Config{ConfigDir: "/tmp/project", Output: "/srv/www"}
	if got := build.ResolveOutputRoot(absolute); got != "/srv/www" {
		t.Errorf("ResolveOutputRoot(absolute) = %q", got)
	}
}

func TestListSourceFilesAppliesPatterns(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"index.md":            "# Home",
		"guide/intro.md":      "# Intro",
		"guide/notes.txt":     "plain",
		"drafts/wip.md":       "# WIP",
		"legacy/old.markdown": "# Old",
	})

	files, err := build.ListSourceFiles(root, config.DefaultPatterns(), []string{"drafts/**"})
	if err != nil {
		t.Fatalf("ListSourceFiles() error = %v", err)
	}

	want := "guide/intro.md,index.md,legacy/old.markdown"
	if got := strings.Join(files, ","); got != want {
		t.Errorf("ListSourceFiles() = %q, want %q", got, want)
	}

	if _, err := build.ListSourceFiles(filepath.Join(root, "missing"), config.DefaultPatterns(), nil); err == nil {
		t.Errorf("ListSourceFiles(missing) error = nil, want error")
	}
}

func TestShouldIncludeFileRejectsBadPattern(t *testing.T) {
	if _, err := build.ShouldIncludeFile("a.md", []string{"[a-"}, nil); err == nil {
		t.Fatal("ShouldIncludeFile() with bad pattern: got nil error, want non-nil")
	}
}

func TestRunRendersDirSourceIncrementally(t *testing.T) {
	cfg := newDirConfig(t, map[string]string{
		"index.md":       "# Home\n\nWelcome **reader**.",
		"guide/intro.md": "---\ntitle: Getting Started\n---\nIntro text",
		"drafts/wip.md":  "# WIP",
	})
	ctx := context.Background()

	result, err := build.Run(ctx, cfg, build.Options{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.Rendered != 2 || result.Unchanged != 0 {
		t.Fatalf("first Run() = %+v, want 2 rendered", result)
	}

	outDir := filepath.Join(cfg.ConfigDir, "site", "docs")
	index := readFile(t, filepath.Join(outDir, "index.html"))
	for _, want := range []string{"<title>Home</title>", "<h1>Home</h1>", "<strong>reader</strong>"} {
		if !strings.Contains(index, want) {
			t.Errorf("index.html missing %q:\n%s", want, index)
		}
	}

	intro := readFile(t, filepath.Join(outDir, "guide", "intro.html"))
	if !strings.Contains(intro, "<title>Getting Started</title>") {
		t.Errorf("intro.html missing front matter title:\n%s", intro)
	}

	if _, statErr := os.Stat(filepath.Join(outDir, "drafts", "wip.html")); !os.IsNotExist(statErr) {
		t.Errorf("excluded draft was rendered")
	}

	result, err = build.Run(ctx, cfg, build.Options{})
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}

	if result.Rendered != 0 || result.Unchanged != 2 || result.UpToDate != 1 {
		t.Fatalf("second Run() = %+v, want everything unchanged", result)
	}

	srcDir := filepath.Join(cfg.ConfigDir, "docs")
	writeTree(t, srcDir, map[string]string{"index.md": "# Home v2"})
	if err := os.Remove(filepath.Join(srcDir, "guide", "intro.md")); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	result, err = build.Run(ctx, cfg, build.Options{})
	if err != nil {
		t.Fatalf("third Run() error = %v", err)
	}

	if result.Rendered != 1 || result.Deleted != 1 {
		t.Fatalf("third Run() = %+v, want 1 rendered and 1 deleted", result)
	}

	if !strings.Contains(readFile(t, filepath.Join(outDir, "index.html")), "Home v2") {
		t.Errorf("index.html not refreshed")
	}

	if _, statErr := os.Stat(filepath.Join(outDir, "guide")); !os.IsNotExist(statErr) {
		t.Errorf("stale output directory not removed")
	}
}

func TestRunWritesSiteManifest(t *testing.T) {
	cfg := newDirConfig(t, map[string]string{
		"index.md":       "# Home\n\nWelcome.\n\n## Next",
		"guide/intro.md": "---\ntitle: Intro\ndescription: First steps\n---\nText",
	})
	cfg.Sources["gone"] = config.Source{Type: config.SourceTypeDir, Path: "docs", Patterns: config.DefaultPatterns()}
	ctx := context.Background()

	if _, err := build.Run(ctx, cfg, build.Options{}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	delete(cfg.Sources, "gone")
	if _, err := build.Run(ctx, cfg, build.Options{}); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}

	site, err := manifest.Load(filepath.Join(cfg.ConfigDir, "site"))
	if err != nil {
		t.Fatalf("manifest.Load() error = %v", err)
	}

	if names := site.SourceNames(); len(names) != 1 || names[0] != "docs" {
		t.Fatalf("SourceNames() = %v, want [docs]", names)
	}

	docs := site.Sources["docs"]
	if docs.PageCount != 2 || docs.Dir != "docs" || docs.Type != config.SourceTypeDir {
		t.Fatalf("docs index = %+v, want 2 pages", docs)
	}

	home, ok := docs.Lookup("index.html")
	if !ok {
		t.Fatal("index.html missing from manifest after an unchanged rebuild")
	}

	if home.Title != "Home" || home.Description != "Welcome." || len(home.Headings) != 2 {
		t.Errorf("index page = %+v, want title, description and two headings", home)
	}

	intro, ok := docs.Lookup("guide/intro.html")
	if !ok || intro.Source != "guide/intro.md" || intro.Description != "First steps" {
		t.Errorf("intro page = %+v, want front matter description", intro)
	}
}

func TestRunForceAndOptionChangesRebuild(t *testing.T) {
	cfg := newDirConfig(t, map[string]string{"a.md": "one\ntwo"})
	ctx := context.Background()

	if _, err := build.Run(ctx, cfg, build.Options{}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	result, err := build.Run(ctx, cfg, build.Options{Force: true})
	if err != nil {
		t.Fatalf("Run(force) error = %v", err)
	}

	if result.Rendered != 1 {
		t.Fatalf("Run(force) rendered = %d, want 1", result.Rendered)
	}

	noBreaks := false
	cfg.Options.Breaks = &noBreaks

	result, err = build.Run(ctx, cfg, build.Options{})
	if err != nil {
		t.Fatalf("Run(options changed) error = %v", err)
	}

	if result.Rendered != 1 {
		t.Fatalf("Run(options changed) rendered = %d, want 1", result.Rendered)
	}

	got := readFile(t, filepath.Join(cfg.ConfigDir, "site", "docs", "a.html"))
	if !strings.Contains(got, "<p>one\ntwo</p>") {
		t.Errorf("a.html = %q, want breaks disabled", got)
	}
}

func TestRunFrontMatterOverridesOptions(t *testing.T) {
	cfg := newDirConfig(t, map[string]string{
		"a.md": "---\nmarkdown:\n  breaks: false\n---\none\ntwo",
		"b.md": "one\ntwo",
	})

	if _, err := build.Run(context.Background(), cfg, build.Options{}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	outDir := filepath.Join(cfg.ConfigDir, "site", "docs")
	if got := readFile(t, filepath.Join(outDir, "a.html")); !strings.Contains(got, "<p>one\ntwo</p>") {
		t.Errorf("a.html = %q, want breaks disabled by front matter", got)
	}

	if got := readFile(t, filepath.Join(outDir, "b.html")); !strings.Contains(got, "<p>one<br>two</p>") {
		t.Errorf("b.html = %q, want default breaks", got)
	}
}

func TestRunDryRunWritesNothing(t *testing.T) {
	cfg := newDirConfig(t, map[string]string{"a.md": "# A"})

	result, err := build.Run(context.Background(), cfg, build.Options{DryRun: true})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.Rendered != 1 {
		t.Fatalf("Rendered = %d, want 1", result.Rendered)
	}

	if _, statErr := os.Stat(filepath.Join(cfg.ConfigDir, "site")); !os.IsNotExist(statErr) {
		t.Fatalf("dry run created output directory")
	}
}

func TestRunCleanRemovesStrayFiles(t *testing.T) {
	cfg := newDirConfig(t, map[string]string{"a.md": "# A"})
	stray := filepath.Join(cfg.ConfigDir, "site", "stray.html")
	writeTree(t, filepath.Dir(stray), map[string]string{"stray.html": "old"})

	if _, err := build.Run(context.Background(), cfg, build.Options{Clean: true}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if _, statErr := os.Stat(stray); !os.IsNotExist(statErr) {
		t.Fatalf("Clean did not remove stray output")
	}
}

func TestRunUsesCustomTemplate(t *testing.T) {
	cfg := newDirConfig(t, map[string]string{"a.md": "---\ndescription: About A\n---\n# A"})
	cfg.Template = filepath.Join(cfg.ConfigDir, "page.tmpl")
	writeTree(t, cfg.ConfigDir, map[string]string{
		"page.tmpl": `<main data-src="{{.Source}}" title="{{.Description}}">{{.Content}}</main>`,
	})

	if _, err := build.Run(context.Background(), cfg, build.Options{}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got := readFile(t, filepath.Join(cfg.ConfigDir, "site", "docs", "a.html"))
	want := `<main data-src="a.md" title="About A"><h1>A</h1></main>`
	if got != want {
		t.Errorf("a.html = %q, want %q", got, want)
	}
}

func TestRunReportsBadTemplate(t *testing.T) {
	cfg := newDirConfig(t, map[string]string{"a.md": "# A"})
	cfg.Template = filepath.Join(cfg.ConfigDir, "missing.tmpl")

	_, err := build.Run(context.Background(), cfg, build.Options{})
	if err == nil || !strings.Contains(err.Error(), "reading page template") {
		t.Fatalf("Run() error = %v, want template error", err)
	}
}

func TestRunStrictHTMLSanitizes(t *testing.T) {
	cfg := newDirConfig(t, map[string]string{"a.md": "Hello <script>alert(1)</script>"})

	if _, err := build.Run(context.Background(), cfg, build.Options{StrictHTML: true}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got := readFile(t, filepath.Join(cfg.ConfigDir, "site", "docs", "a.html"))
	if strings.Contains(got, "alert(1)") {
		t.Errorf("a.html = %q, want script stripped", got)
	}
}

func TestRunAlternateEngine(t *testing.T) {
	cfg := newDirConfig(t, map[string]string{"a.md": "# A\n\n| x |\n|---|\n| 1 |\n"})

	if _, err := build.Run(context.Background(), cfg, build.Options{Engine: "goldmark"}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got := readFile(t, filepath.Join(cfg.ConfigDir, "site", "docs", "a.html"))
	if !strings.Contains(got, "<table>") {
		t.Errorf("a.html = %q, want goldmark table output", got)
	}
}

func TestRunURLSourceUsesConditionalRequests(t *testing.T) {
	var mu sync.Mutex
	requests := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests++
		mu.Unlock()

		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte("# Remote\n\nFetched body"))
	}))
	defer server.Close()

	cfg := &config.Config{
		ConfigDir: t.TempDir(),
		Sources: map[string]config.Source{
			"remote": {URL: server.URL + "/notes.md"},
		},
	}
	cfg.ApplyDefaults()
	ctx := context.Background()

	result, err := build.Run(ctx, cfg, build.Options{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.Rendered != 1 {
		t.Fatalf("first Run() = %+v, want 1 rendered", result)
	}

	outPath := filepath.Join(cfg.ConfigDir, "site", "remote", "notes.html")
	if got := readFile(t, outPath); !strings.Contains(got, "<h1>Remote</h1>") {
		t.Errorf("notes.html = %q, want rendered remote document", got)
	}

	lock, err := lockfile.Load(filepath.Join(cfg.ConfigDir, "site"))
	if err != nil {
		t.Fatalf("lockfile.Load() error = %v", err)
	}

	if entry := lock.GetEntry("remote"); entry == nil || entry.ETag != `"v1"` {
		t.Fatalf("lock entry = %+v, want ETag recorded", entry)
	}

	result, err = build.Run(ctx, cfg, build.Options{})
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}

	if result.UpToDate != 1 || result.Rendered != 0 {
		t.Fatalf("second Run() = %+v, want source up to date", result)
	}

	if requests != 2 {
		t.Errorf("requests = %d, want 2", requests)
	}

	site, err := manifest.Load(filepath.Join(cfg.ConfigDir, "site"))
	if err != nil {
		t.Fatalf("manifest.Load() error = %v", err)
	}

	page, ok := site.Sources["remote"].Lookup("notes.html")
	if !ok || page.Title != "Remote" || page.Description != "Fetched body" {
		t.Errorf("remote page = %+v, want index kept across a 304", page)
	}
}

func TestRunContinuesPastFailedSource(t *testing.T) {
	cfg := newDirConfig(t, map[string]string{"a.md": "# A"})
	cfg.Sources["broken"] = config.Source{Type: config.SourceTypeDir, Path: "nowhere", Patterns: config.DefaultPatterns()}

	var mu sync.Mutex
	events := map[string][]build.EventKind{}

	result, err := build.Run(context.Background(), cfg, build.Options{
		OnEvent: func(e build.Event) {
			mu.Lock()
			defer mu.Unlock()
			events[e.Source] = append(events[e.Source], e.Kind)
		},
	})
	if err == nil || !strings.Contains(err.Error(), "1 source(s) failed") {
		t.Fatalf("Run() error = %v, want one failed source", err)
	}

	if result == nil || result.Errors != 1 || result.Rendered != 1 {
		t.Fatalf("Run() result = %+v, want 1 error and 1 rendered", result)
	}

	for _, name := range []string{"docs", "broken"} {
		kinds := events[name]
		if len(kinds) != 2 || kinds[0] != build.EventSourceStart || kinds[1] != build.EventSourceDone {
			t.Errorf("events[%s] = %v, want start then done", name, kinds)
		}
	}
}

func TestRunDropsRemovedSourcesFromLock(t *testing.T) {
	cfg := newDirConfig(t, map[string]string{"index.md": "# Home"})
	writeTree(t, filepath.Join(cfg.ConfigDir, "notes"), map[string]string{"a.md": "# A"})
	cfg.Sources["notes"] = config.Source{Type: config.SourceTypeDir, Path: "notes", Patterns: config.DefaultPatterns()}
	ctx := context.Background()

	if _, err := build.Run(ctx, cfg, build.Options{}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	delete(cfg.Sources, "notes")
	if _, err := build.Run(ctx, cfg, build.Options{}); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}

	lock, err := lockfile.Load(filepath.Join(cfg.ConfigDir, "site"))
	if err != nil {
		t.Fatalf("lockfile.Load() error = %v", err)
	}

	if lock.GetEntry("notes") != nil || lock.GetEntry("docs") == nil {
		t.Fatalf("lock sources = %v, want only docs", lock.Sources)
	}
}

func newDirConfig(t *testing.T, files map[string]string) *config.Config {
	t.Helper()

	dir := t.TempDir()
	writeTree(t, filepath.Join(dir, "docs"), files)

	cfg := &config.Config{
		ConfigDir: dir,
		Excludes:  []string{"drafts/**"},
		Sources: map[string]config.Source{
			"docs": {Type: config.SourceTypeDir, Path: "docs"},
		},
	}
	cfg.ApplyDefaults()

	return cfg
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}

		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("WriteFile(%q) error = %v", path, err)
		}
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%q) error = %v", path, err)
	}

	return string(data)
}
