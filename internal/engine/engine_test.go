package engine_test

import (
	"strings"
	"sync"
	"testing"

	"github.com/g5becks/mdhtml/internal/engine"
	"github.com/g5becks/mdhtml/internal/markdown"
)

func TestNewSelectsEngine(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{name: "", want: engine.Builtin},
		{name: "builtin", want: engine.Builtin},
		{name: "GoMarkdown", want: engine.Gomarkdown},
		{name: " goldmark ", want: engine.Goldmark},
	}

	for _, tt := range tests {
		t.Run(tt.want+"/"+tt.name, func(t *testing.T) {
			eng, err := engine.New(tt.name, markdown.DefaultOptions())
			if err != nil {
				t.Fatalf("New(%q) error = %v", tt.name, err)
			}

			if eng.Name() != tt.want {
				t.Errorf("New(%q).Name() = %q, want %q", tt.name, eng.Name(), tt.want)
			}
		})
	}
}

func TestNewRejectsUnknownEngine(t *testing.T) {
	_, err := engine.New("pandoc", markdown.DefaultOptions())
	if err == nil {
		t.Fatal("New(pandoc) error = nil, want error")
	}

	if !strings.Contains(err.Error(), `unknown engine "pandoc"`) {
		t.Errorf("New(pandoc) error = %q, want unknown engine message", err.Error())
	}

	if engine.Valid("pandoc") {
		t.Errorf("Valid(pandoc) = true, want false")
	}
}

func TestEnginesRenderCommonConstructs(t *testing.T) {
	src := []byte("# Title\n\nSome **bold** text.\n")

	for _, name := range engine.Names() {
		t.Run(name, func(t *testing.T) {
			eng, err := engine.New(name, markdown.DefaultOptions())
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			got, err := eng.Render(src)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}

			for _, want := range []string{"Title</h1>", "<strong>bold</strong>"} {
				if !strings.Contains(got, want) {
					t.Errorf("Render() = %q, want it to contain %q", got, want)
				}
			}
		})
	}
}

func TestBuiltinMatchesConvert(t *testing.T) {
	opts := markdown.DefaultOptions()
	opts.Breaks = false

	eng, err := engine.New(engine.Builtin, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	src := "line one\nline two\n\n- [x] done"
	got, err := eng.Render([]byte(src))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if want := markdown.Convert(src, markdown.WithBreaks(false)); got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestGoldmarkTaskListsFollowOptions(t *testing.T) {
	src := []byte("- [x] done\n")

	on, _ := engine.New(engine.Goldmark, markdown.DefaultOptions())
	gotOn, err := on.Render(src)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if !strings.Contains(gotOn, `type="checkbox"`) {
		t.Errorf("Render() with task lists = %q, want checkbox", gotOn)
	}

	opts := markdown.DefaultOptions()
	opts.TaskLists = false
	off, _ := engine.New(engine.Goldmark, opts)

	gotOff, err := off.Render(src)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if strings.Contains(gotOff, `type="checkbox"`) {
		t.Errorf("Render() without task lists = %q, want no checkbox", gotOff)
	}
}

func TestEnginesAreSafeForConcurrentUse(t *testing.T) {
	for _, name := range engine.Names() {
		eng, err := engine.New(name, markdown.DefaultOptions())
		if err != nil {
			t.Fatalf("New(%q) error = %v", name, err)
		}

		want, _ := eng.Render([]byte("## Heading\n\n*one* and `two`"))

		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()

				got, _ := eng.Render([]byte("## Heading\n\n*one* and `two`"))
				if got != want {
					t.Errorf("%s: concurrent Render() = %q, want %q", name, got, want)
				}
			}()
		}
		wg.Wait()
	}
}
