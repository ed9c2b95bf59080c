// Package manifest maintains manifest.json, the index of every page a build
// produced: titles, descriptions and heading outlines per source.
package manifest

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/g5becks/mdhtml/internal/fsutil"
)

const (
	CurrentVersion = "1.0.0"
	ManifestFile   = "manifest.json"
)

type Manifest struct {
	Version   string                  `json:"version"`
	Generated time.Time               `json:"generated"`
	Sources   map[string]*SourceIndex `json:"sources"`
}

// SourceIndex lists the pages built from one configured source.
type SourceIndex struct {
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Location  string    `json:"location"`
	Dir       string    `json:"dir"`
	BuiltAt   time.Time `json:"built_at"`
	PageCount int       `json:"page_count"`
	TotalSize int64     `json:"total_size"`
	Pages     []Page    `json:"pages"`
}

// Page describes one rendered HTML file.
type Page struct {
	Source      string    `json:"source"`
	Output      string    `json:"output"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Size        int64     `json:"size"`
	Lines       int       `json:"lines"`
	Headings    []Heading `json:"headings,omitempty"`
}

func New() *Manifest {
	return &Manifest{
		Version:   CurrentVersion,
		Generated: time.Now().UTC(),
		Sources:   make(map[string]*SourceIndex),
	}
}

func Load(outputDir string) (*Manifest, error) {
	manifestPath := Path(outputDir)
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, oops.
				Code("MANIFEST_NOT_FOUND").
				With("path", manifestPath).
				Hint("Run 'mdhtml build' to generate the manifest").
				Errorf("manifest not found at %q", manifestPath)
		}

		return nil, oops.
			Code("MANIFEST_READ_ERROR").
			With("path", manifestPath).
			Wrapf(err, "reading manifest file")
	}

	m := &Manifest{}
	if unmarshalErr := json.Unmarshal(data, m); unmarshalErr != nil {
		return nil, oops.
			Code("MANIFEST_CORRUPTED").
			With("path", manifestPath).
			Hint("Delete manifest.json and run 'mdhtml build'").
			Wrapf(unmarshalErr, "parsing manifest file")
	}

	if m.Sources == nil {
		m.Sources = make(map[string]*SourceIndex)
	}

	return m, nil
}

// LoadOrNew is Load, except that a missing manifest yields an empty one.
func LoadOrNew(outputDir string) (*Manifest, error) {
	if _, err := os.Stat(Path(outputDir)); errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}

	return Load(outputDir)
}

func (m *Manifest) Save(outputDir string) error {
	if m == nil {
		return oops.
			Code("MANIFEST_WRITE_ERROR").
			Hint("Initialize manifest before saving").
			Errorf("cannot save nil manifest")
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return oops.
			Code("MANIFEST_WRITE_ERROR").
			Wrapf(err, "encoding manifest")
	}

	if err := fsutil.WriteFileAtomic(Path(outputDir), append(data, '\n')); err != nil {
		return oops.
			Code("MANIFEST_WRITE_ERROR").
			With("path", Path(outputDir)).
			Wrapf(err, "writing manifest")
	}

	return nil
}

// SetSource replaces the index for name, sorting its pages by output path
// and refreshing the totals.
func (m *Manifest) SetSource(name string, index *SourceIndex) {
	if m.Sources == nil {
		m.Sources = make(map[string]*SourceIndex)
	}

	slices.SortFunc(index.Pages, func(a, b Page) int {
		return strings.Compare(a.Output, b.Output)
	})

	index.Name = name
	index.PageCount = len(index.Pages)
	index.TotalSize = 0
	for _, page := range index.Pages {
		index.TotalSize += page.Size
	}

	m.Sources[name] = index
}

// SourceNames returns the indexed source names in sorted order.
func (m *Manifest) SourceNames() []string {
	names := make([]string, 0, len(m.Sources))
	for name := range m.Sources {
		names = append(names, name)
	}

	slices.Sort(names)
	return names
}

// Lookup finds a page by output path within a source.
func (s *SourceIndex) Lookup(output string) (Page, bool) {
	if s == nil {
		return Page{}, false
	}

	for _, page := range s.Pages {
		if page.Output == output {
			return page, true
		}
	}

	return Page{}, false
}

func Path(outputDir string) string {
	return filepath.Join(outputDir, ManifestFile)
}
