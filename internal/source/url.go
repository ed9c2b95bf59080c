package source

import (
	"context"
	"io"
	"net/http"
	neturl "net/url"
	"path"
	"time"

	"github.com/samber/oops"

	"github.com/g5becks/mdhtml/internal/document"
	"github.com/g5becks/mdhtml/internal/lockfile"
)

// Fetch downloads rawURL. Unless force is set, validators from prev are sent
// so an unchanged document costs a 304.
func (f *Fetcher) Fetch(
	ctx context.Context,
	rawURL string,
	prev *lockfile.LockEntry,
	force bool,
) (*FetchResult, error) {
	request := f.client.R().SetContext(ctx)
	if !force && prev != nil {
		if prev.ETag != "" {
			request.SetHeader("If-None-Match", prev.ETag)
		}
		if prev.LastMod != "" {
			request.SetHeader("If-Modified-Since", prev.LastMod)
		}
	}

	response, err := request.Get(rawURL)
	if err != nil {
		return nil, oops.
			Code("FETCH_FAILED").
			With("url", rawURL).
			Wrapf(err, "fetching markdown")
	}

	if response.StatusCode() == http.StatusNotModified {
		lock := prev.Clone()
		if lock == nil {
			lock = &lockfile.LockEntry{}
		}

		lock.Type = "url"

		return &FetchResult{
			URL:         rawURL,
			NotModified: true,
			LockEntry:   lock,
		}, nil
	}

	if response.StatusCode() < http.StatusOK || response.StatusCode() >= http.StatusMultipleChoices {
		builder := oops.
			Code("FETCH_FAILED").
			With("url", rawURL).
			With("status", response.StatusCode())
		if response.StatusCode() == http.StatusNotFound {
			builder = builder.Hint("document not found; check the url")
		}

		return nil, builder.Errorf("url returned non-success status %d", response.StatusCode())
	}

	content, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, oops.
			Code("FETCH_FAILED").
			With("url", rawURL).
			Wrapf(err, "reading response body")
	}

	return &FetchResult{
		URL:     rawURL,
		Content: content,
		LockEntry: &lockfile.LockEntry{
			Type:    "url",
			ETag:    response.Header().Get("ETag"),
			LastMod: response.Header().Get("Last-Modified"),
			BuiltAt: time.Now().UTC(),
		},
	}, nil
}

// FilenameFromURL picks the output HTML name for a URL source: the last path
// segment with its markdown extension swapped, or name.html as a fallback.
func FilenameFromURL(name string, rawURL string) string {
	parsed, err := neturl.Parse(rawURL)
	if err == nil {
		baseName := path.Base(parsed.Path)
		if baseName != "" && baseName != "." && baseName != "/" {
			return document.HTMLName(baseName)
		}
	}

	return name + ".html"
}
