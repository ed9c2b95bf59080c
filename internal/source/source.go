// Package source loads markdown documents from remote URLs.
package source

import (
	"context"
	"time"

	"resty.dev/v3"

	"github.com/g5becks/mdhtml/internal/lockfile"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "mdhtml"
)

// FetchResult reports what a fetch produced. When NotModified is set the
// server answered 304 and Content is empty.
type FetchResult struct {
	URL         string
	Content     []byte
	NotModified bool
	LockEntry   *lockfile.LockEntry
}

// Fetcher downloads markdown over HTTP with conditional requests.
type Fetcher struct {
	client *resty.Client
}

// NewFetcher creates a Fetcher with a default resty client.
func NewFetcher() *Fetcher {
	client := resty.New().
		SetTimeout(defaultTimeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "text/markdown, text/plain;q=0.9, */*;q=0.5")

	return &Fetcher{client: client}
}

// Fetch downloads rawURL with a fresh Fetcher.
func Fetch(ctx context.Context, rawURL string, prev *lockfile.LockEntry, force bool) (*FetchResult, error) {
	return NewFetcher().Fetch(ctx, rawURL, prev, force)
}
