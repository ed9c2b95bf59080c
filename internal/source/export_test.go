package source

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"resty.dev/v3"
)

// RoundTripFunc adapts a function to http.RoundTripper for mocking.
type RoundTripFunc func(*http.Request) *http.Response

// RoundTrip implements http.RoundTripper.
func (f RoundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req), nil
}

// NewTestFetcher creates a Fetcher whose client uses handler as transport.
func NewTestFetcher(handler RoundTripFunc) *Fetcher {
	fetcher := NewFetcher()
	fetcher.client = resty.New().SetTransport(handler)

	return fetcher
}

// NewHTTPResponse creates a mock HTTP response for tests.
func NewHTTPResponse(
	req *http.Request,
	status int,
	body string,
	header http.Header,
) *http.Response {
	if header == nil {
		header = make(http.Header)
	}

	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		Header:        header,
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}
