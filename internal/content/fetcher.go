// Package content turns logical page names into markdown documents.
package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// ErrNotFound is matched by every fetch failure, whatever its cause.
var ErrNotFound = errors.New("content not found")

// NotFoundError describes a failed fetch of one page.
type NotFoundError struct {
	Page   string
	URL    string
	Status int // zero when no response was received
	Err    error
}

func (e *NotFoundError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("content not found: %s (%s returned %d)", e.Page, e.URL, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("content not found: %s (%s: %v)", e.Page, e.URL, e.Err)
	default:
		return fmt.Sprintf("content not found: %s (%s)", e.Page, e.URL)
	}
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func (e *NotFoundError) Unwrap() error { return e.Err }

// Fetcher returns the raw markdown of a page.
type Fetcher interface {
	Fetch(ctx context.Context, page string) (string, error)
}

// URL builds the address of a page: {baseURL}/{page}.md.
func URL(baseURL, page string) string {
	return strings.TrimRight(baseURL, "/") + "/" + page + ".md"
}

// HTTPFetcher fetches pages over HTTP.
type HTTPFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPFetcher creates an HTTPFetcher. A nil client uses http.DefaultClient.
func NewHTTPFetcher(baseURL string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{BaseURL: baseURL, Client: client}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, page string) (string, error) {
	url := URL(f.BaseURL, page)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &NotFoundError{Page: page, URL: url, Err: err}
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return "", &NotFoundError{Page: page, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &NotFoundError{Page: page, URL: url, Status: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &NotFoundError{Page: page, URL: url, Err: err}
	}
	return string(body), nil
}

// DirFetcher reads pages from a filesystem laid out like the served site:
// {baseURL}/{page}.md is resolved relative to the root of FS.
type DirFetcher struct {
	FS      fs.FS
	BaseURL string
}

// NewDirFetcher creates a DirFetcher.
func NewDirFetcher(fsys fs.FS, baseURL string) *DirFetcher {
	return &DirFetcher{FS: fsys, BaseURL: baseURL}
}

// Fetch implements Fetcher.
func (f *DirFetcher) Fetch(ctx context.Context, page string) (string, error) {
	url := URL(f.BaseURL, page)
	if err := ctx.Err(); err != nil {
		return "", &NotFoundError{Page: page, URL: url, Err: err}
	}
	name := strings.TrimPrefix(path.Clean("/"+url), "/")
	if !fs.ValidPath(name) {
		return "", &NotFoundError{Page: page, URL: url, Err: fs.ErrInvalid}
	}
	data, err := fs.ReadFile(f.FS, name)
	if err != nil {
		return "", &NotFoundError{Page: page, URL: url, Err: err}
	}
	return string(data), nil
}
