package theme

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// AssetSource reads theme assets. Fetch doubles as the load confirmation
// for stylesheets and scripts: an asset that cannot be fetched failed to
// load.
type AssetSource interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// HTTPSource fetches assets relative to BaseURL. Absolute URLs are fetched
// as given.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

// Fetch implements AssetSource.
func (s HTTPSource) Fetch(ctx context.Context, p string) ([]byte, error) {
	url := p
	if !strings.HasPrefix(p, "http://") && !strings.HasPrefix(p, "https://") {
		url = strings.TrimRight(s.BaseURL, "/") + "/" + strings.TrimLeft(p, "/")
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// FSSource reads assets from a file system, typically the site root.
type FSSource struct {
	FS fs.FS
}

// Fetch implements AssetSource.
func (s FSSource) Fetch(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := path.Clean(strings.TrimLeft(p, "/"))
	b, err := fs.ReadFile(s.FS, name)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", p, err)
	}
	return b, nil
}
