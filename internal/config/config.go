// Package config loads and saves the site configuration.
package config

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/natefinch/atomic"
	yamlv3 "gopkg.in/yaml.v3"
)

// Source yields the site configuration.
type Source interface {
	Load(ctx context.Context) (*Site, error)
}

// FileSource reads the configuration from a local file.
type FileSource struct {
	Path string
}

// Load implements Source.
func (s FileSource) Load(ctx context.Context) (*Site, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Load(s.Path)
}

// RemoteSource reads the configuration over HTTP.
type RemoteSource struct {
	URL    string
	Client *http.Client
}

// Load implements Source.
func (s RemoteSource) Load(ctx context.Context) (*Site, error) {
	return LoadRemote(ctx, s.Client, s.URL)
}

// Load reads configuration from the given file, then overlays environment
// variable overrides (MARKDOWNIUM_*). Unlike a missing optional setting,
// a missing file is an error: the site cannot start without it.
func Load(path string) (*Site, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return finish(k)
}

// LoadRemote fetches configuration from url. The body is parsed as JSON.
func LoadRemote(ctx context.Context, client *http.Client, url string) (*Site, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building config request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching config %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("config not found at %s: status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", url, err)
	}

	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(body), kjson.Parser()); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", url, err)
	}
	return finish(k)
}

// finish applies environment overrides and decodes k onto the defaults.
func finish(k *koanf.Koanf) (*Site, error) {
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return envKeys[strings.TrimPrefix(s, envPrefix)]
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	cfg := DefaultSite()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to path: YAML for .yml/.yaml files, JSON
// otherwise. The file is replaced atomically.
func (c *Site) Save(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yamlv3.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration contains usable values.
func (c *Site) Validate() error {
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("invalid baseUrl %q: %w", c.BaseURL, err)
	}
	for i, item := range c.MainMenu {
		if item.Title == "" || item.URL == "" {
			return fmt.Errorf("mainMenu[%d]: title and url are required", i)
		}
	}
	for i, s := range c.Socials {
		if s.URL == "" {
			return fmt.Errorf("socials[%d]: url is required", i)
		}
	}
	if c.Theme != nil {
		for _, list := range [][]string{c.Theme.CSS, c.Theme.SCSS, c.Theme.JS} {
			for _, p := range list {
				if strings.TrimSpace(p) == "" {
					return fmt.Errorf("theme %q: empty asset path", c.Theme.Name)
				}
			}
		}
	}
	return nil
}

// ThemeName returns the configured theme name, or DefaultThemeName.
func (c *Site) ThemeName() string {
	if c.Theme == nil || c.Theme.Name == "" {
		return DefaultThemeName
	}
	return c.Theme.Name
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return true
	}
	return false
}

func parserFor(path string) koanf.Parser {
	if isYAML(path) {
		return yaml.Parser()
	}
	return kjson.Parser()
}
