// Package manifest handles pordis.toml project configuration: the
// default bytecode dialect, output format, and decompile-cache
// location, so a user's preferences don't have to be repeated on every
// invocation of the CLI.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Manifest represents a pordis.toml project configuration.
type Manifest struct {
	Dialect DialectConfig `toml:"dialect"`
	Output  OutputConfig  `toml:"output"`
	Cache   CacheConfig   `toml:"cache"`

	// Dir is the directory containing the pordis.toml file (set at load time).
	Dir string `toml:"-"`
}

// DialectConfig selects which bytecode dialect to decode against when
// the CLI isn't told explicitly.
type DialectConfig struct {
	Default string `toml:"default"` // "A" or "B"
}

// OutputConfig controls how a decompiled container is rendered.
type OutputConfig struct {
	Format string `toml:"format"` // "text" or "cbor"
	Path   string `toml:"path"`   // "" means stdout
}

// CacheConfig configures the on-disk decompile-result cache.
type CacheConfig struct {
	Path string `toml:"path"` // sqlite database path; "" disables caching
}

// Load parses a pordis.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "pordis.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	if m.Dialect.Default == "" {
		m.Dialect.Default = "A"
	}
	if m.Output.Format == "" {
		m.Output.Format = "text"
	}

	return &m, nil
}

// FindAndLoad walks up from startDir looking for a pordis.toml file,
// then loads and returns the manifest. Returns a nil manifest and nil
// error if none is found anywhere up to the filesystem root.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "pordis.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// CachePath returns the absolute path to the decompile-result cache
// database, or "" if caching is disabled.
func (m *Manifest) CachePath() string {
	if m.Cache.Path == "" {
		return ""
	}
	return filepath.Join(m.Dir, m.Cache.Path)
}

// OutputPath returns the absolute path to write decompiled output to,
// or "" to mean stdout.
func (m *Manifest) OutputPath() string {
	if m.Output.Path == "" {
		return ""
	}
	return filepath.Join(m.Dir, m.Output.Path)
}
