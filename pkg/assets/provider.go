// Package assets abstracts the byte source for LUTs, templates, fonts and icons.
//
// The engine never touches the filesystem directly; everything is loaded
// through a Provider keyed by asset path. Encrypted bundles ship assets with
// an ".enc" suffix — the provider is expected to hand back plaintext bytes
// either way (decryption happens upstream of this package).
package assets

import (
	"fmt"
	"os"
	"path/filepath"
)

// Provider resolves an asset key to its raw bytes.
type Provider interface {
	Load(key string) ([]byte, error)
}

// Dir is a Provider backed by a directory tree.
// A key that does not exist as-is is retried with an ".enc" suffix, so
// bundles that rename payloads on disk keep working with plain keys.
type Dir struct {
	Root string
}

// NewDir returns a directory-backed provider rooted at root.
func NewDir(root string) *Dir {
	return &Dir{Root: root}
}

// Load reads the asset at key, trying "<key>.enc" as a fallback.
func (d *Dir) Load(key string) ([]byte, error) {
	path := filepath.Join(d.Root, filepath.FromSlash(key))

	data, err := os.ReadFile(path)
	if err == nil {
		return data, nil
	}

	enc, encErr := os.ReadFile(path + ".enc")
	if encErr == nil {
		return enc, nil
	}

	return nil, fmt.Errorf("load asset %q: %w", key, err)
}

// Map is an in-memory Provider, useful for tests and embedded bundles.
type Map map[string][]byte

// Load returns the bytes registered under key.
func (m Map) Load(key string) ([]byte, error) {
	if data, ok := m[key]; ok {
		return data, nil
	}
	if data, ok := m[key+".enc"]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("load asset %q: not found", key)
}
