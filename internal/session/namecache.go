package session

import (
	"os"
	"path/filepath"
	"strings"
)

// nameCacheFile is the fixed key under which the last signed-in
// display name is persisted.
const nameCacheFile = "displayname"

// NameCache persists the last signed-in display name so the UI can
// greet a returning user before the identity layer resolves. It is a
// hint only; it is never consulted for authorization.
type NameCache struct {
	path string
}

// NewNameCache creates a cache rooted at the given data directory.
func NewNameCache(dataPath string) *NameCache {
	return &NameCache{path: filepath.Join(dataPath, nameCacheFile)}
}

// Put stores the display name. Written on sign-in.
func (c *NameCache) Put(name string) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(c.path, []byte(name), 0o600)
}

// Get returns the cached display name, or "" if none is cached.
func (c *NameCache) Get() string {
	b, err := os.ReadFile(c.path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

// Clear removes the cached name. Called on sign-out; clearing a cache
// that was never written is not an error.
func (c *NameCache) Clear() error {
	err := os.Remove(c.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
