// Package artifact stores submission documents on the local filesystem,
// content-addressed by SHA-256. A locator is "<scope>/<digest-hex>"; storing
// the same bytes under the same scope yields the same locator, which makes
// Put idempotent.
package artifact

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Angad-23/paper-checker/internal/services/review/domain"
)

const digestHexLen = sha256.Size * 2

// Store is a filesystem-backed artifact store rooted at a single directory.
type Store struct {
	root string
}

// NewStore roots an artifact store at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("artifact store: root directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("artifact store: create root: %w", err)
	}
	return &Store{root: dir}, nil
}

// Put writes data under scope and returns its locator. The write is atomic:
// bytes land in a temp file first and are renamed into place, so readers
// never observe a partial artifact.
func (s *Store) Put(ctx context.Context, scope string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := checkScope(scope); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("artifact store: empty payload")
	}

	digest := sha256.Sum256(data)
	name := hex.EncodeToString(digest[:])
	dir := filepath.Join(s.root, scope)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("artifact store: create scope dir: %w", err)
	}

	final := filepath.Join(dir, name)
	if _, err := os.Stat(final); err == nil {
		// Same scope, same content: already stored.
		return scope + "/" + name, nil
	}

	tmp, err := os.CreateTemp(dir, name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("artifact store: create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("artifact store: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("artifact store: close temp: %w", err)
	}
	if err := os.Rename(tmpName, final); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("artifact store: publish artifact: %w", err)
	}

	return scope + "/" + name, nil
}

// Get returns the bytes for one locator. A locator that is well formed but
// absent maps to the domain's not-found sentinel.
func (s *Store) Get(ctx context.Context, locator string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	scope, name, err := splitLocator(locator)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.root, scope, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("artifact store: read artifact: %w", err)
	}
	return data, nil
}

func checkScope(scope string) error {
	if scope == "" {
		return fmt.Errorf("artifact store: scope is required")
	}
	if scope != filepath.Base(scope) || scope == "." || scope == ".." {
		return fmt.Errorf("artifact store: invalid scope %q", scope)
	}
	return nil
}

func splitLocator(locator string) (scope string, name string, err error) {
	scope, name, ok := strings.Cut(locator, "/")
	if !ok {
		return "", "", fmt.Errorf("artifact store: malformed locator %q", locator)
	}
	if err := checkScope(scope); err != nil {
		return "", "", err
	}
	if len(name) != digestHexLen {
		return "", "", fmt.Errorf("artifact store: malformed locator %q", locator)
	}
	for _, r := range name {
		isHex := (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')
		if !isHex {
			return "", "", fmt.Errorf("artifact store: malformed locator %q", locator)
		}
	}
	return scope, name, nil
}
