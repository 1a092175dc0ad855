// CLAUDE:SUMMARY Output directory layout: category subdirectories, deterministic URL-derived filenames, atomic writes, traversal-safe paths.
// Package layout owns the on-disk layout of a capture: the root directory,
// one subdirectory per category, and the data/ directory for reports.
//
// Filenames are derived from the URL alone so the interceptor and the
// asset fetcher converge on the same file for the same resource.
package layout

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/hazyhaar/pagesnap/capture/snapshot"
)

// DataDir is the subdirectory holding machine-readable documents.
const DataDir = "data"

// ErrPathTraversal is returned when a relative path escapes the root.
var ErrPathTraversal = errors.New("layout: path traversal detected")

const maxBaseLen = 50

// Layout is a capture output root.
type Layout struct {
	Root string
}

// New creates the root, data/ and the five asset category directories.
// Other categories get their directory lazily on first write.
func New(root string) (*Layout, error) {
	if root == "" {
		return nil, fmt.Errorf("layout: empty root")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("layout: abs: %w", err)
	}
	dirs := []string{abs, filepath.Join(abs, DataDir)}
	for _, c := range []snapshot.Category{
		snapshot.CategoryVideo, snapshot.CategoryImage, snapshot.CategoryStylesheet,
		snapshot.CategoryScript, snapshot.CategoryFont,
	} {
		dirs = append(dirs, filepath.Join(abs, c.Dir()))
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("layout: mkdir %s: %w", d, err)
		}
	}
	return &Layout{Root: abs}, nil
}

// FileName derives a stable filename from a URL: the sanitized basename,
// an 8-hex-digit hash of the full URL, and the extension (or the
// category default when the URL has none).
func FileName(rawURL string, c snapshot.Category) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	base := path.Base(p)
	if base == "." || base == "/" || base == "" {
		base = "index"
	}
	ext := path.Ext(base)
	name := strings.TrimSuffix(base, ext)
	if ext == "" || len(ext) > 10 {
		ext = c.DefaultExt()
	}
	name = sanitize(name)
	if name == "" {
		name = "asset"
	}
	if len(name) > maxBaseLen {
		name = name[:maxBaseLen]
	}
	sum := sha256.Sum256([]byte(rawURL))
	return name + "_" + hex.EncodeToString(sum[:])[:8] + strings.ToLower(sanitize(ext))
}

func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// RelPath returns the root-relative path an asset is stored at.
func RelPath(rawURL string, c snapshot.Category) string {
	return filepath.Join(c.Dir(), FileName(rawURL, c))
}

// Path resolves a root-relative path, refusing anything that escapes root.
func (l *Layout) Path(rel string) (string, error) {
	for _, el := range strings.FieldsFunc(rel, func(r rune) bool { return r == '/' || r == '\\' }) {
		if el == ".." {
			return "", ErrPathTraversal
		}
	}
	base := filepath.Clean(l.Root)
	cleaned := filepath.Join(base, filepath.Clean("/"+rel))
	if cleaned != base && !strings.HasPrefix(cleaned, base+string(filepath.Separator)) {
		return "", ErrPathTraversal
	}
	return cleaned, nil
}

// WriteFile writes data at a root-relative path atomically (temp file then
// rename), creating parent directories as needed.
func (l *Layout) WriteFile(rel string, data []byte) error {
	p, err := l.Path(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("layout: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-*")
	if err != nil {
		return fmt.Errorf("layout: temp: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("layout: write %s: %w", rel, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("layout: close %s: %w", rel, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("layout: rename %s: %w", rel, err)
	}
	return nil
}

// WriteAsset stores a resource body under its category directory and
// returns the relative path and byte size written.
func (l *Layout) WriteAsset(rawURL string, c snapshot.Category, body []byte) (string, int64, error) {
	rel := RelPath(rawURL, c)
	if err := l.WriteFile(rel, body); err != nil {
		return "", 0, err
	}
	return rel, int64(len(body)), nil
}

// WriteData writes a document into data/.
func (l *Layout) WriteData(name string, data []byte) error {
	return l.WriteFile(filepath.Join(DataDir, name), data)
}

// Stat returns the size of a root-relative file, or false when it is absent.
func (l *Layout) Stat(rel string) (int64, bool) {
	p, err := l.Path(rel)
	if err != nil {
		return 0, false
	}
	fi, err := os.Stat(p)
	if err != nil || fi.IsDir() {
		return 0, false
	}
	return fi.Size(), true
}

// ReadFile reads a root-relative file.
func (l *Layout) ReadFile(rel string) ([]byte, error) {
	p, err := l.Path(rel)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}
