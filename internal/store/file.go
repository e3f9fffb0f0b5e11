package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fouedh91760/a-level-saver-sub001/internal/catalog"
)

// CatalogFiles are the document names FileStore looks for, in order.
var CatalogFiles = []string{"catalog.yaml", "catalog.yml", "catalog.json"}

const (
	templatesDir = "templates"
	partialsDir  = "partials"
)

// FileStore reads a catalog directory:
//
//	catalog.yaml        states, intentions, resolutions, inline templates
//	templates/<id>.*    one template body per file
//	partials/<name>.*   one partial body per file
//
// File names without their extension become template ids and partial names.
type FileStore struct {
	dir string
}

// NewFileStore creates a store over dir. Nothing is read until Load.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the catalog directory.
func (f *FileStore) Dir() string { return f.dir }

// Load reads and decodes the directory.
func (f *FileStore) Load(ctx context.Context) (catalog.Raw, error) {
	if err := ctx.Err(); err != nil {
		return catalog.Raw{}, err
	}

	path, err := f.document()
	if err != nil {
		return catalog.Raw{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return catalog.Raw{}, fmt.Errorf("read catalog: %w", err)
	}
	raw, err := catalog.Decode(data, catalog.FormatForPath(path))
	if err != nil {
		return catalog.Raw{}, fmt.Errorf("%s: %w", path, err)
	}

	templates, err := readBodies(filepath.Join(f.dir, templatesDir))
	if err != nil {
		return catalog.Raw{}, err
	}
	partials, err := readBodies(filepath.Join(f.dir, partialsDir))
	if err != nil {
		return catalog.Raw{}, err
	}
	if err := raw.Merge(templates, partials); err != nil {
		return catalog.Raw{}, err
	}
	return raw, nil
}

// Close is a no-op for FileStore.
func (f *FileStore) Close() error { return nil }

func (f *FileStore) document() (string, error) {
	for _, name := range CatalogFiles {
		path := filepath.Join(f.dir, name)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("stat catalog: %w", err)
		}
	}
	return "", fmt.Errorf("%w: none of %s in %s", ErrNoCatalog, strings.Join(CatalogFiles, ", "), f.dir)
}

// readBodies maps file names (extension stripped) to contents. A missing directory
// yields no bodies. Hidden files and editor backups are skipped.
func readBodies(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	bodies := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.IsDir() || ignored(e.Name()) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if _, dup := bodies[name]; dup {
			return nil, fmt.Errorf("%w: %q appears twice in %s", catalog.ErrDuplicateTemplate, name, dir)
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		bodies[name] = string(data)
	}
	return bodies, nil
}

func ignored(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") || strings.HasSuffix(name, ".swp")
}
