package indexer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shopware/vuedoc/internal/component"
	"github.com/shopware/vuedoc/internal/entry"
	"github.com/shopware/vuedoc/internal/sfc"
)

// Component is the cached documentation of one file.
type Component struct {
	Path          string
	Documentation entry.Documentation
}

// Name is the component's declared name, or the file name without its
// extension.
func (c Component) Name() string {
	if c.Documentation.Name != "" {
		return c.Documentation.Name
	}
	return strings.TrimSuffix(filepath.Base(c.Path), filepath.Ext(c.Path))
}

// DocIndexer extracts and caches the documentation of component files.
type DocIndexer struct {
	store *DataIndexer[Component]
	opts  component.Options
}

// NewDocIndexer opens the documentation cache at dbPath. opts are applied
// to every parse; their sources are ignored.
func NewDocIndexer(dbPath string, opts component.Options) (*DocIndexer, error) {
	store, err := NewDataIndexer[Component](dbPath)
	if err != nil {
		return nil, err
	}
	return &DocIndexer{store: store, opts: opts}, nil
}

func (d *DocIndexer) ID() string {
	return "component.docs"
}

// Index extracts the documentation of file and replaces what was cached
// for path.
func (d *DocIndexer) Index(path string, file *sfc.File) error {
	doc, err := sfc.Document(file, d.opts)
	if err != nil {
		return fmt.Errorf("failed to document %s: %w", path, err)
	}

	c := Component{Path: path, Documentation: *doc}
	return d.store.ReplaceFile(path, map[string]Component{c.Name(): c})
}

func (d *DocIndexer) RemovedFiles(paths []string) error {
	return d.store.BatchDeleteByFilePaths(paths)
}

// Get returns the cached documentation of a file.
func (d *DocIndexer) Get(path string) (*Component, bool, error) {
	values, err := d.store.GetByFilePath(path)
	if err != nil || len(values) == 0 {
		return nil, false, err
	}
	return &values[0], true, nil
}

// ByName returns the components with the given name.
func (d *DocIndexer) ByName(name string) ([]Component, error) {
	return d.store.GetValues(name)
}

// Names lists the names of all cached components.
func (d *DocIndexer) Names() ([]string, error) {
	return d.store.GetAllKeys()
}

// All returns every cached component, ordered by name.
func (d *DocIndexer) All() ([]Component, error) {
	return d.store.GetAllValues()
}

func (d *DocIndexer) Clear() error {
	return d.store.Clear()
}

func (d *DocIndexer) Close() error {
	return d.store.Close()
}
