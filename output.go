package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/shopware/vuedoc/internal/entry"
	"github.com/shopware/vuedoc/internal/indexer"
	"github.com/shopware/vuedoc/internal/render"
)

const indexFileName = "index.json"

// outputWriter writes rendered documentation either to a stream or, with
// dir set, to one file per component plus an index of all of them.
type outputWriter struct {
	dir    string
	format string
	out    io.Writer

	mu    sync.Mutex
	index []byte
	// names maps written files to the component name they were written as.
	names map[string]string
}

func newOutputWriter(dir, format string, out io.Writer) (*outputWriter, error) {
	w := &outputWriter{dir: dir, format: format, out: out, names: make(map[string]string)}
	if dir == "" {
		return w, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	index, err := os.ReadFile(filepath.Join(dir, indexFileName))
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	w.index = index
	return w, nil
}

// Write renders the documentation of file.
func (w *outputWriter) Write(file string, doc *entry.Documentation) error {
	data, err := render.Render(file, doc, w.format)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.dir == "" {
		_, err := w.out.Write(data)
		return err
	}

	name := indexer.Component{Path: file, Documentation: *doc}.Name()
	if previous, ok := w.names[file]; ok && previous != name {
		if err := w.remove(previous); err != nil {
			return err
		}
	}
	w.names[file] = name

	if err := os.WriteFile(filepath.Join(w.dir, name+".json"), data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return w.updateIndex(name, data)
}

// Remove drops the documentation written for file.
func (w *outputWriter) Remove(file string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	name, ok := w.names[file]
	if !ok || w.dir == "" {
		return nil
	}
	delete(w.names, file)
	return w.remove(name)
}

func (w *outputWriter) remove(name string) error {
	if err := os.Remove(filepath.Join(w.dir, name+".json")); err != nil && !os.IsNotExist(err) {
		return err
	}
	return w.updateIndex(name, nil)
}

func (w *outputWriter) updateIndex(name string, data []byte) error {
	index, err := render.UpdateIndex(w.index, name, data, w.format)
	if err != nil {
		return err
	}
	w.index = index
	return os.WriteFile(filepath.Join(w.dir, indexFileName), index, 0o644)
}
