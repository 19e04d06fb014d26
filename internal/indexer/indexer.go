package indexer

import "github.com/shopware/vuedoc/internal/sfc"

// Indexer consumes the component files found by a FileScanner.
type Indexer interface {
	ID() string
	// Index is called with every new or changed file. The file's trees are
	// released after the call returns.
	Index(path string, file *sfc.File) error
	RemovedFiles(paths []string) error
	Close() error
	Clear() error
}
