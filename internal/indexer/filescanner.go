package indexer

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/shopware/vuedoc/internal/sfc"
)

var defaultSkipDirs = map[string]bool{
	"node_modules": true,
	"dist":         true,
	"build":        true,
	"coverage":     true,
	"cache":        true,
	".git":         true,
	".github":      true,
	".gitlab":      true,
	".idea":        true,
	".vscode":      true,
	".nuxt":        true,
	".output":      true,
}

// scannedFileTypes are the files a project scan picks up. Plain scripts are
// documented only when named explicitly.
var scannedFileTypes = []string{".vue"}

// FileState is the size and modification time a file was indexed at.
type FileState struct {
	Path    string
	Size    int64
	ModTime int64
}

// FileScanner scans a project for component files, hands new and changed
// files to its indexers and, once started, keeps them current through a
// file watcher.
type FileScanner struct {
	projectRoot string
	states      *DataIndexer[FileState]
	indexer     []Indexer
	watcher     *fsnotify.Watcher
	watcherCtx  context.Context
	cancel      context.CancelFunc
	watcherWg   sync.WaitGroup
	onUpdate    func(paths []string)
	debounce    time.Duration
}

// NewFileScanner creates a scanner for projectRoot keeping file states in
// the database at dbPath.
func NewFileScanner(projectRoot string, dbPath string) (*FileScanner, error) {
	states, err := NewDataIndexer[FileState](dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file states: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &FileScanner{
		projectRoot: projectRoot,
		states:      states,
		indexer:     []Indexer{},
		watcherCtx:  ctx,
		cancel:      cancel,
		debounce:    200 * time.Millisecond,
	}, nil
}

// SetOnUpdate registers a callback run with the changed paths after every
// indexing pass.
func (fs *FileScanner) SetOnUpdate(onUpdate func(paths []string)) {
	fs.onUpdate = onUpdate
}

func (fs *FileScanner) AddIndexer(indexer Indexer) {
	fs.indexer = append(fs.indexer, indexer)
}

func (fs *FileScanner) skipped(path string) bool {
	relPath, err := filepath.Rel(fs.projectRoot, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(relPath, string(os.PathSeparator)) {
		if defaultSkipDirs[part] {
			return true
		}
	}
	return false
}

func scanned(path string) bool {
	return slices.Contains(scannedFileTypes, strings.ToLower(filepath.Ext(path)))
}

// StartWatcher starts watching the project for component changes.
func (fs *FileScanner) StartWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	fs.watcher = watcher
	fs.watcherWg.Add(1)

	go func() {
		defer fs.watcherWg.Done()
		defer func() { _ = watcher.Close() }()

		// Editors write a file in several steps; changes are batched until
		// the project is quiet for the debounce period.
		pendingAdds := make(map[string]bool)
		pendingRemoves := make(map[string]bool)
		debounceTimer := time.NewTimer(time.Hour)
		debounceTimer.Stop()

		resetTimer := func() {
			if !debounceTimer.Stop() {
				select {
				case <-debounceTimer.C:
				default:
				}
			}
			debounceTimer.Reset(fs.debounce)
		}

		processChanges := func() {
			if len(pendingAdds) > 0 {
				files := sortedKeys(pendingAdds)
				pendingAdds = make(map[string]bool)

				log.Printf("[indexer] processing %d changed files", len(files))
				if err := fs.IndexFiles(fs.watcherCtx, files); err != nil {
					log.Printf("[indexer] error indexing files: %v", err)
				}
			}

			if len(pendingRemoves) > 0 {
				files := sortedKeys(pendingRemoves)
				pendingRemoves = make(map[string]bool)

				log.Printf("[indexer] processing %d deleted files", len(files))
				if err := fs.RemoveFiles(fs.watcherCtx, files); err != nil {
					log.Printf("[indexer] error removing files: %v", err)
				}
			}
		}

		for {
			select {
			case <-fs.watcherCtx.Done():
				processChanges()
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if fs.skipped(event.Name) {
					continue
				}

				info, err := os.Stat(event.Name)
				if err != nil {
					if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 && scanned(event.Name) {
						pendingRemoves[event.Name] = true
						delete(pendingAdds, event.Name)
						resetTimer()
					}
					continue
				}

				if info.IsDir() {
					if event.Op&fsnotify.Create != 0 {
						if err := fs.addDirectoryToWatcher(event.Name); err != nil {
							log.Printf("[indexer] error adding directory to watcher: %v", err)
						}
					}
					continue
				}

				if !scanned(event.Name) {
					continue
				}
				switch {
				case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
					pendingAdds[event.Name] = true
					delete(pendingRemoves, event.Name)
				case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
					pendingRemoves[event.Name] = true
					delete(pendingAdds, event.Name)
				default:
					continue
				}
				resetTimer()

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("[indexer] file watcher error: %v", err)

			case <-debounceTimer.C:
				processChanges()
			}
		}
	}()

	return fs.addDirectoryToWatcher(fs.projectRoot)
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// StopWatcher stops the file watcher after flushing pending changes.
func (fs *FileScanner) StopWatcher() {
	if fs.watcher == nil {
		return
	}
	fs.cancel()
	fs.watcherWg.Wait()
	fs.watcher = nil
}

// addDirectoryToWatcher recursively watches dir and its subdirectories.
func (fs *FileScanner) addDirectoryToWatcher(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if fs.skipped(path) {
			return filepath.SkipDir
		}
		if err := fs.watcher.Add(path); err != nil {
			log.Printf("[indexer] error watching directory %s: %v", path, err)
		}
		return nil
	})
}

// Close stops the watcher and closes the file states and indexers.
func (fs *FileScanner) Close() error {
	fs.StopWatcher()

	var firstErr error
	for _, indexer := range fs.indexer {
		if err := indexer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := fs.states.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// IndexAll indexes every component file below the project root.
func (fs *FileScanner) IndexAll(ctx context.Context) error {
	var files []string

	err := filepath.Walk(fs.projectRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if path != fs.projectRoot && fs.skipped(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if scanned(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk project directory: %w", err)
	}

	log.Printf("[indexer] found %d component files", len(files))
	startTime := time.Now()

	if err := fs.removeVanished(ctx, files); err != nil {
		return fmt.Errorf("failed to remove vanished files: %w", err)
	}

	if err := fs.IndexFiles(ctx, files); err != nil {
		return fmt.Errorf("failed to index files: %w", err)
	}

	log.Printf("[indexer] indexing took %s", time.Since(startTime))
	return nil
}

// removeVanished removes the files indexed by an earlier run that are no
// longer part of the project.
func (fs *FileScanner) removeVanished(ctx context.Context, files []string) error {
	states, err := fs.states.GetAllValues()
	if err != nil {
		return err
	}

	var vanished []string
	for _, state := range states {
		if !slices.Contains(files, state.Path) {
			vanished = append(vanished, state.Path)
		}
	}
	if len(vanished) == 0 {
		return nil
	}

	log.Printf("[indexer] removing %d vanished files", len(vanished))
	return fs.RemoveFiles(ctx, vanished)
}

// fileNeedsIndexing reports whether path changed since it was indexed.
func (fs *FileScanner) fileNeedsIndexing(path string) (bool, FileState, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, FileState{}, err
	}
	state := FileState{Path: path, Size: info.Size(), ModTime: info.ModTime().UnixNano()}

	stored, err := fs.states.GetValues(path)
	if err != nil || len(stored) != 1 {
		return true, state, nil
	}
	return stored[0] != state, state, nil
}

// RemoveFiles removes files from the indexers and forgets their states.
func (fs *FileScanner) RemoveFiles(ctx context.Context, paths []string) error {
	for _, indexer := range fs.indexer {
		if err := indexer.RemovedFiles(paths); err != nil {
			return err
		}
	}
	if err := fs.states.BatchDeleteByFilePaths(paths); err != nil {
		return err
	}

	if fs.onUpdate != nil {
		fs.onUpdate(paths)
	}
	return nil
}

// IndexFiles indexes the changed files among files on a pool of workers,
// each with its own loader.
func (fs *FileScanner) IndexFiles(ctx context.Context, files []string) error {
	if len(files) == 0 {
		return nil
	}

	filtered := make([]string, 0, len(files))
	for _, path := range files {
		if !fs.skipped(path) {
			filtered = append(filtered, path)
		}
	}
	files = filtered

	workerCount := min(runtime.NumCPU()+2, 16)

	fileChan := make(chan string, 100)
	errChan := make(chan error, len(files))

	var mu sync.Mutex
	var indexed []string

	var wg sync.WaitGroup
	for range workerCount {
		wg.Add(1)
		go func() {
			defer wg.Done()

			loader, err := sfc.NewLoader()
			if err != nil {
				errChan <- err
				for range fileChan {
				}
				return
			}
			defer loader.Close()

			for path := range fileChan {
				if ctx.Err() != nil {
					continue
				}
				needsIndexing, state, err := fs.fileNeedsIndexing(path)
				if err != nil || !needsIndexing {
					continue
				}

				if err := fs.indexFile(loader, path); err != nil {
					errChan <- err
					continue
				}
				if err := fs.states.ReplaceFile(path, map[string]FileState{path: state}); err != nil {
					errChan <- err
					continue
				}

				mu.Lock()
				indexed = append(indexed, path)
				mu.Unlock()
			}
		}()
	}

	for _, path := range files {
		fileChan <- path
	}
	close(fileChan)

	wg.Wait()
	close(errChan)

	for err := range errChan {
		log.Printf("[indexer] error processing file: %v", err)
	}

	if fs.onUpdate != nil && len(indexed) > 0 {
		slices.Sort(indexed)
		fs.onUpdate(indexed)
	}

	return ctx.Err()
}

func (fs *FileScanner) indexFile(loader *sfc.Loader, path string) error {
	file, err := loader.Load(path)
	if err != nil {
		return err
	}
	defer file.Close()

	for _, indexer := range fs.indexer {
		if err := indexer.Index(path, file); err != nil {
			return fmt.Errorf("%s: %w", indexer.ID(), err)
		}
	}
	return nil
}

// ClearHashes forgets all file states and clears the indexers, forcing a
// full reindex.
func (fs *FileScanner) ClearHashes() error {
	for _, indexer := range fs.indexer {
		if err := indexer.Clear(); err != nil {
			return err
		}
	}
	return fs.states.Clear()
}
