package indexer

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"
)

// DataIndexer stores msgpack-encoded values in a SQLite database. Every
// value has a lookup key and belongs to the file it was extracted from, so
// reindexing a file replaces everything it produced.
type DataIndexer[T any] struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// NewDataIndexer opens or creates the database at dbPath.
func NewDataIndexer[T any](dbPath string) (*DataIndexer[T], error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	// _txlock=immediate takes the write lock on BEGIN and avoids SQLITE_BUSY
	// upgrades between scanner workers.
	db, err := sql.Open("sqlite", dbPath+"?_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA auto_vacuum=INCREMENTAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS data (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			key TEXT NOT NULL,
			value BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_data_key ON data(key);

		CREATE TABLE IF NOT EXISTS files (
			file_path TEXT NOT NULL,
			data_id INTEGER NOT NULL,
			PRIMARY KEY (file_path, data_id),
			FOREIGN KEY (data_id) REFERENCES data(id) ON DELETE CASCADE
		);
		CREATE INDEX IF NOT EXISTS idx_files_path ON files(file_path);
	`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	return &DataIndexer[T]{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// ReplaceFile drops everything stored for filePath and saves items, keyed
// by lookup key, in one transaction.
func (idx *DataIndexer[T]) ReplaceFile(filePath string, items map[string]T) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	tx, err := idx.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := deleteFile(tx, filePath); err != nil {
		return err
	}

	for key, item := range items {
		data, err := msgpack.Marshal(item)
		if err != nil {
			return fmt.Errorf("failed to marshal item %s: %w", key, err)
		}

		result, err := tx.Exec("INSERT INTO data (key, value) VALUES (?, ?)", key, data)
		if err != nil {
			return fmt.Errorf("failed to save item: %w", err)
		}
		dataID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		if _, err := tx.Exec("INSERT INTO files (file_path, data_id) VALUES (?, ?)", filePath, dataID); err != nil {
			return fmt.Errorf("failed to save file association: %w", err)
		}
	}

	return tx.Commit()
}

// GetValues returns all items stored under key.
func (idx *DataIndexer[T]) GetValues(key string) ([]T, error) {
	return idx.query("SELECT value FROM data WHERE key = ? ORDER BY id", key)
}

// GetByFilePath returns the items extracted from filePath.
func (idx *DataIndexer[T]) GetByFilePath(filePath string) ([]T, error) {
	return idx.query(`
		SELECT d.value FROM data d
		INNER JOIN files f ON d.id = f.data_id
		WHERE f.file_path = ?
		ORDER BY d.id
	`, filePath)
}

// GetAllValues returns every stored item.
func (idx *DataIndexer[T]) GetAllValues() ([]T, error) {
	return idx.query("SELECT value FROM data ORDER BY key, id")
}

func (idx *DataIndexer[T]) query(query string, args ...any) ([]T, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	rows, err := idx.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query data: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []T
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if len(data) == 0 {
			continue
		}

		var item T
		if err := msgpack.Unmarshal(data, &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal item: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// GetAllKeys returns the distinct keys, sorted.
func (idx *DataIndexer[T]) GetAllKeys() ([]string, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	rows, err := idx.db.Query("SELECT DISTINCT key FROM data ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("failed to query keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, key)
	}

	return keys, rows.Err()
}

// BatchDeleteByFilePaths deletes the items of the given files in a single
// transaction.
func (idx *DataIndexer[T]) BatchDeleteByFilePaths(filePaths []string) error {
	if len(filePaths) == 0 {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	tx, err := idx.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, filePath := range filePaths {
		if err := deleteFile(tx, filePath); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func deleteFile(tx *sql.Tx, filePath string) error {
	_, err := tx.Exec(`
		DELETE FROM data WHERE id IN (
			SELECT data_id FROM files WHERE file_path = ?
		)
	`, filePath)
	if err != nil {
		return fmt.Errorf("failed to delete data: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM files WHERE file_path = ?", filePath); err != nil {
		return fmt.Errorf("failed to delete file associations: %w", err)
	}
	return nil
}

// Clear deletes every item.
func (idx *DataIndexer[T]) Clear() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, err := idx.db.Exec("DELETE FROM files; DELETE FROM data;"); err != nil {
		return err
	}

	_, err := idx.db.Exec("PRAGMA incremental_vacuum")
	return err
}

// Close checkpoints the WAL and closes the database.
func (idx *DataIndexer[T]) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	_, _ = idx.db.Exec("PRAGMA optimize")
	_, _ = idx.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")

	return idx.db.Close()
}
