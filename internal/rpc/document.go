package rpc

import (
	"sync"
)

// TextDocument represents a document open in the editor
type TextDocument struct {
	URI     string
	Text    []byte
	Version int
}

// DocumentManager keeps the unsaved state of open documents. Parses of an
// open document read its buffer instead of the file on disk.
type DocumentManager struct {
	documents map[string]*TextDocument
	mu        sync.RWMutex
}

// NewDocumentManager creates a new document manager
func NewDocumentManager() *DocumentManager {
	return &DocumentManager{
		documents: make(map[string]*TextDocument),
	}
}

// OpenDocument adds or replaces a document
func (m *DocumentManager) OpenDocument(uri string, text string, version int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.documents[uri] = &TextDocument{
		URI:     uri,
		Text:    []byte(text),
		Version: version,
	}
}

// UpdateDocument updates an existing document, opening it if needed
func (m *DocumentManager) UpdateDocument(uri string, text string, version int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if doc, ok := m.documents[uri]; ok {
		doc.Text = []byte(text)
		doc.Version = version
		return
	}
	m.documents[uri] = &TextDocument{
		URI:     uri,
		Text:    []byte(text),
		Version: version,
	}
}

// CloseDocument removes a document
func (m *DocumentManager) CloseDocument(uri string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.documents, uri)
}

// GetDocument returns a copy of a document by URI
func (m *DocumentManager) GetDocument(uri string) (TextDocument, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.documents[uri]
	if !ok {
		return TextDocument{}, false
	}
	return *doc, true
}

// Close forgets all documents
func (m *DocumentManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	clear(m.documents)
}
