package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/shopware/vuedoc/internal/component"
	"github.com/shopware/vuedoc/internal/emitter"
	"github.com/shopware/vuedoc/internal/entry"
	"github.com/shopware/vuedoc/internal/indexer"
	"github.com/shopware/vuedoc/internal/render"
	"github.com/shopware/vuedoc/internal/sfc"
)

var errNoCache = &jsonrpc2.Error{Code: jsonrpc2.CodeInternalError, Message: "documentation cache is disabled"}

// Server answers documentation requests of editor tooling over JSON-RPC 2.0
// with LSP framing.
type Server struct {
	rootPath        string
	conn            atomic.Pointer[jsonrpc2.Conn]
	documentManager *DocumentManager
	loader          *sfc.Loader
	loaderMu        sync.Mutex
	opts            component.Options
	FileScanner     *indexer.FileScanner
	docs            *indexer.DocIndexer
	closeOnce       sync.Once
}

// NewServer creates a server. fileScanner and docs may be nil, in which
// case only documents sent by the client can be parsed.
func NewServer(fileScanner *indexer.FileScanner, docs *indexer.DocIndexer, opts component.Options) (*Server, error) {
	loader, err := sfc.NewLoader()
	if err != nil {
		return nil, err
	}

	s := &Server{
		documentManager: NewDocumentManager(),
		loader:          loader,
		opts:            opts,
		FileScanner:     fileScanner,
		docs:            docs,
	}
	if fileScanner != nil {
		fileScanner.SetOnUpdate(s.componentsChanged)
	}
	return s, nil
}

func (s *Server) Start(in io.Reader, out io.Writer) error {
	stream := jsonrpc2.NewBufferedStream(rwc{in, out}, jsonrpc2.VSCodeObjectCodec{})
	conn := jsonrpc2.NewConn(context.Background(), stream, jsonrpc2.HandlerWithError(s.handle))
	s.conn.Store(conn)

	<-conn.DisconnectNotify()
	return nil
}

// rwc combines a reader and writer into a single ReadWriteCloser
type rwc struct {
	io.Reader
	io.Writer
}

// Close implements io.Closer
func (rwc) Close() error {
	return nil
}

// CloseAll releases the parsers, the file scanner and the cache. It is safe
// to call more than once.
func (s *Server) CloseAll() error {
	var err error
	s.closeOnce.Do(func() {
		s.documentManager.Close()

		s.loaderMu.Lock()
		s.loader.Close()
		s.loaderMu.Unlock()

		switch {
		case s.FileScanner != nil:
			err = s.FileScanner.Close()
		case s.docs != nil:
			err = s.docs.Close()
		}
	})
	return err
}

func decode(req *jsonrpc2.Request, v any) error {
	if req.Params == nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "missing params"}
	}
	if err := json.Unmarshal(*req.Params, v); err != nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeParseError, Message: err.Error()}
	}
	return nil
}

// handle processes incoming JSON-RPC requests and notifications
func (s *Server) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	// The first request can arrive before Start has stored the connection.
	s.conn.CompareAndSwap(nil, conn)

	if req.Method == "exit" {
		log.Println("[rpc] received exit notification, exiting")
		if err := conn.Close(); err != nil {
			log.Printf("[rpc] error closing connection: %v", err)
		}
		return nil, nil
	}

	switch req.Method {
	case "initialize":
		var params InitializeParams
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		return s.initialize(&params), nil

	case "initialized":
		if s.FileScanner != nil {
			go func() {
				if err := s.indexAll(ctx, false); err != nil {
					log.Printf("[rpc] error indexing: %v", err)
				}
			}()
		}
		return nil, nil

	case "textDocument/didOpen":
		var params DidOpenTextDocumentParams
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		s.documentManager.OpenDocument(params.TextDocument.URI, params.TextDocument.Text, params.TextDocument.Version)
		s.publishDiagnostics(ctx, params.TextDocument.URI)
		return nil, nil

	case "textDocument/didChange":
		var params DidChangeTextDocumentParams
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		if len(params.ContentChanges) > 0 {
			s.documentManager.UpdateDocument(params.TextDocument.URI, params.ContentChanges[0].Text, params.TextDocument.Version)
			s.publishDiagnostics(ctx, params.TextDocument.URI)
		}
		return nil, nil

	case "textDocument/didClose":
		var params DidCloseTextDocumentParams
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		s.documentManager.CloseDocument(params.TextDocument.URI)
		s.notify(ctx, "textDocument/publishDiagnostics", PublishDiagnosticsParams{
			URI:         params.TextDocument.URI,
			Diagnostics: []Diagnostic{},
		})
		return nil, nil

	case "workspace/didChangeWatchedFiles":
		var params DidChangeWatchedFilesParams
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		s.watchedFilesChanged(ctx, params.Changes)
		return nil, nil

	case "vuedoc/parse":
		var params ParseParams
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		return s.parse(ctx, &params)

	case "vuedoc/components":
		return s.components()

	case "vuedoc/component":
		var params ComponentParams
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		return s.component(&params)

	case "vuedoc/forceReindex":
		if s.FileScanner == nil {
			return nil, errNoCache
		}
		go func() {
			if err := s.indexAll(ctx, true); err != nil {
				log.Printf("[rpc] error force reindexing: %v", err)
			}
		}()
		return map[string]interface{}{
			"message": "Force reindexing started",
		}, nil

	case "shutdown":
		if err := s.CloseAll(); err != nil {
			log.Printf("[rpc] error closing indexers: %v", err)
		}
		log.Println("[rpc] received shutdown request, waiting for exit notification")
		return nil, nil

	default:
		if req.Notif {
			return nil, nil
		}
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "Method not implemented: " + req.Method}
	}
}

func (s *Server) initialize(params *InitializeParams) interface{} {
	s.extractRootPath(params)
	log.Printf("[rpc] serving documentation for %s", s.rootPath)

	return map[string]interface{}{
		"serverInfo": map[string]interface{}{
			"name": "vuedoc",
		},
		"capabilities": map[string]interface{}{
			"textDocumentSync": map[string]interface{}{
				"openClose": true,
				"change":    1, // Full sync
			},
		},
	}
}

// extractRootPath extracts the root path from the initialize params
func (s *Server) extractRootPath(params *InitializeParams) {
	switch {
	case params.RootPath != "":
		s.rootPath = params.RootPath
	case params.RootURI != "":
		s.rootPath = uriToPath(params.RootURI)
	case len(params.WorkspaceFolders) > 0:
		s.rootPath = uriToPath(params.WorkspaceFolders[0].URI)
	default:
		s.rootPath, _ = os.Getwd()
	}
}

// indexAll updates the documentation cache. forceReindex drops the cache
// first.
func (s *Server) indexAll(ctx context.Context, forceReindex bool) error {
	startTime := time.Now()

	s.notify(ctx, "vuedoc/indexingStarted", map[string]interface{}{
		"message": "Indexing started",
	})

	if forceReindex {
		if err := s.FileScanner.ClearHashes(); err != nil {
			return err
		}
	}
	if err := s.FileScanner.IndexAll(ctx); err != nil {
		return err
	}

	params := map[string]interface{}{
		"message":       "Indexing completed",
		"timeInSeconds": time.Since(startTime).Seconds(),
	}
	if s.docs != nil {
		if names, err := s.docs.Names(); err == nil {
			params["components"] = len(names)
		}
	}
	s.notify(ctx, "vuedoc/indexingCompleted", params)
	return nil
}

func (s *Server) watchedFilesChanged(ctx context.Context, changes []FileEvent) {
	if s.FileScanner == nil {
		return
	}

	var changed, deleted []string
	for _, change := range changes {
		switch change.Type {
		case FileCreated, FileChanged:
			changed = append(changed, uriToPath(change.URI))
		case FileDeleted:
			deleted = append(deleted, uriToPath(change.URI))
		}
	}

	if len(changed) > 0 {
		if err := s.FileScanner.IndexFiles(ctx, changed); err != nil {
			log.Printf("[rpc] error indexing changed files: %v", err)
		}
	}
	if len(deleted) > 0 {
		if err := s.FileScanner.RemoveFiles(ctx, deleted); err != nil {
			log.Printf("[rpc] error removing deleted files: %v", err)
		}
	}
}

func (s *Server) componentsChanged(paths []string) {
	uris := make([]string, len(paths))
	for i, path := range paths {
		uris[i] = pathToURI(path)
	}
	s.notify(context.Background(), "vuedoc/componentsChanged", map[string]interface{}{
		"uris": uris,
	})
}

func (s *Server) notify(ctx context.Context, method string, params interface{}) {
	conn := s.conn.Load()
	if conn == nil {
		return
	}
	if err := conn.Notify(ctx, method, params); err != nil {
		log.Printf("[rpc] error sending %s: %v", method, err)
	}
}

// parse documents the client's text, the open document or the file on disk,
// in that order.
func (s *Server) parse(ctx context.Context, params *ParseParams) (json.RawMessage, error) {
	var content []byte
	if params.Text != nil {
		content = []byte(*params.Text)
	} else if doc, ok := s.documentManager.GetDocument(params.URI); ok {
		content = doc.Text
	} else {
		data, err := os.ReadFile(uriToPath(params.URI))
		if err != nil {
			return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
		}
		content = data
	}

	doc, _, err := s.analyze(ctx, params.URI, content, params.Stream)
	if err != nil {
		return nil, err
	}

	data, err := render.Render(uriToPath(params.URI), doc, render.FormatJSON)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

// analyze documents content and collects the walk's anomalies as
// diagnostics. With stream set, every entry is also sent to the client as
// it is found.
func (s *Server) analyze(ctx context.Context, uri string, content []byte, stream bool) (*entry.Documentation, []Diagnostic, error) {
	s.loaderMu.Lock()
	defer s.loaderMu.Unlock()

	f, err := s.loader.Parse(uriToPath(uri), content)
	if errors.Is(err, sfc.ErrUnsupportedFile) {
		return nil, nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
	}
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	diagnostics := []Diagnostic{}
	doc, err := sfc.Document(f, s.opts, func(em *emitter.Emitter) {
		em.OnError(func(err error) {
			diagnostics = append(diagnostics, errorDiagnostic(err))
		})
		em.OnWarning(func(w emitter.Warning) {
			diagnostics = append(diagnostics, warningDiagnostic(w))
		})
		if stream {
			em.OnEntry(func(e entry.Entry) {
				s.streamEntry(ctx, uri, e)
			})
		}
	})
	if err != nil {
		return nil, nil, err
	}
	return doc, diagnostics, nil
}

func (s *Server) streamEntry(ctx context.Context, uri string, e entry.Entry) {
	data, err := json.Marshal(e)
	if err != nil {
		log.Printf("[rpc] error encoding %s entry: %v", e.Kind(), err)
		return
	}
	s.notify(ctx, "vuedoc/entry", EntryNotification{URI: uri, Kind: string(e.Kind()), Entry: data})
}

func (s *Server) publishDiagnostics(ctx context.Context, uri string) {
	if !slices.Contains(sfc.ScannedFileTypes, strings.ToLower(filepath.Ext(uri))) {
		return
	}
	doc, ok := s.documentManager.GetDocument(uri)
	if !ok {
		return
	}

	_, diagnostics, err := s.analyze(ctx, uri, doc.Text, false)
	if err != nil {
		log.Printf("[rpc] error analyzing %s: %v", uri, err)
		return
	}
	s.notify(ctx, "textDocument/publishDiagnostics", PublishDiagnosticsParams{
		URI:         uri,
		Version:     doc.Version,
		Diagnostics: diagnostics,
	})
}

func (s *Server) components() ([]ComponentSummary, error) {
	if s.docs == nil {
		return nil, errNoCache
	}
	all, err := s.docs.All()
	if err != nil {
		return nil, err
	}

	summaries := make([]ComponentSummary, 0, len(all))
	for _, c := range all {
		summaries = append(summaries, ComponentSummary{Name: c.Name(), URI: pathToURI(c.Path)})
	}
	return summaries, nil
}

// component returns the rendered documentation of the cached components
// matching params.
func (s *Server) component(params *ComponentParams) ([]json.RawMessage, error) {
	if s.docs == nil {
		return nil, errNoCache
	}

	var found []indexer.Component
	switch {
	case params.URI != "":
		c, ok, err := s.docs.Get(uriToPath(params.URI))
		if err != nil {
			return nil, err
		}
		if ok {
			found = append(found, *c)
		}
	case params.Name != "":
		components, err := s.docs.ByName(params.Name)
		if err != nil {
			return nil, err
		}
		found = components
	default:
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "name or uri is required"}
	}

	result := make([]json.RawMessage, 0, len(found))
	for _, c := range found {
		data, err := render.Render(c.Path, &c.Documentation, render.FormatJSON)
		if err != nil {
			return nil, err
		}
		result = append(result, data)
	}
	return result, nil
}

func uriToPath(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}

func pathToURI(path string) string {
	return "file://" + path
}
