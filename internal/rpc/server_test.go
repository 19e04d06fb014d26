package rpc

import (
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sourcegraph/jsonrpc2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/shopware/vuedoc/internal/component"
	"github.com/shopware/vuedoc/internal/indexer"
)

const buttonComponent = `<template>
  <button @click="$emit('press')"><slot /></button>
</template>

<script>
export default {
  name: 'AppButton',
  props: {
    /** The button label. */
    label: String,
  },
}
</script>
`

const unresolvedEvent = `<template>
  <input @input="$emit(name)" />
</template>
`

type notification struct {
	method string
	params json.RawMessage
}

type client struct {
	conn          *jsonrpc2.Conn
	notifications chan notification
}

func (c *client) call(t *testing.T, method string, params, result interface{}) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return c.conn.Call(ctx, method, params, result)
}

func (c *client) notify(t *testing.T, method string, params interface{}) {
	t.Helper()
	require.NoError(t, c.conn.Notify(context.Background(), method, params))
}

// next waits for the next notification of method, skipping others.
func (c *client) next(t *testing.T, method string) json.RawMessage {
	t.Helper()
	timeout := time.After(10 * time.Second)
	for {
		select {
		case n := <-c.notifications:
			if n.method == method {
				return n.params
			}
		case <-timeout:
			t.Fatalf("no %s notification received", method)
		}
	}
}

func connect(t *testing.T, s *Server) *client {
	t.Helper()
	serverSide, clientSide := net.Pipe()

	go func() { _ = s.Start(serverSide, serverSide) }()

	c := &client{notifications: make(chan notification, 100)}
	handler := jsonrpc2.HandlerWithError(func(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
		n := notification{method: req.Method}
		if req.Params != nil {
			n.params = *req.Params
		}
		c.notifications <- n
		return nil, nil
	})
	c.conn = jsonrpc2.NewConn(context.Background(), jsonrpc2.NewBufferedStream(clientSide, jsonrpc2.VSCodeObjectCodec{}), handler)

	t.Cleanup(func() {
		_ = c.conn.Close()
		_ = serverSide.Close()
		_ = s.CloseAll()
	})
	return c
}

func newServer(t *testing.T) *Server {
	t.Helper()
	s, err := NewServer(nil, nil, component.Options{Ignore: component.DefaultIgnore})
	require.NoError(t, err)
	return s
}

func TestServer_Initialize(t *testing.T) {
	c := connect(t, newServer(t))

	var result map[string]interface{}
	require.NoError(t, c.call(t, "initialize", InitializeParams{RootURI: "file:///project"}, &result))

	raw, err := json.Marshal(result)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gjson.GetBytes(raw, "capabilities.textDocumentSync.change").Int())
	assert.Equal(t, "vuedoc", gjson.GetBytes(raw, "serverInfo.name").String())
}

func TestServer_Parse_Text(t *testing.T) {
	c := connect(t, newServer(t))

	text := buttonComponent
	var result json.RawMessage
	require.NoError(t, c.call(t, "vuedoc/parse", ParseParams{URI: "file:///project/AppButton.vue", Text: &text}, &result))

	assert.Equal(t, "/project/AppButton.vue", gjson.GetBytes(result, "file").String())
	assert.Equal(t, "AppButton", gjson.GetBytes(result, "name").String())
	assert.Equal(t, "label", gjson.GetBytes(result, "props.0.name").String())
	assert.Equal(t, "The button label.", gjson.GetBytes(result, "props.0.description").String())
	assert.Equal(t, "press", gjson.GetBytes(result, "events.0.name").String())
	assert.Equal(t, "default", gjson.GetBytes(result, "slots.0.name").String())
}

func TestServer_Parse_Stream(t *testing.T) {
	c := connect(t, newServer(t))

	text := buttonComponent
	var result json.RawMessage
	require.NoError(t, c.call(t, "vuedoc/parse", ParseParams{URI: "file:///project/AppButton.vue", Text: &text, Stream: true}, &result))

	// Notifications sent while handling a request arrive before its response.
	var kinds []string
	for {
		select {
		case n := <-c.notifications:
			if n.method == "vuedoc/entry" {
				kinds = append(kinds, gjson.GetBytes(n.params, "kind").String())
			}
			continue
		default:
		}
		break
	}
	assert.Contains(t, kinds, "name")
	assert.Contains(t, kinds, "prop")
	assert.Contains(t, kinds, "event")
	assert.Contains(t, kinds, "slot")
}

func TestServer_Parse_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "AppButton.vue")
	require.NoError(t, os.WriteFile(path, []byte(buttonComponent), 0o644))

	c := connect(t, newServer(t))

	var result json.RawMessage
	require.NoError(t, c.call(t, "vuedoc/parse", ParseParams{URI: pathToURI(path)}, &result))
	assert.Equal(t, "AppButton", gjson.GetBytes(result, "name").String())

	err := c.call(t, "vuedoc/parse", ParseParams{URI: pathToURI(filepath.Join(dir, "Missing.vue"))}, &result)
	var rpcErr *jsonrpc2.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, int64(jsonrpc2.CodeInvalidParams), rpcErr.Code)

	err = c.call(t, "vuedoc/parse", ParseParams{URI: "file:///project/style.css"}, &result)
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, int64(jsonrpc2.CodeInvalidParams), rpcErr.Code)
}

func TestServer_OpenDocument(t *testing.T) {
	c := connect(t, newServer(t))
	uri := "file:///project/Search.vue"

	c.notify(t, "textDocument/didOpen", DidOpenTextDocumentParams{
		TextDocument: TextDocumentItem{URI: uri, Text: unresolvedEvent, Version: 1},
	})

	var published PublishDiagnosticsParams
	require.NoError(t, json.Unmarshal(c.next(t, "textDocument/publishDiagnostics"), &published))
	assert.Equal(t, uri, published.URI)
	assert.Equal(t, 1, published.Version)
	require.Len(t, published.Diagnostics, 1)
	assert.Equal(t, DiagnosticSeverityWarning, published.Diagnostics[0].Severity)
	assert.Equal(t, 1, published.Diagnostics[0].Range.Start.Line)
	assert.Contains(t, published.Diagnostics[0].Message, "unable to resolve the event name")

	// The open buffer is parsed instead of the file on disk.
	var result json.RawMessage
	require.NoError(t, c.call(t, "vuedoc/parse", ParseParams{URI: uri}, &result))
	assert.Equal(t, "input", gjson.GetBytes(result, "events.0.name").String())
	assert.Equal(t, int64(1), gjson.GetBytes(result, "warnings.#").Int())

	c.notify(t, "textDocument/didChange", map[string]interface{}{
		"textDocument":   map[string]interface{}{"uri": uri, "version": 2},
		"contentChanges": []map[string]string{{"text": buttonComponent}},
	})
	require.NoError(t, json.Unmarshal(c.next(t, "textDocument/publishDiagnostics"), &published))
	assert.Equal(t, 2, published.Version)
	assert.Empty(t, published.Diagnostics)

	c.notify(t, "textDocument/didClose", DidCloseTextDocumentParams{TextDocument: TextDocumentIdentifier{URI: uri}})
	require.NoError(t, json.Unmarshal(c.next(t, "textDocument/publishDiagnostics"), &published))
	assert.Empty(t, published.Diagnostics)

	err := c.call(t, "vuedoc/parse", ParseParams{URI: uri}, &result)
	assert.Error(t, err, "closed documents are read from disk")
}

func TestServer_ComponentsWithoutCache(t *testing.T) {
	c := connect(t, newServer(t))

	var result []ComponentSummary
	err := c.call(t, "vuedoc/components", nil, &result)
	var rpcErr *jsonrpc2.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, errNoCache.Message, rpcErr.Message)
}

func TestServer_MethodNotFound(t *testing.T) {
	c := connect(t, newServer(t))

	err := c.call(t, "vuedoc/unknown", nil, nil)
	var rpcErr *jsonrpc2.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, int64(jsonrpc2.CodeMethodNotFound), rpcErr.Code)
}

func TestServer_IndexedComponents(t *testing.T) {
	projectDir := t.TempDir()
	cacheDir := t.TempDir()

	buttonPath := filepath.Join(projectDir, "components", "AppButton.vue")
	require.NoError(t, os.MkdirAll(filepath.Dir(buttonPath), 0o755))
	require.NoError(t, os.WriteFile(buttonPath, []byte(buttonComponent), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, "components", "Search.vue"), []byte(unresolvedEvent), 0o644))

	opts := component.Options{Ignore: component.DefaultIgnore}
	docs, err := indexer.NewDocIndexer(filepath.Join(cacheDir, "docs.db"), opts)
	require.NoError(t, err)
	scanner, err := indexer.NewFileScanner(projectDir, filepath.Join(cacheDir, "files.db"))
	require.NoError(t, err)
	scanner.AddIndexer(docs)

	s, err := NewServer(scanner, docs, opts)
	require.NoError(t, err)
	c := connect(t, s)

	var initResult map[string]interface{}
	require.NoError(t, c.call(t, "initialize", InitializeParams{RootPath: projectDir}, &initResult))
	c.notify(t, "initialized", map[string]interface{}{})

	changed := c.next(t, "vuedoc/componentsChanged")
	assert.Equal(t, int64(2), gjson.GetBytes(changed, "uris.#").Int())
	completed := c.next(t, "vuedoc/indexingCompleted")
	assert.Equal(t, int64(2), gjson.GetBytes(completed, "components").Int())

	var components []ComponentSummary
	require.NoError(t, c.call(t, "vuedoc/components", nil, &components))
	assert.Equal(t, []ComponentSummary{
		{Name: "AppButton", URI: pathToURI(buttonPath)},
		{Name: "Search", URI: pathToURI(filepath.Join(projectDir, "components", "Search.vue"))},
	}, components)

	var byName []json.RawMessage
	require.NoError(t, c.call(t, "vuedoc/component", ComponentParams{Name: "AppButton"}, &byName))
	require.Len(t, byName, 1)
	assert.Equal(t, "label", gjson.GetBytes(byName[0], "props.0.name").String())

	var byURI []json.RawMessage
	require.NoError(t, c.call(t, "vuedoc/component", ComponentParams{URI: pathToURI(buttonPath)}, &byURI))
	require.Len(t, byURI, 1)
	assert.Equal(t, buttonPath, gjson.GetBytes(byURI[0], "file").String())

	err = c.call(t, "vuedoc/component", ComponentParams{}, &byURI)
	assert.Error(t, err)

	require.NoError(t, os.Remove(buttonPath))
	c.notify(t, "workspace/didChangeWatchedFiles", DidChangeWatchedFilesParams{
		Changes: []FileEvent{{URI: pathToURI(buttonPath), Type: FileDeleted}},
	})
	c.next(t, "vuedoc/componentsChanged")

	require.NoError(t, c.call(t, "vuedoc/components", nil, &components))
	assert.Equal(t, []ComponentSummary{
		{Name: "Search", URI: pathToURI(filepath.Join(projectDir, "components", "Search.vue"))},
	}, components)
}

func TestLineRange(t *testing.T) {
	assert.Equal(t, Range{Start: Position{Line: 4}, End: Position{Line: 5}}, lineRange(5))
	assert.Equal(t, Range{Start: Position{Line: 0}, End: Position{Line: 1}}, lineRange(0))
}

func TestErrorDiagnostic(t *testing.T) {
	d := errorDiagnostic(&component.ParseError{Message: "syntax error", Line: 3, Column: 7})
	assert.Equal(t, "syntax error", d.Message)
	assert.Equal(t, DiagnosticSeverityError, d.Severity)
	assert.Equal(t, Position{Line: 2, Character: 6}, d.Range.Start)
}
