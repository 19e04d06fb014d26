package sfc

import (
	"github.com/shopware/vuedoc/internal/component"
	"github.com/shopware/vuedoc/internal/emitter"
	"github.com/shopware/vuedoc/internal/entry"
)

// Extract parses a component file and collects its documentation.
func (l *Loader) Extract(path string, content []byte, opts component.Options) (*entry.Documentation, error) {
	f, err := l.Parse(path, content)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Document(f, opts)
}

// Document collects the documentation of a loaded file. Walk errors and
// warnings are kept on the documentation; only invalid options are
// returned as errors. Hooks can subscribe to the walk before it starts.
func Document(f *File, opts component.Options, hooks ...func(*emitter.Emitter)) (*entry.Documentation, error) {
	doc := &entry.Documentation{}
	if f.Script == nil && f.Template == nil {
		return doc, nil
	}

	em := emitter.New()
	em.OnEntry(doc.Collect)
	em.OnError(func(err error) {
		doc.Errors = append(doc.Errors, err.Error())
	})
	em.OnWarning(func(w emitter.Warning) {
		doc.Warnings = append(doc.Warnings, w.String())
	})
	for _, hook := range hooks {
		hook(em)
	}

	if err := component.Parse(f.Options(opts), em); err != nil {
		return nil, err
	}
	return doc, nil
}
