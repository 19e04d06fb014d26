// Package emitter is the publish/subscribe channel a parse walk reports
// through. Subscribers attach before the walk starts and are called
// synchronously, in discovery order.
package emitter

import (
	"fmt"
	"slices"
	"sync"

	"github.com/shopware/vuedoc/internal/entry"
)

// Warning is a recoverable anomaly found during a walk.
type Warning struct {
	Message string
	// Line is 1-based; 0 when the anomaly has no source position.
	Line int
}

func (w Warning) String() string {
	if w.Line > 0 {
		return fmt.Sprintf("line %d: %s", w.Line, w.Message)
	}
	return w.Message
}

// Sink receives everything a walk produces.
type Sink interface {
	Publish(e entry.Entry)
	Error(err error)
	Warn(w Warning)
}

// Emitter dispatches published entries to per-kind subscribers.
type Emitter struct {
	mu       sync.Mutex
	handlers map[entry.Kind][]func(entry.Entry)
	all      []func(entry.Entry)
	onError  []func(error)
	onWarn   []func(Warning)
	onEnd    []func()
	events   map[string]bool
}

// New creates an emitter without subscribers.
func New() *Emitter {
	return &Emitter{
		handlers: make(map[entry.Kind][]func(entry.Entry)),
		events:   make(map[string]bool),
	}
}

// On subscribes to one entry kind.
func (em *Emitter) On(kind entry.Kind, fn func(entry.Entry)) {
	em.mu.Lock()
	defer em.mu.Unlock()
	em.handlers[kind] = append(em.handlers[kind], fn)
}

// OnEntry subscribes to every entry kind.
func (em *Emitter) OnEntry(fn func(entry.Entry)) {
	em.mu.Lock()
	defer em.mu.Unlock()
	em.all = append(em.all, fn)
}

func (em *Emitter) OnError(fn func(error)) {
	em.mu.Lock()
	defer em.mu.Unlock()
	em.onError = append(em.onError, fn)
}

func (em *Emitter) OnWarning(fn func(Warning)) {
	em.mu.Lock()
	defer em.mu.Unlock()
	em.onWarn = append(em.onWarn, fn)
}

// OnEnd subscribes to the terminal signal.
func (em *Emitter) OnEnd(fn func()) {
	em.mu.Lock()
	defer em.mu.Unlock()
	em.onEnd = append(em.onEnd, fn)
}

// Subscribe attaches a typed handler for kind.
func Subscribe[T entry.Entry](em *Emitter, kind entry.Kind, fn func(T)) {
	em.On(kind, func(e entry.Entry) {
		if typed, ok := e.(T); ok {
			fn(typed)
		}
	})
}

// Begin resets per-walk state. Called once before a walk starts.
func (em *Emitter) Begin() {
	em.mu.Lock()
	defer em.mu.Unlock()
	em.events = make(map[string]bool)
}

// Publish hands an entry to its subscribers. An event whose name was
// already published during this walk is dropped. Subscribers run without the
// lock held, so they may publish or warn through the same emitter.
func (em *Emitter) Publish(e entry.Entry) {
	em.mu.Lock()
	if e.Kind() == entry.KindEvent {
		if em.events[e.Identity()] {
			em.mu.Unlock()
			return
		}
		em.events[e.Identity()] = true
	}
	handlers := slices.Clone(em.handlers[e.Kind()])
	all := slices.Clone(em.all)
	em.mu.Unlock()

	for _, fn := range handlers {
		fn(e)
	}
	for _, fn := range all {
		fn(e)
	}
}

func (em *Emitter) Error(err error) {
	em.mu.Lock()
	handlers := slices.Clone(em.onError)
	em.mu.Unlock()
	for _, fn := range handlers {
		fn(err)
	}
}

func (em *Emitter) Warn(w Warning) {
	em.mu.Lock()
	handlers := slices.Clone(em.onWarn)
	em.mu.Unlock()
	for _, fn := range handlers {
		fn(w)
	}
}

// End fires the terminal signal.
func (em *Emitter) End() {
	em.mu.Lock()
	handlers := slices.Clone(em.onEnd)
	em.mu.Unlock()
	for _, fn := range handlers {
		fn()
	}
}
