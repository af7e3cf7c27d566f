// Package models implements keyed reactive computations over an event
// store. A model is defined once (a timeline, a profile, an event's
// lifecycle) and subscribed to many times: subscribers with the same key
// share one running computation, late subscribers replay its latest value,
// and the computation survives its last subscriber for a grace period so
// views that come right back don't pay the startup cost again.
package models

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hzrd149/applesauce-go/eventstore"
)

const defaultGracePeriod = time.Minute

// A Definition describes a model: a named, keyed computation whose result
// updates as events flow through the store.
type Definition[T any] struct {
	// Name identifies the model family ("timeline", "profile", ...). Two
	// definitions sharing a Name must produce the same value type.
	Name string

	// Key distinguishes instances within a family. It must capture every
	// argument that affects the result, since subscribers with equal
	// (Name, Key) share one computation.
	Key string

	// Run starts the computation and returns a function that stops it.
	// Values go out through emit; models with a meaningful initial state
	// emit it before returning so subscribers never start blind.
	Run func(rt *Runtime, emit func(T)) (stop func())
}

// Runtime is what a model's Run function gets to work with.
type Runtime struct {
	// Store is the event store the model computes over.
	Store eventstore.Store

	reg   *Registry
	entry *entry
}

// Context is canceled when the model is torn down. Hand it to loaders and
// goroutines so they die with the model.
func (rt *Runtime) Context() context.Context { return rt.entry.ctx }

// Registry returns the owning registry, letting models compose by
// subscribing to other models.
func (rt *Runtime) Registry() *Registry { return rt.reg }

// Complete marks the model finished: subscriber channels close once
// drained and the computation is stopped. The final value remains
// replayable to late subscribers until the entry is evicted.
func (rt *Runtime) Complete() { rt.entry.complete() }

// Registry deduplicates running models by (name, key) and manages their
// lifecycles. The zero GracePeriod keeps an abandoned model alive for a
// minute; negative tears it down the moment its last subscriber leaves.
type Registry struct {
	Store       eventstore.Store
	GracePeriod time.Duration
	Log         *zerolog.Logger

	mu      sync.Mutex
	entries map[entryKey]*entry
}

func NewRegistry(store eventstore.Store) *Registry {
	nop := zerolog.Nop()
	return &Registry{
		Store:   store,
		entries: make(map[entryKey]*entry),
		Log:     &nop,
	}
}

// Subscribe attaches to the model identified by def's name and key,
// starting it if no instance is running. The subscription immediately
// replays the model's latest value when there is one.
func Subscribe[T any](reg *Registry, def Definition[T]) *Subscription[T] {
	k := entryKey{name: def.Name, key: def.Key}
	sub := newSubscription[T]()

	for {
		reg.mu.Lock()
		e, ok := reg.entries[k]
		if !ok {
			e = newEntry(reg, k)
			reg.entries[k] = e
			reg.mu.Unlock()

			e.tryAttach(sub) // cannot fail on a fresh entry
			sub.entry = e

			reg.Log.Debug().Str("model", def.Name).Str("key", def.Key).Msg("starting model")
			rt := &Runtime{Store: reg.Store, reg: reg, entry: e}
			stop := def.Run(rt, func(v T) { e.emit(v) })
			e.setStop(stop)
			return sub
		}
		reg.mu.Unlock()

		if e.tryAttach(sub) {
			sub.entry = e
			return sub
		}

		// lost a race against teardown; clear the dead entry and retry
		reg.evict(k, e)
	}
}

// Running reports how many model instances are currently alive, including
// ones idling through their grace period.
func (r *Registry) Running() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Close tears down every running model regardless of subscribers. Their
// subscription channels close after draining.
func (r *Registry) Close() {
	r.mu.Lock()
	entries := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	clear(r.entries)
	r.mu.Unlock()

	for _, e := range entries {
		e.teardown(true)
	}
}

func (r *Registry) gracePeriod() time.Duration {
	if r.GracePeriod == 0 {
		return defaultGracePeriod
	}
	return r.GracePeriod
}

func (r *Registry) evict(k entryKey, e *entry) {
	r.mu.Lock()
	if cur, ok := r.entries[k]; ok && cur == e {
		delete(r.entries, k)
	}
	r.mu.Unlock()
}

type entryKey struct {
	name string
	key  string
}

// port is the untyped side of a subscription; the registry pushes values
// through it without knowing the model's value type.
type port interface {
	accept(v any)
	finish()
}

// entry is one running model instance. Its mutex guards subscriber and
// lifecycle state and is never held while calling into model code.
type entry struct {
	registry *Registry
	key      entryKey
	ctx      context.Context
	cancel   context.CancelFunc

	mu        sync.Mutex
	ports     []port
	refs      int
	latest    any
	hasLatest bool
	completed bool
	stopped   bool

	// stop is set once Run returns; stopPending remembers a teardown or
	// completion that happened while Run was still executing.
	stop        func()
	stopPending bool

	timer *time.Timer
}

func newEntry(reg *Registry, k entryKey) *entry {
	ctx, cancel := context.WithCancel(context.Background())
	return &entry{registry: reg, key: k, ctx: ctx, cancel: cancel}
}

func (e *entry) tryAttach(p port) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		return false
	}
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}

	e.refs++
	e.ports = append(e.ports, p)
	if e.hasLatest {
		p.accept(e.latest)
	}
	if e.completed {
		p.finish()
	}
	return true
}

func (e *entry) detach(p port) {
	e.mu.Lock()
	for i, cur := range e.ports {
		if cur == p {
			e.ports = slices.Delete(e.ports, i, i+1)
			break
		}
	}
	e.refs--
	idle := e.refs == 0 && !e.stopped
	e.mu.Unlock()

	if idle {
		e.scheduleTeardown()
	}
}

func (e *entry) emit(v any) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped || e.completed {
		return
	}
	e.latest = v
	e.hasLatest = true
	for _, p := range e.ports {
		p.accept(v)
	}
}

func (e *entry) complete() {
	e.mu.Lock()
	if e.completed || e.stopped {
		e.mu.Unlock()
		return
	}
	e.completed = true
	stop := e.stop
	e.stop = nil
	if stop == nil {
		e.stopPending = true
	}
	for _, p := range e.ports {
		p.finish()
	}
	e.mu.Unlock()

	if stop != nil {
		stop()
	}
}

func (e *entry) setStop(stop func()) {
	e.mu.Lock()
	pending := e.stopPending || e.stopped
	e.stopPending = false
	if !pending {
		e.stop = stop
	}
	e.mu.Unlock()

	if pending && stop != nil {
		stop()
	}
}

func (e *entry) scheduleTeardown() {
	if e.registry.gracePeriod() < 0 {
		e.teardown(false)
		return
	}

	e.mu.Lock()
	if e.refs > 0 || e.stopped {
		e.mu.Unlock()
		return
	}
	e.timer = time.AfterFunc(e.registry.gracePeriod(), func() { e.teardown(false) })
	e.mu.Unlock()
}

func (e *entry) teardown(force bool) {
	e.mu.Lock()
	if e.stopped || (!force && e.refs > 0) {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	stop := e.stop
	e.stop = nil
	ports := e.ports
	e.ports = nil
	e.mu.Unlock()

	// evict before stopping so a concurrent Subscribe lands on a fresh
	// entry instead of finding this one half torn down
	e.registry.evict(e.key, e)

	e.cancel()
	if stop != nil {
		stop()
	}
	for _, p := range ports {
		p.finish()
	}

	e.registry.Log.Debug().Str("model", e.key.name).Str("key", e.key.key).Msg("stopped model")
}
