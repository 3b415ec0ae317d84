// Package doc owns the live shared documents: one authoritative
// conflict-free text per active session, loaded lazily from the durable
// store, merged under a per-document lock and persisted on a debounced
// schedule.
package doc

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"codepair/realtime/internal/metrics"
	"codepair/realtime/internal/store"
)

// Options configures a Registry. Zero durations fall back to defaults;
// a nil Clock uses the wall clock.
type Options struct {
	Store         store.SessionStore
	Clock         clock.Clock
	FlushInterval time.Duration
	// Idle time after the last detach before a document is dropped from
	// memory. Zero disables eviction.
	EvictAfter  time.Duration
	LoadTimeout time.Duration
}

// Registry maps session ids to live documents. At most one document
// exists per session id at any time within the process. The registry
// lock only guards the map; it is never held across store I/O or merges,
// so sessions never serialize against each other.
type Registry struct {
	store         store.SessionStore
	clk           clock.Clock
	flushInterval time.Duration
	evictAfter    time.Duration
	loadTimeout   time.Duration

	mu   sync.Mutex
	docs map[string]*Document
}

func NewRegistry(opts Options) *Registry {
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	flushInterval := opts.FlushInterval
	if flushInterval == 0 {
		flushInterval = 2 * time.Second
	}
	loadTimeout := opts.LoadTimeout
	if loadTimeout == 0 {
		loadTimeout = 3 * time.Second
	}
	return &Registry{
		store:         opts.Store,
		clk:           clk,
		flushInterval: flushInterval,
		evictAfter:    opts.EvictAfter,
		loadTimeout:   loadTimeout,
		docs:          make(map[string]*Document),
	}
}

// Acquire returns the live document for a session, creating and loading
// it on first use. Concurrent callers for the same session share one
// instance; the initial store load happens once, outside the registry
// lock.
func (r *Registry) Acquire(sessionID string) *Document {
	r.mu.Lock()
	d, ok := r.docs[sessionID]
	if !ok {
		d = newDocument(r, sessionID)
		r.docs[sessionID] = d
		metrics.ActiveDocuments.Inc()
	}
	r.mu.Unlock()

	d.initOnce.Do(d.load)
	return d
}

// Len returns the number of live documents.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.docs)
}

// FlushAll persists every dirty document. Used on shutdown.
func (r *Registry) FlushAll() {
	r.mu.Lock()
	docs := make([]*Document, 0, len(r.docs))
	for _, d := range r.docs {
		docs = append(docs, d)
	}
	r.mu.Unlock()

	for _, d := range docs {
		d.flushNow()
	}
}

// evict runs when a document's idle timer fires. The document survives
// if a connection re-attached, and sticks around for another idle period
// if its last flush could not be persisted.
func (r *Registry) evict(d *Document) {
	d.flushNow()

	r.mu.Lock()
	d.mu.Lock()
	if len(d.subs) > 0 {
		d.mu.Unlock()
		r.mu.Unlock()
		return
	}
	if d.text.Rev() != d.savedRev {
		d.evictTimer = r.clk.AfterFunc(r.evictAfter, func() { r.evict(d) })
		d.mu.Unlock()
		r.mu.Unlock()
		return
	}
	d.evicted = true
	delete(r.docs, d.sessionID)
	metrics.ActiveDocuments.Dec()
	d.mu.Unlock()
	r.mu.Unlock()
}
