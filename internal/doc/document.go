package doc

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"codepair/realtime/internal/crdt"
	"codepair/realtime/internal/metrics"
)

// Site id used for atoms seeded from storage.
const serverSite = "srv"

const saveTimeout = 5 * time.Second

// Subscriber receives payloads broadcast to a document's attached
// connections. Deliver must not block; a saturated subscriber drops the
// payload and handles its own teardown.
type Subscriber interface {
	ID() string
	Deliver(payload []byte)
}

// Document is the single authoritative in-memory copy of one session's
// shared text. All merges are serialized by the document's own mutex;
// persistence is debounced and never blocks the merge path.
type Document struct {
	sessionID string
	registry  *Registry
	initOnce  sync.Once

	mu         sync.Mutex
	text       *crdt.Doc
	subs       map[Subscriber]struct{}
	savedRev   uint64
	flushArmed bool
	evictTimer *clock.Timer
	// Set when the registry drops the document; an instance acquired
	// before the idle timer fired must not be attached to.
	evicted bool
}

func newDocument(r *Registry, sessionID string) *Document {
	return &Document{
		sessionID: sessionID,
		registry:  r,
		text:      crdt.NewDoc(),
		subs:      make(map[Subscriber]struct{}),
	}
}

func (d *Document) SessionID() string {
	return d.sessionID
}

// load seeds the document from the durable store. Store failure is not
// fatal: the document starts empty and the in-memory copy stays
// authoritative from then on.
func (d *Document) load() {
	ctx, cancel := context.WithTimeout(context.Background(), d.registry.loadTimeout)
	defer cancel()

	text, found, err := d.registry.store.LoadText(ctx, d.sessionID)
	if err != nil {
		log.Printf("doc %s: load failed, starting empty: %v", d.sessionID, err)
		return
	}
	if !found {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.text.SeedText(text, serverSite); err != nil {
		log.Printf("doc %s: seed failed: %v", d.sessionID, err)
	}
}

// Attach adds a connection to the document and returns the full-state
// snapshot it initializes its replica from. Attaching cancels any pending
// eviction. Returns false when the idle timer already evicted this
// instance; the caller must re-acquire a fresh one from the registry.
func (d *Document) Attach(sub Subscriber) ([]string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.evicted {
		return nil, false
	}
	if d.evictTimer != nil {
		d.evictTimer.Stop()
		d.evictTimer = nil
	}
	d.subs[sub] = struct{}{}
	metrics.AttachedConnections.Inc()
	return d.text.Snapshot(), true
}

// Detach removes a connection. When the last connection leaves, any
// unsaved text is flushed and the idle eviction timer starts.
func (d *Document) Detach(sub Subscriber) {
	d.mu.Lock()
	if _, ok := d.subs[sub]; !ok {
		d.mu.Unlock()
		return
	}
	delete(d.subs, sub)
	metrics.AttachedConnections.Dec()
	last := len(d.subs) == 0
	dirty := d.text.Rev() != d.savedRev
	if last && d.registry.evictAfter > 0 {
		d.evictTimer = d.registry.clk.AfterFunc(d.registry.evictAfter, func() {
			d.registry.evict(d)
		})
	}
	d.mu.Unlock()

	if last && dirty {
		go d.flushNow()
	}
}

// Merge decodes and applies an incoming update. The whole payload is
// decoded before anything is applied, so a malformed update is rejected
// without touching document state. An effective merge arms the debounced
// flush.
func (d *Document) Merge(opStrs []string) error {
	ops, err := crdt.DecodeOps(opStrs)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	before := d.text.Rev()
	for _, op := range ops {
		if err := d.text.Apply(op); err != nil {
			return err
		}
	}
	if d.text.Rev() != before {
		metrics.MergedOps.Add(float64(len(ops)))
		d.armFlush()
	}
	return nil
}

// Broadcast delivers a payload to every attached connection except the
// sender.
func (d *Document) Broadcast(senderID string, payload []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for sub := range d.subs {
		if sub.ID() == senderID {
			continue
		}
		sub.Deliver(payload)
	}
}

// Snapshot returns the current full state as encoded ops.
func (d *Document) Snapshot() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.text.Snapshot()
}

// Text returns the current document text.
func (d *Document) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.text.Text()
}

// armFlush starts the debounce timer unless one is already pending.
// Callers hold d.mu.
func (d *Document) armFlush() {
	if d.flushArmed {
		return
	}
	d.flushArmed = true
	d.registry.clk.AfterFunc(d.registry.flushInterval, d.flushNow)
}

// flushNow persists the current text if it changed since the last
// successful save. A failure is logged and retried when the next update
// re-arms the timer; it never reaches connected clients.
func (d *Document) flushNow() {
	d.mu.Lock()
	d.flushArmed = false
	rev := d.text.Rev()
	if rev == d.savedRev {
		d.mu.Unlock()
		return
	}
	text := d.text.Text()
	d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := d.registry.store.SaveText(ctx, d.sessionID, text); err != nil {
		metrics.FlushFailures.Inc()
		log.Printf("doc %s: flush failed (will retry): %v", d.sessionID, err)
		return
	}
	metrics.Flushes.Inc()

	d.mu.Lock()
	if rev > d.savedRev {
		d.savedRev = rev
	}
	d.mu.Unlock()
}
