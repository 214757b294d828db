package service

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/linguaspark/linguaspark-go/internal/domain"
)

// Result is a translated text owned by the service that produced it. The
// caller reads it and must hand it back with Release exactly once.
type Result struct {
	id        string
	pair      domain.LanguagePair
	createdAt time.Time
	cached    bool

	mu       sync.RWMutex
	text     string
	released bool
}

// ID uniquely identifies the result within its service.
func (r *Result) ID() string { return r.id }

// Pair is the direction the text was translated in.
func (r *Result) Pair() domain.LanguagePair { return r.pair }

// CreatedAt is when the translation finished.
func (r *Result) CreatedAt() time.Time { return r.createdAt }

// Cached reports whether the text came from the result cache.
func (r *Result) Cached() bool { return r.cached }

// Text returns the translation, or "" after release.
func (r *Result) Text() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.text
}

// Released reports whether the result was handed back.
func (r *Result) Released() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.released
}

func (r *Result) free() {
	r.mu.Lock()
	r.text = ""
	r.released = true
	r.mu.Unlock()
}

// resultTracker tracks every outstanding Result of one service.
type resultTracker struct {
	mu          sync.Mutex
	outstanding map[string]*Result
}

func newResultTracker() *resultTracker {
	return &resultTracker{outstanding: make(map[string]*Result)}
}

func (t *resultTracker) allocate(pair domain.LanguagePair, text string, cached bool) *Result {
	r := &Result{
		id:        uuid.NewString(),
		pair:      pair,
		createdAt: time.Now(),
		cached:    cached,
		text:      text,
	}
	t.mu.Lock()
	t.outstanding[r.id] = r
	t.mu.Unlock()
	return r
}

// release frees r. It fails for nil, foreign and already released results.
func (t *resultTracker) release(r *Result) error {
	if r == nil {
		return domain.ErrUsage("result is nil").WithParam("result")
	}

	t.mu.Lock()
	owned, ok := t.outstanding[r.id]
	if !ok || owned != r {
		t.mu.Unlock()
		if r.Released() {
			return domain.ErrLifecycle("result already released").WithParam(r.id)
		}
		return domain.ErrLifecycle("result was not produced by this service").WithParam(r.id)
	}
	delete(t.outstanding, r.id)
	t.mu.Unlock()

	r.free()
	return nil
}

func (t *resultTracker) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.outstanding)
}

// drain frees every outstanding result and returns how many there were.
func (t *resultTracker) drain() int {
	t.mu.Lock()
	leaked := t.outstanding
	t.outstanding = make(map[string]*Result)
	t.mu.Unlock()

	for _, r := range leaked {
		r.free()
	}
	return len(leaked)
}
