package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/linguaspark/linguaspark-go/internal/domain"
	"github.com/linguaspark/linguaspark-go/internal/logging"
	"github.com/linguaspark/linguaspark-go/internal/modelconfig"
	"github.com/linguaspark/linguaspark-go/internal/tracing"
)

// Registry maps language pairs to loaded models. Lookups take a read lock;
// loads build the new model outside every lock and only swap under the
// write lock.
type Registry struct {
	engine domain.InferenceEngine
	logger *slog.Logger

	mu      sync.RWMutex
	handles map[domain.LanguagePair]*ModelHandle
	closed  bool

	// one mutex per pair so concurrent loads of the same pair serialize
	loadLocksMu sync.Mutex
	loadLocks   map[domain.LanguagePair]*sync.Mutex

	loading atomic.Int32
}

// New returns an empty registry backed by engine.
func New(engine domain.InferenceEngine, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		engine:    engine,
		logger:    logger,
		handles:   make(map[domain.LanguagePair]*ModelHandle),
		loadLocks: make(map[domain.LanguagePair]*sync.Mutex),
	}
}

// Load parses config, loads it through the engine and installs the result
// under pair, replacing any previous model (Blue/Green):
//  1. Build the new model (the old one keeps serving)
//  2. Swap the handle under the write lock
//  3. Close the old handle once its in-flight inferences finish
//
// On any failure the registry is unchanged.
func (r *Registry) Load(ctx context.Context, pair domain.LanguagePair, config string) (info domain.ModelInfo, err error) {
	ctx, span := tracing.StartPair(ctx, "registry.Load", pair)
	defer func() { tracing.End(span, err) }()

	if pair.From == "" || pair.To == "" {
		return domain.ModelInfo{}, domain.ErrUsage("language pair is incomplete").WithParam("language_pair")
	}
	if r.isClosed() {
		return domain.ModelInfo{}, domain.ErrLifecycle("model registry is closed")
	}

	cfg, err := modelconfig.Parse(config)
	if err != nil {
		return domain.ModelInfo{}, err
	}
	if err := cfg.CheckArtifacts(); err != nil {
		return domain.ModelInfo{}, err
	}
	fingerprint := cfg.Fingerprint()
	span.SetAttributes(attribute.String("linguaspark.fingerprint", fingerprint))

	lock := r.loadLock(pair)
	lock.Lock()
	defer lock.Unlock()

	r.loading.Add(1)
	defer r.loading.Add(-1)

	start := time.Now()
	model, err := r.loadModel(pair, cfg.Raw)
	if err != nil {
		logging.With(r.logger).
			Str("component", "registry").
			Str("pair", pair.String()).
			Str("trace_id", tracing.TraceID(ctx)).
			Err(err).
			Warn("model load failed")
		return domain.ModelInfo{}, err
	}

	handle := newHandle(r.engine, pair, fingerprint, cfg.Artifacts(), model)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		model.Close()
		return domain.ModelInfo{}, domain.ErrLifecycle("model registry closed during load")
	}
	old := r.handles[pair]
	r.handles[pair] = handle
	r.mu.Unlock()

	fields := logging.With(r.logger).
		Str("component", "registry").
		Str("pair", pair.String()).
		Str("model_id", handle.ID).
		Dur("load_time", time.Since(start))

	if old != nil {
		old.close()
		fields.Str("replaced_id", old.ID).Info("model replaced")
	} else {
		fields.Info("model loaded")
	}
	return handle.Info(), nil
}

// loadModel calls the engine and turns failures, including panics, into
// AppErrors.
func (r *Registry) loadModel(pair domain.LanguagePair, config string) (model domain.Model, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			model = nil
			err = domain.ErrEngine("inference engine panicked while loading model").
				WithParam(pair.String()).
				WithCause(fmt.Errorf("panic: %v", rec))
		}
	}()

	model, err = r.engine.LoadModel(pair, config)
	if err != nil {
		if domain.CodeOf(err) != "" {
			return nil, err
		}
		return nil, domain.ErrConfig("inference engine rejected model config").
			WithParam(pair.String()).
			WithCause(err)
	}
	if model == nil {
		return nil, domain.ErrEngine("inference engine returned no model").WithParam(pair.String())
	}
	return model, nil
}

func (r *Registry) loadLock(pair domain.LanguagePair) *sync.Mutex {
	r.loadLocksMu.Lock()
	defer r.loadLocksMu.Unlock()

	lock, ok := r.loadLocks[pair]
	if !ok {
		lock = &sync.Mutex{}
		r.loadLocks[pair] = lock
	}
	return lock
}

// Acquire pins the current handle for pair. The handle stays usable, even
// if it is replaced or unloaded meanwhile, until release is called.
func (r *Registry) Acquire(pair domain.LanguagePair) (*ModelHandle, func(), error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, nil, domain.ErrLifecycle("model registry is closed")
	}
	handle, ok := r.handles[pair]
	if !ok {
		return nil, nil, domain.ErrUnsupportedPair(pair)
	}
	// A handle still in the map has not started closing, so this never
	// waits on a writer.
	handle.life.RLock()
	return handle, handle.life.RUnlock, nil
}

// Lookup returns the model currently serving pair.
func (r *Registry) Lookup(pair domain.LanguagePair) (domain.ModelInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handle, ok := r.handles[pair]
	if !ok {
		return domain.ModelInfo{}, false
	}
	return handle.Info(), true
}

// IsSupported reports whether a model is loaded for from→to. Codes are
// canonicalised first; codes that do not normalise are never supported.
func (r *Registry) IsSupported(from, to string) bool {
	pair, err := domain.NewLanguagePair(from, to)
	if err != nil {
		return false
	}
	_, ok := r.Lookup(pair)
	return ok
}

// Unload removes pair and closes its model after in-flight work drains.
func (r *Registry) Unload(pair domain.LanguagePair) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return domain.ErrLifecycle("model registry is closed")
	}
	handle, ok := r.handles[pair]
	if !ok {
		r.mu.Unlock()
		return domain.ErrUnsupportedPair(pair)
	}
	delete(r.handles, pair)
	r.mu.Unlock()

	handle.close()
	logging.With(r.logger).
		Str("component", "registry").
		Str("pair", pair.String()).
		Str("model_id", handle.ID).
		Info("model unloaded")
	return nil
}

// Pairs lists the loaded pairs in a stable order.
func (r *Registry) Pairs() []domain.LanguagePair {
	r.mu.RLock()
	pairs := make([]domain.LanguagePair, 0, len(r.handles))
	for pair := range r.handles {
		pairs = append(pairs, pair)
	}
	r.mu.RUnlock()

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].String() < pairs[j].String()
	})
	return pairs
}

// Models describes every loaded model, ordered by pair.
func (r *Registry) Models() []domain.ModelInfo {
	r.mu.RLock()
	infos := make([]domain.ModelInfo, 0, len(r.handles))
	for _, handle := range r.handles {
		infos = append(infos, handle.Info())
	}
	r.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Pair.String() < infos[j].Pair.String()
	})
	return infos
}

// Len is the number of loaded models.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}

// Loading is the number of loads currently running.
func (r *Registry) Loading() int {
	return int(r.loading.Load())
}

// Close unloads every model. Later calls return a LifecycleError.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return domain.ErrLifecycle("model registry already closed")
	}
	r.closed = true
	handles := r.handles
	r.handles = make(map[domain.LanguagePair]*ModelHandle)
	r.mu.Unlock()

	for _, handle := range handles {
		handle.close()
	}
	logging.With(r.logger).
		Str("component", "registry").
		Int("models", len(handles)).
		Info("model registry closed")
	return nil
}

func (r *Registry) isClosed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}

// ============================================================================
// ModelHandle
// ============================================================================

// ModelHandle is one loaded model bound to one language pair. It is owned
// by the Registry; callers borrow it through Acquire.
type ModelHandle struct {
	ID          string
	Pair        domain.LanguagePair
	Fingerprint string
	LoadedAt    time.Time

	paths  []string
	engine domain.InferenceEngine
	model  domain.Model

	// exec serialises inference when the engine is not concurrent safe
	exec      sync.Mutex
	serialize bool

	// life is read-held for every use and write-held to close
	life   sync.RWMutex
	closed bool
}

func newHandle(engine domain.InferenceEngine, pair domain.LanguagePair, fingerprint string, paths []string, model domain.Model) *ModelHandle {
	return &ModelHandle{
		ID:          uuid.NewString(),
		Pair:        pair,
		Fingerprint: fingerprint,
		LoadedAt:    time.Now(),
		paths:       paths,
		engine:      engine,
		model:       model,
		serialize:   !engine.ConcurrentSafe(),
	}
}

// Translate runs one inference on the handle's model. The caller must hold
// the handle through Acquire.
func (h *ModelHandle) Translate(ctx context.Context, input string) (string, error) {
	if h.serialize {
		h.exec.Lock()
		defer h.exec.Unlock()
	}
	if h.closed {
		return "", domain.ErrLifecycle("model handle is closed").WithParam(h.Pair.String())
	}
	return h.engine.Translate(ctx, h.model, input)
}

// Info describes the handle.
func (h *ModelHandle) Info() domain.ModelInfo {
	return domain.ModelInfo{
		ID:          h.ID,
		Pair:        h.Pair,
		Fingerprint: h.Fingerprint,
		LoadedAt:    h.LoadedAt,
		ModelPaths:  append([]string(nil), h.paths...),
	}
}

// close waits for every Acquire holder to release, then frees the model.
func (h *ModelHandle) close() {
	h.life.Lock()
	defer h.life.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	h.model.Close()
}
