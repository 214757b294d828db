package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/linguaspark/linguaspark-go/internal/cache"
	"github.com/linguaspark/linguaspark-go/internal/domain"
	"github.com/linguaspark/linguaspark-go/internal/logging"
	"github.com/linguaspark/linguaspark-go/internal/modelconfig"
	"github.com/linguaspark/linguaspark-go/internal/registry"
	"github.com/linguaspark/linguaspark-go/internal/tracing"
)

// Options configures a TranslationService.
type Options struct {
	// Engine runs inference. Required.
	Engine domain.InferenceEngine
	// QueueSize bounds waiting translate calls (0 = unbounded).
	QueueSize int
	// MaxInputLength in bytes (0 = DefaultMaxInputLength).
	MaxInputLength int
	// Cache is optional. The service closes it on Destroy.
	Cache    domain.ResultCache
	CacheTTL time.Duration
	Logger   *slog.Logger
}

// TranslationService owns a worker pool and a model registry and hands out
// translated Results that callers must Release.
type TranslationService struct {
	registry  *registry.Registry
	pool      *WorkerPool
	validator *InputValidator
	results   *resultTracker
	cache     domain.ResultCache
	cacheTTL  time.Duration
	logger    *slog.Logger

	// mu guards destroyed; inflight counts calls admitted before Destroy
	mu        sync.RWMutex
	destroyed bool
	inflight  sync.WaitGroup

	translations atomic.Int64
	cacheHits    atomic.Int64
}

// New creates a service with numWorkers workers and an empty registry.
// numWorkers == 0 is accepted, but every Translate then fails.
func New(numWorkers int, opts Options) (*TranslationService, error) {
	if opts.Engine == nil {
		return nil, domain.ErrConfig("no inference engine configured").WithParam("engine")
	}
	if numWorkers < 0 {
		return nil, domain.ErrUsage("worker count cannot be negative").WithParam("num_workers")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &TranslationService{
		registry:  registry.New(opts.Engine, logger),
		pool:      NewWorkerPool(numWorkers, opts.QueueSize, logger),
		validator: NewInputValidator(opts.MaxInputLength),
		results:   newResultTracker(),
		cache:     opts.Cache,
		cacheTTL:  opts.CacheTTL,
		logger:    logger,
	}
	return s, nil
}

// enter admits one call; the caller must defer s.inflight.Done().
func (s *TranslationService) enter() error {
	if s == nil {
		return errNilService()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.destroyed {
		return domain.ErrLifecycle("translation service is destroyed")
	}
	s.inflight.Add(1)
	return nil
}

func errNilService() *domain.AppError {
	return domain.ErrUsage("translation service handle is nil").WithParam("handle")
}

// LoadModelFromConfig loads config for pair, replacing any model already
// serving it. On failure the previous model stays in place.
func (s *TranslationService) LoadModelFromConfig(ctx context.Context, pair domain.LanguagePair, config string) (domain.ModelInfo, error) {
	if err := s.enter(); err != nil {
		return domain.ModelInfo{}, err
	}
	defer s.inflight.Done()

	pair, err := domain.NewLanguagePair(pair.From, pair.To)
	if err != nil {
		return domain.ModelInfo{}, err
	}
	return s.registry.Load(ctx, pair, config)
}

// ModelFromDir renders a config for the bergamot model files in dir and
// loads it.
func (s *TranslationService) ModelFromDir(ctx context.Context, pair domain.LanguagePair, dir string, opts modelconfig.RenderOptions) (domain.ModelInfo, error) {
	files, err := modelconfig.FromDir(dir)
	if err != nil {
		return domain.ModelInfo{}, err
	}
	return s.LoadModelFromConfig(ctx, pair, files.Render(opts))
}

// Unload removes the model for pair.
func (s *TranslationService) Unload(pair domain.LanguagePair) error {
	if err := s.enter(); err != nil {
		return err
	}
	defer s.inflight.Done()
	return s.registry.Unload(pair)
}

// IsSupported reports whether from→to has a loaded model. It is false on
// a destroyed service.
func (s *TranslationService) IsSupported(from, to string) bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.destroyed {
		return false
	}
	return s.registry.IsSupported(from, to)
}

// Models lists the loaded models. It fails with a LifecycleError after Destroy.
func (s *TranslationService) Models() ([]domain.ModelInfo, error) {
	if s == nil {
		return nil, errNilService()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.destroyed {
		return nil, domain.ErrLifecycle("translation service is destroyed")
	}
	return s.registry.Models(), nil
}

// Translate translates input from→to on a worker and returns a Result the
// caller must Release. ctx bounds only the wait for a free worker.
func (s *TranslationService) Translate(ctx context.Context, from, to, input string) (result *Result, err error) {
	if err := s.enter(); err != nil {
		return nil, err
	}
	defer s.inflight.Done()

	pair, err := domain.NewLanguagePair(from, to)
	if err != nil {
		return nil, err
	}

	ctx, span := tracing.StartPair(ctx, "TranslationService.Translate", pair,
		attribute.Int("linguaspark.input_bytes", len(input)))
	defer func() { tracing.End(span, err) }()

	info, ok := s.registry.Lookup(pair)
	if !ok {
		return nil, domain.ErrUnsupportedPair(pair)
	}
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}
	if s.pool.Workers() == 0 {
		return nil, domain.ErrUsage("translation service was created with zero workers").WithParam("num_workers")
	}

	if s.cache != nil {
		if text, hit := s.cache.Get(ctx, cache.Key(info.Fingerprint, pair, input)); hit {
			s.cacheHits.Add(1)
			s.translations.Add(1)
			span.SetAttributes(attribute.Bool("linguaspark.cache_hit", true))
			return s.results.allocate(pair, text, true), nil
		}
	}

	req := domain.TranslationRequest{Pair: pair, Input: input, EnqueuedAt: time.Now()}
	// The model is resolved when a worker picks the job up, so a reload
	// between lookup and execution uses the new model.
	var fingerprint string
	text, err := s.pool.Submit(ctx, pair, func() (string, error) {
		handle, release, err := s.registry.Acquire(req.Pair)
		if err != nil {
			return "", err
		}
		defer release()
		fingerprint = handle.Fingerprint
		return handle.Translate(context.WithoutCancel(ctx), req.Input)
	})
	if err != nil {
		if domain.CodeOf(err) == "" {
			err = domain.ErrEngine("translation failed").WithParam(pair.String()).WithCause(err)
		}
		logging.With(s.logger).
			Str("component", "translation_service").
			Str("pair", pair.String()).
			Str("trace_id", tracing.TraceID(ctx)).
			Str("code", string(domain.CodeOf(err))).
			Err(err).
			Debug("translation failed")
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, cache.Key(fingerprint, pair, input), text, s.cacheTTL)
	}
	s.translations.Add(1)

	logging.With(s.logger).
		Str("component", "translation_service").
		Str("pair", pair.String()).
		Dur("elapsed", time.Since(req.EnqueuedAt)).
		Debug("translation finished")
	return s.results.allocate(pair, text, false), nil
}

// Release hands a Result back. Releasing twice, releasing a Result from
// another service or releasing after Destroy is a LifecycleError.
func (s *TranslationService) Release(r *Result) error {
	if s == nil {
		return errNilService()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.destroyed {
		return domain.ErrLifecycle("translation service is destroyed")
	}
	return s.results.release(r)
}

// Outstanding is the number of Results not yet released.
func (s *TranslationService) Outstanding() int {
	if s == nil {
		return 0
	}
	return s.results.len()
}

// Stats aggregates pool, registry and result counters. The counters of a
// destroyed service stay readable and Destroyed reports it.
func (s *TranslationService) Stats() domain.ServiceStats {
	if s == nil {
		return domain.ServiceStats{}
	}
	s.mu.RLock()
	destroyed := s.destroyed
	s.mu.RUnlock()

	return domain.ServiceStats{
		Destroyed:          destroyed,
		Pool:               s.pool.Stats(),
		ModelsLoaded:       s.registry.Len(),
		ModelsLoading:      s.registry.Loading(),
		OutstandingResults: s.results.len(),
		Translations:       s.translations.Load(),
		CacheHits:          s.cacheHits.Load(),
	}
}

// Destroy waits for in-flight calls, stops the workers and unloads every
// model. Every later call fails with a LifecycleError.
func (s *TranslationService) Destroy() error {
	if s == nil {
		return errNilService()
	}
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return domain.ErrLifecycle("translation service already destroyed")
	}
	s.destroyed = true
	s.mu.Unlock()

	s.inflight.Wait()
	s.pool.Stop()
	if err := s.registry.Close(); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			logging.With(s.logger).Str("component", "translation_service").Err(err).Warn("cache close failed")
		}
	}

	fields := logging.With(s.logger).Str("component", "translation_service")
	if leaked := s.results.drain(); leaked > 0 {
		fields.Int("leaked_results", leaked).Warn("translation service destroyed with unreleased results")
	} else {
		fields.Info("translation service destroyed")
	}
	return nil
}
