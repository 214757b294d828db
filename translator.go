// Package linguaspark is an in-process translation service: a fixed pool of
// workers running bergamot models loaded per language pair.
//
//	t, err := linguaspark.New(2)
//	if err != nil { ... }
//	defer t.Close()
//	if err := t.LoadModel(ctx, "enfr", "/models/enfr"); err != nil { ... }
//	text, err := t.Translate(ctx, "en", "fr", "Hello")
package linguaspark

import (
	"context"
	"log/slog"
	"time"

	"github.com/linguaspark/linguaspark-go/internal/domain"
	"github.com/linguaspark/linguaspark-go/internal/engine"
	"github.com/linguaspark/linguaspark-go/internal/language"
	"github.com/linguaspark/linguaspark-go/internal/modelconfig"
	"github.com/linguaspark/linguaspark-go/internal/service"
)

// Types shared with the internal packages.
type (
	InferenceEngine = domain.InferenceEngine
	Model           = domain.Model
	ResultCache     = domain.ResultCache
	LanguagePair    = domain.LanguagePair
	ModelInfo       = domain.ModelInfo
	Stats           = domain.ServiceStats
	Result          = service.Result
	Error           = domain.AppError
	ErrorCode       = domain.ErrorCode
	RenderOptions   = modelconfig.RenderOptions
)

// Error codes carried by every *Error.
const (
	ErrCodeUsage              = domain.ErrCodeUsage
	ErrCodeConfig             = domain.ErrCodeConfig
	ErrCodeUnsupportedPair    = domain.ErrCodeUnsupportedPair
	ErrCodeEngine             = domain.ErrCodeEngine
	ErrCodeLifecycle          = domain.ErrCodeLifecycle
	ErrCodeServiceUnavailable = domain.ErrCodeServiceUnavailable
)

// IsCode reports whether err carries code.
func IsCode(err error, code ErrorCode) bool {
	return domain.IsCode(err, code)
}

// ParseLanguagePair accepts "en:fr", "en/fr", "en->fr" or "enfr".
func ParseLanguagePair(raw string) (LanguagePair, error) {
	return domain.ParseLanguagePair(raw)
}

// DetectLanguage returns the ISO 639-1 code of text, or "" when unsure.
func DetectLanguage(text string) string {
	return language.Detect(text)
}

type options struct {
	engine         InferenceEngine
	engineOpts     engine.Options
	cache          ResultCache
	cacheTTL       time.Duration
	logger         *slog.Logger
	queueSize      int
	maxInputLength int
}

// Option configures New.
type Option func(*options)

// WithEngine replaces the liblinguaspark engine.
func WithEngine(e InferenceEngine) Option {
	return func(o *options) { o.engine = e }
}

// WithThreadsPerModel sets the native worker count of every loaded model.
func WithThreadsPerModel(n int) Option {
	return func(o *options) { o.engineOpts.ThreadsPerModel = n }
}

// WithCache enables result caching. The Translator closes c on Close.
func WithCache(c ResultCache, ttl time.Duration) Option {
	return func(o *options) {
		o.cache = c
		o.cacheTTL = ttl
	}
}

// WithLogger sets the logger (slog.Default otherwise).
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithQueueSize bounds the number of translate calls waiting for a worker.
func WithQueueSize(n int) Option {
	return func(o *options) { o.queueSize = n }
}

// WithMaxInputLength limits input text, in bytes.
func WithMaxInputLength(n int) Option {
	return func(o *options) { o.maxInputLength = n }
}

// Translator is a handle on one translation service. All methods are safe
// for concurrent use; after Close every call fails with ErrCodeLifecycle.
type Translator struct {
	svc *service.TranslationService
}

// New creates a Translator with numWorkers workers. With zero workers the
// Translator is created but every translation fails with ErrCodeUsage.
func New(numWorkers int, opts ...Option) (*Translator, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.engine == nil {
		eng, err := engine.New(o.engineOpts)
		if err != nil {
			return nil, err
		}
		o.engine = eng
	}

	svc, err := service.New(numWorkers, service.Options{
		Engine:         o.engine,
		QueueSize:      o.queueSize,
		MaxInputLength: o.maxInputLength,
		Cache:          o.cache,
		CacheTTL:       o.cacheTTL,
		Logger:         o.logger,
	})
	if err != nil {
		return nil, err
	}
	return &Translator{svc: svc}, nil
}

// service returns the wrapped service, or a usage error for a nil or
// zero-value Translator.
func (t *Translator) service() (*service.TranslationService, error) {
	if t == nil || t.svc == nil {
		return nil, domain.ErrUsage("translator is nil").WithParam("handle")
	}
	return t.svc, nil
}

// LoadModel loads the bergamot model files found in dir for languagePair
// ("enfr", "en:fr", ...).
func (t *Translator) LoadModel(ctx context.Context, languagePair, dir string) error {
	return t.LoadModelWithOptions(ctx, languagePair, dir, RenderOptions{})
}

// LoadModelWithOptions is LoadModel with explicit decoder settings.
func (t *Translator) LoadModelWithOptions(ctx context.Context, languagePair, dir string, opts RenderOptions) error {
	svc, err := t.service()
	if err != nil {
		return err
	}
	pair, err := domain.ParseLanguagePair(languagePair)
	if err != nil {
		return err
	}
	_, err = svc.ModelFromDir(ctx, pair, dir, opts)
	return err
}

// LoadModelFromConfig loads a model from a YAML config description,
// replacing any model already loaded for the pair.
func (t *Translator) LoadModelFromConfig(ctx context.Context, languagePair, config string) error {
	svc, err := t.service()
	if err != nil {
		return err
	}
	pair, err := domain.ParseLanguagePair(languagePair)
	if err != nil {
		return err
	}
	_, err = svc.LoadModelFromConfig(ctx, pair, config)
	return err
}

// IsSupported reports whether a model is loaded for from→to. It is false
// for a nil Translator.
func (t *Translator) IsSupported(from, to string) bool {
	svc, err := t.service()
	if err != nil {
		return false
	}
	return svc.IsSupported(from, to)
}

// Translate translates text and returns a copy of the output; the
// underlying Result is released before returning.
func (t *Translator) Translate(ctx context.Context, from, to, text string) (string, error) {
	svc, err := t.service()
	if err != nil {
		return "", err
	}
	res, err := svc.Translate(ctx, from, to, text)
	if err != nil {
		return "", err
	}
	out := res.Text()
	if err := svc.Release(res); err != nil {
		return "", err
	}
	return out, nil
}

// TranslateResult returns the service-owned Result. The caller must pass
// it to Release exactly once.
func (t *Translator) TranslateResult(ctx context.Context, from, to, text string) (*Result, error) {
	svc, err := t.service()
	if err != nil {
		return nil, err
	}
	return svc.Translate(ctx, from, to, text)
}

// Release hands a Result from TranslateResult back.
func (t *Translator) Release(r *Result) error {
	svc, err := t.service()
	if err != nil {
		return err
	}
	return svc.Release(r)
}

// Unload removes the model for languagePair.
func (t *Translator) Unload(languagePair string) error {
	svc, err := t.service()
	if err != nil {
		return err
	}
	pair, err := domain.ParseLanguagePair(languagePair)
	if err != nil {
		return err
	}
	return svc.Unload(pair)
}

// Models lists the loaded models.
func (t *Translator) Models() ([]ModelInfo, error) {
	svc, err := t.service()
	if err != nil {
		return nil, err
	}
	return svc.Models()
}

// Stats reports pool, model and result counters. A nil Translator reports
// zeros.
func (t *Translator) Stats() Stats {
	svc, err := t.service()
	if err != nil {
		return Stats{}
	}
	return svc.Stats()
}

// Close waits for running calls, stops the workers and unloads every
// model. A second Close fails with ErrCodeLifecycle.
func (t *Translator) Close() error {
	svc, err := t.service()
	if err != nil {
		return err
	}
	return svc.Destroy()
}
