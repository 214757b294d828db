package cmd

import (
	"context"
	"fmt"
	"log/slog"

	linguaspark "github.com/linguaspark/linguaspark-go"
	"github.com/linguaspark/linguaspark-go/internal/cache"
	"github.com/linguaspark/linguaspark-go/internal/config"
	"github.com/linguaspark/linguaspark-go/internal/domain"
	"github.com/linguaspark/linguaspark-go/internal/engine"
	"github.com/linguaspark/linguaspark-go/internal/logging"
	"github.com/linguaspark/linguaspark-go/internal/modelconfig"
)

// newResultCache returns nil when caching is off. A Redis tier that cannot
// be reached degrades to the in-process LRU.
func newResultCache(cfg *config.Config, logger *slog.Logger) (domain.ResultCache, error) {
	if !cfg.CacheEnabled {
		return nil, nil
	}
	if cfg.UsesRedis() {
		rc, err := cache.NewRedis(cache.RedisConfig{
			RedisURL:  cfg.RedisURL,
			KeyPrefix: cfg.RedisPrefix,
			TTL:       cfg.CacheTTL,
			LocalSize: cfg.CacheSize,
		})
		if err == nil {
			return rc, nil
		}
		logging.With(logger).Err(err).Warn("redis cache unavailable, using local cache")
	}
	return cache.NewLRU(cfg.CacheSize, cfg.CacheTTL)
}

// newTranslator builds a Translator sized from cfg.
func newTranslator(cfg *config.Config, logger *slog.Logger) (*linguaspark.Translator, error) {
	rc, err := newResultCache(cfg, logger)
	if err != nil {
		return nil, err
	}

	opts := []linguaspark.Option{
		linguaspark.WithLogger(logger),
		linguaspark.WithQueueSize(cfg.QueueSize),
		linguaspark.WithMaxInputLength(cfg.MaxInputLength),
	}
	if rc != nil {
		opts = append(opts, linguaspark.WithCache(rc, cfg.CacheTTL))
	}

	workers := engine.WorkerCount(cfg.Workers)
	tr, err := linguaspark.New(workers, opts...)
	if err != nil {
		if rc != nil {
			rc.Close()
		}
		return nil, err
	}
	logging.With(logger).Int("workers", workers).Str("models_dir", cfg.ModelsDir).Debug("translator ready")
	return tr, nil
}

// loadPairs loads the requested pairs from modelsDir, or every discovered
// pair when none are given.
func loadPairs(ctx context.Context, tr *linguaspark.Translator, modelsDir string, want ...domain.LanguagePair) error {
	found, err := modelconfig.Discover(modelsDir)
	if err != nil {
		return err
	}
	if len(want) == 0 {
		want = modelconfig.SortedPairs(found)
	}
	if len(want) == 0 {
		return fmt.Errorf("no models found in %s", modelsDir)
	}

	for _, pair := range want {
		files, ok := found[pair]
		if !ok {
			return domain.ErrUnsupportedPair(pair).
				WithCause(fmt.Errorf("no model directory %s%s under %s", pair.From, pair.To, modelsDir))
		}
		if err := tr.LoadModelFromConfig(ctx, pair.String(), files.Render(modelconfig.RenderOptions{})); err != nil {
			return err
		}
	}
	return nil
}
