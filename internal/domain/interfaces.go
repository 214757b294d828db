package domain

import (
	"context"
	"time"
)

// Model is one loaded model owned by an InferenceEngine.
type Model interface {
	Close()
}

// InferenceEngine turns a config description into a Model and runs inference on it.
type InferenceEngine interface {
	LoadModel(pair LanguagePair, config string) (Model, error)
	Translate(ctx context.Context, model Model, input string) (string, error)
	// ConcurrentSafe reports whether one Model may serve several Translate
	// calls at once. When false the caller serialises per model.
	ConcurrentSafe() bool
}

// ResultCache stores finished translations keyed by CacheKey.
type ResultCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
	Close() error
}
