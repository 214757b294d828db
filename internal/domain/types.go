package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/linguaspark/linguaspark-go/internal/language"
)

// LanguagePair is one translation direction. Both codes are canonical
// (see language.NormalizeTag); construct it with NewLanguagePair or
// ParseLanguagePair so equality is plain struct equality.
type LanguagePair struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// NewLanguagePair canonicalises both codes and rejects blank or malformed ones.
func NewLanguagePair(from, to string) (LanguagePair, error) {
	f := language.NormalizeTag(from)
	if f == "" {
		return LanguagePair{}, ErrUsage("source language code is empty or invalid").WithParam("from")
	}
	t := language.NormalizeTag(to)
	if t == "" {
		return LanguagePair{}, ErrUsage("target language code is empty or invalid").WithParam("to")
	}
	return LanguagePair{From: f, To: t}, nil
}

// "-" is not a separator: it is legal inside a tag (zh-hant).
var pairSeparators = []string{"->", ":", "/"}

// ParseLanguagePair accepts "en:fr", "en/fr", "en->fr" or the bergamot
// model-directory form "enfr".
func ParseLanguagePair(raw string) (LanguagePair, error) {
	s := strings.TrimSpace(raw)
	for _, sep := range pairSeparators {
		if from, to, ok := strings.Cut(s, sep); ok {
			return NewLanguagePair(from, to)
		}
	}
	if len(s) == 4 && isASCIIAlpha(s) {
		return NewLanguagePair(s[:2], s[2:])
	}
	return LanguagePair{}, ErrUsage("cannot parse language pair " + strconv.Quote(raw)).WithParam("language_pair")
}

// String renders the pair as "from->to".
func (p LanguagePair) String() string {
	return p.From + "->" + p.To
}

// Reverse returns the opposite direction. Models are never assumed symmetric;
// this is only a convenience for callers that load both directions.
func (p LanguagePair) Reverse() LanguagePair {
	return LanguagePair{From: p.To, To: p.From}
}

// IsZero reports whether the pair was never set.
func (p LanguagePair) IsZero() bool {
	return p.From == "" && p.To == ""
}

// TranslationRequest is the transient value built for one translate call.
type TranslationRequest struct {
	Pair       LanguagePair
	Input      string
	EnqueuedAt time.Time
}

// ModelInfo describes a loaded model for listings.
type ModelInfo struct {
	ID          string       `json:"id"`
	Pair        LanguagePair `json:"pair"`
	Fingerprint string       `json:"fingerprint"`
	LoadedAt    time.Time    `json:"loaded_at"`
	ModelPaths  []string     `json:"model_paths,omitempty"`
}

// PoolStats holds worker pool statistics
type PoolStats struct {
	Workers         int   `json:"workers"`
	Busy            int   `json:"busy"`
	Queued          int   `json:"queued"`
	Rejected        int64 `json:"rejected"`  // queue full
	Abandoned       int64 `json:"abandoned"` // caller gave up while queued
	Completed       int64 `json:"completed"`
	Failed          int64 `json:"failed"`
	PanicsRecovered int64 `json:"panics_recovered"`
}

// ServiceStats aggregates the translation service state.
type ServiceStats struct {
	Pool               PoolStats `json:"pool"`
	ModelsLoaded       int       `json:"models_loaded"`
	ModelsLoading      int       `json:"models_loading"`
	OutstandingResults int       `json:"outstanding_results"`
	Translations       int64     `json:"translations"`
	CacheHits          int64     `json:"cache_hits"`
	Destroyed          bool      `json:"destroyed"`
}

func isASCIIAlpha(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
