// Package enginetest provides an in-memory InferenceEngine for tests.
package enginetest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/linguaspark/linguaspark-go/internal/domain"
	"github.com/linguaspark/linguaspark-go/internal/modelconfig"
)

// Inputs with special behaviour in Translate.
const (
	FailInput  = "__fail__"
	PanicInput = "__panic__"
)

// Engine is a controllable fake. Translate returns "<to>:<input>".
type Engine struct {
	concurrentSafe bool

	mu        sync.Mutex
	live      int
	loads     int
	closes    int
	loadErrs  map[domain.LanguagePair]error
	peak      map[domain.LanguagePair]int
	gate      chan struct{}
	staleUses int

	inFlight atomic.Int64
	calls    atomic.Int64
}

// New returns a fake engine. concurrentSafe is what ConcurrentSafe reports.
func New(concurrentSafe bool) *Engine {
	return &Engine{
		concurrentSafe: concurrentSafe,
		loadErrs:       make(map[domain.LanguagePair]error),
		peak:           make(map[domain.LanguagePair]int),
	}
}

// Model is a fake loaded model.
type Model struct {
	engine *Engine
	pair   domain.LanguagePair
	config string

	active atomic.Int32
	closed atomic.Bool
}

// Pair returns the pair the model was loaded for.
func (m *Model) Pair() domain.LanguagePair { return m.pair }

// Close releases the model. Closing twice is counted once.
func (m *Model) Close() {
	if m.closed.Swap(true) {
		return
	}
	m.engine.mu.Lock()
	m.engine.live--
	m.engine.closes++
	m.engine.mu.Unlock()
}

// LoadModel creates a Model unless FailLoad was armed for pair.
func (e *Engine) LoadModel(pair domain.LanguagePair, config string) (domain.Model, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err, ok := e.loadErrs[pair]; ok {
		delete(e.loadErrs, pair)
		return nil, err
	}
	e.live++
	e.loads++
	return &Model{engine: e, pair: pair, config: config}, nil
}

// Translate fails on FailInput, panics on PanicInput and otherwise echoes
// the input prefixed with the target language. It blocks while Hold is in
// effect.
func (e *Engine) Translate(ctx context.Context, model domain.Model, input string) (string, error) {
	m, ok := model.(*Model)
	if !ok {
		return "", fmt.Errorf("unexpected model %T", model)
	}

	e.calls.Add(1)
	e.inFlight.Add(1)
	defer e.inFlight.Add(-1)

	active := int(m.active.Add(1))
	defer m.active.Add(-1)
	e.recordPeak(m.pair, active)

	if m.closed.Load() {
		e.mu.Lock()
		e.staleUses++
		e.mu.Unlock()
		return "", domain.ErrEngine("model used after close")
	}

	e.mu.Lock()
	gate := e.gate
	e.mu.Unlock()
	if gate != nil {
		<-gate
	}

	switch input {
	case FailInput:
		return "", domain.ErrEngine("cannot tokenize input")
	case PanicInput:
		panic("enginetest: induced panic")
	}
	return m.pair.To + ":" + input, nil
}

// ConcurrentSafe reports the value given to New.
func (e *Engine) ConcurrentSafe() bool {
	return e.concurrentSafe
}

func (e *Engine) recordPeak(pair domain.LanguagePair, active int) {
	e.mu.Lock()
	if active > e.peak[pair] {
		e.peak[pair] = active
	}
	e.mu.Unlock()
}

// FailLoad makes the next LoadModel for pair return err.
func (e *Engine) FailLoad(pair domain.LanguagePair, err error) {
	e.mu.Lock()
	e.loadErrs[pair] = err
	e.mu.Unlock()
}

// Hold blocks every Translate call that starts (or is waiting) until the
// returned release func is called.
func (e *Engine) Hold() (release func()) {
	gate := make(chan struct{})
	e.mu.Lock()
	e.gate = gate
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			if e.gate == gate {
				e.gate = nil
			}
			e.mu.Unlock()
			close(gate)
		})
	}
}

// Live is the number of models loaded and not yet closed.
func (e *Engine) Live() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.live
}

// Loads is the number of successful LoadModel calls.
func (e *Engine) Loads() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loads
}

// Closes is the number of models closed.
func (e *Engine) Closes() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closes
}

// StaleUses counts Translate calls made against a closed model.
func (e *Engine) StaleUses() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.staleUses
}

// Peak is the highest number of simultaneous Translate calls observed on
// one model of pair.
func (e *Engine) Peak(pair domain.LanguagePair) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.peak[pair]
}

// InFlight is the number of Translate calls currently running.
func (e *Engine) InFlight() int {
	return int(e.inFlight.Load())
}

// Calls is the total number of Translate calls.
func (e *Engine) Calls() int {
	return int(e.calls.Load())
}

// Config writes a minimal model directory under a temp dir and returns
// its rendered config description. Different names yield different
// fingerprints.
func Config(tb testing.TB, name string) string {
	tb.Helper()

	dir := filepath.Join(tb.TempDir(), name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		tb.Fatalf("mkdir %s: %v", dir, err)
	}
	for _, file := range []string{"vocab.spm", "model.intgemm8.bin", "lex.s2t.bin"} {
		path := filepath.Join(dir, file)
		if err := os.WriteFile(path, []byte(name), 0o644); err != nil {
			tb.Fatalf("write %s: %v", path, err)
		}
	}

	files, err := modelconfig.FromDir(dir)
	if err != nil {
		tb.Fatalf("model dir %s: %v", dir, err)
	}
	return files.Render(modelconfig.RenderOptions{})
}

// MissingArtifactConfig is a well-formed description whose files do not exist.
func MissingArtifactConfig(tb testing.TB) string {
	tb.Helper()
	missing := filepath.Join(tb.TempDir(), "missing")
	return strings.Join([]string{
		"models: [" + filepath.Join(missing, "model.intgemm8.bin") + "]",
		"vocabs: [" + filepath.Join(missing, "vocab.spm") + "]",
	}, "\n")
}
