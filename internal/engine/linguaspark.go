//go:build linguaspark

package engine

/*
// CGO Build Configuration
// -----------------------
// For CI/production, set environment variables instead:
//   export CGO_CFLAGS="-I${PWD}/linguaspark/include"
//   export CGO_LDFLAGS="-L${PWD}/build -llinguaspark -lstdc++"
#cgo CFLAGS: -I${SRCDIR}/../../linguaspark/include
#cgo LDFLAGS: -L${SRCDIR}/../../build -llinguaspark -lstdc++
#include <stdbool.h>
#include <stdlib.h>
#include "linguaspark.h"
*/
import "C"

import (
	"context"
	"fmt"
	"sync"
	"unsafe"

	"github.com/linguaspark/linguaspark-go/internal/domain"
)

// Available reports whether this build links liblinguaspark.
const Available = true

// Native is the InferenceEngine backed by liblinguaspark. Every model gets
// its own native translator so models can be replaced and closed one at a
// time.
type Native struct {
	opts Options
}

// New returns the liblinguaspark engine.
func New(opts Options) (domain.InferenceEngine, error) {
	return &Native{opts: opts.withDefaults()}, nil
}

// nativeModel wraps one bergamot translator. Callers serialise Translate
// (ConcurrentSafe is false); mu only keeps Close from freeing the handle
// under a running call.
type nativeModel struct {
	mu     sync.RWMutex
	handle *C.TranslatorWrapper
	from   *C.char
	to     *C.char
}

// LoadModel creates a translator and loads config into it. The C call has
// no status, so success is confirmed with bergamot_is_supported.
func (e *Native) LoadModel(pair domain.LanguagePair, config string) (domain.Model, error) {
	handle := C.bergamot_create(C.size_t(e.opts.ThreadsPerModel))
	if handle == nil {
		return nil, domain.ErrEngine("failed to create linguaspark translator")
	}

	cPair := C.CString(bergamotPairKey(pair.From, pair.To))
	defer C.free(unsafe.Pointer(cPair))
	cConfig := C.CString(config)
	defer C.free(unsafe.Pointer(cConfig))

	C.bergamot_load_model_from_config(handle, cPair, cConfig)

	m := &nativeModel{
		handle: handle,
		from:   C.CString(pair.From),
		to:     C.CString(pair.To),
	}
	if !bool(C.bergamot_is_supported(handle, m.from, m.to)) {
		m.Close()
		return nil, domain.ErrConfig(fmt.Sprintf("linguaspark did not accept the model for %s", pair)).WithParam(pair.String())
	}
	return m, nil
}

// Translate runs one inference. The returned C string is copied into Go
// memory and freed before returning.
func (e *Native) Translate(ctx context.Context, model domain.Model, input string) (string, error) {
	m, ok := model.(*nativeModel)
	if !ok {
		return "", domain.ErrEngine(fmt.Sprintf("model %T was not loaded by this engine", model))
	}

	cInput := C.CString(input)
	defer C.free(unsafe.Pointer(cInput))

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.handle == nil {
		return "", domain.ErrEngine("model is closed")
	}

	out := C.bergamot_translate(m.handle, m.from, m.to, cInput)
	if out == nil {
		return "", domain.ErrEngine("linguaspark returned no translation")
	}
	text := C.GoString(out)
	C.bergamot_free_translation(out)
	return text, nil
}

// ConcurrentSafe is false: bergamot translators are not documented as
// reentrant.
func (e *Native) ConcurrentSafe() bool {
	return false
}

// Close frees the translator.
func (m *nativeModel) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handle != nil {
		C.bergamot_destroy(m.handle)
		m.handle = nil
	}
	if m.from != nil {
		C.free(unsafe.Pointer(m.from))
		m.from = nil
	}
	if m.to != nil {
		C.free(unsafe.Pointer(m.to))
		m.to = nil
	}
}
