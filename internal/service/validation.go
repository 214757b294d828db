package service

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/linguaspark/linguaspark-go/internal/domain"
)

// DefaultMaxInputLength is the input limit in bytes when none is configured.
const DefaultMaxInputLength = 64 * 1024

// InputValidator checks translate input before it is queued.
// Thread-safe: the limit can be changed at runtime.
type InputValidator struct {
	mu             sync.RWMutex
	maxInputLength int
}

// NewInputValidator creates a validator; maxInputLength <= 0 takes the default.
func NewInputValidator(maxInputLength int) *InputValidator {
	v := &InputValidator{}
	v.SetMaxInputLength(maxInputLength)
	return v
}

// SetMaxInputLength updates the limit.
func (v *InputValidator) SetMaxInputLength(n int) {
	if n <= 0 {
		n = DefaultMaxInputLength
	}
	v.mu.Lock()
	v.maxInputLength = n
	v.mu.Unlock()
}

// MaxInputLength returns the current limit (thread-safe read).
func (v *InputValidator) MaxInputLength() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.maxInputLength
}

// Validate rejects blank, oversized or non-UTF-8 input and input with NUL
// bytes, which cannot cross into the native engine.
func (v *InputValidator) Validate(input string) error {
	maxLen := v.MaxInputLength()

	if strings.TrimSpace(input) == "" {
		return domain.ErrUsage("input text cannot be empty").WithParam("input")
	}
	if len(input) > maxLen {
		return domain.ErrUsage(
			fmt.Sprintf("input text exceeds %d bytes", maxLen),
		).WithParam("input")
	}
	if !utf8.ValidString(input) {
		return domain.ErrUsage("input text is not valid UTF-8").WithParam("input")
	}
	if strings.IndexByte(input, 0) >= 0 {
		return domain.ErrUsage("input text contains a NUL byte").WithParam("input")
	}
	return nil
}
