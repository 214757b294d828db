//go:build !linguaspark

package engine

import (
	"github.com/linguaspark/linguaspark-go/internal/domain"
)

// Available reports whether this build links liblinguaspark.
const Available = false

// New fails: this binary was built without the linguaspark tag.
func New(opts Options) (domain.InferenceEngine, error) {
	return nil, domain.ErrConfig("built without liblinguaspark; rebuild with -tags linguaspark or supply an engine")
}
