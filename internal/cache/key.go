package cache

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/linguaspark/linguaspark-go/internal/domain"
)

// Key derives the cache key of one translation. The model fingerprint is
// part of the key, so reloading a pair with a different config never
// serves translations from the old model.
func Key(fingerprint string, pair domain.LanguagePair, input string) string {
	h := sha256.New()
	for _, part := range []string{fingerprint, pair.From, pair.To, input} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
