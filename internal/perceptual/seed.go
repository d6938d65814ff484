package perceptual

import (
	"crypto/sha256"
	"encoding/binary"
	"strconv"
	"strings"
)

// DefaultSeed is the fixed public seed of the reference pipeline. Fingerprints
// produced with it are deterministic and publicly reproducible: this is a
// forensic fingerprint, not a secret. Callers wanting a private hash space
// supply their own seed string.
const DefaultSeed int64 = 42

// ParseSeed turns an arbitrary seed string into the integer that seeds the
// projection matrix generator. Integer-parseable strings are used as-is so
// "42" and 42 agree; anything else is hashed with SHA-256 and truncated to
// 32 bits.
// Parameters:
//   - s: seed string; empty selects DefaultSeed.
// Returns:
//   - int64: deterministic integer seed.
func ParseSeed(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultSeed
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	sum := sha256.Sum256([]byte(s))
	return int64(binary.BigEndian.Uint32(sum[:4]))
}
