package domain

import (
	"errors"
	"fmt"
	"strings"
)

// FingerprintBits is the fixed width of a perceptual fingerprint.
const FingerprintBits = 256

// ErrBadFingerprint is returned when a textual fingerprint form fails validation.
var ErrBadFingerprint = errors.New("malformed fingerprint")

// Fingerprint is a 256-bit perceptual hash of a video. Each element is 0 or 1.
// Immutable after creation; all methods are read-only.
type Fingerprint []uint8

// NewFingerprint builds a Fingerprint from raw bits.
// Parameters:
//   - bits: slice of 0/1 values, exactly FingerprintBits long.
// Returns:
//   - Fingerprint: validated fingerprint (copies the input).
//   - error: non-nil if the length or bit values are invalid.
func NewFingerprint(bits []uint8) (Fingerprint, error) {
	if len(bits) != FingerprintBits {
		return nil, fmt.Errorf("%w: expected %d bits, got %d", ErrBadFingerprint, FingerprintBits, len(bits))
	}
	fp := make(Fingerprint, FingerprintBits)
	for i, b := range bits {
		if b > 1 {
			return nil, fmt.Errorf("%w: bit %d has value %d", ErrBadFingerprint, i, b)
		}
		fp[i] = b
	}
	return fp, nil
}

// FingerprintFromBinary parses the canonical 256-character '0'/'1' string form.
// Parameters:
//   - s: binary string representation.
// Returns:
//   - Fingerprint: parsed fingerprint.
//   - error: non-nil if the string is not exactly 256 binary digits.
func FingerprintFromBinary(s string) (Fingerprint, error) {
	if len(s) != FingerprintBits {
		return nil, fmt.Errorf("%w: expected %d characters, got %d", ErrBadFingerprint, FingerprintBits, len(s))
	}
	fp := make(Fingerprint, FingerprintBits)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '0':
			fp[i] = 0
		case '1':
			fp[i] = 1
		default:
			return nil, fmt.Errorf("%w: invalid character %q at position %d", ErrBadFingerprint, s[i], i)
		}
	}
	return fp, nil
}

// FingerprintFromHex parses the 64-character lowercase hex form. Uppercase input
// is accepted and canonicalized.
// Parameters:
//   - s: hex string representation.
// Returns:
//   - Fingerprint: parsed fingerprint.
//   - error: non-nil if the string is not exactly 64 hex digits.
func FingerprintFromHex(s string) (Fingerprint, error) {
	s = strings.ToLower(s)
	if len(s) != FingerprintBits/4 {
		return nil, fmt.Errorf("%w: expected %d hex characters, got %d", ErrBadFingerprint, FingerprintBits/4, len(s))
	}
	fp := make(Fingerprint, 0, FingerprintBits)
	for i := 0; i < len(s); i++ {
		v := hexNibble(s[i])
		if v < 0 {
			return nil, fmt.Errorf("%w: invalid hex character %q at position %d", ErrBadFingerprint, s[i], i)
		}
		fp = append(fp, uint8(v>>3&1), uint8(v>>2&1), uint8(v>>1&1), uint8(v&1))
	}
	return fp, nil
}

// BinaryString returns the canonical 256-character '0'/'1' form.
func (f Fingerprint) BinaryString() string {
	var b strings.Builder
	b.Grow(len(f))
	for _, bit := range f {
		if bit == 0 {
			b.WriteByte('0')
		} else {
			b.WriteByte('1')
		}
	}
	return b.String()
}

// Hex returns the 64-character lowercase hex form, a big-endian interpretation
// of the binary string.
func (f Fingerprint) Hex() string {
	const digits = "0123456789abcdef"
	var b strings.Builder
	b.Grow(len(f) / 4)
	for i := 0; i+3 < len(f); i += 4 {
		n := f[i]<<3 | f[i+1]<<2 | f[i+2]<<1 | f[i+3]
		b.WriteByte(digits[n])
	}
	return b.String()
}

// Hamming returns the number of differing bits between two fingerprints.
// Parameters:
//   - other: fingerprint to compare against.
// Returns:
//   - int: Hamming distance in [0, FingerprintBits].
//   - error: non-nil if the widths differ.
func (f Fingerprint) Hamming(other Fingerprint) (int, error) {
	if len(f) != len(other) {
		return 0, fmt.Errorf("%w: width mismatch %d vs %d", ErrBadFingerprint, len(f), len(other))
	}
	d := 0
	for i := range f {
		if f[i] != other[i] {
			d++
		}
	}
	return d, nil
}

// OnesCount returns the number of 1-bits. Median thresholding keeps this close
// to half the bit width.
func (f Fingerprint) OnesCount() int {
	n := 0
	for _, bit := range f {
		if bit == 1 {
			n++
		}
	}
	return n
}

// HammingStrings computes the Hamming distance between two equal-length binary
// strings without parsing them. Used by the store's similarity scan.
func HammingStrings(a, b string) (int, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: width mismatch %d vs %d", ErrBadFingerprint, len(a), len(b))
	}
	d := 0
	for i := 0; i < len(a); i++ {
		if a[i] != b[i] {
			d++
		}
	}
	return d, nil
}

func hexNibble(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	default:
		return -1
	}
}
