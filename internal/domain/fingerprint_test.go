package domain

import (
	"strings"
	"testing"
)

// TestFingerprintBinaryRoundTrip verifies binary string encode/decode is lossless
func TestFingerprintBinaryRoundTrip(t *testing.T) {
	bits := make([]uint8, FingerprintBits)
	for i := range bits {
		if i%3 == 0 || i%7 == 0 {
			bits[i] = 1
		}
	}
	fp, err := NewFingerprint(bits)
	if err != nil {
		t.Fatalf("NewFingerprint failed: %v", err)
	}

	s := fp.BinaryString()
	if len(s) != FingerprintBits {
		t.Fatalf("binary string length: got %d, want %d", len(s), FingerprintBits)
	}

	back, err := FingerprintFromBinary(s)
	if err != nil {
		t.Fatalf("FingerprintFromBinary failed: %v", err)
	}
	if back.BinaryString() != s {
		t.Error("binary round trip changed the fingerprint")
	}
}

// TestFingerprintHexRoundTrip verifies hex encode/decode is lossless and canonical
func TestFingerprintHexRoundTrip(t *testing.T) {
	bits := make([]uint8, FingerprintBits)
	for i := range bits {
		if i%2 == 0 {
			bits[i] = 1
		}
	}
	fp, _ := NewFingerprint(bits)

	h := fp.Hex()
	if len(h) != FingerprintBits/4 {
		t.Fatalf("hex length: got %d, want %d", len(h), FingerprintBits/4)
	}
	if h != strings.ToLower(h) {
		t.Error("hex encoding is not lowercase")
	}
	// 1010 repeated packs to nibble 0xa
	if h != strings.Repeat("a", 64) {
		t.Errorf("alternating bits should pack to all 'a' nibbles, got %s", h)
	}

	back, err := FingerprintFromHex(strings.ToUpper(h))
	if err != nil {
		t.Fatalf("FingerprintFromHex failed on uppercase input: %v", err)
	}
	if back.Hex() != h {
		t.Error("hex round trip changed the fingerprint")
	}
}

// TestFingerprintInvalidInputs verifies malformed encodings are rejected
func TestFingerprintInvalidInputs(t *testing.T) {
	testCases := []struct {
		name string
		call func() error
	}{
		{
			name: "wrong bit slice length",
			call: func() error { _, err := NewFingerprint(make([]uint8, 128)); return err },
		},
		{
			name: "bit value out of range",
			call: func() error {
				bits := make([]uint8, FingerprintBits)
				bits[10] = 2
				_, err := NewFingerprint(bits)
				return err
			},
		},
		{
			name: "short binary string",
			call: func() error { _, err := FingerprintFromBinary(strings.Repeat("01", 64)); return err },
		},
		{
			name: "binary string with bad rune",
			call: func() error {
				s := strings.Repeat("0", FingerprintBits-1) + "x"
				_, err := FingerprintFromBinary(s)
				return err
			},
		},
		{
			name: "short hex string",
			call: func() error { _, err := FingerprintFromHex("abcd"); return err },
		},
		{
			name: "hex string with bad rune",
			call: func() error {
				s := strings.Repeat("a", 63) + "g"
				_, err := FingerprintFromHex(s)
				return err
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.call(); err == nil {
				t.Error("expected an error, got nil")
			}
		})
	}
}

// TestHammingDistance verifies distance bounds and symmetry
func TestHammingDistance(t *testing.T) {
	zeros, _ := NewFingerprint(make([]uint8, FingerprintBits))

	ones := make([]uint8, FingerprintBits)
	for i := range ones {
		ones[i] = 1
	}
	allOnes, _ := NewFingerprint(ones)

	d, err := zeros.Hamming(zeros)
	if err != nil {
		t.Fatalf("Hamming failed: %v", err)
	}
	if d != 0 {
		t.Errorf("self distance: got %d, want 0", d)
	}

	d, _ = zeros.Hamming(allOnes)
	if d != FingerprintBits {
		t.Errorf("opposite distance: got %d, want %d", d, FingerprintBits)
	}

	dAB, _ := zeros.Hamming(allOnes)
	dBA, _ := allOnes.Hamming(zeros)
	if dAB != dBA {
		t.Errorf("distance is not symmetric: %d vs %d", dAB, dBA)
	}

	if _, err := zeros.Hamming(Fingerprint(make([]uint8, 64))); err == nil {
		t.Error("expected an error for mismatched widths")
	}
}

// TestHammingStrings verifies the string-level distance used by the store scan
func TestHammingStrings(t *testing.T) {
	a := strings.Repeat("0", FingerprintBits)
	b := strings.Repeat("0", FingerprintBits-3) + "111"

	d, err := HammingStrings(a, b)
	if err != nil {
		t.Fatalf("HammingStrings failed: %v", err)
	}
	if d != 3 {
		t.Errorf("distance: got %d, want 3", d)
	}

	if _, err := HammingStrings(a, "0101"); err == nil {
		t.Error("expected an error for mismatched lengths")
	}
}

// TestOnesCount verifies population count
func TestOnesCount(t *testing.T) {
	bits := make([]uint8, FingerprintBits)
	for i := 0; i < 40; i++ {
		bits[i*5] = 1
	}
	fp, _ := NewFingerprint(bits)
	if got := fp.OnesCount(); got != 40 {
		t.Errorf("OnesCount: got %d, want 40", got)
	}
}
