package main

import (
	"strings"
	"testing"
)

// TestMatchesExpected verifies the expected-hash comparison is case-insensitive
// and rejects malformed input
func TestMatchesExpected(t *testing.T) {
	claim := strings.Repeat("a3f2", 16)

	testCases := []struct {
		name   string
		expect string
		want   bool
	}{
		{
			name:   "exact lowercase match",
			expect: claim,
			want:   true,
		},
		{
			name:   "uppercase input matches a lowercase claim",
			expect: strings.ToUpper(claim),
			want:   true,
		},
		{
			name:   "different fingerprint",
			expect: strings.Repeat("0", 64),
			want:   false,
		},
		{
			name:   "not hex",
			expect: strings.Repeat("z", 64),
			want:   false,
		},
		{
			name:   "wrong length",
			expect: "a3f2",
			want:   false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, reason := matchesExpected(claim, tc.expect)
			if got != tc.want {
				t.Errorf("got %v, want %v (reason: %s)", got, tc.want, reason)
			}
			if !tc.want && reason == "" {
				t.Error("mismatch carried no reason")
			}
		})
	}
}
