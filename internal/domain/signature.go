package domain

import (
	"encoding/json"
)

// SignatureDocumentVersion is the current signature file format version.
const SignatureDocumentVersion = "1.0"

// SignatureAlgorithm identifies the signing algorithm used in all Proofs.
const SignatureAlgorithm = "Ed25519"

// Claim is the signed statement binding a fingerprint, caller metadata and a
// signing-time timestamp.
type Claim struct {
	HashHex   string  `json:"hash_hex"`
	Metadata  JSONMap `json:"metadata"`
	Timestamp string  `json:"timestamp"`
}

// CanonicalBytes renders the claim as canonical JSON: key-sorted, no
// whitespace. Signing and verification must hash identical bytes regardless of
// map insertion order, so both go through this encoding.
// Returns:
//   - []byte: canonical encoding.
//   - error: non-nil if the metadata cannot be marshaled.
func (c *Claim) CanonicalBytes() ([]byte, error) {
	meta := c.Metadata
	if meta == nil {
		meta = JSONMap{}
	}
	// encoding/json sorts map keys and emits compact output, which is exactly
	// the canonical form. Nested metadata maps are sorted recursively.
	return json.Marshal(map[string]interface{}{
		"hash_hex":  c.HashHex,
		"metadata":  map[string]interface{}(meta),
		"timestamp": c.Timestamp,
	})
}

// Proof is the cryptographic evidence attached to a Claim: the signature over
// the claim's canonical encoding plus everything needed to check it.
type Proof struct {
	Signature string `json:"signature"`  // base64-encoded Ed25519 signature
	PublicKey string `json:"public_key"` // OpenSSH authorized_keys line
	KeyID     string `json:"key_id"`     // SHA-256 hex of the raw public key
	Algorithm string `json:"algorithm"`
	SignedAt  string `json:"signed_at"`
}

// Anchor is an external, independently timestamped reference (tweet, GitHub
// issue, archive snapshot) corroborating when a SignatureDocument existed.
type Anchor struct {
	Type       string  `json:"type"`
	URL        string  `json:"url"`
	AnchoredAt string  `json:"anchored_at"`
	Metadata   JSONMap `json:"metadata,omitempty"`
}

// SignatureDocument is the portable chain-of-custody file: a claim, its proof,
// and an append-only list of anchors de-duplicated by URL.
type SignatureDocument struct {
	Claim   *Claim   `json:"claim"`
	Proof   *Proof   `json:"proof"`
	Anchors []Anchor `json:"anchors"`
	Version string   `json:"version"`
}

// HasAnchor reports whether an anchor with the given URL is already present.
func (d *SignatureDocument) HasAnchor(url string) bool {
	for _, a := range d.Anchors {
		if a.URL == url {
			return true
		}
	}
	return false
}
