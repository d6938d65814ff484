package service

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sigilproject/sigil/internal/domain"
	"github.com/sigilproject/sigil/internal/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHashHex = "a3f28c5d9e1b6f4aa3f28c5d9e1b6f4aa3f28c5d9e1b6f4aa3f28c5d9e1b6f4a"

func newSignedIdentity(t *testing.T) *identity.Identity {
	t.Helper()
	id, err := identity.New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, id.Generate(false))
	return id
}

// TestSignVerifyRoundTrip verifies a signed document verifies against itself
func TestSignVerifyRoundTrip(t *testing.T) {
	svc := NewSignatureService(newSignedIdentity(t), nil, nil)

	doc, err := svc.Sign(context.Background(), testHashHex, domain.JSONMap{
		"platform": "youtube",
		"video_id": "vid-123",
	})
	require.NoError(t, err)
	require.NotNil(t, doc.Claim)
	require.NotNil(t, doc.Proof)

	assert.Equal(t, testHashHex, doc.Claim.HashHex)
	assert.Equal(t, domain.SignatureAlgorithm, doc.Proof.Algorithm)
	assert.Equal(t, domain.SignatureDocumentVersion, doc.Version)
	assert.NotEmpty(t, doc.Proof.KeyID)
	assert.NotEmpty(t, doc.Claim.Timestamp)
	assert.Empty(t, doc.Anchors)

	valid, reason := svc.Verify(doc)
	assert.True(t, valid, "reason: %s", reason)
	assert.Empty(t, reason)
}

// TestVerifyTamperedClaim verifies changing one hash character breaks the proof
func TestVerifyTamperedClaim(t *testing.T) {
	svc := NewSignatureService(newSignedIdentity(t), nil, nil)
	doc, err := svc.Sign(context.Background(), testHashHex, nil)
	require.NoError(t, err)

	tampered := "b" + doc.Claim.HashHex[1:]
	doc.Claim.HashHex = tampered

	valid, reason := svc.Verify(doc)
	assert.False(t, valid)
	assert.Equal(t, "signature does not match claim", reason)
}

// TestVerifyTamperedMetadata verifies metadata is covered by the signature
func TestVerifyTamperedMetadata(t *testing.T) {
	svc := NewSignatureService(newSignedIdentity(t), nil, nil)
	doc, err := svc.Sign(context.Background(), testHashHex, domain.JSONMap{"platform": "youtube"})
	require.NoError(t, err)

	doc.Claim.Metadata["platform"] = "tiktok"

	valid, _ := svc.Verify(doc)
	assert.False(t, valid)
}

// TestVerifyWrongKey verifies a document does not validate under another identity's key
func TestVerifyWrongKey(t *testing.T) {
	svc := NewSignatureService(newSignedIdentity(t), nil, nil)
	doc, err := svc.Sign(context.Background(), testHashHex, nil)
	require.NoError(t, err)

	other := newSignedIdentity(t)
	otherPub, err := other.PublicKeyString()
	require.NoError(t, err)
	doc.Proof.PublicKey = otherPub

	valid, reason := svc.Verify(doc)
	assert.False(t, valid)
	assert.Equal(t, "signature does not match claim", reason)
}

// TestVerifyFailsClosed verifies every malformed document shape yields false with a reason
func TestVerifyFailsClosed(t *testing.T) {
	svc := NewSignatureService(newSignedIdentity(t), nil, nil)
	good, err := svc.Sign(context.Background(), testHashHex, nil)
	require.NoError(t, err)

	testCases := []struct {
		name   string
		mutate func(doc *domain.SignatureDocument) *domain.SignatureDocument
	}{
		{
			name:   "nil document",
			mutate: func(doc *domain.SignatureDocument) *domain.SignatureDocument { return nil },
		},
		{
			name: "missing claim",
			mutate: func(doc *domain.SignatureDocument) *domain.SignatureDocument {
				doc.Claim = nil
				return doc
			},
		},
		{
			name: "missing proof",
			mutate: func(doc *domain.SignatureDocument) *domain.SignatureDocument {
				doc.Proof = nil
				return doc
			},
		},
		{
			name: "empty claim hash",
			mutate: func(doc *domain.SignatureDocument) *domain.SignatureDocument {
				doc.Claim.HashHex = ""
				return doc
			},
		},
		{
			name: "empty signature",
			mutate: func(doc *domain.SignatureDocument) *domain.SignatureDocument {
				doc.Proof.Signature = ""
				return doc
			},
		},
		{
			name: "empty public key",
			mutate: func(doc *domain.SignatureDocument) *domain.SignatureDocument {
				doc.Proof.PublicKey = ""
				return doc
			},
		},
		{
			name: "unsupported algorithm",
			mutate: func(doc *domain.SignatureDocument) *domain.SignatureDocument {
				doc.Proof.Algorithm = "RSA"
				return doc
			},
		},
		{
			name: "garbage public key",
			mutate: func(doc *domain.SignatureDocument) *domain.SignatureDocument {
				doc.Proof.PublicKey = "not a key"
				return doc
			},
		},
		{
			name: "garbage signature encoding",
			mutate: func(doc *domain.SignatureDocument) *domain.SignatureDocument {
				doc.Proof.Signature = "!!! not base64 !!!"
				return doc
			},
		},
		{
			name: "truncated signature",
			mutate: func(doc *domain.SignatureDocument) *domain.SignatureDocument {
				doc.Proof.Signature = "c2hvcnQ="
				return doc
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clone := *good
			claim := *good.Claim
			proof := *good.Proof
			clone.Claim = &claim
			clone.Proof = &proof

			valid, reason := svc.Verify(tc.mutate(&clone))
			assert.False(t, valid)
			assert.NotEmpty(t, reason)
		})
	}
}

// TestSignRejectsBadHash verifies only well-formed fingerprint hex is signable
func TestSignRejectsBadHash(t *testing.T) {
	svc := NewSignatureService(newSignedIdentity(t), nil, nil)

	_, err := svc.Sign(context.Background(), "not-hex", nil)
	assert.ErrorIs(t, err, domain.ErrBadFingerprint)

	_, err = svc.Sign(context.Background(), strings.Repeat("a", 32), nil)
	assert.ErrorIs(t, err, domain.ErrBadFingerprint)
}

// TestSignWithoutIdentity verifies signing fails when keyless and
// auto-provisioning is off
func TestSignWithoutIdentity(t *testing.T) {
	id, err := identity.New(t.TempDir())
	require.NoError(t, err)
	svc := NewSignatureService(id, &SignatureConfig{AutoProvision: false}, nil)

	_, err = svc.Sign(context.Background(), testHashHex, nil)
	assert.ErrorIs(t, err, identity.ErrNoIdentity)
}

// TestSignAutoProvision verifies the first sign call can mint an identity
func TestSignAutoProvision(t *testing.T) {
	id, err := identity.New(t.TempDir())
	require.NoError(t, err)
	require.False(t, id.Loaded())
	svc := NewSignatureService(id, &SignatureConfig{AutoProvision: true}, nil)

	doc, err := svc.Sign(context.Background(), testHashHex, nil)
	require.NoError(t, err)
	assert.True(t, id.Loaded())

	valid, reason := svc.Verify(doc)
	assert.True(t, valid, "reason: %s", reason)
}

// TestAddAnchorDedup verifies anchors are append-only and unique by URL
func TestAddAnchorDedup(t *testing.T) {
	svc := NewSignatureService(newSignedIdentity(t), nil, nil)
	doc, err := svc.Sign(context.Background(), testHashHex, nil)
	require.NoError(t, err)

	added := svc.AddAnchor(doc, "tweet", "https://example.com/status/1", nil)
	assert.True(t, added)
	require.Len(t, doc.Anchors, 1)
	assert.NotEmpty(t, doc.Anchors[0].AnchoredAt)

	added = svc.AddAnchor(doc, "archive", "https://example.com/status/1", nil)
	assert.False(t, added, "same URL is a soft no-op")
	assert.Len(t, doc.Anchors, 1)

	added = svc.AddAnchor(doc, "github_issue", "https://example.com/issues/2", nil)
	assert.True(t, added)
	assert.Len(t, doc.Anchors, 2)

	// Anchors live outside the signed claim, so the proof still verifies.
	valid, reason := svc.Verify(doc)
	assert.True(t, valid, "reason: %s", reason)
}

// TestDocumentFileRoundTrip verifies a written document reads back and still verifies
func TestDocumentFileRoundTrip(t *testing.T) {
	svc := NewSignatureService(newSignedIdentity(t), nil, nil)
	doc, err := svc.Sign(context.Background(), testHashHex, domain.JSONMap{
		"platform":    "youtube",
		"frame_count": 30,
	})
	require.NoError(t, err)
	svc.AddAnchor(doc, "tweet", "https://example.com/status/9", nil)

	path := filepath.Join(t.TempDir(), "claim.sig.json")
	require.NoError(t, WriteDocument(path, doc))

	loaded, err := ReadDocument(path)
	require.NoError(t, err)
	assert.Equal(t, doc.Claim.HashHex, loaded.Claim.HashHex)
	assert.Equal(t, doc.Proof.KeyID, loaded.Proof.KeyID)
	require.Len(t, loaded.Anchors, 1)

	// JSON numbers come back as float64; the canonical encoding must not care.
	valid, reason := VerifyDocument(loaded)
	assert.True(t, valid, "reason: %s", reason)
}
