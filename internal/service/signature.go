package service

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sigilproject/sigil/internal/domain"
	"github.com/sigilproject/sigil/internal/identity"
	"github.com/sigilproject/sigil/internal/logger"
	"golang.org/x/crypto/ssh"
)

// SignatureService binds fingerprints to an identity and manages the
// resulting chain-of-custody documents. The identity handle is injected
// explicitly; there is no hidden process-wide default keypair.
type SignatureService struct {
	identity *identity.Identity
	logger   *logger.Logger

	// autoProvision generates a keypair on the first Sign call instead of
	// failing with ErrNoIdentity. Every auto-provisioned identity is logged,
	// since it writes an unencrypted private key to disk.
	autoProvision bool
}

// SignatureConfig holds configuration for the signature service.
type SignatureConfig struct {
	AutoProvision bool
}

// NewSignatureService creates a signature service bound to an identity handle.
// Parameters:
//   - id: identity handle, possibly keyless.
//   - cfg: service configuration; nil disables auto-provisioning.
//   - log: logger; nil uses the default logger.
// Returns:
//   - *SignatureService: configured service.
func NewSignatureService(id *identity.Identity, cfg *SignatureConfig, log *logger.Logger) *SignatureService {
	if cfg == nil {
		cfg = &SignatureConfig{}
	}
	if log == nil {
		log = logger.GetDefault()
	}
	return &SignatureService{
		identity:      id,
		logger:        log,
		autoProvision: cfg.AutoProvision,
	}
}

// Identity returns the service's identity handle.
func (s *SignatureService) Identity() *identity.Identity {
	return s.identity
}

// Sign builds and signs a claim over a fingerprint.
// Parameters:
//   - ctx: context carrying the request-scoped logger.
//   - hashHex: 64-character hex fingerprint to claim.
//   - metadata: caller-supplied metadata included in the signed claim.
// Returns:
//   - *domain.SignatureDocument: signed document with an empty anchor list.
//   - error: validation failure, identity.ErrNoIdentity when keyless and
//     auto-provisioning is off, or a signing failure.
func (s *SignatureService) Sign(ctx context.Context, hashHex string, metadata domain.JSONMap) (*domain.SignatureDocument, error) {
	if _, err := domain.FingerprintFromHex(hashHex); err != nil {
		return nil, err
	}

	if !s.identity.Loaded() {
		if !s.autoProvision {
			return nil, identity.ErrNoIdentity
		}
		if err := s.identity.Generate(false); err != nil {
			return nil, fmt.Errorf("failed to auto-provision identity: %w", err)
		}
		keyID, _ := s.identity.KeyID()
		logger.FromContext(ctx).WithFields(logger.Fields{
			logger.FieldKeyID: keyID,
			"key_dir":         s.identity.KeyDir(),
		}).Warn("Auto-provisioned a new signing identity; private key is stored unencrypted")
	}

	now := time.Now().UTC().Format(time.RFC3339)
	claim := &domain.Claim{
		HashHex:   strings.ToLower(hashHex),
		Metadata:  metadata,
		Timestamp: now,
	}

	payload, err := claim.CanonicalBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to encode claim: %w", err)
	}

	sig, err := s.identity.Sign(payload)
	if err != nil {
		return nil, err
	}

	pubKey, err := s.identity.PublicKeyString()
	if err != nil {
		return nil, err
	}
	keyID, err := s.identity.KeyID()
	if err != nil {
		return nil, err
	}

	doc := &domain.SignatureDocument{
		Claim: claim,
		Proof: &domain.Proof{
			Signature: base64.StdEncoding.EncodeToString(sig),
			PublicKey: pubKey,
			KeyID:     keyID,
			Algorithm: domain.SignatureAlgorithm,
			SignedAt:  now,
		},
		Anchors: []domain.Anchor{},
		Version: domain.SignatureDocumentVersion,
	}

	logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldHashHex: claim.HashHex,
		logger.FieldKeyID:   keyID,
	}).Info("Fingerprint signed")

	return doc, nil
}

// Verify checks a signature document. It fails closed: any missing field,
// malformed key, wrong key type or cryptographic mismatch yields
// (false, reason). Attacker-controlled input can never make it panic or
// return an error; the negative result carries the diagnosis.
// Parameters:
//   - doc: document to verify.
// Returns:
//   - bool: true only if the proof's signature covers the claim's canonical
//     encoding under the embedded public key.
//   - string: empty on success, otherwise a human-readable reason.
func (s *SignatureService) Verify(doc *domain.SignatureDocument) (bool, string) {
	return VerifyDocument(doc)
}

// VerifyDocument verifies a signature document without needing an identity;
// everything required is embedded in the document itself.
func VerifyDocument(doc *domain.SignatureDocument) (valid bool, reason string) {
	if doc == nil {
		return false, "missing document"
	}
	if doc.Claim == nil {
		return false, "missing claim"
	}
	if doc.Proof == nil {
		return false, "missing proof"
	}
	if doc.Claim.HashHex == "" {
		return false, "missing claim hash"
	}
	if doc.Proof.Signature == "" || doc.Proof.PublicKey == "" {
		return false, "missing signature or public key"
	}
	if doc.Proof.Algorithm != domain.SignatureAlgorithm {
		return false, fmt.Sprintf("unsupported algorithm: %q", doc.Proof.Algorithm)
	}

	pub, reason := parsePublicKey(doc.Proof.PublicKey)
	if pub == nil {
		return false, reason
	}

	sig, err := base64.StdEncoding.DecodeString(doc.Proof.Signature)
	if err != nil {
		return false, "malformed signature encoding: " + err.Error()
	}
	if len(sig) != ed25519.SignatureSize {
		return false, fmt.Sprintf("wrong signature length: %d", len(sig))
	}

	payload, err := doc.Claim.CanonicalBytes()
	if err != nil {
		return false, "failed to encode claim: " + err.Error()
	}

	if !ed25519.Verify(pub, payload, sig) {
		return false, "signature does not match claim"
	}
	return true, ""
}

// parsePublicKey parses an OpenSSH authorized_keys line into an Ed25519 key.
func parsePublicKey(line string) (ed25519.PublicKey, string) {
	parsed, _, _, _, err := ssh.ParseAuthorizedKey([]byte(line))
	if err != nil {
		return nil, "malformed public key: " + err.Error()
	}
	if parsed.Type() != ssh.KeyAlgoED25519 {
		return nil, fmt.Sprintf("unsupported key type: %q", parsed.Type())
	}
	cryptoKey, ok := parsed.(ssh.CryptoPublicKey)
	if !ok {
		return nil, "public key does not expose a crypto key"
	}
	pub, ok := cryptoKey.CryptoPublicKey().(ed25519.PublicKey)
	if !ok {
		return nil, "public key is not an Ed25519 key"
	}
	return pub, ""
}

// AddAnchor appends an external timestamp anchor to a document. Anchors are
// append-only and de-duplicated by URL; adding an already-present URL is a
// soft no-op, not an error.
// Parameters:
//   - doc: signed document to anchor.
//   - anchorType: anchor kind (twitter, github, archive, ...).
//   - url: anchor URL.
//   - metadata: optional anchor metadata.
// Returns:
//   - bool: true if the anchor was added, false if the URL was already present.
func (s *SignatureService) AddAnchor(doc *domain.SignatureDocument, anchorType, url string, metadata domain.JSONMap) bool {
	if doc.HasAnchor(url) {
		return false
	}
	doc.Anchors = append(doc.Anchors, domain.Anchor{
		Type:       anchorType,
		URL:        url,
		AnchoredAt: time.Now().UTC().Format(time.RFC3339),
		Metadata:   metadata,
	})
	return true
}

// WriteDocument saves a signature document as pretty-printed JSON, the
// portable form handed to other parties.
// Parameters:
//   - path: destination file path.
//   - doc: document to write.
// Returns:
//   - error: non-nil if encoding or writing fails.
func WriteDocument(path string, doc *domain.SignatureDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode signature document: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write signature document: %w", err)
	}
	return nil
}

// ReadDocument loads a signature document from a JSON file.
// Parameters:
//   - path: signature file path.
// Returns:
//   - *domain.SignatureDocument: parsed document.
//   - error: non-nil if reading or decoding fails.
func ReadDocument(path string) (*domain.SignatureDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read signature document: %w", err)
	}
	var doc domain.SignatureDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse signature document: %w", err)
	}
	return &doc, nil
}
