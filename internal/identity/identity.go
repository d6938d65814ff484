// Package identity owns the Ed25519 signing keypair used to claim ownership
// of fingerprints.
//
// Security posture, stated explicitly: the private key is stored unencrypted
// at rest with owner-only permissions, the same trade-off as a passphrase-less
// SSH key. At-rest confidentiality is traded for zero-friction signing.
// Operators who need stronger protection should keep the key directory on an
// encrypted volume.
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"
)

const (
	defaultKeyDirName  = ".sigil/keys"
	privateKeyFileName = "id_ed25519"
	publicKeyFileName  = "id_ed25519.pub"
	keyComment         = "sigil"
)

var (
	// ErrKeyExists is returned by Generate when a keypair is already present
	// and overwrite was not requested. An identity is never silently replaced.
	ErrKeyExists = errors.New("identity key already exists")

	// ErrNoIdentity is returned by operations that require loaded keys.
	ErrNoIdentity = errors.New("no identity loaded")
)

// Identity is an Ed25519 keypair bound to a key directory, plus the derived
// key id. Construction loads an existing keypair if one is present; otherwise
// the identity stays keyless until Generate is called.
type Identity struct {
	keyDir   string
	privPath string
	pubPath  string

	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// New creates an Identity rooted at keyDir, loading existing keys if present.
// Parameters:
//   - keyDir: key directory; empty selects ~/.sigil/keys.
// Returns:
//   - *Identity: identity handle, possibly keyless.
//   - error: non-nil if the default directory cannot be resolved or an
//     existing key fails to load.
func New(keyDir string) (*Identity, error) {
	if keyDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		keyDir = filepath.Join(home, defaultKeyDirName)
	}

	id := &Identity{
		keyDir:   keyDir,
		privPath: filepath.Join(keyDir, privateKeyFileName),
		pubPath:  filepath.Join(keyDir, publicKeyFileName),
	}

	if _, err := os.Stat(id.privPath); err == nil {
		if err := id.load(); err != nil {
			return nil, err
		}
	}
	return id, nil
}

// Loaded reports whether a keypair is available for signing.
func (id *Identity) Loaded() bool {
	return id.priv != nil
}

// KeyDir returns the directory holding the keypair.
func (id *Identity) KeyDir() string {
	return id.keyDir
}

// Generate creates and persists a fresh Ed25519 keypair. The private key is
// written in OpenSSH PEM format with mode 0600; the public key is an
// authorized_keys line with mode 0644.
// Parameters:
//   - overwrite: replace an existing keypair when true.
// Returns:
//   - error: ErrKeyExists when a key is present and overwrite is false, or an
//     I/O or encoding failure.
func (id *Identity) Generate(overwrite bool) error {
	if _, err := os.Stat(id.privPath); err == nil && !overwrite {
		return fmt.Errorf("%w at %s", ErrKeyExists, id.privPath)
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("failed to generate keypair: %w", err)
	}

	if err := os.MkdirAll(id.keyDir, 0o700); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}

	block, err := ssh.MarshalPrivateKey(priv, keyComment)
	if err != nil {
		return fmt.Errorf("failed to encode private key: %w", err)
	}
	if err := os.WriteFile(id.privPath, pem.EncodeToMemory(block), 0o600); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}

	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return fmt.Errorf("failed to encode public key: %w", err)
	}
	if err := os.WriteFile(id.pubPath, ssh.MarshalAuthorizedKey(sshPub), 0o644); err != nil {
		return fmt.Errorf("failed to write public key: %w", err)
	}

	id.priv = priv
	id.pub = pub
	return nil
}

// load reads the private key from disk and derives the public key.
func (id *Identity) load() error {
	raw, err := os.ReadFile(id.privPath)
	if err != nil {
		return fmt.Errorf("failed to read private key: %w", err)
	}
	parsed, err := ssh.ParseRawPrivateKey(raw)
	if err != nil {
		return fmt.Errorf("failed to parse private key: %w", err)
	}
	priv, ok := parsed.(*ed25519.PrivateKey)
	if !ok {
		return fmt.Errorf("key at %s is not an Ed25519 key", id.privPath)
	}
	id.priv = *priv
	id.pub = id.priv.Public().(ed25519.PublicKey)
	return nil
}

// KeyID derives the stable, human-displayable fingerprint of the public key:
// the SHA-256 hex digest of its raw 32 bytes.
// Returns:
//   - string: 64-character hex key id.
//   - error: ErrNoIdentity when keyless.
func (id *Identity) KeyID() (string, error) {
	if id.pub == nil {
		return "", ErrNoIdentity
	}
	sum := sha256.Sum256(id.pub)
	return hex.EncodeToString(sum[:]), nil
}

// PublicKeyString renders the public key as a single OpenSSH authorized_keys
// line, the interchange form embedded in signature documents.
// Returns:
//   - string: "ssh-ed25519 <base64> sigil" without a trailing newline.
//   - error: ErrNoIdentity when keyless.
func (id *Identity) PublicKeyString() (string, error) {
	if id.pub == nil {
		return "", ErrNoIdentity
	}
	sshPub, err := ssh.NewPublicKey(id.pub)
	if err != nil {
		return "", fmt.Errorf("failed to encode public key: %w", err)
	}
	line := strings.TrimSpace(string(ssh.MarshalAuthorizedKey(sshPub)))
	return line + " " + keyComment, nil
}

// ExportPublicKeyPEM renders the public key as a PKIX PEM block for sharing
// with tools that do not speak the OpenSSH format.
// Returns:
//   - string: PEM-encoded public key.
//   - error: ErrNoIdentity when keyless.
func (id *Identity) ExportPublicKeyPEM() (string, error) {
	if id.pub == nil {
		return "", ErrNoIdentity
	}
	der, err := x509.MarshalPKIXPublicKey(id.pub)
	if err != nil {
		return "", fmt.Errorf("failed to encode public key: %w", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}

// Sign signs a payload with the private key.
// Parameters:
//   - payload: bytes to sign, typically a claim's canonical encoding.
// Returns:
//   - []byte: Ed25519 signature.
//   - error: ErrNoIdentity when keyless.
func (id *Identity) Sign(payload []byte) ([]byte, error) {
	if id.priv == nil {
		return nil, ErrNoIdentity
	}
	return ed25519.Sign(id.priv, payload), nil
}
