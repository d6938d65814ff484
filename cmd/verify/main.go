package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sigilproject/sigil/internal/domain"
	"github.com/sigilproject/sigil/internal/logger"
	"github.com/sigilproject/sigil/internal/service"
)

func main() {
	appLogger := logger.New(&logger.Config{
		Level:       "warn",
		Format:      "text",
		ServiceName: "sigil-verify",
	})
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	expectHex := flag.String("hash", "", "Expected fingerprint hex; fails if the claim differs")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: verify [-hash HEX] <signature-file.json>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	doc, err := service.ReadDocument(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	signatureService := service.NewSignatureService(nil, nil, appLogger)
	valid, reason := signatureService.Verify(doc)
	if valid && *expectHex != "" {
		valid, reason = matchesExpected(doc.Claim.HashHex, *expectHex)
	}

	if !valid {
		fmt.Printf("INVALID: %s\n", reason)
		os.Exit(1)
	}

	fmt.Println("VALID")
	printClaim(doc)
}

// matchesExpected compares a claim hash against caller-supplied hex. The
// expected value is parsed and re-rendered so case differences never report a
// spurious mismatch; claims are canonicalized lowercase at signing time.
func matchesExpected(claimHex, expect string) (bool, string) {
	want, err := domain.FingerprintFromHex(expect)
	if err != nil {
		return false, "expected fingerprint is not a valid 64-character hex string"
	}
	if want.Hex() != claimHex {
		return false, "claim hash does not match expected fingerprint"
	}
	return true, ""
}

func printClaim(doc *domain.SignatureDocument) {
	fmt.Printf("hash_hex:  %s\n", doc.Claim.HashHex)
	fmt.Printf("key_id:    %s\n", doc.Proof.KeyID)
	fmt.Printf("signed_at: %s\n", doc.Proof.SignedAt)
	if len(doc.Anchors) > 0 {
		fmt.Printf("anchors:   %d\n", len(doc.Anchors))
	}
}
