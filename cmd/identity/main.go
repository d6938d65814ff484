package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/sigilproject/sigil/internal/identity"
	"github.com/sigilproject/sigil/internal/logger"
)

func main() {
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "text",
		ServiceName: "sigil-identity",
	})
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	var (
		generate  = flag.Bool("generate", false, "Generate a new Ed25519 keypair")
		overwrite = flag.Bool("overwrite", false, "Replace an existing keypair when generating")
		show      = flag.Bool("show", false, "Print the key id and public key")
		exportPEM = flag.Bool("export-pem", false, "Print the public key in PEM (PKIX) format")
		keyDir    = flag.String("key-dir", "", "Key directory (default ~/.sigil/keys)")
	)
	flag.Parse()

	if !*generate && !*show && !*exportPEM {
		fmt.Fprintln(os.Stderr, "Usage: identity [-generate [-overwrite]] [-show] [-export-pem] [-key-dir DIR]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	id, err := identity.New(*keyDir)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize identity")
	}

	if *generate {
		if err := id.Generate(*overwrite); err != nil {
			if errors.Is(err, identity.ErrKeyExists) {
				appLogger.WithField("key_dir", id.KeyDir()).
					Fatal("Keypair already exists; pass -overwrite to replace it")
			}
			appLogger.WithError(err).Fatal("Failed to generate keypair")
		}
		keyID, _ := id.KeyID()
		appLogger.WithFields(logger.Fields{
			logger.FieldKeyID: keyID,
			"key_dir":         id.KeyDir(),
		}).Info("Keypair generated")
	}

	if *show {
		if !id.Loaded() {
			appLogger.WithField("key_dir", id.KeyDir()).
				Fatal("No identity found; run with -generate first")
		}
		keyID, err := id.KeyID()
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to derive key id")
		}
		pub, err := id.PublicKeyString()
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to render public key")
		}
		fmt.Printf("key_id:     %s\n", keyID)
		fmt.Printf("public_key: %s\n", pub)
		fmt.Printf("key_dir:    %s\n", id.KeyDir())
	}

	if *exportPEM {
		if !id.Loaded() {
			appLogger.WithField("key_dir", id.KeyDir()).
				Fatal("No identity found; run with -generate first")
		}
		pem, err := id.ExportPublicKeyPEM()
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to export public key")
		}
		fmt.Print(pem)
	}
}
