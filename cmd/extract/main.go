package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sigilproject/sigil/internal/config"
	"github.com/sigilproject/sigil/internal/decoder/imagedir"
	"github.com/sigilproject/sigil/internal/domain"
	"github.com/sigilproject/sigil/internal/identity"
	"github.com/sigilproject/sigil/internal/logger"
	"github.com/sigilproject/sigil/internal/repository"
	"github.com/sigilproject/sigil/internal/service"
)

func main() {
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "text",
		ServiceName: "sigil-extract",
	})
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	var (
		framesDir  = flag.String("frames", "", "Directory of decoded frame images, ordered by filename")
		maxFrames  = flag.Int("max-frames", 0, "Cap on frames to read (0 = all)")
		seed       = flag.String("seed", "", "Projection seed (integer or arbitrary string; empty = default)")
		sign       = flag.Bool("sign", false, "Sign the fingerprint and write a signature document")
		out        = flag.String("out", "", "Signature document output path (default <hash>.signature.json)")
		store      = flag.Bool("store", false, "Store the fingerprint in the database")
		videoID    = flag.String("video-id", "", "Platform video identifier to record")
		platform   = flag.String("platform", "", "Source platform to record")
		uploadDate = flag.String("upload-date", "", "Original upload date to record (YYYY-MM-DD)")
		configPath = flag.String("config", "", "Path to config file")
	)
	flag.Parse()

	if *framesDir == "" {
		fmt.Fprintln(os.Stderr, "Usage: extract -frames <dir> [-max-frames N] [-seed S] [-sign] [-store] ...")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}
	if *seed == "" {
		*seed = cfg.Hash.Seed
	}
	if *maxFrames == 0 {
		*maxFrames = cfg.Hash.MaxFrames
	}

	ctx := context.Background()

	hashService := service.NewHashService(&service.HashConfig{
		Seed: *seed,
		Bits: cfg.Hash.Bits,
	}, appLogger)

	result, err := hashService.ComputeFromSource(ctx, imagedir.NewAdapter(*framesDir), *maxFrames)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to compute fingerprint")
	}

	fmt.Println(result.HashHex)

	// Provenance travels with the record so a future run can reproduce the
	// exact same bits.
	metadata := domain.JSONMap{
		"seed":            result.Seed,
		"feature_version": result.FeatureVersion,
		"frame_count":     result.FrameCount,
	}
	if *videoID != "" {
		metadata["video_id"] = *videoID
	}
	if *platform != "" {
		metadata["platform"] = *platform
	}

	var doc *domain.SignatureDocument
	if *sign {
		id, err := identity.New(cfg.Identity.KeyDir)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize identity")
		}
		signatureService := service.NewSignatureService(id, &service.SignatureConfig{
			AutoProvision: cfg.Identity.AutoProvision,
		}, appLogger)

		doc, err = signatureService.Sign(ctx, result.HashHex, metadata)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to sign fingerprint")
		}

		path := *out
		if path == "" {
			path = result.HashHex + ".signature.json"
		}
		if err := service.WriteDocument(path, doc); err != nil {
			appLogger.WithError(err).Fatal("Failed to write signature document")
		}
		appLogger.WithFields(logger.Fields{
			logger.FieldKeyID: doc.Proof.KeyID,
			"path":            path,
		}).Info("Signature document written")
	}

	if *store {
		db, err := repository.InitDB(&cfg.Database)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize database")
		}
		fingerprintService := service.NewFingerprintService(repository.NewFingerprintRepository(db), appLogger)

		req := &service.StoreRequest{
			HashHex:    result.HashHex,
			FrameCount: &result.FrameCount,
			SourcePath: framesDir,
			Metadata:   metadata,
		}
		if *videoID != "" {
			req.VideoID = videoID
		}
		if *platform != "" {
			req.Platform = strPtr(strings.ToLower(*platform))
		}
		if *uploadDate != "" {
			req.UploadDate = uploadDate
		}
		if doc != nil {
			version := doc.Version
			req.Signature = &doc.Proof.Signature
			req.PublicKey = &doc.Proof.PublicKey
			req.KeyID = &doc.Proof.KeyID
			req.SignedAt = &doc.Proof.SignedAt
			req.SignatureVersion = &version
		}

		resp, err := fingerprintService.Store(ctx, req)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to store fingerprint")
		}
		appLogger.WithFields(logger.Fields{
			"record_id":         resp.RecordID,
			logger.FieldHashHex: resp.HashHex,
		}).Info("Fingerprint stored")
	}
}

func strPtr(s string) *string { return &s }
