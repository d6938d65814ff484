package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sigilproject/sigil/internal/anchor"
	"github.com/sigilproject/sigil/internal/domain"
	"github.com/sigilproject/sigil/internal/logger"
	"github.com/sigilproject/sigil/internal/service"
)

func main() {
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "text",
		ServiceName: "sigil-anchor",
	})
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	var (
		anchorType = flag.String("type", "", "Anchor type (tweet, github_issue, archive, ...)")
		url        = flag.String("url", "", "Anchor URL")
		check      = flag.Bool("check", true, "Verify the anchor URL is reachable before adding it")
		timeout    = flag.Duration("timeout", 10*time.Second, "Reachability check timeout")
		list       = flag.Bool("list", false, "List the anchors in the document and exit")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: anchor [-list] [-type T -url U [-check=false]] <signature-file.json>")
		flag.PrintDefaults()
		os.Exit(1)
	}
	path := flag.Arg(0)

	doc, err := service.ReadDocument(path)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to read signature document")
	}

	if *list {
		if len(doc.Anchors) == 0 {
			fmt.Println("no anchors")
			return
		}
		for _, a := range doc.Anchors {
			fmt.Printf("%s\t%s\t%s\n", a.AnchoredAt, a.Type, a.URL)
		}
		return
	}

	if *anchorType == "" || *url == "" {
		fmt.Fprintln(os.Stderr, "Both -type and -url are required to add an anchor")
		os.Exit(1)
	}

	// Anchoring an unverifiable document is a footgun: the anchor would
	// corroborate a claim nobody can check.
	signatureService := service.NewSignatureService(nil, nil, appLogger)
	if valid, reason := signatureService.Verify(doc); !valid {
		appLogger.WithField("reason", reason).Fatal("Refusing to anchor an invalid signature document")
	}

	metadata := domain.JSONMap{}
	if *check {
		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		defer cancel()

		if err := anchor.NewChecker(*timeout).Check(ctx, *url); err != nil {
			appLogger.WithError(err).Fatal("Anchor URL is not reachable")
		}
		metadata["checked_at"] = time.Now().UTC().Format(time.RFC3339)
	}

	if !signatureService.AddAnchor(doc, *anchorType, *url, metadata) {
		appLogger.WithField("url", *url).Info("Anchor already present; document unchanged")
		return
	}

	if err := service.WriteDocument(path, doc); err != nil {
		appLogger.WithError(err).Fatal("Failed to write signature document")
	}
	appLogger.WithFields(logger.Fields{
		"type":  *anchorType,
		"url":   *url,
		"count": len(doc.Anchors),
	}).Info("Anchor added")
}
