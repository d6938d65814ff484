package service

import (
	"context"
	"fmt"

	"github.com/sigilproject/sigil/internal/domain"
	"github.com/sigilproject/sigil/internal/logger"
	"github.com/sigilproject/sigil/internal/repository"
)

// DefaultSearchThreshold is the Hamming distance bound used when a search
// request does not specify one. 30 of 256 bits comfortably covers mild
// recompression while staying far below the ~128-bit chance level of
// unrelated videos.
const DefaultSearchThreshold = 30

// FingerprintService exposes the fingerprint store as request/response
// operations for the API and CLIs.
type FingerprintService struct {
	repo   *repository.FingerprintRepository
	logger *logger.Logger
}

// NewFingerprintService creates a fingerprint service.
// Parameters:
//   - repo: fingerprint repository.
//   - log: logger; nil uses the default logger.
// Returns:
//   - *FingerprintService: configured service.
func NewFingerprintService(repo *repository.FingerprintRepository, log *logger.Logger) *FingerprintService {
	if log == nil {
		log = logger.GetDefault()
	}
	return &FingerprintService{repo: repo, logger: log}
}

// StoreRequest carries one store call. HashHex is required; everything else
// is optional and merged with coalesce semantics on re-submission.
type StoreRequest struct {
	HashHex          string         `json:"hash_hex" binding:"required"`
	VideoID          *string        `json:"video_id,omitempty"`
	Platform         *string        `json:"platform,omitempty"`
	UploadDate       *string        `json:"upload_date,omitempty"`
	SourcePath       *string        `json:"source_path,omitempty"`
	FrameCount       *int           `json:"frame_count,omitempty"`
	Metadata         domain.JSONMap `json:"metadata,omitempty"`
	Signature        *string        `json:"signature,omitempty"`
	PublicKey        *string        `json:"public_key,omitempty"`
	KeyID            *string        `json:"key_id,omitempty"`
	SignedAt         *string        `json:"signed_at,omitempty"`
	SignatureVersion *string        `json:"signature_version,omitempty"`
}

// StoreResponse reports the id of the stored (or merged-into) record.
type StoreResponse struct {
	RecordID uint   `json:"record_id"`
	HashHex  string `json:"hash_hex"`
}

// Store validates and persists a fingerprint.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - req: store request.
// Returns:
//   - *StoreResponse: record id and canonical hex.
//   - error: validation or storage failure.
func (s *FingerprintService) Store(ctx context.Context, req *StoreRequest) (*StoreResponse, error) {
	fp, err := domain.FingerprintFromHex(req.HashHex)
	if err != nil {
		return nil, err
	}

	id, err := s.repo.Store(ctx, &repository.StoreInput{
		Fingerprint:      fp,
		VideoID:          req.VideoID,
		Platform:         req.Platform,
		UploadDate:       req.UploadDate,
		SourcePath:       req.SourcePath,
		FrameCount:       req.FrameCount,
		Metadata:         req.Metadata,
		Signature:        req.Signature,
		PublicKey:        req.PublicKey,
		KeyID:            req.KeyID,
		SignedAt:         req.SignedAt,
		SignatureVersion: req.SignatureVersion,
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldHashHex: fp.Hex(),
		"record_id":         id,
	}).Info("Fingerprint stored")

	return &StoreResponse{RecordID: id, HashHex: fp.Hex()}, nil
}

// SearchRequest carries one similarity query.
type SearchRequest struct {
	HashHex   string  `json:"hash_hex" binding:"required"`
	Threshold *int    `json:"threshold,omitempty"`
	Platform  *string `json:"platform,omitempty"`
	Limit     int     `json:"limit,omitempty"`
}

// SearchResponse lists matches ordered by ascending Hamming distance.
type SearchResponse struct {
	QueryHex  string                    `json:"query_hex"`
	Threshold int                       `json:"threshold"`
	Count     int                       `json:"count"`
	Matches   []domain.FingerprintMatch `json:"matches"`
}

// Search runs a bounded-distance similarity query.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - req: search request; nil threshold selects DefaultSearchThreshold.
// Returns:
//   - *SearchResponse: ordered matches.
//   - error: validation or storage failure.
func (s *FingerprintService) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	fp, err := domain.FingerprintFromHex(req.HashHex)
	if err != nil {
		return nil, err
	}

	threshold := DefaultSearchThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	matches, err := s.repo.QuerySimilar(ctx, fp, threshold, req.Platform, req.Limit)
	if err != nil {
		return nil, err
	}

	return &SearchResponse{
		QueryHex:  fp.Hex(),
		Threshold: threshold,
		Count:     len(matches),
		Matches:   matches,
	}, nil
}

// Stats returns store statistics.
func (s *FingerprintService) Stats(ctx context.Context) (*domain.StoreStats, error) {
	return s.repo.Stats(ctx)
}

// Delete removes a record by id.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: record id.
// Returns:
//   - bool: true if a record was deleted.
//   - error: non-nil if the delete fails.
func (s *FingerprintService) Delete(ctx context.Context, id uint) (bool, error) {
	found, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete record %d: %w", id, err)
	}
	if found {
		logger.FromContext(ctx).WithField("record_id", id).Info("Fingerprint deleted")
	}
	return found, nil
}
