package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sigilproject/sigil/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultQueryLimit caps similarity query results when the caller passes no limit.
const DefaultQueryLimit = 100

// FingerprintRepository handles fingerprint persistence and similarity lookup.
//
// Similarity queries are an exhaustive scan over all stored fingerprints. That
// is a deliberate scalability ceiling at this design's scale, not an
// oversight; callers needing sub-linear lookup must shard or index externally.
type FingerprintRepository struct {
	db *gorm.DB
}

// NewFingerprintRepository creates a new FingerprintRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *FingerprintRepository: repository instance bound to db.
func NewFingerprintRepository(db *gorm.DB) *FingerprintRepository {
	return &FingerprintRepository{db: db}
}

// StoreInput carries the fields of a store call. All fields except the
// fingerprint are optional; nil pointers leave existing values untouched when
// the fingerprint is already stored.
type StoreInput struct {
	Fingerprint      domain.Fingerprint
	VideoID          *string
	Platform         *string
	UploadDate       *string
	SourcePath       *string
	FrameCount       *int
	Metadata         domain.JSONMap
	Signature        *string
	PublicKey        *string
	KeyID            *string
	SignedAt         *string
	SignatureVersion *string
}

// coalesceColumns are the merge-on-conflict columns: a later store call
// overwrites a stored value only when it supplies a non-null one. This is what
// lets a signing call attach a signature to a fingerprint stored earlier.
var coalesceColumns = []string{
	"video_id", "platform", "upload_date", "source_path", "frame_count",
	"metadata", "signature", "public_key", "key_id", "signed_at", "signature_version",
}

// Store persists a fingerprint, or merges into the existing record when one
// with the same fingerprint value already exists. The dedup-upsert is a single
// ON CONFLICT statement, so two concurrent store calls for the same
// fingerprint cannot both insert. The original creation timestamp is
// preserved on merge.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - in: fingerprint plus optional identifiers, metadata and signature fields.
// Returns:
//   - uint: id of the (possibly pre-existing) record.
//   - error: non-nil on validation or storage failure.
func (r *FingerprintRepository) Store(ctx context.Context, in *StoreInput) (uint, error) {
	if len(in.Fingerprint) != domain.FingerprintBits {
		return 0, fmt.Errorf("%w: expected %d bits, got %d", domain.ErrBadFingerprint, domain.FingerprintBits, len(in.Fingerprint))
	}

	binStr := in.Fingerprint.BinaryString()
	record := &domain.FingerprintRecord{
		Fingerprint:      binStr,
		FingerprintHex:   in.Fingerprint.Hex(),
		VideoID:          in.VideoID,
		Platform:         in.Platform,
		UploadDate:       in.UploadDate,
		SourcePath:       in.SourcePath,
		FrameCount:       in.FrameCount,
		Metadata:         in.Metadata,
		CreatedAt:        time.Now().UTC(),
		Signature:        in.Signature,
		PublicKey:        in.PublicKey,
		KeyID:            in.KeyID,
		SignedAt:         in.SignedAt,
		SignatureVersion: in.SignatureVersion,
	}

	assignments := make(map[string]interface{}, len(coalesceColumns))
	for _, col := range coalesceColumns {
		assignments[col] = gorm.Expr(fmt.Sprintf("COALESCE(excluded.%s, fingerprints.%s)", col, col))
	}

	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "fingerprint"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(record).Error; err != nil {
		return 0, fmt.Errorf("failed to store fingerprint: %w", err)
	}

	// The conflict path does not report the surviving row's id, so read it back.
	var existing domain.FingerprintRecord
	if err := r.db.WithContext(ctx).Select("id").First(&existing, "fingerprint = ?", binStr).Error; err != nil {
		return 0, fmt.Errorf("failed to resolve fingerprint record id: %w", err)
	}
	return existing.ID, nil
}

// GetByID retrieves a record by its id.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: record id.
// Returns:
//   - *domain.FingerprintRecord: record if found.
//   - error: non-nil if lookup fails.
func (r *FingerprintRepository) GetByID(ctx context.Context, id uint) (*domain.FingerprintRecord, error) {
	var record domain.FingerprintRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// QuerySimilar finds stored fingerprints within a Hamming distance bound of
// the query fingerprint. Results are sorted ascending by distance with a
// stable tie order and truncated to limit. Each match carries a similarity
// score of 100 * (1 - distance/bits).
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - fp: query fingerprint.
//   - threshold: maximum Hamming distance for a match.
//   - platform: optional platform filter; nil means all platforms.
//   - limit: maximum number of results; <= 0 selects DefaultQueryLimit.
// Returns:
//   - []domain.FingerprintMatch: matches ordered by ascending distance.
//   - error: non-nil on validation or storage failure.
func (r *FingerprintRepository) QuerySimilar(ctx context.Context, fp domain.Fingerprint, threshold int, platform *string, limit int) ([]domain.FingerprintMatch, error) {
	if len(fp) != domain.FingerprintBits {
		return nil, fmt.Errorf("%w: expected %d bits, got %d", domain.ErrBadFingerprint, domain.FingerprintBits, len(fp))
	}
	if threshold < 0 || threshold > domain.FingerprintBits {
		return nil, fmt.Errorf("threshold %d out of range [0, %d]", threshold, domain.FingerprintBits)
	}
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	query := r.db.WithContext(ctx).Model(&domain.FingerprintRecord{})
	if platform != nil {
		query = query.Where("platform = ?", *platform)
	}

	var records []domain.FingerprintRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to scan fingerprints: %w", err)
	}

	queryStr := fp.BinaryString()
	matches := make([]domain.FingerprintMatch, 0)
	for i := range records {
		distance, err := domain.HammingStrings(queryStr, records[i].Fingerprint)
		if err != nil {
			return nil, fmt.Errorf("record %d holds a malformed fingerprint: %w", records[i].ID, err)
		}
		if distance <= threshold {
			matches = append(matches, domain.FingerprintMatch{
				FingerprintRecord: records[i],
				HammingDistance:   distance,
				Similarity:        100 * (1 - float64(distance)/float64(domain.FingerprintBits)),
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].HammingDistance < matches[j].HammingDistance
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Stats summarizes the store: total record count, per-platform counts, and
// the oldest and newest creation timestamps.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - *domain.StoreStats: store statistics.
//   - error: non-nil if a query fails.
func (r *FingerprintRepository) Stats(ctx context.Context) (*domain.StoreStats, error) {
	stats := &domain.StoreStats{ByPlatform: make(map[string]int64)}

	if err := r.db.WithContext(ctx).Model(&domain.FingerprintRecord{}).Count(&stats.TotalFingerprints).Error; err != nil {
		return nil, fmt.Errorf("failed to count fingerprints: %w", err)
	}

	var rows []struct {
		Platform *string
		Count    int64
	}
	if err := r.db.WithContext(ctx).Model(&domain.FingerprintRecord{}).
		Select("platform, COUNT(*) as count").
		Group("platform").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count by platform: %w", err)
	}
	for _, row := range rows {
		name := "unknown"
		if row.Platform != nil && *row.Platform != "" {
			name = *row.Platform
		}
		stats.ByPlatform[name] = row.Count
	}

	if stats.TotalFingerprints > 0 {
		var oldest, newest domain.FingerprintRecord
		if err := r.db.WithContext(ctx).Order("created_at ASC").First(&oldest).Error; err != nil {
			return nil, fmt.Errorf("failed to find oldest entry: %w", err)
		}
		if err := r.db.WithContext(ctx).Order("created_at DESC").First(&newest).Error; err != nil {
			return nil, fmt.Errorf("failed to find newest entry: %w", err)
		}
		stats.OldestEntry = &oldest.CreatedAt
		stats.NewestEntry = &newest.CreatedAt
	}

	return stats, nil
}

// Delete removes a record by id.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: record id to delete.
// Returns:
//   - bool: true if a record was deleted, false if none existed.
//   - error: non-nil if the delete fails.
func (r *FingerprintRepository) Delete(ctx context.Context, id uint) (bool, error) {
	tx := r.db.WithContext(ctx).Delete(&domain.FingerprintRecord{}, "id = ?", id)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}
