package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// JSONMap is a custom type for storing free-form metadata as JSON in the database.
type JSONMap map[string]interface{}

// Value implements the driver.Valuer interface for database serialization.
// Parameters: none.
// Returns:
//   - driver.Value: JSON-encoded string representation of the map.
//   - error: non-nil if marshaling fails.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
// Parameters:
//   - value: raw database value to decode.
// Returns:
//   - error: non-nil if decoding fails or the type is unexpected.
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan JSONMap")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, m)
}

// FingerprintRecord is the persisted row for one unique fingerprint. Optional
// fields are pointers so a later store call can fill them without clobbering
// previously stored values (coalesce merge semantics).
type FingerprintRecord struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Fingerprint    string    `gorm:"type:text;not null;uniqueIndex:idx_fingerprints_fp" json:"fingerprint"`
	FingerprintHex string    `gorm:"type:text;not null" json:"fingerprint_hex"`
	VideoID        *string   `gorm:"type:text" json:"video_id,omitempty"`
	Platform       *string   `gorm:"type:text;index:idx_fingerprints_platform" json:"platform,omitempty"`
	UploadDate     *string   `gorm:"type:text" json:"upload_date,omitempty"`
	SourcePath     *string   `gorm:"type:text" json:"source_path,omitempty"`
	FrameCount     *int      `json:"frame_count,omitempty"`
	Metadata       JSONMap   `gorm:"type:text" json:"metadata,omitempty"`
	CreatedAt      time.Time `json:"created_at"`

	// Signature fields are nullable so databases written before signing support
	// migrate additively without data loss.
	Signature        *string `gorm:"type:text" json:"signature,omitempty"`
	PublicKey        *string `gorm:"type:text" json:"public_key,omitempty"`
	KeyID            *string `gorm:"type:text;index:idx_fingerprints_key_id" json:"key_id,omitempty"`
	SignedAt         *string `gorm:"type:text" json:"signed_at,omitempty"`
	SignatureVersion *string `gorm:"type:text" json:"signature_version,omitempty"`
}

// TableName returns the database table name for FingerprintRecord.
func (FingerprintRecord) TableName() string {
	return "fingerprints"
}

// FingerprintMatch is a similarity query result: the stored record plus its
// Hamming distance to the query fingerprint and a percentage similarity score.
type FingerprintMatch struct {
	FingerprintRecord
	HammingDistance int     `json:"hamming_distance"`
	Similarity      float64 `json:"similarity"`
}

// StoreStats summarizes the contents of the fingerprint store.
type StoreStats struct {
	TotalFingerprints int64            `json:"total_fingerprints"`
	ByPlatform        map[string]int64 `json:"by_platform"`
	OldestEntry       *time.Time       `json:"oldest_entry,omitempty"`
	NewestEntry       *time.Time       `json:"newest_entry,omitempty"`
}
