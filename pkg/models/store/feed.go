package store

// Field names of a feed record. Every backend stores records as flat
// string-to-string maps under these keys; readers written against one
// backend can consume any other.
const (
	FieldTimestamp    = "timestamp"     // unix seconds at observation
	FieldISOTimestamp = "iso_timestamp" // RFC3339 UTC, human-readable twin of timestamp
	FieldCloud        = "cloud"         // source provider name
	FieldGPUModel     = "gpu_model"
	FieldPriceUSDHr   = "price_usd_hr"
	FieldRegion       = "region"
	FieldAvailability = "availability"
	FieldSourceID     = "source_record_id"
	FieldQualityScore = "data_quality_score"
	FieldSynthetic    = "synthetic" // "true" only on fallback records
)

// FeedRecord is one entry of the append-only price feed.
type FeedRecord struct {
	// ID is the backend-assigned entry id. Empty until the record has
	// been appended.
	ID     string
	Fields map[string]string
}

// Field returns the named field or "" when absent.
func (r FeedRecord) Field(name string) string {
	return r.Fields[name]
}
