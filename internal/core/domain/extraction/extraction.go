package extraction

// CacheEntry is one persisted extraction result, keyed by the content
// fingerprint of the file it was produced from.
type CacheEntry struct {
	Fingerprint       string `json:"fingerprint" db:"fingerprint"`
	SourcePath        string `json:"source_path" db:"source_path"`
	ResponsePayload   string `json:"response_payload" db:"response_payload"`
	BackendIdentifier string `json:"backend_identifier" db:"backend_identifier"`
	CachedAt          int64  `json:"cached_at" db:"cached_at"` // epoch seconds
}

// SaveRequest carries the result of a successful external extraction.
type SaveRequest struct {
	Fingerprint       string `json:"fingerprint"`
	SourcePath        string `json:"source_path"`
	ResponsePayload   string `json:"payload"`
	BackendIdentifier string `json:"backend_identifier"`
}

// LookupResult is the outcome of checking a file against the cache.
// Payload is empty on a miss; Hit distinguishes a miss from an empty payload.
type LookupResult struct {
	Fingerprint string `json:"fingerprint"`
	Hit         bool   `json:"hit"`
	Payload     string `json:"payload"`
}

// Stats summarizes service activity since process start.
type Stats struct {
	Hits      int64                     `json:"hits"`
	Misses    int64                     `json:"misses"`
	Saves     int64                     `json:"saves"`
	Errors    int64                     `json:"errors"`
	Latencies map[string]LatencySummary `json:"latencies_ms"`
}

// LatencySummary holds quantiles in milliseconds for one operation.
type LatencySummary struct {
	Count float64 `json:"count"`
	P50   float64 `json:"p50"`
	P90   float64 `json:"p90"`
	P99   float64 `json:"p99"`
}
