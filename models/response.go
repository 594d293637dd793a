package models

// ListingResponse is the response for POST /api/v1/listing.
type ListingResponse struct {
	Success bool    `json:"success"`
	Papers  []Paper `json:"papers"`
	Total   int     `json:"total"`

	// CacheStatus is "hit", "miss", or empty when caching was not requested.
	CacheStatus string `json:"cache_status,omitempty"`

	Timing TimingInfo   `json:"timing"`
	Error  *ErrorDetail `json:"error,omitempty"`
}

// DownloadResponse is the response for POST /api/v1/download.
type DownloadResponse struct {
	Success bool         `json:"success"`
	Summary *RunSummary  `json:"summary,omitempty"`
	Timing  TimingInfo   `json:"timing"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent handling a request.
type TimingInfo struct {
	TotalMs int64 `json:"total_ms"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"` // "healthy" or "busy"
	Uptime  string `json:"uptime"`
	Running bool   `json:"download_running"`
	Version string `json:"version"`
}
