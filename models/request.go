package models

// ListingRequest is the payload for POST /api/v1/listing.
type ListingRequest struct {
	// URL is the listing (category) page to scrape. Required.
	URL string `json:"url" binding:"required,url"`

	// Year keeps only papers whose title contains this year.
	Year int `json:"year,omitempty" binding:"omitempty,min=1900,max=2100"`

	// Type keeps only papers whose title contains this text,
	// case-insensitively (e.g. "Marking Scheme").
	Type string `json:"type,omitempty"`

	// MaxAge allows serving a cached listing younger than this many
	// milliseconds. Zero disables the cache.
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0"`
}

// DownloadRequest is the payload for POST /api/v1/download.
type DownloadRequest struct {
	// URLs are paper pages, processed strictly in order. Required.
	URLs []string `json:"urls" binding:"required,min=1,max=200,dive,url"`

	// WebhookURL, when set, receives the run summary once the run ends.
	WebhookURL string `json:"webhook_url,omitempty" binding:"omitempty,url"`
}
