package models

// Paper is one record scraped from a listing page.
type Paper struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

// PageSnapshot is the state of a rendered paper page after navigation.
type PageSnapshot struct {
	// HTML is the rendered document.
	HTML string

	// FinalURL is window.location.href after redirects.
	FinalURL string

	// Title is document.title.
	Title string
}
