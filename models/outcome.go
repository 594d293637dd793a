package models

// Attempt records one acquisition strategy run for a single URL.
type Attempt struct {
	Strategy   string `json:"strategy"`
	Reason     string `json:"reason,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// Outcome is the per-URL result of a download run.
type Outcome struct {
	// Index is the 1-based position of the URL in the input list.
	Index int    `json:"index"`
	URL   string `json:"url"`

	// State is the terminal acquisition state: "SAVED", "FAILED", or
	// "NOT_ATTEMPTED" when the page had no download link.
	State string `json:"state"`

	// Candidate is the resolved download link, if one was found.
	Candidate string `json:"candidate,omitempty"`

	// Finder is the selector strategy that produced the candidate.
	Finder string `json:"finder,omitempty"`

	// Strategy is the acquisition strategy that saved the file.
	Strategy string `json:"strategy,omitempty"`

	// Path is the saved file location.
	Path  string `json:"path,omitempty"`
	Bytes int    `json:"bytes,omitempty"`

	Attempts []Attempt    `json:"attempts,omitempty"`
	Error    *ErrorDetail `json:"error,omitempty"`
}

// Saved reports whether the outcome produced a file.
func (o *Outcome) Saved() bool {
	return o.State == "SAVED"
}

// RunSummary aggregates the outcomes of one download run.
type RunSummary struct {
	Total    int       `json:"total"`
	Saved    int       `json:"saved"`
	Failed   int       `json:"failed"`
	Skipped  int       `json:"skipped"`
	Outcomes []Outcome `json:"outcomes"`
}

// Add appends an outcome and updates the counters.
func (s *RunSummary) Add(o Outcome) {
	s.Outcomes = append(s.Outcomes, o)
	s.Total++
	switch {
	case o.Saved():
		s.Saved++
	case o.State == "NOT_ATTEMPTED":
		s.Skipped++
	default:
		s.Failed++
	}
}
