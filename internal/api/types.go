package api

// CreateJobRequest is the payload for POST /api/v1/jobs.
type CreateJobRequest struct {
	Mode   string `json:"mode" binding:"required"`
	DryRun bool   `json:"dry_run"`
}

// ImportTargetsRequest is the payload for POST /api/v1/targets/import.
type ImportTargetsRequest struct {
	URLs []string `json:"urls" binding:"required"`
}

// ImportTargetsResponse reports the import outcome, including entries
// rejected by URL validation.
type ImportTargetsResponse struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Total    int      `json:"total"`
	Invalid  []string `json:"invalid,omitempty"`
}
