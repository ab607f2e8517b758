package domain

// Aggregate summarises expense deltas for one (legal name, region) pair
type Aggregate struct {
	LegalName      string  `json:"legal_name"`
	Region         string  `json:"region"`
	Total          float64 `json:"total"`
	Count          int     `json:"count"`
	Mean           float64 `json:"mean"`
	TotalFormatted string  `json:"total_formatted"`
	MeanFormatted  string  `json:"mean_formatted"`
}
