package match

import "time"

// Record is the verdict artifact written next to a matched document
// (<basename>_match.json).
type Record struct {
	Confidence  float64   `json:"confidence"`
	RowNumber   int       `json:"row_number"`
	Date        string    `json:"date,omitempty"`
	Description string    `json:"description,omitempty"`
	Rationale   string    `json:"rationale,omitempty"`
	MatchedAt   time.Time `json:"matched_at"`
}

// NewRecord materializes an accepted verdict at the given timestamp.
func NewRecord(v Verdict, now time.Time) Record {
	r := Record{
		Confidence:  v.Confidence,
		Date:        v.Date,
		Description: v.Description,
		Rationale:   v.Rationale,
		MatchedAt:   now.UTC(),
	}
	if v.RowNumber != nil {
		r.RowNumber = *v.RowNumber
	}
	return r
}
