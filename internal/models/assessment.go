package models

import "time"

// Assessment one completed daily check-in. Immutable once stored.
type Assessment struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"userId"`
	Answers            []string  `json:"answers,omitempty"`
	Summary            string    `json:"summary"` // descriptive + "\n\n" + advice, kept for older clients
	DescriptiveSummary string    `json:"descriptiveSummary"`
	AdviceSummary      string    `json:"adviceSummary"`
	Crisis             bool      `json:"crisis"`
	CreatedAt          time.Time `json:"createdAt"`
}

// LegacySummary joins the two summaries the way the combined field stores them.
func LegacySummary(descriptive, advice string) string {
	return descriptive + "\n\n" + advice
}
