package api

import "time"

// InsightResponse is the body of GET /insights/stocks/:code and GET /insights/portfolio.
// Available is false when generation failed and Markdown holds a "try again later" message.
type InsightResponse struct {
	Subject     string    `json:"subject"`
	Available   bool      `json:"available"`
	Markdown    string    `json:"markdown"`
	HTML        string    `json:"html"`
	GeneratedAt time.Time `json:"generated_at"`
}
