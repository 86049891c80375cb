package grievances

import "time"

type Status string

type Grievance struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Category       string     `json:"category"`
	Status         Status     `json:"status"`
	SubmittedBy    string     `json:"submittedBy"`
	SubmitterEmail string     `json:"submitterEmail"`
	SubmittedAt    time.Time  `json:"submittedAt"`
	ResolvedBy     string     `json:"resolvedBy,omitempty"`
	ResolvedAt     *time.Time `json:"resolvedAt,omitempty"`
}

type Input struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}
