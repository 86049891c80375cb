package recruitment

import (
	"fmt"
	"strings"
	"time"
)

type PostingStatus string

func ParsePostingStatus(raw string) (PostingStatus, error) {
	switch status := PostingStatus(strings.ToLower(strings.TrimSpace(raw))); status {
	case PostingOpen, PostingClosed:
		return status, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
}

type Posting struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Department  string        `json:"department"`
	Location    string        `json:"location"`
	JobType     string        `json:"type"`
	Description string        `json:"description"`
	Status      PostingStatus `json:"status"`
	CreatedBy   string        `json:"createdBy,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
}

type PostingInput struct {
	Title       string `json:"title"`
	Department  string `json:"department"`
	Location    string `json:"location"`
	JobType     string `json:"type"`
	Description string `json:"description"`
}

type Application struct {
	ID             string    `json:"id"`
	JobID          string    `json:"jobId"`
	JobTitle       string    `json:"jobTitle"`
	CandidateName  string    `json:"name"`
	CandidateEmail string    `json:"email"`
	CandidatePhone string    `json:"phone"`
	ResumeLink     string    `json:"resumeLink"`
	Status         string    `json:"status"`
	SubmittedAt    time.Time `json:"submittedAt"`
}

type ApplicationInput struct {
	JobID      string `json:"jobId"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	ResumeLink string `json:"resumeLink"`
}
