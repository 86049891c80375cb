package performance

import (
	"math"
	"time"
)

// Rating is the latest evaluation of one employee. Writes overwrite it.
type Rating struct {
	EmployeeID string    `json:"employeeId"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	RatedBy    string    `json:"ratedBy,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type Listed struct {
	Rating
	EmployeeName string `json:"employeeName"`
	Department   string `json:"department"`
}

// Distribution counts ratings by score. Counts[0] holds rating 1.
type Distribution struct {
	Counts  [MaxRating]int `json:"counts"`
	Rated   int            `json:"rated"`
	Average float64        `json:"average"`
}

func Distribute(ratings []Listed) Distribution {
	var out Distribution
	sum := 0
	for _, item := range ratings {
		if item.Rating.Rating < MinRating || item.Rating.Rating > MaxRating {
			continue
		}
		out.Counts[item.Rating.Rating-1]++
		out.Rated++
		sum += item.Rating.Rating
	}
	if out.Rated > 0 {
		out.Average = math.Round(float64(sum)/float64(out.Rated)*100) / 100
	}
	return out
}
