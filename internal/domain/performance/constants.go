package performance

const (
	CollectionPerformance = "performance"

	MinRating = 1
	MaxRating = 5

	maxCommentLength = 2000
)
