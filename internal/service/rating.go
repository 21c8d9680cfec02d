package service

import "math"

// Rating bounds.
const (
	MinContestRating = 800
	ratingPivot      = 1200
)

// RatingChange is the outcome of ComputeRating.
type RatingChange struct {
	OldRating int
	NewRating int
	Delta     int
}

// ComputeRating derives the post-contest rating from the user's score and rank. The
// base delta is tiered on the score ratio and rank ratio, dampened for ratings above
// 1200 (never below half of the base) and the result is floored at MinContestRating.
func ComputeRating(oldRating, score, maxScore, rank, participants int) RatingChange {
	performance := 0.0
	if maxScore > 0 {
		performance = float64(score) / float64(maxScore)
	}

	rankRatio := 0.0
	if participants > 0 && rank > 0 {
		rankRatio = float64(participants-rank+1) / float64(participants)
	}

	var base float64
	switch {
	case performance >= 0.8 && rankRatio >= 0.8:
		base = 100
	case performance >= 0.6 && rankRatio >= 0.6:
		base = 50
	case performance >= 0.4:
		base = 20
	case performance >= 0.2:
		base = -10
	default:
		base = -30
	}

	factor := math.Max(0.5, 1-float64(oldRating-ratingPivot)/1000)
	newRating := oldRating + int(math.Round(base*factor))
	if newRating < MinContestRating {
		newRating = MinContestRating
	}

	return RatingChange{
		OldRating: oldRating,
		NewRating: newRating,
		Delta:     newRating - oldRating,
	}
}
