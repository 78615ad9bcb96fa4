package examsession

import "math"

// PenaltyPerIncorrect is deducted from the score for every wrong answer.
const PenaltyPerIncorrect = 0.25

// Result is the scored outcome of a submitted session.
type Result struct {
	TotalQuestions int     `json:"total_questions"`
	Correct        int     `json:"correct"`
	Incorrect      int     `json:"incorrect"`
	NotAttempted   int     `json:"not_attempted"`
	Score          float64 `json:"score"`
}

// Project scores records against a set of totalQuestions questions. Only
// records carrying an answer count; skips and mark-only records are not
// attempted. The score never drops below zero and is rounded to two places.
func Project(records []AnswerRecord, totalQuestions int) Result {
	res := Result{TotalQuestions: totalQuestions}
	for _, r := range records {
		if !r.Status.HasAnswer() {
			continue
		}
		if r.IsCorrect {
			res.Correct++
		} else {
			res.Incorrect++
		}
	}
	res.NotAttempted = totalQuestions - res.Correct - res.Incorrect
	if res.NotAttempted < 0 {
		res.NotAttempted = 0
	}
	res.Score = RoundScore(float64(res.Correct) - PenaltyPerIncorrect*float64(res.Incorrect))
	return res
}

// RoundScore clamps v at zero and rounds half away from zero to two places.
func RoundScore(v float64) float64 {
	v = math.Max(0, v)
	return math.Round((v+epsilon)*100) / 100
}

// epsilon nudges values like 1.005 that sit just under a rounding boundary.
const epsilon = 2.220446049250313e-16
