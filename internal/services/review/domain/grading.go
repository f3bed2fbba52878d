package domain

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Angad-23/paper-checker/internal/platform/errors"
)

// GradingScale is the operator-configured shape of a valid graded result.
type GradingScale struct {
	MaxScore      int
	Grades        []string
	FeedbackLimit int
}

// DefaultGradingScale returns the scale used when no config file is given.
func DefaultGradingScale() GradingScale {
	return GradingScale{
		MaxScore:      100,
		Grades:        []string{"A", "B", "C", "D", "F"},
		FeedbackLimit: 2000,
	}
}

// Validate checks the scale itself is usable.
func (g GradingScale) Validate() error {
	if g.MaxScore <= 0 {
		return fmt.Errorf("grading scale max score must be positive, got %d", g.MaxScore)
	}
	if len(g.Grades) == 0 {
		return fmt.Errorf("grading scale requires at least one grade label")
	}
	for _, grade := range g.Grades {
		if strings.TrimSpace(grade) == "" {
			return fmt.Errorf("grading scale contains a blank grade label")
		}
	}
	if g.FeedbackLimit <= 0 {
		return fmt.Errorf("grading scale feedback limit must be positive, got %d", g.FeedbackLimit)
	}
	return nil
}

// CheckResult validates a finalize payload against the scale. It returns a
// coded validation error on the first violation, before any mutation.
func (g GradingScale) CheckResult(score int, grade string, feedback string) error {
	if score < 0 || score > g.MaxScore {
		return errors.WithMetadata(
			errors.CodeScoreOutOfRange,
			fmt.Sprintf("score %d is outside 0..%d", score, g.MaxScore),
			map[string]string{"score": strconv.Itoa(score), "max_score": strconv.Itoa(g.MaxScore)},
		)
	}

	known := false
	for _, label := range g.Grades {
		if label == grade {
			known = true
			break
		}
	}
	if !known {
		return errors.WithMetadata(
			errors.CodeGradeUnknown,
			fmt.Sprintf("grade %q is not a configured label", grade),
			map[string]string{"grade": grade},
		)
	}

	if utf8.RuneCountInString(feedback) > g.FeedbackLimit {
		return errors.WithMetadata(
			errors.CodeFeedbackTooLong,
			fmt.Sprintf("feedback exceeds %d characters", g.FeedbackLimit),
			map[string]string{"limit": strconv.Itoa(g.FeedbackLimit)},
		)
	}
	return nil
}
