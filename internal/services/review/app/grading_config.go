package server

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Angad-23/paper-checker/internal/services/review/domain"
)

type gradingScaleFile struct {
	MaxScore      int      `yaml:"max_score"`
	Grades        []string `yaml:"grades"`
	FeedbackLimit int      `yaml:"feedback_limit"`
}

// LoadGradingScale reads a grading scale from a YAML file. An empty path
// yields the default scale; fields the file omits keep their defaults.
func LoadGradingScale(path string) (domain.GradingScale, error) {
	scale := domain.DefaultGradingScale()
	if strings.TrimSpace(path) == "" {
		return scale, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.GradingScale{}, fmt.Errorf("read grading config: %w", err)
	}
	var file gradingScaleFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return domain.GradingScale{}, fmt.Errorf("parse grading config: %w", err)
	}

	if file.MaxScore != 0 {
		scale.MaxScore = file.MaxScore
	}
	if len(file.Grades) > 0 {
		scale.Grades = file.Grades
	}
	if file.FeedbackLimit != 0 {
		scale.FeedbackLimit = file.FeedbackLimit
	}

	if err := scale.Validate(); err != nil {
		return domain.GradingScale{}, fmt.Errorf("grading config: %w", err)
	}
	return scale, nil
}
