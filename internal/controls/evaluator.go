package controls

import (
	"context"
	"fmt"

	"sentra/internal/domain"
)

// ThresholdEvaluator is the built-in evaluator: a straight comparison of
// each control's metric against its threshold. Metrics the event does not
// report are skipped, not treated as zero.
type ThresholdEvaluator struct{}

func NewThresholdEvaluator() *ThresholdEvaluator {
	return &ThresholdEvaluator{}
}

func (e *ThresholdEvaluator) Evaluate(_ context.Context, input domain.ControlInput) (domain.ControlEvaluation, error) {
	var findings []domain.ControlFinding
	for _, control := range input.Controls {
		observed, ok := input.Metrics[control.Metric]
		if !ok {
			continue
		}
		if !breached(control.Comparison, observed, control.Threshold) {
			continue
		}
		findings = append(findings, domain.ControlFinding{
			ControlID: control.ID,
			Metric:    control.Metric,
			Observed:  observed,
			Threshold: control.Threshold,
			Severity:  control.Severity,
			Message:   fmt.Sprintf("%s: %s is %g against threshold %g", control.Framework, control.Metric, observed, control.Threshold),
		})
	}
	return domain.ControlEvaluation{Findings: findings}, nil
}

func breached(cmp domain.Comparison, observed, threshold float64) bool {
	switch cmp {
	case domain.CompareLessThan:
		return observed < threshold
	default:
		return observed > threshold
	}
}
