// Package followup is the application layer for nodule follow-up
// classification.  It wraps the pure extraction and classification pipeline
// with caching, auditing, event publication, logging and metrics.
package followup

import (
	domain "github.com/turtacn/NoduleAdvisor/internal/domain/followup"
	"github.com/turtacn/NoduleAdvisor/internal/intelligence/nodule_extractor"
	"github.com/turtacn/NoduleAdvisor/pkg/types/nodule"
)

// Classify runs the full pipeline on one sentence: normalize, extract the
// descriptor, resolve the size, classify and attach the recommendation.
// Failures are NOD_001 NotANoduleReference or NOD_002 MeasurementNotFound.
func Classify(text string) (nodule.Result, error) {
	d, err := nodule_extractor.Extract(text)
	if err != nil {
		return nodule.Result{}, err
	}
	return domain.Assess(d)
}

//Personal.AI order the ending
