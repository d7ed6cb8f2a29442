// Package followup turns a nodule descriptor into a guideline follow-up
// category and recommendation.  All functions are pure.
package followup

import (
	"github.com/turtacn/NoduleAdvisor/pkg/errors"
	"github.com/turtacn/NoduleAdvisor/pkg/types/nodule"
)

// Assess resolves size, category and recommendation for a descriptor.
func Assess(d nodule.Descriptor) (nodule.Result, error) {
	if err := d.Validate(); err != nil {
		return nodule.Result{}, errors.Wrap(err, errors.ErrCodeValidation, "invalid nodule descriptor")
	}

	size := ResolveSize(d.Measurements, d.Unit)
	category := Classify(d.Composition, d.Multiplicity, size, d.Calcified)
	text, err := Recommendation(category)
	if err != nil {
		return nodule.Result{}, err
	}

	d.Measurements = d.MeasurementValues()
	return nodule.Result{
		Descriptor:     d,
		SizeMM:         size,
		Category:       category,
		Recommendation: text,
	}, nil
}

//Personal.AI order the ending
