// Package nodule_extractor reads a lung-nodule finding out of one free-text
// report sentence.  It is deterministic and holds no state, so every function
// is safe for concurrent use.
package nodule_extractor

import (
	"github.com/turtacn/NoduleAdvisor/pkg/types/nodule"
)

// Extract builds the nodule descriptor for a sentence.
//
// The sentence is normalized first.  A sentence that never mentions a nodule
// fails with NOD_001 before anything else is examined; a nodule sentence
// without a measurement fails with NOD_002.  On failure the zero Descriptor is
// returned.
func Extract(text string) (nodule.Descriptor, error) {
	sentence := Normalize(text)
	if !ReferencesNodule(sentence) {
		return nodule.Descriptor{}, errNotANoduleReference(text)
	}

	state := scan(Tokenize(sentence))

	m, err := ParseMeasurement(sentence)
	if err != nil {
		return nodule.Descriptor{}, err
	}

	return nodule.Descriptor{
		Multiplicity:       state.multiplicity,
		Composition:        state.composition,
		Calcified:          state.calcified,
		RawMeasurementText: m.Raw,
		Unit:               m.Unit,
		Measurements:       m.Values,
	}, nil
}

//Personal.AI order the ending
