package nodule_extractor

import (
	"regexp"
	"strconv"

	"github.com/turtacn/NoduleAdvisor/pkg/errors"
	"github.com/turtacn/NoduleAdvisor/pkg/types/nodule"
)

// measurementPattern matches one to three decimals joined by "x" and followed
// by a mandatory mm/cm unit, e.g. "7 x 8 mm", "1.5x1.5cm", "6 X 4 X 8 mm".
var measurementPattern = regexp.MustCompile(
	`(?i)(\d+(?:\.\d+)?)\s*(?:x\s*(\d+(?:\.\d+)?)\s*)?(?:x\s*(\d+(?:\.\d+)?)\s*)?(mm|cm)\b`,
)

// Measurement is the first measurement phrase found in a sentence.
type Measurement struct {
	// Raw is the matched substring, verbatim.
	Raw    string
	Unit   nodule.Unit
	Values []float64
}

// ParseMeasurement locates the first measurement phrase in text.  Later
// phrases are ignored.  A numeric group that does not parse as a positive
// decimal is dropped; if nothing remains the phrase counts as absent.
func ParseMeasurement(text string) (Measurement, error) {
	m := measurementPattern.FindStringSubmatch(text)
	if m == nil {
		return Measurement{}, errMeasurementNotFound(text)
	}

	unit, ok := nodule.ParseUnit(m[4])
	if !ok {
		return Measurement{}, errMeasurementNotFound(text)
	}

	values := make([]float64, 0, 3)
	for _, group := range m[1:4] {
		if group == "" {
			continue
		}
		v, err := strconv.ParseFloat(group, 64)
		if err != nil || v <= 0 {
			continue
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return Measurement{}, errMeasurementNotFound(text)
	}

	return Measurement{Raw: m[0], Unit: unit, Values: values}, nil
}

func errMeasurementNotFound(text string) error {
	return errors.New(errors.ErrCodeMeasurementNotFound,
		"nodule is referenced but no measurement of 1 to 3 dimensions in mm or cm was found").
		WithDetail(text)
}

//Personal.AI order the ending
