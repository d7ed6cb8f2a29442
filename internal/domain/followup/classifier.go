package followup

import (
	"github.com/turtacn/NoduleAdvisor/pkg/types/nodule"
)

// Size thresholds in millimeters.
const (
	smallBelowMM = 6.0
	mediumUpToMM = 8.0
)

// Classify evaluates the follow-up decision table.  Calcification forces
// category 0 after the table has been evaluated.
func Classify(composition nodule.Composition, multiplicity nodule.Multiplicity, sizeMM float64, calcified bool) nodule.Category {
	category := lookup(composition, multiplicity, sizeMM)
	if calcified {
		return 0
	}
	return category
}

func lookup(composition nodule.Composition, multiplicity nodule.Multiplicity, s float64) nodule.Category {
	small := s < smallBelowMM

	if multiplicity == nodule.MultiplicityMultiple {
		if composition.IsSubsolid() {
			if small {
				return 7
			}
			return 8
		}
		if small {
			return 1
		}
		return 6
	}

	switch composition {
	case nodule.CompositionGroundGlass:
		if small {
			return 0
		}
		return 4
	case nodule.CompositionPartSolid:
		if small {
			return 0
		}
		return 5
	default:
		switch {
		case small:
			return 1
		case s <= mediumUpToMM:
			return 2
		default:
			return 3
		}
	}
}

//Personal.AI order the ending
