// Package nodule defines the data types shared by every layer of NoduleAdvisor:
// the descriptor extracted from a report sentence, the follow-up result built
// from it, and the enumerations they use.  No extraction or classification
// logic lives here.
package nodule

import (
	"fmt"
	"strconv"
	"strings"
)

// ─────────────────────────────────────────────────────────────────────────────
// Multiplicity
// ─────────────────────────────────────────────────────────────────────────────

// Multiplicity records whether the sentence describes one nodule or several.
type Multiplicity string

const (
	MultiplicitySingle   Multiplicity = "SINGLE"
	MultiplicityMultiple Multiplicity = "MULTIPLE"
)

// IsValid reports whether m is a known multiplicity.
func (m Multiplicity) IsValid() bool {
	return m == MultiplicitySingle || m == MultiplicityMultiple
}

// ─────────────────────────────────────────────────────────────────────────────
// Composition
// ─────────────────────────────────────────────────────────────────────────────

// Composition is the tissue character of a nodule.
type Composition string

const (
	CompositionUnspecified Composition = "UNSPECIFIED"
	CompositionSolid       Composition = "SOLID"
	CompositionGroundGlass Composition = "GROUND_GLASS"
	CompositionPartSolid   Composition = "PART_SOLID"
)

// IsValid reports whether c is a known composition.
func (c Composition) IsValid() bool {
	switch c {
	case CompositionUnspecified, CompositionSolid, CompositionGroundGlass, CompositionPartSolid:
		return true
	}
	return false
}

// IsSubsolid reports whether the composition has a ground-glass component.
func (c Composition) IsSubsolid() bool {
	return c == CompositionGroundGlass || c == CompositionPartSolid
}

// ─────────────────────────────────────────────────────────────────────────────
// Unit
// ─────────────────────────────────────────────────────────────────────────────

// Unit is the length unit a measurement was reported in.
type Unit string

const (
	UnitMM Unit = "mm"
	UnitCM Unit = "cm"
)

// IsValid reports whether u is a supported unit.
func (u Unit) IsValid() bool {
	return u == UnitMM || u == UnitCM
}

// ParseUnit maps a unit token of any case to a Unit.
func ParseUnit(s string) (Unit, bool) {
	switch Unit(strings.ToLower(s)) {
	case UnitMM:
		return UnitMM, true
	case UnitCM:
		return UnitCM, true
	}
	return "", false
}

// ToMillimeters converts v expressed in u to millimeters.
func (u Unit) ToMillimeters(v float64) float64 {
	if u == UnitCM {
		return v * 10
	}
	return v
}

// ─────────────────────────────────────────────────────────────────────────────
// Category
// ─────────────────────────────────────────────────────────────────────────────

// Category indexes a guideline follow-up recommendation.
type Category int

const (
	MinCategory Category = 0
	MaxCategory Category = 8
)

// IsValid reports whether c lies in the guideline range.
func (c Category) IsValid() bool {
	return c >= MinCategory && c <= MaxCategory
}

func (c Category) String() string {
	return strconv.Itoa(int(c))
}

// ParseCategory parses a decimal category code.
func ParseCategory(s string) (Category, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("category %q is not an integer", s)
	}
	c := Category(n)
	if !c.IsValid() {
		return 0, fmt.Errorf("category %d outside %d..%d", n, MinCategory, MaxCategory)
	}
	return c, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Descriptor
// ─────────────────────────────────────────────────────────────────────────────

// Descriptor is the structured finding read from one sentence.  Values are
// produced by the extractor and never modified afterwards.
type Descriptor struct {
	Multiplicity       Multiplicity `json:"multiplicity"`
	Composition        Composition  `json:"composition"`
	Calcified          bool         `json:"calcified"`
	RawMeasurementText string       `json:"raw_measurement_text"`
	Unit               Unit         `json:"unit"`
	// Measurements holds 1 to 3 values in Unit, in sentence order.
	Measurements []float64 `json:"measurements"`
}

// MeasurementValues returns a copy of the captured measurements.
func (d Descriptor) MeasurementValues() []float64 {
	out := make([]float64, len(d.Measurements))
	copy(out, d.Measurements)
	return out
}

// Validate checks the descriptor invariants.
func (d Descriptor) Validate() error {
	if !d.Multiplicity.IsValid() {
		return fmt.Errorf("invalid multiplicity %q", d.Multiplicity)
	}
	if !d.Composition.IsValid() {
		return fmt.Errorf("invalid composition %q", d.Composition)
	}
	if !d.Unit.IsValid() {
		return fmt.Errorf("invalid unit %q", d.Unit)
	}
	if n := len(d.Measurements); n < 1 || n > 3 {
		return fmt.Errorf("expected 1 to 3 measurements, got %d", n)
	}
	for _, v := range d.Measurements {
		if v <= 0 {
			return fmt.Errorf("measurement %v is not positive", v)
		}
	}
	return nil
}

// CalcificationLabel renders the calcification state for display.
func (d Descriptor) CalcificationLabel() string {
	if d.Calcified {
		return "calcified"
	}
	return "noncalcified"
}

// ─────────────────────────────────────────────────────────────────────────────
// Result
// ─────────────────────────────────────────────────────────────────────────────

// Result is the outcome of classifying one sentence.
type Result struct {
	Descriptor     Descriptor `json:"descriptor"`
	SizeMM         float64    `json:"size_mm"`
	Category       Category   `json:"category"`
	Recommendation string     `json:"recommendation"`
}

// Summary renders the result as the multi-line block shown to a reader before
// the recommendation is pasted into a report.
func (r Result) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Nodule:         %s, %s, %s\n",
		r.Descriptor.Multiplicity, r.Descriptor.Composition, r.Descriptor.CalcificationLabel())
	fmt.Fprintf(&sb, "Measurement:    %s\n", r.Descriptor.RawMeasurementText)
	fmt.Fprintf(&sb, "Size:           %s mm\n", FormatSize(r.SizeMM))
	fmt.Fprintf(&sb, "Category:       %d\n", r.Category)
	fmt.Fprintf(&sb, "Recommendation: %s\n", r.Recommendation)
	return sb.String()
}

// FormatSize prints a size without trailing zeros ("7.5", "15").
func FormatSize(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

//Personal.AI order the ending
