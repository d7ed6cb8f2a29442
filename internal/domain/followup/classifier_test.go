package followup

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/NoduleAdvisor/pkg/types/nodule"
)

var (
	allCompositions = []nodule.Composition{
		nodule.CompositionUnspecified, nodule.CompositionSolid,
		nodule.CompositionGroundGlass, nodule.CompositionPartSolid,
	}
	allMultiplicities = []nodule.Multiplicity{nodule.MultiplicitySingle, nodule.MultiplicityMultiple}
	sampleSizes       = []float64{0.5, 4, 5.99, 6, 7, 8, 8.01, 12, 30}
)

func TestClassify_DecisionTable(t *testing.T) {
	const (
		u = nodule.CompositionUnspecified
		s = nodule.CompositionSolid
		g = nodule.CompositionGroundGlass
		p = nodule.CompositionPartSolid

		one  = nodule.MultiplicitySingle
		many = nodule.MultiplicityMultiple
	)
	tests := []struct {
		c    nodule.Composition
		m    nodule.Multiplicity
		size float64
		want nodule.Category
	}{
		{u, one, 5, 1}, {s, one, 5, 1},
		{u, one, 6, 2}, {s, one, 7.5, 2}, {s, one, 8, 2},
		{u, one, 8.5, 3}, {s, one, 20, 3},
		{u, many, 5.9, 1}, {s, many, 5, 1},
		{u, many, 6, 6}, {s, many, 15, 6},
		{g, many, 5, 7}, {p, many, 5.5, 7},
		{g, many, 6, 8}, {p, many, 15, 8},
		{g, one, 5, 0}, {g, one, 6, 4}, {g, one, 25, 4},
		{p, one, 5.99, 0}, {p, one, 6, 5}, {p, one, 7, 5},
	}
	for _, tt := range tests {
		name := fmt.Sprintf("%s/%s/%v", tt.c, tt.m, tt.size)
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.c, tt.m, tt.size, false))
		})
	}
}

func TestClassify_TotalOverDomain(t *testing.T) {
	for _, c := range allCompositions {
		for _, m := range allMultiplicities {
			for _, size := range sampleSizes {
				for _, calcified := range []bool{false, true} {
					got := Classify(c, m, size, calcified)
					assert.True(t, got.IsValid(), "%s %s %v %v -> %d", c, m, size, calcified, got)
					_, err := Recommendation(got)
					assert.NoError(t, err)
				}
			}
		}
	}
}

func TestClassify_CalcifiedForcesZero(t *testing.T) {
	for _, c := range allCompositions {
		for _, m := range allMultiplicities {
			for _, size := range sampleSizes {
				assert.Equal(t, nodule.Category(0), Classify(c, m, size, true), "%s %s %v", c, m, size)
			}
		}
	}
}

func TestClassify_Boundaries(t *testing.T) {
	single, solid := nodule.MultiplicitySingle, nodule.CompositionSolid

	assert.Equal(t, nodule.Category(1), Classify(solid, single, 5.999, false))
	assert.Equal(t, nodule.Category(2), Classify(solid, single, 6, false), "6 belongs to the 6..8 band")
	assert.Equal(t, nodule.Category(2), Classify(solid, single, 8, false), "8 belongs to the 6..8 band")
	assert.Equal(t, nodule.Category(3), Classify(solid, single, 8.001, false))

	assert.Equal(t, nodule.Category(6), Classify(solid, nodule.MultiplicityMultiple, 6, false))
	assert.Equal(t, nodule.Category(4), Classify(nodule.CompositionGroundGlass, single, 6, false))
	assert.Equal(t, nodule.Category(5), Classify(nodule.CompositionPartSolid, single, 6, false))
	assert.Equal(t, nodule.Category(8), Classify(nodule.CompositionPartSolid, nodule.MultiplicityMultiple, 6, false))
}

//Personal.AI order the ending
