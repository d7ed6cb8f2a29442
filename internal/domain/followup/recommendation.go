package followup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/turtacn/NoduleAdvisor/pkg/errors"
	"github.com/turtacn/NoduleAdvisor/pkg/types/nodule"
)

// recommendations is indexed by category.  The wording is reproduced verbatim
// in reports and must not be edited.
var recommendations = [...]string{
	0: "No routine follow-up is indicated.",
	1: "If the patient carries a high risk for lung cancer, consider follow-up CT in 12 months.",
	2: "CT in 6-12 months. If the patient carries a high risk for lung cancer, recommend additional CT at 18-24 months.",
	3: "CT at 3 months, PET/CT, or tissue sampling.",
	4: "CT in 6-12 months to confirm persistence, then CT every 2 years until 5 years.",
	5: "CT in 3-6 months to confirm persistence. If unchanged and solid component remains <6mm, annual CT should be performed for 5 years.",
	6: "CT in 3-6 months. If the patient carries a high risk for lung cancer, recommend additional CT at 18-24 months.",
	7: "CT in 3-6 months. If stable, consider CT at 2 and 4 years.",
	8: "CT in 3-6 months. Subsequent management based on the most suspicious nodule.",
}

// CategoryRecommendation pairs a category with its recommendation text.
type CategoryRecommendation struct {
	Category       nodule.Category `json:"category"`
	Recommendation string          `json:"recommendation"`
}

// Recommendation returns the follow-up text for a category.
func Recommendation(c nodule.Category) (string, error) {
	if !c.IsValid() {
		return "", errors.New(errors.ErrCodeCategoryOutOfRange, "category out of range").
			WithDetail(fmt.Sprintf("category=%d", c))
	}
	return recommendations[c], nil
}

// Recommendations lists every category in ascending order.
func Recommendations() []CategoryRecommendation {
	out := make([]CategoryRecommendation, 0, len(recommendations))
	for i, text := range recommendations {
		out = append(out, CategoryRecommendation{Category: nodule.Category(i), Recommendation: text})
	}
	return out
}

// decisionTableRevision is bumped whenever size resolution or the category
// table changes.
const decisionTableRevision = 1

var rulesVersion = rulesFingerprint(decisionTableRevision, recommendations[:])

func rulesFingerprint(revision int, texts []string) string {
	h := sha256.New()
	for _, text := range texts {
		h.Write([]byte(text))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("r%d-%s", revision, hex.EncodeToString(h.Sum(nil))[:8])
}

// RulesVersion identifies the decision table and recommendation wording.
// Stored results computed under another version must not be reused.
func RulesVersion() string {
	return rulesVersion
}

//Personal.AI order the ending
