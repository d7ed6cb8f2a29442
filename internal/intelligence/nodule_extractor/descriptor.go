package nodule_extractor

import (
	"strings"

	"github.com/turtacn/NoduleAdvisor/pkg/errors"
	"github.com/turtacn/NoduleAdvisor/pkg/types/nodule"
)

// ---------------------------------------------------------------------------
// Vocabulary
// ---------------------------------------------------------------------------

const (
	nounSingular = "nodule"
	nounPlural   = "nodules"

	tokenSolid       = "solid"
	tokenPart        = "part"
	tokenPartSolid   = "part-solid"
	tokenGround      = "ground"
	tokenGlass       = "glass"
	tokenGroundGlass = "groundglass"
)

var calcifiedTokens = map[string]struct{}{
	"calcified":      {},
	"calcification":  {},
	"calcifications": {},
}

var noncalcifiedTokens = map[string]struct{}{
	"noncalcified":  {},
	"non-calcified": {},
}

// ---------------------------------------------------------------------------
// Token window
// ---------------------------------------------------------------------------

// window is a token together with the token that follows it.  lookahead is
// empty for the last token.
type window struct {
	token     string
	lookahead string
}

// Tokenize strips one trailing period, removes commas and splits on
// whitespace.  Tokens are lower-cased.
func Tokenize(sentence string) []string {
	s := strings.TrimSuffix(sentence, ".")
	s = strings.ReplaceAll(s, ",", "")
	tokens := strings.Fields(s)
	for i, tok := range tokens {
		tokens[i] = strings.ToLower(tok)
	}
	return tokens
}

func windows(tokens []string) []window {
	out := make([]window, len(tokens))
	for i, tok := range tokens {
		out[i].token = tok
		if i+1 < len(tokens) {
			out[i].lookahead = tokens[i+1]
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Transitions
// ---------------------------------------------------------------------------

// scanState accumulates the descriptor attributes while tokens are folded.
type scanState struct {
	multiplicity nodule.Multiplicity
	composition  nodule.Composition
	calcified    bool
}

func initialState() scanState {
	return scanState{
		multiplicity: nodule.MultiplicitySingle,
		composition:  nodule.CompositionUnspecified,
	}
}

// nextComposition applies the composition rules to one window.  It reports
// whether the lookahead token has been consumed by a "part solid" bigram.
func nextComposition(c nodule.Composition, w window) (nodule.Composition, bool) {
	if c == nodule.CompositionPartSolid {
		// Absorbing; a "part solid" bigram still swallows its second token.
		return c, w.token == tokenPart && w.lookahead == tokenSolid
	}

	switch {
	case w.token == tokenPart && w.lookahead == tokenSolid:
		return nodule.CompositionPartSolid, true
	case w.token == tokenPartSolid:
		return nodule.CompositionPartSolid, false
	case w.token == tokenSolid:
		switch c {
		case nodule.CompositionUnspecified:
			return nodule.CompositionSolid, false
		case nodule.CompositionGroundGlass:
			return nodule.CompositionPartSolid, false
		}
	case w.token == tokenGroundGlass, w.token == tokenGround && w.lookahead == tokenGlass:
		switch c {
		case nodule.CompositionUnspecified:
			return nodule.CompositionGroundGlass, false
		case nodule.CompositionSolid:
			return nodule.CompositionPartSolid, false
		}
	}
	return c, false
}

// step folds one window into the state.  Every rule is evaluated against the
// same token.
func step(s scanState, w window) (scanState, bool) {
	if strings.Contains(w.token, nounPlural) {
		s.multiplicity = nodule.MultiplicityMultiple
	}

	var consumed bool
	s.composition, consumed = nextComposition(s.composition, w)

	if _, ok := calcifiedTokens[w.token]; ok {
		s.calcified = true
	} else if _, ok := noncalcifiedTokens[w.token]; ok {
		s.calcified = false
	}
	return s, consumed
}

// scan folds the tokens of a sentence left to right.
func scan(tokens []string) scanState {
	s := initialState()
	ws := windows(tokens)
	for i := 0; i < len(ws); i++ {
		var consumed bool
		s, consumed = step(s, ws[i])
		if consumed {
			i++
		}
	}
	return s
}

// ReferencesNodule reports whether text mentions a nodule in singular or
// plural form, ignoring case.
func ReferencesNodule(text string) bool {
	return strings.Contains(strings.ToLower(text), nounSingular)
}

func errNotANoduleReference(text string) error {
	return errors.New(errors.ErrCodeNotANoduleReference, "text does not reference a nodule").
		WithDetail(text)
}

//Personal.AI order the ending
