package evaluator

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// maxEditDistance bounds how far a misspelling may be from its suggestion.
const maxEditDistance = 2

// closestName returns the candidate most likely meant by target, or "".
func closestName(target string, candidates []string) string {
	if target == "" || len(candidates) == 0 {
		return ""
	}

	// Abbreviations such as "prn" for "println".
	ranks := fuzzy.RankFindFold(target, candidates)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}

	// Typos such as "pirnt".
	best, bestDist := "", maxEditDistance+1
	for _, c := range candidates {
		if d := fuzzy.LevenshteinDistance(target, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// suggestion renders a "did you mean" hint for an unknown operator.
func (e *Evaluator) suggestion(name string) string {
	candidates := append(e.opts.Registry.Names(), e.chain.Visible()...)
	if match := closestName(name, candidates); match != "" && match != name {
		return "did you mean '" + match + "'?"
	}
	return ""
}
