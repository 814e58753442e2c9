package matcher

import (
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/registry"
)

// aggregate sums the positive evaluator scores. An exact local-name match
// is never below the acceptance threshold.
func aggregate(ev evaluation, minScore int) (total, contributing int) {
	for _, s := range ev.breakdown {
		if s > 0 {
			total += s
			contributing++
		}
	}
	if ev.exactLocal && total < minScore {
		total = minScore
	}
	return total, contributing
}

var levels = []Confidence{ConfidenceNone, ConfidenceLow, ConfidenceMedium, ConfidenceHigh}

func rank(c Confidence) int {
	for i, l := range levels {
		if l == c {
			return i
		}
	}
	return 0
}

// confidence grades a score. Broad agreement between evaluators raises the
// grade; a label-only match lowers it.
func confidence(score int, ev evaluation, cl registry.ConfidenceLevels) Confidence {
	base := ConfidenceNone
	switch {
	case score >= cl.High:
		base = ConfidenceHigh
	case score >= cl.Medium:
		base = ConfidenceMedium
	case score >= cl.Low:
		base = ConfidenceLow
	}
	if base == ConfidenceNone {
		return base
	}

	contributing := 0
	labelOnly := true
	for name, s := range ev.breakdown {
		if s <= 0 {
			continue
		}
		contributing++
		if name != EvalLabel {
			labelOnly = false
		}
	}

	r := rank(base)
	switch {
	case contributing >= 4 && r < len(levels)-1:
		r++
	case contributing == 1 && labelOnly && r > 1:
		r--
	}
	return levels[r]
}

// tiebreak picks the winner among equally scored matches. Unknown
// strategies keep the first.
func tiebreak(strategy string, tied []ScoredMatch) int {
	best := 0
	switch strategy {
	case registry.TieHighestInHierarchy:
		for i, m := range tied {
			if m.level < tied[best].level {
				best = i
			}
		}
	case registry.TieMostChildren:
		for i, m := range tied {
			if m.children > tied[best].children {
				best = i
			}
		}
	case registry.TieExactLabelMatch:
		for i, m := range tied {
			if m.ExactLabel {
				return i
			}
		}
	case registry.TieFirstInPresentation:
		for i, m := range tied {
			if m.order < tied[best].order {
				best = i
			}
		}
	}
	return best
}
