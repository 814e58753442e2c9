package verify

import (
	"fmt"
	"math"
	"strings"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/concept"
)

// qualification is the outcome of the name-based check.
type qualification struct {
	ok      bool
	penalty float64
	reason  string
}

// qualify checks that a concept name carries no qualifier contradicting
// the component. Definitive matches are never questioned.
func qualify(component, qname string, confidence float64) qualification {
	if confidence >= 100 {
		return qualification{ok: true}
	}
	local := strings.ToLower(concept.LocalName(qname))

	for _, marker := range supplementalMarkers {
		if strings.Contains(local, marker) {
			return qualification{reason: "supplemental disclosure concept (" + marker + ")"}
		}
	}

	if noncurrentComponents[component] && !hasNoncurrentMarker(local) && strings.HasSuffix(local, "current") {
		return qualification{reason: "current portion matched to a noncurrent component"}
	}

	q := qualification{ok: true}
	if balanceSheetComponents[component] && strings.Contains(local, "increasedecrease") {
		q.penalty = changePenalty
		q.reason = "period change concept for a balance-sheet component"
	}
	return q
}

func hasNoncurrentMarker(local string) bool {
	for _, m := range noncurrentMarkers {
		if strings.Contains(local, m) {
			return true
		}
	}
	return false
}

// signNote describes a negative value for a component that is normally
// positive, or returns "".
func signNote(component string, value float64) string {
	if PositiveComponents[component] && value < 0 {
		return fmt.Sprintf("%s is negative (%g)", component, value)
	}
	return ""
}

// plausibility lists every magnitude rule the value breaks. values holds
// the other components; missing or zero references are skipped.
func plausibility(component string, value float64, values map[string]*float64) []string {
	var failures []string

	for _, b := range RatioBounds {
		if b.Component != component {
			continue
		}
		ref, ok := values[b.Reference]
		if !ok || ref == nil || *ref == 0 {
			continue
		}
		r := math.Abs(value) / math.Abs(*ref)
		if r < b.Min {
			failures = append(failures, fmt.Sprintf("%s/%s = %.4g below %g", component, b.Reference, r, b.Min))
		}
		if b.Max > 0 && r > b.Max {
			failures = append(failures, fmt.Sprintf("%s/%s = %.4g above %g", component, b.Reference, r, b.Max))
		}
	}

	for _, s := range SubsetRules {
		if s.Child != component {
			continue
		}
		parent, ok := values[s.Parent]
		if !ok || parent == nil {
			continue
		}
		if math.Abs(value) > math.Abs(*parent)*SubsetSlack {
			failures = append(failures, fmt.Sprintf("%s (%g) exceeds %s (%g)", component, value, s.Parent, *parent))
		}
	}
	return failures
}
