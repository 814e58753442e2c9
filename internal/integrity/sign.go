// Package integrity checks extracted values for sign consistency,
// cross-source agreement and accounting identities.
package integrity

import (
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/concept"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/ixbrl"
)

// Sign expectation buckets.
const (
	ExpectMustPositive      = "must be positive"
	ExpectBidirectional     = "positive or negative"
	ExpectTypicallyPositive = "typically positive"
)

// SignCheck is the sign validation of one fact.
type SignCheck struct {
	Concept    string  `json:"concept"`
	Value      float64 `json:"value"`
	Expected   string  `json:"expected_sign"`
	Actual     string  `json:"actual_sign"`
	Consistent bool    `json:"consistent"`
	Note       string  `json:"note,omitempty"`
}

// SignSummary aggregates sign checks.
type SignSummary struct {
	Total      int         `json:"total_checked"`
	Consistent int         `json:"consistent"`
	Anomalies  []SignCheck `json:"anomalies"`
}

func patterns(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile("(?i)" + e)
	}
	return out
}

var (
	mustPositive = patterns(
		`^Assets$`,
		`^AssetsCurrent$`,
		`^AssetsNoncurrent$`,
		`^Liabilities$`,
		`^LiabilitiesCurrent$`,
		`Shares.*Outstanding`,
		`NumberOf.*Shares`,
	)
	bidirectional = patterns(
		`(Profit|Loss|Income)`,
		`Earnings`,
		`Comprehensive`,
		`RetainedEarnings|AccumulatedDeficit`,
		`Equity|NetAssets`,
		`OtherComprehensive`,
		`GainLoss|GainOrLoss`,
	)
	typicallyPositive = patterns(
		`^Revenue`,
		`^Turnover`,
		`CostOf(Goods|Revenue)`,
		`^Inventory`,
		`^Cash(AndCash)?Equiv`,
		`^AccountsReceivable`,
		`^AccountsPayable`,
		`Depreciation`,
		`Amortisation|Amortization`,
		`InterestExpense`,
		`PropertyPlantAndEquipment`,
	)
)

// AnalyzeSigns classifies each fact by its local name and checks the
// value against the bucket's sign expectation. Unclassified concepts
// produce no check.
func AnalyzeSigns(facts []ixbrl.VerifiedFact) []SignCheck {
	var checks []SignCheck
	anomalies := 0
	for _, f := range facts {
		c, ok := checkSign(f)
		if !ok {
			continue
		}
		if !c.Consistent {
			anomalies++
			zap.L().Debug("integrity: sign anomaly",
				zap.String("concept", c.Concept),
				zap.Float64("value", c.Value),
				zap.String("expected", c.Expected),
			)
		}
		checks = append(checks, c)
	}
	if anomalies > 0 {
		zap.L().Warn("integrity: sign anomalies found",
			zap.Int("anomalies", anomalies),
			zap.Int("checked", len(checks)),
		)
	} else {
		zap.L().Info("integrity: signs consistent", zap.Int("checked", len(checks)))
	}
	return checks
}

func checkSign(f ixbrl.VerifiedFact) (SignCheck, bool) {
	local := concept.LocalName(f.Concept)
	if local == "" {
		return SignCheck{}, false
	}
	c := SignCheck{Concept: f.Concept, Value: f.Value, Actual: "positive", Consistent: true}
	if f.Value < 0 {
		c.Actual = "negative"
	}

	switch {
	case matchesAny(local, mustPositive):
		c.Expected = ExpectMustPositive
		c.Consistent = f.Value >= 0
		if !c.Consistent {
			c.Note = fmt.Sprintf("%s: negative total is anomalous", local)
		}
	case matchesAny(local, bidirectional):
		c.Expected = ExpectBidirectional
		if f.Value < 0 {
			c.Note = "loss/deficit (valid)"
		}
	case matchesAny(local, typicallyPositive):
		c.Expected = ExpectTypicallyPositive
		c.Consistent = f.Value >= 0
		if !c.Consistent {
			c.Note = fmt.Sprintf("%s: unexpected negative", local)
		}
	default:
		return SignCheck{}, false
	}
	return c, true
}

func matchesAny(name string, list []*regexp.Regexp) bool {
	for _, re := range list {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// SummarizeSigns counts consistent checks and lists the anomalies.
func SummarizeSigns(checks []SignCheck) SignSummary {
	s := SignSummary{Total: len(checks)}
	for _, c := range checks {
		if c.Consistent {
			s.Consistent++
			continue
		}
		s.Anomalies = append(s.Anomalies, c)
	}
	return s
}
