// Package registry loads the component definitions that drive concept
// matching. Definitions are YAML, embedded by default.
package registry

import (
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

// Match types shared by label and local-name rules.
const (
	MatchContains   = "contains"
	MatchStartsWith = "starts_with"
	MatchEndsWith   = "ends_with"
	MatchExact      = "exact"
	MatchRegex      = "regex"
)

// Hierarchy rule types.
const (
	HierarchyParentMatches   = "parent_matches"
	HierarchyChildOfRoot     = "child_of_root"
	HierarchyHasSiblings     = "has_siblings"
	HierarchyDepthLevel      = "depth_level"
	HierarchyPositionOrdinal = "position_ordinal"
)

// Calculation rule types.
const (
	CalcContributesTo = "contributes_to"
	CalcParentOf      = "parent_of"
	CalcHasChildren   = "has_children"
	CalcWeightSign    = "weight_sign"
)

// Tiebreaker strategies.
const (
	TieHighestInHierarchy  = "highest_in_hierarchy"
	TieMostChildren        = "most_children"
	TieExactLabelMatch     = "exact_label_match"
	TieFirstInPresentation = "first_in_presentation"
)

// LabelRule scores its weight once when any pattern matches any label.
type LabelRule struct {
	Patterns      []string `yaml:"patterns" json:"patterns"`
	MatchType     string   `yaml:"match_type" json:"match_type"`
	CaseSensitive bool     `yaml:"case_sensitive" json:"case_sensitive"`
	Weight        int      `yaml:"weight" json:"weight"`
}

// LocalNameRule matches the local part of the concept name.
type LocalNameRule struct {
	Patterns      []string `yaml:"patterns" json:"patterns"`
	MatchType     string   `yaml:"match_type" json:"match_type"`
	CaseSensitive bool     `yaml:"case_sensitive" json:"case_sensitive"`
	Weight        int      `yaml:"weight" json:"weight"`
}

// HierarchyRule matches a position in the presentation tree.
type HierarchyRule struct {
	RuleType string `yaml:"rule_type" json:"rule_type"`
	Pattern  string `yaml:"pattern" json:"pattern,omitempty"`
	Weight   int    `yaml:"weight" json:"weight"`
}

// CalculationRule matches calculation relationships.
type CalculationRule struct {
	RuleType   string   `yaml:"rule_type" json:"rule_type"`
	Pattern    string   `yaml:"pattern" json:"pattern,omitempty"`
	Patterns   []string `yaml:"patterns" json:"patterns,omitempty"`
	MinMatches int      `yaml:"min_matches" json:"min_matches"`
	Weight     int      `yaml:"weight" json:"weight"`
}

// DefinitionRule matches keywords in the definition text.
type DefinitionRule struct {
	Keywords    []string `yaml:"keywords" json:"keywords"`
	AllRequired bool     `yaml:"all_required" json:"all_required"`
	Weight      int      `yaml:"weight" json:"weight"`
}

// MatchingRules groups every rule of a component.
type MatchingRules struct {
	LabelRules       []LabelRule       `yaml:"label_rules" json:"label_rules,omitempty"`
	LocalNameRules   []LocalNameRule   `yaml:"local_name_rules" json:"local_name_rules,omitempty"`
	HierarchyRules   []HierarchyRule   `yaml:"hierarchy_rules" json:"hierarchy_rules,omitempty"`
	CalculationRules []CalculationRule `yaml:"calculation_rules" json:"calculation_rules,omitempty"`
	DefinitionRules  []DefinitionRule  `yaml:"definition_rules" json:"definition_rules,omitempty"`
}

// ConfidenceLevels are score thresholds.
type ConfidenceLevels struct {
	High   int `yaml:"high" json:"high"`
	Medium int `yaml:"medium" json:"medium"`
	Low    int `yaml:"low" json:"low"`
}

// Rejection rejects a candidate outright. Patterns are "abstract=true",
// "label~keyword" or "name~keyword".
type Rejection struct {
	Condition string `yaml:"condition" json:"condition"`
	Pattern   string `yaml:"pattern" json:"pattern"`
}

// Scoring controls match acceptance.
type Scoring struct {
	MinScore         int              `yaml:"min_score" json:"min_score"`
	ConfidenceLevels ConfidenceLevels `yaml:"confidence_levels" json:"confidence_levels"`
	Tiebreaker       string           `yaml:"tiebreaker" json:"tiebreaker"`
	RejectIf         []Rejection      `yaml:"reject_if" json:"reject_if,omitempty"`
}

// Characteristics are intrinsic concept properties used as candidate
// filters.
type Characteristics struct {
	BalanceType string `yaml:"balance_type" json:"balance_type,omitempty"`
	PeriodType  string `yaml:"period_type" json:"period_type,omitempty"`
	IsMonetary  *bool  `yaml:"is_monetary" json:"is_monetary,omitempty"`
	IsAbstract  bool   `yaml:"is_abstract" json:"is_abstract"`
	DataType    string `yaml:"data_type" json:"data_type,omitempty"`
}

// Alternative is a secondary formula for a composite.
type Alternative struct {
	Components []string `yaml:"components" json:"components"`
	Formula    string   `yaml:"formula" json:"formula"`
}

// Composition describes how a component is computed from others.
type Composition struct {
	IsComposite  bool          `yaml:"is_composite" json:"is_composite"`
	Components   []string      `yaml:"components" json:"components,omitempty"`
	Formula      string        `yaml:"formula" json:"formula,omitempty"`
	Alternatives []Alternative `yaml:"alternatives" json:"alternatives,omitempty"`
}

// Component is one abstract financial component, e.g. current_assets.
type Component struct {
	ID              string          `yaml:"component_id" json:"component_id"`
	DisplayName     string          `yaml:"display_name" json:"display_name"`
	Description     string          `yaml:"description" json:"description,omitempty"`
	Category        string          `yaml:"category" json:"category"`
	Subcategory     string          `yaml:"subcategory" json:"subcategory,omitempty"`
	Characteristics Characteristics `yaml:"characteristics" json:"characteristics"`
	MatchingRules   MatchingRules   `yaml:"matching_rules" json:"matching_rules"`
	Scoring         Scoring         `yaml:"scoring" json:"scoring"`
	Composition     Composition     `yaml:"composition" json:"composition"`
}

// HasRules reports whether the component can be matched directly.
func (c *Component) HasRules() bool {
	return len(c.MatchingRules.LabelRules) > 0 || len(c.MatchingRules.LocalNameRules) > 0
}

// Formula returns the primary composition formula, or "".
func (c *Component) Formula() string { return c.Composition.Formula }

// LabelPatterns flattens every label rule pattern.
func (c *Component) LabelPatterns() []string {
	var out []string
	for _, r := range c.MatchingRules.LabelRules {
		out = append(out, r.Patterns...)
	}
	return out
}

// LocalNamePatterns flattens every local-name rule pattern.
func (c *Component) LocalNamePatterns() []string {
	var out []string
	for _, r := range c.MatchingRules.LocalNameRules {
		out = append(out, r.Patterns...)
	}
	return out
}

// MaxScore is the sum of every rule weight.
func (c *Component) MaxScore() int {
	r := c.MatchingRules
	total := 0
	for _, x := range r.LabelRules {
		total += x.Weight
	}
	for _, x := range r.LocalNameRules {
		total += x.Weight
	}
	for _, x := range r.HierarchyRules {
		total += x.Weight
	}
	for _, x := range r.CalculationRules {
		total += x.Weight
	}
	for _, x := range r.DefinitionRules {
		total += x.Weight
	}
	return total
}

var componentID = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

var (
	matchTypes     = set(MatchContains, MatchStartsWith, MatchEndsWith, MatchExact, MatchRegex)
	hierarchyTypes = set(HierarchyParentMatches, HierarchyChildOfRoot, HierarchyHasSiblings, HierarchyDepthLevel, HierarchyPositionOrdinal)
	calcTypes      = set(CalcContributesTo, CalcParentOf, CalcHasChildren, CalcWeightSign)
	tiebreakers    = set(TieHighestInHierarchy, TieMostChildren, TieExactLabelMatch, TieFirstInPresentation)
	balanceTypes   = set("", "debit", "credit", "none")
	periodTypes    = set("", "instant", "duration")
	dataTypes      = set("", "monetary", "shares", "pure", "per_share")
)

func set(vals ...string) map[string]bool {
	m := make(map[string]bool, len(vals))
	for _, v := range vals {
		m[v] = true
	}
	return m
}

// applyDefaults fills the values an omitted YAML key implies.
func (c *Component) applyDefaults() {
	for i := range c.MatchingRules.LabelRules {
		if c.MatchingRules.LabelRules[i].MatchType == "" {
			c.MatchingRules.LabelRules[i].MatchType = MatchContains
		}
	}
	for i := range c.MatchingRules.LocalNameRules {
		if c.MatchingRules.LocalNameRules[i].MatchType == "" {
			c.MatchingRules.LocalNameRules[i].MatchType = MatchContains
		}
	}
	for i := range c.MatchingRules.CalculationRules {
		if c.MatchingRules.CalculationRules[i].MinMatches == 0 {
			c.MatchingRules.CalculationRules[i].MinMatches = 1
		}
	}
	s := &c.Scoring
	if s.MinScore == 0 {
		s.MinScore = 15
	}
	if s.ConfidenceLevels == (ConfidenceLevels{}) {
		s.ConfidenceLevels = ConfidenceLevels{High: 35, Medium: 25, Low: s.MinScore}
	}
	if s.Tiebreaker == "" {
		s.Tiebreaker = TieHighestInHierarchy
	}
	if c.Characteristics.IsMonetary == nil {
		monetary := true
		c.Characteristics.IsMonetary = &monetary
	}
	if c.Characteristics.DataType == "" {
		c.Characteristics.DataType = "monetary"
	}
	if c.Characteristics.BalanceType == "none" {
		c.Characteristics.BalanceType = ""
	}
}

// Validate reports the first structural problem in the definition.
func (c *Component) Validate() error {
	if !componentID.MatchString(c.ID) {
		return eris.Errorf("registry: invalid component_id %q", c.ID)
	}
	if c.DisplayName == "" {
		return eris.Errorf("registry: %s: display_name is required", c.ID)
	}
	if c.Category == "" {
		return eris.Errorf("registry: %s: category is required", c.ID)
	}
	ch := c.Characteristics
	if !balanceTypes[ch.BalanceType] {
		return eris.Errorf("registry: %s: unknown balance_type %q", c.ID, ch.BalanceType)
	}
	if !periodTypes[ch.PeriodType] {
		return eris.Errorf("registry: %s: unknown period_type %q", c.ID, ch.PeriodType)
	}
	if !dataTypes[ch.DataType] {
		return eris.Errorf("registry: %s: unknown data_type %q", c.ID, ch.DataType)
	}

	r := c.MatchingRules
	for _, lr := range r.LabelRules {
		if err := validatePatterns(c.ID, "label", lr.Patterns, lr.MatchType, lr.Weight, 25); err != nil {
			return err
		}
	}
	for _, lr := range r.LocalNameRules {
		if err := validatePatterns(c.ID, "local_name", lr.Patterns, lr.MatchType, lr.Weight, 10); err != nil {
			return err
		}
	}
	for _, hr := range r.HierarchyRules {
		if !hierarchyTypes[hr.RuleType] {
			return eris.Errorf("registry: %s: unknown hierarchy rule_type %q", c.ID, hr.RuleType)
		}
		if err := validateWeight(c.ID, "hierarchy", hr.Weight, 15); err != nil {
			return err
		}
	}
	for _, cr := range r.CalculationRules {
		if !calcTypes[cr.RuleType] {
			return eris.Errorf("registry: %s: unknown calculation rule_type %q", c.ID, cr.RuleType)
		}
		if err := validateWeight(c.ID, "calculation", cr.Weight, 15); err != nil {
			return err
		}
	}
	for _, dr := range r.DefinitionRules {
		if len(dr.Keywords) == 0 {
			return eris.Errorf("registry: %s: definition rule without keywords", c.ID)
		}
		if err := validateWeight(c.ID, "definition", dr.Weight, 10); err != nil {
			return err
		}
	}

	s := c.Scoring
	if !tiebreakers[s.Tiebreaker] {
		return eris.Errorf("registry: %s: unknown tiebreaker %q", c.ID, s.Tiebreaker)
	}
	if s.MinScore < 1 {
		return eris.Errorf("registry: %s: min_score must be positive", c.ID)
	}
	cl := s.ConfidenceLevels
	if cl.Low < 1 || cl.Medium < cl.Low || cl.High < cl.Medium {
		return eris.Errorf("registry: %s: confidence levels must satisfy 1 <= low <= medium <= high", c.ID)
	}
	for _, rj := range s.RejectIf {
		if rj.Pattern != "abstract=true" && !strings.HasPrefix(rj.Pattern, "label~") && !strings.HasPrefix(rj.Pattern, "name~") {
			return eris.Errorf("registry: %s: unknown reject_if pattern %q", c.ID, rj.Pattern)
		}
	}

	comp := c.Composition
	if comp.IsComposite && comp.Formula == "" {
		return eris.Errorf("registry: %s: composite without formula", c.ID)
	}
	if comp.Formula != "" && len(comp.Components) == 0 {
		return eris.Errorf("registry: %s: formula without components", c.ID)
	}
	for _, alt := range comp.Alternatives {
		if alt.Formula == "" || len(alt.Components) == 0 {
			return eris.Errorf("registry: %s: incomplete alternative formula", c.ID)
		}
	}
	if !c.HasRules() && comp.Formula == "" {
		return eris.Errorf("registry: %s: no matching rules and no formula", c.ID)
	}
	return nil
}

func validatePatterns(id, kind string, patterns []string, matchType string, weight, maxWeight int) error {
	if len(patterns) == 0 {
		return eris.Errorf("registry: %s: %s rule without patterns", id, kind)
	}
	if !matchTypes[matchType] {
		return eris.Errorf("registry: %s: unknown %s match_type %q", id, kind, matchType)
	}
	if matchType == MatchRegex {
		for _, p := range patterns {
			if _, err := regexp.Compile(p); err != nil {
				return eris.Wrapf(err, "registry: %s: bad %s regex %q", id, kind, p)
			}
		}
	}
	return validateWeight(id, kind, weight, maxWeight)
}

func validateWeight(id, kind string, weight, maxWeight int) error {
	if weight < 1 || weight > maxWeight {
		return eris.Errorf("registry: %s: %s weight %d outside 1..%d", id, kind, weight, maxWeight)
	}
	return nil
}
