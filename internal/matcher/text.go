package matcher

import (
	"regexp"
	"strings"
	"sync"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/registry"
)

var punctuation = strings.NewReplacer(`'`, "", `"`, "", ",", "", "(", "", ")", "", "-", "")

// normalize strips punctuation and collapses whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(punctuation.Replace(s)), " ")
}

// patternCache holds compiled regex and wildcard patterns. Rules are shared
// across filings so the cache is process-wide.
var patternCache sync.Map

func compiled(expr string) *regexp.Regexp {
	if re, ok := patternCache.Load(expr); ok {
		return re.(*regexp.Regexp)
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		// Registry validation compiles every regex; a failure here means
		// an unvalidated rule, which never matches.
		re = regexp.MustCompile(`[^\s\S]`)
	}
	patternCache.Store(expr, re)
	return re
}

// matchText applies one rule pattern. Labels compare exact matches on
// normalized text while local names compare them verbatim.
func matchText(text, pattern, matchType string, caseSensitive, isLabel bool) bool {
	if matchType == registry.MatchRegex {
		expr := pattern
		if !caseSensitive {
			expr = "(?i)" + expr
		}
		return compiled(expr).MatchString(text)
	}

	if matchType == registry.MatchExact && !isLabel {
		if caseSensitive {
			return text == pattern
		}
		return strings.EqualFold(text, pattern)
	}

	t, p := normalize(text), normalize(pattern)
	if !caseSensitive {
		t, p = strings.ToLower(t), strings.ToLower(p)
	}
	if p == "" {
		return false
	}
	switch matchType {
	case registry.MatchStartsWith:
		return strings.HasPrefix(t, p)
	case registry.MatchEndsWith:
		return strings.HasSuffix(t, p)
	case registry.MatchExact:
		return t == p
	default:
		return strings.Contains(t, p)
	}
}

// wildcard matches s against a pattern where "*" spans any run of
// characters. Without "*" the match is exact. Both sides are lowercased.
func wildcard(s, pattern string) bool {
	s, pattern = strings.ToLower(s), strings.ToLower(pattern)
	if !strings.Contains(pattern, "*") {
		return s == pattern
	}
	parts := strings.Split(pattern, "*")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return compiled("^" + strings.Join(parts, ".*") + "$").MatchString(s)
}

// excludedFragments mark narrative or tabular concepts that never carry a
// component value.
var excludedFragments = []string{"textblock", "schedule", "explanatory", "disclosure", "policies"}

func excludedLocalName(local string) bool {
	l := strings.ToLower(local)
	if strings.HasSuffix(l, "table") || strings.HasSuffix(l, "tableabstract") {
		return true
	}
	for _, f := range excludedFragments {
		if strings.Contains(l, f) {
			return true
		}
	}
	return false
}
