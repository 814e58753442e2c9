// Package concept builds the per-filing index of reported concepts and
// parses their qualified names.
package concept

import (
	"strings"
	"unicode"
)

// QName is a parsed qualified concept name.
type QName struct {
	Namespace string
	Prefix    string
	Local     string
}

// Key returns the normalized index key: prefix:Local, or Local alone.
func (q QName) Key() string {
	if q.Prefix == "" {
		return q.Local
	}
	return q.Prefix + ":" + q.Local
}

var namespacePrefixes = []struct {
	marker string
	prefix string
}{
	{"fasb.org/us-gaap", "us-gaap"},
	{"xbrl.ifrs.org", "ifrs-full"},
	{"xbrl.sec.gov/dei", "dei"},
	{"fasb.org/srt", "srt"},
	{"xbrl.frc.org.uk/fr", "uk-gaap"},
	{"xbrl.frc.org.uk/core", "uk-core"},
}

// ParseQName parses Clark notation {ns}Local, prefixed ns:Local,
// underscore ns_Local (split only at the last underscore followed by an
// uppercase letter) and bare local names.
func ParseQName(s string) QName {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "{") {
		if end := strings.IndexByte(s, '}'); end > 0 {
			ns := s[1:end]
			return QName{Namespace: ns, Prefix: prefixFor(ns), Local: s[end+1:]}
		}
	}
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return QName{Prefix: s[:i], Local: s[i+1:]}
	}
	if prefix, local, ok := splitUnderscore(s); ok {
		return QName{Prefix: prefix, Local: local}
	}
	return QName{Local: s}
}

func prefixFor(ns string) string {
	for _, np := range namespacePrefixes {
		if strings.Contains(ns, np.marker) {
			return np.prefix
		}
	}
	return ""
}

// splitUnderscore splits at the last underscore whose tail starts with an
// uppercase letter.
func splitUnderscore(s string) (string, string, bool) {
	i := strings.LastIndexByte(s, '_')
	if i <= 0 || i == len(s)-1 {
		return "", "", false
	}
	tail := s[i+1:]
	if !unicode.IsUpper(rune(tail[0])) {
		return "", "", false
	}
	return s[:i], tail, true
}

// NormalizeKey returns the index key for any accepted qname form.
func NormalizeKey(s string) string {
	return ParseQName(s).Key()
}

// LocalName returns the local part of a concept name in any accepted form.
func LocalName(s string) string {
	return ParseQName(s).Local
}

// AlternateKey swaps the separator of a prefixed or underscore qname:
// "us-gaap:Assets" <-> "us-gaap_Assets". Returns "" for bare names.
func AlternateKey(s string) string {
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[:i] + "_" + s[i+1:]
	}
	if prefix, local, ok := splitUnderscore(s); ok {
		return prefix + ":" + local
	}
	return ""
}
