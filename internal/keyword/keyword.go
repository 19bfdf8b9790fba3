// Package keyword compiles curated keyword lists into a single
// case-insensitive matcher.
//
// Keywords fall into three classes with different boundary rules:
//   - CJK terms ("心脏病") match as literal substrings; CJK text has no
//     word boundaries, so none are imposed.
//   - Short or acronym-like Latin tokens ("MI", "CAD") are anchored with
//     word boundaries so they never match inside unrelated words
//     ("MI" must not hit "Miami").
//   - Multi-word phrases ("heart failure") tolerate any run of
//     whitespace between tokens but keep token order, anchored at both
//     ends.
package keyword

import (
	"regexp"
	"strings"
	"unicode"
)

// Matcher is a compiled keyword pattern. The zero value is unusable;
// build one with Build.
type Matcher struct {
	re       *regexp.Regexp
	keywords []string
}

// matchNothing is an empty character class: it can never match any
// input, including the empty string. RE2 has no lookahead, so this
// stands in for a negative-lookahead "match nothing" pattern.
const matchNothing = `[^\x00-\x{10FFFF}]`

// Build cleans the given keywords (trimming whitespace, dropping
// empties) and compiles them into one case-insensitive alternation.
// It returns the matcher and the cleaned keyword list. An empty
// cleaned list yields a matcher that never matches anything.
func Build(keywords []string) (*Matcher, []string) {
	cleaned := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			cleaned = append(cleaned, kw)
		}
	}
	if len(cleaned) == 0 {
		return &Matcher{re: regexp.MustCompile(matchNothing)}, nil
	}

	parts := make([]string, 0, len(cleaned))
	for _, kw := range cleaned {
		parts = append(parts, subpattern(kw))
	}
	re := regexp.MustCompile(`(?i)(` + strings.Join(parts, "|") + `)`)
	return &Matcher{re: re, keywords: cleaned}, cleaned
}

// Keywords returns the cleaned keywords the matcher was built from.
func (m *Matcher) Keywords() []string { return m.keywords }

// Find returns up to maxHits matched substrings of text, verbatim in
// their original casing, in order of appearance.
func (m *Matcher) Find(text string, maxHits int) []string {
	if maxHits <= 0 || text == "" {
		return nil
	}
	raw := m.re.FindAllString(text, maxHits)
	if len(raw) == 0 {
		return nil
	}
	return raw
}

// Match reports whether text contains at least one keyword.
func (m *Matcher) Match(text string) bool {
	return m.re.MatchString(text)
}

// subpattern builds the per-keyword regexp fragment according to the
// keyword's class.
func subpattern(kw string) string {
	if containsCJK(kw) {
		return regexp.QuoteMeta(kw)
	}
	if isAlphanumeric(kw) && (len(kw) <= 3 || isUpperAcronym(kw)) {
		return `\b` + regexp.QuoteMeta(kw) + `\b`
	}
	tokens := strings.Fields(kw)
	if len(tokens) > 1 {
		quoted := make([]string, len(tokens))
		for i, tok := range tokens {
			quoted[i] = regexp.QuoteMeta(tok)
		}
		return `\b` + strings.Join(quoted, `\s+`) + `\b`
	}
	return regexp.QuoteMeta(kw)
}

func containsCJK(s string) bool {
	for _, r := range s {
		if r >= 0x4E00 && r <= 0x9FFF {
			return true
		}
	}
	return false
}

func isAlphanumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// isUpperAcronym reports whether s is fully uppercase with at least one
// letter ("CAD", "A2B").
func isUpperAcronym(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}
