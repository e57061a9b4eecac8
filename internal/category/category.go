// Package category assigns topical labels to HR documents and queries from
// keyword signals.
package category

import "strings"

// Labels outside the keyword rules.
const (
	General = "general"
	Unknown = "unknown"
	Error   = "error"
)

// contentThreshold is the number of keyword occurrence hits a category
// needs before it wins a content scan.
const contentThreshold = 2

// Classifier assigns a category label to a document or query. An empty
// filename skips the filename hint and scans content only.
type Classifier interface {
	Classify(filename, text string) string
}

type rule struct {
	label    string
	keywords []string
}

// rules are evaluated in this fixed order so threshold ties resolve
// deterministically.
var rules = []rule{
	{"benefits", []string{"benefit", "insurance", "health", "dental", "vision", "401k", "retirement"}},
	{"leave-policies", []string{"leave", "vacation", "pto", "sick", "maternity", "paternity", "fmla"}},
	{"work-policies", []string{"remote", "work from home", "wfh", "flexible", "schedule", "attendance"}},
	{"performance", []string{"performance", "review", "evaluation", "appraisal", "feedback", "goals"}},
	{"conduct", []string{"conduct", "behavior", "harassment", "discrimination", "ethics", "compliance"}},
	{"compensation", []string{"salary", "wage", "pay", "compensation", "bonus", "raise", "promotion"}},
}

// KeywordClassifier matches fixed keyword lists against the filename and
// the document text. It is not semantically robust ("pay" matches inside
// unrelated words); it sits behind the Classifier interface so an
// embedding-based classifier can replace it without touching callers.
type KeywordClassifier struct{}

// NewKeywordClassifier creates a keyword-list classifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

// Classify returns the category for the given document. The filename hint
// is authoritative: the first rule with a keyword appearing in the
// lower-cased filename wins without scanning content. Otherwise the first
// rule whose keywords occur at least twice in the text wins, counting
// repeated occurrences of the same keyword. No rule reaching the
// threshold yields "general".
func (c *KeywordClassifier) Classify(filename, text string) string {
	if filename != "" {
		lower := strings.ToLower(filename)
		for _, r := range rules {
			for _, kw := range r.keywords {
				if strings.Contains(lower, kw) {
					return r.label
				}
			}
		}
	}

	lower := strings.ToLower(text)
	for _, r := range rules {
		hits := 0
		for _, kw := range r.keywords {
			hits += strings.Count(lower, kw)
		}
		if hits >= contentThreshold {
			return r.label
		}
	}
	return General
}

// Labels returns the closed label set in evaluation order, without the
// "general" fallback.
func Labels() []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.label
	}
	return out
}
