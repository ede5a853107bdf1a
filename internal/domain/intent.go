package domain

import "fmt"

// Intent is a coarse category of user request used to optionally restrict
// which corpus sources are considered. The set is closed: adding a category
// means adding a constant here and a rule in BranchRules.
type Intent int

const (
	IntentOther Intent = iota
	IntentMigration
	IntentPricing
	IntentSupport
)

var intentNames = map[Intent]string{
	IntentOther:     "other",
	IntentMigration: "migration",
	IntentPricing:   "pricing",
	IntentSupport:   "support",
}

func (i Intent) String() string {
	if name, ok := intentNames[i]; ok {
		return name
	}
	return "other"
}

// ParseIntent maps a label back to an Intent. Unknown labels map to
// IntentOther rather than failing, since intent only narrows retrieval.
func ParseIntent(label string) Intent {
	for intent, name := range intentNames {
		if name == label {
			return intent
		}
	}
	return IntentOther
}

// Intents returns all defined intents in a stable order.
func Intents() []Intent {
	return []Intent{IntentOther, IntentMigration, IntentPricing, IntentSupport}
}

// BranchRule restricts candidates for one intent. An empty IncludeTagPrefixes
// list means no tag restriction (permissive). ExcludeKeywords removes
// candidates whose text contains any of the keywords, case-insensitively.
type BranchRule struct {
	IncludeTagPrefixes []string
	ExcludeKeywords    []string
}

// Permissive reports whether the rule performs no tag filtering.
func (r BranchRule) Permissive() bool {
	return len(r.IncludeTagPrefixes) == 0
}

// BranchRules maps each intent to its filter rule. Intents without an entry
// fall back to a permissive rule at evaluation time.
type BranchRules map[Intent]BranchRule

// Validate rejects rule sets that reference empty prefixes, which would
// silently match everything while looking like a restriction.
func (rules BranchRules) Validate() error {
	for intent, rule := range rules {
		for _, prefix := range rule.IncludeTagPrefixes {
			if prefix == "" {
				return fmt.Errorf("branch rule for intent %q has an empty include prefix", intent)
			}
		}
		for _, kw := range rule.ExcludeKeywords {
			if kw == "" {
				return fmt.Errorf("branch rule for intent %q has an empty exclude keyword", intent)
			}
		}
	}
	return nil
}

// DefaultBranchRules returns the rule set used when none is configured.
// Only migration questions are narrowed; everything else stays permissive.
func DefaultBranchRules() BranchRules {
	return BranchRules{
		IntentMigration: {
			IncludeTagPrefixes: []string{"document/migration-guides", "web"},
		},
		IntentPricing: {
			ExcludeKeywords: []string{"deprecated"},
		},
	}
}
