package retrieval

import (
	"log/slog"
	"strings"

	"retrieval-engine/internal/domain"
)

// FilterConfig holds branch-filter parameters.
type FilterConfig struct {
	// Enabled is the global escape hatch: a misconfigured rule set can
	// starve the pipeline, so the stage must be switchable off wholesale.
	Enabled bool
	Rules   domain.BranchRules
}

// ApplyBranchFilter restricts the fused candidates by the detected intent's
// rule. An intent with no configured rule falls back to a permissive
// default rather than discarding an entire source of truth. This is a
// strict filter, not a boost.
func ApplyBranchFilter(sc *StageContext, cfg FilterConfig, logger *slog.Logger) {
	if !cfg.Enabled || sc.FilterDisabled {
		return
	}

	rule, ok := cfg.Rules[sc.Query.Intent]
	if !ok {
		logger.Info("branch_filter_skipped",
			slog.String("retrieval_id", sc.RetrievalID),
			slog.String("intent", sc.Query.Intent.String()),
			slog.String("reason", "no rule configured"))
		return
	}

	before := len(sc.Candidates)
	kept := sc.Candidates[:0]
	for _, cand := range sc.Candidates {
		if !matchesRule(cand.Passage, rule) {
			continue
		}
		kept = append(kept, cand)
	}
	sc.Candidates = kept

	logger.Info("branch_filter_applied",
		slog.String("retrieval_id", sc.RetrievalID),
		slog.String("intent", sc.Query.Intent.String()),
		slog.Int("before", before),
		slog.Int("after", len(sc.Candidates)))
}

func matchesRule(p domain.Passage, rule domain.BranchRule) bool {
	if !rule.Permissive() {
		included := false
		for _, prefix := range rule.IncludeTagPrefixes {
			if p.HasTagPrefix(prefix) {
				included = true
				break
			}
		}
		if !included {
			return false
		}
	}

	lower := strings.ToLower(p.Text)
	for _, kw := range rule.ExcludeKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return false
		}
	}
	return true
}
