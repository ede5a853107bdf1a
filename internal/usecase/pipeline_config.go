package usecase

import (
	"fmt"
	"time"

	"retrieval-engine/internal/domain"
	"retrieval-engine/internal/usecase/retrieval"
)

// PipelineConfig holds every tunable parameter of the retrieval pipeline.
// The channel weights and the rerank blend were tuned empirically in the
// systems this design draws on; they are deliberately configuration, not
// constants, and the scenario tests are the guard rail when changing them.
type PipelineConfig struct {
	// KDense / KLexical are the per-channel candidate pool sizes.
	KDense   int
	KLexical int

	Weights  retrieval.FusionWeights
	Classify retrieval.ClassifyConfig
	Expand   retrieval.ExpandConfig
	Filter   retrieval.FilterConfig
	Rerank   retrieval.RerankConfig
	MMR      retrieval.MMRConfig
	Compress retrieval.CompressConfig

	// SummaryTimeout bounds the conversation-store lookup.
	SummaryTimeout time.Duration
}

// DefaultPipelineConfig returns the defaults the service ships with.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		KDense:   50,
		KLexical: 50,
		Weights: retrieval.FusionWeights{
			Dense:   0.6,
			Lexical: 0.3,
			Boost:   0.4,
		},
		Classify: retrieval.ClassifyConfig{
			ConfidenceThreshold: 0.6,
			ModelTimeout:        5 * time.Second,
		},
		Expand: retrieval.ExpandConfig{
			MaxExpansions: 3,
			MaxLength:     200,
			Timeout:       10 * time.Second,
		},
		Filter: retrieval.FilterConfig{
			Enabled: true,
			Rules:   domain.DefaultBranchRules(),
		},
		Rerank: retrieval.RerankConfig{
			Enabled:       true,
			MaxCandidates: 50,
			Alpha:         0.7,
			Timeout:       30 * time.Second,
		},
		MMR: retrieval.MMRConfig{
			Lambda: 0.7,
			K:      10,
		},
		Compress: retrieval.CompressConfig{
			BudgetChars:        12000,
			MaxSummarizerInput: 25000,
			Timeout:            20 * time.Second,
		},
		SummaryTimeout: 2 * time.Second,
	}
}

// Validate checks the configuration at load time so misconfiguration fails
// startup instead of silently degrading retrieval.
func (c PipelineConfig) Validate() error {
	if c.KDense <= 0 {
		return fmt.Errorf("kDense must be positive, got %d", c.KDense)
	}
	if c.KLexical <= 0 {
		return fmt.Errorf("kLexical must be positive, got %d", c.KLexical)
	}
	if c.Weights.Dense < 0 || c.Weights.Lexical < 0 || c.Weights.Boost < 0 {
		return fmt.Errorf("fusion weights must be non-negative, got %+v", c.Weights)
	}
	if c.Weights.Dense == 0 && c.Weights.Lexical == 0 {
		return fmt.Errorf("at least one of the dense/lexical weights must be positive")
	}
	if c.Classify.ConfidenceThreshold < 0 || c.Classify.ConfidenceThreshold > 1 {
		return fmt.Errorf("classify confidence threshold must be in [0,1], got %f", c.Classify.ConfidenceThreshold)
	}
	if c.Expand.MaxExpansions < 0 {
		return fmt.Errorf("maxExpansions must be non-negative, got %d", c.Expand.MaxExpansions)
	}
	if c.Expand.MaxExpansions > 0 && c.Expand.Timeout <= 0 {
		return fmt.Errorf("expansion timeout must be positive when expansion is enabled")
	}
	if c.Rerank.Enabled {
		if c.Rerank.MaxCandidates <= 0 {
			return fmt.Errorf("rerank maxCandidates must be positive, got %d", c.Rerank.MaxCandidates)
		}
		if c.Rerank.Alpha < 0 || c.Rerank.Alpha > 1 {
			return fmt.Errorf("rerank alpha must be in [0,1], got %f", c.Rerank.Alpha)
		}
		if c.Rerank.Timeout <= 0 {
			return fmt.Errorf("rerank timeout must be positive")
		}
	}
	if c.MMR.Lambda < 0 || c.MMR.Lambda > 1 {
		return fmt.Errorf("mmr lambda must be in [0,1], got %f", c.MMR.Lambda)
	}
	if c.MMR.K <= 0 {
		return fmt.Errorf("mmr k must be positive, got %d", c.MMR.K)
	}
	if c.Compress.BudgetChars < 0 {
		return fmt.Errorf("compress budget must be non-negative, got %d", c.Compress.BudgetChars)
	}
	if err := c.Filter.Rules.Validate(); err != nil {
		return fmt.Errorf("branch rules invalid: %w", err)
	}
	return nil
}
