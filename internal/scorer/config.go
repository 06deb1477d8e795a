package scorer

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/scope-labs/provider-intel/internal/config"
)

// DefaultConfig returns a ScoreConfig with equal completeness/validity weights.
func DefaultConfig() config.ScoreConfig {
	return config.ScoreConfig{
		CompletenessWeight: 0.5,
		ValidityWeight:     0.5,
	}
}

// ValidateConfig checks that a ScoreConfig is internally consistent.
func ValidateConfig(c config.ScoreConfig) error {
	var errs []string

	if c.CompletenessWeight < 0 {
		errs = append(errs, "completeness_weight must be >= 0")
	}
	if c.ValidityWeight < 0 {
		errs = append(errs, "validity_weight must be >= 0")
	}
	if sum := c.CompletenessWeight + c.ValidityWeight; sum <= 0 {
		errs = append(errs, fmt.Sprintf("weight sum must be > 0, got %.2f", sum))
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
