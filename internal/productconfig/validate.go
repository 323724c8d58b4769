package productconfig

import (
	"fmt"
	"time"
)

// ValidationError reports a single failed catalog constraint
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required catalog constraints
func Validate(cfg *Config) error {
	if cfg.Meta.CatalogID == "" {
		return ValidationError{"meta.catalog_id", "required"}
	}
	if cfg.Meta.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Meta.Timezone); err != nil {
			return ValidationError{"meta.timezone", err.Error()}
		}
	}

	if len(cfg.Products) == 0 {
		return ValidationError{"products", "at least one product required"}
	}

	seen := make(map[string]bool)
	for i, p := range cfg.Products {
		field := func(name string) string {
			return fmt.Sprintf("products[%d].%s", i, name)
		}

		if p.Root == "" {
			return ValidationError{field("root"), "required"}
		}
		if seen[p.Root] {
			return ValidationError{field("root"), fmt.Sprintf("duplicate root %q", p.Root)}
		}
		seen[p.Root] = true

		if p.Dataset == "" {
			return ValidationError{field("dataset"), "required"}
		}
		if p.PriceField == "" {
			return ValidationError{field("price_field"), "required"}
		}

		if len(p.Targets) == 0 {
			return ValidationError{field("targets"), "at least one maturity required"}
		}
		for j, days := range p.Targets {
			if days <= 0 {
				return ValidationError{
					fmt.Sprintf("products[%d].targets[%d]", i, j),
					fmt.Sprintf("must be > 0, got %d", days),
				}
			}
		}

		switch p.Splice.AdjustMode {
		case "", "additive", "multiplicative":
		default:
			return ValidationError{field("splice.adjust_mode"),
				fmt.Sprintf("must be additive or multiplicative, got %q", p.Splice.AdjustMode)}
		}

		if p.Refresh.Enabled && p.Refresh.LookbackDays <= 0 {
			return ValidationError{field("refresh.lookback_days"), "must be > 0 when refresh is enabled"}
		}
	}

	return nil
}
