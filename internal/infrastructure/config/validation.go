package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateConfig checks the loaded configuration against the struct tags and
// a few cross-field rules the tags cannot express.
func ValidateConfig(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			return fmt.Errorf("%s", formatValidationError(errs))
		}
		return err
	}

	if cfg.Buffer.CriticalThreshold >= cfg.Buffer.LowThreshold {
		return fmt.Errorf("buffer.critical_threshold (%.2f) must be below buffer.low_threshold (%.2f)",
			cfg.Buffer.CriticalThreshold, cfg.Buffer.LowThreshold)
	}
	if cfg.Buffer.LowThreshold >= cfg.Buffer.HighThreshold {
		return fmt.Errorf("buffer.low_threshold (%.2f) must be below buffer.high_threshold (%.2f)",
			cfg.Buffer.LowThreshold, cfg.Buffer.HighThreshold)
	}
	if cfg.Workers.LightMaxKg >= cfg.Workers.HeavyMinKg {
		return fmt.Errorf("workers.light_max_kg (%.0f) must be below workers.heavy_min_kg (%.0f)",
			cfg.Workers.LightMaxKg, cfg.Workers.HeavyMinKg)
	}
	if cfg.Queueing.OverloadBand >= cfg.Queueing.CriticalBand {
		return fmt.Errorf("queueing.overload_band (%.2f) must be below queueing.critical_band (%.2f)",
			cfg.Queueing.OverloadBand, cfg.Queueing.CriticalBand)
	}
	return nil
}

func formatValidationError(errs validator.ValidationErrors) string {
	var sb strings.Builder
	sb.WriteString("configuration validation failed:")
	for _, e := range errs {
		sb.WriteString(fmt.Sprintf("\n  - %s: failed '%s' check (value: %v)",
			e.Namespace(), e.Tag(), e.Value()))
	}
	return sb.String()
}
