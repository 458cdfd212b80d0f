package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/de-tools/governance-atlas/pkg/services/assessment"
	"github.com/de-tools/governance-atlas/pkg/services/checks"
	"github.com/de-tools/governance-atlas/pkg/services/impact"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	StorageDuckDB = "duckdb"
	StorageFile   = "file"
)

var validate = validator.New()

type StorageConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=duckdb file"`
	Path   string `mapstructure:"path" validate:"required"`
}

type ThresholdsConfig struct {
	CriticalCVSS          float64 `mapstructure:"critical_cvss" validate:"gte=0,lte=10"`
	PatchWindowDays       int     `mapstructure:"patch_window_days" validate:"gte=1"`
	ManagementPorts       []int   `mapstructure:"management_ports" validate:"dive,gte=1,lte=65535"`
	MaxSubscriptionOwners int     `mapstructure:"max_subscription_owners" validate:"gte=1"`
}

type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	// RulesFile overrides the embedded impact rules when set
	RulesFile           string           `mapstructure:"rules_file"`
	Initiative          string           `mapstructure:"initiative"`
	ExemptionExpiryDays int              `mapstructure:"exemption_expiry_days" validate:"gte=0"`
	Thresholds          ThresholdsConfig `mapstructure:"thresholds"`
}

func setDefaults(v *viper.Viper) {
	defaults := checks.DefaultScenarioThresholds()

	v.SetDefault("storage.driver", StorageDuckDB)
	v.SetDefault("storage.path", "governance_atlas.db")
	v.SetDefault("exemption_expiry_days", 30)
	v.SetDefault("thresholds.critical_cvss", defaults.CriticalCVSS)
	v.SetDefault("thresholds.patch_window_days", defaults.PatchWindowDays)
	v.SetDefault("thresholds.management_ports", defaults.ManagementPorts)
	v.SetDefault("thresholds.max_subscription_owners", defaults.MaxSubscriptionOwners)
}

// LoadConfig reads the settings file at path. An empty path yields the defaults.
// ATLAS_-prefixed environment variables override file values (ATLAS_STORAGE_PATH).
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("ATLAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return nil, fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
		}
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) AssessmentSettings() assessment.Settings {
	return assessment.Settings{
		Thresholds: checks.ScenarioThresholds{
			CriticalCVSS:          c.Thresholds.CriticalCVSS,
			PatchWindowDays:       c.Thresholds.PatchWindowDays,
			ManagementPorts:       append([]int(nil), c.Thresholds.ManagementPorts...),
			MaxSubscriptionOwners: c.Thresholds.MaxSubscriptionOwners,
		},
		ExpiryWarning: time.Duration(c.ExemptionExpiryDays) * 24 * time.Hour,
		Initiative:    c.Initiative,
	}
}

// Classifier builds the impact classifier from RulesFile or the embedded rules.
func (c *Config) Classifier() (*impact.Classifier, error) {
	if c.RulesFile == "" {
		return impact.NewDefaultClassifier()
	}
	rules, err := impact.LoadRules(c.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load impact rules: %w", err)
	}
	return impact.NewClassifier(rules), nil
}
