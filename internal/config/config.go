package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"quotewright/internal/common"
	"quotewright/internal/model"
)

// Rates holds every day-rate, constant and percentage the calculator needs.
// Injected into the core, never hard-coded there.
type Rates struct {
	HoursPerFitterDay       float64 `mapstructure:"hours_per_fitter_day"`
	MaxFitters              int     `mapstructure:"max_fitters"`
	SupervisorDayThreshold  int     `mapstructure:"supervisor_day_threshold"`
	VanDayRate              float64 `mapstructure:"van_day_rate"`
	FitterDayRate           float64 `mapstructure:"fitter_day_rate"`
	SupervisorDayRate       float64 `mapstructure:"supervisor_day_rate"`
	ParkingPerDay           float64 `mapstructure:"parking_per_day"`
	TransportPerVehicle     float64 `mapstructure:"transport_per_vehicle"`
	SpecialistReworkCost    float64 `mapstructure:"specialist_rework_cost"`
	StairsUpliftPercent     float64 `mapstructure:"stairs_uplift_percent"`
	ExtendedUpliftPercent   float64 `mapstructure:"extended_uplift_percent"`
	DefaultInstallTimeHours float64 `mapstructure:"default_install_time_hours"`
	DefaultWastePerUnitM3   float64 `mapstructure:"default_waste_per_unit_m3"`
	WasteFlagThresholdM3    float64 `mapstructure:"waste_flag_threshold_m3"`
}

// Parsing configures the hybrid parsing orchestrator and its extractors.
type Parsing struct {
	Mode            string        `mapstructure:"mode"`
	AnthropicAPIKey string        `mapstructure:"anthropic_api_key"`
	Model           string        `mapstructure:"model"`
	AccurateTimeout time.Duration `mapstructure:"accurate_timeout"`
	MinConfidence   float64       `mapstructure:"min_confidence"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
	CacheCapacity   int           `mapstructure:"cache_capacity"`
}

// RuleConfig is one user-defined edge-case rule, appended after the built-in
// table. Action is one of multiply, add or set.
type RuleConfig struct {
	Name    string  `mapstructure:"name"`
	Pattern string  `mapstructure:"pattern"`
	Action  string  `mapstructure:"action"`
	Value   float64 `mapstructure:"value"`
}

// Config is the full application configuration.
type Config struct {
	CataloguePath string       `mapstructure:"catalogue_path"`
	DatabasePath  string       `mapstructure:"database_path"`
	Rates         Rates        `mapstructure:"rates"`
	Parsing       Parsing      `mapstructure:"parsing"`
	Rules         []RuleConfig `mapstructure:"rules"`
}

// SetDefaults registers the default configuration values with viper.
func SetDefaults() {
	viper.SetDefault("rates.hours_per_fitter_day", 7.0)
	viper.SetDefault("rates.max_fitters", 8)
	viper.SetDefault("rates.supervisor_day_threshold", 3)
	viper.SetDefault("rates.van_day_rate", 380.0)
	viper.SetDefault("rates.fitter_day_rate", 190.0)
	viper.SetDefault("rates.supervisor_day_rate", 260.0)
	viper.SetDefault("rates.parking_per_day", 35.0)
	viper.SetDefault("rates.transport_per_vehicle", 60.0)
	viper.SetDefault("rates.specialist_rework_cost", 450.0)
	viper.SetDefault("rates.stairs_uplift_percent", 10.0)
	viper.SetDefault("rates.extended_uplift_percent", 15.0)
	viper.SetDefault("rates.default_install_time_hours", 0.5)
	viper.SetDefault("rates.default_waste_per_unit_m3", 0.02)
	viper.SetDefault("rates.waste_flag_threshold_m3", 1.0)

	viper.SetDefault("parsing.mode", "hybrid")
	viper.SetDefault("parsing.model", "claude-sonnet-4-5-20250929")
	viper.SetDefault("parsing.accurate_timeout", 45*time.Second)
	viper.SetDefault("parsing.min_confidence", 70.0)
	viper.SetDefault("parsing.cache_ttl", 15*time.Minute)
	viper.SetDefault("parsing.cache_capacity", 128)
}

// Load hydrates the typed configuration from viper's current state.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
	}

	cfg.CataloguePath = ExpandPath(cfg.CataloguePath)
	cfg.DatabasePath = ExpandPath(cfg.DatabasePath)

	if cfg.Rates.HoursPerFitterDay <= 0 {
		return nil, fmt.Errorf("%w: hours_per_fitter_day must be positive", common.ErrInvalidConfig)
	}
	if cfg.Rates.MaxFitters <= 0 {
		return nil, fmt.Errorf("%w: max_fitters must be positive", common.ErrInvalidConfig)
	}

	return &cfg, nil
}

// catalogueFile is the on-disk YAML shape of the product catalogue.
type catalogueFile struct {
	Products map[string]model.CatalogueEntry `yaml:"products"`
}

// LoadCatalogue reads the product reference catalogue from a YAML file.
func LoadCatalogue(path string) (model.Catalogue, error) {
	data, err := os.ReadFile(ExpandPath(path)) // #nosec G304 -- path comes from user config
	if err != nil {
		return nil, fmt.Errorf("failed to read catalogue file: %w", err)
	}

	var file catalogueFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalogue file: %w", err)
	}

	if len(file.Products) == 0 {
		return nil, common.ErrEmptyCatalogue
	}

	return model.Catalogue(file.Products), nil
}
