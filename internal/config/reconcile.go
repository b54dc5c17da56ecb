package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PropagationSingle = "single"
	PropagationFull   = "full"
)

// ReconcileConfig tunes gauge reconciliation.
type ReconcileConfig struct {
	WindowDays              int             `mapstructure:"window_days"`
	Propagation             string          `mapstructure:"propagation"`
	MaxHops                 int             `mapstructure:"max_hops"`
	DefaultConversionFactor decimal.Decimal `mapstructure:"-"`
	Attributes              AttributeConfig `mapstructure:"attributes"`
}

// AttributeConfig lists the reading fields recorded by operators and the
// ones displayed read-only.
type AttributeConfig struct {
	Input    []string `mapstructure:"input"`
	Readonly []string `mapstructure:"readonly"`
}

func DefaultReconcileConfig() ReconcileConfig {
	return ReconcileConfig{
		WindowDays:              14,
		Propagation:             PropagationSingle,
		MaxHops:                 64,
		DefaultConversionFactor: decimal.RequireFromString("1.67"),
		Attributes: AttributeConfig{
			Input:    []string{"oil_production", "gauge_feet", "gauge_inch", "comments"},
			Readonly: []string{},
		},
	}
}

// Hops is the number of forward reconciliation steps after a save.
func (c ReconcileConfig) Hops() int {
	if c.Propagation == PropagationFull {
		return c.MaxHops
	}
	return 1
}

// All is the input attributes followed by the read-only ones.
func (a AttributeConfig) All() []string {
	out := make([]string, 0, len(a.Input)+len(a.Readonly))
	out = append(out, a.Input...)
	return append(out, a.Readonly...)
}

type ReconcileConfigHolder struct {
	current atomic.Value // holds ReconcileConfig
}

// NewStaticReconcileConfigHolder wraps a fixed configuration.
func NewStaticReconcileConfigHolder(cfg ReconcileConfig) *ReconcileConfigHolder {
	holder := &ReconcileConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewReconcileConfigHolder(appCfg Config) (*ReconcileConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("reconcile")
	v.SetConfigType("yml")
	for _, path := range appCfg.ReconcileConfigPaths {
		v.AddConfigPath(path)
	}

	v.SetEnvPrefix("OILFIELD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultReconcileConfig()
	v.SetDefault("reconcile.window_days", defaults.WindowDays)
	v.SetDefault("reconcile.propagation", defaults.Propagation)
	v.SetDefault("reconcile.max_hops", defaults.MaxHops)
	v.SetDefault("reconcile.default_conversion_factor", defaults.DefaultConversionFactor.String())
	v.SetDefault("reconcile.attributes.input", defaults.Attributes.Input)
	v.SetDefault("reconcile.attributes.readonly", defaults.Attributes.Readonly)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	cfg, err := decodeReconcileConfig(v)
	if err != nil {
		return nil, err
	}

	holder := NewStaticReconcileConfigHolder(cfg)
	if !fileFound {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeReconcileConfig(v)
		if err != nil {
			zap.L().Warn("reconcile config invalid, keeping previous", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		zap.L().Info("reconcile config reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *ReconcileConfigHolder) Get() ReconcileConfig {
	return h.current.Load().(ReconcileConfig)
}

func decodeReconcileConfig(v *viper.Viper) (ReconcileConfig, error) {
	var raw struct {
		Reconcile ReconcileConfig `mapstructure:"reconcile"`
	}
	if err := v.Unmarshal(&raw); err != nil {
		return ReconcileConfig{}, err
	}
	cfg := raw.Reconcile

	factor, err := decimal.NewFromString(strings.TrimSpace(v.GetString("reconcile.default_conversion_factor")))
	if err != nil {
		return ReconcileConfig{}, fmt.Errorf("reconcile.default_conversion_factor: %w", err)
	}
	cfg.DefaultConversionFactor = factor
	cfg.Propagation = strings.ToLower(strings.TrimSpace(cfg.Propagation))

	if err := validateReconcileConfig(cfg); err != nil {
		return ReconcileConfig{}, err
	}
	return cfg, nil
}

func validateReconcileConfig(cfg ReconcileConfig) error {
	if cfg.WindowDays <= 0 {
		return errors.New("reconcile.window_days must be positive")
	}
	switch cfg.Propagation {
	case PropagationSingle, PropagationFull:
	default:
		return fmt.Errorf("reconcile.propagation %q is not one of single, full", cfg.Propagation)
	}
	if cfg.MaxHops <= 0 {
		return errors.New("reconcile.max_hops must be positive")
	}
	if cfg.DefaultConversionFactor.IsNegative() || cfg.DefaultConversionFactor.GreaterThanOrEqual(decimal.NewFromInt(10)) {
		return errors.New("reconcile.default_conversion_factor must be in [0, 10)")
	}
	return nil
}
