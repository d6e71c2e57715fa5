package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// EngineConfig tunes the billing engine. Service names are matched
// case-insensitively against Service.Name.
type EngineConfig struct {
	PickCostService string `mapstructure:"pick_cost_service"`
	CasePickService string `mapstructure:"case_pick_service"`
	SKUCostService  string `mapstructure:"sku_cost_service"`
	CaseUnitLabel   string `mapstructure:"case_unit_label"`
	OrderBatchSize  int    `mapstructure:"order_batch_size"`
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		PickCostService: "pick cost",
		CasePickService: "case pick",
		SKUCostService:  "sku cost",
		CaseUnitLabel:   "case",
		OrderBatchSize:  500,
	}
}

type EngineConfigHolder struct {
	current atomic.Value // holds EngineConfig
}

// StaticEngineConfig returns a holder that never reloads.
func StaticEngineConfig(cfg EngineConfig) *EngineConfigHolder {
	holder := &EngineConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewEngineConfigHolder(appCfg Config) (*EngineConfigHolder, error) {
	v := viper.New()

	if appCfg.EngineConfigFile != "" {
		if _, err := os.Stat(appCfg.EngineConfigFile); err != nil {
			return nil, fmt.Errorf("engine config: %w", err)
		}
		v.SetConfigFile(appCfg.EngineConfigFile)
	} else {
		v.SetConfigName("engine")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/orderbill")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("ORDERBILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultEngineConfig()
	v.SetDefault("engine.pick_cost_service", defaults.PickCostService)
	v.SetDefault("engine.case_pick_service", defaults.CasePickService)
	v.SetDefault("engine.sku_cost_service", defaults.SKUCostService)
	v.SetDefault("engine.case_unit_label", defaults.CaseUnitLabel)
	v.SetDefault("engine.order_batch_size", defaults.OrderBatchSize)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileLoaded = false
	}

	cfg, err := decodeEngineConfig(v)
	if err != nil {
		return nil, err
	}

	holder := StaticEngineConfig(cfg)
	if !fileLoaded {
		return holder, nil
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		log := zap.L().Named("config.engine")
		updated, err := decodeEngineConfig(v)
		if err != nil {
			log.Warn("engine config reload ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("engine config reloaded", zap.String("file", e.Name))
	})
	v.WatchConfig()

	return holder, nil
}

func (h *EngineConfigHolder) Get() EngineConfig {
	return h.current.Load().(EngineConfig)
}

func decodeEngineConfig(v *viper.Viper) (EngineConfig, error) {
	var cfg EngineConfig
	if err := v.UnmarshalKey("engine", &cfg); err != nil {
		return EngineConfig{}, err
	}
	if err := validateEngineConfig(cfg); err != nil {
		return EngineConfig{}, err
	}
	return cfg, nil
}

func validateEngineConfig(cfg EngineConfig) error {
	if strings.TrimSpace(cfg.PickCostService) == "" ||
		strings.TrimSpace(cfg.CasePickService) == "" ||
		strings.TrimSpace(cfg.SKUCostService) == "" {
		return errors.New("engine service names cannot be empty")
	}
	if strings.TrimSpace(cfg.CaseUnitLabel) == "" {
		return errors.New("engine.case_unit_label cannot be empty")
	}
	if cfg.OrderBatchSize <= 0 {
		return errors.New("engine.order_batch_size must be positive")
	}
	return nil
}
