package providers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"xpd/internal/structures"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	filename := filepath.Base(flags.ConfigPath)
	viper.AddConfigPath(filepath.Dir(flags.ConfigPath))
	viper.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	viper.SetConfigType("yaml")

	viper.SetDefault("storage.driver", "sqlite")
	viper.SetDefault("persistence.saveInterval", "60s")
	viper.SetDefault("maintenance.interval", "60s")
	viper.SetDefault("accrual.cooldown", "60s")
	viper.SetDefault("accrual.xpBase", 15)
	viper.SetDefault("accrual.xpPerChars", 20)
	viper.SetDefault("accrual.xpMax", 25)
	viper.SetDefault("accrual.levelStep", 100)
	viper.SetDefault("accrual.awardsBuffer", 256)
	viper.SetDefault("accrual.awardsTTL", "2160h")
	viper.SetDefault("accrual.activityDays", 30)
	viper.SetDefault("cache.ttl", "5s")

	viper.BindEnv("logger.level", "XPD_LOG_LEVEL")
	viper.BindEnv("storage.driver", "XPD_STORAGE_DRIVER")
	viper.BindEnv("storage.path", "XPD_STORAGE_PATH")
	viper.BindEnv("accrual.cooldown", "XPD_COOLDOWN")
	viper.BindEnv("persistence.saveInterval", "XPD_SAVE_INTERVAL")
	viper.BindEnv("cache.enabled", "XPD_CACHE_ENABLED")
	viper.BindEnv("cache.size", "XPD_CACHE_SIZE")

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = viper.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "XpDaemon"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
