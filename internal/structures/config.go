package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type StorageConfig struct {
	Driver string `yaml:"driver" validate:"required|in:sqlite,memory"`
	Path   string `yaml:"path"`
}

type Persistence struct {
	FilePath     string        `yaml:"filePath" validate:"required|unixPath"`
	ActivityPath string        `yaml:"activityPath" validate:"required|unixPath"`
	ArchiveDir   string        `yaml:"archiveDir"`
	SaveInterval time.Duration `yaml:"saveInterval" validate:"required|min:1"`
}

type MaintenanceConfig struct {
	Interval time.Duration `yaml:"interval" validate:"required|min:1"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type AccrualConfig struct {
	Cooldown        time.Duration `yaml:"cooldown" validate:"min:0"`
	XPBase          int64         `yaml:"xpBase" validate:"min:0"`
	XPPerChars      int64         `yaml:"xpPerChars" validate:"min:1"`
	XPMax           int64         `yaml:"xpMax" validate:"min:0"`
	LevelStep       int64         `yaml:"levelStep" validate:"min:1"`
	LevelThresholds []int64       `yaml:"levelThresholds"`
	AwardsBuffer    int           `yaml:"awardsBuffer"`
	AwardsTTL       time.Duration `yaml:"awardsTTL"`
	ActivityDays    int           `yaml:"activityDays"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName     string
	Debug       bool
	Path        string
	Accrual     AccrualConfig     `yaml:"accrual"`
	WebServer   Server            `yaml:"webServer"`
	Storage     StorageConfig     `yaml:"storage"`
	Persistence Persistence       `yaml:"persistence"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
	Logger      LoggerConfig      `yaml:"logger"`
	Cache       CacheConfig       `yaml:"cache"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}
