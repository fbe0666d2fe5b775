package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// SlotConfig selects the backend of one snapshot slot.
// Driver is one of file, memory, redis, object, postgres.
type SlotConfig struct {
	Driver string
	Name   string
}

type StoreConfig struct {
	Primary         SlotConfig
	Backup          SlotConfig
	Dir             string
	FlushInterval   time.Duration
	CleanupSchedule string
	MaxActivityLogs int
	MaxChatMessages int
	MemoryQuota     int
}

type PostgresConfig struct {
	Enabled         bool
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Enabled        bool
	Addr           string
	Password       string
	DB             int
	ActivityStream string
}

type StorageConfig struct {
	Enabled         bool
	Endpoint        string
	AccessKey       string
	SecretKey       string
	BucketDocuments string
	BucketSnapshots string
	UseSSL          bool
	Region          string
}

type SecurityConfig struct {
	JWTAccessSecret string
	JWTAccessTTL    time.Duration
	// SnapshotSecret signs exported snapshots. Empty disables signing.
	SnapshotSecret string
}

type AIConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type MirrorConfig struct {
	Enabled bool
	Timeout time.Duration
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Store            StoreConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Security         SecurityConfig
	AI               AIConfig
	Mirror           MirrorConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	return LoadFile("")
}

// LoadFile reads the given YAML file instead of searching the default paths.
func LoadFile(path string) (*AppConfig, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("../config")
	}

	v.SetEnvPrefix("CLAIMS")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

var slotDrivers = map[string]bool{
	"file":     true,
	"memory":   true,
	"redis":    true,
	"object":   true,
	"postgres": true,
}

func (c *AppConfig) validate() error {
	for _, slot := range []SlotConfig{c.Store.Primary, c.Store.Backup} {
		if !slotDrivers[slot.Driver] {
			return fmt.Errorf("store slot %q: unknown driver %q", slot.Name, slot.Driver)
		}
	}
	if c.Store.Primary.Driver == c.Store.Backup.Driver && c.Store.Primary.Name == c.Store.Backup.Name {
		return fmt.Errorf("store primary and backup slots must differ")
	}
	if c.Store.FlushInterval <= 0 {
		return fmt.Errorf("store flush interval must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("store.primary.driver", "file")
	v.SetDefault("store.primary.name", "claims-platform-data")
	v.SetDefault("store.backup.driver", "file")
	v.SetDefault("store.backup.name", "claims-platform-backup")
	v.SetDefault("store.dir", "./data")
	v.SetDefault("store.flushinterval", "30s")
	v.SetDefault("store.cleanupschedule", "0 0 3 * * *")
	v.SetDefault("store.maxactivitylogs", 1000)
	v.SetDefault("store.maxchatmessages", 5000)
	v.SetDefault("store.memoryquota", 5*1024*1024)

	v.SetDefault("postgres.enabled", false)
	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.activitystream", "claims:activity")

	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.bucketdocuments", "claims-documents")
	v.SetDefault("storage.bucketsnapshots", "claims-snapshots")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")

	v.SetDefault("security.jwtaccesssecret", "change-me")
	v.SetDefault("security.jwtaccessttl", "12h")
	v.SetDefault("security.snapshotsecret", "")

	v.SetDefault("ai.baseurl", "http://127.0.0.1:54321/functions/v1")
	v.SetDefault("ai.timeout", "60s")

	v.SetDefault("mirror.enabled", false)
	v.SetDefault("mirror.timeout", "5s")
}
