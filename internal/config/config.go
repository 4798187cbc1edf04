package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "clawdash"

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Auth       AuthConfig       `mapstructure:"auth"`
	VPS        VPSConfig        `mapstructure:"vps"`
	Simmer     SimmerConfig     `mapstructure:"simmer"`
	Polymarket PolymarketConfig `mapstructure:"polymarket"`
	Upstream   UpstreamConfig   `mapstructure:"upstream"`
	Poll       PollConfig       `mapstructure:"poll"`
	Dashboard  DashboardConfig  `mapstructure:"dashboard"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Audit      AuditConfig      `mapstructure:"audit"`
	Log        LogConfig        `mapstructure:"log"`
	Owners     []OwnerConfig    `mapstructure:"owners"`
}

type ServerConfig struct {
	Port        string   `mapstructure:"port"`
	ReadOnly    bool     `mapstructure:"read_only"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	StaticDir   string   `mapstructure:"static_dir"`
}

// AuthConfig describes the single dashboard account. There are no built-in
// defaults for any of these values; Validate rejects an unset account.
type AuthConfig struct {
	Username      string        `mapstructure:"username"`
	Password      string        `mapstructure:"password"`
	PasswordHash  string        `mapstructure:"password_hash"` // bcrypt, takes precedence over Password
	SessionSecret string        `mapstructure:"session_secret"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
	CookieSecure  bool          `mapstructure:"cookie_secure"`
}

// VPSConfig points at the shared bot-runner control plane.
type VPSConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// SimmerConfig points at the per-owner trading-data API.
type SimmerConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type PolymarketConfig struct {
	// Enables the wallet facet backed by the Polymarket Data API.
	Enabled bool `mapstructure:"enabled"`
}

type UpstreamConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type PollConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	FastInterval time.Duration `mapstructure:"fast_interval"`
	SlowInterval time.Duration `mapstructure:"slow_interval"`
}

type DashboardConfig struct {
	HomeOwner   string `mapstructure:"home_owner"`
	Venue       string `mapstructure:"venue"`
	TradeWindow int    `mapstructure:"trade_window"`
	DayWindow   int    `mapstructure:"day_window"`
}

type DatabaseConfig struct {
	DSN                string `mapstructure:"dsn"`
	AuditRetentionDays int    `mapstructure:"audit_retention_days"`
}

type RedisConfig struct {
	Addr            string `mapstructure:"addr"`
	Password        string `mapstructure:"password"`
	DB              int    `mapstructure:"db"`
	SessionPrefix   string `mapstructure:"session_prefix"`
	ActivityListKey string `mapstructure:"activity_list_key"`
	ActivityListMax int    `mapstructure:"activity_list_max"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type AuditConfig struct {
	Dir            string `mapstructure:"dir"`
	BufferSize     int    `mapstructure:"buffer_size"`
	ActivityBuffer int    `mapstructure:"activity_buffer"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// OwnerConfig is one row of the owner table. APIKey and WalletAddress may be
// left empty in the file and supplied through CLAWDASH_OWNERS_<ID>_API_KEY and
// CLAWDASH_OWNERS_<ID>_WALLET_ADDRESS.
type OwnerConfig struct {
	ID            string          `mapstructure:"id"`
	Name          string          `mapstructure:"name"`
	Region        string          `mapstructure:"region"`
	Cities        []string        `mapstructure:"cities"`
	Color         string          `mapstructure:"color"`
	APIKey        string          `mapstructure:"api_key"`
	WalletAddress string          `mapstructure:"wallet_address"`
	RateLimit     RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	QPS   float64 `mapstructure:"qps"`
	Burst int     `mapstructure:"burst"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	// e.g. CLAWDASH_AUTH_SESSION_SECRET
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Secrets have no defaults, so AutomaticEnv alone would not surface them
	// during Unmarshal.
	for _, key := range []string{
		"auth.username",
		"auth.password",
		"auth.password_hash",
		"auth.session_secret",
		"vps.api_key",
		"vps.base_url",
		"simmer.base_url",
		"database.dsn",
		"redis.addr",
		"redis.password",
	} {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found, using defaults and env vars")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	applyOwnerEnv(v, cfg.Owners)
	cfg.normalize()
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_only", false)
	v.SetDefault("server.static_dir", "./web/static")
	v.SetDefault("auth.session_ttl", 30*24*time.Hour)
	v.SetDefault("auth.cookie_secure", false)
	v.SetDefault("upstream.timeout", 15*time.Second)
	v.SetDefault("poll.enabled", true)
	v.SetDefault("poll.fast_interval", 30*time.Second)
	v.SetDefault("poll.slow_interval", 30*time.Second)
	v.SetDefault("dashboard.venue", "polymarket")
	v.SetDefault("dashboard.trade_window", 150)
	v.SetDefault("dashboard.day_window", 10)
	v.SetDefault("database.audit_retention_days", 30)
	v.SetDefault("redis.session_prefix", "clawdash:session")
	v.SetDefault("redis.activity_list_key", "clawdash:activity")
	v.SetDefault("redis.activity_list_max", 5000)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("audit.dir", "./logs")
	v.SetDefault("audit.buffer_size", 1000)
	v.SetDefault("audit.activity_buffer", 500)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// applyOwnerEnv fills per-owner secrets from the environment. Viper cannot
// address list elements by env var, so each owner gets explicit bindings.
func applyOwnerEnv(v *viper.Viper, owners []OwnerConfig) {
	for i := range owners {
		id := strings.ToLower(strings.TrimSpace(owners[i].ID))
		if id == "" {
			continue
		}
		envID := strings.ToUpper(strings.ReplaceAll(id, "-", "_"))
		keyPath := "owner_env." + id + ".api_key"
		walletPath := "owner_env." + id + ".wallet_address"
		_ = v.BindEnv(keyPath, "CLAWDASH_OWNERS_"+envID+"_API_KEY")
		_ = v.BindEnv(walletPath, "CLAWDASH_OWNERS_"+envID+"_WALLET_ADDRESS")

		if key := strings.TrimSpace(v.GetString(keyPath)); key != "" {
			owners[i].APIKey = key
		}
		if wallet := strings.TrimSpace(v.GetString(walletPath)); wallet != "" {
			owners[i].WalletAddress = wallet
		}
	}
}

func (c *Config) normalize() {
	c.VPS.BaseURL = strings.TrimRight(strings.TrimSpace(c.VPS.BaseURL), "/")
	c.Simmer.BaseURL = strings.TrimRight(strings.TrimSpace(c.Simmer.BaseURL), "/")
	c.Dashboard.HomeOwner = strings.ToLower(strings.TrimSpace(c.Dashboard.HomeOwner))
	for i := range c.Owners {
		o := &c.Owners[i]
		o.ID = strings.ToLower(strings.TrimSpace(o.ID))
		o.Region = strings.ToLower(strings.TrimSpace(o.Region))
		o.APIKey = strings.TrimSpace(o.APIKey)
		o.WalletAddress = strings.TrimSpace(o.WalletAddress)
	}
	if c.Dashboard.HomeOwner == "" && len(c.Owners) > 0 {
		c.Dashboard.HomeOwner = c.Owners[0].ID
	}
}

// Owner returns the owner row with the given id.
func (c *Config) Owner(id string) (OwnerConfig, bool) {
	for _, o := range c.Owners {
		if o.ID == id {
			return o, true
		}
	}
	return OwnerConfig{}, false
}
