package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall agent configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Backend    BackendConfig    `yaml:"backend"`
	Realtime   RealtimeConfig   `yaml:"realtime"`
	Polling    PollingConfig    `yaml:"polling"`
	Session    SessionConfig    `yaml:"session"`
	Auth       AuthConfig       `yaml:"auth"`
	Database   DatabaseConfig   `yaml:"database"`
	Kiosk      KioskConfig      `yaml:"kiosk"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// ServerConfig holds the local display API configuration.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	RateLimitPerSec float64  `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int      `yaml:"rate_limit_burst"`
	CacheTTLSeconds int      `yaml:"cache_ttl_seconds"`
	CORSOrigins     []string `yaml:"cors_origins"`
	// PublicURL is the customer-facing base URL encoded into table QR codes.
	PublicURL string `yaml:"public_url"`
}

// BackendConfig points the API gateway client at the remote REST backend.
type BackendConfig struct {
	BaseURL        string        `yaml:"base_url"`
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	Timeout        time.Duration `yaml:"-"`
	HTTPProxy      string        `yaml:"http_proxy"`
}

// RealtimeConfig holds the Socket.IO connection settings.
type RealtimeConfig struct {
	Enabled           bool          `yaml:"enabled"`
	URL               string        `yaml:"url"`
	ReconnectMinMilli int           `yaml:"reconnect_min_ms"`
	ReconnectMaxMilli int           `yaml:"reconnect_max_ms"`
	ReconnectMin      time.Duration `yaml:"-"`
	ReconnectMax      time.Duration `yaml:"-"`
}

// PollingConfig holds the per-view refresh intervals.
type PollingConfig struct {
	KitchenSeconds   int `yaml:"kitchen_seconds"`
	OrdersSeconds    int `yaml:"orders_seconds"`
	CallsSeconds     int `yaml:"calls_seconds"`
	TablesSeconds    int `yaml:"tables_seconds"`
	DashboardSeconds int `yaml:"dashboard_seconds"`
	MenuSeconds      int `yaml:"menu_seconds"`

	Kitchen   time.Duration `yaml:"-"`
	Orders    time.Duration `yaml:"-"`
	Calls     time.Duration `yaml:"-"`
	Tables    time.Duration `yaml:"-"`
	Dashboard time.Duration `yaml:"-"`
	Menu      time.Duration `yaml:"-"`
}

// SessionConfig holds the customer table-session settings.
type SessionConfig struct {
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	Timeout        time.Duration `yaml:"-"`
}

// AuthConfig holds the admin login settings.
type AuthConfig struct {
	LoginCooldownMilli int           `yaml:"login_cooldown_ms"`
	LoginCooldown      time.Duration `yaml:"-"`
}

// DatabaseConfig holds the local persistence configuration.
type DatabaseConfig struct {
	// DSN selects the driver: postgres:// or host= use postgres, "memory" keeps
	// the session in process memory, anything else is a sqlite file.
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	LogSQL                 bool   `yaml:"log_sql"`
}

// KioskConfig decides which page the agent mounts at start.
type KioskConfig struct {
	Role        string `yaml:"role"` // customer, kitchen or admin
	StoreID     string `yaml:"store_id"`
	TableNumber string `yaml:"table_number"`
}

// PushConfig holds the VAPID keys for staff web push alerts.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// Enabled reports whether VAPID keys are configured.
func (p PushConfig) Enabled() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

// WorkerPoolConfig holds the configuration for the alert worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills zero values and materializes the duration fields.
func (cfg *Config) ApplyDefaults() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 300
	}

	if cfg.Backend.TimeoutSeconds <= 0 {
		cfg.Backend.TimeoutSeconds = 10
	}
	cfg.Backend.Timeout = time.Duration(cfg.Backend.TimeoutSeconds) * time.Second

	if cfg.Realtime.URL == "" {
		cfg.Realtime.URL = cfg.Backend.BaseURL
	}
	if cfg.Realtime.ReconnectMinMilli <= 0 {
		cfg.Realtime.ReconnectMinMilli = 1000
	}
	if cfg.Realtime.ReconnectMaxMilli < cfg.Realtime.ReconnectMinMilli {
		cfg.Realtime.ReconnectMaxMilli = 30000
	}
	cfg.Realtime.ReconnectMin = time.Duration(cfg.Realtime.ReconnectMinMilli) * time.Millisecond
	cfg.Realtime.ReconnectMax = time.Duration(cfg.Realtime.ReconnectMaxMilli) * time.Millisecond

	p := &cfg.Polling
	p.Kitchen = seconds(&p.KitchenSeconds, 5)
	p.Orders = seconds(&p.OrdersSeconds, 5)
	p.Calls = seconds(&p.CallsSeconds, 5)
	p.Tables = seconds(&p.TablesSeconds, 10)
	p.Dashboard = seconds(&p.DashboardSeconds, 30)
	p.Menu = seconds(&p.MenuSeconds, 30)

	cfg.Session.Timeout = seconds(&cfg.Session.TimeoutSeconds, 300)

	if cfg.Auth.LoginCooldownMilli <= 0 {
		cfg.Auth.LoginCooldownMilli = 3000
	}
	cfg.Auth.LoginCooldown = time.Duration(cfg.Auth.LoginCooldownMilli) * time.Millisecond

	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "file:tableorder.db"
	}

	if cfg.Kiosk.Role == "" {
		cfg.Kiosk.Role = "customer"
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}
}

func seconds(v *int, def int) time.Duration {
	if *v <= 0 {
		*v = def
	}
	return time.Duration(*v) * time.Second
}
