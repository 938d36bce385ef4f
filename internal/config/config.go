package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type WebConfig struct {
	Port       int           `yaml:"port"`
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
	// BootstrapKey is exchanged together with a seeded account email
	// for a session token; this service is not the identity provider.
	BootstrapKey string `yaml:"bootstrap_key"`
}

type CallbackConfig struct {
	Port      int    `yaml:"port"`
	ReturnURL string `yaml:"return_url"` // where the gateway redirects the payer afterwards
}

type VNPayConfig struct {
	TmnCode    string `yaml:"tmn_code"`
	HashSecret string `yaml:"hash_secret"`
	PayURL     string `yaml:"pay_url"`
}

type MoMoConfig struct {
	PartnerCode string `yaml:"partner_code"`
	AccessKey   string `yaml:"access_key"`
	SecretKey   string `yaml:"secret_key"`
	Endpoint    string `yaml:"endpoint"`
	NotifyURL   string `yaml:"notify_url"`
}

type PaymentConfig struct {
	VNPay VNPayConfig `yaml:"vnpay"`
	MoMo  MoMoConfig  `yaml:"momo"`
}

type ESignConfig struct {
	APIKey  string `yaml:"api_key"`
	Sandbox bool   `yaml:"sandbox"`
}

type SchedConfig struct {
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
	StaleAfter        time.Duration `yaml:"stale_after"`
	ExpiryInterval    time.Duration `yaml:"expiry_interval"`
}

type Config struct {
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Web      WebConfig      `yaml:"web"`
	Callback CallbackConfig `yaml:"callback"`
	Payment  PaymentConfig  `yaml:"payment"`
	ESign    ESignConfig    `yaml:"esign"`
	Sched    SchedConfig    `yaml:"sched"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path and applies environment
// overrides. DATABASE_URL wins over the file so deploys never bake
// credentials into config.
func LoadConfig(path string, dev bool) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}
	cfg.Runtime.Dev = dev

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Web.Port == 0 {
		cfg.Web.Port = 8080
	}
	if cfg.Callback.Port == 0 {
		cfg.Callback.Port = 8081
	}
	if cfg.Web.SessionTTL == 0 {
		cfg.Web.SessionTTL = 30 * time.Minute
	}
	if cfg.Sched.ReconcileInterval == 0 {
		cfg.Sched.ReconcileInterval = time.Minute
	}
	if cfg.Sched.StaleAfter == 0 {
		cfg.Sched.StaleAfter = 10 * time.Minute
	}
	if cfg.Sched.ExpiryInterval == 0 {
		cfg.Sched.ExpiryInterval = 15 * time.Minute
	}
	return cfg, nil
}
