package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is empty because every variable carries the full ASCENTSYS_ name
// in its envconfig tag.
const EnvPrefix = ""

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Canonical environment variable names, shared with tests and deploy docs.
const (
	EnvAppEnv        = "ASCENTSYS_APP_ENV"
	EnvLogLevel      = "ASCENTSYS_LOG_LEVEL"
	EnvServerAddress = "ASCENTSYS_SERVER_ADDRESS"
	EnvDialTimeout   = "ASCENTSYS_DIAL_TIMEOUT"
	EnvIOTimeout     = "ASCENTSYS_IO_TIMEOUT"
	EnvRetryAttempts = "ASCENTSYS_RETRY_ATTEMPTS"
	EnvCatalogdAddr  = "ASCENTSYS_CATALOGD_LISTEN_ADDR"
	EnvCatalogdData  = "ASCENTSYS_CATALOGD_DATA_FILE"
)

type Config struct {
	App      AppConfig
	Server   ServerConfig
	Catalogd CatalogdConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Server.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ASCENTSYS_APP_ENV" default:"development"`
	LogLevel     string `envconfig:"ASCENTSYS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ASCENTSYS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// ServerConfig describes the remote retail endpoint the client talks to.
// Timeouts and retries are additive extensions around the base one-shot
// wire contract; RetryAttempts defaults to 0 (no retry).
type ServerConfig struct {
	Address       string        `envconfig:"ASCENTSYS_SERVER_ADDRESS" default:"127.0.0.1:9403"`
	DialTimeout   time.Duration `envconfig:"ASCENTSYS_DIAL_TIMEOUT" default:"5s"`
	IOTimeout     time.Duration `envconfig:"ASCENTSYS_IO_TIMEOUT" default:"10s"`
	RetryAttempts int           `envconfig:"ASCENTSYS_RETRY_ATTEMPTS" default:"0"`
}

func (s ServerConfig) validate() error {
	if strings.TrimSpace(s.Address) == "" {
		return fmt.Errorf("%s is required", EnvServerAddress)
	}
	if s.RetryAttempts < 0 {
		return fmt.Errorf("%s must not be negative", EnvRetryAttempts)
	}
	return nil
}

// CatalogdConfig configures the development stub server.
type CatalogdConfig struct {
	ListenAddr string `envconfig:"ASCENTSYS_CATALOGD_LISTEN_ADDR" default:"127.0.0.1:9403"`
	DataFile   string `envconfig:"ASCENTSYS_CATALOGD_DATA_FILE" default:"storage/data.json"`
	Users      string `envconfig:"ASCENTSYS_CATALOGD_USERS" default:"admin:admin123"`
}

// UserMap parses the comma-separated user:secret pairs in Users.
func (c CatalogdConfig) UserMap() map[string]string {
	users := map[string]string{}
	for _, pair := range strings.Split(c.Users, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, secret, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		users[name] = secret
	}
	return users
}
