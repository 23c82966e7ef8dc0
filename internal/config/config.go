package config

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/IlyasAtabaev731/kodbank/internal/domain/models"
	"github.com/IlyasAtabaev731/kodbank/internal/lib/money"
	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

type Config struct {
	Env        string `yaml:"env" env:"ENV" env-default:"local" env-description:"Environment: local, dev or prod"`
	AppName    string `yaml:"app_name" env:"APP_NAME" env-default:"kodbank-backend"`
	ApiPort    int    `yaml:"api_port" env:"API_PORT" env-default:"5000"`
	ApiHost    string `yaml:"api_host" env:"API_HOST" env-default:"localhost"`
	ApiPrefix  string `yaml:"api_prefix" env:"API_PREFIX" env-default:"/api"`
	StaticDir  string `yaml:"static_dir" env:"STATIC_DIR"`
	CorsOrigin string `yaml:"cors_origin" env:"CORS_ORIGIN" env-default:"*"`

	Auth     Auth    `yaml:"auth"`
	Storage  Storage `yaml:"storage"`
	Postgres `yaml:"postgres"`

	SeedAccounts []SeedAccount `yaml:"seed_accounts"`
}

type Auth struct {
	JWTSecret  string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	TokenTTL   time.Duration `yaml:"token_ttl" env:"TOKEN_TTL" env-default:"168h"`
	BcryptCost int           `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"10"`
}

type Storage struct {
	Driver          string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"postgres" env-description:"postgres or sqlite3"`
	SQLitePath      string `yaml:"sqlite_path" env:"SQLITE_PATH" env-default:"kodbank.db"`
	AutoMigrate     bool   `yaml:"auto_migrate" env:"AUTO_MIGRATE" env-default:"true"`
	MigrationsTable string `yaml:"migrations_table" env:"MIGRATIONS_TABLE" env-default:"schema_migrations"`
}

type Postgres struct {
	Host    string `yaml:"host" env:"POSTGRES_HOST" env-default:"localhost"`
	Port    string `yaml:"port" env:"POSTGRES_PORT" env-default:"5433"`
	User    string `yaml:"user" env:"POSTGRES_USER" env-default:"test"`
	Pass    string `yaml:"pass" env:"POSTGRES_PASSWORD" env-default:"12345"`
	Db      string `yaml:"db" env:"POSTGRES_DB" env-default:"test_db"`
	SSLMode string `yaml:"sslmode" env:"POSTGRES_SSLMODE" env-default:"disable"`
}

type SeedAccount struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Balance string `yaml:"balance"`
}

// DefaultSeedAccounts are opened for every new user unless configured.
var DefaultSeedAccounts = []SeedAccount{
	{Name: "Kodbank Everyday", Type: string(models.AccountChecking), Balance: "14520.75"},
	{Name: "Kodbank Savings", Type: string(models.AccountSavings), Balance: "32000.00"},
}

// localJWTSecret is only accepted when Env is local.
const localJWTSecret = "super-secret-kodbank-key"

func MustLoad() *Config {
	cfg, err := Load(fetchConfigPath())
	if err != nil {
		panic("Failed to read config: " + err.Error())
	}

	return cfg
}

// Load reads the YAML file at path with environment overrides, or only the
// environment when path is empty.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", path)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, err
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return fmt.Errorf("unknown env %q", c.Env)
	}

	switch c.Storage.Driver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Auth.JWTSecret == "" {
		if c.Env != EnvLocal {
			return errors.New("auth.jwt_secret is required outside local env")
		}
		c.Auth.JWTSecret = localJWTSecret
	}

	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}

	if len(c.SeedAccounts) == 0 {
		c.SeedAccounts = DefaultSeedAccounts
	}
	if _, err := c.OpeningAccounts(); err != nil {
		return err
	}

	return nil
}

// OpeningAccounts converts SeedAccounts to the accounts opened at
// registration.
func (c *Config) OpeningAccounts() ([]models.NewAccount, error) {
	accounts := make([]models.NewAccount, 0, len(c.SeedAccounts))

	for _, seed := range c.SeedAccounts {
		typ, err := models.ParseAccountType(seed.Type)
		if err != nil {
			return nil, fmt.Errorf("seed account %q: %w", seed.Name, err)
		}

		balance, err := money.Parse(seed.Balance)
		if err != nil {
			return nil, fmt.Errorf("seed account %q: %w", seed.Name, err)
		}
		if balance < 0 {
			return nil, fmt.Errorf("seed account %q: negative balance", seed.Name)
		}

		accounts = append(accounts, models.NewAccount{Name: seed.Name, Type: typ, Balance: balance})
	}

	return accounts, nil
}

// DSN is the data source name for the configured storage driver.
func (c *Config) DSN() string {
	if c.Storage.Driver == "sqlite3" {
		return c.Storage.SQLitePath
	}

	return c.Postgres.URL()
}

func (p Postgres) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Pass),
		Host:     p.Host + ":" + p.Port,
		Path:     p.Db,
		RawQuery: "sslmode=" + url.QueryEscape(p.SSLMode),
	}

	return u.String()
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
