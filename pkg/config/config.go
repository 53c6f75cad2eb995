package config

import (
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/tendant/chi-demo/app"
)

// Config is the full service configuration.
type Config struct {
	AppConfig app.AppConfig
	Database  DatabaseConfig
	Storage   StorageConfig
	Auth      AuthConfig
	Password  PasswordConfig
	Bootstrap BootstrapConfig
	Prefix    PrefixConfig
	Log       LogConfig
}

// Load reads an optional .env file, then the environment, and validates the result.
func Load() (Config, error) {
	LoadEnvFile()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section. Database settings are only checked for the postgres backend.
func (c Config) Validate() error {
	validators := []Validator{
		c.Storage.validate,
		c.Auth.validate,
		c.Password.validate,
		c.Bootstrap.validate,
		c.Log.validate,
		c.Prefix.validate,
	}
	if c.Storage.Backend == "postgres" {
		validators = append(validators, c.Database.validate)
	}
	return Validate(validators...)
}
