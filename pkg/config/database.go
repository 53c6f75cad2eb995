package config

import (
	"fmt"
	"net/url"
)

// DatabaseConfig holds PostgreSQL database configuration
type DatabaseConfig struct {
	Host     string `env:"IDM_PG_HOST" env-default:"localhost"`
	Port     uint16 `env:"IDM_PG_PORT" env-default:"5432"`
	Database string `env:"IDM_PG_DATABASE" env-default:"keyauth_db"`
	User     string `env:"IDM_PG_USER" env-default:"keyauth"`
	Password string `env:"IDM_PG_PASSWORD" env-default:"pwd"`
	Schema   string `env:"IDM_PG_SCHEMA" env-default:"public"`
}

// ToDatabaseURL converts the config to a PostgreSQL connection URL
func (d DatabaseConfig) ToDatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Database,
		RawQuery: fmt.Sprintf("sslmode=disable&search_path=%s,public", d.Schema),
	}
	return u.String()
}

func (d DatabaseConfig) validate() ValidationErrors {
	return collect(
		RequireNonEmpty("IDM_PG_HOST", d.Host),
		RequireValidPort("IDM_PG_PORT", d.Port),
		RequireNonEmpty("IDM_PG_DATABASE", d.Database),
		RequireNonEmpty("IDM_PG_USER", d.User),
	)
}

// StorageConfig selects the account storage backend.
type StorageConfig struct {
	Backend    string `env:"STORAGE_BACKEND" env-default:"postgres"`
	SQLitePath string `env:"SQLITE_PATH" env-default:"keyauth.db"`
}

// StorageBackends lists the accepted STORAGE_BACKEND values.
var StorageBackends = []string{"postgres", "sqlite", "memory"}

func (s StorageConfig) validate() ValidationErrors {
	errs := collect(RequireOneOf("STORAGE_BACKEND", s.Backend, StorageBackends))
	if s.Backend == "sqlite" {
		errs = append(errs, collect(RequireNonEmpty("SQLITE_PATH", s.SQLitePath))...)
	}
	return errs
}
