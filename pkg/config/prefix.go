package config

import "strings"

// PrefixConfig holds the configurable API endpoint prefix.
//
//	API_PREFIX=/api/v1
type PrefixConfig struct {
	API string `env:"API_PREFIX" env-default:"/api/v1"`
}

// Normalized returns the prefix without a trailing slash. "/" becomes "".
func (p PrefixConfig) Normalized() string {
	return strings.TrimRight(p.API, "/")
}

func (p PrefixConfig) validate() ValidationErrors {
	return collect(RequirePathPrefix("API_PREFIX", p.API))
}
