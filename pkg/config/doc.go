// Package config loads simple-keyauth configuration from the environment.
//
// Values are read with cleanenv struct tags after an optional .env file has
// been loaded with godotenv:
//
//	cfg, err := config.Load()
//	if err != nil {
//		slog.Error("Invalid configuration", "error", err)
//		os.Exit(1)
//	}
//
// # Environment Variables
//
// Storage:
//   - STORAGE_BACKEND: postgres (default), sqlite or memory
//   - SQLITE_PATH: database file for the sqlite backend
//   - IDM_PG_HOST, IDM_PG_PORT, IDM_PG_DATABASE, IDM_PG_USER, IDM_PG_PASSWORD, IDM_PG_SCHEMA
//
// Authentication:
//   - API_KEY_HEADER: credential header, default X-API-Key
//   - TRUST_PROXY_HEADERS: take the caller origin from X-Forwarded-For / X-Real-IP
//   - REGISTRATION_ENABLED: allow POST /users without a key
//   - AUDIT_ENABLED: log each authenticated request (default true)
//
// Bootstrap (first start with an empty store):
//   - ADMIN_USER_ID: enables bootstrap
//   - ADMIN_EMAIL: required with ADMIN_USER_ID
//   - ADMIN_PASSWORD: generated and printed once when unset
//
// Password hashing:
//   - PASSWORD_ARGON2_MEMORY, PASSWORD_ARGON2_ITERATIONS, PASSWORD_ARGON2_PARALLELISM,
//     PASSWORD_ARGON2_KEY_LENGTH
//   - PASSWORD_HASH_WORKERS: concurrent hash limit, 0 means GOMAXPROCS
//
// HTTP:
//   - API_PREFIX: route prefix, default /api/v1
//
// Logging:
//   - LOG_FORMAT: text, json or tint
//   - LOG_LEVEL: debug, info, warn, error
//
// Validation collects every problem before failing:
//
//	configuration validation failed:
//	  - STORAGE_BACKEND: must be one of [postgres sqlite memory], got "file"
//	  - LOG_FORMAT: must be one of [text json tint], got "xml"
package config
