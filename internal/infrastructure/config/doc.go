// Package config provides 12-factor configuration management for appsync.
//
// Configuration is layered: built-in defaults, then an optional YAML or TOML
// file, then environment variables. CLI flags override all of them.
//
// Configuration Sections:
//   - Remote: base URL, endpoint path, timeout, credentials, rate limit
//   - Retry: transport retry count and backoff bounds
//   - Registry: unwrap strictness
//   - Logging: log level and output format
//   - Dev: local dev server address
//
// Example Usage:
//
//	cfg, err := config.LoadFile("appsync.yaml")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.Remote.BaseURL + cfg.Remote.Endpoint)
//
// Environment Variables:
//   - APPSYNC_BASE_URL, APPSYNC_ENDPOINT, APPSYNC_TIMEOUT, APPSYNC_TOKEN
//   - APPSYNC_USERNAME, APPSYNC_PASSWORD
//   - APPSYNC_USER_AGENT, APPSYNC_RATE_LIMIT_RPS
//   - APPSYNC_RETRY_MAX, APPSYNC_RETRY_WAIT_MIN, APPSYNC_RETRY_WAIT_MAX
//   - APPSYNC_STRICT_UNWRAP, APPSYNC_DEV_ADDR
//   - LOG_LEVEL, LOG_DEV
package config
