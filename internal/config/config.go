// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults live in New; Load layers a YAML file and environment on top.
// - All loading functions accept context.Context as the first parameter.
// - Errors are wrapped with this package's sentinel kinds.
package config

import "fmt"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format"`
	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DataFile is the historical score list (.xlsx or .csv) loaded at start.
	DataFile string `koanf:"data_file"`
	// DataSheet selects a worksheet; empty means the first one.
	DataSheet string `koanf:"data_sheet"`

	// ScoreMin and ScoreMax bound the candidate score accepted by the API.
	ScoreMin float64 `koanf:"score_min"`
	ScoreMax float64 `koanf:"score_max"`
	// TopNMin and TopNMax bound the result count; TopNDefault applies when omitted.
	TopNMin     int `koanf:"top_n_min"`
	TopNMax     int `koanf:"top_n_max"`
	TopNDefault int `koanf:"top_n_default"`

	// AuthEmail enables login when set; AuthPasswordHash is its bcrypt hash.
	AuthEmail        string `koanf:"auth_email"`
	AuthPasswordHash string `koanf:"auth_password_hash"`
	// SessionTTLMinutes is how long a login stays valid.
	SessionTTLMinutes int `koanf:"session_ttl_minutes"`
	// SecureCookies marks the session cookie Secure (serve behind TLS).
	SecureCookies bool `koanf:"secure_cookies"`
	// LoginRatePerMinute and LoginBurst throttle login attempts per client.
	LoginRatePerMinute float64 `koanf:"login_rate_per_minute"`
	LoginBurst         int     `koanf:"login_burst"`

	// Zero-variance policy of the estimation engine.
	ZeroVarianceThreshold float64 `koanf:"zero_variance_threshold"`
	CertainProbability    float64 `koanf:"certain_probability"`
	ImpossibleProbability float64 `koanf:"impossible_probability"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9080",
		DataFile:              "data/merged_score_lists_final.xlsx",
		ScoreMin:              0,
		ScoreMax:              700,
		TopNMin:               3,
		TopNMax:               20,
		TopNDefault:           10,
		SessionTTLMinutes:     12 * 60,
		LoginRatePerMinute:    10,
		LoginBurst:            5,
		ZeroVarianceThreshold: 0.01,
		CertainProbability:    99.99,
		ImpossibleProbability: 0.01,
	}
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.ScoreMin >= c.ScoreMax:
		return fmt.Errorf("%w: score_min (%v) must be below score_max (%v)", ErrInvalidConfig, c.ScoreMin, c.ScoreMax)
	case c.TopNMin < 1 || c.TopNMin > c.TopNMax:
		return fmt.Errorf("%w: top_n_min must be in [1, top_n_max]", ErrInvalidConfig)
	case c.TopNDefault < c.TopNMin || c.TopNDefault > c.TopNMax:
		return fmt.Errorf("%w: top_n_default must be in [top_n_min, top_n_max]", ErrInvalidConfig)
	case c.AuthEmail != "" && c.AuthPasswordHash == "":
		return fmt.Errorf("%w: auth_password_hash is required when auth_email is set", ErrInvalidConfig)
	case c.SessionTTLMinutes <= 0:
		return fmt.Errorf("%w: session_ttl_minutes must be positive", ErrInvalidConfig)
	case c.LoginRatePerMinute <= 0 || c.LoginBurst <= 0:
		return fmt.Errorf("%w: login throttling values must be positive", ErrInvalidConfig)
	case c.ZeroVarianceThreshold < 0:
		return fmt.Errorf("%w: zero_variance_threshold must not be negative", ErrInvalidConfig)
	case c.ImpossibleProbability < 0 || c.CertainProbability > 100 || c.ImpossibleProbability > c.CertainProbability:
		return fmt.Errorf("%w: need 0 <= impossible_probability <= certain_probability <= 100", ErrInvalidConfig)
	}
	return nil
}

// AuthEnabled reports whether login is required.
func (c *Config) AuthEnabled() bool { return c.AuthEmail != "" }
