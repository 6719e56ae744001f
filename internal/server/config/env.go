package config

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// envConfig is the environment view of Config. It is seeded from the
// previous layer, so a variable that is unset, empty or malformed leaves the
// previous value in place.
type envConfig struct {
	Address           string        `env:"ADDRESS"`
	DatabaseDSN       string        `env:"DATABASE_DSN"`
	Environment       string        `env:"APP_ENV"`
	LogLevel          string        `env:"LOG_LEVEL"`
	SecretKeySize     int           `env:"SECRET_KEY_SIZE"`
	AccessTokenTTL    time.Duration `env:"ACCESS_TOKEN_TTL"`
	BcryptCost        int           `env:"BCRYPT_COST"`
	LoginRateLimit    int           `env:"LOGIN_RATE_LIMIT"`
	CORSAllowedOrigin string        `env:"CORS_ALLOWED_ORIGIN"`

	PasswordMinLen       int  `env:"PASSWORD_MIN_LEN"`
	PasswordMaxLen       int  `env:"PASSWORD_MAX_LEN"`
	PasswordHasUppercase bool `env:"PASSWORD_HAS_UPPERCASE"`
	PasswordHasLowercase bool `env:"PASSWORD_HAS_LOWERCASE"`
	PasswordHasDigits    bool `env:"PASSWORD_HAS_DIGITS"`
	PasswordHasSpaces    bool `env:"PASSWORD_HAS_SPACES"`
}

// parseTTL accepts a Go duration ("90m") or a bare number of minutes, the
// unit of the -t flag.
func parseTTL(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	if minutes, err := strconv.Atoi(raw); err == nil {
		return time.Duration(minutes) * time.Minute, nil
	}
	return time.ParseDuration(raw)
}

func (c *Config) toEnv() envConfig {
	p := c.PasswordPolicy
	return envConfig{
		Address:              c.EndpointAddrHTTP,
		DatabaseDSN:          c.DatabaseDSN,
		Environment:          c.Environment,
		LogLevel:             c.LogLevel,
		SecretKeySize:        c.SecretKeySize,
		AccessTokenTTL:       c.AccessTokenValidityDuration,
		BcryptCost:           c.BcryptCost,
		LoginRateLimit:       c.LoginRateLimit,
		CORSAllowedOrigin:    c.CORSAllowedOrigin,
		PasswordMinLen:       p.MinLength,
		PasswordMaxLen:       p.MaxLength,
		PasswordHasUppercase: p.RequireUppercase,
		PasswordHasLowercase: p.RequireLowercase,
		PasswordHasDigits:    p.RequireDigits,
		PasswordHasSpaces:    p.RequireSpaces,
	}
}

func (c *Config) fromEnv(e envConfig) {
	c.EndpointAddrHTTP = e.Address
	c.DatabaseDSN = e.DatabaseDSN
	c.Environment = e.Environment
	c.LogLevel = e.LogLevel
	c.SecretKeySize = e.SecretKeySize
	c.AccessTokenValidityDuration = e.AccessTokenTTL
	c.BcryptCost = e.BcryptCost
	c.LoginRateLimit = e.LoginRateLimit
	c.CORSAllowedOrigin = e.CORSAllowedOrigin
	c.PasswordPolicy.MinLength = e.PasswordMinLen
	c.PasswordPolicy.MaxLength = e.PasswordMaxLen
	c.PasswordPolicy.RequireUppercase = e.PasswordHasUppercase
	c.PasswordPolicy.RequireLowercase = e.PasswordHasLowercase
	c.PasswordPolicy.RequireDigits = e.PasswordHasDigits
	c.PasswordPolicy.RequireSpaces = e.PasswordHasSpaces
}

// parseEnv overlays environment variables from environ. A nil environ
// means no variables, not the process environment. Each value that fails to
// parse is reported in Warnings and the previous value is kept.
func parseEnv(config *Config, environ map[string]string) {
	if environ == nil {
		environ = map[string]string{}
	}

	e := config.toEnv()
	err := env.ParseWithOptions(&e, env.Options{
		Environment: environ,
		FuncMap: map[reflect.Type]env.ParserFunc{
			reflect.TypeOf(time.Duration(0)): parseTTL,
		},
	})
	config.fromEnv(e)

	if err == nil {
		return
	}

	var agg env.AggregateError
	if !errors.As(err, &agg) {
		config.warnf("parse env: %v", err)
		return
	}
	for _, fieldErr := range agg.Errors {
		var pe env.ParseError
		if errors.As(fieldErr, &pe) {
			name := envVarName(pe.Name)
			config.warnf("%s=%q is invalid, keeping the previous value: %v", name, environ[name], pe.Err)
			continue
		}
		config.warnf("parse env: %v", fieldErr)
	}
}

// envVarName maps an envConfig field name to its variable name.
func envVarName(field string) string {
	sf, ok := reflect.TypeOf(envConfig{}).FieldByName(field)
	if !ok {
		return field
	}
	return sf.Tag.Get("env")
}
