package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophaccount/internal/flagx"
	"github.com/dmitrijs2005/gophaccount/internal/timex"
)

// JsonPolicy mirrors password.PolicyConfig with optional fields.
type JsonPolicy struct {
	MinLength        *int  `json:"min_length"`
	MaxLength        *int  `json:"max_length"`
	RequireUppercase *bool `json:"require_uppercase"`
	RequireLowercase *bool `json:"require_lowercase"`
	RequireDigits    *bool `json:"require_digits"`
	RequireSpaces    *bool `json:"require_spaces"`
}

// JsonConfig is the on-disk form of Config. Absent keys leave the previous
// layer's value in place. Durations accept "90m" or integer nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP            *string         `json:"endpoint_addr_http"`
	DatabaseDSN                 *string         `json:"database_dsn"`
	Environment                 *string         `json:"environment"`
	LogLevel                    *string         `json:"log_level"`
	SecretKeySize               *int            `json:"secret_key_size"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	BcryptCost                  *int            `json:"bcrypt_cost"`
	PasswordPolicy              *JsonPolicy     `json:"password_policy"`
	LoginRateLimit              *int            `json:"login_rate_limit"`
	CORSAllowedOrigin           *string         `json:"cors_allowed_origin"`
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// parseJson overlays the JSON file named by -c or -config. Without either
// flag nothing is loaded. An unreadable or invalid file panics.
func parseJson(config *Config, args []string) {
	jsonConfigFile := flagx.ConfigFileFlag(args)

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	set(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	set(&config.DatabaseDSN, c.DatabaseDSN)
	set(&config.Environment, c.Environment)
	set(&config.LogLevel, c.LogLevel)
	set(&config.SecretKeySize, c.SecretKeySize)
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	set(&config.BcryptCost, c.BcryptCost)
	set(&config.LoginRateLimit, c.LoginRateLimit)
	set(&config.CORSAllowedOrigin, c.CORSAllowedOrigin)

	if p := c.PasswordPolicy; p != nil {
		set(&config.PasswordPolicy.MinLength, p.MinLength)
		set(&config.PasswordPolicy.MaxLength, p.MaxLength)
		set(&config.PasswordPolicy.RequireUppercase, p.RequireUppercase)
		set(&config.PasswordPolicy.RequireLowercase, p.RequireLowercase)
		set(&config.PasswordPolicy.RequireDigits, p.RequireDigits)
		set(&config.PasswordPolicy.RequireSpaces, p.RequireSpaces)
	}
}
