// backend/src/authcfg/authcfg.go
package authcfg

import (
	"bytes"
	"fmt"
	"os"
	"regexp"

	"github.com/spf13/viper"
)

// Config mirrors the auth YAML document: a set of credentialed users plus the
// session cookie parameters.
type Config struct {
	Credentials Credentials `mapstructure:"credentials"`
	Cookie      Cookie      `mapstructure:"cookie"`
}

type Credentials struct {
	Usernames map[string]User `mapstructure:"usernames"`
}

type User struct {
	Name     string `mapstructure:"name"`
	Password string `mapstructure:"password"` // bcrypt hash, usually injected via ${VAR}
}

type Cookie struct {
	Name       string `mapstructure:"name"`
	Key        string `mapstructure:"key"`
	ExpiryDays int    `mapstructure:"expiry_days"`
}

var placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnv substitutes every ${VAR} placeholder in raw with the value of the
// corresponding environment variable. Unlike os.ExpandEnv this is strict: a
// placeholder naming an unset variable is an error, so secrets can never be
// silently blanked out.
func ExpandEnv(raw []byte) ([]byte, error) {
	var missing []string
	expanded := placeholderPattern.ReplaceAllFunc(raw, func(m []byte) []byte {
		name := string(placeholderPattern.FindSubmatch(m)[1])
		value, ok := os.LookupEnv(name)
		if !ok {
			missing = append(missing, name)
			return m
		}
		return []byte(value)
	})
	if len(missing) > 0 {
		return nil, fmt.Errorf("auth config references unset environment variables: %v", missing)
	}
	return expanded, nil
}

// Load reads the auth YAML file at path, resolves ${VAR} placeholders from the
// process environment, and parses the result. Any failure here is meant to be
// fatal at startup.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading auth config %s: %w", path, err)
	}

	expanded, err := ExpandEnv(raw)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(expanded)); err != nil {
		return nil, fmt.Errorf("parsing auth config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding auth config %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid auth config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Credentials.Usernames) == 0 {
		return fmt.Errorf("no credentials defined")
	}
	for username, user := range c.Credentials.Usernames {
		if user.Password == "" {
			return fmt.Errorf("user %q has no password hash", username)
		}
	}
	if c.Cookie.Name == "" {
		return fmt.Errorf("cookie name is empty")
	}
	if len(c.Cookie.Key) < 32 {
		return fmt.Errorf("cookie key must be at least 32 characters")
	}
	if c.Cookie.ExpiryDays <= 0 {
		return fmt.Errorf("cookie expiry_days must be positive")
	}
	return nil
}
