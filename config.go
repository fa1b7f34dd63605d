package adminform

import (
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Keys read by `Admin` and `AdminForm`
const (
	ConfigDebug        = "debug"
	ConfigSecretKey    = "secret_key"
	ConfigSessionName  = "session.name"
	ConfigCsrfEnabled  = "csrf.enabled"
	ConfigCsrfTimeout  = "csrf.timeout"
	ConfigTranslations = "i18n.translations"
	ConfigLanguage     = "i18n.language"
	ConfigStaticFolder = "static.folder"
	ConfigTheme        = "theme"
)

type Config struct {
	dict map[string]any
}

// config.Bool("debug.verbose", true)
// net.Dial(config.String("xx.address", "10.0.0.1:3389"))
func NewConfig(dict ...map[string]any) *Config {
	c := &Config{dict: map[string]any{
		ConfigSessionName: "session",
		ConfigCsrfEnabled: true,
		ConfigCsrfTimeout: time.Hour,
		ConfigLanguage:    "en",
	}}
	for _, d := range dict {
		merge(c.dict, d)
	}
	return c
}

func (c *Config) Bool(name string, default_value ...bool) bool {
	if v, ok := c.dict[name]; ok {
		return cast.ToBool(v)
	}
	return firstOr(default_value)
}

func (c *Config) String(name string, default_value ...string) string {
	if v, ok := c.dict[name]; ok {
		return cast.ToString(v)
	}
	return firstOr(default_value)
}

func (c *Config) Int(name string, default_value ...int) int {
	if v, ok := c.dict[name]; ok {
		return cast.ToInt(v)
	}
	return firstOr(default_value)
}

// Accept time.Duration, "90s" or seconds in number
func (c *Config) Duration(name string, default_value ...time.Duration) time.Duration {
	if v, ok := c.dict[name]; ok {
		return cast.ToDuration(v)
	}
	return firstOr(default_value)
}

func (c *Config) Put(name string, v any) *Config {
	c.dict[name] = v
	return c
}

// prefix.name => value
// return name => value
func (c *Config) GetSection(section_name string) map[string]any {
	prefix := section_name + "."
	res := map[string]any{}

	for k, v := range c.dict {
		if strings.HasPrefix(k, prefix) {
			res[k[len(prefix):]] = v
		}
	}
	return res
}
