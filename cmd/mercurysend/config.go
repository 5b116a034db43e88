package main

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"go.mau.fi/mercury-send/pkg/messagix"
	"go.mau.fi/mercury-send/pkg/messagix/cookies"
	"go.mau.fi/mercury-send/pkg/messagix/types"
)

//go:embed example-config.yaml
var ExampleConfig string

type Config struct {
	Cookies   string         `yaml:"cookies"`
	FbDtsg    string         `yaml:"fb_dtsg"`
	Platform  types.Platform `yaml:"platform"`
	BaseURL   string         `yaml:"base_url"`
	Proxy     string         `yaml:"proxy"`
	UserAgent string         `yaml:"user_agent"`
	Timeout   time.Duration  `yaml:"timeout"`
	LogLevel  string         `yaml:"log_level"`

	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`

	logLevel zerolog.Level `yaml:"-"`
}

type umConfig Config

func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	err := node.Decode((*umConfig)(c))
	if err != nil {
		return err
	}
	if c.LogLevel == "" {
		c.logLevel = zerolog.InfoLevel
	} else if c.logLevel, err = zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	return nil
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Session() (*cookies.Cookies, error) {
	if c.Cookies == "" {
		return nil, fmt.Errorf("cookies are not set in the config")
	}
	return cookies.ParseCookies(c.Cookies)
}

func (c *Config) ClientConfig() *messagix.Config {
	return &messagix.Config{
		Platform:  c.Platform,
		BaseURL:   c.BaseURL,
		FbDtsg:    c.FbDtsg,
		UserAgent: c.UserAgent,
		Proxy:     c.Proxy,
		Timeout:   c.Timeout,

		InsecureSkipVerify: c.InsecureSkipVerify,
	}
}
