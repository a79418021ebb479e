package config

import (
	"fmt"
	"os"

	"github.com/samber/do/v2"
	"go.yaml.in/yaml/v3"

	"github.com/willie68/go_tilerip/configs"
	"github.com/willie68/go_tilerip/internal/logging"
	"github.com/willie68/go_tilerip/internal/page"
	"github.com/willie68/go_tilerip/internal/ripper"
	"github.com/willie68/go_tilerip/internal/tilecache"
	"github.com/willie68/go_tilerip/internal/transport"
	"github.com/willie68/go_tilerip/internal/utils/measurement"
)

// Config the complete configuration
type Config struct {
	Port      int                `yaml:"port"`
	Format    string             `yaml:"format"`
	Ripper    ripper.Config      `yaml:"ripper"`
	Transport transport.Config   `yaml:"transport"`
	Page      page.Config        `yaml:"page"`
	Cache     tilecache.Config   `yaml:"cache"`
	Metrics   measurement.Config `yaml:"metrics"`
	Logging   logging.Config     `yaml:"logging"`
}

var (
	config Config
)

// Option changes a single parameter of the loaded config
type Option func(c *Config)

// Get the actual config
func Get() *Config {
	return &config
}

func Logging() *logging.Config {
	return &config.Logging
}

func Cache() *tilecache.Config {
	return &config.Cache
}

func Port() int {
	return config.Port
}

func Format() string {
	return config.Format
}

// WithPort overwrites the port, 0 keeps the configured one
func WithPort(p int) Option {
	return func(c *Config) {
		if p > 0 {
			c.Port = p
		}
	}
}

// WithWorkers overwrites the probe workers, 0 keeps the configured ones
func WithWorkers(w int) Option {
	return func(c *Config) {
		if w > 0 {
			c.Ripper.Workers = w
		}
	}
}

// WithFormat overwrites the output format, empty keeps the configured one
func WithFormat(f string) Option {
	return func(c *Config) {
		if f != "" {
			c.Format = f
		}
	}
}

// WithMetrics activates the measurement
func WithMetrics(active bool) Option {
	return func(c *Config) {
		if active {
			c.Metrics.Active = true
		}
	}
}

// SetParameter applies the options to the loaded config
func SetParameter(opts ...Option) {
	for _, o := range opts {
		o(&config)
	}
}

func JSON() string {
	js, err := config.JSON()
	if err != nil {
		return ""
	}
	return js
}

// Load loads the config
func Load(file string) error {
	_, err := os.Stat(file)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("can't load config file: %s", err.Error())
	}
	return parse(data)
}

// LoadDefault loads the embedded default config
func LoadDefault() error {
	return parse([]byte(configs.ConfigFile))
}

func parse(data []byte) error {
	c := Config{}
	err := yaml.Unmarshal(data, &c)
	if err != nil {
		return fmt.Errorf("can't unmarshal config file: %s", err.Error())
	}
	config = c
	return nil
}

// Init provides the config and all sub configs
func Init(inj do.Injector) {
	do.ProvideValue(inj, &config)
	do.ProvideValue(inj, &config.Ripper)
	do.ProvideValue(inj, &config.Transport)
	do.ProvideValue(inj, &config.Page)
	do.ProvideValue(inj, &config.Cache)
	do.ProvideValue(inj, &config.Metrics)
	do.ProvideValue(inj, &config.Logging)

	ver := NewVersion()
	do.ProvideValue(inj, *ver)
}

func (c *Config) JSON() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("can't marshal config to json: %s", err.Error())
	}
	return string(data), nil
}
