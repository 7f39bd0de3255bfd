// internal/config/config.go
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Neptun NeptunConfig `yaml:"neptun"`
}

type NeptunConfig struct {
	Hubs    []HubConfig   `yaml:"hubs"`
	Poll    PollConfig    `yaml:"poll"`
	HTTP    HTTPConfig    `yaml:"http"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ---- HUB ----

type HubConfig struct {
	Name       string           `yaml:"name"`
	Connection ConnectionConfig `yaml:"connection"`

	// Valves names the valves in layout order. Valve 1 is the first entry.
	Valves []string `yaml:"valves"`

	// Trace logs raw serial frames at debug level.
	Trace bool `yaml:"trace"`
}

// ---- SERIAL LINE ----

type ConnectionConfig struct {
	Type     string  `yaml:"type"`   // only "serial"
	Method   string  `yaml:"method"` // rtu | ascii
	Port     string  `yaml:"port"`
	BaudRate int     `yaml:"baudrate"`
	ByteSize int     `yaml:"bytesize"`
	Parity   string  `yaml:"parity"` // E | O | N
	StopBits int     `yaml:"stopbits"`
	Timeout  float64 `yaml:"timeout"` // seconds
}

// TimeoutDuration converts the configured timeout in seconds.
func (c ConnectionConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout * float64(time.Second))
}

// ---- POLL ----

type PollConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}

// ---- SURFACES ----

type HTTPConfig struct {
	Listen string `yaml:"listen"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // console | json
	File   string `yaml:"file"`   // empty means stderr
}

type MetricsConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Address   string   `yaml:"address"`
	Namespace string   `yaml:"namespace"`
	Tags      []string `yaml:"tags"`
}

// Load reads and parses a YAML config file.
// It does not apply defaults or validate; see Normalize and Validate.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: parsing: %w", err)
	}
	return &cfg, nil
}
