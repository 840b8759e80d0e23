// Package config reads the settings of the session store commands from an
// optional YAML file and command line flags. Flags win over the file, the
// file wins over defaults.
package config

import (
	"encoding/hex"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Address     string `yaml:"address"`
	StoreDir    string `yaml:"store_dir"` // empty keeps blobs in memory
	Compression string `yaml:"compression"`
	Checksum    bool   `yaml:"checksum"`
	ChecksumKey string `yaml:"checksum_key"` // hex, 32 bytes
	Token       string `yaml:"token"`
	LogLevel    string `yaml:"log_level"`
	Development bool   `yaml:"development"`

	// sessioncheck only
	Sessions int `yaml:"sessions"`
	Workers  int `yaml:"workers"`
}

func Default() *Config {
	return &Config{
		Address:     "127.0.0.1:3200",
		Compression: "zstd",
		Checksum:    true,
		LogLevel:    "info",
		Sessions:    1000,
		Workers:     4,
	}
}

func bind(fs *pflag.FlagSet, c *Config) {
	fs.StringVar(&c.Address, "address", c.Address, "listen or dial address")
	fs.StringVar(&c.StoreDir, "store-dir", c.StoreDir, "blob directory, in-memory store when empty")
	fs.StringVar(&c.Compression, "compression", c.Compression, "none, zstd, lz4 or snappy")
	fs.BoolVar(&c.Checksum, "checksum", c.Checksum, "append a BLAKE3 checksum to stored sessions")
	fs.StringVar(&c.ChecksumKey, "checksum-key", c.ChecksumKey, "hex encoded 32 byte key for keyed checksums")
	fs.StringVar(&c.Token, "token", c.Token, "bearer token, no authentication when empty")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error")
	fs.BoolVar(&c.Development, "development", c.Development, "development logger")
	fs.IntVar(&c.Sessions, "sessions", c.Sessions, "sessions to check")
	fs.IntVar(&c.Workers, "workers", c.Workers, "concurrent check workers")
}

// NewConfig parses args (without the program name).
func NewConfig(name string, args []string) (*Config, error) {
	const msg = "config"

	// first pass finds the file
	var file string
	probe := pflag.NewFlagSet(name, pflag.ContinueOnError)
	probe.ParseErrorsWhitelist.UnknownFlags = true
	probe.Usage = func() {}
	probe.StringVar(&file, "config", "", "")
	_ = probe.Parse(args)

	c := Default()
	if file != "" {
		if err := c.load(file); err != nil {
			return nil, errors.Wrap(err, msg)
		}
	}

	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", file, "YAML config file")
	bind(fs, c)
	if err := fs.Parse(args); err != nil {
		return nil, errors.Wrap(err, msg)
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Wrap(err, msg)
	}
	return c, nil
}

func (c *Config) load(file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return errors.Wrapf(err, "parse %s", file)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Address == "" {
		return errors.New("address is empty")
	}
	if c.Workers < 1 {
		return errors.Errorf("workers must be positive, got %d", c.Workers)
	}
	if _, err := c.Key(); err != nil {
		return err
	}
	if _, err := zap.ParseAtomicLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "log level")
	}
	return nil
}

// Key decodes ChecksumKey. It is nil when no key is set.
func (c *Config) Key() ([]byte, error) {
	if c.ChecksumKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.ChecksumKey)
	if err != nil {
		return nil, errors.Wrap(err, "checksum key")
	}
	if len(key) != 32 {
		return nil, errors.Errorf("checksum key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

// Logger builds the zap logger the settings ask for.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}
