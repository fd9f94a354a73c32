// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/units"
	"github.com/erasure-tools/overwrite/internal/erasure"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"go.uber.org/ratelimit"
)

const EnvPrefix = "OVERWRITE_"

// Config holds the options of a fill run as they appear in config files,
// environment variables and command-line flags.
type Config struct {
	Path      string `json:"path"`
	Files     int    `json:"files"`
	Data      string `json:"data"`
	Fill      string `json:"fill"`
	BlockSize string `json:"blockSize"`
	Dop       int    `json:"dop"`
	MaxRate   string `json:"maxRate"`
	Keep      bool   `json:"keep"`
}

// Settings is a validated Config with every value parsed.
type Settings struct {
	Directory string
	FileCount int
	// Volume is nil when no bulk data should be written.
	Volume    *erasure.VolumeTarget
	FillMode  erasure.FillMode
	BlockSize int
	Dop       int
	// MaxRate is in bytes per second. Zero means unlimited.
	MaxRate int64
	Keep    bool
}

var envKeys = map[string]string{
	"PATH":       "path",
	"FILES":      "files",
	"DATA":       "data",
	"FILL":       "fill",
	"BLOCK_SIZE": "blockSize",
	"DOP":        "dop",
	"MAX_RATE":   "maxRate",
	"KEEP":       "keep",
}

func defaults() map[string]any {
	return map[string]any{
		"fill":      erasure.FillZero.String(),
		"blockSize": fmt.Sprint(erasure.DefaultBlockSize),
		"dop":       1,
	}
}

// Load merges, in increasing order of precedence: defaults, OVERWRITE_*
// environment variables (a .env file in the working directory is honored),
// the YAML file at configPath (if not empty), key=value overrides, and
// explicitly set flags.
func Load(configPath string, overrides map[string]string, flags map[string]any) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "error loading .env file")
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, err
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return envKeys[strings.TrimPrefix(s, EnvPrefix)]
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, errors.Wrap(err, "error reading environment")
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "error reading config file '%s'", configPath)
		}
	}

	for key, value := range overrides {
		if err := k.Set(key, value); err != nil {
			return nil, errors.Wrapf(err, "invalid override '%s'", key)
		}
	}

	if len(flags) > 0 {
		if err := k.Load(confmap.Provider(flags, "."), nil); err != nil {
			return nil, err
		}
	}

	config := &Config{}
	err := k.UnmarshalWithConf("", config, koanf.UnmarshalConf{
		Tag: "json",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			ErrorUnused:      true,
			Result:           config,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse configuration")
	}

	return config, nil
}

// Resolve validates the configuration and parses every value.
func (c *Config) Resolve() (*Settings, error) {
	if c.Files == 0 && strings.TrimSpace(c.Data) == "" {
		return nil, errors.New("either files or data must be specified")
	}
	if c.Files < 0 {
		return nil, fmt.Errorf("files must not be negative, got %d", c.Files)
	}
	if strings.TrimSpace(c.Path) == "" {
		return nil, errors.New("path is required")
	}

	blockSize, err := ParseBlockSize(c.BlockSize)
	if err != nil {
		return nil, err
	}

	fillMode, err := erasure.ParseFillMode(c.Fill)
	if err != nil {
		return nil, err
	}

	settings := &Settings{
		Directory: c.Path,
		FileCount: c.Files,
		FillMode:  fillMode,
		BlockSize: blockSize,
		Dop:       max(c.Dop, 1),
		Keep:      c.Keep,
	}

	if data := strings.TrimSpace(c.Data); data != "" {
		target, err := erasure.ParseVolume(data, blockSize)
		if err != nil {
			return nil, err
		}
		settings.Volume = &target
	}

	if c.MaxRate != "" {
		rate, err := parseBytes(c.MaxRate)
		if err != nil {
			return nil, errors.Wrap(err, "invalid max rate")
		}
		if rate < 0 {
			return nil, fmt.Errorf("max rate must not be negative, got %d", rate)
		}
		settings.MaxRate = rate
	}

	return settings, nil
}

// ParseBlockSize parses a block size such as "4096", "512B" or "4KiB". An
// empty or zero value selects the default block size.
func ParseBlockSize(s string) (int, error) {
	if strings.TrimSpace(s) == "" {
		return erasure.DefaultBlockSize, nil
	}

	size, err := parseBytes(s)
	if err != nil {
		return 0, errors.Wrap(err, "invalid block size")
	}

	switch {
	case size == 0:
		return erasure.DefaultBlockSize, nil
	case size < 0:
		return 0, fmt.Errorf("block size must be positive, got %d", size)
	case size > int64(maxBlockSize):
		return 0, fmt.Errorf("block size must not exceed %d bytes, got %d", maxBlockSize, size)
	}

	return int(size), nil
}

const maxBlockSize = 1 << 30

func parseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s != "" && s[len(s)-1] != 'B' {
		s += "B"
	}

	parsed, err := units.ParseBase2Bytes(s)
	if err != nil {
		return 0, err
	}
	return int64(parsed), nil
}

// NewLimiter returns a limiter that admits one block at a time at no more
// than maxRate bytes per second, or nil when maxRate is zero.
func NewLimiter(maxRate int64, blockSize int) ratelimit.Limiter {
	if maxRate <= 0 || blockSize <= 0 {
		return nil
	}

	blocksPerSecond := maxRate / int64(blockSize)
	if blocksPerSecond >= 1 {
		return ratelimit.New(int(min(blocksPerSecond, int64(1<<30))))
	}

	per := time.Duration(blockSize) * time.Second / time.Duration(maxRate)
	return ratelimit.New(1, ratelimit.Per(per))
}
