// Package config loads service and protocol settings from YAML
package config

import (
	"dsss-steganography/models"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port         string   `yaml:"port"`
		AllowOrigins []string `yaml:"allow_origins"`
		MaxUploadMB  int64    `yaml:"max_upload_mb"`
	} `yaml:"server"`

	// DSSS parameters must match between embedding and extraction
	DSSS struct {
		SpreadingFactor int     `yaml:"spreading_factor"`
		StrengthWeight  float64 `yaml:"strength_weight"`
		MinStrength     float64 `yaml:"min_strength"`
	} `yaml:"dsss"`

	Quality struct {
		PSNRThreshold float64 `yaml:"psnr_threshold"`
	} `yaml:"quality"`

	Output struct {
		BitDepth int `yaml:"bit_depth"`
	} `yaml:"output"`
}

func Default() *Config {
	dsss := models.DefaultDSSSConfig()

	var config Config
	config.Server.Port = "8080"
	config.Server.AllowOrigins = []string{"http://localhost:3000"}
	config.Server.MaxUploadMB = 32
	config.DSSS.SpreadingFactor = dsss.SpreadingFactor
	config.DSSS.StrengthWeight = dsss.StrengthWeight
	config.DSSS.MinStrength = dsss.MinStrength
	config.Quality.PSNRThreshold = 40
	config.Output.BitDepth = 16
	return &config
}

// LoadConfig reads filename over the defaults. An empty filename returns the
// defaults. PORT in the environment overrides server.port.
func LoadConfig(filename string) (*Config, error) {
	config := Default()

	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %v", filename, err)
		}
	}

	if port := os.Getenv("PORT"); port != "" {
		config.Server.Port = port
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.max_upload_mb must be positive, got %d", c.Server.MaxUploadMB)
	}
	if c.DSSS.SpreadingFactor < 1 {
		return fmt.Errorf("dsss.spreading_factor must be at least 1, got %d", c.DSSS.SpreadingFactor)
	}
	if c.DSSS.StrengthWeight <= 0 {
		return fmt.Errorf("dsss.strength_weight must be positive, got %v", c.DSSS.StrengthWeight)
	}
	if c.DSSS.MinStrength < 0 {
		return fmt.Errorf("dsss.min_strength cannot be negative, got %v", c.DSSS.MinStrength)
	}
	switch c.Output.BitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("output.bit_depth must be 16, 24 or 32, got %d", c.Output.BitDepth)
	}
	return nil
}

// DSSSConfig returns a fresh copy of the protocol parameters
func (c *Config) DSSSConfig() *models.DSSSConfig {
	return &models.DSSSConfig{
		SpreadingFactor: c.DSSS.SpreadingFactor,
		StrengthWeight:  c.DSSS.StrengthWeight,
		MinStrength:     c.DSSS.MinStrength,
	}
}

func (c *Config) MaxUploadBytes() int64 {
	return c.Server.MaxUploadMB << 20
}
