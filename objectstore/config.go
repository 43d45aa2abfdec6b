// Package objectstore publishes synth output to an S3-compatible bucket.
package objectstore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/initializ/envpipe/config"
)

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
	Bucket    string
}

func ConfigFromEnv() (Config, error) {
	useSSL, err := config.Bool(config.EnvS3UseSSL, true)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		Endpoint:  config.String(config.EnvS3Endpoint, "s3.amazonaws.com"),
		AccessKey: config.String(config.EnvS3AccessKey, ""),
		SecretKey: config.String(config.EnvS3SecretKey, ""),
		Region:    config.String(config.EnvS3Region, "us-east-1"),
		UseSSL:    useSSL,
		Bucket:    config.String(config.EnvS3Bucket, "envpipe-synth"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return errors.New("endpoint is required")
	}
	if strings.TrimSpace(c.AccessKey) == "" {
		return errors.New("access key is required")
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		return errors.New("secret key is required")
	}
	if strings.TrimSpace(c.Region) == "" {
		return errors.New("region is required")
	}
	if strings.TrimSpace(c.Bucket) == "" {
		return errors.New("bucket is required")
	}
	if strings.Contains(c.Endpoint, "://") {
		return fmt.Errorf("endpoint must not include scheme: %q", c.Endpoint)
	}
	return nil
}
