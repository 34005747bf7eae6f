package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/kvstore/internal/flagx"
	"github.com/dmitrijs2005/kvstore/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration. Duration fields use
// timex.Duration so files can say "10s" or give integer nanoseconds.
type FileConfig struct {
	Driver              string         `json:"driver" yaml:"driver"`
	DatabaseDSN         string         `json:"database_dsn" yaml:"database_dsn"`
	SpannerProject      string         `json:"spanner_project" yaml:"spanner_project"`
	SpannerInstance     string         `json:"spanner_instance" yaml:"spanner_instance"`
	SpannerDatabase     string         `json:"spanner_database" yaml:"spanner_database"`
	SpannerEmulatorHost string         `json:"spanner_emulator_host" yaml:"spanner_emulator_host"`
	ServiceHost         string         `json:"service_host" yaml:"service_host"`
	ServicePort         int            `json:"service_port" yaml:"service_port"`
	GRPCHealthAddr      string         `json:"grpc_health_addr" yaml:"grpc_health_addr"`
	HealthInterval      timex.Duration `json:"health_interval" yaml:"health_interval"`
	RequestTimeout      timex.Duration `json:"request_timeout" yaml:"request_timeout"`
	ShutdownTimeout     timex.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel            string         `json:"log_level" yaml:"log_level"`
	AuthSecret          string         `json:"auth_secret" yaml:"auth_secret"`
	S3Bucket            string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region            string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint      string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	S3AccessKey         string         `json:"s3_access_key" yaml:"s3_access_key"`
	S3SecretKey         string         `json:"s3_secret_key" yaml:"s3_secret_key"`
}

// parseFile overlays values from the file given with -c/-config. Keys absent
// from the file keep their current values. Files ending in .yaml or .yml are
// decoded as YAML, anything else as JSON.
func parseFile(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	fc := toFile(config)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	fromFile(config, fc)
	return nil
}

func toFile(c *Config) *FileConfig {
	return &FileConfig{
		Driver:              c.Driver,
		DatabaseDSN:         c.DatabaseDSN,
		SpannerProject:      c.SpannerProject,
		SpannerInstance:     c.SpannerInstance,
		SpannerDatabase:     c.SpannerDatabase,
		SpannerEmulatorHost: c.SpannerEmulatorHost,
		ServiceHost:         c.ServiceHost,
		ServicePort:         c.ServicePort,
		GRPCHealthAddr:      c.GRPCHealthAddr,
		HealthInterval:      timex.Duration{Duration: c.HealthInterval},
		RequestTimeout:      timex.Duration{Duration: c.RequestTimeout},
		ShutdownTimeout:     timex.Duration{Duration: c.ShutdownTimeout},
		LogLevel:            c.LogLevel,
		AuthSecret:          c.AuthSecret,
		S3Bucket:            c.S3Bucket,
		S3Region:            c.S3Region,
		S3BaseEndpoint:      c.S3BaseEndpoint,
		S3AccessKey:         c.S3AccessKey,
		S3SecretKey:         c.S3SecretKey,
	}
}

func fromFile(c *Config, fc *FileConfig) {
	c.Driver = fc.Driver
	c.DatabaseDSN = fc.DatabaseDSN
	c.SpannerProject = fc.SpannerProject
	c.SpannerInstance = fc.SpannerInstance
	c.SpannerDatabase = fc.SpannerDatabase
	c.SpannerEmulatorHost = fc.SpannerEmulatorHost
	c.ServiceHost = fc.ServiceHost
	c.ServicePort = fc.ServicePort
	c.GRPCHealthAddr = fc.GRPCHealthAddr
	c.HealthInterval = fc.HealthInterval.Duration
	c.RequestTimeout = fc.RequestTimeout.Duration
	c.ShutdownTimeout = fc.ShutdownTimeout.Duration
	c.LogLevel = fc.LogLevel
	c.AuthSecret = fc.AuthSecret
	c.S3Bucket = fc.S3Bucket
	c.S3Region = fc.S3Region
	c.S3BaseEndpoint = fc.S3BaseEndpoint
	c.S3AccessKey = fc.S3AccessKey
	c.S3SecretKey = fc.S3SecretKey
}
