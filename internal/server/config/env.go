package config

import (
	"fmt"
	"strconv"
	"time"
)

const (
	envDriver              = "KV_DRIVER"
	envDatabaseDSN         = "DATABASE_DSN"
	envSpannerEmulatorHost = "SPANNER_EMULATOR_HOST"
	envSpannerProject      = "SPANNER_PROJECT"
	envSpannerInstance     = "SPANNER_INSTANCE"
	envSpannerDatabase     = "SPANNER_DATABASE"
	envServiceHost         = "SERVICE_HOST"
	envServicePort         = "SERVICE_PORT"
	envGRPCHealthAddr      = "GRPC_HEALTH_ADDR"
	envHealthInterval      = "HEALTH_INTERVAL"
	envRequestTimeout      = "REQUEST_TIMEOUT"
	envShutdownTimeout     = "SHUTDOWN_TIMEOUT"
	envLogLevel            = "LOG_LEVEL"
	envAuthSecret          = "AUTH_SECRET"
	envS3Bucket            = "S3_BUCKET"
	envS3Region            = "S3_REGION"
	envS3BaseEndpoint      = "S3_BASE_ENDPOINT"
	envS3AccessKey         = "S3_ACCESS_KEY"
	envS3SecretKey         = "S3_SECRET_KEY"
)

// parseEnv overlays values from environment variables. Unset variables leave
// the current value untouched; set-but-malformed numbers are errors.
func parseEnv(config *Config, lookupEnv func(string) (string, bool)) error {
	strs := map[string]*string{
		envDriver:              &config.Driver,
		envDatabaseDSN:         &config.DatabaseDSN,
		envSpannerEmulatorHost: &config.SpannerEmulatorHost,
		envSpannerProject:      &config.SpannerProject,
		envSpannerInstance:     &config.SpannerInstance,
		envSpannerDatabase:     &config.SpannerDatabase,
		envServiceHost:         &config.ServiceHost,
		envGRPCHealthAddr:      &config.GRPCHealthAddr,
		envLogLevel:            &config.LogLevel,
		envAuthSecret:          &config.AuthSecret,
		envS3Bucket:            &config.S3Bucket,
		envS3Region:            &config.S3Region,
		envS3BaseEndpoint:      &config.S3BaseEndpoint,
		envS3AccessKey:         &config.S3AccessKey,
		envS3SecretKey:         &config.S3SecretKey,
	}
	for name, dst := range strs {
		if v, ok := lookupEnv(name); ok {
			*dst = v
		}
	}

	if v, ok := lookupEnv(envServicePort); ok {
		port, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return fmt.Errorf("%s must be a valid port number (0-65535): %w", envServicePort, err)
		}
		config.ServicePort = int(port)
	}

	durations := map[string]*time.Duration{
		envHealthInterval:  &config.HealthInterval,
		envRequestTimeout:  &config.RequestTimeout,
		envShutdownTimeout: &config.ShutdownTimeout,
	}
	for name, dst := range durations {
		v, ok := lookupEnv(name)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s must be a duration like 10s: %w", name, err)
		}
		*dst = d
	}

	return nil
}
