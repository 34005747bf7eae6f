package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/kvstore/internal/flagx"
)

var knownFlags = []string{
	"-driver", "-d", "-project", "-instance", "-database", "-emulator",
	"-host", "-port", "-g", "-hi", "-rt", "-st", "-l", "-s",
	"-b", "-sr", "-e", "-u", "-p",
}

// parseFlags overlays Config fields from command-line flags.
//
// Supported flags:
//
//	-driver string     storage driver: spanner, postgres or sqlite
//	-d string          database DSN (postgres, sqlite)
//	-project string    Spanner project id
//	-instance string   Spanner instance id
//	-database string   Spanner database id
//	-emulator string   Spanner emulator host:port
//	-host string       HTTP bind host
//	-port int          HTTP bind port
//	-g string          gRPC health address, empty disables it
//	-hi duration       health probe interval
//	-rt duration       per-request timeout
//	-st duration       graceful shutdown timeout
//	-l string          log level
//	-s string          bearer token secret, empty disables auth
//	-b string          S3 bucket for snapshots, empty disables them
//	-sr string         S3 region
//	-e string          S3 base endpoint
//	-u string          S3 access key
//	-p string          S3 secret key
//
// Arguments are first filtered with flagx.FilterArgs so that -c/-config and
// anything unknown never reach this flag set.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.Driver, "driver", config.Driver, "storage driver")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SpannerProject, "project", config.SpannerProject, "Spanner project")
	fs.StringVar(&config.SpannerInstance, "instance", config.SpannerInstance, "Spanner instance")
	fs.StringVar(&config.SpannerDatabase, "database", config.SpannerDatabase, "Spanner database")
	fs.StringVar(&config.SpannerEmulatorHost, "emulator", config.SpannerEmulatorHost, "Spanner emulator host")
	fs.StringVar(&config.ServiceHost, "host", config.ServiceHost, "HTTP bind host")
	fs.IntVar(&config.ServicePort, "port", config.ServicePort, "HTTP bind port")
	fs.StringVar(&config.GRPCHealthAddr, "g", config.GRPCHealthAddr, "gRPC health address")
	fs.DurationVar(&config.HealthInterval, "hi", config.HealthInterval, "health probe interval")
	fs.DurationVar(&config.RequestTimeout, "rt", config.RequestTimeout, "request timeout")
	fs.DurationVar(&config.ShutdownTimeout, "st", config.ShutdownTimeout, "shutdown timeout")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.AuthSecret, "s", config.AuthSecret, "bearer token secret")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "sr", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.S3AccessKey, "u", config.S3AccessKey, "S3 access key")
	fs.StringVar(&config.S3SecretKey, "p", config.S3SecretKey, "S3 secret key")

	return fs.Parse(flagx.FilterArgs(args, knownFlags))
}
