package config

import (
	"flag"
	"io"
	"os"

	"github.com/dmitrijs2005/filevault/internal/flagx"
)

// parseFlags overlays command-line flags onto config.
//
//	-a string   HTTP bind address (":5000")
//	-d string   PostgreSQL DSN
//	-l string   log level
//	-s string   blob backend, "disk" or "s3"
//	-f string   blob directory for the disk backend
//	-b string   S3 bucket
//	-e string   S3 base endpoint
//	-w int      worker concurrency
//	-m int      max delivery attempts per thumbnail job
//
// Only the flags above are considered; see flagx.FilterArgs.
func parseFlags(config *Config) error {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-l", "-s", "-f", "-b", "-e", "-w", "-m"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.BlobBackend, "s", config.BlobBackend, "blob backend (disk|s3)")
	fs.StringVar(&config.BlobDir, "f", config.BlobDir, "blob directory")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.IntVar(&config.Concurrency, "w", config.Concurrency, "worker concurrency")
	fs.IntVar(&config.MaxAttempts, "m", config.MaxAttempts, "max job attempts")

	return fs.Parse(args)
}
