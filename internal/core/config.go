package core

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"pidcore/internal/blob"
)

// Environment variables read by LoadConfig.
const (
	EnvStorageDriver = "PIDCORE_STORAGE_DRIVER"
	EnvSQLitePath    = "PIDCORE_SQLITE_PATH"
	EnvPostgresDSN   = "PIDCORE_POSTGRES_DSN"
	EnvBlobDriver    = "PIDCORE_BLOB_DRIVER"
	EnvBlobFSRoot    = "PIDCORE_BLOB_FS_ROOT"
	EnvS3Bucket      = "PIDCORE_BLOB_S3_BUCKET"
	EnvS3Region      = "PIDCORE_BLOB_S3_REGION"
	EnvS3Endpoint    = "PIDCORE_BLOB_S3_ENDPOINT"
	EnvS3PathStyle   = "PIDCORE_BLOB_S3_PATH_STYLE"
	EnvHistoryLimit  = "PIDCORE_HISTORY_LIMIT"
	EnvLogLevel      = "PIDCORE_LOG_LEVEL"
	EnvMetricsFile   = "PIDCORE_METRICS_FILE"
	EnvTrace         = "PIDCORE_TRACE"
)

// Config gathers the runtime settings of a pidcore process.
type Config struct {
	Storage      StorageDriver
	SQLitePath   string
	PostgresDSN  string
	Blob         blob.Config
	HistoryLimit int
	LogLevel     slog.Level
	// MetricsFile receives a metrics dump when a command finishes. A .json
	// path gets the expvar snapshot; any other path gets Prometheus text format.
	MetricsFile string
	// Trace writes one JSON line per service operation to the log output.
	Trace bool
}

// LoadConfig reads the PIDCORE_* environment. Unset variables keep their
// defaults: sqlite storage, filesystem blobs, DefaultHistoryLimit and Info
// logging. Malformed numeric, boolean or level values are reported.
func LoadConfig() (Config, error) {
	cfg := Config{
		Storage:      StorageSQLite,
		SQLitePath:   os.Getenv(EnvSQLitePath),
		PostgresDSN:  os.Getenv(EnvPostgresDSN),
		HistoryLimit: DefaultHistoryLimit,
		LogLevel:     slog.LevelInfo,
		MetricsFile:  os.Getenv(EnvMetricsFile),
		Blob: blob.Config{
			Driver: blob.Driver(strings.ToLower(os.Getenv(EnvBlobDriver))),
			FSRoot: os.Getenv(EnvBlobFSRoot),
			S3: blob.S3Config{
				Bucket:   os.Getenv(EnvS3Bucket),
				Region:   os.Getenv(EnvS3Region),
				Endpoint: os.Getenv(EnvS3Endpoint),
			},
		},
	}
	if v := os.Getenv(EnvStorageDriver); v != "" {
		cfg.Storage = StorageDriver(strings.ToLower(v))
	}
	if v := os.Getenv(EnvS3PathStyle); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvS3PathStyle, err)
		}
		cfg.Blob.S3.PathStyle = b
	}
	if v := os.Getenv(EnvHistoryLimit); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvHistoryLimit, err)
		}
		if n <= 0 {
			return Config{}, fmt.Errorf("%s: must be positive, got %d", EnvHistoryLimit, n)
		}
		cfg.HistoryLimit = n
	}
	if v := os.Getenv(EnvTrace); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvTrace, err)
		}
		cfg.Trace = b
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
	}
	return cfg, nil
}
