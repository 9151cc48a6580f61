package core

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"pidcore/internal/blob"
)

func clearPIDCoreEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvStorageDriver, EnvSQLitePath, EnvPostgresDSN, EnvBlobDriver, EnvBlobFSRoot,
		EnvS3Bucket, EnvS3Region, EnvS3Endpoint, EnvS3PathStyle, EnvHistoryLimit, EnvLogLevel,
		EnvMetricsFile, EnvTrace,
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearPIDCoreEnv(t)
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, StorageSQLite, cfg.Storage)
	require.Equal(t, DefaultHistoryLimit, cfg.HistoryLimit)
	require.Equal(t, slog.LevelInfo, cfg.LogLevel)
	require.Empty(t, cfg.Blob.Driver)
	require.False(t, cfg.Blob.S3.PathStyle)
	require.Empty(t, cfg.MetricsFile)
	require.False(t, cfg.Trace)
}

func TestLoadConfigFromEnv(t *testing.T) {
	clearPIDCoreEnv(t)
	t.Setenv(EnvStorageDriver, "Postgres")
	t.Setenv(EnvPostgresDSN, "postgres://db/pid")
	t.Setenv(EnvSQLitePath, "/tmp/pid.db")
	t.Setenv(EnvBlobDriver, "S3")
	t.Setenv(EnvS3Bucket, "drawings")
	t.Setenv(EnvS3Region, "eu-west-1")
	t.Setenv(EnvS3Endpoint, "http://minio:9000")
	t.Setenv(EnvS3PathStyle, "true")
	t.Setenv(EnvHistoryLimit, "200")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvMetricsFile, "/var/lib/node_exporter/pidctl.prom")
	t.Setenv(EnvTrace, "1")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, StoragePostgres, cfg.Storage)
	require.Equal(t, "postgres://db/pid", cfg.PostgresDSN)
	require.Equal(t, "/tmp/pid.db", cfg.SQLitePath)
	require.Equal(t, blob.DriverS3, cfg.Blob.Driver)
	require.Equal(t, "drawings", cfg.Blob.S3.Bucket)
	require.Equal(t, "eu-west-1", cfg.Blob.S3.Region)
	require.Equal(t, "http://minio:9000", cfg.Blob.S3.Endpoint)
	require.True(t, cfg.Blob.S3.PathStyle)
	require.Equal(t, 200, cfg.HistoryLimit)
	require.Equal(t, slog.LevelDebug, cfg.LogLevel)
	require.Equal(t, "/var/lib/node_exporter/pidctl.prom", cfg.MetricsFile)
	require.True(t, cfg.Trace)
}

func TestLoadConfigRejectsMalformedValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{EnvS3PathStyle, "sometimes"},
		{EnvHistoryLimit, "many"},
		{EnvHistoryLimit, "0"},
		{EnvLogLevel, "loud"},
		{EnvTrace, "verbose"},
	}
	for _, tc := range tests {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			clearPIDCoreEnv(t)
			t.Setenv(tc.key, tc.value)
			_, err := LoadConfig()
			require.ErrorContains(t, err, tc.key)
		})
	}
}
