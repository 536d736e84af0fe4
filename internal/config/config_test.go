package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shubh1021/AgriTrace/internal/blob"
	"github.com/shubh1021/AgriTrace/internal/core"
	"github.com/shubh1021/AgriTrace/internal/logging"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, EnvPrefix+"_") {
			key, _, _ := strings.Cut(kv, "=")
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaseURL != core.DefaultBaseURL {
		t.Fatalf("unexpected base url %q", cfg.BaseURL)
	}
	if cfg.Storage.Driver != string(core.StorageSQLite) || cfg.Storage.SQLitePath != core.DefaultSQLitePath {
		t.Fatalf("unexpected storage defaults %+v", cfg.Storage)
	}
	if cfg.Blob.Driver != string(blob.DriverFilesystem) || cfg.Blob.FSRoot != blob.DefaultFSRoot {
		t.Fatalf("unexpected blob defaults %+v", cfg.Blob)
	}
	if cfg.Log != logging.Defaults {
		t.Fatalf("unexpected log defaults %+v", cfg.Log)
	}
}

func TestLoadFileAndEnvironment(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "agritrace.yaml")
	yaml := strings.Join([]string{
		"base_url: https://trace.example.org/b",
		"storage:",
		"  driver: memory",
		"blob:",
		"  driver: s3",
		"  s3:",
		"    bucket: provenance",
		"    region: eu-west-1",
		"log:",
		"  level: debug",
		"  format: json",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("AGRITRACE_BLOB_S3_PREFIX", "farm-a")
	t.Setenv("AGRITRACE_BLOB_S3_PATH_STYLE", "true")
	t.Setenv("AGRITRACE_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaseURL != "https://trace.example.org/b" || cfg.Storage.Driver != "memory" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Log.Level != "warn" || cfg.Log.Format != "json" {
		t.Fatalf("expected env to override file, got %+v", cfg.Log)
	}

	bc := cfg.BlobConfig()
	if bc.Driver != blob.DriverS3 || bc.S3.Bucket != "provenance" || bc.S3.Region != "eu-west-1" || bc.S3.Prefix != "farm-a" || !bc.S3.PathStyle {
		t.Fatalf("unexpected blob config %+v", bc)
	}
	sc := cfg.StorageConfig()
	if sc.Driver != core.StorageMemory || sc.PostgresDSN != core.DefaultPostgresDSN {
		t.Fatalf("unexpected storage config %+v", sc)
	}
}

func TestLoadErrors(t *testing.T) {
	isolate(t)
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected an explicit missing file to fail")
	}

	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"storage driver", map[string]string{"AGRITRACE_STORAGE_DRIVER": "cassandra"}, "storage.driver"},
		{"blob driver", map[string]string{"AGRITRACE_BLOB_DRIVER": "tape"}, "blob.driver"},
		{"s3 bucket", map[string]string{"AGRITRACE_BLOB_DRIVER": "s3"}, "bucket"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}
