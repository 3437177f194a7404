package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	os.Setenv("MONGODB_URI", "mongodb://localhost:27017/testdb")
	os.Setenv("MONGODB_DATABASE", "fieldline_test")
	os.Setenv("REDIS_ADDR", "localhost:6379")
	os.Setenv("STORE_FETCH_RPS", "25")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.MongoDB.URI != "mongodb://localhost:27017/testdb" {
		t.Fatalf("unexpected mongo URI: %q", cfg.MongoDB.URI)
	}
	if cfg.MongoDB.Database != "fieldline_test" {
		t.Fatalf("unexpected mongo database: %q", cfg.MongoDB.Database)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("unexpected redis addr: %q", cfg.Redis.Addr)
	}
	if cfg.Store.FetchRPS != 25 {
		t.Fatalf("unexpected fetch rps: %v", cfg.Store.FetchRPS)
	}

	// defaults fill the rest
	if cfg.MongoDB.Timeout != 10*time.Second {
		t.Fatalf("unexpected mongo timeout: %v", cfg.MongoDB.Timeout)
	}
	if cfg.Redis.CacheTTL != time.Minute {
		t.Fatalf("unexpected cache ttl: %v", cfg.Redis.CacheTTL)
	}
	if cfg.MinIO.Bucket != "fieldline" {
		t.Fatalf("unexpected minio bucket: %q", cfg.MinIO.Bucket)
	}
}
