package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	originalEnv := os.Getenv("SOUNDBRIDGE_CONFIG")
	defer os.Setenv("SOUNDBRIDGE_CONFIG", originalEnv)

	os.Setenv("SOUNDBRIDGE_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestGetConfigPath verifies config path resolution.
func TestGetConfigPath(t *testing.T) {
	originalEnv := os.Getenv("SOUNDBRIDGE_CONFIG")
	defer os.Setenv("SOUNDBRIDGE_CONFIG", originalEnv)

	os.Unsetenv("SOUNDBRIDGE_CONFIG")
	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}

	custom := filepath.Join(t.TempDir(), "config.yaml")
	os.Setenv("SOUNDBRIDGE_CONFIG", custom)
	if got := getConfigPath(); got != custom {
		t.Errorf("getConfigPath() = %q, want %q", got, custom)
	}
}
