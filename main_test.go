package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/SusheelSathyaraj/ClicomImport/config"
	"github.com/SusheelSathyaraj/ClicomImport/database"
	"github.com/SusheelSathyaraj/ClicomImport/migration"
)

var envKeys = []string{"SOURCE_DRIVER", "MYSQL_HOST", "MYSQL_PORT", "MYSQL_USER", "MYSQL_PASSWORD", "MYSQL_DATABASE", "MONGODB_URI"}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

// tests the source client chosen for each driver
func TestNewSourceClient(t *testing.T) {
	tests := []struct {
		driver string
		expect string
		ok     bool
	}{
		{"mysql", "*database.MySQLClient", true},
		{"MySQL", "*database.MySQLClient", true},
		{"postgresql", "*database.PostgreSQLClient", true},
		{"mongodb", "", false},
		{"", "", false},
	}

	for i, tc := range tests {
		cfg := config.Default()
		cfg.Source.Driver = tc.driver

		client, err := newSourceClient(cfg)
		if (err == nil) != tc.ok {
			t.Errorf("[Test case: %d] newSourceClient(%q) expected success: %v, got error: %v", i+1, tc.driver, tc.ok, err)
			continue
		}
		if !tc.ok {
			continue
		}
		switch c := client.(type) {
		case *database.MySQLClient:
			if tc.expect != "*database.MySQLClient" {
				t.Errorf("[Test case: %d] unexpected MySQL client for %q", i+1, tc.driver)
			}
			if c.Host != "localhost" || c.Port != 3306 || c.DBName != "clicom" {
				t.Errorf("[Test case: %d] expected settings from config, got %+v", i+1, c)
			}
		case *database.PostgreSQLClient:
			if tc.expect != "*database.PostgreSQLClient" {
				t.Errorf("[Test case: %d] unexpected PostgreSQL client for %q", i+1, tc.driver)
			}
		default:
			t.Errorf("[Test case: %d] unexpected client type %T", i+1, client)
		}
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)

	if err := loadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("Expected a missing env file to be ignored, got %v", err)
	}
	if err := loadEnvFile(""); err != nil {
		t.Errorf("Expected empty path to be ignored, got %v", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("MYSQL_DATABASE=clicom_env\nMYSQL_PORT=3310\n"), 0o600); err != nil {
		t.Fatalf("Failed to write env file, %v", err)
	}
	// variables already set win over the file
	t.Setenv("MYSQL_PORT", "3311")
	os.Unsetenv("MYSQL_DATABASE")

	if err := loadEnvFile(path); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.Source.DBName != "clicom_env" {
		t.Errorf("Expected database from env file, got %s", cfg.Source.DBName)
	}
	if cfg.Source.Port != 3311 {
		t.Errorf("Expected the process environment to win, got %d", cfg.Source.Port)
	}
}

func TestRootCmdFlags(t *testing.T) {
	cmd := newRootCmd(&bytes.Buffer{})

	defaults := map[string]string{
		"config":    "",
		"env-file":  ".env",
		"sort":      "false",
		"dry-run":   "false",
		"log-level": "info",
		"pretty":    "true",
	}
	for name, value := range defaults {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			t.Errorf("Expected flag --%s", name)
			continue
		}
		if flag.DefValue != value {
			t.Errorf("Expected --%s default %q, got %q", name, value, flag.DefValue)
		}
	}

	cmd.SetArgs([]string{"unexpected"})
	if err := cmd.Execute(); err == nil {
		t.Error("Expected positional arguments to be rejected")
	}
}

func TestRunInvalidConfig(t *testing.T) {
	clearEnv(t)
	t.Setenv("SOURCE_DRIVER", "oracle")

	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs([]string{"--env-file", "", "--pretty=false"})

	if err := cmd.Execute(); err == nil {
		t.Fatal("Expected configuration error, got nil")
	}
	if !strings.Contains(out.String(), "failed to load configuration") {
		t.Errorf("Expected the failure to be logged, got %s", out.String())
	}
}

func TestRunUnreachableTarget(t *testing.T) {
	clearEnv(t)
	t.Setenv("MONGODB_URI", "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=200&connectTimeoutMS=200")

	var out bytes.Buffer
	opts := &options{EnvFile: "", LogLevel: "info"}

	err := run(context.Background(), &out, opts, func(string) bool { return false })
	if err == nil {
		t.Fatal("Expected connection error, got nil")
	}

	stepErr, ok := migration.AsStepError(err)
	if !ok {
		t.Fatalf("Expected *StepError, got %v", err)
	}
	if stepErr.Step != "connect target" || stepErr.Kind != migration.KindConnection {
		t.Errorf("Expected connect target failure, got %s/%s", stepErr.Step, stepErr.Kind)
	}
	if !strings.Contains(out.String(), `"step":"connect target"`) {
		t.Errorf("Expected the failed step in the log, got %s", out.String())
	}
}
