package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var allKeys = []string{
	envBaseURL, envAPIKey, envLogLevel, envRequestTimeout, envRateLimit,
	envRateBurst, envConcurrency, envMetricsPort, envSlackWebhookURL,
	envWebhookURL, envWebhookTemplate, envDryRun,
}

// resetEnv clears every configuration variable so the outer environment
// cannot leak into a test case. t.Setenv registers the restore.
func resetEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func mustChdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("restore cwd: %v", err)
		}
	})
}

func TestLoadDefaults(t *testing.T) {
	resetEnv(t)
	mustChdir(t, t.TempDir())
	t.Setenv(envBaseURL, "http://localhost:8000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.BaseURL != "http://localhost:8000" {
		t.Fatalf("unexpected base URL %q", cfg.BaseURL)
	}
	if cfg.RequestTimeout != defaultRequestTimeout {
		t.Fatalf("unexpected timeout %s", cfg.RequestTimeout)
	}
	if cfg.Concurrency != defaultConcurrency || cfg.RateBurst != defaultRateBurst {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.DryRun || cfg.MetricsPort != 0 || cfg.RateLimit != 0 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadFullEnvironment(t *testing.T) {
	resetEnv(t)
	mustChdir(t, t.TempDir())
	t.Setenv(envBaseURL, " http://sim.internal:9000 ")
	t.Setenv(envAPIKey, "secret")
	t.Setenv(envLogLevel, "debug")
	t.Setenv(envRequestTimeout, "45s")
	t.Setenv(envRateLimit, "2.5")
	t.Setenv(envRateBurst, "3")
	t.Setenv(envConcurrency, "8")
	t.Setenv(envMetricsPort, "9102")
	t.Setenv(envSlackWebhookURL, "https://hooks.slack.com/services/T/B/X")
	t.Setenv(envWebhookURL, "https://example.com/hook")
	t.Setenv(envWebhookTemplate, `{"run":"{{ .RunID }}"}`)
	t.Setenv(envDryRun, "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.BaseURL != "http://sim.internal:9000" {
		t.Fatalf("expected trimmed base URL, got %q", cfg.BaseURL)
	}
	if cfg.APIKey != "secret" || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.RequestTimeout != 45*time.Second || cfg.RateLimit != 2.5 || cfg.RateBurst != 3 {
		t.Fatalf("unexpected tuning %+v", cfg)
	}
	if cfg.Concurrency != 8 || cfg.MetricsPort != 9102 || !cfg.DryRun {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing base URL",
			env:     map[string]string{},
			wantErr: "PP_BASE_URL is required",
		},
		{
			name:    "base URL without scheme",
			env:     map[string]string{envBaseURL: "sim.internal:9000"},
			wantErr: "must include scheme and host",
		},
		{
			name: "bad timeout",
			env: map[string]string{
				envBaseURL:        "http://localhost:8000",
				envRequestTimeout: "soon",
			},
			wantErr: "invalid PP_REQUEST_TIMEOUT",
		},
		{
			name: "zero timeout",
			env: map[string]string{
				envBaseURL:        "http://localhost:8000",
				envRequestTimeout: "0s",
			},
			wantErr: "greater than zero",
		},
		{
			name: "negative rate limit",
			env: map[string]string{
				envBaseURL:   "http://localhost:8000",
				envRateLimit: "-1",
			},
			wantErr: "must not be negative",
		},
		{
			name: "zero burst",
			env: map[string]string{
				envBaseURL:   "http://localhost:8000",
				envRateBurst: "0",
			},
			wantErr: "at least 1",
		},
		{
			name: "bad concurrency",
			env: map[string]string{
				envBaseURL:     "http://localhost:8000",
				envConcurrency: "none",
			},
			wantErr: "invalid PP_CONCURRENCY",
		},
		{
			name: "port out of range",
			env: map[string]string{
				envBaseURL:     "http://localhost:8000",
				envMetricsPort: "70000",
			},
			wantErr: "valid port",
		},
		{
			name: "bad slack URL",
			env: map[string]string{
				envBaseURL:         "http://localhost:8000",
				envSlackWebhookURL: "not-a-url",
			},
			wantErr: "invalid PP_SLACK_WEBHOOK_URL",
		},
		{
			name: "bad dry run flag",
			env: map[string]string{
				envBaseURL: "http://localhost:8000",
				envDryRun:  "perhaps",
			},
			wantErr: "invalid PP_DRY_RUN",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resetEnv(t)
			mustChdir(t, t.TempDir())
			for key, value := range tc.env {
				t.Setenv(key, value)
			}

			_, err := Load()
			if err == nil {
				t.Fatalf("expected error containing %q", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q does not contain %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	resetEnv(t)
	dir := t.TempDir()
	contents := "PP_BASE_URL=http://from-dotenv:8000\nPP_LOG_LEVEL=warn\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(contents), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	mustChdir(t, dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.BaseURL != "http://from-dotenv:8000" || cfg.LogLevel != "warn" {
		t.Fatalf("expected .env values, got %+v", cfg)
	}
}

func TestEnvironmentOverridesDotEnv(t *testing.T) {
	resetEnv(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("PP_BASE_URL=http://from-dotenv:8000\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	mustChdir(t, dir)
	t.Setenv(envBaseURL, "http://from-env:9000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.BaseURL != "http://from-env:9000" {
		t.Fatalf("environment must win over .env, got %q", cfg.BaseURL)
	}
}
