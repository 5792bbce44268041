package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

const minimalConfig = `
bulbs:
  groups:
    backdrop: ["192.168.1.165", "192.168.1.159"]
    overhead: ["192.168.1.161"]
    battlefield: []
`

func TestLoadMinimalConfigAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := cfg.Bulbs.Groups["backdrop"]; len(got) != 2 {
		t.Errorf("backdrop bulbs = %v, want 2 addresses", got)
	}
	if got := cfg.Bulbs.Groups["battlefield"]; len(got) != 0 {
		t.Errorf("battlefield bulbs = %v, want empty list", got)
	}

	if cfg.Wiz.Port != 38899 {
		t.Errorf("wiz port = %d, want 38899", cfg.Wiz.Port)
	}
	if cfg.Wiz.Timeout.Duration() != 2*time.Second {
		t.Errorf("wiz timeout = %v, want 2s", cfg.Wiz.Timeout.Duration())
	}
	if cfg.Wiz.RateLimitRPS != 50.0 {
		t.Errorf("wiz rate limit = %f, want 50", cfg.Wiz.RateLimitRPS)
	}
	if cfg.Database.Path != "./tabletopd.sqlite" {
		t.Errorf("database path = %q", cfg.Database.Path)
	}
	if cfg.Control.Host != "0.0.0.0" || cfg.Control.Port != 8787 {
		t.Errorf("control = %s:%d, want 0.0.0.0:8787", cfg.Control.Host, cfg.Control.Port)
	}
	if cfg.Log.GetLevel() != "info" {
		t.Errorf("log level = %q, want info", cfg.Log.GetLevel())
	}
	if cfg.ShutdownTimeout.Duration() != 5*time.Second {
		t.Errorf("shutdown timeout = %v, want 5s", cfg.ShutdownTimeout.Duration())
	}
	if cfg.LightsDisabled {
		t.Error("lights must be enabled by default")
	}
}

func TestLoadExplicitValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig+`
wiz:
  port: 12345
  timeout: 500ms
  rate_limit_rps: 5
hue:
  bridge: 192.168.1.2
  token: secret
log:
  level: debug
  json: true
lights_disabled: true
restore_show: true
shutdown_timeout: 10s
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Wiz.Port != 12345 || cfg.Wiz.Timeout.Duration() != 500*time.Millisecond || cfg.Wiz.RateLimitRPS != 5 {
		t.Errorf("wiz config not honored: %+v", cfg.Wiz)
	}
	if cfg.Hue.Bridge != "192.168.1.2" || cfg.Hue.Token != "secret" {
		t.Errorf("hue config not honored: %+v", cfg.Hue)
	}
	if cfg.Log.GetLevel() != "debug" || !cfg.Log.UseJSON {
		t.Errorf("log config not honored: %+v", cfg.Log)
	}
	if !cfg.LightsDisabled || !cfg.RestoreShow {
		t.Error("boolean flags not honored")
	}
	if cfg.ShutdownTimeout.Duration() != 10*time.Second {
		t.Errorf("shutdown timeout = %v", cfg.ShutdownTimeout.Duration())
	}
}

func TestLoadMissingBulbGroupIsFatal(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "no_bulbs_section",
			content: "log:\n  level: info\n",
			wantErr: "bulbs.groups",
		},
		{
			name: "missing_battlefield",
			content: `
bulbs:
  groups:
    backdrop: ["192.168.1.165"]
    overhead: ["192.168.1.161"]
`,
			wantErr: "battlefield",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error for incomplete bulb table")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestEnvVarExpansion(t *testing.T) {
	t.Setenv("TABLETOPD_TEST_TOKEN", "from-env")

	cfg, err := Load(writeConfig(t, minimalConfig+`
hue:
  bridge: ${TABLETOPD_TEST_BRIDGE:192.168.1.9}
  token: ${TABLETOPD_TEST_TOKEN}
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Hue.Token != "from-env" {
		t.Errorf("token = %q, want env value", cfg.Hue.Token)
	}
	if cfg.Hue.Bridge != "192.168.1.9" {
		t.Errorf("bridge = %q, want fallback default", cfg.Hue.Bridge)
	}
}
