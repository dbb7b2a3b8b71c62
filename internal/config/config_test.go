package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestFromLookup_Defaults(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(nil))
	if err != nil {
		t.Fatalf("FromLookup() error = %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.Interval != 500*time.Millisecond {
		t.Errorf("Interval = %v", cfg.Interval)
	}
	if cfg.NumPlayers != 3 || cfg.MaxPlayers != 10 {
		t.Errorf("players = %d/%d", cfg.NumPlayers, cfg.MaxPlayers)
	}
	if cfg.RedisAddr != "" {
		t.Error("redis should be disabled by default")
	}
	if !strings.HasSuffix(cfg.DBPath(), "cardsight.db") {
		t.Errorf("DBPath() = %q", cfg.DBPath())
	}
	if cfg.PluginPath() != filepath.Join(cfg.DataDir, "plugins") {
		t.Errorf("PluginPath() = %q", cfg.PluginPath())
	}
	if cfg.PluginTimeout != 5*time.Second {
		t.Errorf("PluginTimeout = %v", cfg.PluginTimeout)
	}
}

func TestFromLookup_Overrides(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"CARDSIGHT_ADDR":           "127.0.0.1:9000",
		"CARDSIGHT_NUM_PLAYERS":    "6",
		"CARDSIGHT_INTERVAL":       "250ms",
		"CARDSIGHT_STRICT_LABELS":  "true",
		"CARDSIGHT_REDIS_ADDR":     "localhost:6379",
		"CARDSIGHT_DETECT_RATE":    "1.5",
		"CARDSIGHT_RECOGNIZER_URL": "http://recognizer:5000/predict",
		"CARDSIGHT_PLUGIN_DIR":     "/opt/hooks",
	}))
	if err != nil {
		t.Fatalf("FromLookup() error = %v", err)
	}

	if cfg.Addr != "127.0.0.1:9000" || cfg.NumPlayers != 6 || cfg.Interval != 250*time.Millisecond {
		t.Errorf("cfg = %+v", cfg)
	}
	if !cfg.StrictLabels || cfg.RedisAddr != "localhost:6379" || cfg.DetectRate != 1.5 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.PluginPath() != "/opt/hooks" {
		t.Errorf("PluginPath() = %q", cfg.PluginPath())
	}
}

func TestFromLookup_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unparsable int", map[string]string{"CARDSIGHT_NUM_PLAYERS": "three"}},
		{"zero players", map[string]string{"CARDSIGHT_NUM_PLAYERS": "0"}},
		{"players above max", map[string]string{"CARDSIGHT_NUM_PLAYERS": "5", "CARDSIGHT_MAX_PLAYERS": "4"}},
		{"max above 10", map[string]string{"CARDSIGHT_MAX_PLAYERS": "11"}},
		{"bad duration", map[string]string{"CARDSIGHT_INTERVAL": "often"}},
		{"interval too short", map[string]string{"CARDSIGHT_INTERVAL": "1ms"}},
		{"bad url", map[string]string{"CARDSIGHT_RECOGNIZER_URL": "not a url"}},
		{"bad quality", map[string]string{"CARDSIGHT_JPEG_QUALITY": "101"}},
		{"bad level", map[string]string{"CARDSIGHT_LOG_LEVEL": "loud"}},
		{"bad bool", map[string]string{"CARDSIGHT_TRAY": "sometimes"}},
		{"bad redis addr", map[string]string{"CARDSIGHT_REDIS_ADDR": "localhost"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromLookup(lookupFrom(tt.env)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("CARDSIGHT_CAMERA_ID=2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("CARDSIGHT_CAMERA_ID") })

	cfg, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CameraID != 2 {
		t.Errorf("CameraID = %d, want 2", cfg.CameraID)
	}
}
