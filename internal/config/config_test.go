package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BOT_TOKEN", "token")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBDriver != "sqlite" || cfg.TimetableSource != "files" || cfg.SendRate != 25 || cfg.SendTimeout != 10*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.TimetableTimeout != 30*time.Second {
		t.Fatalf("want 30s timeout, got %s", cfg.TimetableTimeout)
	}
	loc, err := cfg.Location()
	if err != nil || loc.String() != "Europe/Moscow" {
		t.Fatalf("location: %v %v", loc, err)
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := map[string]map[string]string{
		"postgres without url": {"DB_DRIVER": "postgres"},
		"unknown driver":       {"DB_DRIVER": "mysql"},
		"html without url":     {"TIMETABLE_SOURCE": "html"},
		"bad timezone":         {"TIMEZONE": "Mars/Olympus"},
		"zero send timeout":    {"SEND_TIMEOUT": "0s"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
