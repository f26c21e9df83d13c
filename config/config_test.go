package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_URL", "postgres://localhost/freight")

	cfg, err := fromViper(newViper())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "8080" || cfg.DraftStore != "memory" || cfg.MigrationsPath != "file://db/migrations" {
		t.Errorf("defaults = %+v", cfg)
	}
	if !cfg.MetricsEnabled || cfg.R2.Enabled() {
		t.Errorf("metrics/r2 defaults = %v/%v", cfg.MetricsEnabled, cfg.R2.Enabled())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("POSTGRES_URL", "postgres://localhost/freight")
	t.Setenv("PORT", "9090")
	t.Setenv("DRAFT_STORE", "MONGO")
	t.Setenv("MONGO_URL", "mongodb://localhost:27017")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := fromViper(newViper())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "9090" || cfg.DraftStore != "mongo" || cfg.MetricsEnabled || cfg.LogLevel != "debug" {
		t.Errorf("overrides = %+v", cfg)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"no postgres", map[string]string{"POSTGRES_URL": ""}},
		{"mongo without url", map[string]string{"POSTGRES_URL": "x", "DRAFT_STORE": "mongo", "MONGO_URL": ""}},
		{"unknown store", map[string]string{"POSTGRES_URL": "x", "DRAFT_STORE": "etcd"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := fromViper(newViper()); err == nil {
				t.Error("expected error")
			}
		})
	}
}
