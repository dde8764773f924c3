package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engine.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestEmptyConfigDefaults(t *testing.T) {
	cfg := EmptyEngineConfig()

	if got := cfg.GetSampleCount(); got != 50_000_000 {
		t.Errorf("GetSampleCount() = %d", got)
	}
	if got := cfg.GetSeed(); got != 1 {
		t.Errorf("GetSeed() = %d", got)
	}
	if got := cfg.GetTolerance(); got != 1e-6 {
		t.Errorf("GetTolerance() = %g", got)
	}
	if got := cfg.GetPPFBound(); got != 1e-12 {
		t.Errorf("GetPPFBound() = %g", got)
	}
	if got := cfg.GetBaseOrder(); got != 15 {
		t.Errorf("GetBaseOrder() = %d", got)
	}
	if got := cfg.GetMaxOrder(); got != 511 {
		t.Errorf("GetMaxOrder() = %d", got)
	}
	if got := cfg.GetSweepWorkers(); got != 4 {
		t.Errorf("GetSweepWorkers() = %d", got)
	}
}

func TestLoadEngineConfigPartial(t *testing.T) {
	path := writeConfig(t, `{"sample_count": 1000000, "tolerance": 1e-5}`)
	cfg, err := LoadEngineConfig(path)
	if err != nil {
		t.Fatalf("LoadEngineConfig: %v", err)
	}
	if got := cfg.GetSampleCount(); got != 1_000_000 {
		t.Errorf("GetSampleCount() = %d", got)
	}
	if got := cfg.GetTolerance(); got != 1e-5 {
		t.Errorf("GetTolerance() = %g", got)
	}
	// Omitted fields fall back to defaults.
	if got := cfg.GetBaseOrder(); got != 15 {
		t.Errorf("GetBaseOrder() = %d", got)
	}
}

func TestLoadEngineConfigRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		json string
	}{
		{"non-positive samples", `{"sample_count": 0}`},
		{"negative tolerance", `{"tolerance": -1}`},
		{"ppf bound too large", `{"ppf_bound": 0.6}`},
		{"base order too small", `{"base_order": 1}`},
		{"max below base", `{"base_order": 31, "max_order": 15}`},
		{"bad workers", `{"sweep_workers": -2}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.json)
			if _, err := LoadEngineConfig(path); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLoadEngineConfigRequiresJSONExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadEngineConfig(path); err == nil {
		t.Error("non-json extension accepted")
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	if got := cfg.GetSampleCount(); got != 50_000_000 {
		t.Errorf("defaults file sample_count = %d", got)
	}
}
