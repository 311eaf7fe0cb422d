package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "MODEL_VARIANT", "SESSION_ID", "SEQUENCE_CAP", "OUTCOME_CAP",
		"FEATURE_WINDOW", "LAG_WINDOW", "DECAY", "NEURAL_DECAY", "LEARNING_RATE",
		"SPIKE_THRESHOLD", "REGEN_DELAY", "DATA_PATH", "METRICS_PORT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		wantErr  bool
		validate func(t *testing.T, settings Settings)
	}{
		{
			name:    "defaults",
			envVars: map[string]string{},
			validate: func(t *testing.T, settings Settings) {
				if settings.Variant != "logistic" {
					t.Errorf("expected default variant logistic, got %s", settings.Variant)
				}
				if settings.SessionID != "default" {
					t.Errorf("expected default session id, got %s", settings.SessionID)
				}
				if settings.SequenceCap != 200 {
					t.Errorf("expected default SequenceCap 200, got %d", settings.SequenceCap)
				}
				if settings.OutcomeCap != 20 {
					t.Errorf("expected default OutcomeCap 20, got %d", settings.OutcomeCap)
				}
				if settings.Window != 10 || settings.LagWindow != 5 {
					t.Errorf("expected default windows 10/5, got %d/%d", settings.Window, settings.LagWindow)
				}
				if settings.Decay != 0.8 || settings.NeuralDecay != 0.85 {
					t.Errorf("expected default decays 0.8/0.85, got %f/%f", settings.Decay, settings.NeuralDecay)
				}
				if settings.LearningRate != 0.01 {
					t.Errorf("expected default LearningRate 0.01, got %f", settings.LearningRate)
				}
				if settings.SpikeThreshold != 7.0 {
					t.Errorf("expected default SpikeThreshold 7.0, got %f", settings.SpikeThreshold)
				}
				if settings.RegenDelay != 300*time.Millisecond {
					t.Errorf("expected default RegenDelay 300ms, got %v", settings.RegenDelay)
				}
				if settings.MetricsPort != 8080 {
					t.Errorf("expected default MetricsPort 8080, got %d", settings.MetricsPort)
				}
			},
		},
		{
			name: "custom settings",
			envVars: map[string]string{
				"MODEL_VARIANT":   "neural",
				"SESSION_ID":      "bench",
				"SEQUENCE_CAP":    "100",
				"FEATURE_WINDOW":  "20",
				"LEARNING_RATE":   "0.05",
				"SPIKE_THRESHOLD": "12.5",
				"REGEN_DELAY":     "50ms",
				"METRICS_PORT":    "9090",
			},
			validate: func(t *testing.T, settings Settings) {
				if settings.Variant != "neural" {
					t.Errorf("expected variant neural, got %s", settings.Variant)
				}
				if settings.SessionID != "bench" {
					t.Errorf("expected session bench, got %s", settings.SessionID)
				}
				if settings.SequenceCap != 100 || settings.Window != 20 {
					t.Errorf("expected cap 100 window 20, got %d/%d", settings.SequenceCap, settings.Window)
				}
				if settings.LearningRate != 0.05 {
					t.Errorf("expected learning rate 0.05, got %f", settings.LearningRate)
				}
				if settings.SpikeThreshold != 12.5 {
					t.Errorf("expected spike threshold 12.5, got %f", settings.SpikeThreshold)
				}
				if settings.RegenDelay != 50*time.Millisecond {
					t.Errorf("expected regen delay 50ms, got %v", settings.RegenDelay)
				}
				if settings.MetricsPort != 9090 {
					t.Errorf("expected metrics port 9090, got %d", settings.MetricsPort)
				}
			},
		},
		{
			name:    "invalid variant",
			envVars: map[string]string{"MODEL_VARIANT": "markov"},
			wantErr: true,
		},
		{
			name:    "decay out of range",
			envVars: map[string]string{"DECAY": "1.5"},
			wantErr: true,
		},
		{
			name:    "learning rate out of range",
			envVars: map[string]string{"LEARNING_RATE": "2"},
			wantErr: true,
		},
		{
			name:    "lag window larger than feature window",
			envVars: map[string]string{"LAG_WINDOW": "50"},
			wantErr: true,
		},
		{
			name:    "metrics port too low",
			envVars: map[string]string{"METRICS_PORT": "80"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			settings, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.validate != nil {
				tt.validate(t, settings)
			}
		})
	}
}

func TestLoadFromYAML(t *testing.T) {
	clearEnv(t)

	configContent := `
model:
  variant: category
  learningRate: 0.02
features:
  window: 12
  lagWindow: 4
  decay: 0.75
session:
  id: journal
  sequenceCap: 150
  regenDelay: 250ms
system:
  metricsPort: 9100
`
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", configPath)

	settings, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if settings.Variant != "category" {
		t.Errorf("expected variant category, got %s", settings.Variant)
	}
	if settings.SessionID != "journal" {
		t.Errorf("expected session journal, got %s", settings.SessionID)
	}
	if settings.SequenceCap != 150 || settings.Window != 12 || settings.LagWindow != 4 {
		t.Errorf("unexpected windows: %d/%d/%d", settings.SequenceCap, settings.Window, settings.LagWindow)
	}
	if settings.Decay != 0.75 {
		t.Errorf("expected decay 0.75, got %f", settings.Decay)
	}
	if settings.LearningRate != 0.02 {
		t.Errorf("expected learning rate 0.02, got %f", settings.LearningRate)
	}
	if settings.RegenDelay != 250*time.Millisecond {
		t.Errorf("expected regen delay 250ms, got %v", settings.RegenDelay)
	}
	if settings.MetricsPort != 9100 {
		t.Errorf("expected metrics port 9100, got %d", settings.MetricsPort)
	}
	// Unset YAML fields fall back to defaults.
	if settings.NeuralDecay != 0.85 || settings.SpikeThreshold != 7.0 {
		t.Errorf("expected ambient defaults, got %f/%f", settings.NeuralDecay, settings.SpikeThreshold)
	}
}

func TestLoadFromYAML_EnvOverride(t *testing.T) {
	clearEnv(t)

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("model:\n  variant: category\n"), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", configPath)
	t.Setenv("MODEL_VARIANT", "neural")
	t.Setenv("METRICS_PORT", "9999")

	settings, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.Variant != "neural" {
		t.Errorf("env override failed, got variant %s", settings.Variant)
	}
	if settings.MetricsPort != 9999 {
		t.Errorf("env override failed, got metrics port %d", settings.MetricsPort)
	}
}

func TestLoadFromYAML_MissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", "/nonexistent/config.yaml")

	if _, err := Load(); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadFromYAML_Malformed(t *testing.T) {
	clearEnv(t)

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("model: [broken"), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", configPath)

	if _, err := Load(); err == nil {
		t.Error("expected error for malformed YAML")
	}
}
