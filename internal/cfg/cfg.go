package cfg

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"seqpredict/internal/model"
)

type Settings struct {
	Variant        string
	SessionID      string
	SequenceCap    int
	OutcomeCap     int
	Window         int
	LagWindow      int
	Decay          float64
	NeuralDecay    float64
	LearningRate   float64
	SpikeThreshold float64
	RegenDelay     time.Duration
	DataPath       string
	MetricsPort    int
}

type ConfigFile struct {
	Model struct {
		Variant        string  `yaml:"variant"`
		LearningRate   float64 `yaml:"learningRate"`
		SpikeThreshold float64 `yaml:"spikeThreshold"`
	} `yaml:"model"`

	Features struct {
		Window      int     `yaml:"window"`
		LagWindow   int     `yaml:"lagWindow"`
		Decay       float64 `yaml:"decay"`
		NeuralDecay float64 `yaml:"neuralDecay"`
	} `yaml:"features"`

	Session struct {
		ID          string `yaml:"id"`
		SequenceCap int    `yaml:"sequenceCap"`
		OutcomeCap  int    `yaml:"outcomeCap"`
		RegenDelay  string `yaml:"regenDelay"`
	} `yaml:"session"`

	System struct {
		DataPath    string `yaml:"dataPath"`
		MetricsPort int    `yaml:"metricsPort"`
	} `yaml:"system"`
}

func Load() (Settings, error) {
	// Try to load from YAML file first
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromYAML(configPath)
	}

	// Fallback to environment variables
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	regenDelay, err := time.ParseDuration(config.Session.RegenDelay)
	if err != nil {
		regenDelay = 300 * time.Millisecond
	}

	settings := Settings{
		Variant:        getEnvOrDefault("MODEL_VARIANT", config.Model.Variant),
		SessionID:      getEnvOrDefault("SESSION_ID", config.Session.ID),
		SequenceCap:    getIntFromEnvOrConfig("SEQUENCE_CAP", config.Session.SequenceCap),
		OutcomeCap:     getIntFromEnvOrConfig("OUTCOME_CAP", config.Session.OutcomeCap),
		Window:         getIntFromEnvOrConfig("FEATURE_WINDOW", config.Features.Window),
		LagWindow:      getIntFromEnvOrConfig("LAG_WINDOW", config.Features.LagWindow),
		Decay:          getFloatFromEnvOrConfig("DECAY", config.Features.Decay),
		NeuralDecay:    getFloatFromEnvOrConfig("NEURAL_DECAY", config.Features.NeuralDecay),
		LearningRate:   getFloatFromEnvOrConfig("LEARNING_RATE", config.Model.LearningRate),
		SpikeThreshold: getFloatFromEnvOrConfig("SPIKE_THRESHOLD", config.Model.SpikeThreshold),
		RegenDelay:     regenDelay,
		DataPath:       getEnvOrDefault("DATA_PATH", config.System.DataPath),
		MetricsPort:    getIntFromEnvOrConfig("METRICS_PORT", config.System.MetricsPort),
	}
	applyDefaults(&settings)

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		Variant:        getEnvOrDefault("MODEL_VARIANT", model.VariantLogistic),
		SessionID:      getEnvOrDefault("SESSION_ID", "default"),
		SequenceCap:    getIntOrDefault("SEQUENCE_CAP", 200),
		OutcomeCap:     getIntOrDefault("OUTCOME_CAP", 20),
		Window:         getIntOrDefault("FEATURE_WINDOW", 10),
		LagWindow:      getIntOrDefault("LAG_WINDOW", 5),
		Decay:          getFloatOrDefault("DECAY", 0.8),
		NeuralDecay:    getFloatOrDefault("NEURAL_DECAY", 0.85),
		LearningRate:   getFloatOrDefault("LEARNING_RATE", 0.01),
		SpikeThreshold: getFloatOrDefault("SPIKE_THRESHOLD", 7.0),
		RegenDelay:     getDurationOrDefault("REGEN_DELAY", 300*time.Millisecond),
		DataPath:       os.Getenv("DATA_PATH"), // optional
		MetricsPort:    getIntOrDefault("METRICS_PORT", 8080),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

// applyDefaults fills zero values left by an incomplete YAML file.
func applyDefaults(s *Settings) {
	if s.Variant == "" {
		s.Variant = model.VariantLogistic
	}
	if s.SessionID == "" {
		s.SessionID = "default"
	}
	if s.SequenceCap == 0 {
		s.SequenceCap = 200
	}
	if s.OutcomeCap == 0 {
		s.OutcomeCap = 20
	}
	if s.Window == 0 {
		s.Window = 10
	}
	if s.LagWindow == 0 {
		s.LagWindow = 5
	}
	if s.Decay == 0 {
		s.Decay = 0.8
	}
	if s.NeuralDecay == 0 {
		s.NeuralDecay = 0.85
	}
	if s.LearningRate == 0 {
		s.LearningRate = 0.01
	}
	if s.SpikeThreshold == 0 {
		s.SpikeThreshold = 7.0
	}
	if s.MetricsPort == 0 {
		s.MetricsPort = 8080
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	return configValue
}

func getFloatFromEnvOrConfig(key string, configValue float64) float64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseFloat(env, 64); err == nil {
			return val
		}
	}
	return configValue
}

// validateSettings performs comprehensive validation of configuration values
func validateSettings(settings *Settings) error {
	switch settings.Variant {
	case model.VariantCategory, model.VariantLogistic, model.VariantNeural:
	default:
		return fmt.Errorf("model variant must be one of %s, %s, %s; got %q",
			model.VariantCategory, model.VariantLogistic, model.VariantNeural, settings.Variant)
	}

	if settings.SessionID == "" {
		return fmt.Errorf("session id cannot be empty")
	}

	if settings.SequenceCap <= 0 || settings.SequenceCap > 10000 {
		return fmt.Errorf("sequence cap must be between 1 and 10000, got %d", settings.SequenceCap)
	}
	if settings.OutcomeCap <= 0 || settings.OutcomeCap > 1000 {
		return fmt.Errorf("outcome cap must be between 1 and 1000, got %d", settings.OutcomeCap)
	}
	if settings.Window <= 0 || settings.Window > settings.SequenceCap {
		return fmt.Errorf("feature window must be between 1 and the sequence cap, got %d", settings.Window)
	}
	if settings.LagWindow <= 0 || settings.LagWindow > settings.Window {
		return fmt.Errorf("lag window must be between 1 and the feature window, got %d", settings.LagWindow)
	}

	if settings.Decay <= 0 || settings.Decay >= 1 {
		return fmt.Errorf("decay must be in (0, 1), got %f", settings.Decay)
	}
	if settings.NeuralDecay <= 0 || settings.NeuralDecay >= 1 {
		return fmt.Errorf("neural decay must be in (0, 1), got %f", settings.NeuralDecay)
	}
	if settings.LearningRate <= 0 || settings.LearningRate > 1 {
		return fmt.Errorf("learning rate must be in (0, 1], got %f", settings.LearningRate)
	}
	if settings.SpikeThreshold <= 0 {
		return fmt.Errorf("spike threshold must be positive, got %f", settings.SpikeThreshold)
	}

	if settings.RegenDelay < 0 || settings.RegenDelay > 10*time.Second {
		return fmt.Errorf("regen delay must be between 0 and 10s, got %v", settings.RegenDelay)
	}
	if settings.MetricsPort < 1024 || settings.MetricsPort > 65535 {
		return fmt.Errorf("metrics port must be between 1024 and 65535, got %d", settings.MetricsPort)
	}

	return nil
}
