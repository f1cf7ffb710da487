package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/uamyangel/potter/internal/configloader"
	"github.com/uamyangel/potter/internal/logger"
)

// TracingConfig controls the OpenTelemetry tracing exporter.
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"` // "stdout" or "otlp"
	Endpoint string `yaml:"endpoint"`
}

// TelemetryConfig is the top-level telemetry section.
type TelemetryConfig struct {
	Tracing TracingConfig `yaml:"tracing"`
}

// FileLoggerConfig configures lumberjack-backed rotating file output.
type FileLoggerConfig struct {
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"maxSize"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAge     int    `yaml:"maxAge"`
	Compress   bool   `yaml:"compress"`
}

// LoggerConfig is the top-level logging section.
type LoggerConfig struct {
	Active   bool             `yaml:"active"`
	Level    string           `yaml:"level"`
	Encoding string           `yaml:"encoding"`
	Mode     string           `yaml:"mode"`
	File     FileLoggerConfig `yaml:"file"`
}

// BBoxConfig holds the margins by which the driver's pre-processing widens
// each indirect connection's bounding box. Device-family specific; left as tunables
// rather than hardcoded constants.
type BBoxConfig struct {
	XMargin int `yaml:"xMargin"`
	YMargin int `yaml:"yMargin"`
}

// CostConfig holds the negotiated-congestion cost-model tunables.
type CostConfig struct {
	InitialPresentCongestionFactor float64 `yaml:"initialPresentCongestionFactor"`
	PresentCongestionMultiplier    float64 `yaml:"presentCongestionMultiplier"`
	HistoricalCongestionFactor     float64 `yaml:"historicalCongestionFactor"`
	WirelengthWeight               float64 `yaml:"wirelengthWeight"`
	CongestedDesignThreshold       float64 `yaml:"congestedDesignThreshold"`
}

// KMeansConfig holds the stable-first net-clustering tunables.
type KMeansConfig struct {
	K              int     `yaml:"k"`
	MaxRounds      int     `yaml:"maxRounds"`
	CentroidHalfW  int     `yaml:"centroidHalfWidth"`
	CentroidHalfH  int     `yaml:"centroidHalfHeight"`
	LabelThreshold float64 `yaml:"labelThreshold"`
}

// IterationConfig holds the iteration-driver loop tunables.
type IterationConfig struct {
	MaxIterations         int `yaml:"maxIterations"`
	StableFirstIterations int `yaml:"stableFirstIterations"`
	DirectConnWatchdog    int `yaml:"directConnWatchdog"`
	SaveRoutingWatchdog   int `yaml:"saveRoutingWatchdog"`
}

// EngineConfig groups every engine-algorithm tunable.
type EngineConfig struct {
	Threads       int             `yaml:"threads"`
	RuntimeFirst  bool            `yaml:"runtimeFirst"`
	BBox          BBoxConfig      `yaml:"bbox"`
	Cost          CostConfig      `yaml:"cost"`
	KMeans        KMeansConfig    `yaml:"kmeans"`
	Iteration     IterationConfig `yaml:"iteration"`
}

// Config is the top-level configuration for the potter CLI.
type Config struct {
	Logger    LoggerConfig    `yaml:"logger"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Engine    EngineConfig    `yaml:"engine"`
}

// Default returns the configuration used when no YAML file is supplied,
// matching the defaults of the original routing prototype.
func Default() *Config {
	return &Config{
		Logger: LoggerConfig{
			Active:   true,
			Level:    "info",
			Encoding: "console",
			Mode:     "stdout",
		},
		Telemetry: TelemetryConfig{
			Tracing: TracingConfig{Enabled: false, Exporter: "stdout"},
		},
		Engine: EngineConfig{
			Threads:      32,
			RuntimeFirst: false,
			BBox:         BBoxConfig{XMargin: 3, YMargin: 15},
			Cost: CostConfig{
				InitialPresentCongestionFactor: 0.5,
				PresentCongestionMultiplier:    2.0,
				HistoricalCongestionFactor:     1.0,
				WirelengthWeight:               1.0,
				CongestedDesignThreshold:       0.45,
			},
			KMeans: KMeansConfig{
				K:              32,
				MaxRounds:      300,
				CentroidHalfW:  3,
				CentroidHalfH:  15,
				LabelThreshold: 0.2,
			},
			Iteration: IterationConfig{
				MaxIterations:         500,
				StableFirstIterations: 3,
				DirectConnWatchdog:    10000,
				SaveRoutingWatchdog:   10000,
			},
		},
	}
}

// LoadConfig loads and merges a YAML configuration file onto Default().
// A missing file is not an error: the defaults are returned unchanged.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if err := configloader.LoadYAML(path, cfg); err != nil {
		if os.IsNotExist(errors.Unwrap(err)) {
			return Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides applies a fixed set of environment variable overrides,
// useful for container deployments where mounting a YAML file is awkward.
//
//	POTTER_LOG_LEVEL     -> cfg.Logger.Level
//	POTTER_LOG_ENCODING  -> cfg.Logger.Encoding
//	POTTER_LOG_MODE      -> cfg.Logger.Mode
//	POTTER_THREADS       -> cfg.Engine.Threads
//	POTTER_RUNTIME_FIRST -> cfg.Engine.RuntimeFirst
//	POTTER_TRACE_ENABLED -> cfg.Telemetry.Tracing.Enabled
//	POTTER_TRACE_EXPORTER-> cfg.Telemetry.Tracing.Exporter
//	POTTER_TRACE_ENDPOINT-> cfg.Telemetry.Tracing.Endpoint
func (cfg *Config) ApplyEnvOverrides() {
	configloader.OverrideString(&cfg.Logger.Level, "POTTER_LOG_LEVEL")
	configloader.OverrideString(&cfg.Logger.Encoding, "POTTER_LOG_ENCODING")
	configloader.OverrideString(&cfg.Logger.Mode, "POTTER_LOG_MODE")
	configloader.OverrideInt(&cfg.Engine.Threads, "POTTER_THREADS")
	configloader.OverrideBool(&cfg.Engine.RuntimeFirst, "POTTER_RUNTIME_FIRST")
	configloader.OverrideBool(&cfg.Telemetry.Tracing.Enabled, "POTTER_TRACE_ENABLED")
	configloader.OverrideString(&cfg.Telemetry.Tracing.Exporter, "POTTER_TRACE_EXPORTER")
	configloader.OverrideString(&cfg.Telemetry.Tracing.Endpoint, "POTTER_TRACE_ENDPOINT")
}

// ValidateConfig performs structural validation of the loaded configuration.
func (cfg *Config) ValidateConfig() error {
	var errs []string

	switch cfg.Logger.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid logger.level: %s", cfg.Logger.Level))
	}
	switch cfg.Logger.Encoding {
	case "console", "json":
	default:
		errs = append(errs, fmt.Sprintf("invalid logger.encoding: %s", cfg.Logger.Encoding))
	}
	switch cfg.Logger.Mode {
	case "stdout":
	case "file":
		if cfg.Logger.File.Path == "" {
			errs = append(errs, "logger.file.path is required when mode=file")
		}
	default:
		errs = append(errs, fmt.Sprintf("invalid logger.mode: %s", cfg.Logger.Mode))
	}

	if cfg.Engine.Threads <= 0 {
		errs = append(errs, "engine.threads must be > 0")
	}
	if cfg.Engine.BBox.XMargin < 0 || cfg.Engine.BBox.YMargin < 0 {
		errs = append(errs, "engine.bbox margins must be >= 0")
	}
	if cfg.Engine.KMeans.K <= 0 {
		errs = append(errs, "engine.kmeans.k must be > 0")
	}
	if cfg.Engine.KMeans.MaxRounds <= 0 {
		errs = append(errs, "engine.kmeans.maxRounds must be > 0")
	}
	if cfg.Engine.Iteration.MaxIterations <= 0 {
		errs = append(errs, "engine.iteration.maxIterations must be > 0")
	}
	if cfg.Engine.Cost.PresentCongestionMultiplier <= 1.0 {
		errs = append(errs, "engine.cost.presentCongestionMultiplier must be > 1.0")
	}

	if cfg.Telemetry.Tracing.Enabled {
		switch cfg.Telemetry.Tracing.Exporter {
		case "stdout", "otlp":
		default:
			errs = append(errs, fmt.Sprintf("invalid telemetry.tracing.exporter: %s", cfg.Telemetry.Tracing.Exporter))
		}
		if cfg.Telemetry.Tracing.Exporter == "otlp" && cfg.Telemetry.Tracing.Endpoint == "" {
			errs = append(errs, "telemetry.tracing.endpoint is required for exporter=otlp")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// LogConfig prints the loaded configuration at DEBUG level.
func (cfg *Config) LogConfig(lgr logger.Logger) {
	lgr.Debug("loaded configuration",
		logger.F("logger.level", cfg.Logger.Level),
		logger.F("logger.encoding", cfg.Logger.Encoding),
		logger.F("logger.mode", cfg.Logger.Mode),
		logger.F("engine.threads", cfg.Engine.Threads),
		logger.F("engine.runtimeFirst", cfg.Engine.RuntimeFirst),
		logger.F("engine.bbox.xMargin", cfg.Engine.BBox.XMargin),
		logger.F("engine.bbox.yMargin", cfg.Engine.BBox.YMargin),
		logger.F("engine.cost.initialPresentCongestionFactor", cfg.Engine.Cost.InitialPresentCongestionFactor),
		logger.F("engine.cost.presentCongestionMultiplier", cfg.Engine.Cost.PresentCongestionMultiplier),
		logger.F("engine.cost.historicalCongestionFactor", cfg.Engine.Cost.HistoricalCongestionFactor),
		logger.F("engine.kmeans.k", cfg.Engine.KMeans.K),
		logger.F("engine.kmeans.maxRounds", cfg.Engine.KMeans.MaxRounds),
		logger.F("engine.iteration.maxIterations", cfg.Engine.Iteration.MaxIterations),
		logger.F("telemetry.tracing.enabled", cfg.Telemetry.Tracing.Enabled),
		logger.F("telemetry.tracing.exporter", cfg.Telemetry.Tracing.Exporter),
	)
}
