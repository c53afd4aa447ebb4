package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/taskmatch/internal/rules"
	"github.com/MikeSquared-Agency/taskmatch/internal/scoring"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Hermes     HermesConfig     `yaml:"hermes"`
	Redis      RedisConfig      `yaml:"redis"`
	Assignment AssignmentConfig `yaml:"assignment"`
	Scoring    ScoringConfig    `yaml:"scoring"`
	Rules      RulesConfig      `yaml:"rules"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"`
	AdminToken  string `yaml:"admin_token"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type HermesConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig enables the shared member lock when Addr is set.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	LockTTLMs int    `yaml:"lock_ttl_ms"`
}

type AssignmentConfig struct {
	BaseScore               float64 `yaml:"base_score"`
	MaxWorkloadHours        float64 `yaml:"max_workload_hours"`
	MinAvailability         float64 `yaml:"min_availability"`
	MinProficiency          int     `yaml:"min_proficiency"`
	DefaultEstimatedHours   float64 `yaml:"default_estimated_hours"`
	DueSoonDays             int     `yaml:"due_soon_days"`
	DueSoonMinRating        float64 `yaml:"due_soon_min_rating"`
	HighComplexityThreshold int     `yaml:"high_complexity_threshold"`
	ConcurrentScoring       bool    `yaml:"concurrent_scoring"`
	MaxSaveRetries          int     `yaml:"max_save_retries"`
}

type ScoringConfig struct {
	Weights                         ScoringWeights `yaml:"weights"`
	HighComplexityPerformanceWeight float64        `yaml:"high_complexity_performance_weight"`
	SkillMismatchPenalty            float64        `yaml:"skill_mismatch_penalty"`
	ExperienceMismatchPenalty       float64        `yaml:"experience_mismatch_penalty"`
	DueSoonBonus                    float64        `yaml:"due_soon_bonus"`
}

type ScoringWeights struct {
	Skill       float64 `yaml:"skill"`
	Experience  float64 `yaml:"experience"`
	Workload    float64 `yaml:"workload"`
	Performance float64 `yaml:"performance"`
	Urgency     float64 `yaml:"urgency"`
}

// RulesConfig overrides entries of the built-in rule tables. Keys not listed
// keep their built-in value.
type RulesConfig struct {
	TaskTypeSkills  map[string][]string   `yaml:"task_type_skills"`
	ComplexityBands map[string]BandConfig `yaml:"complexity_bands"`
}

type BandConfig struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *Config) LockTTL() time.Duration {
	return time.Duration(c.Redis.LockTTLMs) * time.Millisecond
}

// ToRules merges the overrides onto rules.Default.
func (rc RulesConfig) ToRules() rules.Rules {
	r := rules.Default()
	for taskType, keywords := range rc.TaskTypeSkills {
		r.TaskTypeSkills[taskType] = keywords
	}
	for level, b := range rc.ComplexityBands {
		r.ComplexityBands[level] = rules.Band{Min: b.Min, Max: b.Max}
	}
	return r
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        8700,
			MetricsPort: 8701,
		},
		Hermes: HermesConfig{
			URL: "nats://localhost:4222",
		},
		Redis: RedisConfig{
			LockTTLMs: 5000,
		},
		Assignment: AssignmentConfig{
			BaseScore:               50,
			MaxWorkloadHours:        40,
			MinAvailability:         30,
			MinProficiency:          3,
			DefaultEstimatedHours:   8,
			DueSoonDays:             3,
			DueSoonMinRating:        4,
			HighComplexityThreshold: 7,
			ConcurrentScoring:       true,
			MaxSaveRetries:          3,
		},
		Scoring: ScoringConfig{
			Weights: ScoringWeights{
				Skill:       0.35,
				Experience:  0.20,
				Workload:    0.20,
				Performance: 0.15,
				Urgency:     0.10,
			},
			HighComplexityPerformanceWeight: 0.20,
			SkillMismatchPenalty:            20,
			ExperienceMismatchPenalty:       15,
			DueSoonBonus:                    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TASKMATCH_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("TASKMATCH_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("TASKMATCH_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("TASKMATCH_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("TASKMATCH_HERMES_URL"); v != "" {
		cfg.Hermes.URL = v
	}
	if v := os.Getenv("TASKMATCH_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("TASKMATCH_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("TASKMATCH_CONCURRENT_SCORING"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Assignment.ConcurrentScoring = b
		}
	}
	if v := os.Getenv("TASKMATCH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	w := scoring.WeightSet{
		Skill:                     c.Scoring.Weights.Skill,
		Experience:                c.Scoring.Weights.Experience,
		Workload:                  c.Scoring.Weights.Workload,
		Performance:               c.Scoring.Weights.Performance,
		Urgency:                   c.Scoring.Weights.Urgency,
		HighComplexityPerformance: c.Scoring.HighComplexityPerformanceWeight,
	}
	if err := w.Validate(); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}

	r := c.Rules.ToRules()
	r.MinProficiency = c.Assignment.MinProficiency
	if err := r.Validate(); err != nil {
		return fmt.Errorf("rules: %w", err)
	}

	a := c.Assignment
	if a.MaxWorkloadHours <= 0 {
		return fmt.Errorf("assignment.max_workload_hours must be positive, got %v", a.MaxWorkloadHours)
	}
	if a.DefaultEstimatedHours < 0 {
		return fmt.Errorf("assignment.default_estimated_hours must not be negative, got %v", a.DefaultEstimatedHours)
	}
	if a.MaxSaveRetries < 0 {
		return fmt.Errorf("assignment.max_save_retries must not be negative, got %d", a.MaxSaveRetries)
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a logging.level value to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// NewLogger builds the process logger from the logging section.
func (c *Config) NewLogger() *slog.Logger {
	level, _ := ParseLevel(c.Logging.Level)
	opts := &slog.HandlerOptions{Level: level}
	if c.Logging.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
