package config

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	API      APIConfig      `yaml:"api"`
	Poll     PollConfig     `yaml:"poll"`
	Upload   UploadConfig   `yaml:"upload"`
	Progress ProgressConfig `yaml:"progress"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Worker   WorkerConfig   `yaml:"worker"`
}

type APIConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type PollConfig struct {
	Interval time.Duration `yaml:"interval"`
	// MaxAttempts of 0 polls until the job is done or cancelled.
	MaxAttempts    uint     `yaml:"max_attempts"`
	DoneStatuses   []string `yaml:"done_statuses"`
	FailedStatuses []string `yaml:"failed_statuses"`
}

type UploadConfig struct {
	MaxFileSize int64 `yaml:"max_file_size"`
}

type ProgressConfig struct {
	AnalyzeDelay  time.Duration `yaml:"analyze_delay"`
	FeedbackDelay time.Duration `yaml:"feedback_delay"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	Env  string `yaml:"env"`
}

type DatabaseConfig struct {
	// DSN selects the postgres job store. Empty keeps jobs in memory.
	DSN string `yaml:"dsn"`
}

type StorageConfig struct {
	UploadPath string `yaml:"upload_path"`
}

type WorkerConfig struct {
	Concurrency     int           `yaml:"concurrency"`
	ProcessingDelay time.Duration `yaml:"processing_delay"`
	SweepInterval   time.Duration `yaml:"sweep_interval"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		API: APIConfig{
			URL:     "http://localhost:8000",
			Timeout: 30 * time.Second,
		},
		Poll: PollConfig{
			Interval:       2 * time.Second,
			DoneStatuses:   []string{"completed", "done"},
			FailedStatuses: []string{"failed"},
		},
		Upload: UploadConfig{
			MaxFileSize: 10485760,
		},
		Progress: ProgressConfig{
			AnalyzeDelay:  2 * time.Second,
			FeedbackDelay: time.Second,
		},
		Server: ServerConfig{
			Port: "8000",
			Env:  "development",
		},
		Storage: StorageConfig{
			UploadPath: "./uploads",
		},
		Worker: WorkerConfig{
			Concurrency:     2,
			ProcessingDelay: 3 * time.Second,
			SweepInterval:   10 * time.Second,
		},
	}
}

// Load reads .env, then the YAML file named by RESUMIND_CONFIG, then the
// environment. Later sources win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using default values.")
	}

	cfg := Default()
	if path := os.Getenv("RESUMIND_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()
	return c.Merge(f)
}

// Merge overlays YAML from r onto c. Keys missing from the document keep
// their current values.
func (c *Config) Merge(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.API.URL = strings.TrimRight(getEnv("RESUMIND_API_URL", c.API.URL), "/")
	c.API.Timeout = getEnvAsDuration("RESUMIND_API_TIMEOUT", c.API.Timeout)

	c.Poll.Interval = getEnvAsDuration("POLL_INTERVAL", c.Poll.Interval)
	c.Poll.MaxAttempts = uint(getEnvAsInt("POLL_MAX_ATTEMPTS", int(c.Poll.MaxAttempts)))
	c.Poll.DoneStatuses = getEnvAsList("POLL_DONE_STATUSES", c.Poll.DoneStatuses)
	c.Poll.FailedStatuses = getEnvAsList("POLL_FAILED_STATUSES", c.Poll.FailedStatuses)

	c.Upload.MaxFileSize = getEnvAsInt64("UPLOAD_MAX_FILE_SIZE", c.Upload.MaxFileSize)

	c.Progress.AnalyzeDelay = getEnvAsDuration("PROGRESS_ANALYZE_DELAY", c.Progress.AnalyzeDelay)
	c.Progress.FeedbackDelay = getEnvAsDuration("PROGRESS_FEEDBACK_DELAY", c.Progress.FeedbackDelay)

	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.Env = getEnv("ENV", c.Server.Env)

	c.Database.DSN = getEnv("DB_DSN", c.Database.DSN)
	c.Storage.UploadPath = getEnv("UPLOAD_PATH", c.Storage.UploadPath)

	c.Worker.Concurrency = getEnvAsInt("WORKER_CONCURRENCY", c.Worker.Concurrency)
	c.Worker.ProcessingDelay = getEnvAsDuration("WORKER_PROCESSING_DELAY", c.Worker.ProcessingDelay)
	c.Worker.SweepInterval = getEnvAsDuration("WORKER_SWEEP_INTERVAL", c.Worker.SweepInterval)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil && value >= 0 {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
