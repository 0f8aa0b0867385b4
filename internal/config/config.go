package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents runtime configuration for the service. It is loaded once
// at startup and passed by reference; nothing mutates it afterwards.
type Config struct {
	BasicConfig BasicConfig  `json:"basic_config"`
	Gemini      GeminiConfig `json:"gemini"`
	Form        FormConfig   `json:"form"`
	Sheet       SheetConfig  `json:"sheet"`
	Redis       RedisConfig  `json:"redis"`
}

type BasicConfig struct {
	ServerAddress     string `json:"server_address"`
	TempDir           string `json:"temp_dir"`
	MaxUploadMB       int64  `json:"max_upload_mb"`
	MinWorkers        int    `json:"min_workers"`
	MaxWorkers        int    `json:"max_workers"`
	QueueSize         int    `json:"queue_size"`
	WorkerIdleTimeout int    `json:"worker_idle_timeout"` // minutes
	TempFileTTL       int    `json:"temp_file_ttl"`       // minutes
	TempSweepInterval int    `json:"temp_sweep_interval"` // minutes
}

type GeminiConfig struct {
	APIKey string `json:"api_key"`
	Model  string `json:"model"`
}

// FormConfig addresses the external Google Form. The entry IDs must exactly
// match the destination form's schema or submissions silently land in the
// wrong column.
type FormConfig struct {
	URL    string     `json:"url"`
	Fields FormFields `json:"fields"`
}

type FormFields struct {
	Date       string `json:"date"`
	Time       string `json:"time"`
	LogType    string `json:"log_type"`
	Transcript string `json:"transcript"`
}

type SheetConfig struct {
	CSVURL      string `json:"csv_url"`
	CacheTTLSec int    `json:"cache_ttl_sec"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

const defaultFormURL = "https://docs.google.com/forms/u/0/d/e/1FAIpQLSdozkwvFLM9JeBN2HOEZ8G3CANmiMj8vVYBU0CDvn3MNgrBag/formResponse"

// Load reads configuration from the provided path (defaults to config.json).
// A missing file is not an error: defaults plus environment variables are
// enough to run.
func Load(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		path = "config.json"
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	file, err := os.Open(absPath)
	switch {
	case err == nil:
		defer file.Close()
		if err := json.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("decode config %s: %w", absPath, err)
		}
	case os.IsNotExist(err):
		// run on defaults and env
	default:
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

// applyEnv lets the environment beat the file for the two knobs the mobile
// shortcut deployment sets.
func (c *Config) applyEnv() {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Gemini.APIKey = v
	}
	if v := os.Getenv("GOOGLE_FORM_URL"); v != "" {
		c.Form.URL = v
	}
}

func (c *Config) applyDefaults() {
	if c.BasicConfig.ServerAddress == "" {
		c.BasicConfig.ServerAddress = ":8090"
	}
	if c.BasicConfig.TempDir == "" {
		c.BasicConfig.TempDir = os.TempDir()
	}
	if c.BasicConfig.MaxUploadMB <= 0 {
		c.BasicConfig.MaxUploadMB = 20
	}
	if c.BasicConfig.MinWorkers <= 0 {
		c.BasicConfig.MinWorkers = 1
	}
	if c.BasicConfig.MaxWorkers < c.BasicConfig.MinWorkers {
		c.BasicConfig.MaxWorkers = c.BasicConfig.MinWorkers + 3
	}
	if c.BasicConfig.QueueSize <= 0 {
		c.BasicConfig.QueueSize = 64
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-flash-latest"
	}
	if c.Form.URL == "" {
		c.Form.URL = defaultFormURL
	}
	if c.Form.Fields.Date == "" {
		c.Form.Fields.Date = "entry.1823354629"
	}
	if c.Form.Fields.Time == "" {
		c.Form.Fields.Time = "entry.1109844519"
	}
	if c.Form.Fields.LogType == "" {
		c.Form.Fields.LogType = "entry.707765665"
	}
	if c.Form.Fields.Transcript == "" {
		c.Form.Fields.Transcript = "entry.1028845639"
	}
	if c.Sheet.CacheTTLSec <= 0 {
		c.Sheet.CacheTTLSec = 60
	}
}
