package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `toml:"server" yaml:"server"`
	Storage StorageConfig `toml:"storage" yaml:"storage"`
	OCR     OCRConfig     `toml:"ocr" yaml:"ocr"`
	LLM     LLMConfig     `toml:"llm" yaml:"llm"`
	Log     LogConfig     `toml:"log" yaml:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr              string `toml:"http_addr" yaml:"http_addr"`
	GRPCAddr              string `toml:"grpc_addr" yaml:"grpc_addr"` // empty disables the gRPC health server
	MaxUploadMB           int    `toml:"max_upload_mb" yaml:"max_upload_mb"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds" yaml:"request_timeout_seconds"`
}

// StorageConfig holds the transient file locations
type StorageConfig struct {
	UploadDir        string `toml:"upload_dir" yaml:"upload_dir"`
	ResultsDir       string `toml:"results_dir" yaml:"results_dir"`
	ArtifactCacheDir string `toml:"artifact_cache_dir" yaml:"artifact_cache_dir"`
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Engine        string `toml:"engine" yaml:"engine"`
	TesseractBin  string `toml:"tesseract_bin" yaml:"tesseract_bin"`
	Lang          string `toml:"lang" yaml:"lang"`
	TessdataDir   string `toml:"tessdata_dir" yaml:"tessdata_dir"`
	PSM           int    `toml:"psm" yaml:"psm"`
	TSVConfidence bool   `toml:"tsv_confidence" yaml:"tsv_confidence"`
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Model          string  `toml:"model" yaml:"model"`
	APIKey         string  `toml:"api_key" yaml:"api_key"`
	BaseURL        string  `toml:"base_url" yaml:"base_url"`
	MaxTokens      int     `toml:"max_tokens" yaml:"max_tokens"`
	Temperature    float32 `toml:"temperature" yaml:"temperature"`
	TimeoutSeconds int     `toml:"timeout_seconds" yaml:"timeout_seconds"`
	MaxRetries     int     `toml:"max_retries" yaml:"max_retries"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"` // "text" | "json" | "" (auto)
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:              ":5000",
			MaxUploadMB:           32,
			RequestTimeoutSeconds: 300,
		},
		Storage: StorageConfig{
			UploadDir:        "./uploads",
			ResultsDir:       "./results",
			ArtifactCacheDir: "./tmp",
		},
		OCR: OCRConfig{
			Engine:       "tesseract",
			TesseractBin: "tesseract",
			Lang:         "por",
		},
		LLM: LLMConfig{
			Model:          "gpt-4o",
			BaseURL:        "https://api.openai.com/v1",
			MaxTokens:      1000,
			TimeoutSeconds: 45,
			MaxRetries:     2,
		},
		Log: LogConfig{Level: "info"},
	}
}

// LoadConfig builds the configuration from defaults, then the optional file at
// path (or CONFIG_FILE), then environment variables.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// loadFile decodes a TOML or YAML file over the current values, chosen by extension.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return NewAppError("CONFIG_ERROR", "read config file "+path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, c)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		return NewAppError("CONFIG_ERROR", "unsupported config format "+filepath.Ext(path), ErrValidation)
	}
	if err != nil {
		return NewAppError("CONFIG_ERROR", "decode config file "+path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.HTTPAddr = getEnv("HTTP_ADDR", c.Server.HTTPAddr)
	c.Server.GRPCAddr = getEnv("GRPC_ADDR", c.Server.GRPCAddr)
	c.Server.MaxUploadMB = getEnvAsInt("MAX_UPLOAD_MB", c.Server.MaxUploadMB)
	c.Server.RequestTimeoutSeconds = getEnvAsInt("REQUEST_TIMEOUT_SECONDS", c.Server.RequestTimeoutSeconds)

	c.Storage.UploadDir = getEnv("UPLOAD_DIR", c.Storage.UploadDir)
	c.Storage.ResultsDir = getEnv("RESULTS_DIR", c.Storage.ResultsDir)
	c.Storage.ArtifactCacheDir = getEnv("ARTIFACT_CACHE_DIR", c.Storage.ArtifactCacheDir)

	c.OCR.Engine = getEnv("OCR_ENGINE", c.OCR.Engine)
	c.OCR.TesseractBin = getEnv("TESSERACT_BIN", c.OCR.TesseractBin)
	c.OCR.Lang = getEnv("TESSERACT_LANG", c.OCR.Lang)
	c.OCR.TessdataDir = getEnv("TESSDATA_PREFIX", c.OCR.TessdataDir)
	c.OCR.PSM = getEnvAsInt("OCR_PSM", c.OCR.PSM)
	c.OCR.TSVConfidence = getEnvAsBool("OCR_TSV_CONFIDENCE", c.OCR.TSVConfidence)

	c.LLM.APIKey = getEnv("OPENAI_API_KEY", c.LLM.APIKey)
	c.LLM.BaseURL = getEnv("OPENAI_BASE_URL", c.LLM.BaseURL)
	c.LLM.Model = getEnv("OPENAI_MODEL", c.LLM.Model)
	c.LLM.MaxTokens = getEnvAsInt("OPENAI_MAX_TOKENS", c.LLM.MaxTokens)
	c.LLM.Temperature = getEnvAsFloat32("OPENAI_TEMPERATURE", c.LLM.Temperature)
	c.LLM.TimeoutSeconds = getEnvAsInt("OPENAI_TIMEOUT_SECONDS", c.LLM.TimeoutSeconds)
	c.LLM.MaxRetries = getEnvAsInt("OPENAI_RETRIES", c.LLM.MaxRetries)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}


// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator().
		Field("HTTP_ADDR", c.Server.HTTPAddr, Required).
		Field("UPLOAD_DIR", c.Storage.UploadDir, Required).
		Field("RESULTS_DIR", c.Storage.ResultsDir, Required).
		Field("TESSERACT_LANG", c.OCR.Lang, Required).
		Field("OCR_ENGINE", c.OCR.Engine, OneOf("tesseract", "gosseract")).
		Field("MAX_UPLOAD_MB", c.Server.MaxUploadMB, Positive).
		Field("REQUEST_TIMEOUT_SECONDS", c.Server.RequestTimeoutSeconds, Positive).
		Field("OPENAI_TIMEOUT_SECONDS", c.LLM.TimeoutSeconds, Positive).
		Field("OPENAI_MAX_TOKENS", c.LLM.MaxTokens, Positive)
	return ValidateAndReturnError(v)
}

// MaxUploadBytes is the request body limit for uploads.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}

// RequestTimeout bounds one HTTP request, including the whole batch.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
}

// LLMTimeout bounds one vision call.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// VisionEnabled reports whether the vision model can be called.
func (c *Config) VisionEnabled() bool {
	return c.LLM.APIKey != ""
}

// String renders the config without secrets, for startup logs.
func (c *Config) String() string {
	key := "unset"
	if c.LLM.APIKey != "" {
		key = "set"
	}
	return fmt.Sprintf("http=%s grpc=%q uploads=%s results=%s ocr=%s/%s model=%s api_key=%s",
		c.Server.HTTPAddr, c.Server.GRPCAddr, c.Storage.UploadDir, c.Storage.ResultsDir,
		c.OCR.Engine, c.OCR.Lang, c.LLM.Model, key)
}
