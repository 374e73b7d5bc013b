package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/resetpoint/internal/domain"
)

// Providers y drivers aceptados.
const (
	ProviderLLM   = "llm"
	ProviderRules = "rules"
	ProviderNone  = "none"

	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverNone   = "none"
)

// Config es la configuración completa del servicio.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Engine  EngineConfig  `yaml:"engine"`
	Advice  AdviceConfig  `yaml:"advice"`
	Speech  SpeechConfig  `yaml:"speech"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig controla el API HTTP.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	MaxUploadMB    int           `yaml:"max_upload_mb"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	CSVDelimiter   string        `yaml:"csv_delimiter"` // un solo carácter; vacío = ","
	MaxRows        int           `yaml:"max_rows"`
}

// EngineConfig se mapea 1:1 sobre domain.Policy. Cero = valor por defecto.
type EngineConfig struct {
	MinViableTrades int `yaml:"min_viable_trades"`
	MinSubSample    int `yaml:"min_sub_sample"`

	OvertradingWindow     time.Duration `yaml:"overtrading_window"`
	OvertradingMultiple   float64       `yaml:"overtrading_multiple"`
	OvertradingMinWindows int           `yaml:"overtrading_min_windows"`

	LossAversionHoldRatio float64 `yaml:"loss_aversion_hold_ratio"`
	LossAversionSizeRatio float64 `yaml:"loss_aversion_size_ratio"`

	RevengeWindow       time.Duration `yaml:"revenge_window"`
	RevengeMaxFollowUps int           `yaml:"revenge_max_follow_ups"`
	RevengeSizeMultiple float64       `yaml:"revenge_size_multiple"`

	MonteCarloMinCorrelation float64 `yaml:"monte_carlo_min_correlation"`
	MonteCarloMinPairs       int     `yaml:"monte_carlo_min_pairs"`
	MonteCarloMinStreak      int     `yaml:"monte_carlo_min_streak"`

	DispositionMinGap float64 `yaml:"disposition_min_gap"`

	RecencyShortWindow    int     `yaml:"recency_short_window"`
	RecencyLongWindow     int     `yaml:"recency_long_window"`
	RecencyMinCorrelation float64 `yaml:"recency_min_correlation"`
	RecencyDominance      float64 `yaml:"recency_dominance"`
	RecencyMinPairs       int     `yaml:"recency_min_pairs"`

	StartingBalance *float64 `yaml:"starting_balance"` // nil = columna de balance o 0
}

// AdviceConfig controla el colaborador de consejos.
type AdviceConfig struct {
	Provider string        `yaml:"provider"` // llm | rules | none
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"api_key"`
	Model    string        `yaml:"model"`
	MaxTips  int           `yaml:"max_tips"`
	Timeout  time.Duration `yaml:"timeout"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// SpeechConfig controla el colaborador de voz.
type SpeechConfig struct {
	BaseURL  string        `yaml:"base_url"`
	APIKey   string        `yaml:"api_key"`
	VoiceID  string        `yaml:"voice_id"`
	Model    string        `yaml:"model"`
	MaxChars int           `yaml:"max_chars"`
	Timeout  time.Duration `yaml:"timeout"`
}

// StorageConfig controla dónde se cachean los consejos.
type StorageConfig struct {
	Driver        string `yaml:"driver"` // sqlite | redis | none
	DSN           string `yaml:"dsn"`    // ruta al archivo SQLite, o ":memory:"
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Las variables de entorno sobreescriben los valores del YAML.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return cfg, nil
}

// Default devuelve la configuración sin archivo: defaults más env.
func Default() *Config {
	_ = godotenv.Load()

	var cfg Config
	applyEnvOverrides(&cfg)
	setDefaults(&cfg)
	return &cfg
}

// Parse decodifica YAML, aplica env y defaults, y valida.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate revisa enums y la policy resultante.
func (c *Config) Validate() error {
	switch c.Advice.Provider {
	case ProviderLLM, ProviderRules, ProviderNone:
	default:
		return fmt.Errorf("config: advice.provider must be llm, rules or none, got %q", c.Advice.Provider)
	}
	switch c.Storage.Driver {
	case DriverSQLite, DriverRedis, DriverNone:
	default:
		return fmt.Errorf("config: storage.driver must be sqlite, redis or none, got %q", c.Storage.Driver)
	}
	if len([]rune(c.Server.CSVDelimiter)) > 1 {
		return fmt.Errorf("config: server.csv_delimiter must be a single character, got %q", c.Server.CSVDelimiter)
	}
	if err := c.Policy().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Policy construye la domain.Policy: DefaultPolicy con los campos no-cero del YAML.
func (c *Config) Policy() domain.Policy {
	p := domain.DefaultPolicy()
	e := c.Engine

	setInt(&p.MinViableTrades, e.MinViableTrades)
	setInt(&p.MinSubSample, e.MinSubSample)
	setDur(&p.OvertradingWindow, e.OvertradingWindow)
	setFloat(&p.OvertradingMultiple, e.OvertradingMultiple)
	setInt(&p.OvertradingMinWindows, e.OvertradingMinWindows)
	setFloat(&p.LossAversionHoldRatio, e.LossAversionHoldRatio)
	setFloat(&p.LossAversionSizeRatio, e.LossAversionSizeRatio)
	setDur(&p.RevengeWindow, e.RevengeWindow)
	setInt(&p.RevengeMaxFollowUps, e.RevengeMaxFollowUps)
	setFloat(&p.RevengeSizeMultiple, e.RevengeSizeMultiple)
	setFloat(&p.MonteCarloMinCorrelation, e.MonteCarloMinCorrelation)
	setInt(&p.MonteCarloMinPairs, e.MonteCarloMinPairs)
	setInt(&p.MonteCarloMinStreak, e.MonteCarloMinStreak)
	setFloat(&p.DispositionMinGap, e.DispositionMinGap)
	setInt(&p.RecencyShortWindow, e.RecencyShortWindow)
	setInt(&p.RecencyLongWindow, e.RecencyLongWindow)
	setFloat(&p.RecencyMinCorrelation, e.RecencyMinCorrelation)
	setFloat(&p.RecencyDominance, e.RecencyDominance)
	setInt(&p.RecencyMinPairs, e.RecencyMinPairs)

	if e.StartingBalance != nil {
		p = p.WithStartingBalance(*e.StartingBalance)
	}
	return p
}

// MaxUploadBytes devuelve el límite de upload en bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}

// Delimiter devuelve el separador CSV como rune.
func (c *Config) Delimiter() rune {
	for _, r := range c.Server.CSVDelimiter {
		return r
	}
	return ','
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	overrides := []struct {
		env string
		dst *string
	}{
		{"LOG_LEVEL", &cfg.Log.Level},
		{"LOG_FORMAT", &cfg.Log.Format},
		{"RESETPOINT_ADDR", &cfg.Server.Addr},
		{"ADVICE_PROVIDER", &cfg.Advice.Provider},
		{"LLM_ENDPOINT", &cfg.Advice.Endpoint},
		{"LLM_API_KEY", &cfg.Advice.APIKey},
		{"LLM_MODEL", &cfg.Advice.Model},
		{"ELEVENLABS_API_KEY", &cfg.Speech.APIKey},
		{"ELEVENLABS_VOICE_ID", &cfg.Speech.VoiceID},
		{"STORAGE_DRIVER", &cfg.Storage.Driver},
		{"STORAGE_DSN", &cfg.Storage.DSN},
		{"REDIS_ADDR", &cfg.Storage.RedisAddr},
		{"REDIS_PASSWORD", &cfg.Storage.RedisPassword},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.dst = v
		}
	}
	if v := os.Getenv("STARTING_BALANCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Engine.StartingBalance = &f
		}
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if cfg.Server.MaxUploadMB <= 0 {
		cfg.Server.MaxUploadMB = 10
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.MaxRows <= 0 {
		cfg.Server.MaxRows = 100_000
	}
	if cfg.Advice.Provider == "" {
		cfg.Advice.Provider = ProviderLLM
	}
	if cfg.Advice.Endpoint == "" {
		cfg.Advice.Endpoint = "https://api.openai.com/v1"
	}
	if cfg.Advice.Model == "" {
		cfg.Advice.Model = "gpt-4o-mini"
	}
	if cfg.Advice.MaxTips <= 0 {
		cfg.Advice.MaxTips = 3
	}
	if cfg.Advice.Timeout <= 0 {
		cfg.Advice.Timeout = 15 * time.Second
	}
	if cfg.Advice.CacheTTL <= 0 {
		cfg.Advice.CacheTTL = 7 * 24 * time.Hour
	}
	if cfg.Speech.BaseURL == "" {
		cfg.Speech.BaseURL = "https://api.elevenlabs.io"
	}
	if cfg.Speech.Model == "" {
		cfg.Speech.Model = "eleven_multilingual_v2"
	}
	if cfg.Speech.MaxChars <= 0 {
		cfg.Speech.MaxChars = 1200
	}
	if cfg.Speech.Timeout <= 0 {
		cfg.Speech.Timeout = 30 * time.Second
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverSQLite
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "resetpoint.db"
	}
	if cfg.Storage.RedisAddr == "" {
		cfg.Storage.RedisAddr = "localhost:6379"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func setFloat(dst *float64, v float64) {
	if v > 0 {
		*dst = v
	}
}

func setDur(dst *time.Duration, v time.Duration) {
	if v > 0 {
		*dst = v
	}
}
