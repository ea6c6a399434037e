package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds till configuration loaded from the environment.
type Config struct {
	AppEnv       string
	TillID       string
	OpeningFloat int64

	LogFormat        string
	LogLevel         string
	MetricsNamespace string
	EnableTracing    bool
	OTLPEndpoint     string

	OpsAddr         string
	ShutdownTimeout time.Duration

	SaleLogDSN     string
	RedisURL       string
	LedgerKey      string
	ItemCacheTTL   time.Duration
	RevenueFile    string
	StoreName      string
	PrinterType    string
	PrinterUSBPath string
	PrinterAddress string
	ReceiptWidth   int
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:           valueOrDefault(k.String("APP_ENV"), "development"),
		TillID:           valueOrDefault(k.String("TILL_ID"), "till-1"),
		OpeningFloat:     parseInt(k.String("TILL_OPENING_FLOAT"), 5000),
		LogFormat:        valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
		LogLevel:         valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
		MetricsNamespace: valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "till"),
		EnableTracing:    parseBool(k.String("OBS_ENABLE_TRACING")),
		OTLPEndpoint:     strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
		OpsAddr:          valueOrDefault(k.String("OPS_ADDR"), ":9090"),
		ShutdownTimeout:  parseDuration(k.String("SHUTDOWN_TIMEOUT"), "10s"),
		SaleLogDSN:       strings.TrimSpace(k.String("SALE_LOG_DSN")),
		RedisURL:         strings.TrimSpace(k.String("REDIS_URL")),
		LedgerKey:        valueOrDefault(k.String("ACCOUNTING_LEDGER_KEY"), "till:ledger"),
		ItemCacheTTL:     parseDuration(k.String("ITEM_CACHE_TTL"), "5m"),
		RevenueFile:      strings.TrimSpace(k.String("REVENUE_FILE_PATH")),
		StoreName:        valueOrDefault(k.String("STORE_NAME"), "POS Till"),
		PrinterType:      strings.ToLower(valueOrDefault(k.String("PRINTER_TYPE"), "console")),
		PrinterUSBPath:   strings.TrimSpace(k.String("PRINTER_USB_PATH")),
		PrinterAddress:   strings.TrimSpace(k.String("PRINTER_ADDRESS")),
		ReceiptWidth:     int(parseInt(k.String("RECEIPT_WIDTH"), 32)),
	}

	if cfg.OpeningFloat < 0 {
		return nil, errors.New("TILL_OPENING_FLOAT must not be negative")
	}
	if cfg.ReceiptWidth <= 0 {
		return nil, errors.New("RECEIPT_WIDTH must be positive")
	}
	if cfg.EnableTracing && cfg.OTLPEndpoint == "" {
		return nil, errors.New("OBS_OTLP_ENDPOINT is required when tracing is enabled")
	}

	return cfg, nil
}

// TracingExporter returns the exporter name for obs.InitTracer.
func (c *Config) TracingExporter() string {
	if c.EnableTracing {
		return "otlp"
	}
	return "none"
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

// parseInt falls back only when value is empty or malformed; negative values
// are returned so Load can reject them.
func parseInt(value string, fallback int64) int64 {
	v := strings.TrimSpace(value)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// MustLoad behaves like Load but panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
