package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DatabaseURL string
	DataDir     string

	OperatorsURL      string
	StatementsURLs    []string
	AnnexPageURL      string
	AnnexLabelPattern string
	OperatorsFile     string
	IgnoreFiles       []string

	HTTPTimeout      time.Duration
	NumDownloaders   int
	NumParserWorkers int
	DBBatchSize      int

	ReportLimit       int
	ReportDescription string
	ReportOutput      string

	LogLevel       string
	LogFormat      string
	PushgatewayURL string

	APIPort     int
	CORSOrigins []string
}

// New reads the configuration from the environment. DATABASE_URL is only checked
// by RequireDatabase, since not every command opens a connection.
func New() (*Config, error) {
	cfg := &Config{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		DataDir:           getEnv("DATA_DIR", "./data"),
		OperatorsURL:      os.Getenv("OPERATORS_URL"),
		StatementsURLs:    getEnvAsList("STATEMENTS_URLS", nil),
		AnnexPageURL:      os.Getenv("ANNEX_PAGE_URL"),
		AnnexLabelPattern: getEnv("ANNEX_LABEL_PATTERN", "Anexo"),
		OperatorsFile:     getEnv("OPERATORS_FILE", "Relatorio_cadop.csv"),
		IgnoreFiles:       getEnvAsList("IGNORE_FILES", []string{"Relatorio_cadop.csv", "tables_ans.csv"}),
		ReportDescription: getEnv("REPORT_DESCRIPTION", "EVENTOS/ SINISTROS CONHECIDOS OU AVISADOS  DE ASSIST"),
		ReportOutput:      os.Getenv("REPORT_OUTPUT"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "text"),
		PushgatewayURL:    os.Getenv("PUSHGATEWAY_URL"),
		CORSOrigins:       getEnvAsList("CORS_ORIGINS", []string{"http://localhost:5173"}),
	}

	var err error
	cfg.HTTPTimeout, err = getEnvAsDuration("HTTP_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}

	cfg.NumDownloaders, err = getEnvAsInt("DOWNLOAD_WORKERS", 4)
	if err != nil {
		return nil, err
	}

	cfg.NumParserWorkers, err = getEnvAsInt("NUM_PARSER_WORKERS", 4)
	if err != nil {
		return nil, err
	}

	cfg.DBBatchSize, err = getEnvAsInt("DB_BATCH_SIZE", 5000)
	if err != nil {
		return nil, err
	}

	cfg.ReportLimit, err = getEnvAsInt("REPORT_LIMIT", 10)
	if err != nil {
		return nil, err
	}

	cfg.APIPort, err = getEnvAsInt("API_PORT", 8000)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("invalid value for %s: expected a positive integer, got '%s'", key, valueStr)
	}

	return value, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: expected a duration, got '%s'", key, valueStr)
	}

	return value, nil
}

// getEnvAsList splits a comma separated variable, dropping blank entries.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}
