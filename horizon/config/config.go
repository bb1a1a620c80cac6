package config

import (
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr           string `yaml:"addr"`
	OllamaBaseURL  string `yaml:"ollama_base_url"`
	SearchBaseURL  string `yaml:"search_base_url"`
	DataDir        string `yaml:"data_dir"`
	LogDir         string `yaml:"log_dir"`
	MinIOEndpoint  string `yaml:"minio_endpoint"`
	MinIOAccessKey string `yaml:"minio_access_key"`
	MinIOSecretKey string `yaml:"minio_secret_key"`
	MinIOBucket    string `yaml:"minio_bucket"`
}

// LoadConfig reads .env (if present), then environment variables, then an
// optional YAML overlay pointed at by HORIZON_CONFIG. YAML values win so a
// single file can pin a full deployment.
func LoadConfig() Config {
	_ = godotenv.Load()

	cfg := Config{
		Addr:           getEnv("HORIZON_ADDR", ":11451"),
		OllamaBaseURL:  getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		SearchBaseURL:  getEnv("SEARCH_BASE_URL", "https://duckduckgo.com/html/"),
		DataDir:        getEnv("HORIZON_DATA_DIR", "./data"),
		LogDir:         getEnv("HORIZON_LOG_DIR", "./logs"),
		MinIOEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinIOBucket:    getEnv("MINIO_BUCKET", "horizon-attachments"),
	}

	if path := os.Getenv("HORIZON_CONFIG"); path != "" {
		if raw, err := os.ReadFile(path); err == nil {
			_ = yaml.Unmarshal(raw, &cfg)
		}
	}
	return cfg
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}
