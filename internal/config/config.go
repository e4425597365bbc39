package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr    string
	DatabaseURL string
	JWTSecret   string

	NotionBaseURL string

	S3Region        string
	S3Endpoint      string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3PublicBaseURL string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		DatabaseURL: mustGetenv("DATABASE_URL"),
		JWTSecret:   mustGetenv("JWT_SECRET"),

		NotionBaseURL: getenv("NOTION_BASE_URL", ""),

		S3Region:        getenv("S3_REGION", "us-east-1"),
		S3Endpoint:      getenv("S3_ENDPOINT", ""),
		S3Bucket:        getenv("S3_BUCKET", ""),
		S3AccessKey:     getenv("S3_ACCESS_KEY", ""),
		S3SecretKey:     getenv("S3_SECRET_KEY", ""),
		S3PublicBaseURL: getenv("S3_PUBLIC_BASE_URL", ""),
	}
	return cfg, nil
}

// ImagesEnabled reports whether blob storage is configured. Without it,
// embedded image payloads are dropped on create (entries still go through).
func (c Config) ImagesEnabled() bool {
	return c.S3Bucket != ""
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func mustGetenv(key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		panic("missing env: " + key)
	}
	return v
}
