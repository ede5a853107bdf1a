package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Env  string
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisAddr     string
	RedisPassword string

	ModelGatewayURL string
	EmbeddingModel  string
	GenerationModel string
	RerankModel     string
	EmbedTimeout    int
	GenerateTimeout int
	RerankTimeout   int
	GenerateRPS     float64
	GenerateBurst   int

	LexicalSearchURL     string
	LexicalSearchTimeout int

	KDense        int
	KLexical      int
	FinalK        int
	DenseWeight   float64
	LexicalWeight float64
	BoostWeight   float64
	RerankEnabled bool
	RerankAlpha   float64
	MMRLambda     float64
	ContextBudget int
	FilterEnabled bool

	EmbedCacheSize int
	EmbedCacheTTL  int

	OTelEnabled  bool
	OTelEndpoint string
}

func Load() *Config {
	return &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "9020"),

		DBHost:     getEnv("DB_HOST", "passage-db"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "retrieval_user"),
		DBPassword: getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "retrieval_password"),
		DBName:     getEnv("DB_NAME", "passage_db"),

		RedisAddr:     getEnv("REDIS_ADDR", "chat-store:6379"),
		RedisPassword: getSecret("REDIS_PASSWORD", "REDIS_PASSWORD_FILE", ""),

		ModelGatewayURL: getEnv("MODEL_GATEWAY_URL", "http://model-gateway:11434"),
		EmbeddingModel:  getEnv("EMBEDDING_MODEL", "embeddinggemma"),
		GenerationModel: getEnv("GENERATION_MODEL", "gemma3:4b"),
		RerankModel:     getEnv("RERANK_MODEL", "bge-reranker-v2-m3"),
		EmbedTimeout:    getEnvInt("EMBED_TIMEOUT_SECONDS", 30),
		GenerateTimeout: getEnvInt("GENERATE_TIMEOUT_SECONDS", 60),
		RerankTimeout:   getEnvInt("RERANK_TIMEOUT_SECONDS", 30),
		GenerateRPS:     getEnvFloat("GENERATE_RPS", 4),
		GenerateBurst:   getEnvInt("GENERATE_BURST", 8),

		LexicalSearchURL:     getEnv("LEXICAL_SEARCH_URL", "http://search-service:7700"),
		LexicalSearchTimeout: getEnvInt("LEXICAL_SEARCH_TIMEOUT_SECONDS", 10),

		KDense:        getEnvInt("RETRIEVAL_K_DENSE", 50),
		KLexical:      getEnvInt("RETRIEVAL_K_LEXICAL", 50),
		FinalK:        getEnvInt("RETRIEVAL_FINAL_K", 10),
		DenseWeight:   getEnvFloat("RETRIEVAL_DENSE_WEIGHT", 0.6),
		LexicalWeight: getEnvFloat("RETRIEVAL_LEXICAL_WEIGHT", 0.3),
		BoostWeight:   getEnvFloat("RETRIEVAL_BOOST_WEIGHT", 0.4),
		RerankEnabled: getEnvBool("RERANK_ENABLED", true),
		RerankAlpha:   getEnvFloat("RERANK_ALPHA", 0.7),
		MMRLambda:     getEnvFloat("MMR_LAMBDA", 0.7),
		ContextBudget: getEnvInt("CONTEXT_BUDGET_CHARS", 12000),
		FilterEnabled: getEnvBool("BRANCH_FILTER_ENABLED", true),

		EmbedCacheSize: getEnvInt("EMBED_CACHE_SIZE", 512),
		EmbedCacheTTL:  getEnvInt("EMBED_CACHE_TTL_MINUTES", 10),

		OTelEnabled:  getEnvBool("OTEL_ENABLED", false),
		OTelEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://otel-collector:4318"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
