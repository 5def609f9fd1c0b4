package config

import (
	"os"
	"strconv"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port string

	PostgresDSN   string
	MongoURI      string
	MongoDB       string
	RedisAddr     string
	RedisPassword string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// LLM settings.
	LLMProvider     string // "openai" or "google"
	OpenAIAPIKey    string
	GoogleAPIKey    string
	FastLLMModel    string
	SmartLLMModel   string
	EmbeddingModel  string
	FastTokenLimit  int
	SmartTokenLimit int

	// Retrieval settings.
	Retriever                string // "tavily", "duckduckgo" or "serpapi"
	TavilyAPIKey             string
	SerpApiKey               string
	MaxSearchResultsPerQuery int
	MaxIterations            int
	UserAgent                string

	// Report settings.
	ReportFormat     string
	TotalWords       int
	AgentRole        string
	MonthlyReportCap int
}

func Load() *Config {
	return &Config{
		Port:          getenv("PORT", "8080"),
		PostgresDSN:   getenv("POSTGRES_DSN", ""),
		MongoURI:      getenv("MONGO_URI", ""),
		MongoDB:       getenv("MONGO_DB", "report_agent"),
		RedisAddr:     getenv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getenv("REDIS_PASSWORD", ""),

		MinioEndpoint:  getenv("MINIO_ENDPOINT", "minio:9000"),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "report-artifacts"),
		MinioUseSSL:    getenv("MINIO_USE_SSL", "false") == "true",

		LLMProvider:     getenv("LLM_PROVIDER", "openai"),
		OpenAIAPIKey:    getenv("OPENAI_API_KEY", ""),
		GoogleAPIKey:    getenv("GOOGLE_API_KEY", ""),
		FastLLMModel:    getenv("FAST_LLM_MODEL", "gpt-4o-mini"),
		SmartLLMModel:   getenv("SMART_LLM_MODEL", "gpt-4o"),
		EmbeddingModel:  getenv("EMBEDDING_MODEL", "text-embedding-3-small"),
		FastTokenLimit:  getenvInt("FAST_TOKEN_LIMIT", 2000),
		SmartTokenLimit: getenvInt("SMART_TOKEN_LIMIT", 4000),

		Retriever:                getenv("RETRIEVER", "duckduckgo"),
		TavilyAPIKey:             getenv("TAVILY_API_KEY", ""),
		SerpApiKey:               getenv("SERPAPI_KEY", ""),
		MaxSearchResultsPerQuery: getenvInt("MAX_SEARCH_RESULTS_PER_QUERY", 5),
		MaxIterations:            getenvInt("MAX_ITERATIONS", 3),
		UserAgent: getenv("REPORT_USER_AGENT",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36"),

		ReportFormat:     getenv("REPORT_FORMAT", "APA"),
		TotalWords:       getenvInt("REPORT_TOTAL_WORDS", 1000),
		AgentRole:        getenv("REPORT_AGENT_ROLE", ""),
		MonthlyReportCap: getenvInt("MONTHLY_REPORT_CAP", 50),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
