package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Extraction strategies selectable per deployment.
const (
	StrategyDeterministic = "deterministic"
	StrategyAI            = "ai"
)

// Renderer backends selectable per deployment.
const (
	RendererHTTP   = "http"
	RendererChrome = "chrome"
)

// Config represents the application configuration
type Config struct {
	// Pipeline configuration
	WorkerCount        int
	CheckpointInterval int
	CheckpointPath     string
	RequestDelay       time.Duration

	// Context window configuration
	ContextUnits   int
	ContextRecords int
	OverlapCount   int

	// Retry configuration
	RetryAttempts int
	RetryBackoff  time.Duration

	// External call configuration
	RequestTimeout time.Duration
	Renderer       string
	ChromeSettle   time.Duration

	// Extraction configuration
	Strategy       string
	LLMEndpoint    string
	LLMAPIKey      string
	LLMModel       string
	LLMTemperature float64

	// Memcache configuration (fetch rate-limit blocking)
	MemcacheAddr string

	// Redis configuration (progress/record event stream)
	PublishEnabled       bool
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Source URLs for the catalog scrapers
	KapiolaniURL        string
	ManoaURLTemplate    string
	ManoaCoursePrefix   string
	ManoaStartPage      int
	ManoaEndPage        int
	HiloCatalogURL      string
	HiloDepartmentRegex string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	workerCount, _ := strconv.Atoi(getEnv("WORKER_COUNT", "4"))
	checkpointInterval, _ := strconv.Atoi(getEnv("CHECKPOINT_INTERVAL", "10"))
	requestDelayMs, _ := strconv.Atoi(getEnv("REQUEST_DELAY_MS", "100"))
	contextUnits, _ := strconv.Atoi(getEnv("CONTEXT_UNITS", "3"))
	contextRecords, _ := strconv.Atoi(getEnv("CONTEXT_RECORDS", "5"))
	overlapCount, _ := strconv.Atoi(getEnv("OVERLAP_COUNT", "2"))
	retryAttempts, _ := strconv.Atoi(getEnv("RETRY_ATTEMPTS", "3"))
	retryBackoff, _ := strconv.Atoi(getEnv("RETRY_BACKOFF_SECONDS", "1"))
	requestTimeout, _ := strconv.Atoi(getEnv("REQUEST_TIMEOUT_SECONDS", "30"))
	chromeSettleMs, _ := strconv.Atoi(getEnv("CHROME_SETTLE_MS", "500"))
	llmTemperature, _ := strconv.ParseFloat(getEnv("LLM_TEMPERATURE", "0.3"), 64)
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	redisStreamCount, _ := strconv.Atoi(getEnv("REDIS_STREAM_COUNT", "1"))
	redisStreamMaxLength, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "500"))
	manoaStartPage, _ := strconv.Atoi(getEnv("MANOA_START_PAGE", "0"))
	manoaEndPage, _ := strconv.Atoi(getEnv("MANOA_END_PAGE", "92"))

	return &Config{
		WorkerCount:        workerCount,
		CheckpointInterval: checkpointInterval,
		CheckpointPath:     getEnv("CHECKPOINT_PATH", "courses_extracted.json"),
		RequestDelay:       time.Duration(requestDelayMs) * time.Millisecond,

		ContextUnits:   contextUnits,
		ContextRecords: contextRecords,
		OverlapCount:   overlapCount,

		RetryAttempts: retryAttempts,
		RetryBackoff:  time.Duration(retryBackoff) * time.Second,

		RequestTimeout: time.Duration(requestTimeout) * time.Second,
		Renderer:       getEnv("RENDERER", RendererHTTP),
		ChromeSettle:   time.Duration(chromeSettleMs) * time.Millisecond,

		Strategy:       getEnv("EXTRACT_STRATEGY", StrategyDeterministic),
		LLMEndpoint:    getEnv("LLM_ENDPOINT", ""),
		LLMAPIKey:      getEnv("LLM_API_KEY", ""),
		LLMModel:       getEnv("LLM_MODEL", "gemini-1.5-flash"),
		LLMTemperature: llmTemperature,

		MemcacheAddr: getEnv("MEMCACHE_ADDR", "localhost:11211"),

		PublishEnabled:       getEnv("PUBLISH_ENABLED", "false") == "true",
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "courses"),
		RedisStreamCount:     redisStreamCount,
		RedisStreamMaxLength: redisStreamMaxLength,

		KapiolaniURL:        getEnv("KAPIOLANI_URL", "https://www.papakuhikuhi.com/courses.php"),
		ManoaURLTemplate:    getEnv("MANOA_URL_TEMPLATE", "https://catalog.manoa.hawaii.edu/content.php?catoid=2&navoid=420&filter%5Bcpage%5D={page}"),
		ManoaCoursePrefix:   getEnv("MANOA_COURSE_PREFIX", "https://catalog.manoa.hawaii.edu/preview_course_nopop.php?catoid=2&coid="),
		ManoaStartPage:      manoaStartPage,
		ManoaEndPage:        manoaEndPage,
		HiloCatalogURL:      getEnv("HILO_CATALOG_URL", "https://hilo.hawaii.edu/catalog/courses"),
		HiloDepartmentRegex: getEnv("HILO_DEPARTMENT_REGEX", `^(.+?)\s*\([A-Z]+\)\s*COURSES?`),

		Environment: getEnv("EXTRACTION_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for unrecoverable errors. It fails fast
// before any work begins.
func (c *Config) Validate() error {
	if c.WorkerCount < 1 {
		return fmt.Errorf("WORKER_COUNT must be at least 1, got %d", c.WorkerCount)
	}
	if c.CheckpointInterval < 1 {
		return fmt.Errorf("CHECKPOINT_INTERVAL must be at least 1, got %d", c.CheckpointInterval)
	}
	if c.CheckpointPath == "" {
		return fmt.Errorf("CHECKPOINT_PATH must not be empty")
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("RETRY_ATTEMPTS must be at least 1, got %d", c.RetryAttempts)
	}
	switch c.Strategy {
	case StrategyDeterministic:
	case StrategyAI:
		if c.LLMEndpoint == "" {
			return fmt.Errorf("LLM_ENDPOINT is required when EXTRACT_STRATEGY=ai")
		}
		if c.LLMAPIKey == "" {
			return fmt.Errorf("LLM_API_KEY is required when EXTRACT_STRATEGY=ai")
		}
	default:
		return fmt.Errorf("unknown EXTRACT_STRATEGY %q", c.Strategy)
	}
	switch c.Renderer {
	case RendererHTTP, RendererChrome:
	default:
		return fmt.Errorf("unknown RENDERER %q", c.Renderer)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
