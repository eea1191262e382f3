package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, 4, cfg.WorkerCount)
	assert.Equal(t, 10, cfg.CheckpointInterval)
	assert.Equal(t, "courses_extracted.json", cfg.CheckpointPath)
	assert.Equal(t, 100*time.Millisecond, cfg.RequestDelay)

	assert.Equal(t, 3, cfg.ContextUnits)
	assert.Equal(t, 5, cfg.ContextRecords)
	assert.Equal(t, 2, cfg.OverlapCount)

	assert.Equal(t, 3, cfg.RetryAttempts)
	assert.Equal(t, time.Second, cfg.RetryBackoff)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)

	assert.Equal(t, StrategyDeterministic, cfg.Strategy)
	assert.Equal(t, RendererHTTP, cfg.Renderer)
	assert.Equal(t, "gemini-1.5-flash", cfg.LLMModel)

	assert.False(t, cfg.PublishEnabled)
	assert.Equal(t, "development", cfg.Environment)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("CHECKPOINT_INTERVAL", "25")
	t.Setenv("EXTRACT_STRATEGY", "ai")
	t.Setenv("LLM_ENDPOINT", "https://llm.example.com/v1/chat/completions")
	t.Setenv("LLM_API_KEY", "test-key")
	t.Setenv("PUBLISH_ENABLED", "true")
	t.Setenv("RENDERER", "chrome")
	t.Setenv("REQUEST_DELAY_MS", "250")

	cfg := LoadConfig()

	assert.Equal(t, 8, cfg.WorkerCount)
	assert.Equal(t, 25, cfg.CheckpointInterval)
	assert.Equal(t, StrategyAI, cfg.Strategy)
	assert.Equal(t, "https://llm.example.com/v1/chat/completions", cfg.LLMEndpoint)
	assert.True(t, cfg.PublishEnabled)
	assert.Equal(t, RendererChrome, cfg.Renderer)
	assert.Equal(t, 250*time.Millisecond, cfg.RequestDelay)
}

func TestValidate(t *testing.T) {
	valid := LoadConfig()
	assert.NoError(t, valid.Validate())

	badWorkers := LoadConfig()
	badWorkers.WorkerCount = 0
	assert.Error(t, badWorkers.Validate())

	badInterval := LoadConfig()
	badInterval.CheckpointInterval = 0
	assert.Error(t, badInterval.Validate())

	badPath := LoadConfig()
	badPath.CheckpointPath = ""
	assert.Error(t, badPath.Validate())

	badStrategy := LoadConfig()
	badStrategy.Strategy = "telepathy"
	assert.Error(t, badStrategy.Validate())

	badRenderer := LoadConfig()
	badRenderer.Renderer = "lynx"
	assert.Error(t, badRenderer.Validate())
}

func TestValidateAIStrategyRequiresCredentials(t *testing.T) {
	cfg := LoadConfig()
	cfg.Strategy = StrategyAI
	cfg.LLMEndpoint = ""
	cfg.LLMAPIKey = ""

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "LLM_ENDPOINT")

	cfg.LLMEndpoint = "https://llm.example.com"
	err = cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "LLM_API_KEY")

	cfg.LLMAPIKey = "test-key"
	assert.NoError(t, cfg.Validate())
}
