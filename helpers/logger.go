package helpers

// LoggerInterface defines the interface for logger implementations injected
// into the pipeline, so tests can capture output without a real logger.
type LoggerInterface interface {
	LogError(source string, err error)
	LogInfo(format string, args ...interface{})
}
