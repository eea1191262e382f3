package publisher

// Publisher delivers extracted records and progress events to operators in
// real time. Publishing is best-effort: a failed publish is logged by the
// caller and never affects the committed result set.
type Publisher interface {
	// Publish publishes a message under the given event key
	Publish(key string, message []byte) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams() error

	// Close closes the publisher connection
	Close() error
}
