// Package tuning holds channel buffer and pool sizing for the server.
package tuning

// Config holds tuned parameters for the hub, clients, and storage.
type Config struct {
	// Channel buffer sizes
	BroadcastChannelBuffer int
	ClientSendBuffer       int

	// Connection pools
	DBMaxOpenConns int
	DBMaxIdleConns int

	// Per-client intent rate limiting
	ClientIntentsPerSecond float64
	ClientIntentBurst      int
}

// DefaultConfig returns sensible defaults for a single-guest session with a
// handful of observers.
func DefaultConfig() *Config {
	return &Config{
		BroadcastChannelBuffer: 64,
		ClientSendBuffer:       64,

		DBMaxOpenConns: 4,
		DBMaxIdleConns: 2,

		// Animations are sub-second; allow quick taps but stop floods.
		ClientIntentsPerSecond: 20,
		ClientIntentBurst:      10,
	}
}

// LowResourceConfig returns minimal settings for development.
func LowResourceConfig() *Config {
	return &Config{
		BroadcastChannelBuffer: 16,
		ClientSendBuffer:       8,

		DBMaxOpenConns: 2,
		DBMaxIdleConns: 1,

		ClientIntentsPerSecond: 5,
		ClientIntentBurst:      3,
	}
}
