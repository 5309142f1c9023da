package cfg

import "time"

type Cfg struct {
	// Application configuration
	FeedsDir    string
	FeedURLs    []string
	Port        string
	BaseUrl     string
	WorkerCount int

	// Embedding provider
	EmbeddingProvider   string
	EmbeddingModel      string
	EmbeddingBaseURL    string
	EmbeddingAPIKey     string
	EmbeddingDimensions int

	// Seedr account
	Seedr             AccountCredentials
	SeedrBaseURL      string
	SeedrTimeout      time.Duration
	SeedrSettleDelay  time.Duration
	SeedrPollAttempts int
	SeedrPollInterval time.Duration

	// Outbound fetches
	FetchTimeout time.Duration

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	LogFile   string
	Version   string
}

// AccountCredentials is the single shared login used for every Seedr call.
type AccountCredentials struct {
	Email    string
	Password string
}
