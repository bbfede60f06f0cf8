package config

// Config holds pylearn configuration.
// Stored at: {home}/config.yaml
type Config struct {
	Server    ServerCfg    `mapstructure:"server" yaml:"server"`
	Auth      AuthCfg      `mapstructure:"auth" yaml:"auth"`
	Embedding EmbeddingCfg `mapstructure:"embedding" yaml:"embedding"`
	Limits    LimitsCfg    `mapstructure:"limits" yaml:"limits"`
}

// ServerCfg configures the HTTP server.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`
}

// AuthCfg configures the fixed single-user account and session tokens.
type AuthCfg struct {
	Username        string `mapstructure:"username" yaml:"username"`
	Password        string `mapstructure:"password" yaml:"password"`     // Supports ${ENV_VAR} syntax
	JWTSecret       string `mapstructure:"jwt_secret" yaml:"jwt_secret"` // Supports ${ENV_VAR} syntax
	TokenTTLMinutes int    `mapstructure:"token_ttl_minutes" yaml:"token_ttl_minutes"`
}

// EmbeddingCfg configures the embedding backend and its availability guard.
type EmbeddingCfg struct {
	Provider string `mapstructure:"provider" yaml:"provider"` // "openai" or "mock"
	Model    string `mapstructure:"model" yaml:"model"`
	APIKey   string `mapstructure:"api_key" yaml:"api_key"` // Supports ${ENV_VAR} syntax

	BatchSize int `mapstructure:"batch_size" yaml:"batch_size"`

	// Backend call budget and failure handling
	CallsPerHour    int `mapstructure:"calls_per_hour" yaml:"calls_per_hour"`
	CooldownMinutes int `mapstructure:"cooldown_minutes" yaml:"cooldown_minutes"`
	MaxErrors       int `mapstructure:"max_errors" yaml:"max_errors"`

	// Retry policy for cold-start operations
	InitRetries    int `mapstructure:"init_retries" yaml:"init_retries"`
	CorpusRetries  int `mapstructure:"corpus_retries" yaml:"corpus_retries"`
	RetryBaseDelay int `mapstructure:"retry_base_delay_seconds" yaml:"retry_base_delay_seconds"`
}

// LimitsCfg configures the per-client request limiter and upload validation.
// These throttle client requests; the embedding guard throttles backend calls.
type LimitsCfg struct {
	RequestsPerMinute  int `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	MaxUploadSizeMB    int `mapstructure:"max_upload_size_mb" yaml:"max_upload_size_mb"`
	MaxFilesPerRequest int `mapstructure:"max_files_per_request" yaml:"max_files_per_request"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerCfg{
			Host: "127.0.0.1",
			Port: "8000",
		},
		Auth: AuthCfg{
			Username:        "taanya",
			Password:        "${PYLEARN_PASSWORD}",
			JWTSecret:       "${PYLEARN_JWT_SECRET}",
			TokenTTLMinutes: 60 * 24 * 7,
		},
		Embedding: EmbeddingCfg{
			Provider:        "openai",
			Model:           "text-embedding-3-small",
			APIKey:          "${OPENAI_API_KEY}",
			BatchSize:       32,
			CallsPerHour:    50,
			CooldownMinutes: 60,
			MaxErrors:       3,
			InitRetries:     3,
			CorpusRetries:   2,
			RetryBaseDelay:  1,
		},
		Limits: LimitsCfg{
			RequestsPerMinute:  60,
			MaxUploadSizeMB:    10,
			MaxFilesPerRequest: 5,
		},
	}
}
