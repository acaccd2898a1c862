package models

// MConfig Structure
type MConfig struct {
	Name      string                    `yaml:"name" env:"CANDLE_FEED_NAME"`
	Host      string                    `yaml:"host" env:"CANDLE_FEED_HOST"`
	Port      int                       `yaml:"port" env:"CANDLE_FEED_PORT"`
	LogLevel  string                    `yaml:"log_level" env:"CANDLE_FEED_LOG_LEVEL"`
	GrpcHost  string                    `yaml:"grpc_host" env:"CANDLE_FEED_GRPC_HOST"`
	GrpcPort  int                       `yaml:"grpc_port" env:"CANDLE_FEED_GRPC_PORT"`
	Poller    MPollerConfig             `yaml:"poller" envPrefix:"CANDLE_FEED_POLLER_"`
	Session   MSessionConfig            `yaml:"session" envPrefix:"CANDLE_FEED_SESSION_"`
	Exchanges map[string]MSessionConfig `yaml:"exchange_sessions"`
	Upstream  MUpstreamConfig           `yaml:"upstream" envPrefix:"CANDLE_FEED_UPSTREAM_"`
	Seed      MSeedConfig               `yaml:"seed" envPrefix:"CANDLE_FEED_SEED_"`
	Transport MTransportConfig          `yaml:"transport" envPrefix:"CANDLE_FEED_TRANSPORT_"`
}

type MPollerConfig struct {
	IntervalMs       int `yaml:"interval_ms" env:"INTERVAL_MS"`
	RequestTimeoutMs int `yaml:"request_timeout_ms" env:"REQUEST_TIMEOUT_MS"`
	SeedTimeoutMs    int `yaml:"seed_timeout_ms" env:"SEED_TIMEOUT_MS"`
}

// MSessionConfig describes one exchange's trading window in its civil time zone.
// Open and Close are "HH:MM" wall-clock times, both inclusive.
type MSessionConfig struct {
	Timezone string `yaml:"timezone" env:"TIMEZONE"`
	Open     string `yaml:"open" env:"OPEN"`
	Close    string `yaml:"close" env:"CLOSE"`
	Calendar string `yaml:"calendar" env:"CALENDAR"` // optional ISO 10383 MIC, e.g. "xnse"
}

type MUpstreamConfig struct {
	Mode          string  `yaml:"mode" env:"MODE"` // "broker" or "simulated"
	BaseURL       string  `yaml:"base_url" env:"BASE_URL"`
	QuotePath     string  `yaml:"quote_path" env:"QUOTE_PATH"`
	APIKey        string  `yaml:"api_key" env:"API_KEY"`
	AccessToken   string  `yaml:"access_token" env:"ACCESS_TOKEN"`
	ClientCode    string  `yaml:"client_code" env:"CLIENT_CODE"`
	RatePerSecond float64 `yaml:"rate_per_second" env:"RATE_PER_SECOND"`
	Burst         int     `yaml:"burst" env:"BURST"`

	// RejectCooldownMs is how long a rejected token pauses quotes before one
	// call is let through to check whether the upstream accepts it again.
	RejectCooldownMs int `yaml:"reject_cooldown_ms" env:"REJECT_COOLDOWN_MS"`
}

type MSeedConfig struct {
	DBType             string `yaml:"db_type" env:"DB_TYPE"` // none, sqlite, postgres, redis
	DBPath             string `yaml:"db_path" env:"DB_PATH"`
	DBConnectionString string `yaml:"db_connection_string" env:"DB_CONNECTION_STRING"`
	RedisAddr          string `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword      string `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB            int    `yaml:"redis_db" env:"REDIS_DB"`
}

type MTransportConfig struct {
	SendBuffer int `yaml:"send_buffer" env:"SEND_BUFFER"`
}
