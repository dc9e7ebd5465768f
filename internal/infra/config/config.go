package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// AppConfig describes configuration shared by all binaries.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	Port   int    `envconfig:"PORT" default:"8787"`

	PGDSN string `envconfig:"PG_DSN"`

	DB struct {
		MaxConns    int32 `envconfig:"PG_MAX_CONNS" default:"5"`
		AutoMigrate bool  `envconfig:"DB_AUTO_MIGRATE" default:"false"`
	} `envconfig:""`

	Server struct {
		ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
		WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"15s"`
		IdleTimeout     time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"60s"`
		RequestTimeout  time.Duration `envconfig:"SERVER_REQUEST_TIMEOUT" default:"30s"`
		ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
	} `envconfig:""`

	Admin struct {
		APIKey string `envconfig:"ADMIN_API_KEY"`
	} `envconfig:""`

	CORS struct {
		Origins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000,http://localhost:3001"`
	} `envconfig:""`

	Limits struct {
		MaxPageSize       int           `envconfig:"MAX_PAGE_SIZE" default:"100"`
		RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"20"`
		RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
	} `envconfig:""`

	Thread struct {
		OrphanPolicy string `envconfig:"THREAD_ORPHAN_POLICY" default:"drop"`
	} `envconfig:""`

	RedisAddr string `envconfig:"REDIS_ADDR"`
	RabbitURL string `envconfig:"RABBITMQ_URL"`

	Queues struct {
		Backend string `envconfig:"QUEUE_BACKEND"`
		Events  string `envconfig:"EVENTS_QUEUE_KEY" default:"feedback_events"`
	} `envconfig:""`

	Telegram struct {
		Token            string  `envconfig:"TG_BOT_TOKEN"`
		ModeratorChatIDs []int64 `envconfig:"TG_MODERATOR_CHAT_IDS"`
		WebhookSecret    string  `envconfig:"TG_WEBHOOK_SECRET"`
		GatewayPort      int     `envconfig:"BOT_GATEWAY_PORT" default:"8080"`
	} `envconfig:""`

	Metrics struct {
		Addr string `envconfig:"METRICS_ADDR" default:":9090"`
	} `envconfig:""`

	Reminder struct {
		Interval  time.Duration `envconfig:"REMINDER_INTERVAL" default:"1h"`
		Threshold int           `envconfig:"REMINDER_THRESHOLD" default:"10"`
	} `envconfig:""`
}

// Load reads an optional .env file and then the environment.
func Load() AppConfig {
	_ = godotenv.Load()
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("config: failed to load: %v", err)
	}
	return cfg
}
