package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreBackendMemory   = "memory"
	StoreBackendPostgres = "postgres"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Store        StoreConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Escalation   EscalationConfig
	Notification NotificationConfig
	Tracing      TracingConfig
	Knowledge    KnowledgeConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// StoreConfig selects the ticket/knowledge backend.
type StoreConfig struct {
	Backend string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Enabled  bool
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level  string
	Format string
	Output string
}

// EscalationConfig holds the engine's timing and scan bounds.
type EscalationConfig struct {
	DedupWindow        time.Duration
	PendingLookupLimit int
	KnowledgeScanLimit int
	TicketTimeout      time.Duration
	SweepInterval      time.Duration
	TicketListLimit    int
	KnowledgeListLimit int
}

// NotificationConfig configures delivery of supervisor and follow-up events.
type NotificationConfig struct {
	QueueSize int
	Workers   int

	EmailFrom          string
	SupervisorEmails   []string
	SMTPHost           string
	SMTPPort           int
	SMTPUser           string
	SMTPPassword       string
	SMTPInsecureVerify bool
	MailPerMinute      int

	RedisChannelPrefix string

	KafkaBrokers []string
	KafkaTopic   string
}

// TracingConfig toggles the OpenTelemetry stdout exporter.
type TracingConfig struct {
	Enabled    bool
	OutputFile string
}

// KnowledgeConfig points at an optional seed file loaded at startup.
type KnowledgeConfig struct {
	SeedFile string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	backend := strings.ToLower(getEnv("STORE_BACKEND", StoreBackendMemory))
	if backend != StoreBackendMemory && backend != StoreBackendPostgres {
		return nil, fmt.Errorf("invalid STORE_BACKEND %q: want %s or %s", backend, StoreBackendMemory, StoreBackendPostgres)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "frontdesk-escalation-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "3000"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Store: StoreConfig{
			Backend: backend,
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			Output: getEnv("LOG_OUTPUT", "stdout"),
		},
		Escalation: EscalationConfig{
			DedupWindow:        getEnvAsDuration("ESCALATION_DEDUP_WINDOW", 60*time.Second),
			PendingLookupLimit: getEnvAsInt("ESCALATION_PENDING_LOOKUP_LIMIT", 5),
			KnowledgeScanLimit: getEnvAsInt("ESCALATION_KNOWLEDGE_SCAN_LIMIT", 500),
			TicketTimeout:      getEnvAsDuration("ESCALATION_TICKET_TIMEOUT", 10*time.Minute),
			SweepInterval:      getEnvAsDuration("ESCALATION_SWEEP_INTERVAL", 30*time.Second),
			TicketListLimit:    getEnvAsInt("ESCALATION_TICKET_LIST_LIMIT", 200),
			KnowledgeListLimit: getEnvAsInt("ESCALATION_KNOWLEDGE_LIST_LIMIT", 500),
		},
		Notification: NotificationConfig{
			QueueSize:          getEnvAsInt("NOTIFY_QUEUE_SIZE", 256),
			Workers:            getEnvAsInt("NOTIFY_WORKERS", 2),
			EmailFrom:          getEnv("NOTIFY_EMAIL_FROM", "frontdesk@example.com"),
			SupervisorEmails:   getEnvAsList("NOTIFY_SUPERVISOR_EMAILS"),
			SMTPHost:           os.Getenv("NOTIFY_SMTP_HOST"),
			SMTPPort:           getEnvAsInt("NOTIFY_SMTP_PORT", 587),
			SMTPUser:           os.Getenv("NOTIFY_SMTP_USER"),
			SMTPPassword:       os.Getenv("NOTIFY_SMTP_PASSWORD"),
			SMTPInsecureVerify: getEnvAsBool("NOTIFY_SMTP_INSECURE_SKIP_VERIFY", false),
			MailPerMinute:      getEnvAsInt("NOTIFY_MAIL_PER_MINUTE", 30),
			RedisChannelPrefix: getEnv("NOTIFY_REDIS_CHANNEL_PREFIX", "frontdesk"),
			KafkaBrokers:       getEnvAsList("NOTIFY_KAFKA_BROKERS"),
			KafkaTopic:         getEnv("NOTIFY_KAFKA_TOPIC", "frontdesk.escalations"),
		},
		Tracing: TracingConfig{
			Enabled:    getEnvAsBool("TRACING_ENABLED", false),
			OutputFile: os.Getenv("TRACING_OUTPUT_FILE"),
		},
		Knowledge: KnowledgeConfig{
			SeedFile: os.Getenv("KNOWLEDGE_SEED_FILE"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// MailEnabled reports whether supervisor e-mail can be sent.
func (n NotificationConfig) MailEnabled() bool {
	return n.SMTPHost != "" && len(n.SupervisorEmails) > 0
}

// KafkaEnabled reports whether events are streamed to Kafka.
func (n NotificationConfig) KafkaEnabled() bool {
	return len(n.KafkaBrokers) > 0
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	var items []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}
