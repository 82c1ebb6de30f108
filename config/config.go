package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"leadstream/models"
)

var (
	DB        *gorm.DB
	AppConfig Config
	envLoaded bool
)

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"-"`
	DB       int    `json:"db"`
}

// SMTPConfig is the credentialed account used for sending outreach, not
// for verification probes (those use a dedicated identity).
type SMTPConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"-"`
	From     string `json:"from"`
}

type IMAPConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"-"`
	Mailbox  string `json:"mailbox"`
}

// DiscoveryConfig carries the email discovery engine knobs. Everything the
// engine touches on the network is set here; nothing is hard-coded.
type DiscoveryConfig struct {
	Backend        string   `json:"backend"` // smtp, api, heuristic
	HeloDomain     string   `json:"helo_domain"`
	MailFrom       string   `json:"mail_from"`
	Resolvers      []string `json:"resolvers"`
	PoolSize       int      `json:"pool_size"`
	ProbeRetries   int      `json:"probe_retries"`
	ProbePerSecond float64  `json:"probe_per_second"`
	PatternHints   bool     `json:"pattern_hints"`
	WhoisLookup    bool     `json:"whois_lookup"`
	CacheTTL       time.Duration

	// MailTester-style token API.
	APIKey       string `json:"-"`
	APITokenURL  string `json:"api_token_url"`
	APIVerifyURL string `json:"api_verify_url"`
}

type Config struct {
	Environment string `json:"environment"`
	ServerPort  string `json:"server_port"`

	DBHost         string `json:"db_host"`
	DBPort         string `json:"db_port"`
	DBUser         string `json:"db_user"`
	DBPassword     string `json:"-"`
	DBName         string `json:"db_name"`
	DBSSLMode      string `json:"db_ssl_mode"`
	DBMaxIdleConns int    `json:"db_max_idle_conns"`
	DBMaxOpenConns int    `json:"db_max_open_conns"`

	SMTP  SMTPConfig  `json:"smtp"`
	IMAP  IMAPConfig  `json:"imap"`
	Redis RedisConfig `json:"redis"`

	Discovery DiscoveryConfig `json:"discovery"`

	// LLM and search providers.
	PerplexityAPIKey string `json:"-"`
	PerplexityModel  string `json:"perplexity_model"`
	GeminiAPIKey     string `json:"-"`
	GeminiModel      string `json:"gemini_model"`
	GoogleCSEKey     string `json:"-"`
	GoogleCSEID      string `json:"google_cse_id"`

	// Public base URL for tracking pixels and decision links.
	TrackingBaseURL string `json:"tracking_base_url"`

	SentryDSN string `json:"-"`

	// Follow-up worker cadence.
	FollowupAfter time.Duration `json:"followup_after"`
	ReplyPoll     time.Duration `json:"reply_poll"`
}

func init() {
	// Optional; real deployments set the environment directly.
	envLoaded = godotenv.Load() == nil
}

func LoadConfig() error {
	AppConfig = Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		ServerPort:  getEnv("SERVER_PORT", "5000"),

		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "leadstream"),
		DBSSLMode:      getEnv("DB_SSL_MODE", "disable"),
		DBMaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 100),

		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("FROM_EMAIL", ""),
		},
		IMAP: IMAPConfig{
			Host:     getEnv("IMAP_HOST", ""),
			Port:     getEnvAsInt("IMAP_PORT", 993),
			Username: getEnv("IMAP_USERNAME", ""),
			Password: getEnv("IMAP_PASSWORD", ""),
			Mailbox:  getEnv("IMAP_MAILBOX", "INBOX"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},

		Discovery: DiscoveryConfig{
			Backend:        getEnv("DISCOVERY_BACKEND", "smtp"),
			HeloDomain:     getEnv("DISCOVERY_HELO_DOMAIN", "localhost"),
			MailFrom:       getEnv("DISCOVERY_MAIL_FROM", ""),
			Resolvers:      getEnvAsList("DISCOVERY_RESOLVERS", nil),
			PoolSize:       getEnvAsInt("DISCOVERY_POOL_SIZE", 3),
			ProbeRetries:   getEnvAsInt("DISCOVERY_PROBE_RETRIES", 1),
			ProbePerSecond: getEnvAsFloat("DISCOVERY_PROBE_PER_SECOND", 0),
			PatternHints:   getEnvAsBool("DISCOVERY_PATTERN_HINTS", false),
			WhoisLookup:    getEnvAsBool("DISCOVERY_WHOIS", false),
			CacheTTL:       getEnvAsDuration("DISCOVERY_CACHE_TTL", 24*time.Hour),
			APIKey:         getEnv("MAILTESTER_API_KEY", ""),
			APITokenURL:    getEnv("MAILTESTER_TOKEN_URL", ""),
			APIVerifyURL:   getEnv("MAILTESTER_VERIFY_URL", ""),
		},

		PerplexityAPIKey: getEnv("PERPLEXITY_API_KEY", ""),
		PerplexityModel:  getEnv("PERPLEXITY_MODEL", "sonar-pro"),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GoogleCSEKey:     getEnv("GOOGLE_CSE_KEY", ""),
		GoogleCSEID:      getEnv("GOOGLE_CSE_ID", ""),

		TrackingBaseURL: getEnv("TRACKING_BASE_URL", ""),
		SentryDSN:       getEnv("SENTRY_DSN", ""),

		FollowupAfter: getEnvAsDuration("FOLLOWUP_AFTER", 48*time.Hour),
		ReplyPoll:     getEnvAsDuration("REPLY_POLL_INTERVAL", 5*time.Minute),
	}

	if AppConfig.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if AppConfig.Discovery.Backend == "api" && AppConfig.Discovery.APIKey == "" {
		return fmt.Errorf("MAILTESTER_API_KEY is required when DISCOVERY_BACKEND=api")
	}
	if AppConfig.Environment == "production" {
		if AppConfig.SMTP.Host == "" || AppConfig.SMTP.Username == "" {
			return fmt.Errorf("SMTP credentials are required in production")
		}
		if AppConfig.TrackingBaseURL == "" {
			return fmt.Errorf("TRACKING_BASE_URL is required in production")
		}
	}

	logConfig()
	return nil
}

func ConnectDB() error {
	logrus.Info("connecting to database")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		AppConfig.DBHost,
		AppConfig.DBPort,
		AppConfig.DBUser,
		AppConfig.DBPassword,
		AppConfig.DBName,
		AppConfig.DBSSLMode,
	)
	logrus.Debug("using connection string: ", maskPassword(dsn))

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get DB instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(AppConfig.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(AppConfig.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if err := migrateDB(DB); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	logrus.Info("database connected and migrated")
	return nil
}

func migrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.EmailStatus{},
		&models.FollowupStatus{},
		&models.DiscoveryRecord{},
		&models.Prospect{},
		&models.DecisionMaker{},
	)
}

// Helper functions
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	if !envLoaded && fallback == "" {
		logrus.Warnf("environment variable %s not found and no fallback provided", key)
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var value int
	if _, err := fmt.Sscanf(valueStr, "%d", &value); err != nil {
		return fallback
	}
	return value
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var value float64
	if _, err := fmt.Sscanf(valueStr, "%g", &value); err != nil {
		return fallback
	}
	return value
}

func getEnvAsBool(key string, fallback bool) bool {
	switch strings.ToLower(getEnv(key, "")) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsList(key string, fallback []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func maskPassword(dsn string) string {
	const passwordMarker = "password="
	startIdx := strings.Index(dsn, passwordMarker)
	if startIdx == -1 {
		return dsn
	}
	startIdx += len(passwordMarker)
	endIdx := strings.IndexAny(dsn[startIdx:], " ")
	if endIdx == -1 {
		return dsn[:startIdx] + "*****"
	}
	return dsn[:startIdx] + "*****" + dsn[startIdx+endIdx:]
}

func logConfig() {
	logrus.WithFields(logrus.Fields{
		"environment": AppConfig.Environment,
		"server_port": AppConfig.ServerPort,
		"database":    fmt.Sprintf("%s@%s:%s/%s", AppConfig.DBUser, AppConfig.DBHost, AppConfig.DBPort, AppConfig.DBName),
		"backend":     AppConfig.Discovery.Backend,
		"redis":       AppConfig.Redis.Enabled,
	}).Info("configuration loaded")
}
