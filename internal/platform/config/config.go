package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process-wide configuration, loaded once at startup and passed
// explicitly to the components that need it. Nothing reads the environment
// after Load returns.
type Config struct {
	Server      ServerConfig
	Captcha     CaptchaConfig
	Lockout     LockoutConfig
	Directory   DirectoryConfig
	Blocklist   BlocklistConfig
	AccountLock AccountLockConfig
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr               string
	Env                string
	LogLevel           string
	RequestTimeout     time.Duration
	RateLimitPerMinute int
}

// CaptchaConfig configures the external CAPTCHA verification oracle.
type CaptchaConfig struct {
	Secret    string
	VerifyURL string
	Timeout   time.Duration
}

// LockoutConfig holds the attempt-throttle policy knobs. Both values are
// process-wide, not per-account.
type LockoutConfig struct {
	Threshold    int
	LockDuration time.Duration
}

// DirectoryConfig configures the external identity directory client.
// AttrIncorrectAttempts and AttrNextLoginTime are the directory-side names of
// the two extension attributes this service reads and writes; they vary per
// tenant, which is why they are configuration rather than constants.
type DirectoryConfig struct {
	TenantID              string
	ClientID              string
	ClientSecret          string
	BaseURL               string
	TokenURL              string
	Scope                 string
	Timeout               time.Duration
	AttrIncorrectAttempts string
	AttrNextLoginTime     string
}

// BlocklistConfig configures the blob store holding the two block lists.
type BlocklistConfig struct {
	BaseURL            string
	Container          string
	BlockedDomainsBlob string
	BlockedEmailsBlob  string
	SASToken           string
	Timeout            time.Duration
}

// AccountLockConfig configures the optional Redis-backed per-account mutex
// around validate-login's read-modify-write. Disabled by default, which keeps
// the source system's race-accepting behavior.
type AccountLockConfig struct {
	Enabled   bool
	RedisAddr string
	TTL       time.Duration
}

// Load builds the Config from environment variables so main stays lean.
// A .env file is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Addr:               getEnv("IDGUARD_ADDR", ":8080"),
			Env:                getEnv("IDGUARD_ENV", "development"),
			LogLevel:           getEnv("LOG_LEVEL", "info"),
			RequestTimeout:     getEnvAsDuration("REQUEST_TIMEOUT", 30*time.Second),
			RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60),
		},
		Captcha: CaptchaConfig{
			Secret:    os.Getenv("CAPTCHA_SECRET"),
			VerifyURL: getEnv("CAPTCHA_VERIFY_URL", "https://www.google.com/recaptcha/api/siteverify"),
			Timeout:   getEnvAsDuration("CAPTCHA_TIMEOUT", 10*time.Second),
		},
		Lockout: LockoutConfig{
			Threshold:    getEnvAsInt("LOCKOUT_THRESHOLD", 5),
			LockDuration: time.Duration(getEnvAsInt("LOCKOUT_DURATION_MINUTES", 30)) * time.Minute,
		},
		Directory: DirectoryConfig{
			TenantID:              os.Getenv("DIRECTORY_TENANT_ID"),
			ClientID:              os.Getenv("DIRECTORY_CLIENT_ID"),
			ClientSecret:          os.Getenv("DIRECTORY_CLIENT_SECRET"),
			BaseURL:               getEnv("DIRECTORY_BASE_URL", "https://graph.microsoft.com/v1.0"),
			TokenURL:              os.Getenv("DIRECTORY_TOKEN_URL"),
			Scope:                 getEnv("DIRECTORY_SCOPE", "https://graph.microsoft.com/.default"),
			Timeout:               getEnvAsDuration("DIRECTORY_TIMEOUT", 10*time.Second),
			AttrIncorrectAttempts: os.Getenv("DIRECTORY_ATTR_INCORRECT_ATTEMPTS"),
			AttrNextLoginTime:     os.Getenv("DIRECTORY_ATTR_NEXT_LOGIN_TIME"),
		},
		Blocklist: BlocklistConfig{
			BaseURL:            os.Getenv("BLOCKLIST_BASE_URL"),
			Container:          getEnv("BLOCKLIST_CONTAINER", "blocklists"),
			BlockedDomainsBlob: getEnv("BLOCKED_DOMAINS_BLOB", "blocked_domains.txt"),
			BlockedEmailsBlob:  getEnv("BLOCKED_EMAILS_BLOB", "blocked_emails.txt"),
			SASToken:           os.Getenv("BLOCKLIST_SAS_TOKEN"),
			Timeout:            getEnvAsDuration("BLOCKLIST_TIMEOUT", 10*time.Second),
		},
		AccountLock: AccountLockConfig{
			Enabled:   getEnv("ACCOUNT_LOCK_ENABLED", "false") == "true",
			RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
			TTL:       getEnvAsDuration("ACCOUNT_LOCK_TTL", 5*time.Second),
		},
	}

	if cfg.Captcha.Secret == "" {
		return nil, fmt.Errorf("CAPTCHA_SECRET is required")
	}
	if cfg.Directory.TenantID == "" || cfg.Directory.ClientID == "" || cfg.Directory.ClientSecret == "" {
		return nil, fmt.Errorf("DIRECTORY_TENANT_ID, DIRECTORY_CLIENT_ID and DIRECTORY_CLIENT_SECRET are required")
	}
	if cfg.Directory.TokenURL == "" {
		cfg.Directory.TokenURL = fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", cfg.Directory.TenantID)
	}
	if cfg.Directory.AttrIncorrectAttempts == "" || cfg.Directory.AttrNextLoginTime == "" {
		return nil, fmt.Errorf("DIRECTORY_ATTR_INCORRECT_ATTEMPTS and DIRECTORY_ATTR_NEXT_LOGIN_TIME are required")
	}
	if cfg.Blocklist.BaseURL == "" {
		return nil, fmt.Errorf("BLOCKLIST_BASE_URL is required")
	}
	if cfg.Lockout.Threshold < 1 {
		return nil, fmt.Errorf("LOCKOUT_THRESHOLD must be at least 1 (got %d)", cfg.Lockout.Threshold)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
