package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr string

	// DatabaseURL enables the PostgreSQL stores when set; otherwise the
	// in-memory stores are used.
	DatabaseURL string

	// Redis backs the redemption store for distributed deployments.
	Redis RedisConfig

	// Kafka seeds enable the off-box audit sink when non-empty.
	KafkaBrokers []string
	KafkaTopic   string

	Issuer IssuerConfig
	Card   CardConfig
}

// RedisConfig tunes the optional Redis connection.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// IssuerConfig controls admission code generation.
type IssuerConfig struct {
	// Prefix is prepended to every code.
	Prefix string
	// Digits is the starting numeric width of the random suffix.
	Digits int
	// RetriesPerWidth bounds collision retries before the keyspace widens.
	RetriesPerWidth int
	// MaxDigits bounds keyspace widening; generation fails beyond this.
	MaxDigits int
}

// CardConfig controls card compositing and artifact output.
type CardConfig struct {
	// ArtifactDir is the root directory for rendered card files.
	ArtifactDir string
	// BaseURL is the landing-page prefix embedded in every QR payload.
	BaseURL string
	// MaxWidth/MaxHeight bound the output canvas; the source template is
	// fit inside this box preserving aspect ratio.
	MaxWidth  int
	MaxHeight int
	// JPEGQuality tunes output size for message-attachment limits.
	JPEGQuality int
	// QRSize is the QR edge length in pixels at scale 1.0.
	QRSize int
	// NameFontSize/TierFontSize are defaults when the template style leaves
	// them unset, in pixels at scale 1.0.
	NameFontSize int
	TierFontSize int
	// FontPath overrides the embedded default font when set.
	FontPath string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:         envOr("GUESTPASS_ADDR", ":8080"),
		DatabaseURL:  os.Getenv("GUESTPASS_DATABASE_URL"),
		Redis:        redisFromEnv(),
		KafkaBrokers: splitList(os.Getenv("GUESTPASS_KAFKA_BROKERS")),
		KafkaTopic:   envOr("GUESTPASS_KAFKA_TOPIC", "guestpass.audit"),
		Issuer: IssuerConfig{
			Prefix:          envOr("GUESTPASS_CODE_PREFIX", "KRGC"),
			Digits:          envInt("GUESTPASS_CODE_DIGITS", 6),
			RetriesPerWidth: envInt("GUESTPASS_CODE_RETRIES", 25),
			MaxDigits:       envInt("GUESTPASS_CODE_MAX_DIGITS", 9),
		},
		Card: CardConfig{
			ArtifactDir:  envOr("GUESTPASS_ARTIFACT_DIR", "storage"),
			BaseURL:      envOr("GUESTPASS_CARD_BASE_URL", "https://guestpass.local/rsvp"),
			MaxWidth:     envInt("GUESTPASS_CARD_MAX_WIDTH", 1200),
			MaxHeight:    envInt("GUESTPASS_CARD_MAX_HEIGHT", 1800),
			JPEGQuality:  envInt("GUESTPASS_CARD_JPEG_QUALITY", 80),
			QRSize:       envInt("GUESTPASS_CARD_QR_SIZE", 300),
			NameFontSize: envInt("GUESTPASS_CARD_NAME_FONT_SIZE", 98),
			TierFontSize: envInt("GUESTPASS_CARD_TIER_FONT_SIZE", 60),
			FontPath:     os.Getenv("GUESTPASS_CARD_FONT_PATH"),
		},
	}
}

func redisFromEnv() RedisConfig {
	return RedisConfig{
		URL:          os.Getenv("GUESTPASS_REDIS_URL"),
		PoolSize:     envInt("GUESTPASS_REDIS_POOL_SIZE", 10),
		MinIdleConns: envInt("GUESTPASS_REDIS_MIN_IDLE", 2),
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
