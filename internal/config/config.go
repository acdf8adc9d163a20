package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Env       Env
	Server    ServerConfig
	Database  DatabaseConfig
	Minio     MinioConfig
	NATS      NATSConfig
	Backbone  BackboneConfig
	Auth      AuthConfig
	Push      PushConfig
	Transcode TranscodeConfig
	Upload    UploadConfig
	Realtime  RealtimeConfig
}

type Env struct {
	Env string `envconfig:"ENV" default:"DEV"`
}

type ServerConfig struct {
	Host string `envconfig:"SERVER_HOST" default:"localhost"`
	Port string `envconfig:"SERVER_PORT" default:"8080"`
}

type DatabaseConfig struct {
	Host           string        `envconfig:"DB_HOST" required:"true"`
	Port           int           `envconfig:"DB_PORT" default:"5432"`
	User           string        `envconfig:"DB_USER" required:"true"`
	Password       string        `envconfig:"DB_PASSWORD" required:"true"`
	Name           string        `envconfig:"DB_NAME" required:"true"`
	SSLMode        string        `envconfig:"DB_SSLMODE" default:"disable"`
	MaxOpenCons    int           `envconfig:"DB_MAX_OPEN_CONS" default:"25"`
	MaxIdleCons    int           `envconfig:"DB_MAX_IDLE_CONS" default:"5"`
	ConMaxLifeTime time.Duration `envconfig:"DB_CONMAX_LIFE_TIME" default:"5m"`
}

type MinioConfig struct {
	Endpoint   string `envconfig:"MINIO_ENDPOINT" required:"true"`
	BucketName string `envconfig:"MINIO_BUCKET_NAME" required:"true"`
	AccessKey  string `envconfig:"MINIO_ACCESS_KEY" required:"true"`
	SecretKey  string `envconfig:"MINIO_SECRET_KEY" required:"true"`
	UseSSL     bool   `envconfig:"MINIO_USE_SSL" default:"false"`
	// PublicBaseURL prefixes object keys in returned URLs, e.g. https://cdn.example.com/media.
	// Defaults to <scheme>://<endpoint>/<bucket>.
	PublicBaseURL string `envconfig:"MINIO_PUBLIC_BASE_URL"`
}

// NATSConfig configures the transcoding job queue
type NATSConfig struct {
	Enabled      bool          `envconfig:"NATS_QUEUE_ENABLED" default:"true"`
	URL          string        `envconfig:"NATS_URL" default:"nats://localhost:4222"`
	StreamName   string        `envconfig:"NATS_STREAM_NAME" default:"TRANSCODE"`
	ConsumerName string        `envconfig:"NATS_CONSUMER_NAME" default:"transcode-worker"`
	Subject      string        `envconfig:"NATS_SUBJECT" default:"media.transcode"`
	Workers      int           `envconfig:"NATS_WORKERS" default:"2"`
	AckWait      time.Duration `envconfig:"NATS_ACK_WAIT" default:"15m"`
	MaxDeliver   int           `envconfig:"NATS_MAX_DELIVER" default:"5"`
	RetryDelay   time.Duration `envconfig:"NATS_RETRY_DELAY" default:"5s"`
}

// BackboneConfig configures cross-process real-time delivery
type BackboneConfig struct {
	Enabled       bool          `envconfig:"BACKBONE_ENABLED" default:"false"`
	KVBucket      string        `envconfig:"BACKBONE_KV_BUCKET" default:"realtime_membership"`
	MembershipTTL time.Duration `envconfig:"BACKBONE_MEMBERSHIP_TTL" default:"1m"`
	NodeID        string        `envconfig:"BACKBONE_NODE_ID"`
}

type AuthConfig struct {
	JWTSecret string `envconfig:"AUTH_JWT_SECRET" required:"true"`
}

// PushConfig holds the VAPID keys. Push is disabled when the keys are empty.
type PushConfig struct {
	VAPIDPublicKey  string `envconfig:"PUSH_VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `envconfig:"PUSH_VAPID_PRIVATE_KEY"`
	Subscriber      string `envconfig:"PUSH_SUBSCRIBER" default:"mailto:admin@example.com"`
	FrontendURL     string `envconfig:"FRONTEND_URL" default:"http://localhost:3000"`
}

type TranscodeConfig struct {
	FFmpegPath   string        `envconfig:"TRANSCODE_FFMPEG_PATH" default:"ffmpeg"`
	Timeout      time.Duration `envconfig:"TRANSCODE_TIMEOUT" default:"10m"`
	WorkDir      string        `envconfig:"TRANSCODE_WORK_DIR" default:"/tmp/sociallink-transcode"`
	MaxHeight    int           `envconfig:"TRANSCODE_MAX_HEIGHT" default:"720"`
	VideoBitrate string        `envconfig:"TRANSCODE_VIDEO_BITRATE" default:"1000k"`
	AudioBitrate string        `envconfig:"TRANSCODE_AUDIO_BITRATE" default:"128k"`
	// StalledAfter must exceed Timeout plus the download and upload time of a job
	StalledAfter time.Duration `envconfig:"TRANSCODE_STALLED_AFTER" default:"1h"`
	CleanupEvery time.Duration `envconfig:"TRANSCODE_CLEANUP_EVERY" default:"10m"`
}

type UploadConfig struct {
	MaxSize int64 `envconfig:"UPLOAD_MAX_SIZE" default:"104857600"` // 100MB
}

type RealtimeConfig struct {
	AllowedOrigins  []string `envconfig:"REALTIME_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	SendBuffer      int      `envconfig:"REALTIME_SEND_BUFFER" default:"256"`
	EventsPerSecond float64  `envconfig:"REALTIME_EVENTS_PER_SECOND" default:"20"`
	Burst           int      `envconfig:"REALTIME_BURST" default:"40"`
}

func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadDatabase reads the database settings only, for tools that need nothing else
func LoadDatabase() (*DatabaseConfig, error) {
	var cfg DatabaseConfig

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
