// Package config loads server settings from PARISH_* environment variables.
package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	StoreDSN  string // PARISH_STORE_DSN (required; memory://, postgres://, sqlite://, redis://)
	HTTPAddr  string // PARISH_HTTP_ADDR (default ":8080")
	NATSURL   string // PARISH_NATS_URL (optional, empty = no events, no relay)
	AuthToken string // PARISH_AUTH_TOKEN (optional, empty = auth disabled)
	Timezone  string // PARISH_TIMEZONE (default "Local"; IANA name for the reminder calendar)

	// Synchronizer cadence
	BroadcastInterval time.Duration // PARISH_BROADCAST_INTERVAL (default 5s)
	ReminderInterval  time.Duration // PARISH_REMINDER_INTERVAL (default 60m)
	EventDebounce     time.Duration // PARISH_EVENT_DEBOUNCE (default 100ms)
	SessionIdle       time.Duration // PARISH_SESSION_IDLE (default 30m)

	// Backup settings
	BackupInterval   time.Duration // PARISH_BACKUP_INTERVAL (default 15m; 0 = disabled)
	BackupFile       string        // PARISH_BACKUP_FILE (enables a local file copy when set)
	BackupS3Bucket   string        // PARISH_BACKUP_S3_BUCKET (enables S3 when set)
	BackupS3Endpoint string        // PARISH_BACKUP_S3_ENDPOINT (custom endpoint for MinIO)
	BackupS3Region   string        // PARISH_BACKUP_S3_REGION (default "us-east-1")
	BackupS3Key      string        // PARISH_BACKUP_S3_KEY (default "parish/backup.jsonl")
}

func Load() (*Config, error) {
	c := &Config{
		StoreDSN:         os.Getenv("PARISH_STORE_DSN"),
		HTTPAddr:         envOrDefault("PARISH_HTTP_ADDR", ":8080"),
		NATSURL:          os.Getenv("PARISH_NATS_URL"),
		AuthToken:        os.Getenv("PARISH_AUTH_TOKEN"),
		Timezone:         envOrDefault("PARISH_TIMEZONE", "Local"),
		BackupFile:       os.Getenv("PARISH_BACKUP_FILE"),
		BackupS3Bucket:   os.Getenv("PARISH_BACKUP_S3_BUCKET"),
		BackupS3Endpoint: os.Getenv("PARISH_BACKUP_S3_ENDPOINT"),
		BackupS3Region:   envOrDefault("PARISH_BACKUP_S3_REGION", "us-east-1"),
		BackupS3Key:      envOrDefault("PARISH_BACKUP_S3_KEY", "parish/backup.jsonl"),
	}
	if c.StoreDSN == "" {
		return nil, fmt.Errorf("PARISH_STORE_DSN is required")
	}

	durations := []struct {
		env      string
		fallback string
		dst      *time.Duration
	}{
		{"PARISH_BROADCAST_INTERVAL", "5s", &c.BroadcastInterval},
		{"PARISH_REMINDER_INTERVAL", "60m", &c.ReminderInterval},
		{"PARISH_EVENT_DEBOUNCE", "100ms", &c.EventDebounce},
		{"PARISH_SESSION_IDLE", "30m", &c.SessionIdle},
		{"PARISH_BACKUP_INTERVAL", "15m", &c.BackupInterval},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(envOrDefault(d.env, d.fallback))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.env, err)
		}
		if v < 0 {
			return nil, fmt.Errorf("%s: must not be negative", d.env)
		}
		*d.dst = v
	}

	if _, err := c.Location(); err != nil {
		return nil, err
	}
	return c, nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("PARISH_TIMEZONE: %w", err)
	}
	return loc, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
